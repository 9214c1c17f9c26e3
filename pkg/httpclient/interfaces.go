package httpclient

import (
	"context"
	"net/http"
)

// Request is a single outgoing exchange. Header is the complete outgoing
// header set; transports must not merge their own defaults into it.
type Request struct {
	Method      string
	URL         string
	Header      http.Header
	Body        []byte
	ContentType string
}

// Response is the fully read result of an exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode <= 299
}

// Transport abstracts HTTP calls so callers can inject mocks or different transports.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

func (f TransportFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
