package httpclient

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const hdrContentType = "Content-Type"

type wireHeaderKey struct{}

// TransportOptions configures a resty-backed transport.
type TransportOptions struct {
	BaseURL string
	Timeout time.Duration
}

// RestyTransport adapts resty.Client to the Transport interface.
type RestyTransport struct {
	client *resty.Client
}

// NewRestyTransport creates a transport with its own resty client.
func NewRestyTransport(opts TransportOptions) *RestyTransport {
	c := newRestyBaseClient(opts.Timeout)
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		c.SetBaseURL(base)
	}
	return WrapResty(c)
}

// WrapResty adopts an existing resty client. Its default header set is
// cleared and its pre-request hook replaced, so the outgoing request carries
// exactly the headers of the Request being sent. resty's own additions, such
// as copying a JSON Content-Type into Accept, are dropped.
func WrapResty(c *resty.Client) *RestyTransport {
	if c == nil {
		c = resty.New()
	}
	c.Header = make(http.Header)
	c.SetPreRequestHook(applyWireHeader)
	return &RestyTransport{client: c}
}

func applyWireHeader(_ *resty.Client, hr *http.Request) error {
	if h, ok := hr.Context().Value(wireHeaderKey{}).(http.Header); ok {
		hr.Header = h.Clone()
	}
	return nil
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

// Send executes req with exactly the headers it carries.
func (t *RestyTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	wire := req.Header.Clone()
	if wire == nil {
		wire = make(http.Header)
	}
	if req.Body != nil && req.ContentType != "" {
		wire.Set(hdrContentType, req.ContentType)
	}

	r := t.client.R().SetContext(context.WithValue(ctx, wireHeaderKey{}, wire))
	r.Header = wire.Clone()
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}

// Get performs a plain GET with the given headers.
func (t *RestyTransport) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	h := make(http.Header, len(headers))
	for k, v := range headers {
		h.Set(k, v)
	}
	return t.Send(ctx, &Request{Method: http.MethodGet, URL: url, Header: h})
}
