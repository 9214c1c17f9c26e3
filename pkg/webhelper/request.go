package webhelper

import (
	"context"
	"fmt"
	"net/http"

	"github.com/samvad-hq/samvad-webhelpers/pkg/httpclient"
)

// Request sends a call through c and decodes the response body into T.
// An empty body yields the zero T without error.
func Request[T any](ctx context.Context, c *Client, method, url string, body any, opts ...CallOption) (T, *httpclient.Response, error) {
	var zero T
	if c == nil {
		return zero, nil, fmt.Errorf("%w: client must not be nil", ErrNullArgument)
	}
	call := newCallConfig(opts)
	var out T
	resp, err := c.exchange(ctx, method, url, body, call, func(b []byte) error {
		v, err := decodeInto[T](c, url, b, call)
		out = v
		return err
	})
	if err != nil {
		return zero, resp, err
	}
	return out, resp, nil
}

func decodeInto[T any](c *Client, url string, body []byte, call callConfig) (T, error) {
	var out T
	if len(body) == 0 {
		return out, nil
	}
	dec := call.decoder
	if dec == nil {
		dec = c.decoder
	}
	if err := dec(body, &out); err != nil {
		var zero T
		derr := &DecodeError{URL: url, Target: fmt.Sprintf("%T", out), Body: body, Cause: err}
		c.log.ErrorObj("response decode failed", "decode_error", map[string]any{
			"url":    url,
			"target": derr.Target,
			"error":  err.Error(),
		})
		return zero, derr
	}
	return out, nil
}

// Get issues a GET and decodes the response.
func Get[T any](ctx context.Context, c *Client, url string, opts ...CallOption) (T, error) {
	out, _, err := Request[T](ctx, c, http.MethodGet, url, nil, opts...)
	return out, err
}

// GetWithBody issues a GET carrying a JSON body.
func GetWithBody[T any](ctx context.Context, c *Client, url string, body any, opts ...CallOption) (T, error) {
	out, _, err := Request[T](ctx, c, http.MethodGet, url, body, opts...)
	return out, err
}

// Post issues a POST with a JSON body.
func Post[T any](ctx context.Context, c *Client, url string, body any, opts ...CallOption) (T, error) {
	out, _, err := Request[T](ctx, c, http.MethodPost, url, body, opts...)
	return out, err
}

// Put issues a PUT with a JSON body.
func Put[T any](ctx context.Context, c *Client, url string, body any, opts ...CallOption) (T, error) {
	out, _, err := Request[T](ctx, c, http.MethodPut, url, body, opts...)
	return out, err
}

// PutEmpty issues a PUT without content.
func PutEmpty[T any](ctx context.Context, c *Client, url string, opts ...CallOption) (T, error) {
	out, _, err := Request[T](ctx, c, http.MethodPut, url, nil, opts...)
	return out, err
}

// Delete issues a DELETE without content.
func Delete[T any](ctx context.Context, c *Client, url string, opts ...CallOption) (T, error) {
	out, _, err := Request[T](ctx, c, http.MethodDelete, url, nil, opts...)
	return out, err
}

// DeleteWithBody issues a DELETE carrying a JSON body.
func DeleteWithBody[T any](ctx context.Context, c *Client, url string, body any, opts ...CallOption) (T, error) {
	out, _, err := Request[T](ctx, c, http.MethodDelete, url, body, opts...)
	return out, err
}
