package webhelper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-webhelpers/pkg/cloudauth"
	"github.com/samvad-hq/samvad-webhelpers/pkg/httpclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/http/httpguts"
	"golang.org/x/time/rate"
)

const (
	tracerName = "github.com/samvad-hq/samvad-webhelpers/pkg/webhelper"

	// ContentTypeJSON is sent with every request that carries a body.
	ContentTypeJSON = "application/json; charset=utf-8"
)

// Client issues JSON requests through a Transport, applying the derived
// cloud auth header and the custom header set on every call.
//
// Header mutation and the per-call header snapshot share one lock, so
// AddHeader/ClearHeaders may run concurrently with in-flight calls; each call
// sees the headers as they were when it started. SetAuth and SetAPIKey take
// the same lock. Writing the *cloudauth.Config fields directly while calls are
// in flight needs the caller's own synchronization.
type Client struct {
	transport httpclient.Transport

	mu      sync.RWMutex
	auth    *cloudauth.Config
	headers map[string]string

	log     Logger
	limiter *rate.Limiter
	tracer  trace.Tracer
	decoder Decoder
	after   []AfterHook
}

// New builds a client. auth is held by reference; changes to it are picked
// up by the next call. Use SetAuth to change it while calls may be running.
// The transport is owned by the caller.
func New(transport httpclient.Transport, auth *cloudauth.Config, opts ...Option) (*Client, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: transport must not be nil", ErrNullArgument)
	}
	if auth == nil {
		return nil, fmt.Errorf("%w: auth config must not be nil", ErrNullArgument)
	}
	c := &Client{
		transport: transport,
		auth:      auth,
		headers:   make(map[string]string),
		log:       noopLogger{},
		tracer:    otel.Tracer(tracerName),
		decoder:   DefaultDecoder,
	}
	for _, o := range opts {
		if o != nil {
			o(c)
		}
	}
	return c, nil
}

// APIKey returns the current authentication key.
func (c *Client) APIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth.Key
}

// SetAPIKey replaces the authentication key used from the next call on.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	c.auth.Key = key
	c.mu.Unlock()
}

// SetAuth replaces the whole auth config in place, so the caller's pointer
// observes the change too.
func (c *Client) SetAuth(cfg cloudauth.Config) {
	c.mu.Lock()
	*c.auth = cfg
	c.mu.Unlock()
}

// AddHeader stores a custom header sent with every subsequent call. An
// existing header with the same name is overwritten.
func (c *Client) AddHeader(name, value string) error {
	if name == "" || !httpguts.ValidHeaderFieldName(name) {
		return fmt.Errorf("%w: header name %q", ErrInvalidArgument, name)
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return fmt.Errorf("%w: header %q", ErrInvalidValue, name)
	}
	c.mu.Lock()
	c.headers[name] = value
	c.mu.Unlock()
	return nil
}

// AddHeaders applies AddHeader for each entry and stops at the first failure.
func (c *Client) AddHeaders(headers map[string]string) error {
	if headers == nil {
		return fmt.Errorf("%w: headers map must not be nil", ErrNullArgument)
	}
	for name, value := range headers {
		if err := c.AddHeader(name, value); err != nil {
			return err
		}
	}
	return nil
}

// ClearHeaders drops every custom header. The auth header is unaffected.
func (c *Client) ClearHeaders() {
	c.mu.Lock()
	clear(c.headers)
	c.mu.Unlock()
}

// Headers returns a copy of the custom header set.
func (c *Client) Headers() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.headers))
	for k, v := range c.headers {
		out[k] = v
	}
	return out
}

// buildHeaders assembles the full outgoing header set from scratch.
func (c *Client) buildHeaders() (http.Header, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	h := make(http.Header, len(c.headers)+1)
	name, value, ok, err := cloudauth.Header(*c.auth)
	if err != nil {
		return nil, err
	}
	if ok {
		h.Add(name, value)
	}
	for k, v := range c.headers {
		h.Add(k, v)
	}
	return h, nil
}

// Send performs one request. A nil body sends no content; anything else is
// encoded as JSON. Unless AllowFailure is given, a non-2xx status fails the
// call with *StatusError. Cancellation of ctx is returned as ctx.Err().
func (c *Client) Send(ctx context.Context, method, url string, body any, opts ...CallOption) (*httpclient.Response, error) {
	return c.exchange(ctx, method, url, body, newCallConfig(opts), nil)
}

// exchange runs one call, decodes the body when decode is set and then
// reports the outcome to the after-hooks, so a decode failure is part of it.
func (c *Client) exchange(ctx context.Context, method, url string, body any, call callConfig, decode func([]byte) error) (*httpclient.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	method = strings.ToUpper(strings.TrimSpace(method))

	start := time.Now()
	resp, err := c.send(ctx, method, url, body, call)
	if err == nil && decode != nil {
		err = decode(resp.Body)
	}

	out := Outcome{Method: method, URL: url, Duration: time.Since(start), Err: err}
	if resp != nil {
		out.StatusCode = resp.StatusCode
	} else if se, ok := AsStatusError(err); ok {
		out.StatusCode = se.StatusCode
	}
	for _, h := range c.after {
		h(ctx, out)
	}
	return resp, err
}

func (c *Client) send(ctx context.Context, method, url string, body any, call callConfig) (*httpclient.Response, error) {
	if !supportedMethod(method) {
		return nil, c.fail(fmt.Errorf("%w: unsupported method %q", ErrInvalidArgument, method), method, url)
	}
	if strings.TrimSpace(url) == "" {
		return nil, c.fail(fmt.Errorf("%w: url must not be empty", ErrInvalidArgument), method, url)
	}

	c.log.DebugObj("executing request", "request", map[string]any{
		"method":   method,
		"url":      url,
		"has_body": body != nil,
	})

	header, err := c.buildHeaders()
	if err != nil {
		return nil, c.fail(fmt.Errorf("apply headers: %w", err), method, url)
	}

	req := &httpclient.Request{Method: method, URL: url, Header: header}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, c.fail(fmt.Errorf("encode request body: %w", err), method, url)
		}
		req.Body = payload
		req.ContentType = ContentTypeJSON
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, c.fail(fmt.Errorf("rate limiter: %w", err), method, url)
		}
	}

	ctx, span := c.tracer.Start(ctx, "HTTP "+method, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.full", url),
	)
	defer span.End()

	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			span.SetStatus(codes.Error, cerr.Error())
			return nil, cerr
		}
		if errors.Is(err, context.Canceled) {
			span.SetStatus(codes.Error, err.Error())
			return nil, context.Canceled
		}
		terr := &TransportError{Method: method, URL: url, Cause: err}
		span.RecordError(terr)
		span.SetStatus(codes.Error, terr.Error())
		return nil, c.fail(terr, method, url)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if !call.allowFailure && !resp.IsSuccess() {
		serr := &StatusError{Method: method, URL: url, StatusCode: resp.StatusCode, Body: resp.Body}
		span.SetStatus(codes.Error, serr.Error())
		return nil, c.fail(serr, method, url)
	}
	span.SetStatus(codes.Ok, "")
	return resp, nil
}

// fail logs err at its point of origin and returns it unchanged.
func (c *Client) fail(err error, method, url string) error {
	c.log.ErrorObj("request failed", "request_error", map[string]any{
		"method": method,
		"url":    url,
		"error":  err.Error(),
	})
	return err
}

func supportedMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// PutOK sends a PUT and reports whether the status was 2xx.
func (c *Client) PutOK(ctx context.Context, url string, body any, opts ...CallOption) (bool, error) {
	return c.sendOK(ctx, http.MethodPut, url, body, opts)
}

// PatchOK sends a PATCH and reports whether the status was 2xx.
func (c *Client) PatchOK(ctx context.Context, url string, body any, opts ...CallOption) (bool, error) {
	return c.sendOK(ctx, http.MethodPatch, url, body, opts)
}

// DeleteOK sends a DELETE (body optional) and reports whether the status was 2xx.
func (c *Client) DeleteOK(ctx context.Context, url string, body any, opts ...CallOption) (bool, error) {
	return c.sendOK(ctx, http.MethodDelete, url, body, opts)
}

func (c *Client) sendOK(ctx context.Context, method, url string, body any, opts []CallOption) (bool, error) {
	resp, err := c.Send(ctx, method, url, body, opts...)
	if err != nil {
		return false, err
	}
	return resp.IsSuccess(), nil
}
