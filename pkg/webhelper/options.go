package webhelper

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// Decoder turns a response body into v. It plays the role of a per-call JSON converter.
type Decoder func(data []byte, v any) error

// DefaultDecoder is used when neither the call nor the client supplies one.
var DefaultDecoder Decoder = json.Unmarshal

// Outcome describes one completed call, successful or not.
type Outcome struct {
	Method     string
	URL        string
	StatusCode int
	Duration   time.Duration
	Err        error
}

// Cancelled reports whether the call ended because its context was cancelled.
func (o Outcome) Cancelled() bool { return o.Err != nil && IsCancelled(o.Err) }

// AfterHook observes every completed call.
type AfterHook func(ctx context.Context, o Outcome)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(log Logger) Option {
	return func(c *Client) { c.log = ensureLogger(log) }
}

// WithRateLimiter makes every call wait on rl before dispatch.
func WithRateLimiter(rl *rate.Limiter) Option {
	return func(c *Client) { c.limiter = rl }
}

// WithTracer overrides the tracer used for request spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithAfterHook registers hooks run after every call.
func WithAfterHook(hooks ...AfterHook) Option {
	return func(c *Client) {
		for _, h := range hooks {
			if h != nil {
				c.after = append(c.after, h)
			}
		}
	}
}

// WithDecoder replaces the client-wide default decoder.
func WithDecoder(d Decoder) Option {
	return func(c *Client) {
		if d != nil {
			c.decoder = d
		}
	}
}

// CallOption tunes a single call.
type CallOption func(*callConfig)

type callConfig struct {
	allowFailure bool
	decoder      Decoder
}

// AllowFailure returns non-2xx responses as results instead of StatusError.
func AllowFailure() CallOption {
	return func(c *callConfig) { c.allowFailure = true }
}

// WithConverter decodes this call's response with d.
func WithConverter(d Decoder) CallOption {
	return func(c *callConfig) { c.decoder = d }
}

func newCallConfig(opts []CallOption) callConfig {
	var cfg callConfig
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	return cfg
}
