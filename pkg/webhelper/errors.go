package webhelper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidArgument reports a malformed header name, method or URL.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNullArgument reports a missing required collaborator or mapping.
	ErrNullArgument = errors.New("null argument")
	// ErrInvalidValue reports a header value that cannot be sent on the wire.
	ErrInvalidValue = errors.New("invalid header value")
)

const maxErrBodySnippet = 512

// StatusError is returned for non-2xx responses when failures are not allowed.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	var b strings.Builder
	b.WriteString(e.Method)
	b.WriteString(" ")
	b.WriteString(e.URL)
	b.WriteString(": http ")
	fmt.Fprintf(&b, "%d", e.StatusCode)
	if t := http.StatusText(e.StatusCode); t != "" {
		b.WriteString(" ")
		b.WriteString(t)
	}
	if s := bodySnippet(e.Body); s != "" {
		b.WriteString(": ")
		b.WriteString(s)
	}
	return b.String()
}

// TransportError wraps connection, timeout and other transport-level failures.
type TransportError struct {
	Method string
	URL    string
	Cause  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport: %v", e.Method, e.URL, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// DecodeError reports a response body that does not decode into the requested type.
type DecodeError struct {
	URL    string
	Target string
	Body   []byte
	Cause  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response from %s: %v (body: %s)", e.Target, e.URL, e.Cause, bodySnippet(e.Body))
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// AsStatusError extracts *StatusError.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	se, ok := AsStatusError(err)
	return ok && se.StatusCode == code
}

// IsCancelled reports whether err is the caller's context being cancelled or
// running out of time, as opposed to a failed request. A transport timeout
// also wraps context.DeadlineExceeded but is a *TransportError, not a
// cancellation.
func IsCancelled(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func bodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrBodySnippet {
		return s[:maxErrBodySnippet] + "..."
	}
	return s
}
