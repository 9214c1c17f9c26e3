package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
)

func TestRestyTransportSendsExactHeaders(t *testing.T) {
	var gotHeader http.Header
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	rc := resty.New()
	rc.SetHeader("X-Default", "leak")
	tr := WrapResty(rc)

	resp, err := tr.Send(context.Background(), &Request{
		Method:      http.MethodPost,
		URL:         srv.URL + "/items",
		Header:      http.Header{"X-Test": {"1"}},
		Body:        []byte(`{"name":"a"}`),
		ContentType: "application/json; charset=utf-8",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp.StatusCode != http.StatusCreated || !resp.IsSuccess() {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"ok":true}` {
		t.Fatalf("unexpected body %q", resp.Body)
	}
	if got := gotHeader.Get("X-Test"); got != "1" {
		t.Fatalf("X-Test = %q", got)
	}
	if got := gotHeader.Get("X-Default"); got != "" {
		t.Fatalf("transport default header leaked: %q", got)
	}
	if got := gotHeader.Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Fatalf("Content-Type = %q", got)
	}
	if string(gotBody) != `{"name":"a"}` {
		t.Fatalf("server body = %q", gotBody)
	}
}

func TestRestyTransportNoBodySendsNoContent(t *testing.T) {
	var contentLength int64 = -2
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentLength = r.ContentLength
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tr := NewRestyTransport(TransportOptions{BaseURL: srv.URL, Timeout: 2 * time.Second})
	resp, err := tr.Send(context.Background(), &Request{Method: http.MethodGet, URL: "/ping"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if contentLength != 0 {
		t.Fatalf("expected no request content, got length %d", contentLength)
	}
}

func TestRestyTransportReturnsErrorStatusWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr := NewRestyTransport(TransportOptions{})
	resp, err := tr.Send(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp.IsSuccess() {
		t.Fatalf("expected non-success response")
	}
}

func TestRestyTransportCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	tr := NewRestyTransport(TransportOptions{})
	_, err := tr.Send(ctx, &Request{Method: http.MethodGet, URL: srv.URL})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestResponseIsSuccess(t *testing.T) {
	var nilResp *Response
	if nilResp.IsSuccess() {
		t.Fatalf("nil response must not be success")
	}
	if !(&Response{StatusCode: 204}).IsSuccess() {
		t.Fatalf("204 should be success")
	}
	if (&Response{StatusCode: 302}).IsSuccess() {
		t.Fatalf("302 should not be success")
	}
}

func TestRestyTransportSendsOnlySuppliedHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte("pong"))
	}))
	defer srv.Close()

	tr := NewRestyTransport(TransportOptions{BaseURL: srv.URL})
	resp, err := tr.Get(context.Background(), "/ping", map[string]string{"X-Tenant": "t1"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(resp.Body) != "pong" {
		t.Fatalf("unexpected body %q", resp.Body)
	}
	if got.Get("X-Tenant") != "t1" {
		t.Fatalf("X-Tenant = %q", got.Get("X-Tenant"))
	}
	if v := got.Get("Accept"); v != "" {
		t.Fatalf("Accept was not supplied but reached the server as %q", v)
	}
	if v := got.Get("User-Agent"); strings.Contains(v, "resty") {
		t.Fatalf("resty user agent leaked: %q", v)
	}

	// resty copies a JSON Content-Type into Accept unless the hook strips it.
	_, err = tr.Send(context.Background(), &Request{
		Method:      http.MethodPost,
		URL:         "/items",
		Header:      http.Header{},
		Body:        []byte(`{"id":1}`),
		ContentType: "application/json; charset=utf-8",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if v := got.Get("Accept"); v != "" {
		t.Fatalf("Accept on JSON post = %q, want none", v)
	}
	if v := got.Get("Content-Type"); v != "application/json; charset=utf-8" {
		t.Fatalf("Content-Type = %q", v)
	}

	_, err = tr.Get(context.Background(), "/ping", map[string]string{"Accept": "text/plain"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v := got.Get("Accept"); v != "text/plain" {
		t.Fatalf("supplied Accept = %q", v)
	}
}
