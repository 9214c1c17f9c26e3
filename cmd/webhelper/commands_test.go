package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/samvad-hq/samvad-webhelpers/pkg/cominspect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "webhelper dev")
	assert.Contains(t, out, runtime.GOOS)
}

func TestRequestCommand(t *testing.T) {
	var gotKey, gotTenant string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-functions-key")
		gotTenant = r.Header.Get("X-Tenant")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user":{"name":"asha"}}`))
	}))
	defer srv.Close()

	t.Setenv("CLOUD_AUTH_PROVIDER", "azure")
	t.Setenv("CLOUD_AUTH_KEY", "fn-key")
	t.Setenv("STORAGE_TYPE", "bbolt")
	t.Setenv("BBOLT_PATH", filepath.Join(t.TempDir(), "s.db"))

	out, err := execute(t, "request", "get", srv.URL+"/me", "-H", "X-Tenant: acme", "--query", "user.name", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "asha", strings.TrimSpace(out))
	assert.Equal(t, "fn-key", gotKey)
	assert.Equal(t, "acme", gotTenant)
}

func TestRequestCommandArgs(t *testing.T) {
	_, err := execute(t, "request", "GET")
	require.Error(t, err)
}

func TestInspectCommandRejectsDepth(t *testing.T) {
	_, err := execute(t, "inspect", "Excel.Application", "--depth", "everything")
	require.ErrorIs(t, err, cominspect.ErrInvalidArgument)
}
