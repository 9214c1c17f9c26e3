package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func TestBoltStoreSavesAndExpiresSessions(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		SessionTTL:      1 * time.Second,
		CleanupInterval: 1 * time.Second,
	}

	storeRaw, err := openBolt(filepath.Join(dir, "sessions.db"), opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	headers, err := store.LoadHeaders("dev")
	if err != nil || len(headers) != 0 {
		t.Fatalf("expected empty session, got %v err=%v", headers, err)
	}

	if err := store.SaveHeaders("dev", map[string]string{"X-Tenant": "acme", "X-Trace": "1"}); err != nil {
		t.Fatalf("SaveHeaders: %v", err)
	}

	headers, err = store.LoadHeaders("dev")
	if err != nil {
		t.Fatalf("LoadHeaders: %v", err)
	}
	if headers["X-Tenant"] != "acme" || headers["X-Trace"] != "1" || len(headers) != 2 {
		t.Fatalf("unexpected headers %v", headers)
	}

	// Fast-forward cleanup cadence and trigger expiry.
	store.lastCleanup.Store(time.Now().Add(-2 * time.Second).Unix())
	time.Sleep(1100 * time.Millisecond)

	headers, err = store.LoadHeaders("dev")
	if err != nil {
		t.Fatalf("LoadHeaders after expiry: %v", err)
	}
	if len(headers) != 0 {
		t.Fatalf("expected session to expire, got %v", headers)
	}
}

func TestBoltStoreOverwriteAndDelete(t *testing.T) {
	store, err := NewStore("bbolt", filepath.Join(t.TempDir(), "nested", "sessions.db"), Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	if err := store.SaveHeaders("s", map[string]string{"A": "1"}); err != nil {
		t.Fatalf("SaveHeaders: %v", err)
	}
	if err := store.SaveHeaders("s", map[string]string{"B": "2"}); err != nil {
		t.Fatalf("SaveHeaders: %v", err)
	}
	headers, err := store.LoadHeaders("s")
	if err != nil {
		t.Fatalf("LoadHeaders: %v", err)
	}
	if _, ok := headers["A"]; ok || headers["B"] != "2" {
		t.Fatalf("save should replace the session, got %v", headers)
	}

	if err := store.DeleteSession("s"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	headers, err = store.LoadHeaders("s")
	if err != nil || len(headers) != 0 {
		t.Fatalf("expected deleted session, got %v err=%v", headers, err)
	}

	if err := store.SaveHeaders("  ", nil); err == nil {
		t.Fatalf("expected error for empty session name")
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.SaveHeaders("x", map[string]string{"A": "1"}); err != nil {
		t.Fatalf("noop store SaveHeaders: %v", err)
	}
	headers, err := store.LoadHeaders("x")
	if err != nil || len(headers) != 0 {
		t.Fatalf("noop store should load nothing, got %v err=%v", headers, err)
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for missing path")
	}
}
