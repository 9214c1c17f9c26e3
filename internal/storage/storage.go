// Package storage persists named header sessions between CLI invocations.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store keeps one custom header set per session name.
type Store interface {
	Close() error
	// LoadHeaders returns the stored headers, or an empty map when the
	// session is unknown or expired.
	LoadHeaders(session string) (map[string]string, error)
	SaveHeaders(session string, headers map[string]string) error
	DeleteSession(session string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	SessionTTL      time.Duration
	CleanupInterval time.Duration
}

const (
	defaultSessionTTL      = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error { return nil }
func (noopStore) LoadHeaders(string) (map[string]string, error) {
	return map[string]string{}, nil
}
func (noopStore) SaveHeaders(string, map[string]string) error { return nil }
func (noopStore) DeleteSession(string) error                  { return nil }
