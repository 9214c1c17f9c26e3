// Package profiles loads named endpoint profiles (base URL, timeout, cloud
// auth and default headers) from YAML, JSON or TOML files.
package profiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/samvad-hq/samvad-webhelpers/pkg/cloudauth"
	"gopkg.in/yaml.v3"
)

// DefaultTimeoutSeconds applies when a profile does not set one.
const DefaultTimeoutSeconds = 30

// ErrNotFound is returned when a profile id is unknown.
var ErrNotFound = errors.New("profile not found")

// configFile represents the structure of the profiles file.
type configFile struct {
	Profiles []Profile `json:"profiles" yaml:"profiles" toml:"profiles"`
}

// Profile is one named endpoint.
type Profile struct {
	ID             string            `json:"id" yaml:"id" toml:"id"`
	BaseURL        string            `json:"base_url" yaml:"base_url" toml:"base_url"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
	Auth           AuthConfig        `json:"auth" yaml:"auth" toml:"auth"`
	Headers        map[string]string `json:"headers" yaml:"headers" toml:"headers"`
}

// AuthConfig is the file form of cloudauth.Config.
type AuthConfig struct {
	Provider         string `json:"provider" yaml:"provider" toml:"provider"`
	Key              string `json:"key" yaml:"key" toml:"key"`
	CustomHeaderName string `json:"custom_header_name" yaml:"custom_header_name" toml:"custom_header_name"`
}

// Timeout returns the request timeout for the profile.
func (p Profile) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// AuthConfig converts the profile auth block.
func (p Profile) AuthConfig() (cloudauth.Config, error) {
	provider, err := cloudauth.ParseProvider(p.Auth.Provider)
	if err != nil {
		return cloudauth.Config{}, err
	}
	cfg := cloudauth.Config{
		Provider:         provider,
		Key:              p.Auth.Key,
		CustomHeaderName: p.Auth.CustomHeaderName,
	}
	return cfg, cfg.Validate()
}

// Registry holds the loaded profiles.
type Registry struct {
	mu       sync.RWMutex
	profiles []Profile
	idx      map[string]Profile
}

// LoadRegistry loads profiles from a YAML/JSON/TOML file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("profiles file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profiles file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}

	parsed, err := parseProfiles(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Profiles) == 0 {
		return nil, errors.New("profiles file contains no profiles entries")
	}
	return NewRegistry(parsed.Profiles)
}

// NewRegistry sanitizes and validates profiles and indexes them by id.
func NewRegistry(list []Profile) (*Registry, error) {
	reg := &Registry{
		profiles: make([]Profile, len(list)),
		idx:      make(map[string]Profile, len(list)),
	}
	for i := range list {
		p := sanitizeProfile(list[i])
		if err := validateProfile(p); err != nil {
			return nil, fmt.Errorf("profiles[%d]: %w", i, err)
		}
		if _, exists := reg.idx[p.ID]; exists {
			return nil, fmt.Errorf("duplicate profile id %q", p.ID)
		}
		reg.profiles[i] = p
		reg.idx[p.ID] = p
	}
	return reg, nil
}

// parseProfiles decodes the file content. Without an extension every
// decoder is tried in turn.
func parseProfiles(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
		{name: "toml", ext: ".toml", fn: toml.Unmarshal},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var out configFile
		if err := d.fn(data, &out); err != nil {
			errs = append(errs, fmt.Errorf("decode %s profiles: %w", d.name, err))
			continue
		}
		return out, nil
	}
	if len(errs) > 0 {
		return configFile{}, errors.Join(errs...)
	}
	return configFile{}, fmt.Errorf("profiles file format %q not recognized (expected YAML, JSON or TOML)", ext)
}

// sanitizeProfile trims and normalizes profile fields.
func sanitizeProfile(p Profile) Profile {
	p.ID = strings.TrimSpace(p.ID)
	p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = DefaultTimeoutSeconds
	}
	p.Auth.Provider = strings.ToLower(strings.TrimSpace(p.Auth.Provider))
	p.Auth.Key = strings.TrimSpace(p.Auth.Key)
	p.Auth.CustomHeaderName = strings.TrimSpace(p.Auth.CustomHeaderName)
	p.Headers = sanitizeHeaders(p.Headers)
	return p
}

// sanitizeHeaders trims and removes empty headers.
func sanitizeHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// validateProfile checks that required fields are present.
func validateProfile(p Profile) error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if p.BaseURL == "" {
		return fmt.Errorf("base_url is required for profile %q", p.ID)
	}
	u, err := url.Parse(p.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url %q must be an absolute URL for profile %q", p.BaseURL, p.ID)
	}
	if _, err := p.AuthConfig(); err != nil {
		return fmt.Errorf("auth for profile %q: %w", p.ID, err)
	}
	return nil
}

// ByID returns the profile by id.
func (r *Registry) ByID(id string) (Profile, bool) {
	if r == nil {
		return Profile{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Profile{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.idx[id]
	return p, ok
}

// Lookup is ByID returning ErrNotFound for unknown ids.
func (r *Registry) Lookup(id string) (Profile, error) {
	p, ok := r.ByID(id)
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return p, nil
}

// All returns all configured profiles in file order.
func (r *Registry) All() []Profile {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}
