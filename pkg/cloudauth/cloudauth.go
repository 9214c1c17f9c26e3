package cloudauth

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfig reports an authentication configuration that cannot produce a header.
var ErrConfig = errors.New("cloud auth config error")

// Provider identifies the cloud platform whose auth header convention is used.
type Provider string

const (
	ProviderNone   Provider = ""
	ProviderAzure  Provider = "azure"
	ProviderAWS    Provider = "aws"
	ProviderGCP    Provider = "gcp"
	ProviderCustom Provider = "custom"
)

const (
	HeaderAzureFunctionsKey = "x-functions-key"
	HeaderAWSAPIKey         = "x-api-key"
	HeaderAuthorization     = "Authorization"

	bearerPrefix = "Bearer "
)

// Config holds the provider/key/header-name triple that determines the auth header.
type Config struct {
	Provider         Provider `json:"provider" yaml:"provider" toml:"provider" mapstructure:"provider"`
	Key              string   `json:"-" yaml:"key" toml:"key" mapstructure:"key"`
	CustomHeaderName string   `json:"custom_header_name" yaml:"custom_header_name" toml:"custom_header_name" mapstructure:"custom_header_name"`
}

// rule derives one provider's header name and value.
type rule struct {
	name  func(cfg Config) (string, error)
	value func(key string) string
}

func fixedName(name string) func(Config) (string, error) {
	return func(Config) (string, error) { return name, nil }
}

func rawKey(key string) string { return key }

var rules = map[Provider]rule{
	ProviderAzure: {name: fixedName(HeaderAzureFunctionsKey), value: rawKey},
	ProviderAWS:   {name: fixedName(HeaderAWSAPIKey), value: rawKey},
	ProviderGCP: {
		name:  fixedName(HeaderAuthorization),
		value: func(key string) string { return bearerPrefix + key },
	},
	ProviderCustom: {
		name: func(cfg Config) (string, error) {
			name := strings.TrimSpace(cfg.CustomHeaderName)
			if name == "" {
				return "", fmt.Errorf("%w: custom_header_name must be set for provider %q", ErrConfig, ProviderCustom)
			}
			return name, nil
		},
		value: rawKey,
	},
}

// ParseProvider maps a configured provider name onto the enumeration.
// An empty name yields ProviderNone.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if p == ProviderNone {
		return ProviderNone, nil
	}
	if _, ok := rules[p]; !ok {
		return ProviderNone, fmt.Errorf("%w: unsupported cloud provider %q", ErrConfig, s)
	}
	return p, nil
}

// Valid reports whether p is one of the supported providers.
func (p Provider) Valid() bool {
	_, ok := rules[p]
	return ok
}

func (p Provider) String() string {
	if p == ProviderNone {
		return "none"
	}
	return string(p)
}

func lookup(p Provider) (rule, error) {
	r, ok := rules[p]
	if !ok {
		return rule{}, fmt.Errorf("%w: unsupported cloud provider %q", ErrConfig, p.String())
	}
	return r, nil
}

// HeaderName resolves the auth header name for cfg.
func HeaderName(cfg Config) (string, error) {
	r, err := lookup(cfg.Provider)
	if err != nil {
		return "", err
	}
	return r.name(cfg)
}

// HeaderValue formats the auth header value for cfg. The key must be set.
func HeaderValue(cfg Config) (string, error) {
	if cfg.Key == "" {
		return "", fmt.Errorf("%w: authentication key must be set", ErrConfig)
	}
	r, err := lookup(cfg.Provider)
	if err != nil {
		return "", err
	}
	return r.value(cfg.Key), nil
}

// Header derives the auth header for cfg. With an empty key no header is
// produced and ok is false; otherwise any resolution failure wraps ErrConfig.
func Header(cfg Config) (name, value string, ok bool, err error) {
	if cfg.Key == "" {
		return "", "", false, nil
	}
	name, err = HeaderName(cfg)
	if err != nil {
		return "", "", false, err
	}
	value, err = HeaderValue(cfg)
	if err != nil {
		return "", "", false, err
	}
	return name, value, true, nil
}

// Validate checks that cfg can derive a header once a key is supplied.
func (c Config) Validate() error {
	if c.Provider == ProviderNone {
		if c.Key != "" {
			return fmt.Errorf("%w: provider is required when a key is set", ErrConfig)
		}
		return nil
	}
	_, err := HeaderName(c)
	return err
}
