package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// Supported publisher types.
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
	TypeHTTP   = "http"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// configFile is the top-level shape of a publishers file.
type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig declares one sink for request-outcome events. Exactly the
// block matching Type is read.
type PublisherConfig struct {
	ID      string                 `json:"id" yaml:"id"`
	Type    string                 `json:"type" yaml:"type"`
	Enabled *bool                  `json:"enabled" yaml:"enabled"`
	SQS     *SQSPublisherConfig    `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig    `json:"sns" yaml:"sns"`
	PubSub  *PubSubPublisherConfig `json:"pubsub" yaml:"pubsub"`
	HTTP    *HTTPPublisherConfig   `json:"http" yaml:"http"`
}

// AWSCredentials optionally pins static credentials and a custom endpoint
// (e.g. LocalStack). Empty values fall back to the default AWS chain.
type AWSCredentials struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string `json:"session_token" yaml:"session_token"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
}

// SQSPublisherConfig targets one queue.
type SQSPublisherConfig struct {
	QueueURL       string `json:"uri" yaml:"uri"`
	Region         string `json:"region" yaml:"region"`
	AWSCredentials `yaml:",inline"`
}

// SNSPublisherConfig targets one topic.
type SNSPublisherConfig struct {
	TopicARN       string `json:"topic_arn" yaml:"topic_arn"`
	Region         string `json:"region" yaml:"region"`
	AWSCredentials `yaml:",inline"`
}

// PubSubPublisherConfig targets one GCP topic.
type PubSubPublisherConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// HTTPPublisherConfig posts the CloudEvent to a URL.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// field is one required setting and its current value.
type field struct{ name, value string }

func (c *AWSCredentials) trim() {
	for _, s := range []*string{&c.AccessKeyID, &c.SecretAccessKey, &c.SessionToken, &c.Endpoint} {
		*s = strings.TrimSpace(*s)
	}
}

func (c *SQSPublisherConfig) normalize() {
	c.QueueURL = strings.TrimSpace(c.QueueURL)
	c.Region = strings.TrimSpace(c.Region)
	c.AWSCredentials.trim()
}

func (c *SQSPublisherConfig) required() []field {
	return []field{{"sqs.uri", c.QueueURL}, {"sqs.region", c.Region}}
}

func (c *SNSPublisherConfig) normalize() {
	c.TopicARN = strings.TrimSpace(c.TopicARN)
	c.Region = strings.TrimSpace(c.Region)
	c.AWSCredentials.trim()
}

func (c *SNSPublisherConfig) required() []field {
	return []field{{"sns.topic_arn", c.TopicARN}, {"sns.region", c.Region}}
}

func (c *PubSubPublisherConfig) normalize() {
	c.ProjectID = strings.TrimSpace(c.ProjectID)
	c.Topic = strings.TrimSpace(c.Topic)
	c.CredentialsFile = strings.TrimSpace(c.CredentialsFile)
}

func (c *PubSubPublisherConfig) required() []field {
	return []field{{"pubsub.project_id", c.ProjectID}, {"pubsub.topic", c.Topic}}
}

func (c *HTTPPublisherConfig) normalize() {
	c.URL = strings.TrimSpace(c.URL)
	if c.Method = strings.ToUpper(strings.TrimSpace(c.Method)); c.Method == "" {
		c.Method = httpDefaultMethod
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = httpDefaultTimeoutSeconds
	}
	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
			headers[k] = v
		}
	}
	c.Headers = nil
	if len(headers) > 0 {
		c.Headers = headers
	}
}

func (c *HTTPPublisherConfig) required() []field {
	return []field{{"http.url", c.URL}}
}

// sinkBlock is implemented by every per-type config block.
type sinkBlock interface {
	normalize()
	required() []field
}

// block returns the config block for cfg.Type. ok is false for types this
// package does not know; present is false when the block is missing.
func (cfg *PublisherConfig) block() (b sinkBlock, present, ok bool) {
	switch cfg.Type {
	case TypeSQS:
		return cfg.SQS, cfg.SQS != nil, true
	case TypeSNS:
		return cfg.SNS, cfg.SNS != nil, true
	case TypePubSub:
		return cfg.PubSub, cfg.PubSub != nil, true
	case TypeHTTP:
		return cfg.HTTP, cfg.HTTP != nil, true
	}
	return nil, false, false
}

// normalized returns a trimmed copy of cfg with defaults applied. Blocks are
// copied so the caller's values stay untouched.
func (cfg PublisherConfig) normalized() PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.Enabled == nil {
		on := true
		cfg.Enabled = &on
	}
	if cfg.SQS != nil {
		c := *cfg.SQS
		cfg.SQS = &c
	}
	if cfg.SNS != nil {
		c := *cfg.SNS
		cfg.SNS = &c
	}
	if cfg.PubSub != nil {
		c := *cfg.PubSub
		cfg.PubSub = &c
	}
	if cfg.HTTP != nil {
		c := *cfg.HTTP
		cfg.HTTP = &c
	}
	if b, present, _ := cfg.block(); present {
		b.normalize()
	}
	return cfg
}

// validatePublisherConfig reports every missing required setting at once.
// Types without a built-in block are left to their builder.
func validatePublisherConfig(cfg PublisherConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	if cfg.Type == "" {
		return fmt.Errorf("publisher %q: type is required", cfg.ID)
	}
	b, present, known := cfg.block()
	if !known {
		return nil
	}
	if !present {
		return fmt.Errorf("publisher %q: %s block is required", cfg.ID, cfg.Type)
	}
	var missing []string
	for _, f := range b.required() {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("publisher %q: missing %s", cfg.ID, strings.Join(missing, ", "))
	}
	return nil
}

// ConfigRegistry holds validated publisher configs in file order. It is
// read-only once loaded.
type ConfigRegistry struct {
	list []PublisherConfig
	byID map[string]int
}

// LoadRegistry reads a YAML or JSON publishers file. Files without a known
// extension are decoded as YAML, which also accepts JSON.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	decode := yaml.Unmarshal
	if strings.EqualFold(filepath.Ext(path), ".json") {
		decode = json.Unmarshal
	}
	var file configFile
	if err := decode(raw, &file); err != nil {
		return nil, fmt.Errorf("decode publishers file %s: %w", filepath.Base(path), err)
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	reg := &ConfigRegistry{
		list: make([]PublisherConfig, 0, len(file.Publishers)),
		byID: make(map[string]int, len(file.Publishers)),
	}
	for i, entry := range file.Publishers {
		cfg := entry.normalized()
		if err := validatePublisherConfig(cfg); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := reg.byID[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		reg.byID[cfg.ID] = len(reg.list)
		reg.list = append(reg.list, cfg)
	}
	return reg, nil
}

// ByID returns the publisher config by id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	i, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return r.list[i], true
}

// All returns every configured publisher.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	return append([]PublisherConfig(nil), r.list...)
}

// Enabled returns the publishers not switched off with enabled: false.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	if r == nil {
		return nil
	}
	var out []PublisherConfig
	for _, cfg := range r.list {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns the enabled flag, defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}
