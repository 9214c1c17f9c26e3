package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samvad-hq/samvad-webhelpers/pkg/cloudauth"
	"github.com/samvad-hq/samvad-webhelpers/pkg/securestring"
	"github.com/spf13/viper"
)

const defaultEnvFile = "configs/.env"

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName        string `mapstructure:"app_name"`
	Env            string `mapstructure:"app_env"`
	LogLevel       string `mapstructure:"log_level"`
	ProfilesFile   string `mapstructure:"profiles_file"`
	PublishersFile string `mapstructure:"publishers_file"`

	RequestTimeoutSeconds int64         `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration `mapstructure:"-"`

	StorageType       string        `mapstructure:"storage_type"`
	BBoltPath         string        `mapstructure:"bbolt_path"`
	SessionTTLSeconds int64         `mapstructure:"session_ttl_seconds"`
	SessionTTL        time.Duration `mapstructure:"-"`

	CloudAuth CloudAuth `mapstructure:"cloud_auth"`
}

// CloudAuth is the default authentication used when no profile is selected.
// The key is sealed as soon as it is read.
type CloudAuth struct {
	Provider         string                     `mapstructure:"provider"`
	CustomHeaderName string                     `mapstructure:"custom_header_name"`
	Key              *securestring.SecureString `mapstructure:"-"`
}

// AuthConfig reveals the sealed key into a cloudauth.Config.
func (c CloudAuth) AuthConfig() (cloudauth.Config, error) {
	provider, err := cloudauth.ParseProvider(c.Provider)
	if err != nil {
		return cloudauth.Config{}, err
	}
	var key string
	if c.Key != nil {
		if key, err = securestring.Reveal(c.Key); err != nil {
			return cloudauth.Config{}, fmt.Errorf("reveal cloud auth key: %w", err)
		}
	}
	cfg := cloudauth.Config{Provider: provider, Key: key, CustomHeaderName: c.CustomHeaderName}
	return cfg, cfg.Validate()
}

// Load reads configuration from environment variables, configs/.env and
// the optional config file (YAML, JSON or TOML by extension).
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load(defaultEnvFile)
	return load(viper.New(), configFile)
}

func load(v *viper.Viper, configFile string) (*Config, error) {
	v.SetDefault("app_name", "samvad-webhelpers")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("profiles_file", "")
	v.SetDefault("publishers_file", "")
	v.SetDefault("request_timeout_seconds", 30)
	v.SetDefault("storage_type", "none")
	v.SetDefault("bbolt_path", "./data/sessions.db")
	v.SetDefault("session_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("cloud_auth.provider", "")
	v.SetDefault("cloud_auth.key", "")
	v.SetDefault("cloud_auth.custom_header_name", "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile = strings.TrimSpace(configFile); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.RequestTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	if cfg.SessionTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid session_ttl_seconds (must be positive seconds)")
	}
	cfg.SessionTTL = time.Duration(cfg.SessionTTLSeconds) * time.Second

	cfg.CloudAuth.Key = securestring.FromString(v.GetString("cloud_auth.key"))
	if _, err := cloudauth.ParseProvider(cfg.CloudAuth.Provider); err != nil {
		return nil, fmt.Errorf("invalid cloud_auth.provider: %w", err)
	}

	return &cfg, nil
}
