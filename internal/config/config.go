package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	APIBaseURL        string        `mapstructure:"api_base_url"`
	APITimeoutSeconds int64         `mapstructure:"api_timeout_seconds"`
	APILanguage       string        `mapstructure:"api_language"`
	APITimeout        time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	SessionTTLSeconds      int64         `mapstructure:"session_ttl_seconds"`
	DigestTTLSeconds       int64         `mapstructure:"digest_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	SessionTTL             time.Duration `mapstructure:"-"`
	DigestTTL              time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`

	PublishersFile       string        `mapstructure:"publishers_file"`
	RelayIntervalSeconds int64         `mapstructure:"relay_interval"`
	RelayEmail           string        `mapstructure:"relay_email"`
	RelayPassword        string        `mapstructure:"relay_password"`
	MetricsAddr          string        `mapstructure:"metrics_addr"`
	RelayRetryAttempts   uint          `mapstructure:"relay_retry_attempts"`
	PublishTimeoutSecs   int64         `mapstructure:"publish_timeout_seconds"`
	RelayInterval        time.Duration `mapstructure:"-"`
	PublishTimeout       time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "bizdesk")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_base_url", "https://api.bizdesk.app/api")
	v.SetDefault("api_timeout_seconds", 0) // no deadline
	v.SetDefault("api_language", "en")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/bizdesk.db")
	v.SetDefault("session_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("digest_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("relay_interval", 300) // seconds
	v.SetDefault("relay_email", "")
	v.SetDefault("relay_password", "")
	v.SetDefault("metrics_addr", ":9102")
	v.SetDefault("relay_retry_attempts", 3)
	v.SetDefault("publish_timeout_seconds", 10)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) finalize() error {
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid api_base_url %q", cfg.APIBaseURL)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("invalid api_base_url scheme %q (expected https)", u.Scheme)
	}

	if cfg.APITimeoutSeconds < 0 {
		return fmt.Errorf("invalid api_timeout_seconds (must be zero or positive seconds)")
	}
	cfg.APITimeout = time.Duration(cfg.APITimeoutSeconds) * time.Second

	if cfg.SessionTTLSeconds <= 0 {
		return fmt.Errorf("invalid session_ttl_seconds (must be positive seconds)")
	}
	if cfg.DigestTTLSeconds <= 0 {
		return fmt.Errorf("invalid digest_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.SessionTTL = time.Duration(cfg.SessionTTLSeconds) * time.Second
	cfg.DigestTTL = time.Duration(cfg.DigestTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	if cfg.RelayIntervalSeconds <= 0 {
		return fmt.Errorf("invalid relay_interval (must be positive seconds)")
	}
	cfg.RelayInterval = time.Duration(cfg.RelayIntervalSeconds) * time.Second

	if cfg.PublishTimeoutSecs < 0 {
		return fmt.Errorf("invalid publish_timeout_seconds (must be zero or positive seconds)")
	}
	cfg.PublishTimeout = time.Duration(cfg.PublishTimeoutSecs) * time.Second

	return nil
}

// Redacted returns a copy safe for logging.
func (cfg Config) Redacted() Config {
	if cfg.RelayPassword != "" {
		cfg.RelayPassword = "***"
	}
	return cfg
}
