// Package config loads the tasksync configuration: YAML file, .env file,
// then TASKSYNC_* environment overrides, in that order of precedence
// (later wins).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	syncerrors "github.com/felixgeelhaar/tasksync/internal/errors"
)

// Duration wraps time.Duration so YAML values can be written as "30s"
type Duration time.Duration

// UnmarshalYAML parses a Go duration string
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in Go notation
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library representation
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the complete tasksync configuration
type Config struct {
	// BaseURL is the session API endpoint
	BaseURL string `yaml:"base_url"`

	// CacheDir holds the durable graph cache. Defaults to the
	// user cache directory.
	CacheDir string `yaml:"cache_dir,omitempty"`

	// CacheTTL bounds how old a cached graph may be before it is
	// discarded on load.
	CacheTTL Duration `yaml:"cache_ttl,omitempty"`

	// PollInterval is the snapshot cadence when streaming is unavailable
	PollInterval Duration `yaml:"poll_interval,omitempty"`

	// RefreshInterval is the periodic reconciliation cadence while
	// streaming.
	RefreshInterval Duration `yaml:"refresh_interval,omitempty"`

	// ReconnectBase and ReconnectMax bound the reconnect backoff
	ReconnectBase Duration `yaml:"reconnect_base,omitempty"`
	ReconnectMax  Duration `yaml:"reconnect_max,omitempty"`

	LogLevel  string `yaml:"log_level,omitempty"`
	LogFormat string `yaml:"log_format,omitempty"`
}

// Default returns the built-in configuration
func Default() Config {
	cacheDir := ""
	if base, err := os.UserCacheDir(); err == nil {
		cacheDir = filepath.Join(base, "tasksync")
	}
	return Config{
		BaseURL:         "http://localhost:8080",
		CacheDir:        cacheDir,
		CacheTTL:        Duration(7 * 24 * time.Hour),
		PollInterval:    Duration(5 * time.Second),
		RefreshInterval: Duration(30 * time.Second),
		ReconnectBase:   Duration(time.Second),
		ReconnectMax:    Duration(30 * time.Second),
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// DefaultPath returns the default config file location
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".tasksync", "config.yaml")
	}
	return "tasksync.yaml"
}

// Load builds the effective configuration. An explicit path that does not
// exist is an error; the default path is optional. A .env file in the
// working directory is loaded before environment overrides are applied.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Environment references inside the file are expanded first,
		// matching ${VAR} and $VAR.
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return Config{}, syncerrors.NewConfigUnmarshalError(path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// optional default file
	default:
		return Config{}, syncerrors.Wrap(syncerrors.ErrCodeConfigNotFound,
			fmt.Sprintf("config file not readable: %s", path), err)
	}

	loadDotEnv()
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run with
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return syncerrors.New(syncerrors.ErrCodeConfigInvalid, "base_url is required").
			WithSuggestion("Set base_url in the config file or TASKSYNC_BASE_URL in the environment")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return syncerrors.New(syncerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("base_url must be an http(s) URL, got %q", c.BaseURL))
	}
	for name, d := range map[string]Duration{
		"cache_ttl":        c.CacheTTL,
		"poll_interval":    c.PollInterval,
		"refresh_interval": c.RefreshInterval,
		"reconnect_base":   c.ReconnectBase,
		"reconnect_max":    c.ReconnectMax,
	} {
		if d < 0 {
			return syncerrors.New(syncerrors.ErrCodeConfigInvalid,
				fmt.Sprintf("%s must not be negative", name))
		}
	}
	if c.ReconnectMax > 0 && c.ReconnectBase > c.ReconnectMax {
		return syncerrors.New(syncerrors.ErrCodeConfigInvalid,
			"reconnect_base must not exceed reconnect_max")
	}
	return nil
}

func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

// applyEnv overlays TASKSYNC_* variables onto the configuration
func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setDuration := func(key string, dst *Duration) {
		if v := os.Getenv(key); v != "" {
			if parsed, err := time.ParseDuration(v); err == nil {
				*dst = Duration(parsed)
			}
		}
	}

	setString("TASKSYNC_BASE_URL", &cfg.BaseURL)
	setString("TASKSYNC_CACHE_DIR", &cfg.CacheDir)
	setString("TASKSYNC_LOG_LEVEL", &cfg.LogLevel)
	setString("TASKSYNC_LOG_FORMAT", &cfg.LogFormat)
	setDuration("TASKSYNC_CACHE_TTL", &cfg.CacheTTL)
	setDuration("TASKSYNC_POLL_INTERVAL", &cfg.PollInterval)
	setDuration("TASKSYNC_REFRESH_INTERVAL", &cfg.RefreshInterval)
	setDuration("TASKSYNC_RECONNECT_BASE", &cfg.ReconnectBase)
	setDuration("TASKSYNC_RECONNECT_MAX", &cfg.ReconnectMax)
}
