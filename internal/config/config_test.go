package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncerrors "github.com/felixgeelhaar/tasksync/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Zero(t, cfg)

	// the default path is optional, so no explicit path loads defaults
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 7*24*time.Hour, cfg.CacheTTL.Std())
	assert.Equal(t, 5*time.Second, cfg.PollInterval.Std())
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
base_url: https://agents.example.com/api
cache_ttl: 48h
poll_interval: 2s
reconnect_base: 500ms
reconnect_max: 10s
log_level: debug
log_format: text
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://agents.example.com/api", cfg.BaseURL)
	assert.Equal(t, 48*time.Hour, cfg.CacheTTL.Std())
	assert.Equal(t, 2*time.Second, cfg.PollInterval.Std())
	assert.Equal(t, 500*time.Millisecond, cfg.ReconnectBase.Std())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	// unset fields keep their defaults
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval.Std())
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "base_url: https://from-file.example.com\npoll_interval: 2s\n")

	t.Setenv("TASKSYNC_BASE_URL", "https://from-env.example.com")
	t.Setenv("TASKSYNC_POLL_INTERVAL", "250ms")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://from-env.example.com", cfg.BaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval.Std())
}

func TestFileExpandsEnvReferences(t *testing.T) {
	t.Setenv("AGENT_HOST", "agents.internal")
	path := writeConfig(t, "base_url: https://${AGENT_HOST}/api\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://agents.internal/api", cfg.BaseURL)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "base_url: [unclosed\n")

	_, err := Load(path)
	require.Error(t, err)

	var serr *syncerrors.SyncError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, syncerrors.ErrCodeConfigUnmarshal, serr.Code)
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	path := writeConfig(t, "poll_interval: soon\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"empty base url", func(c *Config) { c.BaseURL = "" }, false},
		{"non-http base url", func(c *Config) { c.BaseURL = "ftp://example.com" }, false},
		{"negative interval", func(c *Config) { c.PollInterval = Duration(-time.Second) }, false},
		{"base above max", func(c *Config) {
			c.ReconnectBase = Duration(time.Minute)
			c.ReconnectMax = Duration(time.Second)
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
