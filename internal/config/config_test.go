package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := NewConfig()
	cfg.BaseURL = "https://nas.local:5001"
	cfg.Username = "admin"
	return cfg
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 500*time.Millisecond, cfg.SearchInterval)
	assert.Equal(t, 10*time.Second, cfg.DirSizeInterval)
	assert.Equal(t, 10*time.Second, cfg.MD5Interval)
	assert.Equal(t, time.Hour, cfg.OperationTimeout)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 4, cfg.MaxParallelTasks)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("FILESTATION_URL", "https://nas.local:5001/")
	t.Setenv("FILESTATION_USER", "backup")
	t.Setenv("FILESTATION_PASSWORD", "secret")
	t.Setenv("FILESTATION_INSECURE", "true")
	t.Setenv("FILESTATION_OPERATION_TIMEOUT", "5m")
	t.Setenv("FILESTATION_SEARCH_INTERVAL", "250")
	t.Setenv("FILESTATION_MD5_INTERVAL", "2s")
	t.Setenv("FILESTATION_MAX_PARALLEL", "8")
	t.Setenv("FILESTATION_READY_ATTEMPTS", "3")

	cfg := NewConfig()
	cfg.LoadFromEnvironment()

	assert.Equal(t, "https://nas.local:5001", cfg.BaseURL)
	assert.Equal(t, "backup", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 5*time.Minute, cfg.OperationTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.SearchInterval)
	assert.Equal(t, 2*time.Second, cfg.MD5Interval)
	assert.Equal(t, 10*time.Second, cfg.DirSizeInterval)
	assert.Equal(t, 8, cfg.MaxParallelTasks)
	assert.Equal(t, 3, cfg.APIReadyAttempts)
}

func TestLoadFromEnvironmentIgnoresGarbage(t *testing.T) {
	t.Setenv("FILESTATION_INSECURE", "maybe")
	t.Setenv("FILESTATION_DIRSIZE_INTERVAL", "soon")
	t.Setenv("FILESTATION_MAX_PARALLEL", "many")

	cfg := NewConfig()
	cfg.LoadFromEnvironment()

	assert.False(t, cfg.Insecure)
	assert.Equal(t, 10*time.Second, cfg.DirSizeInterval)
	assert.Equal(t, 4, cfg.MaxParallelTasks)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"empty url", func(c *Config) { c.BaseURL = "" }, "base URL cannot be empty"},
		{"bad scheme", func(c *Config) { c.BaseURL = "ftp://nas" }, "scheme must be http or https"},
		{"no user", func(c *Config) { c.Username = "" }, "username cannot be empty"},
		{"zero request timeout", func(c *Config) { c.RequestTimeout = 0 }, "request timeout must be positive"},
		{"zero search interval", func(c *Config) { c.SearchInterval = 0 }, "search poll interval"},
		{"negative operation timeout", func(c *Config) { c.OperationTimeout = -time.Second }, "operation timeout"},
		{"no parallelism", func(c *Config) { c.MaxParallelTasks = 0 }, "max parallel tasks"},
		{"no ready attempts", func(c *Config) { c.APIReadyAttempts = 0 }, "API ready attempts"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestValidateAllowsDisabledOperationTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.OperationTimeout = 0
	assert.NoError(t, cfg.Validate())
}
