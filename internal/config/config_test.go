package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  metrics_port: 9100
session:
  idle_timeout: 5m
  sweep_interval: 10s
database:
  enabled: true
  driver: postgres
  dsn: host=localhost dbname=diner
menu:
  file: menu.yaml
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 9100, cfg.Server.MetricsPort)
	assert.Equal(t, 5*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, 10*time.Second, cfg.Session.SweepInterval)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "menu.yaml", cfg.Menu.File)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DINER_PORT", "7000")
	t.Setenv("DINER_SESSION_SECRET", "a-very-long-session-secret")
	t.Setenv("DINER_DATABASE_DSN", ":memory:")
	t.Setenv("DINER_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("DINER_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "a-very-long-session-secret", cfg.Session.Secret)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, ":memory:", cfg.Database.DSN)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestEnvOverrideBadPort(t *testing.T) {
	t.Setenv("DINER_PORT", "eighty")
	_, err := Load("")
	assert.ErrorContains(t, err, "DINER_PORT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }},
		{"metrics port clash", func(c *Config) { c.Server.MetricsPort = c.Server.Port }},
		{"negative idle timeout", func(c *Config) { c.Session.IdleTimeout = -time.Second }},
		{"sweep interval", func(c *Config) { c.Session.SweepInterval = 0 }},
		{"short secret", func(c *Config) { c.Session.Secret = "abc" }},
		{"driver", func(c *Config) { c.Database.Enabled = true; c.Database.Driver = "mysql" }},
		{"dsn", func(c *Config) { c.Database.Enabled = true; c.Database.DSN = "" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [1, 2\n"))
	assert.Error(t, err)
}

func TestRepositoryConfigIsValid(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "configs/menu.yaml", cfg.Menu.File)
	assert.False(t, cfg.Database.Enabled, "the receipt ledger is opt-in")
}

func TestLoadRejectsMalformedDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BAD-KEY=1\n"), 0o644))
	wd, wdErr := os.Getwd()
	require.NoError(t, wdErr)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load .env")
}
