// Package config loads the service configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Session  SessionConfig  `yaml:"session"`
	Database DatabaseConfig `yaml:"database"`
	Menu     MenuConfig     `yaml:"menu"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	MetricsPort    int      `yaml:"metrics_port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type SessionConfig struct {
	Secret        string        `yaml:"secret"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	Driver  string `yaml:"driver"`
	DSN     string `yaml:"dsn"`
}

type MenuConfig struct {
	File string `yaml:"file"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			MetricsPort:    9090,
			AllowedOrigins: []string{"http://localhost:8080"},
		},
		Session: SessionConfig{
			IdleTimeout:   30 * time.Minute,
			SweepInterval: time.Minute,
		},
		Database: DatabaseConfig{
			Enabled: false,
			Driver:  "sqlite3",
			DSN:     "diner.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DINER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DINER_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("DINER_METRICS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DINER_METRICS_PORT: %w", err)
		}
		c.Server.MetricsPort = port
	}
	if v := os.Getenv("DINER_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	c.Session.Secret = getEnv("DINER_SESSION_SECRET", c.Session.Secret)
	if v := os.Getenv("DINER_DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
		c.Database.Enabled = true
	}
	if v := os.Getenv("DINER_DATABASE_DSN"); v != "" {
		c.Database.DSN = v
		c.Database.Enabled = true
	}
	c.Menu.File = getEnv("DINER_MENU_FILE", c.Menu.File)
	c.Log.Level = getEnv("DINER_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("DINER_LOG_FORMAT", c.Log.Format)
	return nil
}

// Validate checks the configuration for values the service cannot run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("server.metrics_port %d out of range", c.Server.MetricsPort)
	}
	if c.Server.MetricsPort != 0 && c.Server.MetricsPort == c.Server.Port {
		return fmt.Errorf("server.metrics_port must differ from server.port")
	}
	if c.Session.IdleTimeout < 0 {
		return fmt.Errorf("session.idle_timeout must not be negative")
	}
	if c.Session.IdleTimeout > 0 && c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session.sweep_interval must be positive when idle_timeout is set")
	}
	if c.Session.Secret != "" && len(c.Session.Secret) < 16 {
		return fmt.Errorf("session.secret must be at least 16 characters")
	}
	if c.Database.Enabled {
		switch c.Database.Driver {
		case "sqlite3", "postgres":
		default:
			return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
		}
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required")
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q is not supported", c.Log.Format)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
