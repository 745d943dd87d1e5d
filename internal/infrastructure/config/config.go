package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment variable, e.g. DESKSHELL_SERVER_PORT.
const EnvPrefix = "DESKSHELL"

// Config holds all shell configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Workspace WorkspaceConfig `toml:"workspace"`
	Bridge    BridgeConfig    `toml:"bridge"`
	Providers ProvidersConfig `toml:"providers"`
	Deploy    DeployConfig    `toml:"deploy"`
	Logging   LogConfig       `toml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit" split_words:"true"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `toml:"host"`
	Port string `toml:"port"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// WorkspaceConfig holds workspace persistence configuration.
type WorkspaceConfig struct {
	// Path of the workspace file. Empty resolves to the user config directory.
	Path string `toml:"path"`
}

// ResolvePath returns the configured workspace path or the per-user default.
func (w WorkspaceConfig) ResolvePath() (string, error) {
	if w.Path != "" {
		return w.Path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config dir: %w", err)
	}
	return filepath.Join(dir, "deskshell", "workspace.json"), nil
}

// ProvidersConfig holds document-type provider configuration.
type ProvidersConfig struct {
	// Dir holds additional provider definitions (*.yaml). Empty loads only
	// the built-in providers.
	Dir string `toml:"dir"`
}

// BridgeConfig holds host bridge configuration.
type BridgeConfig struct {
	OutboxSize   int      `toml:"outbox_size" split_words:"true"`
	WriteTimeout Duration `toml:"write_timeout" split_words:"true"`
}

// DeployConfig holds deployment client configuration.
type DeployConfig struct {
	Timeout      Duration `toml:"timeout"`
	RetryCount   int      `toml:"retry_count" split_words:"true"`
	RetryWait    Duration `toml:"retry_wait" split_words:"true"`
	RetryMaxWait Duration `toml:"retry_max_wait" split_words:"true"`
	RateLimit    float64  `toml:"rate_limit" split_words:"true"` // requests per second, 0 = unlimited
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// RateLimitConfig holds API rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `toml:"requests_per_second" split_words:"true"`
	Burst             int  `toml:"burst"`
	Enabled           bool `toml:"enabled"`
}

// Duration is a time.Duration read from strings such as "30s" in both TOML
// files and environment variables.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the duration as time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: "8710",
		},
		Bridge: BridgeConfig{
			OutboxSize:   64,
			WriteTimeout: Duration(10 * time.Second),
		},
		Deploy: DeployConfig{
			Timeout:      Duration(30 * time.Second),
			RetryCount:   3,
			RetryWait:    Duration(time.Second),
			RetryMaxWait: Duration(30 * time.Second),
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           true,
		},
	}
}

// Load loads configuration from defaults and environment variables.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads defaults, overlays the TOML file at path (if non-empty) and
// finally applies environment variables.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}
