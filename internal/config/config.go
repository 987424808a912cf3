// Package config loads tasklog settings from <home>/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fentz26/tasklog/internal/location"
	"github.com/fentz26/tasklog/internal/logging"
	"github.com/fentz26/tasklog/internal/scheduler"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds tasklog configuration.
type Config struct {
	// Backend selects where tasks and the activity log are stored.
	Backend   string           `yaml:"backend"`
	Redis     RedisConfig      `yaml:"redis"`
	Log       LogConfig        `yaml:"log"`
	Reminders scheduler.Config `yaml:"reminders"`
	Location  LocationConfig   `yaml:"location"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db"`
	// Prefix namespaces the keys so several users can share a server.
	Prefix string `yaml:"prefix"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LocationConfig is the fixed position reported as the device location.
type LocationConfig struct {
	Enabled          bool    `yaml:"enabled"`
	Latitude         float64 `yaml:"latitude"`
	Longitude        float64 `yaml:"longitude"`
	location.Address `yaml:",inline"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendSQLite,
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "tasklog:",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Reminders: *scheduler.DefaultConfig(),
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadFromHome loads <home>/config.yaml.
func LoadFromHome(home string) (*Config, error) {
	return Load(Path(home))
}

// Save writes cfg to path, creating parent directories if needed.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides settings from TASKLOG_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("TASKLOG_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := getenv("TASKLOG_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := getenv("TASKLOG_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("invalid backend %q, must be: sqlite, redis, or memory", c.Backend)
	}
	if c.Backend == BackendRedis && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required for the redis backend")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := logging.ParseFormatter(c.Log.Format); err != nil {
		return err
	}
	if c.Reminders.PollInterval < 0 {
		return fmt.Errorf("reminders.poll_interval must not be negative")
	}
	return nil
}

// DefaultHome returns $TASKLOG_HOME, or ~/.tasklog.
func DefaultHome() string {
	if v := os.Getenv("TASKLOG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tasklog"
	}
	return filepath.Join(home, ".tasklog")
}

// Path returns the config file location under home.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// DBPath returns the SQLite database location under home.
func DBPath(home string) string {
	return filepath.Join(home, "tasklog.db")
}

// LogPath returns the log file the TUI writes to under home.
func LogPath(home string) string {
	return filepath.Join(home, "tasklog.log")
}
