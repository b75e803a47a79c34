package bloghost

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all platform configuration. Values come from a YAML file,
// from environment variables, or fall back to defaults.
type Config struct {
	Addr         string `yaml:"addr"`          // listen address (default ":3000")
	DatabasePath string `yaml:"database_path"` // SQLite path (default "data/bloghost.db")

	LinkbackRateLimit  int           `yaml:"linkback_rate_limit"`  // linkbacks allowed per IP per window (default 30)
	LinkbackRateWindow time.Duration `yaml:"linkback_rate_window"` // limiter window (default 1m)

	NotifyQueueSize int `yaml:"notify_queue_size"` // deferred mail queue depth (default 64)

	CacheSweepSchedule string `yaml:"cache_sweep_schedule"` // cron spec for expired durable-cache sweeps (default "@hourly")
}

// UnmarshalYAML decodes the config, accepting the linkback window in Go
// duration form ("30s", "2m").
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Addr               string `yaml:"addr"`
		DatabasePath       string `yaml:"database_path"`
		LinkbackRateLimit  int    `yaml:"linkback_rate_limit"`
		LinkbackRateWindow string `yaml:"linkback_rate_window"`
		NotifyQueueSize    int    `yaml:"notify_queue_size"`
		CacheSweepSchedule string `yaml:"cache_sweep_schedule"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	c.Addr = raw.Addr
	c.DatabasePath = raw.DatabasePath
	c.LinkbackRateLimit = raw.LinkbackRateLimit
	c.NotifyQueueSize = raw.NotifyQueueSize
	c.CacheSweepSchedule = raw.CacheSweepSchedule
	if raw.LinkbackRateWindow != "" {
		window, err := time.ParseDuration(raw.LinkbackRateWindow)
		if err != nil {
			return fmt.Errorf("linkback_rate_window: %w", err)
		}
		c.LinkbackRateWindow = window
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/bloghost.db"
	}
	if c.LinkbackRateLimit == 0 {
		c.LinkbackRateLimit = 30
	}
	if c.LinkbackRateWindow == 0 {
		c.LinkbackRateWindow = time.Minute
	}
	if c.NotifyQueueSize == 0 {
		c.NotifyQueueSize = 64
	}
	if c.CacheSweepSchedule == "" {
		c.CacheSweepSchedule = "@hourly"
	}
}

// LoadConfig reads path as YAML when non-empty and applies defaults. An empty
// path yields a default config.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.setDefaults()
	return cfg, nil
}

// EnvOr returns the value of the environment variable key, or fallback if
// empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally
// exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("bloghost: required environment variable %s is not set", key)
	}
	return v
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance. The
// callback receives the App before the server starts; attach
// PageCacheMiddleware to tenant-rendered page routes so invalidation can
// purge them.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}
