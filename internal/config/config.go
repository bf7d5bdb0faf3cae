// Package config loads the cleanops daemon configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fentz26/cleanops/internal/assignment"
	"github.com/fentz26/cleanops/internal/lifecycle"
	"github.com/fentz26/cleanops/internal/stats"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvListen        = "CLEANOPS_LISTEN"
	EnvDB            = "CLEANOPS_DB"
	EnvLogLevel      = "CLEANOPS_LOG_LEVEL"
	EnvKafkaBrokers  = "CLEANOPS_KAFKA_BROKERS"
	EnvKafkaTopic    = "CLEANOPS_KAFKA_TOPIC"
	EnvRedisAddr     = "CLEANOPS_REDIS_ADDR"
	EnvRedisPassword = "CLEANOPS_REDIS_PASSWORD"
)

// Config is the daemon configuration.
type Config struct {
	Listen    string            `yaml:"listen"`
	DBPath    string            `yaml:"db_path"`
	LogLevel  string            `yaml:"log_level"`
	Timezone  string            `yaml:"timezone"`
	Batch     assignment.Config `yaml:"batch"`
	Lifecycle lifecycle.Config  `yaml:"lifecycle"`
	Alerts    stats.Options     `yaml:"alerts"`
	Events    EventsConfig      `yaml:"events"`
	Cache     CacheConfig       `yaml:"cache"`
	Watcher   WatcherConfig     `yaml:"watcher"`
}

// EventsConfig configures the Kafka publisher. No brokers disables it.
type EventsConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// CacheConfig configures the Redis stats cache. An empty address disables it.
type CacheConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	TTL           time.Duration `yaml:"ttl"`
}

// WatcherConfig configures the alert watcher. Interval 0 disables it.
type WatcherConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Listen:    "127.0.0.1:7466",
		DBPath:    "cleanops.db",
		LogLevel:  "info",
		Timezone:  "UTC",
		Batch:     *assignment.DefaultConfig(),
		Lifecycle: lifecycle.Config{},
		Alerts:    stats.DefaultOptions(),
		Events: EventsConfig{
			Topic: "cleanops.events",
		},
		Cache: CacheConfig{
			TTL: 10 * time.Second,
		},
		Watcher: WatcherConfig{
			Interval: time.Minute,
		},
	}
}

// Load reads the configuration at path. A missing file yields the defaults.
// Environment overrides, including those from a .env file in the working
// directory, are applied before validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// A missing .env is normal.
	_ = godotenv.Load()
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from the process environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvListen); v != "" {
		c.Listen = v
	}
	if v := os.Getenv(EnvDB); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvKafkaBrokers); v != "" {
		c.Events.Brokers = splitList(v)
	}
	if v := os.Getenv(EnvKafkaTopic); v != "" {
		c.Events.Topic = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv(EnvRedisPassword); v != "" {
		c.Cache.RedisPassword = v
	}
}

// Validate checks the configuration and resolves the alert time zone.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.Batch.MaxConcurrency < 1 {
		return fmt.Errorf("batch.max_concurrency must be at least 1")
	}
	if c.Alerts.MaxAlerts < 0 {
		return fmt.Errorf("alerts.max_alerts must not be negative")
	}
	if c.Watcher.Interval < 0 {
		return fmt.Errorf("watcher.interval must not be negative")
	}
	if len(c.Events.Brokers) > 0 && c.Events.Topic == "" {
		return fmt.Errorf("events.topic is required when brokers are set")
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	c.Alerts.Location = loc
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
