package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the engine process configuration.
type Config struct {
	LogLevel       string         `yaml:"log_level"`
	ThresholdsPath string         `yaml:"thresholds_path"` // empty means compiled defaults
	StateDir       string         `yaml:"state_dir"`       // file-backed version record
	Redis          RedisConfig    `yaml:"redis"`
	Postgres       PostgresConfig `yaml:"postgres"`
	HTTP           HTTPConfig     `yaml:"http"`
}

// RedisConfig selects the replay cache backend. An empty address keeps
// the in-memory store.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

// PostgresConfig selects durable version/audit storage. An empty DSN
// disables both (file-backed version record, no audit writes).
type PostgresConfig struct {
	DSN       string `yaml:"dsn"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

// HTTPConfig configures the read-only ops surface.
type HTTPConfig struct {
	Addr         string  `yaml:"addr"`
	RateLimitRPS float64 `yaml:"rate_limit_rps"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		StateDir: "state",
		Redis:    RedisConfig{TimeoutMS: 500},
		Postgres: PostgresConfig{TimeoutMS: 3000},
		HTTP:     HTTPConfig{Addr: ":8089", RateLimitRPS: 50},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces sane ranges.
func (c Config) Validate() error {
	if c.Redis.TimeoutMS < 0 || c.Redis.TimeoutMS > 10000 {
		return fmt.Errorf("redis timeout_ms %d out of range [0, 10000]", c.Redis.TimeoutMS)
	}
	if c.Postgres.TimeoutMS < 0 || c.Postgres.TimeoutMS > 60000 {
		return fmt.Errorf("postgres timeout_ms %d out of range [0, 60000]", c.Postgres.TimeoutMS)
	}
	if c.HTTP.RateLimitRPS < 0 {
		return fmt.Errorf("rate_limit_rps must not be negative")
	}
	return nil
}

// RedisTimeout returns the per-operation replay store timeout.
func (c Config) RedisTimeout() time.Duration {
	return time.Duration(c.Redis.TimeoutMS) * time.Millisecond
}

// PostgresTimeout returns the per-query persistence timeout.
func (c Config) PostgresTimeout() time.Duration {
	return time.Duration(c.Postgres.TimeoutMS) * time.Millisecond
}
