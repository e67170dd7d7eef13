// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/okian/bolao/internal/domain/scoring"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ReadHeaderTimeout bounds how long a client may take to send headers.
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`

	// ShutdownTimeout bounds graceful shutdown of the HTTP server.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// Store selects the repository backend: memory or mongo.
	Store string `koanf:"store"`

	Mongo MongoConfig `koanf:"mongo"`

	RateLimit RateLimitConfig `koanf:"rate_limit"`

	Metrics MetricsConfig `koanf:"metrics"`

	// Scoring holds the points awarded by each rule step.
	Scoring scoring.Rule `koanf:"scoring"`
}

// MongoConfig configures the MongoDB store.
type MongoConfig struct {
	URI      string        `koanf:"uri"`
	Database string        `koanf:"database"`
	Timeout  time.Duration `koanf:"timeout"`
}

// RateLimitConfig configures the token bucket in front of mutating routes.
// A zero RPS disables limiting.
type RateLimitConfig struct {
	RPS   float64 `koanf:"rps"`
	Burst int     `koanf:"burst"`
}

// MetricsConfig shapes the Prometheus metrics. Empty values keep the
// metrics package defaults.
type MetricsConfig struct {
	Enabled         bool              `koanf:"enabled"`
	RefreshInterval time.Duration     `koanf:"refresh_interval"`
	Namespace       string            `koanf:"namespace"`
	Subsystem       string            `koanf:"subsystem"`
	Prefix          string            `koanf:"prefix"`
	Labels          map[string]string `koanf:"labels"`
	Buckets         []float64         `koanf:"buckets"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		MaxBodyBytes:      1 << 20,
		Store:             StoreMemory,
		Mongo: MongoConfig{
			Database: "bolao",
			Timeout:  10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RPS:   50,
			Burst: 100,
		},
		Metrics: MetricsConfig{
			Enabled:         true,
			RefreshInterval: 10 * time.Second,
		},
		Scoring: scoring.DefaultRule(),
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.Store) {
	case StoreMemory:
	case StoreMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("%w: mongo.uri is required for the mongo store", ErrInvalidConfig)
		}
		if c.Mongo.Database == "" {
			return fmt.Errorf("%w: mongo.database must not be empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("%w: rate_limit.rps must not be negative", ErrInvalidConfig)
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("%w: rate_limit.burst must be at least 1", ErrInvalidConfig)
	}
	if err := c.Metrics.validate(); err != nil {
		return err
	}
	r := c.Scoring
	if r.Exact < 0 || r.Draw < 0 || r.WinnerAndScore < 0 || r.Winner < 0 {
		return fmt.Errorf("%w: scoring points must not be negative", ErrInvalidConfig)
	}
	return nil
}

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func (m MetricsConfig) validate() error {
	for key, v := range map[string]string{"namespace": m.Namespace, "subsystem": m.Subsystem, "prefix": m.Prefix} {
		if v != "" && !metricName.MatchString(v) {
			return fmt.Errorf("%w: metrics.%s %q is not a valid metric name part", ErrInvalidConfig, key, v)
		}
	}
	for name := range m.Labels {
		if !metricName.MatchString(name) || strings.HasPrefix(name, "__") {
			return fmt.Errorf("%w: metrics.labels: invalid label name %q", ErrInvalidConfig, name)
		}
	}
	for i := 1; i < len(m.Buckets); i++ {
		if m.Buckets[i] <= m.Buckets[i-1] {
			return fmt.Errorf("%w: metrics.buckets must be strictly increasing", ErrInvalidConfig)
		}
	}
	return nil
}
