// Package config defines the configuration structures of the proteingraph
// tool. No I/O or parsing logic lives here, only plain data types and
// validation.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/proteingraph/internal/domain/graph"
	"github.com/turtacn/proteingraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/proteingraph/pkg/types/protein"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// EngineConfig selects the interaction detectors and input handling.
type EngineConfig struct {
	// Detectors lists bond kinds to detect. Empty means the default set.
	Detectors []string `mapstructure:"detectors"`

	// Delaunay adds the Cα triangulation detector.
	Delaunay bool `mapstructure:"delaunay"`

	// Parallel runs detectors concurrently.
	Parallel bool `mapstructure:"parallel"`

	// DropNonCanonical removes residues outside the 20-letter alphabet
	// before graph construction.
	DropNonCanonical *bool `mapstructure:"drop_noncanonical"`

	CationResidues []string `mapstructure:"cation_residues"`
	PiResidues     []string `mapstructure:"pi_residues"`
}

// DropsNonCanonical reports the effective drop_noncanonical setting.
func (e EngineConfig) DropsNonCanonical() bool {
	return e.DropNonCanonical == nil || *e.DropNonCanonical
}

// MetricsConfig controls the Prometheus registry.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	// Textfile, when set, receives the registry in text exposition format
	// after every command.
	Textfile string `mapstructure:"textfile"`
}

// RedisConfig holds Redis connection parameters for the graph cache.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// Neo4jConfig holds Neo4j connection parameters for the graph sink.
type Neo4jConfig struct {
	Enabled               bool          `mapstructure:"enabled"`
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	Database              string        `mapstructure:"database"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters for the
// document sink.
type MinIOConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
	// Format is the stored document encoding, "json" or "yaml".
	Format string `mapstructure:"format"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Log     logging.LogConfig `mapstructure:"log"`
	Engine  EngineConfig      `mapstructure:"engine"`
	Metrics MetricsConfig     `mapstructure:"metrics"`
	Redis   RedisConfig       `mapstructure:"redis"`
	Neo4j   Neo4jConfig       `mapstructure:"neo4j"`
	MinIO   MinIOConfig       `mapstructure:"minio"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered.
func (c *Config) Validate() error {
	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Engine
	for _, name := range c.Engine.Detectors {
		kind, err := graph.ParseBondKind(name)
		if err != nil {
			return fmt.Errorf("config: engine.detectors: %w", err)
		}
		if kind == graph.Backbone {
			return fmt.Errorf("config: engine.detectors: backbone is always added and cannot be listed")
		}
	}
	for _, r := range c.Engine.CationResidues {
		if !protein.IsCanonical(r) {
			return fmt.Errorf("config: engine.cation_residues: %q is not a canonical residue", r)
		}
	}
	for _, r := range c.Engine.PiResidues {
		if !protein.IsCanonical(r) {
			return fmt.Errorf("config: engine.pi_residues: %q is not a canonical residue", r)
		}
	}

	// Metrics
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("config: metrics.namespace is required when metrics are enabled")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
		}
	}

	// Neo4j
	if c.Neo4j.Enabled && c.Neo4j.URI == "" {
		return fmt.Errorf("config: neo4j.uri is required")
	}

	// MinIO
	if c.MinIO.Enabled {
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("config: minio.endpoint is required")
		}
		if c.MinIO.Bucket == "" {
			return fmt.Errorf("config: minio.bucket is required")
		}
		switch c.MinIO.Format {
		case "json", "yaml":
		default:
			return fmt.Errorf("config: minio.format %q is invalid; expected json|yaml", c.MinIO.Format)
		}
	}

	return nil
}
