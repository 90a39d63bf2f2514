package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
log:
  level: debug
  format: console
engine:
  detectors: [hydrophobic, ionic, aromatic]
  delaunay: true
  parallel: true
  drop_noncanonical: false
  cation_residues: [LYS, ARG, HIS]
metrics:
  enabled: true
  namespace: pg
  textfile: /tmp/pg.prom
redis:
  enabled: true
  addr: "cache:6379"
  default_ttl: 1h
neo4j:
  enabled: true
  uri: "bolt://graph:7687"
  user: neo4j
  password: secret
minio:
  enabled: true
  endpoint: "s3:9000"
  bucket: graphs
  format: yaml
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
	return path
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, []string{"hydrophobic", "ionic", "aromatic"}, cfg.Engine.Detectors)
	assert.True(t, cfg.Engine.Delaunay)
	assert.True(t, cfg.Engine.Parallel)
	assert.False(t, cfg.Engine.DropsNonCanonical())
	assert.Equal(t, []string{"LYS", "ARG", "HIS"}, cfg.Engine.CationResidues)
	assert.Equal(t, "pg", cfg.Metrics.Namespace)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Redis.DefaultTTL)
	assert.Equal(t, "bolt://graph:7687", cfg.Neo4j.URI)
	assert.Equal(t, DefaultNeo4jDatabase, cfg.Neo4j.Database)
	assert.Equal(t, "yaml", cfg.MinIO.Format)
}

func TestLoad_FromFile_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_FromFile_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "engine: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_FromFile_ValidationFailure(t *testing.T) {
	_, err := Load(writeConfig(t, "engine:\n  detectors: [vdw]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, err.Error(), "engine.detectors")
}

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log:\n  level: warn\n"))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
	assert.True(t, cfg.Engine.DropsNonCanonical())
	assert.Empty(t, cfg.Engine.Detectors)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, DefaultRedisKeyPrefix, cfg.Redis.KeyPrefix)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PROTEINGRAPH_LOG_LEVEL", "error")
	cfg, err := Load(writeConfig(t, validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoad_EnvOverride_NestedKey(t *testing.T) {
	t.Setenv("PROTEINGRAPH_REDIS_ADDR", "other:6380")
	t.Setenv("PROTEINGRAPH_ENGINE_DROP_NONCANONICAL", "true")
	cfg, err := Load(writeConfig(t, validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, "other:6380", cfg.Redis.Addr)
	assert.True(t, cfg.Engine.DropsNonCanonical())
}

func TestLoadFromEnv_NoFile(t *testing.T) {
	t.Setenv("PROTEINGRAPH_NEO4J_ENABLED", "true")
	t.Setenv("PROTEINGRAPH_NEO4J_URI", "neo4j://env:7687")
	t.Setenv("PROTEINGRAPH_ENGINE_DELAUNAY", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Neo4j.Enabled)
	assert.Equal(t, "neo4j://env:7687", cfg.Neo4j.URI)
	assert.True(t, cfg.Engine.Delaunay)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
}

func TestLoadFromEnv_ValidationFailure(t *testing.T) {
	t.Setenv("PROTEINGRAPH_LOG_FORMAT", "xml")
	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.format")
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "log:\n  level: error\n")

	levels := make(chan string, 16)
	stop, err := Watch(path, func(cfg *Config) {
		select {
		case levels <- cfg.Log.Level:
		default:
		}
	})
	require.NoError(t, err)

	// invalid content is skipped
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  detectors: [covalent]\n"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0644))

	deadline := time.After(5 * time.Second)
	for got := ""; got != "debug"; {
		select {
		case got = <-levels:
		case <-deadline:
			t.Fatal("config change not observed")
		}
	}
	assert.NoError(t, stop())
}

func TestWatch_MissingDirectory(t *testing.T) {
	_, err := Watch(filepath.Join(t.TempDir(), "nope", "config.yaml"), func(*Config) {})
	require.Error(t, err)
}
