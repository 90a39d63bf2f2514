// Package config provides configuration loading, defaults, and validation for
// the proteingraph tool.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "PROTEINGRAPH"

// newViper builds a Viper instance with YAML file type, the PROTEINGRAPH_ env
// prefix and a key replacer that maps "." → "_" so that nested keys like
// "redis.addr" resolve to "PROTEINGRAPH_REDIS_ADDR".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnv(v)
	return v
}

// bindEnv registers every leaf key so AutomaticEnv can see keys that are
// absent from the config file.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"log.level", "log.format",
		"engine.detectors", "engine.delaunay", "engine.parallel", "engine.drop_noncanonical",
		"engine.cation_residues", "engine.pi_residues",
		"metrics.enabled", "metrics.namespace", "metrics.textfile",
		"redis.enabled", "redis.addr", "redis.password", "redis.db", "redis.default_ttl", "redis.key_prefix",
		"neo4j.enabled", "neo4j.uri", "neo4j.user", "neo4j.password", "neo4j.database",
		"minio.enabled", "minio.endpoint", "minio.access_key", "minio.secret_key", "minio.bucket",
		"minio.use_ssl", "minio.region", "minio.format",
	} {
		_ = v.BindEnv(key)
	}
}

// Load reads the YAML file at configPath, merges any PROTEINGRAPH_*
// environment overrides, applies defaults and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from PROTEINGRAPH_* environment
// variables, with no config file required.
//
//	PROTEINGRAPH_<SECTION>_<FIELD>   e.g.  PROTEINGRAPH_REDIS_ADDR
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch reloads configPath whenever it is written or replaced and passes the
// parsed Config to onChange. Changes that fail to parse or validate are
// skipped. The returned function stops the watch.
func Watch(configPath string, onChange func(*Config)) (stop func() error, err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: failed to start watcher: %w", err)
	}
	// Editors often save by rename, so the directory is watched.
	if err := w.Add(filepath.Dir(configPath)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("config: failed to watch %q: %w", configPath, err)
	}

	target := filepath.Clean(configPath)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(configPath)
				if err != nil {
					continue
				}
				onChange(cfg)
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return func() error {
		err := w.Close()
		<-done
		return err
	}, nil
}
