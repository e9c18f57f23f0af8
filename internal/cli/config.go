package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/kmallard/riverseq/pkg/pipeline"
)

// Cache backend names accepted in the config file.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// Config is the on-disk CLI configuration, read from
// ~/.config/riverseq/config.toml (or $XDG_CONFIG_HOME/riverseq/config.toml).
// Every field has a working default, so the file is optional.
type Config struct {
	Cache    CacheConfig    `toml:"cache"`
	Store    StoreConfig    `toml:"store"`
	Pipeline PipelineConfig `toml:"pipeline"`
}

// CacheConfig selects the partition cache backend.
type CacheConfig struct {
	// Backend is one of "file", "redis", or "none".
	Backend string `toml:"backend"`

	// RedisAddr is the host:port of the Redis instance, used when Backend
	// is "redis".
	RedisAddr string `toml:"redis_addr"`
}

// StoreConfig configures the optional MongoDB result store. An empty URI
// disables persistence.
type StoreConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// PipelineConfig sets default pipeline options, overridable per command via
// flags.
type PipelineConfig struct {
	Parallelism    int     `toml:"parallelism"`
	SizeThreshold  int     `toml:"size_threshold"`
	OverrideFactor float64 `toml:"override_factor"`
}

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() Config {
	return Config{
		Cache: CacheConfig{
			Backend:   CacheBackendFile,
			RedisAddr: "localhost:6379",
		},
		Store: StoreConfig{
			Database:   appName,
			Collection: "results",
		},
		Pipeline: PipelineConfig{
			Parallelism:    pipeline.DefaultParallelism,
			SizeThreshold:  pipeline.DefaultSizeThreshold,
			OverrideFactor: pipeline.DefaultOverrideFactor,
		},
	}
}

// LoadConfig reads the config file at path, or the default location when
// path is empty. A missing file is not an error - defaults are returned.
// A malformed file returns the defaults along with the parse error, so the
// CLI stays usable.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		var err error
		path, err = configPath()
		if err != nil {
			return cfg, nil
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return defaultConfig(), fmt.Errorf("parse %s: %w", path, err)
	}

	switch cfg.Cache.Backend {
	case CacheBackendFile, CacheBackendRedis, CacheBackendNone:
	default:
		return defaultConfig(), fmt.Errorf("%s: unknown cache backend %q", path, cfg.Cache.Backend)
	}

	return cfg, nil
}

// configPath returns the config file location using XDG standard.
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
