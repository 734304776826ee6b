package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds engine settings. It can be read from a numen.yaml or
// numen.toml file; fields left out keep their defaults.
type Config struct {
	// Currying makes under-applied calls return a partially applied function.
	Currying bool `yaml:"currying" toml:"currying"`

	// MaxCallDepth bounds nested execution contexts (recursion depth).
	MaxCallDepth int `yaml:"max_call_depth" toml:"max_call_depth"`

	// CacheDir persists compiled units as cbor files. Empty keeps the
	// cache in memory only.
	CacheDir string `yaml:"cache_dir,omitempty" toml:"cache_dir"`

	// CacheSize is how many compiled units the cache keeps in memory.
	CacheSize int `yaml:"cache_size" toml:"cache_size"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty" toml:"log_level"`

	// SQLDriver is the database/sql driver used by the sql builtins.
	SQLDriver string `yaml:"sql_driver,omitempty" toml:"sql_driver"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Currying:     true,
		MaxCallDepth: DefaultMaxCallDepth,
		CacheSize:    DefaultCacheSize,
		LogLevel:     "warn",
		SQLDriver:    "sqlite",
	}
}

// Load reads a configuration file. The format is chosen by extension:
// .toml for TOML, anything else is parsed as YAML.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes configuration bytes. The path is used for format detection
// and error messages only.
func Parse(data []byte, path string) (Config, error) {
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	if err := cfg.validate(path); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate(path string) error {
	if c.MaxCallDepth <= 0 {
		return fmt.Errorf("%s: max_call_depth must be positive, got %d", path, c.MaxCallDepth)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("%s: cache_size must be positive, got %d", path, c.CacheSize)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%s: invalid log_level %q", path, c.LogLevel)
	}
	if c.SQLDriver == "" {
		return fmt.Errorf("%s: sql_driver must not be empty", path)
	}
	return nil
}
