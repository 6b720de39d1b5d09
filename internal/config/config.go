// Package config provides configuration loading for the umekomi CLI and server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug  bool         `yaml:"debug"`
	Server ServerConfig `yaml:"server"`
	Models ModelsConfig `yaml:"models"`
	Cache  CacheConfig  `yaml:"cache"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ModelsConfig holds model acquisition settings. Per-model environment
// variables (BERT_MODEL_FOLDER, JINA_MODEL_FOLDER) take precedence over the
// download cache and are read by the model runtime, not here.
type ModelsConfig struct {
	// CacheDir is where downloaded weights are stored.
	CacheDir string `yaml:"cache_dir"`
	// UseMock swaps in the deterministic mock runtime (development only).
	UseMock bool `yaml:"use_mock"`
}

// CacheConfig holds embedding result cache settings.
type CacheConfig struct {
	// Enabled turns on the persistent embedding cache.
	Enabled bool `yaml:"enabled"`
	// Path is the SQLite database file for cached embeddings.
	Path string `yaml:"path"`
	// MemorySize is the in-memory LRU capacity in entries.
	MemorySize int `yaml:"memory_size"`
}

// Load reads and parses the config file at path, expands paths, and applies
// defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Models.CacheDir = expandPath(cfg.Models.CacheDir, configDir)
	cfg.Cache.Path = expandPath(cfg.Cache.Path, configDir)

	return &cfg, nil
}

// Default returns a config with every default applied, for running without a
// config file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
