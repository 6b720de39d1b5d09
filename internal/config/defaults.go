package config

import (
	"os"
	"path/filepath"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Models.CacheDir == "" {
		cfg.Models.CacheDir = defaultDataPath("models")
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = defaultDataPath("embeddings.db")
	}
	if cfg.Cache.MemorySize == 0 {
		cfg.Cache.MemorySize = 10000
	}
}

func defaultDataPath(name string) string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "umekomi", name)
	}
	return filepath.Join(os.TempDir(), "umekomi", name)
}
