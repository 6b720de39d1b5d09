package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Server.Host = %q, want localhost", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Cache.MemorySize != 10000 {
		t.Errorf("Cache.MemorySize = %d, want 10000", cfg.Cache.MemorySize)
	}
	if cfg.Models.CacheDir == "" {
		t.Error("Models.CacheDir is empty")
	}
}

func TestLoadExplicitValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
server:
  host: 0.0.0.0
  port: 9090
models:
  cache_dir: ./weights
  use_mock: true
cache:
  enabled: true
  path: ./embeddings.db
  memory_size: 50
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9090 {
		t.Errorf("server = %s:%d, want 0.0.0.0:9090", cfg.Server.Host, cfg.Server.Port)
	}
	if !cfg.Models.UseMock {
		t.Error("Models.UseMock = false, want true")
	}
	if cfg.Models.CacheDir != filepath.Join(dir, "weights") {
		t.Errorf("Models.CacheDir = %q, want config-relative path", cfg.Models.CacheDir)
	}
	if cfg.Cache.Path != filepath.Join(dir, "embeddings.db") {
		t.Errorf("Cache.Path = %q, want config-relative path", cfg.Cache.Path)
	}
	if cfg.Cache.MemorySize != 50 {
		t.Errorf("Cache.MemorySize = %d, want 50", cfg.Cache.MemorySize)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() on missing file succeeded, want error")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() on invalid yaml succeeded, want error")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("default server = %s:%d, want localhost:8080", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Debug {
		t.Error("default Debug = true, want false")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"absolute unchanged", "/var/lib/x.db", "/var/lib/x.db"},
		{"empty unchanged", "", ""},
		{"config relative", "./x.db", filepath.Join("/etc/umekomi", "x.db")},
		{"home relative", "data/x.db", filepath.Join(home, "data", "x.db")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandPath(tt.path, "/etc/umekomi"); got != tt.want {
				t.Errorf("expandPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
