package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
		"basic_config": {"server_address": ":8090", "default_backend": "local"},
		"databases": {"sqlite3": {"dsn": "harugo.db"}},
		"providers": {
			"local": {"family": "ollama", "base_url": "http://127.0.0.1:11434", "model": "gemma3:4b"}
		}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.BasicConfig.DefaultBackend != "local" {
		t.Fatalf("default backend = %q", cfg.BasicConfig.DefaultBackend)
	}
	if cfg.Providers["local"].Model != "gemma3:4b" {
		t.Fatalf("provider model = %q", cfg.Providers["local"].Model)
	}
	dsn := cfg.Databases["sqlite3"].DSN
	if !filepath.IsAbs(dsn) {
		t.Fatalf("relative sqlite dsn should be resolved, got %q", dsn)
	}
}

func TestLoadRejectsMissingDefaultBackend(t *testing.T) {
	path := writeConfig(t, `{
		"basic_config": {"default_backend": "missing"},
		"providers": {"local": {"family": "ollama"}}
	}`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown default backend")
	}
}

func TestLoadRequiresProviders(t *testing.T) {
	path := writeConfig(t, `{"basic_config": {"default_backend": "x"}, "providers": {}}`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for empty providers")
	}
}

func TestLoadKeepsMemoryDSN(t *testing.T) {
	path := writeConfig(t, `{
		"basic_config": {"default_backend": "local"},
		"databases": {"sqlite3": {"dsn": ":memory:"}},
		"providers": {"local": {"family": "ollama"}}
	}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Databases["sqlite3"].DSN != ":memory:" {
		t.Fatalf("memory dsn rewritten to %q", cfg.Databases["sqlite3"].DSN)
	}
}
