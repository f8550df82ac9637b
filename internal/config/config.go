package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
	Providers   map[string]ProviderConfig `json:"providers"`
}

// ProviderConfig describes one model backend. Family selects the wire
// protocol ("ollama", "openai", "claude", "gemini"); when empty the provider
// key itself is used.
type ProviderConfig struct {
	Family  string `json:"family"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type BasicConfig struct {
	ServerAddress  string `json:"server_address"`
	DefaultBackend string `json:"default_backend"`
	ImageModel     string `json:"image_model"`
	ImageAPIKey    string `json:"image_api_key"`
	FileBaseDir    string `json:"file_base_dir"`
}

// Load reads configuration from the provided path (defaults to config.json).
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("at least one provider must be configured")
	}
	if cfg.BasicConfig.DefaultBackend == "" {
		return nil, fmt.Errorf("default_backend must be configured")
	}
	if _, ok := cfg.Providers[cfg.BasicConfig.DefaultBackend]; !ok {
		return nil, fmt.Errorf("default_backend %s not present in providers", cfg.BasicConfig.DefaultBackend)
	}

	for name, dbCfg := range cfg.Databases {
		if dbCfg.DSN != "" && !filepath.IsAbs(dbCfg.DSN) && (name == "sqlite" || name == "sqlite3") {
			if dbCfg.DSN != ":memory:" {
				dbCfg.DSN = filepath.Join(filepath.Dir(absPath), dbCfg.DSN)
				cfg.Databases[name] = dbCfg
			}
		}
	}

	return &cfg, nil
}
