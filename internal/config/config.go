package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all server configuration
type Config struct {
	ServerAddress string       `json:"serverAddress"`
	DatabasePath  string       `json:"databasePath"`
	DatabaseURL   string       `json:"databaseUrl"`
	AssetStorage  AssetStorage `json:"assetStorage"`
	Security      Security     `json:"security"`
	Sync          Sync         `json:"sync"`
}

// AssetStorage configuration for uploaded asset files
type AssetStorage struct {
	BasePath          string   `json:"basePath"`
	MaxFileSizeMB     int64    `json:"maxFileSizeMB"`
	AllowedExtensions []string `json:"allowedExtensions"`
}

// Security configuration
type Security struct {
	AdminAPIKey       string `json:"adminApiKey"`
	AdminAPIKeyHeader string `json:"adminApiKeyHeader"`
}

// Sync configuration for the fleet synchronization core
type Sync struct {
	// DefaultAssetDurationSeconds applies when a campaign entry has no
	// override and the asset has no intrinsic duration
	DefaultAssetDurationSeconds int `json:"defaultAssetDurationSeconds"`
}

// UsePostgres returns true if PostgreSQL should be used
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

func defaultConfig() *Config {
	return &Config{
		ServerAddress: ":5000",
		DatabasePath:  "signcast.db",
		AssetStorage: AssetStorage{
			BasePath:      "./assets",
			MaxFileSizeMB: 500,
			AllowedExtensions: []string{
				".jpg", ".jpeg", ".png", ".gif", ".webp",
				".mp4", ".webm", ".mov", ".avi",
			},
		},
		Security: Security{
			AdminAPIKey:       "CHANGE_THIS_TO_A_SECURE_API_KEY_AT_LEAST_32_CHARS",
			AdminAPIKeyHeader: "X-API-Key",
		},
		Sync: Sync{
			DefaultAssetDurationSeconds: 10,
		},
	}
}

// Load loads configuration from file or environment
func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// Override from environment variables
	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		cfg.ServerAddress = addr
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if basePath := os.Getenv("ASSET_STORAGE_PATH"); basePath != "" {
		cfg.AssetStorage.BasePath = basePath
	}
	if apiKey := os.Getenv("ADMIN_API_KEY"); apiKey != "" {
		cfg.Security.AdminAPIKey = apiKey
	}
	if dur := os.Getenv("DEFAULT_ASSET_DURATION_SECONDS"); dur != "" {
		if seconds, err := strconv.Atoi(dur); err == nil && seconds > 0 {
			cfg.Sync.DefaultAssetDurationSeconds = seconds
		}
	}

	// Ensure asset storage directory exists
	if err := os.MkdirAll(cfg.AssetStorage.BasePath, 0755); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(cfg.AssetStorage.BasePath)
	if err != nil {
		return nil, err
	}
	cfg.AssetStorage.BasePath = absPath

	return cfg, nil
}
