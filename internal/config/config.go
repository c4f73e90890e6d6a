package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	NotionToken        string        `mapstructure:"notion_token"`
	NotionDatabaseID   string        `mapstructure:"notion_database_id"`
	NotionBaseURL      string        `mapstructure:"notion_base_url"`
	NotionVersion      string        `mapstructure:"notion_version"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`
	PageSize           int           `mapstructure:"page_size"`
	MaxPages           int           `mapstructure:"max_pages"`

	PublishersFile string `mapstructure:"publishers_file"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

const maxPageSize = 100

// Load reads configuration from configs/.env and environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("app_name", "notion-records")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("notion_token", "")
	v.SetDefault("notion_database_id", "")
	v.SetDefault("notion_base_url", "https://api.notion.com")
	v.SetDefault("notion_version", "2022-06-28")
	v.SetDefault("http_timeout_seconds", 30)
	v.SetDefault("page_size", maxPageSize)
	v.SetDefault("max_pages", 0)
	v.SetDefault("publishers_file", "")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/imports.db")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.NotionToken = strings.TrimSpace(cfg.NotionToken)
	cfg.NotionDatabaseID = strings.TrimSpace(cfg.NotionDatabaseID)
	if cfg.NotionToken == "" {
		return nil, fmt.Errorf("notion_token is required")
	}
	if cfg.NotionDatabaseID == "" {
		return nil, fmt.Errorf("notion_database_id is required")
	}

	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.PageSize <= 0 || cfg.PageSize > maxPageSize {
		return nil, fmt.Errorf("invalid page_size %d (must be between 1 and %d)", cfg.PageSize, maxPageSize)
	}
	if cfg.MaxPages < 0 {
		return nil, fmt.Errorf("invalid max_pages %d (must not be negative)", cfg.MaxPages)
	}

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.NotionToken != "" {
		c.NotionToken = "[redacted]"
	}
	return c
}
