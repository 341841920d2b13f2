package config

import (
	"time"

	"golang-idea-tracker/pkg/config"
)

// Polling holds the live price polling configuration.
type Polling struct {
	Interval     time.Duration `mapstructure:"interval"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	AutoStart    bool          `mapstructure:"auto_start"`
}

// MentionAPI holds the configuration for the upstream mention-analytics API.
type MentionAPI struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Config holds the full configuration for the dashboard service.
type Config struct {
	App        config.App      `mapstructure:"app"`
	Logger     config.Logger   `mapstructure:"logger"`
	Database   config.Database `mapstructure:"database"`
	Redis      config.Redis    `mapstructure:"redis"`
	API        config.API      `mapstructure:"api"`
	Market     config.Market   `mapstructure:"market"`
	PriceAPI   config.PriceAPI `mapstructure:"price_api"`
	MentionAPI MentionAPI      `mapstructure:"mention_api"`
	Polling    Polling         `mapstructure:"polling"`
}

// Load loads the dashboard configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
