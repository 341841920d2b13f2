package config

import (
	"time"

	"golang-idea-tracker/pkg/config"
)

// Syncer holds syncer-specific configuration.
type Syncer struct {
	SnapshotCron   string `mapstructure:"snapshot_cron"`
	DisclosureCron string `mapstructure:"disclosure_cron"`
	SummaryCron    string `mapstructure:"summary_cron"`

	RedisStreamSyncRequestTimeout time.Duration `mapstructure:"redis_stream_sync_request_timeout"`

	DisclosureFeeds    []string      `mapstructure:"disclosure_feeds"`
	DisclosureAlertTTL time.Duration `mapstructure:"disclosure_alert_ttl"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Config holds the full configuration for the sync service.
type Config struct {
	App      config.App      `mapstructure:"app"`
	Logger   config.Logger   `mapstructure:"logger"`
	Database config.Database `mapstructure:"database"`
	Redis    config.Redis    `mapstructure:"redis"`
	PriceAPI config.PriceAPI `mapstructure:"price_api"`
	Telegram Telegram        `mapstructure:"telegram"`
	Syncer   Syncer          `mapstructure:"syncer"`
}

// Load loads the syncer configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
