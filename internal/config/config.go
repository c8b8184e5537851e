package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"stockmon/internal/models"
	"stockmon/internal/schedule"
)

// Config represents the complete application configuration
type Config struct {
	Feed    FeedConfig      `mapstructure:"feed"`
	Trading TradingConfig   `mapstructure:"trading"`
	Network NetworkConfig   `mapstructure:"network"`
	Notify  NotifyConfig    `mapstructure:"notify"`
	Journal JournalConfig   `mapstructure:"journal"`
	Logging LoggingConfig   `mapstructure:"logging"`
	Symbols []models.Symbol `mapstructure:"symbols"`
}

// FeedConfig holds quote feed connection and polling configuration
type FeedConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	IdleInterval time.Duration `mapstructure:"idle_interval"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryDelay   time.Duration `mapstructure:"retry_delay"`
}

// TradingConfig holds the trading-hour windows the monitor is active in
type TradingConfig struct {
	Ranges []schedule.Range `mapstructure:"ranges"`
}

// NetworkConfig holds out-of-band reachability probe configuration
type NetworkConfig struct {
	ProbeHost    string        `mapstructure:"probe_host"`
	ProbePort    int           `mapstructure:"probe_port"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBase    time.Duration `mapstructure:"retry_base"`
}

// NotifyConfig holds notification backend configuration
type NotifyConfig struct {
	Cooldown time.Duration  `mapstructure:"cooldown"`
	Desktop  DesktopConfig  `mapstructure:"desktop"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// DesktopConfig holds desktop notification configuration
type DesktopConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	AppLabel string        `mapstructure:"app_label"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// JournalConfig holds alert journal persistence configuration
type JournalConfig struct {
	Path      string `mapstructure:"path"`
	MaxAlerts int    `mapstructure:"max_alerts"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("STOCKMON")
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Feed defaults
	v.SetDefault("feed.host", "111.229.247.189")
	v.SetDefault("feed.port", 7709)
	v.SetDefault("feed.dial_timeout", "10s")
	v.SetDefault("feed.read_timeout", "10s")
	v.SetDefault("feed.poll_interval", "1s")
	v.SetDefault("feed.idle_interval", "60s")
	v.SetDefault("feed.max_retries", 3)
	v.SetDefault("feed.retry_delay", "5s")

	// Network probe defaults (public DNS, cheap TCP reachability check)
	v.SetDefault("network.probe_host", "8.8.8.8")
	v.SetDefault("network.probe_port", 53)
	v.SetDefault("network.probe_timeout", "3s")
	v.SetDefault("network.max_retries", 5)
	v.SetDefault("network.retry_base", "5s")

	// Notification defaults
	v.SetDefault("notify.cooldown", "60s")
	v.SetDefault("notify.desktop.enabled", true)
	v.SetDefault("notify.desktop.app_label", "Stock Monitor")
	v.SetDefault("notify.desktop.timeout", "10s")
	v.SetDefault("notify.telegram.enabled", false)
	v.SetDefault("notify.telegram.max_retries", 3)
	v.SetDefault("notify.telegram.retry_delay_base", "1s")

	// Journal defaults
	v.SetDefault("journal.path", "")
	v.SetDefault("journal.max_alerts", 1000)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Feed config
	if c.Feed.Host == "" {
		return fmt.Errorf("feed.host is required")
	}
	if c.Feed.Port < 1 || c.Feed.Port > 65535 {
		return fmt.Errorf("feed.port must be between 1 and 65535")
	}
	if c.Feed.PollInterval < 1*time.Second {
		return fmt.Errorf("feed.poll_interval must be at least 1 second")
	}
	if c.Feed.IdleInterval < 1*time.Second {
		return fmt.Errorf("feed.idle_interval must be at least 1 second")
	}
	if c.Feed.MaxRetries < 1 {
		return fmt.Errorf("feed.max_retries must be at least 1")
	}

	// Validate Trading config: schedule.New enforces "HH:MM" shape and
	// start<=end ordering.
	if len(c.Trading.Ranges) == 0 {
		return fmt.Errorf("trading.ranges must contain at least one range")
	}
	if _, err := schedule.New(c.Trading.Ranges); err != nil {
		return fmt.Errorf("invalid trading.ranges: %w", err)
	}

	// Validate Network config
	if c.Network.ProbeHost == "" {
		return fmt.Errorf("network.probe_host is required")
	}
	if c.Network.ProbePort < 1 || c.Network.ProbePort > 65535 {
		return fmt.Errorf("network.probe_port must be between 1 and 65535")
	}
	if c.Network.MaxRetries < 1 {
		return fmt.Errorf("network.max_retries must be at least 1")
	}

	// Validate Notify config
	if c.Notify.Cooldown < 0 {
		return fmt.Errorf("notify.cooldown must not be negative")
	}
	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.BotToken == "" {
			return fmt.Errorf("notify.telegram.bot_token is required when telegram is enabled")
		}
		if c.Notify.Telegram.ChatID == "" {
			return fmt.Errorf("notify.telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Journal config
	if c.Journal.MaxAlerts < 1 {
		return fmt.Errorf("journal.max_alerts must be at least 1")
	}

	// Validate Symbols
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols must contain at least one symbol")
	}
	enabled := 0
	for i, s := range c.Symbols {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("symbols[%d]: %w", i, err)
		}
		if s.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one symbol must be enabled")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
