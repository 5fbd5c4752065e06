package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Virtool  VirtoolConfig  `mapstructure:"virtool"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// VirtoolConfig holds analysis platform API configuration
type VirtoolConfig struct {
	APIBaseURL     string        `mapstructure:"api_base_url"`
	Token          string        `mapstructure:"token"`
	Timeout        time.Duration `mapstructure:"timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	Concurrency    int           `mapstructure:"concurrency"`
}

// MonitorConfig holds watch behavior configuration
type MonitorConfig struct {
	Analyses []string `mapstructure:"analyses"`
	TopK     int      `mapstructure:"top_k"`
	Enabled  bool     `mapstructure:"enabled"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds memoization and persistence configuration
type StorageConfig struct {
	MaxEntries int    `mapstructure:"max_entries"`
	Path       string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// An empty path loads defaults and environment variables only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Enable environment variable override, eg. VTANALYSIS_VIRTOOL_TOKEN
	v.SetEnvPrefix("VTANALYSIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Virtool defaults
	v.SetDefault("virtool.api_base_url", "http://localhost:9950/api")
	v.SetDefault("virtool.token", "")
	v.SetDefault("virtool.timeout", "30s")
	v.SetDefault("virtool.poll_interval", "1m")
	v.SetDefault("virtool.max_retries", 3)
	v.SetDefault("virtool.retry_delay_base", "1s")
	v.SetDefault("virtool.concurrency", 4)

	// Monitor defaults
	v.SetDefault("monitor.analyses", []string{})
	v.SetDefault("monitor.top_k", 5)
	v.SetDefault("monitor.enabled", true)

	// Telegram defaults
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "2s")

	// Storage defaults
	v.SetDefault("storage.max_entries", 256)
	v.SetDefault("storage.path", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Virtool config
	if c.Virtool.APIBaseURL == "" {
		return fmt.Errorf("virtool.api_base_url is required")
	}
	if u, err := url.Parse(c.Virtool.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("virtool.api_base_url must be an absolute URL")
	}
	if c.Virtool.Timeout <= 0 {
		return fmt.Errorf("virtool.timeout must be positive")
	}
	if c.Virtool.PollInterval < 10*time.Second {
		return fmt.Errorf("virtool.poll_interval must be at least 10 seconds")
	}
	if c.Virtool.MaxRetries < 0 || c.Virtool.MaxRetries > 10 {
		return fmt.Errorf("virtool.max_retries must be between 0 and 10")
	}
	if c.Virtool.Concurrency < 1 {
		return fmt.Errorf("virtool.concurrency must be at least 1")
	}

	// Validate Monitor config
	if c.Monitor.TopK < 1 {
		return fmt.Errorf("monitor.top_k must be at least 1")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Storage config
	if c.Storage.MaxEntries < 1 {
		return fmt.Errorf("storage.max_entries must be at least 1")
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
