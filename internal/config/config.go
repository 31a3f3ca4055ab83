// Package config provides configuration management for the trading service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Broker  BrokerConfig  `mapstructure:"broker"`
	Trading TradingConfig `mapstructure:"trading"`
	Risk    RiskConfig    `mapstructure:"risk"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// BrokerConfig holds DhanHQ connection configuration.
type BrokerConfig struct {
	ClientID           string `mapstructure:"client_id"`
	TokenFile          string `mapstructure:"token_file"`
	BaseURL            string `mapstructure:"base_url"`
	ForceREST          bool   `mapstructure:"force_rest"`
	DefaultProductType string `mapstructure:"default_product_type"` // INTRA, CNC, MARGIN
}

// TradingConfig holds session and loop configuration.
type TradingConfig struct {
	Mode                 string `mapstructure:"mode"` // "live", "paper"
	PollIntervalSeconds  int    `mapstructure:"poll_interval_seconds"`
	HoursStart           string `mapstructure:"hours_start"` // HH:MM
	HoursEnd             string `mapstructure:"hours_end"`   // HH:MM
	Timezone             string `mapstructure:"timezone"`
	HoursOverride        bool   `mapstructure:"hours_override"`
	ExchangeSegment      string `mapstructure:"exchange_segment"`
	OrderTag             string `mapstructure:"order_tag"`
	AllowShortSelling    bool   `mapstructure:"allow_short_selling"`
	FundsCacheTTLSeconds int    `mapstructure:"funds_cache_ttl_seconds"`
	HeartbeatEnabled     bool   `mapstructure:"heartbeat_enabled"`
	SignalFile           string `mapstructure:"signal_file"`
}

// RiskConfig holds sizing and limit configuration.
type RiskConfig struct {
	MinConfidence           float64 `mapstructure:"min_confidence"`
	RiskPerTrade            float64 `mapstructure:"risk_per_trade"`
	DefaultStopLossPct      float64 `mapstructure:"default_stop_loss_pct"`
	MaxPositionSize         int     `mapstructure:"max_position_size"`
	MaxDailyTradesPerSymbol int     `mapstructure:"max_daily_trades_per_symbol"`
	MaxDailyTradesTotal     int     `mapstructure:"max_daily_trades_total"`
}

// StoreConfig holds audit database configuration.
type StoreConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig holds log output configuration.
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Console  bool   `mapstructure:"console"`
	File     bool   `mapstructure:"file"`
	FilePath string `mapstructure:"file_path"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/dhan-trader"
	}
	return filepath.Join(home, ".config", "dhan-trader")
}

// Load loads configuration from the specified directory. If configDir is
// empty, the default config directory is used. Environment variables
// override the file.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// First run: write a template and tell the operator to fill it in.
			return createTemplateConfig(configDir, name)
		}
		return err
	}
	return v.Unmarshal(target)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DHAN_CLIENT_ID"); v != "" {
		cfg.Broker.ClientID = v
	}
	if v := os.Getenv("DHAN_TOKEN_FILE"); v != "" {
		cfg.Broker.TokenFile = v
	}
	if v := os.Getenv("DHAN_BASE_URL"); v != "" {
		cfg.Broker.BaseURL = v
	}
	if v := os.Getenv("DHAN_FORCE_REST"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Broker.ForceREST = b
		} else {
			cfg.Broker.ForceREST = v == "1" || v == "yes"
		}
	}
	if v := os.Getenv("DHAN_DEFAULT_PRODUCT_TYPE"); v != "" {
		cfg.Broker.DefaultProductType = v
	}
	if v := os.Getenv("TRADING_MODE"); v != "" {
		cfg.Trading.Mode = v
	}
}

func applyDefaults(cfg *Config, configDir string) {
	if cfg.Trading.Mode == "" {
		cfg.Trading.Mode = "paper"
	}
	if cfg.Trading.PollIntervalSeconds <= 0 {
		cfg.Trading.PollIntervalSeconds = 60
	}
	if cfg.Trading.HoursStart == "" {
		cfg.Trading.HoursStart = "09:15"
	}
	if cfg.Trading.HoursEnd == "" {
		cfg.Trading.HoursEnd = "15:30"
	}
	if cfg.Trading.Timezone == "" {
		cfg.Trading.Timezone = "Asia/Kolkata"
	}
	if cfg.Trading.ExchangeSegment == "" {
		cfg.Trading.ExchangeSegment = "NSE_EQ"
	}
	if cfg.Trading.FundsCacheTTLSeconds <= 0 {
		cfg.Trading.FundsCacheTTLSeconds = 60
	}
	if cfg.Risk.MinConfidence <= 0 {
		cfg.Risk.MinConfidence = 0.7
	}
	if cfg.Risk.RiskPerTrade <= 0 {
		cfg.Risk.RiskPerTrade = 0.02
	}
	if cfg.Risk.DefaultStopLossPct <= 0 {
		cfg.Risk.DefaultStopLossPct = 0.05
	}
	if cfg.Risk.MaxPositionSize <= 0 {
		cfg.Risk.MaxPositionSize = 100
	}
	if cfg.Risk.MaxDailyTradesPerSymbol <= 0 {
		cfg.Risk.MaxDailyTradesPerSymbol = 3
	}
	if cfg.Risk.MaxDailyTradesTotal <= 0 {
		cfg.Risk.MaxDailyTradesTotal = 10
	}
	if cfg.Trading.SignalFile == "" {
		cfg.Trading.SignalFile = filepath.Join(configDir, "signals.json")
	}
	if cfg.Broker.TokenFile == "" {
		cfg.Broker.TokenFile = filepath.Join(configDir, "dhan_token.txt")
	}
	if cfg.Store.DBPath == "" {
		cfg.Store.DBPath = filepath.Join(configDir, "trades.db")
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
		cfg.Logging.Console = true
	}
	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = filepath.Join(configDir, "logs", "trader.log")
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Trading.Mode != "live" && c.Trading.Mode != "paper" {
		return fmt.Errorf("invalid trading mode: %s (must be 'live' or 'paper')", c.Trading.Mode)
	}
	if c.IsLiveMode() {
		if c.Broker.ClientID == "" {
			return fmt.Errorf("broker client_id is required in live mode")
		}
		// The hours override exists for paper experiments only.
		if c.Trading.HoursOverride {
			return fmt.Errorf("hours_override is not permitted in live mode")
		}
	}
	if c.Risk.RiskPerTrade <= 0 || c.Risk.RiskPerTrade > 1 {
		return fmt.Errorf("risk_per_trade must be in (0, 1]")
	}
	if c.Risk.DefaultStopLossPct <= 0 || c.Risk.DefaultStopLossPct >= 1 {
		return fmt.Errorf("default_stop_loss_pct must be in (0, 1)")
	}
	if c.Risk.MinConfidence < 0 || c.Risk.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be between 0 and 1")
	}
	if c.Risk.MaxPositionSize < 0 {
		return fmt.Errorf("max_position_size must be non-negative")
	}
	return nil
}

// IsLiveMode returns true if live trading is enabled.
func (c *Config) IsLiveMode() bool {
	return c.Trading.Mode == "live"
}
