package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Broker: BrokerConfig{ClientID: "1000000001"},
		Trading: TradingConfig{
			Mode:       "paper",
			HoursStart: "09:15",
			HoursEnd:   "15:30",
		},
		Risk: RiskConfig{
			MinConfidence:      0.7,
			RiskPerTrade:       0.02,
			DefaultStopLossPct: 0.05,
			MaxPositionSize:    100,
		},
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid paper", func(c *Config) {}, ""},
		{"valid live", func(c *Config) { c.Trading.Mode = "live" }, ""},
		{"bad mode", func(c *Config) { c.Trading.Mode = "backtest" }, "invalid trading mode"},
		{"live without client id", func(c *Config) {
			c.Trading.Mode = "live"
			c.Broker.ClientID = ""
		}, "client_id is required"},
		{"live with hours override", func(c *Config) {
			c.Trading.Mode = "live"
			c.Trading.HoursOverride = true
		}, "hours_override"},
		{"paper with hours override", func(c *Config) { c.Trading.HoursOverride = true }, ""},
		{"risk per trade above one", func(c *Config) { c.Risk.RiskPerTrade = 1.5 }, "risk_per_trade"},
		{"stop loss pct at one", func(c *Config) { c.Risk.DefaultStopLossPct = 1.0 }, "default_stop_loss_pct"},
		{"confidence above one", func(c *Config) { c.Risk.MinConfidence = 1.1 }, "min_confidence"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadCreatesTemplateOnFirstRun(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "created template") {
		t.Fatalf("expected template-created error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "config.toml")); statErr != nil {
		t.Errorf("template was not written: %v", statErr)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	for _, key := range []string{"DHAN_CLIENT_ID", "DHAN_TOKEN_FILE", "DHAN_BASE_URL", "DHAN_FORCE_REST", "TRADING_MODE"} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	content := `
[trading]
mode = "paper"

[risk]
min_confidence = 0.8
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Risk.MinConfidence != 0.8 {
		t.Errorf("file value lost: %v", cfg.Risk.MinConfidence)
	}
	if cfg.Trading.HoursStart != "09:15" || cfg.Trading.HoursEnd != "15:30" {
		t.Errorf("default session hours not applied: %s-%s", cfg.Trading.HoursStart, cfg.Trading.HoursEnd)
	}
	if cfg.Trading.Timezone != "Asia/Kolkata" {
		t.Errorf("default timezone not applied: %s", cfg.Trading.Timezone)
	}
	if cfg.Trading.PollIntervalSeconds != 60 || cfg.Trading.FundsCacheTTLSeconds != 60 {
		t.Errorf("default intervals not applied: %d/%d",
			cfg.Trading.PollIntervalSeconds, cfg.Trading.FundsCacheTTLSeconds)
	}
	if cfg.Broker.TokenFile != filepath.Join(dir, "dhan_token.txt") {
		t.Errorf("default token file not applied: %s", cfg.Broker.TokenFile)
	}
	if cfg.Store.DBPath != filepath.Join(dir, "trades.db") {
		t.Errorf("default db path not applied: %s", cfg.Store.DBPath)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DHAN_CLIENT_ID", "2000000002")
	t.Setenv("DHAN_FORCE_REST", "true")
	t.Setenv("TRADING_MODE", "live")

	cfg := validConfig()
	applyEnvOverrides(cfg)

	if cfg.Broker.ClientID != "2000000002" {
		t.Errorf("client id override not applied: %s", cfg.Broker.ClientID)
	}
	if !cfg.Broker.ForceREST {
		t.Error("force_rest override not applied")
	}
	if cfg.Trading.Mode != "live" {
		t.Errorf("mode override not applied: %s", cfg.Trading.Mode)
	}
}
