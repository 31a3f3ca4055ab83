package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Dhan Trader Configuration

[broker]
# DhanHQ client id (or set DHAN_CLIENT_ID)
client_id = ""
# Rotating bearer token file (or set DHAN_TOKEN_FILE)
token_file = ""
# API base URL; leave empty for the production endpoint
base_url = ""
# Skip the SDK transport and always use raw REST
force_rest = false
# Default product type: INTRA, CNC, MARGIN
default_product_type = "INTRA"

[trading]
# Trading mode: "live" or "paper"
mode = "paper"
# Seconds between decision cycles
poll_interval_seconds = 60
# Session window, exchange local time
hours_start = "09:15"
hours_end = "15:30"
timezone = "Asia/Kolkata"
# Skip the trading-hours check (paper mode only)
hours_override = false
# Exchange segment for dispatched orders
exchange_segment = "NSE_EQ"
# Correlation tag attached to every order
order_tag = "dhan-trader"
# Allow SELL without an existing long position
allow_short_selling = false
# Funds snapshot cache lifetime
funds_cache_ttl_seconds = 60
# Per-cycle broker connectivity check
heartbeat_enabled = true
# Drop file the advisory process writes signals to; leave empty for the
# config-dir default
signal_file = ""

[risk]
# Minimum recommendation confidence (0-1)
min_confidence = 0.7
# Fraction of available funds risked per trade
risk_per_trade = 0.02
# Fallback stop-loss fraction when a recommendation has no usable stop
default_stop_loss_pct = 0.05
# Hard cap on any single order quantity
max_position_size = 100
# Daily dispatch limits
max_daily_trades_per_symbol = 3
max_daily_trades_total = 10

[store]
# Audit database path; leave empty for the config-dir default
db_path = ""

[logging]
# Log level: debug, info, warn, error
level = "info"
console = true
file = true
# Log file path; leave empty for the config-dir default
file_path = ""
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return fmt.Errorf("config file not found, created template at %s", path)
}
