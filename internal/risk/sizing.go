// Package risk provides order sizing and daily trade limits.
package risk

import "math"

// SizingConfig holds the risk budget parameters.
type SizingConfig struct {
	// RiskPerTrade is the fraction of available funds put at risk per trade.
	RiskPerTrade float64
	// DefaultStopLossPct is the fallback stop-loss fraction used when the
	// recommendation's stop resolves to a non-positive per-share risk.
	DefaultStopLossPct float64
	// MaxPositionSize caps the resolved quantity. Zero means uncapped.
	MaxPositionSize int
}

// SizingEngine computes order quantities from available funds, a risk
// budget, and a stop-loss level.
type SizingEngine struct {
	cfg SizingConfig
}

// NewSizingEngine creates a sizing engine.
func NewSizingEngine(cfg SizingConfig) *SizingEngine {
	return &SizingEngine{cfg: cfg}
}

// Size resolves an order quantity. stopLoss values in (0,1) are read as a
// fractional risk of the current price; values >= 1 are absolute stop
// prices (so exactly 1.0 is an absolute 1-rupee stop). A zero or inverted
// stop falls back to the configured default fraction; usedFallback reports
// that. The result is floored to an integer and clamped to
// [0, MaxPositionSize].
func (e *SizingEngine) Size(availableFunds, currentPrice, stopLoss float64) (quantity int, usedFallback bool) {
	if availableFunds <= 0 || currentPrice <= 0 || e.cfg.RiskPerTrade <= 0 {
		return 0, false
	}

	var riskPerShare float64
	switch {
	case stopLoss > 0 && stopLoss < 1:
		riskPerShare = currentPrice * stopLoss
	case stopLoss >= 1:
		riskPerShare = math.Abs(currentPrice - stopLoss)
	}

	if riskPerShare <= 0 {
		riskPerShare = currentPrice * e.cfg.DefaultStopLossPct
		usedFallback = true
	}
	if riskPerShare <= 0 {
		return 0, usedFallback
	}

	riskBudget := availableFunds * e.cfg.RiskPerTrade
	quantity = int(math.Floor(riskBudget / riskPerShare))
	return e.Clamp(quantity), usedFallback
}

// Clamp bounds a quantity to [0, MaxPositionSize]. Explicitly supplied
// quantities go through the same cap as computed ones.
func (e *SizingEngine) Clamp(quantity int) int {
	if quantity < 0 {
		return 0
	}
	if e.cfg.MaxPositionSize > 0 && quantity > e.cfg.MaxPositionSize {
		return e.cfg.MaxPositionSize
	}
	return quantity
}

// MaxPositionSize exposes the configured cap.
func (e *SizingEngine) MaxPositionSize() int {
	return e.cfg.MaxPositionSize
}
