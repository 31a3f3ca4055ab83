package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	errs "dhan-trader/internal/errors"
)

// TradeRecommendation is a normalized trade recommendation produced by the
// external AI layer. Immutable once constructed via ParseRecommendation.
type TradeRecommendation struct {
	Symbol     string
	Action     Action
	Confidence float64
	Quantity   int     // 0 means "let the sizing engine decide"
	StopLoss   float64 // fraction in (0,1) or absolute price >= 1; 0 means unset
	TakeProfit float64 // absolute price; 0 means unset
	Reasoning  string
}

// Actionable reports whether the recommendation calls for an order.
func (r TradeRecommendation) Actionable() bool {
	return r.Action == ActionBuy || r.Action == ActionSell
}

// HasStopLoss reports whether a stop-loss level was supplied.
func (r TradeRecommendation) HasStopLoss() bool {
	return r.StopLoss > 0
}

// ParseRecommendation normalizes a loosely-typed recommendation payload into
// a TradeRecommendation. The payload typically comes from a JSON object with
// keys action, confidence, quantity, stop_loss, take_profit and reasoning,
// whose value types vary between providers.
func ParseRecommendation(symbol string, raw map[string]interface{}) (TradeRecommendation, error) {
	rec := TradeRecommendation{Symbol: symbol}

	action := strings.ToUpper(strings.TrimSpace(asString(raw["action"])))
	switch Action(action) {
	case ActionBuy, ActionSell, ActionHold:
		rec.Action = Action(action)
	default:
		return rec, errs.NewValidationError("action", raw["action"], "must be BUY, SELL or HOLD")
	}

	confidence, err := asFloat(raw["confidence"])
	if err != nil {
		return rec, errs.NewValidationError("confidence", raw["confidence"], err.Error())
	}
	if confidence < 0 || confidence > 1 {
		return rec, errs.NewValidationError("confidence", confidence, "must be within [0,1]")
	}
	rec.Confidence = confidence

	if v, ok := raw["quantity"]; ok && v != nil {
		qty, err := asFloat(v)
		if err != nil {
			return rec, errs.NewValidationError("quantity", v, err.Error())
		}
		if qty < 0 {
			return rec, errs.NewValidationError("quantity", qty, "must be >= 0")
		}
		rec.Quantity = int(qty)
	}

	if v, ok := raw["stop_loss"]; ok && v != nil && v != "" {
		sl, err := asFloat(v)
		if err != nil {
			return rec, errs.NewValidationError("stop_loss", v, err.Error())
		}
		if sl < 0 {
			return rec, errs.NewValidationError("stop_loss", sl, "must be positive")
		}
		rec.StopLoss = sl
	}

	if v, ok := raw["take_profit"]; ok && v != nil && v != "" {
		tp, err := asFloat(v)
		if err != nil {
			return rec, errs.NewValidationError("take_profit", v, err.Error())
		}
		rec.TakeProfit = tp
	}

	rec.Reasoning = strings.TrimSpace(asString(raw["reasoning"]))
	return rec, nil
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

func asFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("missing value")
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}
