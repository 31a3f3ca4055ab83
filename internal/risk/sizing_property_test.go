package risk

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: for any funds, price, and stop, the sized quantity never risks
// more than the configured fraction of funds, and never exceeds the position
// cap.
func TestProperty_SizedQuantityRespectsRiskBudget(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	engine := NewSizingEngine(SizingConfig{
		RiskPerTrade:       0.02,
		DefaultStopLossPct: 0.05,
		MaxPositionSize:    10000,
	})

	fundsGen := gen.Float64Range(1000, 10000000)
	priceGen := gen.Float64Range(1, 50000)
	stopFractionGen := gen.Float64Range(0.001, 0.999)

	properties.Property("fractional stop risks at most the budget", prop.ForAll(
		func(funds, price, stopFraction float64) bool {
			qty, fallback := engine.Size(funds, price, stopFraction)
			if fallback {
				return false
			}
			if qty < 0 || qty > 10000 {
				return false
			}
			riskPerShare := price * stopFraction
			return float64(qty)*riskPerShare <= funds*0.02+1e-6
		},
		fundsGen, priceGen, stopFractionGen,
	))

	properties.Property("absolute stop risks at most the budget", prop.ForAll(
		func(funds, price, stopDistance float64) bool {
			stop := price + stopDistance // inverted stop still sizes by distance
			qty, fallback := engine.Size(funds, price, stop)
			if fallback {
				return false
			}
			riskPerShare := math.Abs(price - stop)
			return float64(qty)*riskPerShare <= funds*0.02+1e-6
		},
		fundsGen, gen.Float64Range(100, 50000), gen.Float64Range(1, 500),
	))

	properties.TestingRun(t)
}

// Property: the fraction-vs-absolute boundary sits exactly at 1.0; values
// below it scale with the price, values at or above it measure distance
// from the price.
func TestProperty_StopInterpretationBoundary(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	engine := NewSizingEngine(SizingConfig{
		RiskPerTrade:       0.02,
		DefaultStopLossPct: 0.05,
	})

	properties.Property("values below 1 read as fractions", prop.ForAll(
		func(funds, price, stop float64) bool {
			qty, _ := engine.Size(funds, price, stop)
			want := int(math.Floor(funds * 0.02 / (price * stop)))
			return qty == want
		},
		gen.Float64Range(10000, 1000000),
		gen.Float64Range(10, 10000),
		gen.Float64Range(0.01, 0.99),
	))

	properties.Property("values at or above 1 read as absolute prices", prop.ForAll(
		func(funds, price, stop float64) bool {
			qty, _ := engine.Size(funds, price, stop)
			want := int(math.Floor(funds * 0.02 / math.Abs(price-stop)))
			return qty == want
		},
		gen.Float64Range(10000, 1000000),
		gen.Float64Range(1000, 10000),
		gen.Float64Range(1, 900),
	))

	properties.TestingRun(t)
}
