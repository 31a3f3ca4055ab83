package models

import "time"

// netQuantityAliases lists the broker response field names that may carry a
// position's net quantity, in lookup order. Adding a provider alias is a
// one-line change here.
var netQuantityAliases = []string{"netQty", "netQuantity", "quantity", "qty"}

// fundsAliases lists the fund-limit response field names that may carry the
// available balance, in preference order. "availabelBalance" is the
// provider's own spelling.
var fundsAliases = []string{"availabelBalance", "availableBalance", "withdrawableBalance", "sodLimit", "collateralAmount"}

// Position is a read-only snapshot of an open position, refreshed per
// decision cycle.
type Position struct {
	SecurityID  string
	Symbol      string
	NetQuantity float64
}

// NetQuantityFrom extracts a signed net quantity from a raw position map,
// tolerating the known field aliases.
func NetQuantityFrom(raw map[string]interface{}) float64 {
	for _, key := range netQuantityAliases {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		if qty, err := asFloat(v); err == nil {
			return qty
		}
	}
	return 0
}

// AvailableBalanceFrom extracts the available balance from a raw fund-limit
// map, trying the known aliases in preference order. The second return is
// false when no alias carried a numeric value.
func AvailableBalanceFrom(raw map[string]interface{}) (float64, bool) {
	for _, key := range fundsAliases {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		if amount, err := asFloat(v); err == nil {
			if amount < 0 {
				amount = 0
			}
			return amount, true
		}
	}
	return 0, false
}

// FundsSnapshot is a cached view of available funds. Stale is set when a
// refresh attempt failed and the last good value is being served.
type FundsSnapshot struct {
	AvailableBalance float64
	FetchedAt        time.Time
	Stale            bool
}
