package models

import "strings"

// OrderIntent is a transport-agnostic order description. It is built once
// the sizing engine resolves a quantity and is rendered into the active
// transport's wire shape by the broker package. Callers never construct
// transport payloads directly.
type OrderIntent struct {
	SecurityID        string
	ExchangeSegment   ExchangeSegment
	Side              OrderSide
	Quantity          int
	OrderType         OrderType
	Price             float64
	TriggerPrice      float64
	ProductType       ProductType
	Validity          Validity
	DisclosedQuantity int
	AfterMarketOrder  bool
	Tag               string
}

// RESTPayload renders the intent into the Dhan REST order body. Enum-ish
// fields are forced upper-case; the tag maps onto correlationId when set.
func (o OrderIntent) RESTPayload() map[string]interface{} {
	payload := map[string]interface{}{
		"securityId":        o.SecurityID,
		"exchangeSegment":   strings.ToUpper(string(o.ExchangeSegment)),
		"transactionType":   strings.ToUpper(string(o.Side)),
		"quantity":          o.Quantity,
		"orderType":         strings.ToUpper(string(o.OrderType)),
		"productType":       strings.ToUpper(string(o.ProductType)),
		"price":             o.Price,
		"triggerPrice":      o.TriggerPrice,
		"afterMarketOrder":  o.AfterMarketOrder,
		"validity":          strings.ToUpper(string(o.Validity)),
		"disclosedQuantity": o.DisclosedQuantity,
	}
	if o.Tag != "" {
		payload["correlationId"] = o.Tag
	}
	return payload
}

// NormalizeSide maps case-insensitive side aliases onto the canonical
// OrderSide values. BUY/B and SELL/S are accepted; anything else is
// unsupported.
func NormalizeSide(side string) (OrderSide, bool) {
	switch strings.ToUpper(strings.TrimSpace(side)) {
	case "BUY", "B":
		return OrderSideBuy, true
	case "SELL", "S":
		return OrderSideSell, true
	default:
		return "", false
	}
}
