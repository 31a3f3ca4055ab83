// Package broker provides the resilient Dhan broker client: one uniform
// contract over two interchangeable transports, with the bearer credential
// re-resolved lazily on every call.
package broker

import (
	"context"

	"dhan-trader/internal/models"
)

// Transport is the operation set both transport implementations expose.
// Selection happens once at construction; after that the transport is fixed
// for the process lifetime and only the credential inside it refreshes.
type Transport interface {
	// Name identifies the transport in logs ("sdk" or "rest").
	Name() string

	FundLimits(ctx context.Context) (map[string]interface{}, error)
	Positions(ctx context.Context) ([]map[string]interface{}, error)
	Order(ctx context.Context, orderID string) (map[string]interface{}, error)
	CancelOrder(ctx context.Context, orderID string) (map[string]interface{}, error)

	// PlaceOrder renders the shared intent into the transport's wire shape
	// and submits it.
	PlaceOrder(ctx context.Context, intent models.OrderIntent) (*OrderResult, error)
}

// OrderResult is the normalized acknowledgement of an order placement.
type OrderResult struct {
	OrderID string
	Status  string
}

// MarketOrder describes a market order request before side normalization
// and product defaulting.
type MarketOrder struct {
	SecurityID      string
	ExchangeSegment models.ExchangeSegment
	Side            string // case-insensitive; accepts BUY/B, SELL/S
	Quantity        int
	ProductType     models.ProductType // empty means configured default
	Tag             string
}

// LimitOrder describes a limit order request.
type LimitOrder struct {
	SecurityID      string
	ExchangeSegment models.ExchangeSegment
	Side            string
	Quantity        int
	Price           float64
	ProductType     models.ProductType
	Validity        models.Validity // empty means DAY
	Tag             string
}

// Heartbeat is a lightweight health payload built from a fund-limits call.
type Heartbeat struct {
	OK     bool
	Limits map[string]interface{}
	Err    error
}
