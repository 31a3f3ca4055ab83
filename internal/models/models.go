// Package models provides domain models for the order-dispatch core.
package models

// ExchangeSegment represents a Dhan exchange segment.
type ExchangeSegment string

const (
	SegmentNSEEquity ExchangeSegment = "NSE_EQ"
	SegmentBSEEquity ExchangeSegment = "BSE_EQ"
	SegmentNSEFNO    ExchangeSegment = "NSE_FNO"
	SegmentMCX       ExchangeSegment = "MCX_COMM"
)

// OrderSide represents the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType represents the type of an order.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// ProductType represents the product type of an order.
type ProductType string

const (
	ProductIntraday ProductType = "INTRA"  // Intraday
	ProductDelivery ProductType = "CNC"    // Delivery
	ProductMargin   ProductType = "MARGIN" // Margin
)

// Validity represents order validity.
type Validity string

const (
	ValidityDay Validity = "DAY"
	ValidityIOC Validity = "IOC"
)

// Action represents a recommended trade action.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)
