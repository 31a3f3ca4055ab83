package broker

import (
	"context"

	"dhan-trader/internal/credentials"
	"dhan-trader/internal/dhan"
	"dhan-trader/internal/models"
)

// SDKTransport drives the typed Dhan client. It is the preferred transport;
// construction fails when the client cannot be built, which is what triggers
// the REST fallback.
type SDKTransport struct {
	client *dhan.Client
}

// NewSDKTransport builds the typed-client transport.
func NewSDKTransport(clientID, baseURL string, source credentials.Source) (*SDKTransport, error) {
	client, err := dhan.New(clientID, baseURL, source)
	if err != nil {
		return nil, err
	}
	return &SDKTransport{client: client}, nil
}

// Name identifies this transport in logs.
func (t *SDKTransport) Name() string { return "sdk" }

// FundLimits returns the account fund limits.
func (t *SDKTransport) FundLimits(_ context.Context) (map[string]interface{}, error) {
	return t.client.FundLimits()
}

// Positions returns open positions as raw field maps.
func (t *SDKTransport) Positions(_ context.Context) ([]map[string]interface{}, error) {
	return t.client.Positions()
}

// Order returns a single order by id.
func (t *SDKTransport) Order(_ context.Context, orderID string) (map[string]interface{}, error) {
	return t.client.Order(orderID)
}

// CancelOrder cancels an order by id.
func (t *SDKTransport) CancelOrder(_ context.Context, orderID string) (map[string]interface{}, error) {
	return t.client.CancelOrder(orderID)
}

// PlaceOrder maps the shared intent onto the client's keyword parameters
// and submits it.
func (t *SDKTransport) PlaceOrder(_ context.Context, intent models.OrderIntent) (*OrderResult, error) {
	ack, err := t.client.PlaceOrder(dhan.OrderParams{
		SecurityID:        intent.SecurityID,
		ExchangeSegment:   string(intent.ExchangeSegment),
		TransactionType:   string(intent.Side),
		Quantity:          intent.Quantity,
		OrderType:         string(intent.OrderType),
		ProductType:       string(intent.ProductType),
		Price:             intent.Price,
		TriggerPrice:      intent.TriggerPrice,
		AfterMarketOrder:  intent.AfterMarketOrder,
		Validity:          string(intent.Validity),
		DisclosedQuantity: intent.DisclosedQuantity,
		CorrelationID:     intent.Tag,
	})
	if err != nil {
		return nil, err
	}
	return &OrderResult{OrderID: ack.OrderID, Status: ack.OrderStatus}, nil
}

var _ Transport = (*SDKTransport)(nil)
