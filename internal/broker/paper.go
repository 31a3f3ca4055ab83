package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	errs "dhan-trader/internal/errors"
	"dhan-trader/internal/models"
)

// PaperTransport simulates the broker API in memory for paper trading. It
// speaks the same loosely-typed field maps as the real transports so the
// alias extraction above it is exercised identically.
type PaperTransport struct {
	mu           sync.RWMutex
	balance      float64
	positions    map[string]*paperPosition // keyed by security id
	orders       map[string]map[string]interface{}
	orderCounter int
	// lastPrices lets tests and paper runs control fill prices per security.
	lastPrices map[string]float64
}

type paperPosition struct {
	symbol string
	netQty float64
}

// NewPaperTransport creates a paper transport with the given starting
// balance. A zero balance defaults to 10 lakhs.
func NewPaperTransport(initialBalance float64) *PaperTransport {
	if initialBalance == 0 {
		initialBalance = 1000000
	}
	return &PaperTransport{
		balance:    initialBalance,
		positions:  make(map[string]*paperPosition),
		orders:     make(map[string]map[string]interface{}),
		lastPrices: make(map[string]float64),
	}
}

// Name identifies the transport.
func (p *PaperTransport) Name() string {
	return "paper"
}

// SetLastPrice sets the simulated market price for a security.
func (p *PaperTransport) SetLastPrice(securityID string, price float64) {
	p.mu.Lock()
	p.lastPrices[securityID] = price
	p.mu.Unlock()
}

// FundLimits reports the simulated balance using the live field name.
func (p *PaperTransport) FundLimits(ctx context.Context) (map[string]interface{}, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return map[string]interface{}{
		"availabelBalance": p.balance,
	}, nil
}

// Positions reports the simulated book.
func (p *PaperTransport) Positions(ctx context.Context) ([]map[string]interface{}, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]map[string]interface{}, 0, len(p.positions))
	for id, pos := range p.positions {
		out = append(out, map[string]interface{}{
			"securityId":    id,
			"tradingSymbol": pos.symbol,
			"netQty":        pos.netQty,
		})
	}
	return out, nil
}

// Order returns a previously placed simulated order.
func (p *PaperTransport) Order(ctx context.Context, orderID string) (map[string]interface{}, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	order, ok := p.orders[orderID]
	if !ok {
		return nil, errs.Wrapf(errs.ErrOrderNotFound, "order %s", orderID)
	}
	return order, nil
}

// CancelOrder marks a simulated order cancelled.
func (p *PaperTransport) CancelOrder(ctx context.Context, orderID string) (map[string]interface{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	order, ok := p.orders[orderID]
	if !ok {
		return nil, errs.Wrapf(errs.ErrOrderNotFound, "order %s", orderID)
	}
	order["orderStatus"] = "CANCELLED"
	return order, nil
}

// PlaceOrder fills immediately at the last known price (or the limit price
// for limit orders) and adjusts balance and position.
func (p *PaperTransport) PlaceOrder(ctx context.Context, intent models.OrderIntent) (*OrderResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	execPrice := p.lastPrices[intent.SecurityID]
	if intent.OrderType == models.OrderTypeLimit {
		execPrice = intent.Price
	}

	value := execPrice * float64(intent.Quantity)
	if intent.Side == models.OrderSideBuy && value > p.balance {
		return nil, fmt.Errorf("insufficient paper balance: need %.2f, have %.2f", value, p.balance)
	}

	p.orderCounter++
	orderID := fmt.Sprintf("PAPER_%d_%d", time.Now().Unix(), p.orderCounter)

	pos := p.positions[intent.SecurityID]
	if pos == nil {
		pos = &paperPosition{symbol: intent.SecurityID}
		p.positions[intent.SecurityID] = pos
	}
	if intent.Side == models.OrderSideBuy {
		pos.netQty += float64(intent.Quantity)
		p.balance -= value
	} else {
		pos.netQty -= float64(intent.Quantity)
		p.balance += value
	}

	p.orders[orderID] = map[string]interface{}{
		"orderId":         orderID,
		"orderStatus":     "TRADED",
		"securityId":      intent.SecurityID,
		"transactionType": string(intent.Side),
		"quantity":        intent.Quantity,
		"price":           execPrice,
	}
	return &OrderResult{OrderID: orderID, Status: "TRADED"}, nil
}

var _ Transport = (*PaperTransport)(nil)
