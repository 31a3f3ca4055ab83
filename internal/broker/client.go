package broker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"dhan-trader/internal/credentials"
	errs "dhan-trader/internal/errors"
	"dhan-trader/internal/models"
	"dhan-trader/internal/resilience"
)

// Config holds broker client construction parameters.
type Config struct {
	ClientID           string
	BaseURL            string
	ForceREST          bool
	DefaultProductType models.ProductType
	Source             credentials.Source
}

// Client composes a credential source with the transport selection policy.
// The SDK transport is preferred; when its construction fails (or ForceREST
// is set) the client falls back to REST and stays there for the process
// lifetime.
type Client struct {
	transport      Transport
	defaultProduct models.ProductType
	breaker        *resilience.CircuitBreaker
	logger         zerolog.Logger
}

// New selects a transport and returns the client. It never fails: the REST
// fallback can always be constructed.
func New(cfg Config, logger zerolog.Logger) *Client {
	defaultProduct := cfg.DefaultProductType
	if defaultProduct == "" {
		defaultProduct = models.ProductIntraday
	}

	c := &Client{
		defaultProduct: defaultProduct,
		breaker:        resilience.NewCircuitBreaker("dhan-orders", resilience.DefaultCircuitBreakerConfig()),
		logger:         logger,
	}

	if !cfg.ForceREST {
		sdk, err := NewSDKTransport(cfg.ClientID, cfg.BaseURL, cfg.Source)
		if err == nil {
			c.transport = sdk
			logger.Info().Str("transport", sdk.Name()).Msg("broker transport selected")
			return c
		}
		logger.Warn().Err(err).Msg("sdk transport init failed, falling back to rest")
	}

	rest := NewRESTTransport(cfg.ClientID, cfg.BaseURL, cfg.Source)
	c.transport = rest
	logger.Info().Str("transport", rest.Name()).Msg("broker transport selected")
	return c
}

// NewWithTransport wires an explicit transport, used by tests.
func NewWithTransport(transport Transport, defaultProduct models.ProductType, logger zerolog.Logger) *Client {
	if defaultProduct == "" {
		defaultProduct = models.ProductIntraday
	}
	return &Client{
		transport:      transport,
		defaultProduct: defaultProduct,
		breaker:        resilience.NewCircuitBreaker("dhan-orders", resilience.DefaultCircuitBreakerConfig()),
		logger:         logger,
	}
}

// BreakerState reports the order-path circuit breaker state.
func (c *Client) BreakerState() resilience.CircuitState {
	return c.breaker.State()
}

// TransportName reports which transport is active.
func (c *Client) TransportName() string {
	return c.transport.Name()
}

// Heartbeat packages a fund-limits call as a health payload.
func (c *Client) Heartbeat(ctx context.Context) Heartbeat {
	limits, err := c.transport.FundLimits(ctx)
	if err != nil {
		return Heartbeat{OK: false, Err: err}
	}
	return Heartbeat{OK: true, Limits: limits}
}

// FundLimits returns the raw fund-limits field map.
func (c *Client) FundLimits(ctx context.Context) (map[string]interface{}, error) {
	return c.transport.FundLimits(ctx)
}

// Positions returns open positions with net quantity extracted through the
// alias table.
func (c *Client) Positions(ctx context.Context) ([]models.Position, error) {
	raw, err := c.transport.Positions(ctx)
	if err != nil {
		return nil, err
	}
	positions := make([]models.Position, 0, len(raw))
	for _, item := range raw {
		pos := models.Position{NetQuantity: models.NetQuantityFrom(item)}
		if id, ok := item["securityId"].(string); ok {
			pos.SecurityID = id
		} else if id, ok := item["securityId"].(float64); ok {
			pos.SecurityID = fmt.Sprintf("%.0f", id)
		}
		if sym, ok := item["tradingSymbol"].(string); ok {
			pos.Symbol = sym
		}
		positions = append(positions, pos)
	}
	return positions, nil
}

// Order returns a single order by id.
func (c *Client) Order(ctx context.Context, orderID string) (map[string]interface{}, error) {
	return c.transport.Order(ctx, orderID)
}

// CancelOrder cancels an order by id.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (map[string]interface{}, error) {
	return c.transport.CancelOrder(ctx, orderID)
}

// PlaceMarketOrder normalizes the request into an OrderIntent and dispatches
// it through the active transport.
func (c *Client) PlaceMarketOrder(ctx context.Context, req MarketOrder) (*OrderResult, error) {
	side, ok := models.NormalizeSide(req.Side)
	if !ok {
		return nil, errs.Wrapf(errs.ErrUnsupportedSide, "side %q", req.Side)
	}
	intent := models.OrderIntent{
		SecurityID:      req.SecurityID,
		ExchangeSegment: req.ExchangeSegment,
		Side:            side,
		Quantity:        req.Quantity,
		OrderType:       models.OrderTypeMarket,
		ProductType:     c.productOrDefault(req.ProductType),
		Validity:        models.ValidityDay,
		Tag:             req.Tag,
	}
	return c.place(ctx, intent)
}

// PlaceLimitOrder normalizes the request into an OrderIntent and dispatches
// it through the active transport.
func (c *Client) PlaceLimitOrder(ctx context.Context, req LimitOrder) (*OrderResult, error) {
	side, ok := models.NormalizeSide(req.Side)
	if !ok {
		return nil, errs.Wrapf(errs.ErrUnsupportedSide, "side %q", req.Side)
	}
	validity := req.Validity
	if validity == "" {
		validity = models.ValidityDay
	}
	intent := models.OrderIntent{
		SecurityID:      req.SecurityID,
		ExchangeSegment: req.ExchangeSegment,
		Side:            side,
		Quantity:        req.Quantity,
		OrderType:       models.OrderTypeLimit,
		Price:           req.Price,
		ProductType:     c.productOrDefault(req.ProductType),
		Validity:        validity,
		Tag:             req.Tag,
	}
	return c.place(ctx, intent)
}

func (c *Client) place(ctx context.Context, intent models.OrderIntent) (*OrderResult, error) {
	var result *OrderResult
	err := c.breaker.Do(func() error {
		var placeErr error
		result, placeErr = c.transport.PlaceOrder(ctx, intent)
		return placeErr
	})
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("security_id", intent.SecurityID).
			Str("side", string(intent.Side)).
			Int("quantity", intent.Quantity).
			Str("order_type", string(intent.OrderType)).
			Msg("order placement failed")
		return nil, err
	}
	c.logger.Info().
		Str("order_id", result.OrderID).
		Str("status", result.Status).
		Str("security_id", intent.SecurityID).
		Str("side", string(intent.Side)).
		Int("quantity", intent.Quantity).
		Msg("order placed")
	return result, nil
}

func (c *Client) productOrDefault(product models.ProductType) models.ProductType {
	if product == "" {
		return c.defaultProduct
	}
	return product
}
