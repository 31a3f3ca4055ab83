package trading

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dhan-trader/internal/broker"
	errs "dhan-trader/internal/errors"
	"dhan-trader/internal/models"
	"dhan-trader/internal/risk"
)

// State tracks a recommendation's progress through the pipeline.
type State string

const (
	StateReceived      State = "RECEIVED"
	StateNormalized    State = "NORMALIZED"
	StateSafetyChecked State = "SAFETY_CHECKED"
	StateSized         State = "SIZED"
	StateDispatching   State = "DISPATCHING"
	StateRecorded      State = "RECORDED"
	StateRejected      State = "REJECTED"
	StateFailed        State = "FAILED"
)

// RecordSink receives the append-only audit trail. Storage format is the
// sink's concern; the pipeline only guarantees one record per dispatch
// attempt.
type RecordSink interface {
	LogTradeRecord(ctx context.Context, record *models.TradeRecord) error
}

// PipelineConfig holds the pipeline's safety parameters.
type PipelineConfig struct {
	MinConfidence     float64
	AllowShortSelling bool
	FundsCacheTTL     time.Duration
	ExchangeSegment   models.ExchangeSegment
	OrderTag          string
}

// Pipeline orchestrates normalize, safety-check, size, dispatch and record
// for one recommendation at a time. At most one order is in flight per
// pipeline instance; that is what makes the daily counters and the funds
// snapshot race-free in a single-process deployment.
type Pipeline struct {
	cfg    PipelineConfig
	broker *broker.Client
	sizer  *risk.SizingEngine
	limits *risk.DailyLimitTracker
	window *WindowGuard
	sink   RecordSink
	logger zerolog.Logger
	now    func() time.Time

	mu       sync.Mutex
	inFlight bool
	funds    *models.FundsSnapshot
}

// NewPipeline wires the decision pipeline.
func NewPipeline(
	cfg PipelineConfig,
	brokerClient *broker.Client,
	sizer *risk.SizingEngine,
	limits *risk.DailyLimitTracker,
	window *WindowGuard,
	sink RecordSink,
	logger zerolog.Logger,
) *Pipeline {
	if cfg.FundsCacheTTL <= 0 {
		cfg.FundsCacheTTL = 60 * time.Second
	}
	if cfg.ExchangeSegment == "" {
		cfg.ExchangeSegment = models.SegmentNSEEquity
	}
	return &Pipeline{
		cfg:    cfg,
		broker: brokerClient,
		sizer:  sizer,
		limits: limits,
		window: window,
		sink:   sink,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the pipeline's clock, used by tests.
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
}

// Input carries one decision cycle's data: the raw recommendation plus the
// read-only market context supplied by the caller.
type Input struct {
	SecurityID      string
	Symbol          string
	ExchangeSegment models.ExchangeSegment
	CurrentPrice    float64
	// Recommendation is the loosely-typed payload from the AI layer.
	Recommendation map[string]interface{}
	// Positions is the per-cycle snapshot used for sell-side checks.
	Positions []models.Position
}

// Result reports the terminal state of one pipeline run.
type Result struct {
	State            State
	Outcome          models.DispatchOutcome
	Reason           models.RejectReason
	Quantity         int
	OrderID          string
	UsedFallbackStop bool
	FundsStale       bool
	Err              error
}

// Process runs one recommendation through the state machine. Safety
// rejections return a Result with OutcomeRejected; transport failures
// return OutcomeFailed with the error attached. Neither crashes the loop.
func (p *Pipeline) Process(ctx context.Context, input Input) Result {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return Result{State: StateFailed, Outcome: models.OutcomeFailed, Err: errs.ErrPipelineBusy}
	}
	p.inFlight = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.inFlight = false
		p.mu.Unlock()
	}()

	state := StateReceived

	// RECEIVED -> NORMALIZED
	rec, err := models.ParseRecommendation(input.Symbol, input.Recommendation)
	if err != nil {
		p.logger.Warn().Err(err).Str("symbol", input.Symbol).Msg("recommendation rejected as malformed")
		return p.reject(state, models.RejectMalformedRecommendation)
	}
	state = StateNormalized

	// NORMALIZED -> SAFETY_CHECKED, rules in fixed order
	if reason := p.safetyCheck(rec, input); reason != models.RejectNone {
		return p.reject(state, reason)
	}
	state = StateSafetyChecked

	// SAFETY_CHECKED -> SIZED
	quantity, usedFallback, fundsStale, result := p.size(ctx, rec, input)
	if result != nil {
		return *result
	}
	if quantity <= 0 {
		return p.reject(state, models.RejectZeroQuantity)
	}
	state = StateSized

	// SIZED -> DISPATCHING -> RECORDED | FAILED
	state = StateDispatching
	out := p.dispatch(ctx, rec, input, quantity, state)
	out.UsedFallbackStop = usedFallback
	out.FundsStale = fundsStale
	return out
}

func (p *Pipeline) reject(state State, reason models.RejectReason) Result {
	p.logger.Info().
		Str("state", string(state)).
		Str("reason", string(reason)).
		Msg("recommendation rejected")
	return Result{State: StateRejected, Outcome: models.OutcomeRejected, Reason: reason}
}

// safetyCheck evaluates the pre-sizing rules in their fixed order and
// returns the first failing reason.
func (p *Pipeline) safetyCheck(rec models.TradeRecommendation, input Input) models.RejectReason {
	if !rec.Actionable() {
		return models.RejectHoldAction
	}
	if rec.Confidence < p.cfg.MinConfidence {
		return models.RejectLowConfidence
	}
	if !p.window.IsOpen(p.now()) {
		return models.RejectOutsideTradingHours
	}
	if !p.limits.Allows(input.SecurityID) {
		return models.RejectDailyLimitExceeded
	}
	if rec.Action == models.ActionSell && !p.cfg.AllowShortSelling {
		if p.netQuantity(input) <= 0 {
			return models.RejectNoPositionToSell
		}
	}
	return models.RejectNone
}

// size resolves the order quantity. An explicitly supplied quantity is
// respected (capped by the same maximum); otherwise the risk budget decides.
// The quantity is then bounded by the current position: buys may not push
// the position past the cap, sells may not exceed the held quantity unless
// short selling is enabled.
func (p *Pipeline) size(ctx context.Context, rec models.TradeRecommendation, input Input) (quantity int, usedFallback, fundsStale bool, rejected *Result) {
	quantity = rec.Quantity

	if quantity > 0 {
		quantity = p.sizer.Clamp(quantity)
	} else {
		snapshot, err := p.fundsSnapshot(ctx)
		if err != nil {
			p.logger.Warn().Err(err).Msg("sizing failed safe: no funds data")
			r := p.reject(StateSafetyChecked, models.RejectNoFundsData)
			return 0, false, false, &r
		}
		fundsStale = snapshot.Stale
		quantity, usedFallback = p.sizer.Size(snapshot.AvailableBalance, input.CurrentPrice, rec.StopLoss)
		if usedFallback {
			p.logger.Warn().
				Str("symbol", input.Symbol).
				Float64("stop_loss", rec.StopLoss).
				Float64("price", input.CurrentPrice).
				Msg("stop level unusable, sized with default stop-loss fraction")
		}
	}

	netQty := p.netQuantity(input)
	switch rec.Action {
	case models.ActionBuy:
		if max := p.sizer.MaxPositionSize(); max > 0 {
			allowable := max - int(netQty)
			if allowable < 0 {
				allowable = 0
			}
			if quantity > allowable {
				quantity = allowable
			}
		}
	case models.ActionSell:
		if !p.cfg.AllowShortSelling && float64(quantity) > netQty {
			quantity = int(netQty)
		}
	}

	return quantity, usedFallback, fundsStale, nil
}

func (p *Pipeline) dispatch(ctx context.Context, rec models.TradeRecommendation, input Input, quantity int, state State) Result {
	segment := input.ExchangeSegment
	if segment == "" {
		segment = p.cfg.ExchangeSegment
	}

	record := models.TradeRecord{
		Timestamp:  p.now(),
		Symbol:     input.Symbol,
		SecurityID: input.SecurityID,
		Side:       models.OrderSide(rec.Action),
		Quantity:   quantity,
		Price:      input.CurrentPrice,
	}

	result, err := p.broker.PlaceMarketOrder(ctx, broker.MarketOrder{
		SecurityID:      input.SecurityID,
		ExchangeSegment: segment,
		Side:            string(rec.Action),
		Quantity:        quantity,
		Tag:             p.cfg.OrderTag,
	})
	if err != nil {
		record.Outcome = models.OutcomeFailed
		record.Detail = err.Error()
		p.appendRecord(ctx, &record)
		p.logger.Error().
			Err(err).
			Str("symbol", input.Symbol).
			Str("security_id", input.SecurityID).
			Int("quantity", quantity).
			Msg("dispatch failed")
		return Result{State: StateFailed, Outcome: models.OutcomeFailed, Quantity: quantity, Err: err}
	}

	record.Outcome = models.OutcomeRecorded
	record.OrderID = result.OrderID
	p.limits.Record(input.SecurityID)
	p.appendRecord(ctx, &record)

	event := p.logger.Info().
		Str("order_id", result.OrderID).
		Str("symbol", input.Symbol).
		Str("action", string(rec.Action)).
		Int("quantity", quantity).
		Float64("confidence", rec.Confidence)
	if rec.HasStopLoss() {
		event = event.Float64("stop_loss", rec.StopLoss)
	}
	if rec.TakeProfit > 0 {
		event = event.Float64("take_profit", rec.TakeProfit)
	}
	event.Msg("trade recorded")

	return Result{State: StateRecorded, Outcome: models.OutcomeRecorded, Quantity: quantity, OrderID: result.OrderID}
}

func (p *Pipeline) appendRecord(ctx context.Context, record *models.TradeRecord) {
	if p.sink == nil {
		return
	}
	if err := p.sink.LogTradeRecord(ctx, record); err != nil {
		// The audit sink must never block trading; losing a row is logged
		// loudly instead.
		p.logger.Error().Err(err).Str("symbol", record.Symbol).Msg("trade record append failed")
	}
}

// fundsSnapshot serves the cached funds value within its TTL, refreshing
// otherwise. Refresh failures fall back to the last good value flagged
// stale; with no snapshot ever obtained the cycle fails safe.
func (p *Pipeline) fundsSnapshot(ctx context.Context) (models.FundsSnapshot, error) {
	p.mu.Lock()
	cached := p.funds
	p.mu.Unlock()

	now := p.now()
	if cached != nil && now.Sub(cached.FetchedAt) < p.cfg.FundsCacheTTL {
		return *cached, nil
	}

	limits, err := p.broker.FundLimits(ctx)
	if err == nil {
		if balance, ok := models.AvailableBalanceFrom(limits); ok {
			snapshot := models.FundsSnapshot{AvailableBalance: balance, FetchedAt: now}
			p.mu.Lock()
			p.funds = &snapshot
			p.mu.Unlock()
			return snapshot, nil
		}
		err = errs.ErrNoFundsData
	}

	if cached != nil {
		p.logger.Warn().Err(err).Msg("funds refresh failed, serving stale snapshot")
		stale := *cached
		stale.Stale = true
		return stale, nil
	}
	return models.FundsSnapshot{}, errs.Wrap(err, "funds snapshot")
}

func (p *Pipeline) netQuantity(input Input) float64 {
	for _, pos := range input.Positions {
		if pos.SecurityID == input.SecurityID || (pos.Symbol != "" && pos.Symbol == input.Symbol) {
			return pos.NetQuantity
		}
	}
	return 0
}
