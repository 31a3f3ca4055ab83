package trading

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"dhan-trader/internal/broker"
	"dhan-trader/internal/models"
	"dhan-trader/internal/risk"
)

type stubTransport struct {
	funds     map[string]interface{}
	fundsErr  error
	placeErr  error
	placed    []models.OrderIntent
	fundCalls int
}

func (s *stubTransport) Name() string { return "stub" }

func (s *stubTransport) FundLimits(ctx context.Context) (map[string]interface{}, error) {
	s.fundCalls++
	if s.fundsErr != nil {
		return nil, s.fundsErr
	}
	return s.funds, nil
}

func (s *stubTransport) Positions(ctx context.Context) ([]map[string]interface{}, error) {
	return nil, nil
}

func (s *stubTransport) Order(ctx context.Context, orderID string) (map[string]interface{}, error) {
	return nil, nil
}

func (s *stubTransport) CancelOrder(ctx context.Context, orderID string) (map[string]interface{}, error) {
	return nil, nil
}

func (s *stubTransport) PlaceOrder(ctx context.Context, intent models.OrderIntent) (*broker.OrderResult, error) {
	if s.placeErr != nil {
		return nil, s.placeErr
	}
	s.placed = append(s.placed, intent)
	return &broker.OrderResult{OrderID: "112111182198", Status: "TRANSIT"}, nil
}

type captureSink struct {
	records []models.TradeRecord
}

func (c *captureSink) LogTradeRecord(ctx context.Context, record *models.TradeRecord) error {
	c.records = append(c.records, *record)
	return nil
}

type pipelineFixture struct {
	pipeline  *Pipeline
	transport *stubTransport
	sink      *captureSink
	limits    *risk.DailyLimitTracker
}

// Monday inside the session.
var testClock = time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	transport := &stubTransport{
		funds: map[string]interface{}{"availabelBalance": 100000.0},
	}
	client := broker.NewWithTransport(transport, models.ProductIntraday, zerolog.Nop())

	sizer := risk.NewSizingEngine(risk.SizingConfig{
		RiskPerTrade:       0.02,
		DefaultStopLossPct: 0.05,
		MaxPositionSize:    100,
	})
	limits := risk.NewDailyLimitTracker(3, 10)
	limits.SetClock(func() time.Time { return testClock })

	guard, err := NewWindowGuard("09:15", "15:30", time.UTC)
	if err != nil {
		t.Fatal(err)
	}

	sink := &captureSink{}
	pipeline := NewPipeline(PipelineConfig{
		MinConfidence: 0.7,
		FundsCacheTTL: time.Minute,
	}, client, sizer, limits, guard, sink, zerolog.Nop())
	pipeline.SetClock(func() time.Time { return testClock })

	return &pipelineFixture{pipeline: pipeline, transport: transport, sink: sink, limits: limits}
}

func buyInput(confidence float64) Input {
	return Input{
		SecurityID:   "11536",
		Symbol:       "TCS",
		CurrentPrice: 1600,
		Recommendation: map[string]interface{}{
			"action":     "BUY",
			"confidence": confidence,
			"stop_loss":  0.05,
		},
	}
}

func TestPipelineRecordsBuy(t *testing.T) {
	f := newFixture(t)

	result := f.pipeline.Process(context.Background(), buyInput(0.85))

	if result.Outcome != models.OutcomeRecorded {
		t.Fatalf("expected RECORDED, got %s (%s)", result.Outcome, result.Reason)
	}
	if result.Quantity != 25 {
		t.Errorf("expected quantity 25, got %d", result.Quantity)
	}
	if result.OrderID != "112111182198" {
		t.Errorf("unexpected order id %q", result.OrderID)
	}

	if len(f.transport.placed) != 1 {
		t.Fatalf("expected one placed order, got %d", len(f.transport.placed))
	}
	intent := f.transport.placed[0]
	if intent.Side != models.OrderSideBuy || intent.Quantity != 25 {
		t.Errorf("unexpected intent %+v", intent)
	}
	if intent.OrderType != models.OrderTypeMarket {
		t.Errorf("expected market order, got %s", intent.OrderType)
	}

	if len(f.sink.records) != 1 {
		t.Fatalf("expected one trade record, got %d", len(f.sink.records))
	}
	record := f.sink.records[0]
	if record.Outcome != models.OutcomeRecorded || record.Quantity != 25 || record.OrderID == "" {
		t.Errorf("unexpected record %+v", record)
	}

	perSymbol, _ := f.limits.Remaining("11536")
	if perSymbol != 2 {
		t.Errorf("expected one daily slot consumed, remaining %d", perSymbol)
	}
}

func TestPipelineRejectsInOrder(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(f *pipelineFixture)
		input  Input
		reason models.RejectReason
	}{
		{
			name: "hold action",
			input: Input{Symbol: "TCS", SecurityID: "11536", CurrentPrice: 1600,
				Recommendation: map[string]interface{}{"action": "HOLD", "confidence": 0.99}},
			reason: models.RejectHoldAction,
		},
		{
			name:   "low confidence",
			input:  buyInput(0.5),
			reason: models.RejectLowConfidence,
		},
		{
			name: "malformed action",
			input: Input{Symbol: "TCS", SecurityID: "11536", CurrentPrice: 1600,
				Recommendation: map[string]interface{}{"action": "PURCHASE", "confidence": 0.9}},
			reason: models.RejectMalformedRecommendation,
		},
		{
			name: "sell without position",
			input: Input{Symbol: "TCS", SecurityID: "11536", CurrentPrice: 1600,
				Recommendation: map[string]interface{}{"action": "SELL", "confidence": 0.9}},
			reason: models.RejectNoPositionToSell,
		},
		{
			name: "daily limit exceeded",
			setup: func(f *pipelineFixture) {
				f.limits.Record("11536")
				f.limits.Record("11536")
				f.limits.Record("11536")
			},
			input:  buyInput(0.85),
			reason: models.RejectDailyLimitExceeded,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			if tc.setup != nil {
				tc.setup(f)
			}

			result := f.pipeline.Process(context.Background(), tc.input)

			if result.Outcome != models.OutcomeRejected {
				t.Fatalf("expected REJECTED, got %s", result.Outcome)
			}
			if result.State != StateRejected {
				t.Errorf("terminal state must be %s, got %s", StateRejected, result.State)
			}
			if result.Reason != tc.reason {
				t.Errorf("expected reason %s, got %s", tc.reason, result.Reason)
			}
			if len(f.transport.placed) != 0 {
				t.Error("rejected recommendation must not reach the transport")
			}
			if len(f.sink.records) != 0 {
				t.Error("rejections are not dispatch attempts, no record expected")
			}
		})
	}
}

func TestPipelineRejectsOutsideHours(t *testing.T) {
	f := newFixture(t)
	early := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	f.pipeline.SetClock(func() time.Time { return early })

	result := f.pipeline.Process(context.Background(), buyInput(0.85))
	if result.Reason != models.RejectOutsideTradingHours {
		t.Errorf("expected OutsideTradingHours, got %s", result.Reason)
	}
}

func TestPipelineFailsSafeWithoutFunds(t *testing.T) {
	f := newFixture(t)
	f.transport.fundsErr = errors.New("fundlimit endpoint down")

	result := f.pipeline.Process(context.Background(), buyInput(0.85))

	if result.Outcome != models.OutcomeRejected || result.Reason != models.RejectNoFundsData {
		t.Errorf("expected NoFundsData rejection, got %s/%s", result.Outcome, result.Reason)
	}
	if result.State != StateRejected {
		t.Errorf("terminal state must be %s, got %s", StateRejected, result.State)
	}
	if len(f.transport.placed) != 0 {
		t.Error("no order may be placed without funds data")
	}
}

func TestPipelineServesStaleFundsAfterRefreshFailure(t *testing.T) {
	f := newFixture(t)

	// Warm the cache.
	if result := f.pipeline.Process(context.Background(), buyInput(0.85)); result.Outcome != models.OutcomeRecorded {
		t.Fatalf("warmup failed: %s/%s", result.Outcome, result.Reason)
	}

	// Expire the cache and break the refresh.
	later := testClock.Add(2 * time.Minute)
	f.pipeline.SetClock(func() time.Time { return later })
	f.transport.fundsErr = errors.New("fundlimit endpoint down")

	result := f.pipeline.Process(context.Background(), buyInput(0.85))
	if result.Outcome != models.OutcomeRecorded {
		t.Fatalf("expected dispatch on stale funds, got %s/%s", result.Outcome, result.Reason)
	}
	if !result.FundsStale {
		t.Error("result must flag the stale snapshot")
	}
}

func TestPipelineFundsCacheWithinTTL(t *testing.T) {
	f := newFixture(t)

	f.pipeline.Process(context.Background(), buyInput(0.85))
	f.pipeline.Process(context.Background(), buyInput(0.85))

	if f.transport.fundCalls != 1 {
		t.Errorf("expected one funds fetch within TTL, got %d", f.transport.fundCalls)
	}
}

func TestPipelineDispatchFailure(t *testing.T) {
	f := newFixture(t)
	f.transport.placeErr = errors.New("order rejected upstream")

	result := f.pipeline.Process(context.Background(), buyInput(0.85))

	if result.Outcome != models.OutcomeFailed {
		t.Fatalf("expected FAILED, got %s", result.Outcome)
	}
	if result.Err == nil {
		t.Error("failed dispatch must carry the error")
	}

	if len(f.sink.records) != 1 || f.sink.records[0].Outcome != models.OutcomeFailed {
		t.Error("failed dispatch attempt must still be recorded")
	}
	perSymbol, _ := f.limits.Remaining("11536")
	if perSymbol != 3 {
		t.Errorf("failed dispatch must not consume a daily slot, remaining %d", perSymbol)
	}
}

func TestPipelineExplicitQuantityCapped(t *testing.T) {
	f := newFixture(t)

	input := buyInput(0.85)
	input.Recommendation["quantity"] = 500

	result := f.pipeline.Process(context.Background(), input)
	if result.Outcome != models.OutcomeRecorded {
		t.Fatalf("expected RECORDED, got %s/%s", result.Outcome, result.Reason)
	}
	if result.Quantity != 100 {
		t.Errorf("explicit quantity must be capped to 100, got %d", result.Quantity)
	}
	if f.transport.fundCalls != 0 {
		t.Error("explicit quantity must not trigger a funds fetch")
	}
}

func TestPipelineBuyCappedByExistingPosition(t *testing.T) {
	f := newFixture(t)

	input := buyInput(0.85)
	input.Positions = []models.Position{{SecurityID: "11536", Symbol: "TCS", NetQuantity: 90}}

	result := f.pipeline.Process(context.Background(), input)
	if result.Outcome != models.OutcomeRecorded {
		t.Fatalf("expected RECORDED, got %s/%s", result.Outcome, result.Reason)
	}
	if result.Quantity != 10 {
		t.Errorf("buy must not push the position past the cap, got %d", result.Quantity)
	}
}

func TestPipelineSellCappedByHeldQuantity(t *testing.T) {
	f := newFixture(t)

	input := Input{
		SecurityID:   "11536",
		Symbol:       "TCS",
		CurrentPrice: 1600,
		Recommendation: map[string]interface{}{
			"action":     "SELL",
			"confidence": 0.9,
			"quantity":   50,
		},
		Positions: []models.Position{{SecurityID: "11536", NetQuantity: 10}},
	}

	result := f.pipeline.Process(context.Background(), input)
	if result.Outcome != models.OutcomeRecorded {
		t.Fatalf("expected RECORDED, got %s/%s", result.Outcome, result.Reason)
	}
	if result.Quantity != 10 {
		t.Errorf("sell must be capped to the held quantity, got %d", result.Quantity)
	}
	if f.transport.placed[0].Side != models.OrderSideSell {
		t.Errorf("expected SELL intent, got %s", f.transport.placed[0].Side)
	}
}

func TestPipelineBuyAtCapRejectsZeroQuantity(t *testing.T) {
	f := newFixture(t)

	input := buyInput(0.85)
	input.Positions = []models.Position{{SecurityID: "11536", NetQuantity: 100}}

	result := f.pipeline.Process(context.Background(), input)
	if result.Outcome != models.OutcomeRejected || result.Reason != models.RejectZeroQuantity {
		t.Errorf("expected ZeroQuantity rejection, got %s/%s", result.Outcome, result.Reason)
	}
	if result.State != StateRejected {
		t.Errorf("terminal state must be %s, got %s", StateRejected, result.State)
	}
}
