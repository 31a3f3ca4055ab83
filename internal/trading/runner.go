package trading

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"dhan-trader/internal/broker"
	"dhan-trader/internal/models"
	"dhan-trader/pkg/utils"
)

// Signal is one recommendation-bearing observation for a symbol, produced by
// the external advisory layer.
type Signal struct {
	SecurityID      string
	Symbol          string
	ExchangeSegment models.ExchangeSegment
	LastPrice       float64
	Recommendation  map[string]interface{}
}

// SignalSource supplies the signals for one polling cycle. An empty slice
// means nothing to act on this cycle.
type SignalSource interface {
	Poll(ctx context.Context) ([]Signal, error)
}

// RunnerConfig holds the poll loop parameters.
type RunnerConfig struct {
	PollInterval     time.Duration
	HeartbeatEnabled bool
}

// Runner drives the pipeline on a fixed interval until its context is
// cancelled. Signals within a cycle are processed strictly in order; the
// pipeline's single-dispatch invariant holds because the runner is the only
// caller.
type Runner struct {
	cfg      RunnerConfig
	pipeline *Pipeline
	broker   *broker.Client
	source   SignalSource
	logger   zerolog.Logger
}

// NewRunner wires the poll loop.
func NewRunner(cfg RunnerConfig, pipeline *Pipeline, brokerClient *broker.Client, source SignalSource, logger zerolog.Logger) *Runner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 60 * time.Second
	}
	return &Runner{
		cfg:      cfg,
		pipeline: pipeline,
		broker:   brokerClient,
		source:   source,
		logger:   logger,
	}
}

// Probe verifies broker connectivity before the loop starts, retrying with
// backoff. Inside the loop nothing retries; a failed cycle is logged and the
// next tick starts fresh.
func (r *Runner) Probe(ctx context.Context) error {
	return utils.Retry(ctx, utils.RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
	}, func() error {
		hb := r.broker.Heartbeat(ctx)
		if !hb.OK {
			return hb.Err
		}
		return nil
	})
}

// Run executes the poll loop until ctx is cancelled. The first cycle runs
// immediately.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info().
		Dur("interval", r.cfg.PollInterval).
		Str("transport", r.broker.TransportName()).
		Msg("trading loop started")

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	r.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("trading loop stopped")
			return ctx.Err()
		case <-ticker.C:
			r.cycle(ctx)
		}
	}
}

// RunOnce executes a single cycle, used for manual or cron-driven runs.
func (r *Runner) RunOnce(ctx context.Context) error {
	r.cycle(ctx)
	return ctx.Err()
}

// cycle runs one tick: heartbeat, position snapshot, then every pending
// signal through the pipeline.
func (r *Runner) cycle(ctx context.Context) {
	if r.cfg.HeartbeatEnabled {
		hb := r.broker.Heartbeat(ctx)
		if !hb.OK {
			r.logger.Warn().Err(hb.Err).Msg("broker heartbeat failed")
		} else {
			r.logger.Debug().Msg("broker heartbeat ok")
		}
	}

	positions, err := r.broker.Positions(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("position snapshot failed, proceeding with empty book")
		positions = nil
	}

	signals, err := r.source.Poll(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("signal poll failed")
		return
	}

	for _, signal := range signals {
		result := r.pipeline.Process(ctx, Input{
			SecurityID:      signal.SecurityID,
			Symbol:          signal.Symbol,
			ExchangeSegment: signal.ExchangeSegment,
			CurrentPrice:    signal.LastPrice,
			Recommendation:  signal.Recommendation,
			Positions:       positions,
		})
		event := r.logger.Info().
			Str("symbol", signal.Symbol).
			Str("outcome", string(result.Outcome))
		if result.Reason != models.RejectNone {
			event = event.Str("reason", string(result.Reason))
		}
		if result.OrderID != "" {
			event = event.Str("order_id", result.OrderID).Int("quantity", result.Quantity)
		}
		if result.Err != nil {
			event = event.Err(result.Err)
		}
		event.Msg("cycle decision")
	}
}
