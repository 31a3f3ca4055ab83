package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dhan-trader/internal/models"
	"dhan-trader/internal/risk"
	"dhan-trader/internal/trading"
)

func newRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the trading loop",
		Long: `Run the automated trading loop.

Each cycle the loop polls the signal file for recommendations, checks them
against the safety rules, sizes accepted ones against the risk budget, and
dispatches orders through the active broker transport. SIGINT or SIGTERM
stops the loop after the current cycle.`,
		Example: `  dhan-trader run
  dhan-trader run --once`,
		RunE: func(cmd *cobra.Command, args []string) error {
			once, _ := cmd.Flags().GetBool("once")
			return runLoop(cmd, app, once)
		},
	}
	cmd.Flags().Bool("once", false, "run a single cycle and exit")
	return cmd
}

func runLoop(cmd *cobra.Command, app *App, once bool) error {
	output := NewOutput(cmd)
	cfg := app.Config

	location, err := time.LoadLocation(cfg.Trading.Timezone)
	if err != nil {
		return fmt.Errorf("loading timezone %s: %w", cfg.Trading.Timezone, err)
	}
	window, err := trading.NewWindowGuard(cfg.Trading.HoursStart, cfg.Trading.HoursEnd, location)
	if err != nil {
		return err
	}
	window.SetCalendar(trading.WeekdayCalendar{})
	if cfg.Trading.HoursOverride {
		// Validate already rejected this for live mode.
		window.SetOverride(true)
	}

	sizer := risk.NewSizingEngine(risk.SizingConfig{
		RiskPerTrade:       cfg.Risk.RiskPerTrade,
		DefaultStopLossPct: cfg.Risk.DefaultStopLossPct,
		MaxPositionSize:    cfg.Risk.MaxPositionSize,
	})
	limits := risk.NewDailyLimitTracker(cfg.Risk.MaxDailyTradesPerSymbol, cfg.Risk.MaxDailyTradesTotal)

	pipeline := trading.NewPipeline(trading.PipelineConfig{
		MinConfidence:     cfg.Risk.MinConfidence,
		AllowShortSelling: cfg.Trading.AllowShortSelling,
		FundsCacheTTL:     time.Duration(cfg.Trading.FundsCacheTTLSeconds) * time.Second,
		ExchangeSegment:   models.ExchangeSegment(cfg.Trading.ExchangeSegment),
		OrderTag:          cfg.Trading.OrderTag,
	}, app.Broker, sizer, limits, window, app.Store, app.Logger)

	source := trading.NewFileSignalSource(cfg.Trading.SignalFile)
	runner := trading.NewRunner(trading.RunnerConfig{
		PollInterval:     time.Duration(cfg.Trading.PollIntervalSeconds) * time.Second,
		HeartbeatEnabled: cfg.Trading.HeartbeatEnabled,
	}, pipeline, app.Broker, source, app.Logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsLiveMode() {
		output.Warning("LIVE TRADING MODE")
	} else {
		output.Info("Paper trading mode")
	}
	output.Printf("Transport: %s\n", app.Broker.TransportName())
	output.Printf("Session:   %s-%s %s\n", cfg.Trading.HoursStart, cfg.Trading.HoursEnd, cfg.Trading.Timezone)
	output.Printf("Signals:   %s\n", cfg.Trading.SignalFile)

	if err := runner.Probe(ctx); err != nil {
		output.Warning("Broker probe failed: %v", err)
		app.Logger.Warn().Err(err).Msg("startup probe failed, continuing anyway")
	}

	if once {
		return runner.RunOnce(ctx)
	}
	if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	output.Println("Stopped.")
	return nil
}
