package cli

import (
	"time"

	"github.com/spf13/cobra"

	"dhan-trader/internal/models"
	"dhan-trader/internal/trading"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show broker connectivity and today's dispatch counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()
			cfg := app.Config

			hb := app.Broker.Heartbeat(ctx)

			location, err := time.LoadLocation(cfg.Trading.Timezone)
			if err != nil {
				location = time.UTC
			}
			window, err := trading.NewWindowGuard(cfg.Trading.HoursStart, cfg.Trading.HoursEnd, location)
			if err != nil {
				return err
			}
			window.SetCalendar(trading.WeekdayCalendar{})
			marketOpen := window.IsOpen(time.Now())

			counts := map[models.DispatchOutcome]int{}
			if app.Store != nil {
				if c, err := app.Store.CountByOutcome(ctx, time.Now()); err == nil {
					counts = c
				} else {
					app.Logger.Warn().Err(err).Msg("failed to read today's dispatch counts")
				}
			}

			if output.IsJSON() {
				payload := map[string]interface{}{
					"transport":   app.Broker.TransportName(),
					"broker_ok":   hb.OK,
					"market_open": marketOpen,
					"mode":        cfg.Trading.Mode,
					"recorded":    counts[models.OutcomeRecorded],
					"rejected":    counts[models.OutcomeRejected],
					"failed":      counts[models.OutcomeFailed],
				}
				if hb.Err != nil {
					payload["broker_error"] = hb.Err.Error()
				}
				return output.JSON(payload)
			}

			output.Bold("Dhan Trader Status")
			output.Printf("  Mode:      %s\n", cfg.Trading.Mode)
			output.Printf("  Transport: %s\n", app.Broker.TransportName())
			if hb.OK {
				output.Printf("  Broker:    %s\n", output.Green("CONNECTED"))
			} else {
				output.Printf("  Broker:    %s (%v)\n", output.Red("UNREACHABLE"), hb.Err)
			}
			output.Printf("  Market:    %s\n", output.MarketStatus(marketOpen))
			output.Printf("  Breaker:   %s\n", app.Broker.BreakerState())
			output.Println()

			output.Bold("Today")
			output.Printf("  Recorded:  %d\n", counts[models.OutcomeRecorded])
			output.Printf("  Rejected:  %d\n", counts[models.OutcomeRejected])
			output.Printf("  Failed:    %d\n", counts[models.OutcomeFailed])
			return nil
		},
	}
}
