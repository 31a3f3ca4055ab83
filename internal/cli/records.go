package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dhan-trader/internal/models"
	"dhan-trader/internal/store"
	"dhan-trader/pkg/utils"
)

func newRecordsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List trade records from the audit trail",
		Example: `  dhan-trader records
  dhan-trader records --symbol RELIANCE --limit 10
  dhan-trader records --outcome REJECTED`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("audit store unavailable")
			}

			symbol, _ := cmd.Flags().GetString("symbol")
			outcome, _ := cmd.Flags().GetString("outcome")
			limit, _ := cmd.Flags().GetInt("limit")

			records, err := app.Store.GetTradeRecords(cmd.Context(), store.RecordFilter{
				Symbol:  symbol,
				Outcome: models.DispatchOutcome(outcome),
				Limit:   limit,
			})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(records)
			}
			if len(records) == 0 {
				output.Dim("No trade records found.")
				return nil
			}

			table := NewTable(output, "TIME", "SYMBOL", "SIDE", "QTY", "PRICE", "OUTCOME", "ORDER ID")
			for _, r := range records {
				outcomeCell := string(r.Outcome)
				switch r.Outcome {
				case models.OutcomeRecorded:
					outcomeCell = output.Green(outcomeCell)
				case models.OutcomeFailed:
					outcomeCell = output.Red(outcomeCell)
				case models.OutcomeRejected:
					outcomeCell = output.Yellow(outcomeCell)
				}
				table.AddRow(
					r.Timestamp.Format("02-Jan 15:04:05"),
					r.Symbol,
					string(r.Side),
					strconv.Itoa(r.Quantity),
					utils.FormatIndianCurrency(r.Price),
					outcomeCell,
					r.OrderID,
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().String("symbol", "", "filter by symbol")
	cmd.Flags().String("outcome", "", "filter by outcome (RECORDED, REJECTED, FAILED)")
	cmd.Flags().Int("limit", 20, "maximum records to show")
	return cmd
}
