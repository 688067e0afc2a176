package ui

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nidoapp/nido/internal/balance"
	"github.com/nidoapp/nido/internal/dateutil"
)

func (a *App) balanceCmd() *cobra.Command {
	var (
		startDate string
		endDate   string
	)

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the care balance between guardians",
		Long: `Show how care hours split between the two guardians over a date
range. Defaults to the current ISO week. Third-party coverage is shown
but does not count toward the split.

Example:
  nido balance
  nido balance --start=2026-09-01 --end=2026-09-30`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}

			var within *dateutil.DateRange
			if startDate == "" && endDate == "" {
				monday, sunday := dateutil.WeekRange(time.Now())
				within = &dateutil.DateRange{Start: monday, End: sunday}
			} else {
				var err error
				within, err = dateutil.NewDateRange(startDate, endDate)
				if err != nil {
					return err
				}
			}

			fmt.Printf("%s %s to %s\n",
				formatHeader("Care balance"),
				within.Start.Format("2006-01-02"),
				within.End.Format("2006-01-02"),
			)
			report := balance.Compute(a.store.BlocksInRange(within), a.config.Care.BalanceThresholdHours)
			a.printBalance(report)
			return nil
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "First date of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "Last date of the range (YYYY-MM-DD)")

	return cmd
}
