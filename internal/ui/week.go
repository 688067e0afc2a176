package ui

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nidoapp/nido/internal/balance"
	"github.com/nidoapp/nido/internal/dateutil"
)

func (a *App) weekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week [date]",
		Short: "Show coverage for a week",
		Long: `Show the coverage blocks for the ISO week (Monday-Sunday)
containing the given date, plus the care balance for that week.

Example:
  nido week
  nido week 2026-09-07`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}

			input := ""
			if len(args) > 0 {
				input = args[0]
			}
			anchor, err := dateutil.ParseRelativeDate(input, time.Now())
			if err != nil {
				return err
			}

			monday, sunday := dateutil.WeekRange(anchor)
			week := &dateutil.DateRange{Start: monday, End: sunday}

			week.Days(func(date time.Time) {
				a.printDay(date, a.store.BlocksForDate(date))
				fmt.Println()
			})

			report := balance.Compute(a.store.BlocksInRange(week), a.config.Care.BalanceThresholdHours)
			fmt.Println(formatHeader("Care balance"))
			a.printBalance(report)
			return nil
		},
	}
}
