package ui

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nidoapp/nido/internal/dateutil"
	"github.com/nidoapp/nido/internal/schedule"
)

func (a *App) dayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "day [date]",
		Short: "Show coverage for a day",
		Long: `Show the coverage blocks for a single day.

The date accepts natural forms like "today", "tomorrow", "next-monday",
or an explicit YYYY-MM-DD. Defaults to today.

Example:
  nido day tomorrow`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}

			input := ""
			if len(args) > 0 {
				input = args[0]
			}
			date, err := dateutil.ParseRelativeDate(input, time.Now())
			if err != nil {
				return err
			}

			blocks := a.store.BlocksForDate(date)
			a.printDay(date, blocks)

			if len(blocks) > 0 {
				fmt.Println()
				for _, p := range []schedule.Provider{schedule.ProviderParentA, schedule.ProviderParentB, schedule.ProviderNanny} {
					var hours float64
					for _, b := range blocks {
						if b.Provider == p {
							hours += b.DurationHours()
						}
					}
					if hours > 0 {
						fmt.Printf("%s: %s\n", formatProvider(p, a.providerName(p)), FormatHours(hours))
					}
				}
			}
			return nil
		},
	}
}
