package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nidoapp/nido/internal/schedule"
)

func (a *App) historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show applied schedule changes",
		Long: `Show the journal of applied change batches, newest first. Each
entry records who applied it, how many changes it carried, the days it
touched, and how it shifted the care balance.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}

			entries, err := a.db.List(context.Background(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No changes recorded yet.")
				return nil
			}

			for _, e := range entries {
				fmt.Printf("%s  %s  %d changes",
					formatMuted(e.CreatedAt.Format("2006-01-02 15:04")),
					e.Actor,
					e.AppliedCount,
				)
				if len(e.AffectedDates) > 0 {
					days := make([]string, len(e.AffectedDates))
					for i, d := range e.AffectedDates {
						days[i] = d.Format("Jan 2")
					}
					fmt.Printf("  %s", formatMuted(strings.Join(days, ", ")))
				}
				fmt.Println()

				if e.AISummary != "" {
					fmt.Printf("    %s\n", formatMuted("AI: "+e.AISummary))
				}
				if e.Instruction != "" {
					fmt.Printf("    %s\n", formatMuted(e.Instruction))
				}
				if shift := formatShift(e.BalanceShift, a); shift != "" {
					fmt.Printf("    %s\n", shift)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries to show")
	return cmd
}

// formatShift renders a per-provider hours delta, skipping zero shifts.
func formatShift(shift map[schedule.Provider]float64, a *App) string {
	var parts []string
	for _, p := range []schedule.Provider{schedule.ProviderParentA, schedule.ProviderParentB, schedule.ProviderNanny} {
		d, ok := shift[p]
		if !ok || d == 0 {
			continue
		}
		sign := "+"
		if d < 0 {
			sign = ""
		}
		parts = append(parts, fmt.Sprintf("%s %s%s", a.providerName(p), sign, FormatHours(d)))
	}
	return strings.Join(parts, ", ")
}
