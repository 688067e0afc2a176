package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nidoapp/nido/internal/change"
	"github.com/nidoapp/nido/internal/dateutil"
	"github.com/nidoapp/nido/internal/schedule"
	"github.com/nidoapp/nido/internal/slotclock"
)

func (a *App) addCmd() *cobra.Command {
	var (
		date     string
		start    string
		end      string
		provider string
		note     string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a coverage block",
		Long: `Add a coverage block to the schedule.

The date accepts natural forms like "today", "tomorrow", "next-monday",
or an explicit YYYY-MM-DD.

Example:
  nido add --date=tomorrow --start=07:00 --end=12:30 --provider=parent_a`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}

			day, err := dateutil.ParseRelativeDate(date, time.Now())
			if err != nil {
				return err
			}
			startSlot, err := slotclock.ParseSlot(start)
			if err != nil {
				return fmt.Errorf("start: %w", err)
			}
			endSlot, err := slotclock.ParseSlot(end)
			if err != nil {
				return fmt.Errorf("end: %w", err)
			}
			p, err := schedule.ParseProvider(provider)
			if err != nil {
				return err
			}

			block, err := schedule.NewTimeBlock(day, startSlot, endSlot, p, note)
			if err != nil {
				return err
			}

			batch := change.Batch{
				Changes: []change.Proposal{{Kind: change.KindAdd, Proposed: block}},
				Summary: "Add " + block.String(),
			}

			if _, err := a.applyDirect(context.Background(), batch, "add"); err != nil {
				return err
			}

			fmt.Printf("Added %s %s %s\n",
				formatMuted(shortID(block.ID)),
				block.Date.Format("2006-01-02"),
				slotclock.FormatRange(block.Start, block.End),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD or relative, default: today)")
	cmd.Flags().StringVar(&start, "start", "", "Start time (HH:MM, required)")
	cmd.Flags().StringVar(&end, "end", "", "End time (HH:MM, required)")
	cmd.Flags().StringVar(&provider, "provider", "", "Provider: parent_a, parent_b, or nanny (required)")
	cmd.Flags().StringVar(&note, "note", "", "Optional note")

	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	_ = cmd.MarkFlagRequired("provider")

	return cmd
}
