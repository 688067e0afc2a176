package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nidoapp/nido/internal/change"
	"github.com/nidoapp/nido/internal/dateutil"
	"github.com/nidoapp/nido/internal/recurrence"
	"github.com/nidoapp/nido/internal/schedule"
	"github.com/nidoapp/nido/internal/slotclock"
)

func (a *App) recurCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recur",
		Short: "Manage recurring coverage patterns",
	}
	cmd.AddCommand(a.recurAddCmd())
	cmd.AddCommand(a.recurListCmd())
	cmd.AddCommand(a.recurRemoveCmd())
	cmd.AddCommand(a.recurApplyCmd())
	return cmd
}

func (a *App) recurAddCmd() *cobra.Command {
	var (
		days     string
		start    string
		end      string
		provider string
		from     string
		until    string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a recurring coverage pattern",
		Long: `Add a recurring coverage pattern. The pattern is stored but does
not touch the schedule until "recur apply" expands it.

Example:
  nido recur add --days=monday,wednesday,friday --start=07:00 --end=12:30 --provider=parent_a`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}

			weekdays, err := dateutil.ParseWeekdays(days)
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
			fromDate, err := dateutil.ParseDate(from)
			if err != nil {
				return err
			}
			var untilDate *time.Time
			if until != "" {
				u, err := dateutil.ParseDate(until)
				if err != nil {
					return err
				}
				untilDate = &u
			}

			pattern, err := recurrence.New(weekdays, startSlot, endSlot, p, fromDate, untilDate)
			if err != nil {
				return err
			}

			if err := a.db.SavePattern(context.Background(), pattern); err != nil {
				return err
			}

			fmt.Printf("Created pattern %s: %s\n", formatMuted(shortID(pattern.ID)), pattern)
			return nil
		},
	}

	cmd.Flags().StringVar(&days, "days", "", "Comma-separated weekday names (required)")
	cmd.Flags().StringVar(&start, "start", "", "Start time (HH:MM, required)")
	cmd.Flags().StringVar(&end, "end", "", "End time (HH:MM, required)")
	cmd.Flags().StringVar(&provider, "provider", "", "Provider: parent_a, parent_b, or nanny (required)")
	cmd.Flags().StringVar(&from, "from", "", "First effective date (YYYY-MM-DD, default: today)")
	cmd.Flags().StringVar(&until, "until", "", "Last effective date (YYYY-MM-DD, default: open-ended)")

	_ = cmd.MarkFlagRequired("days")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	_ = cmd.MarkFlagRequired("provider")

	return cmd
}

func (a *App) recurListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recurring coverage patterns",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}

			patterns, err := a.db.ListPatterns(context.Background())
			if err != nil {
				return err
			}
			if len(patterns) == 0 {
				fmt.Println("No patterns.")
				return nil
			}
			for _, p := range patterns {
				fmt.Printf("%s  %s\n",
					formatMuted(shortID(p.ID)),
					formatProvider(p.Provider, p.String()),
				)
			}
			return nil
		},
	}
}

func (a *App) recurRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [pattern-id]",
		Short: "Remove a recurring coverage pattern",
		Long: `Remove a pattern. Blocks already expanded from it stay on the
schedule; use the change commands to remove them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}

			ctx := context.Background()
			pattern, err := a.findPatternByPrefix(ctx, args[0])
			if err != nil {
				return err
			}
			if err := a.db.DeletePattern(ctx, pattern.ID); err != nil {
				return err
			}
			fmt.Printf("Removed pattern %s\n", shortID(pattern.ID))
			return nil
		},
	}
}

func (a *App) recurApplyCmd() *cobra.Command {
	var (
		id        string
		startDate string
		endDate   string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Expand patterns into schedule blocks",
		Long: `Expand recurring patterns over a date range and merge the result
into the schedule. Expansion is idempotent: a block generated for a
given pattern and date always gets the same id, so re-applying replaces
the series instead of duplicating it.

Example:
  nido recur apply --start=2026-09-01 --end=2026-09-30`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}

			within, err := dateutil.NewDateRange(startDate, endDate)
			if err != nil {
				return err
			}

			ctx := context.Background()
			patterns, err := a.db.ListPatterns(ctx)
			if err != nil {
				return err
			}
			if id != "" {
				pattern, err := a.findPatternByPrefix(ctx, id)
				if err != nil {
					return err
				}
				patterns = []*recurrence.Pattern{pattern}
			}
			if len(patterns) == 0 {
				fmt.Println("No patterns to apply.")
				return nil
			}

			batch, err := a.expansionBatch(patterns, within)
			if err != nil {
				return err
			}
			if batch.ChangeCount() == 0 {
				fmt.Println("Schedule already up to date.")
				return nil
			}

			result, err := a.applyDirect(ctx, batch, "recur apply")
			if err != nil {
				return err
			}

			fmt.Printf("Applied %d changes across %d days\n",
				result.Applied, len(result.AffectedDates))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "pattern", "", "Apply a single pattern (id prefix)")
	cmd.Flags().StringVar(&startDate, "start", "", "First date of the range (YYYY-MM-DD, default: today)")
	cmd.Flags().StringVar(&endDate, "end", "", "Last date of the range (YYYY-MM-DD, default: start)")

	return cmd
}

// expansionBatch diffs expanded pattern blocks against the store and
// emits the proposals needed to bring the schedule in line. Blocks that
// already match are skipped, which keeps re-expansion idempotent.
func (a *App) expansionBatch(patterns []*recurrence.Pattern, within *dateutil.DateRange) (change.Batch, error) {
	batch := change.Batch{
		Summary: fmt.Sprintf("Expand %d patterns %s to %s",
			len(patterns),
			within.Start.Format("2006-01-02"),
			within.End.Format("2006-01-02")),
	}

	for _, p := range patterns {
		expanded, err := recurrence.Expand(p, within)
		if err != nil {
			return change.Batch{}, err
		}
		for _, e := range expanded {
			current := a.store.Get(e.ID)
			switch {
			case current == nil:
				batch.Changes = append(batch.Changes, change.Proposal{
					Kind:     change.KindAdd,
					Proposed: e,
				})
			case current.Matches(e):
				// already in place
			default:
				batch.Changes = append(batch.Changes, change.Proposal{
					Kind:     change.KindRetime,
					Original: current,
					Proposed: e,
				})
			}
		}
	}
	return batch, nil
}

// findPatternByPrefix resolves a pattern by id prefix.
func (a *App) findPatternByPrefix(ctx context.Context, prefix string) (*recurrence.Pattern, error) {
	patterns, err := a.db.ListPatterns(ctx)
	if err != nil {
		return nil, err
	}
	var found *recurrence.Pattern
	for _, p := range patterns {
		if len(p.ID) >= len(prefix) && p.ID[:len(prefix)] == prefix {
			if found != nil {
				return nil, fmt.Errorf("pattern id %q is ambiguous", prefix)
			}
			found = p
		}
	}
	if found == nil {
		return nil, fmt.Errorf("pattern %s not found", prefix)
	}
	return found, nil
}
