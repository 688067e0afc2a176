package ui

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nidoapp/nido/internal/approval"
)

func (a *App) reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review queued change batches",
	}
	cmd.AddCommand(a.reviewListCmd())
	cmd.AddCommand(a.reviewShowCmd())
	cmd.AddCommand(a.reviewApproveCmd())
	cmd.AddCommand(a.reviewRejectCmd())
	cmd.AddCommand(a.reviewApproveAllCmd())
	cmd.AddCommand(a.reviewRejectAllCmd())
	return cmd
}

func (a *App) reviewListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List batches awaiting review",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}

			workflows := a.manager.Queue().Pending()
			if all {
				workflows = a.manager.Queue().All()
			}
			if len(workflows) == 0 {
				fmt.Println("Review queue is empty.")
				return nil
			}

			for _, w := range workflows {
				batch := w.Batch()
				fmt.Printf("%s  %-12s  %d changes  %s\n",
					formatMuted(shortID(w.ID())),
					stateLabel(w.State()),
					batch.ChangeCount(),
					batch.Summary,
				)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include applied and rejected batches")
	return cmd
}

func (a *App) reviewShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [batch-id]",
		Short: "Show a queued batch in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}

			w, err := a.findWorkflowByPrefix(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Batch %s  %s  queued %s\n",
				shortID(w.ID()),
				stateLabel(w.State()),
				formatMuted(w.CreatedAt().Format("2006-01-02 15:04")),
			)
			a.printBatch(w.Batch())
			if w.Failure() != "" {
				fmt.Println(colorFail.Sprint("Last apply failed: " + w.Failure()))
			}
			return nil
		},
	}
}

func (a *App) reviewApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve [batch-id]",
		Short: "Approve and apply a queued batch",
		Long: `Approve a queued batch and apply it to the schedule. If the apply
fails the batch stays in the queue marked apply_failed and can be
approved again or rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}

			w, err := a.findWorkflowByPrefix(args[0])
			if err != nil {
				return err
			}

			ctx := context.Background()
			result, applyErr := a.manager.ApproveAndApply(ctx, w.ID(), actor(), "")
			if err := a.db.SaveWorkflow(ctx, w); err != nil {
				return err
			}
			if applyErr != nil {
				return applyErr
			}
			if err := a.saveBlocks(ctx); err != nil {
				return err
			}

			fmt.Printf("Applied %d changes across %d days\n",
				result.Applied, len(result.AffectedDates))
			return nil
		},
	}
}

func (a *App) reviewRejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject [batch-id]",
		Short: "Reject a queued batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}

			w, err := a.findWorkflowByPrefix(args[0])
			if err != nil {
				return err
			}

			ctx := context.Background()
			if err := a.manager.Reject(w.ID()); err != nil {
				return err
			}
			if err := a.db.SaveWorkflow(ctx, w); err != nil {
				return err
			}

			fmt.Printf("Rejected batch %s\n", shortID(w.ID()))
			return nil
		},
	}
}

func (a *App) reviewApproveAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve-all",
		Short: "Approve and apply every proposed batch",
		Long: `Approve every proposed batch and apply each in turn. Batches are
independent: one failing apply does not stop the others, and the
outcome is reported per batch.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}

			ctx := context.Background()
			results := a.manager.Queue().ApproveAll()
			if len(results) == 0 {
				fmt.Println("No proposed batches.")
				return nil
			}

			for _, r := range results {
				if r.Err != nil {
					fmt.Printf("%s  %s\n", shortID(r.ID), colorFail.Sprint(r.Err))
					continue
				}
				if _, err := a.manager.Apply(ctx, r.ID, actor(), ""); err != nil {
					fmt.Printf("%s  %s\n", shortID(r.ID), colorFail.Sprint(err))
				} else {
					fmt.Printf("%s  %s  %s\n", shortID(r.ID), formatStats("applied"), r.Summary)
				}
				if w := a.manager.Queue().Get(r.ID); w != nil {
					if err := a.db.SaveWorkflow(ctx, w); err != nil {
						return err
					}
				}
			}
			return a.saveBlocks(ctx)
		},
	}
}

func (a *App) reviewRejectAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject-all",
		Short: "Reject every proposed batch",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}

			ctx := context.Background()
			results := a.manager.Queue().RejectAll()
			if len(results) == 0 {
				fmt.Println("No proposed batches.")
				return nil
			}

			for _, r := range results {
				if r.Err != nil {
					fmt.Printf("%s  %s\n", shortID(r.ID), colorFail.Sprint(r.Err))
					continue
				}
				fmt.Printf("%s  %s  %s\n", shortID(r.ID), formatMuted("rejected"), r.Summary)
				if w := a.manager.Queue().Get(r.ID); w != nil {
					if err := a.db.SaveWorkflow(ctx, w); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
}

// findWorkflowByPrefix resolves a queued workflow by id prefix.
func (a *App) findWorkflowByPrefix(prefix string) (*approval.Workflow, error) {
	var found *approval.Workflow
	for _, w := range a.manager.Queue().All() {
		id := w.ID()
		if len(id) >= len(prefix) && id[:len(prefix)] == prefix {
			if found != nil {
				return nil, fmt.Errorf("batch id %q is ambiguous", prefix)
			}
			found = w
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", approval.ErrBatchNotFound, prefix)
	}
	return found, nil
}
