package ui

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nidoapp/nido/internal/llm"
)

const maxRetries = 3

func (a *App) proposeCmd() *cobra.Command {
	var (
		modelFlag string
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "propose [instruction]",
		Short: "Propose schedule changes from natural language",
		Long: `Use AI to turn a natural-language instruction into a batch of
schedule changes. The batch goes to the review queue; nothing touches
the schedule until it is approved.

Examples:
  nido propose "swap Tuesday morning between the parents"
  nido propose "give parent_b the Friday afternoons this month" --dry-run

Interactive mode:
  After the AI proposes a batch, you can:
  - [s]ubmit: Queue the batch for review
  - [m]odify: Provide feedback to adjust the proposal
  - [c]ancel: Exit without queueing`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}

			instruction := strings.Join(args, " ")

			model := modelFlag
			if model == "" {
				model = a.config.LLM.Model
			}
			client, err := llm.NewClient(a.config.LLM.Provider, model, a.config.LLM.BaseURL)
			if err != nil {
				return fmt.Errorf("creating LLM client: %w", err)
			}
			proposer := llm.NewProposer(client)

			ctx := context.Background()
			fmt.Println("Proposing changes...")
			proposal, err := proposer.ProposeWithRetry(ctx, llm.ProposeRequest{
				Instruction: instruction,
				Today:       time.Now(),
				Window:      a.window,
				Blocks:      a.store.Blocks(),
			}, maxRetries)
			if err != nil {
				return fmt.Errorf("proposing: %w", err)
			}

			reader := bufio.NewReader(os.Stdin)
			for {
				fmt.Println()
				a.printBatch(proposal.Batch)
				for _, w := range proposal.Warnings {
					fmt.Println(formatWarn("  ! " + w))
				}

				if proposal.Batch.ChangeCount() == 0 {
					fmt.Println("\nNo changes proposed.")
					return nil
				}

				if dryRun {
					fmt.Println("\n(Dry run - batch not queued)")
					return nil
				}

				fmt.Print("\n[s]ubmit for review / [m]odify / [c]ancel: ")
				choice, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("reading input: %w", err)
				}
				choice = strings.TrimSpace(strings.ToLower(choice))

				switch choice {
				case "s", "submit":
					w := a.manager.Submit(proposal.Batch)
					if err := a.db.SaveWorkflow(ctx, w); err != nil {
						return fmt.Errorf("saving review: %w", err)
					}
					fmt.Printf("\nQueued batch %s for review (nido review approve %s)\n",
						shortID(w.ID()), shortID(w.ID()))
					return nil

				case "m", "modify":
					fmt.Print("What would you like to change? ")
					feedback, err := reader.ReadString('\n')
					if err != nil {
						return fmt.Errorf("reading input: %w", err)
					}
					feedback = strings.TrimSpace(feedback)
					if feedback == "" {
						fmt.Println("No feedback provided, showing current proposal...")
						continue
					}

					fmt.Println("\nReproposing...")
					proposal, err = proposer.ProposeWithRetry(ctx, llm.ProposeRequest{
						Instruction: instruction + "\nAdjustment: " + feedback,
						Today:       time.Now(),
						Window:      a.window,
						Blocks:      a.store.Blocks(),
					}, maxRetries)
					if err != nil {
						return fmt.Errorf("reproposing: %w", err)
					}

				case "c", "cancel":
					fmt.Println("Proposal cancelled.")
					return nil

				default:
					fmt.Println("Invalid choice. Please enter 's', 'm', or 'c'.")
				}
			}
		},
	}

	cmd.Flags().StringVar(&modelFlag, "model", "", "LLM model to use (from config if not set)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the proposed batch without queueing it")

	return cmd
}
