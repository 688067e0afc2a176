package ui

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nidoapp/nido/internal/change"
)

func (a *App) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [block-id]",
		Short: "Remove a coverage block",
		Long: `Remove a coverage block from the schedule.

The id may be abbreviated to any unique prefix (the day view shows the
first 8 characters).

Example:
  nido remove 3f2a91c4`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}

			block, err := a.findBlockByPrefix(args[0])
			if err != nil {
				return err
			}

			batch := change.Batch{
				Changes: []change.Proposal{{Kind: change.KindRemove, Original: block}},
				Summary: "Remove " + block.String(),
			}

			if _, err := a.applyDirect(context.Background(), batch, "remove"); err != nil {
				return err
			}

			fmt.Printf("Removed %s\n", block)
			return nil
		},
	}
}
