// Package ui implements the cobra command-line interface.
package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nidoapp/nido/internal/approval"
	"github.com/nidoapp/nido/internal/change"
	"github.com/nidoapp/nido/internal/config"
	"github.com/nidoapp/nido/internal/db"
	"github.com/nidoapp/nido/internal/notify"
	"github.com/nidoapp/nido/internal/schedule"
	"github.com/nidoapp/nido/internal/slotclock"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// App holds the CLI application state. The database, store, and review
// manager open lazily so commands that never touch the schedule (version,
// config) work without a database.
type App struct {
	config  *config.Config
	root    *cobra.Command
	db      *db.SQLite
	store   *schedule.Store
	manager *approval.Manager
	window  slotclock.Window
	noColor bool
}

// NewApp creates a new CLI application with the given config.
func NewApp(cfg *config.Config) *App {
	a := &App{config: cfg}

	a.root = &cobra.Command{
		Use:   "nido",
		Short: "A CLI tool for shared-custody care scheduling",
		Long: `Nido manages a shared-custody care schedule on a 15-minute grid.

It tracks who covers the child and when, routes every schedule edit
through a reviewable change batch, and keeps the care hours between
both guardians in balance.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if a.noColor {
				DisableColor()
			}
		},
	}

	a.root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable color output")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.addCmd())
	a.root.AddCommand(a.removeCmd())
	a.root.AddCommand(a.dayCmd())
	a.root.AddCommand(a.weekCmd())
	a.root.AddCommand(a.recurCmd())
	a.root.AddCommand(a.proposeCmd())
	a.root.AddCommand(a.reviewCmd())
	a.root.AddCommand(a.balanceCmd())
	a.root.AddCommand(a.historyCmd())

	return a
}

// ensureStore opens the database and wires the schedule store, change
// applier, and review manager. Safe to call more than once.
func (a *App) ensureStore() error {
	if a.db != nil {
		return nil
	}

	if dir := filepath.Dir(a.config.Storage.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	database, err := db.New(a.config.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	ctx := context.Background()

	blocks, err := database.LoadBlocks(ctx)
	if err != nil {
		_ = database.Close()
		return fmt.Errorf("loading schedule: %w", err)
	}
	store := schedule.NewStore()
	if err := store.Load(blocks); err != nil {
		_ = database.Close()
		return fmt.Errorf("loading schedule: %w", err)
	}

	window, err := a.config.Window()
	if err != nil {
		_ = database.Close()
		return err
	}

	queue := approval.NewQueue()
	workflows, err := database.LoadWorkflows(ctx)
	if err != nil {
		_ = database.Close()
		return fmt.Errorf("loading pending reviews: %w", err)
	}
	for _, w := range workflows {
		queue.Add(w)
	}

	applier := change.NewApplier(store, window, a.config.WindowPolicy())
	manager := approval.NewManager(applier, queue, database, &notify.WriterNotifier{Out: os.Stdout})

	a.db = database
	a.store = store
	a.manager = manager
	a.window = window
	return nil
}

// applyDirect runs a manually-built batch through the full review
// pipeline in one step: submit, approve, apply, persist. Direct edits
// share the same journal and notification path as reviewed batches.
func (a *App) applyDirect(ctx context.Context, batch change.Batch, instruction string) (*change.Result, error) {
	w := a.manager.Submit(batch)
	result, err := a.manager.ApproveAndApply(ctx, w.ID(), actor(), instruction)
	if saveErr := a.db.SaveWorkflow(ctx, w); saveErr != nil && err == nil {
		err = saveErr
	}
	if err != nil {
		return nil, err
	}
	if err := a.saveBlocks(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

// saveBlocks persists the current schedule.
func (a *App) saveBlocks(ctx context.Context) error {
	if err := a.db.SaveBlocks(ctx, a.store.Blocks()); err != nil {
		return fmt.Errorf("saving schedule: %w", err)
	}
	return nil
}

// actor names the local user for journal entries.
func actor() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}

// findBlockByPrefix resolves a block by id prefix. Ambiguous or unknown
// prefixes are errors.
func (a *App) findBlockByPrefix(prefix string) (*schedule.TimeBlock, error) {
	var found *schedule.TimeBlock
	for _, b := range a.store.Blocks() {
		if len(prefix) > 0 && len(b.ID) >= len(prefix) && b.ID[:len(prefix)] == prefix {
			if found != nil {
				return nil, fmt.Errorf("block id %q is ambiguous", prefix)
			}
			found = b
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", schedule.ErrBlockNotFound, prefix)
	}
	return found, nil
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("nido %s (commit: %s)\n", Version, Commit)
		},
	}
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}

// Close releases the database if it was opened.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
