// Package journal models the append-only record of committed schedule
// changes.
package journal

import (
	"context"
	"time"

	"github.com/nidoapp/nido/internal/schedule"
)

// Entry is one immutable audit record, created at commit time and never
// mutated afterwards.
type Entry struct {
	ID            int64
	CreatedAt     time.Time
	Actor         string // who approved the change
	Instruction   string // raw narration that produced the batch
	AISummary     string // raw AI summary, empty for manual batches
	AppliedCount  int
	AffectedDates []time.Time
	// BalanceShift is the per-provider care-hours delta the batch caused.
	BalanceShift map[schedule.Provider]float64
}

// Recorder persists journal entries. Implemented by the SQLite store.
type Recorder interface {
	// Append stores a new entry and fills in its ID and CreatedAt.
	Append(ctx context.Context, entry *Entry) error

	// List returns the most recent entries, newest first.
	List(ctx context.Context, limit int) ([]*Entry, error)
}
