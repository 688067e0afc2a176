// Package notify defines the event contract emitted when an approved
// batch is applied. Delivery (push, email) belongs to an external
// collaborator; the core only emits.
package notify

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/nidoapp/nido/internal/schedule"
)

// Event describes an applied batch for an external notifier.
type Event struct {
	BatchSummary  string
	AffectedDates []time.Time
	// CareDelta is the per-provider shift in care hours.
	CareDelta map[schedule.Provider]float64
}

// Notifier receives applied-batch events.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// WriterNotifier prints events to a writer. The CLI installs it on
// stdout; tests capture it with a buffer.
type WriterNotifier struct {
	Out io.Writer
}

// Notify writes a one-line summary of the event.
func (n *WriterNotifier) Notify(_ context.Context, event Event) error {
	dates := make([]string, len(event.AffectedDates))
	for i, d := range event.AffectedDates {
		dates[i] = d.Format("2006-01-02")
	}
	_, err := fmt.Fprintf(n.Out, "Schedule updated: %s (dates: %v)\n", event.BatchSummary, dates)
	return err
}

// NopNotifier discards events.
type NopNotifier struct{}

// Notify does nothing.
func (NopNotifier) Notify(context.Context, Event) error { return nil }
