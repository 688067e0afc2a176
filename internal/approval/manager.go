package approval

import (
	"context"
	"fmt"

	"github.com/nidoapp/nido/internal/change"
	"github.com/nidoapp/nido/internal/journal"
	"github.com/nidoapp/nido/internal/notify"
)

// Manager coordinates the review queue with the applier, the journal,
// and the notifier. It is the single entry point the CLI uses to move
// batches through review.
type Manager struct {
	applier  Applier
	queue    *Queue
	recorder journal.Recorder
	notifier notify.Notifier
}

// NewManager creates a Manager. recorder and notifier may be nil, in
// which case journaling and notification are skipped.
func NewManager(applier Applier, queue *Queue, recorder journal.Recorder, notifier notify.Notifier) *Manager {
	if queue == nil {
		queue = NewQueue()
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Manager{applier: applier, queue: queue, recorder: recorder, notifier: notifier}
}

// Queue exposes the underlying review queue.
func (m *Manager) Queue() *Queue {
	return m.queue
}

// Submit registers a batch for review and returns its workflow.
func (m *Manager) Submit(batch change.Batch) *Workflow {
	w := NewWorkflow(batch)
	m.queue.Add(w)
	return w
}

// Approve approves the batch with the given id.
func (m *Manager) Approve(id string) error {
	w := m.queue.Get(id)
	if w == nil {
		return fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	return w.Approve()
}

// Reject rejects the batch with the given id.
func (m *Manager) Reject(id string) error {
	w := m.queue.Get(id)
	if w == nil {
		return fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	return w.Reject()
}

// Apply applies an approved batch. On success it records a journal
// entry and emits the applied-batch event; journaling and notification
// failures are reported but do not undo the apply (the schedule change
// has already committed).
func (m *Manager) Apply(ctx context.Context, id, actor, instruction string) (*change.Result, error) {
	w := m.queue.Get(id)
	if w == nil {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}

	result, err := w.Apply(m.applier)
	if err != nil {
		return nil, err
	}

	batch := w.Batch()
	if m.recorder != nil {
		entry := &journal.Entry{
			Actor:         actor,
			Instruction:   instruction,
			AppliedCount:  result.Applied,
			AffectedDates: result.AffectedDates,
			BalanceShift:  result.Delta,
		}
		if batch.AISuggested() {
			entry.AISummary = batch.Summary
		}
		if err := m.recorder.Append(ctx, entry); err != nil {
			return result, fmt.Errorf("recording journal entry: %w", err)
		}
	}

	event := notify.Event{
		BatchSummary:  batch.Summary,
		AffectedDates: result.AffectedDates,
		CareDelta:     result.Delta,
	}
	if err := m.notifier.Notify(ctx, event); err != nil {
		return result, fmt.Errorf("emitting notification: %w", err)
	}

	return result, nil
}

// ApproveAndApply couples approval and application the way the product
// UI does, while keeping them distinct transitions underneath.
func (m *Manager) ApproveAndApply(ctx context.Context, id, actor, instruction string) (*change.Result, error) {
	if err := m.Approve(id); err != nil {
		return nil, err
	}
	return m.Apply(ctx, id, actor, instruction)
}
