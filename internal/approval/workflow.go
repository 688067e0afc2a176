// Package approval gates change batches through a review state machine
// before they can touch the schedule.
package approval

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nidoapp/nido/internal/change"
)

// ErrInvalidTransition is returned when a workflow action is not legal
// from the current state.
var ErrInvalidTransition = errors.New("invalid workflow transition")

// ErrBatchNotFound is returned when a workflow id is unknown.
var ErrBatchNotFound = errors.New("pending batch not found")

// State is the review state of a batch.
type State string

const (
	StateProposed    State = "proposed"
	StateApproved    State = "approved"
	StateRejected    State = "rejected"
	StateApplied     State = "applied"
	StateApplyFailed State = "apply_failed"
)

// Terminal returns true for states that admit no further transitions.
func (s State) Terminal() bool {
	return s == StateRejected || s == StateApplied
}

// Applier applies an approved batch against the schedule.
type Applier interface {
	Apply(batch change.Batch) (*change.Result, error)
}

// Workflow tracks one batch through review. Legal transitions:
//
//	proposed     -> approved | rejected
//	approved     -> applied | apply_failed
//	apply_failed -> approved | rejected
//
// Approval and application are distinct transitions even though the
// product applies immediately after approval, so "approved but not yet
// applied" is representable and testable.
type Workflow struct {
	id        string
	state     State
	batch     change.Batch
	failure   string
	createdAt time.Time
}

// NewWorkflow creates a workflow in the proposed state.
func NewWorkflow(batch change.Batch) *Workflow {
	return &Workflow{
		id:        uuid.NewString(),
		state:     StateProposed,
		batch:     batch,
		createdAt: time.Now(),
	}
}

// Restore rebuilds a workflow from persisted state. Used by the SQLite
// store to rehydrate pending batches across process restarts.
func Restore(id string, state State, batch change.Batch, failure string, createdAt time.Time) *Workflow {
	return &Workflow{id: id, state: state, batch: batch, failure: failure, createdAt: createdAt}
}

// ID returns the workflow identifier.
func (w *Workflow) ID() string { return w.id }

// State returns the current review state.
func (w *Workflow) State() State { return w.state }

// Batch returns the batch under review.
func (w *Workflow) Batch() change.Batch { return w.batch }

// Failure returns the reason the last apply failed, if any.
func (w *Workflow) Failure() string { return w.failure }

// CreatedAt returns when the batch entered review.
func (w *Workflow) CreatedAt() time.Time { return w.createdAt }

// Approve moves the workflow to approved. Legal from proposed, and from
// apply_failed to allow a retry after a failed apply.
func (w *Workflow) Approve() error {
	if w.state != StateProposed && w.state != StateApplyFailed {
		return fmt.Errorf("%w: approve from %s", ErrInvalidTransition, w.state)
	}
	w.state = StateApproved
	return nil
}

// Reject moves the workflow to the terminal rejected state. Legal from
// proposed, and from apply_failed to discard a failed batch.
func (w *Workflow) Reject() error {
	if w.state != StateProposed && w.state != StateApplyFailed {
		return fmt.Errorf("%w: reject from %s", ErrInvalidTransition, w.state)
	}
	w.state = StateRejected
	return nil
}

// Apply runs the batch through the applier. Legal only from approved.
// On failure the workflow lands in apply_failed with the reason recorded
// rather than silently reverting to proposed; the schedule is untouched.
func (w *Workflow) Apply(applier Applier) (*change.Result, error) {
	if w.state != StateApproved {
		return nil, fmt.Errorf("%w: apply from %s", ErrInvalidTransition, w.state)
	}

	result, err := applier.Apply(w.batch)
	if err != nil {
		w.state = StateApplyFailed
		w.failure = err.Error()
		return nil, err
	}

	w.state = StateApplied
	w.failure = ""
	return result, nil
}
