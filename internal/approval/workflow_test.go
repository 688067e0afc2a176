package approval

import (
	"errors"
	"testing"
	"time"

	"github.com/nidoapp/nido/internal/change"
	"github.com/nidoapp/nido/internal/schedule"
)

// fakeApplier lets tests drive apply outcomes.
type fakeApplier struct {
	err     error
	applied int
}

func (f *fakeApplier) Apply(batch change.Batch) (*change.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.applied++
	return &change.Result{Applied: batch.ChangeCount()}, nil
}

func testBatch() change.Batch {
	day := time.Date(2026, 9, 2, 0, 0, 0, 0, time.Local)
	original := &schedule.TimeBlock{
		ID: "b1", Date: day, Start: 28, End: 50, Provider: schedule.ProviderParentA,
	}
	return change.Batch{
		Changes: []change.Proposal{{Kind: change.KindRemove, Original: original}},
		Summary: "Drop the morning block",
	}
}

func TestWorkflowLifecycle(t *testing.T) {
	w := NewWorkflow(testBatch())
	if w.State() != StateProposed {
		t.Fatalf("new workflow state = %s, want proposed", w.State())
	}
	if w.ID() == "" {
		t.Fatal("expected a generated id")
	}

	if err := w.Approve(); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if w.State() != StateApproved {
		t.Errorf("state = %s, want approved", w.State())
	}

	applier := &fakeApplier{}
	result, err := w.Apply(applier)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if result.Applied != 1 {
		t.Errorf("Applied = %d, want 1", result.Applied)
	}
	if w.State() != StateApplied {
		t.Errorf("state = %s, want applied", w.State())
	}
}

func TestWorkflowIllegalTransitions(t *testing.T) {
	tests := []struct {
		name string
		run  func(w *Workflow) error
	}{
		{"apply from proposed", func(w *Workflow) error {
			_, err := w.Apply(&fakeApplier{})
			return err
		}},
		{"approve twice", func(w *Workflow) error {
			if err := w.Approve(); err != nil {
				return err
			}
			return w.Approve()
		}},
		{"reject after approve", func(w *Workflow) error {
			if err := w.Approve(); err != nil {
				return err
			}
			return w.Reject()
		}},
		{"approve after reject", func(w *Workflow) error {
			if err := w.Reject(); err != nil {
				return err
			}
			return w.Approve()
		}},
		{"apply twice", func(w *Workflow) error {
			if err := w.Approve(); err != nil {
				return err
			}
			if _, err := w.Apply(&fakeApplier{}); err != nil {
				return err
			}
			_, err := w.Apply(&fakeApplier{})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWorkflow(testBatch())
			if err := tt.run(w); !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
		})
	}
}

func TestWorkflowApplyFailure(t *testing.T) {
	w := NewWorkflow(testBatch())
	if err := w.Approve(); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	boom := errors.New("store exploded")
	if _, err := w.Apply(&fakeApplier{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("expected underlying error, got %v", err)
	}
	if w.State() != StateApplyFailed {
		t.Fatalf("state = %s, want apply_failed", w.State())
	}
	if w.Failure() == "" {
		t.Error("failure reason not recorded")
	}

	// A failed batch can be retried...
	if err := w.Approve(); err != nil {
		t.Fatalf("re-approve after failure: %v", err)
	}
	if _, err := w.Apply(&fakeApplier{}); err != nil {
		t.Fatalf("retry apply: %v", err)
	}
	if w.State() != StateApplied {
		t.Errorf("state = %s, want applied", w.State())
	}
	if w.Failure() != "" {
		t.Error("failure reason should clear on success")
	}
}

func TestWorkflowRejectAfterFailure(t *testing.T) {
	w := NewWorkflow(testBatch())
	_ = w.Approve()
	_, _ = w.Apply(&fakeApplier{err: errors.New("nope")})

	if err := w.Reject(); err != nil {
		t.Fatalf("reject after failure: %v", err)
	}
	if w.State() != StateRejected {
		t.Errorf("state = %s, want rejected", w.State())
	}
}

func TestStateTerminal(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateProposed, false},
		{StateApproved, false},
		{StateApplyFailed, false},
		{StateRejected, true},
		{StateApplied, true},
	}
	for _, tt := range tests {
		if got := tt.state.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestRestore(t *testing.T) {
	created := time.Date(2026, 9, 1, 12, 0, 0, 0, time.Local)
	w := Restore("fixed-id", StateApplyFailed, testBatch(), "window violation", created)

	if w.ID() != "fixed-id" || w.State() != StateApplyFailed {
		t.Error("restored fields lost")
	}
	if w.Failure() != "window violation" {
		t.Error("failure reason lost")
	}
	if !w.CreatedAt().Equal(created) {
		t.Error("created timestamp lost")
	}
	// Restored workflows follow the same transition rules.
	if err := w.Approve(); err != nil {
		t.Errorf("approve restored apply_failed workflow: %v", err)
	}
}
