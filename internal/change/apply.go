package change

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nidoapp/nido/internal/schedule"
	"github.com/nidoapp/nido/internal/slotclock"
)

// WindowPolicy controls what happens when a proposed block violates the
// care window.
type WindowPolicy string

const (
	// PolicyReject fails the batch on any out-of-window block.
	PolicyReject WindowPolicy = "reject"
	// PolicyClamp silently intersects out-of-window blocks with the
	// window; an empty intersection still fails.
	PolicyClamp WindowPolicy = "clamp"
)

// Valid returns true if the policy is a known value.
func (p WindowPolicy) Valid() bool {
	return p == PolicyReject || p == PolicyClamp
}

// Result reports a successful batch application.
type Result struct {
	Applied       int
	AffectedDates []time.Time
	// Delta is the per-provider shift in care hours caused by the batch.
	Delta map[schedule.Provider]float64
}

// Applier applies change batches against a Store transactionally:
// either every proposal in a batch commits, or the store is left exactly
// as it was.
type Applier struct {
	store  *schedule.Store
	window slotclock.Window
	policy WindowPolicy
}

// NewApplier creates an Applier. The policy decides out-of-window
// handling for manual batches; AI-suggested proposals are always
// hard-rejected regardless of policy.
func NewApplier(store *schedule.Store, window slotclock.Window, policy WindowPolicy) *Applier {
	if !policy.Valid() {
		policy = PolicyReject
	}
	return &Applier{store: store, window: window, policy: policy}
}

// Apply runs the batch against the store. Proposals apply in batch
// order against a working snapshot, so a later proposal can reference a
// block created by an earlier one. On any failure the snapshot is
// discarded and the store is untouched; the error names the failing
// proposal. Concurrent applies fail fast with schedule.ErrStoreBusy.
func (a *Applier) Apply(batch Batch) (*Result, error) {
	if err := a.store.BeginApply(); err != nil {
		return nil, err
	}
	defer a.store.EndApply()

	working := a.store.Blocks()
	before := hoursByProvider(working)

	for i, c := range batch.Changes {
		next, err := a.applyOne(working, c)
		if err != nil {
			return nil, fmt.Errorf("%w: change %d (%s): %w", ErrApplyFailed, i, c.Kind, err)
		}
		working = next
	}

	a.store.Replace(working)

	after := hoursByProvider(working)
	delta := make(map[schedule.Provider]float64)
	for p, h := range after {
		if d := h - before[p]; d != 0 {
			delta[p] = d
		}
	}
	for p, h := range before {
		if _, ok := after[p]; !ok && h != 0 {
			delta[p] = -h
		}
	}

	return &Result{
		Applied:       batch.ChangeCount(),
		AffectedDates: batch.AffectedDates(),
		Delta:         delta,
	}, nil
}

// applyOne applies a single proposal to the working set and returns the
// new set. The switch over Kind is exhaustive; adding a kind without a
// branch is a validation failure, not a silent no-op.
func (a *Applier) applyOne(working []*schedule.TimeBlock, c Proposal) ([]*schedule.TimeBlock, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	switch c.Kind {
	case KindAdd:
		proposed, err := a.checkWindow(c.Proposed, c.AISuggested)
		if err != nil {
			return nil, err
		}
		if proposed.ID == "" {
			proposed.ID = uuid.NewString()
		} else if findBlock(working, proposed.ID) >= 0 {
			return nil, fmt.Errorf("%w: block %s already exists", ErrInvalidProposal, proposed.ID)
		}
		return append(working, proposed), nil

	case KindRemove:
		idx, err := resolve(working, c.Original)
		if err != nil {
			return nil, err
		}
		return append(working[:idx], working[idx+1:]...), nil

	case KindRetime, KindReassign:
		idx, err := resolve(working, c.Original)
		if err != nil {
			return nil, err
		}
		proposed, err := a.checkWindow(c.Proposed, c.AISuggested)
		if err != nil {
			return nil, err
		}
		working[idx] = proposed
		return working, nil

	case KindSwap:
		first, err := resolve(working, c.Original)
		if err != nil {
			return nil, err
		}
		second, err := resolve(working, c.SwapOriginal)
		if err != nil {
			return nil, err
		}
		firstProposed, err := a.checkWindow(c.Proposed, c.AISuggested)
		if err != nil {
			return nil, err
		}
		secondProposed, err := a.checkWindow(c.SwapProposed, c.AISuggested)
		if err != nil {
			return nil, err
		}
		working[first] = firstProposed
		working[second] = secondProposed
		return working, nil

	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidProposal, c.Kind)
	}
}

// checkWindow enforces the care window on a proposed block, returning a
// clone that is safe to insert. AI-suggested proposals are always
// hard-rejected when out of window.
func (a *Applier) checkWindow(b *schedule.TimeBlock, aiSuggested bool) (*schedule.TimeBlock, error) {
	proposed := b.Clone()
	if a.window.Contains(proposed.Start, proposed.End) {
		return proposed, nil
	}

	if a.policy == PolicyClamp && !aiSuggested {
		start, end, ok := a.window.Clamp(proposed.Start, proposed.End)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no overlap with window %s",
				ErrOutOfCareWindow, slotclock.FormatRange(b.Start, b.End), a.window)
		}
		proposed.Start = start
		proposed.End = end
		return proposed, nil
	}

	return nil, fmt.Errorf("%w: %s outside window %s",
		ErrOutOfCareWindow, slotclock.FormatRange(b.Start, b.End), a.window)
}

// resolve finds the working-set block matching the proposal's original.
// A missing or drifted block is a stale reference: the schedule changed
// underneath the proposal.
func resolve(working []*schedule.TimeBlock, original *schedule.TimeBlock) (int, error) {
	idx := findBlock(working, original.ID)
	if idx < 0 {
		return -1, fmt.Errorf("%w: block %s not found", ErrStaleReference, original.ID)
	}
	if !working[idx].Matches(original) {
		return -1, fmt.Errorf("%w: block %s is now %s", ErrStaleReference, original.ID, working[idx])
	}
	return idx, nil
}

func findBlock(blocks []*schedule.TimeBlock, id string) int {
	for i, b := range blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func hoursByProvider(blocks []*schedule.TimeBlock) map[schedule.Provider]float64 {
	hours := make(map[schedule.Provider]float64)
	for _, b := range blocks {
		hours[b.Provider] += b.DurationHours()
	}
	return hours
}
