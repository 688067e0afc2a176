// Package change models discrete schedule mutations and applies batches
// of them transactionally against the block store.
package change

import (
	"errors"
	"fmt"

	"github.com/nidoapp/nido/internal/schedule"
	"github.com/nidoapp/nido/internal/slotclock"
)

// Validation and apply errors.
var (
	ErrInvalidProposal = errors.New("invalid change proposal")
	ErrStaleReference  = errors.New("referenced block no longer matches the schedule")
	ErrOutOfCareWindow = errors.New("proposed block falls outside the care window")
	ErrApplyFailed     = errors.New("batch apply failed")
)

// Kind tags the mutation a proposal carries.
type Kind string

const (
	KindRetime   Kind = "retime"
	KindSwap     Kind = "swap"
	KindAdd      Kind = "add"
	KindRemove   Kind = "remove"
	KindReassign Kind = "reassign"
)

// Valid returns true if the kind is a known value.
func (k Kind) Valid() bool {
	switch k {
	case KindRetime, KindSwap, KindAdd, KindRemove, KindReassign:
		return true
	default:
		return false
	}
}

// Proposal is a single proposed schedule mutation. It is immutable once
// created; approval state lives in the workflow, not here.
//
// Payload per kind:
//   - retime:   Original + Proposed (same id, different slots/date)
//   - reassign: Original + Proposed (same slots/date, different provider)
//   - add:      Proposed only
//   - remove:   Original only
//   - swap:     Original/Proposed plus SwapOriginal/SwapProposed,
//     two distinct blocks exchanging assignment or time
type Proposal struct {
	Kind         Kind                `json:"kind"`
	Original     *schedule.TimeBlock `json:"original,omitempty"`
	Proposed     *schedule.TimeBlock `json:"proposed,omitempty"`
	SwapOriginal *schedule.TimeBlock `json:"swap_original,omitempty"`
	SwapProposed *schedule.TimeBlock `json:"swap_proposed,omitempty"`
	Description  string              `json:"description"`
	Rationale    string              `json:"rationale,omitempty"`
	AISuggested  bool                `json:"ai_suggested"`
}

// Validate checks the proposal's shape: required payloads present, every
// referenced block carries a valid slot range, and swap pairs reference
// distinct originals. It never touches the store.
func (p Proposal) Validate() error {
	switch p.Kind {
	case KindRetime:
		if p.Original == nil || p.Proposed == nil {
			return fmt.Errorf("%w: retime requires original and proposed blocks", ErrInvalidProposal)
		}
		if p.Original.ID != p.Proposed.ID {
			return fmt.Errorf("%w: retime must keep the block id", ErrInvalidProposal)
		}
	case KindReassign:
		if p.Original == nil || p.Proposed == nil {
			return fmt.Errorf("%w: reassign requires original and proposed blocks", ErrInvalidProposal)
		}
		if p.Original.ID != p.Proposed.ID {
			return fmt.Errorf("%w: reassign must keep the block id", ErrInvalidProposal)
		}
		if p.Original.Provider == p.Proposed.Provider {
			return fmt.Errorf("%w: reassign must change the provider", ErrInvalidProposal)
		}
	case KindAdd:
		if p.Proposed == nil {
			return fmt.Errorf("%w: add requires a proposed block", ErrInvalidProposal)
		}
		if p.Original != nil {
			return fmt.Errorf("%w: add must not carry an original block", ErrInvalidProposal)
		}
	case KindRemove:
		if p.Original == nil {
			return fmt.Errorf("%w: remove requires an original block", ErrInvalidProposal)
		}
		if p.Proposed != nil {
			return fmt.Errorf("%w: remove must not carry a proposed block", ErrInvalidProposal)
		}
	case KindSwap:
		if p.Original == nil || p.Proposed == nil || p.SwapOriginal == nil || p.SwapProposed == nil {
			return fmt.Errorf("%w: swap requires two original/proposed pairs", ErrInvalidProposal)
		}
		if p.Original.ID == p.SwapOriginal.ID {
			return fmt.Errorf("%w: swap pairs must reference distinct blocks", ErrInvalidProposal)
		}
		if p.Original.ID != p.Proposed.ID || p.SwapOriginal.ID != p.SwapProposed.ID {
			return fmt.Errorf("%w: swap must keep both block ids", ErrInvalidProposal)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidProposal, p.Kind)
	}

	for _, b := range []*schedule.TimeBlock{p.Original, p.Proposed, p.SwapOriginal, p.SwapProposed} {
		if b == nil {
			continue
		}
		if !slotclock.IsValidRange(b.Start, b.End) {
			return fmt.Errorf("%w: %w: %d-%d", ErrInvalidProposal, schedule.ErrInvalidRange, b.Start, b.End)
		}
		if !b.Provider.Valid() {
			return fmt.Errorf("%w: %w: %q", ErrInvalidProposal, schedule.ErrInvalidProvider, b.Provider)
		}
	}
	return nil
}

// Summary returns the human-readable description, falling back to a
// generated one-liner.
func (p Proposal) Summary() string {
	if p.Description != "" {
		return p.Description
	}
	switch p.Kind {
	case KindAdd:
		return "Add " + p.Proposed.String()
	case KindRemove:
		return "Remove " + p.Original.String()
	case KindSwap:
		return fmt.Sprintf("Swap %s with %s", p.Original.String(), p.SwapOriginal.String())
	case KindRetime, KindReassign:
		return fmt.Sprintf("Change %s to %s", p.Original.String(), p.Proposed.String())
	default:
		return string(p.Kind)
	}
}
