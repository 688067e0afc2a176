package change

import (
	"errors"
	"testing"
	"time"

	"github.com/nidoapp/nido/internal/schedule"
	"github.com/nidoapp/nido/internal/slotclock"
)

var testDay = time.Date(2026, 9, 2, 0, 0, 0, 0, time.Local)

func block(id string, start, end slotclock.Slot, p schedule.Provider) *schedule.TimeBlock {
	return &schedule.TimeBlock{ID: id, Date: testDay, Start: start, End: end, Provider: p}
}

func TestProposalValidate(t *testing.T) {
	a := block("a", 28, 50, schedule.ProviderParentA)
	b := block("b", 50, 78, schedule.ProviderParentB)

	retimed := a.Clone()
	retimed.Start = 30

	reassigned := a.Clone()
	reassigned.Provider = schedule.ProviderParentB

	tests := []struct {
		name    string
		p       Proposal
		wantErr bool
	}{
		{"valid retime", Proposal{Kind: KindRetime, Original: a, Proposed: retimed}, false},
		{"retime missing proposed", Proposal{Kind: KindRetime, Original: a}, true},
		{"retime changes id", Proposal{Kind: KindRetime, Original: a, Proposed: b}, true},

		{"valid reassign", Proposal{Kind: KindReassign, Original: a, Proposed: reassigned}, false},
		{"reassign keeps provider", Proposal{Kind: KindReassign, Original: a, Proposed: a.Clone()}, true},
		{"reassign changes id", Proposal{Kind: KindReassign, Original: a, Proposed: b}, true},

		{"valid add", Proposal{Kind: KindAdd, Proposed: a}, false},
		{"add missing proposed", Proposal{Kind: KindAdd}, true},
		{"add carries original", Proposal{Kind: KindAdd, Original: a, Proposed: b}, true},

		{"valid remove", Proposal{Kind: KindRemove, Original: a}, false},
		{"remove missing original", Proposal{Kind: KindRemove}, true},
		{"remove carries proposed", Proposal{Kind: KindRemove, Original: a, Proposed: b}, true},

		{"valid swap", Proposal{Kind: KindSwap, Original: a, Proposed: reassigned, SwapOriginal: b, SwapProposed: b.Clone()}, false},
		{"swap same block", Proposal{Kind: KindSwap, Original: a, Proposed: a, SwapOriginal: a, SwapProposed: a}, true},
		{"swap missing pair", Proposal{Kind: KindSwap, Original: a, Proposed: reassigned}, true},
		{"swap changes first id", Proposal{Kind: KindSwap, Original: a, Proposed: block("c", 28, 50, schedule.ProviderParentB), SwapOriginal: b, SwapProposed: b.Clone()}, true},
		{"swap changes second id", Proposal{Kind: KindSwap, Original: a, Proposed: reassigned, SwapOriginal: b, SwapProposed: block("c", 50, 78, schedule.ProviderParentA)}, true},

		{"unknown kind", Proposal{Kind: Kind("merge"), Original: a}, true},
		{"invalid range in payload", Proposal{Kind: KindAdd, Proposed: block("x", 50, 28, schedule.ProviderParentA)}, true},
		{"invalid provider in payload", Proposal{Kind: KindAdd, Proposed: block("x", 28, 50, schedule.Provider("cat"))}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidProposal) {
					t.Fatalf("expected ErrInvalidProposal, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestKindValid(t *testing.T) {
	for _, k := range []Kind{KindRetime, KindSwap, KindAdd, KindRemove, KindReassign} {
		if !k.Valid() {
			t.Errorf("%s should be valid", k)
		}
	}
	if Kind("merge").Valid() {
		t.Error("unknown kind should be invalid")
	}
}

func TestProposalSummary(t *testing.T) {
	a := block("a", 28, 50, schedule.ProviderParentA)

	withDesc := Proposal{Kind: KindRemove, Original: a, Description: "Drop the morning block"}
	if got := withDesc.Summary(); got != "Drop the morning block" {
		t.Errorf("Summary = %q, want description", got)
	}

	generated := Proposal{Kind: KindRemove, Original: a}
	if got := generated.Summary(); got == "" {
		t.Error("expected a generated summary")
	}
}
