package change

import (
	"errors"
	"strings"
	"testing"

	"github.com/nidoapp/nido/internal/schedule"
	"github.com/nidoapp/nido/internal/slotclock"
)

var testWindow = slotclock.Window{Start: 28, End: 78}

func seededApplier(t *testing.T, policy WindowPolicy) (*Applier, *schedule.Store, []*schedule.TimeBlock) {
	t.Helper()
	blocks := []*schedule.TimeBlock{
		block("morning", 28, 50, schedule.ProviderParentA),
		block("evening", 50, 78, schedule.ProviderParentB),
	}
	store := schedule.NewStore()
	if err := store.Load(blocks); err != nil {
		t.Fatalf("loading store: %v", err)
	}
	return NewApplier(store, testWindow, policy), store, blocks
}

func TestApplyAdd(t *testing.T) {
	applier, store, _ := seededApplier(t, PolicyReject)
	day2 := testDay.AddDate(0, 0, 1)

	added := block("", 30, 40, schedule.ProviderNanny)
	added.Date = day2

	result, err := applier.Apply(Batch{Changes: []Proposal{
		{Kind: KindAdd, Proposed: added},
	}})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	if result.Applied != 1 {
		t.Errorf("Applied = %d, want 1", result.Applied)
	}
	if store.Len() != 3 {
		t.Errorf("store has %d blocks, want 3", store.Len())
	}
	got := store.BlocksForDate(day2)
	if len(got) != 1 || got[0].ID == "" {
		t.Error("added block missing or without generated id")
	}
}

func TestApplyRemove(t *testing.T) {
	applier, store, blocks := seededApplier(t, PolicyReject)

	_, err := applier.Apply(Batch{Changes: []Proposal{
		{Kind: KindRemove, Original: blocks[0]},
	}})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if store.Get("morning") != nil {
		t.Error("removed block still present")
	}
	if store.Len() != 1 {
		t.Errorf("store has %d blocks, want 1", store.Len())
	}
}

func TestApplyRetime(t *testing.T) {
	applier, store, blocks := seededApplier(t, PolicyReject)

	retimed := blocks[0].Clone()
	retimed.Start = 32
	retimed.End = 48

	_, err := applier.Apply(Batch{Changes: []Proposal{
		{Kind: KindRetime, Original: blocks[0], Proposed: retimed},
	}})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	got := store.Get("morning")
	if got.Start != 32 || got.End != 48 {
		t.Errorf("block slots %d-%d, want 32-48", got.Start, got.End)
	}
}

func TestApplyReassign(t *testing.T) {
	applier, store, blocks := seededApplier(t, PolicyReject)

	reassigned := blocks[0].Clone()
	reassigned.Provider = schedule.ProviderParentB

	_, err := applier.Apply(Batch{Changes: []Proposal{
		{Kind: KindReassign, Original: blocks[0], Proposed: reassigned},
	}})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	if got := store.Get("morning").Provider; got != schedule.ProviderParentB {
		t.Errorf("provider = %s, want parent_b", got)
	}
}

func TestApplySwapPreservesTotals(t *testing.T) {
	applier, store, blocks := seededApplier(t, PolicyReject)

	totalBefore := schedule.TotalHours(store.Blocks())

	firstProposed := blocks[0].Clone()
	secondProposed := blocks[1].Clone()
	firstProposed.Provider, secondProposed.Provider = blocks[1].Provider, blocks[0].Provider

	result, err := applier.Apply(Batch{Changes: []Proposal{{
		Kind:         KindSwap,
		Original:     blocks[0],
		Proposed:     firstProposed,
		SwapOriginal: blocks[1],
		SwapProposed: secondProposed,
	}}})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	if got := schedule.TotalHours(store.Blocks()); got != totalBefore {
		t.Errorf("total hours changed by swap: %v -> %v", totalBefore, got)
	}
	if store.Get("morning").Provider != schedule.ProviderParentB {
		t.Error("first block not reassigned")
	}
	if store.Get("evening").Provider != schedule.ProviderParentA {
		t.Error("second block not reassigned")
	}

	// Hours moved between providers: morning is 5.5h, evening is 7h.
	if d := result.Delta[schedule.ProviderParentA]; d != 1.5 {
		t.Errorf("parent_a delta = %v, want 1.5", d)
	}
	if d := result.Delta[schedule.ProviderParentB]; d != -1.5 {
		t.Errorf("parent_b delta = %v, want -1.5", d)
	}
}

func TestApplyAtomicity(t *testing.T) {
	applier, store, blocks := seededApplier(t, PolicyReject)

	snapshot := store.Blocks()

	valid := block("", 30, 40, schedule.ProviderNanny)
	stale := blocks[0].Clone()
	stale.Start = 40 // drifted from the store's copy

	_, err := applier.Apply(Batch{Changes: []Proposal{
		{Kind: KindAdd, Proposed: valid},
		{Kind: KindRemove, Original: stale},
	}})
	if !errors.Is(err, ErrApplyFailed) {
		t.Fatalf("expected ErrApplyFailed, got %v", err)
	}
	if !errors.Is(err, ErrStaleReference) {
		t.Fatalf("expected ErrStaleReference in chain, got %v", err)
	}
	if !strings.Contains(err.Error(), "change 1") {
		t.Errorf("error should name the failing change: %v", err)
	}

	// The valid first change must not have leaked through.
	after := store.Blocks()
	if len(after) != len(snapshot) {
		t.Fatalf("store changed on failed batch: %d -> %d blocks", len(snapshot), len(after))
	}
	for i := range snapshot {
		if !after[i].Matches(snapshot[i]) {
			t.Errorf("block %d changed on failed batch", i)
		}
	}
}

func TestApplyInBatchReference(t *testing.T) {
	applier, store, _ := seededApplier(t, PolicyReject)

	// Add a block, then retime it within the same batch.
	added := block("fresh", 30, 40, schedule.ProviderNanny)
	retimed := added.Clone()
	retimed.Start = 32

	_, err := applier.Apply(Batch{Changes: []Proposal{
		{Kind: KindAdd, Proposed: added},
		{Kind: KindRetime, Original: added, Proposed: retimed},
	}})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	if got := store.Get("fresh"); got == nil || got.Start != 32 {
		t.Error("later proposal failed to see the block added earlier in the batch")
	}
}

func TestApplyDuplicateAdd(t *testing.T) {
	applier, _, blocks := seededApplier(t, PolicyReject)

	dup := blocks[0].Clone()
	dup.Start = 30
	dup.End = 40

	_, err := applier.Apply(Batch{Changes: []Proposal{
		{Kind: KindAdd, Proposed: dup},
	}})
	if !errors.Is(err, ErrInvalidProposal) {
		t.Fatalf("expected ErrInvalidProposal for duplicate id, got %v", err)
	}
}

func TestApplyStaleReferenceOnMissing(t *testing.T) {
	applier, _, _ := seededApplier(t, PolicyReject)

	ghost := block("ghost", 30, 40, schedule.ProviderParentA)
	_, err := applier.Apply(Batch{Changes: []Proposal{
		{Kind: KindRemove, Original: ghost},
	}})
	if !errors.Is(err, ErrStaleReference) {
		t.Fatalf("expected ErrStaleReference, got %v", err)
	}
}

func TestApplyWindowReject(t *testing.T) {
	applier, store, _ := seededApplier(t, PolicyReject)

	early := block("", 24, 88, schedule.ProviderParentA)
	_, err := applier.Apply(Batch{Changes: []Proposal{
		{Kind: KindAdd, Proposed: early},
	}})
	if !errors.Is(err, ErrOutOfCareWindow) {
		t.Fatalf("expected ErrOutOfCareWindow, got %v", err)
	}
	if store.Len() != 2 {
		t.Error("store changed on rejected batch")
	}
}

func TestApplyWindowClamp(t *testing.T) {
	applier, store, _ := seededApplier(t, PolicyClamp)
	day2 := testDay.AddDate(0, 0, 1)

	overhang := block("", 24, 88, schedule.ProviderParentA)
	overhang.Date = day2

	_, err := applier.Apply(Batch{Changes: []Proposal{
		{Kind: KindAdd, Proposed: overhang},
	}})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	got := store.BlocksForDate(day2)
	if len(got) != 1 {
		t.Fatalf("got %d blocks, want 1", len(got))
	}
	if got[0].Start != 28 || got[0].End != 78 {
		t.Errorf("clamped to %d-%d, want 28-78", got[0].Start, got[0].End)
	}
}

func TestApplyClampEmptyIntersection(t *testing.T) {
	applier, _, _ := seededApplier(t, PolicyClamp)

	night := block("", 0, 20, schedule.ProviderParentA)
	_, err := applier.Apply(Batch{Changes: []Proposal{
		{Kind: KindAdd, Proposed: night},
	}})
	if !errors.Is(err, ErrOutOfCareWindow) {
		t.Fatalf("expected ErrOutOfCareWindow for empty intersection, got %v", err)
	}
}

func TestApplyClampNeverForAISuggestions(t *testing.T) {
	applier, _, _ := seededApplier(t, PolicyClamp)

	overhang := block("", 24, 88, schedule.ProviderParentA)
	_, err := applier.Apply(Batch{Changes: []Proposal{
		{Kind: KindAdd, Proposed: overhang, AISuggested: true},
	}})
	if !errors.Is(err, ErrOutOfCareWindow) {
		t.Fatalf("AI-suggested out-of-window block must be rejected, got %v", err)
	}
}

func TestApplyStoreBusy(t *testing.T) {
	applier, store, blocks := seededApplier(t, PolicyReject)

	if err := store.BeginApply(); err != nil {
		t.Fatalf("acquiring gate: %v", err)
	}
	defer store.EndApply()

	_, err := applier.Apply(Batch{Changes: []Proposal{
		{Kind: KindRemove, Original: blocks[0]},
	}})
	if !errors.Is(err, schedule.ErrStoreBusy) {
		t.Fatalf("expected ErrStoreBusy, got %v", err)
	}
}

func TestNewApplierDefaultsBadPolicy(t *testing.T) {
	store := schedule.NewStore()
	applier := NewApplier(store, testWindow, WindowPolicy("maybe"))

	// An out-of-window add must be rejected, proving the fallback policy.
	_, err := applier.Apply(Batch{Changes: []Proposal{
		{Kind: KindAdd, Proposed: block("", 0, 20, schedule.ProviderParentA)},
	}})
	if !errors.Is(err, ErrOutOfCareWindow) {
		t.Fatalf("expected ErrOutOfCareWindow, got %v", err)
	}
}
