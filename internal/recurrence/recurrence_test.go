package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/nidoapp/nido/internal/dateutil"
	"github.com/nidoapp/nido/internal/schedule"
	"github.com/nidoapp/nido/internal/slotclock"
)

// September 2026: the 1st is a Tuesday.
var (
	septStart = time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local)
	septEnd   = time.Date(2026, 9, 30, 0, 0, 0, 0, time.Local)
)

func mondayPattern(t *testing.T) *Pattern {
	t.Helper()
	p, err := New([]time.Weekday{time.Monday, time.Wednesday}, 28, 50, schedule.ProviderParentA, septStart, nil)
	if err != nil {
		t.Fatalf("creating pattern: %v", err)
	}
	return p
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		start   slotclock.Slot
		end     slotclock.Slot
		p       schedule.Provider
		until   *time.Time
		wantErr bool
	}{
		{"valid", 28, 50, schedule.ProviderParentA, nil, false},
		{"inverted slots", 50, 28, schedule.ProviderParentA, nil, true},
		{"bad provider", 28, 50, schedule.Provider("cat"), nil, true},
		{"until before from", 28, 50, schedule.ProviderParentB, &time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New([]time.Weekday{time.Monday}, tt.start, tt.end, tt.p, septStart, tt.until)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPattern) {
					t.Fatalf("expected ErrInvalidPattern, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestExpand(t *testing.T) {
	p := mondayPattern(t)
	within := &dateutil.DateRange{Start: septStart, End: septEnd}

	blocks, err := Expand(p, within)
	if err != nil {
		t.Fatalf("expanding: %v", err)
	}

	// September 2026 has 4 Mondays (7, 14, 21, 28) and
	// 5 Wednesdays (2, 9, 16, 23, 30).
	if len(blocks) != 9 {
		t.Fatalf("got %d blocks, want 9", len(blocks))
	}

	for _, b := range blocks {
		wd := b.Date.Weekday()
		if wd != time.Monday && wd != time.Wednesday {
			t.Errorf("block on %s, want Monday or Wednesday", wd)
		}
		if b.Start != 28 || b.End != 50 {
			t.Errorf("block slots %d-%d, want 28-50", b.Start, b.End)
		}
		if b.Provider != schedule.ProviderParentA {
			t.Errorf("provider = %s, want parent_a", b.Provider)
		}
	}
}

func TestExpandIsDeterministic(t *testing.T) {
	p := mondayPattern(t)
	within := &dateutil.DateRange{Start: septStart, End: septEnd}

	first, err := Expand(p, within)
	if err != nil {
		t.Fatalf("first expansion: %v", err)
	}
	second, err := Expand(p, within)
	if err != nil {
		t.Fatalf("second expansion: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("expansions differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("block %d id differs: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestExpandDistinctPatternsDistinctIDs(t *testing.T) {
	a := mondayPattern(t)
	b := mondayPattern(t)
	within := &dateutil.DateRange{Start: septStart, End: septEnd}

	blocksA, _ := Expand(a, within)
	blocksB, _ := Expand(b, within)

	seen := make(map[string]bool)
	for _, blk := range blocksA {
		seen[blk.ID] = true
	}
	for _, blk := range blocksB {
		if seen[blk.ID] {
			t.Fatalf("patterns share block id %s", blk.ID)
		}
	}
}

func TestExpandHonorsPatternBounds(t *testing.T) {
	until := time.Date(2026, 9, 15, 0, 0, 0, 0, time.Local)
	p, err := New([]time.Weekday{time.Monday}, 28, 50, schedule.ProviderParentB, septStart, &until)
	if err != nil {
		t.Fatalf("creating pattern: %v", err)
	}

	// Query range wider than the pattern's effective range.
	within := &dateutil.DateRange{Start: septStart.AddDate(0, -1, 0), End: septEnd}
	blocks, err := Expand(p, within)
	if err != nil {
		t.Fatalf("expanding: %v", err)
	}

	// Mondays between Sep 1 and Sep 15: the 7th and the 14th.
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	for _, b := range blocks {
		if b.Date.Before(septStart) || b.Date.After(until) {
			t.Errorf("block on %s outside pattern bounds", b.Date.Format("2006-01-02"))
		}
	}
}

func TestExpandEmptyWeekdays(t *testing.T) {
	p, err := New(nil, 28, 50, schedule.ProviderParentA, septStart, nil)
	if err != nil {
		t.Fatalf("creating pattern: %v", err)
	}

	within := &dateutil.DateRange{Start: septStart, End: septEnd}
	blocks, err := Expand(p, within)
	if err != nil {
		t.Fatalf("expanding: %v", err)
	}
	if len(blocks) != 0 {
		t.Errorf("empty weekday set expanded to %d blocks", len(blocks))
	}
}

func TestExpandAcrossLocations(t *testing.T) {
	// A pattern whose effective date was created in another zone still
	// generates a block on its own first day when the query range was
	// parsed elsewhere.
	newYork := time.FixedZone("EDT", -4*60*60)
	from := time.Date(2026, 9, 7, 0, 0, 0, 0, newYork) // Monday

	p, err := New([]time.Weekday{time.Monday}, 28, 50, schedule.ProviderParentA, from, nil)
	if err != nil {
		t.Fatalf("creating pattern: %v", err)
	}

	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	blocks, err := Expand(p, &dateutil.DateRange{Start: monday, End: monday})
	if err != nil {
		t.Fatalf("expanding: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1 on the pattern's first day", len(blocks))
	}
}

func TestBlockIDStable(t *testing.T) {
	p := mondayPattern(t)
	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.Local)

	first := p.BlockID(date)
	second := p.BlockID(date)
	if first != second {
		t.Errorf("BlockID not stable: %s vs %s", first, second)
	}
	if first == p.BlockID(date.AddDate(0, 0, 7)) {
		t.Error("different dates must yield different ids")
	}
}
