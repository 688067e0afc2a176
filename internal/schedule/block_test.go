package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/nidoapp/nido/internal/slotclock"
)

var testDay = time.Date(2026, 9, 2, 0, 0, 0, 0, time.Local)

func mustBlock(t *testing.T, date time.Time, start, end slotclock.Slot, p Provider) *TimeBlock {
	t.Helper()
	b, err := NewTimeBlock(date, start, end, p, "")
	if err != nil {
		t.Fatalf("creating block: %v", err)
	}
	return b
}

func TestNewTimeBlock(t *testing.T) {
	tests := []struct {
		name     string
		start    slotclock.Slot
		end      slotclock.Slot
		provider Provider
		wantErr  error
	}{
		{"valid", 28, 50, ProviderParentA, nil},
		{"inverted range", 50, 28, ProviderParentA, ErrInvalidRange},
		{"empty range", 40, 40, ProviderParentB, ErrInvalidRange},
		{"out of grid", 0, 100, ProviderParentB, ErrInvalidRange},
		{"unknown provider", 28, 50, Provider("grandma"), ErrInvalidProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewTimeBlock(testDay, tt.start, tt.end, tt.provider, "")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if b.ID == "" {
				t.Error("expected a generated id")
			}
			if !b.Date.Equal(testDay) {
				t.Errorf("date = %v, want %v", b.Date, testDay)
			}
		})
	}
}

func TestNewTimeBlockTruncatesDate(t *testing.T) {
	late := time.Date(2026, 9, 2, 23, 45, 12, 0, time.Local)
	b := mustBlock(t, late, 28, 50, ProviderParentA)
	if !b.Date.Equal(testDay) {
		t.Errorf("date = %v, want truncated %v", b.Date, testDay)
	}
}

func TestOverlapsWith(t *testing.T) {
	base := mustBlock(t, testDay, 28, 50, ProviderParentA)

	tests := []struct {
		name  string
		other *TimeBlock
		want  bool
	}{
		{"nil", nil, false},
		{"identical range", mustBlock(t, testDay, 28, 50, ProviderParentB), true},
		{"partial overlap", mustBlock(t, testDay, 40, 60, ProviderParentA), true},
		{"touching edges", mustBlock(t, testDay, 50, 60, ProviderParentA), false},
		{"different day", mustBlock(t, testDay.AddDate(0, 0, 1), 28, 50, ProviderParentA), false},
		{"contained", mustBlock(t, testDay, 30, 40, ProviderNanny), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.OverlapsWith(tt.other); got != tt.want {
				t.Errorf("OverlapsWith = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	base := mustBlock(t, testDay, 28, 50, ProviderParentA)

	same := base.Clone()
	if !base.Matches(same) {
		t.Error("clone should match")
	}

	moved := base.Clone()
	moved.Start = 30
	if base.Matches(moved) {
		t.Error("shifted start should not match")
	}

	reassigned := base.Clone()
	reassigned.Provider = ProviderParentB
	if base.Matches(reassigned) {
		t.Error("different provider should not match")
	}

	otherDay := base.Clone()
	otherDay.Date = testDay.AddDate(0, 0, 1)
	if base.Matches(otherDay) {
		t.Error("different day should not match")
	}

	if base.Matches(nil) {
		t.Error("nil should not match")
	}
}

func TestMatchesAcrossLocations(t *testing.T) {
	// A freshly generated block and its persisted counterpart can carry
	// the same calendar day in different zones; they still match.
	newYork := time.FixedZone("EDT", -4*60*60)

	stored := mustBlock(t, time.Date(2026, 9, 1, 0, 0, 0, 0, newYork), 28, 50, ProviderParentA)
	generated := stored.Clone()
	generated.Date = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	if !stored.Matches(generated) {
		t.Error("same calendar day in different zones should match")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := mustBlock(t, testDay, 28, 50, ProviderParentA)
	c := b.Clone()
	c.Start = 30
	c.Note = "changed"
	if b.Start != 28 || b.Note != "" {
		t.Error("mutating the clone changed the original")
	}
}

func TestParseProvider(t *testing.T) {
	if _, err := ParseProvider("parent_a"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ParseProvider("stranger"); !errors.Is(err, ErrInvalidProvider) {
		t.Errorf("expected ErrInvalidProvider, got %v", err)
	}
}

func TestIsPrimary(t *testing.T) {
	if !ProviderParentA.IsPrimary() || !ProviderParentB.IsPrimary() {
		t.Error("guardians must be primary")
	}
	if ProviderNanny.IsPrimary() {
		t.Error("nanny must not be primary")
	}
}
