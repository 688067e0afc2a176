package change

import (
	"strings"
	"testing"

	"github.com/nidoapp/nido/internal/schedule"
)

func TestBatchAffectedDates(t *testing.T) {
	day2 := testDay.AddDate(0, 0, 1)

	a := block("a", 28, 50, schedule.ProviderParentA)
	b := block("b", 50, 78, schedule.ProviderParentB)
	b.Date = day2
	moved := a.Clone()
	moved.Date = day2

	batch := Batch{Changes: []Proposal{
		{Kind: KindRetime, Original: a, Proposed: moved}, // touches both days
		{Kind: KindRemove, Original: b},                  // day2 again
	}}

	dates := batch.AffectedDates()
	if len(dates) != 2 {
		t.Fatalf("got %d dates, want 2", len(dates))
	}
	if !dates[0].Before(dates[1]) {
		t.Error("dates must be sorted ascending")
	}
	if !dates[0].Equal(testDay) || !dates[1].Equal(day2) {
		t.Errorf("unexpected dates: %v", dates)
	}
}

func TestBatchAISuggested(t *testing.T) {
	a := block("a", 28, 50, schedule.ProviderParentA)

	manual := Batch{Changes: []Proposal{{Kind: KindRemove, Original: a}}}
	if manual.AISuggested() {
		t.Error("manual batch flagged as AI suggested")
	}

	mixed := Batch{Changes: []Proposal{
		{Kind: KindRemove, Original: a},
		{Kind: KindAdd, Proposed: a.Clone(), AISuggested: true},
	}}
	if !mixed.AISuggested() {
		t.Error("batch with one AI proposal should count as AI suggested")
	}
}

func TestBatchValidate(t *testing.T) {
	a := block("a", 28, 50, schedule.ProviderParentA)

	batch := Batch{Changes: []Proposal{
		{Kind: KindRemove, Original: a},
		{Kind: KindAdd},                    // invalid: missing proposed
		{Kind: Kind("merge"), Original: a}, // invalid: unknown kind
	}}

	errs := batch.Validate()
	if len(errs) != 2 {
		t.Fatalf("got %d validation errors, want 2", len(errs))
	}
	if errs[0].Index != 1 || errs[1].Index != 2 {
		t.Errorf("error indexes = %d, %d; want 1, 2", errs[0].Index, errs[1].Index)
	}
}

func TestFormatValidationErrors(t *testing.T) {
	if got := FormatValidationErrors(nil); got != "" {
		t.Errorf("no errors should format to empty string, got %q", got)
	}

	batch := Batch{Changes: []Proposal{{Kind: KindAdd}}}
	text := FormatValidationErrors(batch.Validate())
	if !strings.Contains(text, "change 0") {
		t.Errorf("feedback should name the failing change: %q", text)
	}
	if !strings.Contains(text, "valid JSON") {
		t.Errorf("feedback should ask for a corrected response: %q", text)
	}
}

func TestBatchChangeCount(t *testing.T) {
	a := block("a", 28, 50, schedule.ProviderParentA)
	batch := Batch{Changes: []Proposal{
		{Kind: KindRemove, Original: a},
		{Kind: KindAdd, Proposed: a.Clone()},
	}}
	if got := batch.ChangeCount(); got != 2 {
		t.Errorf("ChangeCount = %d, want 2", got)
	}
}
