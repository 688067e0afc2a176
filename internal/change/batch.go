package change

import (
	"fmt"
	"slices"
	"time"

	"github.com/nidoapp/nido/internal/dateutil"
	"github.com/nidoapp/nido/internal/schedule"
)

// Batch is an ordered, atomic group of proposals produced by a single
// instruction. Order matters: proposals apply sequentially, and a later
// proposal may reference a block created earlier in the same batch.
type Batch struct {
	Changes []Proposal `json:"changes"`
	Summary string     `json:"summary"`
}

// ChangeCount returns the number of proposals. Always derived locally,
// never trusted from an external payload.
func (b Batch) ChangeCount() int {
	return len(b.Changes)
}

// AISuggested returns true if any proposal in the batch came from the AI
// collaborator.
func (b Batch) AISuggested() bool {
	for _, c := range b.Changes {
		if c.AISuggested {
			return true
		}
	}
	return false
}

// AffectedDates returns the sorted, de-duplicated set of calendar days
// any proposal in the batch touches.
func (b Batch) AffectedDates() []time.Time {
	seen := make(map[string]time.Time)
	for _, c := range b.Changes {
		for _, blk := range []*schedule.TimeBlock{c.Original, c.Proposed, c.SwapOriginal, c.SwapProposed} {
			if blk == nil {
				continue
			}
			day := dateutil.TruncateToDay(blk.Date)
			seen[day.Format("2006-01-02")] = day
		}
	}

	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })
	return dates
}

// ValidationError reports one invalid proposal within a batch.
type ValidationError struct {
	Index int   // position of the proposal in the batch
	Err   error // underlying validation failure
}

// String returns a formatted error message.
func (e ValidationError) String() string {
	return fmt.Sprintf("change %d: %v", e.Index, e.Err)
}

// Validate checks every proposal in the batch and collects the failures.
// An empty result means the batch is structurally sound.
func (b Batch) Validate() []ValidationError {
	var errs []ValidationError
	for i, c := range b.Changes {
		if err := c.Validate(); err != nil {
			errs = append(errs, ValidationError{Index: i, Err: err})
		}
	}
	return errs
}

// FormatValidationErrors renders validation failures as feedback text,
// suitable for echoing back to the AI collaborator on retry.
func FormatValidationErrors(errs []ValidationError) string {
	if len(errs) == 0 {
		return ""
	}
	result := "Your response had these errors:\n"
	for _, e := range errs {
		result += fmt.Sprintf("- %s\n", e.String())
	}
	result += "\nPlease correct these issues and respond again with valid JSON."
	return result
}
