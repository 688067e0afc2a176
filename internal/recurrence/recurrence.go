// Package recurrence expands recurring coverage patterns into concrete
// time blocks.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nidoapp/nido/internal/dateutil"
	"github.com/nidoapp/nido/internal/schedule"
	"github.com/nidoapp/nido/internal/slotclock"
)

// ErrInvalidPattern is returned when a pattern cannot be expanded.
var ErrInvalidPattern = errors.New("invalid recurrence pattern")

// blockNamespace seeds deterministic block identifiers. Expanding the
// same pattern over the same dates must always yield blocks with the
// same IDs, so re-expansion replaces a series instead of duplicating it.
var blockNamespace = uuid.MustParse("8f1c9a42-6a5e-4a0b-9a57-2f3d7c5b1e90")

// Pattern is a recurring coverage rule: the given provider covers the
// slot range on each listed weekday, for every date between From and
// Until (inclusive; nil Until means open-ended).
type Pattern struct {
	ID       string            `json:"id"`
	Weekdays []time.Weekday    `json:"weekdays"`
	Start    slotclock.Slot    `json:"start_slot"`
	End      slotclock.Slot    `json:"end_slot"`
	Provider schedule.Provider `json:"provider"`
	From     time.Time         `json:"from"`
	Until    *time.Time        `json:"until,omitempty"`
}

// New creates a validated Pattern with a fresh identifier.
func New(weekdays []time.Weekday, start, end slotclock.Slot, provider schedule.Provider, from time.Time, until *time.Time) (*Pattern, error) {
	p := &Pattern{
		ID:       uuid.NewString(),
		Weekdays: weekdays,
		Start:    start,
		End:      end,
		Provider: provider,
		From:     dateutil.TruncateToDay(from),
	}
	if until != nil {
		u := dateutil.TruncateToDay(*until)
		p.Until = &u
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the pattern's slot range, provider, and date bounds.
// An empty weekday set is legal (it expands to nothing).
func (p *Pattern) Validate() error {
	if !slotclock.IsValidRange(p.Start, p.End) {
		return fmt.Errorf("%w: slot range %d-%d", ErrInvalidPattern, p.Start, p.End)
	}
	if !p.Provider.Valid() {
		return fmt.Errorf("%w: provider %q", ErrInvalidPattern, p.Provider)
	}
	if p.Until != nil && dateutil.CompareDay(*p.Until, p.From) < 0 {
		return fmt.Errorf("%w: until precedes from", ErrInvalidPattern)
	}
	return nil
}

// appliesOn returns true if the pattern generates a block on date.
// Day comparisons ignore location so patterns loaded from storage and
// CLI-parsed query dates agree on boundaries.
func (p *Pattern) appliesOn(date time.Time) bool {
	if dateutil.CompareDay(date, p.From) < 0 {
		return false
	}
	if p.Until != nil && dateutil.CompareDay(date, *p.Until) > 0 {
		return false
	}
	for _, wd := range p.Weekdays {
		if date.Weekday() == wd {
			return true
		}
	}
	return false
}

// BlockID derives the deterministic identifier of the block this pattern
// generates on the given date.
func (p *Pattern) BlockID(date time.Time) string {
	key := p.ID + "/" + dateutil.TruncateToDay(date).Format("2006-01-02")
	return uuid.NewSHA1(blockNamespace, []byte(key)).String()
}

// Expand materializes the pattern over the query range. Expansion is
// deterministic and idempotent: the same pattern and range always yield
// the same block set, identifier included. Dates outside the pattern's
// own effective range yield nothing.
func Expand(p *Pattern, within *dateutil.DateRange) ([]*schedule.TimeBlock, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var blocks []*schedule.TimeBlock
	within.Days(func(date time.Time) {
		if !p.appliesOn(date) {
			return
		}
		blocks = append(blocks, &schedule.TimeBlock{
			ID:       p.BlockID(date),
			Date:     date,
			Start:    p.Start,
			End:      p.End,
			Provider: p.Provider,
		})
	})
	return blocks, nil
}

// String renders the pattern for CLI output.
func (p *Pattern) String() string {
	days := "no days"
	if len(p.Weekdays) > 0 {
		days = ""
		for i, wd := range p.Weekdays {
			if i > 0 {
				days += ","
			}
			days += wd.String()[:3]
		}
	}
	until := "open-ended"
	if p.Until != nil {
		until = "until " + p.Until.Format("2006-01-02")
	}
	return fmt.Sprintf("%s %s %s from %s %s",
		days,
		slotclock.FormatRange(p.Start, p.End),
		p.Provider.DisplayName(),
		p.From.Format("2006-01-02"),
		until,
	)
}
