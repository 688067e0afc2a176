package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nidoapp/nido/internal/dateutil"
	"github.com/nidoapp/nido/internal/slotclock"
)

// Validation errors.
var (
	ErrInvalidRange    = errors.New("invalid slot range")
	ErrInvalidProvider = errors.New("unknown care provider")
)

// Domain errors.
var (
	ErrBlockNotFound = errors.New("time block not found")
	ErrStoreBusy     = errors.New("another schedule mutation is in flight")
)

// TimeBlock is one contiguous coverage interval assigned to a provider
// on a calendar date. Blocks are owned by the Store; callers receive and
// hand over copies, and mutations go through the change engine so every
// edit is auditable.
type TimeBlock struct {
	ID       string         `json:"id"`
	Date     time.Time      `json:"date"`
	Start    slotclock.Slot `json:"start_slot"`
	End      slotclock.Slot `json:"end_slot"`
	Provider Provider       `json:"provider"`
	Note     string         `json:"note,omitempty"`
}

// NewTimeBlock creates a validated TimeBlock with a fresh identifier.
func NewTimeBlock(date time.Time, start, end slotclock.Slot, provider Provider, note string) (*TimeBlock, error) {
	if !slotclock.IsValidRange(start, end) {
		return nil, fmt.Errorf("%w: %d-%d", ErrInvalidRange, start, end)
	}
	if !provider.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProvider, provider)
	}
	return &TimeBlock{
		ID:       uuid.NewString(),
		Date:     dateutil.TruncateToDay(date),
		Start:    start,
		End:      end,
		Provider: provider,
		Note:     note,
	}, nil
}

// Valid returns true if the block's slot range and provider are valid.
func (b *TimeBlock) Valid() bool {
	return slotclock.IsValidRange(b.Start, b.End) && b.Provider.Valid()
}

// DurationMinutes returns the block length in minutes.
func (b *TimeBlock) DurationMinutes() int {
	return slotclock.DurationMinutes(b.Start, b.End)
}

// DurationHours returns the block length in hours.
func (b *TimeBlock) DurationHours() float64 {
	return slotclock.DurationHours(b.Start, b.End)
}

// OverlapsWith returns true if both blocks are on the same day and their
// [start, end) ranges intersect.
func (b *TimeBlock) OverlapsWith(other *TimeBlock) bool {
	if other == nil {
		return false
	}
	if !dateutil.SameDay(b.Date, other.Date) {
		return false
	}
	return b.Start < other.End && other.Start < b.End
}

// Matches reports whether the block's scheduling state (date, slots,
// provider) equals other's. Used for stale-reference detection: a
// proposal's original must still match what the store holds.
func (b *TimeBlock) Matches(other *TimeBlock) bool {
	if other == nil {
		return false
	}
	return dateutil.SameDay(b.Date, other.Date) &&
		b.Start == other.Start &&
		b.End == other.End &&
		b.Provider == other.Provider
}

// Clone returns a copy of the block.
func (b *TimeBlock) Clone() *TimeBlock {
	c := *b
	return &c
}

// String renders the block for CLI output and error messages.
func (b *TimeBlock) String() string {
	return fmt.Sprintf("%s %s %s",
		b.Date.Format("2006-01-02"),
		slotclock.FormatRange(b.Start, b.End),
		b.Provider.DisplayName(),
	)
}
