// Package slotclock converts between wall-clock time and 15-minute slot
// indexes on a 96-slot day grid.
package slotclock

import (
	"errors"
	"fmt"
)

// Grid constants. A day is divided into 96 slots of 15 minutes; slot 96
// marks end of day and is exclusive.
const (
	MinutesPerSlot = 15
	SlotsPerDay    = 96
	EndOfDay       = Slot(SlotsPerDay)
)

// Validation errors.
var (
	ErrInvalidClock = errors.New("time must be in HH:MM format")
)

// Slot is a 15-minute index into the day, valid in [0, 96].
type Slot int

// FromTime converts an hour and minute to a slot index.
// It does not bound-check hour/minute; callers must pass valid
// wall-clock values (use ParseClock for untrusted input).
func FromTime(hour, minute int) Slot {
	return Slot((hour*60 + minute) / MinutesPerSlot)
}

// ToTime converts a slot back to hour and minute.
// Out-of-range slots are clamped to [0, 96] rather than rejected; this
// is the one conversion that tolerates bad input since it only feeds
// display formatting.
func ToTime(s Slot) (hour, minute int) {
	if s < 0 {
		s = 0
	}
	if s > EndOfDay {
		s = EndOfDay
	}
	total := int(s) * MinutesPerSlot
	return total / 60, total % 60
}

// Rounded converts an hour and minute to the nearest slot boundary,
// rounding half up on minutes. Minute 60 rolls into the next hour.
func Rounded(hour, minute int) Slot {
	minute = (minute + 7) / MinutesPerSlot * MinutesPerSlot
	if minute == 60 {
		hour++
		minute = 0
	}
	return FromTime(hour, minute)
}

// IsValid returns true if s is within the day grid.
func IsValid(s Slot) bool {
	return s >= 0 && s <= EndOfDay
}

// IsValidRange returns true if both bounds are valid and start < end.
func IsValidRange(start, end Slot) bool {
	return IsValid(start) && IsValid(end) && start < end
}

// DurationMinutes returns the length of [start, end) in minutes.
// Returns 0 for an invalid range.
func DurationMinutes(start, end Slot) int {
	if !IsValidRange(start, end) {
		return 0
	}
	return int(end-start) * MinutesPerSlot
}

// DurationHours returns the length of [start, end) in hours.
// Returns 0 for an invalid range.
func DurationHours(start, end Slot) float64 {
	return float64(DurationMinutes(start, end)) / 60
}

// Format renders a slot as a wall-clock label, e.g. "7:00 AM".
func Format(s Slot) string {
	hour, minute := ToTime(s)
	suffix := "AM"
	display := hour
	switch {
	case hour == 0 || hour == 24:
		display = 12
	case hour == 12:
		suffix = "PM"
	case hour > 12:
		display = hour - 12
		suffix = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, suffix)
}

// FormatRange renders a slot range, e.g. "7:00 AM-7:30 PM".
func FormatRange(start, end Slot) string {
	return Format(start) + "-" + Format(end)
}

// ParseClock parses an "HH:MM" string into hour and minute with bounds
// checking (00:00-24:00; 24:00 is accepted as end of day).
func ParseClock(s string) (hour, minute int, err error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, ErrInvalidClock
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, 0, ErrInvalidClock
		}
	}
	hour = int(s[0]-'0')*10 + int(s[1]-'0')
	minute = int(s[3]-'0')*10 + int(s[4]-'0')
	if minute > 59 || hour > 24 || (hour == 24 && minute != 0) {
		return 0, 0, ErrInvalidClock
	}
	return hour, minute, nil
}

// ParseSlot parses an "HH:MM" string directly into a slot.
func ParseSlot(s string) (Slot, error) {
	hour, minute, err := ParseClock(s)
	if err != nil {
		return 0, err
	}
	return FromTime(hour, minute), nil
}
