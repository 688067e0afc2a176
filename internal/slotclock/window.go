package slotclock

// Window is the configured daily care window: scheduling outside
// [Start, End) is disallowed by policy.
type Window struct {
	Start Slot
	End   Slot
}

// DefaultWindow spans 7:00 AM to 7:30 PM.
var DefaultWindow = Window{Start: 28, End: 78}

// Valid returns true if the window itself is a valid slot range.
func (w Window) Valid() bool {
	return IsValidRange(w.Start, w.End)
}

// Contains returns true if [start, end) lies entirely inside the window.
func (w Window) Contains(start, end Slot) bool {
	return start >= w.Start && end <= w.End
}

// Clamp intersects [start, end) with the window. The boolean is false
// when the intersection is empty.
func (w Window) Clamp(start, end Slot) (Slot, Slot, bool) {
	clampedStart := max(start, w.Start)
	clampedEnd := min(end, w.End)
	if clampedStart >= clampedEnd {
		return 0, 0, false
	}
	return clampedStart, clampedEnd, true
}

// String renders the window as a wall-clock range.
func (w Window) String() string {
	return FormatRange(w.Start, w.End)
}
