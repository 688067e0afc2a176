// Package balance derives per-provider care-hours statistics from the
// current schedule.
package balance

import (
	"math"

	"github.com/nidoapp/nido/internal/schedule"
)

// DefaultThreshold is the care-hours difference between the two
// guardians below which a schedule counts as balanced, scaled to a
// one-week query window.
const DefaultThreshold = 4.0

// Report holds care-hours aggregates for a set of blocks. Only the two
// primary providers participate in the balance fraction; third-party
// coverage is reported separately as informational hours.
type Report struct {
	Hours     map[schedule.Provider]float64
	Threshold float64
}

// Compute aggregates hours per provider over the given blocks.
// A negative threshold falls back to DefaultThreshold; zero is a valid
// strict-equality threshold.
func Compute(blocks []*schedule.TimeBlock, threshold float64) Report {
	if threshold < 0 {
		threshold = DefaultThreshold
	}
	hours := make(map[schedule.Provider]float64)
	for _, b := range blocks {
		hours[b.Provider] += b.DurationHours()
	}
	return Report{Hours: hours, Threshold: threshold}
}

// HoursFor returns total care hours for a provider.
func (r Report) HoursFor(p schedule.Provider) float64 {
	return r.Hours[p]
}

// primaryTotal sums the hours of the two guardians only.
func (r Report) primaryTotal() float64 {
	var total float64
	for _, p := range schedule.PrimaryProviders() {
		total += r.Hours[p]
	}
	return total
}

// Fraction returns the provider's share of the guardians' combined
// hours, in [0, 1]. Non-primary providers always report 0; their hours
// are informational and excluded from the split.
func (r Report) Fraction(p schedule.Provider) float64 {
	if !p.IsPrimary() {
		return 0
	}
	total := r.primaryTotal()
	if total == 0 {
		return 0
	}
	return r.Hours[p] / total
}

// Delta returns the absolute care-hours difference between the two
// guardians.
func (r Report) Delta() float64 {
	primary := schedule.PrimaryProviders()
	return math.Abs(r.Hours[primary[0]] - r.Hours[primary[1]])
}

// IsBalanced returns true when the guardians' hours differ by no more
// than the threshold.
func (r Report) IsBalanced() bool {
	return r.Delta() <= r.Threshold
}

// OtherHours returns hours for providers outside the primary pair.
func (r Report) OtherHours() map[schedule.Provider]float64 {
	other := make(map[schedule.Provider]float64)
	for p, h := range r.Hours {
		if !p.IsPrimary() {
			other[p] = h
		}
	}
	return other
}
