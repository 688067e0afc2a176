package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nidoapp/nido/internal/approval"
	"github.com/nidoapp/nido/internal/balance"
	"github.com/nidoapp/nido/internal/change"
	"github.com/nidoapp/nido/internal/schedule"
	"github.com/nidoapp/nido/internal/slotclock"
)

// Lipgloss styles for the heavier visual elements; plain fatih/color
// covers inline text.
var (
	styleDayHeading = lipgloss.NewStyle().Bold(true).Underline(true)

	styleBarA = lipgloss.NewStyle().Foreground(lipgloss.Color("4")) // blue
	styleBarB = lipgloss.NewStyle().Foreground(lipgloss.Color("5")) // magenta
)

// shortID returns the first 8 characters of an identifier for display.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// FormatDuration formats minutes as a human-readable duration.
func FormatDuration(minutes int) string {
	if minutes == 0 {
		return "0m"
	}
	hours := minutes / 60
	mins := minutes % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, mins)
}

// FormatHours formats fractional hours, dropping a trailing ".0".
func FormatHours(h float64) string {
	s := fmt.Sprintf("%.1fh", h)
	return strings.Replace(s, ".0h", "h", 1)
}

// providerName resolves the configured display name for a provider.
func (a *App) providerName(p schedule.Provider) string {
	switch p {
	case schedule.ProviderParentA:
		if a.config.Providers.ParentA != "" {
			return a.config.Providers.ParentA
		}
	case schedule.ProviderParentB:
		if a.config.Providers.ParentB != "" {
			return a.config.Providers.ParentB
		}
	case schedule.ProviderNanny:
		if a.config.Providers.Nanny != "" {
			return a.config.Providers.Nanny
		}
	}
	return p.DisplayName()
}

// printDayHeading prints the heading line for a calendar day.
func printDayHeading(date time.Time) {
	fmt.Println(styleDayHeading.Render(date.Format("Monday, January 2, 2006")))
}

// printBlockRow prints a single block row.
func (a *App) printBlockRow(b *schedule.TimeBlock) {
	name := formatProvider(b.Provider, fmt.Sprintf("%-10s", a.providerName(b.Provider)))
	note := ""
	if b.Note != "" {
		note = "  " + formatMuted(b.Note)
	}
	fmt.Printf("  %s  %-20s  %s  %s%s\n",
		formatMuted(shortID(b.ID)),
		slotclock.FormatRange(b.Start, b.End),
		name,
		formatMuted(FormatDuration(b.DurationMinutes())),
		note,
	)
}

// printDay prints all blocks for one day plus overlap warnings.
func (a *App) printDay(date time.Time, blocks []*schedule.TimeBlock) {
	printDayHeading(date)
	if len(blocks) == 0 {
		fmt.Println(formatMuted("  (no coverage)"))
		return
	}
	for _, b := range schedule.SortedByStart(blocks) {
		a.printBlockRow(b)
	}
	for _, p := range []schedule.Provider{schedule.ProviderParentA, schedule.ProviderParentB, schedule.ProviderNanny} {
		for _, pair := range a.store.Overlapping(date, p) {
			fmt.Println(formatWarn(fmt.Sprintf("  ! %s overlaps: %s and %s",
				a.providerName(p),
				slotclock.FormatRange(pair[0].Start, pair[0].End),
				slotclock.FormatRange(pair[1].Start, pair[1].End))))
		}
	}
}

// balanceBar renders the guardians' share of care hours as a bar.
func balanceBar(report balance.Report, width int) string {
	total := report.HoursFor(schedule.ProviderParentA) + report.HoursFor(schedule.ProviderParentB)
	if total == 0 {
		return "[" + strings.Repeat("░", width) + "]"
	}
	filled := int(report.Fraction(schedule.ProviderParentA) * float64(width))
	if filled > width {
		filled = width
	}
	left := styleBarA.Render(strings.Repeat("█", filled))
	right := styleBarB.Render(strings.Repeat("█", width-filled))
	return "[" + left + right + "]"
}

// printBalance prints a balance report.
func (a *App) printBalance(report balance.Report) {
	pa := schedule.ProviderParentA
	pb := schedule.ProviderParentB

	fmt.Printf("%s %s | %s %s\n",
		formatProvider(pa, a.providerName(pa)),
		FormatHours(report.HoursFor(pa)),
		formatProvider(pb, a.providerName(pb)),
		FormatHours(report.HoursFor(pb)),
	)
	fmt.Printf("%s %s / %s\n",
		balanceBar(report, 40),
		formatStats(fmt.Sprintf("%.0f%%", report.Fraction(pa)*100)),
		formatStats(fmt.Sprintf("%.0f%%", report.Fraction(pb)*100)),
	)

	if report.IsBalanced() {
		fmt.Printf("Balanced (difference %s, threshold %s)\n",
			FormatHours(report.Delta()), FormatHours(report.Threshold))
	} else {
		fmt.Println(formatWarn(fmt.Sprintf("Unbalanced: difference %s exceeds threshold %s",
			FormatHours(report.Delta()), FormatHours(report.Threshold))))
	}

	for p, h := range report.OtherHours() {
		if h > 0 {
			fmt.Printf("%s\n", formatMuted(fmt.Sprintf("%s: %s (not counted in split)",
				a.providerName(p), FormatHours(h))))
		}
	}
}

// printProposal prints one proposal within a batch listing.
func (a *App) printProposal(i int, c change.Proposal) {
	fmt.Printf("  %d. [%s] %s\n", i+1, c.Kind, c.Summary())
	if c.Rationale != "" {
		fmt.Printf("     %s\n", formatMuted(c.Rationale))
	}
}

// printBatch prints a batch with its proposals.
func (a *App) printBatch(batch change.Batch) {
	if batch.Summary != "" {
		fmt.Printf("%s\n", formatHeader(batch.Summary))
	}
	for i, c := range batch.Changes {
		a.printProposal(i, c)
	}
	dates := batch.AffectedDates()
	if len(dates) > 0 {
		labels := make([]string, len(dates))
		for i, d := range dates {
			labels[i] = d.Format("Mon Jan 2")
		}
		fmt.Printf("%s\n", formatMuted("Affects: "+strings.Join(labels, ", ")))
	}
}

// stateLabel renders a workflow state with color.
func stateLabel(s approval.State) string {
	switch s {
	case approval.StateProposed:
		return formatWarn(string(s))
	case approval.StateApproved, approval.StateApplied:
		return formatStats(string(s))
	case approval.StateApplyFailed:
		return colorFail.Sprint(string(s))
	default:
		return formatMuted(string(s))
	}
}
