package ui

import (
	"os"

	"github.com/fatih/color"

	"golang.org/x/term"

	"github.com/nidoapp/nido/internal/schedule"
)

// Color definitions for consistent styling across the UI.
var (
	// Parent A: bold blue
	colorParentA = color.New(color.FgBlue, color.Bold)

	// Parent B: bold magenta
	colorParentB = color.New(color.FgMagenta, color.Bold)

	// Nanny and other third-party coverage: green
	colorNanny = color.New(color.FgGreen)

	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Stats: green for positive metrics
	colorStats = color.New(color.FgGreen)

	// Warnings: yellow
	colorWarn = color.New(color.FgYellow)

	// Failures: red
	colorFail = color.New(color.FgRed)

	// Muted: for secondary information
	colorMuted = color.New(color.FgWhite, color.Faint)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // sensible default
	}
	return width
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// EnableColor enables color output (if terminal supports it).
func EnableColor() {
	color.NoColor = false
}

// formatProvider colors text by the provider it belongs to.
func formatProvider(p schedule.Provider, s string) string {
	switch p {
	case schedule.ProviderParentA:
		return colorParentA.Sprint(s)
	case schedule.ProviderParentB:
		return colorParentB.Sprint(s)
	case schedule.ProviderNanny:
		return colorNanny.Sprint(s)
	default:
		return s
	}
}

// formatHeader formats text as a header.
func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

// formatStats formats text for statistics.
func formatStats(s string) string {
	return colorStats.Sprint(s)
}

// formatWarn formats warning text.
func formatWarn(s string) string {
	return colorWarn.Sprint(s)
}

// formatMuted formats text as secondary/muted.
func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}
