package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/javiermolinar/defensegrid/internal/availability"
)

// Colors for the parts of a printed grid.
var (
	colorOffered = color.New(color.FgGreen, color.Bold)
	colorHeader  = color.New(color.Bold)
	colorPending = color.New(color.FgCyan)
	colorMuted   = color.New(color.FgWhite, color.Faint)
)

// blockedStyle is how one kind of blocked slot is printed.
type blockedStyle struct {
	mark  string
	label string
	color *color.Color
}

var blockedStyles = map[availability.Reason]blockedStyle{
	availability.ReasonBooked: {
		mark: "B", label: "booked by a defense", color: color.New(color.FgRed),
	},
	availability.ReasonAdjacentUnavailable: {
		mark: "b", label: "right before a defense", color: color.New(color.FgYellow),
	},
}

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
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
