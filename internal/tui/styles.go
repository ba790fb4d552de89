package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds all lipgloss styles for the TUI.
type Styles struct {
	TitleStyle  lipgloss.Style
	HeaderStyle lipgloss.Style
	TimeStyle   lipgloss.Style

	// Cell styles
	AvailableStyle lipgloss.Style
	FreeStyle      lipgloss.Style
	BookedStyle    lipgloss.Style
	AdjacentStyle  lipgloss.Style
	PendingStyle   lipgloss.Style
	CursorStyle    lipgloss.Style

	// Footer
	StatusStyle lipgloss.Style
	ErrorStyle  lipgloss.Style
	MutedStyle  lipgloss.Style

	// Modal
	ModalStyle      lipgloss.Style
	ModalTitleStyle lipgloss.Style
}

// DefaultStyles returns the styles used by the grid editor.
func DefaultStyles() Styles {
	var (
		colorAccent  = lipgloss.Color("#7aa2f7")
		colorGreen   = lipgloss.Color("#9ece6a")
		colorRed     = lipgloss.Color("#f7768e")
		colorYellow  = lipgloss.Color("#e0af68")
		colorCyan    = lipgloss.Color("#7dcfff")
		colorMuted   = lipgloss.Color("#565f89")
		colorFg      = lipgloss.Color("#c0caf5")
		colorCursor  = lipgloss.Color("#33467c")
		colorOnTitle = lipgloss.Color("#1a1b26")
	)

	return Styles{
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorOnTitle).
			Background(colorAccent).
			Padding(0, 1),
		HeaderStyle: lipgloss.NewStyle().Bold(true).Foreground(colorFg),
		TimeStyle:   lipgloss.NewStyle().Foreground(colorMuted),

		AvailableStyle: lipgloss.NewStyle().Foreground(colorGreen).Bold(true),
		FreeStyle:      lipgloss.NewStyle().Foreground(colorMuted),
		BookedStyle:    lipgloss.NewStyle().Foreground(colorRed),
		AdjacentStyle:  lipgloss.NewStyle().Foreground(colorYellow),
		PendingStyle:   lipgloss.NewStyle().Foreground(colorCyan),
		CursorStyle:    lipgloss.NewStyle().Background(colorCursor),

		StatusStyle: lipgloss.NewStyle().Foreground(colorFg),
		ErrorStyle:  lipgloss.NewStyle().Foreground(colorRed).Bold(true),
		MutedStyle:  lipgloss.NewStyle().Foreground(colorMuted),

		ModalStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(1, 2),
		ModalTitleStyle: lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	}
}
