package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/defensegrid/internal/availability"
)

const (
	timeColWidth = 7
	cellWidth    = 8
)

// View renders the model.
func (m Model) View() string {
	if m.mode == ModeModal {
		return m.renderModal()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(m.styles.MutedStyle.Render("Loading..."))
		b.WriteString("\n")
	case m.coord.Grid().Size() == 0:
		b.WriteString(m.styles.MutedStyle.Render("No grid loaded."))
		b.WriteString("\n")
	default:
		b.WriteString(m.renderGrid())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.styles.TitleStyle.Render("defensegrid")
	info := fmt.Sprintf(" %s | member %s | %s", m.period, m.coord.Member(), m.coord.State())
	return title + m.styles.MutedStyle.Render(info)
}

func (m Model) renderGrid() string {
	def := m.coord.Grid()
	current := m.coord.CurrentMap()
	blocked := m.coord.BlockedMap()
	changed := make(map[availability.Key]bool)
	for _, k := range m.coord.ChangedKeys() {
		changed[k] = true
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", timeColWidth))
	for i, d := range def.Dates {
		label := fmt.Sprintf("%02d/%02d", d.Day, int(d.Month))
		style := m.styles.HeaderStyle
		if i == m.cursor.Date {
			style = style.Underline(true)
		}
		b.WriteString(style.Width(cellWidth).Render(label))
	}
	b.WriteString("\n")

	for row, tod := range def.Times {
		b.WriteString(m.styles.TimeStyle.Width(timeColWidth).Render(tod.Short()))
		for col, d := range def.Dates {
			k := availability.NewKey(d, tod)
			selected := col == m.cursor.Date && row == m.cursor.Time
			b.WriteString(m.renderCell(k, current, blocked, changed[k], selected))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderCell(k availability.Key, current availability.Map, blocked availability.Blocked, pending, selected bool) string {
	var mark string
	var style lipgloss.Style
	switch blocked[k] {
	case availability.ReasonBooked:
		mark, style = "B", m.styles.BookedStyle
	case availability.ReasonAdjacentUnavailable:
		mark, style = "b", m.styles.AdjacentStyle
	default:
		if current[k] {
			mark, style = "●", m.styles.AvailableStyle
		} else {
			mark, style = "·", m.styles.FreeStyle
		}
	}
	if pending {
		mark += "*"
		style = style.Inherit(m.styles.PendingStyle)
	}
	if selected {
		style = style.Inherit(m.styles.CursorStyle)
	}
	return style.Width(cellWidth).Align(lipgloss.Center).Render(mark)
}

func (m Model) renderFooter() string {
	var b strings.Builder

	if n := m.coord.PendingChangeCount(); n > 0 {
		b.WriteString(m.styles.PendingStyle.Render(fmt.Sprintf("%d changes not synchronized", n)))
		b.WriteString("  ")
	}
	if k, ok := m.currentKey(); ok && !m.loading {
		cs := m.coord.ColumnState(k.Date)
		b.WriteString(m.styles.MutedStyle.Render(fmt.Sprintf("%s %s", k.Date, columnLabel(cs))))
	}
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(m.styles.ErrorStyle.Render("Error: " + m.err.Error()))
	case m.status != "":
		b.WriteString(m.styles.StatusStyle.Render(m.status))
	}
	b.WriteString("\n")

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func columnLabel(cs availability.ColumnState) string {
	switch {
	case cs.Complete:
		return "[all offered]"
	case cs.Partial:
		return "[partially offered]"
	default:
		return "[none offered]"
	}
}

func (m Model) renderModal() string {
	title := m.styles.ModalTitleStyle.Render("Unsynchronized changes")
	body := fmt.Sprintf("You have %d changes that are not synchronized.\nWhat should happen to them?", m.pendingCount)
	if m.syncing {
		body += "\n\n" + m.styles.MutedStyle.Render("Synchronizing...")
	}
	footer := m.help.View(modalKeyMap{k: m.keys})

	box := m.styles.ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", footer))
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
