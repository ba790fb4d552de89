// Package tui provides the interactive grid editor.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/defensegrid/internal/availability"
	"github.com/javiermolinar/defensegrid/internal/gridsync"
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeGrid  Mode = iota
	ModeModal      // guarded navigation prompt
)

// Position represents a cursor position in the grid.
type Position struct {
	Date int // column index into the grid dates
	Time int // row index into the grid times
}

type navKind int

const (
	navQuit navKind = iota
	navSwitchPhase
	navReload
)

// navAction is an action that drops the current grid.
type navAction struct {
	kind   navKind
	period availability.Period
}

// Model is the main TUI model.
type Model struct {
	// Dependencies
	ctx   context.Context
	coord *gridsync.Coordinator

	keys   KeyMap
	help   help.Model
	styles Styles

	// State
	period  availability.Period
	cursor  Position
	mode    Mode
	loading bool
	syncing bool
	status  string
	err     error

	// Navigation modal
	pending      navAction
	pendingCount int

	width  int
	height int
}

// New creates a model that edits the grid of period.
func New(ctx context.Context, coord *gridsync.Coordinator, period availability.Period) Model {
	return Model{
		ctx:     ctx,
		coord:   coord,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		styles:  DefaultStyles(),
		period:  period,
		loading: true,
	}
}

// Init loads the grid.
func (m Model) Init() tea.Cmd {
	return loadPeriod(m.ctx, m.coord, m.period)
}

// Run starts the grid editor and blocks until the user quits.
func Run(ctx context.Context, coord *gridsync.Coordinator, period availability.Period) error {
	p := tea.NewProgram(New(ctx, coord, period), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// currentKey returns the key under the cursor.
func (m Model) currentKey() (availability.Key, bool) {
	def := m.coord.Grid()
	if m.cursor.Date >= len(def.Dates) || m.cursor.Time >= len(def.Times) {
		return availability.Key{}, false
	}
	return availability.NewKey(def.Dates[m.cursor.Date], def.Times[m.cursor.Time]), true
}

// clampCursor keeps the cursor inside the grid.
func (m *Model) clampCursor() {
	def := m.coord.Grid()
	m.cursor.Date = clamp(m.cursor.Date, 0, len(def.Dates)-1)
	m.cursor.Time = clamp(m.cursor.Time, 0, len(def.Times)-1)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}

// otherPhase returns the period of the other defense phase.
func otherPhase(p availability.Period) availability.Period {
	if p.Phase == 1 {
		p.Phase = 2
	} else {
		p.Phase = 1
	}
	return p
}
