package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/defensegrid/internal/gridsync"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case LoadedMsg:
		m.loading = false
		if errors.Is(msg.Err, gridsync.ErrSuperseded) {
			return m, nil
		}
		m.period = msg.Period
		m.err = msg.Err
		if msg.Err == nil {
			m.status = fmt.Sprintf("Loaded %s", msg.Period)
		}
		m.clampCursor()
		return m, nil

	case SyncedMsg:
		m.syncing = false
		m.err = msg.Err
		if msg.Err == nil {
			m.status = fmt.Sprintf("Synchronized %d changes", msg.Count)
		}
		return m, nil

	case ConflictsReloadedMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.status = fmt.Sprintf("%d blocked slots", len(m.coord.BlockedMap()))
		}
		return m, nil

	case NavigationResolvedMsg:
		m.syncing = false
		m.mode = ModeGrid
		m.err = msg.Err
		if !msg.Proceed {
			return m, nil
		}
		return m.perform(msg.Action)
	}

	return m, nil
}

// handleKeyMsg handles keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == ModeModal {
		return m.handleModalKeys(msg)
	}
	return m.handleGridKeys(msg)
}

func (m Model) handleGridKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.navigate(navAction{kind: navQuit})
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.loading {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor.Time--
	case key.Matches(msg, m.keys.Down):
		m.cursor.Time++
	case key.Matches(msg, m.keys.Left):
		m.cursor.Date--
	case key.Matches(msg, m.keys.Right):
		m.cursor.Date++

	case key.Matches(msg, m.keys.Toggle):
		m.toggleSlot()
	case key.Matches(msg, m.keys.Column):
		m.toggleColumn()

	case key.Matches(msg, m.keys.Sync):
		if m.syncing {
			return m, nil
		}
		if m.coord.PendingChangeCount() == 0 {
			m.status = "Nothing to synchronize"
			return m, nil
		}
		m.syncing = true
		m.status = "Synchronizing..."
		return m, synchronize(m.ctx, m.coord)

	case key.Matches(msg, m.keys.Reload):
		m.status = "Reloading conflicts..."
		return m, reloadConflicts(m.ctx, m.coord)

	case key.Matches(msg, m.keys.Phase):
		return m.navigate(navAction{kind: navSwitchPhase, period: otherPhase(m.period)})
	case key.Matches(msg, m.keys.Fetch):
		return m.navigate(navAction{kind: navReload, period: m.period})
	}

	m.clampCursor()
	return m, nil
}

func (m Model) handleModalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.syncing {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.ConfirmSync):
		m.syncing = true
		m.status = "Synchronizing..."
		return m, resolveNavigation(m.ctx, m.coord, gridsync.NavSync, m.pending)
	case key.Matches(msg, m.keys.ConfirmDiscard):
		return m, resolveNavigation(m.ctx, m.coord, gridsync.NavDiscard, m.pending)
	case key.Matches(msg, m.keys.Cancel):
		m.mode = ModeGrid
		return m, resolveNavigation(m.ctx, m.coord, gridsync.NavCancel, m.pending)
	}
	return m, nil
}

// navigate runs action, asking for confirmation first when there are
// unsynchronized edits.
func (m Model) navigate(action navAction) (tea.Model, tea.Cmd) {
	if m.syncing {
		m.status = "Synchronization in progress"
		return m, nil
	}
	req := m.coord.RequestNavigation()
	if !req.MustConfirm {
		return m.perform(action)
	}
	m.mode = ModeModal
	m.pending = action
	m.pendingCount = req.PendingCount
	return m, nil
}

func (m Model) perform(action navAction) (tea.Model, tea.Cmd) {
	switch action.kind {
	case navQuit:
		return m, tea.Quit
	default:
		m.loading = true
		m.err = nil
		m.status = fmt.Sprintf("Loading %s...", action.period)
		return m, loadPeriod(m.ctx, m.coord, action.period)
	}
}

func (m *Model) toggleSlot() {
	k, ok := m.currentKey()
	if !ok {
		return
	}
	if reason, blocked := m.coord.BlockedMap()[k]; blocked {
		m.status = fmt.Sprintf("%s %s is blocked (%s)", k.Date, k.Time.Short(), reason)
		return
	}
	m.err = m.coord.ToggleSlot(k, !m.coord.CurrentMap()[k])
	m.status = ""
}

func (m *Model) toggleColumn() {
	k, ok := m.currentKey()
	if !ok {
		return
	}
	m.err = m.coord.ToggleColumn(k.Date)
	m.status = ""
}
