package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/defensegrid/internal/availability"
	"github.com/javiermolinar/defensegrid/internal/gridsync"
)

// LoadedMsg is sent when a period has been loaded.
type LoadedMsg struct {
	Period availability.Period
	Err    error
}

// SyncedMsg is sent when a synchronization has finished.
type SyncedMsg struct {
	Count int
	Err   error
}

// ConflictsReloadedMsg is sent when the blocked slots have been refetched.
type ConflictsReloadedMsg struct {
	Err error
}

// NavigationResolvedMsg is sent when a guarded navigation has been answered.
type NavigationResolvedMsg struct {
	Proceed bool
	Action  navAction
	Err     error
}

// loadPeriod selects period on the coordinator.
func loadPeriod(ctx context.Context, coord *gridsync.Coordinator, period availability.Period) tea.Cmd {
	return func() tea.Msg {
		return LoadedMsg{Period: period, Err: coord.SelectPeriod(ctx, period)}
	}
}

// synchronize pushes the pending edits.
func synchronize(ctx context.Context, coord *gridsync.Coordinator) tea.Cmd {
	return func() tea.Msg {
		n := coord.PendingChangeCount()
		return SyncedMsg{Count: n, Err: coord.Synchronize(ctx)}
	}
}

// reloadConflicts refetches the scheduled defenses.
func reloadConflicts(ctx context.Context, coord *gridsync.Coordinator) tea.Cmd {
	return func() tea.Msg {
		return ConflictsReloadedMsg{Err: coord.ReloadConflicts(ctx)}
	}
}

// resolveNavigation applies the modal choice, then reports whether action
// may run.
func resolveNavigation(ctx context.Context, coord *gridsync.Coordinator, choice gridsync.NavigationChoice, action navAction) tea.Cmd {
	return func() tea.Msg {
		proceed, err := coord.ResolveNavigation(ctx, choice)
		return NavigationResolvedMsg{Proceed: proceed, Action: action, Err: err}
	}
}
