package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the key bindings of the grid editor.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Toggle key.Binding
	Column key.Binding
	Sync   key.Binding
	Reload key.Binding
	Phase  key.Binding
	Fetch  key.Binding
	Help   key.Binding
	Quit   key.Binding

	// Navigation modal
	ConfirmSync    key.Binding
	ConfirmDiscard key.Binding
	Cancel         key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev date")),
		Right:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next date")),
		Toggle: key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle slot")),
		Column: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "toggle date")),
		Sync:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "synchronize")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload conflicts")),
		Phase:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "other phase")),
		Fetch:  key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload grid")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		ConfirmSync:    key.NewBinding(key.WithKeys("s", "y"), key.WithHelp("s", "sync and continue")),
		ConfirmDiscard: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "discard and continue")),
		Cancel:         key.NewBinding(key.WithKeys("esc", "n", "c"), key.WithHelp("esc", "keep editing")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Column, k.Sync, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Toggle, k.Column, k.Sync},
		{k.Reload, k.Phase, k.Fetch},
		{k.Help, k.Quit},
	}
}

type modalKeyMap struct{ k KeyMap }

func (m modalKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{m.k.ConfirmSync, m.k.ConfirmDiscard, m.k.Cancel}
}

func (m modalKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{m.ShortHelp()}
}
