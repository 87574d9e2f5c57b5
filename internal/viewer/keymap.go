package viewer

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Toggle    key.Binding
	Details   key.Binding
	Tab       key.Binding
	ShiftTab  key.Binding
	PaneUp    key.Binding
	PaneDown  key.Binding
	Continue  key.Binding
	Pause     key.Binding
	StepIn    key.Binding
	StepOver  key.Binding
	StepOut   key.Binding
	Refresh   key.Binding
	Terminate key.Binding
	Quit      key.Binding
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Details, k.Tab, k.Continue, k.Pause, k.StepIn, k.StepOver, k.StepOut, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Toggle, k.Details, k.Tab, k.ShiftTab, k.PaneUp, k.PaneDown, k.Refresh},
		{k.Continue, k.Pause, k.StepIn, k.StepOver, k.StepOut},
		{k.Terminate, k.Quit},
	}
}

var keys = KeyMap{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	PageUp:    key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
	PageDown:  key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdown", "page down")),
	Toggle:    key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "expand")),
	Details:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "details")),
	Tab:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
	ShiftTab:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous pane")),
	PaneUp:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "scroll pane up")),
	PaneDown:  key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "scroll pane down")),
	Continue:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "continue")),
	Pause:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
	StepIn:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "step in")),
	StepOver:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "step over")),
	StepOut:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "step out")),
	Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Terminate: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "terminate")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}
