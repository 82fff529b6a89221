package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the UI's own bindings. Pause and step keys belong to the
// controller's hotkey dispatcher and are offered to it first.
type KeyMap struct {
	Pause  key.Binding // help only
	Step   key.Binding // help only
	Burst  key.Binding
	Config key.Binding
	Quit   key.Binding
}

var DefaultKeyMap = KeyMap{
	Pause: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "pause"),
	),
	Step: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "step"),
	),
	Burst: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "burst"),
	),
	Config: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "config"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k KeyMap) help() []key.Binding {
	return []key.Binding{k.Pause, k.Step, k.Burst, k.Config, k.Quit}
}
