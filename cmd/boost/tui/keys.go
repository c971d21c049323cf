package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap is the monitor's key bindings. It implements help.KeyMap.
type keyMap struct {
	Pause   key.Binding
	Refind  key.Binding
	Logs    key.Binding
	Filter  key.Binding
	Help    key.Binding
	Quit    key.Binding
	LogUp   key.Binding
	LogDown key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Pause:   key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p", "pause")),
		Refind:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "find again")),
		Logs:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "logs")),
		Filter:  key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "log level")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		LogUp:   key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
		LogDown: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Refind, k.Logs, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Refind, k.Quit},
		{k.Logs, k.Filter, k.LogUp, k.LogDown},
		{k.Help},
	}
}
