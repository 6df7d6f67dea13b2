package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Toggle   key.Binding
	Inc      key.Binding
	Dec      key.Binding
	SetValue key.Binding
	PrevDay  key.Binding
	NextDay  key.Binding
	Today    key.Binding
	Sync     key.Binding
	Tab      key.Binding
	Theme    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", "x"),
			key.WithHelp("enter/x", "toggle"),
		),
		Inc: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "count up"),
		),
		Dec: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "count down"),
		),
		SetValue: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "enter count"),
		),
		PrevDay: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev day"),
		),
		NextDay: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next day"),
		),
		Today: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "today"),
		),
		Sync: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sync now"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch view"),
		),
		Theme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "theme"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.PrevDay, k.NextDay, k.Tab, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Inc, k.Dec, k.SetValue},
		{k.PrevDay, k.NextDay, k.Today},
		{k.Sync, k.Tab, k.Theme, k.Help, k.Quit},
	}
}
