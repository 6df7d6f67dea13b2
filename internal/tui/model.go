// Package tui is the interactive view of the current day's habits.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/hemma/internal/app"
	"github.com/julianstephens/hemma/internal/models"
	"github.com/julianstephens/hemma/internal/tui/components/categorylist"
)

type SessionState int

// Tab states come first, in the order their tabs are drawn.
const (
	StateToday SessionState = iota
	StateStats
	StateHabits
	StateForm
)

var tabTitles = []string{"Today", "Stats", "Habits"}

// row is one habit on the today view.
type row struct {
	category string
	habit    models.HabitItem
}

// pendingForm is a huh form shown in place of the current tab.
type pendingForm struct {
	form     *huh.Form
	submit   func() error
	returnTo SessionState
}

type Model struct {
	app      *app.App
	state    SessionState
	keys     KeyMap
	help     help.Model
	progress progress.Model
	styles   styles

	rows       []row
	cursor     int
	categories categorylist.Model

	pending *pendingForm

	changes chan struct{}
	unsubs  []func()

	status   string
	syncing  bool
	quitting bool
	width    int
	height   int
}

type changedMsg struct{}

type syncDoneMsg struct {
	err error
}

func NewModel(a *app.App) Model {
	m := Model{
		app:      a,
		state:    StateToday,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		styles:   newStyles(a.Theme.Get()),
		changes:  make(chan struct{}, 1),
	}
	m.categories = categorylist.New(a.Habits.Categories(), 60, 16)

	// models change underneath us when a sync lands or another process writes
	notify := func() {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	}
	m.unsubs = []func(){
		a.Tracker.Subscribe(notify),
		a.Habits.Subscribe(notify),
		a.Session.Subscribe(notify),
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

// Close stops listening for model changes.
func (m Model) Close() {
	for _, unsub := range m.unsubs {
		unsub()
	}
}

func (m *Model) refresh() {
	cats := m.app.Habits.Categories()
	m.categories.SetCategories(cats)
	m.rows = nil
	for _, cat := range cats {
		for _, item := range cat.Items {
			m.rows = append(m.rows, row{category: cat.Name, habit: item})
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.styles = newStyles(m.app.Theme.Get())
}

func (m Model) selected() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

// Run starts the program and blocks until the user quits.
func Run(a *app.App) error {
	m := NewModel(a)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
