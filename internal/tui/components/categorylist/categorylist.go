// Package categorylist is the habit category manager shown on the Habits tab.
package categorylist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/hemma/internal/models"
)

type AddCategoryMsg struct{}

type EditCategoryMsg struct {
	Category models.HabitCategory
}

type DeleteCategoryMsg struct {
	Category models.HabitCategory
}

type AddHabitMsg struct {
	Category models.HabitCategory
}

// MoveCategoryMsg carries 0-based positions.
type MoveCategoryMsg struct {
	From, To int
}

type Item struct {
	Category models.HabitCategory
}

func (i Item) Title() string {
	return i.Category.Name
}

func (i Item) Description() string {
	if len(i.Category.Items) == 0 {
		return i.Category.Icon + " | no habits"
	}
	labels := make([]string, len(i.Category.Items))
	for j, h := range i.Category.Items {
		labels[j] = h.Label
	}
	return fmt.Sprintf("%s | %d habits: %s", i.Category.Icon, len(labels), strings.Join(labels, ", "))
}

func (i Item) FilterValue() string { return i.Category.Name }

type KeyMap struct {
	Add      key.Binding
	AddHabit key.Binding
	Edit     key.Binding
	Delete   key.Binding
	MoveUp   key.Binding
	MoveDown key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add category"),
		),
		AddHabit: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "add habit"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "rename"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "move up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "move down"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(categories []models.HabitCategory, width, height int) Model {
	l := list.New(toItems(categories), list.NewDefaultDelegate(), width, height)
	l.Title = "Habits"
	l.SetShowTitle(false)
	l.SetShowHelp(false) // help is rendered by the main model
	l.SetFilteringEnabled(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Edit, keys.Delete}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.AddHabit, keys.Edit, keys.Delete, keys.MoveUp, keys.MoveDown}
	}

	return Model{list: l, keys: keys}
}

func toItems(categories []models.HabitCategory) []list.Item {
	items := make([]list.Item, len(categories))
	for i, c := range categories {
		items[i] = Item{Category: c}
	}
	return items
}

func (m *Model) SetCategories(categories []models.HabitCategory) {
	m.list.SetItems(toItems(categories))
	if idx := m.list.Index(); idx >= len(categories) && len(categories) > 0 {
		m.list.Select(len(categories) - 1)
	}
}

func (m Model) Index() int {
	return m.list.Index()
}

func (m *Model) Select(i int) {
	m.list.Select(i)
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		selected, hasSelection := m.list.SelectedItem().(Item)
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddCategoryMsg{} }
		case key.Matches(msg, m.keys.AddHabit):
			if hasSelection {
				return m, func() tea.Msg { return AddHabitMsg{Category: selected.Category} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Edit):
			if hasSelection {
				return m, func() tea.Msg { return EditCategoryMsg{Category: selected.Category} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if hasSelection {
				return m, func() tea.Msg { return DeleteCategoryMsg{Category: selected.Category} }
			}
			return m, nil
		case key.Matches(msg, m.keys.MoveUp):
			if idx := m.list.Index(); hasSelection && idx > 0 {
				return m, func() tea.Msg { return MoveCategoryMsg{From: idx, To: idx - 1} }
			}
			return m, nil
		case key.Matches(msg, m.keys.MoveDown):
			if idx := m.list.Index(); hasSelection && idx < len(m.list.Items())-1 {
				return m, func() tea.Msg { return MoveCategoryMsg{From: idx, To: idx + 1} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return "\n  No categories yet.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
