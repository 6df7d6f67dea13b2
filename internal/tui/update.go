package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/hemma/internal/auth"
	"github.com/julianstephens/hemma/internal/constants"
	"github.com/julianstephens/hemma/internal/models"
	"github.com/julianstephens/hemma/internal/tui/components/categorylist"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == StateForm {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.categories.SetSize(msg.Width, max(msg.Height-12, 5))
		return m, nil

	case changedMsg:
		m.refresh()
		return m, waitForChange(m.changes)

	case syncDoneMsg:
		m.syncing = false
		switch {
		case msg.err == nil:
			m.status = "Synced"
		case errors.Is(msg.err, auth.ErrNotSignedIn):
			m.status = "Sign in with 'hemma login' to sync"
		default:
			m.status = "Sync failed: " + msg.err.Error()
		}
		return m, nil

	case categorylist.AddCategoryMsg:
		return m.openCategoryForm("New category", models.HabitCategory{Icon: "Star"}, func(name, icon string) error {
			_, err := m.app.Habits.AddCategory(name, icon)
			return err
		})
	case categorylist.EditCategoryMsg:
		id := msg.Category.ID
		return m.openCategoryForm("Edit "+msg.Category.Name, msg.Category, func(name, icon string) error {
			return m.app.Habits.UpdateCategory(id, name, icon)
		})
	case categorylist.DeleteCategoryMsg:
		return m.openDeleteForm(msg.Category)
	case categorylist.AddHabitMsg:
		return m.openHabitForm(msg.Category)
	case categorylist.MoveCategoryMsg:
		if err := m.app.Habits.ReorderCategories(msg.From, msg.To); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.categories.Select(msg.To)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		m.state = (m.state + 1) % SessionState(len(tabTitles))
		return m, nil
	case key.Matches(msg, m.keys.PrevDay):
		m.app.Tracker.SetCurrentDay(m.app.Tracker.CurrentDay() - 1)
		return m, nil
	case key.Matches(msg, m.keys.NextDay):
		m.app.Tracker.SetCurrentDay(m.app.Tracker.CurrentDay() + 1)
		return m, nil
	case key.Matches(msg, m.keys.Today):
		m.app.GoToToday()
		return m, nil
	case key.Matches(msg, m.keys.Theme):
		next := constants.ThemeLight
		if m.app.Theme.Get() == constants.ThemeLight {
			next = constants.ThemeDark
		}
		_ = m.app.SetTheme(next)
		m.styles = newStyles(next)
		return m, nil
	case key.Matches(msg, m.keys.Sync):
		if m.syncing {
			return m, nil
		}
		m.syncing = true
		m.status = "Syncing..."
		return m, m.syncCmd()
	}

	switch m.state {
	case StateHabits:
		var cmd tea.Cmd
		m.categories, cmd = m.categories.Update(msg)
		return m, cmd
	case StateToday:
	default:
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if r, ok := m.selected(); ok {
			m.app.Tracker.Toggle(r.habit.ID)
		}
	case key.Matches(msg, m.keys.Inc):
		if r, ok := m.selected(); ok && r.habit.Type == models.HabitTypeNumber {
			m.app.Tracker.SetValue(r.habit.ID, m.app.Tracker.Value(r.habit.ID).Count+1)
		}
	case key.Matches(msg, m.keys.Dec):
		if r, ok := m.selected(); ok && r.habit.Type == models.HabitTypeNumber {
			m.app.Tracker.SetValue(r.habit.ID, m.app.Tracker.Value(r.habit.ID).Count-1)
		}
	case key.Matches(msg, m.keys.SetValue):
		if r, ok := m.selected(); ok && r.habit.Type == models.HabitTypeNumber {
			return m.openValueForm(r)
		}
	}
	return m, nil
}

func (m Model) openForm(form *huh.Form, submit func() error) (tea.Model, tea.Cmd) {
	m.pending = &pendingForm{form: form, submit: submit, returnTo: m.state}
	m.state = StateForm
	return m, form.Init()
}

func (m Model) openValueForm(r row) (tea.Model, tea.Cmd) {
	tracker := m.app.Tracker
	habitID := r.habit.ID
	value := strconv.Itoa(tracker.Value(habitID).Count)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("%s (%s)", r.habit.Label, r.category)).
				Value(&value).
				Validate(validateCount),
		),
	)
	return m.openForm(form, func() error {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		tracker.SetValue(habitID, n)
		return nil
	})
}

func (m Model) openCategoryForm(title string, cat models.HabitCategory, save func(name, icon string) error) (tea.Model, tea.Cmd) {
	name, icon := cat.Name, cat.Icon
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(title).Placeholder("Name").Value(&name).Validate(requireText("name")),
			huh.NewInput().Title("Icon").Value(&icon).Validate(requireText("icon")),
		),
	)
	return m.openForm(form, func() error {
		return save(strings.TrimSpace(name), strings.TrimSpace(icon))
	})
}

func (m Model) openHabitForm(cat models.HabitCategory) (tea.Model, tea.Cmd) {
	habits := m.app.Habits
	var label string
	typ := models.HabitTypeBoolean
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("New habit in " + cat.Name).Value(&label).Validate(requireText("label")),
			huh.NewSelect[models.HabitType]().
				Title("Type").
				Options(
					huh.NewOption("Check off", models.HabitTypeBoolean),
					huh.NewOption("Count", models.HabitTypeNumber),
				).
				Value(&typ),
		),
	)
	return m.openForm(form, func() error {
		_, err := habits.AddHabit(cat.ID, strings.TrimSpace(label), typ)
		return err
	})
}

func (m Model) openDeleteForm(cat models.HabitCategory) (tea.Model, tea.Cmd) {
	habits := m.app.Habits
	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q and its %d habits?", cat.Name, len(cat.Items))).
				Affirmative("Delete").
				Negative("Keep").
				Value(&confirmed),
		),
	)
	return m.openForm(form, func() error {
		if !confirmed {
			return nil
		}
		return habits.RemoveCategory(cat.ID)
	})
}

func requireText(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}

func validateCount(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("enter a whole number")
	}
	if n < 0 {
		return errors.New("count cannot be negative")
	}
	return nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		return m.closeForm(), nil
	}
	if _, ok := msg.(changedMsg); ok {
		m.refresh()
		return m, waitForChange(m.changes)
	}

	form, cmd := m.pending.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.pending.form = f
	}

	switch m.pending.form.State {
	case huh.StateCompleted:
		submit := m.pending.submit
		m = m.closeForm()
		if err := submit(); err != nil {
			m.status = err.Error()
		}
		return m, nil
	case huh.StateAborted:
		return m.closeForm(), nil
	}
	return m, cmd
}

func (m Model) closeForm() Model {
	m.state = m.pending.returnTo
	m.pending = nil
	return m
}

func (m Model) syncCmd() tea.Cmd {
	a := m.app
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*constants.RemoteTimeout)
		defer cancel()
		return syncDoneMsg{err: a.SyncNow(ctx)}
	}
}
