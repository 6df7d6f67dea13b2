package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/hemma/internal/app"
	"github.com/julianstephens/hemma/internal/config"
	"github.com/julianstephens/hemma/internal/constants"
	"github.com/julianstephens/hemma/internal/models"
	"github.com/julianstephens/hemma/internal/tui/components/categorylist"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg := config.Default()
	cfg.Backend = constants.BackendJSON
	a, err := app.Open(t.TempDir(), cfg, app.WithClock(func() time.Time {
		return time.Date(2026, 2, 20, 5, 0, 0, 0, time.UTC)
	}))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	m := NewModel(a)
	t.Cleanup(func() {
		m.Close()
		_ = a.Close()
	})
	return m
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestRowsFollowCategories(t *testing.T) {
	m := newTestModel(t)
	if got, want := len(m.rows), models.TotalHabits(models.DefaultCategories()); got != want {
		t.Errorf("rows = %d, want %d", got, want)
	}
	if m.rows[0].habit.ID != models.DefaultCategories()[0].Items[0].ID {
		t.Errorf("first row = %+v", m.rows[0])
	}
}

func TestToggleSelectedHabit(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "down", "x")

	id := m.rows[1].habit.ID
	if !m.app.Tracker.Value(id).IsCompleted() {
		t.Errorf("%s not completed after toggle", id)
	}
	m = press(t, m, "enter")
	if m.app.Tracker.Value(id).IsCompleted() {
		t.Errorf("%s still completed after second toggle", id)
	}
}

func TestCountKeysOnlyAffectNumberHabits(t *testing.T) {
	m := newTestModel(t)

	numberRow, boolRow := -1, -1
	for i, r := range m.rows {
		if r.habit.Type == models.HabitTypeNumber && numberRow < 0 {
			numberRow = i
		}
		if r.habit.Type == models.HabitTypeBoolean && boolRow < 0 {
			boolRow = i
		}
	}

	m.cursor = numberRow
	m = press(t, m, "+", "+", "+", "-")
	if got := m.app.Tracker.Value(m.rows[numberRow].habit.ID).Count; got != 2 {
		t.Errorf("count = %d, want 2", got)
	}

	m.cursor = boolRow
	m = press(t, m, "+")
	if v := m.app.Tracker.Value(m.rows[boolRow].habit.ID); v.Numeric {
		t.Errorf("boolean habit became numeric: %+v", v)
	}
}

func TestDayNavigationClamps(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "h")
	if d := m.app.Tracker.CurrentDay(); d != 0 {
		t.Errorf("CurrentDay() = %d, want 0", d)
	}
	m = press(t, m, "right", "l")
	if d := m.app.Tracker.CurrentDay(); d != 2 {
		t.Errorf("CurrentDay() = %d, want 2", d)
	}
	m.app.Tracker.SetCurrentDay(constants.TotalDays - 1)
	m = press(t, m, "l")
	if d := m.app.Tracker.CurrentDay(); d != constants.TotalDays-1 {
		t.Errorf("CurrentDay() = %d, want %d", d, constants.TotalDays-1)
	}
}

func TestViewSwitchAndTheme(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "tab")
	if m.state != StateStats {
		t.Fatalf("state = %v, want stats", m.state)
	}
	if !strings.Contains(m.View(), "Total XP") {
		t.Error("stats view missing totals")
	}
	// toggling is ignored outside the today view
	m = press(t, m, "x")
	if len(m.app.Tracker.State()) != 0 {
		t.Error("toggle applied from the stats view")
	}

	m = press(t, m, "T")
	if m.app.Theme.Get() != constants.ThemeLight {
		t.Errorf("theme = %q, want light", m.app.Theme.Get())
	}
}

func TestValidateCount(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{in: "12"},
		{in: " 3 "},
		{in: "-1", wantErr: true},
		{in: "many", wantErr: true},
	}
	for _, tt := range tests {
		if err := validateCount(tt.in); (err != nil) != tt.wantErr {
			t.Errorf("validateCount(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestSyncDoneStatus(t *testing.T) {
	m := newTestModel(t)
	m.syncing = true
	next, _ := m.Update(syncDoneMsg{})
	m = next.(Model)
	if m.syncing || m.status != "Synced" {
		t.Errorf("status = %q syncing = %v", m.status, m.syncing)
	}
}

func TestHabitsTabReordersCategories(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "tab", "tab")
	if m.state != StateHabits {
		t.Fatalf("state = %v, want habits", m.state)
	}
	before := m.app.Habits.Categories()

	next, _ := m.Update(categorylist.MoveCategoryMsg{From: 0, To: 1})
	m = next.(Model)
	after := m.app.Habits.Categories()
	if after[0].ID != before[1].ID || after[1].ID != before[0].ID {
		t.Errorf("order after move = %s, %s", after[0].ID, after[1].ID)
	}
	if m.categories.Index() != 1 {
		t.Errorf("selection = %d, want to follow the moved category", m.categories.Index())
	}

	m = press(t, m, "tab")
	if m.state != StateToday {
		t.Errorf("tab from habits = %v, want today", m.state)
	}
}

func TestDeleteFormCanBeCancelled(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "tab", "tab")
	cat := m.app.Habits.Categories()[0]

	next, _ := m.Update(categorylist.DeleteCategoryMsg{Category: cat})
	m = next.(Model)
	if m.state != StateForm || m.pending == nil {
		t.Fatalf("state = %v, want form", m.state)
	}
	if !strings.Contains(m.View(), "Habits") {
		t.Error("tab bar hidden while the form is open")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	if m.state != StateHabits || m.pending != nil {
		t.Errorf("state after esc = %v, want habits", m.state)
	}
	if got := m.app.Habits.Categories()[0].ID; got != cat.ID {
		t.Errorf("category removed despite cancel: first is %s", got)
	}
}

func TestCategoryListEmitsActions(t *testing.T) {
	cats := models.DefaultCategories()
	l := categorylist.New(cats, 60, 20)

	tests := []struct {
		name string
		key  string
		want func(tea.Msg) bool
	}{
		{"delete", "d", func(msg tea.Msg) bool {
			d, ok := msg.(categorylist.DeleteCategoryMsg)
			return ok && d.Category.ID == cats[0].ID
		}},
		{"edit", "e", func(msg tea.Msg) bool {
			e, ok := msg.(categorylist.EditCategoryMsg)
			return ok && e.Category.ID == cats[0].ID
		}},
		{"add", "a", func(msg tea.Msg) bool {
			_, ok := msg.(categorylist.AddCategoryMsg)
			return ok
		}},
		{"add habit", "A", func(msg tea.Msg) bool {
			h, ok := msg.(categorylist.AddHabitMsg)
			return ok && h.Category.ID == cats[0].ID
		}},
		{"move down", "J", func(msg tea.Msg) bool {
			mv, ok := msg.(categorylist.MoveCategoryMsg)
			return ok && mv.From == 0 && mv.To == 1
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cmd := l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(tt.key)})
			if cmd == nil {
				t.Fatal("no command returned")
			}
			if msg := cmd(); !tt.want(msg) {
				t.Errorf("message = %#v", msg)
			}
		})
	}

	// the first category cannot move up
	if _, cmd := l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("K")}); cmd != nil {
		t.Errorf("move up at the top returned %#v", cmd())
	}
}
