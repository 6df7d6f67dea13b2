package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/hemma/internal/app"
	"github.com/julianstephens/hemma/internal/config"
	"github.com/julianstephens/hemma/internal/constants"
	"github.com/julianstephens/hemma/internal/models"
)

type stubPrompter struct {
	confirm bool
}

func (p stubPrompter) Confirm(string) (bool, error) { return p.confirm, nil }
func (p stubPrompter) Input(string) (string, error) { return "", nil }
func (p stubPrompter) Password(string) (string, error) { return "", nil }

func setupTestContext(t *testing.T) (*Context, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Backend = constants.BackendJSON

	out := &bytes.Buffer{}
	ctx := NewContext(t.TempDir(), cfg)
	ctx.Out = out
	ctx.Prompt = stubPrompter{}
	ctx.AppOptions = []app.Option{app.WithClock(func() time.Time {
		return time.Date(2026, 2, 20, 5, 0, 0, 0, time.UTC)
	})}
	t.Cleanup(func() {
		if err := ctx.Close(); err != nil {
			t.Errorf("failed to close context: %v", err)
		}
	})
	return ctx, out
}

func TestResolveHabit(t *testing.T) {
	cats := []models.HabitCategory{
		{ID: "a", Items: []models.HabitItem{
			{ID: "a-1", Label: "Witr", Type: models.HabitTypeBoolean},
			{ID: "a-2", Label: "Quran", Type: models.HabitTypeNumber},
		}},
		{ID: "b", Items: []models.HabitItem{
			{ID: "b-1", Label: "Quran", Type: models.HabitTypeNumber},
		}},
	}

	tests := []struct {
		name    string
		query   string
		wantID  string
		wantErr bool
	}{
		{"by id", "a-2", "a-2", false},
		{"by label", "witr", "a-1", false},
		{"trimmed", "  b-1 ", "b-1", false},
		{"ambiguous label", "Quran", "", true},
		{"unknown", "tahajjud", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := ResolveHabit(cats, tt.query)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveHabit(%q) error = %v, wantErr %v", tt.query, err, tt.wantErr)
			}
			if item.ID != tt.wantID {
				t.Errorf("ResolveHabit(%q) = %q, want %q", tt.query, item.ID, tt.wantID)
			}
		})
	}
}

func TestFormatValue(t *testing.T) {
	boolean := models.HabitItem{Type: models.HabitTypeBoolean}
	number := models.HabitItem{Type: models.HabitTypeNumber}

	tests := []struct {
		name string
		item models.HabitItem
		v    models.HabitValue
		want string
	}{
		{"unchecked", boolean, models.Bool(false), "[ ]"},
		{"checked", boolean, models.Bool(true), "[✓]"},
		{"count on check-off habit", boolean, models.Count(2), "[✓]"},
		{"zero count", number, models.HabitValue{}, "[0]"},
		{"count", number, models.Count(7), "[7]"},
		{"toggled number habit", number, models.Bool(true), "[✓]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.item, tt.v); got != tt.want {
				t.Errorf("FormatValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTodayCmd(t *testing.T) {
	ctx, out := setupTestContext(t)

	if err := (&TodayCmd{IDs: true}).Run(ctx); err != nil {
		t.Fatalf("today failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Day 1/30", "Fajr & Morning", "(fajr-prayer)"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestToggleCmd(t *testing.T) {
	ctx, out := setupTestContext(t)

	if err := (&ToggleCmd{Habit: "fajr-prayer"}).Run(ctx); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	a, _ := ctx.App()
	if !a.Tracker.Value("fajr-prayer").IsCompleted() {
		t.Error("habit should be done after toggle")
	}
	if stamp := a.Tracker.DayUpdatedAt()[0]; stamp != "2026-02-20T05:00:00.000Z" {
		t.Errorf("day stamp = %q", stamp)
	}
	if !strings.Contains(out.String(), "marked done") {
		t.Errorf("unexpected output: %s", out.String())
	}

	if err := (&ToggleCmd{Habit: "fajr-prayer"}).Run(ctx); err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if a.Tracker.Value("fajr-prayer").IsCompleted() {
		t.Error("habit should be undone after second toggle")
	}

	if err := (&ToggleCmd{Habit: "nope"}).Run(ctx); err == nil {
		t.Error("expected error for unknown habit")
	}
}

func TestSetCmd(t *testing.T) {
	tests := []struct {
		name    string
		habit   string
		count   int
		want    int
		wantErr bool
	}{
		{"count", "fajr-quran", 5, 5, false},
		{"negative clamps", "fajr-quran", -3, 0, false},
		{"check-off habit", "fajr-prayer", 2, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := setupTestContext(t)
			err := (&SetCmd{Habit: tt.habit, Count: tt.count}).Run(ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("set error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			a, _ := ctx.App()
			if got := a.Tracker.Value(tt.habit).Count; got != tt.want {
				t.Errorf("count = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDayCmd(t *testing.T) {
	tests := []struct {
		name    string
		cmd     DayCmd
		start   int
		want    int
		wantErr bool
	}{
		{"select day", DayCmd{Day: 5}, 0, 4, false},
		{"out of range", DayCmd{Day: 31}, 0, 0, true},
		{"next", DayCmd{Next: true}, 3, 4, false},
		{"next clamps", DayCmd{Next: true}, 29, 29, false},
		{"prev clamps", DayCmd{Prev: true}, 0, 0, false},
		{"today", DayCmd{Today: true}, 10, 2, false},
		{"show only", DayCmd{}, 7, 7, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := setupTestContext(t)
			a, err := ctx.App()
			if err != nil {
				t.Fatal(err)
			}
			a.Tracker.SetCurrentDay(tt.start)

			cmd := tt.cmd
			err = cmd.Run(ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("day error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := a.Tracker.CurrentDay(); got != tt.want {
				t.Errorf("current day = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStatsCmd(t *testing.T) {
	ctx, out := setupTestContext(t)
	a, err := ctx.App()
	if err != nil {
		t.Fatal(err)
	}
	a.Tracker.Toggle("fajr-prayer")
	a.Tracker.SetValue("fajr-quran", 3)

	if err := (&StatsCmd{}).Run(ctx); err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"XP today:   20", "XP total:   20", "Streak:     1", "Days: ◆"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestThemeCmd(t *testing.T) {
	ctx, out := setupTestContext(t)

	if err := (&ThemeCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != constants.ThemeDark {
		t.Errorf("default theme = %q", out.String())
	}

	if err := (&ThemeCmd{Theme: constants.ThemeLight}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	a, _ := ctx.App()
	if got := a.Theme.Get(); got != constants.ThemeLight {
		t.Errorf("theme = %q, want light", got)
	}
}
