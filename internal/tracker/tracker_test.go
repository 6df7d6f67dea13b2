package tracker

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/hemma/internal/models"
	"github.com/julianstephens/hemma/internal/storage"
)

var fixedNow = time.Date(2026, 2, 20, 4, 30, 0, 0, time.UTC)

func newStore(t *testing.T) *storage.JSONStore {
	t.Helper()
	s := storage.NewJSONStore(filepath.Join(t.TempDir(), "hemma.json"))
	if err := s.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return s
}

func newTracker(t *testing.T, store storage.Provider) *Tracker {
	t.Helper()
	tr := New(store, WithClock(func() time.Time { return fixedNow }))
	tr.Hydrate()
	return tr
}

func TestValueDefaultsToFalse(t *testing.T) {
	tr := newTracker(t, newStore(t))
	if got := tr.Value("fajr-prayer"); got != models.Bool(false) {
		t.Errorf("Value() = %+v, want false", got)
	}
}

func TestToggle(t *testing.T) {
	tests := []struct {
		name  string
		start *models.HabitValue
		want  models.HabitValue
	}{
		{name: "absent becomes true", start: nil, want: models.Bool(true)},
		{name: "true becomes false", start: ptr(models.Bool(true)), want: models.Bool(false)},
		{name: "zero count becomes true", start: ptr(models.Count(0)), want: models.Bool(true)},
		{name: "positive count becomes false", start: ptr(models.Count(4)), want: models.Bool(false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracker(t, newStore(t))
			if tt.start != nil {
				tr.SetState(models.TrackerState{0: models.DayRecord{"h": *tt.start}})
			}
			if got := tr.Toggle("h"); got != tt.want {
				t.Errorf("Toggle() = %+v, want %+v", got, tt.want)
			}
			if got := tr.DayUpdatedAt()[0]; got != models.FormatTimestamp(fixedNow) {
				t.Errorf("day stamp = %q, want %q", got, models.FormatTimestamp(fixedNow))
			}
		})
	}
}

func TestSetValueClampsAndStamps(t *testing.T) {
	tr := newTracker(t, newStore(t))
	tr.SetCurrentDay(6)

	if got := tr.SetValue("fajr-quran", -3); got != models.Count(0) {
		t.Errorf("SetValue(-3) = %+v, want 0", got)
	}
	if got := tr.SetValue("fajr-quran", 5); got != models.Count(5) {
		t.Errorf("SetValue(5) = %+v, want 5", got)
	}
	if _, ok := tr.DayUpdatedAt()[6]; !ok {
		t.Error("day 6 was not stamped")
	}
	if _, ok := tr.DayUpdatedAt()[0]; ok {
		t.Error("untouched day 0 was stamped")
	}
}

func TestSetCurrentDayClamps(t *testing.T) {
	tr := newTracker(t, newStore(t))
	tr.SetCurrentDay(99)
	if got := tr.CurrentDay(); got != 29 {
		t.Errorf("CurrentDay() = %d, want 29", got)
	}
	tr.SetCurrentDay(-1)
	if got := tr.CurrentDay(); got != 0 {
		t.Errorf("CurrentDay() = %d, want 0", got)
	}
}

func TestStats(t *testing.T) {
	tr := newTracker(t, newStore(t))
	cats := []models.HabitCategory{
		{ID: "fajr", Items: []models.HabitItem{{ID: "fajr-prayer"}, {ID: "fajr-quran"}}},
		{ID: "asr", Items: []models.HabitItem{{ID: "asr-prayer"}, {ID: "asr-quran"}}},
	}

	tr.SetCurrentDay(1)
	tr.Toggle("fajr-prayer")
	tr.SetCurrentDay(3)
	tr.Toggle("fajr-prayer")
	tr.SetValue("fajr-quran", 2)
	tr.SetValue("asr-quran", 0)

	s := tr.Stats(cats)
	if s.CompletedHabits != 2 || s.TodayXP != 20 {
		t.Errorf("completed = %d, todayXP = %d; want 2, 20", s.CompletedHabits, s.TodayXP)
	}
	if s.TotalXP != 30 {
		t.Errorf("TotalXP = %d, want 30", s.TotalXP)
	}
	if s.TodayProgress != 0.5 {
		t.Errorf("TodayProgress = %v, want 0.5", s.TodayProgress)
	}
	if s.Streak != 1 {
		t.Errorf("Streak = %d, want 1 (day 2 is empty)", s.Streak)
	}
	if !s.BlockCompletion["fajr"] || s.BlockCompletion["asr"] {
		t.Errorf("BlockCompletion = %v", s.BlockCompletion)
	}
	if got := tr.TodayProgress(0); got != 0 {
		t.Errorf("TodayProgress(0) = %v, want 0", got)
	}
}

func TestPersistsAcrossInstances(t *testing.T) {
	store := newStore(t)
	tr := newTracker(t, store)
	tr.SetCurrentDay(2)
	tr.Toggle("isha-taraweeh")

	fresh := New(store)
	if fresh.CurrentDay() != 0 || len(fresh.State()) != 0 {
		t.Fatal("values must not be visible before hydration")
	}
	fresh.Hydrate()
	if fresh.CurrentDay() != 2 {
		t.Errorf("CurrentDay() = %d, want 2", fresh.CurrentDay())
	}
	if !fresh.Value("isha-taraweeh").IsCompleted() {
		t.Error("toggled habit not persisted")
	}
}

func TestObserversAndReset(t *testing.T) {
	tr := newTracker(t, newStore(t))
	calls := 0
	unsub := tr.Subscribe(func() { calls++ })

	tr.Toggle("a")
	tr.SetValue("b", 1)
	tr.SetCurrentDay(4)
	tr.ResetProgress()
	if calls != 4 {
		t.Errorf("observer calls = %d, want 4", calls)
	}
	if len(tr.State()) != 0 || tr.CurrentDay() != 0 {
		t.Error("ResetProgress() left data behind")
	}
	if len(tr.DayUpdatedAt()) == 0 {
		t.Error("ResetProgress() should keep day stamps")
	}

	unsub()
	tr.Toggle("a")
	if calls != 4 {
		t.Error("unsubscribed observer was called")
	}
}

func TestStateIsACopy(t *testing.T) {
	tr := newTracker(t, newStore(t))
	tr.Toggle("a")
	s := tr.State()
	s[0]["a"] = models.Bool(false)
	if !tr.Value("a").IsCompleted() {
		t.Error("mutating State() leaked into the tracker")
	}
}

func ptr(v models.HabitValue) *models.HabitValue { return &v }

func TestApplyEntriesMergesWithLocal(t *testing.T) {
	const (
		older = "2026-02-19T08:00:00.000Z"
		newer = "2026-02-21T08:00:00.000Z"
	)
	store := newStore(t)
	tr := newTracker(t, store)
	tr.Toggle("fajr-prayer") // day 0, stamped fixedNow

	tests := []struct {
		name   string
		remote []models.SyncEntry
		day    int
		habit  string
		want   bool
		wantTS string
	}{
		{
			name:   "older remote loses to local edit",
			remote: []models.SyncEntry{{DayIndex: 0, HabitID: "fajr-prayer", Value: models.Bool(false), UpdatedAt: older}},
			day:    0, habit: "fajr-prayer", want: true, wantTS: models.FormatTimestamp(fixedNow),
		},
		{
			name:   "remote-only day is added",
			remote: []models.SyncEntry{{DayIndex: 4, HabitID: "asr-prayer", Value: models.Bool(true), UpdatedAt: newer}},
			day:    4, habit: "asr-prayer", want: true, wantTS: newer,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, stamps := tr.ApplyEntries(tt.remote)
			if got := state[tt.day][tt.habit].IsCompleted(); got != tt.want {
				t.Errorf("returned state[%d][%s] = %v, want %v", tt.day, tt.habit, got, tt.want)
			}
			if stamps[tt.day] != tt.wantTS {
				t.Errorf("stamps[%d] = %q, want %q", tt.day, stamps[tt.day], tt.wantTS)
			}
			if got := tr.State()[tt.day][tt.habit].IsCompleted(); got != tt.want {
				t.Errorf("stored state[%d][%s] = %v, want %v", tt.day, tt.habit, got, tt.want)
			}
		})
	}

	// the merge is written through
	reopened := newTracker(t, store)
	if !reopened.State()[4]["asr-prayer"].IsCompleted() || !reopened.State()[0]["fajr-prayer"].IsCompleted() {
		t.Errorf("persisted state = %v", reopened.State())
	}
}

func TestApplyEntriesNeverDropsConcurrentEdits(t *testing.T) {
	tr := newTracker(t, newStore(t))
	remote := []models.SyncEntry{
		{DayIndex: 0, HabitID: "remote-habit", Value: models.Bool(true), UpdatedAt: "2026-02-19T08:00:00.000Z"},
	}

	habits := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			tr.ApplyEntries(remote)
		}
	}()
	for _, h := range habits {
		tr.Toggle(h)
	}
	<-done

	state := tr.State()
	for _, h := range habits {
		if !state[0][h].IsCompleted() {
			t.Errorf("edit to %s lost while results were applied", h)
		}
	}
	if !state[0]["remote-habit"].IsCompleted() {
		t.Error("remote entry missing")
	}
}

func TestStatsIsOneSnapshot(t *testing.T) {
	tr := newTracker(t, newStore(t))
	cats := []models.HabitCategory{{ID: "fajr", Items: []models.HabitItem{{ID: "fajr-prayer"}}}}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			tr.Toggle("fajr-prayer")
		}
	}()
	for i := 0; i < 200; i++ {
		s := tr.Stats(cats)
		complete := s.CompletedHabits == 1
		if s.TodayXP != s.CompletedHabits*10 || s.TotalXP != s.TodayXP {
			t.Fatalf("XP disagrees with completions: %+v", s)
		}
		if s.BlockCompletion["fajr"] != complete || (s.TodayProgress == 1) != complete || (s.Streak == 1) != complete {
			t.Fatalf("aggregates read different states: %+v", s)
		}
	}
	<-done
}
