// Package tracker holds per-day habit values, their modification stamps and
// the selected day, and derives progress aggregates from them.
package tracker

import (
	"sync"
	"time"

	"github.com/julianstephens/hemma/internal/constants"
	"github.com/julianstephens/hemma/internal/merge"
	"github.com/julianstephens/hemma/internal/models"
	"github.com/julianstephens/hemma/internal/notify"
	"github.com/julianstephens/hemma/internal/storage"
)

// Stats bundles every derived aggregate for the selected day.
type Stats struct {
	CurrentDay      int
	TotalHabits     int
	CompletedHabits int
	TodayXP         int
	TotalXP         int
	TodayProgress   float64
	Streak          int
	BlockCompletion map[string]bool
}

type Tracker struct {
	mu     sync.Mutex
	state  *storage.Value[models.TrackerState]
	stamps *storage.Value[models.DayUpdatedAtMap]
	day    *storage.Value[int]
	now    func() time.Time
	hub    notify.Hub
}

type Option func(*Tracker)

// WithClock replaces time.Now for stamping days.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func New(store storage.Provider, opts ...Option) *Tracker {
	t := &Tracker{
		state:  storage.NewValue(store, constants.KeyTracker, models.TrackerState{}),
		stamps: storage.NewValue(store, constants.KeyDayUpdatedAt, models.DayUpdatedAtMap{}),
		day:    storage.NewValue(store, constants.KeyCurrentDay, 0),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Hydrate loads persisted values once and notifies observers.
func (t *Tracker) Hydrate() {
	t.mu.Lock()
	t.state.Hydrate()
	t.stamps.Hydrate()
	t.day.Hydrate()
	t.mu.Unlock()
	t.hub.Notify()
}

// Reload re-reads persisted values written by another process.
func (t *Tracker) Reload() {
	t.mu.Lock()
	t.state.Reload()
	t.stamps.Reload()
	t.day.Reload()
	t.mu.Unlock()
	t.hub.Notify()
}

func (t *Tracker) Subscribe(fn func()) func() {
	return t.hub.Subscribe(fn)
}

func (t *Tracker) CurrentDay() int {
	return models.ClampDay(t.day.Get())
}

// SetCurrentDay selects a day, clamped into the tracked period.
func (t *Tracker) SetCurrentDay(day int) {
	t.day.Set(models.ClampDay(day))
	t.hub.Notify()
}

// State returns a copy of every recorded value.
func (t *Tracker) State() models.TrackerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Get().Clone()
}

func (t *Tracker) DayUpdatedAt() models.DayUpdatedAtMap {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stamps.Get().Clone()
}

// SetState replaces the tracker state without stamping.
func (t *Tracker) SetState(state models.TrackerState) {
	t.mu.Lock()
	t.state.Set(state.Clone())
	t.mu.Unlock()
	t.hub.Notify()
}

// ApplyEntries merges remote entries into the recorded values, local winning
// ties, and returns the result. Reading the local side and writing the merge
// happen under one lock, so an edit can never land between them. Stamps of
// days the merge does not mention are kept.
func (t *Tracker) ApplyEntries(remote []models.SyncEntry) (models.TrackerState, models.DayUpdatedAtMap) {
	t.mu.Lock()
	local := merge.ToEntriesAt(t.state.Get(), t.stamps.Get(), t.now())
	state, stamps := merge.FromEntries(merge.MergeEntries(local, remote))
	for day, ts := range t.stamps.Get() {
		if _, ok := stamps[day]; !ok {
			stamps[day] = ts
		}
	}
	t.state.Set(state)
	t.stamps.Set(stamps)
	t.mu.Unlock()

	t.hub.Notify()
	return state.Clone(), stamps.Clone()
}

// Value returns the current day's value for habitID, false when absent.
func (t *Tracker) Value(habitID string) models.HabitValue {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Get()[t.CurrentDay()][habitID]
}

// Toggle flips the truthiness of a habit on the current day. Counted habits
// become true when zero and false otherwise.
func (t *Tracker) Toggle(habitID string) models.HabitValue {
	return t.updateDay(habitID, func(prev models.HabitValue) models.HabitValue {
		return models.Bool(!prev.IsCompleted())
	})
}

// SetValue records a count for the current day, clamped to zero.
func (t *Tracker) SetValue(habitID string, n int) models.HabitValue {
	return t.updateDay(habitID, func(models.HabitValue) models.HabitValue {
		return models.Count(n)
	})
}

func (t *Tracker) updateDay(habitID string, fn func(models.HabitValue) models.HabitValue) models.HabitValue {
	t.mu.Lock()
	day := t.CurrentDay()
	state := t.state.Get().Clone()
	record := state[day]
	if record == nil {
		record = make(models.DayRecord)
		state[day] = record
	}
	next := fn(record[habitID])
	record[habitID] = next
	t.state.Set(state)

	stamps := t.stamps.Get().Clone()
	stamps[day] = models.FormatTimestamp(t.now())
	t.stamps.Set(stamps)
	t.mu.Unlock()

	t.hub.Notify()
	return next
}

// ResetProgress clears every recorded value and returns to the first day.
// Day stamps are kept.
func (t *Tracker) ResetProgress() {
	t.mu.Lock()
	t.state.Set(models.TrackerState{})
	t.day.Set(0)
	t.mu.Unlock()
	t.hub.Notify()
}

func (t *Tracker) CompletedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Get()[t.CurrentDay()].CompletedCount()
}

func (t *Tracker) TodayXP() int {
	return t.CompletedCount() * constants.XPPerHabit
}

func (t *Tracker) TotalXP() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Get().TotalXP()
}

// TodayProgress is completed / totalHabits, 0 when there are no habits.
func (t *Tracker) TodayProgress(totalHabits int) float64 {
	if totalHabits <= 0 {
		return 0
	}
	return float64(t.CompletedCount()) / float64(totalHabits)
}

func (t *Tracker) Streak() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Get().Streak(t.CurrentDay())
}

func (t *Tracker) BlockCompletion(categories []models.HabitCategory) map[string]bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Get()[t.CurrentDay()].BlockCompletion(categories)
}

// Stats derives every aggregate from one snapshot of the state.
func (t *Tracker) Stats(categories []models.HabitCategory) Stats {
	t.mu.Lock()
	state := t.state.Get().Clone()
	day := t.CurrentDay()
	t.mu.Unlock()

	total := models.TotalHabits(categories)
	completed := state[day].CompletedCount()
	progress := 0.0
	if total > 0 {
		progress = float64(completed) / float64(total)
	}
	return Stats{
		CurrentDay:      day,
		TotalHabits:     total,
		CompletedHabits: completed,
		TodayXP:         completed * constants.XPPerHabit,
		TotalXP:         state.TotalXP(),
		TodayProgress:   progress,
		Streak:          state.Streak(day),
		BlockCompletion: state[day].BlockCompletion(categories),
	}
}
