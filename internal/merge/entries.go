// Package merge converts between the local tracker shape and the flat wire
// shape, and reconciles two copies of either with last-writer-wins.
// Every function is pure; callers own persistence and transport.
package merge

import (
	"sort"
	"time"

	"github.com/julianstephens/hemma/internal/models"
)

// ToEntries flattens every (day, habit) cell into one entry stamped with its
// day's timestamp. Days without a timestamp are stamped now.
func ToEntries(state models.TrackerState, stamps models.DayUpdatedAtMap) []models.SyncEntry {
	return ToEntriesAt(state, stamps, time.Now())
}

// ToEntriesAt is ToEntries with an explicit clock.
func ToEntriesAt(state models.TrackerState, stamps models.DayUpdatedAtMap, now time.Time) []models.SyncEntry {
	fallback := models.FormatTimestamp(now)
	entries := make([]models.SyncEntry, 0, len(state)*8)

	for _, day := range sortedDays(state) {
		if !models.ValidDay(day) {
			continue
		}
		updatedAt := stamps[day]
		if updatedAt == "" {
			updatedAt = fallback
		}
		record := state[day]
		ids := make([]string, 0, len(record))
		for id := range record {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			entries = append(entries, models.SyncEntry{
				DayIndex:  day,
				HabitID:   id,
				Value:     record[id],
				UpdatedAt: updatedAt,
			})
		}
	}
	return entries
}

// FromEntries rebuilds the tracker state. A day's timestamp is the latest
// updatedAt among its entries. Entries outside the tracked period are dropped.
func FromEntries(entries []models.SyncEntry) (models.TrackerState, models.DayUpdatedAtMap) {
	state := make(models.TrackerState)
	stamps := make(models.DayUpdatedAtMap)

	for _, e := range entries {
		if !models.ValidDay(e.DayIndex) {
			continue
		}
		record, ok := state[e.DayIndex]
		if !ok {
			record = make(models.DayRecord)
			state[e.DayIndex] = record
		}
		record[e.HabitID] = e.Value

		if current, ok := stamps[e.DayIndex]; !ok || models.ParseTimestamp(e.UpdatedAt).After(models.ParseTimestamp(current)) {
			stamps[e.DayIndex] = e.UpdatedAt
		}
	}
	return state, stamps
}

// MergeEntries combines two entry sets keyed by (dayIndex, habitId). Remote
// entries seed the result; a local entry replaces the slot when its updatedAt
// is at or after the existing one, so exact ties go to local.
func MergeEntries(local, remote []models.SyncEntry) []models.SyncEntry {
	merged := make(map[models.EntryKey]models.SyncEntry, len(local)+len(remote))

	for _, e := range remote {
		put(merged, e)
	}
	for _, e := range local {
		put(merged, e)
	}

	out := make([]models.SyncEntry, 0, len(merged))
	for _, e := range merged {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayIndex != out[j].DayIndex {
			return out[i].DayIndex < out[j].DayIndex
		}
		return out[i].HabitID < out[j].HabitID
	})
	return out
}

func put(merged map[models.EntryKey]models.SyncEntry, e models.SyncEntry) {
	existing, ok := merged[e.Key()]
	if !ok || models.TimestampAtLeast(e.UpdatedAt, existing.UpdatedAt) {
		merged[e.Key()] = e
	}
}

func sortedDays(state models.TrackerState) []int {
	days := make([]int, 0, len(state))
	for day := range state {
		days = append(days, day)
	}
	sort.Ints(days)
	return days
}
