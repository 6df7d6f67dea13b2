package models

import "github.com/julianstephens/hemma/internal/constants"

// DayRecord maps a habit id to the value recorded for it on one day.
// Only habits the user touched that day are present.
type DayRecord map[string]HabitValue

// TrackerState maps a day index to that day's record.
type TrackerState map[int]DayRecord

// DayUpdatedAtMap maps a day index to the timestamp of its last local change.
type DayUpdatedAtMap map[int]string

// Clone returns a deep copy of the state.
func (s TrackerState) Clone() TrackerState {
	out := make(TrackerState, len(s))
	for day, record := range s {
		out[day] = record.Clone()
	}
	return out
}

// Clone returns a copy of the record.
func (r DayRecord) Clone() DayRecord {
	out := make(DayRecord, len(r))
	for id, v := range r {
		out[id] = v
	}
	return out
}

// Clone returns a copy of the map.
func (m DayUpdatedAtMap) Clone() DayUpdatedAtMap {
	out := make(DayUpdatedAtMap, len(m))
	for day, ts := range m {
		out[day] = ts
	}
	return out
}

// CompletedCount counts the habits on a day whose value is completed.
func (r DayRecord) CompletedCount() int {
	n := 0
	for _, v := range r {
		if v.IsCompleted() {
			n++
		}
	}
	return n
}

// TotalXP sums completed habits across every tracked day.
func (s TrackerState) TotalXP() int {
	total := 0
	for day := 0; day < constants.TotalDays; day++ {
		total += s[day].CompletedCount() * constants.XPPerHabit
	}
	return total
}

// Streak counts consecutive days ending at currentDay, walking backwards,
// that each have at least one completed habit.
func (s TrackerState) Streak(currentDay int) int {
	streak := 0
	for day := currentDay; day >= 0; day-- {
		if s[day].CompletedCount() == 0 {
			break
		}
		streak++
	}
	return streak
}

// BlockCompletion reports, per category, whether every habit in it is completed on the day.
// An empty category counts as complete.
func (r DayRecord) BlockCompletion(categories []HabitCategory) map[string]bool {
	out := make(map[string]bool, len(categories))
	for _, cat := range categories {
		done := true
		for _, item := range cat.Items {
			if !r[item.ID].IsCompleted() {
				done = false
				break
			}
		}
		out[cat.ID] = done
	}
	return out
}
