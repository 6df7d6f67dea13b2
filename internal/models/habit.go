package models

// HabitType distinguishes check-off habits from counted ones.
type HabitType string

const (
	HabitTypeBoolean HabitType = "boolean"
	HabitTypeNumber  HabitType = "number"
)

// Valid reports whether t is a known habit type.
func (t HabitType) Valid() bool {
	return t == HabitTypeBoolean || t == HabitTypeNumber
}

type HabitItem struct {
	ID    string    `json:"id" bson:"id"`
	Label string    `json:"label" bson:"label"`
	Type  HabitType `json:"type" bson:"type"`
}

// HabitCategory is a themed group of habits, e.g. one prayer time.
type HabitCategory struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Icon  string      `json:"icon"`
	Items []HabitItem `json:"items"`
}

// Clone returns a copy whose item slice does not alias c.
func (c HabitCategory) Clone() HabitCategory {
	c.Items = append([]HabitItem(nil), c.Items...)
	if c.Items == nil {
		c.Items = []HabitItem{}
	}
	return c
}

// CloneCategories deep-copies a category list.
func CloneCategories(cats []HabitCategory) []HabitCategory {
	out := make([]HabitCategory, len(cats))
	for i, c := range cats {
		out[i] = c.Clone()
	}
	return out
}

// TotalHabits counts the items across all categories.
func TotalHabits(cats []HabitCategory) int {
	n := 0
	for _, c := range cats {
		n += len(c.Items)
	}
	return n
}

// FindHabit looks a habit up by id across all categories.
func FindHabit(cats []HabitCategory, id string) (HabitItem, bool) {
	for _, c := range cats {
		for _, item := range c.Items {
			if item.ID == id {
				return item, true
			}
		}
	}
	return HabitItem{}, false
}

// DefaultCategories returns a fresh copy of the built-in habit set.
func DefaultCategories() []HabitCategory {
	return CloneCategories(defaultCategories)
}

var defaultCategories = []HabitCategory{
	{
		ID:   "fajr",
		Name: "Fajr & Morning",
		Icon: "Sunrise",
		Items: []HabitItem{
			{ID: "fajr-adhan", Label: "Adhan remembrance", Type: HabitTypeBoolean},
			{ID: "fajr-dua", Label: "Dua between adhan and iqamah", Type: HabitTypeBoolean},
			{ID: "fajr-sunnah", Label: "Sunnah before", Type: HabitTypeBoolean},
			{ID: "fajr-prayer", Label: "Prayer in congregation / on time", Type: HabitTypeBoolean},
			{ID: "fajr-post-dhikr", Label: "Dhikr after prayer", Type: HabitTypeBoolean},
			{ID: "fajr-morning-azkar", Label: "Morning adhkar", Type: HabitTypeBoolean},
			{ID: "fajr-quran", Label: "Quran recitation", Type: HabitTypeNumber},
			{ID: "fajr-duha", Label: "Duha prayer", Type: HabitTypeBoolean},
		},
	},
	{
		ID:   "dhuhr",
		Name: "Dhuhr",
		Icon: "Sun",
		Items: []HabitItem{
			{ID: "dhuhr-adhan", Label: "Adhan remembrance", Type: HabitTypeBoolean},
			{ID: "dhuhr-dua", Label: "Dua between adhan and iqamah", Type: HabitTypeBoolean},
			{ID: "dhuhr-sunnah-before", Label: "Sunnah before", Type: HabitTypeBoolean},
			{ID: "dhuhr-prayer", Label: "Prayer in congregation / on time", Type: HabitTypeBoolean},
			{ID: "dhuhr-post-dhikr", Label: "Dhikr after prayer", Type: HabitTypeBoolean},
			{ID: "dhuhr-sunnah-after", Label: "Sunnah after", Type: HabitTypeBoolean},
			{ID: "dhuhr-quran", Label: "Quran recitation", Type: HabitTypeNumber},
		},
	},
	{
		ID:   "asr",
		Name: "Asr",
		Icon: "CloudSun",
		Items: []HabitItem{
			{ID: "asr-adhan", Label: "Adhan remembrance", Type: HabitTypeBoolean},
			{ID: "asr-dua", Label: "Dua between adhan and iqamah", Type: HabitTypeBoolean},
			{ID: "asr-sunnah", Label: "Sunnah before", Type: HabitTypeBoolean},
			{ID: "asr-prayer", Label: "Prayer in congregation / on time", Type: HabitTypeBoolean},
			{ID: "asr-post-dhikr", Label: "Dhikr after prayer", Type: HabitTypeBoolean},
			{ID: "asr-evening-azkar", Label: "Evening adhkar", Type: HabitTypeBoolean},
			{ID: "asr-quran", Label: "Quran recitation", Type: HabitTypeNumber},
			{ID: "asr-iftar-dua", Label: "Dua before iftar", Type: HabitTypeBoolean},
		},
	},
	{
		ID:   "maghrib-isha",
		Name: "Maghrib & Isha",
		Icon: "Sunset",
		Items: []HabitItem{
			{ID: "maghrib-adhan", Label: "Maghrib: adhan remembrance and dua", Type: HabitTypeBoolean},
			{ID: "maghrib-sunnah", Label: "Maghrib: sunnah before and after", Type: HabitTypeBoolean},
			{ID: "maghrib-prayer", Label: "Maghrib: prayer on time", Type: HabitTypeBoolean},
			{ID: "isha-adhan", Label: "Isha: adhan remembrance and dua", Type: HabitTypeBoolean},
			{ID: "isha-sunnah", Label: "Isha: sunnah before and after", Type: HabitTypeBoolean},
			{ID: "isha-prayer", Label: "Isha: prayer on time", Type: HabitTypeBoolean},
			{ID: "isha-taraweeh", Label: "Taraweeh", Type: HabitTypeBoolean},
			{ID: "isha-quran", Label: "Evening Quran recitation", Type: HabitTypeNumber},
		},
	},
	{
		ID:   "sahar",
		Name: "Suhoor & Night",
		Icon: "Moon",
		Items: []HabitItem{
			{ID: "sahar-tahajjud", Label: "Tahajjud", Type: HabitTypeBoolean},
			{ID: "sahar-witr", Label: "Witr", Type: HabitTypeBoolean},
			{ID: "sahar-istighfar", Label: "Istighfar before dawn", Type: HabitTypeNumber},
			{ID: "sahar-tadabbur", Label: "Reflection / tafsir reading", Type: HabitTypeNumber},
		},
	},
	{
		ID:   "general",
		Name: "General deeds",
		Icon: "Heart",
		Items: []HabitItem{
			{ID: "general-salawat", Label: "Salawat upon the Prophet", Type: HabitTypeNumber},
			{ID: "general-tasbih", Label: "Tasbih, tahmid and tahlil", Type: HabitTypeNumber},
			{ID: "general-parents", Label: "Kindness to parents", Type: HabitTypeBoolean},
			{ID: "general-kinship", Label: "Maintaining family ties", Type: HabitTypeBoolean},
			{ID: "general-feeding", Label: "Feeding others / iftar for a fasting person", Type: HabitTypeBoolean},
			{ID: "general-sadaqah", Label: "Sadaqah", Type: HabitTypeNumber},
		},
	},
}
