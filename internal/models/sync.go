package models

// SyncEntry is one timestamped (day, habit) cell on the wire; the unit of
// conflict resolution for tracked values.
type SyncEntry struct {
	DayIndex  int        `json:"dayIndex" bson:"dayIndex" binding:"dayindex"`
	HabitID   string     `json:"habitId" bson:"habitId" binding:"required,max=128"`
	Value     HabitValue `json:"value" bson:"-"`
	UpdatedAt string     `json:"updatedAt" bson:"updatedAt" binding:"required"`
}

// EntryKey identifies a SyncEntry within a collection.
type EntryKey struct {
	DayIndex int
	HabitID  string
}

func (e SyncEntry) Key() EntryKey {
	return EntryKey{DayIndex: e.DayIndex, HabitID: e.HabitID}
}

// SyncCategory is a whole habit category on the wire. It is replaced
// atomically by whichever copy carries the newer timestamp.
type SyncCategory struct {
	CategoryID string      `json:"categoryId" bson:"categoryId" binding:"required,max=128"`
	Name       string      `json:"name" bson:"name"`
	Icon       string      `json:"icon" bson:"icon"`
	Items      []HabitItem `json:"items" bson:"items" binding:"dive"`
	SortOrder  int         `json:"sortOrder" bson:"sortOrder" binding:"gte=0"`
	UpdatedAt  string      `json:"updatedAt" bson:"updatedAt" binding:"required"`
}

// SyncPayload is the body of an upload and the response of upload and download.
type SyncPayload struct {
	Entries    []SyncEntry    `json:"entries" binding:"dive"`
	Categories []SyncCategory `json:"categories" binding:"dive"`
}

// Normalize replaces nil collections with empty ones so they encode as [].
func (p SyncPayload) Normalize() SyncPayload {
	if p.Entries == nil {
		p.Entries = []SyncEntry{}
	}
	if p.Categories == nil {
		p.Categories = []SyncCategory{}
	}
	return p
}
