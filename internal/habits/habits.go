// Package habits owns the user's customizable habit categories and the single
// timestamp that versions the whole collection for sync.
package habits

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/hemma/internal/constants"
	"github.com/julianstephens/hemma/internal/merge"
	"github.com/julianstephens/hemma/internal/models"
	"github.com/julianstephens/hemma/internal/notify"
	"github.com/julianstephens/hemma/internal/storage"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrHabitNotFound    = errors.New("habit not found")
	ErrInvalidIndex     = errors.New("position out of range")
)

type Model struct {
	mu         sync.Mutex
	categories *storage.Value[[]models.HabitCategory]
	updatedAt  *storage.Value[string]
	now        func() time.Time
	newID      func() string
	hub        notify.Hub
}

type Option func(*Model)

func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithIDGenerator replaces the uuid based identifier source.
func WithIDGenerator(fn func() string) Option {
	return func(m *Model) { m.newID = fn }
}

// New creates the model. Until the user edits anything the defaults carry
// the epoch timestamp, so an edit made on another device wins the first merge.
func New(store storage.Provider, opts ...Option) *Model {
	m := &Model{
		categories: storage.NewValue(store, constants.KeyCustomHabits, models.DefaultCategories()),
		updatedAt:  storage.NewValue(store, constants.KeyCustomHabitsUpdatedAt, models.EpochTimestamp),
		now:        time.Now,
		newID: func() string {
			return constants.CustomIDPrefix + uuid.New().String()
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Model) Hydrate() {
	m.mu.Lock()
	m.categories.Hydrate()
	m.updatedAt.Hydrate()
	m.mu.Unlock()
	m.hub.Notify()
}

func (m *Model) Reload() {
	m.mu.Lock()
	m.categories.Reload()
	m.updatedAt.Reload()
	m.mu.Unlock()
	m.hub.Notify()
}

func (m *Model) Subscribe(fn func()) func() {
	return m.hub.Subscribe(fn)
}

// Categories returns a copy of the collection in display order.
func (m *Model) Categories() []models.HabitCategory {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.CloneCategories(m.categories.Get())
}

func (m *Model) UpdatedAt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updatedAt.Get()
}

// SetCategories replaces the collection without stamping; sync uses it.
func (m *Model) SetCategories(cats []models.HabitCategory) {
	m.mu.Lock()
	m.categories.Set(models.CloneCategories(cats))
	m.mu.Unlock()
	m.hub.Notify()
}

func (m *Model) SetUpdatedAt(ts string) {
	m.mu.Lock()
	m.updatedAt.Set(ts)
	m.mu.Unlock()
	m.hub.Notify()
}

// ApplyCategories merges remote categories into the collection, local
// winning ties, and returns the collection with its stamp. The stamp becomes
// the latest category updatedAt. Nothing changes when the merged set is
// empty. The merge runs under the model lock, so a concurrent edit is either
// part of the local side or lands after the result.
func (m *Model) ApplyCategories(remote []models.SyncCategory) ([]models.HabitCategory, string) {
	m.mu.Lock()
	local := merge.ToCategoryPayloadAt(m.categories.Get(), m.updatedAt.Get(), m.now())
	merged := merge.MergeCategories(local, remote)
	if len(merged) == 0 {
		cats, ts := models.CloneCategories(m.categories.Get()), m.updatedAt.Get()
		m.mu.Unlock()
		return cats, ts
	}
	cats := merge.FromCategoryPayload(merged)
	ts := merge.LatestCategoryTime(merged)
	m.categories.Set(cats)
	m.updatedAt.Set(ts)
	m.mu.Unlock()

	m.hub.Notify()
	return models.CloneCategories(cats), ts
}

// AddCategory appends an empty category and returns its id.
func (m *Model) AddCategory(name, icon string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("category name cannot be empty")
	}
	id := m.newID()
	err := m.mutate(func(cats []models.HabitCategory) ([]models.HabitCategory, error) {
		return append(cats, models.HabitCategory{ID: id, Name: name, Icon: icon, Items: []models.HabitItem{}}), nil
	})
	return id, err
}

// UpdateCategory renames a category and changes its icon. An empty icon keeps the old one.
func (m *Model) UpdateCategory(id, name, icon string) error {
	return m.mutate(func(cats []models.HabitCategory) ([]models.HabitCategory, error) {
		i := indexOf(cats, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
		}
		if name = strings.TrimSpace(name); name != "" {
			cats[i].Name = name
		}
		if icon != "" {
			cats[i].Icon = icon
		}
		return cats, nil
	})
}

// RemoveCategory deletes a category. Values recorded for its habits stay in the tracker.
func (m *Model) RemoveCategory(id string) error {
	return m.mutate(func(cats []models.HabitCategory) ([]models.HabitCategory, error) {
		i := indexOf(cats, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
		}
		return append(cats[:i], cats[i+1:]...), nil
	})
}

// ReorderCategories moves the category at position from to position to.
func (m *Model) ReorderCategories(from, to int) error {
	return m.mutate(func(cats []models.HabitCategory) ([]models.HabitCategory, error) {
		if from < 0 || from >= len(cats) || to < 0 || to >= len(cats) {
			return nil, ErrInvalidIndex
		}
		moved := cats[from]
		cats = append(cats[:from], cats[from+1:]...)
		cats = append(cats[:to], append([]models.HabitCategory{moved}, cats[to:]...)...)
		return cats, nil
	})
}

// AddHabit appends a habit to a category and returns its id.
func (m *Model) AddHabit(categoryID, label string, typ models.HabitType) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", errors.New("habit label cannot be empty")
	}
	if !typ.Valid() {
		return "", fmt.Errorf("invalid habit type %q", typ)
	}
	id := m.newID()
	err := m.mutate(func(cats []models.HabitCategory) ([]models.HabitCategory, error) {
		i := indexOf(cats, categoryID)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, categoryID)
		}
		cats[i].Items = append(cats[i].Items, models.HabitItem{ID: id, Label: label, Type: typ})
		return cats, nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateHabit changes a habit's label and type. Empty values keep the old ones.
func (m *Model) UpdateHabit(categoryID, habitID, label string, typ models.HabitType) error {
	if typ != "" && !typ.Valid() {
		return fmt.Errorf("invalid habit type %q", typ)
	}
	return m.mutate(func(cats []models.HabitCategory) ([]models.HabitCategory, error) {
		ci, hi, err := locate(cats, categoryID, habitID)
		if err != nil {
			return nil, err
		}
		if label = strings.TrimSpace(label); label != "" {
			cats[ci].Items[hi].Label = label
		}
		if typ != "" {
			cats[ci].Items[hi].Type = typ
		}
		return cats, nil
	})
}

func (m *Model) RemoveHabit(categoryID, habitID string) error {
	return m.mutate(func(cats []models.HabitCategory) ([]models.HabitCategory, error) {
		ci, hi, err := locate(cats, categoryID, habitID)
		if err != nil {
			return nil, err
		}
		items := cats[ci].Items
		cats[ci].Items = append(items[:hi], items[hi+1:]...)
		return cats, nil
	})
}

// ResetToDefaults replaces the collection with the built-in set and stamps now.
func (m *Model) ResetToDefaults() {
	_ = m.mutate(func([]models.HabitCategory) ([]models.HabitCategory, error) {
		return models.DefaultCategories(), nil
	})
}

// mutate applies fn to a private copy, then stores the result and refreshes
// the collection timestamp. Nothing is written when fn fails.
func (m *Model) mutate(fn func([]models.HabitCategory) ([]models.HabitCategory, error)) error {
	m.mu.Lock()
	next, err := fn(models.CloneCategories(m.categories.Get()))
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.categories.Set(next)
	m.updatedAt.Set(models.FormatTimestamp(m.now()))
	m.mu.Unlock()

	m.hub.Notify()
	return nil
}

func indexOf(cats []models.HabitCategory, id string) int {
	for i, c := range cats {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func locate(cats []models.HabitCategory, categoryID, habitID string) (int, int, error) {
	ci := indexOf(cats, categoryID)
	if ci < 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrCategoryNotFound, categoryID)
	}
	for hi, item := range cats[ci].Items {
		if item.ID == habitID {
			return ci, hi, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %s", ErrHabitNotFound, habitID)
}
