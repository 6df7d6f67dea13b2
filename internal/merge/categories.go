package merge

import (
	"sort"
	"time"

	"github.com/julianstephens/hemma/internal/models"
)

// ToCategoryPayload projects categories to the wire, all sharing the
// collection timestamp and numbered by position. An empty timestamp is
// replaced with now.
func ToCategoryPayload(categories []models.HabitCategory, updatedAt string) []models.SyncCategory {
	return ToCategoryPayloadAt(categories, updatedAt, time.Now())
}

// ToCategoryPayloadAt is ToCategoryPayload with an explicit clock.
func ToCategoryPayloadAt(categories []models.HabitCategory, updatedAt string, now time.Time) []models.SyncCategory {
	if updatedAt == "" {
		updatedAt = models.FormatTimestamp(now)
	}
	out := make([]models.SyncCategory, 0, len(categories))
	for i, c := range categories {
		c = c.Clone()
		out = append(out, models.SyncCategory{
			CategoryID: c.ID,
			Name:       c.Name,
			Icon:       c.Icon,
			Items:      c.Items,
			SortOrder:  i,
			UpdatedAt:  updatedAt,
		})
	}
	return out
}

// FromCategoryPayload orders the payload by sortOrder and projects it to
// local categories.
func FromCategoryPayload(payload []models.SyncCategory) []models.HabitCategory {
	sorted := sortCategories(payload)
	out := make([]models.HabitCategory, 0, len(sorted))
	for _, sc := range sorted {
		out = append(out, models.HabitCategory{
			ID:    sc.CategoryID,
			Name:  sc.Name,
			Icon:  sc.Icon,
			Items: sc.Items,
		}.Clone())
	}
	return out
}

// MergeCategories resolves whole categories by categoryId with the same
// local-wins-on-tie rule as entries. Items are never merged; the newer
// category replaces the older one entirely. The result is ordered by sortOrder.
func MergeCategories(local, remote []models.SyncCategory) []models.SyncCategory {
	merged := make(map[string]models.SyncCategory, len(local)+len(remote))
	for _, c := range remote {
		putCategory(merged, c)
	}
	for _, c := range local {
		putCategory(merged, c)
	}

	out := make([]models.SyncCategory, 0, len(merged))
	for _, c := range merged {
		out = append(out, c)
	}
	return sortCategories(out)
}

// LatestCategoryTime returns the greatest updatedAt in the set, or "" when empty.
func LatestCategoryTime(categories []models.SyncCategory) string {
	latest := ""
	for _, c := range categories {
		if latest == "" || models.ParseTimestamp(c.UpdatedAt).After(models.ParseTimestamp(latest)) {
			latest = c.UpdatedAt
		}
	}
	return latest
}

func putCategory(merged map[string]models.SyncCategory, c models.SyncCategory) {
	existing, ok := merged[c.CategoryID]
	if !ok || models.TimestampAtLeast(c.UpdatedAt, existing.UpdatedAt) {
		merged[c.CategoryID] = c
	}
}

func sortCategories(in []models.SyncCategory) []models.SyncCategory {
	out := append([]models.SyncCategory(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}
