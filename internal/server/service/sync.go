package service

import (
	"context"

	"github.com/julianstephens/hemma/internal/logger"
	"github.com/julianstephens/hemma/internal/merge"
	"github.com/julianstephens/hemma/internal/models"
)

// Download returns the stored snapshot, served from the cache when possible.
// A miss loads and fills the cache under the user's lock.
func (s *Service) Download(ctx context.Context, userID string) (payload models.SyncPayload, err error) {
	defer func() { s.metrics.TrackSync("download", err) }()

	cached, ok, cerr := s.cache.Get(ctx, userID)
	switch {
	case cerr != nil:
		s.metrics.TrackCache("error")
		logger.Warn("Snapshot cache read failed", "user", userID, "error", cerr)
	case ok:
		s.metrics.TrackCache("hit")
		s.metrics.TrackPayload("out", len(cached.Entries))
		return cached.Normalize(), nil
	default:
		s.metrics.TrackCache("miss")
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	payload, err = s.load(ctx, userID)
	if err != nil {
		return models.SyncPayload{}, err
	}
	s.remember(ctx, userID, payload)
	s.metrics.TrackPayload("out", len(payload.Entries))
	return payload, nil
}

// Upload merges incoming with the stored snapshot, persists the result and
// returns it. Incoming is the local side of the merge, so on equal
// timestamps the uploader's values win.
func (s *Service) Upload(ctx context.Context, userID string, incoming models.SyncPayload) (merged models.SyncPayload, err error) {
	defer func() { s.metrics.TrackSync("upload", err) }()
	s.metrics.TrackPayload("in", len(incoming.Entries))

	unlock := s.locks.Lock(userID)
	defer unlock()

	stored, err := s.load(ctx, userID)
	if err != nil {
		return models.SyncPayload{}, err
	}

	merged = models.SyncPayload{
		Entries:    merge.MergeEntries(incoming.Entries, stored.Entries),
		Categories: merge.MergeCategories(incoming.Categories, stored.Categories),
	}.Normalize()

	timer := s.metrics.TrackStore("save_snapshot")
	err = s.store.SaveSnapshot(ctx, userID, merged)
	timer.ObserveDuration()
	if err != nil {
		return models.SyncPayload{}, err
	}

	s.remember(ctx, userID, merged)
	logger.Debug("Merged upload", "user", userID,
		"incoming", len(incoming.Entries), "stored", len(stored.Entries), "merged", len(merged.Entries))
	s.metrics.TrackPayload("out", len(merged.Entries))
	return merged, nil
}

// Reset deletes the account's tracked data. The account itself stays.
func (s *Service) Reset(ctx context.Context, userID string) (err error) {
	defer func() { s.metrics.TrackSync("reset", err) }()

	unlock := s.locks.Lock(userID)
	defer unlock()

	timer := s.metrics.TrackStore("delete_snapshot")
	err = s.store.DeleteSnapshot(ctx, userID)
	timer.ObserveDuration()
	if err != nil {
		return err
	}
	if cerr := s.cache.Invalidate(ctx, userID); cerr != nil {
		logger.Warn("Snapshot cache invalidation failed", "user", userID, "error", cerr)
	}
	logger.Info("Reset sync data", "user", userID)
	return nil
}

func (s *Service) load(ctx context.Context, userID string) (models.SyncPayload, error) {
	timer := s.metrics.TrackStore("load_snapshot")
	defer timer.ObserveDuration()
	p, err := s.store.LoadSnapshot(ctx, userID)
	if err != nil {
		return models.SyncPayload{}, err
	}
	return p.Normalize(), nil
}

func (s *Service) remember(ctx context.Context, userID string, payload models.SyncPayload) {
	if err := s.cache.Set(ctx, userID, payload); err != nil {
		logger.Warn("Snapshot cache write failed", "user", userID, "error", err)
		// a stale entry must not outlive a failed refresh
		_ = s.cache.Invalidate(ctx, userID)
	}
}
