package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/hemma/internal/models"
	"github.com/julianstephens/hemma/internal/server/metrics"
	"github.com/julianstephens/hemma/internal/server/store"
)

// memCache counts hits so tests can tell cache reads from store reads.
type memCache struct {
	mu   sync.Mutex
	data map[string]models.SyncPayload
	hits int
	sets int
}

func newMemCache() *memCache { return &memCache{data: make(map[string]models.SyncPayload)} }

func (c *memCache) Get(_ context.Context, userID string) (models.SyncPayload, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.data[userID]
	if ok {
		c.hits++
	}
	return p, ok, nil
}

func (c *memCache) Set(_ context.Context, userID string, p models.SyncPayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[userID] = p
	return nil
}

func (c *memCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, userID)
	return nil
}

func (c *memCache) Close() error { return nil }

func newTestService(t *testing.T, cache store.Cache) *Service {
	t.Helper()
	st, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return New(st, cache, NewTokens("0123456789abcdef", "hemma", time.Hour), metrics.New())
}

func register(t *testing.T, s *Service, email string) models.AuthResponse {
	t.Helper()
	resp, err := s.Register(context.Background(), "Amina", email, "secret123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	reg := register(t, s, "  Amina@Example.com ")
	if reg.Email != "amina@example.com" {
		t.Errorf("registered email = %q, want lowercased and trimmed", reg.Email)
	}
	if !reg.IsNewUser || reg.Token == "" || reg.ID == "" || reg.UID != reg.ID {
		t.Errorf("Register() response = %+v", reg)
	}

	if _, err := s.Register(ctx, "Other", "AMINA@example.com", "secret456"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Register(duplicate) error = %v, want ErrEmailTaken", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"correct", "amina@example.com", "secret123", nil},
		{"case insensitive email", "AMINA@EXAMPLE.COM", "secret123", nil},
		{"wrong password", "amina@example.com", "nope", ErrInvalidCredentials},
		{"unknown email", "ghost@example.com", "secret123", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := s.Login(ctx, tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Login() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if resp.ID != reg.ID || resp.IsNewUser {
				t.Errorf("Login() = %+v", resp)
			}
			uid, err := s.Tokens().Parse(resp.Token)
			if err != nil || uid != reg.ID {
				t.Errorf("token user = %q err %v, want %q", uid, err, reg.ID)
			}
		})
	}

	profile, err := s.Profile(ctx, reg.ID)
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if profile.Name != "Amina" || profile.Email != "amina@example.com" {
		t.Errorf("Profile() = %+v", profile)
	}
	if _, err := s.Profile(ctx, "deleted-user"); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("Profile(unknown) error = %v, want ErrUnknownUser", err)
	}
}

func TestUploadMergesWithStoredSnapshot(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()
	uid := register(t, s, "a@example.com").ID

	// device A uploads first
	_, err := s.Upload(ctx, uid, models.SyncPayload{
		Entries: []models.SyncEntry{
			{DayIndex: 0, HabitID: "fajr", Value: models.Bool(true), UpdatedAt: "2026-02-20T05:00:00.000Z"},
			{DayIndex: 1, HabitID: "quran-pages", Value: models.Count(3), UpdatedAt: "2026-02-21T05:00:00.000Z"},
		},
		Categories: []models.SyncCategory{
			{CategoryID: "fajr", Name: "Fajr", Icon: "Sunrise", SortOrder: 0, UpdatedAt: "2026-02-20T00:00:00.000Z"},
		},
	})
	if err != nil {
		t.Fatalf("Upload(A) error = %v", err)
	}

	// device B has an older fajr value, a tie on quran-pages and a new day
	merged, err := s.Upload(ctx, uid, models.SyncPayload{
		Entries: []models.SyncEntry{
			{DayIndex: 0, HabitID: "fajr", Value: models.Bool(false), UpdatedAt: "2026-02-19T05:00:00.000Z"},
			{DayIndex: 1, HabitID: "quran-pages", Value: models.Count(9), UpdatedAt: "2026-02-21T05:00:00.000Z"},
			{DayIndex: 2, HabitID: "dhuhr", Value: models.Bool(true), UpdatedAt: "2026-02-22T05:00:00.000Z"},
		},
	})
	if err != nil {
		t.Fatalf("Upload(B) error = %v", err)
	}

	want := map[models.EntryKey]models.HabitValue{
		{DayIndex: 0, HabitID: "fajr"}:        models.Bool(true),
		{DayIndex: 1, HabitID: "quran-pages"}: models.Count(9),
		{DayIndex: 2, HabitID: "dhuhr"}:       models.Bool(true),
	}
	if len(merged.Entries) != len(want) {
		t.Fatalf("merged entries = %d, want %d", len(merged.Entries), len(want))
	}
	for _, e := range merged.Entries {
		if w, ok := want[e.Key()]; !ok || w != e.Value {
			t.Errorf("entry %v = %v, want %v", e.Key(), e.Value, w)
		}
	}
	if len(merged.Categories) != 1 || merged.Categories[0].CategoryID != "fajr" {
		t.Errorf("stored categories not kept: %+v", merged.Categories)
	}

	downloaded, err := s.Download(ctx, uid)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if len(downloaded.Entries) != 3 || len(downloaded.Categories) != 1 {
		t.Errorf("Download() = %+v, want persisted merge", downloaded)
	}
}

func TestUploadEmptyReturnsStored(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()
	uid := register(t, s, "a@example.com").ID

	merged, err := s.Upload(ctx, uid, models.SyncPayload{})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if merged.Entries == nil || merged.Categories == nil {
		t.Errorf("Upload() returned nil collections: %+v", merged)
	}
}

func TestDownloadUsesCache(t *testing.T) {
	cache := newMemCache()
	s := newTestService(t, cache)
	ctx := context.Background()
	uid := register(t, s, "a@example.com").ID

	if _, err := s.Download(ctx, uid); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if cache.hits != 0 || cache.sets != 1 {
		t.Fatalf("first download hits=%d sets=%d, want miss then fill", cache.hits, cache.sets)
	}
	if _, err := s.Download(ctx, uid); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if cache.hits != 1 {
		t.Errorf("second download hits = %d, want 1", cache.hits)
	}

	entry := models.SyncEntry{DayIndex: 4, HabitID: "asr", Value: models.Bool(true), UpdatedAt: "2026-02-24T05:00:00.000Z"}
	if _, err := s.Upload(ctx, uid, models.SyncPayload{Entries: []models.SyncEntry{entry}}); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	got, err := s.Download(ctx, uid)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0] != entry {
		t.Errorf("cached download after upload = %+v, want refreshed snapshot", got.Entries)
	}
}

func TestReset(t *testing.T) {
	cache := newMemCache()
	s := newTestService(t, cache)
	ctx := context.Background()
	uid := register(t, s, "a@example.com").ID

	entry := models.SyncEntry{DayIndex: 0, HabitID: "fajr", Value: models.Bool(true), UpdatedAt: "2026-02-20T05:00:00.000Z"}
	if _, err := s.Upload(ctx, uid, models.SyncPayload{Entries: []models.SyncEntry{entry}}); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if err := s.Reset(ctx, uid); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, ok := cache.data[uid]; ok {
		t.Error("Reset() left a cached snapshot")
	}
	got, err := s.Download(ctx, uid)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if len(got.Entries) != 0 {
		t.Errorf("Download() after reset = %+v, want empty", got.Entries)
	}
	if _, err := s.Login(ctx, "a@example.com", "secret123"); err != nil {
		t.Errorf("Reset() removed the account: %v", err)
	}
}

// gatedStore pauses LoadSnapshot until released once armed.
type gatedStore struct {
	store.Store
	mu      sync.Mutex
	started chan struct{}
	release chan struct{}
}

func (g *gatedStore) arm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.started = make(chan struct{})
	g.release = make(chan struct{})
}

func (g *gatedStore) LoadSnapshot(ctx context.Context, userID string) (models.SyncPayload, error) {
	g.mu.Lock()
	started, release := g.started, g.release
	g.started, g.release = nil, nil
	g.mu.Unlock()
	p, err := g.Store.LoadSnapshot(ctx, userID)
	if started != nil {
		close(started)
		<-release
	}
	return p, err
}

func TestResetDuringCacheFillLeavesNoStaleSnapshot(t *testing.T) {
	ctx := context.Background()
	sqlite, err := store.OpenSQLite(ctx, filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })
	gated := &gatedStore{Store: sqlite}
	cache := newMemCache()
	s := New(gated, cache, NewTokens("0123456789abcdef", "hemma", time.Hour), metrics.New())
	uid := register(t, s, "a@example.com").ID

	entry := models.SyncEntry{DayIndex: 0, HabitID: "fajr", Value: models.Bool(true), UpdatedAt: "2026-02-20T05:00:00.000Z"}
	if _, err := s.Upload(ctx, uid, models.SyncPayload{Entries: []models.SyncEntry{entry}}); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	_ = cache.Invalidate(ctx, uid)

	// a download misses the cache and pauses after reading the old snapshot
	gated.arm()
	started := gated.started
	release := gated.release
	downloaded := make(chan struct{})
	go func() {
		defer close(downloaded)
		if _, err := s.Download(ctx, uid); err != nil {
			t.Errorf("Download() error = %v", err)
		}
	}()
	<-started

	reset := make(chan struct{})
	go func() {
		defer close(reset)
		if err := s.Reset(ctx, uid); err != nil {
			t.Errorf("Reset() error = %v", err)
		}
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	<-downloaded
	<-reset

	got, err := s.Download(ctx, uid)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if len(got.Entries) != 0 {
		t.Errorf("Download() after reset = %+v, want empty", got.Entries)
	}
}

func TestConcurrentUploadsKeepEveryEntry(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()
	uid := register(t, s, "a@example.com").ID

	var wg sync.WaitGroup
	for day := 0; day < 10; day++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			p := models.SyncPayload{Entries: []models.SyncEntry{
				{DayIndex: day, HabitID: "fajr", Value: models.Bool(true), UpdatedAt: "2026-02-20T05:00:00.000Z"},
			}}
			if _, err := s.Upload(ctx, uid, p); err != nil {
				t.Errorf("Upload(day %d) error = %v", day, err)
			}
		}(day)
	}
	wg.Wait()

	got, err := s.Download(ctx, uid)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if len(got.Entries) != 10 {
		t.Errorf("entries after concurrent uploads = %d, want 10", len(got.Entries))
	}
	if n := s.locks.len(); n != 0 {
		t.Errorf("user locks left behind: %d", n)
	}
}

func TestTokens(t *testing.T) {
	now := time.Date(2026, 2, 20, 5, 0, 0, 0, time.UTC)
	issuer := NewTokens("0123456789abcdef", "hemma", time.Hour)
	issuer.now = func() time.Time { return now }

	token, err := issuer.Issue("u1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	later := NewTokens("0123456789abcdef", "hemma", time.Hour)
	later.now = func() time.Time { return now.Add(2 * time.Hour) }

	tests := []struct {
		name    string
		parser  *Tokens
		token   string
		wantErr bool
	}{
		{"valid", issuer, token, false},
		{"expired", later, token, true},
		{"wrong secret", NewTokens("fedcba9876543210", "hemma", time.Hour), token, true},
		{"wrong issuer", NewTokens("0123456789abcdef", "other", time.Hour), token, true},
		{"garbage", issuer, "not-a-jwt", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.name != "valid" && tt.name != "expired" {
				tt.parser.now = issuer.now
			}
			uid, err := tt.parser.Parse(tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
			}
			if !tt.wantErr && uid != "u1" {
				t.Errorf("Parse() = %q, want u1", uid)
			}
		})
	}
}
