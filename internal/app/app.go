// Package app wires the local store, the models, the session and the sync
// orchestrator together for the CLI and the TUI.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/hemma/internal/auth"
	"github.com/julianstephens/hemma/internal/backup"
	"github.com/julianstephens/hemma/internal/config"
	"github.com/julianstephens/hemma/internal/constants"
	apperrors "github.com/julianstephens/hemma/internal/errors"
	"github.com/julianstephens/hemma/internal/habits"
	"github.com/julianstephens/hemma/internal/logger"
	"github.com/julianstephens/hemma/internal/models"
	"github.com/julianstephens/hemma/internal/remote"
	"github.com/julianstephens/hemma/internal/storage"
	"github.com/julianstephens/hemma/internal/storage/sqlite"
	"github.com/julianstephens/hemma/internal/syncer"
	"github.com/julianstephens/hemma/internal/tracker"
)

type App struct {
	Config  config.Config
	Dir     string
	Store   storage.Provider
	Tracker *tracker.Tracker
	Habits  *habits.Model
	Session *auth.Session
	Client  *remote.Client
	Theme   *storage.Value[string]

	now func() time.Time

	mu       sync.Mutex
	orch     *syncer.Orchestrator
	unsubs   []func()
	syncErrs []error
}

type Option func(*App)

// WithClock replaces time.Now for every model.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// NewStore returns the provider for the configured backend.
func NewStore(dir string, cfg config.Config) storage.Provider {
	path := cfg.StorePath(dir)
	if cfg.Backend == constants.BackendJSON {
		return storage.NewJSONStore(path)
	}
	return sqlite.NewStore(path)
}

// Open loads (or creates) the local store and hydrates every model. Nothing
// talks to the network until StartSync or SyncNow.
func Open(dir string, cfg config.Config, opts ...Option) (*App, error) {
	a := &App{
		Config: cfg,
		Dir:    dir,
		Store:  NewStore(dir, cfg),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	err := a.Store.Load()
	if errors.Is(err, storage.ErrNotInitialized) {
		logger.Info("Creating local store", "path", a.Store.Path())
		err = a.Store.Init()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	a.Tracker = tracker.New(a.Store, tracker.WithClock(a.now))
	a.Habits = habits.New(a.Store, habits.WithClock(a.now))
	a.Theme = storage.NewValue(a.Store, constants.KeyTheme, constants.ThemeDark)

	client, err := remote.NewClient(cfg.APIURL, func() (string, error) { return a.Session.Token() })
	if err != nil {
		_ = a.Store.Close()
		return nil, err
	}
	a.Client = client
	a.Session = auth.New(a.Store, client)

	a.Tracker.Hydrate()
	a.Habits.Hydrate()
	a.Session.Hydrate()
	a.Theme.Hydrate()
	return a, nil
}

// StartSync attaches the orchestrator. From here on every model change is
// observed and the session download runs as soon as the user is signed in.
func (a *App) StartSync() {
	a.mu.Lock()
	if a.orch != nil {
		a.mu.Unlock()
		return
	}
	a.orch = syncer.New(a.Client, a.setters(),
		syncer.WithDebounce(a.Config.UploadDebounce.Duration),
		syncer.WithAuthErrorHandler(a.Session.HandleAuthError),
		syncer.WithErrorHandler(a.recordSyncError),
	)
	a.unsubs = append(a.unsubs,
		a.Tracker.Subscribe(a.observe),
		a.Habits.Subscribe(a.observe),
		a.Session.Subscribe(a.observe),
	)
	a.mu.Unlock()

	a.observe()
}

func (a *App) setters() syncer.Setters {
	return syncer.Setters{
		ApplyEntries:    a.Tracker.ApplyEntries,
		ApplyCategories: a.Habits.ApplyCategories,
	}
}

func (a *App) inputs() syncer.Inputs {
	return syncer.Inputs{
		IsAuthenticated:       a.Session.IsAuthenticated(),
		TrackerState:          a.Tracker.State(),
		DayUpdatedAt:          a.Tracker.DayUpdatedAt(),
		CustomHabits:          a.Habits.Categories(),
		CustomHabitsUpdatedAt: a.Habits.UpdatedAt(),
		CurrentDay:            a.Tracker.CurrentDay(),
	}
}

func (a *App) observe() {
	a.mu.Lock()
	orch := a.orch
	a.mu.Unlock()
	if orch != nil {
		orch.Observe(a.inputs())
	}
}

func (a *App) recordSyncError(op string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.syncErrs = append(a.syncErrs, fmt.Errorf("%s: %w", op, err))
}

// SyncNow runs the session download if it has not happened yet, pushes any
// pending change without waiting for the debounce, and reports failures.
// Local state is never lost on failure.
func (a *App) SyncNow(ctx context.Context) error {
	if !a.Session.IsAuthenticated() {
		return auth.ErrNotSignedIn
	}

	a.mu.Lock()
	a.syncErrs = nil
	a.mu.Unlock()

	a.StartSync()
	a.mu.Lock()
	orch := a.orch
	a.mu.Unlock()
	orch.Flush(ctx)

	a.mu.Lock()
	errs := a.syncErrs
	a.syncErrs = nil
	a.mu.Unlock()

	if !a.Session.IsAuthenticated() {
		return auth.ErrSessionExpired
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// Backup snapshots the local store.
func (a *App) Backup() (string, error) {
	return backup.NewManager(a.Store.Path()).CreateBackup()
}

// ResetProgress clears every tracked value and returns to the first day. When
// signed in, the server copy is deleted first and a failure there aborts the
// reset so the next sync cannot bring the data back.
func (a *App) ResetProgress(ctx context.Context) error {
	apperrors.Guard("backup before reset", func() error {
		_, err := a.Backup()
		return err
	})

	if a.Session.IsAuthenticated() {
		if err := a.Client.Reset(ctx); err != nil {
			if remote.IsUnauthorized(err) {
				a.Session.HandleAuthError(err)
				return auth.ErrSessionExpired
			}
			return fmt.Errorf("failed to reset server data: %w", err)
		}
	}
	a.Tracker.ResetProgress()
	logger.Info("Progress reset")
	return nil
}

// SetTheme stores the display preference.
func (a *App) SetTheme(theme string) error {
	switch theme {
	case constants.ThemeDark, constants.ThemeLight:
		a.Theme.Set(theme)
		return nil
	default:
		return fmt.Errorf("unknown theme %q: use %s or %s", theme, constants.ThemeDark, constants.ThemeLight)
	}
}

// GoToToday selects the day index for today's date relative to the
// configured start of the period.
func (a *App) GoToToday() int {
	day := models.DayForDate(a.Config.Start(), a.now())
	a.Tracker.SetCurrentDay(day)
	return day
}

// Reload picks up writes made by another process.
func (a *App) Reload() {
	if err := a.Store.Load(); err != nil {
		logger.Warn("Failed to reload local store", "error", err)
		return
	}
	a.Tracker.Reload()
	a.Habits.Reload()
	a.Session.Reload()
	a.Theme.Reload()
}

// Close stops syncing, waiting for in-flight requests, and closes the store.
func (a *App) Close() error {
	a.mu.Lock()
	orch := a.orch
	unsubs := a.unsubs
	a.orch = nil
	a.unsubs = nil
	a.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	if orch != nil {
		orch.Close()
	}
	return a.Store.Close()
}
