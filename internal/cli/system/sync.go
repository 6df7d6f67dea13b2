package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/julianstephens/hemma/internal/auth"
	"github.com/julianstephens/hemma/internal/cli"
	"github.com/julianstephens/hemma/internal/constants"
	"github.com/julianstephens/hemma/internal/daemon"
	"github.com/julianstephens/hemma/internal/logger"
	"github.com/julianstephens/hemma/internal/watcher"
)

type SyncCmd struct {
	Timeout time.Duration `help:"Give up after this long." default:"40s"`
}

func (c *SyncCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	rctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()
	if err := a.SyncNow(rctx); err != nil {
		switch {
		case errors.Is(err, auth.ErrNotSignedIn):
			return errors.New("not signed in: run 'hemma login' first")
		case errors.Is(err, auth.ErrSessionExpired):
			return errors.New("session expired: run 'hemma login' again")
		}
		return fmt.Errorf("sync failed, local progress is unchanged: %w", err)
	}

	stats := a.Tracker.Stats(a.Habits.Categories())
	ctx.Printf("✓ Synced. Day %d/%d, %d XP total.\n", stats.CurrentDay+1, constants.TotalDays, stats.TotalXP)
	return nil
}

type WatchCmd struct {
	Debounce time.Duration `help:"Quiet period before reloading after the store changes." default:"500ms"`
}

func (c *WatchCmd) Run(ctx *cli.Context) error {
	lock, err := daemon.Acquire(filepath.Join(ctx.ConfigDir, constants.LockFileName))
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("Failed to release watch lock", "error", err)
		}
	}()

	a, err := ctx.App()
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.StartSync()

	w := watcher.New(a.Store.Path(), c.Debounce, a.Reload)
	if err := w.Start(sigCtx); err != nil {
		return err
	}
	defer w.Stop()

	if a.Session.IsAuthenticated() {
		ctx.Printf("Watching %s and syncing as %s. Press Ctrl+C to stop.\n", a.Store.Path(), a.Session.User().Email)
	} else {
		ctx.Printf("Watching %s. Not signed in, changes stay local until you log in.\n", a.Store.Path())
	}
	logger.Info("Watch started", "store", a.Store.Path())

	<-sigCtx.Done()

	// Push whatever is still waiting on the debounce before exiting.
	if a.Session.IsAuthenticated() {
		fctx, cancel := context.WithTimeout(context.Background(), constants.RemoteTimeout)
		defer cancel()
		if err := a.SyncNow(fctx); err != nil {
			logger.Warn("Final sync failed", "error", err)
		}
	}
	logger.Info("Watch stopped")
	ctx.Println("Stopped.")
	return nil
}

type ResetCmd struct {
	Yes bool `short:"y" help:"Skip the confirmation prompt."`
}

func (c *ResetCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	if !c.Yes {
		title := "Erase all tracked progress on this device?"
		if a.Session.IsAuthenticated() {
			title = "Erase all tracked progress on this device and on the server?"
		}
		ok, err := ctx.Prompt.Confirm(title)
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Reset cancelled.")
			return nil
		}
	}

	rctx, cancel := context.WithTimeout(context.Background(), constants.RemoteTimeout)
	defer cancel()
	if err := a.ResetProgress(rctx); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	ctx.Println("✓ Progress reset. A backup was taken first, see 'hemma backup list'.")
	return nil
}
