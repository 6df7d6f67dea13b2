package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/julianstephens/hemma/internal/app"
	"github.com/julianstephens/hemma/internal/backup"
	"github.com/julianstephens/hemma/internal/config"
	"github.com/julianstephens/hemma/internal/logger"
	"github.com/julianstephens/hemma/internal/models"
)

type Context struct {
	ConfigDir string
	Config    config.Config
	Out       io.Writer
	Prompt    Prompter

	// AppOptions are passed to app.Open.
	AppOptions []app.Option

	once    sync.Once
	app     *app.App
	openErr error
}

func NewContext(dir string, cfg config.Config) *Context {
	return &Context{
		ConfigDir: dir,
		Config:    cfg,
		Out:       os.Stdout,
		Prompt:    HuhPrompter{},
	}
}

// App opens the local store on first use.
func (c *Context) App() (*app.App, error) {
	c.once.Do(func() {
		c.app, c.openErr = app.Open(c.ConfigDir, c.Config, c.AppOptions...)
	})
	return c.app, c.openErr
}

// StorePath is the local store file for the loaded config.
func (c *Context) StorePath() string {
	return c.Config.StorePath(c.ConfigDir)
}

// Close releases the store if a command opened it.
func (c *Context) Close() error {
	if c.app == nil {
		return nil
	}
	a := c.app
	c.app = nil
	return a.Close()
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Out, args...)
}

// PerformAutomaticBackup snapshots the store and only logs failures.
func (c *Context) PerformAutomaticBackup() {
	mgr := backup.NewManager(c.StorePath())
	if _, err := mgr.CreateBackup(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ResolveHabit finds a habit by id, or by label when exactly one habit
// carries it (case-insensitive).
func ResolveHabit(cats []models.HabitCategory, query string) (models.HabitItem, error) {
	query = strings.TrimSpace(query)
	if item, ok := models.FindHabit(cats, query); ok {
		return item, nil
	}

	var matches []models.HabitItem
	for _, c := range cats {
		for _, item := range c.Items {
			if strings.EqualFold(item.Label, query) {
				matches = append(matches, item)
			}
		}
	}
	switch len(matches) {
	case 0:
		return models.HabitItem{}, fmt.Errorf("habit %q not found", query)
	case 1:
		return matches[0], nil
	default:
		return models.HabitItem{}, fmt.Errorf("%d habits are labelled %q, use the habit id", len(matches), query)
	}
}

// FormatValue renders a habit value for terminal output.
func FormatValue(item models.HabitItem, v models.HabitValue) string {
	if item.Type == models.HabitTypeNumber {
		if v.Numeric {
			return fmt.Sprintf("[%d]", v.Count)
		}
		if v.Done {
			return "[✓]"
		}
		return "[0]"
	}
	if v.IsCompleted() {
		return "[✓]"
	}
	return "[ ]"
}
