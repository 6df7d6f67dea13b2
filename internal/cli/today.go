package cli

import (
	"fmt"
	"strings"

	"github.com/julianstephens/hemma/internal/app"
	"github.com/julianstephens/hemma/internal/constants"
	"github.com/julianstephens/hemma/internal/models"
)

type TodayCmd struct {
	IDs bool `help:"Show habit ids."`
}

func (c *TodayCmd) Run(ctx *Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	printDay(ctx, a, c.IDs)
	return nil
}

func printDay(ctx *Context, a *app.App, ids bool) {
	cats := a.Habits.Categories()
	stats := a.Tracker.Stats(cats)

	ctx.Printf("Day %d/%d  ·  %d/%d done  ·  %d XP  ·  streak %d\n\n",
		stats.CurrentDay+1, constants.TotalDays,
		stats.CompletedHabits, stats.TotalHabits,
		stats.TodayXP, stats.Streak)

	for _, cat := range cats {
		mark := ""
		if stats.BlockCompletion[cat.ID] {
			mark = " ✓"
		}
		ctx.Printf("%s%s\n", cat.Name, mark)
		for _, item := range cat.Items {
			line := fmt.Sprintf("  %s %s", FormatValue(item, a.Tracker.Value(item.ID)), item.Label)
			if ids {
				line += fmt.Sprintf("  (%s)", item.ID)
			}
			ctx.Println(line)
		}
	}
}

type ToggleCmd struct {
	Habit string `arg:"" help:"Habit id or label."`
}

func (c *ToggleCmd) Run(ctx *Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	item, err := ResolveHabit(a.Habits.Categories(), c.Habit)
	if err != nil {
		return err
	}
	v := a.Tracker.Toggle(item.ID)
	state := "not done"
	if v.IsCompleted() {
		state = "done"
	}
	ctx.Printf("✓ %s marked %s for day %d\n", item.Label, state, a.Tracker.CurrentDay()+1)
	return nil
}

type SetCmd struct {
	Habit string `arg:"" help:"Habit id or label."`
	Count int    `arg:"" help:"New count (negative values are stored as 0)."`
}

func (c *SetCmd) Run(ctx *Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	item, err := ResolveHabit(a.Habits.Categories(), c.Habit)
	if err != nil {
		return err
	}
	if item.Type != models.HabitTypeNumber {
		return fmt.Errorf("%q is a check-off habit, use toggle instead", item.Label)
	}
	v := a.Tracker.SetValue(item.ID, c.Count)
	ctx.Printf("✓ %s set to %d for day %d\n", item.Label, v.Count, a.Tracker.CurrentDay()+1)
	return nil
}

type DayCmd struct {
	Day   int  `arg:"" optional:"" help:"Day number to select (1-30)."`
	Today bool `help:"Select the day matching today's date."`
	Next  bool `help:"Select the following day."`
	Prev  bool `help:"Select the previous day."`
}

func (c *DayCmd) Run(ctx *Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	current := a.Tracker.CurrentDay()
	switch {
	case c.Today:
		a.GoToToday()
	case c.Next:
		a.Tracker.SetCurrentDay(models.ClampDay(current + 1))
	case c.Prev:
		a.Tracker.SetCurrentDay(models.ClampDay(current - 1))
	case c.Day != 0:
		if !models.ValidDay(c.Day - 1) {
			return fmt.Errorf("day must be between 1 and %d", constants.TotalDays)
		}
		a.Tracker.SetCurrentDay(c.Day - 1)
	}

	printDay(ctx, a, false)
	return nil
}

type StatsCmd struct{}

func (c *StatsCmd) Run(ctx *Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	cats := a.Habits.Categories()
	stats := a.Tracker.Stats(cats)
	state := a.Tracker.State()

	ctx.Printf("Day:        %d/%d\n", stats.CurrentDay+1, constants.TotalDays)
	ctx.Printf("Completed:  %d/%d (%.0f%%)\n", stats.CompletedHabits, stats.TotalHabits, stats.TodayProgress*100)
	ctx.Printf("XP today:   %d\n", stats.TodayXP)
	ctx.Printf("XP total:   %d\n", stats.TotalXP)
	ctx.Printf("Streak:     %d\n\n", stats.Streak)

	ctx.Println("Blocks:")
	for _, cat := range cats {
		mark := " "
		if stats.BlockCompletion[cat.ID] {
			mark = "✓"
		}
		ctx.Printf("  [%s] %s\n", mark, cat.Name)
	}

	var strip strings.Builder
	for day := 0; day < constants.TotalDays; day++ {
		switch n := state[day].CompletedCount(); {
		case day == stats.CurrentDay:
			strip.WriteString("◆")
		case n > 0:
			strip.WriteString("■")
		default:
			strip.WriteString("·")
		}
	}
	ctx.Printf("\nDays: %s\n", strip.String())
	return nil
}

type ThemeCmd struct {
	Theme string `arg:"" optional:"" enum:",dark,light" default:"" help:"Theme to use (dark|light). Prints the current theme when omitted."`
}

func (c *ThemeCmd) Run(ctx *Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	if c.Theme == "" {
		ctx.Println(a.Theme.Get())
		return nil
	}
	if err := a.SetTheme(c.Theme); err != nil {
		return err
	}
	ctx.Printf("✓ Theme set to %s\n", c.Theme)
	return nil
}
