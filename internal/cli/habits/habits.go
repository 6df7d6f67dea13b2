package habits

import (
	"fmt"

	"github.com/julianstephens/hemma/internal/cli"
	"github.com/julianstephens/hemma/internal/models"
)

type HabitsCmd struct {
	List         HabitListCmd      `cmd:"" help:"List categories and their habits." default:"1"`
	AddCategory  CategoryAddCmd    `cmd:"" name:"add-category" help:"Add a category."`
	EditCategory CategoryEditCmd   `cmd:"" name:"edit-category" help:"Rename a category or change its icon."`
	RmCategory   CategoryRemoveCmd `cmd:"" name:"rm-category" help:"Remove a category."`
	MoveCategory CategoryMoveCmd   `cmd:"" name:"move-category" help:"Move a category to another position."`
	Add          HabitAddCmd       `cmd:"" help:"Add a habit to a category."`
	Edit         HabitEditCmd      `cmd:"" help:"Edit a habit."`
	Rm           HabitRemoveCmd    `cmd:"" help:"Remove a habit."`
	Reset        HabitResetCmd     `cmd:"" help:"Restore the built-in habit set."`
}

type HabitListCmd struct{}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	cats := a.Habits.Categories()
	if len(cats) == 0 {
		ctx.Println("No categories found.")
		return nil
	}
	for i, cat := range cats {
		ctx.Printf("%d. %s [%s] (%s)\n", i+1, cat.Name, cat.Icon, cat.ID)
		if len(cat.Items) == 0 {
			ctx.Println("     (no habits)")
		}
		for _, item := range cat.Items {
			ctx.Printf("     - %s  %s  (%s)\n", item.Label, item.Type, item.ID)
		}
	}
	return nil
}

type CategoryAddCmd struct {
	Name string `arg:"" help:"Category name."`
	Icon string `help:"Icon name." default:"Star"`
}

func (c *CategoryAddCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	id, err := a.Habits.AddCategory(c.Name, c.Icon)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Added category %s (%s)\n", c.Name, id)
	return nil
}

type CategoryEditCmd struct {
	ID   string `arg:"" help:"Category id."`
	Name string `help:"New name."`
	Icon string `help:"New icon."`
}

func (c *CategoryEditCmd) Run(ctx *cli.Context) error {
	if c.Name == "" && c.Icon == "" {
		return fmt.Errorf("nothing to change: pass --name or --icon")
	}
	a, err := ctx.App()
	if err != nil {
		return err
	}
	if err := a.Habits.UpdateCategory(c.ID, c.Name, c.Icon); err != nil {
		return err
	}
	ctx.Printf("✓ Updated category %s\n", c.ID)
	return nil
}

type CategoryRemoveCmd struct {
	ID  string `arg:"" help:"Category id."`
	Yes bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *CategoryRemoveCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	if !c.Yes {
		ok, err := ctx.Prompt.Confirm(fmt.Sprintf("Remove category %s and all of its habits?", c.ID))
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Cancelled.")
			return nil
		}
	}

	if err := a.Habits.RemoveCategory(c.ID); err != nil {
		return err
	}
	ctx.Printf("✓ Removed category %s\n", c.ID)
	return nil
}

type CategoryMoveCmd struct {
	From int `arg:"" help:"Current position (1-based)."`
	To   int `arg:"" help:"New position (1-based)."`
}

func (c *CategoryMoveCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	if err := a.Habits.ReorderCategories(c.From-1, c.To-1); err != nil {
		return err
	}
	ctx.Printf("✓ Moved category from position %d to %d\n", c.From, c.To)
	return nil
}

type HabitAddCmd struct {
	Category string `arg:"" help:"Category id."`
	Label    string `arg:"" help:"Habit label."`
	Type     string `help:"Habit type (boolean|number)." enum:"boolean,number" default:"boolean"`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	id, err := a.Habits.AddHabit(c.Category, c.Label, models.HabitType(c.Type))
	if err != nil {
		return err
	}
	ctx.Printf("✓ Added habit %s (%s)\n", c.Label, id)
	return nil
}

type HabitEditCmd struct {
	Category string `arg:"" help:"Category id."`
	Habit    string `arg:"" help:"Habit id."`
	Label    string `help:"New label."`
	Type     string `help:"New type (boolean|number)." enum:",boolean,number" default:""`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	if c.Label == "" && c.Type == "" {
		return fmt.Errorf("nothing to change: pass --label or --type")
	}
	a, err := ctx.App()
	if err != nil {
		return err
	}
	if err := a.Habits.UpdateHabit(c.Category, c.Habit, c.Label, models.HabitType(c.Type)); err != nil {
		return err
	}
	ctx.Printf("✓ Updated habit %s\n", c.Habit)
	return nil
}

type HabitRemoveCmd struct {
	Category string `arg:"" help:"Category id."`
	Habit    string `arg:"" help:"Habit id."`
}

func (c *HabitRemoveCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	if err := a.Habits.RemoveHabit(c.Category, c.Habit); err != nil {
		return err
	}
	ctx.Printf("✓ Removed habit %s\n", c.Habit)
	return nil
}

type HabitResetCmd struct {
	Yes bool `short:"y" help:"Skip the confirmation prompt."`
}

func (c *HabitResetCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	if !c.Yes {
		ok, err := ctx.Prompt.Confirm("Replace your habits with the built-in set?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Cancelled.")
			return nil
		}
	}

	a.Habits.ResetToDefaults()
	ctx.Printf("✓ Restored %d built-in categories\n", len(a.Habits.Categories()))
	return nil
}
