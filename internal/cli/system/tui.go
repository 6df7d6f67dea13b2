package system

import (
	"github.com/julianstephens/hemma/internal/cli"
	"github.com/julianstephens/hemma/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	a.StartSync()
	return tui.Run(a)
}
