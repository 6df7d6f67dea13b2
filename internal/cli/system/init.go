package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/hemma/internal/cli"
	"github.com/julianstephens/hemma/internal/config"
)

type InitCmd struct {
	Force     bool   `help:"Overwrite an existing config file."`
	Backend   string `help:"Local store backend (sqlite|json)." enum:",sqlite,json" default:""`
	APIURL    string `name:"api-url" help:"Base URL of the sync server, including /api."`
	StartDate string `help:"First day of the tracked period (YYYY-MM-DD)."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	path := config.Path(ctx.ConfigDir)

	_, statErr := os.Stat(path)
	exists := statErr == nil
	if statErr != nil && !os.IsNotExist(statErr) {
		return fmt.Errorf("failed to access config: %w", statErr)
	}

	if !exists || c.Force {
		cfg := ctx.Config
		if !exists {
			cfg = config.Default()
		}
		if c.Backend != "" {
			cfg.Backend = c.Backend
		}
		if c.APIURL != "" {
			cfg.APIURL = c.APIURL
		}
		if c.StartDate != "" {
			cfg.StartDate = c.StartDate
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.Save(ctx.ConfigDir); err != nil {
			return err
		}
		ctx.Config = cfg
		ctx.Printf("Wrote config: %s\n", path)
	} else if c.Backend != "" || c.APIURL != "" || c.StartDate != "" {
		return fmt.Errorf("config already exists at %s, pass --force to overwrite it", path)
	}

	if _, err := ctx.App(); err != nil {
		return err
	}
	ctx.Printf("Initialized hemma storage at: %s\n", ctx.StorePath())
	return nil
}
