package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/hemma/internal/constants"
	apperrors "github.com/julianstephens/hemma/internal/errors"
	"github.com/julianstephens/hemma/internal/logger"
	"github.com/julianstephens/hemma/internal/server"
	"github.com/julianstephens/hemma/internal/server/config"
)

type Globals struct {
	Config config.Config
}

type ServeCmd struct{}

func (c *ServeCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx, g.Config)
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(g *Globals) error {
	if err := server.Migrate(context.Background(), g.Config); err != nil {
		return err
	}
	logger.Info("Migrations applied", "store", g.Config.StoreDriver)
	return nil
}

var CLI struct {
	Version kong.VersionFlag
	EnvFile string `name:"env-file" help:"Environment file loaded before reading settings." default:".env" type:"path"`
	Debug   bool   `help:"Log at debug level."`

	Serve   ServeCmd   `cmd:"" help:"Serve the sync API." default:"1"`
	Migrate MigrateCmd `cmd:"" help:"Apply store migrations and exit."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName+"-server"),
		kong.Description("Account and sync server for hemma"),
		kong.UsageOnError(),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.LoadConfig(CLI.EnvFile)
	if err != nil {
		apperrors.Fatal(err)
	}

	if err := logger.Init(logger.Config{
		Debug:  CLI.Debug || cfg.Debug,
		Info:   true,
		Prefix: constants.AppName + "-server",
	}); err != nil {
		apperrors.Fatalf("failed to initialize logger: %v", err)
	}

	apperrors.Fatal(ctx.Run(&Globals{Config: cfg}))
}
