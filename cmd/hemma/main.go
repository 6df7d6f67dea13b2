package main

import (
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/hemma/internal/cli"
	"github.com/julianstephens/hemma/internal/cli/account"
	"github.com/julianstephens/hemma/internal/cli/backups"
	"github.com/julianstephens/hemma/internal/cli/habits"
	"github.com/julianstephens/hemma/internal/cli/system"
	"github.com/julianstephens/hemma/internal/config"
	"github.com/julianstephens/hemma/internal/constants"
	apperrors "github.com/julianstephens/hemma/internal/errors"
	"github.com/julianstephens/hemma/internal/logger"
)

var CLI struct {
	Version   kong.VersionFlag
	ConfigDir string `name:"config-dir" help:"Directory holding config.toml, the local store and logs." type:"path" default:"${config_dir}"`
	Debug     bool   `help:"Log at debug level and mirror logs to stderr."`

	Init     system.InitCmd      `cmd:"" help:"Write config.toml and create the local store."`
	Tui      system.TuiCmd       `cmd:"" help:"Launch the interactive tracker." default:"1"`
	Today    cli.TodayCmd        `cmd:"" help:"Show the selected day's habits."`
	Toggle   cli.ToggleCmd       `cmd:"" help:"Toggle a habit on the selected day."`
	Set      cli.SetCmd          `cmd:"" help:"Set a counted habit on the selected day."`
	Day      cli.DayCmd          `cmd:"" help:"Select a day."`
	Stats    cli.StatsCmd        `cmd:"" help:"Show progress statistics."`
	Habits   habits.HabitsCmd    `cmd:"" help:"Manage habit categories and habits."`
	Theme    cli.ThemeCmd        `cmd:"" help:"Show or change the display theme."`
	Login    account.LoginCmd    `cmd:"" help:"Sign in to the sync server."`
	Register account.RegisterCmd `cmd:"" help:"Create an account on the sync server."`
	Logout   account.LogoutCmd   `cmd:"" help:"Sign out. Local progress is kept."`
	Whoami   account.WhoamiCmd   `cmd:"" help:"Show the signed-in account."`
	Sync     system.SyncCmd      `cmd:"" help:"Merge this device with your account now."`
	Watch    system.WatchCmd     `cmd:"" help:"Keep syncing in the foreground as the local store changes."`
	Reset    system.ResetCmd     `cmd:"" help:"Erase all tracked progress."`
	Status   system.StatusCmd    `cmd:"" help:"Show paths, account and watch state."`
	Backup   backups.BackupCmd   `cmd:"" help:"Manage local store backups."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Offline-first 30-day habit tracker with account sync"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":    constants.Version,
			"config_dir": constants.DefaultConfigDir,
		},
	)

	cfg, err := config.Load(CLI.ConfigDir)
	if err != nil {
		// A broken config can still be replaced with init --force.
		if !strings.HasPrefix(ctx.Command(), "init") || !CLI.Init.Force {
			apperrors.Fatal(err)
		}
		cfg = config.Default()
	}

	if err := logger.Init(logger.Config{
		Debug:  CLI.Debug || cfg.Debug,
		LogDir: config.LogDir(CLI.ConfigDir),
	}); err != nil {
		apperrors.Fatalf("failed to initialize logger: %v", err)
	}
	logger.Debug("Starting", "command", ctx.Command(), "config_dir", CLI.ConfigDir)

	appCtx := cli.NewContext(CLI.ConfigDir, cfg)
	err = ctx.Run(appCtx)
	if cerr := appCtx.Close(); cerr != nil {
		logger.Warn("Failed to close local store", "error", cerr)
	}
	apperrors.Fatal(err)
}
