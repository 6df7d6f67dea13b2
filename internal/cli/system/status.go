package system

import (
	"path/filepath"

	"github.com/julianstephens/hemma/internal/cli"
	"github.com/julianstephens/hemma/internal/config"
	"github.com/julianstephens/hemma/internal/constants"
	"github.com/julianstephens/hemma/internal/daemon"
	"github.com/julianstephens/hemma/internal/keyring"
)

// StatusCmd prints where things live and what state the client is in,
// without touching the network.
type StatusCmd struct{}

func (c *StatusCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	ctx.Printf("Version:   %s\n", constants.Version)
	ctx.Printf("Config:    %s\n", config.Path(ctx.ConfigDir))
	ctx.Printf("Store:     %s (%s)\n", a.Store.Path(), ctx.Config.Backend)
	ctx.Printf("Server:    %s\n", a.Client.BaseURL())
	ctx.Printf("Period:    starts %s\n", ctx.Config.StartDate)

	if user := a.Session.User(); user != nil {
		ctx.Printf("Account:   %s <%s>\n", user.Name, user.Email)
	} else {
		ctx.Println("Account:   not signed in")
	}

	if keyring.IsAvailable() {
		ctx.Println("Keyring:   available")
	} else {
		ctx.Println("Keyring:   unavailable, sign-in will not persist")
	}

	if pid, ok := daemon.Running(filepath.Join(ctx.ConfigDir, constants.LockFileName)); ok {
		ctx.Printf("Watch:     running (pid %d)\n", pid)
	} else {
		ctx.Println("Watch:     not running")
	}
	return nil
}
