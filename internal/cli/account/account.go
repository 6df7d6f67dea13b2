package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/hemma/internal/auth"
	"github.com/julianstephens/hemma/internal/cli"
	"github.com/julianstephens/hemma/internal/constants"
	"github.com/julianstephens/hemma/internal/models"
)

type LoginCmd struct {
	Email string `help:"Account email. Prompted for when omitted."`
}

func (c *LoginCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	email, err := promptIfEmpty(ctx, c.Email, "Email")
	if err != nil {
		return err
	}
	password, err := ctx.Prompt.Password("Password")
	if err != nil {
		return err
	}

	rctx, cancel := context.WithTimeout(context.Background(), constants.RemoteTimeout)
	defer cancel()
	user, err := a.Session.Login(rctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	printSignedIn(ctx, user)
	return nil
}

type RegisterCmd struct {
	Name  string `help:"Display name. Prompted for when omitted."`
	Email string `help:"Account email. Prompted for when omitted."`
}

func (c *RegisterCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	name, err := promptIfEmpty(ctx, c.Name, "Name")
	if err != nil {
		return err
	}
	email, err := promptIfEmpty(ctx, c.Email, "Email")
	if err != nil {
		return err
	}
	password, err := ctx.Prompt.Password("Password")
	if err != nil {
		return err
	}
	confirm, err := ctx.Prompt.Password("Confirm password")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	rctx, cancel := context.WithTimeout(context.Background(), constants.RemoteTimeout)
	defer cancel()
	user, err := a.Session.Register(rctx, name, email, password)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	printSignedIn(ctx, user)
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	if !a.Session.IsAuthenticated() {
		ctx.Println("Not signed in.")
		return nil
	}
	if err := a.Session.Logout(); err != nil {
		return err
	}
	ctx.Println("✓ Signed out. Local progress is kept on this device.")
	return nil
}

type WhoamiCmd struct {
	Offline bool `help:"Show the cached account without contacting the server."`
}

func (c *WhoamiCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	if c.Offline {
		user := a.Session.User()
		if user == nil {
			return auth.ErrNotSignedIn
		}
		printUser(ctx, user)
		return nil
	}

	rctx, cancel := context.WithTimeout(context.Background(), constants.RemoteTimeout)
	defer cancel()
	user, err := a.Session.Validate(rctx)
	if err != nil {
		return err
	}
	printUser(ctx, user)
	return nil
}

func promptIfEmpty(ctx *cli.Context, value, title string) (string, error) {
	if value = strings.TrimSpace(value); value != "" {
		return value, nil
	}
	return ctx.Prompt.Input(title)
}

func printSignedIn(ctx *cli.Context, user *models.AuthUser) {
	ctx.Printf("✓ Signed in as %s <%s>\n", user.Name, user.Email)
	ctx.Println("  Run 'hemma sync' to merge this device with your account.")
}

func printUser(ctx *cli.Context, user *models.AuthUser) {
	ctx.Printf("Name:  %s\n", user.Name)
	ctx.Printf("Email: %s\n", user.Email)
	ctx.Printf("ID:    %s\n", user.UID)
}
