// Package auth keeps the signed-in user: the bearer credential lives in the
// OS keyring and the profile is cached in the local store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/hemma/internal/constants"
	"github.com/julianstephens/hemma/internal/keyring"
	"github.com/julianstephens/hemma/internal/logger"
	"github.com/julianstephens/hemma/internal/models"
	"github.com/julianstephens/hemma/internal/notify"
	"github.com/julianstephens/hemma/internal/remote"
	"github.com/julianstephens/hemma/internal/storage"
)

var (
	ErrNotSignedIn    = errors.New("not signed in")
	ErrSessionExpired = errors.New("session expired, sign in again")
)

// Client is the subset of the remote API the session needs.
type Client interface {
	Login(ctx context.Context, email, password string) (models.AuthResponse, error)
	Register(ctx context.Context, name, email, password string) (models.AuthResponse, error)
	Profile(ctx context.Context) (models.AuthUser, error)
}

type Session struct {
	client Client
	user   *storage.Value[*models.AuthUser]
	hub    notify.Hub
}

func New(store storage.Provider, client Client) *Session {
	return &Session{
		client: client,
		user:   storage.NewValue[*models.AuthUser](store, constants.KeyAuthUser, nil),
	}
}

func (s *Session) Hydrate() {
	s.user.Hydrate()
	s.hub.Notify()
}

func (s *Session) Reload() {
	s.user.Reload()
	s.hub.Notify()
}

func (s *Session) Subscribe(fn func()) func() {
	return s.hub.Subscribe(fn)
}

// User returns the cached profile, or nil when signed out.
func (s *Session) User() *models.AuthUser {
	u := s.user.Get()
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

func (s *Session) IsAuthenticated() bool {
	return s.user.Get() != nil
}

// Token returns the stored bearer token. It satisfies remote.TokenSource.
func (s *Session) Token() (string, error) {
	return keyring.GetToken()
}

func (s *Session) Login(ctx context.Context, email, password string) (*models.AuthUser, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}
	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if err := s.establish(resp); err != nil {
		return nil, err
	}
	logger.Info("Signed in", "email", resp.Email)
	return s.User(), nil
}

// Register creates the account and signs in. The first download after the
// rising edge pulls nothing, and the upload that follows pushes the local
// history to the new account.
func (s *Session) Register(ctx context.Context, name, email, password string) (*models.AuthUser, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, errors.New("name, email and password are required")
	}
	resp, err := s.client.Register(ctx, name, email, password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if err := s.establish(resp); err != nil {
		return nil, err
	}
	logger.Info("Registered", "email", resp.Email)
	return s.User(), nil
}

func (s *Session) establish(resp models.AuthResponse) error {
	if resp.Token == "" {
		return errors.New("server returned no token")
	}
	if err := keyring.SetToken(resp.Token); err != nil {
		return err
	}
	user := resp.AuthUser
	s.user.Set(&user)
	s.hub.Notify()
	return nil
}

// Logout forgets the credential and the cached profile. Local tracker data
// is left alone.
func (s *Session) Logout() error {
	err := keyring.DeleteToken()
	s.user.Reset()
	s.hub.Notify()
	return err
}

// Validate confirms the credential with the server and refreshes the cached
// profile. A rejected credential signs the user out.
func (s *Session) Validate(ctx context.Context) (*models.AuthUser, error) {
	if !s.IsAuthenticated() {
		return nil, ErrNotSignedIn
	}
	profile, err := s.client.Profile(ctx)
	if err != nil {
		if remote.IsUnauthorized(err) {
			s.HandleAuthError(err)
			return nil, ErrSessionExpired
		}
		return nil, err
	}
	s.user.Set(&profile)
	return s.User(), nil
}

// HandleAuthError is the implicit sign-out performed when the server rejects
// the credential.
func (s *Session) HandleAuthError(err error) {
	logger.Warn("Credential rejected, signing out", "error", err)
	if err := s.Logout(); err != nil {
		logger.Warn("Failed to clear credential", "error", err)
	}
}
