// Package service implements accounts and the server side of sync.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/julianstephens/hemma/internal/logger"
	"github.com/julianstephens/hemma/internal/models"
	"github.com/julianstephens/hemma/internal/server/metrics"
	"github.com/julianstephens/hemma/internal/server/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrUnknownUser        = errors.New("account no longer exists")
)

type Service struct {
	store   store.Store
	cache   store.Cache
	tokens  *Tokens
	metrics *metrics.Metrics
	locks   *userLocks
	now     func() time.Time
}

func New(st store.Store, cache store.Cache, tokens *Tokens, m *metrics.Metrics) *Service {
	if cache == nil {
		cache = store.NoopCache{}
	}
	if m == nil {
		m = metrics.New()
	}
	return &Service{
		store:   st,
		cache:   cache,
		tokens:  tokens,
		metrics: m,
		locks:   newUserLocks(),
		now:     time.Now,
	}
}

func (s *Service) Tokens() *Tokens {
	return s.tokens
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, name, email, password string) (resp models.AuthResponse, err error) {
	defer func() { s.metrics.TrackAuth("register", err) }()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.AuthResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}
	user := models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}

	timer := s.metrics.TrackStore("create_user")
	err = s.store.CreateUser(ctx, user)
	timer.ObserveDuration()
	if errors.Is(err, store.ErrDuplicate) {
		return models.AuthResponse{}, ErrEmailTaken
	}
	if err != nil {
		return models.AuthResponse{}, err
	}

	logger.Info("Registered account", "user", user.ID)
	return s.authResponse(user, true)
}

func (s *Service) Login(ctx context.Context, email, password string) (resp models.AuthResponse, err error) {
	defer func() { s.metrics.TrackAuth("login", err) }()

	timer := s.metrics.TrackStore("get_user")
	user, err := s.store.UserByEmail(ctx, normalizeEmail(email))
	timer.ObserveDuration()
	if errors.Is(err, store.ErrNotFound) {
		return models.AuthResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.AuthResponse{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.AuthResponse{}, ErrInvalidCredentials
	}
	return s.authResponse(user, false)
}

// Profile returns the account behind a verified token.
func (s *Service) Profile(ctx context.Context, userID string) (models.AuthUser, error) {
	timer := s.metrics.TrackStore("get_user")
	user, err := s.store.UserByID(ctx, userID)
	timer.ObserveDuration()
	if errors.Is(err, store.ErrNotFound) {
		return models.AuthUser{}, ErrUnknownUser
	}
	if err != nil {
		return models.AuthUser{}, err
	}
	return user.Profile(), nil
}

func (s *Service) authResponse(user models.User, isNew bool) (models.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return models.AuthResponse{}, err
	}
	return models.AuthResponse{AuthUser: user.Profile(), Token: token, IsNewUser: isNew}, nil
}
