// Package store persists accounts and per-user sync snapshots for the
// sync server.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/hemma/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Store holds accounts and the merged sync state of each account. Snapshot
// writes upsert by (user, dayIndex, habitId) and (user, categoryId).
type Store interface {
	CreateUser(ctx context.Context, user models.User) error
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id string) (models.User, error)

	LoadSnapshot(ctx context.Context, userID string) (models.SyncPayload, error)
	SaveSnapshot(ctx context.Context, userID string, payload models.SyncPayload) error
	DeleteSnapshot(ctx context.Context, userID string) error

	Ping(ctx context.Context) error
	Close() error
}

type Options struct {
	Driver      string
	DatabaseURL string
	MongoURI    string
	MongoDB     string
	// Timeout bounds connecting and migrating.
	Timeout time.Duration
}

// Open connects to the configured backend and brings its schema up to date.
func Open(ctx context.Context, opts Options) (Store, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	switch opts.Driver {
	case DriverSQLite, "":
		return OpenSQLite(ctx, opts.DatabaseURL)
	case DriverPostgres:
		return OpenPostgres(ctx, opts.DatabaseURL)
	case DriverMongo:
		return OpenMongo(ctx, opts.MongoURI, opts.MongoDB)
	default:
		return nil, fmt.Errorf("unknown store driver %q (use %s, %s or %s)", opts.Driver, DriverSQLite, DriverPostgres, DriverMongo)
	}
}
