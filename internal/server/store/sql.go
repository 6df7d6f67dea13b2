package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	pq "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/julianstephens/hemma/internal/logger"
	"github.com/julianstephens/hemma/internal/migration"
	"github.com/julianstephens/hemma/internal/models"
	"github.com/julianstephens/hemma/migrations"
)

// SQLStore serves both sqlite and postgres. Queries are written with ?
// placeholders and rebound for postgres.
type SQLStore struct {
	db      *sql.DB
	dialect migration.Dialect
}

func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if path == "" {
		return nil, errors.New("sqlite store needs a database path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer keeps sqlite from reporting SQLITE_BUSY under concurrent uploads
	db.SetMaxOpenConns(1)
	return newSQLStore(ctx, db, migration.SQLite, "server_sqlite")
}

func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	if _, err := pq.NewConnector(dsn); err != nil {
		return nil, fmt.Errorf("invalid postgres connection string: %w", err)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newSQLStore(ctx, db, migration.Postgres, "server_postgres")
}

func newSQLStore(ctx context.Context, db *sql.DB, dialect migration.Dialect, dir string) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	subFS, err := fs.Sub(migrations.FS, dir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to access %s migrations: %w", dir, err)
	}
	runner := migration.NewRunner(db, subFS, dialect)
	if _, err := runner.ApplyMigrations(func(msg string) { logger.Info(msg) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStore{db: db, dialect: dialect}, nil
}

// rebind turns ? placeholders into $1, $2, ... for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != migration.Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) CreateUser(ctx context.Context, u models.User) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *SQLStore) UserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.queryUser(ctx, "email", email)
}

func (s *SQLStore) UserByID(ctx context.Context, id string) (models.User, error) {
	return s.queryUser(ctx, "id", id)
}

func (s *SQLStore) queryUser(ctx context.Context, column, value string) (models.User, error) {
	var u models.User
	var created string
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, name, email, password_hash, created_at FROM users WHERE `+column+` = ?
	`), value).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return u, nil
}

func (s *SQLStore) LoadSnapshot(ctx context.Context, userID string) (models.SyncPayload, error) {
	var p models.SyncPayload

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT day_index, habit_id, value, updated_at FROM sync_entries
		WHERE user_id = ? ORDER BY day_index, habit_id
	`), userID)
	if err != nil {
		return p, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e models.SyncEntry
		var raw string
		if err := rows.Scan(&e.DayIndex, &e.HabitID, &raw, &e.UpdatedAt); err != nil {
			return p, fmt.Errorf("failed to scan entry: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &e.Value); err != nil {
			logger.Warn("Skipping unreadable entry value", "user", userID, "habit", e.HabitID, "error", err)
			continue
		}
		p.Entries = append(p.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return p, fmt.Errorf("error iterating entries: %w", err)
	}

	crows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT category_id, name, icon, items, sort_order, updated_at FROM sync_categories
		WHERE user_id = ? ORDER BY sort_order, category_id
	`), userID)
	if err != nil {
		return p, fmt.Errorf("failed to query categories: %w", err)
	}
	defer crows.Close()
	for crows.Next() {
		var c models.SyncCategory
		var items string
		if err := crows.Scan(&c.CategoryID, &c.Name, &c.Icon, &items, &c.SortOrder, &c.UpdatedAt); err != nil {
			return p, fmt.Errorf("failed to scan category: %w", err)
		}
		if err := json.Unmarshal([]byte(items), &c.Items); err != nil {
			return p, fmt.Errorf("failed to unmarshal items of %s: %w", c.CategoryID, err)
		}
		p.Categories = append(p.Categories, c)
	}
	if err := crows.Err(); err != nil {
		return p, fmt.Errorf("error iterating categories: %w", err)
	}

	return p, nil
}

func (s *SQLStore) SaveSnapshot(ctx context.Context, userID string, payload models.SyncPayload) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	entryStmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO sync_entries (user_id, day_index, habit_id, value, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, day_index, habit_id)
		DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare entry upsert: %w", err)
	}
	defer entryStmt.Close()

	for _, e := range payload.Entries {
		raw, err := json.Marshal(e.Value)
		if err != nil {
			return fmt.Errorf("failed to marshal value: %w", err)
		}
		if _, err := entryStmt.ExecContext(ctx, userID, e.DayIndex, e.HabitID, string(raw), e.UpdatedAt); err != nil {
			return fmt.Errorf("failed to upsert entry %d/%s: %w", e.DayIndex, e.HabitID, err)
		}
	}

	catStmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO sync_categories (user_id, category_id, name, icon, items, sort_order, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, category_id)
		DO UPDATE SET name = excluded.name, icon = excluded.icon, items = excluded.items,
			sort_order = excluded.sort_order, updated_at = excluded.updated_at
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare category upsert: %w", err)
	}
	defer catStmt.Close()

	for _, c := range payload.Categories {
		items := c.Items
		if items == nil {
			items = []models.HabitItem{}
		}
		raw, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("failed to marshal items: %w", err)
		}
		if _, err := catStmt.ExecContext(ctx, userID, c.CategoryID, c.Name, c.Icon, string(raw), c.SortOrder, c.UpdatedAt); err != nil {
			return fmt.Errorf("failed to upsert category %s: %w", c.CategoryID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteSnapshot(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM sync_entries WHERE user_id = ?"), userID); err != nil {
		return fmt.Errorf("failed to delete entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM sync_categories WHERE user_id = ?"), userID); err != nil {
		return fmt.Errorf("failed to delete categories: %w", err)
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
