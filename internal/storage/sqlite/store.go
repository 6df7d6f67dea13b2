package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/hemma/internal/logger"
	"github.com/julianstephens/hemma/internal/migration"
	"github.com/julianstephens/hemma/internal/storage"
	"github.com/julianstephens/hemma/migrations"
)

// Store is the default local backend: one kv table in a sqlite file.
type Store struct {
	path string
	db   *sql.DB
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

func (s *Store) dsn() string {
	// other hemma processes (watch, tui) may hold the file
	return s.path + "?_pragma=busy_timeout(5000)"
}

func (s *Store) Init() error {
	if s.db != nil {
		return nil
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return storage.ErrNotInitialized
	}

	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	// an older binary may have created the file; bring it forward
	return s.runMigrations()
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) Path() string {
	return s.path
}

// GetDB returns the underlying database connection, nil before Init or Load.
func (s *Store) GetDB() *sql.DB {
	return s.db
}

func (s *Store) Get(key string) ([]byte, bool, error) {
	if s.db == nil {
		return nil, false, storage.ErrNotLoaded
	}

	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (s *Store) Set(key string, value []byte) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}

	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(value), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Keys lists every stored key.
func (s *Store) Keys() ([]string, error) {
	if s.db == nil {
		return nil, storage.ErrNotLoaded
	}
	rows, err := s.db.Query("SELECT key FROM kv ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *Store) runMigrations() error {
	subFS, err := fs.Sub(migrations.FS, "local")
	if err != nil {
		return fmt.Errorf("failed to access local migrations: %w", err)
	}

	runner := migration.NewRunner(s.db, subFS, migration.SQLite)
	_, err = runner.ApplyMigrations(func(msg string) {
		logger.Debug(msg)
	})
	return err
}
