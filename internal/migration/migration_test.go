package migration

import (
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/hemma/migrations"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestApplyMigrations(t *testing.T) {
	db := openDB(t)
	fsys := fstest.MapFS{
		"002_add_notes.sql": {Data: []byte("ALTER TABLE kv ADD COLUMN note TEXT;")},
		"001_init.sql":      {Data: []byte("CREATE TABLE kv (key TEXT PRIMARY KEY, value TEXT);")},
		"README.md":         {Data: []byte("ignored")},
	}
	runner := NewRunner(db, fsys, SQLite)

	var logs []string
	applied, err := runner.ApplyMigrations(func(s string) { logs = append(logs, s) })
	if err != nil {
		t.Fatalf("ApplyMigrations() error = %v", err)
	}
	if applied != 2 {
		t.Errorf("applied = %d, want 2", applied)
	}

	version, err := runner.GetCurrentVersion()
	if err != nil || version != 2 {
		t.Errorf("GetCurrentVersion() = %d, %v; want 2", version, err)
	}

	// second run is a no-op
	applied, err = runner.ApplyMigrations(nil)
	if err != nil || applied != 0 {
		t.Errorf("second ApplyMigrations() = %d, %v; want 0, nil", applied, err)
	}
	if len(logs) == 0 {
		t.Error("expected progress messages")
	}
}

func TestReadMigrationFilesRejectsBadNames(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
		want string
	}{
		{name: "missing underscore", fsys: fstest.MapFS{"001.sql": {}}, want: "invalid migration filename"},
		{name: "non numeric", fsys: fstest.MapFS{"abc_init.sql": {}}, want: "invalid version number"},
		{name: "zero version", fsys: fstest.MapFS{"000_init.sql": {}}, want: "at least 1"},
		{name: "duplicate", fsys: fstest.MapFS{"001_a.sql": {}, "1_b.sql": {}}, want: "duplicate migration version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRunner(nil, tt.fsys, SQLite).ReadMigrationFiles()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ReadMigrationFiles() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestValidateVersionNewerDatabase(t *testing.T) {
	db := openDB(t)
	runner := NewRunner(db, fstest.MapFS{"001_init.sql": {Data: []byte("SELECT 1;")}}, SQLite)
	if err := runner.EnsureSchemaVersionTable(); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (7)"); err != nil {
		t.Fatal(err)
	}

	if err := runner.ValidateVersion(); err == nil {
		t.Error("ValidateVersion() should fail when the database is newer")
	}
}

func TestEmbeddedServerSQLiteMigrations(t *testing.T) {
	sub, err := fs.Sub(migrations.FS, "server_sqlite")
	if err != nil {
		t.Fatal(err)
	}
	db := openDB(t)
	if _, err := NewRunner(db, sub, SQLite).ApplyMigrations(nil); err != nil {
		t.Fatalf("server sqlite migrations failed: %v", err)
	}
	for _, table := range []string{"users", "sync_entries", "sync_categories"} {
		var n int
		if err := db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&n); err != nil || n != 1 {
			t.Errorf("table %s missing (n=%d, err=%v)", table, n, err)
		}
	}
}
