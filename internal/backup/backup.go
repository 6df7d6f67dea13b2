// Package backup snapshots the local store before destructive operations.
package backup

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/hemma/internal/logger"
)

const (
	// MaxBackups is the number of snapshots kept per store
	MaxBackups = 10
	// BackupDirName is created next to the store file
	BackupDirName    = "backups"
	BackupFilePrefix = "hemma-"

	timestampLayout = "20060102-150405"
)

// BackupInfo describes one snapshot on disk.
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64

	seq int
}

// Manager creates, lists, rotates and restores snapshots of one store file.
// SQLite stores are copied with VACUUM INTO, JSON stores byte for byte.
type Manager struct {
	storePath string
	backupDir string
	suffix    string
	now       func() time.Time
}

func NewManager(storePath string) *Manager {
	return &Manager{
		storePath: storePath,
		backupDir: filepath.Join(filepath.Dir(storePath), BackupDirName),
		suffix:    filepath.Ext(storePath),
		now:       time.Now,
	}
}

func (m *Manager) BackupDir() string {
	return m.backupDir
}

func (m *Manager) isSQLite() bool {
	return m.suffix != ".json"
}

// CreateBackup snapshots the store and prunes old snapshots.
func (m *Manager) CreateBackup() (string, error) {
	return m.createBackup(false)
}

// skipRotation keeps the pre-restore snapshot from pruning the one being restored
func (m *Manager) createBackup(skipRotation bool) (string, error) {
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	if _, err := os.Stat(m.storePath); os.IsNotExist(err) {
		return "", fmt.Errorf("store does not exist: %s", m.storePath)
	}

	path, err := m.nextPath()
	if err != nil {
		return "", err
	}

	if m.isSQLite() {
		err = m.vacuumInto(path)
	} else {
		err = m.copyJSON(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to back up store: %w", err)
	}

	if !skipRotation {
		if err := m.rotate(); err != nil {
			logger.Warn("Failed to rotate old backups", "error", err)
		}
	}
	logger.Debug("Backup created", "path", path)
	return path, nil
}

func (m *Manager) nextPath() (string, error) {
	stamp := m.now().Format(timestampLayout)
	path := filepath.Join(m.backupDir, BackupFilePrefix+stamp+m.suffix)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
		if counter > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		path = filepath.Join(m.backupDir, fmt.Sprintf("%s%s-%d%s", BackupFilePrefix, stamp, counter, m.suffix))
	}
}

func (m *Manager) vacuumInto(dest string) error {
	src, err := sql.Open("sqlite", m.storePath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer src.Close()

	var count int
	if err := src.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count); err != nil {
		return fmt.Errorf("store appears to be corrupted: %w", err)
	}
	if _, err := src.Exec("VACUUM INTO ?", dest); err != nil {
		src.Close()
		return copyFile(m.storePath, dest)
	}
	return nil
}

func (m *Manager) copyJSON(dest string) error {
	if err := verifyJSON(m.storePath); err != nil {
		return fmt.Errorf("store appears to be corrupted: %w", err)
	}
	return copyFile(m.storePath, dest)
}

// ListBackups returns snapshots newest first.
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(m.backupDir)
	if os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, BackupFilePrefix) || !strings.HasSuffix(name, m.suffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, BackupFilePrefix), m.suffix)
		seq := 0
		if len(stamp) > len(timestampLayout)+1 {
			n, err := strconv.Atoi(stamp[len(timestampLayout)+1:])
			if err != nil {
				continue
			}
			seq = n
			stamp = stamp[:len(timestampLayout)]
		}
		ts, err := time.ParseInLocation(timestampLayout, stamp, time.Local)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Path:      filepath.Join(m.backupDir, name),
			Timestamp: ts,
			Size:      info.Size(),
			seq:       seq,
		})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].seq > backups[j].seq
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

func (m *Manager) rotate() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}
	for i := MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// RestoreBackup replaces the store with a snapshot. The current store is
// snapshotted first. The store must be closed by the caller.
func (m *Manager) RestoreBackup(backupPath string) error {
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("backup file does not exist: %s", backupPath)
	}
	if err := m.verify(backupPath); err != nil {
		return fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	if _, err := os.Stat(m.storePath); err == nil {
		current, err := m.createBackup(true)
		if err != nil {
			return fmt.Errorf("failed to back up current store before restore: %w", err)
		}
		logger.Info("Backed up current store before restore", "path", current)
	}

	tmp := m.storePath + ".restore.tmp"
	if err := copyFile(backupPath, tmp); err != nil {
		return fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tmp, m.storePath); err != nil {
		if removeErr := os.Remove(tmp); removeErr != nil {
			logger.Warn("Failed to remove temporary file", "path", tmp, "error", removeErr)
		}
		return fmt.Errorf("failed to restore store: %w", err)
	}
	return nil
}

func (m *Manager) verify(path string) error {
	if !m.isSQLite() {
		return verifyJSON(path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()
	var count int
	return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count)
}

func verifyJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !json.Valid(data) {
		return fmt.Errorf("%s is not valid JSON", filepath.Base(path))
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}
