package backups

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/hemma/internal/backup"
	"github.com/julianstephens/hemma/internal/cli"
	"github.com/julianstephens/hemma/internal/constants"
	"github.com/julianstephens/hemma/internal/daemon"
)

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
	List    BackupListCmd    `cmd:"" help:"List available backups."`
	Restore BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr := backup.NewManager(ctx.StorePath())
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	ctx.Printf("✓ Backup created: %s\n", filepath.Base(backupPath))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr := backup.NewManager(ctx.StorePath())
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		ctx.Println("No backups found.")
		ctx.Printf("Backups are stored in: %s\n", mgr.BackupDir())
		return nil
	}

	ctx.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), backup.MaxBackups)
	for _, b := range backups {
		sizeKB := float64(b.Size) / 1024.0
		ctx.Printf("  %s  %s  (%.1f KB)\n", b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), sizeKB)
	}
	ctx.Printf("\nBackup directory: %s\n", mgr.BackupDir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr := backup.NewManager(ctx.StorePath())

	backupPath, err := c.resolve(mgr)
	if err != nil {
		return err
	}

	if pid, ok := daemon.Running(filepath.Join(ctx.ConfigDir, constants.LockFileName)); ok {
		return fmt.Errorf("hemma watch is running (pid %d), stop it before restoring", pid)
	}

	if !c.Yes {
		ctx.Println("⚠️  This will replace your local progress with the backup.")
		ctx.Println("A backup of the current store is taken before restoring.")
		ok, err := ctx.Prompt.Confirm(fmt.Sprintf("Restore from %s?", filepath.Base(backupPath)))
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Restore cancelled.")
			return nil
		}
	}

	if err := ctx.Close(); err != nil {
		ctx.Printf("Warning: failed to close local store: %v\n", err)
	}

	if err := mgr.RestoreBackup(backupPath); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	ctx.Println("✓ Local store restored. Newer values from your account still win on the next sync.")
	return nil
}

// resolve accepts an absolute path, a path relative to the working
// directory or a bare file name inside the backup directory.
func (c *BackupRestoreCmd) resolve(mgr *backup.Manager) (string, error) {
	if filepath.IsAbs(c.BackupFile) {
		if _, err := os.Stat(c.BackupFile); err != nil {
			return "", fmt.Errorf("backup file not found: %s", c.BackupFile)
		}
		return c.BackupFile, nil
	}

	if _, err := os.Stat(c.BackupFile); err == nil {
		abs, err := filepath.Abs(c.BackupFile)
		if err != nil {
			return "", fmt.Errorf("failed to resolve backup path: %w", err)
		}
		return abs, nil
	}

	candidate := filepath.Join(mgr.BackupDir(), c.BackupFile)
	if _, err := os.Stat(candidate); err != nil {
		return "", fmt.Errorf("backup file not found: tried current directory and %s", mgr.BackupDir())
	}
	return candidate, nil
}
