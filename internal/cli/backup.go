package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/skillpulse/internal/backup"
	"github.com/julianstephens/skillpulse/internal/constants"
)

func (c *Context) backups() (*backup.Manager, error) {
	if c.Config.Storage.Backend != constants.BackendSQLite {
		return nil, errors.New("backups are only available for the sqlite backend")
	}
	return backup.NewManager(c.Config.Storage.Path), nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *Context) error {
	mgr, err := ctx.backups()
	if err != nil {
		return err
	}
	path, err := mgr.Create(context.Background())
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	ctx.printf("%s Backup created: %s\n", successStyle.Render("✓"), filepath.Base(path))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *Context) error {
	mgr, err := ctx.backups()
	if err != nil {
		return err
	}
	list, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(list) == 0 {
		ctx.println("No backups found.")
		ctx.printf("Backups are stored in: %s\n", mgr.Dir())
		return nil
	}

	ctx.printf("Available backups (%d total, keeping most recent %d):\n\n", len(list), constants.MaxBackups)
	for _, b := range list {
		ctx.printf("  %s  %s  (%.1f KB)\n",
			b.Timestamp.Local().Format("2006-01-02 15:04:05"), filepath.Base(b.Path), float64(b.Size)/1024.0)
	}
	ctx.printf("\nBackup directory: %s\n", mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	File string `arg:"" help:"Path or file name of the backup to restore."`
	Yes  bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *BackupRestoreCmd) Run(ctx *Context) error {
	mgr, err := ctx.backups()
	if err != nil {
		return err
	}

	path := c.File
	if _, err := os.Stat(path); err != nil {
		path = filepath.Join(mgr.Dir(), c.File)
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("backup file not found: tried %s and %s", c.File, mgr.Dir())
		}
	}

	if !c.Yes {
		ctx.println("⚠️  This replaces your current database with the backup.")
		ctx.println("   Stop the daemon and any TUI first. The current database is backed up before restoring.")
		ok, err := ctx.confirm("Restore from " + filepath.Base(path) + "?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.println("Restore cancelled.")
			return nil
		}
	}

	if err := ctx.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	if err := mgr.Restore(context.Background(), path); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	ctx.printf("%s Restored from %s\n", successStyle.Render("✓"), filepath.Base(path))
	return nil
}
