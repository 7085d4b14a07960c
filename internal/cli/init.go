package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/julianstephens/skillpulse/internal/constants"
	"github.com/julianstephens/skillpulse/internal/engine"
	"github.com/julianstephens/skillpulse/internal/storage"
)

type InitCmd struct {
	Force bool `help:"Delete an existing sqlite database before initializing."`
}

func (c *InitCmd) Run(ctx *Context) error {
	cfg := ctx.Config
	if err := ctx.Close(); err != nil {
		return fmt.Errorf("failed to close existing store: %w", err)
	}
	if c.Force && cfg.Storage.Backend == constants.BackendSQLite {
		if err := os.Remove(cfg.Storage.Path); err == nil {
			ctx.printf("Deleted existing database at: %s\n", cfg.Storage.Path)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
	}

	store, err := OpenStore(cfg)
	if err != nil {
		return err
	}
	if err := store.Init(); err != nil {
		return err
	}
	ctx.store = store

	seeded, err := seed(context.Background(), storage.NewRepository(store))
	if err != nil {
		return err
	}
	ctx.printf("Initialized %s storage at: %s\n", cfg.Storage.Backend, store.GetConfigPath())
	if seeded {
		ctx.println("Created an empty profile. Set your name with 'skillpulse name <name>'.")
	}
	return nil
}

// seed writes the install-time documents when the store has no meta record.
func seed(ctx context.Context, repo *storage.Repository) (bool, error) {
	snap, err := repo.Read(ctx, constants.KeyMeta)
	if err != nil {
		return false, err
	}
	if snap.Has(constants.KeyMeta) {
		return false, nil
	}
	if res := repo.WriteMany(ctx, engine.InitialEntries()...); !res.OK() {
		return false, res.Err()
	}
	return true, nil
}
