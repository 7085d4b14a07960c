package cli

import (
	"errors"
	"fmt"

	"github.com/julianstephens/skillpulse/internal/constants"
	"github.com/julianstephens/skillpulse/internal/keyring"
	"github.com/julianstephens/skillpulse/internal/storage/postgres"
)

type KeyringSetCmd struct {
	Backend string `help:"Backend the connection string belongs to." enum:"postgres,redis" default:"postgres"`
	DSN     string `arg:"" help:"Connection string to store."`
}

func (c *KeyringSetCmd) Run(ctx *Context) error {
	if c.Backend == constants.BackendPostgres {
		if _, err := postgres.ValidateConnString(c.DSN); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("invalid connection string: %w", err)
			}
			// Embedded passwords are allowed in the keyring only.
			ctx.println("⚠️  The connection string contains a password; it is stored as-is in the OS keyring.")
		}
	}
	if err := keyring.SetDSN(c.Backend, c.DSN); err != nil {
		return err
	}
	ctx.printf("%s %s connection string stored in the OS keyring\n", successStyle.Render("✓"), c.Backend)
	return nil
}

type KeyringGetCmd struct {
	Backend string `help:"Backend whose connection string to show." enum:"postgres,redis" default:"postgres"`
}

func (c *KeyringGetCmd) Run(ctx *Context) error {
	dsn, err := keyring.GetDSN(c.Backend)
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("no %s connection string in keyring; use '%s keyring set' to store one", c.Backend, constants.AppName)
	}
	if err != nil {
		return err
	}
	ctx.println(keyring.Mask(dsn))
	return nil
}

type KeyringDeleteCmd struct {
	Backend string `help:"Backend whose connection string to delete." enum:"postgres,redis" default:"postgres"`
}

func (c *KeyringDeleteCmd) Run(ctx *Context) error {
	if err := keyring.DeleteDSN(c.Backend); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s connection string in keyring", c.Backend)
		}
		return err
	}
	ctx.printf("%s %s connection string deleted\n", successStyle.Render("✓"), c.Backend)
	return nil
}

type KeyringStatusCmd struct{}

func (c *KeyringStatusCmd) Run(ctx *Context) error {
	if !keyring.IsAvailable() {
		ctx.println("❌ OS keyring is not available on this system")
		return keyring.ErrKeyringUnavailable
	}
	ctx.println("✓ OS keyring is available")
	for _, backend := range []string{constants.BackendPostgres, constants.BackendRedis} {
		if _, err := keyring.GetDSN(backend); err == nil {
			ctx.printf("✓ %s connection string stored\n", backend)
		} else {
			ctx.printf("ℹ no %s connection string stored\n", backend)
		}
	}
	return nil
}
