package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/skillpulse/internal/constants"
	"github.com/julianstephens/skillpulse/internal/httpapi"
	"github.com/julianstephens/skillpulse/internal/keyring"
	"github.com/julianstephens/skillpulse/internal/validation"
)

type DoctorCmd struct{}

type check struct {
	name string
	run  func(*Context) error
	// needsStore checks are skipped when the store cannot be loaded.
	needsStore bool
	// warn failures are reported without failing the command.
	warn bool
}

var checks = []check{
	{name: "Storage reachable", run: checkStore},
	{name: "Store metadata", run: checkMeta, needsStore: true},
	{name: "Data validation", run: checkData, needsStore: true},
	{name: "Timezone", run: checkTimezone},
	{name: "Backups present", run: checkBackups, warn: true},
	{name: "OS keyring", run: checkKeyring, warn: true},
	{name: "Daemon", run: checkDaemon, warn: true},
}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	ctx.println("Running diagnostics...")
	ctx.println()

	storeOK, failed := true, false
	for _, c := range checks {
		if c.needsStore && !storeOK {
			ctx.printf("⊘ %s: SKIPPED (storage not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.printf("✓ %s: OK\n", c.name)
		case c.warn:
			ctx.printf("⚠ %s: WARNING\n   %v\n", c.name, err)
		default:
			ctx.printf("❌ %s: FAIL\n   Error: %v\n", c.name, err)
			failed = true
		}
		if c.name == "Storage reachable" && err != nil {
			storeOK = false
		}
	}

	ctx.println()
	if failed {
		ctx.println("Diagnostics completed with errors.")
		return errors.New("one or more health checks failed")
	}
	ctx.println("All diagnostics passed!")
	return nil
}

func checkStore(ctx *Context) error {
	_, err := ctx.Store()
	return err
}

func checkMeta(ctx *Context) error {
	repo, err := ctx.Repository()
	if err != nil {
		return err
	}
	snap, err := repo.Read(context.Background(), constants.KeyMeta)
	if err != nil {
		return err
	}
	if !snap.Has(constants.KeyMeta) {
		return fmt.Errorf("no %s record; run '%s init'", constants.KeyMeta, constants.AppName)
	}
	meta, err := snap.Meta()
	if err != nil {
		return err
	}
	if meta.Version != constants.MetaVersion {
		return fmt.Errorf("store version %d, expected %d", meta.Version, constants.MetaVersion)
	}
	return nil
}

func checkData(ctx *Context) error {
	repo, err := ctx.Repository()
	if err != nil {
		return err
	}
	snap, err := repo.ReadAll(context.Background())
	if err != nil {
		return err
	}
	result := validation.New().ValidateSnapshot(snap)
	if result.HasConflicts() {
		return fmt.Errorf("%d conflicts; run '%s validate' for details", len(result.Conflicts), constants.AppName)
	}
	return nil
}

func checkTimezone(ctx *Context) error {
	_, err := ctx.Config.Location()
	return err
}

func checkBackups(ctx *Context) error {
	if ctx.Config.Storage.Backend != constants.BackendSQLite {
		return nil
	}
	mgr, err := ctx.backups()
	if err != nil {
		return err
	}
	list, err := mgr.List()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return fmt.Errorf("no backups yet; run '%s backup'", constants.AppName)
	}
	return nil
}

func checkKeyring(ctx *Context) error {
	b := ctx.Config.Storage.Backend
	if b != constants.BackendPostgres && b != constants.BackendRedis {
		return nil
	}
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	return nil
}

func checkDaemon(ctx *Context) error {
	if err := httpapi.NewClient(ctx.Config.Server.Addr).Ping(context.Background()); err != nil {
		return fmt.Errorf("not running at %s; focus sessions only complete while '%s serve' runs", ctx.Config.Server.Addr, constants.AppName)
	}
	return nil
}
