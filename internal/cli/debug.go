package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/skillpulse/internal/storage"
)

type DebugCmd struct {
	StorePath DebugStorePathCmd `cmd:"" help:"Show where data is stored."`
	Dump      DebugDumpCmd      `cmd:"" help:"Dump stored documents as JSON."`
}

type DebugStorePathCmd struct{}

func (cmd *DebugStorePathCmd) Run(ctx *Context) error {
	store, err := OpenStore(ctx.Config)
	if err != nil {
		return err
	}
	return ctx.printJSON(map[string]string{
		"backend": ctx.Config.Storage.Backend,
		"path":    store.GetConfigPath(),
	})
}

type DebugDumpCmd struct {
	Keys []string `arg:"" optional:"" help:"Keys to dump. Dumps everything when omitted."`
}

func (cmd *DebugDumpCmd) Run(ctx *Context) error {
	repo, err := ctx.Repository()
	if err != nil {
		return err
	}
	bg := context.Background()
	var snap storage.Snapshot
	if len(cmd.Keys) > 0 {
		snap, err = repo.Read(bg, cmd.Keys...)
	} else {
		snap, err = repo.ReadAll(bg)
	}
	if err != nil {
		return err
	}

	out := map[string]json.RawMessage{}
	for _, k := range snap.Keys() {
		raw, _ := snap.Raw(k)
		out[k] = raw
	}
	for _, k := range cmd.Keys {
		if _, ok := out[k]; !ok {
			return fmt.Errorf("no document stored under %q", k)
		}
	}
	return ctx.printJSON(out)
}
