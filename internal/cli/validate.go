package cli

import (
	"context"
	"fmt"

	"github.com/julianstephens/skillpulse/internal/validation"
)

type ValidateCmd struct {
	Fix bool `help:"Remove orphaned day logs and stale focus sessions."`
}

func (c *ValidateCmd) Run(ctx *Context) error {
	bg := context.Background()
	repo, err := ctx.Repository()
	if err != nil {
		return err
	}
	snap, err := repo.ReadAll(bg)
	if err != nil {
		return err
	}

	result := validation.New().ValidateSnapshot(snap)
	ctx.println(result.FormatReport())
	if !result.HasConflicts() {
		return nil
	}
	if !c.Fix {
		ctx.println("\nRun with --fix to repair what can be repaired automatically.")
		return fmt.Errorf("%d conflicts found", len(result.Conflicts))
	}

	actions := validation.AutoFixOrphans(result.Conflicts, func(keys ...string) error {
		return repo.RemoveKeys(bg, keys...)
	})
	if len(actions) == 0 {
		ctx.println("\nNothing could be fixed automatically.")
		return fmt.Errorf("%d conflicts need manual attention", len(result.Conflicts))
	}
	ctx.println("\nFixes:")
	for _, a := range actions {
		ctx.printf("- %s\n", a.Action)
	}
	if len(actions) < len(result.Conflicts) {
		return fmt.Errorf("%d conflicts need manual attention", len(result.Conflicts)-len(actions))
	}
	return nil
}
