package cli

import (
	"context"
	"fmt"

	"github.com/julianstephens/skillpulse/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *Context) error {
	caller, err := ctx.Caller(context.Background())
	if err != nil {
		return err
	}
	backend, ok := caller.(tui.Backend)
	if !ok {
		return fmt.Errorf("the dashboard is not available from %T", caller)
	}
	return tui.Run(backend)
}
