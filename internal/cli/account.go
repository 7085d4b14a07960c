package cli

import (
	"github.com/julianstephens/skillpulse/internal/engine"
)

type NameCmd struct {
	Name string `arg:"" help:"Display name."`
}

func (c *NameCmd) Run(ctx *Context) error {
	var res engine.NameResult
	if err := ctx.call(engine.CmdSetName, map[string]string{"name": c.Name}, &res); err != nil {
		return err
	}
	ctx.printf("%s Hello, %s\n", successStyle.Render("✓"), res.Name)
	return nil
}

type ResetCmd struct {
	Yes bool `short:"y" help:"Do not ask for confirmation."`
}

func (c *ResetCmd) Run(ctx *Context) error {
	if !c.Yes {
		ok, err := ctx.confirm("Erase every skill, all history and your profile?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.println("Reset cancelled.")
			return nil
		}
	}
	if err := ctx.call(engine.CmdResetAccount, nil, nil); err != nil {
		return err
	}
	ctx.printf("%s Account reset\n", successStyle.Render("✓"))
	return nil
}
