package cli

import (
	"github.com/julianstephens/skillpulse/internal/engine"
	"github.com/julianstephens/skillpulse/internal/models"
)

type SkillAddCmd struct {
	Name     string `arg:"" help:"Skill name."`
	Emoji    string `help:"Emoji shown next to the skill."`
	Category string `help:"Free-form category."`
}

func (c *SkillAddCmd) Run(ctx *Context) error {
	var s models.Skill
	err := ctx.call(engine.CmdAddSkill, engine.NewSkill{Name: c.Name, Emoji: c.Emoji, Category: c.Category}, &s)
	if err != nil {
		return err
	}
	ctx.printf("%s Added %s %s (%s)\n", successStyle.Render("✓"), s.Emoji, s.Name, s.ID)
	return nil
}

type SkillCheckCmd struct {
	Skill string `arg:"" help:"Skill id or name."`
}

func (c *SkillCheckCmd) Run(ctx *Context) error {
	s, err := ctx.resolveSkill(c.Skill)
	if err != nil {
		return err
	}
	var st models.State
	if err := ctx.call(engine.CmdCheckSkill, map[string]string{"skillId": s.ID}, &st); err != nil {
		return err
	}
	for _, updated := range st.Skills {
		if updated.ID == s.ID {
			ctx.printf("%s Checked %s: %.2f%% total growth, level %d\n",
				successStyle.Render("✓"), updated.Name, updated.CumulativeGrowth, updated.Level.Level)
		}
	}
	ctx.printf("Today: +%d GP\n", st.Summary.DailyGP)
	return nil
}

type SkillEditCmd struct {
	Skill    string  `arg:"" help:"Skill id or name."`
	Name     *string `help:"New name."`
	Emoji    *string `help:"New emoji."`
	Category *string `help:"New category."`
}

func (c *SkillEditCmd) Run(ctx *Context) error {
	s, err := ctx.resolveSkill(c.Skill)
	if err != nil {
		return err
	}
	patch := models.SkillPatch{Name: c.Name, Emoji: c.Emoji, Category: c.Category}
	if patch.IsEmpty() {
		ctx.println("No changes specified. Use --name, --emoji or --category.")
		return nil
	}
	var updated models.Skill
	payload := map[string]any{"skillId": s.ID, "patch": patch}
	if err := ctx.call(engine.CmdUpdateSkill, payload, &updated); err != nil {
		return err
	}
	ctx.printf("%s Updated %s %s\n", successStyle.Render("✓"), updated.Emoji, updated.Name)
	return nil
}

type SkillDeleteCmd struct {
	Skill string `arg:"" help:"Skill id or name."`
	Yes   bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *SkillDeleteCmd) Run(ctx *Context) error {
	s, err := ctx.resolveSkill(c.Skill)
	if err != nil {
		return err
	}
	if !c.Yes {
		ok, err := ctx.confirm("Delete " + s.Name + " and its history?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.println("Cancelled.")
			return nil
		}
	}
	if err := ctx.call(engine.CmdDeleteSkill, map[string]string{"skillId": s.ID}, nil); err != nil {
		return err
	}
	ctx.printf("%s Deleted %s\n", successStyle.Render("✓"), s.Name)
	return nil
}

type SkillListCmd struct {
	JSON bool `help:"Print the skills as JSON."`
}

func (c *SkillListCmd) Run(ctx *Context) error {
	st, err := ctx.state()
	if err != nil {
		return err
	}
	if c.JSON {
		return ctx.printJSON(st.Skills)
	}
	if len(st.Skills) == 0 {
		ctx.println("No skills yet. Add one with 'skillpulse skill add <name>'.")
		return nil
	}
	for _, s := range st.Skills {
		ctx.println(skillLine(s))
	}
	return nil
}
