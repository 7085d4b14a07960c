package cli

import (
	"context"
	"fmt"

	"github.com/julianstephens/skillpulse/internal/models"
)

type StateCmd struct {
	JSON bool `help:"Print the full state as JSON."`
}

func (c *StateCmd) Run(ctx *Context) error {
	st, err := ctx.state()
	if err != nil {
		return err
	}
	if c.JSON {
		return ctx.printJSON(st)
	}

	name := "friend"
	if st.User != nil && st.User.Name != "" {
		name = st.User.Name
	}
	sum := st.Summary
	p := sum.Personality

	ctx.println(titleStyle.Render(fmt.Sprintf("Hi %s, %s", name, sum.TodayKey)))
	ctx.printf("%s  Lv %d  %s %.0f/%.0f GP\n",
		p.Title, p.Level, progressBar(p.Progress(), 20), p.CurrentPoints, p.RequiredPoints)
	ctx.printf("Growth %.2f%%  ·  PGI %d  ·  today +%d GP  ·  activity %d  ·  active days (7d) %d\n\n",
		sum.GrowthPercent, sum.PersonalityGrowthIndex, sum.DailyGP, sum.ActivityScore, sum.UniqueActiveDaysLast7)

	if len(st.Skills) == 0 {
		ctx.println(mutedStyle.Render("No skills yet. Add one with 'skillpulse skill add <name>'."))
		return nil
	}
	for _, s := range st.Skills {
		ctx.println(skillLine(s))
	}
	return nil
}

type AchievementsCmd struct {
	JSON bool `help:"Print achievements as JSON."`
}

func (c *AchievementsCmd) Run(ctx *Context) error {
	list, err := ctx.achievements()
	if err != nil {
		return err
	}
	if c.JSON {
		return ctx.printJSON(list)
	}
	if len(list) == 0 {
		ctx.println("No achievements today yet.")
		return nil
	}
	for _, a := range list {
		ctx.printf("%s %s\n   %s\n", a.Icon, titleStyle.Render(a.Title), a.Description)
	}
	return nil
}

// achievements goes through the daemon when one answers.
func (c *Context) achievements() ([]models.Achievement, error) {
	bg := context.Background()
	caller, err := c.Caller(bg)
	if err != nil {
		return nil, err
	}
	type source interface {
		Achievements(context.Context) ([]models.Achievement, error)
	}
	s, ok := caller.(source)
	if !ok {
		return nil, fmt.Errorf("achievements are not available from %T", caller)
	}
	return s.Achievements(bg)
}
