package cli

import (
	"time"

	"github.com/julianstephens/skillpulse/internal/engine"
	perrors "github.com/julianstephens/skillpulse/internal/errors"
	"github.com/julianstephens/skillpulse/internal/models"
)

type TimerStartCmd struct {
	Skill    string        `arg:"" help:"Skill id or name."`
	Duration time.Duration `short:"d" help:"Session length, e.g. 25m or 1h30m." default:"25m"`
}

func (c *TimerStartCmd) Run(ctx *Context) error {
	s, err := ctx.resolveSkill(c.Skill)
	if err != nil {
		return err
	}
	var started engine.StartedTimer
	payload := map[string]any{"skillId": s.ID, "durationInSeconds": int(c.Duration / time.Second)}
	if err := ctx.call(engine.CmdStartTimer, payload, &started); err != nil {
		return err
	}
	ends := time.UnixMilli(started.EndTime).Format("15:04:05")
	ctx.printf("%s Focus on %s until %s\n", successStyle.Render("▶"), started.SkillName, ends)
	return nil
}

// timerSkill resolves the optional skill argument of the session commands,
// defaulting to the skill of the current session.
func (c *Context) timerSkill(ref string) (string, error) {
	if ref != "" {
		s, err := c.resolveSkill(ref)
		if err != nil {
			return "", err
		}
		return s.ID, nil
	}
	var status models.TimerStatus
	if err := c.call(engine.CmdGetTimerStatus, nil, &status); err != nil {
		return "", err
	}
	if status.Timer == nil {
		return "", perrors.NotFound("No focus session in progress")
	}
	return status.Timer.SkillID, nil
}

type TimerPauseCmd struct {
	Skill string `arg:"" optional:"" help:"Skill id or name. Defaults to the current session."`
}

func (c *TimerPauseCmd) Run(ctx *Context) error {
	id, err := ctx.timerSkill(c.Skill)
	if err != nil {
		return err
	}
	var res engine.PausedResult
	if err := ctx.call(engine.CmdPauseTimer, map[string]string{"skillId": id}, &res); err != nil {
		return err
	}
	ctx.printf("⏸ Paused with %s left\n", formatSeconds(res.RemainingSeconds))
	return nil
}

type TimerResumeCmd struct {
	Skill string `arg:"" optional:"" help:"Skill id or name. Defaults to the current session."`
}

func (c *TimerResumeCmd) Run(ctx *Context) error {
	id, err := ctx.timerSkill(c.Skill)
	if err != nil {
		return err
	}
	var res engine.ResumedResult
	if err := ctx.call(engine.CmdResumeTimer, map[string]string{"skillId": id}, &res); err != nil {
		return err
	}
	ctx.printf("%s Resumed until %s\n", successStyle.Render("▶"), time.UnixMilli(res.EndTime).Format("15:04:05"))
	return nil
}

type TimerFinishCmd struct {
	Skill string `arg:"" optional:"" help:"Skill id or name. Defaults to the current session."`
}

func (c *TimerFinishCmd) Run(ctx *Context) error {
	id, err := ctx.timerSkill(c.Skill)
	if err != nil {
		return err
	}
	if err := ctx.call(engine.CmdFinishTimerEarly, map[string]string{"skillId": id}, nil); err != nil {
		return err
	}
	ctx.printf("%s Session finished\n", successStyle.Render("✓"))
	return nil
}

type TimerCancelCmd struct {
	Skill string `arg:"" optional:"" help:"Skill id or name. Defaults to the current session."`
}

func (c *TimerCancelCmd) Run(ctx *Context) error {
	id, err := ctx.timerSkill(c.Skill)
	if err != nil {
		return err
	}
	if err := ctx.call(engine.CmdCancelTimer, map[string]string{"skillId": id}, nil); err != nil {
		return err
	}
	ctx.println("Session cancelled, nothing recorded")
	return nil
}

type TimerStopCmd struct {
	Skill string `arg:"" optional:"" help:"Skill id or name. Defaults to the current session."`
}

func (c *TimerStopCmd) Run(ctx *Context) error {
	id, err := ctx.timerSkill(c.Skill)
	if err != nil {
		return err
	}
	if err := ctx.call(engine.CmdStopTimer, map[string]string{"skillId": id}, nil); err != nil {
		return err
	}
	ctx.println("Session stopped, nothing recorded")
	return nil
}

type TimerStatusCmd struct {
	JSON bool `help:"Print the status as JSON."`
}

func (c *TimerStatusCmd) Run(ctx *Context) error {
	var status models.TimerStatus
	if err := ctx.call(engine.CmdGetTimerStatus, nil, &status); err != nil {
		return err
	}
	if c.JSON {
		return ctx.printJSON(status)
	}
	if !status.Active || status.Timer == nil {
		ctx.println("No focus session in progress.")
		return nil
	}
	t := status.Timer
	state := "running"
	if t.IsPaused {
		state = "paused"
	}
	ctx.printf("%s: %s left (%s)\n", t.SkillName, formatSeconds(t.RemainingSeconds), state)
	return nil
}
