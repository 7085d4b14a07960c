package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/julianstephens/skillpulse/internal/alarms"
	"github.com/julianstephens/skillpulse/internal/constants"
	perrors "github.com/julianstephens/skillpulse/internal/errors"
	"github.com/julianstephens/skillpulse/internal/logger"
	"github.com/julianstephens/skillpulse/internal/models"
	"github.com/julianstephens/skillpulse/internal/notifier"
	"github.com/julianstephens/skillpulse/internal/utils"
	"github.com/julianstephens/skillpulse/internal/validation"
)

// StartedTimer is the START_TIMER result.
type StartedTimer struct {
	Success   bool   `json:"success"`
	EndTime   int64  `json:"endTime"`
	SkillName string `json:"skillName"`
}

// StartTimer begins a focus session, replacing any session already in the
// slot.
func (p *Processor) StartTimer(ctx context.Context, skillID string, durationSeconds int) (StartedTimer, error) {
	if skillID == "" {
		return StartedTimer{}, perrors.Validation("skillId and durationInSeconds are required")
	}
	if err := validation.FocusDuration(durationSeconds); err != nil {
		return StartedTimer{}, err
	}

	snap, err := p.repo.Read(ctx, constants.KeySkills, constants.KeyFocusTimer)
	if err != nil {
		return StartedTimer{}, err
	}
	skills, err := snap.Skills()
	if err != nil {
		return StartedTimer{}, perrors.Wrap(perrors.CodeInternal, err, "load skills")
	}
	idx := indexOf(skills, skillID)
	if idx < 0 {
		return StartedTimer{}, perrors.NotFound("Skill not found")
	}
	skill := skills[idx]

	// A replaced session of another skill must not complete later.
	if prev, err := snap.FocusTimer(); err == nil && prev != nil && prev.SkillID != skillID {
		p.alarms.Clear(alarms.FocusTimerName(prev.SkillID))
		logger.Info("Replacing focus session", "previous", prev.SkillID, "next", skillID)
	}

	now := p.now()
	timer := models.FocusTimer{
		SkillID:           skill.ID,
		SkillName:         skill.Name,
		StartTime:         now.UnixMilli(),
		EndTime:           now.UnixMilli() + int64(durationSeconds)*1000,
		DurationInSeconds: durationSeconds,
	}
	if err := p.repo.WriteItem(ctx, constants.KeyFocusTimer, timer); err != nil {
		return StartedTimer{}, err
	}

	p.armTimer(timer, now)
	p.badge.Set(notifier.MinutesBadge(durationSeconds))

	logger.Info("Focus session started", "skill", skillID, "seconds", durationSeconds)
	p.StateChanged("START_TIMER")
	return StartedTimer{Success: true, EndTime: timer.EndTime, SkillName: skill.Name}, nil
}

// armTimer registers the completion alarm and the badge tick of a running
// session.
func (p *Processor) armTimer(t models.FocusTimer, now time.Time) {
	p.alarms.Create(alarms.FocusTimerName(t.SkillID), utils.UnixMilli(t.EndTime), 0)
	p.alarms.Create(constants.AlarmFocusBadgeUpdate, now.Add(constants.BadgeRefreshPeriod), constants.BadgeRefreshPeriod)
}

func (p *Processor) disarmTimer(skillID string) {
	p.alarms.Clear(alarms.FocusTimerName(skillID))
	p.alarms.Clear(constants.AlarmFocusBadgeUpdate)
}

func (p *Processor) readTimer(ctx context.Context) (*models.FocusTimer, error) {
	snap, err := p.repo.Read(ctx, constants.KeyFocusTimer)
	if err != nil {
		return nil, err
	}
	t, err := snap.FocusTimer()
	if err != nil {
		return nil, perrors.Wrap(perrors.CodeInternal, err, "load focus timer")
	}
	return t, nil
}

// PauseTimer freezes the session of skillID and returns the seconds left.
// Pausing an already paused session returns its stored remainder.
func (p *Processor) PauseTimer(ctx context.Context, skillID string) (int, error) {
	if skillID == "" {
		return 0, perrors.Validation("skillId is required")
	}
	t, err := p.readTimer(ctx)
	if err != nil {
		return 0, err
	}
	if t == nil || t.SkillID != skillID {
		return 0, perrors.NotFound("No active timer for this skill")
	}

	now := p.now()
	remaining := t.Remaining(now.UnixMilli())
	paused := models.FocusTimer{
		SkillID:          t.SkillID,
		SkillName:        t.SkillName,
		RemainingSeconds: remaining,
		IsPaused:         true,
		PausedAt:         now.UnixMilli(),
	}
	if err := p.repo.WriteItem(ctx, constants.KeyFocusTimer, paused); err != nil {
		return 0, err
	}

	p.disarmTimer(skillID)
	p.badge.Set(notifier.PausedBadge(remaining))

	logger.Info("Focus session paused", "skill", skillID, "remaining", remaining)
	p.StateChanged("PAUSE_TIMER")
	return remaining, nil
}

// ResumeTimer restarts a paused session and returns its new end time.
func (p *Processor) ResumeTimer(ctx context.Context, skillID string) (int64, error) {
	if skillID == "" {
		return 0, perrors.Validation("skillId is required")
	}
	t, err := p.readTimer(ctx)
	if err != nil {
		return 0, err
	}
	if t == nil || !t.IsPaused || t.SkillID != skillID {
		return 0, perrors.NotFound("No paused timer for this skill")
	}
	remaining := t.RemainingSeconds
	if remaining <= 0 {
		return 0, perrors.Validation("No remaining time to resume")
	}

	now := p.now()
	running := models.FocusTimer{
		SkillID:           t.SkillID,
		SkillName:         t.SkillName,
		StartTime:         now.UnixMilli(),
		EndTime:           now.UnixMilli() + int64(remaining)*1000,
		DurationInSeconds: remaining,
	}
	if err := p.repo.WriteItem(ctx, constants.KeyFocusTimer, running); err != nil {
		return 0, err
	}

	p.armTimer(running, now)
	p.badge.Set(notifier.MinutesBadge(remaining))

	logger.Info("Focus session resumed", "skill", skillID, "remaining", remaining)
	p.StateChanged("RESUME_TIMER")
	return running.EndTime, nil
}

// FinishTimerEarly completes the session of skillID now. A slot that is empty
// or holds another skill's session means the completion already happened and
// is not an error.
func (p *Processor) FinishTimerEarly(ctx context.Context, skillID string) error {
	if skillID == "" {
		return perrors.Validation("skillId is required")
	}
	_, err := p.CompleteFocus(ctx, skillID)
	return err
}

// CompleteFocus consumes the focus slot for skillID and credits the session.
// The slot is taken and cleared before anything else happens, so of two
// concurrent completions only one proceeds. It reports whether this call
// performed the completion.
func (p *Processor) CompleteFocus(ctx context.Context, skillID string) (bool, error) {
	raw, ok, err := p.repo.TakeAndClear(ctx, constants.KeyFocusTimer, func(raw json.RawMessage) bool {
		var t models.FocusTimer
		return json.Unmarshal(raw, &t) == nil && t.SkillID == skillID
	})
	if err != nil {
		return false, err
	}
	if !ok {
		logger.Debug("Focus completion already handled", "skill", skillID)
		return false, nil
	}
	var t models.FocusTimer
	_ = json.Unmarshal(raw, &t)

	p.disarmTimer(skillID)

	if _, err := p.credit(ctx, skillID, p.now()); err != nil {
		if perrors.Guidance(err) {
			logger.Info("Focus session finished without credit", "skill", skillID, "reason", err)
		} else {
			logger.Error("Failed to credit focus session", "skill", skillID, "error", err)
		}
	}

	name := t.SkillName
	if name == "" {
		name = "a skill"
	}
	nctx, cancel := context.WithTimeout(ctx, constants.NotificationTimeout)
	p.notify(nctx, notifier.FocusComplete(name))
	cancel()
	p.badge.Clear()

	logger.Info("Focus session completed", "skill", skillID)
	p.StateChanged("FOCUS_COMPLETE")
	return true, nil
}

// CancelTimer drops the focus session without crediting growth.
func (p *Processor) CancelTimer(ctx context.Context, skillID string) error {
	return p.dropTimer(ctx, skillID, "CANCEL_TIMER")
}

// StopTimer is CancelTimer under its older command name.
func (p *Processor) StopTimer(ctx context.Context, skillID string) error {
	return p.dropTimer(ctx, skillID, "STOP_TIMER")
}

func (p *Processor) dropTimer(ctx context.Context, skillID, command string) error {
	if skillID == "" {
		return perrors.Validation("skillId is required")
	}
	if err := p.repo.RemoveKeys(ctx, constants.KeyFocusTimer); err != nil {
		return err
	}
	p.disarmTimer(skillID)
	p.badge.Clear()

	logger.Info("Focus session cancelled", "skill", skillID)
	p.StateChanged(command)
	return nil
}

// TimerStatus reports the focus slot. An expired running session reads as
// inactive but stays in the slot until its completion alarm consumes it.
func (p *Processor) TimerStatus(ctx context.Context) (models.TimerStatus, error) {
	t, err := p.readTimer(ctx)
	if err != nil {
		return models.TimerStatus{}, err
	}
	inactive := models.TimerStatus{Active: false, Timer: nil}
	if t == nil {
		return inactive, nil
	}

	if t.IsPaused {
		if t.RemainingSeconds <= 0 {
			return inactive, nil
		}
		return models.TimerStatus{Active: true, Timer: &models.TimerView{
			SkillID:          t.SkillID,
			SkillName:        t.SkillName,
			IsPaused:         true,
			RemainingSeconds: t.RemainingSeconds,
		}}, nil
	}

	if t.EndTime == 0 {
		return inactive, nil
	}
	remaining := t.Remaining(p.now().UnixMilli())
	if remaining == 0 {
		return inactive, nil
	}
	return models.TimerStatus{Active: true, Timer: &models.TimerView{
		SkillID:          t.SkillID,
		SkillName:        t.SkillName,
		StartTime:        t.StartTime,
		EndTime:          t.EndTime,
		RemainingSeconds: remaining,
	}}, nil
}
