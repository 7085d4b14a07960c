// Package scheduler reacts to fired alarms and keeps the alarm set consistent
// with persisted state across restarts.
package scheduler

import (
	"context"

	"github.com/julianstephens/skillpulse/internal/alarms"
	"github.com/julianstephens/skillpulse/internal/constants"
	perrors "github.com/julianstephens/skillpulse/internal/errors"
	"github.com/julianstephens/skillpulse/internal/engine"
	"github.com/julianstephens/skillpulse/internal/growth"
	"github.com/julianstephens/skillpulse/internal/logger"
	"github.com/julianstephens/skillpulse/internal/models"
	"github.com/julianstephens/skillpulse/internal/notifier"
	"github.com/julianstephens/skillpulse/internal/utils"
)

type Reconciler struct {
	proc *engine.Processor
}

func New(proc *engine.Processor) *Reconciler {
	return &Reconciler{proc: proc}
}

// EnsureScheduled registers the daily reset if it is missing, clears
// counters whose reset was missed, and re-arms the completion and badge
// alarms of a persisted running focus session. It is safe to call any number
// of times.
func (r *Reconciler) EnsureScheduled(ctx context.Context) error {
	s := r.proc.Alarms()
	now := r.proc.Now()
	alarms.EnsureDailyReset(s, now, r.proc.Location())

	if _, err := r.CatchUpReset(ctx); err != nil {
		return err
	}

	snap, err := r.proc.Repository().Read(ctx, constants.KeyFocusTimer)
	if err != nil {
		return err
	}
	t, err := snap.FocusTimer()
	if err != nil {
		return perrors.Wrap(perrors.CodeInternal, err, "load focus timer")
	}
	if t == nil {
		return nil
	}

	if t.IsPaused {
		r.proc.Badge().Set(notifier.PausedBadge(t.RemainingSeconds))
		return nil
	}
	if t.EndTime == 0 {
		return nil
	}

	name := alarms.FocusTimerName(t.SkillID)
	if _, ok := s.Get(name); !ok {
		// An end time in the past fires right away.
		s.Create(name, utils.UnixMilli(t.EndTime), 0)
		logger.Info("Focus completion re-armed", "skill", t.SkillID)
	}
	if _, ok := s.Get(constants.AlarmFocusBadgeUpdate); !ok {
		s.Create(constants.AlarmFocusBadgeUpdate, now.Add(constants.BadgeRefreshPeriod), constants.BadgeRefreshPeriod)
	}
	if remaining := t.Remaining(now.UnixMilli()); remaining > 0 {
		r.proc.Badge().Set(notifier.MinutesBadge(remaining))
	}
	return nil
}

// HandleAlarm routes a fired alarm. Failures are logged and never propagate.
func (r *Reconciler) HandleAlarm(ctx context.Context, a alarms.Alarm) {
	switch {
	case a.Name == constants.AlarmDailyReset:
		if _, err := r.DailyReset(ctx); err != nil {
			logger.Error("Daily reset failed", "error", err)
		}

	case a.Name == constants.AlarmFocusBadgeUpdate:
		if err := r.RefreshBadge(ctx); err != nil {
			logger.Warn("Badge refresh failed", "error", err)
		}

	default:
		if id, ok := alarms.SkillIDFrom(a.Name, constants.AlarmFocusTimerPrefix); ok {
			done, err := r.proc.CompleteFocus(ctx, id)
			if err != nil {
				logger.Error("Focus completion failed", "skill", id, "error", err)
				return
			}
			logger.Debug("Focus alarm handled", "skill", id, "completed", done)
			return
		}
		if id, ok := alarms.SkillIDFrom(a.Name, constants.AlarmRearmPrefix); ok {
			logger.Debug("Cooldown elapsed", "skill", id)
			r.proc.StateChanged("REARM")
			return
		}
		logger.Warn("Unknown alarm", "name", a.Name)
	}
}

// DailyReset zeroes every non-zero checksTodayCount. It writes only when a
// counter actually changed and reports whether it did.
func (r *Reconciler) DailyReset(ctx context.Context) (bool, error) {
	return r.resetCounters(ctx, "Daily reset", func(s models.Skill) bool {
		return s.ChecksTodayCount != 0
	})
}

// CatchUpReset zeroes only the counters left over from an earlier local day,
// the ones a daily reset missed while no alarm was armed. Today's checks are
// kept.
func (r *Reconciler) CatchUpReset(ctx context.Context) (bool, error) {
	today := utils.DateKey(r.proc.Now(), r.proc.Location())
	return r.resetCounters(ctx, "Catch-up reset", func(s models.Skill) bool {
		return growth.StaleCounter(s, today, r.proc.Location())
	})
}

func (r *Reconciler) resetCounters(ctx context.Context, label string, stale func(models.Skill) bool) (bool, error) {
	repo := r.proc.Repository()
	snap, err := repo.Read(ctx, constants.KeySkills)
	if err != nil {
		return false, err
	}
	skills, err := snap.Skills()
	if err != nil {
		return false, perrors.Wrap(perrors.CodeInternal, err, "load skills")
	}

	reset := 0
	for i := range skills {
		if stale(skills[i]) {
			skills[i].ChecksTodayCount = 0
			reset++
		}
	}
	if reset == 0 {
		logger.Debug(label + ": nothing to do")
		return false, nil
	}
	if err := repo.WriteItem(ctx, constants.KeySkills, skills); err != nil {
		return false, err
	}

	logger.Info(label+" complete", "skills", reset)
	r.proc.StateChanged("DAILY_RESET")
	return true, nil
}

// RefreshBadge shows the minutes left on a running session. Without a
// running session the tick alarm is removed; an expired one also clears the
// badge.
func (r *Reconciler) RefreshBadge(ctx context.Context) error {
	snap, err := r.proc.Repository().Read(ctx, constants.KeyFocusTimer)
	if err != nil {
		return err
	}
	t, err := snap.FocusTimer()
	if err != nil {
		return perrors.Wrap(perrors.CodeInternal, err, "load focus timer")
	}

	if t != nil && t.IsPaused {
		r.proc.Alarms().Clear(constants.AlarmFocusBadgeUpdate)
		return nil
	}
	if t != nil && t.EndTime != 0 {
		if remaining := t.Remaining(r.proc.Now().UnixMilli()); remaining > 0 {
			r.proc.Badge().Set(notifier.MinutesBadge(remaining))
			return nil
		}
	}
	r.proc.Badge().Clear()
	r.proc.Alarms().Clear(constants.AlarmFocusBadgeUpdate)
	return nil
}
