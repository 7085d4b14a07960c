package engine

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/julianstephens/skillpulse/internal/alarms"
	"github.com/julianstephens/skillpulse/internal/constants"
	perrors "github.com/julianstephens/skillpulse/internal/errors"
	"github.com/julianstephens/skillpulse/internal/growth"
	"github.com/julianstephens/skillpulse/internal/logger"
	"github.com/julianstephens/skillpulse/internal/models"
	"github.com/julianstephens/skillpulse/internal/storage"
	"github.com/julianstephens/skillpulse/internal/utils"
	"github.com/julianstephens/skillpulse/internal/validation"
)

// GetState assembles the full read model.
func (p *Processor) GetState(ctx context.Context) (models.State, error) {
	snap, err := p.repo.ReadAll(ctx)
	if err != nil {
		return models.State{}, err
	}
	st, err := p.assembler.Assemble(snap, p.now())
	if err != nil {
		return models.State{}, perrors.Wrap(perrors.CodeInternal, err, "assemble state")
	}
	return st, nil
}

// Achievements lists the temporary achievements earned today.
func (p *Processor) Achievements(ctx context.Context) ([]models.Achievement, error) {
	snap, err := p.repo.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	list, err := p.assembler.Achievements(snap, p.now())
	if err != nil {
		return nil, perrors.Wrap(perrors.CodeInternal, err, "load achievements")
	}
	return list, nil
}

// NewSkill carries ADD_SKILL input. Empty Emoji and Category take defaults.
type NewSkill struct {
	Name     string `json:"name"`
	Emoji    string `json:"emoji,omitempty"`
	Category string `json:"category,omitempty"`
}

// AddSkill appends a fresh skill to the collection.
func (p *Processor) AddSkill(ctx context.Context, in NewSkill) (models.Skill, error) {
	name, err := validation.SkillName(in.Name)
	if err != nil {
		return models.Skill{}, err
	}
	skill := models.Skill{
		ID:        p.newSkillID(),
		Name:      name,
		Emoji:     in.Emoji,
		Category:  in.Category,
		CreatedAt: p.now().UnixMilli(),
	}
	if skill.Emoji == "" {
		skill.Emoji = constants.DefaultSkillEmoji
	}
	if skill.Category == "" {
		skill.Category = constants.DefaultSkillCategory
	}

	skills, err := p.readSkills(ctx)
	if err != nil {
		return models.Skill{}, err
	}
	skills = append(skills, skill)
	if err := p.repo.WriteItem(ctx, constants.KeySkills, skills); err != nil {
		return models.Skill{}, err
	}

	logger.Info("Skill added", "id", skill.ID, "name", skill.Name)
	p.StateChanged("ADD_SKILL")
	return skill, nil
}

// CheckSkill credits one check and returns the reassembled state.
func (p *Processor) CheckSkill(ctx context.Context, skillID string) (models.State, error) {
	if skillID == "" {
		return models.State{}, perrors.Validation("Skill ID is required")
	}
	if _, err := p.credit(ctx, skillID, p.now()); err != nil {
		return models.State{}, err
	}
	p.StateChanged("CHECK_SKILL")
	return p.GetState(ctx)
}

// credit is the growth path shared by CHECK_SKILL and focus completion. It
// enforces the cooldown and daily cap, compounds growth, marks today in the
// skill's log and writes the skill list and log together.
func (p *Processor) credit(ctx context.Context, skillID string, now time.Time) (models.Skill, error) {
	logKey := constants.DayLogKey(skillID)
	snap, err := p.repo.Read(ctx, constants.KeySkills, logKey)
	if err != nil {
		return models.Skill{}, err
	}
	skills, err := snap.Skills()
	if err != nil {
		return models.Skill{}, perrors.Wrap(perrors.CodeInternal, err, "load skills")
	}
	idx := indexOf(skills, skillID)
	if idx < 0 {
		return models.Skill{}, perrors.NotFound("Skill not found")
	}
	s := &skills[idx]

	nowMs := now.UnixMilli()
	today := utils.DateKey(now, p.Location())
	if s.RearmAt != 0 && nowMs < s.RearmAt {
		err := perrors.Rearm(utils.HoursUntil(nowMs, s.RearmAt))
		logger.Debug("Check rejected", "skill", skillID, "reason", err)
		return models.Skill{}, err
	}
	// A missed daily reset must not carry yesterday's checks into today.
	s.ChecksTodayCount = growth.ChecksToday(*s, today, p.Location())
	if s.ChecksTodayCount >= constants.MaxChecksPerDay {
		logger.Debug("Check rejected", "skill", skillID, "reason", "daily cap")
		return models.Skill{}, perrors.DailyCap()
	}

	dayLog, err := snap.DayLog(skillID)
	if err != nil {
		return models.Skill{}, perrors.Wrap(perrors.CodeInternal, err, "load day log")
	}

	// Momentum is taken before today is marked.
	rate := growth.CheckRate(growth.Momentum(&dayLog, today), s.ChecksTodayCount)
	s.CumulativeGrowth = growth.ApplyCompounding(s.CumulativeGrowth, rate)
	s.TotalChecks++
	if s.FirstCheckAt == nil {
		s.FirstCheckAt = &nowMs
	}
	s.LastCheckAt = &nowMs
	s.ChecksTodayCount++
	s.RearmAt = nowMs + constants.RearmDuration.Milliseconds()
	dayLog.Mark(today)

	entries := []storage.Entry{
		{Key: constants.KeySkills, Value: skills},
		{Key: logKey, Value: dayLog},
	}
	// Size rejections are known before anything is written.
	for _, e := range entries {
		if _, err := p.repo.Encode(e.Key, e.Value); err != nil {
			logger.Warn("Check rejected", "skill", skillID, "error", err)
			return models.Skill{}, err
		}
	}
	res := p.repo.WriteMany(ctx, entries...)
	if err := res.Err(); err != nil {
		return models.Skill{}, err
	}

	p.alarms.Create(alarms.RearmName(skillID), utils.UnixMilli(s.RearmAt), 0)
	logger.Info("Skill checked", "id", skillID, "rate", rate, "cumulativeGrowth", s.CumulativeGrowth, "checksToday", s.ChecksTodayCount)
	return *s, nil
}

// UpdateSkill applies the whitelisted fields of patch.
func (p *Processor) UpdateSkill(ctx context.Context, skillID string, patch models.SkillPatch) (models.Skill, error) {
	if skillID == "" {
		return models.Skill{}, perrors.Validation("Skill ID is required")
	}
	if patch.Name != nil {
		name, err := validation.SkillName(*patch.Name)
		if err != nil {
			return models.Skill{}, err
		}
		patch.Name = &name
	}

	skills, err := p.readSkills(ctx)
	if err != nil {
		return models.Skill{}, err
	}
	idx := indexOf(skills, skillID)
	if idx < 0 {
		return models.Skill{}, perrors.NotFound("Skill not found")
	}
	if patch.IsEmpty() {
		return skills[idx], nil
	}

	s := &skills[idx]
	if patch.Name != nil {
		s.Name = *patch.Name
	}
	if patch.Emoji != nil {
		s.Emoji = *patch.Emoji
	}
	if patch.Category != nil {
		s.Category = *patch.Category
	}
	if err := p.repo.WriteItem(ctx, constants.KeySkills, skills); err != nil {
		return models.Skill{}, err
	}

	p.StateChanged("UPDATE_SKILL")
	return *s, nil
}

// DeleteSkill removes the skill and its day log.
func (p *Processor) DeleteSkill(ctx context.Context, skillID string) error {
	if skillID == "" {
		return perrors.Validation("Skill ID is required")
	}
	skills, err := p.readSkills(ctx)
	if err != nil {
		return err
	}
	filtered := slices.DeleteFunc(slices.Clone(skills), func(s models.Skill) bool { return s.ID == skillID })
	if len(filtered) == len(skills) {
		return perrors.NotFound("Skill not found")
	}
	if err := p.repo.WriteItem(ctx, constants.KeySkills, filtered); err != nil {
		return err
	}
	if err := p.repo.RemoveKeys(ctx, constants.DayLogKey(skillID)); err != nil {
		logger.Error("Skill removed but its day log was not", "id", skillID, "error", err)
		return err
	}
	p.alarms.Clear(alarms.RearmName(skillID))

	logger.Info("Skill deleted", "id", skillID)
	p.StateChanged("DELETE_SKILL")
	return nil
}

// SetName stores name under a fresh local identity. An empty name is allowed
// and clears the display name.
func (p *Processor) SetName(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	user := models.User{ID: p.newUserID(), Name: name, Mode: models.UserModeLocal}
	if err := p.repo.WriteItem(ctx, constants.KeyUser, user); err != nil {
		return "", err
	}
	p.StateChanged("SET_NAME")
	return name, nil
}

// ResetAccount wipes the store and reinitializes it, cancelling every alarm
// and re-registering the daily reset.
func (p *Processor) ResetAccount(ctx context.Context) error {
	if p.beforeReset != nil {
		if err := p.beforeReset(ctx); err != nil {
			logger.Warn("Pre-reset hook failed", "error", err)
		}
	}
	if err := p.repo.ClearAll(ctx); err != nil {
		return err
	}
	res := p.repo.WriteMany(ctx, InitialEntries()...)
	if err := res.Err(); err != nil {
		return err
	}

	p.badge.Clear()
	p.alarms.ClearAll()
	alarms.EnsureDailyReset(p.alarms, p.now(), p.Location())

	logger.Info("Account reset")
	p.StateChanged("RESET_ACCOUNT")
	return nil
}

// InitialEntries is the document set of a freshly initialized store.
func InitialEntries() []storage.Entry {
	return []storage.Entry{
		{Key: constants.KeyMeta, Value: models.Meta{Version: constants.MetaVersion, Welcome: true}},
		{Key: constants.KeyUser, Value: models.User{Name: "", Mode: models.UserModeLocal}},
		{Key: constants.KeySkills, Value: []models.Skill{}},
		{Key: constants.KeyFocusTimer, Value: nil},
	}
}

func (p *Processor) readSkills(ctx context.Context) ([]models.Skill, error) {
	snap, err := p.repo.Read(ctx, constants.KeySkills)
	if err != nil {
		return nil, err
	}
	skills, err := snap.Skills()
	if err != nil {
		return nil, perrors.Wrap(perrors.CodeInternal, err, "load skills")
	}
	return skills, nil
}

func indexOf(skills []models.Skill, id string) int {
	return slices.IndexFunc(skills, func(s models.Skill) bool { return s.ID == id })
}
