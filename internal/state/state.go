// Package state builds the read model returned to clients from a storage
// snapshot.
package state

import (
	"math"
	"time"

	"github.com/julianstephens/skillpulse/internal/constants"
	"github.com/julianstephens/skillpulse/internal/growth"
	"github.com/julianstephens/skillpulse/internal/models"
	"github.com/julianstephens/skillpulse/internal/storage"
	"github.com/julianstephens/skillpulse/internal/utils"
)

// Assembler turns snapshots into models.State for one timezone.
type Assembler struct {
	loc *time.Location
}

func NewAssembler(loc *time.Location) *Assembler {
	if loc == nil {
		loc = time.Local
	}
	return &Assembler{loc: loc}
}

func (a *Assembler) Location() *time.Location {
	return a.loc
}

// Assemble enriches every skill, sorts them for display and computes the
// summary as of now.
func (a *Assembler) Assemble(snap storage.Snapshot, now time.Time) (models.State, error) {
	user, err := snap.User()
	if err != nil {
		return models.State{}, err
	}
	skills, err := snap.Skills()
	if err != nil {
		return models.State{}, err
	}
	logs, err := snap.DayLogs(skills)
	if err != nil {
		return models.State{}, err
	}
	meta, err := snap.Meta()
	if err != nil {
		return models.State{}, err
	}

	today := utils.DateKey(now, a.loc)
	enriched := make([]models.EnrichedSkill, 0, len(skills))
	for _, s := range growth.SortSkills(skills) {
		l := logs[s.ID]
		enriched = append(enriched, Enrich(s, &l, today))
	}

	return models.State{
		User:    user,
		Skills:  enriched,
		Meta:    meta,
		Summary: a.summarize(enriched, logs, today),
		DayLogs: logs,
	}, nil
}

// Enrich derives the per-skill display fields as of today.
func Enrich(s models.Skill, l *models.DayLog, today string) models.EnrichedSkill {
	return models.EnrichedSkill{
		Skill:            s,
		DoneToday:        l.Has(today),
		ActionDaysLast30: growth.ActionDaysInWindow(l, today, constants.ActivityLookbackDays),
		ActionDaysLast7:  growth.ActionDaysInWindow(l, today, constants.MomentumLookbackDays),
		ActivityScore:    growth.ActivityScore(l, today),
		Level:            growth.SkillLevel(s.CumulativeGrowth),
	}
}

func (a *Assembler) summarize(skills []models.EnrichedSkill, logs map[string]models.DayLog, today string) models.Summary {
	sum := models.Summary{TodayKey: today}
	if len(skills) > 0 {
		var totalGrowth float64
		var totalActivity int
		for _, s := range skills {
			totalGrowth += s.CumulativeGrowth
			totalActivity += s.ActivityScore
			l := logs[s.ID]
			sum.DailyGP += growth.DailyGP(s.Skill, &l, today, a.loc)
		}
		n := float64(len(skills))
		sum.GrowthPercent = math.Round(totalGrowth/n*100) / 100
		sum.ActivityScore = int(math.Round(float64(totalActivity) / n))
		sum.PersonalityGrowthIndex = int64(math.Round(growth.GP(totalGrowth)))
		sum.UniqueActiveDaysLast7 = uniqueActiveDays(logs, today, constants.MomentumLookbackDays)
	}
	sum.Personality = growth.PersonalityLevel(float64(sum.PersonalityGrowthIndex))
	return sum
}

// uniqueActiveDays counts the days in the window ending at today on which at
// least one skill was active.
func uniqueActiveDays(logs map[string]models.DayLog, today string, n int) int {
	count := 0
	for i := 0; i < n; i++ {
		day, err := utils.AddDays(today, -i)
		if err != nil {
			return 0
		}
		for _, l := range logs {
			if l.Has(day) {
				count++
				break
			}
		}
	}
	return count
}

// Achievements lists today's achievements for the snapshot.
func (a *Assembler) Achievements(snap storage.Snapshot, now time.Time) ([]models.Achievement, error) {
	skills, err := snap.Skills()
	if err != nil {
		return nil, err
	}
	logs, err := snap.DayLogs(skills)
	if err != nil {
		return nil, err
	}
	out := growth.Achievements(growth.SortSkills(skills), logs, utils.DateKey(now, a.loc))
	if out == nil {
		out = []models.Achievement{}
	}
	return out, nil
}
