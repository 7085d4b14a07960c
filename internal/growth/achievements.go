package growth

import (
	"fmt"
	"math"
	"sort"

	"github.com/julianstephens/skillpulse/internal/constants"
	"github.com/julianstephens/skillpulse/internal/models"
	"github.com/julianstephens/skillpulse/internal/utils"
)

// SortSkills returns a copy of skills in display order: highest cumulative
// growth first, older skills first on ties.
func SortSkills(skills []models.Skill) []models.Skill {
	out := make([]models.Skill, len(skills))
	copy(out, skills)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CumulativeGrowth == out[j].CumulativeGrowth {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].CumulativeGrowth > out[j].CumulativeGrowth
	})
	return out
}

// Achievements reports the temporary achievements earned on today.
func Achievements(skills []models.Skill, logs map[string]models.DayLog, today string) []models.Achievement {
	var out []models.Achievement

	doneToday := 0
	for _, s := range skills {
		if l, ok := logs[s.ID]; ok && l.Has(today) {
			doneToday++
		}
	}
	if doneToday >= constants.HitDayThreshold {
		out = append(out, models.Achievement{
			ID:          "hit_day",
			Title:       "Power day",
			Description: fmt.Sprintf("You completed %d skills today. Great pace!", doneToday),
			Icon:        "🚀",
		})
	}

	for _, s := range skills {
		l := logs[s.ID]
		if !l.Has(today) {
			continue
		}

		if ActionDaysInWindow(&l, today, constants.StreakThreshold) == constants.StreakThreshold {
			out = append(out, models.Achievement{
				ID:          "streak_3_" + s.ID,
				Title:       "Building momentum",
				Description: fmt.Sprintf("You practiced %q %d days in a row. Keep it up!", s.Name, constants.StreakThreshold),
				Icon:        "🔥",
			})
		}

		if last, ok := lastActiveBefore(l, today); ok {
			if gap, err := utils.DaysBetween(today, last); err == nil && gap >= constants.ComebackGapDays {
				out = append(out, models.Achievement{
					ID:          "comeback_" + s.ID,
					Title:       "Comeback!",
					Description: fmt.Sprintf("You returned to %q after a %d day break.", s.Name, gap),
					Icon:        "🔁",
				})
			}
		}

		if a, ok := personalRecord(s, l, today); ok {
			out = append(out, a)
		}
	}
	return out
}

func lastActiveBefore(l models.DayLog, today string) (string, bool) {
	last := ""
	for k, v := range l.ByDate {
		if k < today && v != 0 && k > last {
			last = k
		}
	}
	return last, last != ""
}

// personalRecord compares today's value with the most recent earlier entry.
func personalRecord(s models.Skill, l models.DayLog, today string) (models.Achievement, bool) {
	keys := make([]string, 0, len(l.ByDate))
	for k := range l.ByDate {
		keys = append(keys, k)
	}
	if len(keys) < 2 {
		return models.Achievement{}, false
	}
	sort.Strings(keys)
	lastKey, prevKey := keys[len(keys)-1], keys[len(keys)-2]
	if lastKey != today {
		return models.Achievement{}, false
	}
	last, prev := l.ByDate[lastKey], l.ByDate[prevKey]
	if last <= prev {
		return models.Achievement{}, false
	}

	desc := fmt.Sprintf("New result in %q: %g", s.Name, last)
	if prev != 0 {
		increase := math.Round((last - prev) / math.Max(prev, 1) * 100)
		desc = fmt.Sprintf("You improved %q by +%.0f%% (%g → %g)", s.Name, increase, prev, last)
	}
	return models.Achievement{
		ID:          "personal_record_" + s.ID,
		Title:       "Personal record!",
		Description: desc,
		Icon:        "🏆",
	}, true
}
