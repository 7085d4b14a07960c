// Package growth holds the pure growth, momentum and leveling calculations.
// Nothing here performs I/O; every function is deterministic in its inputs.
package growth

import (
	"math"
	"time"

	"github.com/julianstephens/skillpulse/internal/constants"
	"github.com/julianstephens/skillpulse/internal/models"
	"github.com/julianstephens/skillpulse/internal/utils"
)

// ActionDaysInWindow counts the days in the window of size n ending at anchor
// (inclusive) that carry a truthy entry in log. It returns 0 for a nil log, a
// non-positive window or an unparsable anchor.
func ActionDaysInWindow(log *models.DayLog, anchor string, n int) int {
	if log == nil || log.ByDate == nil || n <= 0 {
		return 0
	}
	day, err := utils.ParseDateKey(anchor, time.UTC)
	if err != nil {
		return 0
	}
	count := 0
	for i := 0; i < n; i++ {
		key := day.AddDate(0, 0, -i).Format(constants.DateFormat)
		if log.Has(key) {
			count++
		}
	}
	return count
}

// Momentum is the fraction of the last 7 days (ending at anchor) with activity.
func Momentum(log *models.DayLog, anchor string) float64 {
	days := ActionDaysInWindow(log, anchor, constants.MomentumLookbackDays)
	return math.Min(1, float64(days)/float64(constants.MomentumLookbackDays))
}

// GrowthRate applies the momentum bonus to base and clamps the result.
func GrowthRate(base, momentum float64) float64 {
	momentum = clamp(momentum, 0, 1)
	return clamp(base+constants.MomentumBonus*momentum, constants.MinRate, constants.MaxRate)
}

// CheckRate is the rate credited by a check given the number of checks already
// credited today. The second check earns half; later checks earn nothing.
func CheckRate(momentum float64, checksToday int) float64 {
	rate := GrowthRate(constants.BaseRate, momentum)
	switch {
	case checksToday <= 0:
		return rate
	case checksToday == 1:
		return rate * constants.SecondCheckMultiplier
	default:
		return 0
	}
}

// ApplyCompounding grows a percent-encoded level by rate and rounds the result
// to six decimals.
func ApplyCompounding(cumulativeGrowth, rate float64) float64 {
	level := 1 + cumulativeGrowth/100
	next := level * (1 + rate)
	return roundTo((next-1)*100, constants.CumulativeGrowthPrecision)
}

// GP converts a percent growth value into growth points.
func GP(cumulativeGrowth float64) float64 {
	return cumulativeGrowth * constants.GPPerPercent
}

// ActivityScore is the share of the last 30 days with activity, as 0..100.
func ActivityScore(log *models.DayLog, anchor string) int {
	days := ActionDaysInWindow(log, anchor, constants.ActivityLookbackDays)
	ratio := clamp(float64(days)/float64(constants.ActivityLookbackDays), 0, 1)
	return int(math.Round(ratio * 100))
}

// ChecksToday is the stored checksTodayCount when the last check fell on
// today, and 0 otherwise. A counter from an earlier day is one the daily reset
// has not cleared yet.
func ChecksToday(skill models.Skill, today string, loc *time.Location) int {
	if skill.ChecksTodayCount <= 0 || skill.LastCheckAt == nil {
		return 0
	}
	if utils.DateKey(utils.UnixMilli(*skill.LastCheckAt), loc) != today {
		return 0
	}
	return skill.ChecksTodayCount
}

// StaleCounter reports whether skill carries a non-zero counter that does not
// belong to today.
func StaleCounter(skill models.Skill, today string, loc *time.Location) bool {
	return skill.ChecksTodayCount != 0 && ChecksToday(skill, today, loc) == 0
}

// DailyGP approximates the GP a skill earned today from its check count, as
// the sum of the credited rates without the compounding level. The
// first check used the momentum of the days before today; the second check
// saw today already marked. Counters left over from a previous day (the reset
// has not fired yet) earn nothing.
func DailyGP(skill models.Skill, log *models.DayLog, today string, loc *time.Location) int64 {
	checks := ChecksToday(skill, today, loc)
	if checks <= 0 {
		return 0
	}
	yesterday, err := utils.AddDays(today, -1)
	if err != nil {
		return 0
	}
	before := float64(ActionDaysInWindow(log, yesterday, constants.MomentumLookbackDays-1))
	lookback := float64(constants.MomentumLookbackDays)

	contrib := CheckRate(math.Min(1, before/lookback), 0)
	if checks >= 2 {
		contrib += CheckRate(math.Min(1, (before+1)/lookback), 1)
	}
	return int64(math.Round(GP(contrib * 100)))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func roundTo(v, precision float64) float64 {
	return math.Round(v*precision) / precision
}
