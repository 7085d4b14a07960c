package constants

import "time"

// Growth model. Rates are per credited check.
const (
	BaseRate              = 0.001
	MomentumBonus         = 0.003
	MinRate               = 0.001
	MaxRate               = 0.004
	SecondCheckMultiplier = 0.5

	// CumulativeGrowthPrecision bounds float drift under repeated compounding (6 decimals).
	CumulativeGrowthPrecision = 1e6
)

// Leveling curves. Level L >= 1 costs floor(Base * Multiplier^(L-1)) GP.
const (
	SkillLevelBaseGP           = 25.0
	SkillLevelMultiplier       = 1.15
	PersonalityLevelBaseGP     = 100.0
	PersonalityLevelMultiplier = 1.10

	// GPPerPercent converts cumulativeGrowth (percent units) into growth points.
	GPPerPercent = 100.0

	// MaxLevel caps the level walk for pathological inputs.
	MaxLevel = 10000
)

// Windows and limits.
const (
	MomentumLookbackDays = 7
	ActivityLookbackDays = 30
	MaxChecksPerDay      = 2
	MaxSkillNameLength   = 80

	RearmDuration = 4 * time.Hour

	DailyResetHour   = 0
	DailyResetMinute = 5
	DailyResetPeriod = 24 * time.Hour

	MaxFocusDurationSeconds = 3 * 60 * 60
	BadgeRefreshPeriod      = time.Minute
)

// Achievement thresholds.
const (
	HitDayThreshold = 5
	StreakThreshold = 3
	ComebackGapDays = 7
)

// Skill defaults.
const (
	DefaultSkillEmoji    = "⭐"
	DefaultSkillCategory = "Other"
)
