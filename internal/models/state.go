package models

// LevelInfo describes progress on an exponential leveling curve.
type LevelInfo struct {
	Level          int     `json:"level"`
	CurrentPoints  float64 `json:"currentPoints"`
	RequiredPoints float64 `json:"requiredPoints"`
	TotalPoints    float64 `json:"totalPoints"`
	Title          string  `json:"title,omitempty"`
}

// Progress returns the fraction of the next level already earned, in [0,1].
func (l LevelInfo) Progress() float64 {
	if l.RequiredPoints <= 0 {
		return 0
	}
	p := l.CurrentPoints / l.RequiredPoints
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

// EnrichedSkill is a Skill plus the fields derived for display.
type EnrichedSkill struct {
	Skill
	DoneToday        bool      `json:"doneToday"`
	ActionDaysLast30 int       `json:"actionDaysLast30"`
	ActionDaysLast7  int       `json:"actionDaysLast7"`
	ActivityScore    int       `json:"activityScore"`
	Level            LevelInfo `json:"level"`
}

// Summary aggregates growth across every skill.
type Summary struct {
	GrowthPercent          float64   `json:"growthPercent"`
	ActivityScore          int       `json:"activityScore"`
	PersonalityGrowthIndex int64     `json:"personalityGrowthIndex"`
	DailyGP                int64     `json:"dailyGP"`
	UniqueActiveDaysLast7  int       `json:"uniqueActiveDaysLast7"`
	TodayKey               string    `json:"todayKey"`
	Personality            LevelInfo `json:"personality"`
}

// State is the full read model returned by GET_STATE and CHECK_SKILL.
type State struct {
	User    *User             `json:"user"`
	Skills  []EnrichedSkill   `json:"skills"`
	Meta    Meta              `json:"meta"`
	Summary Summary           `json:"summary"`
	DayLogs map[string]DayLog `json:"dayLogs"`
}

// Achievement is a temporary, day-scoped accomplishment.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}
