package models

// Skill is a tracked practice. Timestamps are Unix epoch milliseconds.
type Skill struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Emoji            string  `json:"emoji"`
	Category         string  `json:"category"`
	CreatedAt        int64   `json:"createdAt"`
	FirstCheckAt     *int64  `json:"firstCheckAt"`
	TotalChecks      int     `json:"totalChecks"`
	CumulativeGrowth float64 `json:"cumulativeGrowth"` // percent, e.g. 1.5 means +1.5%
	LastCheckAt      *int64  `json:"lastCheckAt"`
	ChecksTodayCount int     `json:"checksTodayCount"`
	RearmAt          int64   `json:"rearmAt"` // 0 means no cooldown
}

// SkillPatch carries the only fields UPDATE_SKILL may change. Anything else in
// an incoming patch is dropped during decoding.
type SkillPatch struct {
	Name     *string `json:"name,omitempty"`
	Emoji    *string `json:"emoji,omitempty"`
	Category *string `json:"category,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p SkillPatch) IsEmpty() bool {
	return p.Name == nil && p.Emoji == nil && p.Category == nil
}

// DayLog records the local calendar days on which a check was credited.
// Values are 1 in practice; larger numbers feed personal-record detection.
type DayLog struct {
	ByDate map[string]float64 `json:"byDate"`
}

// NewDayLog returns an empty log ready for writes.
func NewDayLog() DayLog {
	return DayLog{ByDate: make(map[string]float64)}
}

// Has reports whether day carries a truthy entry.
func (l DayLog) Has(day string) bool {
	return l.ByDate != nil && l.ByDate[day] != 0
}

// Mark records a credited check for day.
func (l *DayLog) Mark(day string) {
	if l.ByDate == nil {
		l.ByDate = make(map[string]float64)
	}
	l.ByDate[day] = 1
}
