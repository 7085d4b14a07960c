package models

// FocusTimer is the singleton focus-session slot. A running timer carries
// StartTime/EndTime/DurationInSeconds; a paused one carries RemainingSeconds,
// IsPaused and PausedAt. Timestamps are Unix epoch milliseconds.
type FocusTimer struct {
	SkillID           string `json:"skillId"`
	SkillName         string `json:"skillName"`
	StartTime         int64  `json:"startTime,omitempty"`
	EndTime           int64  `json:"endTime,omitempty"`
	DurationInSeconds int    `json:"durationInSeconds,omitempty"`
	RemainingSeconds  int    `json:"remainingSeconds,omitempty"`
	IsPaused          bool   `json:"isPaused,omitempty"`
	PausedAt          int64  `json:"pausedAt,omitempty"`
}

// Remaining returns the whole seconds left on the timer at nowMs.
func (t FocusTimer) Remaining(nowMs int64) int {
	if t.IsPaused {
		if t.RemainingSeconds < 0 {
			return 0
		}
		return t.RemainingSeconds
	}
	if t.EndTime == 0 {
		return 0
	}
	remaining := (t.EndTime - nowMs) / 1000
	if remaining < 0 {
		return 0
	}
	return int(remaining)
}

// TimerView is the GET_TIMER_STATUS representation of an active timer.
type TimerView struct {
	SkillID          string `json:"skillId"`
	SkillName        string `json:"skillName"`
	StartTime        int64  `json:"startTime,omitempty"`
	EndTime          int64  `json:"endTime,omitempty"`
	IsPaused         bool   `json:"isPaused,omitempty"`
	RemainingSeconds int    `json:"remainingSeconds"`
}

// TimerStatus is the GET_TIMER_STATUS result.
type TimerStatus struct {
	Active bool       `json:"active"`
	Timer  *TimerView `json:"timer"`
}
