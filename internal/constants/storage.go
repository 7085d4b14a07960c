package constants

const (
	// Persisted keys
	KeyMeta       = "sp_meta"
	KeyUser       = "user"
	KeySkills     = "skills"
	KeyFocusTimer = "active_focus_timer"
	DayLogPrefix  = "daylog_"

	// ItemSafeSize is the per-item ceiling enforced before every write. The
	// backing store's hard quota is HardItemQuota; the gap absorbs encoding overhead.
	ItemSafeSize  = 7000
	HardItemQuota = 8192

	MetaVersion = 1

	// Storage backends
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Alarm names
const (
	AlarmDailyReset       = "daily-reset"
	AlarmFocusTimerPrefix = "focus_timer_"
	AlarmFocusBadgeUpdate = "focus_badge_update"
	AlarmRearmPrefix      = "rearm_"
)

// DayLogKey returns the persisted key of a skill's day log.
func DayLogKey(skillID string) string {
	return DayLogPrefix + skillID
}
