package constants

import "time"

const (
	AppName            = "skillpulse"
	DefaultKeyringUser = "storage-connection"
	DefaultConfigDir   = "~/.config/skillpulse"
	DefaultDBFileName  = "skillpulse.db"
	Version            = "v0.3.0"

	// DateFormat is the calendar-day key format used for day logs (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "skillpulse-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifierLockfileName   = "skillpulse-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.skillpulse"
	TrayExecutablePrefix   = "skillpulse-tray"
	TraySecretHeader       = "X-Skillpulse-Secret"
	NotificationTimeout    = 3 * time.Second

	// Server defaults
	DefaultServerAddr   = "127.0.0.1:7419"
	AlarmHandlerTimeout = 30 * time.Second
)
