package constants

const (
	// Config keys
	SettingStorageBackend       = "storage.backend"
	SettingStoragePath          = "storage.path"
	SettingStorageDSN           = "storage.dsn"
	SettingStorageNamespace     = "storage.namespace"
	SettingTimezone             = "timezone"
	SettingServerAddr           = "server.addr"
	SettingNotificationsEnabled = "notifications.enabled"
	SettingAutoBackup           = "backup.on_reset"
	SettingDebug                = "debug"

	// Default settings values
	DefaultStorageBackend       = BackendSQLite
	DefaultStorageNamespace     = AppName
	DefaultTimezone             = "Local" // Use system local timezone by default
	DefaultNotificationsEnabled = true
	DefaultAutoBackup           = true

	EnvPrefix = "SKILLPULSE"
)
