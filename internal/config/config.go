// Package config loads skillpulse settings from config.yaml and SKILLPULSE_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/julianstephens/skillpulse/internal/constants"
	"github.com/julianstephens/skillpulse/internal/logger"
	"github.com/julianstephens/skillpulse/internal/utils"
)

const FileName = "config.yaml"

type Config struct {
	Storage       StorageConfig       `mapstructure:"storage"`
	Timezone      string              `mapstructure:"timezone"`
	Server        ServerConfig        `mapstructure:"server"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Backup        BackupConfig        `mapstructure:"backup"`
	Debug         bool                `mapstructure:"debug"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	// Path is the sqlite file; relative paths resolve against the config dir.
	Path string `mapstructure:"path"`
	// DSN is the postgres or redis connection string. Empty means look in
	// the OS keyring.
	DSN       string `mapstructure:"dsn"`
	Namespace string `mapstructure:"namespace"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type NotificationsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type BackupConfig struct {
	OnReset bool `mapstructure:"on_reset"`
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	return utils.LoadLocation(c.Timezone)
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case constants.BackendSQLite, constants.BackendPostgres, constants.BackendRedis, constants.BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == constants.BackendSQLite && c.Storage.Path == "" {
		return errors.New("storage.path is required for the sqlite backend")
	}
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q", c.Timezone)
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr must not be empty")
	}
	return nil
}

// Loader owns the viper instance so the daemon can watch the file after the
// first load.
type Loader struct {
	v   *viper.Viper
	dir string
}

// NewLoader reads file when given, otherwise config.yaml inside dir.
func NewLoader(dir, file string) *Loader {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigFile(filepath.Join(dir, FileName))
	}
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v, dir: dir}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(constants.SettingStorageBackend, constants.DefaultStorageBackend)
	v.SetDefault(constants.SettingStoragePath, constants.DefaultDBFileName)
	v.SetDefault(constants.SettingStorageDSN, "")
	v.SetDefault(constants.SettingStorageNamespace, constants.DefaultStorageNamespace)
	v.SetDefault(constants.SettingTimezone, constants.DefaultTimezone)
	v.SetDefault(constants.SettingServerAddr, constants.DefaultServerAddr)
	v.SetDefault(constants.SettingNotificationsEnabled, constants.DefaultNotificationsEnabled)
	v.SetDefault(constants.SettingAutoBackup, constants.DefaultAutoBackup)
	v.SetDefault(constants.SettingDebug, false)
}

// Load reads the file if present and applies env overrides. A missing file
// is not an error.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logger.Debug("No config file, using defaults", "path", l.Path())
	}
	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Storage.Path != "" && !filepath.IsAbs(cfg.Storage.Path) {
		cfg.Storage.Path = filepath.Join(l.dir, cfg.Storage.Path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Path is the config file the loader reads and writes.
func (l *Loader) Path() string {
	if used := l.v.ConfigFileUsed(); used != "" {
		return used
	}
	return filepath.Join(l.dir, FileName)
}

// Watch calls onChange with the re-read config whenever the file is written.
// Invalid edits are logged and skipped.
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		if err != nil {
			logger.Warn("Ignoring invalid config change", "file", e.Name, "error", err)
			return
		}
		logger.Info("Config reloaded", "file", e.Name)
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// Settable lists the keys Save accepts.
var Settable = []string{
	constants.SettingStorageBackend,
	constants.SettingStoragePath,
	constants.SettingStorageNamespace,
	constants.SettingTimezone,
	constants.SettingServerAddr,
	constants.SettingNotificationsEnabled,
	constants.SettingAutoBackup,
	constants.SettingDebug,
}

// Save validates and persists one setting to the config file. DSNs belong in
// the keyring and are refused.
func (l *Loader) Save(key, value string) error {
	known := false
	for _, k := range Settable {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown or unsettable key %q", key)
	}

	prev := l.v.Get(key)
	var next any = value
	if _, isBool := prev.(bool); isBool {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s expects true or false", key)
		}
		next = b
	}
	l.v.Set(key, next)
	if _, err := l.decode(); err != nil {
		l.v.Set(key, prev)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(l.Path()), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := l.v.WriteConfigAs(l.Path()); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// All returns every effective setting, for display.
func (l *Loader) All() map[string]any {
	return l.v.AllSettings()
}
