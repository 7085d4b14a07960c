package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/skillpulse/internal/constants"
)

var (
	// Logger is the global logger instance
	Logger *log.Logger

	// baseLevel is what SetDebug(false) returns to.
	baseLevel = log.WarnLevel
)

const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 3
	defaultMaxAgeDays = 28
)

// Config holds logger configuration
type Config struct {
	Debug     bool
	ConfigDir string
	// Stderr mirrors log output to stderr even outside debug mode. The daemon
	// sets this so the process supervisor captures warnings.
	Stderr bool

	// Rotation policy for the log file. Zero values use the defaults.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func (c Config) level() log.Level {
	switch {
	case c.Debug:
		return log.DebugLevel
	case c.Stderr:
		return log.InfoLevel
	default:
		return log.WarnLevel
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Init initializes the global logger with the given configuration
func Init(cfg Config) error {
	logDir := filepath.Join(cfg.ConfigDir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, constants.AppName+".log"),
		MaxSize:    orDefault(cfg.MaxSizeMB, defaultMaxSizeMB),
		MaxBackups: orDefault(cfg.MaxBackups, defaultMaxBackups),
		MaxAge:     orDefault(cfg.MaxAgeDays, defaultMaxAgeDays),
		Compress:   true,
	}

	baseLevel = cfg.level()
	if cfg.Debug {
		// Debug on the command line is sticky across config reloads.
		baseLevel = log.DebugLevel
	}

	var writer io.Writer = fileWriter
	if cfg.Debug || cfg.Stderr {
		writer = io.MultiWriter(os.Stderr, fileWriter)
	}

	Logger = log.NewWithOptions(writer, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           baseLevel,
		Prefix:          constants.AppName,
	})

	return nil
}

// With returns a child logger carrying keyvals on every line. It falls back to
// a discarding logger when Init has not run.
func With(keyvals ...interface{}) *log.Logger {
	if Logger == nil {
		return log.New(io.Discard)
	}
	return Logger.With(keyvals...)
}

// Debug logs a debug message
func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

// Info logs an info message
func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

// Warn logs a warning message
func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

// Error logs an error message
func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// Fatal logs a fatal error and exits
func Fatal(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Fatal(msg, keyvals...)
	}
	os.Exit(1)
}

// SetDebug switches the global logger between debug and the level chosen at
// Init. The daemon calls it when the config file changes.
func SetDebug(debug bool) {
	if Logger == nil {
		return
	}
	if debug {
		Logger.SetLevel(log.DebugLevel)
		Logger.SetReportCaller(true)
		return
	}
	Logger.SetLevel(baseLevel)
	Logger.SetReportCaller(baseLevel == log.DebugLevel)
}
