// Package logger is the process-wide structured log, written to a rotated
// file next to the tgdaily config.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/amnyam666/tgdailybot/internal/constants"
)

// Logger is nil until Init; the level helpers are no-ops before that.
var Logger *log.Logger

// Config holds logger configuration
type Config struct {
	Debug bool
	// Level overrides the default level ("debug", "info", "warn", "error").
	Level string
	// Dir is the config directory; the log lives in Dir/logs.
	Dir string
	// Stderr mirrors log lines to stderr. Debug implies it.
	Stderr bool
}

// Reminder delivery runs for days under `watch`, so files rotate by size
// and old ones are pruned.
const (
	maxSizeMB  = 10
	maxBackups = 3
	maxAgeDays = 28
)

func logPath(dir string) string {
	return filepath.Join(dir, "logs", constants.AppName+".log")
}

// level resolves the configured level; unknown names keep warn.
func (c Config) level() log.Level {
	if c.Debug {
		return log.DebugLevel
	}
	if parsed, err := log.ParseLevel(c.Level); err == nil && c.Level != "" {
		return parsed
	}
	return log.WarnLevel
}

func (c Config) output() (io.Writer, error) {
	path := logPath(c.Dir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
	if c.Debug || c.Stderr {
		return io.MultiWriter(os.Stderr, file), nil
	}
	return file, nil
}

// Init replaces the global logger.
func Init(cfg Config) error {
	out, err := cfg.output()
	if err != nil {
		return err
	}

	Logger = log.NewWithOptions(out, log.Options{
		Level:           cfg.level(),
		Prefix:          constants.AppName,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		ReportCaller:    cfg.Debug,
		// skip emit and the level helper
		CallerOffset: 2,
	})
	return nil
}

func emit(level log.Level, msg string, keyvals []interface{}) {
	if Logger == nil {
		return
	}
	Logger.Log(level, msg, keyvals...)
}

func Debug(msg string, keyvals ...interface{}) { emit(log.DebugLevel, msg, keyvals) }

func Info(msg string, keyvals ...interface{}) { emit(log.InfoLevel, msg, keyvals) }

func Warn(msg string, keyvals ...interface{}) { emit(log.WarnLevel, msg, keyvals) }

func Error(msg string, keyvals ...interface{}) { emit(log.ErrorLevel, msg, keyvals) }
