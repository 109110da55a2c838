package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger = &logrusLogger{log: logrus.New()}

// Config controls logger output. The zero value logs text at info level to
// stderr.
type Config struct {
	Level  string     `mapstructure:"level"`  // trace / debug / info / warn / error
	Format string     `mapstructure:"format"` // text / json
	File   FileConfig `mapstructure:"file"`
}

// FileConfig enables rotating file output in addition to stderr.
type FileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// GetLogger returns the process logger.
func GetLogger() Logger {
	return logger
}

// Init configures the process logger from cfg.
func Init(cfg Config) error {
	level := logrus.InfoLevel
	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	logger.log.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		logger.log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	case "json":
		logger.log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unsupported log format: %s (must be text or json)", cfg.Format)
	}

	writers := []io.Writer{os.Stderr}
	if cfg.File.Enabled {
		if cfg.File.Path == "" {
			return fmt.Errorf("log file output requires 'path'")
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		})
	}
	logger.log.SetOutput(io.MultiWriter(writers...))

	return nil
}

// SetLevel adjusts the level at runtime, for config hot reload.
func SetLevel(levelStr string) error {
	parsed, err := logrus.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", levelStr, err)
	}
	logger.log.SetLevel(parsed)
	return nil
}

type logrusLogger struct {
	log *logrus.Logger
}

func (l *logrusLogger) Trace(args ...interface{}) {
	l.log.Trace(args...)
}

func (l *logrusLogger) Tracef(format string, args ...interface{}) {
	l.log.Tracef(format, args...)
}

func (l *logrusLogger) Debug(args ...interface{}) {
	l.log.Debug(args...)
}

func (l *logrusLogger) Debugf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}

func (l *logrusLogger) Info(args ...interface{}) {
	l.log.Info(args...)
}

func (l *logrusLogger) Infof(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}

func (l *logrusLogger) Warn(args ...interface{}) {
	l.log.Warn(args...)
}

func (l *logrusLogger) Warnf(format string, args ...interface{}) {
	l.log.Warnf(format, args...)
}

func (l *logrusLogger) Error(args ...interface{}) {
	l.log.Error(args...)
}

func (l *logrusLogger) Errorf(format string, args ...interface{}) {
	l.log.Errorf(format, args...)
}

func (l *logrusLogger) Fatal(args ...interface{}) {
	l.log.Fatal(args...)
}

func (l *logrusLogger) Fatalf(format string, args ...interface{}) {
	l.log.Fatalf(format, args...)
}

func (l *logrusLogger) WithField(field string, value interface{}) Logger {
	return &logrusEntry{entry: l.log.WithField(field, value)}
}

func (l *logrusLogger) WithFields(fields map[string]interface{}) Logger {
	return &logrusEntry{entry: l.log.WithFields(logrus.Fields(fields))}
}

func (l *logrusLogger) WithError(err error) Logger {
	return &logrusEntry{entry: l.log.WithError(err)}
}

func (l *logrusLogger) IsDebugEnabled() bool {
	return l.log.IsLevelEnabled(logrus.DebugLevel)
}

type logrusEntry struct {
	entry *logrus.Entry
}

func (e *logrusEntry) Trace(args ...interface{}) {
	e.entry.Trace(args...)
}

func (e *logrusEntry) Tracef(format string, args ...interface{}) {
	e.entry.Tracef(format, args...)
}

func (e *logrusEntry) Debug(args ...interface{}) {
	e.entry.Debug(args...)
}

func (e *logrusEntry) Debugf(format string, args ...interface{}) {
	e.entry.Debugf(format, args...)
}

func (e *logrusEntry) Info(args ...interface{}) {
	e.entry.Info(args...)
}

func (e *logrusEntry) Infof(format string, args ...interface{}) {
	e.entry.Infof(format, args...)
}

func (e *logrusEntry) Warn(args ...interface{}) {
	e.entry.Warn(args...)
}

func (e *logrusEntry) Warnf(format string, args ...interface{}) {
	e.entry.Warnf(format, args...)
}

func (e *logrusEntry) Error(args ...interface{}) {
	e.entry.Error(args...)
}

func (e *logrusEntry) Errorf(format string, args ...interface{}) {
	e.entry.Errorf(format, args...)
}

func (e *logrusEntry) Fatal(args ...interface{}) {
	e.entry.Fatal(args...)
}

func (e *logrusEntry) Fatalf(format string, args ...interface{}) {
	e.entry.Fatalf(format, args...)
}

func (e *logrusEntry) WithField(field string, value interface{}) Logger {
	return &logrusEntry{entry: e.entry.WithField(field, value)}
}

func (e *logrusEntry) WithFields(fields map[string]interface{}) Logger {
	return &logrusEntry{entry: e.entry.WithFields(logrus.Fields(fields))}
}

func (e *logrusEntry) WithError(err error) Logger {
	return &logrusEntry{entry: e.entry.WithError(err)}
}

func (e *logrusEntry) IsDebugEnabled() bool {
	return e.entry.Logger.IsLevelEnabled(logrus.DebugLevel)
}
