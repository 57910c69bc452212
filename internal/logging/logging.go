// Package logging wraps zerolog behind the small leveled interface the
// synchronizers are written against. Output is a console writer on stderr so
// that every decision branch of a run stays auditable from the terminal.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Log levels, most severe first.
const (
	LevelError = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// Config controls logger construction.
type Config struct {
	Level int
}

// Logger is a leveled logger handed down to the synchronizers. The zero value
// is not usable; construct with NewLogger.
type Logger struct {
	logger zerolog.Logger
	level  int
}

// NewLogger returns a logger writing human-readable lines to stderr.
func NewLogger(c Config) *Logger {
	return NewLoggerWithWriter(c, os.Stderr)
}

// NewLoggerWithWriter is NewLogger with an explicit sink, used by tests.
func NewLoggerWithWriter(c Config, w io.Writer) *Logger {
	out := zerolog.ConsoleWriter{Out: w, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}}
	return &Logger{
		logger: zerolog.New(out).Level(zerologLevel(c.Level)),
		level:  c.Level,
	}
}

// ParseLevel maps a --log-level flag value to a level constant.
func ParseLevel(s string) (int, error) {
	switch strings.ToLower(s) {
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "", "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	}
	return 0, fmt.Errorf("invalid log level %q (expected one of error, warn, info, debug)", s)
}

func zerologLevel(level int) zerolog.Level {
	switch level {
	case LevelError:
		return zerolog.ErrorLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelDebug:
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

func (l *Logger) Debugf(format string, args ...any) {
	l.logger.Debug().Msgf(format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.logger.Info().Msgf(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.logger.Warn().Msgf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.logger.Error().Msgf(format, args...)
}

// Level reports the configured verbosity.
func (l *Logger) Level() int {
	return l.level
}
