// Package logger filters log output by level. Messages go through the
// standard log package.
package logger

import (
	"log"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

var levelNames = map[string]Level{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warning": LevelWarning,
	"warn":    LevelWarning,
	"error":   LevelError,
}

// ParseLevel maps a level name to a Level. Unknown names map to LevelInfo.
func ParseLevel(name string) (Level, bool) {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return LevelInfo, false
	}

	return l, true
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Logger is safe for concurrent use; the level can change while logging.
type Logger struct {
	level atomic.Int32
}

func New(level Level) *Logger {
	l := &Logger{}
	l.SetLevel(level)

	return l
}

func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

func (l *Logger) Level() Level {
	return Level(l.level.Load())
}

func (l *Logger) Enabled(level Level) bool {
	return level >= l.Level()
}

func (l *Logger) logf(level Level, format string, v ...interface{}) {
	if l.Enabled(level) {
		log.Printf(level.String()+": "+format, v...)
	}
}

func (l *Logger) Debugf(format string, v ...interface{}) {
	l.logf(LevelDebug, format, v...)
}

func (l *Logger) Infof(format string, v ...interface{}) {
	l.logf(LevelInfo, format, v...)
}

func (l *Logger) Warnf(format string, v ...interface{}) {
	l.logf(LevelWarning, format, v...)
}

func (l *Logger) Errorf(format string, v ...interface{}) {
	l.logf(LevelError, format, v...)
}
