// Package objlog provides the logging seam every object-store component
// is built against. It mirrors azcopy's ILogger/LogLevel split: components
// depend on the narrow Logger interface, never on a concrete sink, so the
// host application can redirect logging (job log, stderr, /dev/null in
// tests) without the object-store package knowing about it.
package objlog

import (
	"fmt"
	"log"
	"os"
)

// Level mirrors azcopy's LogLevel: a small ordered severity scale with
// named factory methods hung off the zero value, e.g. ELevel.Warning().
type Level uint8

const (
	LevelNone Level = iota
	LevelError
	LevelWarning
	LevelInfo
	LevelDebug
)

var ELevel = Level(LevelNone)

func (Level) None() Level    { return LevelNone }
func (Level) Error() Level   { return LevelError }
func (Level) Warning() Level { return LevelWarning }
func (Level) Info() Level    { return LevelInfo }
func (Level) Debug() Level   { return LevelDebug }

func (l Level) String() string {
	switch l {
	case ELevel.Error():
		return "ERR"
	case ELevel.Warning():
		return "WARN"
	case ELevel.Info():
		return "INFO"
	case ELevel.Debug():
		return "DEBUG"
	default:
		return "NONE"
	}
}

// Logger is the logging contract every component in this module accepts
// through its constructor. Components never reach for a package-level
// logger the way azcopy's glcm does for its CLI; they're handed one.
type Logger interface {
	ShouldLog(level Level) bool
	Logf(level Level, format string, args ...interface{})
}

// stdLogger is the default Logger, writing level-prefixed lines through
// the standard library's *log.Logger, the same backing azcopy's own
// default logger wraps.
type stdLogger struct {
	minLevel Level
	out      *log.Logger
}

// NewStdLogger returns a Logger that writes to os.Stderr via the stdlib
// log package, filtering anything below minLevel.
func NewStdLogger(minLevel Level) Logger {
	return &stdLogger{
		minLevel: minLevel,
		out:      log.New(os.Stderr, "", log.LstdFlags),
	}
}

func (s *stdLogger) ShouldLog(level Level) bool {
	return level != LevelNone && level <= s.minLevel
}

func (s *stdLogger) Logf(level Level, format string, args ...interface{}) {
	if !s.ShouldLog(level) {
		return
	}
	s.out.Printf("%s: %s", level, fmt.Sprintf(format, args...))
}

// Nop is a Logger that discards everything; useful as a default so
// components never need a nil check before logging.
var Nop Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) ShouldLog(Level) bool               { return false }
func (nopLogger) Logf(Level, string, ...interface{}) {}
