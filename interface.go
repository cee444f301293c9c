// FILE: lixenwraith/fanlog/interface.go
package log

import (
	"fmt"

	"github.com/lixenwraith/fanlog/formatter"
	"github.com/lixenwraith/fanlog/internal/logerr"
	"github.com/lixenwraith/fanlog/level"
)

// Log writes a record at lvl. Records below the logger threshold cost one atomic load.
// Negative levels never pass the threshold; Off and larger values are reported to the
// error handler and nothing is written.
func (l *Logger) Log(lvl Level, args ...any) {
	if !l.ShouldLog(lvl) || !l.checkRecordLevel(lvl) {
		return
	}
	l.emit(lvl, formatter.Message(args...))
}

// Logf writes a printf-style record at lvl
func (l *Logger) Logf(lvl Level, format string, args ...any) {
	if !l.ShouldLog(lvl) || !l.checkRecordLevel(lvl) {
		return
	}
	l.emit(lvl, fmt.Sprintf(format, args...))
}

// checkRecordLevel rejects Off and out-of-range values as record levels
func (l *Logger) checkRecordLevel(lvl Level) bool {
	if lvl < level.Off {
		return true
	}
	l.handleSinkError(logerr.Levelf("cannot log at level %d", int(lvl)))
	return false
}

// Trace logs a message at trace level.
func (l *Logger) Trace(args ...any) {
	l.Log(level.Trace, args...)
}

// Debug logs a message at debug level.
func (l *Logger) Debug(args ...any) {
	l.Log(level.Debug, args...)
}

// Info logs a message at info level.
func (l *Logger) Info(args ...any) {
	l.Log(level.Info, args...)
}

// Notice logs a message at notice level.
func (l *Logger) Notice(args ...any) {
	l.Log(level.Notice, args...)
}

// Warn logs a message at warning level.
func (l *Logger) Warn(args ...any) {
	l.Log(level.Warn, args...)
}

// Error logs a message at error level.
func (l *Logger) Error(args ...any) {
	l.Log(level.Err, args...)
}

// Critical logs a message at critical level.
func (l *Logger) Critical(args ...any) {
	l.Log(level.Critical, args...)
}

// Alert logs a message at alert level.
func (l *Logger) Alert(args ...any) {
	l.Log(level.Alert, args...)
}

// Emerg logs a message at emergency level.
func (l *Logger) Emerg(args ...any) {
	l.Log(level.Emerg, args...)
}

func (l *Logger) Tracef(format string, args ...any) {
	l.Logf(level.Trace, format, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.Logf(level.Debug, format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.Logf(level.Info, format, args...)
}

func (l *Logger) Noticef(format string, args ...any) {
	l.Logf(level.Notice, format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.Logf(level.Warn, format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.Logf(level.Err, format, args...)
}

func (l *Logger) Criticalf(format string, args ...any) {
	l.Logf(level.Critical, format, args...)
}

func (l *Logger) Alertf(format string, args ...any) {
	l.Logf(level.Alert, format, args...)
}

func (l *Logger) Emergf(format string, args ...any) {
	l.Logf(level.Emerg, format, args...)
}
