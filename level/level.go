// FILE: lixenwraith/fanlog/level/level.go
// Package level defines the ordered severity levels shared by loggers, formatters and sinks.
package level

import (
	"strconv"
	"strings"

	"github.com/lixenwraith/fanlog/internal/logerr"
)

// Level is an ordinal severity; higher is more severe
type Level int32

// Severity levels, totally ordered. Off is a threshold sentinel and is never attached to a record.
const (
	Trace Level = iota
	Debug
	Info
	Notice
	Warn
	Err
	Critical
	Alert
	Emerg
	Off
)

var names = [...]string{"trace", "debug", "info", "notice", "warning", "error", "critical", "alert", "emerg", "off"}

var upperNames = [...]string{"TRACE", "DEBUG", "INFO", "NOTICE", "WARNING", "ERROR", "CRITICAL", "ALERT", "EMERG", "OFF"}

var shortNames = [...]string{"T", "D", "I", "N", "W", "E", "C", "A", "M", "O"}

// Valid reports whether l is one of the defined levels, Off included
func (l Level) Valid() bool {
	return l >= Trace && l <= Off
}

// String returns the lower-case display name
func (l Level) String() string {
	if !l.Valid() {
		return "LEVEL(" + strconv.Itoa(int(l)) + ")"
	}
	return names[l]
}

// Upper returns the upper-case display name
func (l Level) Upper() string {
	if !l.Valid() {
		return "LEVEL(" + strconv.Itoa(int(l)) + ")"
	}
	return upperNames[l]
}

// Short returns the one-letter form
func (l Level) Short() string {
	if !l.Valid() {
		return "?"
	}
	return shortNames[l]
}

// Check returns a level-kind error for values outside the enumeration
func Check(l Level) error {
	if !l.Valid() {
		return logerr.Levelf("invalid level value %d (valid range %d..%d)", int(l), int(Trace), int(Off))
	}
	return nil
}

// Parse converts a long name, a common alias or a one-letter short form to a Level
func Parse(s string) (Level, error) {
	v := strings.TrimSpace(s)
	if len(v) == 1 {
		up := strings.ToUpper(v)
		for i, n := range shortNames {
			if n == up {
				return Level(i), nil
			}
		}
	}
	switch strings.ToLower(v) {
	case "warn":
		return Warn, nil
	case "err":
		return Err, nil
	case "emergency":
		return Emerg, nil
	}
	lv := strings.ToLower(v)
	for i, n := range names {
		if n == lv {
			return Level(i), nil
		}
	}
	return Off, logerr.Levelf("invalid level string '%s' (use trace, debug, info, notice, warning, error, critical, alert, emerg, off)", s)
}

// All returns every real level in ascending order, Off excluded
func All() []Level {
	return []Level{Trace, Debug, Info, Notice, Warn, Err, Critical, Alert, Emerg}
}
