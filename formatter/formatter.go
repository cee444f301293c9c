// Package formatter turns log records into bytes.
package formatter

import (
	"strconv"
	"time"

	"github.com/lixenwraith/fanlog/level"
	"github.com/lixenwraith/fanlog/sanitizer"
)

// Output types
const (
	TypeTxt  = "txt"
	TypeJSON = "json"
	TypeRaw  = "raw"
)

// Record is a single log event.
// Sinks receive it with Formatted already filled and must not retain it after Write returns.
type Record struct {
	Time        time.Time
	Level       level.Level
	LoggerName  string
	Message     string
	GoroutineID uint64 // Zero when capture is disabled
	Formatted   []byte
}

// Reset clears the record for reuse, keeping the Formatted capacity
func (r *Record) Reset() {
	r.Time = time.Time{}
	r.Level = level.Trace
	r.LoggerName = ""
	r.Message = ""
	r.GoroutineID = 0
	r.Formatted = r.Formatted[:0]
}

// Clone returns a deep copy that owns its own Formatted buffer
func (r *Record) Clone() Record {
	c := *r
	c.Formatted = append([]byte(nil), r.Formatted...)
	return c
}

// Formatter converts a record to bytes appended to dst.
// Implementations must be pure functions of the record and their configuration.
type Formatter interface {
	Format(dst []byte, r *Record) []byte
}

// Template is the built-in Formatter.
// Configure it with the chain setters before sharing; after that it is read-only and safe for concurrent use.
type Template struct {
	format          string
	timestampFormat string
	showTimestamp   bool
	showLevel       bool
	showName        bool
	showGoroutine   bool
	shortLevel      bool
	utc             bool
	txtSanitizer    *sanitizer.Sanitizer
	jsonSanitizer   *sanitizer.Sanitizer
}

// New creates a txt template showing timestamp, level and logger name
func New() *Template {
	return &Template{
		format:          TypeTxt,
		timestampFormat: time.RFC3339Nano,
		showTimestamp:   true,
		showLevel:       true,
		showName:        true,
		txtSanitizer:    sanitizer.ForPolicy(sanitizer.PolicyTxt),
		jsonSanitizer:   sanitizer.ForPolicy(sanitizer.PolicyJSON),
	}
}

// Type sets the output type ("txt", "json" or "raw"); unknown values fall back to txt
func (t *Template) Type(format string) *Template {
	switch format {
	case TypeJSON, TypeRaw:
		t.format = format
	default:
		t.format = TypeTxt
	}
	return t
}

// TimestampFormat sets the time layout
func (t *Template) TimestampFormat(layout string) *Template {
	if layout != "" {
		t.timestampFormat = layout
	}
	return t
}

// ShowTimestamp toggles the timestamp field
func (t *Template) ShowTimestamp(show bool) *Template {
	t.showTimestamp = show
	return t
}

// ShowLevel toggles the level field
func (t *Template) ShowLevel(show bool) *Template {
	t.showLevel = show
	return t
}

// ShowName toggles the logger name field
func (t *Template) ShowName(show bool) *Template {
	t.showName = show
	return t
}

// ShowGoroutine toggles the goroutine id field
func (t *Template) ShowGoroutine(show bool) *Template {
	t.showGoroutine = show
	return t
}

// ShortLevel selects one-letter level names
func (t *Template) ShortLevel(short bool) *Template {
	t.shortLevel = short
	return t
}

// UTC renders timestamps in UTC instead of the record's location
func (t *Template) UTC(utc bool) *Template {
	t.utc = utc
	return t
}

// Sanitizer replaces the txt message sanitizer
func (t *Template) Sanitizer(s *sanitizer.Sanitizer) *Template {
	if s != nil {
		t.txtSanitizer = s
	}
	return t
}

// OutputType returns the configured output type
func (t *Template) OutputType() string {
	return t.format
}

// Format implements Formatter
func (t *Template) Format(dst []byte, r *Record) []byte {
	switch t.format {
	case TypeRaw:
		return append(dst, r.Message...)
	case TypeJSON:
		return t.formatJSON(dst, r)
	default:
		return t.formatTxt(dst, r)
	}
}

func (t *Template) levelName(l level.Level) string {
	if t.shortLevel {
		return l.Short()
	}
	return l.Upper()
}

func (t *Template) appendTime(dst []byte, ts time.Time) []byte {
	if t.utc {
		ts = ts.UTC()
	}
	return ts.AppendFormat(dst, t.timestampFormat)
}

// formatTxt renders "<time> <LEVEL> [name] [gN] message\n"
func (t *Template) formatTxt(dst []byte, r *Record) []byte {
	needsSpace := false
	space := func() {
		if needsSpace {
			dst = append(dst, ' ')
		}
		needsSpace = true
	}

	if t.showTimestamp {
		space()
		dst = t.appendTime(dst, r.Time)
	}
	if t.showLevel {
		space()
		dst = append(dst, t.levelName(r.Level)...)
	}
	if t.showName && r.LoggerName != "" {
		space()
		dst = append(dst, '[')
		dst = t.txtSanitizer.Append(dst, r.LoggerName)
		dst = append(dst, ']')
	}
	if t.showGoroutine && r.GoroutineID != 0 {
		space()
		dst = append(dst, "[g"...)
		dst = strconv.AppendUint(dst, r.GoroutineID, 10)
		dst = append(dst, ']')
	}
	space()
	dst = t.txtSanitizer.Append(dst, r.Message)
	return append(dst, '\n')
}

// formatJSON renders a single-line JSON object
func (t *Template) formatJSON(dst []byte, r *Record) []byte {
	dst = append(dst, '{')
	needsComma := false
	field := func(name string) {
		if needsComma {
			dst = append(dst, ',')
		}
		dst = append(dst, '"')
		dst = append(dst, name...)
		dst = append(dst, '"', ':')
		needsComma = true
	}

	if t.showTimestamp {
		field("time")
		dst = append(dst, '"')
		dst = t.appendTime(dst, r.Time)
		dst = append(dst, '"')
	}
	if t.showLevel {
		field("level")
		dst = append(dst, '"')
		if t.shortLevel {
			dst = append(dst, r.Level.Short()...)
		} else {
			dst = append(dst, r.Level.String()...)
		}
		dst = append(dst, '"')
	}
	if t.showName && r.LoggerName != "" {
		field("logger")
		dst = t.appendJSONString(dst, r.LoggerName)
	}
	if t.showGoroutine && r.GoroutineID != 0 {
		field("goroutine")
		dst = strconv.AppendUint(dst, r.GoroutineID, 10)
	}
	field("message")
	dst = t.appendJSONString(dst, r.Message)
	return append(dst, '}', '\n')
}

func (t *Template) appendJSONString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	dst = t.jsonSanitizer.Append(dst, s)
	return append(dst, '"')
}
