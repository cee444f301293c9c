// FILE: lixenwraith/fanlog/compat/fasthttp.go
package compat

import (
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"

	log "github.com/lixenwraith/fanlog"
)

var _ fasthttp.Logger = (*FastHTTPAdapter)(nil)

// FastHTTPAdapter routes fasthttp server logs into a fanlog Logger
type FastHTTPAdapter struct {
	logger        *log.Logger
	defaultLevel  log.Level
	levelDetector func(string) log.Level
}

// NewFastHTTPAdapter creates a new fasthttp-compatible logger adapter
func NewFastHTTPAdapter(logger *log.Logger, opts ...FastHTTPOption) *FastHTTPAdapter {
	adapter := &FastHTTPAdapter{
		logger:        logger,
		defaultLevel:  log.LevelInfo,
		levelDetector: DetectLogLevel,
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FastHTTPOption allows customizing adapter behavior
type FastHTTPOption func(*FastHTTPAdapter)

// WithDefaultLevel sets the level used when detection yields nothing
func WithDefaultLevel(lvl log.Level) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.defaultLevel = lvl
	}
}

// WithLevelDetector sets a custom function to derive the level from message text.
// A detector returning LevelOff defers to the default level.
func WithLevelDetector(detector func(string) log.Level) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.levelDetector = detector
	}
}

// Printf implements fasthttp.Logger
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	lvl := a.defaultLevel
	if a.levelDetector != nil {
		if detected := a.levelDetector(msg); detected != log.LevelOff {
			lvl = detected
		}
	}

	a.logger.Log(lvl, "fasthttp: "+msg)
}

// DetectLogLevel guesses a level from keywords in msg, LevelOff when none match
func DetectLogLevel(msg string) log.Level {
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "panic") || strings.Contains(lower, "fatal"):
		return log.LevelCritical
	case strings.Contains(lower, "error") || strings.Contains(lower, "failed"):
		return log.LevelError
	case strings.Contains(lower, "warn") || strings.Contains(lower, "deprecated"):
		return log.LevelWarn
	case strings.Contains(lower, "debug") || strings.Contains(lower, "trace"):
		return log.LevelDebug
	}
	return log.LevelOff
}
