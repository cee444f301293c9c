// FILE: lixenwraith/fanlog/constant.go
package log

import (
	"time"

	"github.com/lixenwraith/fanlog/level"
)

// Level constants re-exported for callers that only import the root package
const (
	LevelTrace    = level.Trace
	LevelDebug    = level.Debug
	LevelInfo     = level.Info
	LevelNotice   = level.Notice
	LevelWarn     = level.Warn
	LevelError    = level.Err
	LevelCritical = level.Critical
	LevelAlert    = level.Alert
	LevelEmerg    = level.Emerg
	LevelOff      = level.Off
)

// File modes
const (
	FileModeNone     = "none"
	FileModeRotating = "rotating"
	FileModeDaily    = "daily"
)

// Dispatcher defaults
const (
	defaultQueueSize       = 8192
	defaultShutdownTimeout = 2 * time.Second
	defaultRetryMin        = time.Millisecond
	defaultRetryMax        = 50 * time.Millisecond
)

// Timers
const (
	// Minimum wait time used throughout the package
	minWaitTime = 10 * time.Millisecond
	// Size multiplier for KB
	sizeMultiplier = 1024
	// Pooled records with larger buffers are dropped instead of reused
	maxPooledBuffer = 64 * 1024
)
