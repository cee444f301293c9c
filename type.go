// FILE: lixenwraith/fanlog/type.go
package log

import (
	"strings"

	"github.com/lixenwraith/fanlog/formatter"
	"github.com/lixenwraith/fanlog/internal/logerr"
	"github.com/lixenwraith/fanlog/level"
	"github.com/lixenwraith/fanlog/sink"
)

// Error is the single error type returned by the library
type Error = logerr.Error

// Level is a record severity
type Level = level.Level

// Sentinel errors, matched with errors.Is
var (
	ErrClosed     = logerr.ErrClosed
	ErrModeLocked = logerr.ErrModeLocked
)

// OverflowPolicy selects what Enqueue does when the queue is full
type OverflowPolicy int

const (
	// BlockRetry blocks the producer until space frees or shutdown begins
	BlockRetry OverflowPolicy = iota
	// DiscardLogMsg drops the record and counts it
	DiscardLogMsg
)

// String returns the config spelling of the policy
func (p OverflowPolicy) String() string {
	switch p {
	case BlockRetry:
		return "block_retry"
	case DiscardLogMsg:
		return "discard_log_msg"
	default:
		return "unknown"
	}
}

// ParseOverflowPolicy accepts "block_retry"/"block" and "discard_log_msg"/"discard"
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "block_retry", "block":
		return BlockRetry, nil
	case "discard_log_msg", "discard":
		return DiscardLogMsg, nil
	default:
		return BlockRetry, logerr.Configf("overflow_policy", "invalid value '%s' (use block_retry or discard_log_msg)", s)
	}
}

// ErrorHandler receives errors that never reach the logging call site
type ErrorHandler func(err error)

// message is one queue entry: a record bound for sinks, or a flush marker when rec is nil
type message struct {
	rec   *formatter.Record
	owner *Logger
	sinks []sink.Sink
	done  chan error // Flush markers only, buffered 1
}

// formatterRef wraps the formatter interface, atomic value type change workaround
type formatterRef struct {
	f formatter.Formatter
}

// handlerRef wraps the error handler for atomic storage
type handlerRef struct {
	fn ErrorHandler
}
