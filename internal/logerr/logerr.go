// FILE: lixenwraith/fanlog/internal/logerr/logerr.go
// Package logerr defines the single error kind returned by fanlog packages.
package logerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an Error
type Kind int

const (
	KindConfig Kind = iota // Invalid construction parameters, fatal to that construction only
	KindIO                 // Sink open/write/flush failure
	KindClosed             // Use of a dispatcher, logger or sink after teardown
	KindLevel              // Invalid level value or name
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindIO:
		return "io"
	case KindClosed:
		return "closed"
	case KindLevel:
		return "level"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the descriptive error carried by every library failure
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

// Error implements error
func (e *Error) Error() string {
	s := "log: "
	if e.Op != "" {
		s += e.Op + ": "
	}
	s += e.Msg
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap exposes the cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors by kind so errors.Is(err, ErrClosed) holds for any closed-kind error
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == sentinelMsg && t.Kind == e.Kind
}

const sentinelMsg = "\x00sentinel"

var (
	// ErrClosed matches any KindClosed error
	ErrClosed = &Error{Kind: KindClosed, Msg: sentinelMsg}
	// ErrModeLocked reports an attempt to switch sync/async mode while loggers are bound
	ErrModeLocked = &Error{Kind: KindConfig, Op: "mode", Msg: "sync/async mode is fixed while loggers are bound"}
)

// Configf returns a config-kind error
func Configf(op, format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Levelf returns a level-kind error
func Levelf(format string, args ...any) *Error {
	return &Error{Kind: KindLevel, Op: "level", Msg: fmt.Sprintf(format, args...)}
}

// Closed returns a closed-kind error for op
func Closed(op string) *Error {
	return &Error{Kind: KindClosed, Op: op, Msg: "use after close"}
}

// IO wraps an I/O cause, recording the stack where it was observed
func IO(op string, err error, format string, args ...any) *Error {
	return &Error{Kind: KindIO, Op: op, Msg: fmt.Sprintf(format, args...), Err: errors.WithStack(err)}
}

// IsKind reports whether err is an *Error of kind k
func IsKind(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

// Cause returns the innermost cause of err
func Cause(err error) error {
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return errors.Cause(e.Err)
	}
	return errors.Cause(err)
}
