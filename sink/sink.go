// FILE: lixenwraith/fanlog/sink/sink.go
// Package sink provides log destinations.
// Every sink is internally synchronized by default; SingleThreaded swaps the
// mutex for a no-op locker when the caller guarantees single ownership.
package sink

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/fanlog/formatter"
	"github.com/lixenwraith/fanlog/level"
)

// Sink receives formatted records.
// Write must not retain r or r.Formatted after returning.
// Write and Flush after Close return an error matching logerr.ErrClosed.
type Sink interface {
	Write(r *formatter.Record) error
	Flush() error
	SetLevel(l level.Level)
	Level() level.Level
	ShouldLog(l level.Level) bool
	Close() error
}

// HealthReporter is implemented by sinks that can enter a degraded state after I/O failures
type HealthReporter interface {
	Healthy() bool
	LastError() error
}

// Option configures a sink at construction
type Option func(*options)

type options struct {
	singleThreaded bool
	level          level.Level
	fileLock       bool
	clock          func() time.Time
}

func buildOptions(opts []Option) options {
	o := options{level: level.Trace, clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SingleThreaded disables internal locking.
// The sink must then be used from one goroutine at a time.
func SingleThreaded() Option {
	return func(o *options) { o.singleThreaded = true }
}

// WithLevel sets the initial sink threshold
func WithLevel(l level.Level) Option {
	return func(o *options) {
		if l.Valid() {
			o.level = l
		}
	}
}

// WithFileLock takes an exclusive advisory lock on "<filename>.lock" for the sink's lifetime.
// Ignored by sinks that do not own a file.
func WithFileLock() Option {
	return func(o *options) { o.fileLock = true }
}

// WithClock replaces time.Now for time-driven sinks
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

type noLocker struct{}

func (noLocker) Lock()   {}
func (noLocker) Unlock() {}

type errBox struct{ err error }

// base carries the state common to every sink
type base struct {
	mu       sync.Locker
	level    atomic.Int32
	closed   bool // Guarded by mu
	degraded atomic.Bool
	lastErr  atomic.Pointer[errBox]
}

func (b *base) init(o options) {
	if o.singleThreaded {
		b.mu = noLocker{}
	} else {
		b.mu = &sync.Mutex{}
	}
	b.level.Store(int32(o.level))
}

// SetLevel sets the sink threshold; invalid values are ignored
func (b *base) SetLevel(l level.Level) {
	if l.Valid() {
		b.level.Store(int32(l))
	}
}

// Level returns the sink threshold
func (b *base) Level() level.Level {
	return level.Level(b.level.Load())
}

// ShouldLog is a lock-free threshold check
func (b *base) ShouldLog(l level.Level) bool {
	return int32(l) >= b.level.Load()
}

// Healthy reports whether the last I/O operation succeeded
func (b *base) Healthy() bool {
	return !b.degraded.Load()
}

// LastError returns the most recent I/O error, if any
func (b *base) LastError() error {
	if box := b.lastErr.Load(); box != nil {
		return box.err
	}
	return nil
}

func (b *base) degrade(err error) error {
	b.lastErr.Store(&errBox{err: err})
	b.degraded.Store(true)
	return err
}

func (b *base) heal() {
	if b.degraded.Load() {
		b.degraded.Store(false)
	}
}

var (
	_ Sink           = (*Writer)(nil)
	_ Sink           = (*Memory)(nil)
	_ Sink           = (*Null)(nil)
	_ Sink           = (*RotatingFile)(nil)
	_ Sink           = (*DailyFile)(nil)
	_ HealthReporter = (*RotatingFile)(nil)
	_ HealthReporter = (*DailyFile)(nil)
	_ HealthReporter = (*Writer)(nil)
)
