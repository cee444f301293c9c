// FILE: lixenwraith/fanlog/logger.go
package log

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/go-timecache"

	"github.com/lixenwraith/fanlog/formatter"
	"github.com/lixenwraith/fanlog/internal/logerr"
	"github.com/lixenwraith/fanlog/level"
	"github.com/lixenwraith/fanlog/sink"
)

var laneSeq atomic.Uint32

// Logger filters records by level, formats each once and fans it out to its sinks,
// either directly on the calling goroutine or through a Dispatcher.
type Logger struct {
	name             string
	level            atomic.Int32
	sinks            atomic.Pointer[[]sink.Sink] // Copy-on-write, never mutated in place
	format           atomic.Pointer[formatterRef]
	errorHandler     atomic.Pointer[handlerRef]
	dispatcher       atomic.Pointer[Dispatcher]
	captureGoroutine atomic.Bool
	currentConfig    atomic.Pointer[Config]

	state  loggerState
	initMu sync.Mutex // Serializes mutators and Close

	ownsDispatcher  bool
	customFormatter bool        // Set by SetFormatter, kept until a formatting field changes
	lane            uint32      // Selects the dispatcher worker queue
	ownedSinks      []sink.Sink // Created from Config, closed with the logger
	clock          *timecache.TimeCache
	heartbeat      *heartbeat
}

// NewLogger creates a synchronous logger at info level writing to sinks.
// Sinks passed here are not closed by Close.
func NewLogger(name string, sinks ...sink.Sink) *Logger {
	l := &Logger{name: name, lane: laneSeq.Add(1) - 1}

	cfg := DefaultConfig()
	cfg.Name = name
	cfg.EnableConsole = false
	cfg.FileMode = FileModeNone
	l.currentConfig.Store(cfg)

	l.level.Store(int32(level.Info))
	l.format.Store(&formatterRef{f: cfg.newFormatter()})
	l.storeSinks(append([]sink.Sink(nil), sinks...))
	l.state.StartTime.Store(time.Now())
	return l
}

// NewAsyncLogger creates a logger that owns a dispatcher built from dcfg
func NewAsyncLogger(name string, dcfg DispatcherConfig, sinks ...sink.Sink) (*Logger, error) {
	d, err := NewDispatcher(dcfg)
	if err != nil {
		return nil, err
	}
	l := NewLogger(name, sinks...)
	cfg := l.currentConfig.Load().Clone()
	cfg.Async = true
	cfg.QueueSize = int64(d.cfg.QueueSize)
	cfg.OverflowPolicy = d.cfg.Overflow.String()
	cfg.Workers = int64(d.cfg.Workers)
	cfg.FlushIntervalMs = d.cfg.FlushInterval.Milliseconds()
	l.currentConfig.Store(cfg)

	l.dispatcher.Store(d)
	l.ownsDispatcher = true
	return l, nil
}

// bind attaches a shared dispatcher the logger does not own
func (l *Logger) bind(d *Dispatcher) {
	l.dispatcher.Store(d)
	l.ownsDispatcher = false
	cfg := l.currentConfig.Load().Clone()
	cfg.Async = true
	l.currentConfig.Store(cfg)
}

// Name returns the logger name
func (l *Logger) Name() string {
	return l.name
}

// Level returns the minimum level
func (l *Logger) Level() Level {
	return level.Level(l.level.Load())
}

// SetLevel sets the minimum level; Off silences the logger
func (l *Logger) SetLevel(lvl Level) error {
	if err := level.Check(lvl); err != nil {
		return err
	}

	l.initMu.Lock()
	defer l.initMu.Unlock()
	l.level.Store(int32(lvl))
	l.updateConfig(func(c *Config) { c.Level = lvl.String() })
	return nil
}

// ShouldLog reports whether a record at lvl passes the logger threshold
func (l *Logger) ShouldLog(lvl Level) bool {
	return int32(lvl) >= l.level.Load()
}

// Async reports whether records go through a dispatcher
func (l *Logger) Async() bool {
	return l.dispatcher.Load() != nil
}

// Dispatcher returns the bound dispatcher, nil in sync mode
func (l *Logger) Dispatcher() *Dispatcher {
	return l.dispatcher.Load()
}

// Sinks returns the current sink list
func (l *Logger) Sinks() []sink.Sink {
	p := l.sinks.Load()
	if p == nil {
		return nil
	}
	return append([]sink.Sink(nil), *p...)
}

// AddSink appends s; concurrent log calls see either the old or the new list
func (l *Logger) AddSink(s sink.Sink) {
	if s == nil {
		return
	}
	l.initMu.Lock()
	defer l.initMu.Unlock()
	l.storeSinks(append(l.Sinks(), s))
}

// RemoveSink detaches s without closing it
func (l *Logger) RemoveSink(s sink.Sink) bool {
	l.initMu.Lock()
	defer l.initMu.Unlock()

	current := l.Sinks()
	for i, existing := range current {
		if existing == s {
			l.storeSinks(append(current[:i], current[i+1:]...))
			return true
		}
	}
	return false
}

func (l *Logger) storeSinks(sinks []sink.Sink) {
	l.sinks.Store(&sinks)
}

// SetFormatter replaces the formatter; nil restores the configured template.
// A formatter set here survives ApplyConfig until a formatting field changes.
func (l *Logger) SetFormatter(f formatter.Formatter) {
	l.initMu.Lock()
	defer l.initMu.Unlock()

	l.customFormatter = f != nil
	if f == nil {
		f = l.currentConfig.Load().newFormatter()
	}
	l.format.Store(&formatterRef{f: f})
}

// SetErrorHandler sets the receiver of sink errors; nil restores stderr reporting
func (l *Logger) SetErrorHandler(fn ErrorHandler) {
	l.errorHandler.Store(&handlerRef{fn: fn})
}

// CaptureGoroutine toggles recording the calling goroutine id on each record
func (l *Logger) CaptureGoroutine(enable bool) {
	l.initMu.Lock()
	defer l.initMu.Unlock()
	l.captureGoroutine.Store(enable)
	l.updateConfig(func(c *Config) { c.CaptureGoroutine = enable })
}

// updateConfig stores a modified copy of the current config; caller holds initMu
func (l *Logger) updateConfig(fn func(c *Config)) {
	cfg := l.currentConfig.Load().Clone()
	fn(cfg)
	l.currentConfig.Store(cfg)
}

// GetConfig returns a copy of the current configuration
func (l *Logger) GetConfig() *Config {
	return l.currentConfig.Load().Clone()
}

// ApplyConfig updates the runtime-mutable fields: level, formatting, goroutine capture,
// heartbeat interval and internal error reporting. Any change to sink or dispatcher
// fields returns ErrModeLocked and leaves the logger untouched.
func (l *Logger) ApplyConfig(cfg *Config) error {
	if cfg == nil {
		return fmtErrorf("configuration cannot be nil")
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	l.initMu.Lock()
	defer l.initMu.Unlock()

	if l.state.Closed.Load() {
		return logerr.Closed("apply config")
	}
	if configRequiresRebuild(l.currentConfig.Load(), cfg) {
		return ErrModeLocked
	}
	return l.applyConfig(cfg.Clone())
}

// applyConfig installs cfg, assuming initMu is held and cfg is validated
func (l *Logger) applyConfig(cfg *Config) error {
	lvl, err := level.Parse(cfg.Level)
	if err != nil {
		return err
	}

	old := l.currentConfig.Load()
	l.currentConfig.Store(cfg)
	l.level.Store(int32(lvl))
	if !l.customFormatter || old == nil || formattingChanged(old, cfg) {
		l.customFormatter = false
		l.format.Store(&formatterRef{f: cfg.newFormatter()})
	}
	l.captureGoroutine.Store(cfg.CaptureGoroutine)

	if old == nil || old.HeartbeatIntervalS != cfg.HeartbeatIntervalS || l.heartbeat == nil {
		l.restartHeartbeat(time.Duration(cfg.HeartbeatIntervalS) * time.Second)
	}
	return nil
}

// Flush writes out everything logged so far.
// In async mode an ordered marker is queued behind pending records.
func (l *Logger) Flush(timeout time.Duration) error {
	if l.state.Closed.Load() {
		return logerr.Closed("flush")
	}
	sinks := l.Sinks()
	if d := l.dispatcher.Load(); d != nil {
		return d.flushSinks(l, sinks, timeout)
	}

	done := make(chan error, 1)
	go func() {
		var finalErr error
		for _, s := range sinks {
			finalErr = combineErrors(finalErr, flushSink(s))
		}
		done <- finalErr
	}()

	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	timer := time.NewTimer(timeout)
	defer stopTimer(timer)
	select {
	case err := <-done:
		return err
	case <-timer.C:
		return timeoutErrorf("flush", "timeout waiting for sink flush (%v)", timeout)
	}
}

// Close stops the heartbeat, drains an owned dispatcher (or flushes through a shared one),
// flushes every sink and closes the sinks this logger created. Later log calls are no-ops.
func (l *Logger) Close(timeout ...time.Duration) error {
	l.initMu.Lock()
	defer l.initMu.Unlock()

	if !l.state.Closed.CompareAndSwap(false, true) {
		return nil
	}
	l.stopHeartbeat()

	effectiveTimeout := time.Duration(l.currentConfig.Load().ShutdownTimeoutMs) * time.Millisecond
	if len(timeout) > 0 && timeout[0] > 0 {
		effectiveTimeout = timeout[0]
	}

	var finalErr error
	sinks := l.Sinks()
	if d := l.dispatcher.Load(); d != nil {
		if l.ownsDispatcher {
			finalErr = combineErrors(finalErr, d.Shutdown(effectiveTimeout))
		} else if !d.Closed() {
			finalErr = combineErrors(finalErr, d.flushSinks(l, sinks, effectiveTimeout))
		}
	}

	for _, s := range sinks {
		if err := flushSink(s); err != nil && !logerr.IsKind(err, logerr.KindClosed) {
			finalErr = combineErrors(finalErr, err)
		}
	}
	for _, s := range l.ownedSinks {
		if err := s.Close(); err != nil {
			finalErr = combineErrors(finalErr, err)
		}
	}
	if l.clock != nil {
		l.clock.Stop()
	}
	return finalErr
}

// Stats returns a snapshot of logger and dispatcher counters
func (l *Logger) Stats() Stats {
	st := Stats{
		Name:       l.name,
		Level:      l.Level(),
		Sinks:      len(l.Sinks()),
		Logged:     l.state.Logged.Load(),
		Dropped:    l.state.Dropped.Load(),
		SinkErrors: l.state.SinkErrors.Load(),
	}
	if start, ok := l.state.StartTime.Load().(time.Time); ok {
		st.Uptime = time.Since(start)
	}
	if d := l.dispatcher.Load(); d != nil {
		st.Async = true
		st.Dispatcher = d.Stats()
	}
	return st
}

// now returns the record timestamp source
func (l *Logger) now() time.Time {
	if l.clock != nil {
		return l.clock.CachedTime()
	}
	return time.Now()
}
