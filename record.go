// FILE: lixenwraith/fanlog/record.go
package log

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/lixenwraith/fanlog/formatter"
	"github.com/lixenwraith/fanlog/level"
)

var recordPool = sync.Pool{
	New: func() any {
		return &formatter.Record{Formatted: make([]byte, 0, 256)}
	},
}

// acquireRecord returns a reset record from the pool
func acquireRecord() *formatter.Record {
	return recordPool.Get().(*formatter.Record)
}

// releaseRecord returns r to the pool unless its buffer grew too large
func releaseRecord(r *formatter.Record) {
	if r == nil || cap(r.Formatted) > maxPooledBuffer {
		return
	}
	r.Reset()
	recordPool.Put(r)
}

// emit builds, formats and delivers a record that already passed the level filter
func (l *Logger) emit(lvl level.Level, msg string) {
	if l.state.Closed.Load() {
		return
	}
	sinksPtr := l.sinks.Load()
	if sinksPtr == nil || len(*sinksPtr) == 0 {
		return
	}
	sinks := *sinksPtr

	rec := acquireRecord()
	rec.Time = l.now()
	rec.Level = lvl
	rec.LoggerName = l.name
	rec.Message = msg
	if l.captureGoroutine.Load() {
		rec.GoroutineID = goroutineID()
	}
	rec.Formatted = l.format.Load().f.Format(rec.Formatted[:0], rec)
	l.state.Logged.Add(1)

	if d := l.dispatcher.Load(); d != nil {
		accepted, err := d.enqueue(message{rec: rec, owner: l, sinks: sinks})
		if !accepted {
			l.state.Dropped.Add(1)
			releaseRecord(rec)
		}
		if err != nil {
			l.internalLog("record dropped: %v\n", err)
		}
		return
	}

	for _, s := range sinks {
		if !s.ShouldLog(lvl) {
			continue
		}
		if err := writeSink(s, rec); err != nil {
			l.handleSinkError(err)
		}
	}
	releaseRecord(rec)
}

// handleSinkError counts err and passes it to the error handler, or stderr when none is set
func (l *Logger) handleSinkError(err error) {
	l.state.SinkErrors.Add(1)
	if h := l.errorHandler.Load(); h != nil && h.fn != nil {
		if perr := safeCall(func() { h.fn(err) }); perr != nil {
			l.internalLog("error handler failed: %v\n", perr)
		}
		return
	}
	l.internalLog("sink error: %v\n", err)
}

// internalLog handles writing internal logger diagnostics to stderr, if enabled
func (l *Logger) internalLog(format string, args ...any) {
	cfg := l.currentConfig.Load()
	if cfg == nil || !cfg.InternalErrorsToStderr {
		return
	}

	// Ensure consistent "log: " prefix
	if !strings.HasPrefix(format, "log: ") {
		format = "log: " + format
	}

	fmt.Fprintf(os.Stderr, format, args...)
}
