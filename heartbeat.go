// FILE: lixenwraith/fanlog/heartbeat.go
package log

import (
	"fmt"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/lixenwraith/fanlog/formatter"
)

// heartbeat is the periodic self-report goroutine of one logger
type heartbeat struct {
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// restartHeartbeat replaces the running heartbeat; interval <= 0 leaves none running.
// Caller holds initMu.
func (l *Logger) restartHeartbeat(interval time.Duration) {
	l.stopHeartbeat()
	if interval <= 0 {
		return
	}

	hb := &heartbeat{
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	l.heartbeat = hb
	go l.runHeartbeat(hb)
}

// stopHeartbeat stops the running heartbeat and waits for it to exit. Caller holds initMu.
func (l *Logger) stopHeartbeat() {
	hb := l.heartbeat
	if hb == nil {
		return
	}
	l.heartbeat = nil
	close(hb.stop)
	<-hb.done
}

func (l *Logger) runHeartbeat(hb *heartbeat) {
	defer close(hb.done)

	ticker := time.NewTicker(hb.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.handleHeartbeat()
		case <-hb.stop:
			return
		}
	}
}

// handleHeartbeat emits one notice record with logger, dispatcher and runtime statistics.
// The record bypasses the logger threshold; sink thresholds still apply.
func (l *Logger) handleHeartbeat() {
	if l.state.Closed.Load() {
		return
	}
	l.emit(LevelNotice, formatter.Message(l.heartbeatArgs()...))
}

// heartbeatArgs collects the key/value pairs of a heartbeat record
func (l *Logger) heartbeatArgs() []any {
	sequence := l.state.HeartbeatSequence.Add(1)
	st := l.Stats()

	args := []any{
		"type", "heartbeat",
		"sequence", sequence,
		"uptime_hours", fmt.Sprintf("%.2f", st.Uptime.Hours()),
		"logged", st.Logged,
		"dropped", st.Dropped,
		"sink_errors", st.SinkErrors,
	}

	if st.Async {
		d := st.Dispatcher
		args = append(args,
			"enqueued", d.Enqueued,
			"delivered", d.Delivered,
			"discarded", d.Discarded,
			"queue", fmt.Sprintf("%d/%d", d.QueueLen, d.QueueCap),
			"retries", d.Retries,
		)
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	args = append(args,
		"alloc", humanize.Bytes(memStats.Alloc),
		"sys", humanize.Bytes(memStats.Sys),
		"num_gc", memStats.NumGC,
		"num_goroutine", runtime.NumGoroutine(),
	)
	return args
}
