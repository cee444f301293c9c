// FILE: lixenwraith/fanlog/timer.go
package log

import (
	"time"

	"github.com/jpillora/backoff"
)

// workerTimers holds the timers used by a dispatcher worker
type workerTimers struct {
	flushTicker *time.Ticker
	flushChan   <-chan time.Time // nil when periodic flush is disabled
}

// setupWorkerTimers creates the flush ticker when an interval is configured
func (d *Dispatcher) setupWorkerTimers() *workerTimers {
	timers := &workerTimers{}
	if d.cfg.FlushInterval > 0 {
		timers.flushTicker = time.NewTicker(d.cfg.FlushInterval)
		timers.flushChan = timers.flushTicker.C
	}
	return timers
}

// closeWorkerTimers stops all active timers
func (d *Dispatcher) closeWorkerTimers(timers *workerTimers) {
	if timers.flushTicker != nil {
		timers.flushTicker.Stop()
	}
}

// newRetryBackoff returns the re-check cadence for a producer blocked on a full queue
func (d *Dispatcher) newRetryBackoff() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    d.cfg.RetryMin,
		Max:    d.cfg.RetryMax,
		Factor: 2,
		Jitter: true,
	}
}

// stopTimer stops t and drains a pending fire
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
