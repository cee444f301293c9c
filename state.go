// FILE: lixenwraith/fanlog/state.go
package log

import (
	"sync/atomic"
	"time"
)

// dispatcherState holds the dispatcher counters
type dispatcherState struct {
	Enqueued   atomic.Uint64 // Records accepted into the queue
	Delivered  atomic.Uint64 // Records handed to their sinks
	Discarded  atomic.Uint64 // Records dropped by policy or left over at shutdown
	Flushes    atomic.Uint64 // Sink flush calls made by workers
	SinkErrors atomic.Uint64 // Sink write/flush failures seen by workers
	Retries    atomic.Uint64 // Backoff re-checks made by blocked producers
	Workers    atomic.Int32  // Workers currently running
}

// DispatcherStats is a point-in-time copy of dispatcher counters
type DispatcherStats struct {
	Enqueued   uint64
	Delivered  uint64
	Discarded  uint64
	Flushes    uint64
	SinkErrors uint64
	Retries    uint64
	QueueLen   int
	QueueCap   int
	Workers    int
}

// loggerState holds logger-level counters and lifecycle flags
type loggerState struct {
	Closed            atomic.Bool
	Logged            atomic.Uint64 // Records that passed the level filter
	Dropped           atomic.Uint64 // Records the dispatcher refused
	SinkErrors        atomic.Uint64 // Sink failures in sync mode, plus those reported by workers
	HeartbeatSequence atomic.Uint64
	StartTime         atomic.Value // time.Time
}

// Stats is a point-in-time copy of logger counters.
// Dispatcher is the zero value in sync mode.
type Stats struct {
	Name       string
	Level      Level
	Async      bool
	Sinks      int
	Logged     uint64
	Dropped    uint64
	SinkErrors uint64
	Uptime     time.Duration
	Dispatcher DispatcherStats
}
