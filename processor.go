// FILE: lixenwraith/fanlog/processor.go
package log

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/fanlog/formatter"
	"github.com/lixenwraith/fanlog/internal/logerr"
	"github.com/lixenwraith/fanlog/sink"
)

// DispatcherConfig configures asynchronous delivery
type DispatcherConfig struct {
	QueueSize       int            // Capacity of each worker queue, > 0
	Overflow        OverflowPolicy // Full-queue behavior
	Workers         int            // Worker goroutines, each with its own queue; default 1
	FlushInterval   time.Duration  // Periodic flush of written sinks, 0 disables
	RetryMin        time.Duration  // First re-check delay for a blocked producer
	RetryMax        time.Duration  // Re-check delay cap
	ShutdownTimeout time.Duration  // Default drain grace for Shutdown
	Warmup          func()         // Run once by each worker before it starts dequeuing
	ErrorHandler    ErrorHandler   // Receives flush errors and errors with no owning logger
}

// DefaultDispatcherConfig returns a single-worker blocking configuration
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		QueueSize:       defaultQueueSize,
		Overflow:        BlockRetry,
		Workers:         1,
		RetryMin:        defaultRetryMin,
		RetryMax:        defaultRetryMax,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// Dispatcher moves records from producers to sinks through bounded queues.
// It may be shared by several loggers; each record carries its own sink snapshot.
// Every logger is pinned to one worker queue, so its records reach sinks in enqueue order.
type Dispatcher struct {
	cfg    DispatcherConfig
	queues []chan message
	state  dispatcherState

	mu      sync.RWMutex // Read-held by producers in flight, write-held to close the queue
	closed  bool
	closing chan struct{} // Closed first on shutdown, wakes blocked producers
	stop    chan struct{} // Closed when the drain grace expires

	started        atomic.Bool
	shutdownCalled atomic.Bool
	wg             sync.WaitGroup
}

// NewDispatcher validates cfg and starts the workers
func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	d, err := newDispatcher(cfg)
	if err != nil {
		return nil, err
	}
	d.start()
	return d, nil
}

// newDispatcher builds a dispatcher without starting workers
func newDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	if cfg.QueueSize <= 0 {
		return nil, logerr.Configf("dispatcher", "queue size must be positive: %d", cfg.QueueSize)
	}
	if cfg.Overflow != BlockRetry && cfg.Overflow != DiscardLogMsg {
		return nil, logerr.Configf("dispatcher", "invalid overflow policy: %d", int(cfg.Overflow))
	}
	if cfg.Workers < 0 {
		return nil, logerr.Configf("dispatcher", "workers cannot be negative: %d", cfg.Workers)
	}
	if cfg.FlushInterval < 0 {
		return nil, logerr.Configf("dispatcher", "flush interval cannot be negative: %v", cfg.FlushInterval)
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.RetryMin <= 0 {
		cfg.RetryMin = defaultRetryMin
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = defaultRetryMax
	}
	if cfg.RetryMax < cfg.RetryMin {
		cfg.RetryMax = cfg.RetryMin
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	d := &Dispatcher{
		cfg:     cfg,
		queues:  make([]chan message, cfg.Workers),
		closing: make(chan struct{}),
		stop:    make(chan struct{}),
	}
	for i := range d.queues {
		d.queues[i] = make(chan message, cfg.QueueSize)
	}
	return d, nil
}

// start launches the workers once
func (d *Dispatcher) start() {
	if !d.started.CompareAndSwap(false, true) {
		return
	}
	d.wg.Add(len(d.queues))
	for _, q := range d.queues {
		go d.processMessages(q)
	}
}

// queueFor returns the worker queue a logger is pinned to.
// Records without an owning logger all use the first queue.
func (d *Dispatcher) queueFor(owner *Logger) chan message {
	if owner == nil || len(d.queues) == 1 {
		return d.queues[0]
	}
	return d.queues[owner.lane%uint32(len(d.queues))]
}

// Enqueue copies rec and queues it for sinks.
// Under DiscardLogMsg a full queue drops the record without error.
// After Shutdown it returns an error matching ErrClosed.
func (d *Dispatcher) Enqueue(rec *formatter.Record, sinks []sink.Sink) error {
	r := acquireRecord()
	r.Time = rec.Time
	r.Level = rec.Level
	r.LoggerName = rec.LoggerName
	r.Message = rec.Message
	r.GoroutineID = rec.GoroutineID
	r.Formatted = append(r.Formatted, rec.Formatted...)

	accepted, err := d.enqueue(message{rec: r, sinks: sinks})
	if !accepted {
		releaseRecord(r)
	}
	return err
}

// enqueue tries a non-blocking send, then applies the overflow policy
func (d *Dispatcher) enqueue(m message) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return false, logerr.Closed("enqueue")
	}

	queue := d.queueFor(m.owner)
	select {
	case queue <- m:
		d.state.Enqueued.Add(1)
		return true, nil
	default:
	}

	if d.cfg.Overflow == DiscardLogMsg {
		d.state.Discarded.Add(1)
		return false, nil
	}
	return d.sendBlocking(queue, m, nil)
}

// sendBlocking waits for space in queue, re-checking on a jittered backoff.
// Caller holds mu for reading.
func (d *Dispatcher) sendBlocking(queue chan message, m message, deadline <-chan time.Time) (bool, error) {
	b := d.newRetryBackoff()
	retry := time.NewTimer(b.Duration())
	defer stopTimer(retry)

	for {
		select {
		case queue <- m:
			if m.rec != nil {
				d.state.Enqueued.Add(1)
			}
			return true, nil
		case <-d.closing:
			return false, logerr.Closed("enqueue")
		case <-deadline:
			return false, timeoutErrorf("enqueue", "timed out waiting for queue space")
		case <-retry.C:
			d.state.Retries.Add(1)
			retry.Reset(b.Duration())
		}
	}
}

// Flush flushes every sink the workers have written to and waits for completion
func (d *Dispatcher) Flush(timeout time.Duration) error {
	return d.flushSinks(nil, nil, timeout)
}

// flushSinks queues an ordered flush marker on every worker queue and waits for all of them.
// Records enqueued before the markers are written before they are serviced.
// sinks are flushed only by the worker owner is pinned to.
func (d *Dispatcher) flushSinks(owner *Logger, sinks []sink.Sink, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = d.cfg.ShutdownTimeout
	}
	deadline := time.NewTimer(timeout)
	defer stopTimer(deadline)

	done := make(chan error, len(d.queues))
	ownerQueue := d.queueFor(owner)

	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return logerr.Closed("flush")
	}
	sent := 0
	var sendErr error
	for _, q := range d.queues {
		m := message{done: done}
		if q == ownerQueue {
			m.sinks = sinks
		}
		if _, sendErr = d.sendBlocking(q, m, deadline.C); sendErr != nil {
			break
		}
		sent++
	}
	d.mu.RUnlock()
	if sendErr != nil {
		return sendErr
	}

	var finalErr error
	for i := 0; i < sent; i++ {
		select {
		case err := <-done:
			finalErr = combineErrors(finalErr, err)
		case <-deadline.C:
			return timeoutErrorf("flush", "timeout waiting for flush confirmation (%v)", timeout)
		}
	}
	return finalErr
}

// Shutdown refuses new records, waits for in-flight producers, then lets workers
// drain until the grace deadline. Records still queued after that are counted as discarded.
// Calling Shutdown again is a no-op.
func (d *Dispatcher) Shutdown(timeout ...time.Duration) error {
	if !d.shutdownCalled.CompareAndSwap(false, true) {
		return nil
	}

	effectiveTimeout := d.cfg.ShutdownTimeout
	if len(timeout) > 0 && timeout[0] > 0 {
		effectiveTimeout = timeout[0]
	}

	close(d.closing)
	d.mu.Lock()
	d.closed = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()

	workersDone := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(workersDone)
	}()

	var finalErr error
	deadline := time.NewTimer(effectiveTimeout)
	defer stopTimer(deadline)

	select {
	case <-workersDone:
	case <-deadline.C:
		close(d.stop)
		grace := time.NewTimer(10 * minWaitTime)
		select {
		case <-workersDone:
		case <-grace.C:
			finalErr = timeoutErrorf("shutdown", "dispatcher workers did not exit within timeout (%v)", effectiveTimeout)
		}
		stopTimer(grace)
	}

	for _, q := range d.queues {
		for m := range q {
			d.discard(m)
		}
	}
	return finalErr
}

// Closed reports whether Shutdown has been called
func (d *Dispatcher) Closed() bool {
	return d.shutdownCalled.Load()
}

// Stats returns a snapshot of the counters
func (d *Dispatcher) Stats() DispatcherStats {
	var queueLen, queueCap int
	for _, q := range d.queues {
		queueLen += len(q)
		queueCap += cap(q)
	}
	return DispatcherStats{
		Enqueued:   d.state.Enqueued.Load(),
		Delivered:  d.state.Delivered.Load(),
		Discarded:  d.state.Discarded.Load(),
		Flushes:    d.state.Flushes.Load(),
		SinkErrors: d.state.SinkErrors.Load(),
		Retries:    d.state.Retries.Load(),
		QueueLen:   queueLen,
		QueueCap:   queueCap,
		Workers:    int(d.state.Workers.Load()),
	}
}

// processMessages is the worker loop for one queue
func (d *Dispatcher) processMessages(queue <-chan message) {
	defer d.wg.Done()
	d.state.Workers.Add(1)
	defer d.state.Workers.Add(-1)

	if d.cfg.Warmup != nil {
		if err := safeCall(d.cfg.Warmup); err != nil {
			d.reportError(err)
		}
	}

	timers := d.setupWorkerTimers()
	defer d.closeWorkerTimers(timers)

	// Sinks written since their last flush
	touched := make(map[sink.Sink]struct{})

	for {
		select {
		case m, ok := <-queue:
			if !ok {
				d.flushTouched(touched)
				return
			}
			d.handleMessage(m, touched)

		case <-timers.flushChan:
			d.flushTouched(touched)

		case <-d.stop:
			d.flushTouched(touched)
			return
		}
	}
}

// handleMessage writes a record to its sinks or services a flush marker
func (d *Dispatcher) handleMessage(m message, touched map[sink.Sink]struct{}) {
	if m.rec == nil {
		for _, s := range m.sinks {
			touched[s] = struct{}{}
		}
		m.done <- d.flushTouched(touched)
		return
	}

	for _, s := range m.sinks {
		if !s.ShouldLog(m.rec.Level) {
			continue
		}
		if err := writeSink(s, m.rec); err != nil {
			d.state.SinkErrors.Add(1)
			if m.owner != nil {
				m.owner.handleSinkError(err)
			} else {
				d.reportError(err)
			}
		}
		touched[s] = struct{}{}
	}
	d.state.Delivered.Add(1)
	releaseRecord(m.rec)
}

// flushTouched flushes and forgets every touched sink, returning the combined error
func (d *Dispatcher) flushTouched(touched map[sink.Sink]struct{}) error {
	var finalErr error
	for s := range touched {
		d.state.Flushes.Add(1)
		if err := flushSink(s); err != nil {
			d.state.SinkErrors.Add(1)
			d.reportError(err)
			finalErr = combineErrors(finalErr, err)
		}
		delete(touched, s)
	}
	return finalErr
}

// discard accounts for a message that will never be delivered
func (d *Dispatcher) discard(m message) {
	if m.rec == nil {
		m.done <- logerr.Closed("flush")
		return
	}
	d.state.Discarded.Add(1)
	releaseRecord(m.rec)
}

func (d *Dispatcher) reportError(err error) {
	if d.cfg.ErrorHandler != nil {
		d.cfg.ErrorHandler(err)
	}
}
