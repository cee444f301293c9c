// FILE: lixenwraith/fanlog/processor_test.go
package log

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/fanlog/formatter"
	"github.com/lixenwraith/fanlog/internal/logerr"
	"github.com/lixenwraith/fanlog/level"
	"github.com/lixenwraith/fanlog/sink"
)

func testRecord(msg string) *formatter.Record {
	return &formatter.Record{
		Time:      time.Now(),
		Level:     level.Info,
		Message:   msg,
		Formatted: []byte(msg + "\n"),
	}
}

// gateSink blocks every write until the gate is closed
type gateSink struct {
	*sink.Memory
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{Memory: sink.NewMemory(), gate: make(chan struct{})}
}

func (s *gateSink) Write(r *formatter.Record) error {
	<-s.gate
	return s.Memory.Write(r)
}

// slowSink sleeps on every write
type slowSink struct {
	*sink.Memory
	delay time.Duration
}

func (s *slowSink) Write(r *formatter.Record) error {
	time.Sleep(s.delay)
	return s.Memory.Write(r)
}

func testDispatcherConfig(queueSize int, policy OverflowPolicy) DispatcherConfig {
	cfg := DefaultDispatcherConfig()
	cfg.QueueSize = queueSize
	cfg.Overflow = policy
	return cfg
}

// TestDispatcherConfigValidation checks constructor errors are config-kind
func TestDispatcherConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DispatcherConfig)
	}{
		{"zero queue", func(c *DispatcherConfig) { c.QueueSize = 0 }},
		{"negative queue", func(c *DispatcherConfig) { c.QueueSize = -5 }},
		{"bad policy", func(c *DispatcherConfig) { c.Overflow = OverflowPolicy(7) }},
		{"negative workers", func(c *DispatcherConfig) { c.Workers = -1 }},
		{"negative flush interval", func(c *DispatcherConfig) { c.FlushInterval = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultDispatcherConfig()
			tt.mutate(&cfg)
			d, err := NewDispatcher(cfg)
			assert.Nil(t, d)
			assert.True(t, logerr.IsKind(err, logerr.KindConfig))
		})
	}
}

// TestDispatcherDeliveryOrder verifies FIFO delivery with one worker
func TestDispatcherDeliveryOrder(t *testing.T) {
	d, err := NewDispatcher(testDispatcherConfig(16, BlockRetry))
	require.NoError(t, err)
	defer d.Shutdown()

	mem := sink.NewMemory()
	var want []string
	for i := 0; i < 200; i++ {
		msg := fmt.Sprintf("m%03d", i)
		want = append(want, msg)
		require.NoError(t, d.Enqueue(testRecord(msg), []sink.Sink{mem}))
	}
	require.NoError(t, d.Flush(time.Second))

	assert.Equal(t, want, mem.Messages())
	st := d.Stats()
	assert.Equal(t, uint64(200), st.Enqueued)
	assert.Equal(t, uint64(200), st.Delivered)
	assert.Zero(t, st.Discarded)
	assert.Equal(t, 16, st.QueueCap)
}

// TestBlockRetryBlocksWhenFull checks the C+1th enqueue waits for a worker
func TestBlockRetryBlocksWhenFull(t *testing.T) {
	const capacity = 4
	d, err := newDispatcher(testDispatcherConfig(capacity, BlockRetry))
	require.NoError(t, err)
	defer d.Shutdown()

	mem := sink.NewMemory()
	for i := 0; i < capacity; i++ {
		require.NoError(t, d.Enqueue(testRecord("fill"), []sink.Sink{mem}))
	}

	done := make(chan error, 1)
	go func() {
		done <- d.Enqueue(testRecord("extra"), []sink.Sink{mem})
	}()

	select {
	case <-done:
		t.Fatal("enqueue into a full queue returned before space was available")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Greater(t, d.Stats().Retries, uint64(0))

	d.start()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked producer was not released")
	}

	require.NoError(t, d.Flush(time.Second))
	assert.Equal(t, capacity+1, mem.Len())
	assert.Zero(t, d.Stats().Discarded)
}

// TestDiscardNeverBlocks checks the discard policy drops instead of waiting
func TestDiscardNeverBlocks(t *testing.T) {
	const capacity = 4
	const attempts = 10
	d, err := newDispatcher(testDispatcherConfig(capacity, DiscardLogMsg))
	require.NoError(t, err)
	defer d.Shutdown()

	mem := sink.NewMemory()
	start := time.Now()
	for i := 0; i < attempts; i++ {
		require.NoError(t, d.Enqueue(testRecord("r"), []sink.Sink{mem}))
	}
	assert.Less(t, time.Since(start), time.Second)

	st := d.Stats()
	assert.Equal(t, uint64(capacity), st.Enqueued)
	assert.Equal(t, uint64(attempts-capacity), st.Discarded)
	assert.Equal(t, capacity, st.QueueLen)

	d.start()
	require.NoError(t, d.Flush(time.Second))
	assert.LessOrEqual(t, mem.Len(), attempts)
	assert.Equal(t, capacity, mem.Len())
}

// TestShutdownDrainsQueue checks pending records are delivered and later enqueues fail
func TestShutdownDrainsQueue(t *testing.T) {
	d, err := NewDispatcher(testDispatcherConfig(256, BlockRetry))
	require.NoError(t, err)

	mem := sink.NewMemory()
	for i := 0; i < 100; i++ {
		require.NoError(t, d.Enqueue(testRecord("pending"), []sink.Sink{mem}))
	}
	require.NoError(t, d.Shutdown(time.Second))

	assert.Equal(t, 100, mem.Len())
	assert.Greater(t, mem.Flushes(), uint64(0))
	assert.True(t, d.Closed())

	err = d.Enqueue(testRecord("late"), []sink.Sink{mem})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, d.Flush(time.Second), ErrClosed)
	assert.NoError(t, d.Shutdown())
	assert.Equal(t, 0, d.Stats().Workers)
}

// TestShutdownReleasesBlockedProducer checks shutdown wakes a producer waiting on a full queue
func TestShutdownReleasesBlockedProducer(t *testing.T) {
	const capacity = 2
	d, err := newDispatcher(testDispatcherConfig(capacity, BlockRetry))
	require.NoError(t, err)

	mem := sink.NewMemory()
	for i := 0; i < capacity; i++ {
		require.NoError(t, d.Enqueue(testRecord("fill"), []sink.Sink{mem}))
	}

	done := make(chan error, 1)
	go func() {
		done <- d.Enqueue(testRecord("blocked"), []sink.Sink{mem})
	}()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, d.Shutdown(100*time.Millisecond))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("producer still blocked after shutdown")
	}

	// Never started, so the queued records are leftovers
	assert.Equal(t, uint64(capacity), d.Stats().Discarded)
	assert.Equal(t, 0, mem.Len())
}

// TestShutdownTimeout checks a stuck sink makes Shutdown report a deadline error
func TestShutdownTimeout(t *testing.T) {
	d, err := NewDispatcher(testDispatcherConfig(16, BlockRetry))
	require.NoError(t, err)

	slow := &slowSink{Memory: sink.NewMemory(), delay: 400 * time.Millisecond}
	for i := 0; i < 5; i++ {
		require.NoError(t, d.Enqueue(testRecord("slow"), []sink.Sink{slow}))
	}

	err = d.Shutdown(20 * time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, logerr.IsKind(err, logerr.KindIO))

	st := d.Stats()
	assert.Less(t, st.Delivered, uint64(5))
	assert.Greater(t, st.Discarded, uint64(0))
}

// TestFlushMarkerOrdering checks records queued before a flush are written before it returns
func TestFlushMarkerOrdering(t *testing.T) {
	d, err := NewDispatcher(testDispatcherConfig(1024, BlockRetry))
	require.NoError(t, err)
	defer d.Shutdown()

	slow := &slowSink{Memory: sink.NewMemory(), delay: time.Millisecond}
	for i := 0; i < 50; i++ {
		require.NoError(t, d.Enqueue(testRecord("ordered"), []sink.Sink{slow}))
	}
	require.NoError(t, d.Flush(5*time.Second))

	assert.Equal(t, 50, slow.Len())
	assert.Equal(t, uint64(1), slow.Flushes())
}

// TestFlushTimeout checks Flush gives up when the worker is stuck
func TestFlushTimeout(t *testing.T) {
	d, err := NewDispatcher(testDispatcherConfig(4, BlockRetry))
	require.NoError(t, err)

	gate := newGateSink()
	require.NoError(t, d.Enqueue(testRecord("stuck"), []sink.Sink{gate}))

	err = d.Flush(30 * time.Millisecond)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	close(gate.gate)
	require.NoError(t, d.Shutdown(time.Second))
	assert.Equal(t, 1, gate.Len())
}

// TestPeriodicFlush checks the worker flushes written sinks on the ticker
func TestPeriodicFlush(t *testing.T) {
	cfg := testDispatcherConfig(16, BlockRetry)
	cfg.FlushInterval = 10 * time.Millisecond
	d, err := NewDispatcher(cfg)
	require.NoError(t, err)
	defer d.Shutdown()

	mem := sink.NewMemory()
	idle := sink.NewMemory()
	require.NoError(t, d.Enqueue(testRecord("tick"), []sink.Sink{mem}))

	assert.Eventually(t, func() bool { return mem.Flushes() > 0 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, idle.Flushes())
}

// TestWarmupRunsPerWorker checks the warmup callback runs once per worker
func TestWarmupRunsPerWorker(t *testing.T) {
	var calls atomic.Int32
	cfg := testDispatcherConfig(16, BlockRetry)
	cfg.Workers = 3
	cfg.Warmup = func() { calls.Add(1) }

	d, err := NewDispatcher(cfg)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return calls.Load() == 3 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return d.Stats().Workers == 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, d.Shutdown())
	assert.Equal(t, int32(3), calls.Load())
}

// TestWarmupPanicReported checks a panicking warmup reaches the error handler and the worker survives
func TestWarmupPanicReported(t *testing.T) {
	errCh := make(chan error, 1)
	cfg := testDispatcherConfig(16, BlockRetry)
	cfg.Warmup = func() { panic("warmup failed") }
	cfg.ErrorHandler = func(err error) {
		select {
		case errCh <- err:
		default:
		}
	}

	d, err := NewDispatcher(cfg)
	require.NoError(t, err)
	defer d.Shutdown()

	select {
	case err := <-errCh:
		assert.Contains(t, err.Error(), "warmup failed")
	case <-time.After(time.Second):
		t.Fatal("warmup panic not reported")
	}

	mem := sink.NewMemory()
	require.NoError(t, d.Enqueue(testRecord("alive"), []sink.Sink{mem}))
	require.NoError(t, d.Flush(time.Second))
	assert.Equal(t, 1, mem.Len())
}

// TestDispatcherSinkErrorWithoutOwner checks orphan record errors go to the dispatcher handler
func TestDispatcherSinkErrorWithoutOwner(t *testing.T) {
	var mu sync.Mutex
	var got []error
	cfg := testDispatcherConfig(16, BlockRetry)
	cfg.ErrorHandler = func(err error) {
		mu.Lock()
		got = append(got, err)
		mu.Unlock()
	}
	d, err := NewDispatcher(cfg)
	require.NoError(t, err)
	defer d.Shutdown()

	bad := newFailingSink(false)
	mem := sink.NewMemory()
	require.NoError(t, d.Enqueue(testRecord("x"), []sink.Sink{bad, mem}))
	require.NoError(t, d.Flush(time.Second))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Error(), "disk on fire")
	assert.Equal(t, 1, mem.Len())
	assert.Equal(t, uint64(1), d.Stats().SinkErrors)
}

// TestConcurrentProducers checks no record is lost under block_retry with many producers
func TestConcurrentProducers(t *testing.T) {
	const producers = 8
	const perProducer = 500

	d, err := NewDispatcher(testDispatcherConfig(16, BlockRetry))
	require.NoError(t, err)

	null := sink.NewNull()
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				assert.NoError(t, d.Enqueue(testRecord("load"), []sink.Sink{null}))
			}
		}()
	}
	wg.Wait()
	require.NoError(t, d.Shutdown(5*time.Second))

	st := d.Stats()
	assert.Equal(t, uint64(producers*perProducer), st.Enqueued)
	assert.Equal(t, uint64(producers*perProducer), st.Delivered)
	assert.Equal(t, uint64(producers*perProducer), null.Writes())
}

// TestAsyncLoggerEndToEnd runs the trace/info scenario through a dispatcher
func TestAsyncLoggerEndToEnd(t *testing.T) {
	mem := sink.NewMemory()
	logger, err := NewAsyncLogger("async", testDispatcherConfig(64, BlockRetry), mem)
	require.NoError(t, err)

	assert.True(t, logger.Async())
	logger.Trace("x")
	logger.Info("y")
	require.NoError(t, logger.Flush(time.Second))
	assert.Equal(t, []string{"y"}, mem.Messages())

	require.NoError(t, logger.Close())
	assert.True(t, logger.Dispatcher().Closed())

	logger.Info("after close")
	assert.Equal(t, []string{"y"}, mem.Messages())
}

// TestAsyncLoggerDropCounting checks refused records are counted on logger and dispatcher
func TestAsyncLoggerDropCounting(t *testing.T) {
	gate := newGateSink()
	logger, err := NewAsyncLogger("drops", testDispatcherConfig(2, DiscardLogMsg), gate)
	require.NoError(t, err)

	logger.Info("first")
	// Wait until the worker holds the first record inside the gated sink
	assert.Eventually(t, func() bool { return logger.Dispatcher().Stats().QueueLen == 0 }, time.Second, time.Millisecond)

	for i := 0; i < 10; i++ {
		logger.Info("burst")
	}

	st := logger.Stats()
	assert.Equal(t, uint64(11), st.Logged)
	assert.Equal(t, uint64(8), st.Dropped)
	assert.Equal(t, uint64(8), st.Dispatcher.Discarded)

	close(gate.gate)
	require.NoError(t, logger.Close(time.Second))
	assert.Equal(t, 3, gate.Len())
}

// TestAsyncLoggerSinkErrors checks worker-side sink errors reach the owning logger's handler
func TestAsyncLoggerSinkErrors(t *testing.T) {
	errCh := make(chan error, 4)
	bad := newFailingSink(true)
	logger, err := NewAsyncLogger("errs", testDispatcherConfig(16, BlockRetry), bad)
	require.NoError(t, err)
	logger.SetErrorHandler(func(err error) { errCh <- err })

	logger.Error("boom")
	require.NoError(t, logger.Close())

	select {
	case err := <-errCh:
		assert.Contains(t, err.Error(), "sink panicked")
	default:
		t.Fatal("sink error not reported")
	}
	assert.Equal(t, uint64(1), logger.Stats().SinkErrors)
}

// firstSlowSink delays only its first write
type firstSlowSink struct {
	*sink.Memory
	delay time.Duration
	slept atomic.Bool
}

func (s *firstSlowSink) Write(r *formatter.Record) error {
	if s.slept.CompareAndSwap(false, true) {
		time.Sleep(s.delay)
	}
	return s.Memory.Write(r)
}

// TestMultiWorkerLoggerOrder checks a logger's records keep their order with several workers
func TestMultiWorkerLoggerOrder(t *testing.T) {
	cfg := testDispatcherConfig(64, BlockRetry)
	cfg.Workers = 2

	mem := &firstSlowSink{Memory: sink.NewMemory(), delay: 100 * time.Millisecond}
	logger, err := NewAsyncLogger("ordered", cfg, mem)
	require.NoError(t, err)

	logger.Info("a")
	time.Sleep(10 * time.Millisecond)
	logger.Info("b")
	require.NoError(t, logger.Close(2*time.Second))

	assert.Equal(t, []string{"a", "b"}, mem.Messages())
	assert.Equal(t, 128, logger.Stats().Dispatcher.QueueCap)
}

// TestMultiWorkerSharedDispatcherOrder checks loggers spread over workers each stay ordered
func TestMultiWorkerSharedDispatcherOrder(t *testing.T) {
	cfg := testDispatcherConfig(32, BlockRetry)
	cfg.Workers = 3
	d, err := NewDispatcher(cfg)
	require.NoError(t, err)
	defer d.Shutdown()

	const loggers = 4
	const perLogger = 200
	sinks := make([]*sink.Memory, loggers)
	var wg sync.WaitGroup
	for i := 0; i < loggers; i++ {
		sinks[i] = sink.NewMemory()
		l := NewLogger(fmt.Sprint("l", i), sinks[i])
		l.bind(d)

		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perLogger; j++ {
				l.Info(fmt.Sprint(j))
			}
		}()
	}
	wg.Wait()
	require.NoError(t, d.Flush(5*time.Second))

	for _, mem := range sinks {
		msgs := mem.Messages()
		require.Len(t, msgs, perLogger)
		for j, msg := range msgs {
			assert.Equal(t, fmt.Sprint(j), msg)
		}
	}
}

// TestMultiWorkerFlushWaitsForEveryWorker checks Flush returns only after all queued records are written
func TestMultiWorkerFlushWaitsForEveryWorker(t *testing.T) {
	cfg := testDispatcherConfig(16, BlockRetry)
	cfg.Workers = 2
	d, err := NewDispatcher(cfg)
	require.NoError(t, err)
	defer d.Shutdown()

	slowA := &slowSink{Memory: sink.NewMemory(), delay: 300 * time.Millisecond}
	slowB := &slowSink{Memory: sink.NewMemory(), delay: 300 * time.Millisecond}
	a := NewLogger("a", slowA)
	b := NewLogger("b", slowB)
	a.bind(d)
	b.bind(d)
	require.NotEqual(t, a.lane%2, b.lane%2)

	a.Info("first")
	require.NoError(t, a.Flush(2*time.Second))
	assert.Equal(t, 1, slowA.Len())
	assert.Equal(t, uint64(1), slowA.Flushes())

	a.Info("second")
	b.Info("other")
	require.NoError(t, d.Flush(2*time.Second))
	assert.Equal(t, 2, slowA.Len())
	assert.Equal(t, 1, slowB.Len())
}
