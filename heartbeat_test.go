// FILE: lixenwraith/fanlog/heartbeat_test.go
package log

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/fanlog/formatter"
	"github.com/lixenwraith/fanlog/sink"
)

// TestLoggerHeartbeat verifies heartbeat records bypass the logger threshold and carry stats
func TestLoggerHeartbeat(t *testing.T) {
	mem := sink.NewMemory()
	logger, err := NewAsyncLogger("hb", testDispatcherConfig(64, BlockRetry), mem)
	require.NoError(t, err)
	defer logger.Close()

	require.NoError(t, logger.SetLevel(LevelError))
	logger.Info("one")

	cfg := logger.GetConfig()
	cfg.Level = "error"
	cfg.HeartbeatIntervalS = 1
	require.NoError(t, logger.ApplyConfig(cfg))

	assert.Eventually(t, func() bool {
		_ = logger.Flush(time.Second)
		return mem.Len() > 0
	}, 3*time.Second, 50*time.Millisecond)

	records := mem.Records()
	hb := records[0]
	assert.Equal(t, LevelNotice, hb.Level)
	for _, key := range []string{"type heartbeat", "sequence 1", "uptime_hours", "logged", "enqueued", "queue", "alloc", "num_goroutine"} {
		assert.Contains(t, hb.Message, key)
	}
}

// TestHeartbeatArgs checks the sync variant omits dispatcher fields
func TestHeartbeatArgs(t *testing.T) {
	logger := NewLogger("args", sink.NewNull())
	defer logger.Close()
	logger.Info("counted")

	msg := formatter.Message(logger.heartbeatArgs()...)
	assert.Contains(t, msg, "type heartbeat sequence 1")
	assert.Contains(t, msg, "logged 1")
	assert.NotContains(t, msg, "enqueued")

	msg = formatter.Message(logger.heartbeatArgs()...)
	assert.Contains(t, msg, "sequence 2")
}

// TestHeartbeatRestartAndStop checks interval changes replace the goroutine and Close stops it
func TestHeartbeatRestartAndStop(t *testing.T) {
	logger := NewLogger("restart", sink.NewMemory())

	require.NoError(t, logger.ApplyOverride("heartbeat_interval_s=60"))
	first := logger.heartbeat
	require.NotNil(t, first)

	require.NoError(t, logger.ApplyOverride("heartbeat_interval_s=120"))
	second := logger.heartbeat
	require.NotNil(t, second)
	assert.NotSame(t, first, second)
	assertClosed(t, first.done)

	require.NoError(t, logger.ApplyOverride("heartbeat_interval_s=0"))
	assert.Nil(t, logger.heartbeat)
	assertClosed(t, second.done)

	require.NoError(t, logger.ApplyOverride("heartbeat_interval_s=60"))
	third := logger.heartbeat
	require.NoError(t, logger.Close())
	assertClosed(t, third.done)
}

func assertClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	default:
		t.Fatal("heartbeat goroutine still running")
	}
}
