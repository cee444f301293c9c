// FILE: lixenwraith/fanlog/compat/compat_test.go
package compat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	log "github.com/lixenwraith/fanlog"
	"github.com/lixenwraith/fanlog/sink"
)

// createTestCompatBuilder creates a debug-level logger over a memory sink wrapped by a builder
func createTestCompatBuilder(t *testing.T) (*Builder, *log.Logger, *sink.Memory) {
	t.Helper()
	mem := sink.NewMemory()
	appLogger := log.NewLogger("app", mem)
	require.NoError(t, appLogger.SetLevel(log.LevelDebug))
	t.Cleanup(func() { _ = appLogger.Close() })

	return NewBuilder().WithLogger(appLogger), appLogger, mem
}

func TestCompatBuilder(t *testing.T) {
	t.Run("with existing logger", func(t *testing.T) {
		builder, logger, _ := createTestCompatBuilder(t)

		gnetAdapter, err := builder.BuildGnet()
		require.NoError(t, err)
		assert.Same(t, logger, gnetAdapter.logger)

		// Caller-owned loggers survive builder Close
		require.NoError(t, builder.Close())
		logger.Info("still open")
	})

	t.Run("with config", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "http.log")
		logCfg := log.DefaultConfig()
		logCfg.EnableConsole = false
		logCfg.FileMode = log.FileModeRotating
		logCfg.File = file
		logCfg.ShowTimestamp = false

		builder := NewBuilder().WithConfig(logCfg)
		fasthttpAdapter, err := builder.BuildFastHTTP()
		require.NoError(t, err)

		gnetAdapter, err := builder.BuildGnet()
		require.NoError(t, err)
		assert.Same(t, fasthttpAdapter.logger, gnetAdapter.logger)

		fasthttpAdapter.Printf("served %d", 200)
		require.NoError(t, builder.Close())

		content, err := os.ReadFile(sink.RotatingFileName(file, 0))
		require.NoError(t, err)
		assert.Equal(t, "INFO [log] fasthttp: served 200\n", string(content))
	})

	t.Run("nil logger", func(t *testing.T) {
		_, err := NewBuilder().WithLogger(nil).BuildGnet()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "provided logger cannot be nil")
	})

	t.Run("invalid config", func(t *testing.T) {
		logCfg := log.DefaultConfig()
		logCfg.QueueSize = 0
		_, err := NewBuilder().WithConfig(logCfg).GetLogger()
		assert.Error(t, err)
	})
}

func TestGnetAdapter(t *testing.T) {
	builder, logger, mem := createTestCompatBuilder(t)

	var fatalMsg string
	adapter, err := builder.BuildGnet(WithFatalHandler(func(msg string) {
		fatalMsg = msg
	}))
	require.NoError(t, err)

	adapter.Debugf("gnet debug id=%d", 1)
	adapter.Infof("gnet info id=%d", 2)
	adapter.Warnf("gnet warn id=%d", 3)
	adapter.Errorf("gnet error id=%d", 4)
	adapter.Fatalf("gnet fatal id=%d", 5)
	require.NoError(t, logger.Flush(time.Second))

	expected := []struct {
		level log.Level
		msg   string
	}{
		{log.LevelDebug, "gnet: gnet debug id=1"},
		{log.LevelInfo, "gnet: gnet info id=2"},
		{log.LevelWarn, "gnet: gnet warn id=3"},
		{log.LevelError, "gnet: gnet error id=4"},
		{log.LevelCritical, "gnet: gnet fatal id=5"},
	}

	records := mem.Records()
	require.Len(t, records, len(expected))
	for i, r := range records {
		assert.Equal(t, expected[i].level, r.Level)
		assert.Equal(t, expected[i].msg, r.Message)
		assert.Equal(t, "app", r.LoggerName)
	}
	assert.Equal(t, "gnet fatal id=5", fatalMsg)
	assert.GreaterOrEqual(t, mem.Flushes(), uint64(1))
}

func TestGnetAdapterPrefix(t *testing.T) {
	builder, _, mem := createTestCompatBuilder(t)

	adapter, err := builder.BuildGnet(WithPrefix(""), WithFatalFlushTimeout(10*time.Millisecond))
	require.NoError(t, err)
	adapter.Infof("listening on %s", ":9000")

	assert.Equal(t, []string{"listening on :9000"}, mem.Messages())
}

func TestFastHTTPAdapter(t *testing.T) {
	builder, logger, mem := createTestCompatBuilder(t)

	adapter, err := builder.BuildFastHTTP()
	require.NoError(t, err)

	testMessages := []string{
		"this is some informational message",
		"a debug message for the developers",
		"warning: something might be wrong",
		"an error occurred while processing",
		"panic recovered in handler",
	}
	for _, msg := range testMessages {
		adapter.Printf("%s", msg)
	}
	require.NoError(t, logger.Flush(time.Second))

	expectedLevels := []log.Level{log.LevelInfo, log.LevelDebug, log.LevelWarn, log.LevelError, log.LevelCritical}
	records := mem.Records()
	require.Len(t, records, len(testMessages))
	for i, r := range records {
		assert.Equal(t, expectedLevels[i], r.Level, testMessages[i])
		assert.Equal(t, "fasthttp: "+testMessages[i], r.Message)
	}
}

func TestFastHTTPAdapterOptions(t *testing.T) {
	builder, _, mem := createTestCompatBuilder(t)

	adapter, err := builder.BuildFastHTTP(
		WithDefaultLevel(log.LevelNotice),
		WithLevelDetector(func(msg string) log.Level {
			if strings.HasPrefix(msg, "!") {
				return log.LevelAlert
			}
			return log.LevelOff
		}),
	)
	require.NoError(t, err)

	adapter.Printf("plain error text")
	adapter.Printf("!urgent")

	records := mem.Records()
	require.Len(t, records, 2)
	assert.Equal(t, log.LevelNotice, records[0].Level)
	assert.Equal(t, log.LevelAlert, records[1].Level)
}

func TestDetectLogLevel(t *testing.T) {
	tests := map[string]log.Level{
		"connection failed":    log.LevelError,
		"FATAL: out of memory": log.LevelCritical,
		"deprecated header":    log.LevelWarn,
		"trace id 7":           log.LevelDebug,
		"request served":       log.LevelOff,
	}
	for msg, want := range tests {
		assert.Equal(t, want, DetectLogLevel(msg), msg)
	}
}
