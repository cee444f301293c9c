package log

import (
	"testing"

	"github.com/lixenwraith/fanlog/formatter"
	"github.com/lixenwraith/fanlog/sink"
)

// BenchmarkLoggerFiltered measures the cost of a record below the threshold
func BenchmarkLoggerFiltered(b *testing.B) {
	logger := NewLogger("bench", sink.NewNull())
	defer logger.Close()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Debug("benchmark message", i)
	}
}

// BenchmarkLoggerInfo benchmarks synchronous txt logging to a null sink
func BenchmarkLoggerInfo(b *testing.B) {
	logger := NewLogger("bench", sink.NewNull())
	defer logger.Close()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message", i)
	}
}

// BenchmarkLoggerJSON benchmarks the performance of JSON formatted logging
func BenchmarkLoggerJSON(b *testing.B) {
	logger := NewLogger("bench", sink.NewNull())
	defer logger.Close()
	logger.SetFormatter(formatter.New().Type(formatter.TypeJSON))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message", i, "key", "value")
	}
}

// BenchmarkAsyncBlockRetry benchmarks enqueue through a dispatcher
func BenchmarkAsyncBlockRetry(b *testing.B) {
	logger, err := NewAsyncLogger("bench", testDispatcherConfig(8192, BlockRetry), sink.NewNull())
	if err != nil {
		b.Fatal(err)
	}
	defer logger.Close()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("async message", i)
	}
}

// BenchmarkConcurrentLogging benchmarks the logger's performance under concurrent load
func BenchmarkConcurrentLogging(b *testing.B) {
	logger, err := NewAsyncLogger("bench", testDispatcherConfig(8192, DiscardLogMsg), sink.NewNull())
	if err != nil {
		b.Fatal(err)
	}
	defer logger.Close()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			logger.Info("concurrent", i)
			i++
		}
	})
}
