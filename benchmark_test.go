package log2what

import (
	"testing"
)

// BenchmarkFileWrite benchmarks single-threaded writes to a rotating file
func BenchmarkFileWrite(b *testing.B) {
	logger, _, _ := createTestLogger(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message", i)
	}
}

// BenchmarkFileWriteRotating benchmarks writes with frequent rotation
func BenchmarkFileWriteRotating(b *testing.B) {
	registry := NewRegistry()
	defer registry.Close()
	logger := NewLogger("bench", registry.Open(FileConfig{
		Name:           "rot",
		Directory:      b.TempDir(),
		MaxSize:        64 * KB,
		MaxGenerations: 4,
	}))
	defer logger.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message", "seq", i)
	}
}

// BenchmarkTriggerBuffered benchmarks records held in the trigger ring
func BenchmarkTriggerBuffered(b *testing.B) {
	logger := NewLogger("bench", NewTriggerBuffer(Discard, DefaultTriggerConfig()))
	defer logger.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Debug("buffered", i)
	}
}

// BenchmarkFormatData benchmarks rendering mixed arguments
func BenchmarkFormatData(b *testing.B) {
	args := []any{"user_id", 123, "action", "benchmark", "value", 42.5}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = formatData(args)
	}
}

// BenchmarkConcurrentLogging benchmarks many goroutines sharing one file entry
func BenchmarkConcurrentLogging(b *testing.B) {
	logger, _, _ := createTestLogger(b)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			logger.Info("concurrent", i)
			i++
		}
	})
}
