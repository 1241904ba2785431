package util

import (
	"io"
	"testing"
)

// BenchmarkSeriesPool measures the allocation advantage of sync.Pool
// buffer reuse versus fresh allocation for per-cell series queries.
func BenchmarkSeriesPool(b *testing.B) {
	b.Run("pool", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			buf := GetSeries(12)
			_ = (*buf)[0]
			PutSeries(buf)
		}
	})
	b.Run("alloc", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			buf := make([]float64, 12)
			_ = buf[0]
		}
	})
}

// BenchmarkLogger_Suppressed measures the cost of a message below the
// current verbosity, which is the common case inside the time loop.
func BenchmarkLogger_Suppressed(b *testing.B) {
	l := NewLogger(1)
	l.SetOutput(io.Discard)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Debug("step %d", i)
	}
}
