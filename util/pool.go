package util

import "sync"

// DefaultSeriesLen is the capacity of pooled series buffers.  Longer
// requests fall back to a fresh allocation.
const DefaultSeriesLen = 256

// SeriesPool provides reusable float64 buffers for per-cell time-series
// queries, which the driver issues once per reported grid cell.
var SeriesPool = sync.Pool{
	New: func() interface{} {
		buf := make([]float64, DefaultSeriesLen)
		return &buf
	},
}

// GetSeries retrieves a zeroed buffer of length n.  Callers must return
// it with [PutSeries] when finished.
func GetSeries(n int) *[]float64 {
	if n > DefaultSeriesLen {
		buf := make([]float64, n)
		return &buf
	}
	buf := SeriesPool.Get().(*[]float64)
	*buf = (*buf)[:n]
	for i := range *buf {
		(*buf)[i] = 0
	}
	return buf
}

// PutSeries returns a buffer to the pool for reuse.  Oversized buffers
// are dropped.
func PutSeries(buf *[]float64) {
	if buf == nil || cap(*buf) != DefaultSeriesLen {
		return
	}
	*buf = (*buf)[:DefaultSeriesLen]
	SeriesPool.Put(buf)
}
