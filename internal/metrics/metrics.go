// Package metrics provides lightweight, lock-free counters for tracking
// the work done by a forcing run: fields read, variables written, model
// updates and errors.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for a run.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	fieldsRead       atomic.Int64
	variablesWritten atomic.Int64
	steps            atomic.Int64
	cellsReported    atomic.Int64
	errorsTotal      atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	modelTime    float64
	lastStep     time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Input/output ─────────────────────────────────────────────────────

// FieldRead records one variable read from an input file.
func (c *Collector) FieldRead() {
	if c == nil {
		return
	}
	c.fieldsRead.Add(1)
}

// VariableWritten records one variable written to an output file.
func (c *Collector) VariableWritten() {
	if c == nil {
		return
	}
	c.variablesWritten.Add(1)
}

// FieldsRead returns the number of variables read.
func (c *Collector) FieldsRead() int64 {
	if c == nil {
		return 0
	}
	return c.fieldsRead.Load()
}

// VariablesWritten returns the number of variables written.
func (c *Collector) VariablesWritten() int64 {
	if c == nil {
		return 0
	}
	return c.variablesWritten.Load()
}

// ── Time stepping ────────────────────────────────────────────────────

// StepCompleted records a finished model update ending at model time t
// (seconds).
func (c *Collector) StepCompleted(t float64) {
	if c == nil {
		return
	}
	c.steps.Add(1)
	c.mu.Lock()
	c.modelTime = t
	c.lastStep = time.Now()
	c.mu.Unlock()
}

// Steps returns the number of completed updates.
func (c *Collector) Steps() int64 {
	if c == nil {
		return 0
	}
	return c.steps.Load()
}

// CellsReported records n grid cells whose time series were evaluated.
func (c *Collector) CellsReported(n int) {
	if c == nil {
		return
	}
	c.cellsReported.Add(int64(n))
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string  `json:"uptime"`
	FieldsRead       int64   `json:"fields_read"`
	VariablesWritten int64   `json:"variables_written"`
	Steps            int64   `json:"steps"`
	ModelTime        float64 `json:"model_time_seconds"`
	CellsReported    int64   `json:"cells_reported"`
	ErrorsTotal      int64   `json:"errors_total"`
	LastStep         string  `json:"last_step,omitempty"`
	LastError        string  `json:"last_error,omitempty"`
	LastErrorMessage string  `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:           time.Since(c.startTime).Truncate(time.Millisecond).String(),
		FieldsRead:       c.fieldsRead.Load(),
		VariablesWritten: c.variablesWritten.Load(),
		Steps:            c.steps.Load(),
		ModelTime:        c.modelTime,
		CellsReported:    c.cellsReported.Load(),
		ErrorsTotal:      c.errorsTotal.Load(),
	}
	if !c.lastStep.IsZero() {
		s.LastStep = c.lastStep.Format(time.RFC3339)
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
