// Package timeseries holds scalar (time, value) forcing records and
// evaluates them at arbitrary times.
//
// Between samples values are interpolated linearly; outside the sampled
// range the nearest end value is used.  A single-sample series is
// constant.
package timeseries

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

// Series is a scalar time series.
type Series struct {
	Name      string
	LongName  string
	Units     string // units of the values
	TimeUnits string // units of the time coordinate
	Dimension string // name of the time dimension in files

	times  []float64
	values []float64
	fit    interp.PiecewiseLinear
}

// New returns an empty series that will be read from variable name along
// dimension dim.
func New(name, dim string) *Series {
	return &Series{Name: name, Dimension: dim, Units: "1", TimeUnits: "seconds"}
}

// SetData replaces the samples.  times must be strictly increasing and
// match values in length.
func (s *Series) SetData(times, values []float64) error {
	if len(times) == 0 {
		return fmt.Errorf("timeseries %s: no samples", s.Name)
	}
	if len(times) != len(values) {
		return fmt.Errorf("timeseries %s: %d times but %d values", s.Name, len(times), len(values))
	}
	for k := 1; k < len(times); k++ {
		if !(times[k] > times[k-1]) {
			return fmt.Errorf("timeseries %s: times must be strictly increasing (t[%d]=%g, t[%d]=%g)",
				s.Name, k-1, times[k-1], k, times[k])
		}
	}
	var fit interp.PiecewiseLinear
	if len(times) > 1 {
		if err := fit.Fit(times, values); err != nil {
			return fmt.Errorf("timeseries %s: %w", s.Name, err)
		}
	}
	s.times = append(s.times[:0], times...)
	s.values = append(s.values[:0], values...)
	s.fit = fit
	return nil
}

// Len returns the number of samples.
func (s *Series) Len() int { return len(s.times) }

// Times returns the sample times.
func (s *Series) Times() []float64 { return s.times }

// Values returns the sample values.
func (s *Series) Values() []float64 { return s.values }

// Value evaluates the series at time t.  Calling Value on a series
// without samples is a programming error and panics.
func (s *Series) Value(t float64) float64 {
	n := len(s.times)
	switch {
	case n == 0:
		panic(fmt.Sprintf("timeseries %s: evaluated before data was loaded", s.Name))
	case n == 1, t <= s.times[0]:
		return s.values[0]
	case t >= s.times[n-1]:
		return s.values[n-1]
	}
	return s.fit.Predict(t)
}

// Sample evaluates the series at every time in ts, in order.
func (s *Series) Sample(ts []float64) []float64 {
	out := make([]float64, len(ts))
	for k, t := range ts {
		out[k] = s.Value(t)
	}
	return out
}

// Fold maps t into the periodic window [ref, ref+period).  A
// non-positive period leaves t unchanged.
func Fold(t, period, ref float64) float64 {
	if period <= 0 {
		return t
	}
	r := math.Mod(t-ref, period)
	if r < 0 {
		r += period
	}
	return ref + r
}
