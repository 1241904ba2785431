package atmosphere

import (
	"fmt"

	aferrors "atmoforce/internal/errors"
	"atmoforce/internal/field"
	"atmoforce/internal/grid"
	"atmoforce/internal/metrics"
	"atmoforce/internal/ncio"
	"atmoforce/internal/timeseries"
	"atmoforce/util"
)

// Target is the quantity a scalar forcing acts on.
type Target int

const (
	TargetPrecipitation Target = iota
	TargetTemperature
)

func (t Target) String() string {
	if t == TargetTemperature {
		return "temperature"
	}
	return "precipitation"
}

// Operation is how the scalar is applied.
type Operation int

const (
	Scale Operation = iota // x * v
	Shift                  // x + v
)

// ForcingSource locates a scalar forcing series.
type ForcingSource struct {
	File          string
	TimeDimension string // default "time"

	// Period, if positive, makes the forcing periodic: model time is
	// folded into [ReferenceTime, ReferenceTime+Period) before lookup.
	// Both in seconds.
	Period        float64
	ReferenceTime float64
}

// ScalarForcingOptions configures a ScalarForcing.  See FracP, DeltaT
// and DeltaP for the built-in presets.
type ScalarForcingOptions struct {
	OffsetName  string // series variable and model name, e.g. "frac_P"
	Description string // quantity named in log messages
	LongName    string // series long_name
	Units       string // series units
	Target      Target
	Op          Operation
	Source      ForcingSource

	// StartTime is the model time whose forcing value is current between
	// Init and the first Update.
	StartTime float64
}

// ScalarForcing wraps a model and applies a time-dependent scalar to one
// of its outputs.  Everything it does not transform is forwarded.
type ScalarForcing struct {
	Modifier

	opts    ScalarForcingOptions
	grid    *grid.Grid
	log     *util.Logger
	metrics *metrics.Collector

	offset        *timeseries.Series
	airTemp       field.Metadata
	precipitation field.Metadata

	reportTimes []float64
	cache       []float64 // offset at each report time
	current     float64

	clock       Clock
	initialized bool
}

// NewScalarForcing wraps inner.  The forcing series is allocated but not
// read until Init.
func NewScalarForcing(inner Model, opts ScalarForcingOptions, g *grid.Grid, log *util.Logger, m *metrics.Collector) (*ScalarForcing, error) {
	if inner == nil {
		return nil, fmt.Errorf("%s: modifier needs an input model", opts.OffsetName)
	}
	if opts.OffsetName == "" {
		return nil, fmt.Errorf("scalar forcing: offset name is required")
	}
	if opts.Units == "" {
		opts.Units = "1"
	}
	if opts.Source.TimeDimension == "" {
		opts.Source.TimeDimension = "time"
	}

	offset := timeseries.New(opts.OffsetName, opts.Source.TimeDimension)
	offset.Units = opts.Units
	offset.LongName = opts.LongName

	return &ScalarForcing{
		Modifier: NewModifier(inner),
		opts:     opts,
		grid:     g,
		log:      log,
		metrics:  m,
		offset:   offset,
		airTemp: field.Metadata{
			Name:     VarAirTemp,
			Intent:   "diagnostic",
			LongName: "near-surface air temperature",
			Units:    "K",
		},
		// The values are the inner model's, in its storage units, usually
		// kg m-2 s-1. Only the label claims ice-equivalent thickness.
		precipitation: field.Metadata{
			Name:               VarPrecipitation,
			Intent:             "diagnostic",
			LongName:           "precipitation, units of ice-equivalent thickness per time",
			Units:              "m / s",
			GlaciologicalUnits: "m / year",
		},
	}, nil
}

// Name implements Model.
func (s *ScalarForcing) Name() string { return s.opts.OffsetName }

// Options returns the options the modifier was built with.
func (s *ScalarForcing) Options() ScalarForcingOptions { return s.opts }

// Clock returns the interval of the last Update.
func (s *ScalarForcing) Clock() Clock { return s.clock }

// Current returns the scalar applied to whole fields.
func (s *ScalarForcing) Current() float64 { return s.current }

// Offsets returns a copy of the values cached for the report times.
func (s *ScalarForcing) Offsets() []float64 { return append([]float64(nil), s.cache...) }

// Init initializes the inner model first, then loads the forcing series.
func (s *ScalarForcing) Init() error {
	s.clock.Reset()

	if err := s.Inner().Init(); err != nil {
		return err
	}

	how := "multipliers"
	if s.opts.Op == Shift {
		how = "offsets"
	}
	s.log.Message(2, "* Initializing %s forcing using scalar %s...", s.opts.Description, how)

	return s.initInternal()
}

func (s *ScalarForcing) initInternal() error {
	src := s.opts.Source
	if src.File == "" {
		return fmt.Errorf("%s: no forcing file given", s.Name())
	}
	s.log.Message(2, "  reading %s data from forcing file %s...", s.Name(), src.File)

	r, err := ncio.Open(src.File, s.metrics)
	if err != nil {
		return err
	}
	defer r.Close()
	if err := r.ReadSeries(s.offset); err != nil {
		return err
	}
	if src.Period > 0 {
		s.log.Message(2, "  periodic forcing: period %g s, reference time %g s", src.Period, src.ReferenceTime)
	}

	s.current = s.offset.Value(s.forcingTime(s.opts.StartTime))
	s.initialized = true
	s.rebuildCache()
	return nil
}

// forcingTime maps model time onto the series' time axis.
func (s *ScalarForcing) forcingTime(t float64) float64 {
	return timeseries.Fold(t, s.opts.Source.Period, s.opts.Source.ReferenceTime)
}

// Update steps the inner model, then takes the forcing value at the
// midpoint of [t, t+dt].
func (s *ScalarForcing) Update(t, dt float64) error {
	if !s.initialized {
		return fmt.Errorf("%s: update: %w", s.Name(), aferrors.ErrNotInitialized)
	}
	if err := s.Inner().Update(t, dt); err != nil {
		return err
	}
	s.clock.Set(t, dt)
	s.current = s.offset.Value(s.forcingTime(t + 0.5*dt))
	s.log.Debug("%s: t=%g dt=%g value=%g", s.Name(), t, dt, s.current)
	return nil
}

// MaxTimestep implements Model; scalar forcing never limits the step.
func (s *ScalarForcing) MaxTimestep(float64) MaxTimestep { return Unconstrained() }

// InitTimeseries forwards ts to the inner model and rebuilds the offset
// cache for it.
func (s *ScalarForcing) InitTimeseries(ts []float64) error {
	if err := s.Inner().InitTimeseries(ts); err != nil {
		return err
	}
	s.reportTimes = append([]float64(nil), ts...)
	s.rebuildCache()
	return nil
}

// rebuildCache replaces the cache with one entry per report time.  Before
// Init the series is not loaded and the cache stays empty.
func (s *ScalarForcing) rebuildCache() {
	if !s.initialized {
		s.cache = nil
		return
	}
	cache := make([]float64, len(s.reportTimes))
	for k, t := range s.reportTimes {
		cache[k] = s.offset.Value(s.forcingTime(t))
	}
	s.cache = cache
}

func (s *ScalarForcing) applyField(out *field.Field) {
	if s.opts.Op == Shift {
		out.Shift(s.current)
	} else {
		out.Scale(s.current)
	}
}

func (s *ScalarForcing) applySeries(out []float64) {
	for k := range out {
		if s.opts.Op == Shift {
			out[k] += s.cache[k]
		} else {
			out[k] *= s.cache[k]
		}
	}
}

// MeanPrecipitation gets the inner model's precipitation and applies the
// current scalar if this modifier targets precipitation.
func (s *ScalarForcing) MeanPrecipitation(out *field.Field) error {
	return s.mean(TargetPrecipitation, s.Inner().MeanPrecipitation, out)
}

// MeanAnnualTemp gets the inner model's temperature and applies the
// current scalar if this modifier targets temperature.
func (s *ScalarForcing) MeanAnnualTemp(out *field.Field) error {
	return s.mean(TargetTemperature, s.Inner().MeanAnnualTemp, out)
}

func (s *ScalarForcing) mean(target Target, inner func(*field.Field) error, out *field.Field) error {
	if !s.initialized {
		return fmt.Errorf("%s: %s: %w", s.Name(), target, aferrors.ErrNotInitialized)
	}
	if err := inner(out); err != nil {
		return err
	}
	if s.opts.Target == target {
		s.applyField(out)
	}
	return nil
}

// PrecipTimeSeries fills out from the inner model and, if this modifier
// targets precipitation, applies the cached offset for each report time.
func (s *ScalarForcing) PrecipTimeSeries(i, j int, out []float64) error {
	return s.series(TargetPrecipitation, s.Inner().PrecipTimeSeries, i, j, out)
}

// TempTimeSeries is PrecipTimeSeries for air temperature.
func (s *ScalarForcing) TempTimeSeries(i, j int, out []float64) error {
	return s.series(TargetTemperature, s.Inner().TempTimeSeries, i, j, out)
}

func (s *ScalarForcing) series(target Target, inner func(int, int, []float64) error, i, j int, out []float64) error {
	if !s.initialized {
		return fmt.Errorf("%s: %s series: %w", s.Name(), target, aferrors.ErrNotInitialized)
	}
	if s.opts.Target == target && len(out) != len(s.cache) {
		return aferrors.Length(s.Name(), len(out), len(s.cache))
	}
	if err := inner(i, j, out); err != nil {
		return err
	}
	if s.opts.Target == target {
		s.applySeries(out)
	}
	return nil
}

// AddVarsToOutput adds the inner model's variables and, for the medium
// and big profiles, air_temp and precipitation.
func (s *ScalarForcing) AddVarsToOutput(p Profile, vars VarSet) {
	s.Inner().AddVarsToOutput(p, vars)
	if p.AtLeast(ProfileMedium) {
		vars.Add(VarAirTemp)
		vars.Add(VarPrecipitation)
	}
}

// DefineVariables defines air_temp and precipitation itself and passes
// every other requested name to the inner model.
func (s *ScalarForcing) DefineVariables(vars VarSet, nc *ncio.Writer) error {
	vars = vars.Clone()
	if vars.Has(VarAirTemp) {
		if err := nc.Define(s.airTemp); err != nil {
			return err
		}
		vars.Remove(VarAirTemp)
	}
	if vars.Has(VarPrecipitation) {
		meta := s.precipitation
		meta.WriteInGlaciologicalUnits = true
		if err := nc.Define(meta); err != nil {
			return err
		}
		vars.Remove(VarPrecipitation)
	}
	return s.Inner().DefineVariables(vars, nc)
}

// WriteVariables writes air_temp and precipitation as seen through this
// modifier (and everything beneath it) and passes the rest down.
func (s *ScalarForcing) WriteVariables(vars VarSet, nc *ncio.Writer) error {
	vars = vars.Clone()
	b := field.NewBuilder(s.grid.Mx(), s.grid.My())
	if vars.Has(VarAirTemp) {
		f, err := b.Stamp(s.airTemp).Glaciological(false).Fill(s.MeanAnnualTemp)
		if err != nil {
			return err
		}
		if err := nc.Write(f); err != nil {
			return err
		}
		vars.Remove(VarAirTemp)
	}
	if vars.Has(VarPrecipitation) {
		f, err := b.Stamp(s.precipitation).Glaciological(true).Fill(s.MeanPrecipitation)
		if err != nil {
			return err
		}
		if err := nc.Write(f); err != nil {
			return err
		}
		vars.Remove(VarPrecipitation)
	}
	return s.Inner().WriteVariables(vars, nc)
}
