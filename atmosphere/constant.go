package atmosphere

import (
	"fmt"

	aferrors "atmoforce/internal/errors"
	"atmoforce/internal/field"
	"atmoforce/internal/grid"
	"atmoforce/internal/metrics"
	"atmoforce/internal/ncio"
	"atmoforce/util"
)

// InitType says how a run starts.
type InitType int

const (
	// InitRegular starts from a complete model state (or a restart file).
	InitRegular InitType = iota
	// InitBootstrap starts from incomplete data; fields are regridded.
	InitBootstrap
)

// InputOptions locates the dataset a provider reads its fields from.
type InputOptions struct {
	Filename string
	Type     InitType
	Record   int // time record for regular reads

	// Fallback fills a field that is absent from the file while
	// bootstrapping.  Nil means the field is required.
	Fallback *float64
}

// Constant is the constant-in-time "PIK" provider.  Precipitation is read
// once at Init and held fixed; air temperature is parameterized from
// surface altitude and latitude on every Update.
type Constant struct {
	grid    *grid.Grid
	opts    InputOptions
	log     *util.Logger
	metrics *metrics.Collector

	precipitation *field.Field
	airTemp       *field.Field
	reportTimes   []float64

	clock       Clock
	initialized bool
}

// NewConstant allocates the provider's fields on g.  Nothing is read
// until Init.
func NewConstant(g *grid.Grid, opts InputOptions, log *util.Logger, m *metrics.Collector) *Constant {
	return &Constant{
		grid:    g,
		opts:    opts,
		log:     log,
		metrics: m,
		precipitation: g.NewField(field.Metadata{
			Name:                      VarPrecipitation,
			Intent:                    "model_state",
			LongName:                  "precipitation rate",
			Units:                     "kg m-2 second-1",
			GlaciologicalUnits:        "kg m-2 year-1",
			WriteInGlaciologicalUnits: true,
			TimeIndependent:           true,
		}),
		airTemp: g.NewField(field.Metadata{
			Name:            VarAirTemp,
			Intent:          "model_state",
			LongName:        "mean annual near-surface air temperature",
			Units:           "Kelvin",
			TimeIndependent: true,
		}),
	}
}

// Name implements Model.
func (c *Constant) Name() string { return "constant" }

// Clock returns the interval of the last Update.  It is cleared by Init,
// so a host can tell whether the model has been stepped since a restart.
func (c *Constant) Clock() Clock { return c.clock }

// Init reads precipitation from the input file.  Calling it again (on
// restart) clears the clock; the fields keep their values until the read
// replaces them.
func (c *Constant) Init() error {
	c.clock.Reset()

	c.log.Message(2, "* Initializing the constant-in-time atmosphere model PIK.")
	c.log.Message(2, "  It reads a precipitation field directly from the file and holds it constant.")
	c.log.Message(2, "  Near-surface air temperature is parameterized as in Martin et al. 2011, Eqn. 2.0.2.")
	c.log.Message(2, "    reading mean annual ice-equivalent precipitation rate '%s' from %s ...",
		VarPrecipitation, c.opts.Filename)

	r, err := ncio.Open(c.opts.Filename, c.metrics)
	if err != nil {
		return err
	}
	defer r.Close()

	if c.opts.Type == InitBootstrap {
		fallback, critical := 0.0, c.opts.Fallback == nil
		if !critical {
			fallback = *c.opts.Fallback
		}
		found, err := r.RegridField(VarPrecipitation, c.precipitation, c.grid.X(), c.grid.Y(), critical, fallback)
		if err != nil {
			return err
		}
		if !found {
			c.log.Warn("%s: '%s' not found in %s, using default %g",
				c.Name(), VarPrecipitation, c.opts.Filename, fallback)
		}
	} else if err := r.ReadField(VarPrecipitation, c.opts.Record, c.precipitation); err != nil {
		return err
	}

	c.initialized = true
	return nil
}

// Update recomputes air temperature from the grid's "surface_altitude"
// and "latitude" fields.
func (c *Constant) Update(t, dt float64) error {
	if !c.initialized {
		return fmt.Errorf("%s: update: %w", c.Name(), aferrors.ErrNotInitialized)
	}
	vars := c.grid.Variables()
	elevation, err := vars.Get(grid.SurfaceAltitude)
	if err != nil {
		return fmt.Errorf("%s: update: %w", c.Name(), err)
	}
	latitude, err := vars.Get(grid.Latitude)
	if err != nil {
		return fmt.Errorf("%s: update: %w", c.Name(), err)
	}

	list := field.NewAccessList(c.airTemp, elevation, latitude)
	defer list.End()
	for p := c.grid.Points(); p.Next(); {
		i, j := p.I(), p.J()
		c.airTemp.Set(i, j, 273.15+30-0.0075*elevation.At(i, j)-0.68775*latitude.At(i, j)*(-1.0))
	}

	c.clock.Set(t, dt)
	return nil
}

// MaxTimestep implements Model; the provider never limits the step.
func (c *Constant) MaxTimestep(float64) MaxTimestep { return Unconstrained() }

// MeanPrecipitation copies the stored precipitation into out.
func (c *Constant) MeanPrecipitation(out *field.Field) error {
	if !c.initialized {
		return fmt.Errorf("%s: precipitation: %w", c.Name(), aferrors.ErrNotInitialized)
	}
	return out.CopyFrom(c.precipitation)
}

// MeanAnnualTemp copies the last computed air temperature into out.
func (c *Constant) MeanAnnualTemp(out *field.Field) error {
	if !c.initialized {
		return fmt.Errorf("%s: air temperature: %w", c.Name(), aferrors.ErrNotInitialized)
	}
	return out.CopyFrom(c.airTemp)
}

func (c *Constant) BeginPointwiseAccess() {
	c.precipitation.BeginAccess()
	c.airTemp.BeginAccess()
}

func (c *Constant) EndPointwiseAccess() {
	c.precipitation.EndAccess()
	c.airTemp.EndAccess()
}

// InitTimeseries stores the report times used by the *TimeSeries queries.
func (c *Constant) InitTimeseries(ts []float64) error {
	c.reportTimes = append([]float64(nil), ts...)
	return nil
}

// PrecipTimeSeries repeats the cell's precipitation once per report time.
func (c *Constant) PrecipTimeSeries(i, j int, out []float64) error {
	return c.cellSeries(c.precipitation, i, j, out)
}

// TempTimeSeries repeats the cell's air temperature once per report time.
func (c *Constant) TempTimeSeries(i, j int, out []float64) error {
	return c.cellSeries(c.airTemp, i, j, out)
}

func (c *Constant) cellSeries(f *field.Field, i, j int, out []float64) error {
	if !c.initialized {
		return fmt.Errorf("%s: %s series: %w", c.Name(), f.Name(), aferrors.ErrNotInitialized)
	}
	if len(out) != len(c.reportTimes) {
		return aferrors.Length(c.Name(), len(out), len(c.reportTimes))
	}
	v := f.At(i, j)
	for k := range out {
		out[k] = v
	}
	return nil
}

// AddVarsToOutput offers precipitation at every profile.  Air temperature
// is recomputed on demand and is never a diagnostic of this provider.
func (c *Constant) AddVarsToOutput(_ Profile, vars VarSet) {
	vars.Add(VarPrecipitation)
}

func (c *Constant) DefineVariables(vars VarSet, nc *ncio.Writer) error {
	if !c.initialized {
		return fmt.Errorf("%s: define: %w", c.Name(), aferrors.ErrNotInitialized)
	}
	if vars.Has(VarPrecipitation) {
		return nc.Define(c.precipitation.Metadata())
	}
	return nil
}

func (c *Constant) WriteVariables(vars VarSet, nc *ncio.Writer) error {
	if !c.initialized {
		return fmt.Errorf("%s: write: %w", c.Name(), aferrors.ErrNotInitialized)
	}
	if vars.Has(VarPrecipitation) {
		return nc.Write(c.precipitation)
	}
	return nil
}
