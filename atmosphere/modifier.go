package atmosphere

import (
	"atmoforce/internal/field"
	"atmoforce/internal/ncio"
)

// Modifier forwards every Model method to the wrapped model.  Concrete
// modifiers embed it and override only what they change.
type Modifier struct {
	inner Model
}

// NewModifier wraps inner.
func NewModifier(inner Model) Modifier { return Modifier{inner: inner} }

// Inner returns the wrapped model.
func (m *Modifier) Inner() Model { return m.inner }

func (m *Modifier) Name() string                      { return m.inner.Name() }
func (m *Modifier) Init() error                       { return m.inner.Init() }
func (m *Modifier) Update(t, dt float64) error        { return m.inner.Update(t, dt) }
func (m *Modifier) MaxTimestep(t float64) MaxTimestep { return m.inner.MaxTimestep(t) }

func (m *Modifier) MeanPrecipitation(out *field.Field) error { return m.inner.MeanPrecipitation(out) }
func (m *Modifier) MeanAnnualTemp(out *field.Field) error    { return m.inner.MeanAnnualTemp(out) }

func (m *Modifier) BeginPointwiseAccess()             { m.inner.BeginPointwiseAccess() }
func (m *Modifier) EndPointwiseAccess()               { m.inner.EndPointwiseAccess() }
func (m *Modifier) InitTimeseries(ts []float64) error { return m.inner.InitTimeseries(ts) }

func (m *Modifier) PrecipTimeSeries(i, j int, out []float64) error {
	return m.inner.PrecipTimeSeries(i, j, out)
}

func (m *Modifier) TempTimeSeries(i, j int, out []float64) error {
	return m.inner.TempTimeSeries(i, j, out)
}

func (m *Modifier) AddVarsToOutput(p Profile, vars VarSet) { m.inner.AddVarsToOutput(p, vars) }

func (m *Modifier) DefineVariables(vars VarSet, nc *ncio.Writer) error {
	return m.inner.DefineVariables(vars, nc)
}

func (m *Modifier) WriteVariables(vars VarSet, nc *ncio.Writer) error {
	return m.inner.WriteVariables(vars, nc)
}
