package atmosphere

import (
	"fmt"
	"path/filepath"
	"testing"

	"atmoforce/internal/field"
	"atmoforce/internal/grid"
	"atmoforce/internal/ncio"
	"atmoforce/internal/timeseries"
	"atmoforce/util"
)

// testGrid returns a 4×3 grid with surface_altitude and latitude
// registered.  Elevation and latitude differ at every cell.
func testGrid(t *testing.T) *grid.Grid {
	t.Helper()
	g, err := grid.New(grid.Params{Mx: 4, My: 3, Lx: 3000, Ly: 2000})
	if err != nil {
		t.Fatal(err)
	}
	elev := g.NewField(field.Metadata{Name: grid.SurfaceAltitude, Units: "m"})
	lat := g.NewField(field.Metadata{Name: grid.Latitude, Units: "degree_north"})
	list := field.NewAccessList(elev, lat)
	for p := g.Points(); p.Next(); {
		i, j := p.I(), p.J()
		elev.Set(i, j, 137.5*float64(i)+911.3*float64(j))
		lat.Set(i, j, -71.25+0.37*float64(i)-1.9*float64(j))
	}
	list.End()
	for _, f := range []*field.Field{elev, lat} {
		if err := g.Variables().Add(f); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

// writePrecip writes a constant precipitation field on g.
func writePrecip(t *testing.T, g *grid.Grid, value float64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.nc")
	f := g.NewField(field.Metadata{Name: VarPrecipitation, Units: "kg m-2 second-1"})
	f.Fill(value)

	w, err := ncio.Create(path, g, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Define(f.Metadata()); err != nil {
		t.Fatal(err)
	}
	if err := w.EndDefine(); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(f); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

// writeSeries writes a scalar forcing file.
func writeSeries(t *testing.T, name, units string, times, values []float64) string {
	t.Helper()
	s := timeseries.New(name, "time")
	s.Units = units
	if err := s.SetData(times, values); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), name+".nc")
	if err := ncio.CreateSeries(path, s); err != nil {
		t.Fatal(err)
	}
	return path
}

func newConstant(t *testing.T, g *grid.Grid, precip float64) *Constant {
	t.Helper()
	return NewConstant(g, InputOptions{Filename: writePrecip(t, g, precip)}, util.Discard(), nil)
}

func newFracP(t *testing.T, g *grid.Grid, inner Model, times, values []float64) *ScalarForcing {
	t.Helper()
	src := ForcingSource{File: writeSeries(t, "frac_P", "1", times, values)}
	s, err := NewScalarForcing(inner, FracP(src), g, util.Discard(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// stubModel is a Model with fixed outputs that records calls.
type stubModel struct {
	precip, temp float64
	series       []float64 // per-report-time values for both series
	initErr      error
	calls        *[]string
	reportTimes  []float64
}

func (m *stubModel) record(s string) {
	if m.calls != nil {
		*m.calls = append(*m.calls, s)
	}
}

func (m *stubModel) Name() string { return "stub" }

func (m *stubModel) Init() error {
	m.record("stub.Init")
	return m.initErr
}

func (m *stubModel) Update(t, dt float64) error {
	m.record(fmt.Sprintf("stub.Update(%g,%g)", t, dt))
	return nil
}

func (m *stubModel) MaxTimestep(float64) MaxTimestep { return Limit(1) }

func (m *stubModel) MeanPrecipitation(out *field.Field) error {
	out.Fill(m.precip)
	return nil
}

func (m *stubModel) MeanAnnualTemp(out *field.Field) error {
	out.Fill(m.temp)
	return nil
}

func (m *stubModel) BeginPointwiseAccess() { m.record("stub.Begin") }
func (m *stubModel) EndPointwiseAccess()   { m.record("stub.End") }

func (m *stubModel) InitTimeseries(ts []float64) error {
	m.reportTimes = append([]float64(nil), ts...)
	return nil
}

func (m *stubModel) PrecipTimeSeries(_, _ int, out []float64) error {
	copy(out, m.series)
	return nil
}

func (m *stubModel) TempTimeSeries(_, _ int, out []float64) error {
	copy(out, m.series)
	return nil
}

func (m *stubModel) AddVarsToOutput(_ Profile, vars VarSet) { vars.Add("stub_var") }

func (m *stubModel) DefineVariables(vars VarSet, _ *ncio.Writer) error {
	m.record("stub.Define:" + fmt.Sprint(vars.Names()))
	return nil
}

func (m *stubModel) WriteVariables(vars VarSet, _ *ncio.Writer) error {
	m.record("stub.Write:" + fmt.Sprint(vars.Names()))
	return nil
}
