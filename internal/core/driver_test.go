package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"atmoforce/atmosphere"
	"atmoforce/config"
	aferrors "atmoforce/internal/errors"
	"atmoforce/internal/field"
	"atmoforce/internal/grid"
	"atmoforce/internal/metrics"
	"atmoforce/internal/ncio"
	"atmoforce/internal/timeseries"
	"atmoforce/internal/units"
	"atmoforce/util"
)

func elevationAt(i, j int) float64 { return 100*float64(i) + 250*float64(j) }
func latitudeAt(i, j int) float64  { return 65 + 0.5*float64(i) - 1.25*float64(j) }

// writeInput writes a 4×3 input file with surface altitude and
// latitude and, when withPrecip is set, a constant precipitation field.
func writeInput(t *testing.T, precip float64, withPrecip bool) string {
	t.Helper()
	g, err := grid.New(grid.Params{Mx: 4, My: 3, Lx: 3000, Ly: 2000})
	if err != nil {
		t.Fatal(err)
	}
	elev := g.NewField(field.Metadata{Name: grid.SurfaceAltitude, Units: "m"})
	lat := g.NewField(field.Metadata{Name: grid.Latitude, Units: "degree_north"})
	list := field.NewAccessList(elev, lat)
	for p := g.Points(); p.Next(); {
		elev.Set(p.I(), p.J(), elevationAt(p.I(), p.J()))
		lat.Set(p.I(), p.J(), latitudeAt(p.I(), p.J()))
	}
	list.End()
	fields := []*field.Field{elev, lat}
	if withPrecip {
		pr := g.NewField(field.Metadata{Name: atmosphere.VarPrecipitation, Units: "kg m-2 second-1"})
		pr.Fill(precip)
		fields = append(fields, pr)
	}

	path := filepath.Join(t.TempDir(), "input.nc")
	w, err := ncio.Create(path, g, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range fields {
		if err := w.Define(f.Metadata()); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.EndDefine(); err != nil {
		t.Fatal(err)
	}
	for _, f := range fields {
		if err := w.Write(f); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

// writeForcing writes a scalar forcing file with times in years.
func writeForcing(t *testing.T, name, valueUnits string, years, values []float64) string {
	t.Helper()
	s := timeseries.New(name, "time")
	s.Units = valueUnits
	s.TimeUnits = "years"
	if err := s.SetData(years, values); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), name+".nc")
	if err := ncio.CreateSeries(path, s); err != nil {
		t.Fatal(err)
	}
	return path
}

func driverConfig(input string) *config.Config {
	cfg := config.Default()
	cfg.Input.File = input
	cfg.Time.Start, cfg.Time.End, cfg.Time.Step = 0, 3, 1
	return cfg
}

func expectedTemp(i, j int) float64 {
	elevation, latitude := elevationAt(i, j), latitudeAt(i, j)
	return 273.15 + 30 - 0.0075*elevation - 0.68775*latitude*(-1.0)
}

// TestDriver_RunEndToEnd runs constant precipitation 1.0 through a
// frac_P forcing of 2.0 and checks sites and the output file.
func TestDriver_RunEndToEnd(t *testing.T) {
	cfg := driverConfig(writeInput(t, 1.0, true))
	cfg.Atmosphere.Modifiers = []config.ModifierConfig{
		{Name: "frac_P", File: writeForcing(t, "frac_P", "1", []float64{0, 10}, []float64{2, 2})},
	}
	cfg.Output.File = filepath.Join(t.TempDir(), "out.nc")
	cfg.Output.Sites = []config.Site{{I: 1, J: 2}, {I: 3, J: 0}}

	m := metrics.New()
	d := &Driver{Config: cfg, Logger: util.Discard(), Metrics: m}
	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if res.Steps != 3 || res.Time != 3*units.SecondsPerYear {
		t.Errorf("steps = %d, time = %v", res.Steps, res.Time)
	}
	if res.Chain != "frac_P <- constant" {
		t.Errorf("chain = %q", res.Chain)
	}
	if m.Steps() != 3 {
		t.Errorf("metrics steps = %d", m.Steps())
	}

	if len(res.Sites) != 2 {
		t.Fatalf("sites = %+v", res.Sites)
	}
	for _, p := range res.Sites {
		if len(p.Times) != 3 || len(p.Precipitation) != 3 || len(p.Temperature) != 3 {
			t.Fatalf("site (%d,%d) lengths: %+v", p.I, p.J, p)
		}
		for k := range p.Times {
			if p.Precipitation[k] != 2.0 {
				t.Errorf("site (%d,%d) precipitation[%d] = %v, want 2", p.I, p.J, k, p.Precipitation[k])
			}
			if want := expectedTemp(p.I, p.J); p.Temperature[k] != want {
				t.Errorf("site (%d,%d) temperature[%d] = %v, want %v", p.I, p.J, k, p.Temperature[k], want)
			}
		}
	}

	r, err := ncio.Open(res.Output, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if got := r.StringAttribute("", "run_id"); got != res.RunID || got == "" {
		t.Errorf("run_id = %q, want %q", got, res.RunID)
	}
	if got := r.StringAttribute("", "atmosphere_model"); got != res.Chain {
		t.Errorf("atmosphere_model = %q", got)
	}
	source := r.StringAttribute("", "source")
	if !strings.Contains(source, "input.nc blake2b-256:") || !strings.Contains(source, "frac_P.nc blake2b-256:") {
		t.Errorf("source = %q", source)
	}

	g, err := LoadGrid(cfg.Input.File, false, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	precip := g.NewField(field.Metadata{Name: atmosphere.VarPrecipitation, Units: "m / s"})
	if err := r.ReadField(atmosphere.VarPrecipitation, 0, precip); err != nil {
		t.Fatal(err)
	}
	for k, v := range precip.Values() {
		if diff := v - 2.0; diff > 1e-12 || diff < -1e-12 {
			t.Fatalf("precipitation[%d] = %v, want 2", k, v)
		}
	}
	temp := g.NewField(field.Metadata{Name: atmosphere.VarAirTemp, Units: "Kelvin"})
	if err := r.ReadField(atmosphere.VarAirTemp, 0, temp); err != nil {
		t.Fatal(err)
	}
	temp.BeginAccess()
	defer temp.EndAccess()
	for p := g.Points(); p.Next(); {
		if got, want := temp.At(p.I(), p.J()), expectedTemp(p.I(), p.J()); got != want {
			t.Errorf("air_temp(%d,%d) = %v, want %v", p.I(), p.J(), got, want)
		}
	}
}

// TestDriver_BootstrapDefault verifies that a bootstrap run fills
// missing precipitation from the configured default.
func TestDriver_BootstrapDefault(t *testing.T) {
	def := 0.125
	cfg := driverConfig(writeInput(t, 0, false))
	cfg.Input.Bootstrap = true
	cfg.Input.PrecipitationDefault = &def
	cfg.Output.Sites = []config.Site{{I: 0, J: 0}}

	d := &Driver{Config: cfg, Logger: util.Discard()}
	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range res.Sites[0].Precipitation {
		if v != def {
			t.Errorf("precipitation[%d] = %v, want %v", k, v, def)
		}
	}
	if res.Output != "" {
		t.Errorf("no output requested, got %q", res.Output)
	}
}

// TestDriver_MissingPrecipitationIsFatal verifies that a strict run
// aborts with an error naming the variable and the file.
func TestDriver_MissingPrecipitationIsFatal(t *testing.T) {
	input := writeInput(t, 0, false)
	m := metrics.New()
	d := &Driver{Config: driverConfig(input), Logger: util.Discard(), Metrics: m}

	_, err := d.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !aferrors.IsFatalData(err) || !aferrors.Is(err, aferrors.ErrVariableNotFound) {
		t.Errorf("unexpected error type: %v", err)
	}
	if !strings.Contains(err.Error(), "precipitation") || !strings.Contains(err.Error(), input) {
		t.Errorf("error should name variable and file: %v", err)
	}
	if m.ErrorCount() != 1 {
		t.Errorf("error count = %d", m.ErrorCount())
	}
}

// TestDriver_Cancelled verifies that a cancelled run stops stepping but
// still writes its diagnostics.
func TestDriver_Cancelled(t *testing.T) {
	cfg := driverConfig(writeInput(t, 1.0, true))
	cfg.Output.File = filepath.Join(t.TempDir(), "out.nc")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &Driver{Config: cfg, Logger: util.Discard()}
	res, err := d.Run(ctx)
	if !aferrors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res == nil || res.Steps != 0 {
		t.Fatalf("result = %+v", res)
	}
	if _, err := os.Stat(cfg.Output.File); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

// TestDriver_SiteOutsideGrid verifies site indices are checked
// against the loaded grid.
func TestDriver_SiteOutsideGrid(t *testing.T) {
	cfg := driverConfig(writeInput(t, 1.0, true))
	cfg.Output.Sites = []config.Site{{I: 4, J: 0}}

	d := &Driver{Config: cfg, Logger: util.Discard()}
	_, err := d.Run(context.Background())
	var ce *aferrors.ConfigError
	if !aferrors.As(err, &ce) || ce.Field != "output.sites[0]" {
		t.Fatalf("expected site ConfigError, got %v", err)
	}
}

// TestDriver_ProfileSmall verifies that the small profile writes only
// the base provider's precipitation.
func TestDriver_ProfileSmall(t *testing.T) {
	cfg := driverConfig(writeInput(t, 1.0, true))
	cfg.Output.File = filepath.Join(t.TempDir(), "out.nc")
	cfg.Output.Profile = "small"

	d := &Driver{Config: cfg, Logger: util.Discard()}
	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	r, err := ncio.Open(res.Output, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if !r.Has(atmosphere.VarPrecipitation) || r.Has(atmosphere.VarAirTemp) {
		t.Errorf("variables = %v", r.Variables())
	}
}

func TestLoadGrid(t *testing.T) {
	input := writeInput(t, 1.0, true)
	for _, bootstrap := range []bool{false, true} {
		g, err := LoadGrid(input, bootstrap, 0, nil)
		if err != nil {
			t.Fatalf("bootstrap=%v: %v", bootstrap, err)
		}
		if g.Mx() != 4 || g.My() != 3 {
			t.Errorf("grid = %dx%d", g.Mx(), g.My())
		}
		elev, err := g.Variables().Get(grid.SurfaceAltitude)
		if err != nil {
			t.Fatal(err)
		}
		elev.BeginAccess()
		if got := elev.At(2, 1); got != elevationAt(2, 1) {
			t.Errorf("bootstrap=%v: elevation(2,1) = %v", bootstrap, got)
		}
		elev.EndAccess()
		if !g.Variables().Has(grid.Latitude) {
			t.Error("latitude not registered")
		}
	}
}

func TestLoadGrid_MissingFile(t *testing.T) {
	_, err := LoadGrid(filepath.Join(t.TempDir(), "none.nc"), false, 0, nil)
	if !aferrors.IsFatalData(err) {
		t.Errorf("expected data error, got %v", err)
	}
}
