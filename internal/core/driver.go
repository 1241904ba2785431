// Package core is the orchestration layer.  It loads the grid, builds
// the atmosphere model chain from a Config and steps it through time the
// way a host ice-sheet model would.
//
// Architecture layers (bottom → top):
//
//	field/grid  →  ncio  →  atmosphere  →  core  →  cmd (CLI)
package core

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"atmoforce/atmosphere"
	"atmoforce/config"
	aferrors "atmoforce/internal/errors"
	"atmoforce/internal/field"
	"atmoforce/internal/grid"
	"atmoforce/internal/metrics"
	"atmoforce/internal/ncio"
	"atmoforce/internal/units"
	"atmoforce/util"
)

// Driver runs one forcing experiment: load grid, build and initialize
// the chain, step it from Time.Start to Time.End, report site series and
// write diagnostics.
type Driver struct {
	Config  *config.Config
	Logger  *util.Logger
	Metrics *metrics.Collector // may be nil
}

// Result summarizes a finished (or interrupted) run.
type Result struct {
	Chain  string
	Steps  int
	Time   float64 // model time reached, s
	Output string  // empty when no output file was requested
	RunID  string
	Sites  []SiteSeries
}

// SiteSeries is the forcing time series at one grid cell.
type SiteSeries struct {
	I, J          int
	Times         []float64 // s
	Precipitation []float64
	Temperature   []float64
}

// Run executes the experiment.  The context is checked between time
// steps only; on cancellation the loop stops, diagnostics for the state
// reached so far are still written and the context error is returned
// with the partial Result.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	cfg := d.Config
	profile, err := atmosphere.ParseProfile(cfg.Output.Profile)
	if err != nil {
		return nil, aferrors.NewConfig("output.profile", cfg.Output.Profile, err.Error(), "")
	}

	g, err := LoadGrid(cfg.Input.File, cfg.Input.Bootstrap, cfg.Input.Record, d.Metrics)
	if err != nil {
		return nil, d.fail(err)
	}
	d.Logger.Verbose("grid: %d x %d cells from %s", g.Mx(), g.My(), cfg.Input.File)

	model, err := Build(cfg, g, d.Logger, d.Metrics)
	if err != nil {
		return nil, d.fail(err)
	}
	if err := model.Init(); err != nil {
		return nil, d.fail(err)
	}

	start := cfg.Time.Start * units.SecondsPerYear
	end := cfg.Time.End * units.SecondsPerYear
	step := cfg.Time.Step * units.SecondsPerYear

	times := ReportTimes(start, end, step)
	if err := model.InitTimeseries(times); err != nil {
		return nil, d.fail(err)
	}

	res := &Result{Chain: Describe(model), Time: start}
	runErr := d.step(ctx, model, res, end, step)
	if runErr != nil && ctx.Err() == nil {
		return res, d.fail(runErr)
	}

	if res.Sites, err = d.reportSites(model, g, times); err != nil {
		return res, d.fail(err)
	}
	if cfg.Output.File != "" {
		if err := d.write(model, g, profile, res); err != nil {
			return res, d.fail(err)
		}
	}
	return res, runErr
}

// step advances model from res.Time to end.  Each step is the nominal
// step, shortened to the model's own limit and to the end of the run.
func (d *Driver) step(ctx context.Context, model atmosphere.Model, res *Result, end, step float64) error {
	t := res.Time
	for t < end {
		if err := ctx.Err(); err != nil {
			d.Logger.Warn("interrupted at t = %.4g years after %d steps", t/units.SecondsPerYear, res.Steps)
			return err
		}

		dt := math.Min(step, end-t)
		if limit := model.MaxTimestep(t); limit.Finite() && limit.Value() < dt {
			dt = limit.Value()
		}
		if dt <= 0 {
			return fmt.Errorf("time step at t = %g s is not positive (%s)", t, model.MaxTimestep(t))
		}

		if err := model.Update(t, dt); err != nil {
			return err
		}
		t += dt
		if end-t < 1e-9*step {
			t = end
		}
		res.Steps++
		res.Time = t
		d.Metrics.StepCompleted(t)
		d.Logger.Debug("step %d: t = %.6g years", res.Steps, t/units.SecondsPerYear)
	}
	d.Logger.Verbose("completed %d steps, t = %g years", res.Steps, t/units.SecondsPerYear)
	return nil
}

// reportSites evaluates the forcing time series at each configured cell
// inside a single pointwise access window.
func (d *Driver) reportSites(model atmosphere.Model, g *grid.Grid, times []float64) ([]SiteSeries, error) {
	sites := d.Config.Output.Sites
	if len(sites) == 0 {
		return nil, nil
	}
	for k, p := range sites {
		if p.I >= g.Mx() || p.J >= g.My() {
			return nil, aferrors.NewConfig(fmt.Sprintf("output.sites[%d]", k), p,
				fmt.Sprintf("cell is outside the %dx%d grid", g.Mx(), g.My()), "")
		}
	}

	model.BeginPointwiseAccess()
	defer model.EndPointwiseAccess()

	out := make([]SiteSeries, 0, len(sites))
	for _, p := range sites {
		ps := SiteSeries{I: p.I, J: p.J, Times: append([]float64(nil), times...)}

		buf := util.GetSeries(len(times))
		if err := model.PrecipTimeSeries(p.I, p.J, *buf); err != nil {
			util.PutSeries(buf)
			return nil, err
		}
		ps.Precipitation = append([]float64(nil), *buf...)
		if err := model.TempTimeSeries(p.I, p.J, *buf); err != nil {
			util.PutSeries(buf)
			return nil, err
		}
		ps.Temperature = append([]float64(nil), *buf...)
		util.PutSeries(buf)

		out = append(out, ps)
	}
	d.Metrics.CellsReported(len(out))
	return out, nil
}

// write produces the diagnostics file for the chain's requested
// variables.
func (d *Driver) write(model atmosphere.Model, g *grid.Grid, profile atmosphere.Profile, res *Result) error {
	path := d.Config.Output.File
	w, err := ncio.Create(path, g, d.Metrics)
	if err != nil {
		return err
	}
	defer w.Close()

	source, err := d.sources()
	if err != nil {
		return err
	}
	for name, value := range map[string]string{
		"source":           source,
		"atmosphere_model": res.Chain,
		"output_profile":   profile.String(),
		"model_time":       fmt.Sprintf("%g seconds", res.Time),
	} {
		if err := w.Attribute(name, value); err != nil {
			return err
		}
	}

	vars := atmosphere.NewVarSet()
	model.AddVarsToOutput(profile, vars)
	if err := model.DefineVariables(vars, w); err != nil {
		return err
	}
	if err := w.EndDefine(); err != nil {
		return err
	}
	if err := model.WriteVariables(vars, w); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	res.Output, res.RunID = path, w.RunID()
	d.Logger.Info("wrote %s (%s) to %s", strings.Join(vars.Names(), ", "), profile, path)
	return nil
}

// sources fingerprints every file the run read, for the output's
// "source" attribute.
func (d *Driver) sources() (string, error) {
	files := []string{d.Config.Input.File}
	for _, m := range d.Config.Atmosphere.Modifiers {
		files = append(files, m.File)
	}
	parts := make([]string, 0, len(files))
	for _, f := range files {
		sum, err := ncio.Checksum(f)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("%s blake2b-256:%s", filepath.Base(f), sum))
	}
	return strings.Join(parts, "; "), nil
}

func (d *Driver) fail(err error) error {
	d.Metrics.RecordError(err.Error())
	return err
}

// ── grid and time axis ───────────────────────────────────────────────

// LoadGrid builds the grid from the x/y coordinates of path and
// registers the surface altitude and latitude fields read from it.  In
// bootstrap mode the fields are regridded; otherwise they are read
// strictly from the given record.
func LoadGrid(path string, bootstrap bool, record int, m *metrics.Collector) (*grid.Grid, error) {
	r, err := ncio.Open(path, m)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	x, y, err := r.Coords()
	if err != nil {
		return nil, err
	}
	g, err := grid.FromCoords(x, y)
	if err != nil {
		return nil, aferrors.WrapData("read", path, "", err)
	}

	for _, meta := range []field.Metadata{
		{Name: grid.SurfaceAltitude, Intent: "model_state", LongName: "ice upper surface elevation", StandardName: "surface_altitude", Units: "m"},
		{Name: grid.Latitude, Intent: "mapping", LongName: "latitude", StandardName: "latitude", Units: "degree_north"},
	} {
		f := g.NewField(meta)
		if bootstrap {
			_, err = r.RegridField(meta.Name, f, g.X(), g.Y(), true, 0)
		} else {
			err = r.ReadField(meta.Name, record, f)
		}
		if err != nil {
			return nil, err
		}
		if err := g.Variables().Add(f); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// ReportTimes returns the start time of every step of nominal length
// step in [start, end), in seconds.
func ReportTimes(start, end, step float64) []float64 {
	if step <= 0 || end <= start {
		return []float64{}
	}
	n := int(math.Ceil((end-start)/step - 1e-9))
	out := make([]float64, n)
	for k := range out {
		out[k] = start + float64(k)*step
	}
	return out
}
