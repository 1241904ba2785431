package ncio

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/ctessum/cdf"
	"github.com/google/uuid"

	aferrors "atmoforce/internal/errors"
	"atmoforce/internal/field"
	"atmoforce/internal/grid"
	"atmoforce/internal/metrics"
	"atmoforce/internal/units"
)

type writerMode int

const (
	modeDefine writerMode = iota
	modeData
	modeClosed
)

type definition struct {
	meta  field.Metadata
	units string // units recorded in the file
}

// Writer creates a netCDF output file in two phases.  In define mode
// Define records variables and Attribute records global attributes;
// EndDefine writes the header and coordinates; in data mode Write
// stores each defined variable exactly once.  Defining or writing a
// name twice is an error, so a chain of models that partitions its
// variable set correctly never collides.
type Writer struct {
	path    string
	grid    *grid.Grid
	file    *os.File
	nc      *cdf.File
	mode    writerMode
	runID   string
	defs    map[string]definition
	order   []string
	written map[string]bool
	global  map[string]string
	metrics *metrics.Collector
}

// Create opens path for writing diagnostics on g.  m may be nil.
func Create(path string, g *grid.Grid, m *metrics.Collector) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, aferrors.WrapData("create", path, "", err)
	}
	w := &Writer{
		path:    path,
		grid:    g,
		file:    f,
		runID:   uuid.NewString(),
		defs:    make(map[string]definition),
		written: make(map[string]bool),
		global:  make(map[string]string),
		metrics: m,
	}
	w.global["run_id"] = w.runID
	w.global["history"] = fmt.Sprintf("%s: created by atmoforce", time.Now().UTC().Format(time.RFC3339))
	return w, nil
}

// Path returns the output file name.
func (w *Writer) Path() string { return w.path }

// RunID returns the identifier stamped into the file's global attributes.
func (w *Writer) RunID() string { return w.runID }

// Attribute sets a global text attribute.  Define mode only.
func (w *Writer) Attribute(name, value string) error {
	if w.mode != modeDefine {
		return aferrors.WrapData("define", w.path, name, aferrors.ErrDefineMode)
	}
	w.global[name] = value
	return nil
}

// Define records a (y, x) variable described by meta.  Values are later
// written in meta.OutputUnits().
func (w *Writer) Define(meta field.Metadata) error {
	if w.mode != modeDefine {
		return aferrors.WrapData("define", w.path, meta.Name, aferrors.ErrDefineMode)
	}
	if meta.Name == DimX || meta.Name == DimY {
		return aferrors.WrapData("define", w.path, meta.Name, fmt.Errorf("name is reserved for a coordinate"))
	}
	if _, ok := w.defs[meta.Name]; ok {
		return aferrors.WrapData("define", w.path, meta.Name, fmt.Errorf("variable is already defined"))
	}
	w.defs[meta.Name] = definition{meta: meta, units: meta.OutputUnits()}
	w.order = append(w.order, meta.Name)
	return nil
}

// IsDefined reports whether name has been defined.
func (w *Writer) IsDefined(name string) bool {
	_, ok := w.defs[name]
	return ok
}

// Defined returns the defined variable names in definition order.
func (w *Writer) Defined() []string { return append([]string(nil), w.order...) }

// EndDefine writes the header and the coordinate variables and switches
// to data mode.
func (w *Writer) EndDefine() error {
	if w.mode != modeDefine {
		return aferrors.WrapData("define", w.path, "", aferrors.ErrDefineMode)
	}
	h := cdf.NewHeader([]string{DimY, DimX}, []int{w.grid.My(), w.grid.Mx()})

	keys := make([]string, 0, len(w.global))
	for k := range w.global {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.AddAttribute("", k, w.global[k])
	}
	h.AddAttribute("", "Conventions", "CF-1.5")

	h.AddVariable(DimX, []string{DimX}, []float64{0})
	h.AddAttribute(DimX, "units", "m")
	h.AddAttribute(DimX, "axis", "X")
	h.AddAttribute(DimX, "long_name", "X-coordinate in Cartesian system")
	h.AddVariable(DimY, []string{DimY}, []float64{0})
	h.AddAttribute(DimY, "units", "m")
	h.AddAttribute(DimY, "axis", "Y")
	h.AddAttribute(DimY, "long_name", "Y-coordinate in Cartesian system")

	for _, name := range w.order {
		d := w.defs[name]
		h.AddVariable(name, []string{DimY, DimX}, []float64{0})
		h.AddAttribute(name, "units", d.units)
		if d.meta.LongName != "" {
			h.AddAttribute(name, "long_name", d.meta.LongName)
		}
		if d.meta.StandardName != "" {
			h.AddAttribute(name, "standard_name", d.meta.StandardName)
		}
		if d.meta.Intent != "" {
			h.AddAttribute(name, "pism_intent", d.meta.Intent)
		}
	}
	h.Define()

	nc, err := cdf.Create(w.file, h)
	if err != nil {
		return aferrors.WrapData("define", w.path, "", err)
	}
	w.nc = nc
	w.mode = modeData

	if err := w.writeValues(DimX, w.grid.X()); err != nil {
		return err
	}
	return w.writeValues(DimY, w.grid.Y())
}

// Write stores f's values under its name, converting from the field's
// storage units to the units chosen at definition time.
func (w *Writer) Write(f *field.Field) error {
	name := f.Name()
	if w.mode != modeData {
		return aferrors.WrapData("write", w.path, name, aferrors.ErrDataMode)
	}
	d, ok := w.defs[name]
	if !ok {
		return aferrors.WrapData("write", w.path, name, fmt.Errorf("variable was not defined"))
	}
	if w.written[name] {
		return aferrors.WrapData("write", w.path, name, fmt.Errorf("variable was already written"))
	}
	if f.Mx() != w.grid.Mx() || f.My() != w.grid.My() {
		return aferrors.WrapData("write", w.path, name, aferrors.ErrShapeMismatch)
	}

	vals := append([]float64(nil), f.Values()...)
	from := f.Metadata().Units
	if from != "" && d.units != "" && from != d.units {
		c, err := units.NewConverter(from, d.units)
		if err != nil {
			return aferrors.WrapData("write", w.path, name, err)
		}
		for k := range vals {
			vals[k] = c.Convert(vals[k])
		}
	}
	if err := w.writeValues(name, vals); err != nil {
		return err
	}
	w.written[name] = true
	w.metrics.VariableWritten()
	return nil
}

// Written returns the names written so far, sorted.
func (w *Writer) Written() []string {
	out := make([]string, 0, len(w.written))
	for n := range w.written {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (w *Writer) writeValues(name string, vals []float64) error {
	end := w.nc.Header.Lengths(name)
	begin := make([]int, len(end))
	if _, err := w.nc.Writer(name, begin, end).Write(vals); err != nil {
		return aferrors.WrapData("write", w.path, name, err)
	}
	return nil
}

// Close finishes the file.  A writer closed while still in define mode
// writes the header first, so the file is always valid netCDF.
func (w *Writer) Close() error {
	if w.mode == modeClosed {
		return nil
	}
	var errs []error
	if w.mode == modeDefine {
		if err := w.EndDefine(); err != nil {
			errs = append(errs, err)
		}
	}
	if w.mode == modeData {
		if err := cdf.UpdateNumRecs(w.file); err != nil {
			errs = append(errs, err)
		}
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, err)
	}
	w.mode = modeClosed
	if len(errs) > 0 {
		return aferrors.WrapData("close", w.path, "", aferrors.Join(errs...))
	}
	return nil
}
