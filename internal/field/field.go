// Package field provides the gridded 2-D scalar field exchanged between
// atmosphere models and the host driver.
//
// Values live in a [sparse.DenseArray] of shape [My, Mx].  Whole-field
// operations (copy, scale, shift) work on the backing slice directly;
// pointwise reads and writes go through At and Set and are only legal
// inside an access window opened with BeginAccess.
package field

import (
	"fmt"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"

	aferrors "atmoforce/internal/errors"
)

// Metadata describes a field for logging and for netCDF output.
type Metadata struct {
	Name         string
	Intent       string // "model_state", "diagnostic", "climate_forcing"
	LongName     string
	StandardName string
	Units        string

	// GlaciologicalUnits is the display unit used when
	// WriteInGlaciologicalUnits is set.  Empty means "same as Units".
	GlaciologicalUnits        string
	WriteInGlaciologicalUnits bool

	// TimeIndependent fields are only recomputed on re-initialization.
	TimeIndependent bool
}

// OutputUnits returns the unit values are written in.
func (m Metadata) OutputUnits() string {
	if m.WriteInGlaciologicalUnits && m.GlaciologicalUnits != "" {
		return m.GlaciologicalUnits
	}
	return m.Units
}

// Field is a 2-D scalar array over the grid's owned tile.
type Field struct {
	meta   Metadata
	data   *sparse.DenseArray
	access int
}

// New allocates a zero-filled field of mx × my cells.
func New(meta Metadata, mx, my int) *Field {
	return &Field{meta: meta, data: sparse.ZerosDense(my, mx)}
}

// Metadata returns a copy of the field's metadata.
func (f *Field) Metadata() Metadata { return f.meta }

// SetMetadata replaces the field's metadata.  Values are untouched.
func (f *Field) SetMetadata(m Metadata) { f.meta = m }

// Name is shorthand for Metadata().Name.
func (f *Field) Name() string { return f.meta.Name }

// Mx returns the number of cells in x.
func (f *Field) Mx() int { return f.data.Shape[1] }

// My returns the number of cells in y.
func (f *Field) My() int { return f.data.Shape[0] }

// Len returns the number of cells.
func (f *Field) Len() int { return len(f.data.Elements) }

// Values exposes the backing slice in row-major (y, x) order.  Callers
// must not retain it past the next whole-field operation.
func (f *Field) Values() []float64 { return f.data.Elements }

// BeginAccess opens a pointwise access window.  Windows nest.
func (f *Field) BeginAccess() { f.access++ }

// EndAccess closes the innermost access window.
func (f *Field) EndAccess() {
	if f.access == 0 {
		panic(fmt.Sprintf("field %s: EndAccess without matching BeginAccess", f.meta.Name))
	}
	f.access--
}

// InAccess reports whether an access window is open.
func (f *Field) InAccess() bool { return f.access > 0 }

// At returns the value at cell (i, j), i along x and j along y.
func (f *Field) At(i, j int) float64 {
	f.mustAccess()
	return f.data.Get(j, i)
}

// Set stores v at cell (i, j).
func (f *Field) Set(i, j int, v float64) {
	f.mustAccess()
	f.data.Set(v, j, i)
}

func (f *Field) mustAccess() {
	if f.access == 0 {
		panic(fmt.Sprintf("field %s: pointwise access outside BeginAccess/EndAccess", f.meta.Name))
	}
}

// SameShape reports whether f and g cover the same cells.
func (f *Field) SameShape(g *Field) bool {
	return f.Mx() == g.Mx() && f.My() == g.My()
}

// CopyFrom copies src's values into f.  Metadata is not copied.
func (f *Field) CopyFrom(src *Field) error {
	if !f.SameShape(src) {
		return fmt.Errorf("copy %s into %s: %w (%dx%d vs %dx%d)",
			src.meta.Name, f.meta.Name, aferrors.ErrShapeMismatch,
			src.Mx(), src.My(), f.Mx(), f.My())
	}
	copy(f.data.Elements, src.data.Elements)
	return nil
}

// SetValues copies vals (row-major, y then x) into f.
func (f *Field) SetValues(vals []float64) error {
	if len(vals) != len(f.data.Elements) {
		return fmt.Errorf("set %s: %w (%d values for %d cells)",
			f.meta.Name, aferrors.ErrShapeMismatch, len(vals), len(f.data.Elements))
	}
	copy(f.data.Elements, vals)
	return nil
}

// Fill sets every cell to v.
func (f *Field) Fill(v float64) {
	for i := range f.data.Elements {
		f.data.Elements[i] = v
	}
}

// Scale multiplies every cell by c.
func (f *Field) Scale(c float64) { floats.Scale(c, f.data.Elements) }

// Shift adds c to every cell.
func (f *Field) Shift(c float64) { floats.AddConst(c, f.data.Elements) }

// Range returns the minimum and maximum cell values.
func (f *Field) Range() (lo, hi float64) {
	if len(f.data.Elements) == 0 {
		return 0, 0
	}
	return floats.Min(f.data.Elements), floats.Max(f.data.Elements)
}

// Mean returns the arithmetic mean over all cells.
func (f *Field) Mean() float64 {
	if len(f.data.Elements) == 0 {
		return 0
	}
	return floats.Sum(f.data.Elements) / float64(len(f.data.Elements))
}

// Equal reports whether f and g hold identical values.
func (f *Field) Equal(g *Field) bool {
	return f.SameShape(g) && floats.Equal(f.data.Elements, g.data.Elements)
}
