package ncio

import (
	"fmt"
	"sort"

	aferrors "atmoforce/internal/errors"
	"atmoforce/internal/field"
)

// RegridField fills dst from variable name by bilinear interpolation
// from the file's x/y coordinates onto the target coordinates x, y.
// For a (time, y, x) variable the last record is used.  Targets outside
// the file's extent take the nearest edge value.
//
// If the variable is absent and critical is set, the error names the
// variable and file.  If it is absent and critical is not set, dst is
// filled with fallback and the returned bool is false.
func (r *Reader) RegridField(name string, dst *field.Field, x, y []float64, critical bool, fallback float64) (bool, error) {
	dims := r.nc.Header.Lengths(name)
	if len(dims) == 0 {
		if critical {
			return false, aferrors.NotFound("regrid", r.path, name)
		}
		dst.Fill(fallback)
		return false, nil
	}
	if len(x) != dst.Mx() || len(y) != dst.My() {
		return false, fmt.Errorf("regrid %s: target coordinates do not match field shape", name)
	}

	srcX, srcY, err := r.Coords()
	if err != nil {
		return false, err
	}

	var begin, end []int
	switch len(dims) {
	case 2:
		begin, end = []int{0, 0}, []int{dims[0], dims[1]}
	case 3:
		if dims[0] == 0 {
			return false, aferrors.WrapData("regrid", r.path, name, fmt.Errorf("no records"))
		}
		last := dims[0] - 1
		begin, end = []int{last, 0, 0}, []int{last + 1, dims[1], dims[2]}
		dims = dims[1:]
	default:
		return false, aferrors.WrapData("regrid", r.path, name,
			fmt.Errorf("expected 2 or 3 dimensions, found %d", len(dims)))
	}
	if dims[0] != len(srcY) || dims[1] != len(srcX) {
		return false, aferrors.WrapData("regrid", r.path, name,
			fmt.Errorf("%w: variable is %dx%d but coordinates are %dx%d",
				aferrors.ErrShapeMismatch, dims[1], dims[0], len(srcX), len(srcY)))
	}

	src, err := r.read(name, begin, end, dims[0]*dims[1])
	if err != nil {
		return false, err
	}
	if err := r.convertUnits(name, dst.Metadata().Units, src); err != nil {
		return false, err
	}

	out := make([]float64, dst.Len())
	nx := len(srcX)
	for j, ty := range y {
		j0, j1, wy := bracket(srcY, ty)
		for i, tx := range x {
			i0, i1, wx := bracket(srcX, tx)
			a := src[j0*nx+i0]*(1-wx) + src[j0*nx+i1]*wx
			b := src[j1*nx+i0]*(1-wx) + src[j1*nx+i1]*wx
			out[j*len(x)+i] = a*(1-wy) + b*wy
		}
	}
	r.metrics.FieldRead()
	return true, dst.SetValues(out)
}

// bracket finds the pair of indices in increasing coords surrounding v
// and the weight of the upper one.  Outside the range both indices
// collapse onto the nearest end.
func bracket(coords []float64, v float64) (lo, hi int, w float64) {
	n := len(coords)
	if n == 1 || v <= coords[0] {
		return 0, 0, 0
	}
	if v >= coords[n-1] {
		return n - 1, n - 1, 0
	}
	hi = sort.SearchFloat64s(coords, v)
	if coords[hi] == v {
		return hi, hi, 0
	}
	lo = hi - 1
	return lo, hi, (v - coords[lo]) / (coords[hi] - coords[lo])
}
