// Package ncio reads forcing data from and writes diagnostics to netCDF
// (classic format) files.
//
// Reads come in two flavours: strict (ReadField: the variable must exist
// on exactly the target grid) and tolerant (RegridField: interpolate
// from the file's own x/y coordinates, used when bootstrapping).
// Writes follow netCDF's define-then-write protocol; see Writer.
package ncio

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"

	aferrors "atmoforce/internal/errors"
	"atmoforce/internal/field"
	"atmoforce/internal/metrics"
	"atmoforce/internal/units"
)

// Coordinate variable names.
const (
	DimX = "x"
	DimY = "y"
)

// Reader is an open netCDF input file.
type Reader struct {
	path    string
	file    *os.File
	nc      *cdf.File
	metrics *metrics.Collector
}

// Open opens path for reading.  m may be nil.
func Open(path string, m *metrics.Collector) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, aferrors.WrapData("open", path, "", err)
	}
	nc, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, aferrors.WrapData("open", path, "", err)
	}
	return &Reader{path: path, file: f, nc: nc, metrics: m}, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error { return r.file.Close() }

// Path returns the file name the reader was opened with.
func (r *Reader) Path() string { return r.path }

// Has reports whether the file defines variable name.
func (r *Reader) Has(name string) bool {
	return len(r.nc.Header.Lengths(name)) > 0
}

// Variables lists the variables in the file.
func (r *Reader) Variables() []string { return r.nc.Header.Variables() }

// StringAttribute returns a text attribute of variable v ("" for global
// attributes), or "" if absent.
func (r *Reader) StringAttribute(v, name string) string {
	s, _ := r.nc.Header.GetAttribute(v, name).(string)
	return s
}

// NumRecords returns the length of the leading dimension of a 3-D
// (time, y, x) variable, or 1 for a 2-D variable.
func (r *Reader) NumRecords(name string) int {
	dims := r.nc.Header.Lengths(name)
	if len(dims) == 3 {
		return dims[0]
	}
	return 1
}

// ReadField reads variable name into dst.  The variable must be
// (y, x) or (time, y, x) with exactly dst's shape; for the latter the
// given record is read.  A missing variable is always an error.
func (r *Reader) ReadField(name string, record int, dst *field.Field) error {
	dims := r.nc.Header.Lengths(name)
	if len(dims) == 0 {
		return aferrors.NotFound("read", r.path, name)
	}

	var begin, end []int
	switch len(dims) {
	case 2:
		begin, end = []int{0, 0}, []int{dims[0], dims[1]}
	case 3:
		if record < 0 || record >= dims[0] {
			return aferrors.WrapData("read", r.path, name,
				fmt.Errorf("record %d out of range (file has %d)", record, dims[0]))
		}
		begin, end = []int{record, 0, 0}, []int{record + 1, dims[1], dims[2]}
		dims = dims[1:]
	default:
		return aferrors.WrapData("read", r.path, name,
			fmt.Errorf("expected 2 or 3 dimensions, found %d", len(dims)))
	}

	if dims[0] != dst.My() || dims[1] != dst.Mx() {
		return aferrors.WrapData("read", r.path, name,
			fmt.Errorf("%w: file has %dx%d, grid has %dx%d",
				aferrors.ErrShapeMismatch, dims[1], dims[0], dst.Mx(), dst.My()))
	}

	vals, err := r.read(name, begin, end, dims[0]*dims[1])
	if err != nil {
		return err
	}
	if err := r.convertUnits(name, dst.Metadata().Units, vals); err != nil {
		return err
	}
	r.metrics.FieldRead()
	return dst.SetValues(vals)
}

// ReadVector reads a whole 1-D variable, e.g. a coordinate.
func (r *Reader) ReadVector(name string) ([]float64, error) {
	dims := r.nc.Header.Lengths(name)
	if len(dims) == 0 {
		return nil, aferrors.NotFound("read", r.path, name)
	}
	if len(dims) != 1 {
		return nil, aferrors.WrapData("read", r.path, name,
			fmt.Errorf("expected 1 dimension, found %d", len(dims)))
	}
	return r.read(name, []int{0}, []int{dims[0]}, dims[0])
}

// Coords reads the x and y coordinate variables.
func (r *Reader) Coords() (x, y []float64, err error) {
	if x, err = r.ReadVector(DimX); err != nil {
		return nil, nil, err
	}
	if y, err = r.ReadVector(DimY); err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

func (r *Reader) read(name string, begin, end []int, n int) ([]float64, error) {
	rd := r.nc.Reader(name, begin, end)
	buf := rd.Zero(n)
	if _, err := rd.Read(buf); err != nil {
		return nil, aferrors.WrapData("read", r.path, name, err)
	}
	vals, err := toFloat64(buf)
	if err != nil {
		return nil, aferrors.WrapData("read", r.path, name, err)
	}
	return vals, nil
}

// convertUnits rescales vals in place from the file's units attribute to
// want.  Variables without a units attribute are taken as-is.
func (r *Reader) convertUnits(name, want string, vals []float64) error {
	have := r.StringAttribute(name, "units")
	if have == "" || want == "" || have == want {
		return nil
	}
	c, err := units.NewConverter(have, want)
	if err != nil {
		return aferrors.WrapData("read", r.path, name, err)
	}
	for k := range vals {
		vals[k] = c.Convert(vals[k])
	}
	return nil
}

func toFloat64(buf interface{}) ([]float64, error) {
	switch v := buf.(type) {
	case []float64:
		return v, nil
	case []float32:
		out := make([]float64, len(v))
		for k, x := range v {
			out[k] = float64(x)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(v))
		for k, x := range v {
			out[k] = float64(x)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(v))
		for k, x := range v {
			out[k] = float64(x)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported variable type %T", buf)
	}
}
