package ncio

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"

	aferrors "atmoforce/internal/errors"
	"atmoforce/internal/timeseries"
	"atmoforce/internal/units"
)

// ReadSeries loads s from variable s.Name, indexed by the coordinate
// variable named after s.Dimension.  Values are converted into s.Units
// and times into s.TimeUnits when the file records different units.
func (r *Reader) ReadSeries(s *timeseries.Series) error {
	if !r.Has(s.Name) {
		return aferrors.NotFound("read", r.path, s.Name)
	}
	if dims := r.nc.Header.Dimensions(s.Name); len(dims) != 1 || dims[0] != s.Dimension {
		return aferrors.WrapData("read", r.path, s.Name,
			fmt.Errorf("expected a single dimension %q, found %v", s.Dimension, dims))
	}
	times, err := r.ReadVector(s.Dimension)
	if err != nil {
		return err
	}
	values, err := r.ReadVector(s.Name)
	if err != nil {
		return err
	}
	if err := r.convertUnits(s.Name, s.Units, values); err != nil {
		return err
	}
	if err := r.convertUnits(s.Dimension, s.TimeUnits, times); err != nil {
		return err
	}
	if ln := r.StringAttribute(s.Name, "long_name"); ln != "" && s.LongName == "" {
		s.LongName = ln
	}
	if err := s.SetData(times, values); err != nil {
		return aferrors.WrapData("read", r.path, s.Name, err)
	}
	r.metrics.FieldRead()
	return nil
}

// CreateSeries writes s to a new netCDF file at path, with the time
// coordinate stored under s.Dimension.
func CreateSeries(path string, s *timeseries.Series) error {
	if s.Len() == 0 {
		return aferrors.WrapData("write", path, s.Name, fmt.Errorf("series has no samples"))
	}
	if s.Name == s.Dimension {
		return aferrors.WrapData("write", path, s.Name, fmt.Errorf("series name collides with its dimension"))
	}
	for _, u := range []string{s.Units, s.TimeUnits} {
		if _, err := units.NewConverter(u, u); err != nil {
			return aferrors.WrapData("write", path, s.Name, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return aferrors.WrapData("create", path, "", err)
	}
	defer f.Close()

	h := cdf.NewHeader([]string{s.Dimension}, []int{s.Len()})
	h.AddVariable(s.Dimension, []string{s.Dimension}, []float64{0})
	h.AddAttribute(s.Dimension, "units", s.TimeUnits)
	h.AddAttribute(s.Dimension, "axis", "T")
	h.AddVariable(s.Name, []string{s.Dimension}, []float64{0})
	h.AddAttribute(s.Name, "units", s.Units)
	if s.LongName != "" {
		h.AddAttribute(s.Name, "long_name", s.LongName)
	}
	h.Define()

	nc, err := cdf.Create(f, h)
	if err != nil {
		return aferrors.WrapData("create", path, "", err)
	}
	for name, vals := range map[string][]float64{s.Dimension: s.Times(), s.Name: s.Values()} {
		if _, err := nc.Writer(name, []int{0}, []int{len(vals)}).Write(vals); err != nil {
			return aferrors.WrapData("write", path, name, err)
		}
	}
	if err := cdf.UpdateNumRecs(f); err != nil {
		return aferrors.WrapData("write", path, "", err)
	}
	return f.Close()
}
