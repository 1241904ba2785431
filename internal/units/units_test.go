package units

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"m / year", "m year-1"},
		{"m / s", "m s-1"},
		{"  kg  m-2   year-1 ", "kg m-2 year-1"},
		{"Kelvin", "kelvin"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestConverter(t *testing.T) {
	tests := []struct {
		from, to string
		in, want float64
	}{
		{"m / s", "m / year", 1, SecondsPerYear},
		{"kg m-2 second-1", "kg m-2 year-1", 2, 2 * SecondsPerYear},
		{"m year-1", "m s-1", SecondsPerYear, 1},
		{"K", "Kelvin", 273.15, 273.15},
		{"1", "1", 0.5, 0.5},
		{"years", "seconds", 1, SecondsPerYear},
		{"mm / year", "m year-1", 1000, 1},
		{"kg m-2 day-1", "kg m-2 year-1", 1, SecondsPerYear / 86400},
		{"kg m-2 year-1", "kg m-2 s-1", 910 * SecondsPerYear, 910},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			c, err := NewConverter(tt.from, tt.to)
			if err != nil {
				t.Fatal(err)
			}
			got := c.Convert(tt.in)
			if math.Abs(got-tt.want) > 1e-9*math.Abs(tt.want) {
				t.Errorf("Convert(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestConverter_Incompatible(t *testing.T) {
	if _, err := NewConverter("K", "m / year"); err == nil {
		t.Error("expected error converting temperature to velocity")
	}
	if _, err := NewConverter("furlongs", "m"); err == nil {
		t.Error("expected error for unknown unit")
	}
	if Compatible("m", "s") {
		t.Error("m and s should not be compatible")
	}
	if !Compatible("m / s", "mm year-1") {
		t.Error("m/s and mm/year should be compatible")
	}
}

// TestConverter_SpellingsShareOneUnit verifies that alternative spellings
// of one unit convert with a factor of exactly 1.
func TestConverter_SpellingsShareOneUnit(t *testing.T) {
	for _, pair := range [][2]string{
		{"kg m-2 second-1", "kg m-2 s-1"},
		{"m / s", "m s-1"},
		{"K", "kelvin"},
		{"degrees_north", "degree_north"},
		{"", "1"},
		{"Seconds", "s"},
	} {
		c, err := NewConverter(pair[0], pair[1])
		if err != nil {
			t.Fatalf("%q -> %q: %v", pair[0], pair[1], err)
		}
		if c.Factor() != 1 {
			t.Errorf("%q -> %q: factor = %v, want 1", pair[0], pair[1], c.Factor())
		}
	}
}
