// Package units converts field values between storage units and the
// "glaciological" display units used when writing diagnostics.
//
// Unit strings are normalised (whitespace collapsed, "/" and "-1" forms
// unified) and mapped onto units registered with go-units, which resolves
// the conversion path between them.  Only the linear units atmoforce
// reads or writes are registered.
package units

import (
	"fmt"
	"strings"

	gounits "github.com/bcicen/go-units"
)

// SecondsPerYear is the length of the mean tropical year in seconds, the
// value UDUNITS uses for "year".
const SecondsPerYear = 3.15569259747e7

// namespace keeps registered names clear of the library's own units,
// whose "year" is a calendar year.
const namespace = "atmoforce:"

// definitions must list each base before the units defined from it.
var definitions = []struct {
	name    string
	base    string  // empty for a base unit
	scale   float64 // value in base units = value * scale
	aliases []string
}{
	{name: "1", aliases: []string{""}},
	{name: "K", aliases: []string{"kelvin"}},
	{name: "m"},
	{name: "s", aliases: []string{"seconds", "second"}},
	{name: "year", base: "s", scale: SecondsPerYear, aliases: []string{"years"}},
	{name: "m s-1", aliases: []string{"m second-1"}},
	{name: "m year-1", base: "m s-1", scale: 1 / SecondsPerYear},
	{name: "mm year-1", base: "m s-1", scale: 1e-3 / SecondsPerYear},
	{name: "kg m-2 s-1", aliases: []string{"kg m-2 second-1"}},
	{name: "kg m-2 year-1", base: "kg m-2 s-1", scale: 1 / SecondsPerYear},
	{name: "kg m-2 day-1", base: "kg m-2 s-1", scale: 1 / 86400.0},
	{name: "degree_north", aliases: []string{"degrees_north"}},
	{name: "degree_east", aliases: []string{"degrees_east"}},
}

// known maps every normalised spelling onto its registered unit.
var known = register()

func register() map[string]gounits.Unit {
	out := make(map[string]gounits.Unit)
	for _, d := range definitions {
		u := gounits.NewUnit(namespace+d.name, d.name)
		if d.base != "" {
			gounits.NewRatioConversion(u, out[Normalize(d.base)], d.scale)
		}
		out[Normalize(d.name)] = u
		for _, a := range d.aliases {
			out[Normalize(a)] = u
		}
	}
	return out
}

// Normalize rewrites a unit string into the canonical form used as a key:
// lower-case, single spaces, "a / b" spelled "a b-1".
func Normalize(u string) string {
	u = strings.ToLower(strings.Join(strings.Fields(u), " "))
	if i := strings.Index(u, "/"); i >= 0 {
		num := strings.TrimSpace(u[:i])
		den := strings.TrimSpace(u[i+1:])
		u = num + " " + den + "-1"
	}
	return u
}

func lookup(u string) (gounits.Unit, error) {
	v, ok := known[Normalize(u)]
	if !ok {
		return gounits.Unit{}, fmt.Errorf("units: unknown unit %q", u)
	}
	return v, nil
}

// Converter maps values from one unit to another.
type Converter struct {
	factor float64
}

// NewConverter returns a converter from → to.  The two units must be
// connected by registered conversions.
func NewConverter(from, to string) (Converter, error) {
	f, err := lookup(from)
	if err != nil {
		return Converter{}, err
	}
	t, err := lookup(to)
	if err != nil {
		return Converter{}, err
	}
	if f.Name == t.Name {
		return Converter{factor: 1}, nil
	}
	// Every registered conversion is linear, so the image of 1 is the factor.
	v, err := gounits.ConvertFloat(1, f, t)
	if err != nil {
		return Converter{}, fmt.Errorf("units: cannot convert %q to %q: %w", from, to, err)
	}
	return Converter{factor: v.Float()}, nil
}

// Factor returns the multiplicative conversion factor.
func (c Converter) Factor() float64 { return c.factor }

// Convert converts a single value.
func (c Converter) Convert(v float64) float64 { return v * c.factor }

// Compatible reports whether a and b can be converted into each other.
func Compatible(a, b string) bool {
	_, err := NewConverter(a, b)
	return err == nil
}
