package grid

import (
	"fmt"
	"sort"

	aferrors "atmoforce/internal/errors"
	"atmoforce/internal/field"
)

// Names of the fields the host registers for atmosphere models.
const (
	SurfaceAltitude = "surface_altitude"
	Latitude        = "latitude"
)

// Vars is a registry of named fields shared between the host and the
// models it drives.
type Vars struct {
	fields map[string]*field.Field
}

// NewVars returns an empty registry.
func NewVars() *Vars {
	return &Vars{fields: make(map[string]*field.Field)}
}

// Add registers f under its metadata name.  Registering a name twice is
// an error.
func (v *Vars) Add(f *field.Field) error {
	name := f.Name()
	if name == "" {
		return fmt.Errorf("grid: cannot register a field without a name")
	}
	if _, ok := v.fields[name]; ok {
		return fmt.Errorf("grid: field %q is already registered", name)
	}
	v.fields[name] = f
	return nil
}

// Get returns the field registered as name.
func (v *Vars) Get(name string) (*field.Field, error) {
	f, ok := v.fields[name]
	if !ok {
		return nil, fmt.Errorf("grid: field %q: %w", name, aferrors.ErrVariableNotFound)
	}
	return f, nil
}

// Has reports whether name is registered.
func (v *Vars) Has(name string) bool {
	_, ok := v.fields[name]
	return ok
}

// Names returns the registered names in sorted order.
func (v *Vars) Names() []string {
	out := make([]string, 0, len(v.fields))
	for n := range v.fields {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
