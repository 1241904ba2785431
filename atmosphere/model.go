// Package atmosphere supplies gridded near-surface air temperature and
// precipitation to a host ice-sheet model.
//
// Every component implements Model.  Base providers (Constant) compute
// or load the fields themselves; modifiers (ScalarForcing) wrap exactly
// one inner Model, transform some of its outputs and forward the rest.
// Modifiers nest to any depth without the host noticing:
//
//	host → frac_P → delta_T → constant → grid / dataset
//
// Lifecycle: construct, Init (again after a restart), Update once per
// host step, then query fields and diagnostics at any time.  Queries
// before Init return errors.ErrNotInitialized.
package atmosphere

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"atmoforce/internal/field"
	"atmoforce/internal/ncio"
)

// Model is the capability set shared by providers and modifiers.
//
// Field buffers passed to MeanPrecipitation and MeanAnnualTemp belong to
// the caller; callees overwrite them in place.  PrecipTimeSeries and
// TempTimeSeries must be bracketed by BeginPointwiseAccess and
// EndPointwiseAccess, and out must have one entry per report time set by
// InitTimeseries.
type Model interface {
	Name() string

	Init() error
	Update(t, dt float64) error
	MaxTimestep(t float64) MaxTimestep

	MeanPrecipitation(out *field.Field) error
	MeanAnnualTemp(out *field.Field) error

	BeginPointwiseAccess()
	EndPointwiseAccess()
	InitTimeseries(ts []float64) error
	PrecipTimeSeries(i, j int, out []float64) error
	TempTimeSeries(i, j int, out []float64) error

	AddVarsToOutput(p Profile, vars VarSet)
	DefineVariables(vars VarSet, nc *ncio.Writer) error
	WriteVariables(vars VarSet, nc *ncio.Writer) error
}

// Diagnostic variable names.
const (
	VarPrecipitation = "precipitation"
	VarAirTemp       = "air_temp"
)

// ── Output profiles ──────────────────────────────────────────────────

// Profile selects how many optional diagnostics are written.
type Profile int

const (
	ProfileSmall Profile = iota
	ProfileMedium
	ProfileBig
)

var profileNames = [...]string{"small", "medium", "big"}

func (p Profile) String() string {
	if p < 0 || int(p) >= len(profileNames) {
		return fmt.Sprintf("Profile(%d)", int(p))
	}
	return profileNames[p]
}

// ParseProfile maps "small", "medium" or "big" (any case) to a Profile.
func ParseProfile(s string) (Profile, error) {
	for k, name := range profileNames {
		if strings.EqualFold(s, name) {
			return Profile(k), nil
		}
	}
	return ProfileSmall, fmt.Errorf("unknown output profile %q (want small, medium or big)", s)
}

// AtLeast reports whether p is q or more verbose.
func (p Profile) AtLeast(q Profile) bool { return p >= q }

// ── Variable sets ────────────────────────────────────────────────────

// VarSet is a set of diagnostic variable names.
type VarSet map[string]struct{}

// NewVarSet returns a set holding names.
func NewVarSet(names ...string) VarSet {
	s := make(VarSet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name.
func (s VarSet) Add(name string) { s[name] = struct{}{} }

// Remove deletes name.
func (s VarSet) Remove(name string) { delete(s, name) }

// Has reports whether name is in s.
func (s VarSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of names in s.
func (s VarSet) Len() int { return len(s) }

// Clone returns an independent copy of s.
func (s VarSet) Clone() VarSet {
	c := make(VarSet, len(s))
	for n := range s {
		c[n] = struct{}{}
	}
	return c
}

// Names returns the members of s, sorted.
func (s VarSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ── Time step restrictions ───────────────────────────────────────────

// MaxTimestep is the longest step a model allows at a given time.  The
// zero value is unconstrained.
type MaxTimestep struct {
	value  float64
	finite bool
}

// Unconstrained returns a MaxTimestep that imposes no restriction.
func Unconstrained() MaxTimestep { return MaxTimestep{} }

// Limit returns a MaxTimestep of dt seconds.
func Limit(dt float64) MaxTimestep { return MaxTimestep{value: dt, finite: true} }

// Finite reports whether m restricts the step.
func (m MaxTimestep) Finite() bool { return m.finite }

// Value returns the limit in seconds, or +Inf when unconstrained.
func (m MaxTimestep) Value() float64 {
	if !m.finite {
		return math.Inf(1)
	}
	return m.value
}

// Min returns the tighter of m and o.
func (m MaxTimestep) Min(o MaxTimestep) MaxTimestep {
	if !o.finite || (m.finite && m.value <= o.value) {
		return m
	}
	return o
}

func (m MaxTimestep) String() string {
	if !m.finite {
		return "unconstrained"
	}
	return fmt.Sprintf("%g s", m.value)
}
