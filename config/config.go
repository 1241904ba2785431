// Package config defines the runtime configuration for atmoforce and
// provides helpers for parsing modifier specifications.
package config

import (
	"fmt"
	"strings"

	"atmoforce/atmosphere"
	aferrors "atmoforce/internal/errors"
)

// Config holds every tuneable for a single forcing run.
type Config struct {
	Input      InputConfig      `yaml:"input"`
	Atmosphere AtmosphereConfig `yaml:"atmosphere"`
	Output     OutputConfig     `yaml:"output"`
	Time       TimeConfig       `yaml:"time"`

	Verbose     int  `yaml:"verbose"`
	ShowMetrics bool `yaml:"metrics"`
}

// InputConfig locates the file the grid and the base provider's fields
// are read from.
type InputConfig struct {
	File      string `yaml:"file"`
	Bootstrap bool   `yaml:"bootstrap"` // regrid instead of strict reads
	Record    int    `yaml:"record"`

	// PrecipitationDefault fills precipitation when bootstrapping from a
	// file that lacks it.  Unset means the field is required.
	PrecipitationDefault *float64 `yaml:"precipitation_default,omitempty"`
}

// AtmosphereConfig selects the model chain: a base provider wrapped by
// modifiers in order, the last one outermost.
type AtmosphereConfig struct {
	Model     string           `yaml:"model"`
	Modifiers []ModifierConfig `yaml:"modifiers"`
}

// ModifierConfig is one link of the chain.
type ModifierConfig struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`

	// Period and ReferenceYear make the forcing periodic, in years.
	Period        float64 `yaml:"period"`
	ReferenceYear float64 `yaml:"reference_year"`
}

// OutputConfig controls the diagnostics file.
type OutputConfig struct {
	File    string `yaml:"file"`
	Profile string `yaml:"profile"` // small, medium or big
	Sites   []Site `yaml:"sites"`
}

// Site is a grid cell whose forcing time series is reported.
type Site struct {
	I int `yaml:"i"`
	J int `yaml:"j"`
}

// TimeConfig sets the run's time axis, in years.
type TimeConfig struct {
	Start         float64 `yaml:"start"`
	End           float64 `yaml:"end"`
	Step          float64 `yaml:"step"`
	DimensionName string  `yaml:"dimension_name"`
}

// ── Modifier-spec parser ─────────────────────────────────────────────

// ParseModifierSpec accepts "name=file" or "name=file:period" (period in
// years), as given to --modifier.
func ParseModifierSpec(spec string) (ModifierConfig, error) {
	name, rest, ok := strings.Cut(spec, "=")
	if !ok || name == "" || rest == "" {
		return ModifierConfig{}, fmt.Errorf("invalid modifier spec %q (expected name=file[:period])", spec)
	}
	m := ModifierConfig{Name: name, File: rest}
	if i := strings.LastIndex(rest, ":"); i > 0 {
		var period float64
		if _, err := fmt.Sscanf(rest[i+1:], "%g", &period); err == nil {
			m.File, m.Period = rest[:i], period
		}
	}
	return m, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent and
// that every model it names is registered.
func (c *Config) Validate() error {
	if c.Input.File == "" {
		return aferrors.NewConfig("input.file", nil,
			"an input file is required",
			"pass --input <file.nc> or set ATMOFORCE_INPUT")
	}
	if c.Input.Record < 0 {
		return aferrors.NewConfig("input.record", c.Input.Record, "must not be negative", "")
	}

	if err := checkModel("atmosphere.model", c.Atmosphere.Model, atmosphere.KindProvider); err != nil {
		return err
	}
	for k, m := range c.Atmosphere.Modifiers {
		field := fmt.Sprintf("atmosphere.modifiers[%d]", k)
		if err := checkModel(field+".name", m.Name, atmosphere.KindModifier); err != nil {
			return err
		}
		if m.File == "" {
			return aferrors.NewConfig(field+".file", nil,
				fmt.Sprintf("%s needs a forcing file", m.Name),
				fmt.Sprintf("use --modifier %s=<file.nc>", m.Name))
		}
		if m.Period < 0 {
			return aferrors.NewConfig(field+".period", m.Period, "must not be negative",
				"use 0 for non-periodic forcing")
		}
	}

	if _, err := atmosphere.ParseProfile(c.Output.Profile); err != nil {
		return aferrors.NewConfig("output.profile", c.Output.Profile, err.Error(), "")
	}
	for k, p := range c.Output.Sites {
		if p.I < 0 || p.J < 0 {
			return aferrors.NewConfig(fmt.Sprintf("output.sites[%d]", k), p,
				"cell indices must not be negative", "")
		}
	}

	if c.Time.Step <= 0 {
		return aferrors.NewConfig("time.step", c.Time.Step, "must be positive",
			fmt.Sprintf("the default is %g year", DefaultStepYears))
	}
	if c.Time.End < c.Time.Start {
		return aferrors.NewConfig("time.end", c.Time.End,
			fmt.Sprintf("ends before time.start (%g)", c.Time.Start), "")
	}
	if c.Time.DimensionName == "" {
		return aferrors.NewConfig("time.dimension_name", nil, "must not be empty",
			fmt.Sprintf("the default is %q", DefaultTimeDimension))
	}

	if c.Verbose < 0 || c.Verbose > 3 {
		return aferrors.NewConfig("verbose", c.Verbose, "must be between 0 and 3", "")
	}
	return nil
}

func checkModel(field, name string, want atmosphere.Kind) error {
	if name == "" {
		return aferrors.NewConfig(field, nil, "model name is required",
			fmt.Sprintf("available: %s", strings.Join(atmosphere.ListKind(want), ", ")))
	}
	_, kind, err := atmosphere.Lookup(name)
	if err != nil || kind != want {
		return aferrors.NewConfig(field, name, fmt.Sprintf("not a known %s", want),
			fmt.Sprintf("available: %s", strings.Join(atmosphere.ListKind(want), ", ")))
	}
	return nil
}
