package core

import (
	"fmt"
	"strings"

	"atmoforce/atmosphere"
	"atmoforce/config"
	aferrors "atmoforce/internal/errors"
	"atmoforce/internal/grid"
	"atmoforce/internal/metrics"
	"atmoforce/internal/units"
	"atmoforce/util"
)

// Build constructs the model chain described by cfg on grid g: the base
// provider named by cfg.Atmosphere.Model, wrapped by each configured
// modifier in order so that the last one is outermost.
//
// This is the single dispatch point between configuration and the
// atmosphere registry.  The returned model is constructed but not
// initialized.
func Build(cfg *config.Config, g *grid.Grid, logger *util.Logger, m *metrics.Collector) (atmosphere.Model, error) {
	env := atmosphere.Env{
		Grid:      g,
		Log:       logger,
		Metrics:   m,
		Input:     buildInput(cfg),
		StartTime: cfg.Time.Start * units.SecondsPerYear,
	}

	model, err := buildLink(env, "atmosphere.model", cfg.Atmosphere.Model, atmosphere.KindProvider, nil)
	if err != nil {
		return nil, err
	}

	for k, mod := range cfg.Atmosphere.Modifiers {
		env.Source = buildSource(cfg, mod)
		field := fmt.Sprintf("atmosphere.modifiers[%d].name", k)
		if model, err = buildLink(env, field, mod.Name, atmosphere.KindModifier, model); err != nil {
			return nil, err
		}
	}

	logger.Verbose("atmosphere model chain: %s", Describe(model))
	return model, nil
}

// Describe renders a chain outermost first, e.g. "delta_T <- frac_P <- constant".
func Describe(m atmosphere.Model) string {
	var names []string
	for m != nil {
		names = append(names, m.Name())
		w, ok := m.(interface{ Inner() atmosphere.Model })
		if !ok {
			break
		}
		m = w.Inner()
	}
	return strings.Join(names, " <- ")
}

// ── link builders ────────────────────────────────────────────────────

func buildLink(env atmosphere.Env, field, name string, want atmosphere.Kind, inner atmosphere.Model) (atmosphere.Model, error) {
	factory, kind, err := atmosphere.Lookup(name)
	if err != nil || kind != want {
		return nil, aferrors.NewConfig(field, name, fmt.Sprintf("not a known %s", want),
			fmt.Sprintf("available: %s", strings.Join(atmosphere.ListKind(want), ", ")))
	}
	model, err := factory(env, inner)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", name, err)
	}
	return model, nil
}

func buildInput(cfg *config.Config) atmosphere.InputOptions {
	in := atmosphere.InputOptions{
		Filename: cfg.Input.File,
		Type:     atmosphere.InitRegular,
		Record:   cfg.Input.Record,
		Fallback: cfg.Input.PrecipitationDefault,
	}
	if cfg.Input.Bootstrap {
		in.Type = atmosphere.InitBootstrap
	}
	return in
}

func buildSource(cfg *config.Config, mod config.ModifierConfig) atmosphere.ForcingSource {
	return atmosphere.ForcingSource{
		File:          mod.File,
		TimeDimension: cfg.Time.DimensionName,
		Period:        mod.Period * units.SecondsPerYear,
		ReferenceTime: mod.ReferenceYear * units.SecondsPerYear,
	}
}
