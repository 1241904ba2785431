package config

// loader.go - configuration loading from a YAML file and environment
// variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Config file  (this file)
//   4. Defaults   (defaults.go)

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML config file on top of the defaults.  Keys absent
// from the file keep their default values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the ATMOFORCE_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) error {
	if v := os.Getenv("ATMOFORCE_INPUT"); v != "" {
		cfg.Input.File = v
	}
	if envBool("ATMOFORCE_BOOTSTRAP") {
		cfg.Input.Bootstrap = true
	}
	if v := envInt("ATMOFORCE_RECORD"); v > 0 {
		cfg.Input.Record = v
	}

	// Model chain
	if v := os.Getenv("ATMOFORCE_MODEL"); v != "" {
		cfg.Atmosphere.Model = v
	}
	if v := os.Getenv("ATMOFORCE_MODIFIERS"); v != "" {
		mods, err := parseModifierList(v)
		if err != nil {
			return fmt.Errorf("ATMOFORCE_MODIFIERS: %w", err)
		}
		cfg.Atmosphere.Modifiers = mods
	}

	// Output
	if v := os.Getenv("ATMOFORCE_OUTPUT"); v != "" {
		cfg.Output.File = v
	}
	if v := os.Getenv("ATMOFORCE_PROFILE"); v != "" {
		cfg.Output.Profile = v
	}

	// Time axis
	if v, ok := envFloat("ATMOFORCE_START"); ok {
		cfg.Time.Start = v
	}
	if v, ok := envFloat("ATMOFORCE_END"); ok {
		cfg.Time.End = v
	}
	if v, ok := envFloat("ATMOFORCE_STEP"); ok {
		cfg.Time.Step = v
	}
	if v := os.Getenv("ATMOFORCE_TIME_DIMENSION"); v != "" {
		cfg.Time.DimensionName = v
	}

	if v := envInt("ATMOFORCE_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if envBool("ATMOFORCE_METRICS") {
		cfg.ShowMetrics = true
	}
	return nil
}

// parseModifierList splits a comma-separated list of modifier specs.
func parseModifierList(s string) ([]ModifierConfig, error) {
	var out []ModifierConfig
	for _, spec := range strings.Split(s, ",") {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		m, err := ParseModifierSpec(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}
