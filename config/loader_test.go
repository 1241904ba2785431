package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromEnv_Input(t *testing.T) {
	t.Setenv("ATMOFORCE_INPUT", "greenland.nc")
	t.Setenv("ATMOFORCE_RECORD", "3")
	cfg := Default()
	if err := LoadFromEnv(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Input.File != "greenland.nc" {
		t.Errorf("Input.File = %q, want %q", cfg.Input.File, "greenland.nc")
	}
	if cfg.Input.Record != 3 {
		t.Errorf("Input.Record = %d, want 3", cfg.Input.Record)
	}
}

func TestLoadFromEnv_Booleans(t *testing.T) {
	for _, v := range []string{"1", "true", "yes", "TRUE", "Yes"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("ATMOFORCE_BOOTSTRAP", v)
			t.Setenv("ATMOFORCE_METRICS", v)
			cfg := Default()
			if err := LoadFromEnv(cfg); err != nil {
				t.Fatal(err)
			}
			if !cfg.Input.Bootstrap {
				t.Error("Bootstrap should be true")
			}
			if !cfg.ShowMetrics {
				t.Error("ShowMetrics should be true")
			}
		})
	}
}

func TestLoadFromEnv_Modifiers(t *testing.T) {
	t.Setenv("ATMOFORCE_MODIFIERS", "frac_P=p.nc, delta_T=t.nc:100")
	cfg := Default()
	if err := LoadFromEnv(cfg); err != nil {
		t.Fatal(err)
	}
	mods := cfg.Atmosphere.Modifiers
	if len(mods) != 2 {
		t.Fatalf("modifiers = %+v", mods)
	}
	if mods[0].Name != "frac_P" || mods[0].File != "p.nc" {
		t.Errorf("modifiers[0] = %+v", mods[0])
	}
	if mods[1].Name != "delta_T" || mods[1].File != "t.nc" || mods[1].Period != 100 {
		t.Errorf("modifiers[1] = %+v", mods[1])
	}

	t.Setenv("ATMOFORCE_MODIFIERS", "frac_P")
	if err := LoadFromEnv(Default()); err == nil {
		t.Error("expected error for malformed modifier list")
	}
}

func TestLoadFromEnv_Time(t *testing.T) {
	t.Setenv("ATMOFORCE_START", "-100")
	t.Setenv("ATMOFORCE_END", "2.5")
	t.Setenv("ATMOFORCE_STEP", "0.5")
	t.Setenv("ATMOFORCE_TIME_DIMENSION", "t")
	cfg := Default()
	if err := LoadFromEnv(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Time.Start != -100 || cfg.Time.End != 2.5 || cfg.Time.Step != 0.5 {
		t.Errorf("Time = %+v", cfg.Time)
	}
	if cfg.Time.DimensionName != "t" {
		t.Errorf("DimensionName = %q", cfg.Time.DimensionName)
	}
}

func TestLoadFromEnv_InvalidIgnored(t *testing.T) {
	t.Setenv("ATMOFORCE_VERBOSE", "loud")
	t.Setenv("ATMOFORCE_STEP", "fast")
	cfg := Default()
	if err := LoadFromEnv(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Verbose != DefaultVerbose {
		t.Errorf("Verbose = %d, want default", cfg.Verbose)
	}
	if cfg.Time.Step != DefaultStepYears {
		t.Errorf("Step = %v, want default", cfg.Time.Step)
	}
}

func TestLoadFromEnv_EmptyIsNoop(t *testing.T) {
	// Ensure no ATMOFORCE_ vars are set.
	for _, key := range []string{"ATMOFORCE_INPUT", "ATMOFORCE_MODEL", "ATMOFORCE_OUTPUT", "ATMOFORCE_PROFILE"} {
		os.Unsetenv(key)
	}
	cfg := Default()
	if err := LoadFromEnv(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Input.File != "" || cfg.Atmosphere.Model != DefaultModel || cfg.Output.Profile != DefaultProfile {
		t.Errorf("cfg changed: %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atmoforce.yaml")
	yaml := `
input:
  file: pism_Greenland_5km.nc
  bootstrap: true
  precipitation_default: 0.5
atmosphere:
  modifiers:
    - name: frac_P
      file: frac_P.nc
      period: 100
      reference_year: -50
output:
  file: out.nc
  profile: big
  sites:
    - {i: 3, j: 4}
time:
  end: 20
verbose: 3
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Input.File != "pism_Greenland_5km.nc" || !cfg.Input.Bootstrap {
		t.Errorf("Input = %+v", cfg.Input)
	}
	if cfg.Input.PrecipitationDefault == nil || *cfg.Input.PrecipitationDefault != 0.5 {
		t.Errorf("PrecipitationDefault = %v", cfg.Input.PrecipitationDefault)
	}
	if cfg.Atmosphere.Model != DefaultModel {
		t.Errorf("Model = %q, want default kept", cfg.Atmosphere.Model)
	}
	if len(cfg.Atmosphere.Modifiers) != 1 {
		t.Fatalf("Modifiers = %+v", cfg.Atmosphere.Modifiers)
	}
	if m := cfg.Atmosphere.Modifiers[0]; m.Period != 100 || m.ReferenceYear != -50 {
		t.Errorf("Modifier = %+v", m)
	}
	if cfg.Output.Profile != "big" || len(cfg.Output.Sites) != 1 || cfg.Output.Sites[0] != (Site{I: 3, J: 4}) {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Time.End != 20 || cfg.Time.Step != DefaultStepYears {
		t.Errorf("Time = %+v", cfg.Time)
	}
	if cfg.Verbose != 3 {
		t.Errorf("Verbose = %d", cfg.Verbose)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config is invalid: %v", err)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("time: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected parse error")
	}
}
