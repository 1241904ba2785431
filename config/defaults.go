package config

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultModel is the base atmosphere provider.
	DefaultModel = "constant"

	// DefaultProfile is the diagnostic output profile.
	DefaultProfile = "medium"

	// DefaultTimeDimension names the time dimension of forcing files.
	DefaultTimeDimension = "time"

	// DefaultStepYears is the host time step.
	DefaultStepYears = 1.0

	// DefaultEndYears is the run length when none is given.
	DefaultEndYears = 10.0

	// DefaultVerbose shows model initialization banners.
	DefaultVerbose = 2
)

// Default returns a Config with every default applied.
func Default() *Config {
	return &Config{
		Atmosphere: AtmosphereConfig{Model: DefaultModel},
		Output:     OutputConfig{Profile: DefaultProfile},
		Time: TimeConfig{
			End:           DefaultEndYears,
			Step:          DefaultStepYears,
			DimensionName: DefaultTimeDimension,
		},
		Verbose: DefaultVerbose,
	}
}
