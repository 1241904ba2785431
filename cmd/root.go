// Package cmd wires up the CLI command tree and dispatches to the core
// driver.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"atmoforce/atmosphere"
	"atmoforce/config"
	"atmoforce/internal/core"
	"atmoforce/internal/metrics"
	"atmoforce/internal/units"
	"atmoforce/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X atmoforce/cmd.version=2.0.0"
var version = "0.3.0" //nolint:gochecknoglobals

// Execute parses args and runs the selected subcommand.
func Execute(ctx context.Context, args []string) error {
	return execute(ctx, args, os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "atmoforce",
		Short: "atmoforce - atmosphere forcing chains for ice-sheet models",
		Long: `atmoforce steps a chain of atmosphere models over a grid read from a
netCDF file: a base provider (constant precipitation, parameterized air
temperature) wrapped by scalar forcing modifiers such as frac_P.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand(), newModelsCommand(), newVersionCommand())
	return root
}

// ── run ──────────────────────────────────────────────────────────────

type runFlags struct {
	configFile    string
	input         string
	bootstrap     bool
	record        int
	precipDefault float64
	model         string
	modifiers     []string
	output        string
	profile       string
	sites         []string
	start         float64
	end           float64
	step          float64
	timeDimension string
	verbose       int
	quiet         bool
	metrics       bool
	dryRun        bool
}

func newRunCommand() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a forcing experiment",
		Example: `  atmoforce run -i pism_Greenland_5km.nc -o atm.nc
  atmoforce run -i input.nc --modifier frac_P=frac_P.nc --end 100 --site 10,20
  atmoforce run --config experiment.yaml -vv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd.Flags(), &f)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if f.dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), "configuration OK")
				return nil
			}
			return run(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	fs := cmd.Flags()

	// ── input ────────────────────────────────────────────────────
	fs.StringVar(&f.configFile, "config", "", "YAML configuration file")
	fs.StringVarP(&f.input, "input", "i", "", "Input netCDF file (grid, surface_altitude, latitude, precipitation)")
	fs.BoolVar(&f.bootstrap, "bootstrap", false, "Regrid input fields instead of reading them strictly")
	fs.IntVar(&f.record, "record", 0, "Time record to read from the input file")
	fs.Float64Var(&f.precipDefault, "precip-default", 0, "Precipitation used when bootstrapping from a file without it")

	// ── model chain ──────────────────────────────────────────────
	fs.StringVarP(&f.model, "model", "m", config.DefaultModel, "Base atmosphere provider")
	fs.StringArrayVar(&f.modifiers, "modifier", nil, "Forcing modifier name=file[:period] (repeatable, last is outermost)")

	// ── output ───────────────────────────────────────────────────
	fs.StringVarP(&f.output, "output", "o", "", "Diagnostics netCDF file")
	fs.StringVar(&f.profile, "profile", config.DefaultProfile, "Output profile: small, medium or big")
	fs.StringArrayVar(&f.sites, "site", nil, "Report forcing time series at cell i,j (repeatable)")

	// ── time axis ────────────────────────────────────────────────
	fs.Float64Var(&f.start, "start", 0, "Start time, years")
	fs.Float64Var(&f.end, "end", config.DefaultEndYears, "End time, years")
	fs.Float64Var(&f.step, "step", config.DefaultStepYears, "Time step, years")
	fs.StringVar(&f.timeDimension, "time-dimension", config.DefaultTimeDimension, "Name of the time dimension in forcing files")

	// ── diagnostics ──────────────────────────────────────────────
	fs.CountVarP(&f.verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "Print errors only")
	fs.BoolVar(&f.metrics, "metrics", false, "Print run metrics as JSON on exit")
	fs.BoolVar(&f.dryRun, "dry-run", false, "Validate the configuration and exit")

	return cmd
}

// resolveConfig layers defaults, the config file, the environment and
// explicitly set flags, in increasing precedence.
func resolveConfig(fs *flag.FlagSet, f *runFlags) (*config.Config, error) {
	cfg := config.Default()
	if f.configFile != "" {
		loaded, err := config.LoadFile(f.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := config.LoadFromEnv(cfg); err != nil {
		return nil, err
	}

	if fs.Changed("input") {
		cfg.Input.File = f.input
	}
	if fs.Changed("bootstrap") {
		cfg.Input.Bootstrap = f.bootstrap
	}
	if fs.Changed("record") {
		cfg.Input.Record = f.record
	}
	if fs.Changed("precip-default") {
		v := f.precipDefault
		cfg.Input.PrecipitationDefault = &v
	}
	if fs.Changed("model") {
		cfg.Atmosphere.Model = f.model
	}
	if fs.Changed("modifier") {
		cfg.Atmosphere.Modifiers = nil
		for _, spec := range f.modifiers {
			m, err := config.ParseModifierSpec(spec)
			if err != nil {
				return nil, fmt.Errorf("modifier: %w", err)
			}
			cfg.Atmosphere.Modifiers = append(cfg.Atmosphere.Modifiers, m)
		}
	}
	if fs.Changed("output") {
		cfg.Output.File = f.output
	}
	if fs.Changed("profile") {
		cfg.Output.Profile = f.profile
	}
	if fs.Changed("site") {
		cfg.Output.Sites = nil
		for _, spec := range f.sites {
			p, err := parseSite(spec)
			if err != nil {
				return nil, err
			}
			cfg.Output.Sites = append(cfg.Output.Sites, p)
		}
	}
	if fs.Changed("start") {
		cfg.Time.Start = f.start
	}
	if fs.Changed("end") {
		cfg.Time.End = f.end
	}
	if fs.Changed("step") {
		cfg.Time.Step = f.step
	}
	if fs.Changed("time-dimension") {
		cfg.Time.DimensionName = f.timeDimension
	}
	if fs.Changed("verbose") {
		cfg.Verbose = min(cfg.Verbose+f.verbose, int(util.LogDebug))
	}
	if f.quiet {
		cfg.Verbose = int(util.LogQuiet)
	}
	if fs.Changed("metrics") {
		cfg.ShowMetrics = f.metrics
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	logger := util.NewLogger(cfg.Verbose)
	logger.SetOutput(stderr)
	collector := metrics.New()

	d := &core.Driver{Config: cfg, Logger: logger, Metrics: collector}
	res, err := d.Run(ctx)
	if res != nil {
		printSites(stdout, res.Sites)
	}
	if cfg.ShowMetrics || cfg.Verbose >= 3 {
		fmt.Fprintln(stderr, collector.JSON())
	}
	return err
}

func printSites(w io.Writer, sites []core.SiteSeries) {
	if len(sites) == 0 {
		return
	}
	fmt.Fprintf(w, "%4s %4s %12s %16s %12s\n", "i", "j", "time_years", "precipitation", "air_temp_K")
	for _, p := range sites {
		for k, t := range p.Times {
			fmt.Fprintf(w, "%4d %4d %12.4g %16.8g %12.6g\n",
				p.I, p.J, t/units.SecondsPerYear, p.Precipitation[k], p.Temperature[k])
		}
	}
}

func parseSite(spec string) (config.Site, error) {
	var p config.Site
	if _, err := fmt.Sscanf(strings.TrimSpace(spec), "%d,%d", &p.I, &p.J); err != nil {
		return p, fmt.Errorf("site %q: expected i,j", spec)
	}
	return p, nil
}

// ── models / version ─────────────────────────────────────────────────

func newModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List registered atmosphere providers and modifiers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			for _, kind := range []atmosphere.Kind{atmosphere.KindProvider, atmosphere.KindModifier} {
				fmt.Fprintf(w, "%ss:\n", kind)
				for _, name := range atmosphere.ListKind(kind) {
					fmt.Fprintf(w, "  %s\n", name)
				}
			}
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "atmoforce %s\n", version)
		},
	}
}
