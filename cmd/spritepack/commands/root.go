// Package commands implements the spritepack command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/piwi3910/SpritePack/internal/model"
	"github.com/piwi3910/SpritePack/internal/project"
	"github.com/piwi3910/SpritePack/internal/telemetry"
)

// Version is overridden at build time with
// -ldflags "-X github.com/piwi3910/SpritePack/cmd/spritepack/commands.Version=...".
var Version = "dev"

// flagKeys maps command line flags to their config keys.
var flagKeys = map[string]string{
	"hints":         "hints",
	"workers":       "workers",
	"max-side":      "max_side",
	"max-growths":   "max_growths",
	"padding":       "padding",
	"generations":   "generations",
	"population":    "population_size",
	"mutation-rate": "mutation_rate",
	"seed":          "seed",
	"scale":         "preview_scale",
	"log-level":     "log_level",
	"json-logs":     "json_logs",
	"otel-endpoint": "otel_endpoint",
}

// app is the state shared by all commands of one invocation.
type app struct {
	v        *viper.Viper
	cfgFile  string
	config   model.AppConfig
	logger   *slog.Logger
	shutdown telemetry.ShutdownFunc
}

func newApp() *app {
	return &app{
		v:      viper.New(),
		config: model.DefaultAppConfig(),
		logger: slog.New(slog.DiscardHandler),
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	return newApp().rootCmd()
}

// Execute runs the command line and exits non-zero on failure. An interrupt
// cancels the running search.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	err := a.rootCmd().ExecuteContext(ctx)
	if terr := a.teardown(context.Background()); terr != nil && err == nil {
		err = terr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "spritepack",
		Short: "Pack sprites into a texture atlas",
		Long: `SpritePack places rectangles (sprites, UI regions, glyphs) into the
smallest bounding rectangle it can find, without rotation.

Requests are read from CSV, Excel, DXF or job files. Results are written as a
JSON manifest, PNG preview, PDF report, label sheet or Excel workbook.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "Config file (default ~/.spritepack/config.yaml)")
	pf.String("log-level", "info", "Log level: debug, info, warn or error")
	pf.Bool("json-logs", false, "Write logs as JSON")
	pf.String("otel-endpoint", "", `OTLP/HTTP endpoint for traces, or "stdout"`)

	root.AddCommand(newPackCmd(a), newCompareCmd(a), newConfigCmd(a))
	return root
}

// settingsFlags copies the value behind each settings flag from one Settings
// to another.
var settingsFlags = map[string]func(dst *model.Settings, src model.Settings){
	"hints":         func(d *model.Settings, s model.Settings) { d.Hints = s.Hints },
	"workers":       func(d *model.Settings, s model.Settings) { d.Workers = s.Workers },
	"max-side":      func(d *model.Settings, s model.Settings) { d.MaxSide = s.MaxSide },
	"max-growths":   func(d *model.Settings, s model.Settings) { d.MaxGrowths = s.MaxGrowths },
	"padding":       func(d *model.Settings, s model.Settings) { d.Padding = s.Padding },
	"generations":   func(d *model.Settings, s model.Settings) { d.Generations = s.Generations },
	"population":    func(d *model.Settings, s model.Settings) { d.PopulationSize = s.PopulationSize },
	"mutation-rate": func(d *model.Settings, s model.Settings) { d.MutationRate = s.MutationRate },
	"seed":          func(d *model.Settings, s model.Settings) { d.Seed = s.Seed },
}

// addSettingsFlags registers the packer settings flags. Defaults only show in
// help; the effective default comes from the config layer.
func addSettingsFlags(f *pflag.FlagSet) {
	d := model.DefaultSettings()
	f.String("hints", d.Hints.String(), "Orderings to try, e.g. FindBest, MostlySquared or area|width")
	f.Int("workers", d.Workers, "Parallel attempts (0 = one per CPU)")
	f.Int("max-side", d.MaxSide, "Largest allowed atlas side")
	f.Int("max-growths", d.MaxGrowths, "Canvas growth steps per attempt (0 = unlimited)")
	f.Int("padding", d.Padding, "Empty pixels right of and below every rect")
	f.Int("generations", d.Generations, "Genetic refinement generations (0 = off)")
	f.Int("population", d.PopulationSize, "Genetic refinement population size")
	f.Float64("mutation-rate", d.MutationRate, "Genetic refinement mutation rate")
	f.Int64("seed", d.Seed, "Random seed for the refinement")
}

func (a *app) configPath() string {
	if a.cfgFile != "" {
		return a.cfgFile
	}
	return project.DefaultConfigPath()
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := a.loadConfig(cmd.Flags()); err != nil {
		return err
	}
	a.logger = newLogger(cmd.ErrOrStderr(), a.config.LogLevel, a.config.JSONLogs)

	shutdown, err := telemetry.Init(cmd.Context(), "spritepack", Version, a.config.OtelEndpoint)
	if err != nil {
		return err
	}
	a.shutdown = shutdown
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	if a.shutdown == nil {
		return nil
	}
	shutdown := a.shutdown
	a.shutdown = nil
	return shutdown(ctx)
}

// loadConfig layers flags over SPRITEPACK_* environment variables over the
// config file over the built-in defaults.
func (a *app) loadConfig(flags *pflag.FlagSet) error {
	v := a.v
	d := model.DefaultAppConfig()
	v.SetDefault("hints", d.Hints.String())
	v.SetDefault("workers", d.Workers)
	v.SetDefault("max_side", d.MaxSide)
	v.SetDefault("max_growths", d.MaxGrowths)
	v.SetDefault("padding", d.Padding)
	v.SetDefault("generations", d.Generations)
	v.SetDefault("population_size", d.PopulationSize)
	v.SetDefault("mutation_rate", d.MutationRate)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("preview_scale", d.PreviewScale)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("json_logs", d.JSONLogs)
	v.SetDefault("otel_endpoint", d.OtelEndpoint)
	v.SetDefault("recent_jobs", d.RecentJobs)

	v.SetEnvPrefix("SPRITEPACK")
	v.AutomaticEnv()

	v.SetConfigFile(a.configPath())
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read config %s: %w", a.configPath(), err)
	}

	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	cfg := model.DefaultAppConfig()
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hooks); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Settings.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.config = cfg
	return nil
}

func newLogger(w io.Writer, level string, jsonLogs bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if jsonLogs {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
