package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	defaultTickRate  = 60.0
	defaultTicks     = 120
	defaultActors    = 1
	defaultLogFormat = "text"
	defaultLogLevel  = "info"
)

// Config holds the resolved command line and environment settings.
type Config struct {
	GraphPath    string
	MotionsPath  string
	ScenarioPath string

	Actors   int
	Ticks    uint64
	TickRate float64
	Seed     uint64
	Realtime bool
	TUI      bool
	Profile  bool

	PrintEvery uint64
	PlotNode   string
	PlotPath   string

	MetricsAddr string
	LogFormat   string
	LogLevel    slog.Level
}

// LoadConfig resolves the configuration. OXY_ANIM_* variables supply the defaults and flags
// override them.
func LoadConfig(args []string) (Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("failed to get cwd: %w", err)
	}

	ticks, err := envUint("OXY_ANIM_TICKS", defaultTicks)
	if err != nil {
		return Config{}, err
	}
	actors, err := envUint("OXY_ANIM_ACTORS", defaultActors)
	if err != nil {
		return Config{}, err
	}
	tickRate := defaultTickRate
	if v := os.Getenv("OXY_ANIM_TICK_RATE"); v != "" {
		if tickRate, err = strconv.ParseFloat(v, 64); err != nil {
			return Config{}, fmt.Errorf("invalid OXY_ANIM_TICK_RATE: %w", err)
		}
	}

	flagSet := flag.NewFlagSet("oxy-anim", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagGraph := flagSet.String("graph", os.Getenv("OXY_ANIM_GRAPH"), "path to the graph document (YAML)")
	flagMotions := flagSet.String("motions", os.Getenv("OXY_ANIM_MOTIONS"), "path to the motion set (.gltf, .glb, .yaml)")
	flagScenario := flagSet.String("scenario", os.Getenv("OXY_ANIM_SCENARIO"), "path to a parameter scenario (YAML)")
	flagActors := flagSet.Uint64("actors", actors, "number of actors evaluating the graph")
	flagTicks := flagSet.Uint64("ticks", ticks, "number of ticks to run, 0 runs until interrupted")
	flagTickRate := flagSet.Float64("tick-rate", tickRate, "ticks per second")
	flagSeed := flagSet.Uint64("seed", 1, "random seed of the first actor")
	flagRealtime := flagSet.Bool("realtime", false, "pace ticks with the wall clock")
	flagTUI := flagSet.Bool("tui", false, "open the live inspector")
	flagProfile := flagSet.Bool("profile", false, "log runtime statistics every second")
	flagPrintEvery := flagSet.Uint64("print-every", 1, "print every n-th tick, 0 prints nothing")
	flagPlot := flagSet.String("plot", "", "blend space node to plot after the run")
	flagPlotOut := flagSet.String("plot-out", "", "PNG path of the plot (default <node>.png)")
	flagMetrics := flagSet.String("metrics-addr", os.Getenv("OXY_ANIM_METRICS_ADDR"), "serve prometheus metrics on this address")
	flagLogFormat := flagSet.String("log-format", envOrDefault("OXY_ANIM_LOG_FORMAT", defaultLogFormat), "log format: text|json")
	flagLogLevel := flagSet.String("log-level", envOrDefault("OXY_ANIM_LOG_LEVEL", defaultLogLevel), "log level: debug|info|warn|error")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.SetOutput(os.Stdout)
			flagSet.PrintDefaults()
		}
		return Config{}, err
	}

	config := Config{
		GraphPath:    resolvePath(*flagGraph, cwd),
		MotionsPath:  resolvePath(*flagMotions, cwd),
		ScenarioPath: resolvePath(*flagScenario, cwd),
		Actors:       int(*flagActors),
		Ticks:        *flagTicks,
		TickRate:     *flagTickRate,
		Seed:         *flagSeed,
		Realtime:     *flagRealtime || *flagTUI,
		TUI:          *flagTUI,
		Profile:      *flagProfile,
		PrintEvery:   *flagPrintEvery,
		PlotNode:     strings.TrimSpace(*flagPlot),
		PlotPath:     resolvePath(*flagPlotOut, cwd),
		MetricsAddr:  strings.TrimSpace(*flagMetrics),
		LogFormat:    strings.ToLower(strings.TrimSpace(*flagLogFormat)),
	}

	if config.GraphPath == "" {
		return Config{}, errors.New("graph is required")
	}
	if config.MotionsPath == "" {
		return Config{}, errors.New("motions is required")
	}
	if config.Actors < 1 {
		return Config{}, errors.New("actors must be at least 1")
	}
	if config.TickRate <= 0 {
		return Config{}, errors.New("tick rate must be positive")
	}
	if config.Ticks == 0 && !config.Realtime {
		return Config{}, errors.New("ticks=0 requires realtime or tui")
	}
	if config.LogFormat != "text" && config.LogFormat != "json" {
		return Config{}, fmt.Errorf("unsupported log format: %s", config.LogFormat)
	}
	if err := config.LogLevel.UnmarshalText([]byte(strings.TrimSpace(*flagLogLevel))); err != nil {
		return Config{}, fmt.Errorf("invalid log level: %w", err)
	}
	if config.PlotNode != "" && config.PlotPath == "" {
		config.PlotPath = filepath.Join(cwd, config.PlotNode+".png")
	}

	return config, nil
}

// NewLogger builds the slog logger the configuration asks for.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envUint(key string, fallback uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func resolvePath(path string, cwd string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return trimmed
	}
	if filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Join(cwd, trimmed)
}
