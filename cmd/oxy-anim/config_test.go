package main

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig([]string{"-graph", "/tmp/g.yaml", "-motions", "rig.glb"})
	require.NoError(t, err)

	assert.Equal(t, "/tmp/g.yaml", cfg.GraphPath)
	assert.True(t, filepath.IsAbs(cfg.MotionsPath), "relative paths resolve against the working directory")
	assert.Equal(t, 1, cfg.Actors)
	assert.Equal(t, uint64(120), cfg.Ticks)
	assert.Equal(t, 60.0, cfg.TickRate)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.Realtime)
	assert.Empty(t, cfg.PlotPath)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("OXY_ANIM_GRAPH", "/env/graph.yaml")
	t.Setenv("OXY_ANIM_MOTIONS", "/env/rig.yaml")
	t.Setenv("OXY_ANIM_TICKS", "30")
	t.Setenv("OXY_ANIM_ACTORS", "4")
	t.Setenv("OXY_ANIM_TICK_RATE", "30")
	t.Setenv("OXY_ANIM_LOG_FORMAT", "json")
	t.Setenv("OXY_ANIM_LOG_LEVEL", "debug")

	cfg, err := LoadConfig([]string{"-ticks", "10"})
	require.NoError(t, err)
	assert.Equal(t, "/env/graph.yaml", cfg.GraphPath)
	assert.Equal(t, uint64(10), cfg.Ticks, "flags override the environment")
	assert.Equal(t, 4, cfg.Actors)
	assert.Equal(t, 30.0, cfg.TickRate)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadConfigTUIAndPlot(t *testing.T) {
	cfg, err := LoadConfig([]string{"-graph", "/g.yaml", "-motions", "/m.yaml", "-tui", "-ticks", "0", "-plot", "gait"})
	require.NoError(t, err)
	assert.True(t, cfg.Realtime, "the inspector paces ticks with the wall clock")
	assert.Equal(t, "gait.png", filepath.Base(cfg.PlotPath))
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		envVars     map[string]string
		errorSubstr string
	}{
		{name: "missing graph", args: []string{"-motions", "/m.yaml"}, errorSubstr: "graph is required"},
		{name: "missing motions", args: []string{"-graph", "/g.yaml"}, errorSubstr: "motions is required"},
		{name: "zero actors", args: []string{"-graph", "/g.yaml", "-motions", "/m.yaml", "-actors", "0"}, errorSubstr: "actors must be at least 1"},
		{name: "zero tick rate", args: []string{"-graph", "/g.yaml", "-motions", "/m.yaml", "-tick-rate", "0"}, errorSubstr: "tick rate must be positive"},
		{name: "endless batch run", args: []string{"-graph", "/g.yaml", "-motions", "/m.yaml", "-ticks", "0"}, errorSubstr: "requires realtime"},
		{name: "bad log format", args: []string{"-graph", "/g.yaml", "-motions", "/m.yaml", "-log-format", "xml"}, errorSubstr: "unsupported log format"},
		{name: "bad log level", args: []string{"-graph", "/g.yaml", "-motions", "/m.yaml", "-log-level", "loud"}, errorSubstr: "invalid log level"},
		{name: "bad env ticks", args: []string{"-graph", "/g.yaml", "-motions", "/m.yaml"}, envVars: map[string]string{"OXY_ANIM_TICKS": "many"}, errorSubstr: "invalid OXY_ANIM_TICKS"},
		{name: "bad env tick rate", args: []string{"-graph", "/g.yaml", "-motions", "/m.yaml"}, envVars: map[string]string{"OXY_ANIM_TICK_RATE": "fast"}, errorSubstr: "invalid OXY_ANIM_TICK_RATE"},
		{name: "unknown flag", args: []string{"-frobnicate"}, errorSubstr: "frobnicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(tt.args)
			assert.ErrorContains(t, err, tt.errorSubstr)
		})
	}
}
