package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMotionsYAML = `name: biped
bones:
  - name: root
  - name: hip
    parent: root
    transform: {translation: [0, 1, 0]}
clips:
  - name: idle
    duration: 1
  - name: walk
    events: [{type: step, start: 0.25, end: 0.25}]
    channels:
      - bone: root
        translation: [{time: 0, value: [0, 0, 0]}, {time: 1, value: [2, 0, 0]}]
`

const testMachineYAML = `version: 1
name: locomotion
root: machine
parameters:
  - name: speed
    type: float
nodes:
  - name: machine
    type: state_machine
    attributes:
      entry_state: idle
  - name: idle
    type: motion
    parent: machine
    attributes:
      motion: idle
  - name: walk
    type: motion
    parent: machine
    attributes:
      motion: walk
transitions:
  - machine: machine
    from: idle
    to: walk
    blend_time: 0
    conditions:
      - type: parameter
        attributes:
          parameter: speed
          function: ">"
          test_value: 0.5
`

const testGaitYAML = `version: 1
name: gait
root: tree
parameters:
  - name: speed
    type: float
nodes:
  - name: tree
    type: blend_tree
  - name: final
    type: final
    parent: tree
  - name: params
    type: parameter
    parent: tree
    attributes:
      parameters: [speed]
  - name: gait
    type: blend_space_1d
    parent: tree
    attributes:
      motions:
        - {motion: idle, position: [0, 0]}
        - {motion: walk, position: [1, 0]}
connections:
  - {from: params, from_port: speed, to: gait, to_port: X}
  - {from: gait, from_port: Pose, to: final, to_port: Pose}
`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunPrintsStateChanges(t *testing.T) {
	dir := t.TempDir()
	motions := writeFixture(t, dir, "biped.yaml", testMotionsYAML)
	graph := writeFixture(t, dir, "locomotion.yaml", testMachineYAML)
	scenario := writeFixture(t, dir, "walk.yaml", "steps:\n  - at: 0.1\n    set: {speed: 1}\n")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-graph", graph, "-motions", motions, "-scenario", scenario,
		"-ticks", "20", "-tick-rate", "20", "-print-every", "5", "-actors", "3",
	}, &stdout, &stderr)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "machine: idle")
	assert.Contains(t, out, "set speed=1")
	assert.Contains(t, out, "-> walk")
	assert.Contains(t, out, "machine: walk")
	assert.Contains(t, out, "20 ticks")
	assert.Contains(t, out, "3 actors")
	assert.Contains(t, stderr.String(), "graph loaded")
}

func TestRunRejectsUnknownScenarioParameter(t *testing.T) {
	dir := t.TempDir()
	motions := writeFixture(t, dir, "biped.yaml", testMotionsYAML)
	graph := writeFixture(t, dir, "locomotion.yaml", testMachineYAML)
	scenario := writeFixture(t, dir, "bad.yaml", "steps:\n  - at: 0.5\n    set: {sprint: true}\n")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-graph", graph, "-motions", motions, "-scenario", scenario, "-ticks", "60", "-print-every", "0",
	}, &stdout, &stderr)
	assert.ErrorContains(t, err, "sprint")
}

func TestRunWritesBlendSpacePlot(t *testing.T) {
	dir := t.TempDir()
	motions := writeFixture(t, dir, "biped.yaml", testMotionsYAML)
	graph := writeFixture(t, dir, "gait.yaml", testGaitYAML)
	scenario := writeFixture(t, dir, "half.yaml", "steps:\n  - at: 0\n    set: {speed: 0.5}\n")
	plot := filepath.Join(dir, "gait.png")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-graph", graph, "-motions", motions, "-scenario", scenario,
		"-ticks", "5", "-print-every", "0", "-plot", "gait", "-plot-out", plot, "-log-format", "json",
	}, &stdout, &stderr)
	require.NoError(t, err)

	f, err := os.Open(plot)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 512, img.Bounds().Dx())
	assert.True(t, strings.Contains(stderr.String(), `"msg":"plot written"`))

	err = run(context.Background(), []string{
		"-graph", graph, "-motions", motions, "-ticks", "1", "-print-every", "0", "-plot", "final",
	}, &stdout, &stderr)
	assert.ErrorContains(t, err, "not a blend space")
}

func TestRunBundledLocomotionExample(t *testing.T) {
	dir := filepath.Join("..", "..", "examples", "locomotion")
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-graph", filepath.Join(dir, "locomotion.yaml"),
		"-motions", filepath.Join(dir, "biped.yaml"),
		"-scenario", filepath.Join(dir, "walk_then_run.yaml"),
		"-ticks", "120", "-print-every", "30", "-actors", "2",
	}, &stdout, &stderr)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "machine: idle")
	assert.Contains(t, out, "set speed=1")
	assert.Contains(t, out, "transition idle -> move")
	assert.Contains(t, out, "120 ticks")
}
