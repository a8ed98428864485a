package main

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/engine/actor"
	"github.com/Carmen-Shannon/oxy-anim/engine/animgraph"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioYAML = `name: start-walking
steps:
  - at: 0.5
    set: {speed: 1.5, grounded: true, direction: [0.3, 0.7]}
    play_speed: 2
  - at: 0
    set: {speed: 0}
  - at: 1
    set: {grounded: false}
`

// newScenarioInstance returns the graph instance of a one-bone actor whose graph only
// declares parameters.
func newScenarioInstance(t *testing.T) *animgraph.GraphInstance {
	t.Helper()
	g := animgraph.NewGraph("scenario")
	require.NoError(t, g.AddParameter(animgraph.ParameterDef{Name: "speed", Type: animgraph.TypeFloat}))
	require.NoError(t, g.AddParameter(animgraph.ParameterDef{Name: "grounded", Type: animgraph.TypeBool}))
	require.NoError(t, g.AddParameter(animgraph.ParameterDef{Name: "direction", Type: animgraph.TypeVector2}))

	skel, err := model.NewSkeleton([]model.Bone{{Name: "root", ParentIndex: -1, LocalTransform: model.IdentityTransform()}})
	require.NoError(t, err)
	a := actor.NewActor(skel, actor.WithGraph(g, nil))
	t.Cleanup(a.Destroy)
	return a.GraphInstance()
}

func TestLoadScenarioSortsSteps(t *testing.T) {
	s, err := LoadScenario(strings.NewReader(scenarioYAML))
	require.NoError(t, err)
	assert.Equal(t, "start-walking", s.Name)
	require.Len(t, s.Steps, 3)
	assert.Equal(t, []float32{0, 0.5, 1}, []float32{s.Steps[0].At, s.Steps[1].At, s.Steps[2].At})

	mid := s.Steps[1]
	assert.Equal(t, animgraph.FloatValue(1.5), mid.Set["speed"].Value)
	assert.Equal(t, animgraph.BoolValue(true), mid.Set["grounded"].Value)
	assert.Equal(t, animgraph.Vector2Value(0.3, 0.7), mid.Set["direction"].Value)
	require.NotNil(t, mid.PlaySpeed)
	assert.Equal(t, float32(2), *mid.PlaySpeed)
}

func TestLoadScenarioErrors(t *testing.T) {
	for name, c := range map[string]struct {
		doc  string
		want string
	}{
		"empty":         {"", "empty scenario"},
		"negative time": {"steps: [{at: -1}]\n", "negative time"},
		"bad vector":    {"steps: [{at: 0, set: {d: [1, 2, 3]}}]\n", "2 components"},
		"bad scalar":    {"steps: [{at: 0, set: {d: fast}}]\n", "numbers, bools or [x, y]"},
		"mapping value": {"steps: [{at: 0, set: {d: {x: 1}}}]\n", "numbers, bools or [x, y]"},
	} {
		_, err := LoadScenario(strings.NewReader(c.doc))
		assert.ErrorContains(t, err, c.want, name)
	}
}

func TestScenarioPlayerAppliesDueSteps(t *testing.T) {
	s, err := LoadScenario(strings.NewReader(scenarioYAML))
	require.NoError(t, err)
	inst := newScenarioInstance(t)
	p := newScenarioPlayer(s)

	applied, err := p.Advance(0, []*animgraph.GraphInstance{inst})
	require.NoError(t, err)
	assert.Equal(t, []string{"speed=0"}, applied)

	applied, err = p.Advance(0.25, []*animgraph.GraphInstance{inst})
	require.NoError(t, err)
	assert.Empty(t, applied)

	applied, err = p.Advance(0.75, []*animgraph.GraphInstance{inst, nil})
	require.NoError(t, err)
	assert.Equal(t, []string{"direction=[0.30 0.70]", "grounded=true", "speed=1.5", "play_speed=2"}, applied)
	speed, _ := inst.Parameter("speed")
	assert.Equal(t, float32(1.5), speed.AsFloat())
	dir, _ := inst.Parameter("direction")
	assert.Equal(t, [2]float32{0.3, 0.7}, dir.AsVector2())
	assert.Equal(t, float32(2), inst.PlaySpeed())
	assert.False(t, p.Done())

	_, err = p.Advance(1, []*animgraph.GraphInstance{inst})
	require.NoError(t, err)
	grounded, _ := inst.Parameter("grounded")
	assert.False(t, grounded.AsBool())
	assert.True(t, p.Done())
}

func TestScenarioPlayerReportsUnknownParameter(t *testing.T) {
	s, err := LoadScenario(strings.NewReader("steps: [{at: 0, set: {missing: 1}}]\n"))
	require.NoError(t, err)
	inst := newScenarioInstance(t)

	_, err = newScenarioPlayer(s).Advance(0, []*animgraph.GraphInstance{inst})
	assert.ErrorIs(t, err, animgraph.ErrUnknownParameter)
}
