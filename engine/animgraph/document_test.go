package animgraph

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const locomotionYAML = `version: 1
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

func entryAttrs(t *testing.T, state string) yaml.Node {
	t.Helper()
	var n yaml.Node
	require.NoError(t, n.Encode(map[string]string{"entry_state": state}))
	return n
}

func saveToString(t *testing.T, g *Graph) string {
	t.Helper()
	doc, err := GraphToDocument(g)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, SaveDocument(&buf, doc))
	return buf.String()
}

func TestLoadHandWrittenDocument(t *testing.T) {
	doc, err := LoadDocument(strings.NewReader(locomotionYAML))
	require.NoError(t, err)
	g, err := doc.Build(nil)
	require.NoError(t, err)

	m, ok := g.Root().(*StateMachineNode)
	require.True(t, ok)
	assert.True(t, m.AlwaysStartInEntryState, "missing attributes keep the type defaults")
	assert.Equal(t, "idle", m.EntryState)
	assert.Equal(t, g.FindNode("idle"), g.Node(m.entry), "the entry state is bound while building")
	walk, ok := g.FindNode("walk").(*MotionNode)
	require.True(t, ok)
	assert.Equal(t, "walk", walk.MotionID)
	assert.Equal(t, float32(1), walk.PlaySpeed)
	require.Len(t, m.Transitions(), 1)
	require.Len(t, m.Transitions()[0].Conditions(), 1)
	cond, ok := m.Transitions()[0].Conditions()[0].(*ParameterCondition)
	require.True(t, ok)
	assert.Equal(t, "speed", cond.Parameter)
	assert.Equal(t, CompareGreater, cond.Function)
	assert.Equal(t, float32(0.5), cond.TestValue)

	inst := newTestInstance(t, g)
	assert.InDelta(t, 1, tick(inst, 0.1), 1e-5)
	require.NoError(t, inst.SetParameterFloat("speed", 1))
	assert.InDelta(t, 2, tick(inst, 0.1), 1e-5)
}

func TestDocumentRoundTripStateMachine(t *testing.T) {
	f := newMachine(t)
	tr := f.transition(t, f.idle, f.walk, 0.3,
		NewParameterCondition("speed", CompareInRange, 0.5),
		&TimeCondition{UseRandomization: true, MinRandomTime: 1, MaxRandomTime: 2},
	)
	tr.Interpolation = InterpolationEaseInOut
	tr.SyncMode = SyncTrackBased
	tr.Priority = 2
	wild := f.transition(t, NodeHandle{}, f.run, 0.1, &TagCondition{Function: TagTestOneOrMore, Tags: []string{"sprint"}})
	wild.AllowedStates = []NodeHandle{f.walk}
	f.g.FindNode("run").Base().SetDisabled(true)

	first := saveToString(t, f.g)
	doc, err := LoadDocument(strings.NewReader(first))
	require.NoError(t, err)
	g, err := doc.Build(nil)
	require.NoError(t, err)
	assert.Equal(t, first, saveToString(t, g))

	m := g.Root().(*StateMachineNode)
	require.Len(t, m.Transitions(), 2)
	got := m.Transitions()[0]
	assert.Equal(t, InterpolationEaseInOut, got.Interpolation)
	assert.Equal(t, SyncTrackBased, got.SyncMode)
	require.Len(t, got.Conditions(), 2)
	param, ok := got.Conditions()[0].(*ParameterCondition)
	require.True(t, ok)
	assert.Equal(t, "speed", param.Parameter)
	assert.Equal(t, CompareInRange, param.Function)
	timer, ok := got.Conditions()[1].(*TimeCondition)
	require.True(t, ok)
	assert.True(t, timer.UseRandomization)
	assert.Equal(t, float32(2), timer.MaxRandomTime)
	assert.True(t, m.Transitions()[1].IsWildcard())
	tags, ok := m.Transitions()[1].Conditions()[0].(*TagCondition)
	require.True(t, ok)
	assert.Equal(t, []string{"sprint"}, tags.Tags)
	assert.Equal(t, "idle", m.EntryState)
	assert.Equal(t, "walk", g.FindNode("walk").(*MotionNode).MotionID)
	assert.True(t, g.FindNode("run").Base().IsDisabled())
}

func TestDocumentRoundTripBlendTree(t *testing.T) {
	src, blend := newBlendTreeGraph(t)
	blend.Additive = true

	doc, err := LoadDocument(strings.NewReader(saveToString(t, src)))
	require.NoError(t, err)
	require.Len(t, doc.Connections, 4)
	g, err := doc.Build(nil)
	require.NoError(t, err)
	assert.True(t, g.FindNode("blend").(*Blend2Node).Additive)

	inst := newTestInstance(t, g)
	require.NoError(t, inst.SetParameterFloat("weight", 0.5))
	assert.InDelta(t, 3.5, tick(inst, 0.1), 1e-5)
	assertPoolsBalanced(t, inst)
}

func TestLoadDocumentKeepsAttributes(t *testing.T) {
	doc, err := LoadDocument(strings.NewReader(locomotionYAML))
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 3)

	walk := doc.Nodes[2]
	assert.Equal(t, yaml.MappingNode, walk.Attributes.Kind)
	var attrs struct {
		Motion string `yaml:"motion"`
	}
	require.NoError(t, walk.Attributes.Decode(&attrs))
	assert.Equal(t, "walk", attrs.Motion)

	cond := doc.Transitions[0].Conditions[0]
	assert.Equal(t, "parameter", cond.Type)
	assert.Equal(t, yaml.MappingNode, cond.Attributes.Kind)

	bare, err := LoadDocument(strings.NewReader("version: 1\nname: bare\nnodes:\n  - {name: a, type: final}\n"))
	require.NoError(t, err)
	assert.Zero(t, bare.Nodes[0].Attributes.Kind)
}

func TestBuiltGraphIsSafeForParallelInstances(t *testing.T) {
	doc, err := LoadDocument(strings.NewReader(locomotionYAML))
	require.NoError(t, err)
	g, err := doc.Build(nil)
	require.NoError(t, err)

	insts := make([]*GraphInstance, 4)
	for i := range insts {
		insts[i] = newTestInstance(t, g)
	}
	xs := make([]float32, len(insts))
	var wg sync.WaitGroup
	for i, inst := range insts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			xs[i] = tick(inst, 0.1)
		}()
	}
	wg.Wait()

	m := g.Root().(*StateMachineNode)
	for i, inst := range insts {
		assert.Equal(t, "idle", m.CurrentState(inst).Base().Name())
		assert.InDelta(t, 1, xs[i], 1e-5)
	}
}

func TestLoadGraphFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locomotion.yaml")
	require.NoError(t, os.WriteFile(path, []byte(locomotionYAML), 0o644))

	g, err := LoadGraphFile(path, DefaultRegistry())
	require.NoError(t, err)
	assert.Equal(t, "locomotion", g.Name())

	_, err = LoadGraphFile(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDocumentErrors(t *testing.T) {
	_, err := LoadDocument(strings.NewReader("version: 2\nname: future\n"))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = LoadDocument(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrInvalidGraph)

	for name, c := range map[string]struct {
		doc  Document
		want error
	}{
		"unknown node type": {
			Document{Version: 1, Nodes: []NodeDoc{{Name: "a", Type: "teleport"}}},
			ErrUnknownNodeType,
		},
		"unknown parent": {
			Document{Version: 1, Nodes: []NodeDoc{{Name: "a", Type: "motion", Parent: "ghost"}}},
			ErrNodeNotFound,
		},
		"bad parameter type": {
			Document{Version: 1, Parameters: []ParameterDoc{{Name: "p", Type: "pose"}}},
			ErrParameterType,
		},
		"unknown condition": {
			Document{
				Version: 1,
				Nodes: []NodeDoc{
					{Name: "m", Type: "state_machine"},
					{Name: "a", Type: "motion", Parent: "m"},
				},
				Transitions: []TransitionDoc{{Machine: "m", To: "a", Conditions: []ConditionDoc{{Type: "psychic"}}}},
			},
			ErrUnknownCondition,
		},
		"unknown entry state": {
			Document{
				Version: 1,
				Nodes: []NodeDoc{
					{Name: "m", Type: "state_machine", Attributes: entryAttrs(t, "ghost")},
					{Name: "a", Type: "motion", Parent: "m"},
				},
			},
			ErrNodeNotFound,
		},
		"wrong version": {
			Document{Version: 0},
			ErrUnsupportedVersion,
		},
	} {
		_, err := c.doc.Build(nil)
		assert.ErrorIs(t, err, c.want, name)
	}
}
