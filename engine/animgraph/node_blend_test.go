package animgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertPoolsBalanced checks that the last tick returned every pooled buffer through ref
// counting alone.
func assertPoolsBalanced(t *testing.T, inst *GraphInstance) {
	t.Helper()
	assert.Equal(t, 0, inst.LastSweep(), "buffers left for the sweep")
	assert.Equal(t, 0, inst.PosePoolInUse())
	assert.Equal(t, 0, inst.RefDataPoolInUse())
}

func TestMotionRootOutputsSampledPose(t *testing.T) {
	g := NewGraph("motion")
	walk := NewMotionNode("walk")
	h := mustAdd(t, g, walk, "walk", NodeHandle{})
	require.NoError(t, g.SetRoot(h))
	rec := &recorder{}
	inst := newTestInstance(t, g, WithEventHandler(rec))

	assert.InDelta(t, 2, tick(inst, 0.1), 1e-5)
	assertPoolsBalanced(t, inst)
	assert.Equal(t, 1, inst.PosePoolPeak())
	assert.InDelta(t, 0.1, walk.MotionInstance(inst).CurrentTime(), 1e-5)

	tick(inst, 0.1)
	assert.Empty(t, inst.Events())
	tick(inst, 0.1)
	require.Len(t, inst.Events(), 1)
	e := inst.Events()[0]
	assert.Equal(t, "step", e.Event.Type)
	assert.Equal(t, "walk", e.MotionID)
	assert.Equal(t, h, e.Emitter)
	assert.Len(t, rec.events, 1)
	assertPoolsBalanced(t, inst)
}

func TestMissingMotionOutputsBindPose(t *testing.T) {
	g := NewGraph("missing")
	m := NewMotionNode("nope")
	h := mustAdd(t, g, m, "nope", NodeHandle{})
	require.NoError(t, g.SetRoot(h))
	inst := newTestInstance(t, g)

	assert.Equal(t, float32(0), tick(inst, 0.1))
	assert.True(t, inst.UniqueData(m).HasFlag(FlagHasError))
	assert.Nil(t, m.MotionInstance(inst))
	assertPoolsBalanced(t, inst)
}

func TestGraphWithoutRootOutputsBindPose(t *testing.T) {
	inst := newTestInstance(t, NewGraph("empty"))
	assert.Equal(t, float32(0), tick(inst, 0.1))
	assert.Equal(t, uint64(1), inst.Ticks())
}

// newBlendTreeGraph builds tree(final <- blend2(walk, run, weight param)).
func newBlendTreeGraph(t *testing.T) (*Graph, *Blend2Node) {
	t.Helper()
	g := NewGraph("tree")
	require.NoError(t, g.AddParameter(ParameterDef{Name: "weight", Type: TypeFloat}))
	tree := mustAdd(t, g, NewBlendTreeNode(), "tree", NodeHandle{})
	mustAdd(t, g, NewFinalNode(), "final", tree)
	blend := NewBlend2Node()
	mustAdd(t, g, blend, "blend", tree)
	mustAdd(t, g, NewMotionNode("walk"), "walk", tree)
	mustAdd(t, g, NewMotionNode("run"), "run", tree)
	mustAdd(t, g, NewParameterNode("weight"), "params", tree)
	mustConnect(t, g, "walk", "Pose", "blend", "Pose A")
	mustConnect(t, g, "run", "Pose", "blend", "Pose B")
	mustConnect(t, g, "params", "weight", "blend", "Weight")
	mustConnect(t, g, "blend", "Pose", "final", "Pose")
	require.NoError(t, g.SetRoot(tree))
	require.NoError(t, g.Validate())
	return g, blend
}

func TestBlendTreeBlendsByWeight(t *testing.T) {
	g, blend := newBlendTreeGraph(t)
	inst := newTestInstance(t, g)

	for _, c := range []struct{ weight, want float32 }{
		{0, 2},
		{0.5, 2.5},
		{1, 3},
		{7, 3},
	} {
		require.NoError(t, inst.SetParameterFloat("weight", c.weight))
		assert.InDelta(t, c.want, tick(inst, 0.1), 1e-5, "weight %v", c.weight)
		assertPoolsBalanced(t, inst)
	}
	assert.Equal(t, float32(1), blend.Weight(inst))
}

func TestBlend2SplitsWeightsBetweenInputs(t *testing.T) {
	g, _ := newBlendTreeGraph(t)
	inst := newTestInstance(t, g)
	require.NoError(t, inst.SetParameterFloat("weight", 0.25))
	tick(inst, 0.1)

	walk := inst.UniqueData(g.FindNode("walk"))
	run := inst.UniqueData(g.FindNode("run"))
	assert.InDelta(t, 0.75, walk.GlobalWeight, 1e-6)
	assert.InDelta(t, 0.25, run.GlobalWeight, 1e-6)
	assert.InDelta(t, 0.25, run.LocalWeight, 1e-6)
}

func TestDisabledNodeOutputsBindPose(t *testing.T) {
	g, blend := newBlendTreeGraph(t)
	inst := newTestInstance(t, g)
	require.NoError(t, inst.SetParameterFloat("weight", 0.5))

	blend.SetDisabled(true)
	assert.Equal(t, float32(0), tick(inst, 0.1))
	assertPoolsBalanced(t, inst)

	blend.SetDisabled(false)
	assert.InDelta(t, 2.5, tick(inst, 0.1), 1e-5)
}

func TestAdditiveBlendAddsDeltaFromBindPose(t *testing.T) {
	g, blend := newBlendTreeGraph(t)
	blend.Additive = true
	inst := newTestInstance(t, g)

	require.NoError(t, inst.SetParameterFloat("weight", 0.5))
	assert.InDelta(t, 3.5, tick(inst, 0.1), 1e-5)
	require.NoError(t, inst.SetParameterFloat("weight", 0))
	assert.InDelta(t, 2, tick(inst, 0.1), 1e-5)
	assertPoolsBalanced(t, inst)
}

func TestPoseSwitchRewindsNewlySelectedBranch(t *testing.T) {
	g := NewGraph("switch")
	require.NoError(t, g.AddParameter(ParameterDef{Name: "choice", Type: TypeInt}))
	sw := NewPoseSwitchNode()
	h := mustAdd(t, g, sw, "switch", NodeHandle{})
	mustAdd(t, g, NewMotionNode("walk"), "walk", NodeHandle{})
	run := NewMotionNode("run")
	mustAdd(t, g, run, "run", NodeHandle{})
	mustAdd(t, g, NewParameterNode(), "params", NodeHandle{})
	mustConnect(t, g, "walk", "Pose", "switch", "Pose 0")
	mustConnect(t, g, "run", "Pose", "switch", "Pose 1")
	mustConnect(t, g, "params", "choice", "switch", "Decision")
	require.NoError(t, g.SetRoot(h))
	inst := newTestInstance(t, g)

	assert.InDelta(t, 2, tick(inst, 0.1), 1e-5)
	assert.Equal(t, 0, sw.Decision(inst))

	require.NoError(t, inst.SetParameterFloat("choice", 1))
	tick(inst, 0.1)
	assert.InDelta(t, 3, tick(inst, 0.1), 1e-5)
	assert.InDelta(t, 0.2, run.MotionInstance(inst).CurrentTime(), 1e-5)
	assertPoolsBalanced(t, inst)

	require.NoError(t, inst.SetParameterFloat("choice", 0))
	tick(inst, 0.1)
	require.NoError(t, inst.SetParameterFloat("choice", 1))
	tick(inst, 0.1)
	assert.InDelta(t, 0.1, run.MotionInstance(inst).CurrentTime(), 1e-5, "switching back restarts the branch")

	require.NoError(t, inst.SetParameterFloat("choice", 9))
	assert.Equal(t, float32(0), tick(inst, 0.1), "an unconnected branch outputs the bind pose")
	assertPoolsBalanced(t, inst)
}

func TestRemovingNodeDropsInstanceData(t *testing.T) {
	g, _ := newBlendTreeGraph(t)
	inst := newTestInstance(t, g)
	tick(inst, 0.1)

	h, ok := g.FindHandle("run")
	require.True(t, ok)
	require.NoError(t, g.RemoveNode(h))
	assert.InDelta(t, 2, tick(inst, 0.1), 1e-5, "blend2 without B outputs A")
	assertPoolsBalanced(t, inst)
}
