package animgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortCompatibilitySharesAnyType(t *testing.T) {
	var number, boolean, vec Port
	number.SetCompatibleTypes(TypeFloat, TypeInt, TypeBool)
	boolean.SetCompatibleTypes(TypeBool)
	vec.SetCompatibleTypes(TypeVector2)

	assert.True(t, boolean.CheckIfIsCompatibleWith(&number))
	assert.True(t, number.CheckIfIsCompatibleWith(&boolean))
	assert.False(t, vec.CheckIfIsCompatibleWith(&number))

	var empty Port
	assert.False(t, empty.CheckIfIsCompatibleWith(&number))
	number.ClearCompatibleTypes()
	assert.Equal(t, TypeNone, number.PrimaryType())
}

func TestPortCompatibilityStopsAtFirstEmptyTag(t *testing.T) {
	tests := []struct {
		name string
		a, b []TypeID
		want bool
	}{
		{name: "gap hides later tag", a: []TypeID{TypeFloat, TypeNone, TypeInt}, b: []TypeID{TypeInt}, want: false},
		{name: "gap on the other side", a: []TypeID{TypeInt}, b: []TypeID{TypeFloat, TypeNone, TypeInt}, want: false},
		{name: "match before gap", a: []TypeID{TypeFloat, TypeNone, TypeInt}, b: []TypeID{TypeFloat}, want: true},
		{name: "match in last slot", a: []TypeID{TypeFloat, TypeInt, TypeBool, TypeVector2}, b: []TypeID{TypeVector2}, want: true},
		{name: "match in last slot reversed", a: []TypeID{TypeVector2}, b: []TypeID{TypeFloat, TypeInt, TypeBool, TypeVector2}, want: true},
		{name: "full lists disjoint", a: []TypeID{TypeFloat, TypeInt, TypeBool, TypeVector2}, b: []TypeID{TypePose}, want: false},
		{name: "leading empty tag", a: []TypeID{TypeNone, TypeFloat}, b: []TypeID{TypeFloat}, want: false},
		{name: "shared middle tag", a: []TypeID{TypeFloat, TypeBool, TypeInt}, b: []TypeID{TypePose, TypeInt}, want: true},
		{name: "both empty", a: nil, b: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a, b Port
			a.SetCompatibleTypes(tt.a...)
			b.SetCompatibleTypes(tt.b...)
			assert.Equal(t, tt.want, a.CheckIfIsCompatibleWith(&b))
			assert.Equal(t, tt.want, b.CheckIfIsCompatibleWith(&a), "compatibility is symmetric")
		})
	}
}

func TestPortsKeepNamesAndCountsOnceAdded(t *testing.T) {
	tests := []struct {
		name    string
		node    Node
		inputs  []string
		outputs []string
	}{
		{name: "blend2", node: NewBlend2Node(), inputs: []string{"Pose A", "Pose B", "Weight"}, outputs: []string{"Pose"}},
		{name: "float math2", node: NewFloatMath2Node(Math2Add), inputs: []string{"x", "y"}, outputs: []string{"Result"}},
		{name: "state machine", node: NewStateMachineNode(), outputs: []string{"Pose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraph(tt.name)
			mustAdd(t, g, tt.node, "n", NodeHandle{})
			b := tt.node.Base()

			require.Equal(t, len(tt.inputs), b.NumInputs())
			require.Equal(t, len(tt.outputs), b.NumOutputs())
			for i, name := range tt.inputs {
				assert.Equal(t, i, b.FindInputPortByName(name))
				assert.Equal(t, name, b.InputPort(i).Name)
			}
			for i, name := range tt.outputs {
				assert.Equal(t, i, b.FindOutputPortByName(name))
				assert.Equal(t, name, b.OutputPort(i).Name)
			}
			assert.Equal(t, InvalidIndex, b.FindInputPortByName("missing"))
			assert.Equal(t, InvalidIndex, b.FindOutputPortByName("missing"))

			assert.Panics(t, func() { b.InitInputPorts(5) })
			assert.Panics(t, func() { b.InitOutputPorts(5) })
			assert.Equal(t, len(tt.inputs), b.NumInputs(), "frozen ports keep their count")
			assert.Equal(t, len(tt.outputs), b.NumOutputs())
		})
	}
}

func TestPoseRefCountReturnsToBaseline(t *testing.T) {
	g, blend := newBlendTreeGraph(t)
	inst := newTestInstance(t, g)
	walk, run := g.FindNode("walk"), g.FindNode("run")
	base := inst.PosePoolInUse()

	inst.RequestPoses(walk)
	inst.RequestPoses(run)
	assert.Equal(t, base+2, inst.PosePoolInUse())
	inst.RequestPoses(walk)
	assert.Equal(t, base+2, inst.PosePoolInUse(), "requesting again keeps the held pose")

	inst.IncreaseInputRefCounts(blend)
	assert.Equal(t, uint32(1), inst.UniqueData(walk).PoseRefCount)
	assert.Equal(t, uint32(1), inst.UniqueData(run).PoseRefCount)

	inst.FreeIncomingPoses(blend)
	assert.Zero(t, inst.UniqueData(walk).PoseRefCount)
	assert.Zero(t, inst.UniqueData(run).PoseRefCount)
	assert.Equal(t, base, inst.PosePoolInUse())

	inst.RequestPoses(walk)
	inst.IncreasePoseRefCount(walk)
	inst.IncreasePoseRefCount(walk)
	inst.DecreasePoseRef(walk)
	assert.Equal(t, base+1, inst.PosePoolInUse(), "a remaining reader keeps the pose")
	inst.DecreasePoseRef(walk)
	assert.Equal(t, base, inst.PosePoolInUse())
	inst.DecreasePoseRef(walk)
	assert.Zero(t, inst.UniqueData(walk).PoseRefCount, "the count never underflows")
}

func TestAddNodeRejectsDuplicateNames(t *testing.T) {
	g := NewGraph("dup")
	mustAdd(t, g, NewFloatConstantNode(1), "c", NodeHandle{})

	_, err := g.AddNode(NewFloatConstantNode(2), "c", NodeHandle{})
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = g.AddNode(NewFloatConstantNode(2), "", NodeHandle{})
	assert.ErrorIs(t, err, ErrInvalidGraph)

	n := NewFloatConstantNode(3)
	mustAdd(t, g, n, "d", NodeHandle{})
	_, err = g.AddNode(n, "e", NodeHandle{})
	assert.ErrorIs(t, err, ErrInvalidGraph, "a node belongs to one graph only")
	assert.Equal(t, 2, g.NumNodes())
}

func TestConnectReplacesExistingInputConnection(t *testing.T) {
	g := NewGraph("replace")
	a := mustAdd(t, g, NewFloatConstantNode(1), "a", NodeHandle{})
	b := mustAdd(t, g, NewFloatConstantNode(2), "b", NodeHandle{})
	m := mustAdd(t, g, NewFloatMath2Node(Math2Add), "sum", NodeHandle{})

	_, err := g.Connect(a, 0, m, 0)
	require.NoError(t, err)
	c, err := g.Connect(b, 0, m, 0)
	require.NoError(t, err)

	sum := g.Node(m).Base()
	require.Len(t, sum.Connections(), 1)
	assert.Same(t, c, sum.FindConnection(0))
	assert.Equal(t, b, sum.InputNode(0).Base().Handle())

	assert.True(t, g.Disconnect(m, 0))
	assert.False(t, g.Disconnect(m, 0))
	assert.False(t, sum.InputPort(0).IsConnected())
}

func TestConnectErrors(t *testing.T) {
	g := NewGraph("errors")
	tree := mustAdd(t, g, NewBlendTreeNode(), "tree", NodeHandle{})
	inner := mustAdd(t, g, NewFloatConstantNode(1), "inner", tree)
	outer := mustAdd(t, g, NewFloatConstantNode(1), "outer", NodeHandle{})
	math := mustAdd(t, g, NewFloatMath1Node(Math1Abs), "abs", NodeHandle{})
	vec := mustAdd(t, g, NewVector2ComposeNode(), "vec", NodeHandle{})

	_, err := g.Connect(inner, 0, math, 0)
	assert.ErrorIs(t, err, ErrInvalidGraph)

	_, err = g.Connect(outer, 3, math, 0)
	assert.ErrorIs(t, err, ErrPortOutOfRange)

	_, err = g.Connect(vec, 0, math, 0)
	assert.ErrorIs(t, err, ErrIncompatiblePorts)

	_, err = g.Connect(math, 0, math, 0)
	assert.ErrorIs(t, err, ErrInvalidGraph)

	_, err = g.ConnectByName("outer", "Result", "abs", "nope")
	assert.ErrorIs(t, err, ErrPortOutOfRange)
	_, err = g.ConnectByName("ghost", "Result", "abs", "x")
	assert.ErrorIs(t, err, ErrNodeNotFound)

	require.NoError(t, g.RemoveNode(outer))
	_, err = g.Connect(outer, 0, math, 0)
	assert.ErrorIs(t, err, ErrStaleHandle)
}

func TestRemoveNodeDropsConnectionsAndChildren(t *testing.T) {
	g := NewGraph("remove")
	tree := mustAdd(t, g, NewBlendTreeNode(), "tree", NodeHandle{})
	final := mustAdd(t, g, NewFinalNode(), "final", tree)
	mustAdd(t, g, NewMotionNode("walk"), "walk", tree)
	mustConnect(t, g, "walk", "Pose", "final", "Pose")

	walk, ok := g.FindHandle("walk")
	require.True(t, ok)
	require.NoError(t, g.RemoveNode(walk))
	assert.Nil(t, g.Node(walk))
	assert.Empty(t, g.Node(final).Base().Connections())
	assert.ErrorIs(t, g.RemoveNode(walk), ErrStaleHandle)

	// The freed slot is reused with a new generation.
	again := mustAdd(t, g, NewMotionNode("run"), "run", tree)
	assert.Equal(t, walk.Index, again.Index)
	assert.NotEqual(t, walk.Generation, again.Generation)

	require.NoError(t, g.RemoveNode(tree))
	assert.Equal(t, 0, g.NumNodes())
	assert.Nil(t, g.FindNode("final"))
}

func TestValidateReportsMissingRootAndCycles(t *testing.T) {
	g := NewGraph("cycle")
	mustAdd(t, g, NewFloatMath1Node(Math1Abs), "a", NodeHandle{})
	mustAdd(t, g, NewFloatMath1Node(Math1Sign), "b", NodeHandle{})
	mustConnect(t, g, "a", "Result", "b", "x")
	mustConnect(t, g, "b", "Result", "a", "x")

	err := g.Validate()
	require.ErrorIs(t, err, ErrInvalidGraph)
	assert.Contains(t, err.Error(), "no root node")
	assert.Contains(t, err.Error(), "cycle")
}

func TestSetRootRequiresPoseOutput(t *testing.T) {
	g := NewGraph("root")
	c := mustAdd(t, g, NewFloatConstantNode(1), "c", NodeHandle{})
	assert.ErrorIs(t, g.SetRoot(c), ErrInvalidGraph)

	m := mustAdd(t, g, NewMotionNode("walk"), "walk", NodeHandle{})
	require.NoError(t, g.SetRoot(m))
	assert.NoError(t, g.Validate())
}

func TestAddParameter(t *testing.T) {
	g := NewGraph("params")
	require.NoError(t, g.AddParameter(ParameterDef{Name: "speed", Type: TypeFloat, Default: FloatValue(0.5)}))
	assert.ErrorIs(t, g.AddParameter(ParameterDef{Name: "speed", Type: TypeFloat}), ErrDuplicateName)
	assert.ErrorIs(t, g.AddParameter(ParameterDef{Name: "pose", Type: TypePose}), ErrParameterType)

	i, ok := g.FindParameter("speed")
	require.True(t, ok)
	assert.Equal(t, 0, i)
	assert.Equal(t, TypeFloat, g.Parameters()[i].Default.Type)
}
