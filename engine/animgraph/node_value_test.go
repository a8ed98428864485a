package animgraph

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMath1Apply(t *testing.T) {
	cases := []struct {
		op   Math1Op
		x    float32
		want float32
	}{
		{Math1Sqr, 3, 9},
		{Math1Sqrt, 16, 4},
		{Math1Sqrt, -4, 0},
		{Math1Abs, -2.5, 2.5},
		{Math1Floor, 1.7, 1},
		{Math1Ceil, 1.2, 2},
		{Math1OneMinus, 0.25, 0.75},
		{Math1Invert, 4, 0.25},
		{Math1Invert, 0, 0},
		{Math1Log, 100, 2},
		{Math1Log, 0, 0},
		{Math1Log2, 8, 3},
		{Math1Ln, -1, 0},
		{Math1Fraction, 2.75, 0.75},
		{Math1Sign, -3, -1},
		{Math1Sign, 0, 0},
		{Math1Round, 2.5, 3},
		{Math1Degrees, 3.14159265, 180},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, c.op.Apply(c.x, nil), 1e-4, "%s(%v)", c.op, c.x)
	}

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 20; i++ {
		v := Math1RandomFloat.Apply(5, rng)
		assert.GreaterOrEqual(t, v, float32(0))
		assert.Less(t, v, float32(5))
	}
}

func TestMath2Apply(t *testing.T) {
	cases := []struct {
		op   Math2Op
		x, y float32
		want float32
	}{
		{Math2Add, 2, 3, 5},
		{Math2Subtract, 2, 3, -1},
		{Math2Multiply, 2, 3, 6},
		{Math2Divide, 3, 2, 1.5},
		{Math2Divide, 3, 0, 0},
		{Math2Average, 2, 4, 3},
		{Math2Mod, 7, 3, 1},
		{Math2Mod, 7, 0, 0},
		{Math2Min, 2, 3, 2},
		{Math2Max, 2, 3, 3},
		{Math2Power, 2, 3, 8},
		{Math2Power, 0, -1, 0},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, c.op.Apply(c.x, c.y, nil), 1e-5, "%s(%v, %v)", c.op, c.x, c.y)
	}
}

func TestCompareFuncTest(t *testing.T) {
	assert.True(t, CompareEqual.Test(1, 1.0000001, 0))
	assert.True(t, CompareNotEqual.Test(1, 2, 0))
	assert.True(t, CompareLess.Test(1, 2, 0))
	assert.False(t, CompareGreater.Test(1, 2, 0))
	assert.True(t, CompareLessEqual.Test(2, 2, 0))
	assert.True(t, CompareGreaterEqual.Test(2, 2, 0))
	assert.True(t, CompareInRange.Test(0.5, 1, 0), "range bounds may be given in either order")
	assert.False(t, CompareInRange.Test(1.5, 0, 1))
	assert.True(t, CompareNotInRange.Test(1.5, 0, 1))
}

func TestBoolLogicApply(t *testing.T) {
	assert.True(t, LogicAnd.Apply(true, true))
	assert.False(t, LogicAnd.Apply(true, false))
	assert.True(t, LogicOr.Apply(false, true))
	assert.True(t, LogicXor.Apply(true, false))
	assert.False(t, LogicNand.Apply(true, true))
	assert.True(t, LogicNor.Apply(false, false))
	assert.True(t, LogicXnor.Apply(false, false))
	assert.True(t, LogicNotX.Apply(false, true))
	assert.False(t, LogicNotY.Apply(false, true))
}

func TestMath2NodeReadsConnectedAndDefaultInputs(t *testing.T) {
	g := NewGraph("math")
	mustAdd(t, g, NewFloatConstantNode(6), "six", NodeHandle{})
	div := NewFloatMath2Node(Math2Divide)
	div.DefaultValueX = 1
	div.DefaultValueY = 4
	mustAdd(t, g, div, "div", NodeHandle{})
	inst := newTestInstance(t, g)

	assert.InDelta(t, 0.25, evalValue(inst, div, 0).AsFloat(), 1e-6)

	mustConnect(t, g, "six", "Result", "div", "x")
	assert.InDelta(t, 1.5, evalValue(inst, div, 0).AsFloat(), 1e-6)

	mustAdd(t, g, NewFloatConstantNode(0), "zero", NodeHandle{})
	mustConnect(t, g, "zero", "Result", "div", "y")
	assert.Equal(t, float32(0), evalValue(inst, div, 0).AsFloat())
}

func TestFloatConditionNode(t *testing.T) {
	g := NewGraph("condition")
	mustAdd(t, g, NewFloatConstantNode(3), "three", NodeHandle{})
	cond := NewFloatConditionNode(CompareGreater)
	cond.DefaultValue = 2
	cond.TrueReturnMode = ReturnX
	cond.FalseResult = -1
	mustAdd(t, g, cond, "cond", NodeHandle{})
	mustConnect(t, g, "three", "Result", "cond", "x")
	inst := newTestInstance(t, g)

	assert.Equal(t, float32(3), evalValue(inst, cond, 0).AsFloat())
	assert.True(t, inst.OutputValue(cond, 1).AsBool())
	assert.Equal(t, TypeBool, inst.OutputValue(cond, 1).Type)

	cond.DefaultValue = 5
	assert.Equal(t, float32(-1), evalValue(inst, cond, 0).AsFloat())
	assert.False(t, inst.OutputValue(cond, 1).AsBool())
}

func TestBoolLogicNodeChainsFromCondition(t *testing.T) {
	g := NewGraph("logic")
	mustAdd(t, g, NewFloatConstantNode(1), "one", NodeHandle{})
	mustAdd(t, g, NewFloatConditionNode(CompareEqual), "is_zero", NodeHandle{})
	logic := NewBoolLogicNode(LogicOr)
	logic.TrueResult = 10
	logic.FalseResult = 20
	mustAdd(t, g, logic, "or", NodeHandle{})
	mustConnect(t, g, "one", "Result", "is_zero", "x")
	mustConnect(t, g, "is_zero", "Bool", "or", "x")
	inst := newTestInstance(t, g)

	assert.Equal(t, float32(20), evalValue(inst, logic, 0).AsFloat())
	assert.False(t, inst.OutputValue(logic, 1).AsBool())

	logic.DefaultValueY = true
	assert.Equal(t, float32(10), evalValue(inst, logic, 0).AsFloat())
}

func TestFloatSwitchSelectsCaseAndClampsDecision(t *testing.T) {
	g := NewGraph("switch")
	sw := NewFloatSwitchNode()
	sw.Values = [5]float32{10, 11, 12, 13, 14}
	mustAdd(t, g, sw, "switch", NodeHandle{})
	decision := NewFloatConstantNode(2)
	mustAdd(t, g, decision, "decision", NodeHandle{})
	mustAdd(t, g, NewFloatConstantNode(99), "override", NodeHandle{})
	mustConnect(t, g, "decision", "Result", "switch", "Decision")
	inst := newTestInstance(t, g)

	assert.Equal(t, float32(12), evalValue(inst, sw, 0).AsFloat())

	mustConnect(t, g, "override", "Result", "switch", "2")
	assert.Equal(t, float32(99), evalValue(inst, sw, 0).AsFloat())

	decision.Value = 42
	assert.Equal(t, float32(14), evalValue(inst, sw, 0).AsFloat())
	decision.Value = -3
	assert.Equal(t, float32(10), evalValue(inst, sw, 0).AsFloat())
}

func TestRangeRemapper(t *testing.T) {
	r := NewRangeRemapperNode()
	r.InputMin, r.InputMax = 0, 10
	r.OutputMin, r.OutputMax = 100, 200
	assert.InDelta(t, 150, r.Remap(5), 1e-4)
	assert.InDelta(t, 200, r.Remap(20), 1e-4)
	r.Clamp = false
	assert.InDelta(t, 300, r.Remap(20), 1e-4)
	r.InputMax = 0
	assert.Equal(t, float32(100), r.Remap(5))

	g := NewGraph("remap")
	mustAdd(t, g, NewFloatConstantNode(0.5), "half", NodeHandle{})
	node := NewRangeRemapperNode()
	node.OutputMin, node.OutputMax = -1, 1
	mustAdd(t, g, node, "remap", NodeHandle{})
	mustConnect(t, g, "half", "Result", "remap", "x")
	inst := newTestInstance(t, g)
	assert.InDelta(t, 0, evalValue(inst, node, 0).AsFloat(), 1e-6)
}

func TestSmoothingEasesTowardsDestination(t *testing.T) {
	g := NewGraph("smooth")
	mustAdd(t, g, NewFloatConstantNode(10), "dest", NodeHandle{})
	s := NewSmoothingNode(2)
	s.UseStartValue = true
	mustAdd(t, g, s, "smooth", NodeHandle{})
	mustConnect(t, g, "dest", "Result", "smooth", "Dest")
	inst := newTestInstance(t, g)

	step := func(dt float32) float32 {
		inst.Update(0)
		inst.PerformUpdate(s, dt)
		inst.PerformOutput(s)
		return inst.OutputValue(s, 0).AsFloat()
	}
	assert.Equal(t, float32(0), step(0.25), "first update starts at the start value")
	assert.InDelta(t, 5, step(0.25), 1e-5)
	assert.InDelta(t, 7.5, step(0.25), 1e-5)
	assert.InDelta(t, 10, step(1), 1e-5, "speed times dt is clamped to a full step")

	s.Rewind(inst)
	s.UseStartValue = false
	assert.Equal(t, float32(10), step(0.25), "without a start value the first update snaps")
}

func TestVector2ComposeAndDecompose(t *testing.T) {
	g := NewGraph("vector")
	mustAdd(t, g, NewFloatConstantNode(3), "x", NodeHandle{})
	mustAdd(t, g, NewFloatConstantNode(4), "y", NodeHandle{})
	compose := NewVector2ComposeNode()
	decompose := NewVector2DecomposeNode()
	mustAdd(t, g, compose, "compose", NodeHandle{})
	mustAdd(t, g, decompose, "decompose", NodeHandle{})
	mustConnect(t, g, "x", "Result", "compose", "x")
	mustConnect(t, g, "y", "Result", "compose", "y")
	mustConnect(t, g, "compose", "Vector", "decompose", "Vector")
	inst := newTestInstance(t, g)

	assert.Equal(t, float32(4), evalValue(inst, decompose, 1).AsFloat())
	assert.Equal(t, float32(3), inst.OutputValue(decompose, 0).AsFloat())

	v := inst.OutputValue(compose, 0)
	assert.Equal(t, TypeVector2, v.Type)
	assert.InDelta(t, 5, v.AsFloat(), 1e-6)
}

func TestParameterNodeExposesParameters(t *testing.T) {
	g := NewGraph("params")
	require.NoError(t, g.AddParameter(ParameterDef{Name: "speed", Type: TypeFloat, Default: FloatValue(0.5), Min: 0, Max: 4}))
	require.NoError(t, g.AddParameter(ParameterDef{Name: "crouch", Type: TypeBool}))
	require.NoError(t, g.AddParameter(ParameterDef{Name: "dir", Type: TypeVector2}))
	all := NewParameterNode()
	only := NewParameterNode("dir", "missing")
	mustAdd(t, g, all, "all", NodeHandle{})
	mustAdd(t, g, only, "only", NodeHandle{})
	inst := newTestInstance(t, g)

	assert.Equal(t, 3, all.NumOutputs())
	require.Equal(t, 1, only.NumOutputs())
	assert.Equal(t, "dir", only.OutputPort(0).Name)
	assert.Equal(t, TypeVector2, only.OutputPort(0).PrimaryType())

	assert.Equal(t, float32(0.5), evalValue(inst, all, 0).AsFloat())

	require.NoError(t, inst.SetParameterFloat("speed", 10))
	require.NoError(t, inst.SetParameterBool("crouch", true))
	require.NoError(t, inst.SetParameterVector2("dir", 1, -1))
	assert.Equal(t, float32(4), evalValue(inst, all, 0).AsFloat(), "values clamp to the declared range")
	assert.True(t, inst.OutputValue(all, 1).AsBool())
	assert.Equal(t, [2]float32{1, -1}, evalValue(inst, only, 0).AsVector2())

	assert.ErrorIs(t, inst.SetParameterFloat("missing", 1), ErrUnknownParameter)
	assert.ErrorIs(t, inst.SetParameterVector2("speed", 1, 1), ErrParameterType)
}

func TestDisabledValueNodeOutputsZero(t *testing.T) {
	g := NewGraph("disabled")
	c := NewFloatConstantNode(7)
	mustAdd(t, g, c, "c", NodeHandle{})
	inst := newTestInstance(t, g)

	assert.Equal(t, float32(7), evalValue(inst, c, 0).AsFloat())
	c.SetDisabled(true)
	v := evalValue(inst, c, 0)
	assert.Equal(t, float32(0), v.AsFloat())
	assert.Equal(t, TypeFloat, v.Type)
}
