package animgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVector2AndTagConditions(t *testing.T) {
	g := NewGraph("conditions")
	require.NoError(t, g.AddParameter(ParameterDef{Name: "dir", Type: TypeVector2}))
	require.NoError(t, g.AddParameter(ParameterDef{Name: "armed", Type: TypeBool}))
	require.NoError(t, g.AddParameter(ParameterDef{Name: "crouched", Type: TypeBool}))
	inst := newTestInstance(t, g)
	require.NoError(t, inst.SetParameterVector2("dir", 3, 4))

	length := &Vector2Condition{Parameter: "dir", Function: CompareEqual, TestValue: 5}
	x := &Vector2Condition{Parameter: "dir", Operation: Vector2X, Function: CompareLess, TestValue: 3.5}
	y := &Vector2Condition{Parameter: "dir", Operation: Vector2Y, Function: CompareInRange, TestValue: 0, RangeValue: 3}
	wrongType := &Vector2Condition{Parameter: "armed", Function: CompareGreaterEqual}
	assert.True(t, length.Test(inst, nil, nil))
	assert.True(t, x.Test(inst, nil, nil))
	assert.False(t, y.Test(inst, nil, nil))
	assert.False(t, wrongType.Test(inst, nil, nil))

	require.NoError(t, inst.SetParameterBool("armed", true))
	tags := []string{"armed", "crouched", "unknown"}
	for _, c := range []struct {
		f    TagTest
		want bool
	}{
		{TagTestAll, false},
		{TagTestNotAll, true},
		{TagTestNone, false},
		{TagTestOneOrMore, true},
	} {
		cond := &TagCondition{Function: c.f, Tags: tags}
		assert.Equal(t, c.want, cond.Test(inst, nil, nil), c.f.String())
	}
}

func TestTimeConditionRandomizesCountDown(t *testing.T) {
	g := NewGraph("time")
	inst := newTestInstance(t, g)
	cond := &TimeCondition{UseRandomization: true, MinRandomTime: 0.4, MaxRandomTime: 0.2}

	state := inst.ConditionData(cond).(*timeConditionData)
	assert.GreaterOrEqual(t, state.countDown, float32(0.2))
	assert.LessOrEqual(t, state.countDown, float32(0.4))

	cond.Update(inst, nil, state, 0.5)
	assert.True(t, cond.Test(inst, nil, state))
	cond.Reset(inst, nil, state)
	assert.False(t, cond.Test(inst, nil, state))
	assert.Zero(t, cond.ElapsedTime(inst))
}

func TestPlayTimeAndMotionConditionsReadStates(t *testing.T) {
	f := newMachine(t)
	never := f.transition(t, f.idle, f.walk, 0, NewParameterCondition("speed", CompareGreater, 100))
	f.start(t)
	tick(f.inst, 0.1)
	tick(f.inst, 0.1)

	for _, c := range []struct {
		cond *PlayTimeCondition
		want bool
	}{
		{&PlayTimeCondition{Node: "idle", Mode: PlayTimeReachedTime, PlayTime: 0.15}, true},
		{&PlayTimeCondition{Node: "idle", Mode: PlayTimeReachedTime, PlayTime: 0.25}, false},
		{&PlayTimeCondition{Node: "idle", Mode: PlayTimeReachedEnd}, false},
		{&PlayTimeCondition{Node: "idle", Mode: PlayTimeHasLessThan, PlayTime: 1.9}, true},
		{&PlayTimeCondition{Node: "idle", Mode: PlayTimeHasLessThan, PlayTime: 1.7}, false},
		{&PlayTimeCondition{Node: "ghost", Mode: PlayTimeReachedTime}, false},
	} {
		assert.Equal(t, c.want, c.cond.Test(f.inst, never, nil), "%s %v", c.cond.Mode, c.cond.PlayTime)
	}

	for _, c := range []struct {
		cond *MotionCondition
		want bool
	}{
		{&MotionCondition{Node: "idle", Function: MotionTestIsAssigned}, true},
		{&MotionCondition{Node: "ghost", Function: MotionTestIsNotAssigned}, true},
		{&MotionCondition{Node: "ghost", Function: MotionTestHasEnded}, false},
		{&MotionCondition{Node: "idle", Function: MotionTestHasEnded}, false},
		{&MotionCondition{Node: "idle", Function: MotionTestPlayTime, PlayTime: 0.15}, true},
		{&MotionCondition{Node: "idle", Function: MotionTestPlayTimeLeft, PlayTime: 1.9}, true},
		{&MotionCondition{Node: "idle", Function: MotionTestPlayTimeLeft, PlayTime: 1}, false},
	} {
		assert.Equal(t, c.want, c.cond.Test(f.inst, never, nil), "%s on %s", c.cond.Function, c.cond.Node)
	}
}

func TestMotionConditionLatchesEvent(t *testing.T) {
	f := newMachine(t)
	require.NoError(t, f.sm.SetEntryState(f.walk))
	cond := &MotionCondition{Node: "walk", Function: MotionTestEvent, EventType: "step"}
	f.transition(t, f.walk, f.run, 0, cond)
	f.start(t)

	for range 3 {
		assert.InDelta(t, 2, tick(f.inst, 0.1), 1e-5)
	}
	assert.Len(t, f.rec.events, 1, "the step fires while walk plays from 0.2 to 0.3")
	assert.Equal(t, "walk", f.current())

	assert.InDelta(t, 3, tick(f.inst, 0.1), 1e-5, "the condition sees the event on the next update")
	assert.Equal(t, "run", f.current())
	assertPoolsBalanced(t, f.inst)
}

func TestStateConditionChainsTransitionsInOneUpdate(t *testing.T) {
	f := newMachine(t)
	f.transition(t, f.idle, f.walk, 0, NewParameterCondition("speed", CompareGreater, 0.5))
	f.transition(t, f.walk, f.run, 0, &StateCondition{State: "idle", Function: StateTestEnd})
	f.start(t)

	assert.InDelta(t, 1, tick(f.inst, 0.1), 1e-5)
	require.NoError(t, f.inst.SetParameterFloat("speed", 1))
	f.rec.reset()

	assert.InDelta(t, 3, tick(f.inst, 0.1), 1e-5)
	assert.Equal(t, "run", f.current())
	assert.Equal(t, "walk", f.sm.PreviousState(f.inst).Base().Name())
	assert.Equal(t, []string{
		"exit:idle", "entering:walk", "start_transition",
		"end_transition", "end:idle", "enter:walk",
		"exit:walk", "entering:run", "start_transition",
		"end_transition", "end:walk", "enter:run",
	}, f.rec.log)
	assertPoolsBalanced(t, f.inst)
}
