package animgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type machineFixture struct {
	g               *Graph
	sm              *StateMachineNode
	idle, walk, run NodeHandle
	rec             *recorder
	inst            *GraphInstance
}

// newMachine builds a root state machine with the motion states idle, walk and run, and
// the parameters speed (float) and sprint (bool). Transitions are added by the caller
// before calling start.
func newMachine(t *testing.T) *machineFixture {
	t.Helper()
	f := &machineFixture{g: NewGraph("locomotion"), sm: NewStateMachineNode(), rec: &recorder{}}
	require.NoError(t, f.g.AddParameter(ParameterDef{Name: "speed", Type: TypeFloat}))
	require.NoError(t, f.g.AddParameter(ParameterDef{Name: "sprint", Type: TypeBool}))
	h := mustAdd(t, f.g, f.sm, "machine", NodeHandle{})
	f.idle = mustAdd(t, f.g, NewMotionNode("idle"), "idle", h)
	f.walk = mustAdd(t, f.g, NewMotionNode("walk"), "walk", h)
	f.run = mustAdd(t, f.g, NewMotionNode("run"), "run", h)
	require.NoError(t, f.sm.SetEntryState(f.idle))
	require.NoError(t, f.g.SetRoot(h))
	return f
}

func (f *machineFixture) start(t *testing.T) {
	t.Helper()
	f.inst = newTestInstance(t, f.g, WithEventHandler(f.rec))
}

func (f *machineFixture) transition(t *testing.T, from, to NodeHandle, blend float32, conds ...Condition) *StateTransition {
	t.Helper()
	tr := NewStateTransition(from, to, blend)
	for _, c := range conds {
		tr.AddCondition(c)
	}
	require.NoError(t, f.sm.AddTransition(tr))
	return tr
}

func (f *machineFixture) current() string {
	if s := f.sm.CurrentState(f.inst); s != nil {
		return s.Base().Name()
	}
	return ""
}

func TestStateMachineTransitionLifecycle(t *testing.T) {
	f := newMachine(t)
	tr := f.transition(t, f.idle, f.walk, 0.2, NewParameterCondition("speed", CompareGreater, 0.5))
	f.start(t)

	assert.InDelta(t, 1, tick(f.inst, 0.1), 1e-5)
	assert.Equal(t, "idle", f.current())
	assert.Equal(t, []string{"entering:idle", "enter:idle"}, f.rec.log)
	assertPoolsBalanced(t, f.inst)

	require.NoError(t, f.inst.SetParameterFloat("speed", 1))
	f.rec.reset()
	assert.InDelta(t, 1, tick(f.inst, 0.1), 1e-5)
	assert.True(t, f.sm.IsTransitioning(f.inst))
	assert.Same(t, tr, f.sm.ActiveTransition(f.inst))
	assert.Equal(t, "walk", f.sm.TargetState(f.inst).Base().Name())
	assert.Equal(t, []string{"exit:idle", "entering:walk", "start_transition"}, f.rec.log)
	assertPoolsBalanced(t, f.inst)

	f.rec.reset()
	assert.InDelta(t, 1.5, tick(f.inst, 0.1), 1e-5)
	assert.InDelta(t, 0.5, tr.BlendWeight(f.inst), 1e-5)
	assert.Empty(t, f.rec.log)
	assert.Len(t, f.sm.ActiveStates(f.inst), 2)
	assertPoolsBalanced(t, f.inst)

	assert.InDelta(t, 2, tick(f.inst, 0.1), 1e-5)
	assert.False(t, f.sm.IsTransitioning(f.inst))
	assert.Equal(t, "walk", f.current())
	assert.Equal(t, "idle", f.sm.PreviousState(f.inst).Base().Name())
	assert.Equal(t, []string{"end_transition", "end:idle", "enter:walk"}, f.rec.log)
	assertPoolsBalanced(t, f.inst)
}

func TestStateMachineEaseInOutShapesWeight(t *testing.T) {
	f := newMachine(t)
	tr := f.transition(t, f.idle, f.walk, 0.4)
	tr.Interpolation = InterpolationEaseInOut
	f.start(t)

	tick(f.inst, 0.1) // starts: a transition without conditions is always ready
	tick(f.inst, 0.1)
	assert.InDelta(t, 0.15625, tr.BlendWeight(f.inst), 1e-5)
	tick(f.inst, 0.1)
	assert.InDelta(t, 0.5, tr.BlendWeight(f.inst), 1e-5)
}

func TestStateMachineTimeCondition(t *testing.T) {
	f := newMachine(t)
	cond := NewTimeCondition(0.25)
	f.transition(t, f.idle, f.walk, 0, cond)
	f.start(t)

	tick(f.inst, 0.1)
	assert.InDelta(t, 1, tick(f.inst, 0.1), 1e-5)
	assert.InDelta(t, 0.2, cond.ElapsedTime(f.inst), 1e-5)
	assert.InDelta(t, 2, tick(f.inst, 0.1), 1e-5, "an instant transition finishes in the tick it starts")
	assert.Equal(t, "walk", f.current())
	assertPoolsBalanced(t, f.inst)
}

func TestStateMachinePicksHighestPriority(t *testing.T) {
	f := newMachine(t)
	f.transition(t, f.idle, f.walk, 0)
	toRun := f.transition(t, f.idle, f.run, 0)
	toRun.Priority = 5
	f.start(t)

	assert.InDelta(t, 3, tick(f.inst, 0.1), 1e-5)
	assert.Equal(t, "run", f.current())
	assert.Same(t, toRun, f.sm.FindTransition(f.idle, f.run))
}

func TestStateMachineWildcardRespectsAllowedStates(t *testing.T) {
	f := newMachine(t)
	wild := f.transition(t, NodeHandle{}, f.run, 0, NewParameterCondition("sprint", CompareEqual, 1))
	wild.AllowedStates = []NodeHandle{f.walk}
	f.start(t)
	require.True(t, wild.IsWildcard())

	require.NoError(t, f.inst.SetParameterBool("sprint", true))
	assert.InDelta(t, 1, tick(f.inst, 0.1), 1e-5)
	assert.Equal(t, "idle", f.current(), "idle is not an allowed source")

	f.rec.reset()
	f.sm.SwitchToState(f.inst, f.walk)
	assert.Equal(t, []string{"exit:idle", "end:idle", "entering:walk", "enter:walk"}, f.rec.log)

	assert.InDelta(t, 3, tick(f.inst, 0.1), 1e-5)
	assert.Equal(t, "run", f.current())
	assert.Equal(t, f.walk, wild.SourceState(f.inst))
	assertPoolsBalanced(t, f.inst)
}

func TestStateMachineInterruptsTransition(t *testing.T) {
	f := newMachine(t)
	f.transition(t, f.idle, f.walk, 1, NewParameterCondition("speed", CompareGreater, 0.5))
	toRun := f.transition(t, f.idle, f.run, 0, NewParameterCondition("speed", CompareGreater, 2))
	toRun.CanInterruptOtherTransitions = true
	f.start(t)

	tick(f.inst, 0.1)
	require.NoError(t, f.inst.SetParameterFloat("speed", 1))
	tick(f.inst, 0.1)
	require.True(t, f.sm.IsTransitioning(f.inst))

	require.NoError(t, f.inst.SetParameterFloat("speed", 3))
	f.rec.reset()
	assert.InDelta(t, 3, tick(f.inst, 0.1), 1e-5)
	assert.Equal(t, "run", f.current())
	assert.Equal(t, []string{
		"exit:walk", "end:walk", "end_transition", "entering:idle", "enter:idle",
		"exit:idle", "entering:run", "start_transition",
		"end_transition", "end:idle", "enter:run",
	}, f.rec.log)
	assertPoolsBalanced(t, f.inst)
}

func TestStateMachineReachesExitState(t *testing.T) {
	f := newMachine(t)
	exit := mustAdd(t, f.g, NewExitNode(), "exit", f.sm.Handle())
	f.transition(t, f.idle, exit, 0, NewTimeCondition(0.15))
	f.start(t)

	tick(f.inst, 0.1)
	assert.False(t, f.sm.ReachedExitState(f.inst))
	assert.InDelta(t, 1, tick(f.inst, 0.1), 1e-5, "the exit state keeps the pose of the state it left")
	assert.True(t, f.sm.ReachedExitState(f.inst))
	assertPoolsBalanced(t, f.inst)

	assert.InDelta(t, 1, tick(f.inst, 0.1), 1e-5)
	assertPoolsBalanced(t, f.inst)
}

func TestStateMachineTransitionToStateAndRewind(t *testing.T) {
	f := newMachine(t)
	f.transition(t, f.idle, f.walk, 0.5, NewParameterCondition("speed", CompareGreater, 100))
	f.start(t)
	tick(f.inst, 0.1)

	f.sm.TransitionToState(f.inst, f.walk)
	assert.True(t, f.sm.IsTransitioning(f.inst), "a defined transition is started regardless of its conditions")

	f.sm.TransitionToState(f.inst, f.run)
	assert.False(t, f.sm.IsTransitioning(f.inst))
	assert.Equal(t, "run", f.current(), "without a transition the machine switches directly")

	f.sm.Rewind(f.inst)
	assert.Equal(t, "idle", f.current())
	assert.InDelta(t, 1, tick(f.inst, 0.1), 1e-5)
}

func TestStateMachineDropsTransitionsOfRemovedState(t *testing.T) {
	f := newMachine(t)
	f.transition(t, f.idle, f.walk, 0.2)
	f.transition(t, f.walk, f.run, 0.2)
	require.Len(t, f.sm.Transitions(), 2)

	require.NoError(t, f.g.RemoveNode(f.walk))
	assert.Empty(t, f.sm.Transitions())

	err := f.sm.AddTransition(NewStateTransition(f.idle, f.walk, 0))
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestEntryStateBindsWhenNamedChildIsAdded(t *testing.T) {
	g := NewGraph("named-entry")
	sm := NewStateMachineNode()
	sm.EntryState = "walk"
	h := mustAdd(t, g, sm, "machine", NodeHandle{})
	mustAdd(t, g, NewMotionNode("idle"), "idle", h)
	walk := mustAdd(t, g, NewMotionNode("walk"), "walk", h)

	assert.Equal(t, walk, sm.entry)
	assert.Equal(t, "walk", sm.EntryStateNode().Base().Name())
}
