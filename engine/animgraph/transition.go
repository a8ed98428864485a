package animgraph

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/pose"
)

// Interpolation shapes a transition's blend weight over its blend time.
type Interpolation int

const (
	InterpolationLinear Interpolation = iota
	InterpolationEaseInOut
)

var interpolationNames = []string{"linear", "ease_in_out"}

func (i Interpolation) String() string { return enumString(interpolationNames, int(i)) }

// MarshalText implements encoding.TextMarshaler.
func (i Interpolation) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Interpolation) UnmarshalText(b []byte) error {
	v, err := parseEnum(interpolationNames, "interpolation", b)
	*i = Interpolation(v)
	return err
}

// StateTransition moves a state machine from a source state to a target state once all of
// its conditions hold, cross-fading the two over BlendTime. A transition without a source
// is a wildcard: it may start from any state allowed by AllowedStates (every state when empty).
type StateTransition struct {
	source  NodeHandle
	target  NodeHandle
	machine *StateMachineNode
	id      uint32

	BlendTime                    float32
	Interpolation                Interpolation
	Priority                     int
	CanBeInterrupted             bool
	CanInterruptOtherTransitions bool
	CanInterruptItself           bool
	SyncMode                     SyncMode
	EventMode                    EventMode
	Disabled                     bool
	AllowedStates                []NodeHandle

	conditions []Condition
}

type transitionData struct {
	elapsed float32
	weight  float32
	done    bool
	source  NodeHandle
}

// NewStateTransition creates a transition from source to target with a linear blend.
// A zero source handle creates a wildcard transition.
//
// Parameters:
//   - source: the source state, or the zero handle
//   - target: the target state
//   - blendTime: cross-fade duration in seconds
//
// Returns:
//   - *StateTransition: the transition; add it with StateMachineNode.AddTransition
func NewStateTransition(source, target NodeHandle, blendTime float32) *StateTransition {
	return &StateTransition{
		source:           source,
		target:           target,
		BlendTime:        blendTime,
		CanBeInterrupted: true,
		SyncMode:         SyncDisabled,
		EventMode:        EventModeBoth,
	}
}

// ID returns the transition id, unique within its state machine.
func (t *StateTransition) ID() uint32 { return t.id }

// Source returns the source state handle; zero for a wildcard.
func (t *StateTransition) Source() NodeHandle { return t.source }

// Target returns the target state handle.
func (t *StateTransition) Target() NodeHandle { return t.target }

// Machine returns the state machine owning the transition, or nil.
func (t *StateTransition) Machine() *StateMachineNode { return t.machine }

// IsWildcard reports whether the transition may start from any allowed state.
func (t *StateTransition) IsWildcard() bool { return !t.source.IsValid() }

// AddCondition appends a condition. All conditions must hold for the transition to start.
func (t *StateTransition) AddCondition(c Condition) { t.conditions = append(t.conditions, c) }

// Conditions returns the transition's conditions.
func (t *StateTransition) Conditions() []Condition { return t.conditions }

// allowsSource reports whether a wildcard may start from state.
func (t *StateTransition) allowsSource(state NodeHandle) bool {
	if len(t.AllowedStates) == 0 {
		return true
	}
	for _, h := range t.AllowedStates {
		if h == state {
			return true
		}
	}
	return false
}

func (t *StateTransition) data(inst *GraphInstance) *transitionData {
	if t.machine == nil {
		return nil
	}
	md := payloadOf[*stateMachineData](inst, t.machine)
	if md == nil {
		return nil
	}
	td, ok := md.transitions[t]
	if !ok {
		td = &transitionData{}
		md.transitions[t] = td
	}
	return td
}

// BlendWeight returns the shaped blend weight of the transition in inst.
func (t *StateTransition) BlendWeight(inst *GraphInstance) float32 {
	if td := t.data(inst); td != nil {
		return td.weight
	}
	return 0
}

// IsDone reports whether the transition finished blending in inst.
func (t *StateTransition) IsDone(inst *GraphInstance) bool {
	td := t.data(inst)
	return td != nil && td.done
}

// SourceState returns the state the transition started from in inst. For a wildcard this
// is the state that was current when it started.
func (t *StateTransition) SourceState(inst *GraphInstance) NodeHandle {
	if !t.IsWildcard() {
		return t.source
	}
	if td := t.data(inst); td != nil {
		return td.source
	}
	return NodeHandle{}
}

func (t *StateTransition) start(inst *GraphInstance, source NodeHandle) {
	td := t.data(inst)
	if td == nil {
		return
	}
	*td = transitionData{source: source}
	if t.BlendTime <= common.Epsilon {
		td.weight = 1
		td.done = true
	}
}

func (t *StateTransition) update(inst *GraphInstance, dt float32) {
	td := t.data(inst)
	if td == nil || td.done {
		return
	}
	td.elapsed += dt
	if td.elapsed >= t.BlendTime || t.BlendTime <= common.Epsilon {
		td.elapsed = t.BlendTime
		td.weight = 1
		td.done = true
		return
	}
	w := td.elapsed / t.BlendTime
	if t.Interpolation == InterpolationEaseInOut {
		w = w * w * (3 - 2*w)
	}
	td.weight = w
}

// CalcTransitionOutput cross-fades from and to into out by the transition's weight.
func (t *StateTransition) CalcTransitionOutput(inst *GraphInstance, from, to, out *pose.Pose) {
	out.Blend(from, to, t.BlendWeight(inst))
}

// conditionsMet reports whether every condition holds. A transition without conditions is
// always ready.
func (t *StateTransition) conditionsMet(inst *GraphInstance) bool {
	for _, c := range t.conditions {
		if !c.Test(inst, t, inst.ConditionData(c)) {
			return false
		}
	}
	return true
}

func (t *StateTransition) updateConditions(inst *GraphInstance, dt float32) {
	for _, c := range t.conditions {
		c.Update(inst, t, inst.ConditionData(c), dt)
	}
}

// ResetConditions resets the per-instance state of every condition.
func (t *StateTransition) ResetConditions(inst *GraphInstance) {
	for _, c := range t.conditions {
		c.Reset(inst, t, inst.ConditionData(c))
	}
}
