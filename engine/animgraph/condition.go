package animgraph

import (
	"math"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

// Condition is a test a StateTransition evaluates before it may start. Conditions are
// shared by every instance of a graph; per-instance state lives in the value returned by
// CreateUniqueData, which the instance passes back to Update, Test and Reset.
type Condition interface {
	// TypeName returns the registered condition type name.
	TypeName() string
	// CreateUniqueData returns the per-instance state, or nil.
	CreateUniqueData(inst *GraphInstance) any
	// Update advances time-based state while the transition's source state is active.
	Update(inst *GraphInstance, t *StateTransition, state any, dt float32)
	// Test reports whether the condition holds.
	Test(inst *GraphInstance, t *StateTransition, state any) bool
	// Reset clears the per-instance state. It runs when the source state is entered.
	Reset(inst *GraphInstance, t *StateTransition, state any)
}

// ConditionBase supplies stateless defaults for Condition. Embed it in condition types
// that only implement Test.
type ConditionBase struct{}

// CreateUniqueData returns no state.
func (ConditionBase) CreateUniqueData(*GraphInstance) any { return nil }

// Update does nothing.
func (ConditionBase) Update(*GraphInstance, *StateTransition, any, float32) {}

// Reset does nothing.
func (ConditionBase) Reset(*GraphInstance, *StateTransition, any) {}

// conditionNode resolves a node referenced by name from the transition's graph.
func conditionNode(t *StateTransition, name string) Node {
	if t == nil || t.machine == nil || t.machine.graph == nil || name == "" {
		return nil
	}
	return t.machine.graph.FindNode(name)
}

// ParameterCondition compares a numeric parameter against a test value.
type ParameterCondition struct {
	ConditionBase `yaml:"-"`

	Parameter  string      `yaml:"parameter"`
	Function   CompareFunc `yaml:"function"`
	TestValue  float32     `yaml:"test_value"`
	RangeValue float32     `yaml:"range_value"`
}

// NewParameterCondition creates a condition comparing parameter against value with f.
func NewParameterCondition(parameter string, f CompareFunc, value float32) *ParameterCondition {
	return &ParameterCondition{Parameter: parameter, Function: f, TestValue: value}
}

// TypeName returns "parameter".
func (c *ParameterCondition) TypeName() string { return "parameter" }

// Test is false for an unknown or vector parameter.
func (c *ParameterCondition) Test(inst *GraphInstance, _ *StateTransition, _ any) bool {
	v, ok := inst.Parameter(c.Parameter)
	if !ok || v.Type == TypeVector2 || v.Type == TypeVector3 {
		return false
	}
	return c.Function.Test(v.AsFloat(), c.TestValue, c.RangeValue)
}

// Vector2Op reduces a vector to the float a Vector2Condition compares.
type Vector2Op int

const (
	Vector2Length Vector2Op = iota
	Vector2X
	Vector2Y
)

var vector2OpNames = []string{"length", "x", "y"}

func (o Vector2Op) String() string { return enumString(vector2OpNames, int(o)) }

// MarshalText implements encoding.TextMarshaler.
func (o Vector2Op) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Vector2Op) UnmarshalText(b []byte) error {
	v, err := parseEnum(vector2OpNames, "vector2 operation", b)
	*o = Vector2Op(v)
	return err
}

// Apply reduces v.
func (o Vector2Op) Apply(v [2]float32) float32 {
	switch o {
	case Vector2X:
		return v[0]
	case Vector2Y:
		return v[1]
	}
	return float32(math.Hypot(float64(v[0]), float64(v[1])))
}

// Vector2Condition compares the length or one component of a vector parameter.
type Vector2Condition struct {
	ConditionBase `yaml:"-"`

	Parameter  string      `yaml:"parameter"`
	Operation  Vector2Op   `yaml:"operation"`
	Function   CompareFunc `yaml:"function"`
	TestValue  float32     `yaml:"test_value"`
	RangeValue float32     `yaml:"range_value"`
}

// TypeName returns "vector2".
func (c *Vector2Condition) TypeName() string { return "vector2" }

// Test is false for an unknown or non-vector parameter.
func (c *Vector2Condition) Test(inst *GraphInstance, _ *StateTransition, _ any) bool {
	v, ok := inst.Parameter(c.Parameter)
	if !ok || (v.Type != TypeVector2 && v.Type != TypeVector3) {
		return false
	}
	return c.Function.Test(c.Operation.Apply(v.AsVector2()), c.TestValue, c.RangeValue)
}

// TimeCondition holds once its source state has been active for CountDownTime seconds.
// With UseRandomization the count down is drawn from [MinRandomTime, MaxRandomTime]
// every time the source state is entered.
type TimeCondition struct {
	CountDownTime    float32 `yaml:"count_down_time"`
	UseRandomization bool    `yaml:"use_randomization"`
	MinRandomTime    float32 `yaml:"min_random_time"`
	MaxRandomTime    float32 `yaml:"max_random_time"`
}

type timeConditionData struct {
	elapsed   float32
	countDown float32
}

// NewTimeCondition creates a fixed count down.
func NewTimeCondition(countDown float32) *TimeCondition {
	return &TimeCondition{CountDownTime: countDown}
}

// TypeName returns "time".
func (c *TimeCondition) TypeName() string { return "time" }

// CreateUniqueData starts a count down.
func (c *TimeCondition) CreateUniqueData(inst *GraphInstance) any {
	return &timeConditionData{countDown: c.drawCountDown(inst)}
}

func (c *TimeCondition) drawCountDown(inst *GraphInstance) float32 {
	if !c.UseRandomization {
		return c.CountDownTime
	}
	lo, hi := min(c.MinRandomTime, c.MaxRandomTime), max(c.MinRandomTime, c.MaxRandomTime)
	return lo + inst.Rand().Float32()*(hi-lo)
}

// Update advances the elapsed time.
func (c *TimeCondition) Update(_ *GraphInstance, _ *StateTransition, state any, dt float32) {
	if d, ok := state.(*timeConditionData); ok {
		d.elapsed += dt
	}
}

// Test reports whether the count down has run out.
func (c *TimeCondition) Test(_ *GraphInstance, _ *StateTransition, state any) bool {
	d, ok := state.(*timeConditionData)
	return ok && d.elapsed >= d.countDown
}

// Reset restarts the count down.
func (c *TimeCondition) Reset(inst *GraphInstance, _ *StateTransition, state any) {
	if d, ok := state.(*timeConditionData); ok {
		d.elapsed = 0
		d.countDown = c.drawCountDown(inst)
	}
}

// ElapsedTime returns the time counted so far in inst.
func (c *TimeCondition) ElapsedTime(inst *GraphInstance) float32 {
	if d, ok := inst.ConditionData(c).(*timeConditionData); ok {
		return d.elapsed
	}
	return 0
}

// PlayTimeMode selects what a PlayTimeCondition tests.
type PlayTimeMode int

const (
	PlayTimeReachedTime PlayTimeMode = iota
	PlayTimeReachedEnd
	PlayTimeHasLessThan
)

var playTimeModeNames = []string{"reached_time", "reached_end", "has_less_than"}

func (m PlayTimeMode) String() string { return enumString(playTimeModeNames, int(m)) }

// MarshalText implements encoding.TextMarshaler.
func (m PlayTimeMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *PlayTimeMode) UnmarshalText(b []byte) error {
	v, err := parseEnum(playTimeModeNames, "play time mode", b)
	*m = PlayTimeMode(v)
	return err
}

// PlayTimeCondition tests the play time of any node by name.
type PlayTimeCondition struct {
	ConditionBase `yaml:"-"`

	Node     string       `yaml:"node"`
	Mode     PlayTimeMode `yaml:"mode"`
	PlayTime float32      `yaml:"play_time"`
}

// TypeName returns "play_time".
func (c *PlayTimeCondition) TypeName() string { return "play_time" }

// Test is false when the node does not exist.
func (c *PlayTimeCondition) Test(inst *GraphInstance, t *StateTransition, _ any) bool {
	d := inst.UniqueData(conditionNode(t, c.Node))
	if d == nil {
		return false
	}
	switch c.Mode {
	case PlayTimeReachedTime:
		if d.IsBackward() {
			return d.CurrentTime <= c.PlayTime
		}
		return d.CurrentTime >= c.PlayTime
	case PlayTimeReachedEnd:
		if d.IsBackward() {
			return d.CurrentTime <= common.Epsilon
		}
		return d.CurrentTime >= d.Duration-common.Epsilon
	case PlayTimeHasLessThan:
		if d.IsBackward() {
			return d.CurrentTime < c.PlayTime
		}
		return d.Duration-d.CurrentTime < c.PlayTime
	}
	return false
}

// MotionTest selects what a MotionCondition tests.
type MotionTest int

const (
	MotionTestEvent MotionTest = iota
	MotionTestHasEnded
	MotionTestHasReachedMaxLoops
	MotionTestPlayTime
	MotionTestPlayTimeLeft
	MotionTestIsAssigned
	MotionTestIsNotAssigned
)

var motionTestNames = []string{
	"event", "has_ended", "has_reached_max_loops", "play_time", "play_time_left",
	"is_motion_assigned", "is_motion_not_assigned",
}

func (m MotionTest) String() string { return enumString(motionTestNames, int(m)) }

// MarshalText implements encoding.TextMarshaler.
func (m MotionTest) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MotionTest) UnmarshalText(b []byte) error {
	v, err := parseEnum(motionTestNames, "motion test", b)
	*m = MotionTest(v)
	return err
}

// MotionCondition tests the playback of a MotionNode by name. The event test latches once
// a matching event fired and stays true until the source state is entered again; events
// are read from the last post-update, so it lags one tick behind the event.
type MotionCondition struct {
	Node           string     `yaml:"node"`
	Function       MotionTest `yaml:"function"`
	EventType      string     `yaml:"event_type"`
	EventParameter string     `yaml:"event_parameter"`
	NumLoops       int        `yaml:"num_loops"`
	PlayTime       float32    `yaml:"play_time"`
}

type motionConditionData struct {
	triggered bool
}

// TypeName returns "motion".
func (c *MotionCondition) TypeName() string { return "motion" }

// CreateUniqueData returns the event latch.
func (c *MotionCondition) CreateUniqueData(*GraphInstance) any { return &motionConditionData{} }

func (c *MotionCondition) motionNode(t *StateTransition) *MotionNode {
	n, _ := conditionNode(t, c.Node).(*MotionNode)
	return n
}

// Update latches matching events fired by the motion.
func (c *MotionCondition) Update(inst *GraphInstance, t *StateTransition, state any, _ float32) {
	d, ok := state.(*motionConditionData)
	if !ok || c.Function != MotionTestEvent || d.triggered {
		return
	}
	n := c.motionNode(t)
	if n == nil {
		return
	}
	for _, e := range n.FiredEvents(inst) {
		if e.Type != c.EventType {
			continue
		}
		if c.EventParameter != "" && e.Parameters != c.EventParameter {
			continue
		}
		d.triggered = true
		return
	}
}

// Test is false when the node is missing, except for the not-assigned test.
func (c *MotionCondition) Test(inst *GraphInstance, t *StateTransition, state any) bool {
	n := c.motionNode(t)
	if n == nil {
		return c.Function == MotionTestIsNotAssigned
	}
	playing := n.MotionInstance(inst)
	switch c.Function {
	case MotionTestIsAssigned:
		return playing != nil
	case MotionTestIsNotAssigned:
		return playing == nil
	}
	if playing == nil {
		return false
	}
	switch c.Function {
	case MotionTestEvent:
		d, ok := state.(*motionConditionData)
		return ok && d.triggered
	case MotionTestHasEnded:
		return playing.HasEnded()
	case MotionTestHasReachedMaxLoops:
		return playing.NumCurrentLoops() >= c.NumLoops
	case MotionTestPlayTime:
		return playing.CurrentTime() >= c.PlayTime
	case MotionTestPlayTimeLeft:
		return playing.TimeLeft() <= c.PlayTime
	}
	return false
}

// Reset clears the event latch.
func (c *MotionCondition) Reset(_ *GraphInstance, _ *StateTransition, state any) {
	if d, ok := state.(*motionConditionData); ok {
		d.triggered = false
	}
}

// StateTest selects what a StateCondition tests.
type StateTest int

const (
	StateTestExitStates StateTest = iota
	StateTestEnd
	StateTestEntering
	StateTestEnter
	StateTestExit
	StateTestPlayTime
)

var stateTestNames = []string{"exit_states", "end", "entering", "enter", "exit", "play_time"}

func (s StateTest) String() string { return enumString(stateTestNames, int(s)) }

// MarshalText implements encoding.TextMarshaler.
func (s StateTest) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *StateTest) UnmarshalText(b []byte) error {
	v, err := parseEnum(stateTestNames, "state test", b)
	*s = StateTest(v)
	return err
}

func (s StateTest) eventKind() (StateEventKind, bool) {
	switch s {
	case StateTestEnd:
		return StateEventEnd, true
	case StateTestEntering:
		return StateEventEntering, true
	case StateTestEnter:
		return StateEventEnter, true
	case StateTestExit:
		return StateEventExit, true
	}
	return 0, false
}

// StateCondition tests a state by name: whether a nested state machine reached an exit
// state, whether a lifecycle event happened to the state since the condition was reset,
// or how far the state has played.
type StateCondition struct {
	State    string    `yaml:"state"`
	Function StateTest `yaml:"function"`
	PlayTime float32   `yaml:"play_time"`
}

type stateConditionData struct {
	seen      uint64
	triggered bool
}

// TypeName returns "state".
func (c *StateCondition) TypeName() string { return "state" }

// CreateUniqueData starts watching the lifecycle events recorded from now on.
func (c *StateCondition) CreateUniqueData(inst *GraphInstance) any {
	return &stateConditionData{seen: inst.stateSeq}
}

// Update latches lifecycle events of the watched state.
func (c *StateCondition) Update(inst *GraphInstance, t *StateTransition, state any, _ float32) {
	d, ok := state.(*stateConditionData)
	kind, watches := c.Function.eventKind()
	if !ok || !watches {
		return
	}
	n := conditionNode(t, c.State)
	if n == nil {
		return
	}
	found, latest := inst.stateEventsSince(d.seen, n.Base().Handle(), kind)
	if found {
		d.triggered = true
	}
	d.seen = latest
}

// Test is false when the state does not exist.
func (c *StateCondition) Test(inst *GraphInstance, t *StateTransition, state any) bool {
	n := conditionNode(t, c.State)
	if n == nil {
		return false
	}
	switch c.Function {
	case StateTestExitStates:
		m, ok := n.(*StateMachineNode)
		return ok && m.ReachedExitState(inst)
	case StateTestPlayTime:
		d := inst.UniqueData(n)
		return d != nil && d.CurrentTime >= c.PlayTime
	}
	d, ok := state.(*stateConditionData)
	return ok && d.triggered
}

// Reset clears the latch. Events recorded before the reset are ignored.
func (c *StateCondition) Reset(inst *GraphInstance, _ *StateTransition, state any) {
	if d, ok := state.(*stateConditionData); ok {
		d.triggered = false
		d.seen = inst.stateSeq
	}
}

// TagTest selects how a TagCondition combines its tags.
type TagTest int

const (
	TagTestAll TagTest = iota
	TagTestNotAll
	TagTestNone
	TagTestOneOrMore
)

var tagTestNames = []string{"all", "not_all", "none", "one_or_more"}

func (f TagTest) String() string { return enumString(tagTestNames, int(f)) }

// MarshalText implements encoding.TextMarshaler.
func (f TagTest) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *TagTest) UnmarshalText(b []byte) error {
	v, err := parseEnum(tagTestNames, "tag test", b)
	*f = TagTest(v)
	return err
}

// TagCondition tests a set of bool parameters used as tags. Unknown tags count as off.
type TagCondition struct {
	ConditionBase `yaml:"-"`

	Function TagTest  `yaml:"function"`
	Tags     []string `yaml:"tags"`
}

// TypeName returns "tag".
func (c *TagCondition) TypeName() string { return "tag" }

// Test combines the tag states with Function.
func (c *TagCondition) Test(inst *GraphInstance, _ *StateTransition, _ any) bool {
	on := 0
	for _, tag := range c.Tags {
		if v, ok := inst.Parameter(tag); ok && v.AsBool() {
			on++
		}
	}
	switch c.Function {
	case TagTestAll:
		return on == len(c.Tags)
	case TagTestNotAll:
		return on < len(c.Tags)
	case TagTestNone:
		return on == 0
	case TagTestOneOrMore:
		return on > 0
	}
	return false
}
