package animgraph

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/Carmen-Shannon/oxy-anim/engine/motion"
	"github.com/Carmen-Shannon/oxy-anim/engine/pose"
	"github.com/google/uuid"
)

// ActorInstance is the posable entity a GraphInstance drives.
type ActorInstance interface {
	Skeleton() *model.Skeleton
	BindPose() *pose.Pose
}

// MotionSet resolves motion ids. *motion.Set implements it.
type MotionSet interface {
	Motion(id string) *motion.Motion
}

type emptyMotionSet struct{}

func (emptyMotionSet) Motion(string) *motion.Motion { return nil }

// EventHandler receives state machine and motion event notifications from a GraphInstance.
// Embed NopEventHandler to implement only some of the callbacks.
type EventHandler interface {
	OnStateEntering(inst *GraphInstance, state Node)
	OnStateEnter(inst *GraphInstance, state Node)
	OnStateExit(inst *GraphInstance, state Node)
	OnStateEnd(inst *GraphInstance, state Node)
	OnStartTransition(inst *GraphInstance, transition *StateTransition)
	OnEndTransition(inst *GraphInstance, transition *StateTransition)
	OnEvent(inst *GraphInstance, event EventInfo)
}

// NopEventHandler implements EventHandler with empty callbacks.
type NopEventHandler struct{}

func (NopEventHandler) OnStateEntering(*GraphInstance, Node)               {}
func (NopEventHandler) OnStateEnter(*GraphInstance, Node)                  {}
func (NopEventHandler) OnStateExit(*GraphInstance, Node)                   {}
func (NopEventHandler) OnStateEnd(*GraphInstance, Node)                    {}
func (NopEventHandler) OnStartTransition(*GraphInstance, *StateTransition) {}
func (NopEventHandler) OnEndTransition(*GraphInstance, *StateTransition)   {}
func (NopEventHandler) OnEvent(*GraphInstance, EventInfo)                  {}

// GraphInstance is one runtime of a Graph bound to one actor. It owns the per-node unique
// data, the parameter values and the pose and ref-data pools. A GraphInstance is not safe
// for concurrent use; separate instances may be ticked in parallel.
type GraphInstance struct {
	id      uuid.UUID
	graph   *Graph
	actor   ActorInstance
	motions MotionSet
	logger  *slog.Logger

	data   []*NodeData
	params []Value

	posePool    *common.Pool[*pose.Pose]
	refDataPool *common.Pool[*RefData]

	visited    map[uint32]struct{}
	events     EventBuffer
	trajectory model.Transform
	handlers   []EventHandler

	conditions map[Condition]any
	stateLog   []stateEvent
	stateSeq   uint64

	rng       *rand.Rand
	seed      uint64
	playSpeed float32
	ticks     uint64
	swept     int
}

// NewGraphInstance creates an instance of graph driving actor.
//
// Parameters:
//   - graph: the graph to evaluate
//   - actor: the posed entity; provides the skeleton and bind pose
//   - motions: resolves motion ids; may be nil
//   - options: builder options
//
// Returns:
//   - *GraphInstance: the instance, registered with the graph for node removal notifications
func NewGraphInstance(graph *Graph, actor ActorInstance, motions MotionSet, options ...InstanceBuilderOption) *GraphInstance {
	if graph == nil {
		panic("animgraph: NewGraphInstance requires a graph")
	}
	if actor == nil {
		panic("animgraph: NewGraphInstance requires an actor")
	}
	if motions == nil {
		motions = emptyMotionSet{}
	}
	numBones := actor.Skeleton().NumBones()
	inst := &GraphInstance{
		id:         uuid.New(),
		graph:      graph,
		actor:      actor,
		motions:    motions,
		visited:    make(map[uint32]struct{}),
		conditions: make(map[Condition]any),
		trajectory: model.IdentityTransform(),
		playSpeed:  1,
		posePool: common.NewPool(func() *pose.Pose {
			return pose.New(numBones)
		}),
		refDataPool: common.NewPool(newRefData),
	}
	for _, opt := range options {
		opt(inst)
	}
	if inst.logger == nil {
		inst.logger = common.ComponentLogger("animgraph")
	}
	if inst.rng == nil {
		inst.rng = rand.New(rand.NewPCG(inst.seed, inst.seed^0x9e3779b97f4a7c15))
	}
	inst.resetParameters()
	graph.attach(inst)
	return inst
}

// ID returns the instance id.
func (inst *GraphInstance) ID() uuid.UUID { return inst.id }

// Graph returns the evaluated graph.
func (inst *GraphInstance) Graph() *Graph { return inst.graph }

// Actor returns the driven actor.
func (inst *GraphInstance) Actor() ActorInstance { return inst.actor }

// Motions returns the motion provider.
func (inst *GraphInstance) Motions() MotionSet { return inst.motions }

// Logger returns the instance logger.
func (inst *GraphInstance) Logger() *slog.Logger { return inst.logger }

// Rand returns the instance's deterministic random source.
func (inst *GraphInstance) Rand() *rand.Rand { return inst.rng }

// PlaySpeed returns the global play speed multiplier applied to every tick's elapsed time.
func (inst *GraphInstance) PlaySpeed() float32 { return inst.playSpeed }

// SetPlaySpeed sets the global play speed multiplier.
func (inst *GraphInstance) SetPlaySpeed(speed float32) { inst.playSpeed = speed }

// Ticks returns the number of completed Update passes.
func (inst *GraphInstance) Ticks() uint64 { return inst.ticks }

// AddEventHandler registers h for state and motion event notifications.
func (inst *GraphInstance) AddEventHandler(h EventHandler) {
	inst.handlers = append(inst.handlers, h)
}

// Destroy detaches the instance from its graph and drops all unique data.
func (inst *GraphInstance) Destroy() {
	inst.graph.detach(inst)
	inst.Reinit()
}

// UniqueData returns the per-instance data of n, creating it on first use or when the
// slot belongs to a removed node.
//
// Parameters:
//   - n: a node of this instance's graph
//
// Returns:
//   - *NodeData: the data; nil for a node outside the graph
func (inst *GraphInstance) UniqueData(n Node) *NodeData {
	if n == nil {
		return nil
	}
	b := n.Base()
	if b.graph != inst.graph || !b.handle.IsValid() {
		return nil
	}
	idx := int(b.handle.Index)
	if idx >= len(inst.data) {
		grown := make([]*NodeData, inst.graph.NumSlots())
		copy(grown, inst.data)
		inst.data = grown
	}
	d := inst.data[idx]
	if d == nil || d.node != b.handle {
		if d != nil {
			inst.releaseBuffers(d)
		}
		d = newNodeData(b.handle, b.NumOutputs())
		for i := range d.Outputs {
			d.Outputs[i].Type = b.outputs[i].PrimaryType()
		}
		inst.data[idx] = d
		d.Payload = n.CreateUniqueData(inst)
	}
	return d
}

func (inst *GraphInstance) dataFor(h NodeHandle) *NodeData {
	return inst.UniqueData(inst.graph.Node(h))
}

// payloadOf returns the typed unique payload of n, or the zero value.
func payloadOf[T any](inst *GraphInstance, n Node) T {
	var zero T
	d := inst.UniqueData(n)
	if d == nil {
		return zero
	}
	p, ok := d.Payload.(T)
	if !ok {
		return zero
	}
	return p
}

// OnNodeRemoved drops the unique data of a removed node.
func (inst *GraphInstance) OnNodeRemoved(h NodeHandle) {
	idx := int(h.Index)
	if idx >= len(inst.data) {
		return
	}
	if d := inst.data[idx]; d != nil && d.node == h {
		inst.releaseBuffers(d)
		inst.data[idx] = nil
	}
}

// Reinit drops every node's and condition's unique data; it is recreated lazily.
func (inst *GraphInstance) Reinit() {
	for i, d := range inst.data {
		if d != nil {
			inst.releaseBuffers(d)
		}
		inst.data[i] = nil
	}
	clear(inst.conditions)
	inst.stateLog = inst.stateLog[:0]
}

// ConditionData returns the per-instance state of c, creating it on first use.
func (inst *GraphInstance) ConditionData(c Condition) any {
	if d, ok := inst.conditions[c]; ok {
		return d
	}
	d := c.CreateUniqueData(inst)
	inst.conditions[c] = d
	return d
}

func (inst *GraphInstance) releaseBuffers(d *NodeData) {
	for i := range d.Outputs {
		if d.Outputs[i].Type == TypePose {
			inst.posePool.Release(d.Outputs[i].Pose)
			d.Outputs[i].Pose = PoseHandle{}
		}
	}
	inst.refDataPool.Release(d.RefData)
	d.RefData = RefDataHandle{}
	d.PoseRefCount = 0
	d.RefDataRefCount = 0
}

// BindPose returns the actor's bind pose. Callers must not modify it.
func (inst *GraphInstance) BindPose() *pose.Pose { return inst.actor.BindPose() }

// Events returns the motion events that reached the root during the last tick.
func (inst *GraphInstance) Events() []EventInfo { return inst.events.Events }

// TrajectoryDelta returns the root motion-extraction delta of the last tick.
func (inst *GraphInstance) TrajectoryDelta() model.Transform { return inst.trajectory }

// PosePoolInUse returns the number of pooled poses currently held.
func (inst *GraphInstance) PosePoolInUse() int { return inst.posePool.InUse() }

// PosePoolPeak returns the highest number of pooled poses held at once.
func (inst *GraphInstance) PosePoolPeak() int { return inst.posePool.Peak() }

// RefDataPoolInUse returns the number of pooled ref datas currently held.
func (inst *GraphInstance) RefDataPoolInUse() int { return inst.refDataPool.InUse() }

// LastSweep returns how many buffers were still held at the end of the last tick.
func (inst *GraphInstance) LastSweep() int { return inst.swept }

// ActiveTransitions counts the state machines of the graph that are blending between states.
func (inst *GraphInstance) ActiveTransitions() int {
	n := 0
	for _, node := range inst.graph.Nodes() {
		if m, ok := node.(*StateMachineNode); ok && m.IsTransitioning(inst) {
			n++
		}
	}
	return n
}

func (inst *GraphInstance) resetParameters() {
	defs := inst.graph.Parameters()
	inst.params = make([]Value, len(defs))
	for i, def := range defs {
		inst.params[i] = def.Default
	}
}

func (inst *GraphInstance) syncParameters() {
	defs := inst.graph.Parameters()
	for i := len(inst.params); i < len(defs); i++ {
		inst.params = append(inst.params, defs[i].Default)
	}
}

// Parameter returns the current value of the named parameter.
func (inst *GraphInstance) Parameter(name string) (Value, bool) {
	i, ok := inst.graph.FindParameter(name)
	if !ok {
		return Value{}, false
	}
	return inst.ParameterAt(i), true
}

// ParameterAt returns the value of the parameter at index, or the zero Value.
func (inst *GraphInstance) ParameterAt(index int) Value {
	inst.syncParameters()
	if index < 0 || index >= len(inst.params) {
		return Value{}
	}
	return inst.params[index]
}

// SetParameter assigns a parameter value. Numeric values convert between float, int and
// bool parameters; vectors only assign to vector parameters.
//
// Parameters:
//   - name: the parameter name
//   - v: the new value
//
// Returns:
//   - error: ErrUnknownParameter or ErrParameterType
func (inst *GraphInstance) SetParameter(name string, v Value) error {
	i, ok := inst.graph.FindParameter(name)
	if !ok {
		return fmt.Errorf("set %q: %w", name, ErrUnknownParameter)
	}
	inst.syncParameters()
	def := inst.graph.Parameters()[i]
	switch def.Type {
	case TypeVector2:
		if v.Type != TypeVector2 {
			return fmt.Errorf("set %q to %s: %w", name, v.Type, ErrParameterType)
		}
		inst.params[i] = v
	case TypeFloat, TypeInt, TypeBool:
		if v.Type != TypeFloat && v.Type != TypeInt && v.Type != TypeBool {
			return fmt.Errorf("set %q to %s: %w", name, v.Type, ErrParameterType)
		}
		f := v.Number
		if def.Min < def.Max {
			f = common.Clamp(f, def.Min, def.Max)
		}
		switch def.Type {
		case TypeInt:
			inst.params[i] = IntValue(int(f))
		case TypeBool:
			inst.params[i] = BoolValue(common.Abs(f) > common.Epsilon)
		default:
			inst.params[i] = FloatValue(f)
		}
	}
	return nil
}

// SetParameterFloat assigns a float to a numeric parameter.
func (inst *GraphInstance) SetParameterFloat(name string, f float32) error {
	return inst.SetParameter(name, FloatValue(f))
}

// SetParameterBool assigns a bool to a numeric parameter.
func (inst *GraphInstance) SetParameterBool(name string, b bool) error {
	return inst.SetParameter(name, BoolValue(b))
}

// SetParameterVector2 assigns a vector parameter.
func (inst *GraphInstance) SetParameterVector2(name string, x, y float32) error {
	return inst.SetParameter(name, Vector2Value(x, y))
}

// Tick runs Update, TopDownUpdate, Output and PostUpdate for one simulation step.
//
// Parameters:
//   - dt: elapsed time in seconds, scaled by the instance play speed
//   - out: receives the root pose; may be nil
func (inst *GraphInstance) Tick(dt float32, out *pose.Pose) {
	inst.Update(dt)
	inst.TopDownUpdate(dt)
	inst.Output(out)
	inst.PostUpdate(dt)
}

func (inst *GraphInstance) beginTick() {
	for _, d := range inst.data {
		if d != nil {
			d.flags &^= tickFlags
		}
	}
	clear(inst.visited)
	inst.events.Clear()
	inst.trajectory = model.IdentityTransform()
}

// Update runs the bottom-up pass from the root.
func (inst *GraphInstance) Update(dt float32) {
	inst.beginTick()
	inst.ticks++
	root := inst.graph.Root()
	if root == nil {
		return
	}
	inst.IncreasePoseRefCount(root)
	inst.IncreaseRefDataRefCount(root)
	inst.PerformUpdate(root, dt*inst.playSpeed)
}

// TopDownUpdate rebuilds the sync flags and runs the top-down pass from the root.
func (inst *GraphInstance) TopDownUpdate(dt float32) {
	for _, d := range inst.data {
		if d != nil {
			d.flags &^= syncFlags
		}
	}
	if root := inst.graph.Root(); root != nil {
		inst.PerformTopDownUpdate(root, dt*inst.playSpeed)
	}
}

// Output evaluates the root pose and copies it into out. Without a root, or when the root
// produced no pose, out receives the bind pose.
func (inst *GraphInstance) Output(out *pose.Pose) {
	root := inst.graph.Root()
	if root == nil {
		if out != nil {
			out.CopyFrom(inst.BindPose())
		}
		return
	}
	inst.PerformOutput(root)
	if out != nil {
		if p := inst.MainOutputPose(root); p != nil {
			out.CopyFrom(p)
		} else {
			out.CopyFrom(inst.BindPose())
		}
	}
	inst.DecreasePoseRef(root)
}

// PostUpdate runs the post-update pass, collects the root events and trajectory delta,
// notifies event handlers and returns every buffer still held to the pools.
func (inst *GraphInstance) PostUpdate(dt float32) {
	if root := inst.graph.Root(); root != nil {
		inst.PerformPostUpdate(root, dt*inst.playSpeed)
		if rd := inst.RefDataOf(root); rd != nil {
			inst.events.CopyFrom(&rd.Events)
			inst.trajectory = rd.TrajectoryDelta
		}
		inst.DecreaseRefDataRef(root)
	}
	for _, e := range inst.events.Events {
		for _, h := range inst.handlers {
			h.OnEvent(inst, e)
		}
	}
	inst.sweep()
}

// sweep returns buffers that a node requested but no consumer freed.
func (inst *GraphInstance) sweep() {
	swept := inst.posePool.ReleaseAll() + inst.refDataPool.ReleaseAll()
	for _, d := range inst.data {
		if d != nil {
			d.PoseRefCount = 0
			d.RefDataRefCount = 0
		}
	}
	if swept > 0 {
		inst.logger.Debug("released unfreed buffers", "count", swept, "instance", inst.id)
	}
	inst.swept = swept
}

// StateEventKind identifies a state lifecycle notification.
type StateEventKind uint8

const (
	StateEventEntering StateEventKind = iota
	StateEventEnter
	StateEventExit
	StateEventEnd
)

type stateEvent struct {
	seq   uint64
	state NodeHandle
	kind  StateEventKind
}

const maxStateLog = 64

func (inst *GraphInstance) recordStateEvent(state Node, kind StateEventKind) {
	inst.stateSeq++
	if len(inst.stateLog) == maxStateLog {
		copy(inst.stateLog, inst.stateLog[1:])
		inst.stateLog = inst.stateLog[:maxStateLog-1]
	}
	inst.stateLog = append(inst.stateLog, stateEvent{seq: inst.stateSeq, state: state.Base().Handle(), kind: kind})
}

// stateEventsSince reports whether state received an event of kind with a sequence number
// above after, and returns the latest sequence number.
func (inst *GraphInstance) stateEventsSince(after uint64, state NodeHandle, kind StateEventKind) (bool, uint64) {
	found := false
	for _, e := range inst.stateLog {
		if e.seq > after && e.state == state && e.kind == kind {
			found = true
		}
	}
	return found, inst.stateSeq
}

func (inst *GraphInstance) fireStateEntering(state Node) {
	inst.recordStateEvent(state, StateEventEntering)
	for _, h := range inst.handlers {
		h.OnStateEntering(inst, state)
	}
}

func (inst *GraphInstance) fireStateEnter(state Node) {
	inst.recordStateEvent(state, StateEventEnter)
	for _, h := range inst.handlers {
		h.OnStateEnter(inst, state)
	}
}

func (inst *GraphInstance) fireStateExit(state Node) {
	inst.recordStateEvent(state, StateEventExit)
	for _, h := range inst.handlers {
		h.OnStateExit(inst, state)
	}
}

func (inst *GraphInstance) fireStateEnd(state Node) {
	inst.recordStateEvent(state, StateEventEnd)
	for _, h := range inst.handlers {
		h.OnStateEnd(inst, state)
	}
}

func (inst *GraphInstance) fireStartTransition(t *StateTransition) {
	for _, h := range inst.handlers {
		h.OnStartTransition(inst, t)
	}
}

func (inst *GraphInstance) fireEndTransition(t *StateTransition) {
	for _, h := range inst.handlers {
		h.OnEndTransition(inst, t)
	}
}
