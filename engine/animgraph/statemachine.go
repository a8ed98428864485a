package animgraph

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/engine/pose"
)

// maxTransitionPasses bounds how many finished transitions are chained within one update.
const maxTransitionPasses = 10

// StateMachineNode is a composite whose children are states. Exactly one state is current;
// during a transition the current state cross-fades into the transition's target.
type StateMachineNode struct {
	NodeBase `yaml:"-"`

	EntryState              string `yaml:"entry_state"`
	AlwaysStartInEntryState bool   `yaml:"always_start_in_entry_state"`

	entry       NodeHandle
	transitions []*StateTransition
	nextID      uint32
}

type stateMachineData struct {
	current     NodeHandle
	previous    NodeHandle
	target      NodeHandle
	transition  *StateTransition
	reachedExit bool
	initialized bool
	transitions map[*StateTransition]*transitionData
}

// NewStateMachineNode creates an empty state machine that restarts in its entry state.
func NewStateMachineNode() *StateMachineNode {
	return &StateMachineNode{AlwaysStartInEntryState: true}
}

// TypeName returns "state_machine".
func (m *StateMachineNode) TypeName() string { return "state_machine" }

// RegisterPorts declares the pose output.
func (m *StateMachineNode) RegisterPorts() {
	m.InitOutputPorts(1)
	m.SetupOutputPortAsPose("Pose", 0, 0)
}

// CreateUniqueData returns the machine's per-instance state.
func (m *StateMachineNode) CreateUniqueData(*GraphInstance) any {
	return &stateMachineData{transitions: make(map[*StateTransition]*transitionData)}
}

func (m *StateMachineNode) machineData(inst *GraphInstance) *stateMachineData {
	return payloadOf[*stateMachineData](inst, m)
}

func (m *StateMachineNode) isChild(h NodeHandle) bool {
	for _, c := range m.children {
		if c == h {
			return true
		}
	}
	return false
}

// SetEntryState selects the state the machine starts in.
//
// Returns:
//   - error: ErrNodeNotFound when h is not a child of the machine
func (m *StateMachineNode) SetEntryState(h NodeHandle) error {
	if !m.isChild(h) {
		return fmt.Errorf("state machine %q: entry %s: %w", m.name, h, ErrNodeNotFound)
	}
	m.entry = h
	m.EntryState = m.graph.Node(h).Base().Name()
	return nil
}

// OnChildAdded binds the entry state once the state named by EntryState joins the machine.
func (m *StateMachineNode) OnChildAdded(h NodeHandle) {
	if m.graph.Node(m.entry) != nil || m.EntryState == "" {
		return
	}
	if n := m.graph.Node(h); n != nil && n.Base().Name() == m.EntryState {
		m.entry = h
	}
}

// EntryStateNode returns the entry state. Without one the first child is used.
// It only reads the graph, so instances sharing the graph may call it concurrently.
func (m *StateMachineNode) EntryStateNode() Node {
	if m.graph == nil {
		return nil
	}
	if n := m.graph.Node(m.entry); n != nil {
		return n
	}
	if m.EntryState != "" {
		if h, ok := m.graph.FindHandle(m.EntryState); ok && m.isChild(h) {
			return m.graph.Node(h)
		}
	}
	if len(m.children) > 0 {
		return m.graph.Node(m.children[0])
	}
	return nil
}

// AddTransition adds t to the machine.
//
// Returns:
//   - error: ErrNodeNotFound when the source or target is not a child of the machine
func (m *StateMachineNode) AddTransition(t *StateTransition) error {
	if !m.isChild(t.target) {
		return fmt.Errorf("state machine %q: transition target %s: %w", m.name, t.target, ErrNodeNotFound)
	}
	if !t.IsWildcard() && !m.isChild(t.source) {
		return fmt.Errorf("state machine %q: transition source %s: %w", m.name, t.source, ErrNodeNotFound)
	}
	m.nextID++
	t.id = m.nextID
	t.machine = m
	m.transitions = append(m.transitions, t)
	return nil
}

// RemoveTransition removes t. Instances transitioning through t fall back to its source.
func (m *StateMachineNode) RemoveTransition(t *StateTransition) bool {
	for i, owned := range m.transitions {
		if owned == t {
			m.transitions = append(m.transitions[:i], m.transitions[i+1:]...)
			t.machine = nil
			return true
		}
	}
	return false
}

// Transitions returns the machine's transitions in creation order.
func (m *StateMachineNode) Transitions() []*StateTransition { return m.transitions }

// FindTransition returns the highest-priority enabled transition from one state to another,
// considering wildcards, or nil.
func (m *StateMachineNode) FindTransition(from, to NodeHandle) *StateTransition {
	var best *StateTransition
	for _, t := range m.transitions {
		if t.Disabled || t.target != to {
			continue
		}
		if t.IsWildcard() {
			if !t.allowsSource(from) {
				continue
			}
		} else if t.source != from {
			continue
		}
		if best == nil || t.Priority > best.Priority {
			best = t
		}
	}
	return best
}

// OnChildRemoved drops the transitions that use a removed state.
func (m *StateMachineNode) OnChildRemoved(h NodeHandle) {
	kept := m.transitions[:0]
	for _, t := range m.transitions {
		if t.source == h || t.target == h {
			t.machine = nil
			continue
		}
		for i := 0; i < len(t.AllowedStates); i++ {
			if t.AllowedStates[i] == h {
				t.AllowedStates = append(t.AllowedStates[:i], t.AllowedStates[i+1:]...)
				i--
			}
		}
		kept = append(kept, t)
	}
	m.transitions = kept
	if m.entry == h {
		m.entry = NodeHandle{}
	}
}

// CurrentState returns the current state in inst, or nil.
func (m *StateMachineNode) CurrentState(inst *GraphInstance) Node {
	if md := m.machineData(inst); md != nil {
		return m.graph.Node(md.current)
	}
	return nil
}

// PreviousState returns the state that was current before the last switch, or nil.
func (m *StateMachineNode) PreviousState(inst *GraphInstance) Node {
	if md := m.machineData(inst); md != nil {
		return m.graph.Node(md.previous)
	}
	return nil
}

// TargetState returns the target of the active transition, or nil.
func (m *StateMachineNode) TargetState(inst *GraphInstance) Node {
	if md := m.machineData(inst); md != nil {
		return m.graph.Node(md.target)
	}
	return nil
}

// ActiveTransition returns the transition in progress, or nil.
func (m *StateMachineNode) ActiveTransition(inst *GraphInstance) *StateTransition {
	if md := m.machineData(inst); md != nil {
		return md.transition
	}
	return nil
}

// IsTransitioning reports whether a transition is in progress in inst.
func (m *StateMachineNode) IsTransitioning(inst *GraphInstance) bool {
	return m.ActiveTransition(inst) != nil
}

// ReachedExitState reports whether the current state is an exit node.
func (m *StateMachineNode) ReachedExitState(inst *GraphInstance) bool {
	md := m.machineData(inst)
	return md != nil && md.reachedExit
}

// ActiveStates returns the current state and, during a transition, the target.
func (m *StateMachineNode) ActiveStates(inst *GraphInstance) []Node {
	md := m.machineData(inst)
	if md == nil {
		return nil
	}
	var out []Node
	if cur := m.graph.Node(md.current); cur != nil {
		out = append(out, cur)
	}
	if md.transition != nil && md.target != md.current {
		if tgt := m.graph.Node(md.target); tgt != nil {
			out = append(out, tgt)
		}
	}
	return out
}

// ActiveSubtree returns the active states.
func (m *StateMachineNode) ActiveSubtree(inst *GraphInstance) []Node {
	return m.ActiveStates(inst)
}

func (m *StateMachineNode) initialize(inst *GraphInstance, md *stateMachineData) {
	md.initialized = true
	entry := m.EntryStateNode()
	if entry == nil {
		return
	}
	md.current = entry.Base().Handle()
	entry.Rewind(inst)
	m.resetOutgoingConditions(inst, md.current)
	inst.fireStateEntering(entry)
	inst.fireStateEnter(entry)
}

// updateState increases the state's reference counts and updates it. held records the
// states already counted during this update.
func (m *StateMachineNode) updateState(inst *GraphInstance, held *[]NodeHandle, state Node, dt float32) {
	if state == nil {
		return
	}
	h := state.Base().Handle()
	for _, x := range *held {
		if x == h {
			return
		}
	}
	*held = append(*held, h)
	inst.IncreasePoseRefCount(state)
	inst.IncreaseRefDataRefCount(state)
	inst.UpdateIncomingNode(state, dt)
}

// Update advances the active transition and the active states, evaluates the transition
// conditions and chains finished transitions, then takes the timing of the current state.
func (m *StateMachineNode) Update(inst *GraphInstance, dt float32) {
	d := inst.UniqueData(m)
	md, _ := d.Payload.(*stateMachineData)
	if md == nil {
		return
	}
	if !md.initialized {
		m.initialize(inst, md)
	}
	if md.transition != nil && md.transition.machine != m {
		md.target = NodeHandle{}
		md.transition = nil
	}

	if md.transition != nil {
		md.transition.update(inst, dt)
	}
	var held []NodeHandle
	cur := m.graph.Node(md.current)
	tgt := m.graph.Node(md.target)
	m.updateState(inst, &held, cur, dt)
	m.updateState(inst, &held, tgt, dt)

	m.updateConditions(inst, md, cur, dt)
	m.checkConditions(inst, md, cur)
	if newTgt := m.graph.Node(md.target); newTgt != nil && newTgt != tgt {
		m.updateState(inst, &held, newTgt, 0)
	}

	for pass := 0; pass < maxTransitionPasses && md.transition != nil && md.transition.IsDone(inst); pass++ {
		m.endTransition(inst, md)
		cur = m.graph.Node(md.current)
		m.updateConditions(inst, md, cur, 0)
		m.checkConditions(inst, md, cur)
		m.updateExitStateReachedFlag(md)
		if md.transition == nil {
			break
		}
		m.updateState(inst, &held, cur, 0)
		m.updateState(inst, &held, m.graph.Node(md.target), 0)
	}
	m.updateExitStateReachedFlag(md)
	m.releaseInactive(inst, held, md)

	cur = m.graph.Node(md.current)
	if cur == nil {
		d.Duration = 0
		d.CurrentTime = 0
		d.SyncTrack = nil
		return
	}
	d.Init(inst.UniqueData(cur))
	if md.transition != nil {
		if tgt := m.graph.Node(md.target); tgt != nil {
			factorA, _, speed := CalcSyncFactors(inst.Syncable(cur), inst.Syncable(tgt), md.transition.SyncMode, md.transition.BlendWeight(inst))
			d.PlaySpeed = speed * factorA
		}
	}
}

// releaseInactive drops the references held on states that stopped being active during
// this update. Output and PostUpdate only release the active states.
func (m *StateMachineNode) releaseInactive(inst *GraphInstance, held []NodeHandle, md *stateMachineData) {
	for _, h := range held {
		if h == md.current || (md.transition != nil && h == md.target) {
			continue
		}
		if n := m.graph.Node(h); n != nil {
			inst.DecreasePoseRef(n)
			inst.DecreaseRefDataRef(n)
		}
	}
}

// endTransition completes the active transition and makes its target current.
func (m *StateMachineNode) endTransition(inst *GraphInstance, md *stateMachineData) {
	t := md.transition
	inst.fireEndTransition(t)
	if src := m.graph.Node(md.current); src != nil {
		inst.fireStateEnd(src)
	}
	if tgt := m.graph.Node(md.target); tgt != nil {
		inst.fireStateEnter(tgt)
	}
	t.ResetConditions(inst)
	md.previous = md.current
	md.current = md.target
	md.target = NodeHandle{}
	md.transition = nil
}

func (m *StateMachineNode) updateExitStateReachedFlag(md *stateMachineData) {
	_, isExit := m.graph.Node(md.current).(*ExitNode)
	md.reachedExit = isExit
}

// updateConditions updates the conditions of the transitions that may start from state.
func (m *StateMachineNode) updateConditions(inst *GraphInstance, md *stateMachineData, state Node, dt float32) {
	if state == nil {
		return
	}
	h := state.Base().Handle()
	for _, t := range m.transitions {
		if t.Disabled {
			continue
		}
		if t.IsWildcard() {
			if !t.allowsSource(h) {
				continue
			}
		} else if t.source != h {
			continue
		}
		if md.transition != nil && !m.canInterrupt(md.transition, t) {
			continue
		}
		t.updateConditions(inst, dt)
	}
}

func (m *StateMachineNode) canInterrupt(active, t *StateTransition) bool {
	if t == active {
		return t.CanInterruptItself
	}
	return t.CanInterruptOtherTransitions && active.CanBeInterrupted
}

// checkConditions starts the highest-priority ready transition from source, interrupting
// the active transition when allowed.
func (m *StateMachineNode) checkConditions(inst *GraphInstance, md *stateMachineData, source Node) {
	if source == nil {
		return
	}
	h := source.Base().Handle()
	var best *StateTransition
	for _, t := range m.transitions {
		if t.Disabled {
			continue
		}
		if t.IsWildcard() {
			if !t.allowsSource(h) {
				continue
			}
		} else if t.source != h {
			continue
		}
		if md.transition != nil {
			if !m.canInterrupt(md.transition, t) {
				continue
			}
		} else if t.target == h {
			continue
		}
		if !t.conditionsMet(inst) {
			continue
		}
		if best == nil || t.Priority > best.Priority {
			best = t
		}
	}
	if best == nil {
		return
	}

	if active := md.transition; active != nil {
		if tgt := m.graph.Node(md.target); tgt != nil {
			inst.fireStateExit(tgt)
			inst.fireStateEnd(tgt)
		}
		inst.fireEndTransition(active)
		source.Rewind(inst)
		inst.fireStateEntering(source)
		inst.fireStateEnter(source)
		active.ResetConditions(inst)
		md.target = NodeHandle{}
		md.transition = nil
	}
	m.startTransition(inst, md, best, source)
}

// StartTransition starts t from the current state in inst.
func (m *StateMachineNode) StartTransition(inst *GraphInstance, t *StateTransition) {
	md := m.machineData(inst)
	if md == nil || t == nil || t.machine != m {
		return
	}
	if !md.initialized {
		m.initialize(inst, md)
	}
	m.startTransition(inst, md, t, m.graph.Node(md.current))
}

func (m *StateMachineNode) startTransition(inst *GraphInstance, md *stateMachineData, t *StateTransition, source Node) {
	target := m.graph.Node(t.target)
	if target == nil {
		return
	}
	var srcHandle NodeHandle
	if source != nil {
		srcHandle = source.Base().Handle()
	}
	t.start(inst, srcHandle)
	target.Rewind(inst)
	m.resetOutgoingConditions(inst, t.target)
	if source != nil {
		inst.fireStateExit(source)
	}
	inst.fireStateEntering(target)
	inst.fireStartTransition(t)
	if source == nil {
		md.current = t.target
		return
	}
	md.current = srcHandle
	md.transition = t
	md.target = t.target
}

func (m *StateMachineNode) resetOutgoingConditions(inst *GraphInstance, state NodeHandle) {
	for _, t := range m.transitions {
		if t.source == state || (t.IsWildcard() && t.allowsSource(state)) {
			t.ResetConditions(inst)
		}
	}
}

// SwitchToState makes target current immediately, ending any transition.
func (m *StateMachineNode) SwitchToState(inst *GraphInstance, target NodeHandle) {
	md := m.machineData(inst)
	tgt := m.graph.Node(target)
	if md == nil || tgt == nil || !m.isChild(target) {
		return
	}
	md.initialized = true
	tgt.Rewind(inst)
	m.resetOutgoingConditions(inst, target)
	if cur := m.graph.Node(md.current); cur != nil {
		inst.fireStateExit(cur)
		inst.fireStateEnd(cur)
	}
	inst.fireStateEntering(tgt)
	inst.fireStateEnter(tgt)
	md.previous = md.current
	md.current = target
	md.target = NodeHandle{}
	md.transition = nil
	m.updateExitStateReachedFlag(md)
}

// TransitionToState starts the transition from the current state to target, or switches
// directly when there is none.
func (m *StateMachineNode) TransitionToState(inst *GraphInstance, target NodeHandle) {
	md := m.machineData(inst)
	if md == nil {
		return
	}
	if !md.initialized {
		m.initialize(inst, md)
	}
	if t := m.FindTransition(md.current, target); t != nil {
		m.startTransition(inst, md, t, m.graph.Node(md.current))
		return
	}
	m.SwitchToState(inst, target)
}

// TopDownUpdate passes the machine's timing to the active states. During a synced
// transition the source is the master and the target follows it.
func (m *StateMachineNode) TopDownUpdate(inst *GraphInstance, dt float32) {
	d := inst.UniqueData(m)
	md, _ := d.Payload.(*stateMachineData)
	if md == nil {
		return
	}
	cur := m.graph.Node(md.current)
	if cur == nil {
		return
	}
	if md.transition == nil {
		inst.HierarchicalSyncInputNode(m, cur)
		inst.TopDownUpdateIncomingNode(cur, dt)
		return
	}

	t := md.transition
	tgt := m.graph.Node(md.target)
	w := t.BlendWeight(inst)
	if tgt == nil || tgt == cur {
		inst.HierarchicalSyncInputNode(m, cur)
		inst.TopDownUpdateIncomingNode(cur, dt)
		return
	}
	cd, td := inst.UniqueData(cur), inst.UniqueData(tgt)
	if t.SyncMode != SyncDisabled {
		inst.markSyncMaster(cur)
		inst.SetSyncedRecursive(tgt, true)
		inst.HierarchicalSyncInputNode(m, cur)
		resync := td.HasFlag(FlagResync)
		td.SetFlag(FlagResync, false)
		AutoSync(inst.Syncable(cur), inst.Syncable(tgt), w, t.SyncMode, resync, true)
	} else {
		cd.PlaySpeed = d.PlaySpeed
		td.PlaySpeed = d.PlaySpeed
	}
	cd.GlobalWeight = d.GlobalWeight * (1 - w)
	cd.LocalWeight = 1 - w
	td.GlobalWeight = d.GlobalWeight * w
	td.LocalWeight = w
	inst.TopDownUpdateIncomingNode(cur, dt)
	inst.TopDownUpdateIncomingNode(tgt, dt)
}

// Output outputs the current state, cross-faded into the target during a transition.
// Without a current state the bind pose is output.
func (m *StateMachineNode) Output(inst *GraphInstance) {
	inst.RequestPoses(m)
	out := inst.OutputPose(m, 0)
	md := m.machineData(inst)
	if out == nil || md == nil {
		return
	}
	cur := m.graph.Node(md.current)
	if cur == nil {
		out.CopyFrom(inst.BindPose())
		return
	}
	tgt := m.graph.Node(md.target)
	inst.OutputIncomingNode(cur)
	if md.transition == nil || tgt == nil || tgt == cur {
		out.CopyFrom(m.poseOrBind(inst, cur))
		inst.DecreasePoseRef(cur)
		return
	}
	inst.OutputIncomingNode(tgt)
	md.transition.CalcTransitionOutput(inst, m.poseOrBind(inst, cur), m.poseOrBind(inst, tgt), out)
	inst.DecreasePoseRef(cur)
	inst.DecreasePoseRef(tgt)
}

func (m *StateMachineNode) poseOrBind(inst *GraphInstance, n Node) *pose.Pose {
	if p := inst.MainOutputPose(n); p != nil {
		return p
	}
	return inst.BindPose()
}

// PostUpdate copies the current state's events and trajectory delta, or during a transition
// filters the events of both states and blends their deltas.
func (m *StateMachineNode) PostUpdate(inst *GraphInstance, dt float32) {
	md := m.machineData(inst)
	if md == nil {
		return
	}
	cur := m.graph.Node(md.current)
	tgt := m.graph.Node(md.target)
	inst.PostUpdateIncomingNode(cur, dt)
	if md.transition != nil && tgt != cur {
		inst.PostUpdateIncomingNode(tgt, dt)
	}
	rd := inst.RequestRefDatas(m.handle)
	if rd == nil {
		return
	}
	if cur == nil {
		rd.Clear()
		return
	}
	if md.transition == nil || tgt == nil || tgt == cur {
		inst.copyRefData(cur, rd)
		inst.DecreaseRefDataRef(cur)
		return
	}
	inst.blendRefData(md.transition.EventMode, cur, tgt, md.transition.BlendWeight(inst), rd)
	inst.DecreaseRefDataRef(cur)
	inst.DecreaseRefDataRef(tgt)
}

// Rewind restarts the machine in its entry state when AlwaysStartInEntryState is set,
// otherwise it rewinds the current state.
func (m *StateMachineNode) Rewind(inst *GraphInstance) {
	d := inst.UniqueData(m)
	if d == nil {
		return
	}
	md, _ := d.Payload.(*stateMachineData)
	if md == nil {
		return
	}
	if !m.AlwaysStartInEntryState {
		if cur := m.graph.Node(md.current); cur != nil {
			cur.Rewind(inst)
		}
		return
	}
	entry := m.EntryStateNode()
	if entry == nil {
		return
	}
	if cur := m.graph.Node(md.current); cur != nil && md.initialized {
		inst.fireStateExit(cur)
		inst.fireStateEnd(cur)
	}
	entry.Rewind(inst)
	md.initialized = true
	md.current = entry.Base().Handle()
	m.resetOutgoingConditions(inst, md.current)
	inst.fireStateEntering(entry)
	inst.fireStateEnter(entry)
	d.Reset()
	md.previous = NodeHandle{}
	md.target = NodeHandle{}
	md.transition = nil
	md.reachedExit = false
}
