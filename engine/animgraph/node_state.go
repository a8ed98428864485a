package animgraph

// parentMachine returns the state machine directly owning n, or nil.
func parentMachine(n *NodeBase) *StateMachineNode {
	if n.graph == nil {
		return nil
	}
	m, _ := n.graph.Node(n.parent).(*StateMachineNode)
	return m
}

// passThroughData tracks the state a pass-through node borrowed its pose from this tick.
type passThroughData struct {
	source NodeHandle
}

// passThrough updates, outputs and post-updates a borrowed source state on behalf of a
// pass-through node, holding its own reference on the source's buffers.
type passThrough struct {
	NodeBase `yaml:"-"`
}

func (p *passThrough) CreateUniqueData(*GraphInstance) any { return &passThroughData{} }

func (p *passThrough) RegisterPorts() {
	p.InitOutputPorts(1)
	p.SetupOutputPortAsPose("Pose", 0, 0)
}

func (p *passThrough) update(inst *GraphInstance, source Node, dt float32) {
	d := inst.UniqueData(inst.graph.Node(p.handle))
	if d == nil {
		return
	}
	pd, _ := d.Payload.(*passThroughData)
	if pd == nil {
		return
	}
	pd.source = NodeHandle{}
	if source == nil || source.Base().handle == p.handle {
		d.Reset()
		return
	}
	pd.source = source.Base().handle
	inst.IncreasePoseRefCount(source)
	inst.IncreaseRefDataRefCount(source)
	inst.UpdateIncomingNode(source, dt)
	d.Init(inst.UniqueData(source))
}

func (p *passThrough) sourceOf(inst *GraphInstance) Node {
	n := inst.graph.Node(p.handle)
	if pd := payloadOf[*passThroughData](inst, n); pd != nil {
		return inst.graph.Node(pd.source)
	}
	return nil
}

func (p *passThrough) TopDownUpdate(inst *GraphInstance, dt float32) {
	if src := p.sourceOf(inst); src != nil {
		inst.HierarchicalSyncInputNode(inst.graph.Node(p.handle), src)
		inst.TopDownUpdateIncomingNode(src, dt)
	}
}

func (p *passThrough) Output(inst *GraphInstance) {
	n := inst.graph.Node(p.handle)
	inst.RequestPoses(n)
	out := inst.OutputPose(n, 0)
	if out == nil {
		return
	}
	src := p.sourceOf(inst)
	if src == nil {
		out.CopyFrom(inst.BindPose())
		return
	}
	inst.OutputIncomingNode(src)
	if sp := inst.MainOutputPose(src); sp != nil {
		out.CopyFrom(sp)
	} else {
		out.CopyFrom(inst.BindPose())
	}
	inst.DecreasePoseRef(src)
}

func (p *passThrough) PostUpdate(inst *GraphInstance, dt float32) {
	rd := inst.RequestRefDatas(p.handle)
	src := p.sourceOf(inst)
	if src == nil {
		if rd != nil {
			rd.Clear()
		}
		return
	}
	inst.PostUpdateIncomingNode(src, dt)
	if rd != nil {
		inst.copyRefData(src, rd)
	}
	inst.DecreaseRefDataRef(src)
}

func (p *passThrough) Rewind(inst *GraphInstance) {
	if d := inst.UniqueData(inst.graph.Node(p.handle)); d != nil {
		d.Reset()
	}
}

// EntryNode is the entry state of a nested state machine. While the enclosing machine
// transitions into the nested one it outputs the state being left, so the nested machine
// can blend out of it. Otherwise it outputs the bind pose.
type EntryNode struct {
	passThrough `yaml:"-"`
}

// NewEntryNode creates an entry node.
func NewEntryNode() *EntryNode { return &EntryNode{} }

// TypeName returns "entry".
func (e *EntryNode) TypeName() string { return "entry" }

// SourceState returns the state the enclosing machine is transitioning from, or nil.
func (e *EntryNode) SourceState(inst *GraphInstance) Node {
	machine := parentMachine(&e.NodeBase)
	if machine == nil {
		return nil
	}
	outer := parentMachine(&machine.NodeBase)
	if outer == nil {
		return nil
	}
	md := outer.machineData(inst)
	if md == nil || md.transition == nil || md.target != machine.handle {
		return nil
	}
	return e.graph.Node(md.current)
}

// Update updates the state being left.
func (e *EntryNode) Update(inst *GraphInstance, dt float32) {
	e.update(inst, e.SourceState(inst), dt)
}

// ExitNode is a terminal state. Reaching it sets the machine's ReachedExitState; it keeps
// outputting the state the machine left to enter it.
type ExitNode struct {
	passThrough `yaml:"-"`
}

// NewExitNode creates an exit node.
func NewExitNode() *ExitNode { return &ExitNode{} }

// TypeName returns "exit".
func (x *ExitNode) TypeName() string { return "exit" }

// SourceState returns the state the machine came from, or nil.
func (x *ExitNode) SourceState(inst *GraphInstance) Node {
	machine := parentMachine(&x.NodeBase)
	if machine == nil {
		return nil
	}
	md := machine.machineData(inst)
	if md == nil {
		return nil
	}
	switch x.handle {
	case md.current:
		return x.graph.Node(md.previous)
	case md.target:
		return x.graph.Node(md.current)
	}
	return nil
}

// Update updates the state the machine came from.
func (x *ExitNode) Update(inst *GraphInstance, dt float32) {
	x.update(inst, x.SourceState(inst), dt)
}
