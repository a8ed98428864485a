package animgraph

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
)

// BindPoseNode outputs the actor's bind pose.
type BindPoseNode struct {
	NodeBase `yaml:"-"`
}

// NewBindPoseNode creates a bind pose node.
func NewBindPoseNode() *BindPoseNode { return &BindPoseNode{} }

// TypeName returns "bind_pose".
func (n *BindPoseNode) TypeName() string { return "bind_pose" }

// RegisterPorts declares the pose output.
func (n *BindPoseNode) RegisterPorts() {
	n.InitOutputPorts(1)
	n.SetupOutputPortAsPose("Pose", 0, 0)
}

// Update publishes a timeless source playing at normal speed.
func (n *BindPoseNode) Update(inst *GraphInstance, _ float32) {
	d := inst.UniqueData(n)
	d.Duration = 0
	d.CurrentTime = 0
	d.PlaySpeed = 1
	d.SyncTrack = nil
}

// Output copies the bind pose.
func (n *BindPoseNode) Output(inst *GraphInstance) {
	inst.RequestPoses(n)
	if out := inst.OutputPose(n, 0); out != nil {
		out.CopyFrom(inst.BindPose())
	}
}

// FinalNode marks the output of a blend tree. It passes its input pose through.
type FinalNode struct {
	NodeBase `yaml:"-"`
}

// NewFinalNode creates a final node.
func NewFinalNode() *FinalNode { return &FinalNode{} }

// TypeName returns "final".
func (n *FinalNode) TypeName() string { return "final" }

// RegisterPorts declares one pose input and one pose output.
func (n *FinalNode) RegisterPorts() {
	n.InitInputPorts(1)
	n.SetupInputPort("Pose", 0, TypePose, 0)
	n.InitOutputPorts(1)
	n.SetupOutputPortAsPose("Pose", 0, 0)
}

// Output copies the input pose, or the bind pose when unconnected.
func (n *FinalNode) Output(inst *GraphInstance) {
	inst.RequestPoses(n)
	inst.OutputInput(n, 0)
	if out := inst.OutputPose(n, 0); out != nil {
		out.CopyFrom(inst.InputPoseOrBind(n, 0))
	}
}

// BlendTreeNode is a composite whose children form a DAG ending in a FinalNode.
// Children are added to the graph with the blend tree as their parent.
type BlendTreeNode struct {
	NodeBase `yaml:"-"`
}

// NewBlendTreeNode creates an empty blend tree.
func NewBlendTreeNode() *BlendTreeNode { return &BlendTreeNode{} }

// TypeName returns "blend_tree".
func (n *BlendTreeNode) TypeName() string { return "blend_tree" }

// RegisterPorts declares the pose output.
func (n *BlendTreeNode) RegisterPorts() {
	n.InitOutputPorts(1)
	n.SetupOutputPortAsPose("Pose", 0, 0)
}

// FinalNode returns the tree's final node, or nil.
func (n *BlendTreeNode) FinalNode() Node {
	if n.graph == nil {
		return nil
	}
	for _, h := range n.children {
		if f, ok := n.graph.Node(h).(*FinalNode); ok {
			return f
		}
	}
	return nil
}

// ActiveSubtree returns the final node.
func (n *BlendTreeNode) ActiveSubtree(*GraphInstance) []Node {
	if f := n.FinalNode(); f != nil {
		return []Node{f}
	}
	return nil
}

// Update updates the final node and takes its timing.
func (n *BlendTreeNode) Update(inst *GraphInstance, dt float32) {
	d := inst.UniqueData(n)
	final := n.FinalNode()
	if final == nil {
		d.Duration = 0
		d.CurrentTime = 0
		return
	}
	inst.IncreasePoseRefCount(final)
	inst.IncreaseRefDataRefCount(final)
	inst.UpdateIncomingNode(final, dt)
	d.Init(inst.UniqueData(final))
}

// TopDownUpdate passes this node's timing to the final node.
func (n *BlendTreeNode) TopDownUpdate(inst *GraphInstance, dt float32) {
	if final := n.FinalNode(); final != nil {
		inst.HierarchicalSyncInputNode(n, final)
		inst.TopDownUpdateIncomingNode(final, dt)
	}
}

// Output copies the final node's pose.
func (n *BlendTreeNode) Output(inst *GraphInstance) {
	inst.RequestPoses(n)
	out := inst.OutputPose(n, 0)
	final := n.FinalNode()
	if final == nil {
		if out != nil {
			out.CopyFrom(inst.BindPose())
		}
		return
	}
	inst.OutputIncomingNode(final)
	if out != nil {
		if p := inst.MainOutputPose(final); p != nil {
			out.CopyFrom(p)
		} else {
			out.CopyFrom(inst.BindPose())
		}
	}
	inst.DecreasePoseRef(final)
}

// PostUpdate copies the final node's events and trajectory delta.
func (n *BlendTreeNode) PostUpdate(inst *GraphInstance, dt float32) {
	final := n.FinalNode()
	inst.PostUpdateIncomingNode(final, dt)
	rd := inst.RequestRefDatas(n.handle)
	if rd == nil {
		return
	}
	if final == nil {
		rd.Clear()
		return
	}
	inst.copyRefData(final, rd)
	inst.DecreaseRefDataRef(final)
}

// Rewind rewinds every child.
func (n *BlendTreeNode) Rewind(inst *GraphInstance) {
	for _, h := range n.children {
		if c := n.graph.Node(h); c != nil {
			c.Rewind(inst)
		}
	}
	inst.SetCurrentPlayTimeNormalized(n, 0)
}

const (
	blend2InputA = iota
	blend2InputB
	blend2InputWeight
)

// Blend2Node blends pose A towards pose B by the weight input. In additive mode B is
// applied on top of A relative to the bind pose.
type Blend2Node struct {
	NodeBase `yaml:"-"`

	SyncMode  SyncMode  `yaml:"sync"`
	EventMode EventMode `yaml:"events"`
	Additive  bool      `yaml:"additive"`
}

type blend2Data struct {
	weight float32
}

// NewBlend2Node creates a non-synced blend node that keeps the events of both inputs.
func NewBlend2Node() *Blend2Node {
	return &Blend2Node{SyncMode: SyncDisabled, EventMode: EventModeBoth}
}

// TypeName returns "blend2".
func (n *Blend2Node) TypeName() string { return "blend2" }

// RegisterPorts declares the two pose inputs, the weight input and the pose output.
func (n *Blend2Node) RegisterPorts() {
	n.InitInputPorts(3)
	n.SetupInputPort("Pose A", blend2InputA, TypePose, 0)
	n.SetupInputPort("Pose B", blend2InputB, TypePose, 1)
	n.SetupInputPortAsNumber("Weight", blend2InputWeight, 2)
	n.InitOutputPorts(1)
	n.SetupOutputPortAsPose("Pose", 0, 0)
}

// CreateUniqueData returns the blend weight state.
func (n *Blend2Node) CreateUniqueData(*GraphInstance) any { return &blend2Data{} }

// Weight returns the blend weight resolved during the last Update.
func (n *Blend2Node) Weight(inst *GraphInstance) float32 {
	if p := payloadOf[*blend2Data](inst, n); p != nil {
		return p.weight
	}
	return 0
}

// Update reads the weight, updates both poses and takes the timing of A (or of B when A
// is unconnected). With sync enabled the play speed is scaled towards B by the weight.
func (n *Blend2Node) Update(inst *GraphInstance, dt float32) {
	inst.UpdateInputValue(n, blend2InputWeight, dt)
	w := common.Clamp(inst.InputFloat(n, blend2InputWeight, 0), 0, 1)
	d := inst.UniqueData(n)
	if p, ok := d.Payload.(*blend2Data); ok {
		p.weight = w
	}

	a := inst.UpdateInput(n, blend2InputA, dt)
	b := inst.UpdateInput(n, blend2InputB, dt)
	switch {
	case a != nil:
		d.Init(inst.UniqueData(a))
	case b != nil:
		d.Init(inst.UniqueData(b))
		return
	default:
		d.Duration = 0
		d.CurrentTime = 0
		return
	}
	if n.SyncMode != SyncDisabled && b != nil {
		factorA, _, speed := CalcSyncFactors(inst.Syncable(a), inst.Syncable(b), n.SyncMode, w)
		d.PlaySpeed = speed * factorA
	}
}

// TopDownUpdate makes A the sync master and syncs B to it when sync is enabled, and
// splits the weights between the inputs.
func (n *Blend2Node) TopDownUpdate(inst *GraphInstance, dt float32) {
	d := inst.UniqueData(n)
	w := n.Weight(inst)
	a, b := n.InputNode(blend2InputA), n.InputNode(blend2InputB)

	if n.SyncMode != SyncDisabled && a != nil && b != nil {
		inst.markSyncMaster(a)
		inst.SetSyncedRecursive(b, true)
		inst.HierarchicalSyncInputNode(n, a)
		bd := inst.UniqueData(b)
		resync := bd.HasFlag(FlagResync)
		bd.SetFlag(FlagResync, false)
		AutoSync(inst.Syncable(a), inst.Syncable(b), w, n.SyncMode, resync, false)
	} else {
		inst.HierarchicalSyncInputNode(n, a)
		inst.HierarchicalSyncInputNode(n, b)
	}

	if a != nil {
		ad := inst.UniqueData(a)
		ad.GlobalWeight = d.GlobalWeight * (1 - w)
		ad.LocalWeight = 1 - w
	}
	if b != nil {
		bd := inst.UniqueData(b)
		bd.GlobalWeight = d.GlobalWeight * w
		bd.LocalWeight = w
	}
	inst.TopDownUpdateIncomingNode(a, dt)
	inst.TopDownUpdateIncomingNode(b, dt)
	inst.TopDownUpdateIncomingNode(n.InputNode(blend2InputWeight), dt)
}

// Output blends the inputs. Only the inputs that contribute at the current weight are output.
func (n *Blend2Node) Output(inst *GraphInstance) {
	inst.RequestPoses(n)
	out := inst.OutputPose(n, 0)
	if out == nil {
		return
	}
	w := n.Weight(inst)
	hasA, hasB := n.HasConnectionAtInputPort(blend2InputA), n.HasConnectionAtInputPort(blend2InputB)

	if n.Additive {
		inst.OutputInput(n, blend2InputA)
		base := inst.InputPoseOrBind(n, blend2InputA)
		if !hasB || w <= common.Epsilon {
			out.CopyFrom(base)
			return
		}
		inst.OutputInput(n, blend2InputB)
		out.BlendAdditive(base, inst.InputPoseOrBind(n, blend2InputB), inst.BindPose(), w)
		return
	}

	switch {
	case !hasA && !hasB:
		out.CopyFrom(inst.BindPose())
	case !hasB || (hasA && w <= common.Epsilon):
		inst.OutputInput(n, blend2InputA)
		out.CopyFrom(inst.InputPoseOrBind(n, blend2InputA))
	case !hasA || w >= 1-common.Epsilon:
		inst.OutputInput(n, blend2InputB)
		out.CopyFrom(inst.InputPoseOrBind(n, blend2InputB))
	default:
		inst.OutputInput(n, blend2InputA)
		inst.OutputInput(n, blend2InputB)
		out.Blend(inst.InputPoseOrBind(n, blend2InputA), inst.InputPoseOrBind(n, blend2InputB), w)
	}
}

// PostUpdate filters the events of both inputs and blends their trajectory deltas.
func (n *Blend2Node) PostUpdate(inst *GraphInstance, dt float32) {
	a, b := n.InputNode(blend2InputA), n.InputNode(blend2InputB)
	inst.PostUpdateIncomingNode(a, dt)
	inst.PostUpdateIncomingNode(b, dt)
	inst.PostUpdateIncomingNode(n.InputNode(blend2InputWeight), dt)
	rd := inst.RequestRefDatas(n.handle)
	if rd == nil {
		return
	}
	if a == nil {
		a, b = b, nil
	}
	inst.blendRefData(n.EventMode, a, b, n.Weight(inst), rd)
}

const poseSwitchMaxPoses = 10

// PoseSwitchNode forwards one of up to ten poses, chosen by the decision input.
// Only the selected branch is updated; switching rewinds the newly selected branch.
type PoseSwitchNode struct {
	NodeBase `yaml:"-"`
}

type poseSwitchData struct {
	decision int
}

// NewPoseSwitchNode creates a pose switch.
func NewPoseSwitchNode() *PoseSwitchNode { return &PoseSwitchNode{} }

// TypeName returns "pose_switch".
func (n *PoseSwitchNode) TypeName() string { return "pose_switch" }

// RegisterPorts declares ten pose inputs, the decision input and the pose output.
func (n *PoseSwitchNode) RegisterPorts() {
	n.InitInputPorts(poseSwitchMaxPoses + 1)
	for i := 0; i < poseSwitchMaxPoses; i++ {
		n.SetupInputPort(poseSwitchPortName(i), i, TypePose, uint32(i))
	}
	n.SetupInputPortAsNumber("Decision", poseSwitchMaxPoses, poseSwitchMaxPoses)
	n.InitOutputPorts(1)
	n.SetupOutputPortAsPose("Pose", 0, 0)
}

func poseSwitchPortName(i int) string {
	return "Pose " + string(rune('0'+i))
}

// CreateUniqueData returns the decision state.
func (n *PoseSwitchNode) CreateUniqueData(*GraphInstance) any {
	return &poseSwitchData{decision: InvalidIndex}
}

// Decision returns the branch selected during the last Update, or InvalidIndex.
func (n *PoseSwitchNode) Decision(inst *GraphInstance) int {
	if p := payloadOf[*poseSwitchData](inst, n); p != nil {
		return p.decision
	}
	return InvalidIndex
}

func (n *PoseSwitchNode) selected(inst *GraphInstance) Node {
	d := n.Decision(inst)
	if d < 0 {
		return nil
	}
	return n.InputNode(d)
}

// ActiveSubtree returns the selected branch.
func (n *PoseSwitchNode) ActiveSubtree(inst *GraphInstance) []Node {
	if s := n.selected(inst); s != nil {
		return []Node{s}
	}
	return nil
}

// Update resolves the decision and updates only the selected branch.
func (n *PoseSwitchNode) Update(inst *GraphInstance, dt float32) {
	inst.UpdateInputValue(n, poseSwitchMaxPoses, dt)
	d := inst.UniqueData(n)
	p, _ := d.Payload.(*poseSwitchData)
	if p == nil {
		return
	}
	decision := int(inst.InputFloat(n, poseSwitchMaxPoses, 0))
	decision = max(0, min(decision, poseSwitchMaxPoses-1))
	if decision != p.decision {
		if src := n.InputNode(decision); src != nil && p.decision != InvalidIndex {
			src.Rewind(inst)
		}
		p.decision = decision
	}
	src := n.InputNode(decision)
	if src == nil {
		d.Duration = 0
		d.CurrentTime = 0
		return
	}
	inst.UpdateIncomingNode(src, dt)
	d.Init(inst.UniqueData(src))
}

// TopDownUpdate passes this node's timing to the selected branch.
func (n *PoseSwitchNode) TopDownUpdate(inst *GraphInstance, dt float32) {
	if src := n.selected(inst); src != nil {
		inst.HierarchicalSyncInputNode(n, src)
		inst.TopDownUpdateIncomingNode(src, dt)
	}
	inst.TopDownUpdateIncomingNode(n.InputNode(poseSwitchMaxPoses), dt)
}

// Output copies the selected pose, or the bind pose.
func (n *PoseSwitchNode) Output(inst *GraphInstance) {
	inst.RequestPoses(n)
	out := inst.OutputPose(n, 0)
	if out == nil {
		return
	}
	d := n.Decision(inst)
	if d < 0 {
		out.CopyFrom(inst.BindPose())
		return
	}
	inst.OutputInput(n, d)
	out.CopyFrom(inst.InputPoseOrBind(n, d))
}

// PostUpdate copies the selected branch's events and trajectory delta.
func (n *PoseSwitchNode) PostUpdate(inst *GraphInstance, dt float32) {
	src := n.selected(inst)
	inst.PostUpdateIncomingNode(src, dt)
	inst.PostUpdateIncomingNode(n.InputNode(poseSwitchMaxPoses), dt)
	if rd := inst.RequestRefDatas(n.handle); rd != nil {
		inst.copyRefData(src, rd)
	}
}
