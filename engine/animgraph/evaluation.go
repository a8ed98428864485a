package animgraph

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/pose"
)

// PerformUpdate runs n's Update once per tick. Before updating, the pose and ref-data
// counts of every node feeding n are increased; they are released again by n's
// PerformOutput and PerformPostUpdate.
//
// Parameters:
//   - n: the node to update
//   - dt: elapsed time in seconds
func (inst *GraphInstance) PerformUpdate(n Node, dt float32) {
	d := inst.UniqueData(n)
	if d == nil || d.HasFlag(FlagUpdateReady) {
		return
	}
	d.SetFlag(FlagUpdateReady, true)
	inst.IncreaseInputRefCounts(n)
	inst.IncreaseInputRefDataRefCounts(n)
	if n.Base().IsDisabled() {
		return
	}
	n.Update(inst, dt)
}

// PerformTopDownUpdate runs n's TopDownUpdate once per tick.
func (inst *GraphInstance) PerformTopDownUpdate(n Node, dt float32) {
	d := inst.UniqueData(n)
	if d == nil || d.HasFlag(FlagTopDownUpdateReady) {
		return
	}
	d.SetFlag(FlagTopDownUpdateReady, true)
	if n.Base().IsDisabled() {
		return
	}
	n.TopDownUpdate(inst, dt)
}

// PerformOutput runs n's Output once per tick, then releases the poses of the nodes
// feeding n. A disabled node outputs the bind pose and zero values.
func (inst *GraphInstance) PerformOutput(n Node) {
	d := inst.UniqueData(n)
	if d == nil || d.HasFlag(FlagOutputReady) {
		return
	}
	d.SetFlag(FlagOutputReady, true)
	if n.Base().IsDisabled() {
		inst.outputDisabled(n, d)
	} else {
		n.Output(inst)
	}
	inst.FreeIncomingPoses(n)
}

func (inst *GraphInstance) outputDisabled(n Node, d *NodeData) {
	inst.RequestPoses(n)
	for i := range d.Outputs {
		if d.Outputs[i].Type == TypePose {
			if p, ok := inst.posePool.Get(d.Outputs[i].Pose); ok {
				p.CopyFrom(inst.BindPose())
			}
			continue
		}
		d.Outputs[i] = Value{Type: d.Outputs[i].Type}
	}
}

// PerformPostUpdate runs n's PostUpdate once per tick, then releases the ref datas of the
// nodes feeding n. A disabled node reports no events and no motion.
func (inst *GraphInstance) PerformPostUpdate(n Node, dt float32) {
	d := inst.UniqueData(n)
	if d == nil || d.HasFlag(FlagPostUpdateReady) {
		return
	}
	d.SetFlag(FlagPostUpdateReady, true)
	if n.Base().IsDisabled() {
		if rd := inst.RequestRefDatas(d.node); rd != nil {
			rd.Clear()
		}
	} else {
		n.PostUpdate(inst, dt)
	}
	inst.FreeIncomingRefDatas(n)
}

// UpdateIncomingNode updates a node feeding the caller. A nil node is ignored.
func (inst *GraphInstance) UpdateIncomingNode(n Node, dt float32) {
	if n != nil {
		inst.PerformUpdate(n, dt)
	}
}

// TopDownUpdateIncomingNode runs the top-down pass of a node feeding the caller.
func (inst *GraphInstance) TopDownUpdateIncomingNode(n Node, dt float32) {
	if n != nil {
		inst.PerformTopDownUpdate(n, dt)
	}
}

// OutputIncomingNode outputs a node feeding the caller.
func (inst *GraphInstance) OutputIncomingNode(n Node) {
	if n != nil {
		inst.PerformOutput(n)
	}
}

// PostUpdateIncomingNode post-updates a node feeding the caller.
func (inst *GraphInstance) PostUpdateIncomingNode(n Node, dt float32) {
	if n != nil {
		inst.PerformPostUpdate(n, dt)
	}
}

// MarkConnectionVisited records that c carried data during this tick.
func (inst *GraphInstance) MarkConnectionVisited(c *Connection) {
	if c != nil {
		inst.visited[c.id] = struct{}{}
	}
}

// IsConnectionVisited reports whether c carried data during the current tick.
func (inst *GraphInstance) IsConnectionVisited(c *Connection) bool {
	if c == nil {
		return false
	}
	_, ok := inst.visited[c.id]
	return ok
}

// UpdateInput updates the node feeding input port of n.
//
// Returns:
//   - Node: the source node, or nil when the port is not connected
func (inst *GraphInstance) UpdateInput(n Node, port int, dt float32) Node {
	src := n.Base().InputNode(port)
	inst.UpdateIncomingNode(src, dt)
	return src
}

// OutputInput outputs the node feeding input port of n and marks the connection visited.
//
// Returns:
//   - Node: the source node, or nil when the port is not connected
func (inst *GraphInstance) OutputInput(n Node, port int) Node {
	c := n.Base().FindConnection(port)
	if c == nil {
		return nil
	}
	src := inst.graph.Node(c.source)
	if src == nil {
		return nil
	}
	inst.MarkConnectionVisited(c)
	inst.PerformOutput(src)
	return src
}

// UpdateInputValue updates the node feeding a value input of n and, since values are
// needed during Update, outputs it right away. Pose producers are only updated.
func (inst *GraphInstance) UpdateInputValue(n Node, port int, dt float32) {
	src := inst.UpdateInput(n, port, dt)
	if src != nil && !src.HasOutputPose() {
		inst.OutputInput(n, port)
	}
}

// OutputAllInputs outputs every node feeding n.
func (inst *GraphInstance) OutputAllInputs(n Node) {
	for _, c := range n.Base().connections {
		if src := inst.graph.Node(c.source); src != nil {
			inst.MarkConnectionVisited(c)
			inst.PerformOutput(src)
		}
	}
}

// HierarchicalSyncInputNode passes parent's timing down to input: a synced input is
// aligned to parent, any other input takes parent's play speed. The input inherits the
// parent's global weight and gets a local weight of 1.
func (inst *GraphInstance) HierarchicalSyncInputNode(parent, input Node) {
	if parent == nil || input == nil {
		return
	}
	pd, id := inst.UniqueData(parent), inst.UniqueData(input)
	if id.HasFlag(FlagSynced) {
		AutoSync(inst.Syncable(parent), inst.Syncable(input), 0, SyncTrackBased, false, false)
	} else {
		id.PlaySpeed = pd.PlaySpeed
	}
	id.GlobalWeight = pd.GlobalWeight
	id.LocalWeight = 1
}

// HierarchicalSyncAllInputNodes runs HierarchicalSyncInputNode for every node feeding parent.
func (inst *GraphInstance) HierarchicalSyncAllInputNodes(parent Node) {
	if parent == nil {
		return
	}
	for _, c := range parent.Base().connections {
		inst.HierarchicalSyncInputNode(parent, inst.graph.Node(c.source))
	}
}

// SetSyncedRecursive flags n and everything feeding it as synced (or clears the flag).
// Composites forward the flag to their active subtree.
func (inst *GraphInstance) SetSyncedRecursive(n Node, synced bool) {
	inst.setFlagRecursive(n, FlagSynced, synced)
}

func (inst *GraphInstance) setFlagRecursive(n Node, f ObjectFlags, on bool) {
	if n == nil {
		return
	}
	d := inst.UniqueData(n)
	if d == nil {
		return
	}
	d.SetFlag(f, on)
	if sp, ok := n.(SubtreeProvider); ok {
		for _, child := range sp.ActiveSubtree(inst) {
			inst.setFlagRecursive(child, f, on)
		}
		return
	}
	for _, c := range n.Base().connections {
		inst.setFlagRecursive(inst.graph.Node(c.source), f, on)
	}
}

// markSyncMaster flags n as the sync master. The flag is not forwarded to its inputs:
// they keep advancing on their own and n follows them.
func (inst *GraphInstance) markSyncMaster(n Node) {
	if d := inst.UniqueData(n); d != nil {
		d.SetFlag(FlagSynced|FlagIsSyncMaster, true)
	}
}

// isSyncedSlave reports whether n's time is imposed by a sync master this tick.
func (inst *GraphInstance) isSyncedSlave(d *NodeData) bool {
	return d.HasFlag(FlagSynced) && !d.HasFlag(FlagIsSyncMaster)
}

// SetCurrentPlayTime sets n's current time and forwards it to the node's time source.
func (inst *GraphInstance) SetCurrentPlayTime(n Node, t float32) {
	d := inst.UniqueData(n)
	if d == nil {
		return
	}
	d.CurrentTime = t
	if s, ok := n.(PlayTimeSetter); ok {
		s.SetCurrentPlayTime(inst, t)
	}
}

// SetCurrentPlayTimeNormalized sets n's time as a fraction of its duration.
func (inst *GraphInstance) SetCurrentPlayTimeNormalized(n Node, normalized float32) {
	d := inst.UniqueData(n)
	if d == nil {
		return
	}
	inst.SetCurrentPlayTime(n, normalized*d.Duration)
}

// Syncable returns a synchronization view of n within this instance.
func (inst *GraphInstance) Syncable(n Node) Syncable {
	return nodeSyncable{inst: inst, node: n, data: inst.UniqueData(n)}
}

type nodeSyncable struct {
	inst *GraphInstance
	node Node
	data *NodeData
}

func (s nodeSyncable) SyncTrack() *SyncTrack       { return s.data.SyncTrack }
func (s nodeSyncable) Duration() float32           { return s.data.Duration }
func (s nodeSyncable) CurrentTime() float32        { return s.data.CurrentTime }
func (s nodeSyncable) SetCurrentTime(t float32)    { s.inst.SetCurrentPlayTime(s.node, t) }
func (s nodeSyncable) PlaySpeed() float32          { return s.data.PlaySpeed }
func (s nodeSyncable) SetPlaySpeed(speed float32)  { s.data.PlaySpeed = speed }
func (s nodeSyncable) SyncIndex() int              { return s.data.SyncIndex }
func (s nodeSyncable) SetSyncIndex(index int)      { s.data.SyncIndex = index }
func (s nodeSyncable) IsBackward() bool            { return s.data.IsBackward() }
func (s nodeSyncable) SyncIndexChanged() bool      { return s.data.HasFlag(FlagSyncIndexChanged) }
func (s nodeSyncable) SetSyncIndexChanged(ch bool) { s.data.SetFlag(FlagSyncIndexChanged, ch) }

// IncreasePoseRefCount registers one more reader of n's poses this tick.
func (inst *GraphInstance) IncreasePoseRefCount(n Node) {
	if d := inst.UniqueData(n); d != nil {
		d.PoseRefCount++
	}
}

// DecreasePoseRef drops one reader of n's poses. When the last reader is gone the poses
// return to the pool. A count already at zero stays at zero.
func (inst *GraphInstance) DecreasePoseRef(n Node) {
	d := inst.UniqueData(n)
	if d == nil || d.PoseRefCount == 0 {
		return
	}
	d.PoseRefCount--
	if d.PoseRefCount > 0 {
		return
	}
	for i := range d.Outputs {
		if d.Outputs[i].Type == TypePose {
			inst.posePool.Release(d.Outputs[i].Pose)
			d.Outputs[i].Pose = PoseHandle{}
		}
	}
}

// IncreaseRefDataRefCount registers one more reader of n's ref data this tick.
func (inst *GraphInstance) IncreaseRefDataRefCount(n Node) {
	if d := inst.UniqueData(n); d != nil {
		d.RefDataRefCount++
	}
}

// DecreaseRefDataRef drops one reader of n's ref data, returning it to the pool at zero.
func (inst *GraphInstance) DecreaseRefDataRef(n Node) {
	d := inst.UniqueData(n)
	if d == nil || d.RefDataRefCount == 0 {
		return
	}
	d.RefDataRefCount--
	if d.RefDataRefCount == 0 {
		inst.refDataPool.Release(d.RefData)
		d.RefData = RefDataHandle{}
	}
}

// IncreaseInputRefCounts increases the pose count of every node feeding n.
func (inst *GraphInstance) IncreaseInputRefCounts(n Node) {
	for _, c := range n.Base().connections {
		if src := inst.graph.Node(c.source); src != nil {
			inst.IncreasePoseRefCount(src)
		}
	}
}

// IncreaseInputRefDataRefCounts increases the ref-data count of every node feeding n.
func (inst *GraphInstance) IncreaseInputRefDataRefCounts(n Node) {
	for _, c := range n.Base().connections {
		if src := inst.graph.Node(c.source); src != nil {
			inst.IncreaseRefDataRefCount(src)
		}
	}
}

// FreeIncomingPoses decreases the pose count of every node feeding n.
func (inst *GraphInstance) FreeIncomingPoses(n Node) {
	for _, c := range n.Base().connections {
		if src := inst.graph.Node(c.source); src != nil {
			inst.DecreasePoseRef(src)
		}
	}
}

// FreeIncomingRefDatas decreases the ref-data count of every node feeding n.
func (inst *GraphInstance) FreeIncomingRefDatas(n Node) {
	for _, c := range n.Base().connections {
		if src := inst.graph.Node(c.source); src != nil {
			inst.DecreaseRefDataRef(src)
		}
	}
}

// RequestPoses makes sure every pose output of n holds a pooled pose for this tick.
// Newly acquired poses are initialized to the bind pose.
func (inst *GraphInstance) RequestPoses(n Node) {
	d := inst.UniqueData(n)
	if d == nil {
		return
	}
	for i := range d.Outputs {
		if d.Outputs[i].Type != TypePose {
			continue
		}
		if _, ok := inst.posePool.Get(d.Outputs[i].Pose); ok {
			continue
		}
		h, p := inst.posePool.Acquire()
		p.CopyFrom(inst.BindPose())
		d.Outputs[i].Pose = h
	}
}

// RequestRefDatas makes sure the node holds a pooled RefData for this tick and returns it.
// A newly acquired RefData is cleared.
func (inst *GraphInstance) RequestRefDatas(h NodeHandle) *RefData {
	d := inst.dataFor(h)
	if d == nil {
		return nil
	}
	if rd, ok := inst.refDataPool.Get(d.RefData); ok {
		return rd
	}
	handle, rd := inst.refDataPool.Acquire()
	rd.Clear()
	d.RefData = handle
	return rd
}

// RefDataOf returns n's RefData for this tick, or nil when it holds none.
func (inst *GraphInstance) RefDataOf(n Node) *RefData {
	d := inst.UniqueData(n)
	if d == nil {
		return nil
	}
	rd, ok := inst.refDataPool.Get(d.RefData)
	if !ok {
		return nil
	}
	return rd
}

// OutputPose returns the pose held by output port of n, or nil when it holds none.
func (inst *GraphInstance) OutputPose(n Node, port int) *pose.Pose {
	d := inst.UniqueData(n)
	if d == nil || port < 0 || port >= len(d.Outputs) || d.Outputs[port].Type != TypePose {
		return nil
	}
	p, ok := inst.posePool.Get(d.Outputs[port].Pose)
	if !ok {
		return nil
	}
	return p
}

// MainOutputPose returns the pose of n's first pose output, or nil.
func (inst *GraphInstance) MainOutputPose(n Node) *pose.Pose {
	if n == nil {
		return nil
	}
	return inst.OutputPose(n, n.Base().MainPosePort())
}

// InputPose returns the pose arriving at input port of n, or nil when the port is not
// connected or the source holds no pose.
func (inst *GraphInstance) InputPose(n Node, port int) *pose.Pose {
	c := n.Base().FindConnection(port)
	if c == nil {
		return nil
	}
	return inst.OutputPose(inst.graph.Node(c.source), int(c.sourcePort))
}

// InputPoseOrBind returns InputPose, falling back to the bind pose.
func (inst *GraphInstance) InputPoseOrBind(n Node, port int) *pose.Pose {
	if p := inst.InputPose(n, port); p != nil {
		return p
	}
	return inst.BindPose()
}

// SetOutputValue stores v in output port of n, keeping the port's declared type for numbers.
func (inst *GraphInstance) SetOutputValue(n Node, port int, v Value) {
	d := inst.UniqueData(n)
	if d == nil || port < 0 || port >= len(d.Outputs) {
		return
	}
	d.Outputs[port] = v
}

// OutputValue returns the value in output port of n.
func (inst *GraphInstance) OutputValue(n Node, port int) Value {
	d := inst.UniqueData(n)
	if d == nil || port < 0 || port >= len(d.Outputs) {
		return Value{}
	}
	return d.Outputs[port]
}

// InputValue returns the value arriving at input port of n.
//
// Returns:
//   - Value: the source's output value
//   - bool: false when the port is not connected or the source is gone
func (inst *GraphInstance) InputValue(n Node, port int) (Value, bool) {
	c := n.Base().FindConnection(port)
	if c == nil {
		return Value{}, false
	}
	src := inst.graph.Node(c.source)
	if src == nil {
		return Value{}, false
	}
	return inst.OutputValue(src, int(c.sourcePort)), true
}

// InputFloat returns the numeric value at input port of n, or fallback when unconnected.
func (inst *GraphInstance) InputFloat(n Node, port int, fallback float32) float32 {
	if v, ok := inst.InputValue(n, port); ok {
		return v.AsFloat()
	}
	return fallback
}

// InputBool returns the boolean value at input port of n, or fallback when unconnected.
func (inst *GraphInstance) InputBool(n Node, port int, fallback bool) bool {
	if v, ok := inst.InputValue(n, port); ok {
		return v.AsBool()
	}
	return fallback
}

// InputVector2 returns the vector at input port of n, or fallback when unconnected.
func (inst *GraphInstance) InputVector2(n Node, port int, fallback [2]float32) [2]float32 {
	if v, ok := inst.InputValue(n, port); ok {
		return v.AsVector2()
	}
	return fallback
}

// FilterEvents adds the events of a and b to out according to mode. b may be nil, in which
// case a's events are used for every mode except EventModeNone.
//
// Parameters:
//   - mode: which side contributes events
//   - a: the master (source) node
//   - b: the slave (target) node
//   - weight: blend weight of b
//   - out: receives the events
func (inst *GraphInstance) FilterEvents(mode EventMode, a, b Node, weight float32, out *RefData) {
	var rdA, rdB *RefData
	if a != nil {
		rdA = inst.RefDataOf(a)
	}
	if b != nil {
		rdB = inst.RefDataOf(b)
	}
	add := func(rd *RefData) {
		if rd != nil {
			out.Events.AddAll(&rd.Events)
		}
	}
	switch mode {
	case EventModeMasterOnly:
		add(rdA)
	case EventModeSlaveOnly:
		if b != nil {
			add(rdB)
		} else {
			add(rdA)
		}
	case EventModeBoth:
		add(rdA)
		add(rdB)
	case EventModeMostActive:
		if b == nil || weight <= 0.5 {
			add(rdA)
		} else {
			add(rdB)
		}
	}
}

// blendRefData writes the events of a and b filtered by mode, and their trajectory deltas
// blended by weight, into out. A missing side contributes nothing.
func (inst *GraphInstance) blendRefData(mode EventMode, a, b Node, weight float32, out *RefData) {
	out.Clear()
	inst.FilterEvents(mode, a, b, weight, out)
	rdA, rdB := inst.RefDataOf(a), inst.RefDataOf(b)
	switch {
	case rdA != nil && rdB != nil:
		out.TrajectoryDelta = BlendTrajectory(rdA.TrajectoryDelta, rdB.TrajectoryDelta, weight)
	case rdA != nil:
		out.TrajectoryDelta = rdA.TrajectoryDelta
	case rdB != nil:
		out.TrajectoryDelta = rdB.TrajectoryDelta
	}
}

// copyRefData copies the events and trajectory delta of src into out, or clears out.
func (inst *GraphInstance) copyRefData(src Node, out *RefData) {
	if rd := inst.RefDataOf(src); rd != nil {
		out.CopyFrom(rd)
		return
	}
	out.Clear()
}
