package animgraph

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/Carmen-Shannon/oxy-anim/engine/motion"
)

// BlendSpaceMotion places one motion in a blend space's parameter space. A 1D blend space
// only reads Position[0].
type BlendSpaceMotion struct {
	MotionID string     `yaml:"motion"`
	Position [2]float32 `yaml:"position"`
}

// BlendInfo is the weight of one blend space motion, by index into the node's motions.
type BlendInfo struct {
	MotionIndex int
	Weight      float32
}

// blendSpaceMotion is the playback state of one motion of a blend space in one instance.
// It takes part in synchronization like a node does.
type blendSpaceMotion struct {
	instance         *motion.Instance
	track            *SyncTrack
	playSpeed        float32
	syncIndex        int
	syncIndexChanged bool
	fired            []model.MotionEvent
}

func (m *blendSpaceMotion) SyncTrack() *SyncTrack       { return m.track }
func (m *blendSpaceMotion) Duration() float32           { return m.instance.Duration() }
func (m *blendSpaceMotion) CurrentTime() float32        { return m.instance.CurrentTime() }
func (m *blendSpaceMotion) SetCurrentTime(t float32)    { m.instance.SyncTo(t) }
func (m *blendSpaceMotion) PlaySpeed() float32          { return m.playSpeed }
func (m *blendSpaceMotion) SetPlaySpeed(speed float32)  { m.playSpeed = speed }
func (m *blendSpaceMotion) SyncIndex() int              { return m.syncIndex }
func (m *blendSpaceMotion) SetSyncIndex(index int)      { m.syncIndex = index }
func (m *blendSpaceMotion) IsBackward() bool            { return m.instance.PlayMode() == motion.PlayModeBackward }
func (m *blendSpaceMotion) SyncIndexChanged() bool      { return m.syncIndexChanged }
func (m *blendSpaceMotion) SetSyncIndexChanged(ch bool) { m.syncIndexChanged = ch }

// trackSyncIndex moves the sync index to the segment containing the current time.
func (m *blendSpaceMotion) trackSyncIndex() {
	left, _, ok := m.track.FindEventIndices(m.instance.CurrentTime())
	if !ok || left == m.syncIndex {
		return
	}
	if m.syncIndex != InvalidIndex {
		m.syncIndexChanged = true
	}
	m.syncIndex = left
}

type blendSpaceData struct {
	motions  []*blendSpaceMotion
	infos    []BlendInfo
	master   int
	position [2]float32
	started  bool
	built    bool
	version  uint64

	// 1D
	sorted  []int
	segment int

	// 2D
	triangles []common.Triangle
	edges     []common.Edge
	triangle  int
	edge      int
}

// blendSpaceBase is the part shared by the 1D and 2D blend spaces: the motions, their
// synchronization and the weighted pose, event and motion extraction output.
type blendSpaceBase struct {
	NodeBase `yaml:"-"`

	Motions   []BlendSpaceMotion `yaml:"motions"`
	SyncMode  SyncMode           `yaml:"sync"`
	EventMode EventMode          `yaml:"events"`
	Loop      bool               `yaml:"loop"`

	version uint64
}

// SetMotions replaces the motions. Instances rebuild their lookup structures on the next update.
func (b *blendSpaceBase) SetMotions(motions []BlendSpaceMotion) {
	b.Motions = append(b.Motions[:0:0], motions...)
	b.version++
}

// NumMotions returns the number of motions in the blend space.
func (b *blendSpaceBase) NumMotions() int { return len(b.Motions) }

func (b *blendSpaceBase) CreateUniqueData(*GraphInstance) any {
	return &blendSpaceData{master: InvalidIndex, segment: InvalidIndex, triangle: InvalidIndex, edge: InvalidIndex}
}

func (b *blendSpaceBase) data(inst *GraphInstance) *blendSpaceData {
	return payloadOf[*blendSpaceData](inst, inst.graph.Node(b.handle))
}

// stale reports whether bd must be rebuilt for the current motions.
func (b *blendSpaceBase) stale(bd *blendSpaceData) bool {
	return !bd.built || bd.version != b.version || len(bd.motions) != len(b.Motions)
}

// bindMotions creates the playback state of every motion. Missing motions keep a nil
// instance and contribute the bind pose.
func (b *blendSpaceBase) bindMotions(inst *GraphInstance, bd *blendSpaceData) {
	bd.motions = make([]*blendSpaceMotion, len(b.Motions))
	for i, m := range b.Motions {
		bm := &blendSpaceMotion{playSpeed: 1, syncIndex: InvalidIndex}
		if mo := inst.Motions().Motion(m.MotionID); mo != nil {
			var opts []motion.InstanceBuilderOption
			if !b.Loop {
				opts = append(opts, motion.WithMaxLoops(1), motion.WithFreezeAtLastFrame(true))
			}
			bm.instance = motion.NewInstance(mo, opts...)
			bm.track = SyncTrackFromModel(mo.Duration(), mo.SyncEvents())
		}
		bd.motions[i] = bm
	}
	bd.built = true
	bd.version = b.version
	bd.master = InvalidIndex
}

func (b *blendSpaceBase) positions() [][2]float32 {
	pts := make([][2]float32, len(b.Motions))
	for i, m := range b.Motions {
		pts[i] = m.Position
	}
	return pts
}

// masterIndex returns the motion with the highest weight that has a motion assigned.
func (bd *blendSpaceData) masterIndex() int {
	master := InvalidIndex
	var best float32 = -1
	for _, bi := range bd.infos {
		if bd.motions[bi.MotionIndex].instance == nil {
			continue
		}
		if bi.Weight > best {
			best = bi.Weight
			master = bi.MotionIndex
		}
	}
	return master
}

func (bd *blendSpaceData) isActive(index int) bool {
	for _, bi := range bd.infos {
		if bi.MotionIndex == index {
			return true
		}
	}
	return false
}

// BlendInfos returns the weights computed by the last update in inst.
func (b *blendSpaceBase) BlendInfos(inst *GraphInstance) []BlendInfo {
	if bd := b.data(inst); bd != nil {
		return bd.infos
	}
	return nil
}

// MasterMotion returns the index of the motion the others are synchronized to, or InvalidIndex.
func (b *blendSpaceBase) MasterMotion(inst *GraphInstance) int {
	if bd := b.data(inst); bd != nil {
		return bd.master
	}
	return InvalidIndex
}

// MotionInstance returns the playback state of motion index in inst, or nil.
func (b *blendSpaceBase) MotionInstance(inst *GraphInstance, index int) *motion.Instance {
	bd := b.data(inst)
	if bd == nil || index < 0 || index >= len(bd.motions) {
		return nil
	}
	return bd.motions[index].instance
}

// CurrentPosition returns the sample point used by the last update.
func (b *blendSpaceBase) CurrentPosition(inst *GraphInstance) [2]float32 {
	if bd := b.data(inst); bd != nil {
		return bd.position
	}
	return [2]float32{}
}

// advance steps the weighted motions. The master advances with the speed imposed by the
// parent; with synchronization on, the other active motions follow it. Inactive motions
// hold. A synced blend space only holds; its parent sets the time.
func (b *blendSpaceBase) advance(inst *GraphInstance, d *NodeData, bd *blendSpaceData, dt float32) {
	bd.master = bd.masterIndex()
	if !bd.started {
		d.PlaySpeed = 1
		bd.started = true
	}
	speed := d.PlaySpeed
	held := inst.isSyncedSlave(d)

	for i, bm := range bd.motions {
		bm.syncIndexChanged = false
		if bm.instance == nil {
			continue
		}
		bm.playSpeed = speed
		if held || !bd.isActive(i) || (b.SyncMode != SyncDisabled && i != bd.master) {
			bm.instance.Hold()
			continue
		}
		bm.instance.SetPlaySpeed(speed)
		bm.instance.UpdateTime(dt)
		bm.trackSyncIndex()
	}
	if !held && b.SyncMode != SyncDisabled && bd.master != InvalidIndex {
		b.syncToMaster(bd)
	}
	b.publish(d, bd)
	d.PlaySpeed = 1
}

// syncToMaster aligns every active motion with the master.
func (b *blendSpaceBase) syncToMaster(bd *blendSpaceData) {
	master := bd.motions[bd.master]
	for _, bi := range bd.infos {
		bm := bd.motions[bi.MotionIndex]
		if bi.MotionIndex == bd.master || bm.instance == nil {
			continue
		}
		if b.SyncMode == SyncDisabled {
			SyncPlayTime(master, bm)
			continue
		}
		AutoSync(master, bm, bi.Weight, b.SyncMode, false, false)
	}
}

// publish copies the master's timing into d.
func (b *blendSpaceBase) publish(d *NodeData, bd *blendSpaceData) {
	if bd.master == InvalidIndex {
		d.Duration = 0
		d.CurrentTime = 0
		d.SyncTrack = nil
		d.SyncIndex = InvalidIndex
		d.InheritFlags = 0
		return
	}
	m := bd.motions[bd.master]
	d.Duration = m.instance.Duration()
	d.CurrentTime = m.instance.CurrentTime()
	d.SyncTrack = m.track
	d.SyncIndex = m.syncIndex
	d.SetFlag(FlagSyncIndexChanged, m.syncIndexChanged)
	d.InheritFlags = 0
	if m.IsBackward() {
		d.InheritFlags |= InheritBackward
	}
	if m.instance.HasLooped() {
		d.InheritFlags |= InheritHasLooped
	}
}

// SetCurrentPlayTime moves the master to t and realigns the other active motions.
func (b *blendSpaceBase) SetCurrentPlayTime(inst *GraphInstance, t float32) {
	d := inst.UniqueData(inst.graph.Node(b.handle))
	if d == nil {
		return
	}
	bd, _ := d.Payload.(*blendSpaceData)
	if bd == nil || bd.master == InvalidIndex {
		return
	}
	bd.motions[bd.master].instance.SyncTo(t)
	bd.motions[bd.master].trackSyncIndex()
	b.syncToMaster(bd)
	b.publish(d, bd)
}

// output blends the sampled poses of the active motions by weight.
func (b *blendSpaceBase) output(inst *GraphInstance) {
	n := inst.graph.Node(b.handle)
	inst.RequestPoses(n)
	out := inst.OutputPose(n, 0)
	bd := b.data(inst)
	if out == nil {
		return
	}
	if bd == nil || len(bd.infos) == 0 {
		out.CopyFrom(inst.BindPose())
		return
	}
	h, tmp := inst.posePool.Acquire()
	defer inst.posePool.Release(h)

	var total float32
	first := true
	for _, bi := range bd.infos {
		if bi.Weight <= 0 {
			continue
		}
		tmp.CopyFrom(inst.BindPose())
		if mi := bd.motions[bi.MotionIndex].instance; mi != nil {
			mi.SampleInto(tmp)
		}
		total += bi.Weight
		if first {
			out.CopyFrom(tmp)
			first = false
			continue
		}
		out.Blend(out, tmp, bi.Weight/total)
	}
	if first {
		out.CopyFrom(inst.BindPose())
	}
}

func (b *blendSpaceBase) emitsEvents(bd *blendSpaceData, index int) bool {
	switch b.EventMode {
	case EventModeMasterOnly, EventModeMostActive:
		return index == bd.master
	case EventModeSlaveOnly:
		return index != bd.master || len(bd.infos) == 1
	case EventModeBoth:
		return true
	}
	return false
}

// postUpdate extracts the events of the active motions filtered by EventMode and the
// weighted root motion delta.
func (b *blendSpaceBase) postUpdate(inst *GraphInstance) {
	rd := inst.RequestRefDatas(b.handle)
	d := inst.UniqueData(inst.graph.Node(b.handle))
	if rd == nil || d == nil {
		return
	}
	rd.Clear()
	bd, _ := d.Payload.(*blendSpaceData)
	if bd == nil {
		return
	}
	root := inst.Actor().Skeleton().RootBone()
	for _, bi := range bd.infos {
		bm := bd.motions[bi.MotionIndex]
		if bm.instance == nil {
			continue
		}
		bm.fired = bm.instance.ExtractEvents(bm.fired[:0])
		if b.emitsEvents(bd, bi.MotionIndex) {
			for _, e := range bm.fired {
				rd.Events.Add(EventInfo{
					Event:        e,
					MotionID:     b.Motions[bi.MotionIndex].MotionID,
					Emitter:      b.handle,
					GlobalWeight: d.GlobalWeight * bi.Weight,
					LocalWeight:  bi.Weight,
				})
			}
		}
		delta := bm.instance.ExtractRootDelta(root)
		for k := 0; k < 3; k++ {
			rd.TrajectoryDelta.Translation[k] += delta.Translation[k] * bi.Weight
		}
	}
}

// rewind restarts every motion.
func (b *blendSpaceBase) rewind(inst *GraphInstance) {
	d := inst.UniqueData(inst.graph.Node(b.handle))
	if d == nil {
		return
	}
	bd, _ := d.Payload.(*blendSpaceData)
	if bd == nil {
		return
	}
	for _, bm := range bd.motions {
		if bm.instance != nil {
			bm.instance.Rewind()
		}
		bm.syncIndex = InvalidIndex
		bm.syncIndexChanged = false
	}
	bd.started = false
	d.CurrentTime = 0
	d.PreSyncTime = 0
	d.SyncIndex = InvalidIndex
}

// PostUpdate post-updates the inputs, then extracts events and motion.
func (b *blendSpaceBase) PostUpdate(inst *GraphInstance, dt float32) {
	for _, c := range b.connections {
		inst.PostUpdateIncomingNode(inst.graph.Node(c.source), dt)
	}
	b.postUpdate(inst)
}

// Output blends the active motions.
func (b *blendSpaceBase) Output(inst *GraphInstance) {
	inst.OutputAllInputs(inst.graph.Node(b.handle))
	b.output(inst)
}

// Rewind restarts every motion.
func (b *blendSpaceBase) Rewind(inst *GraphInstance) { b.rewind(inst) }
