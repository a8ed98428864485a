package animgraph

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/Carmen-Shannon/oxy-anim/engine/motion"
)

const (
	motionInputPlaySpeed = iota
	motionInputInPlace
)

const (
	motionOutputPose = iota
)

// MotionNode plays one motion from the instance's motion set. It is the time source the
// rest of the graph synchronizes against.
//
// A missing motion outputs the bind pose and flags the node with HasError.
type MotionNode struct {
	NodeBase `yaml:"-"`

	MotionID   string  `yaml:"motion"`
	Loop       bool    `yaml:"loop"`
	PlaySpeed  float32 `yaml:"play_speed"`
	Reverse    bool    `yaml:"reverse"`
	Mirror     bool    `yaml:"mirror"`
	EmitEvents bool    `yaml:"emit_events"`
	InPlace    bool    `yaml:"in_place"`
	// FreezeAtLastFrame holds the last frame once a non-looping motion ends.
	FreezeAtLastFrame bool `yaml:"freeze_at_last_frame"`
}

type motionNodeData struct {
	instance *motion.Instance
	track    *SyncTrack
	started  bool
	fired    []model.MotionEvent
}

// NewMotionNode creates a looping motion node playing motionID at normal speed.
func NewMotionNode(motionID string) *MotionNode {
	return &MotionNode{
		MotionID:          motionID,
		Loop:              true,
		PlaySpeed:         1,
		EmitEvents:        true,
		FreezeAtLastFrame: true,
	}
}

// TypeName returns "motion".
func (m *MotionNode) TypeName() string { return "motion" }

// RegisterPorts declares the play speed and in-place inputs and the pose output.
func (m *MotionNode) RegisterPorts() {
	m.InitInputPorts(2)
	m.SetupInputPortAsNumber("PlaySpeed", motionInputPlaySpeed, 0)
	m.SetupInputPort("InPlace", motionInputInPlace, TypeBool, 1)
	m.InitOutputPorts(1)
	m.SetupOutputPortAsPose("Pose", motionOutputPose, 0)
}

// CreateUniqueData creates the motion instance, or an empty payload when the motion is missing.
func (m *MotionNode) CreateUniqueData(inst *GraphInstance) any {
	p := &motionNodeData{}
	m.bind(inst, p)
	return p
}

func (m *MotionNode) bind(inst *GraphInstance, p *motionNodeData) {
	mo := inst.Motions().Motion(m.MotionID)
	if mo == nil {
		return
	}
	opts := []motion.InstanceBuilderOption{motion.WithMirror(m.Mirror)}
	if m.Reverse {
		opts = append(opts, motion.WithPlayMode(motion.PlayModeBackward))
	}
	if !m.Loop {
		opts = append(opts, motion.WithMaxLoops(1), motion.WithFreezeAtLastFrame(m.FreezeAtLastFrame))
	}
	p.instance = motion.NewInstance(mo, opts...)
	p.track = SyncTrackFromModel(mo.Duration(), mo.SyncEvents())
	if m.Mirror {
		p.track = p.track.Mirrored()
	}
}

// MotionInstance returns the playback state of this node in inst, or nil when the motion is missing.
func (m *MotionNode) MotionInstance(inst *GraphInstance) *motion.Instance {
	if p := payloadOf[*motionNodeData](inst, m); p != nil {
		return p.instance
	}
	return nil
}

// FiredEvents returns the motion events extracted by the last PostUpdate.
func (m *MotionNode) FiredEvents(inst *GraphInstance) []model.MotionEvent {
	if p := payloadOf[*motionNodeData](inst, m); p != nil {
		return p.fired
	}
	return nil
}

// naturalSpeed is the attribute speed scaled by the play speed input.
func (m *MotionNode) naturalSpeed(inst *GraphInstance) float32 {
	return inst.InputFloat(m, motionInputPlaySpeed, 1) * m.PlaySpeed
}

// Update advances the motion with the speed imposed during the last top-down pass, unless
// a sync master drives it, then publishes the node's own speed.
func (m *MotionNode) Update(inst *GraphInstance, dt float32) {
	inst.UpdateInputValue(m, motionInputPlaySpeed, dt)
	inst.UpdateInputValue(m, motionInputInPlace, dt)

	d := inst.UniqueData(m)
	p, _ := d.Payload.(*motionNodeData)
	if p == nil {
		return
	}
	if p.instance == nil {
		m.bind(inst, p)
	}
	if p.instance == nil {
		d.Duration = 0
		d.CurrentTime = 0
		d.SyncTrack = nil
		d.SetFlag(FlagHasError, true)
		return
	}
	d.SetFlag(FlagHasError, false)

	natural := m.naturalSpeed(inst)
	if !p.started {
		d.PlaySpeed = natural
		p.started = true
	}
	if inst.isSyncedSlave(d) {
		p.instance.Hold()
	} else {
		p.instance.SetPlaySpeed(d.PlaySpeed)
		p.instance.UpdateTime(dt)
	}
	m.publish(d, p)
	d.PlaySpeed = natural
}

// publish copies the motion instance's timing into d and tracks the sync segment.
func (m *MotionNode) publish(d *NodeData, p *motionNodeData) {
	d.Duration = p.instance.Duration()
	d.CurrentTime = p.instance.CurrentTime()
	d.SyncTrack = p.track
	d.InheritFlags = 0
	if m.Reverse {
		d.InheritFlags |= InheritBackward
	}
	if p.instance.HasLooped() {
		d.InheritFlags |= InheritHasLooped
	}
	if left, _, ok := p.track.FindEventIndices(d.CurrentTime); ok && left != d.SyncIndex {
		if d.SyncIndex != InvalidIndex {
			d.SetFlag(FlagSyncIndexChanged, true)
		}
		d.SyncIndex = left
	}
}

// SetCurrentPlayTime moves the motion to t, imposed by synchronization.
func (m *MotionNode) SetCurrentPlayTime(inst *GraphInstance, t float32) {
	p := payloadOf[*motionNodeData](inst, m)
	if p == nil || p.instance == nil {
		return
	}
	p.instance.SyncTo(t)
	if d := inst.UniqueData(m); d != nil {
		d.CurrentTime = p.instance.CurrentTime()
		if p.instance.HasLooped() {
			d.InheritFlags |= InheritHasLooped
		}
	}
}

// TopDownUpdate syncs the value inputs to this node.
func (m *MotionNode) TopDownUpdate(inst *GraphInstance, dt float32) {
	for _, port := range []int{motionInputPlaySpeed, motionInputInPlace} {
		if src := m.InputNode(port); src != nil {
			inst.HierarchicalSyncInputNode(m, src)
			inst.TopDownUpdateIncomingNode(src, dt)
		}
	}
}

// Output samples the motion over the bind pose.
func (m *MotionNode) Output(inst *GraphInstance) {
	inst.RequestPoses(m)
	out := inst.OutputPose(m, motionOutputPose)
	if out == nil {
		return
	}
	out.CopyFrom(inst.BindPose())
	if mi := m.MotionInstance(inst); mi != nil {
		mi.SampleInto(out)
	}
}

// PostUpdate extracts the events crossed this tick and the root motion delta.
func (m *MotionNode) PostUpdate(inst *GraphInstance, dt float32) {
	for _, port := range []int{motionInputPlaySpeed, motionInputInPlace} {
		inst.PostUpdateIncomingNode(m.InputNode(port), dt)
	}
	rd := inst.RequestRefDatas(m.handle)
	d := inst.UniqueData(m)
	if rd == nil || d == nil {
		return
	}
	rd.Clear()
	p, _ := d.Payload.(*motionNodeData)
	if p == nil || p.instance == nil {
		return
	}
	p.fired = p.instance.ExtractEvents(p.fired[:0])
	if m.EmitEvents {
		for _, e := range p.fired {
			rd.Events.Add(EventInfo{
				Event:        e,
				MotionID:     m.MotionID,
				Emitter:      m.handle,
				GlobalWeight: d.GlobalWeight,
				LocalWeight:  d.LocalWeight,
			})
		}
	}
	if !inst.InputBool(m, motionInputInPlace, m.InPlace) {
		rd.TrajectoryDelta = p.instance.ExtractRootDelta(inst.Actor().Skeleton().RootBone())
	}
}

// Rewind restarts the motion from its first frame and resets the sync state.
func (m *MotionNode) Rewind(inst *GraphInstance) {
	d := inst.UniqueData(m)
	if d == nil {
		return
	}
	p, _ := d.Payload.(*motionNodeData)
	if p == nil || p.instance == nil {
		return
	}
	p.instance.Rewind()
	p.started = false
	d.CurrentTime = p.instance.CurrentTime()
	d.PreSyncTime = d.CurrentTime
	d.SyncIndex = InvalidIndex
	d.SetFlag(FlagSyncIndexChanged, false)
}
