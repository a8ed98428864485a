package animgraph

// ObjectFlags are per-instance state bits kept on NodeData.
type ObjectFlags uint32

const (
	// FlagUpdateReady marks a node whose Update already ran this tick.
	FlagUpdateReady ObjectFlags = 1 << iota
	// FlagTopDownUpdateReady marks a node whose TopDownUpdate already ran this tick.
	FlagTopDownUpdateReady
	// FlagOutputReady marks a node whose Output already ran this tick.
	FlagOutputReady
	// FlagPostUpdateReady marks a node whose PostUpdate already ran this tick.
	FlagPostUpdateReady
	// FlagSyncIndexChanged marks a node whose sync segment advanced this tick.
	FlagSyncIndexChanged
	// FlagSynced marks a node whose time is driven by a sync master.
	FlagSynced
	// FlagIsSyncMaster marks the node other nodes are synced to.
	FlagIsSyncMaster
	// FlagResync requests occurrence-based resynchronization on the next sync.
	FlagResync
	// FlagHasError marks a node that hit a fallback path; for tooling only.
	FlagHasError
)

const (
	tickFlags = FlagUpdateReady | FlagTopDownUpdateReady | FlagOutputReady | FlagPostUpdateReady | FlagSyncIndexChanged
	syncFlags = FlagSynced | FlagIsSyncMaster
)

// InheritFlags are playback properties a parent picks up from its time source.
type InheritFlags uint8

const (
	// InheritBackward marks backward playback.
	InheritBackward InheritFlags = 1 << iota
	// InheritHasLooped marks that the time source wrapped during this tick.
	InheritHasLooped
)

// NodeData is the runtime state of one node within one GraphInstance.
type NodeData struct {
	node NodeHandle

	Duration     float32
	CurrentTime  float32
	PreSyncTime  float32
	PlaySpeed    float32
	GlobalWeight float32
	LocalWeight  float32
	SyncIndex    int
	InheritFlags InheritFlags

	PoseRefCount    uint32
	RefDataRefCount uint32

	// SyncTrack is the phase track of this node's time source. It is shared and read-only.
	SyncTrack *SyncTrack

	// RefData holds this tick's events and motion-extraction delta once PostUpdate ran.
	RefData RefDataHandle

	// Outputs holds the value of every output port, indexed like the node's output ports.
	Outputs []Value

	// Payload is the node-type specific state created by CreateUniqueData.
	Payload any

	flags ObjectFlags
}

func newNodeData(h NodeHandle, numOutputs int) *NodeData {
	d := &NodeData{node: h, Outputs: make([]Value, numOutputs)}
	d.Reset()
	return d
}

// Node returns the handle of the node this data belongs to.
func (d *NodeData) Node() NodeHandle { return d.node }

// Reset restores timing, weights and sync state to their defaults. Ref counts and outputs are kept.
func (d *NodeData) Reset() {
	d.Duration = 0
	d.CurrentTime = 0
	d.PreSyncTime = 0
	d.PlaySpeed = 1
	d.GlobalWeight = 1
	d.LocalWeight = 1
	d.SyncIndex = InvalidIndex
	d.InheritFlags = 0
	d.SyncTrack = nil
}

// Init copies the timing of a time source into d: duration, current and pre-sync time,
// play speed, sync index, inherited flags and sync track.
//
// Parameters:
//   - from: the time source's data
func (d *NodeData) Init(from *NodeData) {
	d.Duration = from.Duration
	d.CurrentTime = from.CurrentTime
	d.PreSyncTime = from.PreSyncTime
	d.PlaySpeed = from.PlaySpeed
	d.SyncIndex = from.SyncIndex
	d.InheritFlags = from.InheritFlags
	d.SyncTrack = from.SyncTrack
}

// Flags returns all object flags.
func (d *NodeData) Flags() ObjectFlags { return d.flags }

// HasFlag reports whether every bit of f is set.
func (d *NodeData) HasFlag(f ObjectFlags) bool { return d.flags&f == f }

// SetFlag sets or clears the bits of f.
func (d *NodeData) SetFlag(f ObjectFlags, on bool) {
	if on {
		d.flags |= f
	} else {
		d.flags &^= f
	}
}

// IsBackward reports whether the time source plays backward.
func (d *NodeData) IsBackward() bool { return d.InheritFlags&InheritBackward != 0 }

// HasLooped reports whether the time source wrapped this tick.
func (d *NodeData) HasLooped() bool { return d.InheritFlags&InheritHasLooped != 0 }

// NormalizedTime returns CurrentTime / Duration, or 0 for a zero duration.
func (d *NodeData) NormalizedTime() float32 {
	if d.Duration <= 0 {
		return 0
	}
	return d.CurrentTime / d.Duration
}

// HasError reports whether the node fell back to a default this instance.
func (d *NodeData) HasError() bool { return d.HasFlag(FlagHasError) }
