package animgraph

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// EventInfo is a motion event fired during a tick, with the weights of the node that emitted it.
type EventInfo struct {
	Event        model.MotionEvent
	MotionID     string
	Emitter      NodeHandle
	GlobalWeight float32
	LocalWeight  float32
}

// EventBuffer collects the events fired during one tick.
type EventBuffer struct {
	Events []EventInfo
}

// Add appends one event.
func (b *EventBuffer) Add(e EventInfo) {
	b.Events = append(b.Events, e)
}

// AddAll appends every event of other.
func (b *EventBuffer) AddAll(other *EventBuffer) {
	b.Events = append(b.Events, other.Events...)
}

// CopyFrom replaces the content of b with the content of other.
func (b *EventBuffer) CopyFrom(other *EventBuffer) {
	b.Events = append(b.Events[:0], other.Events...)
}

// Clear removes every event while keeping the backing storage.
func (b *EventBuffer) Clear() {
	b.Events = b.Events[:0]
}

// Len returns the number of buffered events.
func (b *EventBuffer) Len() int { return len(b.Events) }

// ScaleWeights multiplies the local weight of every event by w and sets the global weight.
func (b *EventBuffer) ScaleWeights(global, local float32) {
	for i := range b.Events {
		b.Events[i].GlobalWeight = global
		b.Events[i].LocalWeight *= local
	}
}

// RefData is the pooled per-tick side data of a node: fired events and the
// motion-extraction delta.
type RefData struct {
	Events          EventBuffer
	TrajectoryDelta model.Transform
}

func newRefData() *RefData {
	return &RefData{TrajectoryDelta: model.IdentityTransform()}
}

// Clear empties the event buffer and zeroes the trajectory delta.
func (r *RefData) Clear() {
	r.Events.Clear()
	r.TrajectoryDelta = model.IdentityTransform()
}

// CopyFrom copies events and the trajectory delta from other.
func (r *RefData) CopyFrom(other *RefData) {
	r.Events.CopyFrom(&other.Events)
	r.TrajectoryDelta = other.TrajectoryDelta
}

// EventMode selects which side of a blend contributes events.
type EventMode int

const (
	// EventModeMasterOnly keeps the events of the first (master) input.
	EventModeMasterOnly EventMode = iota
	// EventModeSlaveOnly keeps the events of the second input, or the first when there is none.
	EventModeSlaveOnly
	// EventModeBoth keeps the events of both inputs.
	EventModeBoth
	// EventModeMostActive keeps the events of the input with the larger weight.
	EventModeMostActive
	// EventModeNone drops every event.
	EventModeNone
)

var eventModeNames = [...]string{
	EventModeMasterOnly: "master",
	EventModeSlaveOnly:  "slave",
	EventModeBoth:       "both",
	EventModeMostActive: "most_active",
	EventModeNone:       "none",
}

// String returns the document name of the mode.
func (m EventMode) String() string {
	if m >= 0 && int(m) < len(eventModeNames) {
		return eventModeNames[m]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (m EventMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *EventMode) UnmarshalText(b []byte) error {
	for i, n := range eventModeNames {
		if n == string(b) {
			*m = EventMode(i)
			return nil
		}
	}
	return fmt.Errorf("animgraph: unknown event mode %q", b)
}

// BlendTrajectory interpolates two motion-extraction deltas.
func BlendTrajectory(a, b model.Transform, w float32) model.Transform {
	out := model.IdentityTransform()
	out.Translation = common.Lerp3(a.Translation, b.Translation, w)
	out.Rotation = common.QuatNlerp(a.Rotation, b.Rotation, w)
	return out
}
