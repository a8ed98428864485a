package animgraph

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

const (
	blendSpaceInputX = iota
	blendSpaceInputY
)

// BlendSpace1DNode blends the two motions whose coordinates bracket the X input. Below the
// first or above the last coordinate the nearest motion plays alone.
type BlendSpace1DNode struct {
	blendSpaceBase `yaml:",inline"`
}

// NewBlendSpace1DNode creates a looping 1D blend space.
func NewBlendSpace1DNode(motions ...BlendSpaceMotion) *BlendSpace1DNode {
	n := &BlendSpace1DNode{}
	n.Loop = true
	n.EventMode = EventModeMostActive
	n.SetMotions(motions)
	return n
}

// TypeName returns "blend_space_1d".
func (n *BlendSpace1DNode) TypeName() string { return "blend_space_1d" }

// RegisterPorts declares the X input and the pose output.
func (n *BlendSpace1DNode) RegisterPorts() {
	n.InitInputPorts(1)
	n.SetupInputPortAsNumber("X", blendSpaceInputX, 0)
	n.InitOutputPorts(1)
	n.SetupOutputPortAsPose("Pose", 0, 0)
}

// prepare rebuilds the per-instance motions and the sorted coordinate order when the
// motions changed.
func (n *BlendSpace1DNode) prepare(inst *GraphInstance, bd *blendSpaceData) {
	if !n.stale(bd) {
		return
	}
	n.bindMotions(inst, bd)
	bd.sorted = bd.sorted[:0]
	for i := range n.Motions {
		bd.sorted = append(bd.sorted, i)
	}
	sort.SliceStable(bd.sorted, func(a, b int) bool {
		return n.Motions[bd.sorted[a]].Position[0] < n.Motions[bd.sorted[b]].Position[0]
	})
	bd.segment = InvalidIndex
}

// SetCurrentPosition sets the sample coordinate used while the X input is unconnected.
func (n *BlendSpace1DNode) SetCurrentPosition(inst *GraphInstance, x float32) {
	if bd := n.data(inst); bd != nil {
		bd.position[0] = x
	}
}

// FindLineSegmentForCurrentPoint finds the pair of neighbouring coordinates around the
// current sample and returns the weights of both motions. A sample outside the covered
// range, or a single motion, yields one motion at full weight.
//
// Parameters:
//   - inst: the instance whose current sample is used
//
// Returns:
//   - []BlendInfo: the weighted motions, lower coordinate first
func (n *BlendSpace1DNode) FindLineSegmentForCurrentPoint(inst *GraphInstance) []BlendInfo {
	bd := n.data(inst)
	if bd == nil {
		return nil
	}
	n.prepare(inst, bd)
	bd.segment = InvalidIndex
	s := bd.sorted
	if len(s) == 0 {
		return nil
	}
	x := bd.position[0]
	pos := func(i int) float32 { return n.Motions[s[i]].Position[0] }
	last := len(s) - 1
	if len(s) == 1 || x <= pos(0) {
		return []BlendInfo{{MotionIndex: s[0], Weight: 1}}
	}
	if x >= pos(last) {
		return []BlendInfo{{MotionIndex: s[last], Weight: 1}}
	}
	for i := 0; i < last; i++ {
		lo, hi := pos(i), pos(i+1)
		if x < lo || x > hi {
			continue
		}
		w := common.SafeDiv(x-lo, hi-lo, 0)
		bd.segment = i
		return []BlendInfo{
			{MotionIndex: s[i], Weight: 1 - w},
			{MotionIndex: s[i+1], Weight: w},
		}
	}
	return []BlendInfo{{MotionIndex: s[last], Weight: 1}}
}

// CurrentSegment returns the index of the segment in sorted coordinate order selected by
// the last lookup, or InvalidIndex when the sample was clamped.
func (n *BlendSpace1DNode) CurrentSegment(inst *GraphInstance) int {
	if bd := n.data(inst); bd != nil {
		return bd.segment
	}
	return InvalidIndex
}

// Update reads the X input, computes the motion weights and advances the motions.
func (n *BlendSpace1DNode) Update(inst *GraphInstance, dt float32) {
	inst.UpdateInputValue(n, blendSpaceInputX, dt)
	d := inst.UniqueData(n)
	if d == nil {
		return
	}
	bd, _ := d.Payload.(*blendSpaceData)
	if bd == nil {
		return
	}
	n.prepare(inst, bd)
	bd.position[0] = inst.InputFloat(n, blendSpaceInputX, bd.position[0])
	bd.infos = n.FindLineSegmentForCurrentPoint(inst)
	n.advance(inst, d, bd, dt)
}
