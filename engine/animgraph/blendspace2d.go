package animgraph

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
)

// BlendSpace2DNode blends the motions at the corners of the Delaunay triangle containing
// the (X, Y) sample. Outside the triangulated area the sample is projected onto the closest
// outer edge and its two motions are blended.
type BlendSpace2DNode struct {
	blendSpaceBase `yaml:",inline"`
}

// NewBlendSpace2DNode creates a looping 2D blend space.
func NewBlendSpace2DNode(motions ...BlendSpaceMotion) *BlendSpace2DNode {
	n := &BlendSpace2DNode{}
	n.Loop = true
	n.EventMode = EventModeMostActive
	n.SetMotions(motions)
	return n
}

// TypeName returns "blend_space_2d".
func (n *BlendSpace2DNode) TypeName() string { return "blend_space_2d" }

// RegisterPorts declares the X and Y inputs and the pose output.
func (n *BlendSpace2DNode) RegisterPorts() {
	n.InitInputPorts(2)
	n.SetupInputPortAsNumber("X", blendSpaceInputX, 0)
	n.SetupInputPortAsNumber("Y", blendSpaceInputY, 1)
	n.InitOutputPorts(1)
	n.SetupOutputPortAsPose("Pose", 0, 0)
}

func (n *BlendSpace2DNode) prepare(inst *GraphInstance, bd *blendSpaceData) {
	if !n.stale(bd) {
		return
	}
	n.bindMotions(inst, bd)
	n.triangulate(bd)
}

func (n *BlendSpace2DNode) triangulate(bd *blendSpaceData) {
	bd.triangles = common.Triangulate(n.positions())
	bd.edges = common.OuterEdges(bd.triangles)
	bd.triangle = InvalidIndex
	bd.edge = InvalidIndex
}

// UpdateTriangulation rebuilds the triangulation of the motion positions for inst.
func (n *BlendSpace2DNode) UpdateTriangulation(inst *GraphInstance) {
	bd := n.data(inst)
	if bd == nil {
		return
	}
	if n.stale(bd) {
		n.bindMotions(inst, bd)
	}
	bd.triangles = common.Triangulate(n.positions())
	bd.triangle = InvalidIndex
}

// DetermineOuterEdges collects the edges of the triangulation that bound the covered area.
func (n *BlendSpace2DNode) DetermineOuterEdges(inst *GraphInstance) {
	if bd := n.data(inst); bd != nil {
		bd.edges = common.OuterEdges(bd.triangles)
		bd.edge = InvalidIndex
	}
}

// Triangles returns the triangulation used by inst.
func (n *BlendSpace2DNode) Triangles(inst *GraphInstance) []common.Triangle {
	if bd := n.data(inst); bd != nil {
		return bd.triangles
	}
	return nil
}

// OuterEdges returns the outer edges used by inst.
func (n *BlendSpace2DNode) OuterEdges(inst *GraphInstance) []common.Edge {
	if bd := n.data(inst); bd != nil {
		return bd.edges
	}
	return nil
}

// SetCurrentPosition sets the sample point used while the inputs are unconnected.
func (n *BlendSpace2DNode) SetCurrentPosition(inst *GraphInstance, p [2]float32) {
	if bd := n.data(inst); bd != nil {
		bd.position = p
	}
}

// FindTriangleForCurrentPoint finds the triangle containing the current sample. Degenerate
// triangles are skipped; points within Epsilon of an edge count as inside.
//
// Parameters:
//   - inst: the instance whose sample and triangulation are used
//
// Returns:
//   - int: the triangle index, or InvalidIndex
//   - [3]float32: the weights of the triangle's corners A, B and C
//   - bool: whether a triangle contains the sample
func (n *BlendSpace2DNode) FindTriangleForCurrentPoint(inst *GraphInstance) (int, [3]float32, bool) {
	bd := n.data(inst)
	if bd == nil {
		return InvalidIndex, [3]float32{}, false
	}
	bd.triangle = InvalidIndex
	p := bd.position
	for i, t := range bd.triangles {
		w, ok := common.Barycentric(p, n.Motions[t.A].Position, n.Motions[t.B].Position, n.Motions[t.C].Position)
		if !ok {
			continue
		}
		if w[0] < -common.Epsilon || w[1] < -common.Epsilon || w[2] < -common.Epsilon {
			continue
		}
		var sum float32
		for k := range w {
			w[k] = max(w[k], 0)
			sum += w[k]
		}
		for k := range w {
			w[k] = common.SafeDiv(w[k], sum, 0)
		}
		bd.triangle = i
		return i, w, true
	}
	return InvalidIndex, [3]float32{}, false
}

// FindOuterEdgeClosestToCurrentPoint projects the current sample onto the closest outer edge.
//
// Returns:
//   - int: the edge index, or InvalidIndex when there are no outer edges
//   - float32: the normalized position along the edge, 0 at its A end
//   - bool: whether an edge was found
func (n *BlendSpace2DNode) FindOuterEdgeClosestToCurrentPoint(inst *GraphInstance) (int, float32, bool) {
	bd := n.data(inst)
	if bd == nil {
		return InvalidIndex, 0, false
	}
	bd.edge = InvalidIndex
	best := InvalidIndex
	var bestT, bestDist float32
	for i, e := range bd.edges {
		t, dist := common.ClosestPointOnSegment(bd.position, n.Motions[e.A].Position, n.Motions[e.B].Position)
		if best == InvalidIndex || dist < bestDist {
			best, bestT, bestDist = i, t, dist
		}
	}
	if best == InvalidIndex {
		return InvalidIndex, 0, false
	}
	bd.edge = best
	return best, bestT, true
}

// closestPair projects the sample onto the segment between every pair of motions. It covers
// fewer than three motions and collinear layouts, which have no triangulation.
func (n *BlendSpace2DNode) closestPair(p [2]float32) []BlendInfo {
	switch len(n.Motions) {
	case 0:
		return nil
	case 1:
		return []BlendInfo{{MotionIndex: 0, Weight: 1}}
	}
	bestA, bestB := InvalidIndex, InvalidIndex
	var bestT, bestDist float32
	for a := 0; a < len(n.Motions); a++ {
		for b := a + 1; b < len(n.Motions); b++ {
			t, dist := common.ClosestPointOnSegment(p, n.Motions[a].Position, n.Motions[b].Position)
			if bestA == InvalidIndex || dist < bestDist {
				bestA, bestB, bestT, bestDist = a, b, t, dist
			}
		}
	}
	return []BlendInfo{{MotionIndex: bestA, Weight: 1 - bestT}, {MotionIndex: bestB, Weight: bestT}}
}

// blendInfos computes the motion weights for the current sample.
func (n *BlendSpace2DNode) blendInfos(inst *GraphInstance, bd *blendSpaceData) []BlendInfo {
	if len(bd.triangles) == 0 {
		return n.closestPair(bd.position)
	}
	if i, w, ok := n.FindTriangleForCurrentPoint(inst); ok {
		t := bd.triangles[i]
		return []BlendInfo{
			{MotionIndex: t.A, Weight: w[0]},
			{MotionIndex: t.B, Weight: w[1]},
			{MotionIndex: t.C, Weight: w[2]},
		}
	}
	if i, t, ok := n.FindOuterEdgeClosestToCurrentPoint(inst); ok {
		e := bd.edges[i]
		return []BlendInfo{{MotionIndex: e.A, Weight: 1 - t}, {MotionIndex: e.B, Weight: t}}
	}
	return n.closestPair(bd.position)
}

// Update reads the X and Y inputs, computes the motion weights and advances the motions.
func (n *BlendSpace2DNode) Update(inst *GraphInstance, dt float32) {
	inst.UpdateInputValue(n, blendSpaceInputX, dt)
	inst.UpdateInputValue(n, blendSpaceInputY, dt)
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
	bd.position[1] = inst.InputFloat(n, blendSpaceInputY, bd.position[1])
	bd.infos = n.blendInfos(inst, bd)
	n.advance(inst, d, bd, dt)
}
