// Package pose holds local-space skeletal poses and the blending primitives the
// animation graph combines them with.
package pose

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// Pose is a set of bone transforms relative to each bone's parent.
type Pose struct {
	Transforms []model.Transform
}

// New creates a pose of n identity transforms.
//
// Parameters:
//   - n: number of bones
//
// Returns:
//   - *Pose: the new pose
func New(n int) *Pose {
	p := &Pose{Transforms: make([]model.Transform, n)}
	p.Zero()
	return p
}

// NumBones returns the number of transforms in the pose.
func (p *Pose) NumBones() int {
	return len(p.Transforms)
}

// Zero resets every transform to identity.
func (p *Pose) Zero() {
	for i := range p.Transforms {
		p.Transforms[i] = model.IdentityTransform()
	}
}

// InitFromBindPose resizes the pose to the skeleton and copies every bone's bind transform.
//
// Parameters:
//   - skel: the source skeleton
func (p *Pose) InitFromBindPose(skel *model.Skeleton) {
	p.resize(len(skel.Bones))
	for i := range skel.Bones {
		p.Transforms[i] = skel.Bones[i].LocalTransform
	}
}

// CopyFrom makes p an exact copy of other, resizing if needed.
func (p *Pose) CopyFrom(other *Pose) {
	p.resize(len(other.Transforms))
	copy(p.Transforms, other.Transforms)
}

// Blend writes the interpolation of a and b by weight w into p.
// Translation and scale are lerped; rotations use shortest-arc nlerp.
// When the poses differ in size the shorter length is blended and the rest is copied from a.
//
// Parameters:
//   - a: pose at w == 0
//   - b: pose at w == 1
//   - w: blend weight, clamped to [0, 1]
func (p *Pose) Blend(a, b *Pose, w float32) {
	w = common.Clamp(w, 0, 1)
	p.CopyFrom(a)
	n := min(len(a.Transforms), len(b.Transforms))
	for i := 0; i < n; i++ {
		ta, tb := &a.Transforms[i], &b.Transforms[i]
		p.Transforms[i] = model.Transform{
			Translation: common.Lerp3(ta.Translation, tb.Translation, w),
			Rotation:    common.QuatNlerp(ta.Rotation, tb.Rotation, w),
			Scale:       common.Lerp3(ta.Scale, tb.Scale, w),
		}
	}
}

// BlendAdditive applies the difference between add and reference on top of base, scaled by w.
//
// Parameters:
//   - base: the pose the additive layer is applied to
//   - add: the additive pose
//   - reference: the pose add is expressed relative to, usually the bind pose
//   - w: layer weight in [0, 1]
func (p *Pose) BlendAdditive(base, add, reference *Pose, w float32) {
	w = common.Clamp(w, 0, 1)
	p.CopyFrom(base)
	n := min(len(base.Transforms), len(add.Transforms), len(reference.Transforms))
	for i := 0; i < n; i++ {
		tb, ta, tr := base.Transforms[i], add.Transforms[i], reference.Transforms[i]
		var dt, ds [3]float32
		for k := 0; k < 3; k++ {
			dt[k] = ta.Translation[k] - tr.Translation[k]
			ds[k] = ta.Scale[k] - tr.Scale[k]
		}
		dr := common.QuatMul(ta.Rotation, common.QuatConjugate(tr.Rotation))
		dr = common.QuatNlerp(common.QuatIdentity(), dr, w)
		p.Transforms[i] = model.Transform{
			Translation: [3]float32{tb.Translation[0] + dt[0]*w, tb.Translation[1] + dt[1]*w, tb.Translation[2] + dt[2]*w},
			Rotation:    common.QuatNormalize(common.QuatMul(dr, tb.Rotation)),
			Scale:       [3]float32{tb.Scale[0] + ds[0]*w, tb.Scale[1] + ds[1]*w, tb.Scale[2] + ds[2]*w},
		}
	}
}

func (p *Pose) resize(n int) {
	if cap(p.Transforms) < n {
		p.Transforms = make([]model.Transform, n)
		return
	}
	p.Transforms = p.Transforms[:n]
}
