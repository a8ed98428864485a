// Package skinning turns local-space poses into skinning palettes and stages them for
// upload to a GPU storage buffer.
package skinning

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/Carmen-Shannon/oxy-anim/engine/pose"
)

// ComputeWorldMatrices composes every pose transform with its parents' and writes the
// model-space matrices into out, reusing its storage when large enough.
//
// Parameters:
//   - skel: the skeleton; bones are ordered parent-first
//   - p: the local-space pose, one transform per bone
//   - out: destination buffer, may be nil
//
// Returns:
//   - [][16]float32: the model-space matrices in bone order
//   - error: if the pose does not match the skeleton
func ComputeWorldMatrices(skel *model.Skeleton, p *pose.Pose, out [][16]float32) ([][16]float32, error) {
	n := skel.NumBones()
	if p.NumBones() != n {
		return out, fmt.Errorf("pose has %d bones, skeleton has %d", p.NumBones(), n)
	}
	out = resize(out, n)

	var local [16]float32
	for i, b := range skel.Bones {
		t := p.Transforms[i]
		common.ComposeTRS(local[:], t.Translation, t.Rotation, t.Scale)
		if b.ParentIndex < 0 {
			out[i] = local
			continue
		}
		common.Mul4(out[i][:], out[b.ParentIndex][:], local[:])
	}
	return out, nil
}

// ComputePalette multiplies each model-space matrix by its bone's inverse bind matrix.
//
// Parameters:
//   - skel: the skeleton
//   - world: matrices from ComputeWorldMatrices
//   - out: destination buffer, may be nil
//
// Returns:
//   - []GPUBoneMatrix: the palette in bone order
func ComputePalette(skel *model.Skeleton, world [][16]float32, out []GPUBoneMatrix) []GPUBoneMatrix {
	if cap(out) < len(world) {
		out = make([]GPUBoneMatrix, len(world))
	}
	out = out[:len(world)]
	for i := range world {
		ibm := skel.Bones[i].InverseBindMatrix
		common.Mul4(out[i].Skin[:], world[i][:], ibm[:])
	}
	return out
}

func resize(m [][16]float32, n int) [][16]float32 {
	if cap(m) < n {
		return make([][16]float32, n)
	}
	return m[:n]
}
