package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

// NewSkeleton builds a Skeleton from bones ordered parent-first and derives
// the root list and the name lookup.
//
// Parameters:
//   - bones: the bones; every ParentIndex must be -1 or refer to an earlier bone
//
// Returns:
//   - *Skeleton: the skeleton
//   - error: if a parent index is out of order or a name is duplicated
func NewSkeleton(bones []Bone) (*Skeleton, error) {
	s := &Skeleton{
		Bones:           bones,
		BoneNameToIndex: make(map[string]int32, len(bones)),
	}
	for i, b := range bones {
		if b.ParentIndex >= int32(i) {
			return nil, fmt.Errorf("bone %q: parent index %d does not precede bone %d", b.Name, b.ParentIndex, i)
		}
		if b.ParentIndex < 0 {
			s.RootBoneIndices = append(s.RootBoneIndices, int32(i))
		}
		if _, dup := s.BoneNameToIndex[b.Name]; dup {
			return nil, fmt.Errorf("duplicate bone name %q", b.Name)
		}
		s.BoneNameToIndex[b.Name] = int32(i)
	}
	return s, nil
}

// NumBones returns the number of bones in the skeleton.
func (s *Skeleton) NumBones() int {
	return len(s.Bones)
}

// FindBone looks up a bone index by name.
//
// Parameters:
//   - name: the bone name
//
// Returns:
//   - int32: the bone index, or -1 when not found
func (s *Skeleton) FindBone(name string) int32 {
	if idx, ok := s.BoneNameToIndex[name]; ok {
		return idx
	}
	return -1
}

// RootBone returns the first root bone index, or -1 for an empty skeleton.
func (s *Skeleton) RootBone() int32 {
	if len(s.RootBoneIndices) == 0 {
		return -1
	}
	return s.RootBoneIndices[0]
}

// BindWorldMatrices composes every bone's bind transform with its parents' and returns
// the model-space matrices in bone order.
func (s *Skeleton) BindWorldMatrices() [][16]float32 {
	world := make([][16]float32, len(s.Bones))
	var local [16]float32
	for i, b := range s.Bones {
		t := b.LocalTransform
		common.ComposeTRS(local[:], t.Translation, t.Rotation, t.Scale)
		if b.ParentIndex < 0 {
			world[i] = local
			continue
		}
		common.Mul4(world[i][:], world[b.ParentIndex][:], local[:])
	}
	return world
}

// DeriveInverseBindMatrices overwrites every bone's InverseBindMatrix with the inverse of
// its bind-pose world matrix. Bones with a singular bind matrix get the identity.
func (s *Skeleton) DeriveInverseBindMatrices() {
	for i, w := range s.BindWorldMatrices() {
		ibm := &s.Bones[i].InverseBindMatrix
		if !common.InvertAffine(ibm[:], w[:]) {
			common.Identity(ibm[:])
		}
	}
}
