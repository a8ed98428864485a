package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSkeletonDerivesRootsAndNames(t *testing.T) {
	skel, err := NewSkeleton([]Bone{
		{Name: "root", ParentIndex: -1, LocalTransform: IdentityTransform()},
		{Name: "spine", ParentIndex: 0, LocalTransform: IdentityTransform()},
		{Name: "prop", ParentIndex: -1, LocalTransform: IdentityTransform()},
	})
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 2}, skel.RootBoneIndices)
	assert.Equal(t, int32(1), skel.FindBone("spine"))
	assert.Equal(t, int32(-1), skel.FindBone("missing"))
	assert.Equal(t, 3, skel.NumBones())
}

func TestDeriveInverseBindMatrices(t *testing.T) {
	skel, err := NewSkeleton([]Bone{
		{Name: "root", ParentIndex: -1, LocalTransform: Transform{Translation: [3]float32{0, 1, 0}, Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}}},
		{Name: "hand", ParentIndex: 0, LocalTransform: Transform{Translation: [3]float32{2, 0, 0}, Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}}},
	})
	require.NoError(t, err)

	world := skel.BindWorldMatrices()
	assert.Equal(t, [3]float32{2, 1, 0}, [3]float32{world[1][12], world[1][13], world[1][14]})

	skel.DeriveInverseBindMatrices()
	ibm := skel.Bones[1].InverseBindMatrix
	assert.InDelta(t, -2, ibm[12], 1e-6)
	assert.InDelta(t, -1, ibm[13], 1e-6)
}

func TestNewSkeletonRejectsBadOrder(t *testing.T) {
	_, err := NewSkeleton([]Bone{{Name: "a", ParentIndex: 1}, {Name: "b", ParentIndex: -1}})
	assert.Error(t, err)

	_, err = NewSkeleton([]Bone{{Name: "a", ParentIndex: -1}, {Name: "a", ParentIndex: 0}})
	assert.Error(t, err)
}

func TestChannelSampleInterpolatesAndClamps(t *testing.T) {
	ch := AnimationChannel{
		PositionKeys: []VectorKeyframe{
			{Time: 0, Value: [3]float32{0, 0, 0}},
			{Time: 1, Value: [3]float32{2, 0, 0}},
		},
	}
	base := IdentityTransform()

	assert.InDelta(t, 1, ch.Sample(0.5, base).Translation[0], 1e-6)
	assert.InDelta(t, 0, ch.Sample(-1, base).Translation[0], 1e-6)
	assert.InDelta(t, 2, ch.Sample(5, base).Translation[0], 1e-6)
	assert.Equal(t, base.Rotation, ch.Sample(0.5, base).Rotation)
}

func TestClipSampleIntoSkipsUnknownBones(t *testing.T) {
	clip := &AnimationClip{
		Duration: 1,
		Channels: []AnimationChannel{
			{BoneIndex: 0, ScaleKeys: []VectorKeyframe{{Time: 0, Value: [3]float32{2, 2, 2}}}},
			{BoneIndex: 7, ScaleKeys: []VectorKeyframe{{Time: 0, Value: [3]float32{9, 9, 9}}}},
		},
	}
	out := []Transform{IdentityTransform(), IdentityTransform()}
	clip.SampleInto(0.3, out)
	assert.Equal(t, [3]float32{2, 2, 2}, out[0].Scale)
	assert.Equal(t, [3]float32{1, 1, 1}, out[1].Scale)
	assert.NotNil(t, clip.ChannelForBone(0))
	assert.Nil(t, clip.ChannelForBone(1))
}
