package pose

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSkeleton(t *testing.T) *model.Skeleton {
	t.Helper()
	root := model.IdentityTransform()
	child := model.IdentityTransform()
	child.Translation = [3]float32{0, 1, 0}
	skel, err := model.NewSkeleton([]model.Bone{
		{Name: "root", ParentIndex: -1, LocalTransform: root},
		{Name: "child", ParentIndex: 0, LocalTransform: child},
	})
	require.NoError(t, err)
	return skel
}

func TestInitFromBindPose(t *testing.T) {
	p := New(0)
	p.InitFromBindPose(testSkeleton(t))
	require.Equal(t, 2, p.NumBones())
	assert.Equal(t, [3]float32{0, 1, 0}, p.Transforms[1].Translation)
}

func TestBlendEndpointsAndMidpoint(t *testing.T) {
	a := New(1)
	b := New(1)
	b.Transforms[0].Translation = [3]float32{4, 0, 0}
	half := float32(math.Sqrt(0.5))
	b.Transforms[0].Rotation = [4]float32{0, half, 0, half}

	out := New(1)
	out.Blend(a, b, 0)
	assert.Equal(t, a.Transforms[0], out.Transforms[0])

	out.Blend(a, b, 0.5)
	assert.InDelta(t, 2, out.Transforms[0].Translation[0], 1e-6)
	r := out.Transforms[0].Rotation
	assert.InDelta(t, 1, r[0]*r[0]+r[1]*r[1]+r[2]*r[2]+r[3]*r[3], 1e-5)

	out.Blend(a, b, 3)
	assert.InDelta(t, 4, out.Transforms[0].Translation[0], 1e-6)
}

func TestBlendAdditiveAddsDelta(t *testing.T) {
	ref := New(1)
	add := New(1)
	add.Transforms[0].Translation = [3]float32{0, 2, 0}
	base := New(1)
	base.Transforms[0].Translation = [3]float32{1, 0, 0}

	out := New(1)
	out.BlendAdditive(base, add, ref, 0.5)
	assert.Equal(t, [3]float32{1, 1, 0}, out.Transforms[0].Translation)
	assert.InDelta(t, 1, out.Transforms[0].Rotation[3], 1e-6)
}

func TestCopyFromResizes(t *testing.T) {
	src := New(3)
	src.Transforms[2].Scale = [3]float32{2, 2, 2}
	dst := New(1)
	dst.CopyFrom(src)
	assert.Equal(t, 3, dst.NumBones())
	assert.Equal(t, src.Transforms, dst.Transforms)
}
