package debugdraw

import (
	"bytes"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/engine/animgraph"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/Carmen-Shannon/oxy-anim/engine/motion"
	"github.com/Carmen-Shannon/oxy-anim/engine/pose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testActor struct {
	skel *model.Skeleton
	bind *pose.Pose
}

func (a *testActor) Skeleton() *model.Skeleton { return a.skel }
func (a *testActor) BindPose() *pose.Pose      { return a.bind }

func newInstance(t *testing.T, g *animgraph.Graph) *animgraph.GraphInstance {
	t.Helper()
	skel, err := model.NewSkeleton([]model.Bone{{Name: "root", ParentIndex: -1, LocalTransform: model.IdentityTransform()}})
	require.NoError(t, err)
	bind := pose.New(0)
	bind.InitFromBindPose(skel)

	motions := motion.NewSet()
	for _, id := range []string{"idle", "left", "right"} {
		require.NoError(t, motions.AddClips([]*model.AnimationClip{{Name: id, Duration: 1}}))
	}
	inst := animgraph.NewGraphInstance(g, &testActor{skel: skel, bind: bind}, motions)
	t.Cleanup(inst.Destroy)
	return inst
}

func TestFindCapturesBlendSpace2D(t *testing.T) {
	g := animgraph.NewGraph("locomotion")
	bs := animgraph.NewBlendSpace2DNode(
		animgraph.BlendSpaceMotion{MotionID: "idle", Position: [2]float32{0, 0}},
		animgraph.BlendSpaceMotion{MotionID: "left", Position: [2]float32{-1, 1}},
		animgraph.BlendSpaceMotion{MotionID: "right", Position: [2]float32{1, 1}},
	)
	h, err := g.AddNode(bs, "move", animgraph.NodeHandle{})
	require.NoError(t, err)
	require.NoError(t, g.SetRoot(h))
	_, err = g.AddNode(animgraph.NewFloatConstantNode(1), "one", animgraph.NodeHandle{})
	require.NoError(t, err)

	inst := newInstance(t, g)
	inst.Tick(0.1, nil)

	plot, err := Find(inst, "move")
	require.NoError(t, err)
	assert.Equal(t, []string{"idle", "left", "right"}, plot.Motions)
	assert.Len(t, plot.Triangles, 1)
	assert.Len(t, plot.Edges, 3)
	assert.NotEmpty(t, plot.Weights)

	_, err = Find(inst, "one")
	assert.ErrorContains(t, err, "not a blend space")
	_, err = Find(inst, "missing")
	assert.Error(t, err)
}

func TestRenderDrawsSampleAndMotions(t *testing.T) {
	plot := BlendSpacePlot{
		Name:    "square",
		Points:  [][2]float32{{0, 0}, {2, 0}, {0, 2}},
		Motions: []string{"a", "b", "c"},
		Sample:  [2]float32{2, 2},
		Weights: []animgraph.BlendInfo{{MotionIndex: 0, Weight: 1}},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(plot, &buf, WithSize(200, 100), WithMargin(10)))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())

	v := newViewport(plot, 200, 100, 10)
	x, y := v.project(plot.Sample)
	r, g, b, _ := img.At(int(x), int(y)).RGBA()
	assert.Greater(t, r, g, "the sample point is red")
	assert.Greater(t, r, b)

	x, y = v.project(plot.Points[0])
	r, _, b, _ = img.At(int(x), int(y)).RGBA()
	assert.Greater(t, b, r, "motion points are blue")

	x, y = v.project([2]float32{1, 1})
	r, g, b, _ = img.At(int(x)+30, int(y)).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b}, "empty space stays white")
}

func TestSavePNGOneDimensional(t *testing.T) {
	plot := BlendSpacePlot{
		Name:           "speed",
		Points:         [][2]float32{{0, 0}, {1, 0}, {3, 0}},
		Sample:         [2]float32{1.5, 0},
		OneDimensional: true,
	}
	path := filepath.Join(t.TempDir(), "speed.png")
	require.NoError(t, SavePNG(plot, path))

	v := newViewport(plot, 512, 512, 32)
	_, y := v.project(plot.Sample)
	assert.InDelta(t, 256, y, 1e-9, "1D plots sit on the vertical center")
}
