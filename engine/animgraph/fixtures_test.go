package animgraph

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/Carmen-Shannon/oxy-anim/engine/motion"
	"github.com/Carmen-Shannon/oxy-anim/engine/pose"
	"github.com/stretchr/testify/require"
)

type testActor struct {
	skel *model.Skeleton
	bind *pose.Pose
}

func (a *testActor) Skeleton() *model.Skeleton { return a.skel }
func (a *testActor) BindPose() *pose.Pose      { return a.bind }

// newTestActor returns a two-bone actor whose child bone sits at x = 0 in the bind pose.
func newTestActor(t *testing.T) *testActor {
	t.Helper()
	skel, err := model.NewSkeleton([]model.Bone{
		{Name: "root", ParentIndex: -1, LocalTransform: model.IdentityTransform()},
		{Name: "child", ParentIndex: 0, LocalTransform: model.IdentityTransform()},
	})
	require.NoError(t, err)
	bind := pose.New(0)
	bind.InitFromBindPose(skel)
	return &testActor{skel: skel, bind: bind}
}

// poseClip holds the child bone at x for the whole clip, so every motion produces a
// distinct, time-independent pose.
func poseClip(name string, duration, x float32, syncs []model.SyncEvent, events []model.MotionEvent) *model.AnimationClip {
	return &model.AnimationClip{
		Name:     name,
		Duration: duration,
		Channels: []model.AnimationChannel{{
			BoneIndex: 1,
			PositionKeys: []model.VectorKeyframe{
				{Time: 0, Value: [3]float32{x, 0, 0}},
				{Time: duration, Value: [3]float32{x, 0, 0}},
			},
		}},
		SyncEvents: syncs,
		Events:     events,
	}
}

func footSyncs(duration float32) []model.SyncEvent {
	return []model.SyncEvent{
		{Type: "LeftFoot", Mirror: "RightFoot", Time: 0},
		{Type: "RightFoot", Mirror: "LeftFoot", Time: duration / 2},
	}
}

// newTestMotions returns idle (2s, x=1), walk (1s, x=2) and run (0.5s, x=3). Walk and run
// carry foot sync markers; walk fires a "step" event at 0.25s.
func newTestMotions(t *testing.T) *motion.Set {
	t.Helper()
	s := motion.NewSet()
	for _, c := range []*model.AnimationClip{
		poseClip("idle", 2, 1, nil, nil),
		poseClip("walk", 1, 2, footSyncs(1), []model.MotionEvent{{Type: "step", StartTime: 0.25, EndTime: 0.25}}),
		poseClip("run", 0.5, 3, footSyncs(0.5), nil),
	} {
		m, err := motion.New(c.Name, c)
		require.NoError(t, err)
		require.NoError(t, s.Add(m))
	}
	return s
}

func mustAdd(t *testing.T, g *Graph, n Node, name string, parent NodeHandle) NodeHandle {
	t.Helper()
	h, err := g.AddNode(n, name, parent)
	require.NoError(t, err)
	return h
}

func mustConnect(t *testing.T, g *Graph, from, fromPort, to, toPort string) {
	t.Helper()
	_, err := g.ConnectByName(from, fromPort, to, toPort)
	require.NoError(t, err)
}

func newTestInstance(t *testing.T, g *Graph, opts ...InstanceBuilderOption) *GraphInstance {
	t.Helper()
	inst := NewGraphInstance(g, newTestActor(t), newTestMotions(t), append([]InstanceBuilderOption{WithSeed(1)}, opts...)...)
	t.Cleanup(inst.Destroy)
	return inst
}

// evalValue runs one tick of a pose-less node and returns the value at its output port.
func evalValue(inst *GraphInstance, n Node, port int) Value {
	inst.Update(0)
	inst.PerformUpdate(n, 0)
	inst.PerformOutput(n)
	return inst.OutputValue(n, port)
}

// tick advances inst by dt and returns the child bone's x.
func tick(inst *GraphInstance, dt float32) float32 {
	out := pose.New(2)
	inst.Tick(dt, out)
	return out.Transforms[1].Translation[0]
}

// recorder logs state machine notifications as "kind:name" strings.
type recorder struct {
	NopEventHandler
	log    []string
	events []EventInfo
}

func (r *recorder) OnStateEntering(_ *GraphInstance, s Node) {
	r.log = append(r.log, "entering:"+s.Base().Name())
}
func (r *recorder) OnStateEnter(_ *GraphInstance, s Node) { r.log = append(r.log, "enter:"+s.Base().Name()) }
func (r *recorder) OnStateExit(_ *GraphInstance, s Node)  { r.log = append(r.log, "exit:"+s.Base().Name()) }
func (r *recorder) OnStateEnd(_ *GraphInstance, s Node)   { r.log = append(r.log, "end:"+s.Base().Name()) }
func (r *recorder) OnStartTransition(*GraphInstance, *StateTransition) {
	r.log = append(r.log, "start_transition")
}
func (r *recorder) OnEndTransition(*GraphInstance, *StateTransition) {
	r.log = append(r.log, "end_transition")
}
func (r *recorder) OnEvent(_ *GraphInstance, e EventInfo) { r.events = append(r.events, e) }

func (r *recorder) reset() { r.log = r.log[:0] }
