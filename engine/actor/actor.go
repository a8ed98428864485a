// Package actor holds posable scene entities: a skeleton, its bind pose and an optional
// animation graph instance that produces the actor's pose every update.
package actor

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animgraph"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/Carmen-Shannon/oxy-anim/engine/pose"
)

type actor struct {
	mu sync.Mutex

	id       uint64
	name     string
	enabled  atomic.Bool
	skeleton *model.Skeleton
	bindPose *pose.Pose
	pose     *pose.Pose

	graph           *animgraph.Graph
	motions         animgraph.MotionSet
	instance        *animgraph.GraphInstance
	instanceOptions []animgraph.InstanceBuilderOption

	transform        model.Transform
	motionExtraction bool
}

// Actor is a posable entity driven by an animation graph instance.
// Update and the accessors may be called from different goroutines; one Update runs at a time.
type Actor interface {
	animgraph.ActorInstance

	// ID returns the actor's unique identifier.
	//
	// Returns:
	//   - uint64: the actor ID
	ID() uint64

	// SetID sets the actor's unique identifier. Scenes assign IDs on AddActor.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// Name returns the actor's display name.
	Name() string

	// Enabled returns whether the actor is updated by its scene.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// SetEnabled sets whether the actor is updated by its scene.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// Pose returns the local-space pose produced by the last Update.
	// The pose is owned by the actor and overwritten on the next Update.
	//
	// Returns:
	//   - *pose.Pose: the current pose
	Pose() *pose.Pose

	// GraphInstance returns the instance evaluating the actor's graph, or nil.
	//
	// Returns:
	//   - *animgraph.GraphInstance: the instance or nil
	GraphInstance() *animgraph.GraphInstance

	// SetGraph replaces the actor's graph. The previous instance is destroyed and a new
	// one is created with the actor's instance options followed by opts.
	// A nil graph leaves the actor in its bind pose.
	//
	// Parameters:
	//   - g: the graph to evaluate
	//   - motions: the motion set the graph resolves ids against
	//   - opts: additional instance options
	SetGraph(g *animgraph.Graph, motions animgraph.MotionSet, opts ...animgraph.InstanceBuilderOption)

	// Update ticks the graph instance by dt and stores the result as the actor's pose.
	// With motion extraction on, the root trajectory delta is accumulated into the transform.
	// Graph event handlers run inside Update and must not call back into the actor.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Update(dt float32)

	// Transform returns the actor's world transform.
	Transform() model.Transform

	// SetTransform sets the actor's world transform.
	//
	// Parameters:
	//   - t: the new transform
	SetTransform(t model.Transform)

	// Destroy releases the graph instance.
	Destroy()
}

var _ Actor = &actor{}

// NewActor creates an Actor for skel, starting in the bind pose.
//
// Parameters:
//   - skel: the actor's skeleton
//   - options: builder options
//
// Returns:
//   - Actor: the new actor
func NewActor(skel *model.Skeleton, options ...ActorBuilderOption) Actor {
	a := &actor{
		skeleton:  skel,
		bindPose:  pose.New(0),
		transform: model.IdentityTransform(),
	}
	a.bindPose.InitFromBindPose(skel)
	a.pose = pose.New(a.bindPose.NumBones())
	a.pose.CopyFrom(a.bindPose)
	a.enabled.Store(true)

	for _, option := range options {
		option(a)
	}
	if a.graph != nil {
		a.instance = animgraph.NewGraphInstance(a.graph, a, a.motions, a.instanceOptions...)
	}
	return a
}

func (a *actor) ID() uint64 {
	return a.id
}

func (a *actor) SetID(id uint64) {
	a.id = id
}

func (a *actor) Name() string {
	return a.name
}

func (a *actor) Enabled() bool {
	return a.enabled.Load()
}

func (a *actor) SetEnabled(enabled bool) {
	a.enabled.Store(enabled)
}

func (a *actor) Skeleton() *model.Skeleton {
	return a.skeleton
}

func (a *actor) BindPose() *pose.Pose {
	return a.bindPose
}

func (a *actor) Pose() *pose.Pose {
	return a.pose
}

func (a *actor) GraphInstance() *animgraph.GraphInstance {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.instance
}

func (a *actor) SetGraph(g *animgraph.Graph, motions animgraph.MotionSet, opts ...animgraph.InstanceBuilderOption) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.instance != nil {
		a.instance.Destroy()
		a.instance = nil
	}
	a.graph, a.motions = g, motions
	if g != nil {
		all := append(append([]animgraph.InstanceBuilderOption{}, a.instanceOptions...), opts...)
		a.instance = animgraph.NewGraphInstance(g, a, motions, all...)
	}
}

func (a *actor) Update(dt float32) {
	if !a.enabled.Load() {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.instance == nil {
		a.pose.CopyFrom(a.bindPose)
		return
	}
	a.instance.Tick(dt, a.pose)
	if a.motionExtraction {
		a.applyTrajectory(a.instance.TrajectoryDelta())
	}
}

// applyTrajectory moves the actor by a root delta expressed in the actor's local frame.
func (a *actor) applyTrajectory(delta model.Transform) {
	var scaled [3]float32
	for k := range 3 {
		scaled[k] = delta.Translation[k] * a.transform.Scale[k]
	}
	moved := common.QuatRotate(a.transform.Rotation, scaled)
	for k := range 3 {
		a.transform.Translation[k] += moved[k]
	}
	a.transform.Rotation = common.QuatNormalize(common.QuatMul(a.transform.Rotation, delta.Rotation))
}

func (a *actor) Transform() model.Transform {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transform
}

func (a *actor) SetTransform(t model.Transform) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.transform = t
}

func (a *actor) Destroy() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.instance != nil {
		a.instance.Destroy()
		a.instance = nil
	}
}
