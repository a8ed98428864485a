package actor

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/animgraph"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// ActorBuilderOption is a functional option for configuring an Actor during construction.
type ActorBuilderOption func(*actor)

// WithID sets the ID of the Actor.
//
// Parameters:
//   - id: unique identifier for the Actor
//
// Returns:
//   - ActorBuilderOption: functional option to set the ID
func WithID(id uint64) ActorBuilderOption {
	return func(a *actor) {
		a.id = id
	}
}

// WithName sets the display name of the Actor.
func WithName(name string) ActorBuilderOption {
	return func(a *actor) {
		a.name = name
	}
}

// WithEnabled sets whether the Actor is updated by its scene.
//
// Parameters:
//   - enabled: true to update the actor, false to hold its pose
//
// Returns:
//   - ActorBuilderOption: functional option to set the Enabled state
func WithEnabled(enabled bool) ActorBuilderOption {
	return func(a *actor) {
		a.enabled.Store(enabled)
	}
}

// WithGraph sets the graph the Actor evaluates. The instance is created once every option
// has been applied, so WithInstanceOptions may appear before or after it.
//
// Parameters:
//   - g: the graph
//   - motions: the motion set the graph resolves ids against
//
// Returns:
//   - ActorBuilderOption: functional option to set the graph
func WithGraph(g *animgraph.Graph, motions animgraph.MotionSet) ActorBuilderOption {
	return func(a *actor) {
		a.graph = g
		a.motions = motions
	}
}

// WithInstanceOptions adds options applied to every graph instance the Actor creates.
//
// Parameters:
//   - opts: the instance options
//
// Returns:
//   - ActorBuilderOption: functional option to append the instance options
func WithInstanceOptions(opts ...animgraph.InstanceBuilderOption) ActorBuilderOption {
	return func(a *actor) {
		a.instanceOptions = append(a.instanceOptions, opts...)
	}
}

// WithTransform sets the initial world transform of the Actor.
func WithTransform(t model.Transform) ActorBuilderOption {
	return func(a *actor) {
		a.transform = t
	}
}

// WithMotionExtraction makes Update move the Actor by the graph's root trajectory delta.
//
// Parameters:
//   - enabled: true to accumulate the trajectory into the transform
//
// Returns:
//   - ActorBuilderOption: functional option to set motion extraction
func WithMotionExtraction(enabled bool) ActorBuilderOption {
	return func(a *actor) {
		a.motionExtraction = enabled
	}
}
