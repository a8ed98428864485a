package scene

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/actor"
	"github.com/Carmen-Shannon/oxy-anim/engine/skinning"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is ticked by the engine. Scenes start active.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithActors adds initial actors to the scene.
// Actors without IDs will be assigned new IDs.
//
// Parameters:
//   - actors: the actors to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActors(actors ...actor.Actor) SceneBuilderOption {
	return func(s *scene) {
		for _, a := range actors {
			s.register(a)
		}
	}
}

// WithComputeWorkers sets the number of worker goroutines that tick actors during Update.
// Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of compute workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithComputeWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.computeWorkers = n
	}
}

// WithUploader attaches the uploader palettes are staged on.
func WithUploader(u skinning.Uploader) SceneBuilderOption {
	return func(s *scene) {
		s.uploader = u
	}
}
