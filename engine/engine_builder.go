package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/Carmen-Shannon/oxy-anim/engine/scene"
	"github.com/Carmen-Shannon/oxy-anim/engine/skinning"
	"github.com/cogentcore/webgpu/wgpu"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithProfiler replaces the default profiler.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithTickRate sets the engine tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - tps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(tps float64) EngineBuilderOption {
	return func(e *engine) {
		if tps <= 0 {
			tps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / tps)
	}
}

// WithFixedStep makes Run pass the nominal tick interval as dt instead of the measured
// wall time, for reproducible runs.
func WithFixedStep(fixed bool) EngineBuilderOption {
	return func(e *engine) {
		e.fixedStep = fixed
	}
}

// WithMaxTicks stops Run after n ticks. 0 runs until quit.
//
// Parameters:
//   - n: the tick limit
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaxTicks(n uint64) EngineBuilderOption {
	return func(e *engine) {
		e.maxTicks = n
	}
}

// WithScene registers a scene at the given key during engine construction.
// Scenes update in ascending key order.
//
// Parameters:
//   - key: the ordering key
//   - s: the Scene to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(key int, s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scenes[key] = s
	}
}

// WithTickCallback registers the function called after each tick's scene updates.
func WithTickCallback(callback func(deltaTime float32)) EngineBuilderOption {
	return func(e *engine) {
		e.tickCallback = callback
	}
}

// WithSceneObserver adds a function called with every scene update's stats.
//
// Parameters:
//   - observer: the observer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSceneObserver(observer SceneObserver) EngineBuilderOption {
	return func(e *engine) {
		e.observers = append(e.observers, observer)
	}
}

// WithUploader sets the palette uploader shared by scenes that have none.
func WithUploader(u skinning.Uploader) EngineBuilderOption {
	return func(e *engine) {
		e.uploader = u
	}
}

// WithPaletteQueue uploads skinning palettes into buffer through queue after every tick.
// The buffer must hold at least Uploader().BufferSize() bytes.
//
// Parameters:
//   - queue: the device queue
//   - buffer: the palette storage buffer
//   - opts: uploader options such as slot counts
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPaletteQueue(queue *wgpu.Queue, buffer *wgpu.Buffer, opts ...skinning.UploaderBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.uploader = skinning.NewUploader(skinning.NewQueueWriter(queue, buffer), opts...)
	}
}
