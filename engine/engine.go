// Package engine runs scenes of animated actors at a fixed tick rate.
package engine

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/Carmen-Shannon/oxy-anim/engine/scene"
	"github.com/Carmen-Shannon/oxy-anim/engine/skinning"
)

// SceneObserver receives the stats of every scene update.
type SceneObserver func(name string, stats scene.Stats)

// engine implements the Engine interface.
// Coordinates the tick and quit goroutines.
type engine struct {
	mu *sync.RWMutex

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate time.Duration
	fixedStep      bool
	maxTicks       uint64
	ticks          atomic.Uint64
	tickCallback   func(deltaTime float32)
	observers      []SceneObserver

	scenes   map[int]scene.Scene
	uploader skinning.Uploader
}

// Engine is the main entry point of the runtime.
// It ticks its active scenes in ascending key order and flushes their palettes.
type Engine interface {
	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	//
	// Parameters:
	//   - tps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(tps float64)

	// TickRate returns the interval between ticks.
	TickRate() time.Duration

	// SetTickCallback registers the function called after each tick's scene updates.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// AddScene registers a scene at the given key. Scenes update in ascending key order.
	// Scenes without an uploader receive the engine's.
	//
	// Parameters:
	//   - key: the ordering key
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given key.
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given key, or nil.
	//
	// Parameters:
	//   - key: the key of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes.
	Scenes() map[int]scene.Scene

	// Uploader returns the palette uploader shared by the scenes, or nil.
	Uploader() skinning.Uploader

	// Step runs one tick synchronously: every active scene is updated by dt, observers are
	// notified, staged palettes are flushed and the tick callback runs.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Step(dt float32)

	// Ticks returns the number of completed ticks.
	Ticks() uint64

	// Run ticks the engine at the configured rate until ctx is done, Quit is called or the
	// tick limit is reached. It blocks until the tick goroutine has exited.
	//
	// Parameters:
	//   - ctx: cancels the run
	//
	// Returns:
	//   - error: ctx.Err() when cancelled, otherwise nil
	Run(ctx context.Context) error

	// Quit signals the engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:              &sync.RWMutex{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		scenes:          make(map[int]scene.Scene),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	for _, s := range e.scenes {
		e.shareUploader(s)
	}
	return e
}

// shareUploader hands the engine uploader to a scene that has none.
func (e *engine) shareUploader(s scene.Scene) {
	if e.uploader != nil && s.Uploader() == nil {
		s.SetUploader(e.uploader)
	}
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect on the next tick.
func (e *engine) SetTickRate(tps float64) {
	if tps <= 0 {
		tps = 60
	}
	newRate := time.Duration(float64(time.Second) / tps)

	if !e.running.Load() {
		e.mu.Lock()
		e.engineTickRate = newRate
		e.mu.Unlock()
		return
	}

	// Non-blocking send; a pending update is replaced.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) TickRate() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.engineTickRate
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scenes[key] = s
	e.shareUploader(s)
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.scenes)
}

func (e *engine) Uploader() skinning.Uploader {
	return e.uploader
}

func (e *engine) Ticks() uint64 {
	return e.ticks.Load()
}

func (e *engine) Step(dt float32) {
	e.mu.RLock()
	keys := slices.Sorted(maps.Keys(e.scenes))
	active := make([]scene.Scene, 0, len(keys))
	for _, k := range keys {
		if s := e.scenes[k]; s.Active() {
			active = append(active, s)
		}
	}
	observers := e.observers
	callback := e.tickCallback
	e.mu.RUnlock()

	for _, s := range active {
		stats := s.Update(dt)
		for _, observe := range observers {
			observe(s.Name(), stats)
		}
	}
	if e.uploader != nil {
		e.uploader.Flush()
	}
	if callback != nil {
		callback(dt)
	}
	if e.profilingEnabled.Load() && e.profiler != nil {
		e.profiler.Tick()
	}

	if n := e.ticks.Add(1); e.maxTicks > 0 && n >= e.maxTicks {
		e.signalQuit()
	}
}

func (e *engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return fmt.Errorf("engine is already running")
	}
	defer e.running.Store(false)

	common.ComponentLogger("engine").Info("engine started", "tick_rate", e.TickRate(), "scenes", len(e.Scenes()))
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleQuit(ctx)
	e.wg.Wait()
	common.ComponentLogger("engine").Info("engine stopped", "ticks", e.Ticks())

	return ctx.Err()
}

// Quit signals all engine goroutines to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handleEngine runs the fixed-rate tick loop in its own goroutine and listens for dynamic
// rate changes via tickRateChannel. Recovers from panics and signals quit on recovery.
func (e *engine) handleEngine() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			common.ComponentLogger("engine").Error("tick goroutine recovered from panic", "panic", r)
			e.signalQuit()
		}
	}()

	rate := e.TickRate()
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			select {
			case <-e.quitChannel:
				return
			default:
			}
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			if e.fixedStep {
				dt = float32(rate.Seconds())
			}
			e.Step(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			rate = newRate
			e.mu.Lock()
			e.engineTickRate = newRate
			e.mu.Unlock()
		}
	}
}

// handleQuit blocks until the quit channel is closed or ctx is done.
func (e *engine) handleQuit(ctx context.Context) {
	defer e.wg.Done()
	select {
	case <-e.quitChannel:
	case <-ctx.Done():
		e.signalQuit()
	}
}
