// Package scene groups actors that are ticked together and turns their poses into
// skinning palettes.
package scene

import (
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/actor"
	"github.com/Carmen-Shannon/oxy-anim/engine/skinning"
)

// Stats aggregates the graph instance counters of every enabled actor after an Update.
type Stats struct {
	Actors            int
	PosePoolInUse     int
	PosePoolPeak      int
	RefDataPoolInUse  int
	ActiveTransitions int
	Events            int
	Elapsed           time.Duration
}

// Scene manages a registry of actors, ticks them in parallel on a worker pool and keeps a
// skinning palette per actor. Scenes can be hot-swapped via the Active flag.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether the engine ticks this scene.
	Active() bool

	// SetActive sets whether the engine ticks this scene.
	SetActive(active bool)

	// Count returns the number of actors in the scene.
	//
	// Returns:
	//   - int: count of registered actors
	Count() int

	// AddActor registers an actor. Actors without an ID are assigned the next free one.
	//
	// Parameters:
	//   - a: the actor to add
	//
	// Returns:
	//   - uint64: the actor's ID
	AddActor(a actor.Actor) uint64

	// Actor retrieves an actor by ID, or nil.
	//
	// Parameters:
	//   - id: the actor's unique ID
	//
	// Returns:
	//   - actor.Actor: the actor or nil
	Actor(id uint64) actor.Actor

	// Actors returns the registered actors ordered by ID.
	Actors() []actor.Actor

	// RemoveActor unregisters an actor, releases its palette slot and destroys it.
	//
	// Parameters:
	//   - id: the actor's unique ID
	RemoveActor(id uint64)

	// Clear removes and destroys every actor.
	Clear()

	// Update ticks every enabled actor by dt across the worker pool, waits for all of them,
	// then rebuilds their palettes and stages them on the uploader when one is attached.
	// Update must not run concurrently with itself.
	//
	// Parameters:
	//   - dt: elapsed time since the last update in seconds
	//
	// Returns:
	//   - Stats: counters aggregated over the updated actors
	Update(dt float32) Stats

	// Palette returns the skinning palette computed for an actor by the last Update.
	// The slice is owned by the scene and rewritten on the next Update.
	//
	// Parameters:
	//   - id: the actor's unique ID
	//
	// Returns:
	//   - []skinning.GPUBoneMatrix: the palette, or nil
	Palette(id uint64) []skinning.GPUBoneMatrix

	// Uploader returns the palette uploader, or nil.
	Uploader() skinning.Uploader

	// SetUploader attaches the uploader palettes are staged on.
	//
	// Parameters:
	//   - u: the uploader, or nil to only compute palettes
	SetUploader(u skinning.Uploader)

	// LastStats returns the counters of the last Update.
	LastStats() Stats
}

// actorState is the per-actor scratch space reused across updates.
type actorState struct {
	actor   actor.Actor
	world   [][16]float32
	palette []skinning.GPUBoneMatrix
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	registry map[uint64]*actorState
	nextID   uint64

	uploader  skinning.Uploader
	lastStats Stats

	// computePool runs actor ticks; workers persist across updates.
	computePool    worker.DynamicWorkerPool
	computeWorkers int
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new, active Scene.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:             &sync.RWMutex{},
		name:           name,
		active:         true,
		registry:       make(map[uint64]*actorState),
		nextID:         1,
		computeWorkers: max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(s)
	}

	// Created after options so WithComputeWorkers can override the default.
	s.computePool = worker.NewDynamicWorkerPool(s.computeWorkers, 256, 1*time.Second)
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) AddActor(a actor.Actor) uint64 {
	if a == nil {
		panic("scene: cannot add a nil Actor")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.register(a)
	return a.ID()
}

// register assigns an ID when needed and stores the actor. Caller must hold s.mu write lock.
func (s *scene) register(a actor.Actor) {
	if a.ID() == 0 {
		for s.registry[s.nextID] != nil {
			s.nextID++
		}
		a.SetID(atomic.AddUint64(&s.nextID, 1) - 1)
	}
	s.registry[a.ID()] = &actorState{actor: a}
	common.ComponentLogger("scene").Debug("actor added", "scene", s.name, "id", a.ID(), "name", a.Name())
}

func (s *scene) Actor(id uint64) actor.Actor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st := s.registry[id]; st != nil {
		return st.actor
	}
	return nil
}

func (s *scene) Actors() []actor.Actor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]actor.Actor, 0, len(s.registry))
	for _, st := range s.sortedStates() {
		out = append(out, st.actor)
	}
	return out
}

// sortedStates returns the registry ordered by actor ID. Caller must hold s.mu.
func (s *scene) sortedStates() []*actorState {
	states := make([]*actorState, 0, len(s.registry))
	for _, st := range s.registry {
		states = append(states, st)
	}
	slices.SortFunc(states, func(a, b *actorState) int {
		switch {
		case a.actor.ID() < b.actor.ID():
			return -1
		case a.actor.ID() > b.actor.ID():
			return 1
		}
		return 0
	})
	return states
}

func (s *scene) RemoveActor(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, exists := s.registry[id]
	if !exists {
		return
	}
	delete(s.registry, id)
	if s.uploader != nil {
		s.uploader.Release(id)
	}
	st.actor.Destroy()
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, st := range s.registry {
		if s.uploader != nil {
			s.uploader.Release(id)
		}
		st.actor.Destroy()
	}
	s.registry = make(map[uint64]*actorState)
}

func (s *scene) Update(dt float32) Stats {
	start := time.Now()

	s.mu.RLock()
	states := s.sortedStates()
	uploader := s.uploader
	name := s.name
	s.mu.RUnlock()

	// Each actor is ticked by one task. A WaitGroup provides the per-update barrier since
	// pool.Wait() blocks until workers idle-exit.
	ticked := make([]*actorState, 0, len(states))
	var wg sync.WaitGroup
	for id, st := range states {
		if !st.actor.Enabled() {
			continue
		}
		ticked = append(ticked, st)
		wg.Add(1)
		stCap := st
		s.computePool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				s.updateActor(stCap, dt, uploader, name)
				return nil, nil
			},
		})
	}
	wg.Wait()

	stats := Stats{}
	for _, st := range ticked {
		stats.Actors++
		if inst := st.actor.GraphInstance(); inst != nil {
			stats.PosePoolInUse += inst.PosePoolInUse()
			stats.PosePoolPeak = max(stats.PosePoolPeak, inst.PosePoolPeak())
			stats.RefDataPoolInUse += inst.RefDataPoolInUse()
			stats.ActiveTransitions += inst.ActiveTransitions()
			stats.Events += len(inst.Events())
		}
	}
	stats.Elapsed = time.Since(start)

	s.mu.Lock()
	s.lastStats = stats
	s.mu.Unlock()
	return stats
}

// updateActor ticks one actor and rebuilds its palette. Runs on a pool worker; st is owned
// by this task for the duration of the update.
func (s *scene) updateActor(st *actorState, dt float32, uploader skinning.Uploader, sceneName string) {
	a := st.actor
	a.Update(dt)

	world, err := skinning.ComputeWorldMatrices(a.Skeleton(), a.Pose(), st.world)
	if err != nil {
		common.ComponentLogger("scene").Warn("palette skipped", "scene", sceneName, "id", a.ID(), "error", err)
		return
	}
	st.world = world
	st.palette = skinning.ComputePalette(a.Skeleton(), world, st.palette)

	if uploader != nil {
		if _, err := uploader.Stage(a.ID(), st.palette); err != nil {
			common.ComponentLogger("scene").Warn("palette not staged", "scene", sceneName, "id", a.ID(), "error", err)
		}
	}
}

func (s *scene) Palette(id uint64) []skinning.GPUBoneMatrix {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st := s.registry[id]; st != nil {
		return st.palette
	}
	return nil
}

func (s *scene) Uploader() skinning.Uploader {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uploader
}

func (s *scene) SetUploader(u skinning.Uploader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploader = u
}

func (s *scene) LastStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastStats
}
