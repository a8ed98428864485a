package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine"
	"github.com/Carmen-Shannon/oxy-anim/engine/actor"
	"github.com/Carmen-Shannon/oxy-anim/engine/animgraph"
	"github.com/Carmen-Shannon/oxy-anim/engine/debugdraw"
	"github.com/Carmen-Shannon/oxy-anim/engine/loader"
	"github.com/Carmen-Shannon/oxy-anim/engine/metrics"
	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/Carmen-Shannon/oxy-anim/engine/scene"
	"github.com/Carmen-Shannon/oxy-anim/engine/skinning"
)

// StateLine describes one state machine of the lead actor.
type StateLine struct {
	Machine       string
	State         string
	Target        string
	Transitioning bool
}

// Snapshot is what the lead actor looked like after a tick.
type Snapshot struct {
	Tick       uint64
	Time       float32
	States     []StateLine
	Parameters []string
	Events     []string
	Position   [3]float32
	Stats      scene.Stats
}

// eventRecorder collects the lead actor's graph notifications between two snapshots.
type eventRecorder struct {
	animgraph.NopEventHandler

	mu    sync.Mutex
	lines []string
}

var _ animgraph.EventHandler = &eventRecorder{}

func (r *eventRecorder) add(format string, args ...any) {
	r.mu.Lock()
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

func (r *eventRecorder) drain() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.lines
	r.lines = nil
	return out
}

func (r *eventRecorder) OnStateEnter(_ *animgraph.GraphInstance, state animgraph.Node) {
	r.add("enter %s", state.Base().Name())
}

func (r *eventRecorder) OnStateExit(_ *animgraph.GraphInstance, state animgraph.Node) {
	r.add("exit %s", state.Base().Name())
}

func (r *eventRecorder) OnStartTransition(inst *animgraph.GraphInstance, t *animgraph.StateTransition) {
	r.add("transition %s -> %s", nodeName(inst.Graph(), t.SourceState(inst)), nodeName(inst.Graph(), t.Target()))
}

func (r *eventRecorder) OnEvent(_ *animgraph.GraphInstance, ev animgraph.EventInfo) {
	r.add("event %s from %s (w=%.2f)", ev.Event.Type, ev.MotionID, ev.GlobalWeight)
}

func nodeName(g *animgraph.Graph, h animgraph.NodeHandle) string {
	if n := g.Node(h); n != nil {
		return n.Base().Name()
	}
	return "*"
}

// runtime owns everything one run of the command needs.
type runtime struct {
	cfg      Config
	set      *loader.AnimationSet
	graph    *animgraph.Graph
	actors   []actor.Actor
	scene    scene.Scene
	engine   engine.Engine
	player   *scenarioPlayer
	recorder *eventRecorder

	elapsed   float32
	lastStats scene.Stats
	err       error
	sink      func(Snapshot)
}

// newRuntime loads the motion set, graph and scenario named by cfg and wires them into an
// engine with one scene.
func newRuntime(cfg Config) (*runtime, error) {
	set, err := loader.NewLoader().LoadAnimationSet(cfg.MotionsPath)
	if err != nil {
		return nil, err
	}
	graph, err := animgraph.LoadGraphFile(cfg.GraphPath, animgraph.DefaultRegistry())
	if err != nil {
		return nil, err
	}
	var scenario *Scenario
	if cfg.ScenarioPath != "" {
		if scenario, err = LoadScenarioFile(cfg.ScenarioPath); err != nil {
			return nil, err
		}
	}

	rt := &runtime{
		cfg:      cfg,
		set:      set,
		graph:    graph,
		player:   newScenarioPlayer(scenario),
		recorder: &eventRecorder{},
		sink:     func(Snapshot) {},
	}

	rt.actors = make([]actor.Actor, cfg.Actors)
	for i := range rt.actors {
		opts := []actor.ActorBuilderOption{
			actor.WithName(fmt.Sprintf("%s-%d", graph.Name(), i)),
			actor.WithGraph(graph, set.Motions),
			actor.WithInstanceOptions(animgraph.WithSeed(cfg.Seed + uint64(i))),
			actor.WithMotionExtraction(true),
		}
		if i == 0 {
			opts = append(opts, actor.WithInstanceOptions(animgraph.WithEventHandler(rt.recorder)))
		}
		rt.actors[i] = actor.NewActor(set.Skeleton, opts...)
	}

	// Steps at time zero apply before the first tick.
	if _, err := rt.player.Advance(0, rt.instances()); err != nil {
		return nil, err
	}

	uploader := skinning.NewUploader(nil,
		skinning.WithMaxActors(cfg.Actors),
		skinning.WithMaxBones(max(set.Skeleton.NumBones(), 1)))
	rt.scene = scene.NewScene(graph.Name(), scene.WithActors(rt.actors...), scene.WithUploader(uploader))

	options := []engine.EngineBuilderOption{
		engine.WithTickRate(cfg.TickRate),
		engine.WithFixedStep(true),
		engine.WithMaxTicks(cfg.Ticks),
		engine.WithUploader(uploader),
		engine.WithScene(0, rt.scene),
		engine.WithSceneObserver(rt.observe),
		engine.WithTickCallback(rt.afterTick),
		engine.WithProfiling(cfg.Profile),
		engine.WithProfiler(profiler.NewProfiler()),
	}
	if cfg.MetricsAddr != "" {
		options = append(options, engine.WithSceneObserver(metrics.Observe))
	}
	rt.engine = engine.NewEngine(options...)
	return rt, nil
}

func (rt *runtime) instances() []*animgraph.GraphInstance {
	out := make([]*animgraph.GraphInstance, 0, len(rt.actors))
	for _, a := range rt.actors {
		out = append(out, a.GraphInstance())
	}
	return out
}

func (rt *runtime) observe(_ string, stats scene.Stats) {
	rt.lastStats = stats
}

// afterTick runs on the engine goroutine once the scene has been updated.
func (rt *runtime) afterTick(dt float32) {
	rt.elapsed += dt
	applied, err := rt.player.Advance(rt.elapsed, rt.instances())
	if err != nil && rt.err == nil {
		rt.err = err
		rt.engine.Quit()
	}
	snap := rt.snapshot()
	for _, a := range applied {
		snap.Events = append(snap.Events, "set "+a)
	}
	rt.sink(snap)
}

func (rt *runtime) snapshot() Snapshot {
	lead := rt.actors[0]
	inst := lead.GraphInstance()
	snap := Snapshot{
		Tick:     rt.engine.Ticks() + 1,
		Time:     rt.elapsed,
		Events:   rt.recorder.drain(),
		Position: lead.Transform().Translation,
		Stats:    rt.lastStats,
	}
	if inst == nil {
		return snap
	}
	for _, n := range rt.graph.Nodes() {
		m, ok := n.(*animgraph.StateMachineNode)
		if !ok {
			continue
		}
		line := StateLine{Machine: m.Name(), Transitioning: m.IsTransitioning(inst)}
		if cur := m.CurrentState(inst); cur != nil {
			line.State = cur.Base().Name()
		}
		if target := m.TargetState(inst); target != nil && line.Transitioning {
			line.Target = target.Base().Name()
		}
		snap.States = append(snap.States, line)
	}
	for i, def := range rt.graph.Parameters() {
		snap.Parameters = append(snap.Parameters, fmt.Sprintf("%s=%s", def.Name, formatValue(inst.ParameterAt(i))))
	}
	return snap
}

// Run drives the engine until the tick limit, ctx or a scenario error stops it. Without
// realtime pacing the ticks are stepped back to back.
func (rt *runtime) Run(ctx context.Context) error {
	if rt.cfg.Realtime {
		if err := rt.engine.Run(ctx); err != nil {
			return err
		}
		return rt.err
	}

	dt := float32(1 / rt.cfg.TickRate)
	for rt.engine.Ticks() < rt.cfg.Ticks && rt.err == nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		rt.engine.Step(dt)
	}
	return rt.err
}

// Plot writes the configured blend space plot of the lead actor.
func (rt *runtime) Plot() error {
	if rt.cfg.PlotNode == "" {
		return nil
	}
	plot, err := debugdraw.Find(rt.actors[0].GraphInstance(), rt.cfg.PlotNode)
	if err != nil {
		return err
	}
	if err := debugdraw.SavePNG(plot, rt.cfg.PlotPath); err != nil {
		return err
	}
	common.ComponentLogger("oxy-anim").Info("plot written", "node", rt.cfg.PlotNode, "path", rt.cfg.PlotPath)
	return nil
}

// Close destroys the actors' graph instances.
func (rt *runtime) Close() {
	rt.engine.Quit()
	rt.scene.Clear()
}
