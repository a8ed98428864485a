package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/engine/actor"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/Carmen-Shannon/oxy-anim/engine/scene"
	"github.com/Carmen-Shannon/oxy-anim/engine/skinning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingWriter struct {
	writes atomic.Int32
}

func (c *countingWriter) WriteBuffer(skinning.BufferWrite) { c.writes.Add(1) }

func newPosedActor(t *testing.T) actor.Actor {
	t.Helper()
	skel, err := model.NewSkeleton([]model.Bone{{Name: "root", ParentIndex: -1, LocalTransform: model.IdentityTransform()}})
	require.NoError(t, err)
	return actor.NewActor(skel)
}

func TestStepUpdatesActiveScenesInOrder(t *testing.T) {
	w := &countingWriter{}
	first := scene.NewScene("first", scene.WithActors(newPosedActor(t)))
	second := scene.NewScene("second", scene.WithActors(newPosedActor(t)))
	paused := scene.NewScene("paused", scene.WithActive(false), scene.WithActors(newPosedActor(t)))

	var order []string
	var callbacks int
	e := NewEngine(
		WithScene(2, second),
		WithScene(1, first),
		WithScene(0, paused),
		WithUploader(skinning.NewUploader(w)),
		WithSceneObserver(func(name string, stats scene.Stats) {
			order = append(order, name)
			assert.Equal(t, 1, stats.Actors)
		}),
		WithTickCallback(func(float32) { callbacks++ }),
	)
	assert.Same(t, e.Uploader(), first.Uploader(), "scenes share the engine uploader")

	e.Step(1.0 / 60)
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, 1, callbacks)
	assert.Equal(t, uint64(1), e.Ticks())
	assert.Equal(t, int32(1), w.writes.Load(), "palettes are flushed once per tick")
	assert.NotNil(t, first.Palette(first.Actors()[0].ID()))

	e.RemoveScene(1)
	assert.Nil(t, e.Scene(1))
	assert.Len(t, e.Scenes(), 2)
}

func TestRunStopsAfterMaxTicks(t *testing.T) {
	var dts []float32
	e := NewEngine(
		WithTickRate(1000),
		WithFixedStep(true),
		WithMaxTicks(3),
		WithTickCallback(func(dt float32) { dts = append(dts, dt) }),
	)
	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(3), e.Ticks())
	assert.Equal(t, []float32{0.001, 0.001, 0.001}, dts)
}

func TestRunStopsOnCancelAndQuit(t *testing.T) {
	e := NewEngine(WithTickRate(500))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, e.Run(ctx), context.DeadlineExceeded)

	e = NewEngine(WithTickRate(500))
	e.SetTickCallback(func(float32) { e.Quit() })
	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(1), e.Ticks())
	e.Quit()
}

func TestSetTickRate(t *testing.T) {
	e := NewEngine()
	assert.Equal(t, time.Second/60, e.TickRate())
	e.SetTickRate(0)
	assert.Equal(t, time.Second/60, e.TickRate())
	e.SetTickRate(250)
	assert.Equal(t, 4*time.Millisecond, e.TickRate())
}
