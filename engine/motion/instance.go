package motion

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/Carmen-Shannon/oxy-anim/engine/pose"
)

// LoopForever is the MaxLoops value for endlessly looping playback.
const LoopForever = -1

// PlayMode is the playback direction of an Instance.
type PlayMode int

const (
	// PlayModeForward advances time from clip start to clip end.
	PlayModeForward PlayMode = iota
	// PlayModeBackward advances time from clip end to clip start.
	PlayModeBackward
)

// Instance is one playback of a Motion, owned by whoever drives its time.
// It is not safe for concurrent use.
type Instance struct {
	motion *Motion

	currentTime     float32
	lastCurrentTime float32
	passedTime      float32
	totalPlayTime   float32
	timeDifToEnd    float32
	playSpeed       float32
	playMode        PlayMode

	maxLoops  int
	curLoops  int
	lastLoops int
	hasLooped bool

	freezeAtLastFrame bool
	frozen            bool
	freezeAtTime      float32
	clipStart         float32
	clipEnd           float32
	mirror            bool
}

// NewInstance creates a playback instance of m, rewound to its start.
// By default it loops forever at speed 1 over the whole clip.
//
// Parameters:
//   - m: the motion to play
//   - options: builder options
//
// Returns:
//   - *Instance: the instance
func NewInstance(m *Motion, options ...InstanceBuilderOption) *Instance {
	if m == nil {
		panic("motion: NewInstance requires a motion")
	}
	i := &Instance{
		motion:       m,
		playSpeed:    1,
		maxLoops:     LoopForever,
		freezeAtTime: -1,
		clipEnd:      m.Duration(),
	}
	for _, opt := range options {
		opt(i)
	}
	if i.clipEnd <= 0 || i.clipEnd > m.Duration() {
		i.clipEnd = m.Duration()
	}
	i.clipStart = common.Clamp(i.clipStart, 0, i.clipEnd)
	i.Rewind()
	return i
}

// Motion returns the motion being played.
func (i *Instance) Motion() *Motion { return i.motion }

// CurrentTime returns the playback position in seconds.
func (i *Instance) CurrentTime() float32 { return i.currentTime }

// LastCurrentTime returns the playback position before the most recent time change.
func (i *Instance) LastCurrentTime() float32 { return i.lastCurrentTime }

// Duration returns the playable length, the clip end time.
func (i *Instance) Duration() float32 { return i.clipEnd }

// ClipStart returns the clip start time.
func (i *Instance) ClipStart() float32 { return i.clipStart }

// PlaySpeed returns the play speed multiplier.
func (i *Instance) PlaySpeed() float32 { return i.playSpeed }

// SetPlaySpeed sets the play speed multiplier.
func (i *Instance) SetPlaySpeed(speed float32) { i.playSpeed = speed }

// PlayMode returns the playback direction.
func (i *Instance) PlayMode() PlayMode { return i.playMode }

// SetPlayMode sets the playback direction.
func (i *Instance) SetPlayMode(mode PlayMode) { i.playMode = mode }

// MaxLoops returns the loop limit, or LoopForever.
func (i *Instance) MaxLoops() int { return i.maxLoops }

// SetMaxLoops sets the loop limit.
func (i *Instance) SetMaxLoops(loops int) { i.maxLoops = loops }

// NumCurrentLoops returns how many times the instance has looped since the last rewind.
func (i *Instance) NumCurrentLoops() int { return i.curLoops }

// HasLooped reports whether the most recent UpdateTime wrapped around.
func (i *Instance) HasLooped() bool { return i.hasLooped }

// IsFrozen reports whether the instance is holding its last frame.
func (i *Instance) IsFrozen() bool { return i.frozen }

// IsMirrored reports whether the instance plays mirrored.
func (i *Instance) IsMirrored() bool { return i.mirror }

// SetMirror sets the mirror flag.
func (i *Instance) SetMirror(mirror bool) { i.mirror = mirror }

// FreezeAtLastFrame reports whether the instance holds its last frame after max loops.
func (i *Instance) FreezeAtLastFrame() bool { return i.freezeAtLastFrame }

// SetFreezeAtLastFrame sets the freeze-at-last-frame flag.
func (i *Instance) SetFreezeAtLastFrame(freeze bool) { i.freezeAtLastFrame = freeze }

// TimeLeft returns the time remaining until the loop point in the current direction.
func (i *Instance) TimeLeft() float32 { return i.timeDifToEnd }

// TotalPlayTime returns the accumulated unscaled time passed to UpdateTime.
func (i *Instance) TotalPlayTime() float32 { return i.totalPlayTime }

// HasReachedMaxLoops reports whether a loop limit is set and has been reached.
func (i *Instance) HasReachedMaxLoops() bool {
	return i.maxLoops != LoopForever && i.curLoops >= i.maxLoops
}

// HasEnded reports whether a limited playback has finished.
func (i *Instance) HasEnded() bool {
	if i.maxLoops == LoopForever {
		return false
	}
	return i.frozen || i.curLoops >= i.maxLoops
}

// Rewind resets time, loop counters and the frozen state.
func (i *Instance) Rewind() {
	start := i.clipStart
	if i.playMode == PlayModeBackward {
		start = i.clipEnd
	}
	i.currentTime = start
	i.lastCurrentTime = start
	i.passedTime = 0
	i.curLoops = 0
	i.lastLoops = 0
	i.hasLooped = false
	i.frozen = false
	i.updateTimeDifToEnd()
}

// SetCurrentTime jumps to t seconds, clamped to the clip range.
//
// Parameters:
//   - t: the new time
//   - resetLastTime: also move the previous time, so no events fire across the jump
func (i *Instance) SetCurrentTime(t float32, resetLastTime bool) {
	t = common.Clamp(t, i.clipStart, i.clipEnd)
	if resetLastTime {
		i.lastCurrentTime = t
	} else {
		i.lastCurrentTime = i.currentTime
	}
	i.currentTime = t
	i.updateTimeDifToEnd()
}

// Hold starts a tick without advancing time. Events and the root delta extracted
// afterwards cover nothing unless SyncTo moves the time.
func (i *Instance) Hold() {
	i.lastCurrentTime = i.currentTime
	i.lastLoops = i.curLoops
	i.hasLooped = false
	i.passedTime = 0
}

// SyncTo moves playback to t, imposed by a sync master. A jump against the play
// direction counts as a loop, so events and the root delta wrap correctly.
//
// Parameters:
//   - t: the new time, clamped to the clip range
func (i *Instance) SyncTo(t float32) {
	t = common.Clamp(t, i.clipStart, i.clipEnd)
	prev := i.currentTime
	i.lastCurrentTime = prev
	i.lastLoops = i.curLoops
	i.hasLooped = false
	forwardWrap := i.playMode == PlayModeForward && t < prev-common.Epsilon
	backwardWrap := i.playMode == PlayModeBackward && t > prev+common.Epsilon
	if forwardWrap || backwardWrap {
		i.curLoops++
		i.hasLooped = true
	}
	i.passedTime = t - prev
	i.currentTime = t
	i.updateTimeDifToEnd()
}

// UpdateTime advances playback by dt seconds scaled by the play speed, applying
// looping, loop limits, freeze-at-last-frame and freeze-at-time.
//
// Parameters:
//   - dt: elapsed real time in seconds
//
// Returns:
//   - bool: whether playback wrapped around during this update
func (i *Instance) UpdateTime(dt float32) bool {
	i.lastCurrentTime = i.currentTime
	i.lastLoops = i.curLoops
	i.hasLooped = false
	i.totalPlayTime += common.Abs(dt)

	maxTime := i.clipEnd
	if i.playMode == PlayModeForward {
		i.passedTime = dt * i.playSpeed
		i.currentTime = i.advanceForward(i.currentTime+i.passedTime, maxTime)
	} else {
		i.passedTime = -(dt * i.playSpeed)
		i.currentTime = i.advanceBackward(i.currentTime+i.passedTime, maxTime)
	}
	i.updateTimeDifToEnd()
	return i.hasLooped
}

func (i *Instance) wrapForward(t, maxTime float32) float32 {
	if maxTime > 0 {
		return i.clipStart + common.SafeFMod(t-i.clipStart, maxTime-i.clipStart)
	}
	return 0
}

func (i *Instance) advanceForward(t, maxTime float32) float32 {
	if i.maxLoops == LoopForever {
		if t >= maxTime {
			i.curLoops++
			i.hasLooped = true
			t = i.wrapForward(t, maxTime)
		}
		for t < 0 && maxTime > 0 {
			t += maxTime
		}
	} else if t >= maxTime {
		i.curLoops++
		i.hasLooped = true
		if i.curLoops >= i.maxLoops {
			if !i.freezeAtLastFrame {
				t = i.wrapForward(t, maxTime)
			} else {
				i.curLoops = i.maxLoops - 1
				t = maxTime
				i.passedTime = 0
				i.hasLooped = false
				i.frozen = true
			}
		} else {
			i.frozen = false
			t = i.wrapForward(t, maxTime)
		}
	}

	if i.freezeAtTime >= 0 && t > i.freezeAtTime {
		t = i.freezeAtTime
	}
	if t < i.clipStart {
		t = i.clipStart
	}
	return t
}

func (i *Instance) advanceBackward(t, maxTime float32) float32 {
	if i.maxLoops == LoopForever {
		if t <= i.clipStart {
			i.hasLooped = true
			i.curLoops++
			t = maxTime + (t - i.clipStart)
		}
		for t > maxTime && maxTime > 0 {
			t = 2*maxTime - t
		}
	} else if t <= i.clipStart {
		i.curLoops++
		i.hasLooped = true
		if i.curLoops >= i.maxLoops {
			if !i.freezeAtLastFrame {
				t = maxTime + (t - i.clipStart)
			} else {
				i.curLoops = i.maxLoops - 1
				t = i.clipStart
				i.passedTime = 0
				i.hasLooped = false
				i.frozen = true
			}
		} else {
			i.frozen = false
			t = maxTime + t
		}
	}

	if i.freezeAtTime >= 0 && t < i.freezeAtTime {
		t = i.freezeAtTime
	}
	if t < i.clipStart {
		t = i.clipStart
	}
	return t
}

func (i *Instance) updateTimeDifToEnd() {
	if i.playMode == PlayModeForward {
		i.timeDifToEnd = i.clipEnd - i.currentTime
	} else {
		i.timeDifToEnd = i.currentTime - i.clipStart
	}
}

// SampleInto writes the motion's local transforms at the current time into out.
// Bones the clip does not animate keep the values already in out, normally the bind pose.
//
// Parameters:
//   - out: the destination pose
func (i *Instance) SampleInto(out *pose.Pose) {
	i.motion.clip.SampleInto(i.currentTime, out.Transforms)
}

// ExtractEvents appends the events whose start time was crossed between the
// previous and the current time, honouring wrap-around and the play direction.
//
// Parameters:
//   - dst: the slice to append to
//
// Returns:
//   - []model.MotionEvent: dst with the fired events appended
func (i *Instance) ExtractEvents(dst []model.MotionEvent) []model.MotionEvent {
	from, to := i.lastCurrentTime, i.currentTime
	wrapped := i.curLoops != i.lastLoops || i.hasLooped
	inClip := func(e model.MotionEvent) bool {
		return e.StartTime >= i.clipStart && e.StartTime <= i.clipEnd
	}

	if i.playMode == PlayModeForward {
		if !wrapped {
			for _, e := range i.motion.events {
				if inClip(e) && e.StartTime > from && e.StartTime <= to {
					dst = append(dst, e)
				}
			}
			return dst
		}
		for _, e := range i.motion.events {
			if inClip(e) && e.StartTime > from {
				dst = append(dst, e)
			}
		}
		for _, e := range i.motion.events {
			if inClip(e) && e.StartTime <= to {
				dst = append(dst, e)
			}
		}
		return dst
	}

	// Backward playback reports events in the order they are crossed.
	events := i.motion.events
	if !wrapped {
		for k := len(events) - 1; k >= 0; k-- {
			if e := events[k]; inClip(e) && e.StartTime < from && e.StartTime >= to {
				dst = append(dst, e)
			}
		}
		return dst
	}
	for k := len(events) - 1; k >= 0; k-- {
		if e := events[k]; inClip(e) && e.StartTime < from {
			dst = append(dst, e)
		}
	}
	for k := len(events) - 1; k >= 0; k-- {
		if e := events[k]; inClip(e) && e.StartTime >= to {
			dst = append(dst, e)
		}
	}
	return dst
}

// ExtractRootDelta returns the root-bone translation travelled between the
// previous and the current time, accounting for one wrap-around.
//
// Parameters:
//   - rootBone: the bone whose translation drives motion extraction
//
// Returns:
//   - model.Transform: the delta, with identity rotation and unit scale
func (i *Instance) ExtractRootDelta(rootBone int32) model.Transform {
	delta := model.IdentityTransform()
	ch := i.motion.clip.ChannelForBone(rootBone)
	if ch == nil || len(ch.PositionKeys) == 0 {
		return delta
	}
	base := model.IdentityTransform()
	sample := func(t float32) [3]float32 { return ch.Sample(t, base).Translation }

	from, to := sample(i.lastCurrentTime), sample(i.currentTime)
	if i.curLoops != i.lastLoops || i.hasLooped {
		start, end := sample(i.clipStart), sample(i.clipEnd)
		if i.playMode == PlayModeForward {
			for k := 0; k < 3; k++ {
				delta.Translation[k] = (end[k] - from[k]) + (to[k] - start[k])
			}
		} else {
			for k := 0; k < 3; k++ {
				delta.Translation[k] = (start[k] - from[k]) + (to[k] - end[k])
			}
		}
		return delta
	}
	for k := 0; k < 3; k++ {
		delta.Translation[k] = to[k] - from[k]
	}
	return delta
}
