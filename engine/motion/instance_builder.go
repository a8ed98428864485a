package motion

// InstanceBuilderOption configures an Instance at construction.
type InstanceBuilderOption func(*Instance)

// WithPlaySpeed sets the initial play speed multiplier.
//
// Parameters:
//   - speed: the play speed, 1 is real time
//
// Returns:
//   - InstanceBuilderOption: the option
func WithPlaySpeed(speed float32) InstanceBuilderOption {
	return func(i *Instance) {
		i.playSpeed = speed
	}
}

// WithMaxLoops limits how many times the instance loops. LoopForever disables the limit.
//
// Parameters:
//   - loops: maximum loop count
//
// Returns:
//   - InstanceBuilderOption: the option
func WithMaxLoops(loops int) InstanceBuilderOption {
	return func(i *Instance) {
		i.maxLoops = loops
	}
}

// WithPlayMode selects forward or backward playback.
func WithPlayMode(mode PlayMode) InstanceBuilderOption {
	return func(i *Instance) {
		i.playMode = mode
	}
}

// WithFreezeAtLastFrame keeps the instance on its last frame once max loops are reached.
func WithFreezeAtLastFrame(freeze bool) InstanceBuilderOption {
	return func(i *Instance) {
		i.freezeAtLastFrame = freeze
	}
}

// WithFreezeAtTime stops playback from advancing past t seconds. A negative t disables it.
func WithFreezeAtTime(t float32) InstanceBuilderOption {
	return func(i *Instance) {
		i.freezeAtTime = t
	}
}

// WithClipRange restricts playback to [start, end] seconds of the clip.
//
// Parameters:
//   - start: clip start time
//   - end: clip end time, clamped to the motion duration
//
// Returns:
//   - InstanceBuilderOption: the option
func WithClipRange(start, end float32) InstanceBuilderOption {
	return func(i *Instance) {
		i.clipStart = start
		i.clipEnd = end
	}
}

// WithMirror flags the instance as mirrored, so mirror event types are used for syncing.
func WithMirror(mirror bool) InstanceBuilderOption {
	return func(i *Instance) {
		i.mirror = mirror
	}
}
