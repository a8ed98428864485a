package model

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

// Sample evaluates the channel at time t. Tracks without keys keep the value from base.
// Times before the first key or after the last key clamp to that key.
//
// Parameters:
//   - t: sample time in seconds
//   - base: transform used for components the channel does not animate
//
// Returns:
//   - Transform: the interpolated transform
func (c *AnimationChannel) Sample(t float32, base Transform) Transform {
	out := base
	if len(c.PositionKeys) > 0 {
		out.Translation = sampleVector(c.PositionKeys, t)
	}
	if len(c.RotationKeys) > 0 {
		out.Rotation = sampleQuaternion(c.RotationKeys, t)
	}
	if len(c.ScaleKeys) > 0 {
		out.Scale = sampleVector(c.ScaleKeys, t)
	}
	return out
}

// SampleInto writes the clip's transforms at time t into out, indexed by bone.
// Bones without a channel keep their current value in out.
//
// Parameters:
//   - t: sample time in seconds
//   - out: per-bone local transforms, usually initialized to the bind pose
func (c *AnimationClip) SampleInto(t float32, out []Transform) {
	for i := range c.Channels {
		ch := &c.Channels[i]
		if ch.BoneIndex < 0 || int(ch.BoneIndex) >= len(out) {
			continue
		}
		out[ch.BoneIndex] = ch.Sample(t, out[ch.BoneIndex])
	}
}

// ChannelForBone returns the channel animating bone, or nil.
func (c *AnimationClip) ChannelForBone(bone int32) *AnimationChannel {
	for i := range c.Channels {
		if c.Channels[i].BoneIndex == bone {
			return &c.Channels[i]
		}
	}
	return nil
}

// keySpan finds the keys bracketing t and the interpolation factor between them.
func keySpan(n int, timeAt func(int) float32, t float32) (int, int, float32) {
	if n == 1 || t <= timeAt(0) {
		return 0, 0, 0
	}
	if t >= timeAt(n-1) {
		return n - 1, n - 1, 0
	}
	next := sort.Search(n, func(i int) bool { return timeAt(i) > t })
	prev := next - 1
	span := timeAt(next) - timeAt(prev)
	return prev, next, common.SafeDiv(t-timeAt(prev), span, 0)
}

func sampleVector(keys []VectorKeyframe, t float32) [3]float32 {
	a, b, f := keySpan(len(keys), func(i int) float32 { return keys[i].Time }, t)
	return common.Lerp3(keys[a].Value, keys[b].Value, f)
}

func sampleQuaternion(keys []QuaternionKeyframe, t float32) [4]float32 {
	a, b, f := keySpan(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if a == b {
		return keys[a].Value
	}
	return common.QuatNlerp(keys[a].Value, keys[b].Value, f)
}
