package model

import "github.com/Carmen-Shannon/oxy-anim/common"

// --- Transform & Skeleton Types ---

// Transform represents a decomposed transform for animation interpolation.
type Transform struct {
	// Translation is the position offset.
	Translation [3]float32 `yaml:"translation"`

	// Rotation is the orientation as a quaternion (x, y, z, w).
	Rotation [4]float32 `yaml:"rotation"`

	// Scale is the scale factor along each axis.
	Scale [3]float32 `yaml:"scale"`
}

// IdentityTransform returns a transform with no translation, no rotation and unit scale.
func IdentityTransform() Transform {
	return Transform{
		Rotation: common.QuatIdentity(),
		Scale:    [3]float32{1, 1, 1},
	}
}

// Bone represents a single bone in a skeleton hierarchy.
type Bone struct {
	// Name is the bone's identifier (for debugging and animation targeting).
	Name string

	// ParentIndex is the index of the parent bone (-1 for root bones).
	ParentIndex int32

	// InverseBindMatrix transforms from model space to bone space at bind pose.
	InverseBindMatrix [16]float32

	// LocalTransform is the bone's bind-pose transform relative to its parent.
	LocalTransform Transform
}

// Skeleton represents a bone hierarchy for skeletal animation.
// Bones are ordered so that every parent precedes its children.
type Skeleton struct {
	// Bones is the array of all bones in the skeleton.
	Bones []Bone

	// RootBoneIndices are indices of bones with no parent.
	RootBoneIndices []int32

	// BoneNameToIndex maps bone names to their indices for quick lookup.
	BoneNameToIndex map[string]int32
}

// --- Animation Types ---

// AnimationClip represents a single animation (walk, run, attack, etc.).
type AnimationClip struct {
	// Name is the animation identifier.
	Name string

	// Duration is the total length of the animation in seconds.
	Duration float32

	// TicksPerSecond is the sample rate of the animation.
	TicksPerSecond float32

	// Channels contains animation data for each animated bone.
	Channels []AnimationChannel

	// SyncEvents mark phase points (e.g. left/right foot plant) used to align clips.
	SyncEvents []SyncEvent

	// Events are fired while the clip plays (footstep sounds, gameplay triggers).
	Events []MotionEvent
}

// AnimationChannel contains keyframe data for a single bone.
type AnimationChannel struct {
	// BoneIndex is the index of the bone this channel animates.
	BoneIndex int32

	// PositionKeys are keyframes for translation.
	PositionKeys []VectorKeyframe

	// RotationKeys are keyframes for rotation (quaternion).
	RotationKeys []QuaternionKeyframe

	// ScaleKeys are keyframes for scale.
	ScaleKeys []VectorKeyframe
}

// VectorKeyframe stores a 3D vector value at a specific time.
type VectorKeyframe struct {
	Time  float32
	Value [3]float32
}

// QuaternionKeyframe stores a quaternion rotation (x, y, z, w) at a specific time.
type QuaternionKeyframe struct {
	Time  float32
	Value [4]float32
}

// SyncEvent is a timed phase marker on a clip.
type SyncEvent struct {
	// Type identifies the phase, e.g. "LeftFoot".
	Type string `yaml:"type"`

	// Mirror is the event type used when the motion plays mirrored.
	Mirror string `yaml:"mirror,omitempty"`

	// Time is the event position in seconds.
	Time float32 `yaml:"time"`
}

// MotionEvent is a ranged event emitted by a playing clip.
// A tick event has StartTime == EndTime.
type MotionEvent struct {
	Type       string  `yaml:"type"`
	Parameters string  `yaml:"parameters,omitempty"`
	StartTime  float32 `yaml:"start"`
	EndTime    float32 `yaml:"end"`
}

// --- Import Types ---

// ImportedAnimationSet is what an importer produces for one source file:
// the bone hierarchy and every animation clip bound to it.
type ImportedAnimationSet struct {
	// Name is the source identifier.
	Name string

	// Skeleton is the bone hierarchy.
	Skeleton *Skeleton

	// Animations are all animation clips bundled with the skeleton.
	Animations []*AnimationClip
}
