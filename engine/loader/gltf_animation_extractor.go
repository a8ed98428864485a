package loader

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// gltfAnimationExtractorImpl is the implementation of the gltfAnimationExtractor interface.
type gltfAnimationExtractorImpl struct {
	parser gltfParser
}

// gltfAnimationExtractor converts glTF animations into clips bound to an extracted skeleton.
//
// The boneMapping arguments map glTF node indices to bone indices of the parent-first
// skeleton produced by the skeleton extractor. Channels targeting other nodes are dropped.
type gltfAnimationExtractor interface {
	// ExtractAnimation converts one animation, including its sync and motion events.
	//
	// Parameters:
	//   - animIndex: the animation index
	//   - boneMapping: glTF node index to skeleton bone index
	//
	// Returns:
	//   - *model.AnimationClip: the clip, channels ordered by bone index
	//   - error: on invalid samplers or accessors
	ExtractAnimation(animIndex int, boneMapping map[int]int32) (*model.AnimationClip, error)

	// ExtractAnimations converts every animation that animates at least one mapped node.
	// Clip names are made unique.
	//
	// Parameters:
	//   - boneMapping: glTF node index to skeleton bone index
	//
	// Returns:
	//   - []*model.AnimationClip: the clips in document order
	//   - error: the first failure
	ExtractAnimations(boneMapping map[int]int32) ([]*model.AnimationClip, error)
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

// newGLTFAnimationExtractor creates an animation extractor over a parsed document.
func newGLTFAnimationExtractor(parser gltfParser) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{parser: parser}
}

func (e *gltfAnimationExtractorImpl) ExtractAnimation(animIndex int, boneMapping map[int]int32) (*model.AnimationClip, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}
	if animIndex < 0 || animIndex >= len(doc.Animations) {
		return nil, fmt.Errorf("animation index %d out of range", animIndex)
	}
	anim := &doc.Animations[animIndex]

	byBone := make(map[int32]*model.AnimationChannel)
	var duration float32

	for i := range anim.Channels {
		ch := &anim.Channels[i]
		if ch.Target.Node == nil || ch.Target.Path == gltfAnimPathWeights {
			continue
		}
		bone, ok := boneMapping[*ch.Target.Node]
		if !ok {
			continue
		}
		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			return nil, fmt.Errorf("animation %q channel %d: invalid sampler index %d", anim.Name, i, ch.Sampler)
		}
		sampler := &anim.Samplers[ch.Sampler]

		times, err := e.parser.ReadScalarAccessor(sampler.Input)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: failed to read times: %w", anim.Name, i, err)
		}
		if len(times) > 0 {
			duration = max(duration, times[len(times)-1])
		}

		out := byBone[bone]
		if out == nil {
			out = &model.AnimationChannel{BoneIndex: bone}
			byBone[bone] = out
		}

		switch ch.Target.Path {
		case gltfAnimPathTranslation, gltfAnimPathScale:
			values, err := e.parser.ReadVec3Accessor(sampler.Output)
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d: failed to read %s: %w", anim.Name, i, ch.Target.Path, err)
			}
			values = gltfSplineValues(values, len(times), sampler.Interpolation)
			keys := make([]model.VectorKeyframe, min(len(times), len(values)))
			for k := range keys {
				keys[k] = model.VectorKeyframe{Time: times[k], Value: values[k]}
			}
			if ch.Target.Path == gltfAnimPathTranslation {
				out.PositionKeys = keys
			} else {
				out.ScaleKeys = keys
			}

		case gltfAnimPathRotation:
			values, err := e.parser.ReadVec4Accessor(sampler.Output)
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d: failed to read rotation: %w", anim.Name, i, err)
			}
			values = gltfSplineValues(values, len(times), sampler.Interpolation)
			keys := make([]model.QuaternionKeyframe, min(len(times), len(values)))
			for k := range keys {
				keys[k] = model.QuaternionKeyframe{Time: times[k], Value: values[k]}
			}
			out.RotationKeys = keys
		}
	}

	channels := make([]model.AnimationChannel, 0, len(byBone))
	for _, ch := range byBone {
		channels = append(channels, *ch)
	}
	slices.SortFunc(channels, func(a, b model.AnimationChannel) int { return int(a.BoneIndex - b.BoneIndex) })

	clip := &model.AnimationClip{
		Name:           anim.Name,
		Duration:       duration,
		TicksPerSecond: 1, // glTF times are seconds
		Channels:       channels,
	}
	if clip.Name == "" {
		clip.Name = fmt.Sprintf("animation_%d", animIndex)
	}
	if x := anim.Extras; x != nil {
		for _, s := range x.SyncEvents {
			clip.SyncEvents = append(clip.SyncEvents, model.SyncEvent{Type: s.Type, Mirror: s.Mirror, Time: s.Time})
		}
		for _, ev := range x.Events {
			clip.Events = append(clip.Events, model.MotionEvent{
				Type:       ev.Type,
				Parameters: ev.Parameters,
				StartTime:  ev.Start,
				EndTime:    max(ev.Start, ev.End),
			})
		}
	}
	return clip, nil
}

func (e *gltfAnimationExtractorImpl) ExtractAnimations(boneMapping map[int]int32) ([]*model.AnimationClip, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}

	var clips []*model.AnimationClip
	used := make(map[string]int)
	for i := range doc.Animations {
		if !gltfAnimatesAny(&doc.Animations[i], boneMapping) {
			continue
		}
		clip, err := e.ExtractAnimation(i, boneMapping)
		if err != nil {
			return nil, fmt.Errorf("animation %d: %w", i, err)
		}
		clip.Name = gltfUniqueName(clip.Name, clip.Name, used)
		clips = append(clips, clip)
	}
	return clips, nil
}

func gltfAnimatesAny(anim *gltfAnimation, boneMapping map[int]int32) bool {
	for _, ch := range anim.Channels {
		if ch.Target.Node == nil {
			continue
		}
		if _, ok := boneMapping[*ch.Target.Node]; ok {
			return true
		}
	}
	return false
}

// gltfSplineValues keeps only the value element of each (in-tangent, value, out-tangent)
// triple of a CUBICSPLINE sampler; the clip sampler interpolates linearly between them.
func gltfSplineValues[T any](values []T, keys int, interpolation string) []T {
	if interpolation != gltfAnimInterpolationCubicSpline || len(values) != 3*keys {
		return values
	}
	out := make([]T, keys)
	for k := range out {
		out[k] = values[3*k+1]
	}
	return out
}
