package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"

	"gopkg.in/yaml.v3"
)

// yamlLoaderBackendImpl is the implementation of yamlLoaderBackend.
type yamlLoaderBackendImpl struct{}

// yamlLoaderBackend serves FormatYAML: hand-authored skeletons and clips, mostly used for
// test rigs and the command line demos.
//
//	name: biped
//	bones:
//	  - name: root
//	  - name: hip
//	    parent: root
//	    transform: {translation: [0, 1, 0]}
//	clips:
//	  - name: walk
//	    duration: 1
//	    sync_events: [{type: LeftFoot, time: 0}, {type: RightFoot, time: 0.5}]
//	    events: [{type: step, start: 0.25, end: 0.25}]
//	    channels:
//	      - bone: root
//	        translation: [{time: 0, value: [0, 0, 0]}, {time: 1, value: [1, 0, 0]}]
//
// Bones are listed parents first. Missing transform components default to identity and
// inverse bind matrices are derived from the bind pose.
type yamlLoaderBackend interface {
	loaderBackend
}

var _ yamlLoaderBackend = &yamlLoaderBackendImpl{}

func newYAMLLoaderBackend() yamlLoaderBackend {
	return &yamlLoaderBackendImpl{}
}

type yamlSetDoc struct {
	Name  string        `yaml:"name"`
	Bones []yamlBoneDoc `yaml:"bones"`
	Clips []yamlClipDoc `yaml:"clips"`
}

type yamlBoneDoc struct {
	Name      string           `yaml:"name"`
	Parent    string           `yaml:"parent,omitempty"`
	Transform yamlTransformDoc `yaml:"transform,omitempty"`
}

type yamlTransformDoc struct {
	Translation *[3]float32 `yaml:"translation,omitempty"`
	Rotation    *[4]float32 `yaml:"rotation,omitempty"`
	Scale       *[3]float32 `yaml:"scale,omitempty"`
}

type yamlClipDoc struct {
	Name       string              `yaml:"name"`
	Duration   float32             `yaml:"duration,omitempty"`
	SyncEvents []model.SyncEvent   `yaml:"sync_events,omitempty"`
	Events     []model.MotionEvent `yaml:"events,omitempty"`
	Channels   []yamlChannelDoc    `yaml:"channels,omitempty"`
}

type yamlChannelDoc struct {
	Bone        string                     `yaml:"bone"`
	Translation []model.VectorKeyframe     `yaml:"translation,omitempty"`
	Rotation    []model.QuaternionKeyframe `yaml:"rotation,omitempty"`
	Scale       []model.VectorKeyframe     `yaml:"scale,omitempty"`
}

func (b *yamlLoaderBackendImpl) Load(path string) (*model.ImportedAnimationSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return b.LoadReader(f, FormatYAML, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
}

func (b *yamlLoaderBackendImpl) LoadReader(r io.Reader, _ Format, name string) (*model.ImportedAnimationSet, error) {
	var doc yamlSetDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty motion set document")
		}
		return nil, fmt.Errorf("failed to parse motion set: %w", err)
	}

	skel, err := doc.skeleton()
	if err != nil {
		return nil, err
	}

	clips := make([]*model.AnimationClip, 0, len(doc.Clips))
	for i := range doc.Clips {
		clip, err := doc.Clips[i].clip(skel)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}

	if doc.Name != "" {
		name = doc.Name
	}
	return &model.ImportedAnimationSet{Name: name, Skeleton: skel, Animations: clips}, nil
}

func (d *yamlSetDoc) skeleton() (*model.Skeleton, error) {
	if len(d.Bones) == 0 {
		return nil, errors.New("motion set has no bones")
	}

	index := make(map[string]int32, len(d.Bones))
	bones := make([]model.Bone, len(d.Bones))
	for i, bd := range d.Bones {
		t := model.IdentityTransform()
		if bd.Transform.Translation != nil {
			t.Translation = *bd.Transform.Translation
		}
		if bd.Transform.Rotation != nil {
			t.Rotation = *bd.Transform.Rotation
		}
		if bd.Transform.Scale != nil {
			t.Scale = *bd.Transform.Scale
		}

		parent := int32(-1)
		if bd.Parent != "" {
			p, ok := index[bd.Parent]
			if !ok {
				return nil, fmt.Errorf("bone %q: parent %q must be listed before it", bd.Name, bd.Parent)
			}
			parent = p
		}
		bones[i] = model.Bone{Name: bd.Name, ParentIndex: parent, LocalTransform: t}
		index[bd.Name] = int32(i)
	}

	skel, err := model.NewSkeleton(bones)
	if err != nil {
		return nil, err
	}
	skel.DeriveInverseBindMatrices()
	return skel, nil
}

func (c *yamlClipDoc) clip(skel *model.Skeleton) (*model.AnimationClip, error) {
	if c.Name == "" {
		return nil, errors.New("clip without a name")
	}

	out := &model.AnimationClip{
		Name:           c.Name,
		Duration:       c.Duration,
		TicksPerSecond: 1,
		SyncEvents:     c.SyncEvents,
		Events:         c.Events,
	}
	for _, ch := range c.Channels {
		bone := skel.FindBone(ch.Bone)
		if bone < 0 {
			return nil, fmt.Errorf("clip %q: unknown bone %q", c.Name, ch.Bone)
		}
		out.Channels = append(out.Channels, model.AnimationChannel{
			BoneIndex:    bone,
			PositionKeys: ch.Translation,
			RotationKeys: ch.Rotation,
			ScaleKeys:    ch.Scale,
		})
		if c.Duration == 0 {
			out.Duration = max(out.Duration, lastVectorKey(ch.Translation), lastVectorKey(ch.Scale))
			if n := len(ch.Rotation); n > 0 {
				out.Duration = max(out.Duration, ch.Rotation[n-1].Time)
			}
		}
	}
	if c.Duration == 0 {
		for _, ev := range c.Events {
			out.Duration = max(out.Duration, ev.EndTime)
		}
		for _, ev := range c.SyncEvents {
			out.Duration = max(out.Duration, ev.Time)
		}
	}
	return out, nil
}

func lastVectorKey(keys []model.VectorKeyframe) float32 {
	if len(keys) == 0 {
		return 0
	}
	return keys[len(keys)-1].Time
}
