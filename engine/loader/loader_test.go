package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testGLTF returns a document with a two-joint skin listed child first, one animation on
// the root joint carrying sync events in extras, and one animation on a non-joint node.
// When embed is false the buffer has no URI, for packing into a GLB.
func testGLTF(t *testing.T, embed bool) ([]byte, []byte) {
	t.Helper()
	var bin bytes.Buffer
	require.NoError(t, binary.Write(&bin, binary.LittleEndian, []float32{0, 1}))
	require.NoError(t, binary.Write(&bin, binary.LittleEndian, [][3]float32{{0, 0, 0}, {2, 0, 0}}))

	buffer := map[string]any{"byteLength": bin.Len()}
	if embed {
		buffer["uri"] = "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(bin.Bytes())
	}
	doc := map[string]any{
		"asset":  map[string]any{"version": "2.0"},
		"scene":  0,
		"scenes": []any{map[string]any{"name": "Rig", "nodes": []int{0, 2}}},
		"nodes": []any{
			map[string]any{"name": "Hips", "children": []int{1}, "translation": []float32{0, 1, 0}},
			map[string]any{"name": "Spine", "translation": []float32{0, 0.5, 0}},
			map[string]any{"name": "Body", "mesh": 0, "skin": 0},
		},
		"skins":   []any{map[string]any{"name": "Armature", "joints": []int{1, 0}}},
		"buffers": []any{buffer},
		"bufferViews": []any{
			map[string]any{"buffer": 0, "byteOffset": 0, "byteLength": 8},
			map[string]any{"buffer": 0, "byteOffset": 8, "byteLength": 24},
		},
		"accessors": []any{
			map[string]any{"bufferView": 0, "componentType": gltfComponentTypeFloat, "count": 2, "type": "SCALAR"},
			map[string]any{"bufferView": 1, "componentType": gltfComponentTypeFloat, "count": 2, "type": "VEC3"},
		},
		"animations": []any{
			map[string]any{
				"name":     "Walk",
				"samplers": []any{map[string]any{"input": 0, "output": 1}},
				"channels": []any{map[string]any{"sampler": 0, "target": map[string]any{"node": 0, "path": "translation"}}},
				"extras": map[string]any{
					"syncEvents": []any{
						map[string]any{"type": "RightFoot", "time": 0.5},
						map[string]any{"type": "LeftFoot", "mirror": "RightFoot", "time": 0},
					},
					"events": []any{map[string]any{"type": "step", "start": 0.25, "end": 0.25}},
				},
			},
			map[string]any{
				"name":     "Prop",
				"samplers": []any{map[string]any{"input": 0, "output": 1}},
				"channels": []any{map[string]any{"sampler": 0, "target": map[string]any{"node": 2, "path": "translation"}}},
			},
		},
	}
	js, err := json.Marshal(doc)
	require.NoError(t, err)
	return js, bin.Bytes()
}

// packGLB wraps a JSON chunk and a BIN chunk into a GLB container.
func packGLB(t *testing.T, js, bin []byte) []byte {
	t.Helper()
	pad := func(b []byte, with byte) []byte {
		for len(b)%4 != 0 {
			b = append(b, with)
		}
		return b
	}
	js, bin = pad(js, ' '), pad(bin, 0)

	var out bytes.Buffer
	total := 12 + 8 + len(js) + 8 + len(bin)
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: gltfGLBVersion, Length: uint32(total)}))
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(js)), ChunkType: gltfGLBChunkJSON}))
	out.Write(js)
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(bin)), ChunkType: gltfGLBChunkBIN}))
	out.Write(bin)
	return out.Bytes()
}

func TestLoadGLTFSortsSkeletonAndReadsExtras(t *testing.T) {
	js, _ := testGLTF(t, true)
	path := filepath.Join(t.TempDir(), "rig.gltf")
	require.NoError(t, os.WriteFile(path, js, 0o644))

	l := NewLoader()
	set, err := l.LoadAnimationSet(path)
	require.NoError(t, err)
	assert.Equal(t, "Rig", set.Name)

	skel := set.Skeleton
	require.Equal(t, 2, skel.NumBones())
	assert.Equal(t, "Hips", skel.Bones[0].Name)
	assert.Equal(t, int32(-1), skel.Bones[0].ParentIndex)
	assert.Equal(t, int32(0), skel.Bones[1].ParentIndex)
	assert.Equal(t, [3]float32{0, 0.5, 0}, skel.Bones[1].LocalTransform.Translation)
	assert.Equal(t, float32(1), skel.Bones[1].InverseBindMatrix[15])

	assert.Equal(t, []string{"Walk"}, set.Motions.IDs(), "animations on non-joint nodes are skipped")
	walk := set.Motions.Motion("Walk")
	require.NotNil(t, walk)
	assert.Equal(t, float32(1), walk.Duration())
	require.Len(t, walk.Clip().Channels, 1)
	assert.Equal(t, int32(0), walk.Clip().Channels[0].BoneIndex)
	assert.Equal(t, [3]float32{2, 0, 0}, walk.Clip().Channels[0].PositionKeys[1].Value)

	sync := walk.SyncEvents()
	require.Len(t, sync, 2)
	assert.Equal(t, "LeftFoot", sync[0].Type, "sync events are sorted by time")
	assert.Equal(t, "RightFoot", sync[0].Mirror)
	require.Len(t, walk.Events(), 1)
	assert.Equal(t, float32(0.25), walk.Events()[0].EndTime)

	again, err := l.LoadAnimationSet(path)
	require.NoError(t, err)
	assert.Same(t, set, again)
	assert.Len(t, l.Sets(), 1)
}

func TestLoadGLBFromReader(t *testing.T) {
	js, bin := testGLTF(t, false)
	l := NewLoader(WithSkin("Armature"))

	set, err := l.LoadAnimationSetReader("rig", bytes.NewReader(packGLB(t, js, bin)), FormatGLB)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Skeleton.NumBones())
	assert.NotNil(t, set.Motions.Motion("Walk"))
	assert.Same(t, set, l.Get("rig"))

	embedded, _ := testGLTF(t, true)
	_, err = NewLoader(WithSkin("Missing")).LoadAnimationSetReader("rig", bytes.NewReader(embedded), FormatGLTF)
	assert.ErrorContains(t, err, "Missing")
}

func TestLoadGLTFWithoutSkinUsesNodeTree(t *testing.T) {
	js, _ := testGLTF(t, true)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(js, &doc))
	delete(doc, "skins")
	js, err := json.Marshal(doc)
	require.NoError(t, err)

	set, err := NewLoader().LoadAnimationSetReader("nodes", bytes.NewReader(js), FormatGLTF)
	require.NoError(t, err)
	assert.Equal(t, 3, set.Skeleton.NumBones())
	assert.Equal(t, []string{"Prop", "Walk"}, set.Motions.IDs())
}

func TestParserRejectsBadInput(t *testing.T) {
	p := newGLTFParser()
	assert.ErrorIs(t, p.ParseReader(strings.NewReader(`{"asset":{"version":"1.0"}}`), false), errInvalidGLTFVersion)
	assert.ErrorIs(t, p.ParseReader(bytes.NewReader(make([]byte, 16)), true), errInvalidGLBMagic)

	_, err := p.ReadScalarAccessor(0)
	assert.ErrorIs(t, err, errNoDocument)

	js, _ := testGLTF(t, true)
	require.NoError(t, p.ParseReader(bytes.NewReader(js), false))
	_, err = p.ReadScalarAccessor(1)
	assert.ErrorContains(t, err, "not SCALAR")
	_, err = p.ReadVec3Accessor(7)
	assert.ErrorContains(t, err, "out of range")
}

func TestDecomposeMatrixRecoversRotation(t *testing.T) {
	// 90 degrees around Z, scale 2, translation (1, 2, 3); column-major.
	m := [16]float32{
		0, 2, 0, 0,
		-2, 0, 0, 0,
		0, 0, 2, 0,
		1, 2, 3, 1,
	}
	tr := gltfDecomposeMatrix(m)
	assert.Equal(t, [3]float32{1, 2, 3}, tr.Translation)
	assert.InDeltaSlice(t, []float32{2, 2, 2}, tr.Scale[:], 1e-5)
	assert.InDeltaSlice(t, []float32{0, 0, 0.7071068, 0.7071068}, tr.Rotation[:], 1e-5)
}

const bipedYAML = `name: biped
bones:
  - name: root
  - name: hip
    parent: root
    transform: {translation: [0, 1, 0]}
clips:
  - name: walk
    sync_events: [{type: LeftFoot, time: 0}, {type: RightFoot, time: 0.5}]
    events: [{type: step, start: 0.25, end: 0.25}]
    channels:
      - bone: root
        translation: [{time: 0, value: [0, 0, 0]}, {time: 1.2, value: [1, 0, 0]}]
  - name: idle
    duration: 2
`

func TestLoadYAMLMotionSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "biped.yaml")
	require.NoError(t, os.WriteFile(path, []byte(bipedYAML), 0o644))

	set, err := NewLoader().LoadAnimationSet(path)
	require.NoError(t, err)
	assert.Equal(t, "biped", set.Name)
	assert.Equal(t, []string{"idle", "walk"}, set.Motions.IDs())

	hip := set.Skeleton.Bones[1]
	assert.Equal(t, [4]float32{0, 0, 0, 1}, hip.LocalTransform.Rotation, "missing components default to identity")
	assert.InDelta(t, -1, hip.InverseBindMatrix[13], 1e-6)

	walk := set.Motions.Motion("walk")
	assert.InDelta(t, 1.2, walk.Duration(), 1e-6, "duration defaults to the last key")
	assert.Len(t, walk.SyncEvents(), 2)
	assert.Equal(t, float32(2), set.Motions.Motion("idle").Duration())
}

func TestLoadYAMLErrors(t *testing.T) {
	for name, c := range map[string]struct {
		doc  string
		want string
	}{
		"empty":          {"", "empty"},
		"no bones":       {"name: x\n", "no bones"},
		"parent order":   {"bones:\n  - {name: a, parent: b}\n  - {name: b}\n", "listed before"},
		"unknown bone":   {"bones: [{name: a}]\nclips:\n  - name: c\n    channels: [{bone: z}]\n", "unknown bone"},
		"duplicate clip": {"bones: [{name: a}]\nclips: [{name: c}, {name: c}]\n", "duplicate"},
	} {
		_, err := NewLoader().LoadAnimationSetReader(name, strings.NewReader(c.doc), FormatYAML)
		assert.ErrorContains(t, err, c.want, name)
	}

	_, err := FormatFromPath("rig.fbx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
