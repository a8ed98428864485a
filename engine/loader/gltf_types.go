// gltf_types.go holds the subset of the glTF 2.0 JSON schema the animation importer reads.
// Mesh, material and texture objects are left to encoding/json to skip.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html
package loader

// gltfDocument is the root of a glTF JSON document.
type gltfDocument struct {
	// Asset carries the version the parser validates.
	Asset gltfAsset `json:"asset"`

	// Scene is the index of the default scene.
	Scene *int `json:"scene,omitempty"`

	// Scenes is used only to name the imported set.
	Scenes []gltfScene `json:"scenes,omitempty"`

	// Nodes is the transform hierarchy; skin joints and animation targets index into it.
	Nodes []gltfNode `json:"nodes,omitempty"`

	Accessors   []gltfAccessor   `json:"accessors,omitempty"`
	BufferViews []gltfBufferView `json:"bufferViews,omitempty"`
	Buffers     []gltfBuffer     `json:"buffers,omitempty"`

	// Skins bind joint nodes into skeletons.
	Skins []gltfSkin `json:"skins,omitempty"`

	// Animations become motions.
	Animations []gltfAnimation `json:"animations,omitempty"`
}

// gltfAsset is the asset metadata block.
type gltfAsset struct {
	// Version must start with "2.".
	Version   string `json:"version"`
	Generator string `json:"generator,omitempty"`
}

// gltfScene is a named set of root nodes.
type gltfScene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

// gltfNode is one node of the hierarchy. A node either has a matrix or a TRS triple.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-node
type gltfNode struct {
	Name     string `json:"name,omitempty"`
	Children []int  `json:"children,omitempty"`

	// Mesh marks the node that carries a skinned mesh; its Skin picks the default skeleton.
	Mesh *int `json:"mesh,omitempty"`
	Skin *int `json:"skin,omitempty"`

	// Matrix is column-major and wins over the TRS fields when present.
	Matrix      *[16]float32 `json:"matrix,omitempty"`
	Translation *[3]float32  `json:"translation,omitempty"`
	Rotation    *[4]float32  `json:"rotation,omitempty"`
	Scale       *[3]float32  `json:"scale,omitempty"`
}

// gltfAccessor describes a typed view into a buffer view.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-accessor
type gltfAccessor struct {
	BufferView *int `json:"bufferView,omitempty"`
	ByteOffset int  `json:"byteOffset,omitempty"`

	// ComponentType is one of the gltfComponentType constants.
	ComponentType int  `json:"componentType"`
	Normalized    bool `json:"normalized,omitempty"`
	Count         int  `json:"count"`

	// Type is one of the gltfAccessorType constants.
	Type string `json:"type"`

	// Sparse is decoded only so the parser can reject it.
	Sparse *gltfAccessorSparse `json:"sparse,omitempty"`
}

// gltfAccessorSparse is the sparse storage header. Sparse accessors are not supported.
type gltfAccessorSparse struct {
	Count int `json:"count"`
}

const (
	gltfComponentTypeByte          = 5120
	gltfComponentTypeUnsignedByte  = 5121
	gltfComponentTypeShort         = 5122
	gltfComponentTypeUnsignedShort = 5123
	gltfComponentTypeUnsignedInt   = 5125
	gltfComponentTypeFloat         = 5126
)

const (
	gltfAccessorTypeScalar = "SCALAR"
	gltfAccessorTypeVec2   = "VEC2"
	gltfAccessorTypeVec3   = "VEC3"
	gltfAccessorTypeVec4   = "VEC4"
	gltfAccessorTypeMat2   = "MAT2"
	gltfAccessorTypeMat3   = "MAT3"
	gltfAccessorTypeMat4   = "MAT4"
)

// gltfBufferView is a byte range of a buffer, optionally strided.
type gltfBufferView struct {
	Buffer     int  `json:"buffer"`
	ByteOffset int  `json:"byteOffset,omitempty"`
	ByteLength int  `json:"byteLength"`
	ByteStride *int `json:"byteStride,omitempty"`
}

// gltfBuffer is a binary blob referenced by URI, data URI, or the GLB BIN chunk.
type gltfBuffer struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`

	// Data is filled in by the parser.
	Data []byte `json:"-"`
}

// gltfSkin lists the joint nodes of a skeleton.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-skin
type gltfSkin struct {
	Name                string `json:"name,omitempty"`
	InverseBindMatrices *int   `json:"inverseBindMatrices,omitempty"`
	Skeleton            *int   `json:"skeleton,omitempty"`
	Joints              []int  `json:"joints"`
}

// gltfAnimation is one keyframed animation plus the engine's extras.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-animation
type gltfAnimation struct {
	Name     string            `json:"name,omitempty"`
	Channels []gltfAnimChannel `json:"channels"`
	Samplers []gltfAnimSampler `json:"samplers"`
	Extras   *gltfAnimExtras   `json:"extras,omitempty"`
}

// gltfAnimExtras is the application data an exporter may attach to an animation:
//
//	"extras": {
//	  "syncEvents": [{"type": "LeftFoot", "mirror": "RightFoot", "time": 0.0}],
//	  "events":     [{"type": "step", "parameters": "left", "start": 0.1, "end": 0.1}]
//	}
type gltfAnimExtras struct {
	SyncEvents []gltfSyncEvent   `json:"syncEvents,omitempty"`
	Events     []gltfMotionEvent `json:"events,omitempty"`
}

type gltfSyncEvent struct {
	Type   string  `json:"type"`
	Mirror string  `json:"mirror,omitempty"`
	Time   float32 `json:"time"`
}

type gltfMotionEvent struct {
	Type       string  `json:"type"`
	Parameters string  `json:"parameters,omitempty"`
	Start      float32 `json:"start"`
	End        float32 `json:"end"`
}

// gltfAnimChannel routes a sampler to a node property.
type gltfAnimChannel struct {
	Sampler int            `json:"sampler"`
	Target  gltfAnimTarget `json:"target"`
}

// gltfAnimTarget names the animated node and property.
type gltfAnimTarget struct {
	Node *int `json:"node,omitempty"`

	// Path is one of the gltfAnimPath constants.
	Path string `json:"path"`
}

// gltfAnimSampler pairs keyframe times with values.
type gltfAnimSampler struct {
	Input  int `json:"input"`
	Output int `json:"output"`

	// Interpolation is LINEAR (default), STEP or CUBICSPLINE.
	Interpolation string `json:"interpolation,omitempty"`
}

const gltfAnimInterpolationCubicSpline = "CUBICSPLINE"

const (
	gltfAnimPathTranslation = "translation"
	gltfAnimPathRotation    = "rotation"
	gltfAnimPathScale       = "scale"
	gltfAnimPathWeights     = "weights"
)

// gltfGLBHeader is the 12-byte GLB file header.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
type gltfGLBHeader struct {
	Magic   uint32
	Version uint32
	Length  uint32
}

// gltfGLBChunkHeader precedes every GLB chunk.
type gltfGLBChunkHeader struct {
	ChunkLength uint32
	ChunkType   uint32
}

const (
	gltfGLBMagic     = 0x46546C67 // "glTF"
	gltfGLBVersion   = 2
	gltfGLBChunkJSON = 0x4E4F534A // "JSON"
	gltfGLBChunkBIN  = 0x004E4942 // "BIN\0"
)
