package skinning

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUBoneMatrixSource is the canonical WGSL definition of the BoneMatrix struct.
// Matches GPUBoneMatrix layout exactly (64 bytes, std430 aligned).
//
//go:embed assets/bone_matrix.wgsl
var GPUBoneMatrixSource string

// GPUBoneMatrix is one skinning palette entry: the bone's model-space matrix multiplied by
// its inverse bind matrix, column-major.
// Size: 64 bytes (std430 aligned).
type GPUBoneMatrix struct {
	Skin [16]float32 // offset 0, size 64 (mat4x4<f32>)
}

// Size returns the size of the GPUBoneMatrix struct in bytes.
//
// Returns:
//   - int: The size of the struct in bytes.
func (g *GPUBoneMatrix) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUBoneMatrix struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUBoneMatrix) Marshal() []byte {
	buf := make([]byte, 64)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(g.Skin[i]))
	}
	return buf
}
