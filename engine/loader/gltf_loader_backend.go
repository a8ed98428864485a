package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// gltfLoaderBackendImpl is the implementation of gltfLoaderBackend.
type gltfLoaderBackendImpl struct {
	importer gltfImporter
}

// gltfLoaderBackend serves FormatGLTF and FormatGLB through the glTF importer.
type gltfLoaderBackend interface {
	loaderBackend
}

var _ gltfLoaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates the glTF backend.
//
// Parameters:
//   - skinName: the skin to import; empty picks the default
//
// Returns:
//   - gltfLoaderBackend: the backend
func newGLTFLoaderBackend(skinName string) gltfLoaderBackend {
	return &gltfLoaderBackendImpl{importer: newGLTFImporter(skinName)}
}

func (b *gltfLoaderBackendImpl) Load(path string) (*model.ImportedAnimationSet, error) {
	return b.importer.Import(path)
}

func (b *gltfLoaderBackendImpl) LoadReader(r io.Reader, format Format, name string) (*model.ImportedAnimationSet, error) {
	return b.importer.ImportReader(r, format == FormatGLB, name)
}
