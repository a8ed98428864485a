package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct {
	skinName string
}

// gltfImporter runs a full glTF/GLB import: parse, pick a skin, extract the skeleton and
// every animation bound to it.
type gltfImporter interface {
	// Import reads a .gltf or .glb file.
	//
	// Parameters:
	//   - path: the file path
	//
	// Returns:
	//   - *model.ImportedAnimationSet: the skeleton and clips
	//   - error: on parse or extraction failures
	Import(path string) (*model.ImportedAnimationSet, error)

	// ImportReader reads a document from a stream.
	//
	// Parameters:
	//   - r: the document bytes
	//   - isGLB: true for the binary container
	//   - name: fallback set name when the document's default scene has none
	//
	// Returns:
	//   - *model.ImportedAnimationSet: the skeleton and clips
	//   - error: on parse or extraction failures
	ImportReader(r io.Reader, isGLB bool, name string) (*model.ImportedAnimationSet, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates an importer.
//
// Parameters:
//   - skinName: the skin to import; empty picks the skin of the first skinned mesh
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter(skinName string) gltfImporter {
	return &gltfImporterImpl{skinName: skinName}
}

func (imp *gltfImporterImpl) Import(path string) (*model.ImportedAnimationSet, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return imp.importFromParser(parser, name)
}

func (imp *gltfImporterImpl) ImportReader(r io.Reader, isGLB bool, name string) (*model.ImportedAnimationSet, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB); err != nil {
		return nil, fmt.Errorf("failed to parse from reader: %w", err)
	}
	return imp.importFromParser(parser, name)
}

// importFromParser extracts the skeleton and its animations from a parsed document.
func (imp *gltfImporterImpl) importFromParser(parser gltfParser, fallbackName string) (*model.ImportedAnimationSet, error) {
	skeletons := newGLTFSkeletonExtractor(parser)
	skin, err := skeletons.FindSkin(imp.skinName)
	if err != nil {
		return nil, err
	}

	skel, nodeToBone, err := skeletons.ExtractSkeleton(skin)
	if err != nil {
		return nil, fmt.Errorf("skeleton extraction failed: %w", err)
	}

	clips, err := newGLTFAnimationExtractor(parser).ExtractAnimations(nodeToBone)
	if err != nil {
		return nil, fmt.Errorf("animation extraction failed: %w", err)
	}

	return &model.ImportedAnimationSet{
		Name:       gltfSetName(parser.Document(), fallbackName),
		Skeleton:   skel,
		Animations: clips,
	}, nil
}

// gltfSetName prefers the default scene's name.
func gltfSetName(doc *gltfDocument, fallback string) string {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		if name := doc.Scenes[*doc.Scene].Name; name != "" {
			return name
		}
	}
	if fallback != "" {
		return fallback
	}
	return "unnamed"
}
