package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// loaderBackend imports one file format into an ImportedAnimationSet.
type loaderBackend interface {
	// Load imports a file.
	//
	// Parameters:
	//   - path: the file path
	//
	// Returns:
	//   - *model.ImportedAnimationSet: the imported skeleton and clips
	//   - error: on failure
	Load(path string) (*model.ImportedAnimationSet, error)

	// LoadReader imports from a stream.
	//
	// Parameters:
	//   - r: the data
	//   - format: the concrete format of r, for backends that serve several
	//   - name: the set name used when the data carries none
	//
	// Returns:
	//   - *model.ImportedAnimationSet: the imported skeleton and clips
	//   - error: on failure
	LoadReader(r io.Reader, format Format, name string) (*model.ImportedAnimationSet, error)
}
