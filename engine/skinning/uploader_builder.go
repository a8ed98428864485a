package skinning

// UploaderBuilderOption is a functional option for configuring an Uploader via NewUploader.
type UploaderBuilderOption func(*uploaderImpl)

// WithMaxActors sets the number of palette slots. Defaults to 64.
//
// Parameters:
//   - n: the slot count
//
// Returns:
//   - UploaderBuilderOption: a function that applies the slot count
func WithMaxActors(n int) UploaderBuilderOption {
	return func(u *uploaderImpl) {
		u.maxActors = max(n, 1)
	}
}

// WithMaxBones sets the palette entries per slot. Defaults to 128.
//
// Parameters:
//   - n: the bone count
//
// Returns:
//   - UploaderBuilderOption: a function that applies the bone count
func WithMaxBones(n int) UploaderBuilderOption {
	return func(u *uploaderImpl) {
		u.maxBones = max(n, 1)
	}
}
