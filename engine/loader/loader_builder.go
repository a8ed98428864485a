package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithSkin is an option builder that selects the glTF skin to import by name.
// By default the skin of the first skinned mesh node is used.
//
// Parameters:
//   - name: the skin name
//
// Returns:
//   - LoaderBuilderOption: a function that applies the skin option to a loader
func WithSkin(name string) LoaderBuilderOption {
	return func(l *loader) {
		l.skinName = name
	}
}

// WithAnimationSet is an option builder that pre-populates the cache, for sets built in code.
//
// Parameters:
//   - key: the cache key
//   - set: the set to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the cache entry to a loader
func WithAnimationSet(key string, set *AnimationSet) LoaderBuilderOption {
	return func(l *loader) {
		l.setCache[key] = set
	}
}
