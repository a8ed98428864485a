package common

// Handle addresses an item held by a Pool. The generation guards against use after release:
// once an item is released, every handle issued for the previous acquisition reads as stale.
// The zero Handle is never valid.
type Handle[T any] struct {
	index      uint32
	generation uint32
}

// IsZero reports whether h is the zero handle.
func (h Handle[T]) IsZero() bool {
	return h.generation == 0
}

// Index returns the slot index addressed by h.
func (h Handle[T]) Index() uint32 {
	return h.index
}

// Pool is a free-list pool of reusable items addressed by generation-guarded handles.
// Items are allocated on demand and never freed; releasing returns the slot to the free list.
// A Pool is not safe for concurrent use.
type Pool[T any] struct {
	items []T
	gens  []uint32
	inUse []bool
	free  []uint32
	newFn func() T
	used  int
	peak  int
}

// NewPool creates a Pool that allocates new items with newFn.
//
// Parameters:
//   - newFn: allocator called when the free list is empty
//
// Returns:
//   - *Pool[T]: the new pool
func NewPool[T any](newFn func() T) *Pool[T] {
	if newFn == nil {
		panic("common: NewPool requires an allocator")
	}
	return &Pool[T]{newFn: newFn}
}

// Acquire takes an item from the free list, allocating a new one if needed.
//
// Returns:
//   - Handle[T]: the handle for this acquisition
//   - T: the item
func (p *Pool[T]) Acquire() (Handle[T], T) {
	var idx uint32
	if n := len(p.free); n > 0 {
		idx = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		idx = uint32(len(p.items))
		p.items = append(p.items, p.newFn())
		p.gens = append(p.gens, 0)
		p.inUse = append(p.inUse, false)
	}
	p.gens[idx]++
	if p.gens[idx] == 0 {
		p.gens[idx] = 1
	}
	p.inUse[idx] = true
	p.used++
	p.peak = max(p.peak, p.used)
	return Handle[T]{index: idx, generation: p.gens[idx]}, p.items[idx]
}

// Get resolves a handle.
//
// Parameters:
//   - h: the handle to resolve
//
// Returns:
//   - T: the item, or the zero value when h is stale
//   - bool: whether h still refers to a live acquisition
func (p *Pool[T]) Get(h Handle[T]) (T, bool) {
	var zero T
	if !p.live(h) {
		return zero, false
	}
	return p.items[h.index], true
}

// Release returns the item addressed by h to the free list.
//
// Parameters:
//   - h: the handle to release
//
// Returns:
//   - bool: false if h was already stale
func (p *Pool[T]) Release(h Handle[T]) bool {
	if !p.live(h) {
		return false
	}
	p.inUse[h.index] = false
	p.gens[h.index]++
	if p.gens[h.index] == 0 {
		p.gens[h.index] = 1
	}
	p.free = append(p.free, h.index)
	p.used--
	return true
}

// ReleaseAll returns every live item to the free list and invalidates all handles.
//
// Returns:
//   - int: the number of items that were still in use
func (p *Pool[T]) ReleaseAll() int {
	swept := 0
	for i := range p.items {
		if p.inUse[i] {
			p.Release(Handle[T]{index: uint32(i), generation: p.gens[i]})
			swept++
		}
	}
	return swept
}

// InUse returns the number of items currently acquired.
func (p *Pool[T]) InUse() int {
	return p.used
}

// Allocated returns the number of items ever allocated by the pool.
func (p *Pool[T]) Allocated() int {
	return len(p.items)
}

// Peak returns the highest simultaneous InUse count observed.
func (p *Pool[T]) Peak() int {
	return p.peak
}

func (p *Pool[T]) live(h Handle[T]) bool {
	return h.generation != 0 &&
		int(h.index) < len(p.items) &&
		p.inUse[h.index] &&
		p.gens[h.index] == h.generation
}
