package overlay

import (
	"slices"
	"sync"
)

// Registry maps tags to shapes. Iteration follows insertion order: a new
// tag goes to the end, a replaced tag keeps its slot, and removal keeps the
// relative order of the rest.
//
// Every membership change calls the invalidate function, which asks the
// host for a redraw. Batch inserts call it once.
type Registry[T comparable] struct {
	mu         sync.RWMutex
	index      map[T]int
	entries    []entry[T]
	invalidate func()
}

type entry[T comparable] struct {
	tag   T
	shape Shape[T]
}

// NewRegistry creates an empty registry. invalidate may be nil.
func NewRegistry[T comparable](invalidate func()) *Registry[T] {
	return &Registry[T]{
		index:      make(map[T]int),
		invalidate: invalidate,
	}
}

// Add inserts shape, replacing any shape with the same tag.
func (r *Registry[T]) Add(shape Shape[T]) {
	r.mu.Lock()
	r.put(shape)
	r.mu.Unlock()

	r.signal()
}

// AddAll inserts shapes in order. Later entries win over earlier ones with
// the same tag. The host is asked for a single redraw after the whole batch.
func (r *Registry[T]) AddAll(shapes []Shape[T]) {
	if len(shapes) == 0 {
		return
	}

	r.mu.Lock()
	for _, shape := range shapes {
		r.put(shape)
	}
	r.mu.Unlock()

	r.signal()
}

// put must be called with mu held.
func (r *Registry[T]) put(shape Shape[T]) {
	tag := shape.Tag()
	if i, ok := r.index[tag]; ok {
		r.entries[i].shape = shape
		return
	}
	r.index[tag] = len(r.entries)
	r.entries = append(r.entries, entry[T]{tag: tag, shape: shape})
}

// Remove deletes the shape with the given tag. It reports whether a shape
// was removed; removing an absent tag does not request a redraw.
func (r *Registry[T]) Remove(tag T) bool {
	r.mu.Lock()
	i, ok := r.index[tag]
	if ok {
		delete(r.index, tag)
		r.entries = slices.Delete(r.entries, i, i+1)
		for j := i; j < len(r.entries); j++ {
			r.index[r.entries[j].tag] = j
		}
	}
	r.mu.Unlock()

	if ok {
		r.signal()
	}
	return ok
}

// Clear removes every shape and returns how many were removed.
func (r *Registry[T]) Clear() int {
	r.mu.Lock()
	n := len(r.entries)
	if n > 0 {
		r.entries = nil
		r.index = make(map[T]int)
	}
	r.mu.Unlock()

	if n > 0 {
		r.signal()
	}
	return n
}

// Get returns the shape registered under tag.
func (r *Registry[T]) Get(tag T) (Shape[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[tag]
	if !ok {
		return nil, false
	}
	return r.entries[i].shape, true
}

// Len returns the number of registered shapes.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshot returns a copy of the registered shapes in iteration order.
// Changing the returned slice does not affect the registry.
func (r *Registry[T]) Snapshot() []Shape[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	shapes := make([]Shape[T], len(r.entries))
	for i, e := range r.entries {
		shapes[i] = e.shape
	}
	return shapes
}

func (r *Registry[T]) signal() {
	if r.invalidate != nil {
		r.invalidate()
	}
}
