package core

import (
	"sync"

	"simcore/pkg/domain"
)

// Registry is a concurrency-safe keyed store for entities of one kind. All
// operations are atomic with respect to each other on the same instance; a
// single RWMutex covers insert, lookup, delete, enumeration, and field-level
// mutation through Update. Entities are cloned on the way in and out so
// callers never share memory with registry state.
type Registry[T any] struct {
	mu    sync.RWMutex
	kind  domain.EntityType
	items map[string]T
	order []string
	clone func(T) T
	idOf  func(T) string

	// onCommit, when set, runs after every successful mutation with the
	// registry lock released. Used for state checkpointing.
	onCommit func()
}

// NewRegistry constructs a registry for one entity kind. clone must deep-copy
// reference fields; idOf must return the entity's identifier.
func NewRegistry[T any](kind domain.EntityType, clone func(T) T, idOf func(T) string) *Registry[T] {
	return &Registry[T]{
		kind:  kind,
		items: make(map[string]T),
		clone: clone,
		idOf:  idOf,
	}
}

// SetOnCommit installs the post-mutation hook. Must be called before the
// registry is shared across goroutines.
func (r *Registry[T]) SetOnCommit(fn func()) { r.onCommit = fn }

func (r *Registry[T]) commit() {
	if r.onCommit != nil {
		r.onCommit()
	}
}

// Insert stores a new entity under its own identifier.
func (r *Registry[T]) Insert(v T) T {
	id := r.idOf(v)
	r.mu.Lock()
	r.items[id] = r.clone(v)
	r.order = append(r.order, id)
	r.mu.Unlock()
	r.commit()
	return v
}

// Get returns a copy of the entity, or NotFoundError if the ID is absent.
func (r *Registry[T]) Get(id string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[id]
	if !ok {
		var zero T
		return zero, domain.NotFoundError{Entity: r.kind, ID: id}
	}
	return r.clone(v), nil
}

// Update applies mutate to the stored entity under the registry lock and
// returns the updated copy. The mutation is discarded if mutate errors.
func (r *Registry[T]) Update(id string, mutate func(*T) error) (T, error) {
	r.mu.Lock()
	v, ok := r.items[id]
	if !ok {
		r.mu.Unlock()
		var zero T
		return zero, domain.NotFoundError{Entity: r.kind, ID: id}
	}
	current := r.clone(v)
	if err := mutate(&current); err != nil {
		r.mu.Unlock()
		var zero T
		return zero, err
	}
	r.items[id] = r.clone(current)
	r.mu.Unlock()
	r.commit()
	return current, nil
}

// Delete removes the entity, or returns NotFoundError if absent. Deleted
// identifiers are never reassigned (the allocator owns uniqueness).
func (r *Registry[T]) Delete(id string) error {
	r.mu.Lock()
	if _, ok := r.items[id]; !ok {
		r.mu.Unlock()
		return domain.NotFoundError{Entity: r.kind, ID: id}
	}
	delete(r.items, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
	r.commit()
	return nil
}

// List returns a snapshot of all entities in creation order.
func (r *Registry[T]) List() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.clone(r.items[id]))
	}
	return out
}

// Len returns the number of stored entities.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Export returns the registry contents in creation order, for checkpointing.
func (r *Registry[T]) Export() []T { return r.List() }

// Import replaces the registry contents with the provided entities, keeping
// their order as creation order. The commit hook does not fire.
func (r *Registry[T]) Import(items []T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[string]T, len(items))
	r.order = r.order[:0]
	for _, v := range items {
		id := r.idOf(v)
		r.items[id] = r.clone(v)
		r.order = append(r.order, id)
	}
}
