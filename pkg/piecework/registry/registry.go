package registry

import (
	"iter"
	"slices"
	"sync"
)

type slot[K comparable, V any] struct {
	key K
	val V
}

// Registry maps keys to values and remembers the order keys were first
// stored. The zero value is not usable; call New.
type Registry[K comparable, V any] struct {
	mu    sync.RWMutex
	index map[K]int
	slots []slot[K, V]
}

// New returns an empty registry.
func New[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{index: make(map[K]int)}
}

// Register stores value under key. An existing key keeps its position.
func (r *Registry[K, V]) Register(key K, value V) {
	r.Replace(key, value)
}

// Replace stores value under key and returns the value it displaced.
func (r *Registry[K, V]) Replace(key K, value V) (prev V, replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.index[key]; ok {
		prev = r.slots[i].val
		r.slots[i].val = value
		return prev, true
	}
	r.index[key] = len(r.slots)
	r.slots = append(r.slots, slot[K, V]{key: key, val: value})
	return prev, false
}

// Get returns the value stored under key.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i, ok := r.index[key]; ok {
		return r.slots[i].val, true
	}
	var zero V
	return zero, false
}

// Has reports whether key is stored.
func (r *Registry[K, V]) Has(key K) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[key]
	return ok
}

// Delete removes key and returns the value it held. Later keys shift up
// one position.
func (r *Registry[K, V]) Delete(key K) (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	v := r.slots[i].val
	r.slots = slices.Delete(r.slots, i, i+1)
	delete(r.index, key)
	for j := i; j < len(r.slots); j++ {
		r.index[r.slots[j].key] = j
	}
	return v, true
}

// Len returns the number of stored keys.
func (r *Registry[K, V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots)
}

func (r *Registry[K, V]) snapshot() []slot[K, V] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.slots)
}

// Keys returns the keys in order.
func (r *Registry[K, V]) Keys() []K {
	snap := r.snapshot()
	keys := make([]K, len(snap))
	for i, s := range snap {
		keys[i] = s.key
	}
	return keys
}

// Values returns the values in key order.
func (r *Registry[K, V]) Values() []V {
	snap := r.snapshot()
	vals := make([]V, len(snap))
	for i, s := range snap {
		vals[i] = s.val
	}
	return vals
}

// All yields every entry in order. It walks a snapshot taken when
// iteration starts, so the loop body may modify the registry.
func (r *Registry[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, s := range r.snapshot() {
			if !yield(s.key, s.val) {
				return
			}
		}
	}
}
