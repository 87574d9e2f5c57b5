package registry

import "sync"

// Table is a keyed store safe for concurrent readers
type Table[K comparable, V any] struct {
	data map[K]V
	mu   sync.RWMutex
}

// NewTable creates an empty table
func NewTable[K comparable, V any]() *Table[K, V] {
	return &Table[K, V]{
		data: make(map[K]V),
	}
}

// Add stores value under key, replacing any previous one
func (t *Table[K, V]) Add(key K, value V) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data[key] = value
}

// Get retrieves an item
func (t *Table[K, V]) Get(key K) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	value, exists := t.data[key]
	return value, exists
}

// Delete removes an item and reports whether it was present
func (t *Table[K, V]) Delete(key K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, exists := t.data[key]
	delete(t.data, key)
	return exists
}

// Len returns the number of items currently stored
func (t *Table[K, V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.data)
}
