package handle

import (
	"sync"
)

// Table[T] is a generic, thread-safe id table for host-owned resources of a
// specific type T. Ids start at 1; 0 is never handed out so a guest can use
// it as "no resource".
type Table[T any] struct {
	mu         sync.RWMutex
	items      map[uint32]T
	nextID     uint32
	destructor func(T)
}

// NewTable creates a table. The optional destructor runs for every item
// that leaves the table through Remove or Close.
func NewTable[T any](destructor func(T)) *Table[T] {
	return &Table[T]{
		items:      make(map[uint32]T),
		destructor: destructor,
	}
}

// Add stores a new resource and returns its id.
func (t *Table[T]) Add(resource T) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	if t.nextID == 0 {
		t.nextID = 1
	}
	for {
		if _, used := t.items[t.nextID]; !used {
			break
		}
		t.nextID++
	}
	t.items[t.nextID] = resource
	return t.nextID
}

// Get retrieves a resource by id.
func (t *Table[T]) Get(id uint32) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	res, ok := t.items[id]
	return res, ok
}

// Remove deletes the resource with the given id and runs the destructor.
// It reports whether the id was present.
func (t *Table[T]) Remove(id uint32) bool {
	t.mu.Lock()
	res, ok := t.items[id]
	if ok {
		delete(t.items, id)
	}
	t.mu.Unlock()

	// destructor runs outside the lock, it may call back into the table
	if ok && t.destructor != nil {
		t.destructor(res)
	}
	return ok
}

// Take removes the resource with the given id without running the
// destructor and returns it.
func (t *Table[T]) Take(id uint32) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	res, ok := t.items[id]
	if ok {
		delete(t.items, id)
	}
	return res, ok
}

// Len returns the number of live resources.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

// Range calls f for every resource until f returns false.
// f must not modify the table.
func (t *Table[T]) Range(f func(id uint32, resource T) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for id, res := range t.items {
		if !f(id, res) {
			break
		}
	}
}

// Close removes every resource, running the destructor for each.
func (t *Table[T]) Close() {
	t.mu.Lock()
	items := t.items
	t.items = make(map[uint32]T)
	t.mu.Unlock()

	if t.destructor == nil {
		return
	}
	for _, res := range items {
		t.destructor(res)
	}
}
