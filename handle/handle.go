// Package handle provides reference counted ownership for opaque host values
// and a generic id table for handing such values to a guest.
package handle

import (
	"errors"
	"sync/atomic"
)

// ErrReleased is the panic value raised when a reference is released more
// times than it was retained.
var ErrReleased = errors.New("handle: release of a dead reference")

// Handle is an opaque, reference counted value.
//
// Retain registers one additional owner and returns the value that owner
// must later pass to Release. Release drops exactly one ownership.
type Handle interface {
	Retain() Handle
	Release()
}

// Ref[T] is a reference counted cell holding a value of type T.
// The release function runs once, when the last owner releases it.
// It is safe for concurrent use.
type Ref[T any] struct {
	value   T
	refs    atomic.Int64
	release func(T)
}

// New creates a Ref with a single owner, the caller.
func New[T any](value T, release func(T)) *Ref[T] {
	r := &Ref[T]{value: value, release: release}
	r.refs.Store(1)
	return r
}

// Value returns the wrapped value.
func (r *Ref[T]) Value() T {
	return r.value
}

// Refs reports the current number of owners.
func (r *Ref[T]) Refs() int64 {
	return r.refs.Load()
}

// Alive reports whether at least one owner remains.
func (r *Ref[T]) Alive() bool {
	return r.refs.Load() > 0
}

// Retain implements Handle.
func (r *Ref[T]) Retain() Handle {
	if r.refs.Add(1) <= 1 {
		panic(ErrReleased)
	}
	return r
}

// Release implements Handle.
func (r *Ref[T]) Release() {
	switch n := r.refs.Add(-1); {
	case n == 0:
		if r.release != nil {
			r.release(r.value)
		}
	case n < 0:
		panic(ErrReleased)
	}
}
