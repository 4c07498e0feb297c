package domain

import "encoding/json"

// Ring is a bounded FIFO buffer: pushing beyond capacity evicts the oldest
// element. Conversation context uses rings so per-session memory stays flat
// no matter how long a conversation runs.
type Ring[T any] struct {
	capacity int
	items    []T
}

// NewRing creates an empty ring with the given capacity (minimum 1).
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{capacity: capacity}
}

// RingFrom rebuilds a ring from stored items, keeping only the newest
// capacity-many entries.
func RingFrom[T any](capacity int, items []T) *Ring[T] {
	r := NewRing[T](capacity)
	for _, item := range items {
		r.Push(item)
	}
	return r
}

// Push appends v, evicting the oldest element when full.
func (r *Ring[T]) Push(v T) {
	r.items = append(r.items, v)
	if len(r.items) > r.capacity {
		r.items = r.items[1:]
	}
}

// Items returns the buffered elements oldest-first. The returned slice is a
// copy.
func (r *Ring[T]) Items() []T {
	return append([]T(nil), r.items...)
}

// Len returns the number of buffered elements.
func (r *Ring[T]) Len() int {
	return len(r.items)
}

// Last returns the most recently pushed element.
func (r *Ring[T]) Last() (T, bool) {
	var zero T
	if len(r.items) == 0 {
		return zero, false
	}
	return r.items[len(r.items)-1], true
}

// Capacity returns the fixed bound.
func (r *Ring[T]) Capacity() int {
	return r.capacity
}

// MarshalJSON serializes the buffered items oldest-first.
func (r *Ring[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.items)
}
