// Package spsc provides lock-free hand-off cells between exactly one producer
// and one consumer, typically an interrupt handler and the main loop.
//
// Each side holds only its own end (Producer or Consumer), so the direction
// of ownership is visible in the types of the fields that hold them.
package spsc

import "sync/atomic"

// Cell is a single-slot mailbox. The full bit is the only rendezvous.
type Cell[T any] struct {
	full atomic.Bool
	v    T
}

// Full reports whether a value is waiting to be taken.
func (c *Cell[T]) Full() bool { return c.full.Load() }

// Reset empties the cell. Both sides must be quiescent.
func (c *Cell[T]) Reset() {
	var zero T
	c.v = zero
	c.full.Store(false)
}

// Ends splits the cell into its producer and consumer views.
func (c *Cell[T]) Ends() (Producer[T], Consumer[T]) {
	return Producer[T]{c}, Consumer[T]{c}
}

// Producer is the writing end of a Cell.
type Producer[T any] struct{ c *Cell[T] }

// Put stores v if the cell is empty and reports whether it did.
func (p Producer[T]) Put(v T) bool {
	if p.c.full.Load() {
		return false
	}
	p.c.v = v
	p.c.full.Store(true)
	return true
}

// Full reports whether the previous value is still pending.
func (p Producer[T]) Full() bool { return p.c.full.Load() }

// Consumer is the reading end of a Cell.
type Consumer[T any] struct{ c *Cell[T] }

// Take removes and returns the pending value, if any.
func (c Consumer[T]) Take() (v T, ok bool) {
	if !c.c.full.Load() {
		return v, false
	}
	v = c.c.v
	c.c.full.Store(false)
	return v, true
}

// Ring is a fixed-capacity queue. Push is called only by the producer and
// Pop only by the consumer. Storage is allocated once by NewRing.
type Ring[T any] struct {
	buf  []T
	mask uint32
	head atomic.Uint32 // next slot to pop, written by the consumer
	tail atomic.Uint32 // next slot to push, written by the producer
}

// NewRing allocates a ring holding size elements. size is rounded up to a power of two.
func NewRing[T any](size int) *Ring[T] {
	n := 1
	for n < size {
		n <<= 1
	}
	return &Ring[T]{buf: make([]T, n), mask: uint32(n - 1)}
}

// Cap returns the number of slots.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Len returns the number of queued elements.
func (r *Ring[T]) Len() int { return int(r.tail.Load() - r.head.Load()) }

// Push enqueues v. It returns false and leaves the ring unchanged when full.
func (r *Ring[T]) Push(v T) bool {
	tail := r.tail.Load()
	if tail-r.head.Load() == uint32(len(r.buf)) {
		return false
	}
	r.buf[tail&r.mask] = v
	r.tail.Store(tail + 1)
	return true
}

// Pop dequeues the oldest element.
func (r *Ring[T]) Pop() (v T, ok bool) {
	head := r.head.Load()
	if head == r.tail.Load() {
		return v, false
	}
	v = r.buf[head&r.mask]
	r.head.Store(head + 1)
	return v, true
}

// Reset drops every queued element. Both sides must be quiescent.
func (r *Ring[T]) Reset() {
	r.head.Store(r.tail.Load())
}
