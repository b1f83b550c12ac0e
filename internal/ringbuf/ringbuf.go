// File: internal/ringbuf/ringbuf.go
// Package ringbuf implements the bounded, power-of-two, lock-free MPMC
// ring buffer used by every fixed-capacity arena in this repository
// (the Sample Pool freelist, the signalled Queue backing store).
// Adapted from hioload-ws's core/concurrency/ring.go and
// lock_free_queue.go (Dmitry Vyukov's MPMC queue pattern): same
// sequence-number-per-cell CAS loop, same cache-line padding between
// head and tail to avoid false sharing.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ringbuf

import "sync/atomic"

const cacheLinePad = 64

type cell[T any] struct {
	sequence atomic.Uint64
	data     T
}

// Ring is a bounded lock-free MPMC FIFO of fixed power-of-two capacity.
type Ring[T any] struct {
	head uint64
	_    [cacheLinePad]byte
	tail uint64
	_    [cacheLinePad]byte
	mask uint64
	cells []cell[T]
}

// New allocates a Ring whose capacity is rounded up to the next power
// of two (minimum 2).
func New[T any](capacity int) *Ring[T] {
	if capacity < 2 {
		capacity = 2
	}
	size := 1
	for size < capacity {
		size <<= 1
	}
	r := &Ring[T]{
		mask:  uint64(size - 1),
		cells: make([]cell[T], size),
	}
	for i := range r.cells {
		r.cells[i].sequence.Store(uint64(i))
	}
	return r
}

// Cap returns the fixed buffer capacity (always a power of two).
func (r *Ring[T]) Cap() int { return len(r.cells) }

// Len returns an approximate count of items currently buffered.
func (r *Ring[T]) Len() int {
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail)
	return int(tail - head)
}

// Push enqueues val; returns false if the ring is full.
func (r *Ring[T]) Push(val T) bool {
	for {
		tail := atomic.LoadUint64(&r.tail)
		index := tail & r.mask
		c := &r.cells[index]
		seq := c.sequence.Load()
		dif := int64(seq) - int64(tail)

		switch {
		case dif == 0:
			if atomic.CompareAndSwapUint64(&r.tail, tail, tail+1) {
				c.data = val
				c.sequence.Store(tail + 1)
				return true
			}
		case dif < 0:
			return false // full
		default:
			// tail moved underneath us, retry
		}
	}
}

// Pop dequeues the oldest item; ok is false if the ring is empty.
func (r *Ring[T]) Pop() (item T, ok bool) {
	for {
		head := atomic.LoadUint64(&r.head)
		index := head & r.mask
		c := &r.cells[index]
		seq := c.sequence.Load()
		dif := int64(seq) - int64(head+1)

		switch {
		case dif == 0:
			if atomic.CompareAndSwapUint64(&r.head, head, head+1) {
				item = c.data
				var zero T
				c.data = zero
				c.sequence.Store(head + r.mask + 1)
				return item, true
			}
		case dif < 0:
			var zero T
			return zero, false // empty
		default:
			// head moved underneath us, retry
		}
	}
}
