// File: sample/sample.go
// Package sample defines the fixed-capacity sample record and its pool,
// the busiest allocation path in the system. Grounded on hioload-ws's
// api.Buffer (a plain struct carrying a Pool/Releaser back-reference
// rather than an interface, to dodge interface boxing on the hot path)
// and pool.BufferPoolManager for the arena/acquire/release shape.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sample

import (
	"sync/atomic"

	"github.com/villas-go/node/signal"
)

// Flags is a bitset describing which Sample fields are meaningful.
type Flags uint8

const (
	HasSequence Flags = 1 << iota
	HasTSOrigin
	HasTSReceived
	HasData
	HasOffset
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Timestamp is a seconds+nanoseconds pair, matching the wire formats'
// two-field timestamp encoding.
type Timestamp struct {
	Sec  int64
	Nsec int64
}

// Sample is a fixed-capacity, reference-counted record of signal
// values plus sequence, timestamps and flags (spec.md §3 Sample).
type Sample struct {
	refcount atomic.Int32
	origin   *Pool

	Sequence   uint64
	TSOrigin   Timestamp
	TSReceived Timestamp
	Flags      Flags

	Length   int
	Capacity int
	Signals  *signal.List
	Data     []signal.Value
}

// Incref increments the reference count, used when a Sample is
// enqueued into a queue/consumer that must outlive the caller.
func (s *Sample) Incref() { s.refcount.Add(1) }

// Decref decrements the reference count. When it reaches zero the
// sample is returned to its originating pool (spec.md §4.1).
func (s *Sample) Decref() {
	if s.refcount.Add(-1) == 0 {
		if s.origin != nil {
			s.origin.release(s)
		}
	}
}

// Refcount reports the current reference count, so callers can check
// the "acquire never returns refcount != 1" invariant (§8).
func (s *Sample) Refcount() int32 { return s.refcount.Load() }

// reset restores a sample to its post-acquire state before it
// re-enters the freelist's visible rotation.
func (s *Sample) reset() {
	s.Sequence = 0
	s.TSOrigin = Timestamp{}
	s.TSReceived = Timestamp{}
	s.Flags = 0
	s.Length = 0
	for i := range s.Data {
		s.Data[i] = signal.Value{}
	}
}

// Copy copies min(dst.Capacity, src.Length) values plus the
// flag-bearing scalar fields from src into dst, per spec.md §4.1.
func Copy(dst, src *Sample) {
	n := src.Length
	if dst.Capacity < n {
		n = dst.Capacity
	}
	copy(dst.Data[:n], src.Data[:n])
	dst.Length = n
	dst.Sequence = src.Sequence
	dst.TSOrigin = src.TSOrigin
	dst.TSReceived = src.TSReceived
	dst.Flags = src.Flags
}
