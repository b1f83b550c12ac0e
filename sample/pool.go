// File: sample/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pool is a fixed-capacity arena of uniform-capacity Samples drawn from
// a caller-selected MemoryType. It never allocates in steady state:
// Acquire pulls from a lock-free freelist (internal/ringbuf, the same
// Vyukov MPMC ring hioload-ws's core/concurrency package uses for its
// executor backlog) and reports underrun rather than blocking or
// growing, per spec.md §4.1 / §4.8.

package sample

import (
	"github.com/villas-go/node/internal/ringbuf"
	"github.com/villas-go/node/signal"
)

// MemoryType selects the backing arena for a Pool's Samples, mirroring
// hioload-ws's NUMA-aware pool.BufferPoolManager node selection. Only
// MemoryHeap is implemented by this repository; MemoryHugepage and
// MemoryDevice are accepted to keep the Pool contract stable for
// FPGA/GPU-backed pools (spec.md §9 "shared device memory"), but
// device-mapped allocation is a peripheral driver concern out of core
// scope and simply falls back to heap here.
type MemoryType int

const (
	MemoryHeap MemoryType = iota
	MemoryHugepage
	MemoryDevice
)

// Stats summarizes a Pool's steady-state behavior.
type Stats struct {
	Capacity  int
	InUse     int64
	Underruns int64
}

// Pool is a fixed-capacity arena of Samples with uniform Capacity.
type Pool struct {
	signals    *signal.List
	sampleCap  int
	memType    MemoryType
	freelist   *ringbuf.Ring[*Sample]
	underruns  atomicCounter
	inUse      atomicCounter
	total      int
}

// NewPool preallocates n samples of the given per-sample capacity,
// all sharing signals (the node's/path's SignalList).
func NewPool(n, sampleCapacity int, signals *signal.List, memType MemoryType) *Pool {
	p := &Pool{
		signals:   signals,
		sampleCap: sampleCapacity,
		memType:   memType,
		freelist:  ringbuf.New[*Sample](n),
		total:     n,
	}
	for i := 0; i < n; i++ {
		s := &Sample{
			origin:   p,
			Capacity: sampleCapacity,
			Signals:  signals,
			Data:     make([]signal.Value, sampleCapacity),
		}
		p.freelist.Push(s)
	}
	return p
}

// Acquire pulls up to count samples from the freelist. It never
// blocks: if the freelist underruns, the returned slice is shorter
// than count and Stats.Underruns is incremented once per miss.
func (p *Pool) Acquire(count int) []*Sample {
	out := make([]*Sample, 0, count)
	for i := 0; i < count; i++ {
		s, ok := p.freelist.Pop()
		if !ok {
			p.underruns.add(1)
			break
		}
		s.refcount.Store(1)
		p.inUse.add(1)
		out = append(out, s)
	}
	return out
}

// AcquireOne is a convenience wrapper for the common single-sample case.
func (p *Pool) AcquireOne() (*Sample, bool) {
	s := p.Acquire(1)
	if len(s) == 0 {
		return nil, false
	}
	return s[0], true
}

// release returns s to the freelist once its refcount has reached
// zero. Called exclusively from Sample.Decref.
func (p *Pool) release(s *Sample) {
	s.reset()
	p.inUse.add(-1)
	p.freelist.Push(s)
}

// Stats reports a point-in-time snapshot.
func (p *Pool) Stats() Stats {
	return Stats{
		Capacity:  p.total,
		InUse:     p.inUse.get(),
		Underruns: p.underruns.get(),
	}
}

// SampleCapacity returns the fixed per-sample capacity of this pool.
func (p *Pool) SampleCapacity() int { return p.sampleCap }
