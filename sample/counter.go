// File: sample/counter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sample

import "sync/atomic"

// atomicCounter is a relaxed-add int64 counter, matching hioload-ws's
// preference for atomic.Int64 stats fields over mutex-guarded ints.
type atomicCounter struct {
	v atomic.Int64
}

func (c *atomicCounter) add(delta int64) { c.v.Add(delta) }
func (c *atomicCounter) get() int64      { return c.v.Load() }
