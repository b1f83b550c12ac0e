// File: hook/chain.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package hook

import (
	"sort"

	"github.com/villas-go/node/internal/coreerr"
	"github.com/villas-go/node/sample"
)

// Chain runs a batch of samples through an ordered set of Hooks.
// Hooks run in ascending Priority order; ties keep insertion order
// (spec.md §4.4), matching adapters.MiddlewareHandler's deterministic
// wrap-in-registration-order semantics but for a flat priority list
// instead of nested middleware.
type Chain struct {
	hooks   []Hook
	started bool
}

// NewChain builds a Chain, sorting hooks into execution order.
func NewChain(hooks ...Hook) *Chain {
	c := &Chain{hooks: append([]Hook(nil), hooks...)}
	c.sort()
	return c
}

// Add appends a hook and re-sorts the chain. Only valid before Start.
func (c *Chain) Add(h Hook) {
	c.hooks = append(c.hooks, h)
	c.sort()
}

func (c *Chain) sort() {
	sort.SliceStable(c.hooks, func(i, j int) bool {
		return c.hooks[i].Priority() < c.hooks[j].Priority()
	})
}

// Start calls Start on every hook in order. If one fails, the hooks
// already started are stopped again before the error is returned.
func (c *Chain) Start() error {
	for i, h := range c.hooks {
		if err := h.Start(); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = c.hooks[j].Stop()
			}
			return coreerr.Wrap(coreerr.KindRuntime, err, "hook: start failed for "+h.Name())
		}
	}
	c.started = true
	return nil
}

// Stop calls Stop on every hook in reverse start order, collecting the
// first error but continuing to stop the rest.
func (c *Chain) Stop() error {
	var first error
	for i := len(c.hooks) - 1; i >= 0; i-- {
		if err := c.hooks[i].Stop(); err != nil && first == nil {
			first = err
		}
	}
	c.started = false
	return first
}

// Process runs samples[:n] through every hook in order. A hook
// returning SkipSample for a given sample removes just that sample
// from the live batch (compacted in place) without invoking later
// hooks on it. StopProcessing halts the chain immediately, keeping
// whatever has survived so far, including the samples the stopping
// hook had not reached yet. Error aborts and returns the cause.
func (c *Chain) Process(samples []*sample.Sample, n int) (int, error) {
	for _, h := range c.hooks {
		out := 0
		stop := false
		for i := 0; i < n; i++ {
			s := samples[i]
			reason, err := h.Process(s)
			switch reason {
			case OK:
				samples[out] = s
				out++
			case SkipSample:
				s.Decref()
			case StopProcessing:
				samples[out] = s
				out++
				stop = true
			case Error:
				return 0, coreerr.Wrap(coreerr.KindRuntime, err, "hook: "+h.Name()+" failed")
			}
			if stop {
				for _, rest := range samples[i+1 : n] {
					samples[out] = rest
					out++
				}
				break
			}
		}
		n = out
		if stop {
			break
		}
	}
	return n, nil
}
