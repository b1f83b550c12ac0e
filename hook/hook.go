// File: hook/hook.go
// Package hook implements the per-Path sample processing chain:
// ordered, priority-sorted Hook instances a Path runs every sample
// batch through before handing it to its destinations, per spec.md
// §4.4. Grounded on hioload-ws's api.Handler + adapters.
// MiddlewareHandler chain-of-responsibility shape, generalized from a
// single any-payload Handle to a batch-of-*sample.Sample Process that
// can skip individual samples or halt the whole chain.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package hook

import "github.com/villas-go/node/sample"

// Reason reports what a Hook wants the Chain to do with the sample
// batch it was just given.
type Reason int

const (
	// OK means continue to the next hook.
	OK Reason = iota
	// SkipSample drops the current sample from the batch but keeps
	// processing the remaining samples through this and later hooks.
	SkipSample
	// StopProcessing halts the chain for the current batch; every
	// sample already accepted by earlier hooks is kept as-is.
	StopProcessing
	// Error aborts the chain and propagates the Hook's error upward.
	Error
)

func (r Reason) String() string {
	switch r {
	case OK:
		return "ok"
	case SkipSample:
		return "skip_sample"
	case StopProcessing:
		return "stop_processing"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Hook is one stage of a Path's processing chain. Process is called
// once per sample, in priority order across hooks and batch order
// within a hook's own pass over the batch — the same per-sample
// dispatch the original implementation uses rather than handing a
// hook the whole array at once.
type Hook interface {
	Name() string
	Priority() int
	Start() error
	Stop() error
	Process(s *sample.Sample) (Reason, error)
}

// Base provides no-op Start/Stop for hooks that need no lifecycle
// hooks of their own, the way many of the teacher's adapters embed a
// zero-value default rather than repeat empty methods.
type Base struct{}

func (Base) Start() error { return nil }
func (Base) Stop() error  { return nil }
