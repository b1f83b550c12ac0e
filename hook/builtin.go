// File: hook/builtin.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Builtin hooks, per spec.md §4.4: a monotonic-sequence gate, a
// timestamp filler, a length-mismatch guard, and a stats collector.
// The supervisor installs the sequence, stats and timestamp hooks on a
// path only when its builtin_hooks option is set; it never installs
// DropHook. Grounded on
// original_source/lib/hooks/stats.cpp and sequence-gap detection logic
// referenced by lib/hooks.

package hook

import (
	"time"

	"github.com/villas-go/node/internal/observability"
	"github.com/villas-go/node/sample"
)

// SequenceHook drops samples whose Sequence does not strictly increase
// relative to the last accepted sample, logging a rate-limited warning
// on each regression or duplicate (spec.md §4.4 edge case:
// out-of-order input). Forward gaps are accepted without a warning.
type SequenceHook struct {
	Base
	priority int
	last     uint64
	haveLast bool
	log      *observability.RateLimited
}

// NewSequenceHook constructs the hook at the given chain priority.
func NewSequenceHook(priority int, logger *observability.Logger) *SequenceHook {
	return &SequenceHook{priority: priority, log: observability.NewRateLimited(logger, time.Second)}
}

func (h *SequenceHook) Name() string  { return "sequence" }
func (h *SequenceHook) Priority() int { return h.priority }

func (h *SequenceHook) Process(s *sample.Sample) (Reason, error) {
	if h.haveLast && s.Sequence <= h.last {
		h.log.Warn("sequence", "out-of-order or duplicate sample dropped", map[string]any{"sequence": s.Sequence, "last": h.last})
		return SkipSample, nil
	}
	h.last = s.Sequence
	h.haveLast = true
	return OK, nil
}

// TimestampHook fills TSReceived with the current wall-clock time for
// any sample that arrives without one set.
type TimestampHook struct {
	Base
	priority int
	now      func() time.Time
}

// NewTimestampHook constructs the hook; now defaults to time.Now.
func NewTimestampHook(priority int) *TimestampHook {
	return &TimestampHook{priority: priority, now: time.Now}
}

func (h *TimestampHook) Name() string  { return "timestamp" }
func (h *TimestampHook) Priority() int { return h.priority }

func (h *TimestampHook) Process(s *sample.Sample) (Reason, error) {
	if s.Flags&sample.HasTSReceived == 0 {
		t := h.now()
		s.TSReceived = sample.Timestamp{Sec: t.Unix(), Nsec: int64(t.Nanosecond())}
		s.Flags |= sample.HasTSReceived
	}
	return OK, nil
}

// DropHook rejects samples whose Length does not match the expected
// signal count, guarding downstream mapping/format code against
// malformed input (spec.md §4.4 edge case: length mismatch).
type DropHook struct {
	Base
	priority int
	expected int
	log      *observability.RateLimited
}

// NewDropHook constructs the hook with the expected sample length.
func NewDropHook(priority, expected int, logger *observability.Logger) *DropHook {
	return &DropHook{priority: priority, expected: expected, log: observability.NewRateLimited(logger, time.Second)}
}

func (h *DropHook) Name() string  { return "drop" }
func (h *DropHook) Priority() int { return h.priority }

func (h *DropHook) Process(s *sample.Sample) (Reason, error) {
	if s.Length != h.expected {
		h.log.Warn("drop", "sample length mismatch dropped", map[string]any{"length": s.Length, "expected": h.expected})
		return SkipSample, nil
	}
	return OK, nil
}

// StatsRecorder receives per-sample latency observations; the
// concrete implementation lives in the stats package and is injected
// here to avoid a dependency cycle.
type StatsRecorder interface {
	Observe(metric string, value float64)
}

// StatsHook feeds the owning Path/node's end-to-end latency (received
// minus origin timestamp) into a StatsRecorder for the total/last/
// lowest/highest/mean/variance/stddev tracking spec.md §3 describes.
type StatsHook struct {
	Base
	priority int
	node     string
	recorder StatsRecorder
}

// NewStatsHook constructs the hook bound to a node name for labeling.
func NewStatsHook(priority int, node string, recorder StatsRecorder) *StatsHook {
	return &StatsHook{priority: priority, node: node, recorder: recorder}
}

func (h *StatsHook) Name() string  { return "stats" }
func (h *StatsHook) Priority() int { return h.priority }

func (h *StatsHook) Process(s *sample.Sample) (Reason, error) {
	if s.Flags&sample.HasTSOrigin != 0 && s.Flags&sample.HasTSReceived != 0 {
		origin := float64(s.TSOrigin.Sec) + float64(s.TSOrigin.Nsec)/1e9
		received := float64(s.TSReceived.Sec) + float64(s.TSReceived.Nsec)/1e9
		h.recorder.Observe(h.node+".owd", received-origin)
	}
	return OK, nil
}
