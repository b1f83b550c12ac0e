// File: hook/hook_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package hook

import (
	"testing"

	"github.com/villas-go/node/internal/observability"
	"github.com/villas-go/node/sample"
	"github.com/villas-go/node/signal"
)

func newTestSample(seq uint64, n int) *sample.Sample {
	vals := make([]signal.Value, n)
	return &sample.Sample{Sequence: seq, Length: n, Capacity: n, Data: vals}
}

func TestSequenceHookDropsOutOfOrder(t *testing.T) {
	logger := observability.New(observability.Options{})
	h := NewSequenceHook(0, logger)
	c := NewChain(h)

	samples := []*sample.Sample{newTestSample(1, 1), newTestSample(0, 1), newTestSample(2, 1)}
	n, err := c.Process(samples, len(samples))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
	if samples[0].Sequence != 1 || samples[1].Sequence != 2 {
		t.Fatalf("surviving sequences = %d,%d", samples[0].Sequence, samples[1].Sequence)
	}
}

func TestDropHookRejectsLengthMismatch(t *testing.T) {
	logger := observability.New(observability.Options{})
	h := NewDropHook(0, 2, logger)
	c := NewChain(h)

	samples := []*sample.Sample{newTestSample(0, 2), newTestSample(1, 3)}
	n, err := c.Process(samples, len(samples))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if n != 1 {
		t.Fatalf("n = %d, want 1", n)
	}
	if samples[0].Length != 2 {
		t.Fatalf("surviving sample length = %d, want 2", samples[0].Length)
	}
}

func TestTimestampHookFillsReceived(t *testing.T) {
	h := NewTimestampHook(0)
	s := newTestSample(0, 1)
	reason, err := h.Process(s)
	if err != nil || reason != OK {
		t.Fatalf("Process: reason=%v err=%v", reason, err)
	}
	if s.Flags&sample.HasTSReceived == 0 {
		t.Fatalf("expected HasTSReceived flag set")
	}
}

type recordingRecorder struct{ observed []float64 }

func (r *recordingRecorder) Observe(metric string, value float64) {
	r.observed = append(r.observed, value)
}

func TestStatsHookObservesOneWayDelay(t *testing.T) {
	rec := &recordingRecorder{}
	h := NewStatsHook(0, "gen", rec)
	s := newTestSample(0, 1)
	s.TSOrigin = sample.Timestamp{Sec: 100, Nsec: 0}
	s.TSReceived = sample.Timestamp{Sec: 101, Nsec: 0}
	s.Flags = sample.HasTSOrigin | sample.HasTSReceived
	if _, err := h.Process(s); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(rec.observed) != 1 || rec.observed[0] != 1.0 {
		t.Fatalf("observed = %+v, want [1.0]", rec.observed)
	}
}

func TestChainOrdersByPriority(t *testing.T) {
	var order []string
	mk := func(name string, pri int) Hook { return &orderHook{name: name, pri: pri, order: &order} }
	c := NewChain(mk("b", 10), mk("a", 1))
	s := newTestSample(0, 1)
	if _, err := c.Process([]*sample.Sample{s}, 1); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("order = %v, want [a b]", order)
	}
}

type orderHook struct {
	Base
	name  string
	pri   int
	order *[]string
}

func (h *orderHook) Name() string  { return h.name }
func (h *orderHook) Priority() int { return h.pri }
func (h *orderHook) Process(s *sample.Sample) (Reason, error) {
	*h.order = append(*h.order, h.name)
	return OK, nil
}
