// File: path/path_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package path

import (
	"os"
	"testing"
	"time"

	"github.com/villas-go/node/hook"
	"github.com/villas-go/node/mapping"
	"github.com/villas-go/node/node"
	"github.com/villas-go/node/nodes"
	"github.com/villas-go/node/sample"
	"github.com/villas-go/node/signal"
)

func startNode(t *testing.T, n interface {
	Parse(map[string]any) error
	Check() error
	Prepare() error
	Start() error
}, cfg map[string]any) {
	t.Helper()
	if err := n.Parse(cfg); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := n.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if err := n.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := n.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
}

// TestFastPathSingleSourceToSingleDestination drives a real Generator
// source through a Path's fast path into a MemNode destination and
// confirms the mapped value round-trips end to end.
func TestFastPathSingleSourceToSingleDestination(t *testing.T) {
	gen := nodes.NewGenerator("gen")
	startNode(t, gen, map[string]any{
		"signal":    "constant",
		"values":    1.0,
		"offset":    0.0,
		"amplitude": 7.0,
		"realtime":  false,
	})
	defer gen.Stop()

	sink := nodes.NewMemNode("sink")
	sink.SetSignals(gen.InSignals())
	startNode(t, sink, map[string]any{"capacity": 64.0})
	defer sink.Stop()

	entries, err := mapping.Parse([]string{"gen"})
	if err != nil {
		t.Fatalf("mapping.Parse: %v", err)
	}
	m := mapping.New(entries)

	p := New("test-path-fast", ModeAny)
	p.AddSource(gen, false)
	p.AddDestination(sink)
	p.Mapping = m
	p.Ingress = hook.NewChain()
	p.Egress = hook.NewChain()

	if err := p.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if p.polled() {
		t.Fatalf("expected single-source no-rate path to pick the fast path")
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	readDeadline := time.Now().Add(2 * time.Second)
	out := make([]*sample.Sample, 1)
	out[0] = &sample.Sample{}
	for time.Now().Before(readDeadline) {
		n, err := sink.Read(out)
		if err != nil {
			t.Fatalf("sink Read: %v", err)
		}
		if n == 1 {
			if out[0].Data[0].F != 7.0 {
				t.Fatalf("value = %v, want 7.0", out[0].Data[0].F)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for a sample to reach the destination")
}

// TestModeAllBarrierWaitsForEverySource exercises the polled
// multiplexer's ALL-mode barrier with two masked-off/unmasked sources:
// a remap must not fire until both unmasked sources have produced a
// fresh value since the last cycle.
func TestModeAllBarrierWaitsForEverySource(t *testing.T) {
	a := nodes.NewMemNode("a")
	b := nodes.NewMemNode("b")
	a.SetSignals(signal.NewList(signal.New("a0", "", signal.Float, signal.Value{})))
	b.SetSignals(signal.NewList(signal.New("b0", "", signal.Float, signal.Value{})))
	startNode(t, a, map[string]any{"capacity": 16.0})
	startNode(t, b, map[string]any{"capacity": 16.0})
	defer a.Stop()
	defer b.Stop()

	sink := nodes.NewMemNode("sink")
	startNode(t, sink, map[string]any{"capacity": 16.0})
	defer sink.Stop()

	entries, err := mapping.Parse([]string{"a", "b"})
	if err != nil {
		t.Fatalf("mapping.Parse: %v", err)
	}
	m := mapping.New(entries)

	p := New("test-path-all", ModeAll)
	p.AddSource(a, false)
	p.AddSource(b, false)
	p.AddDestination(sink)
	p.Mapping = m
	p.Ingress = hook.NewChain()
	p.Egress = hook.NewChain()

	if err := p.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if !p.polled() {
		t.Fatalf("expected a multi-source path to pick the polled multiplexer")
	}
	sink.SetSignals(p.Mapping.Signals())
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	// Only source "a" produces a value: no remap should reach sink yet.
	_, _ = a.Write([]*sample.Sample{{Sequence: 1, Length: 1, Data: []signal.Value{{F: 1}}}})
	time.Sleep(100 * time.Millisecond)
	out := make([]*sample.Sample, 1)
	out[0] = &sample.Sample{}
	if n, _ := sink.Read(out); n != 0 {
		t.Fatalf("expected no output before both sources produced a value, got %d", n)
	}

	// Now "b" produces too: the barrier should release one remap cycle.
	_, _ = b.Write([]*sample.Sample{{Sequence: 1, Length: 1, Data: []signal.Value{{F: 2}}}})

	readDeadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(readDeadline) {
		if n, err := sink.Read(out); err != nil {
			t.Fatalf("sink Read: %v", err)
		} else if n == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for the ALL-mode barrier to release a remap")
}

// TestEOFStopRequestsShutdown drives a File source configured with
// eof=stop through the fast path and confirms the worker recognizes
// the terminal io.EOF (node.Stopping), fires OnExhausted exactly once,
// and exits cleanly rather than looping forever on the "failed" read
// (spec.md §4.8).
func TestEOFStopRequestsShutdown(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "eof-stop-*.human")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := f.WriteString("0.000000000(1)\t42\n"); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	f.Close()

	src := nodes.NewFile("src")
	startNode(t, src, map[string]any{"uri": f.Name(), "format": "villas.human", "eof": "stop"})
	defer src.Stop()

	sig := signal.NewList(signal.New("v0", "", signal.Float, signal.Value{}))
	src.SetSignals(sig, sig)

	sink := nodes.NewMemNode("sink")
	sink.SetSignals(sig)
	startNode(t, sink, map[string]any{"capacity": 16.0})
	defer sink.Stop()

	entries, err := mapping.Parse([]string{"src"})
	if err != nil {
		t.Fatalf("mapping.Parse: %v", err)
	}

	p := New("test-path-eof-stop", ModeAny)
	p.AddSource(src, false)
	p.AddDestination(sink)
	p.Mapping = mapping.New(entries)
	p.Ingress = hook.NewChain()
	p.Egress = hook.NewChain()

	shutdown := make(chan struct{})
	p.OnExhausted = func() { close(shutdown) }

	if err := p.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	select {
	case <-shutdown:
	case <-time.After(2 * time.Second):
		t.Fatalf("OnExhausted was never called after source hit eof=stop")
	}

	deadline := time.Now().Add(2 * time.Second)
	for src.State() != node.Stopping && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := src.State(); got != node.Stopping {
		t.Fatalf("source state = %v, want Stopping", got)
	}
}

// TestReemitRetainsPayloadAcrossTicks exercises the fixed-rate re-emit
// path: a single sample is written, the source then goes idle, and
// every subsequent timer tick must re-dispatch the same payload rather
// than a sample the pool has already recycled out from under
// p.lastEmitted (the refcount bug remapWith/reemit used to have).
func TestReemitRetainsPayloadAcrossTicks(t *testing.T) {
	sig := signal.NewList(signal.New("v0", "", signal.Float, signal.Value{}))

	src := nodes.NewMemNode("src")
	src.SetSignals(sig)
	startNode(t, src, map[string]any{"capacity": 16.0})
	defer src.Stop()

	sink := nodes.NewMemNode("sink")
	sink.SetSignals(sig)
	startNode(t, sink, map[string]any{"capacity": 16.0})
	defer sink.Stop()

	entries, err := mapping.Parse([]string{"src"})
	if err != nil {
		t.Fatalf("mapping.Parse: %v", err)
	}

	p := New("test-path-reemit", ModeAny)
	p.AddSource(src, false)
	p.AddDestination(sink)
	p.Mapping = mapping.New(entries)
	p.RateHz = 20
	p.Ingress = hook.NewChain()
	p.Egress = hook.NewChain()

	if err := p.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if !p.polled() {
		t.Fatalf("expected a rate-limited path to pick the polled multiplexer")
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	if _, err := src.Write([]*sample.Sample{{Sequence: 1, Length: 1, Data: []signal.Value{{F: 42}}}}); err != nil {
		t.Fatalf("src.Write: %v", err)
	}

	out := make([]*sample.Sample, 1)
	out[0] = &sample.Sample{}
	seen := 0
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && seen < 10 {
		n, err := sink.Read(out)
		if err != nil {
			t.Fatalf("sink.Read: %v", err)
		}
		if n == 1 {
			if out[0].Data[0].F != 42.0 {
				t.Fatalf("re-emitted sample #%d carried %v, want 42.0 (stale/recycled pool memory)", seen, out[0].Data[0].F)
			}
			seen++
			continue
		}
		time.Sleep(5 * time.Millisecond)
	}
	if seen < 10 {
		t.Fatalf("only observed %d re-emitted samples within deadline, want at least 10", seen)
	}
}
