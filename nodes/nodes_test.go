// File: nodes/nodes_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package nodes

import (
	"testing"

	"github.com/villas-go/node/sample"
	"github.com/villas-go/node/signal"
)

func lifecycle(t *testing.T, n interface {
	Parse(map[string]any) error
	Check() error
	Prepare() error
	Start() error
	Stop() error
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

func TestGeneratorConstantWaveform(t *testing.T) {
	g := NewGenerator("gen")
	lifecycle(t, g, map[string]any{
		"signal":   "constant",
		"values":   1.0,
		"offset":   2.0,
		"amplitude": 3.0,
		"realtime": false,
	})
	defer g.Stop()

	out := make([]*sample.Sample, 1)
	out[0] = &sample.Sample{}
	n, err := g.Read(out)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 1 {
		t.Fatalf("n = %d, want 1", n)
	}
	if out[0].Data[0].F != 5.0 {
		t.Fatalf("value = %v, want 5.0", out[0].Data[0].F)
	}
	if out[0].Sequence != 0 {
		t.Fatalf("sequence = %d, want 0", out[0].Sequence)
	}
}

func TestGeneratorRespectsLimit(t *testing.T) {
	g := NewGenerator("gen")
	lifecycle(t, g, map[string]any{
		"signal":   "counter",
		"values":   1.0,
		"realtime": false,
		"limit":    1.0,
	})
	defer g.Stop()

	out := []*sample.Sample{{}}
	if _, err := g.Read(out); err != nil {
		t.Fatalf("first Read: %v", err)
	}
	if _, err := g.Read(out); err == nil {
		t.Fatalf("expected limit error on second Read")
	}
}

func TestMemNodeLoopback(t *testing.T) {
	m := NewMemNode("loop")
	m.SetSignals(signal.NewList(signal.New("v0", "", signal.Float, signal.Value{})))
	lifecycle(t, m, map[string]any{"capacity": 16.0})
	defer m.Stop()

	in := &sample.Sample{Sequence: 7, Length: 1, Data: []signal.Value{{F: 1.5}}}
	if n, err := m.Write([]*sample.Sample{in}); err != nil || n != 1 {
		t.Fatalf("Write: n=%d err=%v", n, err)
	}

	out := []*sample.Sample{{}}
	n, err := m.Read(out)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 1 {
		t.Fatalf("n = %d, want 1", n)
	}
	if out[0].Sequence != 7 || out[0].Data[0].F != 1.5 {
		t.Fatalf("round-trip mismatch: %+v", out[0])
	}
}
