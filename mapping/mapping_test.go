// File: mapping/mapping_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package mapping

import (
	"testing"

	"github.com/villas-go/node/sample"
	"github.com/villas-go/node/signal"
)

type fakeSource struct {
	name string
	sigs *signal.List
}

func (f *fakeSource) Name() string          { return f.name }
func (f *fakeSource) Signals() *signal.List { return f.sigs }

type fakeStats struct{ v float64 }

func (f *fakeStats) Value(node string, metric StatMetric) (float64, bool) { return f.v, true }

func twoFloatSignals() *signal.List {
	return signal.NewList(
		signal.New("v0", "", signal.Float, signal.Value{}),
		signal.New("v1", "", signal.Float, signal.Value{}),
	)
}

func TestParseAndPrepareDataEntry(t *testing.T) {
	entries, err := Parse([]string{"gen[0:2]", "gen.hdr.sequence", "gen.ts.origin.sec", "stats.gen.mean"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("len = %d, want 4", len(entries))
	}
	m := New(entries)
	sources := map[string]SignalSource{"gen": &fakeSource{name: "gen", sigs: twoFloatSignals()}}
	if err := m.Prepare(sources); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if m.Signals().Len() != 5 {
		t.Fatalf("out signals = %d, want 5", m.Signals().Len())
	}

	src := &sample.Sample{
		Sequence: 42,
		TSOrigin: sample.Timestamp{Sec: 7, Nsec: 9},
		Length:   2,
		Signals:  twoFloatSignals(),
		Data:     []signal.Value{{F: 1.5}, {F: 2.5}},
	}
	dst := &sample.Sample{}
	if err := m.Remap(dst, map[string]*sample.Sample{"gen": src}, &fakeStats{v: 3.25}); err != nil {
		t.Fatalf("Remap: %v", err)
	}
	if dst.Length != 5 {
		t.Fatalf("dst.Length = %d, want 5", dst.Length)
	}
	if dst.Data[0].F != 1.5 || dst.Data[1].F != 2.5 {
		t.Fatalf("data copy mismatch: %+v", dst.Data[:2])
	}
	if dst.Data[2].I != 42 {
		t.Fatalf("sequence copy = %d, want 42", dst.Data[2].I)
	}
	if dst.Data[3].I != 7 {
		t.Fatalf("ts.origin.sec copy = %d, want 7", dst.Data[3].I)
	}
}

func TestPrepareRejectsOverlappingDataEntries(t *testing.T) {
	entries, err := Parse([]string{"gen[0:2]", "gen[1:1]"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m := New(entries)
	sources := map[string]SignalSource{"gen": &fakeSource{name: "gen", sigs: twoFloatSignals()}}
	if err := m.Prepare(sources); err == nil {
		t.Fatalf("expected overlap error")
	}
}

func TestPrepareRejectsUnknownNode(t *testing.T) {
	entries, err := Parse([]string{"ghost[0:1]"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m := New(entries)
	if err := m.Prepare(map[string]SignalSource{}); err == nil {
		t.Fatalf("expected unknown node error")
	}
}

func TestWholeNodeReferenceResolvesLength(t *testing.T) {
	entries, err := Parse([]string{"gen"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m := New(entries)
	sources := map[string]SignalSource{"gen": &fakeSource{name: "gen", sigs: twoFloatSignals()}}
	if err := m.Prepare(sources); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if entries[0].Length != 2 {
		t.Fatalf("resolved length = %d, want 2", entries[0].Length)
	}
}
