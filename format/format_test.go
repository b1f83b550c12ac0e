// File: format/format_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package format

import (
	"testing"

	"github.com/villas-go/node/sample"
	"github.com/villas-go/node/signal"
)

func testSignals() *signal.List {
	return signal.NewList(
		signal.New("v0", "", signal.Float, signal.Value{}),
		signal.New("v1", "", signal.Float, signal.Value{}),
	)
}

func testSample(seq uint64, v0, v1 float64) *sample.Sample {
	sigs := testSignals()
	return &sample.Sample{
		Sequence: seq,
		TSOrigin: sample.Timestamp{Sec: 100, Nsec: 200},
		Flags:    sample.HasSequence | sample.HasTSOrigin | sample.HasData,
		Capacity: 2,
		Length:   2,
		Signals:  sigs,
		Data:     []signal.Value{{F: v0}, {F: v1}},
	}
}

func TestHumanRoundTrip(t *testing.T) {
	h := NewHuman()
	s1 := testSample(0, 1.0, 2.0)
	s2 := testSample(1, 3.0, 4.0)
	buf := make([]byte, 4096)
	written, wbytes, err := h.Sprint(buf, []*sample.Sample{s1, s2}, 2)
	if err != nil {
		t.Fatalf("Sprint: %v", err)
	}
	if written != 2 {
		t.Fatalf("written = %d, want 2", written)
	}
	decoded, _, err := h.Sscan(buf[:wbytes], s1.Signals, 2)
	if err != nil {
		t.Fatalf("Sscan: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded = %d, want 2", len(decoded))
	}
	if decoded[0].Sequence != 0 || decoded[1].Sequence != 1 {
		t.Fatalf("sequences = %d,%d", decoded[0].Sequence, decoded[1].Sequence)
	}
	if decoded[0].Data[0].F != 1.0 || decoded[1].Data[1].F != 4.0 {
		t.Fatalf("values mismatch: %+v %+v", decoded[0].Data, decoded[1].Data)
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	b := NewBinary()
	s1 := testSample(7, 1.5, 2.5)
	buf := make([]byte, 4096)
	written, wbytes, err := b.Sprint(buf, []*sample.Sample{s1}, 1)
	if err != nil || written != 1 {
		t.Fatalf("Sprint: written=%d err=%v", written, err)
	}
	decoded, rbytes, err := b.Sscan(buf[:wbytes], s1.Signals, 1)
	if err != nil {
		t.Fatalf("Sscan: %v", err)
	}
	if rbytes != wbytes {
		t.Fatalf("rbytes=%d wbytes=%d", rbytes, wbytes)
	}
	if len(decoded) != 1 || decoded[0].Sequence != 7 {
		t.Fatalf("decoded = %+v", decoded)
	}
	if decoded[0].Data[0].F != 1.5 || decoded[0].Data[1].F != 2.5 {
		t.Fatalf("values mismatch: %+v", decoded[0].Data)
	}
}

func TestRawRoundTrip32BigFake(t *testing.T) {
	r, err := NewRaw(32, true, true)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	sigs := testSignals()
	s := &sample.Sample{
		Sequence: 235,
		TSOrigin: sample.Timestamp{Sec: 100, Nsec: 200},
		Flags:    sample.HasSequence | sample.HasTSOrigin | sample.HasData,
		Capacity: 2,
		Length:   2,
		Signals:  sigs,
		Data:     []signal.Value{{F: 0.1}, {F: 0.2}},
	}
	buf := make([]byte, 64)
	written, wbytes, err := r.Sprint(buf, []*sample.Sample{s}, 1)
	if err != nil || written != 1 {
		t.Fatalf("Sprint: written=%d err=%v", written, err)
	}
	if wbytes != 20 {
		t.Fatalf("wbytes = %d, want 20", wbytes)
	}
	decoded, _, err := r.Sscan(buf[:wbytes], sigs, 1)
	if err != nil || len(decoded) != 1 {
		t.Fatalf("Sscan: decoded=%d err=%v", len(decoded), err)
	}
	if decoded[0].Sequence != 235 {
		t.Fatalf("sequence = %d, want 235", decoded[0].Sequence)
	}
	if decoded[0].TSOrigin.Sec != 100 || decoded[0].TSOrigin.Nsec != 200 {
		t.Fatalf("ts = %+v", decoded[0].TSOrigin)
	}
	if float32(decoded[0].Data[0].F) != float32(0.1) || float32(decoded[0].Data[1].F) != float32(0.2) {
		t.Fatalf("data = %+v", decoded[0].Data)
	}
}

func TestRawRejects128Bit(t *testing.T) {
	if _, err := NewRaw(128, true, false); err == nil {
		t.Fatalf("expected error for bits=128")
	}
}

func TestRawRejectsEndianessAt8Bits(t *testing.T) {
	if _, err := NewRaw(8, true, false); err == nil {
		t.Fatalf("expected error for bits=8 with endianess set")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	j := NewJSON()
	s1 := testSample(0, 1.0, 2.0)
	buf := make([]byte, 4096)
	written, wbytes, err := j.Sprint(buf, []*sample.Sample{s1}, 1)
	if err != nil || written != 1 {
		t.Fatalf("Sprint: written=%d err=%v", written, err)
	}
	decoded, _, err := j.Sscan(buf[:wbytes], s1.Signals, 1)
	if err != nil || len(decoded) != 1 {
		t.Fatalf("Sscan: decoded=%d err=%v", len(decoded), err)
	}
	if decoded[0].Data[0].F != 1.0 || decoded[0].Data[1].F != 2.0 {
		t.Fatalf("data = %+v", decoded[0].Data)
	}
}

func TestDelimitedRoundTripCSV(t *testing.T) {
	d := NewDelimited(",")
	s1 := testSample(3, 9.0, 8.0)
	buf := make([]byte, 4096)
	written, wbytes, err := d.Sprint(buf, []*sample.Sample{s1}, 1)
	if err != nil || written != 1 {
		t.Fatalf("Sprint: written=%d err=%v", written, err)
	}
	decoded, _, err := d.Sscan(buf[:wbytes], s1.Signals, 1)
	if err != nil || len(decoded) != 1 {
		t.Fatalf("Sscan: decoded=%d err=%v", len(decoded), err)
	}
	if decoded[0].Sequence != 3 || decoded[0].Data[0].F != 9.0 {
		t.Fatalf("decoded = %+v", decoded[0])
	}
}

func TestSprintOverrunReportsErrOverrun(t *testing.T) {
	h := NewHuman()
	s1 := testSample(0, 1.0, 2.0)
	buf := make([]byte, 2)
	if _, _, err := h.Sprint(buf, []*sample.Sample{s1}, 1); err != ErrOverrun {
		t.Fatalf("err = %v, want ErrOverrun", err)
	}
}
