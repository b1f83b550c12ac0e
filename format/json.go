// File: format/json.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// json: newline-delimited {sequence, ts_origin, ts_received, data:[...]}
// records, per spec.md §6.

package format

import (
	"bytes"
	"encoding/json"

	"github.com/villas-go/node/sample"
	"github.com/villas-go/node/signal"
)

// JSON implements the "json" Format.
type JSON struct{}

// NewJSON constructs the json codec.
func NewJSON() *JSON { return &JSON{} }

func (JSON) Name() string { return "json" }

type wireTimestamp struct {
	Sec  int64 `json:"sec"`
	Nsec int64 `json:"nsec"`
}

type wireSample struct {
	Sequence   uint64        `json:"sequence"`
	TSOrigin   wireTimestamp `json:"ts_origin"`
	TSReceived wireTimestamp `json:"ts_received"`
	Data       []float64     `json:"data"`
}

func toWire(s *sample.Sample) wireSample {
	data := make([]float64, s.Length)
	for i := 0; i < s.Length; i++ {
		t := s.Signals.At(i).Type
		v := s.Data[i]
		switch t {
		case signal.Boolean:
			if v.B {
				data[i] = 1
			}
		case signal.Integer:
			data[i] = float64(v.I)
		case signal.Complex:
			data[i] = v.Re
		default:
			data[i] = v.F
		}
	}
	return wireSample{
		Sequence:   s.Sequence,
		TSOrigin:   wireTimestamp{s.TSOrigin.Sec, s.TSOrigin.Nsec},
		TSReceived: wireTimestamp{s.TSReceived.Sec, s.TSReceived.Nsec},
		Data:       data,
	}
}

func fromWire(w wireSample, signals *signal.List) *sample.Sample {
	data := make([]signal.Value, len(w.Data))
	for i, f := range w.Data {
		t := signal.Float
		if signals != nil && i < signals.Len() {
			t = signals.At(i).Type
		}
		switch t {
		case signal.Boolean:
			data[i] = signal.Value{B: f != 0}
		case signal.Integer:
			data[i] = signal.Value{I: int64(f)}
		case signal.Complex:
			data[i] = signal.Value{Re: f}
		default:
			data[i] = signal.Value{F: f}
		}
	}
	return &sample.Sample{
		Sequence:   w.Sequence,
		TSOrigin:   sample.Timestamp{Sec: w.TSOrigin.Sec, Nsec: w.TSOrigin.Nsec},
		TSReceived: sample.Timestamp{Sec: w.TSReceived.Sec, Nsec: w.TSReceived.Nsec},
		Flags:      sample.HasSequence | sample.HasTSOrigin | sample.HasTSReceived | sample.HasData,
		Capacity:   len(w.Data),
		Length:     len(w.Data),
		Signals:    signals,
		Data:       data,
	}
}

func (JSON) Sprint(buf []byte, samples []*sample.Sample, n int) (int, int, error) {
	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	count := n
	if count > len(samples) {
		count = len(samples)
	}
	for i := 0; i < count; i++ {
		if err := enc.Encode(toWire(samples[i])); err != nil {
			return i, out.Len(), err
		}
	}
	if out.Len() > len(buf) {
		return 0, 0, ErrOverrun
	}
	return count, copy(buf, out.Bytes()), nil
}

func (JSON) Sscan(buf []byte, signals *signal.List, n int) ([]*sample.Sample, int, error) {
	dec := json.NewDecoder(bytes.NewReader(buf))
	var out []*sample.Sample
	for len(out) < n {
		var w wireSample
		before := dec.InputOffset()
		if err := dec.Decode(&w); err != nil {
			if err.Error() == "EOF" {
				break
			}
			if before == 0 {
				return out, 0, ErrInvalid
			}
			break
		}
		out = append(out, fromWire(w, signals))
	}
	return out, int(dec.InputOffset()), nil
}
