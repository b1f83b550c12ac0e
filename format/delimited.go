// File: format/delimited.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// csv/tsv: one record per line, "sequence,sec,nsec,value0,value1,..."
// (or tab-separated for tsv), a structurally obvious mapping per
// spec.md §6.

package format

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/villas-go/node/sample"
	"github.com/villas-go/node/signal"
)

// Delimited implements csv/tsv, distinguished only by separator.
type Delimited struct {
	name string
	sep  byte
}

// NewDelimited returns the "csv" format for the given separator.
func NewDelimited(sep string) *Delimited {
	return &Delimited{name: "csv", sep: sep[0]}
}

// NewDelimitedNamed returns a Delimited format registered under name.
func NewDelimitedNamed(name string, sep byte) *Delimited {
	return &Delimited{name: name, sep: sep}
}

func (d *Delimited) Name() string { return d.name }

func (d *Delimited) Sprint(buf []byte, samples []*sample.Sample, n int) (int, int, error) {
	var out bytes.Buffer
	count := n
	if count > len(samples) {
		count = len(samples)
	}
	sep := string(d.sep)
	for i := 0; i < count; i++ {
		s := samples[i]
		fmt.Fprintf(&out, "%d%s%d%s%d", s.Sequence, sep, s.TSOrigin.Sec, sep, s.TSOrigin.Nsec)
		for j := 0; j < s.Length; j++ {
			out.WriteString(sep)
			writeHumanValue(&out, s.Signals.At(j).Type, s.Data[j])
		}
		out.WriteByte('\n')
	}
	if out.Len() > len(buf) {
		return 0, 0, ErrOverrun
	}
	return count, copy(buf, out.Bytes()), nil
}

func (d *Delimited) Sscan(buf []byte, signals *signal.List, n int) ([]*sample.Sample, int, error) {
	lines := strings.Split(string(buf), "\n")
	var out []*sample.Sample
	consumed := 0
	sep := string(d.sep)
	for _, line := range lines {
		if len(out) >= n {
			break
		}
		lineBytes := len(line) + 1
		if line == "" {
			consumed += lineBytes
			continue
		}
		fields := strings.Split(line, sep)
		if len(fields) < 3 {
			return out, consumed, ErrInvalid
		}
		seq, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return out, consumed, ErrInvalid
		}
		sec, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return out, consumed, ErrInvalid
		}
		nsec, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return out, consumed, ErrInvalid
		}
		values := fields[3:]
		data := make([]signal.Value, len(values))
		for i, raw := range values {
			t := signal.Float
			if signals != nil && i < signals.Len() {
				t = signals.At(i).Type
			}
			v, err := parseHumanValue(raw, t)
			if err != nil {
				return out, consumed, err
			}
			data[i] = v
		}
		out = append(out, &sample.Sample{
			Sequence:   seq,
			TSOrigin:   sample.Timestamp{Sec: sec, Nsec: nsec},
			Flags:      sample.HasSequence | sample.HasTSOrigin | sample.HasData,
			Capacity:   len(values),
			Length:     len(values),
			Signals:    signals,
			Data:       data,
		})
		consumed += lineBytes
	}
	if consumed > len(buf) {
		consumed = len(buf)
	}
	return out, consumed, nil
}
