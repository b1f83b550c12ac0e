// File: format/human.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// villas.human: one record per line,
// "ts_origin_sec.ts_origin_nsec(sequence)\tvalue0\tvalue1..."
// complex values rendered "a+bi". Reproduces the origin timestamp,
// sequence and values (the received timestamp is not part of the
// line), and is the reference format for the round-trip property of
// spec.md §8.

package format

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/villas-go/node/sample"
	"github.com/villas-go/node/signal"
)

// Human implements the villas.human textual Format.
type Human struct{}

// NewHuman constructs the villas.human codec.
func NewHuman() *Human { return &Human{} }

func (Human) Name() string { return "villas.human" }

func (Human) Sprint(buf []byte, samples []*sample.Sample, n int) (int, int, error) {
	var out bytes.Buffer
	count := n
	if count > len(samples) {
		count = len(samples)
	}
	for i := 0; i < count; i++ {
		s := samples[i]
		fmt.Fprintf(&out, "%d.%09d(%d)", s.TSOrigin.Sec, s.TSOrigin.Nsec, s.Sequence)
		for j := 0; j < s.Length; j++ {
			out.WriteByte('\t')
			writeHumanValue(&out, s.Signals.At(j).Type, s.Data[j])
		}
		out.WriteByte('\n')
	}
	if out.Len() > len(buf) {
		return 0, 0, ErrOverrun
	}
	wbytes := copy(buf, out.Bytes())
	return count, wbytes, nil
}

func writeHumanValue(out *bytes.Buffer, t signal.Type, v signal.Value) {
	switch t {
	case signal.Boolean:
		if v.B {
			out.WriteString("1")
		} else {
			out.WriteString("0")
		}
	case signal.Integer:
		out.WriteString(strconv.FormatInt(v.I, 10))
	case signal.Float:
		out.WriteString(strconv.FormatFloat(v.F, 'g', -1, 64))
	case signal.Complex:
		fmt.Fprintf(out, "%s%+si", strconv.FormatFloat(v.Re, 'g', -1, 64), strconv.FormatFloat(v.Im, 'g', -1, 64))
	}
}

func (Human) Sscan(buf []byte, signals *signal.List, n int) ([]*sample.Sample, int, error) {
	text := string(buf)
	endsWithNewline := len(text) > 0 && text[len(text)-1] == '\n'
	lines := strings.Split(text, "\n")
	if !endsWithNewline && len(lines) > 0 {
		// The final element is a fragment still waiting on more bytes,
		// not a complete record; leave it unconsumed rather than
		// guessing at a record that hasn't fully arrived yet.
		lines = lines[:len(lines)-1]
	}

	var out []*sample.Sample
	consumed := 0
	for _, line := range lines {
		if len(out) >= n {
			break
		}
		lineBytes := len(line) + 1 // account for the '\n' we split on
		if line == "" {
			consumed += lineBytes
			continue
		}
		s, err := parseHumanLine(line, signals)
		if err != nil {
			return out, consumed, err
		}
		out = append(out, s)
		consumed += lineBytes
	}
	// Drop the phantom trailing newline counted for the final (possibly
	// absent) line produced by strings.Split.
	if consumed > len(buf) {
		consumed = len(buf)
	}
	if len(out) == 0 && consumed == 0 && len(buf) > 0 {
		return out, consumed, ErrTruncated
	}
	return out, consumed, nil
}

func parseHumanLine(line string, signals *signal.List) (*sample.Sample, error) {
	fields := strings.Split(line, "\t")
	if len(fields) == 0 {
		return nil, ErrInvalid
	}
	header := fields[0]
	openParen := strings.IndexByte(header, '(')
	if openParen < 0 || !strings.HasSuffix(header, ")") {
		return nil, ErrInvalid
	}
	tsPart := header[:openParen]
	seqPart := header[openParen+1 : len(header)-1]
	dotIdx := strings.IndexByte(tsPart, '.')
	if dotIdx < 0 {
		return nil, ErrInvalid
	}
	sec, err := strconv.ParseInt(tsPart[:dotIdx], 10, 64)
	if err != nil {
		return nil, ErrInvalid
	}
	nsec, err := strconv.ParseInt(tsPart[dotIdx+1:], 10, 64)
	if err != nil {
		return nil, ErrInvalid
	}
	seq, err := strconv.ParseUint(seqPart, 10, 64)
	if err != nil {
		return nil, ErrInvalid
	}

	values := fields[1:]
	s := &sample.Sample{
		Sequence:   seq,
		TSOrigin:   sample.Timestamp{Sec: sec, Nsec: nsec},
		TSReceived: sample.Timestamp{},
		Flags:      sample.HasSequence | sample.HasTSOrigin | sample.HasData,
		Capacity:   len(values),
		Length:     len(values),
		Signals:    signals,
		Data:       make([]signal.Value, len(values)),
	}
	for i, raw := range values {
		t := signal.Float
		if signals != nil && i < signals.Len() {
			t = signals.At(i).Type
		}
		v, err := parseHumanValue(raw, t)
		if err != nil {
			return nil, err
		}
		s.Data[i] = v
	}
	return s, nil
}

func parseHumanValue(raw string, t signal.Type) (signal.Value, error) {
	switch t {
	case signal.Boolean:
		return signal.Value{B: raw == "1" || strings.EqualFold(raw, "true")}, nil
	case signal.Integer:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return signal.Value{}, ErrInvalid
		}
		return signal.Value{I: i}, nil
	case signal.Complex:
		idx := strings.LastIndexAny(raw[:max(1, len(raw)-1)], "+-")
		if idx <= 0 || !strings.HasSuffix(raw, "i") {
			return signal.Value{}, ErrInvalid
		}
		re, err := strconv.ParseFloat(raw[:idx], 64)
		if err != nil {
			return signal.Value{}, ErrInvalid
		}
		im, err := strconv.ParseFloat(raw[idx:len(raw)-1], 64)
		if err != nil {
			return signal.Value{}, ErrInvalid
		}
		return signal.Value{Re: re, Im: im}, nil
	default: // Float
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return signal.Value{}, ErrInvalid
		}
		return signal.Value{F: f}, nil
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
