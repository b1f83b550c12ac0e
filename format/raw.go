// File: format/raw.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// raw: no framing; width/endianness fixed by config, optional synthetic
// "fake" header (sequence, sec, nsec, each width bits) ahead of the
// data words (spec.md §4.2/§6). Widths 8 and 16 have no IEEE754
// encoding, so floats collapse to truncated integers there (the
// precision-class carve-out spec.md §4.2 calls out); widths 32 and 64
// use the matching IEEE754 float encoding so the round-trip property
// holds exactly at those widths. 128-bit is a compile-time-gated
// feature in the original C implementation (spec.md §9 Open
// Questions) and is intentionally unimplemented here — NewRaw rejects
// it rather than silently truncating.

package format

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/villas-go/node/sample"
	"github.com/villas-go/node/signal"
)

// Raw implements the "raw" Format.
type Raw struct {
	Bits   int
	Big    bool
	Fake   bool
	order  binary.ByteOrder
	width  int
}

// NewRaw validates bits/endianess/fake per spec.md §4.2 ("raw disallows
// endianess for bits=8") and constructs the codec.
func NewRaw(bits int, big bool, fake bool) (*Raw, error) {
	switch bits {
	case 8, 16, 32, 64:
	case 128:
		return nil, fmt.Errorf("format: raw bits=128 is not implemented (compile-time gated upstream)")
	default:
		return nil, fmt.Errorf("format: raw bits must be one of 8,16,32,64")
	}
	if bits == 8 && big {
		return nil, fmt.Errorf("format: raw disallows endianess for bits=8")
	}
	order := binary.ByteOrder(binary.LittleEndian)
	if big {
		order = binary.BigEndian
	}
	return &Raw{Bits: bits, Big: big, Fake: fake, order: order, width: bits / 8}, nil
}

func (r *Raw) Name() string { return "raw" }

func (r *Raw) Sprint(buf []byte, samples []*sample.Sample, n int) (int, int, error) {
	off := 0
	count := n
	if count > len(samples) {
		count = len(samples)
	}
	written := 0
	for i := 0; i < count; i++ {
		s := samples[i]
		recWords := s.Length
		if r.Fake {
			recWords += 3
		}
		recLen := recWords * r.width
		if off+recLen > len(buf) {
			return written, off, ErrOverrun
		}
		if r.Fake {
			r.putInt(buf[off:], int64(s.Sequence))
			off += r.width
			r.putInt(buf[off:], s.TSOrigin.Sec)
			off += r.width
			r.putInt(buf[off:], s.TSOrigin.Nsec)
			off += r.width
		}
		for j := 0; j < s.Length; j++ {
			r.putValue(buf[off:], s.Signals.At(j).Type, s.Data[j])
			off += r.width
		}
		written++
	}
	return written, off, nil
}

func (r *Raw) putInt(dst []byte, v int64) {
	switch r.width {
	case 1:
		dst[0] = byte(v)
	case 2:
		r.order.PutUint16(dst, uint16(v))
	case 4:
		r.order.PutUint32(dst, uint32(v))
	case 8:
		r.order.PutUint64(dst, uint64(v))
	}
}

func (r *Raw) getInt(src []byte) int64 {
	switch r.width {
	case 1:
		return int64(int8(src[0]))
	case 2:
		return int64(int16(r.order.Uint16(src)))
	case 4:
		return int64(int32(r.order.Uint32(src)))
	case 8:
		return int64(r.order.Uint64(src))
	}
	return 0
}

func (r *Raw) putValue(dst []byte, t signal.Type, v signal.Value) {
	switch {
	case r.width >= 4 && t == signal.Float:
		if r.width == 4 {
			r.order.PutUint32(dst, math.Float32bits(float32(v.F)))
		} else {
			r.order.PutUint64(dst, math.Float64bits(v.F))
		}
	case r.width >= 4 && t == signal.Complex:
		// Only the real component survives a single raw word; the
		// imaginary half has no home in a fixed-width scalar slot.
		if r.width == 4 {
			r.order.PutUint32(dst, math.Float32bits(float32(v.Re)))
		} else {
			r.order.PutUint64(dst, math.Float64bits(v.Re))
		}
	case t == signal.Boolean:
		if v.B {
			r.putInt(dst, 1)
		} else {
			r.putInt(dst, 0)
		}
	case t == signal.Float:
		r.putInt(dst, int64(v.F)) // 8/16-bit: collapse to integer
	default: // Integer, or Complex at narrow width
		r.putInt(dst, v.I)
	}
}

func (r *Raw) getValue(src []byte, t signal.Type) signal.Value {
	switch {
	case r.width >= 4 && (t == signal.Float || t == signal.Complex):
		if r.width == 4 {
			f := float64(math.Float32frombits(r.order.Uint32(src)))
			if t == signal.Complex {
				return signal.Value{Re: f}
			}
			return signal.Value{F: f}
		}
		f := math.Float64frombits(r.order.Uint64(src))
		if t == signal.Complex {
			return signal.Value{Re: f}
		}
		return signal.Value{F: f}
	case t == signal.Boolean:
		return signal.Value{B: r.getInt(src) != 0}
	case t == signal.Float:
		return signal.Value{F: float64(r.getInt(src))}
	default:
		return signal.Value{I: r.getInt(src)}
	}
}

func (r *Raw) Sscan(buf []byte, signals *signal.List, n int) ([]*sample.Sample, int, error) {
	off := 0
	var out []*sample.Sample
	length := 0
	if signals != nil {
		length = signals.Len()
	}
	recWords := length
	if r.Fake {
		recWords += 3
	}
	recLen := recWords * r.width
	if recLen == 0 {
		return out, 0, nil
	}
	for len(out) < n {
		if off+recLen > len(buf) {
			if off == 0 {
				return out, 0, ErrTruncated
			}
			break
		}
		s := &sample.Sample{Signals: signals, Capacity: length, Length: length, Data: make([]signal.Value, length)}
		if r.Fake {
			s.Sequence = uint64(r.getInt(buf[off:]))
			off += r.width
			s.TSOrigin.Sec = r.getInt(buf[off:])
			off += r.width
			s.TSOrigin.Nsec = r.getInt(buf[off:])
			off += r.width
			s.Flags = sample.HasSequence | sample.HasTSOrigin | sample.HasData
		} else {
			s.Flags = sample.HasData
		}
		for j := 0; j < length; j++ {
			s.Data[j] = r.getValue(buf[off:], signals.At(j).Type)
			off += r.width
		}
		out = append(out, s)
	}
	return out, off, nil
}
