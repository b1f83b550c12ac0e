// File: format/binary.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// villas.binary: length-prefixed framed record per sample (spec.md
// §6). Header is 8 bytes (version, flags, length-in-words, low 32 bits
// of sequence) in network byte order, exactly the "fixed header,
// binary.BigEndian length field, payload appended" shape hioload-ws's
// protocol/frame_codec.go uses for WebSocket frames. The 16-byte
// timestamp (sec, nsec) and per-value 8-byte words follow in the
// platform's native endianness, since they are never interpreted
// outside this process family the way a frame header is.

package format

import (
	"encoding/binary"
	"math"

	"github.com/villas-go/node/sample"
	"github.com/villas-go/node/signal"
)

const binaryVersion = 1

// Binary implements the villas.binary Format.
type Binary struct {
	nativeOrder binary.ByteOrder
}

// NewBinary constructs the villas.binary codec using the host's native
// byte order for the payload section.
func NewBinary() *Binary {
	return &Binary{nativeOrder: nativeByteOrder()}
}

func (Binary) Name() string { return "villas.binary" }

// wordsForType returns how many 8-byte words a value of type t
// occupies (complex values span two words: real, then imaginary).
func wordsForType(t signal.Type) int {
	if t == signal.Complex {
		return 2
	}
	return 1
}

func (b *Binary) Sprint(buf []byte, samples []*sample.Sample, n int) (int, int, error) {
	off := 0
	count := n
	if count > len(samples) {
		count = len(samples)
	}
	written := 0
	for i := 0; i < count; i++ {
		s := samples[i]
		words := 0
		for j := 0; j < s.Length; j++ {
			words += wordsForType(s.Signals.At(j).Type)
		}
		recLen := 8 + 16 + words*8
		if off+recLen > len(buf) {
			return written, off, ErrOverrun
		}
		binary.BigEndian.PutUint16(buf[off+2:], uint16(words))
		buf[off] = binaryVersion
		buf[off+1] = byte(s.Flags)
		binary.BigEndian.PutUint32(buf[off+4:], uint32(s.Sequence))
		off += 8

		b.nativeOrder.PutUint64(buf[off:], uint64(s.TSOrigin.Sec))
		b.nativeOrder.PutUint64(buf[off+8:], uint64(s.TSOrigin.Nsec))
		off += 16

		for j := 0; j < s.Length; j++ {
			off += b.putValue(buf[off:], s.Signals.At(j).Type, s.Data[j])
		}
		written++
	}
	return written, off, nil
}

func (b *Binary) putValue(dst []byte, t signal.Type, v signal.Value) int {
	switch t {
	case signal.Boolean:
		var iv uint64
		if v.B {
			iv = 1
		}
		b.nativeOrder.PutUint64(dst, iv)
		return 8
	case signal.Integer:
		b.nativeOrder.PutUint64(dst, uint64(v.I))
		return 8
	case signal.Complex:
		b.nativeOrder.PutUint64(dst, math.Float64bits(v.Re))
		b.nativeOrder.PutUint64(dst[8:], math.Float64bits(v.Im))
		return 16
	default: // Float
		b.nativeOrder.PutUint64(dst, math.Float64bits(v.F))
		return 8
	}
}

func (b *Binary) Sscan(buf []byte, signals *signal.List, n int) ([]*sample.Sample, int, error) {
	off := 0
	var out []*sample.Sample
	for len(out) < n {
		if off+8 > len(buf) {
			break
		}
		words := binary.BigEndian.Uint16(buf[off+2:])
		flags := sample.Flags(buf[off+1])
		seqLow := binary.BigEndian.Uint32(buf[off+4:])
		recLen := 8 + 16 + int(words)*8
		if off+recLen > len(buf) {
			if off == 0 {
				return out, off, ErrTruncated
			}
			break
		}
		off += 8

		sec := int64(b.nativeOrder.Uint64(buf[off:]))
		nsec := int64(b.nativeOrder.Uint64(buf[off+8:]))
		off += 16

		length := signals.Len()
		data := make([]signal.Value, length)
		for j := 0; j < length; j++ {
			t := signals.At(j).Type
			consumed := b.getValue(buf[off:], t, &data[j])
			off += consumed
		}

		out = append(out, &sample.Sample{
			Sequence:   uint64(seqLow),
			TSOrigin:   sample.Timestamp{Sec: sec, Nsec: nsec},
			Flags:      flags,
			Length:     length,
			Capacity:   length,
			Signals:    signals,
			Data:       data,
		})
	}
	return out, off, nil
}

func (b *Binary) getValue(src []byte, t signal.Type, v *signal.Value) int {
	switch t {
	case signal.Boolean:
		v.B = b.nativeOrder.Uint64(src) != 0
		return 8
	case signal.Integer:
		v.I = int64(b.nativeOrder.Uint64(src))
		return 8
	case signal.Complex:
		v.Re = math.Float64frombits(b.nativeOrder.Uint64(src))
		v.Im = math.Float64frombits(b.nativeOrder.Uint64(src[8:]))
		return 16
	default:
		v.F = math.Float64frombits(b.nativeOrder.Uint64(src))
		return 8
	}
}
