// File: nodes/file.go
// Package nodes holds concrete Node implementations: file (line/record
// replay and logging), signalgen (synthetic signal source), and
// memnode (in-process loopback, optionally Redis-backed).
// file.go is grounded on original_source/lib/nodes/file.cpp: open a
// file for simultaneous read+write, apply the configured `eof` policy
// (stop/rewind/wait) exactly as spec.md §4.8/§7 describes, optionally
// throttled to a fixed rate via internal/iopoll.RateTimer.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package nodes

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/villas-go/node/format"
	"github.com/villas-go/node/internal/coreerr"
	"github.com/villas-go/node/internal/iopoll"
	"github.com/villas-go/node/node"
	"github.com/villas-go/node/sample"
	"github.com/villas-go/node/signal"
)

// EOFMode selects the behavior file.Read takes on reaching end-of-file.
type EOFMode int

const (
	EOFStop EOFMode = iota
	EOFRewind
	EOFWait
)

// File implements node.Node against a single on-disk file opened for
// simultaneous read (replay) and write (logging).
type File struct {
	node.Base

	uri     string
	fmtName string
	codec   format.Format
	eof     EOFMode
	rateHz  float64

	fh       *os.File
	timer    *iopoll.RateTimer
	residual []byte
}

// NewFile constructs an unparsed File node.
func NewFile(name string) *File {
	return &File{Base: node.NewBase(name, "file"), eof: EOFStop}
}

// SetSignals installs the SignalList this node reads/writes against,
// derived by the supervisor from the owning path's mapping before
// Prepare runs (a file has no intrinsic signal shape of its own).
func (f *File) SetSignals(in, out *signal.List) {
	f.InSigs = in
	f.OutSigs = out
}

func (f *File) Parse(cfg map[string]any) error {
	uri, _ := cfg["uri"].(string)
	if uri == "" {
		return coreerr.New(coreerr.KindConfig, "file: 'uri' is required")
	}
	f.uri = uri

	f.fmtName = "villas.human"
	if v, ok := cfg["format"].(string); ok && v != "" {
		f.fmtName = v
	}

	f.eof = EOFStop
	if v, ok := cfg["eof"].(string); ok {
		switch v {
		case "stop", "exit":
			f.eof = EOFStop
		case "rewind":
			f.eof = EOFRewind
		case "wait":
			f.eof = EOFWait
		default:
			return coreerr.New(coreerr.KindConfig, fmt.Sprintf("file: invalid eof mode %q", v))
		}
	}

	if v, ok := cfg["rate"].(float64); ok {
		f.rateHz = v
	}

	return f.Transition(node.Parsed)
}

func (f *File) Check() error {
	reg := format.Default()
	codec, ok := reg.Lookup(f.fmtName)
	if !ok {
		return coreerr.New(coreerr.KindConfig, fmt.Sprintf("file: unknown format %q", f.fmtName))
	}
	f.codec = codec
	return f.Transition(node.Checked)
}

func (f *File) Prepare() error {
	return f.Transition(node.Prepared)
}

func (f *File) Start() error {
	fh, err := os.OpenFile(f.uri, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return coreerr.Wrap(coreerr.KindFatalIO, err, "file: open failed")
	}
	f.fh = fh
	f.residual = f.residual[:0]

	if f.rateHz > 0 {
		timer, err := iopoll.NewRateTimer(f.rateHz)
		if err != nil {
			_ = fh.Close()
			return coreerr.Wrap(coreerr.KindFatalIO, err, "file: rate timer failed")
		}
		f.timer = timer
	}

	return f.Transition(node.Started)
}

func (f *File) Stop() error {
	if f.State() != node.Stopping {
		if err := f.Transition(node.Stopping); err != nil {
			return err
		}
	}
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if f.fh != nil {
		_ = f.fh.Close()
		f.fh = nil
	}
	return f.Transition(node.Stopped)
}

func (f *File) Restart() error {
	if err := f.Stop(); err != nil {
		return err
	}
	if err := f.Transition(node.Prepared); err != nil {
		return err
	}
	return f.Start()
}

// Read decodes the next sample from the file, applying the configured
// eof policy when the stream runs dry (spec.md §4.8/§7).
func (f *File) Read(out []*sample.Sample) (int, error) {
	if len(out) == 0 {
		return 0, nil
	}
	if f.timer != nil {
		// Wait (at most one period) for the next tick and clear it, so
		// reads are throttled to the configured rate.
		_, _ = iopoll.Wait([]uintptr{f.timer.Fd()}, time.Duration(float64(time.Second)/f.rateHz))
		f.timer.Drain()
	}
	buf := make([]byte, 4096)
	for {
		if len(f.residual) > 0 {
			decoded, rbytes, err := f.codec.Sscan(f.residual, f.InSigs, 1)
			if err == nil && len(decoded) > 0 {
				f.residual = append([]byte(nil), f.residual[rbytes:]...)
				out[0] = decoded[0]
				return 1, nil
			}
		}

		n, err := f.fh.Read(buf)
		if n > 0 {
			f.residual = append(f.residual, buf[:n]...)
			continue
		}
		if err == io.EOF || n == 0 {
			switch f.eof {
			case EOFRewind:
				if _, serr := f.fh.Seek(0, io.SeekStart); serr != nil {
					return 0, coreerr.Wrap(coreerr.KindFatalIO, serr, "file: rewind failed")
				}
				f.residual = f.residual[:0]
				continue
			case EOFWait:
				time.Sleep(100 * time.Millisecond)
				continue
			default: // EOFStop
				_ = f.Transition(node.Stopping)
				return 0, io.EOF
			}
		}
		if err != nil {
			return 0, coreerr.Wrap(coreerr.KindTransientIO, err, "file: read failed")
		}
	}
}

// Write encodes in with the configured format and writes it at the
// file's current offset, which it shares with Read (the file is opened
// without O_APPEND).
func (f *File) Write(in []*sample.Sample) (int, error) {
	sf := format.StreamFormat{Format: f.codec}
	n, err := sf.Print(f.fh, in, len(in))
	if err != nil {
		return n, coreerr.Wrap(coreerr.KindTransientIO, err, "file: write failed")
	}
	return n, nil
}

func (f *File) PollFDs() []uintptr {
	if f.timer != nil {
		return []uintptr{f.timer.Fd()}
	}
	return nil
}

// NetemFDs returns no descriptors: network emulation applies only to
// socket-backed nodes, which this module does not implement (see
// Non-goals).
func (f *File) NetemFDs() []uintptr { return nil }
