// File: mapping/mapping.go
// Mapping compiles an ordered list of Entry into a resolved plan that
// Remap executes once per cycle: it copies Data slices from named
// source samples, Header/Timestamp scalars, and Stats snapshots into a
// destination sample's Data/Signals, per spec.md §3/§4.3.
// Grounded on hioload-ws's core/concurrency batch dispatch (resolve
// once in Prepare, execute hot in the per-cycle path) and on
// original_source/lib/nodes/signal_generator.cpp et al. for the
// per-signal copy semantics.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package mapping

import (
	"fmt"

	"github.com/villas-go/node/internal/coreerr"
	"github.com/villas-go/node/sample"
	"github.com/villas-go/node/signal"
)

// SignalSource is the minimal view of a Node the mapping engine needs:
// a name to resolve against and the SignalList describing its output
// direction. Node itself lives in a higher package to avoid a import
// cycle (mapping is used by both node and path).
type SignalSource interface {
	Name() string
	Signals() *signal.List
}

// StatsProvider supplies the Stats entry values; the concrete type
// lives in the stats package and is injected here to keep mapping free
// of a dependency on process-wide stats bookkeeping.
type StatsProvider interface {
	Value(node string, metric StatMetric) (float64, bool)
}

// Mapping is a compiled, ordered list of Entry plus the resolved
// output SignalList it produces.
type Mapping struct {
	Entries []*Entry

	prepared bool
	outSigs  *signal.List
	sources  map[string]SignalSource
}

// New builds an unprepared Mapping from a raw entry list.
func New(entries []*Entry) *Mapping {
	return &Mapping{Entries: entries}
}

// Prepare resolves each entry's source node reference, validates the
// no-overlap invariant for Data entries of the same source node, and computes the destination
// SignalList and per-entry OutOffset (spec.md §3: "Prepare resolves
// node references and computes per-entry source SignalList slices").
func (m *Mapping) Prepare(sources map[string]SignalSource) error {
	m.sources = sources
	outSigs := signal.NewList()

	type span struct {
		node   string
		lo, hi int
	}
	var dataSpans []span

	outOffset := 0
	for _, e := range m.Entries {
		switch e.Kind {
		case KindData:
			src, ok := sources[e.Node]
			if !ok {
				return coreerr.New(coreerr.KindConfig, fmt.Sprintf("mapping: unknown node %q", e.Node))
			}
			sigs := src.Signals()
			if e.Length < 0 {
				e.Length = sigs.Len() - e.Offset
			}
			if e.Offset < 0 || e.Offset+e.Length > sigs.Len() {
				return coreerr.New(coreerr.KindConfig, fmt.Sprintf("mapping: entry for %q out of range [%d:%d) against %d signals", e.Node, e.Offset, e.Offset+e.Length, sigs.Len()))
			}
			lo, hi := e.Offset, e.Offset+e.Length
			for _, s := range dataSpans {
				if s.node == e.Node && lo < s.hi && s.lo < hi {
					return coreerr.New(coreerr.KindConfig, fmt.Sprintf("mapping: data entry for %q overlaps another data entry", e.Node))
				}
			}
			dataSpans = append(dataSpans, span{e.Node, lo, hi})
			for i := lo; i < hi; i++ {
				e.outSignal = e.ToSignal(sigs)
				outSigs.Append(nthSignal(sigs, i))
			}
		case KindHeader, KindTimestamp:
			e.outSignal = e.ToSignal(nil)
			outSigs.Append(e.outSignal)
		case KindStats:
			if _, ok := sources[e.StatNode]; !ok {
				return coreerr.New(coreerr.KindConfig, fmt.Sprintf("mapping: stats entry references unknown node %q", e.StatNode))
			}
			e.outSignal = e.ToSignal(nil)
			outSigs.Append(e.outSignal)
		default:
			return coreerr.New(coreerr.KindConfig, "mapping: unknown entry kind")
		}
		e.OutOffset = outOffset
		outOffset += entryWidth(e)
	}

	m.outSigs = outSigs
	m.prepared = true
	return nil
}

func entryWidth(e *Entry) int {
	if e.Kind == KindData {
		return e.Length
	}
	return 1
}

func nthSignal(l *signal.List, i int) *signal.Signal { return l.At(i) }

// Signals returns the resolved destination SignalList. Prepare must
// have succeeded first.
func (m *Mapping) Signals() *signal.List { return m.outSigs }

// Remap executes the compiled plan against a set of current source
// samples (keyed by node name) and stats snapshot, writing into dst.
// dst.Signals must already be m.Signals(); dst.Data is resized to fit.
func (m *Mapping) Remap(dst *sample.Sample, bySource map[string]*sample.Sample, stats StatsProvider) error {
	if !m.prepared {
		return coreerr.New(coreerr.KindLogic, "mapping: Remap called before Prepare")
	}
	width := 0
	for _, e := range m.Entries {
		width += entryWidth(e)
	}
	if cap(dst.Data) < width {
		dst.Data = make([]signal.Value, width)
	} else {
		dst.Data = dst.Data[:width]
	}
	dst.Signals = m.outSigs
	dst.Length = width

	for _, e := range m.Entries {
		switch e.Kind {
		case KindData:
			src, ok := bySource[e.Node]
			if !ok || src == nil {
				return coreerr.New(coreerr.KindRuntime, fmt.Sprintf("mapping: no sample available for source %q", e.Node))
			}
			for i := 0; i < e.Length; i++ {
				if e.Offset+i >= src.Length {
					dst.Data[e.OutOffset+i] = signal.Value{}
					continue
				}
				dst.Data[e.OutOffset+i] = src.Data[e.Offset+i]
			}
		case KindHeader:
			src, ok := bySource[e.Node]
			if !ok || src == nil {
				return coreerr.New(coreerr.KindRuntime, fmt.Sprintf("mapping: no sample available for source %q", e.Node))
			}
			if e.Header == HeaderSequence {
				dst.Data[e.OutOffset] = signal.Value{I: int64(src.Sequence)}
			} else {
				dst.Data[e.OutOffset] = signal.Value{I: int64(src.Length)}
			}
		case KindTimestamp:
			src, ok := bySource[e.Node]
			if !ok || src == nil {
				return coreerr.New(coreerr.KindRuntime, fmt.Sprintf("mapping: no sample available for source %q", e.Node))
			}
			ts := src.TSOrigin
			if e.TSWhich == TSReceived {
				ts = src.TSReceived
			}
			if e.TSPart == TSNsec {
				dst.Data[e.OutOffset] = signal.Value{I: ts.Nsec}
			} else {
				dst.Data[e.OutOffset] = signal.Value{I: ts.Sec}
			}
		case KindStats:
			v, ok := stats.Value(e.StatNode, e.StatMetric)
			if !ok {
				v = 0
			}
			dst.Data[e.OutOffset] = signal.Value{F: v}
		}
	}
	return nil
}
