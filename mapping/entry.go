// File: mapping/entry.go
// Package mapping implements the declarative source→sink channel plan
// of spec.md §3/§4.3: an ordered list of Data/Header/Timestamp/Stats
// entries that compile to per-source offsets and per-signal
// transforms. Grounded on hioload-ws's pool.BufferBatch (zero-alloc
// slice-of-slices bookkeeping) for the offset/length resolution shape,
// and on original_source/lib/mapping-adjacent io_format.c /
// super_node.cpp for the shorthand-string grammar and stats kinds.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package mapping

import (
	"github.com/villas-go/node/signal"
)

// Kind discriminates a Mapping Entry's source.
type Kind int

const (
	KindData Kind = iota
	KindHeader
	KindTimestamp
	KindStats
)

// HeaderField selects which scalar a Header entry copies.
type HeaderField int

const (
	HeaderLength HeaderField = iota
	HeaderSequence
)

// TSWhich selects origin vs. received timestamp.
type TSWhich int

const (
	TSOrigin TSWhich = iota
	TSReceived
)

// TSPart selects seconds vs. nanoseconds of a Timestamp entry.
type TSPart int

const (
	TSSec TSPart = iota
	TSNsec
)

// StatMetric enumerates the Stats entry metrics spec.md §3 lists.
type StatMetric int

const (
	StatTotal StatMetric = iota
	StatLast
	StatLowest
	StatHighest
	StatMean
	StatVariance
	StatStddev
)

var statMetricNames = map[string]StatMetric{
	"total": StatTotal, "last": StatLast, "lowest": StatLowest,
	"highest": StatHighest, "mean": StatMean, "variance": StatVariance,
	"stddev": StatStddev,
}

// Entry is one element of a compiled Mapping.
type Entry struct {
	Kind Kind

	// Data
	Node   string
	Offset int
	Length int

	// Header
	Header HeaderField

	// Timestamp
	TSWhich TSWhich
	TSPart  TSPart

	// Stats
	StatNode   string
	StatMetric StatMetric

	// Resolved by Prepare: where this entry's output lands in the
	// destination sample and the derived output Signal descriptor.
	OutOffset int
	outSignal *signal.Signal
}

// ToSignal yields the output Signal descriptor this entry produces in
// the destination sample's SignalList (spec.md §4.3 "toSignal(j)").
func (e *Entry) ToSignal(sourceSignals *signal.List) *signal.Signal {
	switch e.Kind {
	case KindData:
		if sourceSignals != nil && e.Offset < sourceSignals.Len() {
			src := sourceSignals.At(e.Offset)
			return signal.New(src.Name, src.Unit, src.Type, src.Init)
		}
		return signal.New("", "", signal.Float, signal.Value{})
	case KindHeader:
		if e.Header == HeaderSequence {
			return signal.New("sequence", "", signal.Integer, signal.Value{})
		}
		return signal.New("length", "", signal.Integer, signal.Value{})
	case KindTimestamp:
		name := "ts"
		if e.TSWhich == TSReceived {
			name += "_received"
		} else {
			name += "_origin"
		}
		if e.TSPart == TSNsec {
			name += "_nsec"
		} else {
			name += "_sec"
		}
		return signal.New(name, "s", signal.Integer, signal.Value{})
	case KindStats:
		return signal.New(e.StatNode+"."+statMetricName(e.StatMetric), "", signal.Float, signal.Value{})
	default:
		return signal.New("", "", signal.Float, signal.Value{})
	}
}

func statMetricName(m StatMetric) string {
	for name, v := range statMetricNames {
		if v == m {
			return name
		}
	}
	return "unknown"
}

// writeLastWins reports whether this entry kind may legally overlap
// another (spec.md §3 Mapping: "Entries may overlap only if they are
// all write-last-wins header/timestamp entries").
func (e *Entry) writeLastWins() bool {
	return e.Kind == KindHeader || e.Kind == KindTimestamp
}
