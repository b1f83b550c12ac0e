// File: mapping/parse.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Parse lowers the human mapping grammar from spec.md §3/§6 into an
// ordered Entry list:
//
//	<node>                      whole signal list of <node>
//	<node>[<off>:<len>]         a data slice of <node>
//	<node>.hdr.length           record length of the last sample from <node>
//	<node>.hdr.sequence         sequence number of the last sample from <node>
//	<node>.ts.origin.sec        origin timestamp, seconds
//	<node>.ts.origin.nsec       origin timestamp, nanoseconds
//	<node>.ts.received.sec      received timestamp, seconds
//	<node>.ts.received.nsec     received timestamp, nanoseconds
//	stats.<node>.<metric>       one of total/last/lowest/highest/mean/variance/stddev
//
// Grounded on original_source/lib/super_node.cpp's config-string
// tokenizing style (colon/dot-delimited paths resolved against already
// -parsed node names) and on hioload-ws's flat error-wrapping idiom.

package mapping

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/villas-go/node/internal/coreerr"
)

// Parse compiles a list of mapping expression strings into entries.
func Parse(exprs []string) ([]*Entry, error) {
	entries := make([]*Entry, 0, len(exprs))
	for _, expr := range exprs {
		e, err := parseOne(strings.TrimSpace(expr))
		if err != nil {
			return nil, coreerr.Wrap(coreerr.KindConfig, err, fmt.Sprintf("mapping: cannot parse entry %q", expr))
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseOne(expr string) (*Entry, error) {
	if expr == "" {
		return nil, fmt.Errorf("empty entry")
	}
	if strings.HasPrefix(expr, "stats.") {
		return parseStats(expr)
	}

	node, rest, hasRest := cut(expr, ".")
	if !hasRest {
		return parseData(node, "")
	}

	switch {
	case rest == "hdr.length":
		return &Entry{Kind: KindHeader, Node: node, Header: HeaderLength}, nil
	case rest == "hdr.sequence":
		return &Entry{Kind: KindHeader, Node: node, Header: HeaderSequence}, nil
	case rest == "ts.origin.sec":
		return &Entry{Kind: KindTimestamp, Node: node, TSWhich: TSOrigin, TSPart: TSSec}, nil
	case rest == "ts.origin.nsec":
		return &Entry{Kind: KindTimestamp, Node: node, TSWhich: TSOrigin, TSPart: TSNsec}, nil
	case rest == "ts.received.sec":
		return &Entry{Kind: KindTimestamp, Node: node, TSWhich: TSReceived, TSPart: TSSec}, nil
	case rest == "ts.received.nsec":
		return &Entry{Kind: KindTimestamp, Node: node, TSWhich: TSReceived, TSPart: TSNsec}, nil
	default:
		return nil, fmt.Errorf("unrecognized field %q on node %q", rest, node)
	}
}

func parseStats(expr string) (*Entry, error) {
	fields := strings.Split(expr, ".")
	if len(fields) != 3 {
		return nil, fmt.Errorf("stats entry must be stats.<node>.<metric>")
	}
	metric, ok := statMetricNames[fields[2]]
	if !ok {
		return nil, fmt.Errorf("unknown stats metric %q", fields[2])
	}
	return &Entry{Kind: KindStats, StatNode: fields[1], StatMetric: metric}, nil
}

func parseData(node, _ string) (*Entry, error) {
	name := node
	offset, length := 0, -1 // -1 length means "rest of signal list", resolved at Prepare
	if i := strings.IndexByte(node, '['); i >= 0 {
		if !strings.HasSuffix(node, "]") {
			return nil, fmt.Errorf("unbalanced bracket in %q", node)
		}
		name = node[:i]
		rangeExpr := node[i+1 : len(node)-1]
		off, n, err := parseRange(rangeExpr)
		if err != nil {
			return nil, err
		}
		offset, length = off, n
	}
	return &Entry{Kind: KindData, Node: name, Offset: offset, Length: length}, nil
}

// parseRange reads "<off>:<len>", or a single "<off>" meaning length 1.
func parseRange(s string) (off, n int, err error) {
	parts := strings.SplitN(s, ":", 2)
	off, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad range start %q", parts[0])
	}
	if len(parts) == 1 {
		return off, 1, nil
	}
	n, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad range length %q", parts[1])
	}
	return off, n, nil
}

// cut splits s on the first occurrence of sep, like strings.Cut
// (inlined to avoid a go1.18-vs-earlier guess about stdlib surface).
func cut(s, sep string) (before, after string, found bool) {
	if i := strings.Index(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}
