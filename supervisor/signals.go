// File: supervisor/signals.go
// Helpers for declaring a node's signal shape from configuration, for
// node types (file, memnode) that carry no intrinsic shape of their
// own and must be told it rather than infer it from a generator
// formula or wire header.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package supervisor

import (
	"fmt"

	"github.com/villas-go/node/signal"
)

// buildSignalList parses a "signals" config list (each entry a map
// with "name", "type", and optional "unit") into a signal.List.
func buildSignalList(raw []any) (*signal.List, error) {
	sigs := make([]*signal.Signal, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("signals[%d]: expected a map, got %T", i, item)
		}
		name, _ := m["name"].(string)
		if name == "" {
			return nil, fmt.Errorf("signals[%d]: 'name' is required", i)
		}
		typeName, _ := m["type"].(string)
		if typeName == "" {
			typeName = "float"
		}
		typ, err := signal.ParseType(typeName)
		if err != nil {
			return nil, fmt.Errorf("signals[%d]: %w", i, err)
		}
		unit, _ := m["unit"].(string)
		sigs = append(sigs, signal.New(name, unit, typ, signal.Value{}))
	}
	return signal.NewList(sigs...), nil
}

// singleSignalSetter is satisfied by node types whose whole signal
// shape (both directions) is one declared list, e.g. nodes.MemNode.
type singleSignalSetter interface {
	SetSignals(sigs *signal.List)
}

// dualSignalSetter is satisfied by node types with independently
// settable input/output shapes, e.g. nodes.File.
type dualSignalSetter interface {
	SetSignals(in, out *signal.List)
}

// wireSignals applies a declared signal list to n if it implements
// either signal-setting shape, reporting whether it did.
func wireSignals(n any, sigs *signal.List) bool {
	switch s := n.(type) {
	case dualSignalSetter:
		s.SetSignals(sigs, sigs)
		return true
	case singleSignalSetter:
		s.SetSignals(sigs)
		return true
	default:
		return false
	}
}
