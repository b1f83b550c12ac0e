// File: signal/signal.go
// Package signal defines typed, named channel descriptors and the
// ordered lists that key into Sample.Data. Modeled after hioload-ws's
// api.Buffer: a plain struct (not an interface) to avoid boxing on the
// hot path, reference-counted the way pool.BufferPoolManager tracks
// pool membership rather than individual-object lifetime.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package signal

import (
	"fmt"
	"sync/atomic"
)

// Type enumerates the wire-level value kinds a Signal may carry.
type Type int

const (
	Boolean Type = iota
	Integer
	Float
	Complex
)

func (t Type) String() string {
	switch t {
	case Boolean:
		return "boolean"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Complex:
		return "complex"
	default:
		return "unknown"
	}
}

// ParseType maps a config-level type name to Type.
func ParseType(name string) (Type, error) {
	switch name {
	case "boolean":
		return Boolean, nil
	case "integer":
		return Integer, nil
	case "float":
		return Float, nil
	case "complex":
		return Complex, nil
	default:
		return 0, fmt.Errorf("signal: unknown type %q", name)
	}
}

// Value is a tagged union matching one of Type's variants. Only the
// field matching the owning Signal's Type is meaningful.
type Value struct {
	B bool
	I int64
	F float64
	// Complex is stored as two floats to avoid pulling in complex128
	// arithmetic semantics the format layer doesn't need.
	Re, Im float64
}

// ZeroValue returns the default init value for t (0/false/0+0i).
func ZeroValue(t Type) Value {
	return Value{}
}

// Signal is a typed, named channel descriptor. Once published to any
// Sample's SignalList, Type must not change — callers only ever get a
// read view through SignalList after construction.
type Signal struct {
	refcount atomic.Int32

	Name string
	Unit string
	Type Type
	Init Value
}

// New allocates a Signal with refcount 1.
func New(name, unit string, typ Type, init Value) *Signal {
	s := &Signal{Name: name, Unit: unit, Type: typ, Init: init}
	s.refcount.Store(1)
	return s
}

// Incref increments the reference count (called when a SignalList
// referencing this Signal is cloned/shared).
func (s *Signal) Incref() { s.refcount.Add(1) }

// Decref decrements the reference count. Callers must stop using s
// once Decref returns 0.
func (s *Signal) Decref() int32 { return s.refcount.Add(-1) }

func (s *Signal) String() string {
	if s.Unit != "" {
		return fmt.Sprintf("%s[%s:%s]", s.Name, s.Type, s.Unit)
	}
	return fmt.Sprintf("%s[%s]", s.Name, s.Type)
}
