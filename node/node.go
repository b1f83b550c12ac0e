// File: node/node.go
// Package node defines the Node contract and lifecycle state machine
// every concrete node type (file, signalgen, memnode, ...) implements,
// per spec.md §3/§4.5. Grounded on internal/session's cancellation-
// by-closed-channel pattern and api/interfaces.go's small, composable
// interface style, generalized from a single connection's lifecycle to
// a dataflow endpoint's parse→check→prepare→start→stop machine.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package node

import (
	"fmt"
	"sync"

	"github.com/villas-go/node/internal/coreerr"
	"github.com/villas-go/node/sample"
	"github.com/villas-go/node/signal"
)

// State enumerates the node lifecycle stages spec.md §4.5 names.
type State int

const (
	Initialized State = iota
	Parsed
	Checked
	Prepared
	Started
	Paused
	Stopping
	Stopped
	Destroyed
)

func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Parsed:
		return "parsed"
	case Checked:
		return "checked"
	case Prepared:
		return "prepared"
	case Started:
		return "started"
	case Paused:
		return "paused"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	case Destroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// legalTransitions enumerates the edges of the node state machine.
// A transition not listed here is rejected by Base.transition.
var legalTransitions = map[State][]State{
	Initialized: {Parsed},
	Parsed:      {Checked},
	Checked:     {Prepared},
	Prepared:    {Started},
	Started:     {Paused, Stopping},
	Paused:      {Started, Stopping},
	Stopping:    {Stopped},
	Stopped:     {Prepared, Destroyed}, // Prepared again => restart
	Destroyed:   {},
}

// Node is the contract every concrete node type satisfies. Parse and
// Check operate on a single instance's declared config; Prepare
// resolves cross-references (e.g. its own signal list shape) once
// every node in a configuration is parsed; Start/Stop/Pause/Resume/
// Restart drive the runtime lifecycle; Read/Write move samples;
// PollFDs/NetemFDs expose OS descriptors the Path's multiplexer can
// wait on.
type Node interface {
	Name() string
	Type() string
	State() State

	Parse(cfg map[string]any) error
	Check() error
	Prepare() error
	Start() error
	Stop() error
	Pause() error
	Resume() error
	Restart() error

	Read(out []*sample.Sample) (int, error)
	Write(in []*sample.Sample) (int, error)

	PollFDs() []uintptr
	NetemFDs() []uintptr

	InSignals() *signal.List
	OutSignals() *signal.List
}

// Base provides the state machine, name bookkeeping, and default
// Pause/Resume implementations concrete node types embed rather than
// reimplement. It has no NetemFDs; each node type supplies its own.
type Base struct {
	mu    sync.Mutex
	name  string
	typ   string
	state State

	InSigs  *signal.List
	OutSigs *signal.List
}

// NewBase constructs a Base in the Initialized state.
func NewBase(name, typ string) Base {
	return Base{name: name, typ: typ, state: Initialized}
}

func (b *Base) Name() string  { return b.name }
func (b *Base) Type() string  { return b.typ }
func (b *Base) State() State  { b.mu.Lock(); defer b.mu.Unlock(); return b.state }
func (b *Base) InSignals() *signal.List  { return b.InSigs }
func (b *Base) OutSignals() *signal.List { return b.OutSigs }

// Pause/Resume default to plain state transitions (Started to Paused
// and back) with no other effect; node types that support suspension
// (e.g. a rate-limited generator) can override just these two methods.
func (b *Base) Pause() error {
	return b.transition(Paused)
}

func (b *Base) Resume() error {
	return b.transition(Started)
}

// transition validates and performs a state change, guarded by the
// mutex so concurrent Start/Stop calls from a supervisor and a
// watchdog can't race each other into an illegal state.
func (b *Base) transition(to State) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, allowed := range legalTransitions[b.state] {
		if allowed == to {
			b.state = to
			return nil
		}
	}
	return coreerr.New(coreerr.KindLogic, fmt.Sprintf("node %s: illegal transition %s -> %s", b.name, b.state, to))
}

// Transition is exported for concrete node types embedding Base to
// drive their own lifecycle methods (Parse calling Transition(Parsed),
// and so on) while keeping the edge table centralized here.
func (b *Base) Transition(to State) error { return b.transition(to) }
