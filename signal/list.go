// File: signal/list.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SignalList is an ordered, shareable sequence of *Signal. Index into
// the list is the sole key into Sample.Data; many samples may share
// one SignalList instance.

package signal

import "sync/atomic"

// List is an ordered, reference-counted sequence of Signal references.
type List struct {
	refcount atomic.Int32
	items    []*Signal
}

// NewList builds a List owning the given signals (refcount 1).
func NewList(items ...*Signal) *List {
	l := &List{items: append([]*Signal(nil), items...)}
	l.refcount.Store(1)
	return l
}

// Len returns the number of signals in the list.
func (l *List) Len() int { return len(l.items) }

// At returns the signal at index i.
func (l *List) At(i int) *Signal { return l.items[i] }

// IndexOf returns the index of the first signal with the given name,
// or -1 if not found.
func (l *List) IndexOf(name string) int {
	for i, s := range l.items {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// Append adds a signal to the list. Only valid during prepare(); hooks
// may mutate a list's shape up to start(), per spec.md §4.4.
func (l *List) Append(s *Signal) {
	s.Incref()
	l.items = append(l.items, s)
}

// Resize truncates or zero-pads the list to n entries, used by hooks
// that change output shape during prepare().
func (l *List) Resize(n int) {
	if n <= len(l.items) {
		for _, s := range l.items[n:] {
			s.Decref()
		}
		l.items = l.items[:n]
		return
	}
	for len(l.items) < n {
		l.items = append(l.items, New("", "", Float, Value{}))
	}
}

// Set replaces the signal at index i.
func (l *List) Set(i int, s *Signal) {
	if l.items[i] != nil {
		l.items[i].Decref()
	}
	s.Incref()
	l.items[i] = s
}

// Clone returns a new List sharing the same underlying Signal
// pointers (each Incref'd), the way a Sample shares its owner node's
// SignalList without copying Signal data.
func (l *List) Clone() *List {
	items := make([]*Signal, len(l.items))
	for i, s := range l.items {
		s.Incref()
		items[i] = s
	}
	c := &List{items: items}
	c.refcount.Store(1)
	return c
}

// Incref increments the list's own reference count (shared ownership
// between a node's direction and every sample pool drawing from it).
func (l *List) Incref() { l.refcount.Add(1) }

// Decref decrements the list's reference count; when it reaches zero
// it Decrefs every contained signal.
func (l *List) Decref() int32 {
	n := l.refcount.Add(-1)
	if n == 0 {
		for _, s := range l.items {
			s.Decref()
		}
	}
	return n
}

// Slice returns a shallow sub-list view [from:to), used by Mapping to
// carve per-source signal slices without copying Signal data.
func (l *List) Slice(from, to int) *List {
	items := make([]*Signal, to-from)
	copy(items, l.items[from:to])
	for _, s := range items {
		s.Incref()
	}
	c := &List{items: items}
	c.refcount.Store(1)
	return c
}

// Names returns the ordered signal names, used by textual formats for
// headers and by the REST-style introspection layer (out of core
// scope, but this is the seam it would consume).
func (l *List) Names() []string {
	out := make([]string, len(l.items))
	for i, s := range l.items {
		out[i] = s.Name
	}
	return out
}
