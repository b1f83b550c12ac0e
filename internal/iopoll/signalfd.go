// File: internal/iopoll/signalfd.go
// Package iopoll supplies the OS-visible descriptors the Path engine
// multiplexes over: one per signalled Queue, one per rate-limited
// path's timer. Adapted from hioload-ws's self-pipe-free reactor
// design (reactor/reactor_linux.go, reactor/reactor_windows.go) but
// built on a portable os.Pipe rather than epoll/IOCP directly, since
// this repository's own fds (queue wakeups, rate tickers, the
// supervisor's self-pipe) are all internally generated rather than
// backed by raw sockets.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package iopoll

import (
	"os"
	"sync"
	"time"
)

// SignalFD is a one-shot-per-edge wakeup descriptor: Signal() wakes
// any poller blocked in Wait() on Fd(); Drain() clears pending wakeups
// so the next edge is observed cleanly.
type SignalFD struct {
	mu       sync.Mutex
	r, w     *os.File
	closed   bool
}

// NewSignalFD allocates a new pipe-backed signal descriptor.
func NewSignalFD() (*SignalFD, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	return &SignalFD{r: r, w: w}, nil
}

// Fd returns the read-end descriptor to register with a Poller.
func (s *SignalFD) Fd() uintptr { return s.r.Fd() }

// Signal posts one wakeup edge. Safe to call repeatedly before the
// reader drains; coalesces into a single readiness edge, matching the
// signalled Queue's "edge on first push from empty" contract.
func (s *SignalFD) Signal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	_, _ = s.w.Write([]byte{1})
}

// Drain consumes all pending wakeup bytes, non-blocking.
func (s *SignalFD) Drain() {
	buf := make([]byte, 64)
	for {
		_ = s.r.SetReadDeadline(time.Now())
		n, err := s.r.Read(buf)
		if n == 0 || err != nil {
			break
		}
		if n < len(buf) {
			break
		}
	}
	_ = s.r.SetReadDeadline(time.Time{})
}

// Close releases both ends of the underlying pipe.
func (s *SignalFD) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	werr := s.w.Close()
	rerr := s.r.Close()
	if werr != nil {
		return werr
	}
	return rerr
}
