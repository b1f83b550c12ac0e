//go:build windows

// File: internal/iopoll/poll_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows fallback poller. hioload-ws's Windows reactor/poller pair
// (reactor/reactor_windows.go, internal/concurrency/poller_windows.go)
// use IOCP, which models overlapped-I/O completions rather than plain
// readiness of a descriptor set; our fds are pipe/file handles, not
// overlapped sockets, so WaitForMultipleObjects is the closer fit.

package iopoll

import (
	"time"

	"golang.org/x/sys/windows"
)

// Wait blocks up to timeout for any of fds to become signalled.
func Wait(fds []uintptr, timeout time.Duration) ([]uintptr, error) {
	if len(fds) == 0 {
		if timeout >= 0 {
			time.Sleep(timeout)
		}
		return nil, nil
	}
	if len(fds) > 64 {
		fds = fds[:64] // WaitForMultipleObjects hard limit
	}
	handles := make([]windows.Handle, len(fds))
	for i, fd := range fds {
		handles[i] = windows.Handle(fd)
	}
	ms := uint32(windows.INFINITE)
	if timeout >= 0 {
		ms = uint32(timeout.Milliseconds())
	}
	idx, err := windows.WaitForMultipleObjects(handles, false, ms)
	if err != nil {
		return nil, err
	}
	if idx >= uint32(len(fds)) {
		return nil, nil // timeout
	}
	return []uintptr{fds[idx]}, nil
}
