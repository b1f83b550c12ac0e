//go:build !windows

// File: internal/iopoll/poll_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Unix poller built on golang.org/x/sys/unix.Poll, the same dependency
// hioload-ws's reactor/reactor_linux.go uses for epoll. The polled Path
// (spec.md §4.6) needs to multiplex an arbitrary, changing set of
// descriptors (one per source plus the rate timer) rather than a fixed
// epoll registration, so a plain poll(2) loop fits better than epoll
// here and avoids a second OS object whose lifetime must track the
// path's source list.

package iopoll

import (
	"time"

	"golang.org/x/sys/unix"
)

// Wait blocks up to timeout for any of fds to become readable, and
// returns the subset that fired. timeout<0 blocks indefinitely.
func Wait(fds []uintptr, timeout time.Duration) ([]uintptr, error) {
	if len(fds) == 0 {
		if timeout >= 0 {
			time.Sleep(timeout)
		}
		return nil, nil
	}
	pfds := make([]unix.PollFd, len(fds))
	for i, fd := range fds {
		pfds[i] = unix.PollFd{Fd: int32(fd), Events: unix.POLLIN}
	}
	ms := -1
	if timeout >= 0 {
		ms = int(timeout.Milliseconds())
	}
	n, err := unix.Poll(pfds, ms)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	ready := make([]uintptr, 0, n)
	for i, pfd := range pfds {
		if pfd.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			ready = append(ready, fds[i])
		}
	}
	return ready, nil
}
