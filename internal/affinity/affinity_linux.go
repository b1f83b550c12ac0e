//go:build linux

// File: internal/affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package affinity

import "golang.org/x/sys/unix"

// Linux pins the calling thread via sched_setaffinity, using
// golang.org/x/sys/unix rather than the teacher's cgo pthread call so
// this package stays cgo-free.
type Linux struct{}

func (Linux) Pin(cpuID int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	return unix.SchedSetaffinity(0, &set)
}

// New returns the platform Requester for the running OS.
func New() Requester {
	return Linux{}
}
