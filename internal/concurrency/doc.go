// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package concurrency carries the supervisor's background task
// executor: a fixed pool of goroutines draining a lock-free MPMC task
// queue, used for work that shouldn't block the Start/Stop call path
// (e.g. a future scheduled node restart).
package concurrency
