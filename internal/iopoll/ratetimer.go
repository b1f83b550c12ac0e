// File: internal/iopoll/ratetimer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// RateTimer arms a monotonic period and exposes it as a pollable
// SignalFD, giving the Path engine's fixed-rate re-emit (spec.md §4.6)
// the same fd-based wakeup shape as every other poll source instead of
// a separate time.Ticker code path.

package iopoll

import (
	"sync"
	"time"
)

// RateTimer periodically signals a SignalFD at 1/rateHz.
type RateTimer struct {
	sig    *SignalFD
	ticker *time.Ticker
	stop   chan struct{}
	once   sync.Once
}

// NewRateTimer starts a timer firing at rateHz (must be > 0).
func NewRateTimer(rateHz float64) (*RateTimer, error) {
	sig, err := NewSignalFD()
	if err != nil {
		return nil, err
	}
	period := time.Duration(float64(time.Second) / rateHz)
	rt := &RateTimer{
		sig:    sig,
		ticker: time.NewTicker(period),
		stop:   make(chan struct{}),
	}
	go rt.run()
	return rt, nil
}

func (rt *RateTimer) run() {
	for {
		select {
		case <-rt.ticker.C:
			rt.sig.Signal()
		case <-rt.stop:
			return
		}
	}
}

// Fd returns the pollable descriptor that fires on every tick.
func (rt *RateTimer) Fd() uintptr { return rt.sig.Fd() }

// Drain clears the pending tick edge.
func (rt *RateTimer) Drain() { rt.sig.Drain() }

// Stop halts the timer and releases its SignalFD.
func (rt *RateTimer) Stop() {
	rt.once.Do(func() { close(rt.stop) })
	rt.ticker.Stop()
	_ = rt.sig.Close()
}
