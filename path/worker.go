// File: path/worker.go
// The Path worker goroutine: the single-source fast path, the polled
// multiplexer for multi-source/rate-limited paths, the ALL/ANY mask
// barrier, fixed-rate re-emit, and per-destination draining with the
// egress hook chain. Grounded on core/concurrency/eventloop.go's
// poll-then-dispatch loop shape.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package path

import (
	"io"
	"time"

	"github.com/villas-go/node/internal/iopoll"
	"github.com/villas-go/node/node"
	"github.com/villas-go/node/sample"
)

const pollTimeout = 50 * time.Millisecond

func (p *Path) run() {
	defer close(p.doneCh)
	if p.Affinity != nil {
		if err := p.Affinity.Pin(p.CPU); err != nil {
			p.log.Warn("affinity pin failed", map[string]any{"error": err.Error()})
		}
	}
	if p.polled() {
		p.runPolled()
	} else {
		p.runFastPath()
	}
}

// runFastPath is the single-source, no-rate case: a synchronous
// read -> ingress -> remap -> egress -> write cycle with no
// multiplexing overhead (spec.md §4.6).
func (p *Path) runFastPath() {
	src := p.Sources[0]
	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		n, err := src.Node.Read(src.bufs)
		if err != nil {
			if isEOFStop(src.Node, err) {
				p.log.Info("source reached eof=stop, requesting shutdown", map[string]any{"node": src.Node.Name()})
				p.requestShutdown()
				return
			}
			p.log.Warn("fast path source read failed", map[string]any{"node": src.Node.Name(), "err": err.Error()})
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if n == 0 {
			time.Sleep(time.Millisecond)
			continue
		}
		for i := 0; i < n; i++ {
			p.processOne(src.Node.Name(), src.bufs[i])
		}
	}
}

// isEOFStop reports whether err is the terminal eof=stop condition a
// source node signals by transitioning itself to node.Stopping and
// returning io.EOF (spec.md §4.8), as opposed to a transient I/O error
// that the worker should just retry.
func isEOFStop(n node.Node, err error) bool {
	return err == io.EOF && n.State() == node.Stopping
}

// requestShutdown notifies the supervisor that a source has reached a
// terminal eof=stop condition (spec.md §4.8: "EOF with eof=stop:
// request supervisor shutdown"). Fires at most once per path; the
// worker goroutine is the only caller, so no locking is needed.
func (p *Path) requestShutdown() {
	if p.shutdownRequested {
		return
	}
	p.shutdownRequested = true
	if p.OnExhausted != nil {
		p.OnExhausted()
	}
}

// runPolled multiplexes over every source's poll descriptors plus the
// rate timer (if any), auto-derived when a Path has more than one
// source or a configured re-emit rate (spec.md §4.6). Sources exposing
// no descriptor of their own (PollFDs() == nil) are serviced on every
// iteration regardless of Wait's result, since there is no OS-visible
// edge to multiplex on for them.
func (p *Path) runPolled() {
	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		var fds []uintptr
		for _, s := range p.Sources {
			if s.done {
				continue
			}
			fds = append(fds, s.Node.PollFDs()...)
		}
		if p.timer != nil {
			fds = append(fds, p.timer.Fd())
		}

		ready, err := iopoll.Wait(fds, pollTimeout)
		if err != nil {
			p.log.Warn("poll wait failed", map[string]any{"err": err.Error()})
			continue
		}
		readySet := make(map[uintptr]bool, len(ready))
		for _, fd := range ready {
			readySet[fd] = true
		}

		timerFired := p.timer != nil && readySet[p.timer.Fd()]
		if timerFired {
			p.timer.Drain()
		}

		anyRead := false
		for _, s := range p.Sources {
			if s.done {
				continue
			}
			srcFDs := s.Node.PollFDs()
			shouldTry := len(srcFDs) == 0
			for _, fd := range srcFDs {
				if readySet[fd] {
					shouldTry = true
					break
				}
			}
			if !shouldTry {
				continue
			}

			n, err := s.Node.Read(s.bufs)
			if err != nil {
				if isEOFStop(s.Node, err) {
					p.log.Info("source reached eof=stop, requesting shutdown", map[string]any{"node": s.Node.Name()})
					s.done = true
					p.requestShutdown()
					continue
				}
				p.log.Warn("polled source read failed", map[string]any{"node": s.Node.Name(), "err": err.Error()})
				continue
			}
			for i := 0; i < n; i++ {
				anyRead = true
				p.arrive(s, s.bufs[i])
			}
		}

		if allSourcesDone(p.Sources) {
			return
		}

		if timerFired && !anyRead {
			p.reemit()
		}
	}
}

func allSourcesDone(sources []*PathSource) bool {
	for _, s := range sources {
		if !s.done {
			return false
		}
	}
	return true
}

// arrive runs a freshly read sample through the ingress chain, records
// it as the source's latest value, and evaluates the ALL/ANY barrier.
func (p *Path) arrive(s *PathSource, raw *sample.Sample) {
	if !p.ingressProcess(raw) {
		return
	}
	s.last = raw
	if s.Masked {
		return // masked sources supply a value but never gate a remap
	}
	s.fresh = true

	switch p.Mode {
	case ModeAny:
		p.remapNow()
	case ModeAll:
		if p.allUnmaskedFresh() {
			p.remapNow()
			p.clearFresh()
		}
	}
}

func (p *Path) allUnmaskedFresh() bool {
	for _, s := range p.Sources {
		if s.Masked {
			continue
		}
		if !s.fresh {
			return false
		}
	}
	return true
}

func (p *Path) clearFresh() {
	for _, s := range p.Sources {
		if !s.Masked {
			s.fresh = false
		}
	}
}

// ingressProcess runs s through the ingress hook chain (if any) and
// reports whether it survived (false means it was dropped).
func (p *Path) ingressProcess(s *sample.Sample) bool {
	if s.Flags&sample.HasTSReceived == 0 {
		now := time.Now()
		s.TSReceived = sample.Timestamp{Sec: now.Unix(), Nsec: int64(now.Nanosecond())}
		s.Flags |= sample.HasTSReceived
	}
	if p.Ingress == nil {
		return true
	}
	batch := []*sample.Sample{s}
	n, err := p.Ingress.Process(batch, 1)
	if err != nil {
		p.log.Warn("ingress hook chain error", map[string]any{"err": err.Error()})
		return false
	}
	return n > 0
}

// processOne is the fast-path's single-source equivalent of arrive +
// remapNow, skipping the barrier machinery entirely since there is
// only ever one source to wait on.
func (p *Path) processOne(nodeName string, raw *sample.Sample) {
	if !p.ingressProcess(raw) {
		return
	}
	bySource := map[string]*sample.Sample{nodeName: raw}
	p.remapWith(bySource, raw)
}

// remapNow gathers each source's latest value (masked or not) and runs
// one remap cycle.
func (p *Path) remapNow() {
	bySource := make(map[string]*sample.Sample, len(p.Sources))
	var master *sample.Sample
	for _, s := range p.Sources {
		if s.last == nil {
			continue
		}
		bySource[s.Node.Name()] = s.last
		if master == nil {
			master = s.last
		}
	}
	if master == nil {
		return
	}
	p.remapWith(bySource, master)
}

// remapWith allocates a destination sample, runs the compiled mapping,
// stamps its own scalar fields from the master source, and fans it out
// to every destination.
func (p *Path) remapWith(bySource map[string]*sample.Sample, master *sample.Sample) {
	dst, ok := p.Pool.AcquireOne()
	if !ok {
		p.log.Warn("destination sample pool exhausted, cycle dropped", nil)
		return
	}
	if err := p.Mapping.Remap(dst, bySource, p.Stats); err != nil {
		p.log.Warn("mapping remap failed", map[string]any{"err": err.Error()})
		dst.Decref()
		return
	}

	dst.TSOrigin = master.TSOrigin
	dst.TSReceived = master.TSReceived
	dst.Flags |= sample.HasTSOrigin | sample.HasTSReceived | sample.HasData | sample.HasSequence
	if p.OriginalSequenceNo {
		dst.Sequence = master.Sequence
	} else {
		dst.Sequence = p.seq
		p.seq++
	}

	p.retainAndDispatch(dst)
}

// retainAndDispatch takes the extra reference reemit needs to safely read
// dst back later as p.lastEmitted, swaps it in, dispatches it to every
// destination, then drops the previous lastEmitted's retained reference.
// Without this extra Incref, dispatch's own refcounting (one reference
// per destination, released as each destination drains) can bring dst's
// refcount to zero and return it to the pool while lastEmitted still
// points at it.
func (p *Path) retainAndDispatch(dst *sample.Sample) {
	dst.Incref()
	prev := p.lastEmitted
	p.lastEmitted = dst
	p.dispatch(dst)
	if prev != nil {
		prev.Decref()
	}
}

// reemit re-pushes the last computed output at a fresh sequence number
// when the rate timer fires with no new source data (spec.md §4.6
// fixed-rate re-emit: "on tick with no fresh sample, re-emit last
// output with sequence++").
func (p *Path) reemit() {
	if p.lastEmitted == nil {
		return
	}
	dst, ok := p.Pool.AcquireOne()
	if !ok {
		p.log.Warn("destination sample pool exhausted on re-emit, cycle dropped", nil)
		return
	}
	sample.Copy(dst, p.lastEmitted)
	dst.Sequence = p.lastEmitted.Sequence + 1
	now := time.Now()
	dst.TSReceived = sample.Timestamp{Sec: now.Unix(), Nsec: int64(now.Nanosecond())}
	p.retainAndDispatch(dst)
}

// dispatch hands dst to every destination queue, Increfing for every
// extra consumer beyond the first so each destination's own Decref (in
// drainDestination) returns it to the pool only once all have used it.
func (p *Path) dispatch(dst *sample.Sample) {
	if len(p.Destinations) == 0 {
		dst.Decref()
		return
	}
	for i := 1; i < len(p.Destinations); i++ {
		dst.Incref()
	}
	for _, d := range p.Destinations {
		if err := d.Queue.Push(dst); err != nil {
			if old, ok := d.Queue.Pull(); ok {
				old.Decref()
				if pushErr := d.Queue.Push(dst); pushErr == nil {
					continue
				}
			}
			dst.Decref()
		}
	}
}

// drainDestination pulls ready samples for one destination, runs them
// through the egress hook chain, writes the survivors, and releases
// every sample's reference once Write returns (spec.md §4.6 step 8).
func (p *Path) drainDestination(d *PathDestination) {
	defer p.destWG.Done()
	vectorize := p.Vectorize
	if vectorize < 1 {
		vectorize = 1
	}
	for {
		batch := d.Queue.PullMany(vectorize)
		if len(batch) == 0 {
			if d.Queue.Closed() {
				return
			}
			iopoll.Wait([]uintptr{d.Queue.Fd()}, pollTimeout)
			continue
		}

		n := len(batch)
		if p.Egress != nil {
			var err error
			n, err = p.Egress.Process(batch, n)
			if err != nil {
				p.log.Warn("egress hook chain error", map[string]any{"node": d.Node.Name(), "err": err.Error()})
				n = 0
			}
		}
		live := batch[:n]

		if len(live) > 0 {
			if _, err := d.Node.Write(live); err != nil {
				p.log.Warn("destination write failed", map[string]any{"node": d.Node.Name(), "err": err.Error()})
			}
		}
		for _, s := range live {
			s.Decref()
		}
	}
}
