// File: path/path.go
// Package path implements the Path engine: the per-configuration unit
// that reads from one or more source nodes, runs samples through an
// ingress hook chain, remaps them via a compiled mapping.Mapping, runs
// the result through an egress hook chain, and fans it out to one or
// more destination nodes, per spec.md §4.6. A Path with exactly one
// source and no configured rate runs a synchronous fast path; anything
// else (multiple sources, a fixed re-emit rate, or an explicitly
// requested poll mode) runs a polled multiplexer built on
// internal/iopoll.Wait. Grounded on facade/hioload.go's small
// Start/Stop-owning orchestrator and core/concurrency/eventloop.go's
// batched-dispatch worker goroutine, generalized from a single
// connection's read loop to a many-source, many-destination fan-out.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package path

import (
	"sync"
	"time"

	"github.com/villas-go/node/hook"
	"github.com/villas-go/node/internal/affinity"
	"github.com/villas-go/node/internal/coreerr"
	"github.com/villas-go/node/internal/iopoll"
	"github.com/villas-go/node/internal/observability"
	"github.com/villas-go/node/mapping"
	"github.com/villas-go/node/node"
	"github.com/villas-go/node/queue"
	"github.com/villas-go/node/sample"
	"github.com/villas-go/node/signal"
)

// Mode selects how a Path's ALL/ANY barrier gates remap cycles when it
// has more than one source (spec.md §4.6).
type Mode int

const (
	// ModeAny remaps as soon as any non-masked source has a fresh
	// sample, reusing the latest value from every other source.
	ModeAny Mode = iota
	// ModeAll waits until every non-masked source has produced a fresh
	// sample since the last remap before running one.
	ModeAll
)

func (m Mode) String() string {
	if m == ModeAll {
		return "all"
	}
	return "any"
}

// PathSource wraps a node.Node acting as one of a Path's inputs. Masked
// sources feed the mapping engine with their latest known value but
// never themselves gate an ALL-mode barrier.
type PathSource struct {
	Node   node.Node
	Masked bool

	last   *sample.Sample
	fresh  bool
	bufs   []*sample.Sample
	done   bool // set once this source hits a terminal eof=stop read
}

// signalSource adapts a node.Node to mapping.SignalSource.
type signalSource struct{ n node.Node }

func (s signalSource) Name() string            { return s.n.Name() }
func (s signalSource) Signals() *signal.List    { return s.n.OutSignals() }

// PathDestination wraps a node.Node acting as one of a Path's outputs,
// fed through its own bounded queue so a slow destination cannot stall
// the source read loop (spec.md §4.2/§4.6).
type PathDestination struct {
	Node  node.Node
	Queue *queue.Queue
}

// Path is one dataflow edge: N sources -> ingress hooks -> mapping ->
// egress hooks -> M destinations.
type Path struct {
	UUID               string
	Mode               Mode
	Vectorize          int
	QueueLen           int
	RateHz             float64
	PollExplicit       bool
	OriginalSequenceNo bool
	Builtin            bool

	Sources      []*PathSource
	Destinations []*PathDestination
	Mapping      *mapping.Mapping
	Ingress      *hook.Chain
	Egress       *hook.Chain
	Pool         *sample.Pool
	Stats        mapping.StatsProvider

	// Affinity is an optional CPU-pinning collaborator the worker
	// goroutine asks to pin it on Start; the path never pins a thread
	// on its own. Nil means no pinning is requested.
	Affinity affinity.Requester
	CPU      int

	// OnExhausted is called (at most once, from the worker goroutine)
	// when a source reaches eof=stop, per spec.md §4.8's "EOF with
	// eof=stop: request supervisor shutdown". Nil means no one is
	// listening for this path's exhaustion.
	OnExhausted func()

	log *observability.Logger

	mu                sync.Mutex
	state             node.State
	seq               uint64
	lastEmitted       *sample.Sample
	stopCh            chan struct{}
	doneCh            chan struct{}
	timer             *iopoll.RateTimer
	destWG            sync.WaitGroup
	shutdownRequested bool
}

// New constructs an unprepared Path.
func New(uuid string, mode Mode) *Path {
	return &Path{
		UUID:      uuid,
		Mode:      mode,
		Vectorize: 1,
		QueueLen:  1024,
		state:     node.Initialized,
		log:       observability.New(observability.Options{Component: "path." + uuid}),
	}
}

// AddSource appends a source node. The first source added becomes the
// path's master source per spec.md §4.6 ("exactly one thread reads a
// node"); every source after it is treated identically by the mapping
// engine but participates in the same single read loop since a Path
// owns all of its sources' reads directly (no separate per-source
// thread is spun up — see DESIGN.md for the simplification rationale).
func (p *Path) AddSource(n node.Node, masked bool) {
	p.Sources = append(p.Sources, &PathSource{Node: n, Masked: masked})
}

// AddDestination appends a destination node, backed by its own bounded
// queue so one slow sink cannot block the others or the source side.
func (p *Path) AddDestination(n node.Node) {
	p.Destinations = append(p.Destinations, &PathDestination{Node: n})
}

// polled reports whether this Path must run the multiplexed loop
// rather than the single-source fast path (spec.md §4.6: auto-derived
// unless poll is explicitly configured).
func (p *Path) polled() bool {
	if p.PollExplicit {
		return true
	}
	return len(p.Sources) != 1 || p.RateHz > 0
}

// noopStats answers every Stats entry with "no value yet" rather than
// forcing every Path to wire a real stats.Registry just to Prepare.
type noopStats struct{}

func (noopStats) Value(string, mapping.StatMetric) (float64, bool) { return 0, false }

// Prepare resolves the mapping against every source's current signal
// shape and allocates the destination sample pool.
func (p *Path) Prepare() error {
	if p.Vectorize < 1 {
		p.Vectorize = 1
	}
	if p.Stats == nil {
		p.Stats = noopStats{}
	}
	sources := make(map[string]mapping.SignalSource, len(p.Sources))
	for _, s := range p.Sources {
		sources[s.Node.Name()] = signalSource{s.Node}
		s.bufs = make([]*sample.Sample, p.Vectorize)
		for i := range s.bufs {
			s.bufs[i] = &sample.Sample{}
		}
	}
	if err := p.Mapping.Prepare(sources); err != nil {
		return err
	}
	p.Pool = sample.NewPool(p.QueueLen, p.Mapping.Signals().Len(), p.Mapping.Signals(), sample.MemoryHeap)
	return nil
}

// Start allocates destination queues, starts the hook chains, and
// launches the worker goroutine (fast-path or polled, per polled()).
func (p *Path) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, d := range p.Destinations {
		q, err := queue.New(p.QueueLen)
		if err != nil {
			return coreerr.Wrap(coreerr.KindFatalIO, err, "path: destination queue init failed")
		}
		d.Queue = q
	}

	if p.Ingress != nil {
		if err := p.Ingress.Start(); err != nil {
			return err
		}
	}
	if p.Egress != nil {
		if err := p.Egress.Start(); err != nil {
			return err
		}
	}

	if p.RateHz > 0 {
		timer, err := iopoll.NewRateTimer(p.RateHz)
		if err != nil {
			return coreerr.Wrap(coreerr.KindFatalIO, err, "path: rate timer init failed")
		}
		p.timer = timer
	}

	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.state = node.Started

	for _, d := range p.Destinations {
		p.destWG.Add(1)
		go p.drainDestination(d)
	}

	go p.run()
	return nil
}

// Stop cancels the worker and destination drain goroutines (spec.md
// §4.6): signals the worker to exit and waits for it, then closes every
// destination queue to wake blocked pulls and waits up to a bounded
// timeout for a best-effort flush before returning.
func (p *Path) Stop() error {
	p.mu.Lock()
	if p.state != node.Started && p.state != node.Paused {
		p.mu.Unlock()
		return nil
	}
	p.state = node.Stopping
	close(p.stopCh)
	p.mu.Unlock()

	select {
	case <-p.doneCh:
	case <-time.After(2 * time.Second):
		p.log.Warn("path worker did not stop within timeout")
	}

	if p.timer != nil {
		p.timer.Stop()
	}

	for _, d := range p.Destinations {
		d.Queue.Close()
	}
	done := make(chan struct{})
	go func() { p.destWG.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		p.log.Warn("destination drain did not finish within timeout")
	}
	for _, d := range p.Destinations {
		_ = d.Queue.ReleaseClose()
	}

	if p.Ingress != nil {
		_ = p.Ingress.Stop()
	}
	if p.Egress != nil {
		_ = p.Egress.Stop()
	}

	p.mu.Lock()
	p.state = node.Stopped
	p.mu.Unlock()
	return nil
}

func (p *Path) State() node.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}
