// File: supervisor/supervisor.go
// Package supervisor turns a config.Config into a running set of nodes
// and paths, and owns their startup/shutdown ordering the way
// facade/hioload.go's HioloadWS owns transport/pool/poller/executor:
// one Config in, one New, one Start, one Stop, safe to call from a
// single goroutine under a mutex. Generalizes HioloadWS's fixed set of
// subsystems into a dynamic set of named nodes and paths discovered
// from configuration.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package supervisor

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/villas-go/node/config"
	"github.com/villas-go/node/hook"
	"github.com/villas-go/node/internal/affinity"
	"github.com/villas-go/node/internal/concurrency"
	"github.com/villas-go/node/internal/coreerr"
	"github.com/villas-go/node/internal/idgen"
	"github.com/villas-go/node/internal/observability"
	"github.com/villas-go/node/internal/shard"
	"github.com/villas-go/node/mapping"
	"github.com/villas-go/node/node"
	"github.com/villas-go/node/path"
	"github.com/villas-go/node/stats"
)

// namespace seeds every UUID this supervisor derives, giving
// spec.md §8's idempotence property: the same config re-parsed under
// the same supervisor always yields the same path UUIDs.
const namespace = "villas-node.supervisor"

// Supervisor owns the full lifecycle of a deployment's nodes and
// paths: construction from config, ordered startup, ordered shutdown,
// and the ambient stats/metrics surface.
type Supervisor struct {
	log      *observability.Logger
	stats    *stats.Registry
	shard    *shard.Assigner
	workerID string

	executor    *concurrency.Executor
	restartable map[string]bool
	restartStop chan struct{}

	factories map[string]NodeFactory

	mu         sync.RWMutex
	nodes      map[string]node.Node
	paths      map[string]*path.Path
	started    bool
	shutdownCh chan struct{}
	shutdownOn sync.Once

	metricsSrv *http.Server
	cfg        *config.Config
}

// New builds a Supervisor and every node/path named in cfg: nodes are
// parsed and checked, paths built but not prepared — nothing runs
// until Start is called.
func New(cfg *config.Config) (*Supervisor, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Supervisor{
		log:         observability.New(observability.Options{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty, Component: "supervisor"}),
		stats:       stats.NewRegistry(),
		executor:    concurrency.NewExecutor(4, -1),
		factories:   defaultFactories(),
		nodes:       make(map[string]node.Node),
		paths:       make(map[string]*path.Path),
		restartable: make(map[string]bool),
		shutdownCh:  make(chan struct{}),
		workerID:    cfg.WorkerID,
		cfg:         cfg,
	}

	// shard is only consulted once more than one worker ID is
	// configured; a bare single-process deployment owns every node
	// locally without paying for a rendezvous lookup per node.
	if len(cfg.Workers) > 0 {
		s.shard = shard.NewAssigner(cfg.Workers)
	}

	for _, nc := range cfg.Nodes {
		if restart, ok := nc.Settings["restart"].(bool); ok && restart {
			s.restartable[nc.Name] = true
		}
	}

	for _, nc := range cfg.Nodes {
		if err := s.buildNode(nc); err != nil {
			return nil, err
		}
	}
	for _, pc := range cfg.Paths {
		if _, err := s.buildPath(pc); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// RegisterNodeFactory adds or overrides a node type constructor. New
// builds every node of its config before it returns, and no later
// Supervisor method builds nodes, so a registered factory is not used
// for any node of the config.
func (s *Supervisor) RegisterNodeFactory(typeName string, f NodeFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factories[typeName] = f
}

// Stats exposes the supervisor's stats.Registry so callers can wire it
// into hook chains built outside of config-driven path construction.
func (s *Supervisor) Stats() *stats.Registry { return s.stats }

// Done returns a channel that's closed once a path has asked the
// supervisor to shut down (spec.md §4.8: a source reaching eof=stop
// requests supervisor shutdown). Callers select on it alongside OS
// signals to know when to call Stop.
func (s *Supervisor) Done() <-chan struct{} { return s.shutdownCh }

// requestShutdown is handed to every built path as its OnExhausted
// callback. It only signals Done; it never calls Stop itself, since
// the caller is the very worker goroutine Stop would need to wait on.
func (s *Supervisor) requestShutdown() {
	s.shutdownOn.Do(func() { close(s.shutdownCh) })
}

// isOwned reports whether this supervisor instance owns nodeName's
// single reader (spec.md §4.6: "exactly one thread reads a node"),
// extended across worker processes via rendezvous hashing over the
// configured worker IDs. With no shard assigner configured (the
// common single-process deployment), every node is owned locally.
func (s *Supervisor) isOwned(nodeName string) bool {
	if s.shard == nil {
		return true
	}
	return s.shard.Owner(nodeName) == s.workerID
}

// pathOwned reports whether every one of a path's sources is owned
// locally; a path with any remote source is not started by this
// worker at all rather than partially run.
func (s *Supervisor) pathOwned(p *path.Path) bool {
	for _, src := range p.Sources {
		if !s.isOwned(src.Node.Name()) {
			return false
		}
	}
	return true
}

func (s *Supervisor) buildNode(nc config.NodeConfig) error {
	factory, ok := s.factories[nc.Type]
	if !ok {
		return coreerr.New(coreerr.KindConfig, fmt.Sprintf("supervisor: unknown node type %q for node %q", nc.Type, nc.Name)).
			WithContext("node", nc.Name)
	}
	n := factory(nc.Name)

	if raw, ok := nc.Settings["signals"].([]any); ok {
		sigs, err := buildSignalList(raw)
		if err != nil {
			return coreerr.Wrap(coreerr.KindConfig, err, "supervisor: invalid signals for node "+nc.Name)
		}
		wireSignals(n, sigs)
	}

	if err := n.Parse(nc.Settings); err != nil {
		return coreerr.Wrap(coreerr.KindConfig, err, "supervisor: parse node "+nc.Name)
	}
	if err := n.Check(); err != nil {
		return coreerr.Wrap(coreerr.KindConfig, err, "supervisor: check node "+nc.Name)
	}

	s.mu.Lock()
	s.nodes[nc.Name] = n
	s.mu.Unlock()
	return nil
}

func (s *Supervisor) buildPath(pc config.PathConfig) (string, error) {
	uuid := pc.UUID
	if uuid == "" {
		uuid = idgen.DeriveUUID(namespace, "path:"+fmt.Sprint(pc.Sources, pc.Destinations, pc.Mapping))
	}

	mode := path.ModeAny
	if pc.Mode == "all" {
		mode = path.ModeAll
	}

	p := path.New(uuid, mode)
	p.RateHz = pc.Rate
	p.PollExplicit = pc.Poll
	p.OriginalSequenceNo = pc.OriginalSequenceNo
	p.Builtin = pc.BuiltinHooks
	if pc.QueueLength > 0 {
		p.QueueLen = pc.QueueLength
	}
	if pc.Vectorize > 0 {
		p.Vectorize = pc.Vectorize
	}

	masked := make(map[string]bool, len(pc.Masked))
	for _, m := range pc.Masked {
		masked[m] = true
	}

	s.mu.RLock()
	for _, name := range pc.Sources {
		n, ok := s.nodes[name]
		if !ok {
			s.mu.RUnlock()
			return "", coreerr.New(coreerr.KindConfig, "supervisor: path references unknown source node "+name)
		}
		p.AddSource(n, masked[name])
	}
	for _, name := range pc.Destinations {
		n, ok := s.nodes[name]
		if !ok {
			s.mu.RUnlock()
			return "", coreerr.New(coreerr.KindConfig, "supervisor: path references unknown destination node "+name)
		}
		p.AddDestination(n)
	}
	s.mu.RUnlock()

	entries, err := mapping.Parse(pc.Mapping)
	if err != nil {
		return "", coreerr.Wrap(coreerr.KindConfig, err, "supervisor: parse mapping for path "+uuid)
	}
	p.Mapping = mapping.New(entries)
	p.Stats = s.stats
	p.OnExhausted = s.requestShutdown
	if pc.AffinityCPU != nil {
		p.Affinity = affinity.New()
		p.CPU = *pc.AffinityCPU
	}

	if pc.BuiltinHooks {
		// DropHook is deliberately not part of the shared ingress chain
		// here: its expected length is per-source-node (the source's own
		// signal count), but one Path's ingress chain runs on samples
		// from every source, so a single expected value would be wrong
		// whenever sources differ in width. mapping.Prepare checks each
		// data entry against its source's signal list; at run time
		// mapping.Remap zero-fills values a shorter sample lacks and
		// does not reject samples of another length.
		p.Ingress = hook.NewChain(hook.NewSequenceHook(0, s.log))
		for _, name := range pc.Sources {
			p.Ingress.Add(hook.NewStatsHook(20, name, s.stats))
		}
		p.Egress = hook.NewChain(hook.NewTimestampHook(0))
	} else {
		p.Ingress = hook.NewChain()
		p.Egress = hook.NewChain()
	}

	s.mu.Lock()
	s.paths[uuid] = p
	s.mu.Unlock()
	return uuid, nil
}

// Start prepares and starts every node, then every path, in that
// order (spec.md §4.7: sources must be ready before a path can read
// them), and starts the optional Prometheus exporter.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	for name, n := range s.nodes {
		if !s.isOwned(name) {
			s.log.Info("node not owned by this worker, skipping", map[string]any{"node": name})
			continue
		}
		if err := n.Prepare(); err != nil {
			return coreerr.Wrap(coreerr.KindRuntime, err, "supervisor: prepare node "+name)
		}
	}
	for name, n := range s.nodes {
		if !s.isOwned(name) {
			continue
		}
		if err := n.Start(); err != nil {
			return coreerr.Wrap(coreerr.KindRuntime, err, "supervisor: start node "+name)
		}
	}
	for uuid, p := range s.paths {
		if !s.pathOwned(p) {
			s.log.Info("path not owned by this worker, skipping", map[string]any{"path": uuid})
			continue
		}
		if err := p.Prepare(); err != nil {
			return coreerr.Wrap(coreerr.KindRuntime, err, "supervisor: prepare path "+uuid)
		}
	}
	for uuid, p := range s.paths {
		if !s.pathOwned(p) {
			continue
		}
		if err := p.Start(); err != nil {
			return coreerr.Wrap(coreerr.KindRuntime, err, "supervisor: start path "+uuid)
		}
	}

	if s.cfg.Stats.Enabled {
		if err := s.startMetricsServer(s.cfg.Stats.ListenAddr); err != nil {
			s.log.Warn("stats exporter did not start", map[string]any{"error": err.Error()})
		}
	}

	if len(s.restartable) > 0 {
		s.restartStop = make(chan struct{})
		if err := s.executor.Submit(s.restartMonitorTask(s.restartStop)); err != nil {
			s.log.Warn("restart monitor did not start", map[string]any{"error": err.Error()})
		}
	}

	s.started = true
	s.log.Info("supervisor started", map[string]any{"nodes": len(s.nodes), "paths": len(s.paths)})
	return nil
}

// restartMonitorTask returns the background task submitted to the
// executor: it polls nodes configured with settings["restart"] = true
// and calls Restart on any that have reached node.Stopped on their own
// (e.g. a file source that hit eof=stop), so a path kept open by other
// sources doesn't permanently lose one of its inputs. Runs for the
// supervisor's lifetime as a single long-lived executor task, exiting
// when stop is closed.
func (s *Supervisor) restartMonitorTask(stop <-chan struct{}) concurrency.TaskFunc {
	return func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.mu.RLock()
				for name, n := range s.nodes {
					if !s.restartable[name] || n.State() != node.Stopped {
						continue
					}
					if err := n.Restart(); err != nil {
						s.log.Warn("node auto-restart failed", map[string]any{"node": name, "error": err.Error()})
					} else {
						s.log.Info("node auto-restarted", map[string]any{"node": name})
					}
				}
				s.mu.RUnlock()
			}
		}
	}
}

func (s *Supervisor) startMetricsServer(addr string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(stats.NewCollector(s.stats))
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	s.metricsSrv = &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := s.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("stats exporter stopped", err, nil)
		}
	}()
	return nil
}

// Stop tears down paths before nodes, the reverse of Start, so no path
// worker is left reading from a node mid-Stop.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}

	for uuid, p := range s.paths {
		if !s.pathOwned(p) {
			continue
		}
		if err := p.Stop(); err != nil {
			s.log.Warn("path stop failed", map[string]any{"path": uuid, "error": err.Error()})
		}
	}
	for name, n := range s.nodes {
		if !s.isOwned(name) {
			continue
		}
		if err := n.Stop(); err != nil {
			s.log.Warn("node stop failed", map[string]any{"node": name, "error": err.Error()})
		}
	}

	if s.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.metricsSrv.Shutdown(ctx)
	}
	if s.restartStop != nil {
		close(s.restartStop)
		s.restartStop = nil
	}
	s.executor.Close()

	s.started = false
	s.log.Info("supervisor stopped", nil)
	return nil
}

// AddPath builds and starts one additional path at runtime without
// disturbing any other running path or node, used for hot-reloading a
// single dataflow edge (spec.md §4.7).
func (s *Supervisor) AddPath(pc config.PathConfig) (string, error) {
	uuid, err := s.buildPath(pc)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	started := s.started
	p := s.paths[uuid]
	s.mu.RUnlock()
	if !started || !s.pathOwned(p) {
		return uuid, nil
	}

	if err := p.Prepare(); err != nil {
		return "", err
	}
	if err := p.Start(); err != nil {
		return "", err
	}
	return uuid, nil
}

// RemovePath stops and forgets a running path by UUID.
func (s *Supervisor) RemovePath(uuid string) error {
	s.mu.Lock()
	p, ok := s.paths[uuid]
	if !ok {
		s.mu.Unlock()
		return coreerr.New(coreerr.KindConfig, "supervisor: unknown path "+uuid)
	}
	delete(s.paths, uuid)
	s.mu.Unlock()
	return p.Stop()
}
