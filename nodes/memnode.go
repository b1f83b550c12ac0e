// File: nodes/memnode.go
// memnode.go implements the in-process loopback node original_source
// uses internally for testing paths without real I/O, extended per
// SPEC_FULL.md's domain stack to optionally back its queue with a
// Redis stream (XADD/XREAD) instead of the local ring, demonstrating
// the Node contract against a real external broker. The `nodes`
// package is the only place in this module that imports go-redis;
// every other package only ever sees a plain in-process queue.Queue.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package nodes

import (
	"fmt"

	"github.com/villas-go/node/internal/coreerr"
	"github.com/villas-go/node/node"
	"github.com/villas-go/node/queue"
	"github.com/villas-go/node/sample"
	"github.com/villas-go/node/signal"
)

// MemNode is an in-process loopback bus: samples written to it are
// immediately available to be read back, either via a local bounded
// queue or, when configured, a Redis stream.
type MemNode struct {
	node.Base

	capacity int
	q        *queue.Queue

	redisAddr   string
	redisStream string
	backend     *redisBackend // nil unless redis-backed
}

// NewMemNode constructs an unparsed MemNode.
func NewMemNode(name string) *MemNode {
	return &MemNode{Base: node.NewBase(name, "memnode"), capacity: 1024}
}

// SetSignals installs the SignalList this node's samples carry.
func (m *MemNode) SetSignals(sigs *signal.List) {
	m.InSigs = sigs
	m.OutSigs = sigs
}

func (m *MemNode) Parse(cfg map[string]any) error {
	if v, ok := cfg["capacity"].(float64); ok && v > 0 {
		m.capacity = int(v)
	}
	if redisCfg, ok := cfg["redis"].(map[string]any); ok {
		addr, _ := redisCfg["address"].(string)
		stream, _ := redisCfg["stream"].(string)
		if addr == "" || stream == "" {
			return coreerr.New(coreerr.KindConfig, "memnode: redis backing requires 'address' and 'stream'")
		}
		m.redisAddr = addr
		m.redisStream = stream
	}
	return m.Transition(node.Parsed)
}

func (m *MemNode) Check() error {
	if m.capacity <= 0 {
		return coreerr.New(coreerr.KindConfig, "memnode: 'capacity' must be positive")
	}
	return m.Transition(node.Checked)
}

func (m *MemNode) Prepare() error {
	return m.Transition(node.Prepared)
}

func (m *MemNode) Start() error {
	q, err := queue.New(m.capacity)
	if err != nil {
		return coreerr.Wrap(coreerr.KindFatalIO, err, "memnode: queue init failed")
	}
	m.q = q

	if m.redisAddr != "" {
		backend, err := newRedisBackend(m.redisAddr, m.redisStream)
		if err != nil {
			return coreerr.Wrap(coreerr.KindFatalIO, err, "memnode: redis connect failed")
		}
		m.backend = backend
	}

	return m.Transition(node.Started)
}

func (m *MemNode) Stop() error {
	if m.State() != node.Stopping {
		if err := m.Transition(node.Stopping); err != nil {
			return err
		}
	}
	if m.backend != nil {
		m.backend.Close()
		m.backend = nil
	}
	if m.q != nil {
		m.q.Close()
		_ = m.q.ReleaseClose()
		m.q = nil
	}
	return m.Transition(node.Stopped)
}

func (m *MemNode) Restart() error {
	if err := m.Stop(); err != nil {
		return err
	}
	if err := m.Transition(node.Prepared); err != nil {
		return err
	}
	return m.Start()
}

func (m *MemNode) Read(out []*sample.Sample) (int, error) {
	if m.backend != nil {
		return m.backend.read(out, m.InSigs)
	}
	if len(out) == 0 {
		return 0, nil
	}
	s, ok := m.q.Pull()
	if !ok {
		return 0, nil
	}
	out[0] = s
	return 1, nil
}

func (m *MemNode) Write(in []*sample.Sample) (int, error) {
	if m.backend != nil {
		return m.backend.write(in)
	}
	n := 0
	for _, s := range in {
		if err := m.q.Push(s); err != nil {
			if err == coreerr.ErrQueueFull {
				break
			}
			return n, coreerr.Wrap(coreerr.KindTransientIO, err, "memnode: push failed")
		}
		n++
	}
	return n, nil
}

func (m *MemNode) PollFDs() []uintptr {
	if m.backend != nil {
		return nil // the redis client has no pollable fd of its own
	}
	if m.q != nil {
		return []uintptr{m.q.Fd()}
	}
	return nil
}

func (m *MemNode) NetemFDs() []uintptr { return nil }

func (m *MemNode) String() string {
	if m.backend != nil {
		return fmt.Sprintf("memnode(redis=%s/%s)", m.redisAddr, m.redisStream)
	}
	return fmt.Sprintf("memnode(capacity=%d)", m.capacity)
}
