// File: supervisor/supervisor_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package supervisor

import (
	"testing"
	"time"

	"github.com/villas-go/node/config"
	"github.com/villas-go/node/node"
	"github.com/villas-go/node/sample"
)

func TestSupervisorStartsGeneratorToMemNodePath(t *testing.T) {
	cfg := &config.Config{
		Nodes: []config.NodeConfig{
			{
				Name: "gen",
				Type: "signal",
				Settings: map[string]any{
					"signal":    "constant",
					"values":    float64(1),
					"amplitude": float64(9),
					"rate":      float64(50),
				},
			},
			{Name: "sink", Type: "memnode"},
		},
		Paths: []config.PathConfig{
			{Mode: "any", Sources: []string{"gen"}, Destinations: []string{"sink"}, Mapping: []string{"gen"}},
		},
		Stats: config.StatsConfig{Enabled: false},
	}

	sup, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sup.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sup.Stop()

	sink := sup.nodes["sink"]
	out := make([]*sample.Sample, 1)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n, err := sink.Read(out)
		if err != nil {
			t.Fatalf("sink.Read: %v", err)
		}
		if n > 0 {
			if out[0].Data[0].F != 9.0 {
				t.Fatalf("expected constant amplitude 9.0, got %v", out[0].Data[0].F)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("sink never received a sample within deadline")
}

func TestSupervisorValidatesUnknownNodeType(t *testing.T) {
	cfg := &config.Config{
		Nodes: []config.NodeConfig{{Name: "x", Type: "nonexistent"}},
	}
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected an error for an unknown node type")
	}
}

// TestWorkerSkipsNodesItDoesNotOwn configures two worker IDs and builds
// a Supervisor as one of them; nodes rendezvous-hash to the other
// worker must never be prepared/started by this one (spec.md §4.6
// "exactly one thread reads a node" extended across worker processes).
func TestWorkerSkipsNodesItDoesNotOwn(t *testing.T) {
	workers := []string{"worker-a", "worker-b"}

	base := &config.Config{
		Nodes: []config.NodeConfig{
			{Name: "n1", Type: "memnode"},
			{Name: "n2", Type: "memnode"},
			{Name: "n3", Type: "memnode"},
			{Name: "n4", Type: "memnode"},
		},
		Stats:    config.StatsConfig{Enabled: false},
		Workers:  workers,
		WorkerID: "worker-a",
	}

	sup, err := New(base)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if sup.shard == nil {
		t.Fatalf("expected a shard assigner to be built when Workers is set")
	}

	ownedByA := map[string]bool{}
	for name := range sup.nodes {
		ownedByA[name] = sup.isOwned(name)
	}

	ownedCount := 0
	for _, owned := range ownedByA {
		if owned {
			ownedCount++
		}
	}
	if ownedCount == 0 || ownedCount == len(ownedByA) {
		t.Fatalf("expected rendezvous hashing to split 4 nodes across 2 workers, got %d/%d owned by worker-a", ownedCount, len(ownedByA))
	}

	if err := sup.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sup.Stop()

	for name, owned := range ownedByA {
		n := sup.nodes[name]
		if owned {
			if n.State() != node.Started {
				t.Fatalf("owned node %q state = %v, want Started", name, n.State())
			}
		} else {
			if n.State() == node.Started {
				t.Fatalf("non-owned node %q was started, want it left Checked", name)
			}
		}
	}

	// A second supervisor owning the complementary shard must pick up
	// exactly the nodes worker-a skipped.
	cfgB := *base
	cfgB.WorkerID = "worker-b"
	supB, err := New(&cfgB)
	if err != nil {
		t.Fatalf("New (worker-b): %v", err)
	}
	for name, owned := range ownedByA {
		if got := supB.isOwned(name); got == owned {
			t.Fatalf("node %q ownership did not partition: worker-a owned=%v, worker-b owned=%v", name, owned, got)
		}
	}
}
