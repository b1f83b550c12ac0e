// File: internal/shard/shard.go
// Package shard assigns each node name to exactly one owning worker
// shard via rendezvous (highest random weight) hashing, giving
// spec.md §4.6's "exactly one thread reads a node" invariant a stable
// answer that survives shard membership changes with minimal
// reshuffling — only the keys owned by an added/removed shard move,
// unlike a modulo-based assignment which reshuffles almost everything.
// Grounded on the domain-stack wiring for github.com/dgryski/
// go-rendezvous named in SPEC_FULL.md's DOMAIN STACK section (the same
// algorithm go-redis's Ring client uses to assign keys to shards).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package shard

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	rendezvous "github.com/dgryski/go-rendezvous"
)

func hashString(s string, seed uint64) uint64 {
	return xxhash.Sum64String(s) ^ seed
}

// Assigner maps node names onto a changeable set of shard IDs.
type Assigner struct {
	mu    sync.RWMutex
	r     *rendezvous.Rendezvous
	ids   map[string]bool
}

// NewAssigner builds an Assigner over the given initial shard IDs
// (e.g. supervisor worker names or path-group labels).
func NewAssigner(shardIDs []string) *Assigner {
	ids := make(map[string]bool, len(shardIDs))
	for _, id := range shardIDs {
		ids[id] = true
	}
	return &Assigner{r: rendezvous.New(shardIDs, hashString), ids: ids}
}

// Owner returns the shard ID that owns key (e.g. a node name).
func (a *Assigner) Owner(key string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.r.Lookup(key)
}

// AddShard grows the shard set by one ID, idempotent.
func (a *Assigner) AddShard(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ids[id] {
		return
	}
	a.ids[id] = true
	a.r.Add(id)
}

// RemoveShard shrinks the shard set by one ID, idempotent.
func (a *Assigner) RemoveShard(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.ids[id] {
		return
	}
	delete(a.ids, id)
	a.r.Remove(id)
}
