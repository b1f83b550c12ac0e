// File: config/config.go
// Package config loads a villas-node deployment's declarative
// configuration: named/typed nodes, paths wiring sources through a
// mapping to destinations, and ambient logging/stats settings
// (spec.md §2/§8). Grounded on jhkimqd-chaos-utils/pkg/config.go's
// YAML-with-env-var-expansion Load/Save/Validate shape.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NodeConfig names and types one node; Settings carries every
// type-specific field (uri, format, eof, signal, rate, capacity, ...)
// as a raw map so config.go stays agnostic of which node types exist —
// each node's own Parse(map[string]any) interprets its Settings.
type NodeConfig struct {
	Name     string         `yaml:"name"`
	Type     string         `yaml:"type"`
	Settings map[string]any `yaml:",inline"`
}

// PathConfig wires a set of source nodes through a mapping to a set of
// destination nodes (spec.md §3/§4.6).
type PathConfig struct {
	UUID               string   `yaml:"uuid,omitempty"`
	Mode               string   `yaml:"mode"` // "any" or "all"
	Sources            []string `yaml:"sources"`
	Masked             []string `yaml:"masked,omitempty"`
	Destinations       []string `yaml:"destinations"`
	Mapping            []string `yaml:"mapping"`
	Rate               float64  `yaml:"rate,omitempty"`
	Poll               bool     `yaml:"poll,omitempty"`
	QueueLength        int      `yaml:"queuelength,omitempty"`
	Vectorize          int      `yaml:"vectorize,omitempty"`
	OriginalSequenceNo bool     `yaml:"original_sequence_no,omitempty"`
	BuiltinHooks       bool     `yaml:"builtin_hooks"`
	AffinityCPU        *int     `yaml:"affinity_cpu,omitempty"`
}

// LoggingConfig controls the process-wide observability.Logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// StatsConfig controls the optional Prometheus stats exporter.
type StatsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// Config is the full deployment configuration.
type Config struct {
	Nodes   []NodeConfig  `yaml:"nodes"`
	Paths   []PathConfig  `yaml:"paths"`
	Logging LoggingConfig `yaml:"logging"`
	Stats   StatsConfig   `yaml:"stats"`

	// Workers lists every worker ID participating in this deployment;
	// WorkerID is the ID this process runs as. Both empty (the default)
	// means single-process mode: this supervisor owns every configured
	// node. With Workers set, rendezvous hashing (internal/shard)
	// assigns each node's single reader to exactly one worker ID
	// (spec.md §4.6), and a Supervisor only prepares/starts the nodes
	// and paths it owns.
	Workers  []string `yaml:"workers,omitempty"`
	WorkerID string   `yaml:"worker_id,omitempty"`
}

// DefaultConfig returns a minimal, valid baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Pretty: false},
		Stats:   StatsConfig{Enabled: true, ListenAddr: ":9101"},
	}
}

// Load reads and parses a YAML configuration file, expanding
// environment variable references the same way chaos-utils' loader
// does, so secrets/endpoints never need to be hardcoded in the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = "villas-node.yaml"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration's structural invariants (spec.md
// §8): every node has a unique, non-empty name and a non-empty type
// name, and every path's sources/destinations reference declared
// nodes. Whether the type name is known is not checked here; the
// supervisor rejects unknown types when it builds the nodes.
func (c *Config) Validate() error {
	names := make(map[string]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		if n.Name == "" {
			return fmt.Errorf("config: a node is missing 'name'")
		}
		if n.Type == "" {
			return fmt.Errorf("config: node %q is missing 'type'", n.Name)
		}
		if names[n.Name] {
			return fmt.Errorf("config: duplicate node name %q", n.Name)
		}
		names[n.Name] = true
	}

	for i, p := range c.Paths {
		if len(p.Sources) == 0 {
			return fmt.Errorf("config: path #%d has no sources", i)
		}
		if len(p.Destinations) == 0 {
			return fmt.Errorf("config: path #%d has no destinations", i)
		}
		for _, s := range p.Sources {
			if !names[s] {
				return fmt.Errorf("config: path #%d references unknown source node %q", i, s)
			}
		}
		for _, d := range p.Destinations {
			if !names[d] {
				return fmt.Errorf("config: path #%d references unknown destination node %q", i, d)
			}
		}
		if p.Mode != "" && p.Mode != "any" && p.Mode != "all" {
			return fmt.Errorf("config: path #%d has invalid mode %q", i, p.Mode)
		}
	}

	if len(c.Workers) > 0 {
		known := make(map[string]bool, len(c.Workers))
		for _, w := range c.Workers {
			known[w] = true
		}
		if !known[c.WorkerID] {
			return fmt.Errorf("config: worker_id %q is not listed in workers %v", c.WorkerID, c.Workers)
		}
	}
	return nil
}
