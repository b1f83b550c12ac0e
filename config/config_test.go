// File: config/config_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package config

import "testing"

func TestValidateCatchesUnknownSourceNode(t *testing.T) {
	cfg := &Config{
		Nodes: []NodeConfig{{Name: "gen", Type: "signal"}},
		Paths: []PathConfig{{Sources: []string{"missing"}, Destinations: []string{"gen"}}},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected an error for an unknown source node")
	}
}

func TestValidateCatchesDuplicateNodeNames(t *testing.T) {
	cfg := &Config{
		Nodes: []NodeConfig{{Name: "a", Type: "signal"}, {Name: "a", Type: "file"}},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected an error for a duplicate node name")
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	cfg := &Config{
		Nodes: []NodeConfig{
			{Name: "gen", Type: "signal"},
			{Name: "sink", Type: "memnode"},
		},
		Paths: []PathConfig{{Mode: "any", Sources: []string{"gen"}, Destinations: []string{"sink"}, Mapping: []string{"gen"}}},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
