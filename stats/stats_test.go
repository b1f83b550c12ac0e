// File: stats/stats_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stats

import (
	"math"
	"testing"

	"github.com/villas-go/node/mapping"
)

func TestRegistryComputesRunningMoments(t *testing.T) {
	r := NewRegistry()
	for _, v := range []float64{1, 2, 3, 4, 5} {
		r.Observe("gen.owd", v)
	}

	total, ok := r.Value("gen", mapping.StatTotal)
	if !ok || total != 5 {
		t.Fatalf("total = %v, ok=%v, want 5", total, ok)
	}
	mean, _ := r.Value("gen", mapping.StatMean)
	if math.Abs(mean-3) > 1e-9 {
		t.Fatalf("mean = %v, want 3", mean)
	}
	lowest, _ := r.Value("gen", mapping.StatLowest)
	highest, _ := r.Value("gen", mapping.StatHighest)
	if lowest != 1 || highest != 5 {
		t.Fatalf("lowest/highest = %v/%v, want 1/5", lowest, highest)
	}
	variance, _ := r.Value("gen", mapping.StatVariance)
	if math.Abs(variance-2.5) > 1e-9 {
		t.Fatalf("variance = %v, want 2.5", variance)
	}
}

func TestRegistryUnknownNodeMisses(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Value("missing", mapping.StatTotal); ok {
		t.Fatalf("expected a miss for an unobserved node")
	}
}
