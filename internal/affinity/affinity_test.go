// File: internal/affinity/affinity_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package affinity

import "testing"

func TestNoneIsNoOp(t *testing.T) {
	var r Requester = None{}
	if err := r.Pin(0); err != nil {
		t.Fatalf("None.Pin: %v", err)
	}
}

func TestNewReturnsAPlatformRequester(t *testing.T) {
	if New() == nil {
		t.Fatal("New returned a nil Requester")
	}
}
