// File: internal/idgen/idgen.go
// Package idgen derives deterministic UUIDs for nodes and paths from
// their configuration, matching original_source's super_node.cpp
// behavior of hashing config + supervisor UUID when no uuid is given
// explicitly. A UUIDv5-style (namespace+name, SHA-1) derivation gives
// the idempotence property required by spec.md §8: re-parsing the same
// config under the same supervisor UUID yields byte-identical UUIDs.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package idgen

import (
	"crypto/sha1"
	"fmt"
)

// DeriveUUID hashes namespace (the supervisor UUID) and name (a
// canonical encoding of the node/path config) into a UUIDv5 string.
func DeriveUUID(namespace, name string) string {
	h := sha1.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write([]byte(name))
	sum := h.Sum(nil)

	sum[6] = (sum[6] & 0x0F) | 0x50 // version 5
	sum[8] = (sum[8] & 0x3F) | 0x80 // RFC 4122 variant

	return fmt.Sprintf("%x-%x-%x-%x-%x",
		sum[0:4], sum[4:6], sum[6:8], sum[8:10], sum[10:16])
}
