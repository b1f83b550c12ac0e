// File: format/endian.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package format

import (
	"encoding/binary"
	"unsafe"
)

// nativeByteOrder detects host endianness for the raw/binary payload
// sections, which travel in native order unless a format explicitly
// overrides it (spec.md §6).
func nativeByteOrder() binary.ByteOrder {
	var x uint16 = 1
	b := (*[2]byte)(unsafe.Pointer(&x))
	if b[0] == 1 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}
