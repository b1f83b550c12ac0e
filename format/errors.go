// File: format/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package format

import "github.com/villas-go/node/internal/coreerr"

// Sentinel decode/encode errors, spec.md §4.2.
var (
	ErrTruncated = coreerr.ErrTruncated
	ErrInvalid   = coreerr.ErrInvalidToken
	ErrOverrun   = coreerr.ErrOverrun
)
