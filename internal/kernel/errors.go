package kernel

import "errors"

// ErrInvalidAmount is returned by ToCentavos for non-finite or
// out-of-range inputs.
var ErrInvalidAmount = errors.New("invalid amount")
