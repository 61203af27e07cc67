package engine

import "errors"

// ErrorToken replaces the display while the engine is in the error state.
const ErrorToken = "Error"

// ErrComputation is returned when a result is not a number, infinite, too
// long for the display or outside the safe integer range. The engine stays
// in the error state until Clear.
var ErrComputation = errors.New("computation error")
