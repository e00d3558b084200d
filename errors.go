// Package deco ties together atmosphere, gasmix, tank, segment and model
// into the dive façade and executor state machine. The error taxonomy below
// covers the failures that originate in this package; tank construction and
// segment validation failures (ErrInvalidGas, ErrInvalidTank, ErrInvalidMod,
// ErrUnauthorizedMod, ErrEmptyTank) are defined where they are raised, in
// package tank and package segment, and surface here unwrapped through
// errors.Is.
package deco

import "fmt"

// Error taxonomy for the engine. All are sentinel values, matched with
// errors.Is against the wrapped error returned by the methods below, in the
// same style as package gasmix/tank's own fmt.Errorf wrapping.
var (
	ErrNothingToProcess   = fmt.Errorf("deco: nothing to process")
	ErrProcessingError    = fmt.Errorf("deco: illegal executor state")
	ErrInfiniteDeco       = fmt.Errorf("deco: decompression obligation did not resolve")
	ErrModelError         = fmt.Errorf("deco: model integration failure")
	ErrModelStateError    = fmt.Errorf("deco: model in an invalid state")
	ErrInstantiationError = fmt.Errorf("deco: dive construction failed")
)

// infiniteDecoCapSeconds is the hard ceiling on accumulated deco/no-fly
// integration time; exceeding it raises ErrInfiniteDeco rather than loop
// forever on a pathological profile.
const infiniteDecoCapSeconds = 300000.0
