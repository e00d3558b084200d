// Package segment describes the pieces of a dive profile: what the caller
// asks for (InputSegment) and what the executor produced (OutputSegment).
// Grounded on the teacher's DivePlan input handling in diveplanner.go,
// generalized from a single implicit gas to an explicit tank reference and
// from NDL-only reporting to full deco annotation.
package segment

import (
	"fmt"

	"github.com/divelabs/deco/tank"
)

// Kind classifies a segment's role in the profile.
type Kind int

const (
	// Constant is a hold at a fixed depth for a configured duration.
	Constant Kind = iota
	// AscentDescent is a depth change, produced internally by the executor
	// or supplied directly by the caller for multi-level profiles.
	AscentDescent
	// Waypoint is a zero-duration marker, e.g. a gas switch with no hold.
	Waypoint
	// Deco is an executor-emitted decompression stop; never a valid kind
	// for an InputSegment supplied by the caller.
	Deco
)

func (k Kind) String() string {
	switch k {
	case Constant:
		return "constant"
	case AscentDescent:
		return "ascent_descent"
	case Waypoint:
		return "waypoint"
	case Deco:
		return "deco"
	}
	return "unknown"
}

// ErrUnauthorizedMod is returned when a segment's depth falls outside its
// tank's breathable MOD/min-OD window.
var ErrUnauthorizedMod = fmt.Errorf("segment: depth outside tank's authorized mod window")

// InputSegment is a caller-supplied leg of a dive plan.
type InputSegment struct {
	Kind     Kind
	DepthM   float64
	DurationS float64
	Tank     *tank.Tank
	Setpoint float64 // bar; 0 means open-circuit.
}

// Validate checks the segment's depth against its tank's authorized window,
// using the engine's configured minimum tolerated ppO2.
func (s *InputSegment) Validate(minPPO2, waterDensity, surfacePressureBar float64) error {
	if s.Tank == nil {
		return fmt.Errorf("%w: segment has no tank reference", ErrUnauthorizedMod)
	}
	mod := s.Tank.MOD()
	minOD := s.Tank.MinOD(minPPO2, waterDensity, surfacePressureBar)
	if s.DepthM > mod {
		return fmt.Errorf("%w: depth %.1fm exceeds tank mod %.1fm", ErrUnauthorizedMod, s.DepthM, mod)
	}
	if s.DepthM < minOD {
		return fmt.Errorf("%w: depth %.1fm below tank min_od %.1fm", ErrUnauthorizedMod, s.DepthM, minOD)
	}
	return nil
}

// OutputSegment is an executor-produced leg of the final profile, carrying
// the running totals and, for deco segments, the ceiling annotations the
// spec requires for auditability.
type OutputSegment struct {
	InputSegment

	RunTimeS   float64
	GasUsedL   float64

	// Deco annotations; zero-valued for non-deco segments.
	MaxMV                  float64
	GFUsed                 float64
	ControllingCompartment int
}
