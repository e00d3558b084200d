// Package gasmix represents breathing gas compositions and the depth limits
// they imply (MOD, min operating depth, equivalent narcotic depth). It is
// kept close to the teacher's original shape: a tiny value type with named
// constructors and the arithmetic that falls directly out of partial
// pressures.
package gasmix

import (
	"fmt"
	"math"

	"github.com/divelabs/deco/atmosphere"
)

// GasMix represents a breathing gas mixture with a given fraction of Helium
// (FHe), Nitrogen (FN2) and Oxygen (FO2). The fraction of Nitrogen and/or
// Helium can be zero depending on the type of gas mixture (Air, Nitrox, pure
// O2 etc.).
type GasMix struct {
	FHe float64
	FN2 float64
	FO2 float64
}

// MixType represents the type of the gas mix.
type MixType int

const (
	Unknown MixType = iota
	Air
	Heliox
	Nitrox
	Trimix
)

func (mt MixType) String() string {
	switch mt {
	case Air:
		return "Air"
	case Heliox:
		return "Heliox"
	case Nitrox:
		return "Nitrox"
	case Trimix:
		return "Trimix"
	}
	return "Unknown Gas Mix Type"
}

// NewAirMix is a convenience constructor for a gas mix of pure air.
func NewAirMix() *GasMix {
	return &GasMix{FN2: 0.79, FO2: 0.21}
}

// NewNitroxMix is a constructor for a Nitrox gas mix with a given fraction of
// oxygen. The fraction of nitrogen is derived from it.
func NewNitroxMix(fo2 float64) (*GasMix, error) {
	if fo2 < 0.21 || fo2 > 1.0 {
		return nil, fmt.Errorf("gasmix: invalid FO2 value (%f), should be between 0.21 and 1.0 inclusive", fo2)
	}

	return &GasMix{FN2: 1.0 - fo2, FO2: fo2}, nil
}

// NewTrimixMix is a constructor for a Trimix gas mix with a given fraction of
// oxygen and a given fraction of helium. The fraction of nitrogen is derived
// from it.
func NewTrimixMix(fo2, fhe float64) (*GasMix, error) {
	if fo2 < 0.05 || fo2 > 0.98 {
		return nil, fmt.Errorf("gasmix: invalid FO2 value (%f), should be between 0.05 and 0.98 inclusive", fo2)
	}
	if fhe < 0.0 || fhe > 0.95 {
		return nil, fmt.Errorf("gasmix: invalid FHe value (%f), should be between 0.0 and 0.95 inclusive", fhe)
	}
	if fo2+fhe > 1.0 {
		return nil, fmt.Errorf("gasmix: invalid FO2 (%f) and FHe (%f) values, total (%f) should not exceed 1.0", fo2, fhe, fo2+fhe)
	}

	return &GasMix{FHe: fhe, FN2: 1.0 - (fhe + fo2), FO2: fo2}, nil
}

// NewHelioxMix is a constructor for a Heliox gas mix with a given fraction of
// oxygen. The fraction of helium is derived from it.
func NewHelioxMix(fo2 float64) (*GasMix, error) {
	if fo2 < 0.05 || fo2 > 0.99 {
		return nil, fmt.Errorf("gasmix: invalid FO2 value (%f), should be between 0.05 and 0.99 inclusive", fo2)
	}

	return &GasMix{FHe: 1.0 - fo2, FO2: fo2}, nil
}

// NewNitroxBestMix returns the Nitrox mix that maximises the oxygen content
// without exceeding the given maximum ppO2 at the given depth. The result is
// floored to the nearest two decimal places for convenience and clarity.
func NewNitroxBestMix(depthM, maxPPO2, waterDensity, surfacePressureBar float64) (*GasMix, error) {
	p := atmosphere.DepthToPressure(depthM, waterDensity, surfacePressureBar)
	bestMix := maxPPO2 / p
	bestMix = math.Floor(bestMix*100.0) / 100.0
	return NewNitroxMix(bestMix)
}

// MixType returns the appropriate MixType constant for the gas mix.
func (gm *GasMix) MixType() MixType {
	switch {
	case gm.FO2 == 0.21 && gm.FN2 == 0.79 && gm.FHe == 0.0:
		return Air
	case gm.FHe > 0.0 && gm.FN2 == 0.0:
		return Heliox
	case gm.FHe > 0.0 && gm.FN2 > 0.0:
		return Trimix
	case gm.FHe == 0.0:
		return Nitrox
	}
	return Unknown
}

// DisplayName renders a human-readable name for the mix from its composition,
// in the teacher's {Air, Nitrox N, Oxygen, Heliox O/H, Trimix O/H} style.
func (gm *GasMix) DisplayName() string {
	o2 := int(math.Round(gm.FO2 * 100))
	he := int(math.Round(gm.FHe * 100))

	switch gm.MixType() {
	case Air:
		return "Air"
	case Nitrox:
		if o2 >= 99 {
			return "Oxygen"
		}
		return fmt.Sprintf("Nitrox %d", o2)
	case Heliox:
		return fmt.Sprintf("Heliox %d/%d", o2, he)
	case Trimix:
		return fmt.Sprintf("Trimix %d/%d", o2, he)
	}
	return "Unknown"
}

// MOD calculates the gas mix's maximum operating depth in metres for a given
// maximum partial pressure of oxygen in bar, at the given water density and
// surface pressure. Returns zero rather than a negative depth.
func (gm *GasMix) MOD(maxPPO2, waterDensity, surfacePressureBar float64) float64 {
	p := maxPPO2 / gm.FO2
	d := atmosphere.PressureToDepth(p, waterDensity, surfacePressureBar)
	return math.Max(0, math.Floor(d))
}

// MinOD calculates the shallowest depth in metres at which the mix supplies
// at least minPPO2 bar of oxygen. Zero means the mix is breathable at the
// surface.
func (gm *GasMix) MinOD(minPPO2, waterDensity, surfacePressureBar float64) float64 {
	p := minPPO2 / gm.FO2
	d := atmosphere.PressureToDepth(p, waterDensity, surfacePressureBar)
	return math.Max(0, math.Ceil(d))
}

// narcoticFraction combines the mix's components into a single narcotic
// potency, weighted by configurable per-gas narcotic indices relative to
// nitrogen at 1.0.
func (gm *GasMix) narcoticFraction(n2Index, o2Index, heIndex float64) float64 {
	return gm.FN2*n2Index + gm.FO2*o2Index + gm.FHe*heIndex
}

// END returns the equivalent narcotic depth in metres of the mix at depthM,
// using air (at surface) as the reference narcosis and the given per-gas
// narcotic indices.
func (gm *GasMix) END(depthM, n2Index, o2Index, heIndex, waterDensity, surfacePressureBar float64) float64 {
	p := atmosphere.DepthToPressure(math.Abs(depthM), waterDensity, surfacePressureBar)
	narcoticPP := p * gm.narcoticFraction(n2Index, o2Index, heIndex)
	airNarcoticFraction := 0.79*n2Index + 0.21*o2Index
	endP := narcoticPP / airNarcoticFraction
	return atmosphere.PressureToDepth(endP, waterDensity, surfacePressureBar)
}

// MODForEND is the inverse of END: the actual depth at which this mix
// produces the given equivalent narcotic depth.
func (gm *GasMix) MODForEND(endM, n2Index, o2Index, heIndex, waterDensity, surfacePressureBar float64) float64 {
	airNarcoticFraction := 0.79*n2Index + 0.21*o2Index
	endPressure := atmosphere.DepthToPressure(math.Abs(endM), waterDensity, surfacePressureBar)
	narcoticPP := endPressure * airNarcoticFraction
	frac := gm.narcoticFraction(n2Index, o2Index, heIndex)
	if frac <= 0 {
		return math.Inf(1)
	}
	p := narcoticPP / frac
	return atmosphere.PressureToDepth(p, waterDensity, surfacePressureBar)
}

// PPO2 returns the partial pressure of oxygen for the gas mix at the given
// depth in metres.
func (gm *GasMix) PPO2(depthM, waterDensity, surfacePressureBar float64) float64 {
	p := atmosphere.DepthToPressure(math.Abs(depthM), waterDensity, surfacePressureBar)
	return p * gm.FO2
}

// PPHe returns the partial pressure of helium for the gas mix at the given
// depth in metres.
func (gm *GasMix) PPHe(depthM, waterDensity, surfacePressureBar float64) float64 {
	p := atmosphere.DepthToPressure(math.Abs(depthM), waterDensity, surfacePressureBar)
	return p * gm.FHe
}

// PPN2 returns the partial pressure of nitrogen for the gas mix at the given
// depth in metres.
func (gm *GasMix) PPN2(depthM, waterDensity, surfacePressureBar float64) float64 {
	p := atmosphere.DepthToPressure(math.Abs(depthM), waterDensity, surfacePressureBar)
	return p * gm.FN2
}
