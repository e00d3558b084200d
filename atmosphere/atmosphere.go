// Package atmosphere provides the pure functions mapping depth to pressure
// and altitude to ambient pressure that the rest of the engine is built on.
// Everything here is a closed-form function of its inputs; there is no
// state and nothing here allocates.
package atmosphere

import (
	"fmt"
	"math"
)

const (
	gConst = 9.80665 // m/s^2

	// Domain limits for AltitudeToAmbientPressure / PPH2OAt.
	minAltitudeM = 0.0
	maxAltitudeM = 10000.0
	minTempC     = -20.0
	maxTempC     = 60.0
)

// ErrOutOfRange is returned when an atmospheric helper is called outside the
// domain it is valid over.
var ErrOutOfRange = fmt.Errorf("atmosphere: value out of range")

// DepthToPressure converts a depth in metres of the given water density
// (kg/m^3) to an absolute pressure in bar, on top of the given surface
// pressure.
func DepthToPressure(depthM, waterDensity, surfacePressureBar float64) float64 {
	// waterDensity*g*depth is a pressure in Pa; 1 bar = 100000 Pa.
	return surfacePressureBar + (waterDensity*gConst*depthM)/100000.0
}

// PressureToDepth is the inverse of DepthToPressure.
func PressureToDepth(pressureBar, waterDensity, surfacePressureBar float64) float64 {
	return (pressureBar - surfacePressureBar) * 100000.0 / (waterDensity * gConst)
}

// AltitudeToAmbientPressure implements the international barometric formula
// for dry air, valid for altitudes between 0 and 10000 m.
func AltitudeToAmbientPressure(altitudeM float64) (float64, error) {
	if altitudeM < minAltitudeM || altitudeM > maxAltitudeM {
		return 0, fmt.Errorf("%w: altitude %.1fm outside [%.0f, %.0f]",
			ErrOutOfRange, altitudeM, minAltitudeM, maxAltitudeM)
	}

	const (
		p0 = 1.01325   // bar, sea-level standard pressure.
		l  = 0.0065    // K/m, standard temperature lapse rate.
		t0 = 288.15    // K, sea-level standard temperature.
		g  = gConst    // m/s^2
		rd = 287.05287 // J/(kg*K), specific gas constant for dry air.
	)

	return p0 * math.Pow(1.0-(l*altitudeM)/t0, (g)/(rd*l)), nil
}

// PPH2OAt returns the saturated water-vapour partial pressure in bar for the
// given temperature in Celsius, valid between -20 and 60 C, using an
// Antoine-equation fit for water.
func PPH2OAt(tempC float64) (float64, error) {
	if tempC < minTempC || tempC > maxTempC {
		return 0, fmt.Errorf("%w: temperature %.1fC outside [%.0f, %.0f]",
			ErrOutOfRange, tempC, minTempC, maxTempC)
	}

	// Antoine coefficients for water (valid 1-100C, extrapolated below 1C
	// for this engine's purposes; the resulting error at low temperature is
	// negligible against the fixed 0.06266 bar constant most ZH-L16
	// implementations hardcode for body temperature anyway).
	const (
		a = 8.07131
		b = 1730.63
		c = 233.426
	)

	mmHg := math.Pow(10, a-(b/(c+tempC)))
	return mmHg * 0.00133322, nil
}

// BodyTemperaturePPH2O is the partial pressure of water vapour in the lungs
// at normal body temperature (37C), the constant the compartment model uses
// to offset alveolar inert-gas pressure. It is independent of ambient
// conditions: the lungs are always at body temperature regardless of water
// temperature.
const BodyTemperaturePPH2O = 0.0627
