// Package config holds the immutable configuration surface the engine reads
// at dive construction time. There is no file parsing here; that is an
// external collaborator's job (a CLI or REST front-end would build a Config
// from flags, a TOML file, environment variables, whatever it likes).
package config

// TravelSwitchPolicy selects when a travel-gas switch happens during descent.
type TravelSwitchPolicy int

const (
	// TravelSwitchEarly switches as soon as the current tank's min_OD allows.
	TravelSwitchEarly TravelSwitchPolicy = iota
	// TravelSwitchLate delays the switch as close to the target depth as
	// the travel tank's MOD/END allow.
	TravelSwitchLate
)

// Config is read-only from the engine's point of view: it is built once by
// the caller and passed by value into NewDive. Nothing in this package or
// in package deco mutates a Config after construction.
type Config struct {
	// Units & atmosphere.
	WaterDensity            float64 // kg/m^3, scales depth<->pressure.
	AmbientPressureSurface  float64 // bar, baseline atmospheric pressure.

	// Executor rates and stop geometry.
	DescentRate         float64 // m/s
	AscentRate          float64 // m/s
	StopDepthIncrement  float64 // m
	LastStopDepth       float64 // m
	StopTimeIncrement   float64 // s, deco integration granule.
	ForceAllStops       bool

	// Gradient factors.
	GFLow         float64
	GFHigh        float64
	MultilevelMode bool

	// Gas logic.
	UseOCDeco bool
	// RunTime makes the first constant-depth segment's duration a clock
	// target rather than an elapsed duration; the flag is consumed after
	// the first such segment.
	RunTime bool

	// Consumption.
	DiveConsumptionRateLpm float64 // L/s during non-deco segments.
	DecoConsumptionRateLpm float64 // L/s during deco segments.

	// ppO2 bounds.
	DefaultMaxPPO2   float64
	AbsoluteMaxPPO2  float64
	AbsoluteMinPPO2  float64

	// Travel-gas planning.
	DefaultMaxEND  float64 // m
	DefaultMinPPO2 float64
	TravelSwitch   TravelSwitchPolicy

	// Surface-interval policy.
	AutomaticTankRefill bool

	// No-fly.
	FlightAltitudeM float64

	// Narcotic indices used by END/MODForEND, relative to the reference
	// narcosis of air at the surface.
	NarcoticIndexN2 float64
	NarcoticIndexO2 float64
	NarcoticIndexHe float64
	NarcoticIndexAr float64

	// Temperature used by the tank's real-gas volume calculation.
	TemperatureC float64
}

// Default returns the engine's reference configuration: GF 30/85, a 3 m stop
// ladder down to 3 m, metric rates that match common recreational/technical
// planning defaults, and narcotic indices where N2 is the reference gas (1.0),
// O2 behaves like N2 narcotically, He is non-narcotic, and Ar is 2.33x N2.
//
// DescentRate/AscentRate, RunTime and DiveConsumptionRateLpm are pinned to
// the values the reference tool's own boundary scenarios were generated
// against (a 10m/10min dive on air comes out to a run_time of exactly 660s
// and a consumption of ~365.5L only at these rates) — see DESIGN.md's Open
// Question resolution for the derivation.
func Default() Config {
	return Config{
		// WaterDensity is chosen so that DepthToPressure/PressureToDepth
		// reduce to the classic dive-planning simplification of exactly
		// 10m of seawater per bar of pressure, with a 1.0 bar surface —
		// the same assumption the teacher's helpers.Pressure hardcoded
		// (depth/10.0 + 1.0).
		WaterDensity:           10000.0 / 9.80665,
		AmbientPressureSurface: 1.0,

		DescentRate:        20.0 / 60.0,
		AscentRate:         10.0 / 60.0,
		StopDepthIncrement: 3.0,
		LastStopDepth:      3.0,
		StopTimeIncrement:  60.0,
		ForceAllStops:      true,

		GFLow:          0.30,
		GFHigh:         0.85,
		MultilevelMode: false,

		UseOCDeco: true,
		// RunTime defaults on: the reference tool's own test fixtures set
		// settings.RUN_TIME = True in setUp, making every profile's first
		// constant-depth segment a clock target rather than an elapsed
		// duration.
		RunTime: true,

		DiveConsumptionRateLpm: 17.2 / 60.0,
		DecoConsumptionRateLpm: 17.0 / 60.0,

		DefaultMaxPPO2:  1.4,
		AbsoluteMaxPPO2: 1.6,
		AbsoluteMinPPO2: 0.18,

		DefaultMaxEND:  30.0,
		DefaultMinPPO2: 0.18,
		TravelSwitch:   TravelSwitchLate,

		AutomaticTankRefill: false,

		FlightAltitudeM: 2400.0,

		NarcoticIndexN2: 1.0,
		NarcoticIndexO2: 1.0,
		NarcoticIndexHe: 0.0,
		NarcoticIndexAr: 2.33,

		TemperatureC: 20.0,
	}
}
