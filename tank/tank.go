// Package tank models a dive cylinder: its gas mix, its real-gas volume
// under the Van der Waals equation of state, and the bookkeeping of gas
// consumed against a configured reserve rule. Grounded on the dipplanner
// tank.py that the distilled specification traces back to (see
// original_source/src/dipplanner/tank.py), reworked into the teacher's
// idiom: exported error values rather than exception classes, and
// composition with package gasmix rather than duplicating its MOD/END math.
package tank

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/divelabs/deco/gasmix"
	"github.com/divelabs/deco/helpers"
)

// Sentinel errors, in the same spirit as InvalidGas/InvalidTank/InvalidMod in
// the original tool this engine's math is grounded on.
var (
	ErrInvalidGas  = fmt.Errorf("tank: invalid gas proportions")
	ErrInvalidTank = fmt.Errorf("tank: invalid tank size or pressure")
	ErrInvalidMod  = fmt.Errorf("tank: invalid maximum operating depth")
	ErrEmptyTank   = fmt.Errorf("tank: not enough remaining gas")
)

const (
	absoluteMaxTankPressureBar = 350.0
	absoluteMaxTankSizeL       = 70.0
)

// vdwCoef holds the Van der Waals a/b coefficients for one component gas.
type vdwCoef struct {
	a float64 // bar.L^2/mol^2
	b float64 // L/mol
}

var (
	vdwO2 = vdwCoef{a: 1.382, b: 0.03186}
	vdwN2 = vdwCoef{a: 1.370, b: 0.0387}
	vdwHe = vdwCoef{a: 0.0346, b: 0.0238}
)

const vdwR = 0.0831451 // L.bar/(mol.K)

// Tank is a single dive cylinder: its breathing gas, its physical size, its
// operating limits, and its consumption state over the course of a dive.
type Tank struct {
	Mix gasmix.GasMix

	MaxPPO2      float64
	Mod          float64
	VolumeL      float64
	PressureBar  float64
	InUse        bool

	TotalGasL     float64
	UsedGasL      float64
	RemainingGasL float64
	MinGasL       float64
}

// Options configures New. New applies no defaults: a zero Mod is derived
// from MaxPPO2 and an empty ReserveRule means no reserve, but a zero
// MaxPPO2, VolumeL or PressureBar is rejected.
type Options struct {
	Mix     gasmix.GasMix
	MaxPPO2 float64
	// AbsoluteMaxPPO2 is the hard ceiling no tank's MOD may exceed,
	// regardless of MaxPPO2 (e.g. a caller-supplied Mod, or one derived
	// from an unusually generous MaxPPO2).
	AbsoluteMaxPPO2 float64
	Mod             float64 // 0 means "derive from MaxPPO2".
	VolumeL         float64
	PressureBar     float64
	ReserveRule     string // "<N>b" or "1/<k>"; "" means no reserve.
	WaterDensity    float64
	SurfacePressure float64
	TemperatureC    float64
}

// New validates opts and constructs a Tank, computing its real gas volume via
// Van der Waals and its reserve threshold from ReserveRule. The resulting MOD
// must clear both the user's MaxPPO2-derived ceiling and the absolute,
// physiology-driven one.
func New(opts Options) (*Tank, error) {
	mod := opts.Mod
	maxMod := opts.Mix.MOD(opts.MaxPPO2, opts.WaterDensity, opts.SurfacePressure)
	if mod != 0 {
		if mod > maxMod {
			return nil, fmt.Errorf("%w: requested mod %.1fm exceeds max_ppo2-derived mod %.1fm", ErrInvalidMod, mod, maxMod)
		}
	} else {
		mod = maxMod
	}

	absMaxMod := opts.Mix.MOD(opts.AbsoluteMaxPPO2, opts.WaterDensity, opts.SurfacePressure)
	if mod > absMaxMod {
		return nil, fmt.Errorf("%w: mod %.1fm exceeds absolute_max_ppo2-derived mod %.1fm", ErrInvalidMod, mod, absMaxMod)
	}

	t := &Tank{
		Mix:         opts.Mix,
		MaxPPO2:     opts.MaxPPO2,
		Mod:         mod,
		VolumeL:     opts.VolumeL,
		PressureBar: opts.PressureBar,
		InUse:       true,
	}

	if err := t.validate(); err != nil {
		return nil, err
	}

	if t.VolumeL > 0 && t.PressureBar > 0 {
		t.TotalGasL = t.realVolume(t.VolumeL, t.PressureBar, opts.TemperatureC, opts.SurfacePressure)
	}
	t.RemainingGasL = t.TotalGasL
	t.MinGasL = t.parseReserve(opts.ReserveRule)

	return t, nil
}

func (t *Tank) validate() error {
	if t.Mix.FO2+t.Mix.FHe > 1.0 {
		return fmt.Errorf("%w: O2+He fractions exceed 100%%", ErrInvalidGas)
	}
	if t.Mix.FO2 < 0 || t.Mix.FHe < 0 || t.Mix.FN2 < 0 {
		return fmt.Errorf("%w: gas fractions must not be negative", ErrInvalidGas)
	}
	if t.Mod <= 0 {
		return fmt.Errorf("%w: mod must be positive", ErrInvalidMod)
	}
	if t.PressureBar > absoluteMaxTankPressureBar {
		return fmt.Errorf("%w: tank pressure %.0fbar exceeds %.0fbar limit", ErrInvalidTank, t.PressureBar, absoluteMaxTankPressureBar)
	}
	if t.PressureBar <= 0 {
		return fmt.Errorf("%w: tank pressure must be positive", ErrInvalidTank)
	}
	if t.VolumeL > absoluteMaxTankSizeL {
		return fmt.Errorf("%w: tank volume %.1fL exceeds %.1fL limit", ErrInvalidTank, t.VolumeL, absoluteMaxTankSizeL)
	}
	if t.VolumeL <= 0 {
		return fmt.Errorf("%w: tank volume must be positive", ErrInvalidTank)
	}
	return nil
}

// realVolume returns the real-gas (Van der Waals) total volume, in litres at
// the surface, of the gas compressed into a volumeL cylinder at pressureBar,
// refining the ideal-gas mole-count estimate by bisection the way the
// reference implementation's successive-halving loop does.
func (t *Tank) realVolume(volumeL, pressureBar, tempC, surfacePressureBar float64) float64 {
	fo2, fhe, fn2 := t.Mix.FO2, t.Mix.FHe, t.Mix.FN2
	aMix := mix(vdwO2.a, vdwHe.a, vdwN2.a, fo2, fhe, fn2)
	bMix := mix(vdwO2.b, vdwHe.b, vdwN2.b, fo2, fhe, fn2)

	temp := 273.15 + tempC
	n := approxMoles(pressureBar, volumeL, temp)

	pressureAt := func(moles float64) float64 {
		return (moles*vdwR*temp)/(volumeL-moles*bMix) - (moles*moles*aMix)/(volumeL*volumeL)
	}

	mid := pressureAt(n)
	var lo, hi float64
	if mid < pressureBar {
		lo, hi = n, n*2
	} else {
		lo, hi = n/2, n
	}

	for i := 0; i < 100; i++ {
		n = (lo + hi) / 2
		mid = pressureAt(n)
		if roundTo2(mid) == roundTo2(pressureBar) {
			break
		}
		if mid > pressureBar {
			hi = n
		} else {
			lo = n
		}
	}

	r3t3 := vdwR * vdwR * vdwR * temp * temp * temp
	return n*r3t3/(surfacePressureBar*vdwR*vdwR*temp*temp+aMix*surfacePressureBar*surfacePressureBar) + n*bMix
}

func roundTo2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

func approxMoles(pressureBar, volumeL, tempK float64) float64 {
	return (pressureBar * volumeL) / (vdwR * tempK)
}

// mix applies the square-root combining rule for a ternary O2/He/N2 blend,
// with no binary-interaction correction (see DESIGN.md's Open Question
// resolution for why).
func mix(aO2, aHe, aN2, fo2, fhe, fn2 float64) float64 {
	type term struct {
		a float64
		f float64
	}
	terms := []term{{aO2, fo2}, {aHe, fhe}, {aN2, fn2}}
	var total float64
	for _, i := range terms {
		for _, j := range terms {
			total += math.Sqrt(i.a*j.a) * i.f * j.f
		}
	}
	return total
}

var reserveBarRe = regexp.MustCompile(`^([0-9]+)b$`)
var reserveFractionRe = regexp.MustCompile(`^1/([0-9]+)$`)

// parseReserve interprets a reserve rule of the form "<N>b" (N bar minimum
// at the end of the dive) or "1/<k>" (the rule of thirds/sixths family: 1/k
// in, 1/k out, the rest reserved).
func (t *Tank) parseReserve(rule string) float64 {
	if m := reserveBarRe.FindStringSubmatch(rule); m != nil {
		bar, _ := strconv.Atoi(m[1])
		return t.TotalGasL * float64(bar) / t.PressureBar
	}
	if m := reserveFractionRe.FindStringSubmatch(rule); m != nil {
		k, _ := strconv.Atoi(m[1])
		return t.TotalGasL * (1.0 - 2.0*(1.0/float64(k)))
	}
	return 0
}

// ConsumeGas deducts litresConsumed from the tank's remaining gas.
func (t *Tank) ConsumeGas(litresConsumed float64) float64 {
	t.UsedGasL += litresConsumed
	t.RemainingGasL -= litresConsumed
	return t.RemainingGasL
}

// Refill resets the tank to full, for automatic-refill surface intervals.
func (t *Tank) Refill() float64 {
	t.UsedGasL = 0
	t.RemainingGasL = t.TotalGasL
	return t.RemainingGasL
}

// CheckRule reports whether the tank still satisfies its configured reserve.
func (t *Tank) CheckRule() bool {
	return t.RemainingGasL >= t.MinGasL
}

// MOD returns the tank's maximum operating depth.
func (t *Tank) MOD() float64 {
	return t.Mod
}

// MinOD returns the minimum operating depth for the tank's gas at the given
// minimum tolerated ppO2.
func (t *Tank) MinOD(minPPO2, waterDensity, surfacePressureBar float64) float64 {
	return t.Mix.MinOD(minPPO2, waterDensity, surfacePressureBar)
}

// ENDAt returns the equivalent narcotic depth for the tank's gas at depthM.
func (t *Tank) ENDAt(depthM, n2Index, o2Index, heIndex, waterDensity, surfacePressureBar float64) float64 {
	return t.Mix.END(depthM, n2Index, o2Index, heIndex, waterDensity, surfacePressureBar)
}

// MODForEND returns the deepest depth at which the tank's gas keeps the
// given equivalent narcotic depth.
func (t *Tank) MODForEND(endM, n2Index, o2Index, heIndex, waterDensity, surfacePressureBar float64) float64 {
	return t.Mix.MODForEND(endM, n2Index, o2Index, heIndex, waterDensity, surfacePressureBar)
}

// DisplayName delegates to the gas mix's human-readable name.
func (t *Tank) DisplayName() string {
	return t.Mix.DisplayName()
}

// ImperialSummary renders the tank's size, pressure and MOD in the
// cuft/psi/ft units US-trained divers plan in, for logging and
// display alongside the metric fields used everywhere internally.
func (t *Tank) ImperialSummary() string {
	return fmt.Sprintf("%s: %.0fcuft @ %.0fpsi, mod %.0fft",
		t.DisplayName(), helpers.LitresToCubicFeet(t.TotalGasL), helpers.BarToPSI(t.PressureBar), helpers.MetresToFeet(t.Mod))
}

// ByMOD sorts tanks shallow-to-deep by maximum operating depth, the order a
// dive's gas-switch selection walks when looking for the next usable tank.
type ByMOD []*Tank

func (s ByMOD) Len() int           { return len(s) }
func (s ByMOD) Less(i, j int) bool { return s[i].Mod < s[j].Mod }
func (s ByMOD) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
