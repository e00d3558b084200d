package deco

import (
	"fmt"

	"github.com/divelabs/deco/atmosphere"
	"github.com/divelabs/deco/tank"
)

const noFlightGranuleSeconds = 60.0

// NoFlightTime deep-copies the owned model and projects it forward at
// surface pressure, breathing air (or an accelerator tank until it runs
// dry, then reverting to air), until the model's ceiling drops to or below
// the ambient pressure at altitudeM. Returns the projected time in seconds.
// The original model is left untouched, per the no-fly projection's
// deep-copy requirement.
func (d *Dive) NoFlightTime(altitudeM float64, accelerator *tank.Tank) (float64, error) {
	targetPressure, err := atmosphere.AltitudeToAmbientPressure(altitudeM)
	if err != nil {
		return 0, err
	}

	projected := d.Model.Copy()
	surfaceP := d.cfg.AmbientPressureSurface

	var elapsed float64
	for projected.CeilingPressure() > targetPressure {
		fHe, fN2, ppO2 := 0.0, 0.79, 0.21*surfaceP
		if accelerator != nil && accelerator.RemainingGasL > 0 {
			fHe, fN2 = accelerator.Mix.FHe, accelerator.Mix.FN2
			ppO2 = accelerator.Mix.FO2 * surfaceP
			accelerator.ConsumeGas(d.cfg.DecoConsumptionRateLpm * noFlightGranuleSeconds * surfaceP)
		}

		projected.ConstDepth(surfaceP, noFlightGranuleSeconds, fHe, fN2, ppO2)
		elapsed += noFlightGranuleSeconds

		if elapsed > infiniteDecoCapSeconds {
			return 0, fmt.Errorf("%w: no-fly projection exceeded %.0fs", ErrInfiniteDeco, infiniteDecoCapSeconds)
		}
	}

	return elapsed, nil
}

// SurfaceInterval integrates the owned model at surface pressure on air for
// durationS seconds and records the elapsed interval. If the configured
// policy enables it, every tank is refilled.
func (d *Dive) SurfaceInterval(durationS float64) {
	surfaceP := d.cfg.AmbientPressureSurface
	d.Model.ConstDepth(surfaceP, durationS, 0.0, 0.79, 0.21*surfaceP)
	d.SurfaceIntervalS += durationS

	if d.cfg.AutomaticTankRefill {
		for _, t := range d.Tanks {
			t.Refill()
		}
	}
}
