package deco

import (
	"github.com/divelabs/deco/atmosphere"
	"github.com/divelabs/deco/segment"
)

// computeGasConsumption debits each output segment's gas use from its tank,
// using the dive-rate for constant/ascent-descent segments and the
// deco-rate for deco segments; ascent/descent segments were emitted with
// their depth already set to the average of their from/to depths (mirroring
// the teacher's transitionStop, which records a transition's depth as the
// midpoint of the two endpoints), so the same rate×duration×pressure
// formula covers both cases.
func (d *Dive) computeGasConsumption() {
	for i := range d.OutputSegments {
		out := &d.OutputSegments[i]

		rate := d.cfg.DiveConsumptionRateLpm
		if out.Kind == segment.Deco {
			rate = d.cfg.DecoConsumptionRateLpm
		}

		p := atmosphere.DepthToPressure(out.DepthM, d.cfg.WaterDensity, d.cfg.AmbientPressureSurface)
		gas := rate * out.DurationS * p
		out.GasUsedL = gas

		if out.Tank != nil {
			out.Tank.ConsumeGas(gas)
		}
	}
}
