package deco

import (
	"fmt"
	"math"

	"github.com/divelabs/deco/helpers"
	"github.com/divelabs/deco/segment"
	"github.com/divelabs/deco/tank"
)

// ascend drives the model from the current depth up to targetDepth,
// decompressing as required. Grounded on §4.4's phase description: a
// free-ascent/deco-hold alternation bounded by the model's own ceiling,
// generalizing the teacher's walkTransition sample loop from a fixed-step
// profile sampler into a ceiling-driven decompression stepper.
func (d *Dive) ascend(targetDepth float64) error {
	if d.InFinalAscent && d.cfg.UseOCDeco {
		d.gasSwitchSelector(d.CurrentDepthM)
	}

	if d.CurrentDepthM < targetDepth {
		return fmt.Errorf("%w: ascend called with current depth %.1fm above target %.1fm", ErrProcessingError, d.CurrentDepthM, targetDepth)
	}

	nextStop := initialStopDepth(d.CurrentDepthM, targetDepth, d.cfg.StopDepthIncrement, d.cfg.LastStopDepth)
	d.Model.SetGFTarget(nextStop, false)

	maxMV := d.Model.MValueAt(d.pressureAt(d.CurrentDepthM))
	ctrlCompartment := d.Model.ControlCompartment()

	startDepth := d.CurrentDepthM
	pendingTank := d.CurrentTank

	for d.CurrentDepthM > targetDepth {
		ceilingM := d.Model.Ceiling(d.pressureToDepth)
		needsHold := d.forceAllStopsActive || nextStop < ceilingM

		if needsHold {
			if !helpers.EqualFloat64(startDepth, d.CurrentDepthM) {
				d.emitAscentLeg(startDepth, d.CurrentDepthM, pendingTank)
				startDepth = d.CurrentDepthM
			}

			decoStopTime := 0.0
			firstGranule := true
			for {
				lockSlope := !d.cfg.MultilevelMode || d.InFinalAscent
				d.Model.SetGFTarget(nextStop, lockSlope)

				granule := d.cfg.StopTimeIncrement
				if firstGranule {
					misalignment := math.Mod(d.RunTimeS, d.cfg.StopTimeIncrement)
					if !helpers.EqualFloat64(misalignment, 0) {
						granule = d.cfg.StopTimeIncrement - misalignment
					}
					firstGranule = false
				}

				p := d.pressureAt(d.CurrentDepthM)
				ppO2 := d.currentPPO2(d.CurrentDepthM)
				d.Model.ConstDepth(p, granule, d.CurrentTank.Mix.FHe, d.CurrentTank.Mix.FN2, ppO2)
				decoStopTime += granule
				d.RunTimeS += granule
				d.forceAllStopsActive = false

				if decoStopTime > infiniteDecoCapSeconds {
					Logger.WithField("depth_m", d.CurrentDepthM).Warn("deco: deco stop time exceeded hard cap")
					return fmt.Errorf("%w: deco stop time at %.1fm exceeded %.0fs", ErrInfiniteDeco, d.CurrentDepthM, infiniteDecoCapSeconds)
				}

				ceilingM = d.Model.Ceiling(d.pressureToDepth)
				if !(d.forceAllStopsActive || nextStop < ceilingM) {
					break
				}
			}

			maxMV = d.Model.MValueAt(d.pressureAt(d.CurrentDepthM))
			ctrlCompartment = d.Model.ControlCompartment()

			d.emitOutput(segment.OutputSegment{
				InputSegment: segment.InputSegment{
					Kind: segment.Deco, DepthM: d.CurrentDepthM, DurationS: decoStopTime,
					Tank: d.CurrentTank, Setpoint: d.PPO2,
				},
				MaxMV: maxMV, GFUsed: d.Model.CurrentGF(), ControllingCompartment: ctrlCompartment,
			})
			startDepth = d.CurrentDepthM

			if d.cfg.ForceAllStops {
				d.forceAllStopsActive = true
			}
		} else {
			rate := -d.cfg.AscentRate
			rateBarPerMin := d.barPerMeter() * rate * 60.0
			pFrom := d.pressureAt(d.CurrentDepthM)
			pTo := d.pressureAt(nextStop)
			ppO2 := d.currentPPO2(d.CurrentDepthM)
			d.Model.AscDesc(pFrom, pTo, rateBarPerMin, d.CurrentTank.Mix.FHe, d.CurrentTank.Mix.FN2, ppO2)

			elapsed := math.Abs(d.CurrentDepthM-nextStop) / d.cfg.AscentRate
			d.RunTimeS += elapsed
		}

		d.CurrentDepthM = nextStop
		maxMV = d.Model.MValueAt(d.pressureAt(d.CurrentDepthM))
		ctrlCompartment = d.Model.ControlCompartment()

		if d.cfg.UseOCDeco {
			if d.gasSwitchSelector(d.CurrentDepthM) {
				if !helpers.EqualFloat64(startDepth, d.CurrentDepthM) {
					d.emitAscentLeg(startDepth, d.CurrentDepthM, d.previousTank)
				}
				startDepth = d.CurrentDepthM
				pendingTank = d.CurrentTank
			}
		}

		candidate := d.CurrentDepthM - d.cfg.StopDepthIncrement
		nextStop = clampStopDepth(candidate, d.CurrentDepthM, targetDepth, d.cfg.LastStopDepth)
		if d.Model.GFFixed() {
			d.Model.SetGFTarget(nextStop, true)
		}
	}

	if !helpers.EqualFloat64(startDepth, d.CurrentDepthM) {
		d.emitAscentLeg(startDepth, d.CurrentDepthM, pendingTank)
	}

	return nil
}

// emitAscentLeg records a free-ascent segment covering fromDepth→toDepth,
// its duration recomputed from the configured ascent rate so the segment's
// reported duration matches the time actually spent ascending, using the
// tank that was breathed for that leg.
func (d *Dive) emitAscentLeg(fromDepth, toDepth float64, t *tank.Tank) {
	duration := math.Abs(fromDepth-toDepth) / d.cfg.AscentRate
	d.emitOutput(segment.OutputSegment{
		InputSegment: segment.InputSegment{
			Kind: segment.AscentDescent, DepthM: (fromDepth + toDepth) / 2.0,
			DurationS: duration, Tank: t, Setpoint: d.PPO2,
		},
	})
}

// gasSwitchSelector scans the MOD-sorted tank list for progressively richer
// legal gas at depthM, switching the current tank when found. Returns true
// iff the current tank changed.
func (d *Dive) gasSwitchSelector(depthM float64) bool {
	if !d.InFinalAscent || !d.cfg.UseOCDeco || len(d.Tanks) == 0 {
		return false
	}

	changed := false
	for _, t := range d.Tanks {
		minOD := t.MinOD(d.cfg.AbsoluteMinPPO2, d.cfg.WaterDensity, d.cfg.AmbientPressureSurface)
		if t.MOD() < depthM || minOD >= depthM {
			continue
		}
		if d.CurrentTank == nil || t.MOD() < d.CurrentTank.MOD() {
			d.previousTank = d.CurrentTank
			d.CurrentTank = t
			changed = true
			if d.IsClosedCircuit {
				d.IsClosedCircuit = false
				d.PPO2 = 0
			}
			Logger.WithField("tank", t.DisplayName()).WithField("depth_m", depthM).Debug("deco: switching deco gas")
		}
	}
	return changed
}
