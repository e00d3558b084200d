package deco

import (
	"fmt"
	"math"

	"github.com/divelabs/deco/config"
	"github.com/divelabs/deco/helpers"
	"github.com/divelabs/deco/segment"
	"github.com/divelabs/deco/tank"
)

// Run executes the dive profile: validation, travel-gas patching, walking
// the input segments, and the final ascent. It mutates the dive in place and
// returns any taxonomic error directly; see RunSafe for the non-raising
// variant.
func (d *Dive) Run() error {
	if len(d.InputSegments) == 0 {
		return fmt.Errorf("%w: run called with no input segments", ErrNothingToProcess)
	}

	if err := d.phaseAValidate(); err != nil {
		return err
	}
	d.phaseBPatchTravelGas()

	if err := d.phaseCWalkSegments(); err != nil {
		return err
	}

	if err := d.phaseDFinalAscent(); err != nil {
		return err
	}

	d.backfillRunTime()
	d.computeGasConsumption()

	return nil
}

func (d *Dive) phaseAValidate() error {
	for i := range d.InputSegments {
		if err := d.InputSegments[i].Validate(d.cfg.AbsoluteMinPPO2, d.cfg.WaterDensity, d.cfg.AmbientPressureSurface); err != nil {
			return err
		}
	}

	first := d.InputSegments[0]
	d.CurrentDepthM = 0
	d.CurrentTank = first.Tank
	d.PPO2 = first.Setpoint
	d.IsClosedCircuit = first.Setpoint > 0

	d.sortTanks()
	return nil
}

// phaseBPatchTravelGas adopts a surface-breathable descent gas when the
// first segment's own tank cannot be breathed at the surface, generalizing
// the teacher's transitionStop/walkTransition pattern of prepending a
// synthetic leg to the profile.
func (d *Dive) phaseBPatchTravelGas() {
	if d.IsClosedCircuit || len(d.InputSegments) == 0 {
		return
	}

	first := d.InputSegments[0]
	if first.Tank == nil {
		return
	}
	if first.Tank.MinOD(d.cfg.AbsoluteMinPPO2, d.cfg.WaterDensity, d.cfg.AmbientPressureSurface) == 0 {
		return
	}

	targetDepth := first.DepthM

	// Search from highest MOD down for a single tank that can carry the
	// whole descent: breathable at the surface, reaches the target depth,
	// and stays within the configured max END there.
	for i := len(d.Tanks) - 1; i >= 0; i-- {
		t := d.Tanks[i]
		if t.MinOD(d.cfg.AbsoluteMinPPO2, d.cfg.WaterDensity, d.cfg.AmbientPressureSurface) != 0 {
			continue
		}
		if t.MOD() < targetDepth {
			continue
		}
		end := t.ENDAt(targetDepth, d.cfg.NarcoticIndexN2, d.cfg.NarcoticIndexO2, d.cfg.NarcoticIndexHe, d.cfg.WaterDensity, d.cfg.AmbientPressureSurface)
		if end > d.cfg.DefaultMaxEND {
			continue
		}
		Logger.WithField("tank", t.ImperialSummary()).Debug("deco: adopting single travel gas for descent")
		d.CurrentTank = t
		return
	}

	// No single tank covers the whole descent: find any surface-breathable
	// tank and splice a mid-descent gas switch.
	d.spliceTravelGasSwitch(targetDepth, first)
}

func (d *Dive) spliceTravelGasSwitch(targetDepth float64, first segment.InputSegment) {
	var travelTank *tank.Tank
	for i := len(d.Tanks) - 1; i >= 0; i-- {
		t := d.Tanks[i]
		if t.MinOD(d.cfg.AbsoluteMinPPO2, d.cfg.WaterDensity, d.cfg.AmbientPressureSurface) == 0 {
			travelTank = t
			break
		}
	}
	if travelTank == nil {
		return
	}

	var switchDepth float64
	switch d.cfg.TravelSwitch {
	case config.TravelSwitchEarly:
		switchDepth = first.Tank.MinOD(d.cfg.DefaultMinPPO2, d.cfg.WaterDensity, d.cfg.AmbientPressureSurface)
	default: // late
		modEnd := travelTank.MODForEND(d.cfg.DefaultMaxEND, d.cfg.NarcoticIndexN2, d.cfg.NarcoticIndexO2, d.cfg.NarcoticIndexHe, d.cfg.WaterDensity, d.cfg.AmbientPressureSurface)
		switchDepth = math.Min(travelTank.MOD(), modEnd)
	}
	if switchDepth > targetDepth {
		switchDepth = targetDepth
	}

	Logger.WithFields(map[string]interface{}{
		"travel_tank":  travelTank.DisplayName(),
		"switch_at_m":  switchDepth,
		"switch_at_ft": helpers.MetresToFeet(switchDepth),
		"travel_psi":   helpers.BarToPSI(travelTank.PressureBar),
	}).Debug("deco: splicing travel-gas switch into descent")

	atSurface := segment.InputSegment{Kind: segment.Waypoint, DepthM: 0, DurationS: 0, Tank: travelTank}
	atSwitch := segment.InputSegment{Kind: segment.Waypoint, DepthM: switchDepth, DurationS: 0, Tank: first.Tank}

	d.InputSegments = append([]segment.InputSegment{atSurface, atSwitch}, d.InputSegments...)
	d.CurrentTank = travelTank
	d.sortTanks()
}

// phaseCWalkSegments walks the (possibly patched) input segment list,
// descending, ascending and holding as each segment demands.
func (d *Dive) phaseCWalkSegments() error {
	runTimeMode := d.cfg.RunTime
	for _, seg := range d.InputSegments {
		switch helpers.DescOrAsc(d.CurrentDepthM, seg.DepthM) {
		case 1.0:
			d.descend(seg.DepthM)
		case -1.0:
			if err := d.ascend(seg.DepthM); err != nil {
				return err
			}
		}

		d.CurrentDepthM = seg.DepthM
		if seg.Tank != nil {
			d.previousTank = d.CurrentTank
			d.CurrentTank = seg.Tank
		}
		d.PPO2 = seg.Setpoint
		d.IsClosedCircuit = seg.Setpoint > 0

		switch {
		case seg.DurationS > 0:
			duration := seg.DurationS
			if runTimeMode {
				duration = seg.DurationS - d.RunTimeS
				runTimeMode = false
			}
			if duration < 0 {
				duration = 0
			}
			d.holdConstantDepth(seg, duration)
		default:
			d.emitOutput(segment.OutputSegment{InputSegment: segment.InputSegment{
				Kind: segment.Waypoint, DepthM: d.CurrentDepthM, Tank: d.CurrentTank, Setpoint: d.PPO2,
			}})
		}
	}
	return nil
}

// phaseDFinalAscent runs the ascent procedure to the surface; Run back-fills
// cumulative run-time on every output segment afterwards.
func (d *Dive) phaseDFinalAscent() error {
	d.InFinalAscent = true
	return d.ascend(0)
}

// descend integrates a linear descent from the current depth to targetDepth
// and emits the corresponding output segment.
func (d *Dive) descend(targetDepth float64) {
	fromDepth := d.CurrentDepthM
	rate := d.cfg.DescentRate
	rateBarPerMin := d.barPerMeter() * rate * 60.0
	pFrom := d.pressureAt(fromDepth)
	pTo := d.pressureAt(targetDepth)

	ppO2 := d.currentPPO2(fromDepth)
	d.Model.AscDesc(pFrom, pTo, rateBarPerMin, d.CurrentTank.Mix.FHe, d.CurrentTank.Mix.FN2, ppO2)

	duration := math.Abs(targetDepth-fromDepth) / rate
	d.RunTimeS += duration

	d.emitOutput(segment.OutputSegment{
		InputSegment: segment.InputSegment{
			Kind: segment.AscentDescent, DepthM: (fromDepth + targetDepth) / 2.0,
			DurationS: duration, Tank: d.CurrentTank, Setpoint: d.PPO2,
		},
	})
}

// currentPPO2 returns the inspired ppO2 at depthM: the setpoint if closed
// circuit, else the open-circuit tank fraction times ambient pressure.
func (d *Dive) currentPPO2(depthM float64) float64 {
	if d.IsClosedCircuit {
		return d.PPO2
	}
	if d.CurrentTank == nil {
		return 0
	}
	return d.CurrentTank.Mix.FO2 * d.pressureAt(depthM)
}

// holdConstantDepth integrates the model at a constant depth for duration
// seconds and emits the corresponding dive segment.
func (d *Dive) holdConstantDepth(seg segment.InputSegment, duration float64) {
	p := d.pressureAt(d.CurrentDepthM)
	ppO2 := d.currentPPO2(d.CurrentDepthM)
	d.Model.ConstDepth(p, duration, d.CurrentTank.Mix.FHe, d.CurrentTank.Mix.FN2, ppO2)
	d.RunTimeS += duration

	d.emitOutput(segment.OutputSegment{
		InputSegment: segment.InputSegment{
			Kind: segment.Constant, DepthM: d.CurrentDepthM, DurationS: duration,
			Tank: d.CurrentTank, Setpoint: d.PPO2,
		},
	})
}

func (d *Dive) emitOutput(out segment.OutputSegment) {
	d.OutputSegments = append(d.OutputSegments, out)
}

// backfillRunTime sets each output segment's cumulative RunTimeS and the
// dive's total, in emission order (which is already monotone by
// construction).
func (d *Dive) backfillRunTime() {
	var cumulative float64
	for i := range d.OutputSegments {
		cumulative += d.OutputSegments[i].DurationS
		d.OutputSegments[i].RunTimeS = cumulative
	}
	d.RunTimeS = cumulative
}

// initialStopDepth computes the first candidate next-stop depth when
// entering the ascent procedure, rounding the (possibly off-grid) current
// depth down to the stop ladder before clamping.
func initialStopDepth(current, target, stopIncrement, lastStop float64) float64 {
	var candidate float64
	if math.Mod(current, stopIncrement) != 0 {
		candidate = math.Floor(current/stopIncrement) * stopIncrement
	} else {
		candidate = current - stopIncrement
	}
	return clampStopDepth(candidate, current, target, lastStop)
}

// clampStopDepth applies the ascent procedure's clamping rule to a
// candidate next-stop depth: below target (or already below the last-stop
// depth) collapses to target; below the last-stop depth (but not yet past
// it) collapses to the last-stop depth; exactly at the last-stop depth
// collapses to target (there is nothing left to round through above it).
func clampStopDepth(candidate, current, target, lastStop float64) float64 {
	if candidate < target || current < lastStop {
		return target
	}
	if candidate < lastStop {
		return lastStop
	}
	if candidate == lastStop {
		return target
	}
	return candidate
}
