// Package deco is the engine's root package: the dive façade, the executor
// state machine, the ascent procedure, the deco-gas selector, gas
// consumption and no-fly time. It plays the role the teacher's root
// diveplanner package played — a DivePlan that walks a profile and reports
// NDL/OTU — generalized into a full ZH-L16/gradient-factor/multi-gas/deco
// engine; see DESIGN.md for how each piece of DivePlan's logic (transition
// timing, profile walking, OTU summation) was carried forward.
package deco

import (
	"fmt"
	"sort"

	"github.com/divelabs/deco/atmosphere"
	"github.com/divelabs/deco/config"
	"github.com/divelabs/deco/model"
	"github.com/divelabs/deco/segment"
	"github.com/divelabs/deco/tank"
)

// Dive owns exactly one compartment Model and drives it through an input
// profile. Construction never fails outright: validation errors accumulate
// in Exceptions so a caller can inspect partial state, per the engine's
// error-handling policy.
type Dive struct {
	cfg config.Config

	InputSegments  []segment.InputSegment
	Tanks          []*tank.Tank
	Model          *model.Model
	OutputSegments []segment.OutputSegment

	RunTimeS         float64
	CurrentDepthM    float64
	CurrentTank      *tank.Tank
	PPO2             float64
	IsClosedCircuit  bool
	InFinalAscent    bool
	SurfaceIntervalS float64
	IsRepetitive     bool
	Exceptions       []error

	NoFlightTimeS *float64

	// previousTank tracks the tank in effect before the most recent
	// mid-ascent gas switch, so the ascent procedure can close out the
	// pending segment on the gas that was actually breathed.
	previousTank *tank.Tank
	// forceAllStopsActive is raised after every deco stop, per
	// cfg.ForceAllStops, and cleared after the first granule of the next
	// hold, so each later stop lasts at least one granule.
	forceAllStopsActive bool
}

// NewDive constructs a Dive from a set of input segments and tanks. If prior
// is non-nil, the new dive is repetitive and takes ownership of prior's
// model (prior must not be mutated afterwards); otherwise a fresh model at
// resting air loadings is created. Construction never returns an error:
// problems are recorded in Exceptions.
func NewDive(cfg config.Config, segs []segment.InputSegment, tanks []*tank.Tank, prior *Dive) *Dive {
	d := &Dive{
		cfg:           cfg,
		InputSegments: segs,
		Tanks:         tanks,
	}

	if prior != nil {
		d.Model = model.NewFromPrior(prior.Model)
		d.IsRepetitive = true
	} else {
		d.Model = model.New(model.ZHL16C, cfg.AmbientPressureSurface)
	}
	d.Model.SetGradientFactors(cfg.GFLow, cfg.GFHigh)

	if len(segs) == 0 {
		d.Exceptions = append(d.Exceptions, fmt.Errorf("%w: no input segments", ErrInstantiationError))
	}
	for i := range segs {
		if err := segs[i].Validate(cfg.AbsoluteMinPPO2, cfg.WaterDensity, cfg.AmbientPressureSurface); err != nil {
			d.Exceptions = append(d.Exceptions, fmt.Errorf("%w: segment %d: %v", ErrInstantiationError, i, err))
		}
	}

	return d
}

func (d *Dive) pressureAt(depthM float64) float64 {
	return atmosphere.DepthToPressure(depthM, d.cfg.WaterDensity, d.cfg.AmbientPressureSurface)
}

func (d *Dive) pressureToDepth(pressureBar float64) float64 {
	return atmosphere.PressureToDepth(pressureBar, d.cfg.WaterDensity, d.cfg.AmbientPressureSurface)
}

// barPerMeter is the pressure gradient used to convert the configured
// m/s ascent/descent rates into the bar/min rate the model's Schreiner
// integration expects.
func (d *Dive) barPerMeter() float64 {
	return d.pressureAt(1.0) - d.pressureAt(0.0)
}

func (d *Dive) sortTanks() {
	sort.Stable(tank.ByMOD(d.Tanks))
}

// RunSafe is the non-raising variant of Run: it funnels any taxonomic error
// into Exceptions and reports whether the run succeeded.
func (d *Dive) RunSafe() bool {
	if err := d.Run(); err != nil {
		d.Exceptions = append(d.Exceptions, err)
		return false
	}
	return true
}

// NoFlightTimeSafe is the non-raising variant of NoFlightTime.
func (d *Dive) NoFlightTimeSafe(altitudeM float64, accelerator *tank.Tank) (float64, bool) {
	s, err := d.NoFlightTime(altitudeM, accelerator)
	if err != nil {
		d.Exceptions = append(d.Exceptions, err)
		return 0, false
	}
	return s, true
}
