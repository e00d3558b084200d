// Package model implements the Buhlmann ZH-L16 tissue-compartment model with
// gradient-factor deco ceilings and oxygen-toxicity accounting. It evolves
// the teacher's buhlmann package: the compartment coefficient tables and the
// Schreiner-equation integration are kept close to verbatim, generalized to
// take the current breathing gas per call (rather than a gas mix fixed at
// construction) so that gas switches mid-dive are possible, and extended
// with gradient factors, OTU/CNS accumulation and a reported controlling
// compartment.
//
// Sources of information used for the Bühlmann ZH-L16 algorithm:
//
//	http://www.lizardland.co.uk/DIYDeco.html
//	https://github.com/eianlei/pydplan/blob/master/pydplan_buhlmann.py
//	https://github.com/AquaBSD/libbuhlmann/tree/master/src
//	https://scholars.unh.edu/cgi/viewcontent.cgi?article=1511&context=thesis
//	https://wrobell.dcmod.org/decotengu/model.html
package model

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// CompartCount is the number of tissue compartments tracked (the ZH-L16
// variant; see DESIGN.md for why 16, not 17, compartments were chosen).
const CompartCount = 16

type compartCoefs struct {
	n    int
	n2Ht float64
	n2A  float64
	n2B  float64
	heHt float64
	heA  float64
	heB  float64
}

// CoefSet selects which published a/b coefficient set to use.
type CoefSet int

const (
	ZHL16A CoefSet = iota
	ZHL16B
	ZHL16C
)

func (cs CoefSet) String() string {
	return [...]string{"ZH-L16A", "ZH-L16B", "ZH-L16C"}[cs]
}

var coefSets = [][CompartCount]compartCoefs{
	{
		{n: 1, n2Ht: 4.0, n2A: 1.2599, n2B: 0.5050, heHt: 1.5, heA: 1.7435, heB: 0.1911},
		{n: 2, n2Ht: 8.0, n2A: 1.0000, n2B: 0.6514, heHt: 3.0, heA: 1.3838, heB: 0.4295},
		{n: 3, n2Ht: 12.5, n2A: 0.8618, n2B: 0.7222, heHt: 4.7, heA: 1.1925, heB: 0.5446},
		{n: 4, n2Ht: 18.5, n2A: 0.7562, n2B: 0.7725, heHt: 7.0, heA: 1.0465, heB: 0.6265},
		{n: 5, n2Ht: 27.0, n2A: 0.6667, n2B: 0.8125, heHt: 10.2, heA: 0.9226, heB: 0.6917},
		{n: 6, n2Ht: 38.3, n2A: 0.5933, n2B: 0.8434, heHt: 14.5, heA: 0.8211, heB: 0.7420},
		{n: 7, n2Ht: 54.3, n2A: 0.5282, n2B: 0.8693, heHt: 20.5, heA: 0.7309, heB: 0.7841},
		{n: 8, n2Ht: 77.0, n2A: 0.4701, n2B: 0.8910, heHt: 29.1, heA: 0.6506, heB: 0.8195},
		{n: 9, n2Ht: 109.0, n2A: 0.4187, n2B: 0.9092, heHt: 41.1, heA: 0.5794, heB: 0.8491},
		{n: 10, n2Ht: 146.0, n2A: 0.3798, n2B: 0.9222, heHt: 55.1, heA: 0.5256, heB: 0.8703},
		{n: 11, n2Ht: 187.0, n2A: 0.3497, n2B: 0.9319, heHt: 70.6, heA: 0.4840, heB: 0.8860},
		{n: 12, n2Ht: 239.0, n2A: 0.3223, n2B: 0.9403, heHt: 90.2, heA: 0.4460, heB: 0.8997},
		{n: 13, n2Ht: 305.0, n2A: 0.2971, n2B: 0.9477, heHt: 115.1, heA: 0.4112, heB: 0.9118},
		{n: 14, n2Ht: 390.0, n2A: 0.2737, n2B: 0.9544, heHt: 147.2, heA: 0.3788, heB: 0.9226},
		{n: 15, n2Ht: 498.0, n2A: 0.2523, n2B: 0.9602, heHt: 187.9, heA: 0.3492, heB: 0.9321},
		{n: 16, n2Ht: 635.0, n2A: 0.2327, n2B: 0.9653, heHt: 239.6, heA: 0.3220, heB: 0.9404},
	}, {
		{n: 1, n2Ht: 4.0, n2A: 1.2599, n2B: 0.5240, heHt: 1.51, heA: 1.6189, heB: 0.4245},
		{n: 2, n2Ht: 8.0, n2A: 1.0000, n2B: 0.6514, heHt: 3.02, heA: 1.3830, heB: 0.5747},
		{n: 3, n2Ht: 12.5, n2A: 0.8618, n2B: 0.7222, heHt: 4.72, heA: 1.1919, heB: 0.6527},
		{n: 4, n2Ht: 18.5, n2A: 0.7562, n2B: 0.7825, heHt: 6.99, heA: 1.0458, heB: 0.7223},
		{n: 5, n2Ht: 27.0, n2A: 0.6667, n2B: 0.8126, heHt: 10.21, heA: 0.9220, heB: 0.7582},
		{n: 6, n2Ht: 38.3, n2A: 0.5505, n2B: 0.8434, heHt: 14.48, heA: 0.8205, heB: 0.7957},
		{n: 7, n2Ht: 54.3, n2A: 0.4858, n2B: 0.8693, heHt: 20.53, heA: 0.7305, heB: 0.8279},
		{n: 8, n2Ht: 77.0, n2A: 0.4443, n2B: 0.8910, heHt: 29.11, heA: 0.6502, heB: 0.8553},
		{n: 9, n2Ht: 109.0, n2A: 0.4187, n2B: 0.9092, heHt: 41.20, heA: 0.5950, heB: 0.8757},
		{n: 10, n2Ht: 146.0, n2A: 0.3798, n2B: 0.9222, heHt: 55.19, heA: 0.5545, heB: 0.8903},
		{n: 11, n2Ht: 187.0, n2A: 0.3497, n2B: 0.9319, heHt: 70.69, heA: 0.5333, heB: 0.8997},
		{n: 12, n2Ht: 239.0, n2A: 0.3223, n2B: 0.9403, heHt: 90.34, heA: 0.5189, heB: 0.9073},
		{n: 13, n2Ht: 305.0, n2A: 0.2828, n2B: 0.9477, heHt: 115.29, heA: 0.5181, heB: 0.9122},
		{n: 14, n2Ht: 390.0, n2A: 0.2737, n2B: 0.9544, heHt: 147.42, heA: 0.5176, heB: 0.9171},
		{n: 15, n2Ht: 498.0, n2A: 0.2523, n2B: 0.9602, heHt: 188.24, heA: 0.5172, heB: 0.9217},
		{n: 16, n2Ht: 635.0, n2A: 0.2327, n2B: 0.9653, heHt: 240.03, heA: 0.5119, heB: 0.9267},
	}, {
		{n: 1, n2Ht: 4.0, n2A: 1.2599, n2B: 0.5240, heHt: 1.51, heA: 1.6189, heB: 0.4245},
		{n: 2, n2Ht: 8.0, n2A: 1.0000, n2B: 0.6514, heHt: 3.02, heA: 1.3830, heB: 0.5747},
		{n: 3, n2Ht: 12.5, n2A: 0.8618, n2B: 0.7222, heHt: 4.72, heA: 1.1919, heB: 0.6527},
		{n: 4, n2Ht: 18.5, n2A: 0.7562, n2B: 0.7825, heHt: 6.99, heA: 1.0458, heB: 0.7223},
		{n: 5, n2Ht: 27.0, n2A: 0.6667, n2B: 0.8126, heHt: 10.21, heA: 0.9220, heB: 0.7582},
		{n: 6, n2Ht: 38.3, n2A: 0.5600, n2B: 0.8434, heHt: 14.48, heA: 0.8205, heB: 0.7957},
		{n: 7, n2Ht: 54.3, n2A: 0.4947, n2B: 0.8693, heHt: 20.53, heA: 0.7305, heB: 0.8279},
		{n: 8, n2Ht: 77.0, n2A: 0.4500, n2B: 0.8910, heHt: 29.11, heA: 0.6502, heB: 0.8553},
		{n: 9, n2Ht: 109.0, n2A: 0.4187, n2B: 0.9092, heHt: 41.20, heA: 0.5950, heB: 0.8757},
		{n: 10, n2Ht: 146.0, n2A: 0.3798, n2B: 0.9222, heHt: 55.19, heA: 0.5545, heB: 0.8903},
		{n: 11, n2Ht: 187.0, n2A: 0.3497, n2B: 0.9319, heHt: 70.69, heA: 0.5333, heB: 0.8997},
		{n: 12, n2Ht: 239.0, n2A: 0.3223, n2B: 0.9403, heHt: 90.34, heA: 0.5189, heB: 0.9073},
		{n: 13, n2Ht: 305.0, n2A: 0.2850, n2B: 0.9477, heHt: 115.29, heA: 0.5181, heB: 0.9122},
		{n: 14, n2Ht: 390.0, n2A: 0.2737, n2B: 0.9544, heHt: 147.42, heA: 0.5176, heB: 0.9171},
		{n: 15, n2Ht: 498.0, n2A: 0.2523, n2B: 0.9602, heHt: 188.24, heA: 0.5172, heB: 0.9217},
		{n: 16, n2Ht: 635.0, n2A: 0.2327, n2B: 0.9653, heHt: 240.03, heA: 0.5119, heB: 0.9267},
	},
}

// compartment holds the inert-gas loadings of a single tissue compartment.
type compartment struct {
	pHe float64
	pN2 float64
}

// Model is a full ZH-L16 tissue model plus the gradient-factor and
// oxygen-toxicity state a dive needs. Exactly one Dive owns a Model; see
// NewFromPrior for how ownership moves to a repetitive dive.
type Model struct {
	coefSet      CoefSet
	compartments [CompartCount]compartment

	// currP/currT track ambient pressure (bar) and elapsed time (minutes)
	// purely for diagnostics; integration itself is stateless per call.
	currP float64
	currT float64

	gfLow          float64
	gfHigh         float64
	firstStopDepth float64
	gfSlope        float64
	gfFixed        bool
	currentGF      float64

	OTU float64
	CNS float64
}

// pH2O is the partial pressure of water vapour in the lungs (alveoli),
// constant regardless of ambient pressure since it depends on body
// temperature, not depth. Equivalent to 47mmHg.
const pH2O = 0.0627

// New creates a Model with resting loadings for air at the given surface
// pressure: alveolar nitrogen pressure minus the water-vapour partial
// pressure, zero helium.
func New(coefSet CoefSet, surfacePressureBar float64) *Model {
	m := &Model{
		coefSet:   coefSet,
		currP:     surfacePressureBar,
		gfHigh:    1.0,
		gfLow:     1.0,
		currentGF: 1.0,
	}
	initial := (surfacePressureBar - pH2O) * 0.79
	for i := range m.compartments {
		m.compartments[i] = compartment{pHe: 0.0, pN2: initial}
	}
	return m
}

// NewFromPrior hands off a prior dive's tissue loadings to a new model for a
// repetitive dive, resetting gradient-factor state (first-stop depth, slope,
// fixed flag) and the OTU/CNS counters remain carried forward, since
// oxygen-toxicity dosing does not reset between dives in a day. The prior
// model must not be mutated after this call; ownership has moved.
func NewFromPrior(prior *Model) *Model {
	m := &Model{
		coefSet:      prior.coefSet,
		compartments: prior.compartments,
		currP:        prior.currP,
		currT:        0,
		OTU:          prior.OTU,
		CNS:          prior.CNS,
		gfHigh:       1.0,
		gfLow:        1.0,
		currentGF:    1.0,
	}
	return m
}

// Copy returns a deep copy of the model for forward-projection (no-fly time,
// NDL probing) without mutating the original.
func (m *Model) Copy() *Model {
	cp := *m
	return &cp
}

// SetGradientFactors configures the low/high gradient factors used by
// Ceiling and MValueAt. Must be called before the ascent procedure begins;
// has no effect on already-fixed slope state.
func (m *Model) SetGradientFactors(low, high float64) {
	m.gfLow = low
	m.gfHigh = high
}

// SetGFTarget sets the model's working gradient factor for ceiling/m-value
// computations at the given target depth. Until lock is true for the first
// time, the "first stop depth" reference point tracks depthM itself (so the
// working GF is always gfLow, a conservative provisional value); once
// locked, the first-stop depth and slope are frozen and later calls only
// update the interpolation point.
func (m *Model) SetGFTarget(depthM float64, lock bool) {
	if !m.gfFixed {
		m.firstStopDepth = depthM
		if depthM != 0 {
			m.gfSlope = (m.gfHigh - m.gfLow) / (0 - depthM)
		} else {
			m.gfSlope = 0
		}
		if lock {
			m.gfFixed = true
		}
	}
	m.currentGF = m.gfHigh + m.gfSlope*depthM
}

// GFFixed reports whether the gradient-factor slope has been locked in.
func (m *Model) GFFixed() bool {
	return m.gfFixed
}

// CurrentGF returns the gradient factor currently in effect.
func (m *Model) CurrentGF() float64 {
	return m.currentGF
}

// schreinerEquation is the Schreiner equation for exponential relaxation
// towards a linearly (or, with prate 0, constant) varying alveolar driving
// pressure. Time is in minutes, prate in bar/min, to match the published
// half-time constants.
func schreinerEquation(pamb, t, prate, fig, pi, ht float64) float64 {
	palv := (pamb - pH2O) * fig
	k := math.Ln2 / ht
	r := prate * fig
	return palv + r*(t-(1.0/k)) - (palv-pi-(r/k))*math.Exp(-k*t)
}

// ConstDepth integrates the model at a constant ambient pressure for
// durationS seconds, breathing the given gas (fHe, fN2) at the given
// inspired ppO2, and accumulates OTU/CNS for the step.
func (m *Model) ConstDepth(pressureBar, durationS, fHe, fN2, ppO2 float64) {
	t := durationS / 60.0
	for i := range m.compartments {
		c := m.compartments[i]
		m.compartments[i].pHe = schreinerEquation(pressureBar, t, 0.0, fHe, c.pHe, m.coefs()[i].heHt)
		m.compartments[i].pN2 = schreinerEquation(pressureBar, t, 0.0, fN2, c.pN2, m.coefs()[i].n2Ht)
	}
	m.currP = pressureBar
	m.currT += t
	m.accumulateToxicity(t, ppO2)
}

// AscDesc integrates the model over a linear ambient-pressure change from
// pFrom to pTo at the given rate (bar/min, signed so that ascents are
// negative), breathing the given gas at the given inspired ppO2.
func (m *Model) AscDesc(pFrom, pTo, rateBarPerMin, fHe, fN2, ppO2 float64) {
	t := (pTo - pFrom) / rateBarPerMin
	for i := range m.compartments {
		c := m.compartments[i]
		m.compartments[i].pHe = schreinerEquation(pFrom, t, rateBarPerMin, fHe, c.pHe, m.coefs()[i].heHt)
		m.compartments[i].pN2 = schreinerEquation(pFrom, t, rateBarPerMin, fN2, c.pN2, m.coefs()[i].n2Ht)
	}
	m.currP = pTo
	m.currT += math.Abs(t)
	m.accumulateToxicity(math.Abs(t), ppO2)
}

func (m *Model) coefs() *[CompartCount]compartCoefs {
	return &coefSets[m.coefSet]
}

// blendedAB returns the Workman a/b coefficients for compartment i, blended
// by the current ratio of helium to nitrogen loading in that compartment (a
// pure-N2 compartment uses the N2 line, a pure-He compartment the He line,
// and a trimix compartment a tension-weighted average of the two).
func (m *Model) blendedAB(i int) (a, b float64) {
	c := m.compartments[i]
	coefs := m.coefs()[i]
	total := c.pHe + c.pN2
	if total <= 0 {
		return coefs.n2A, coefs.n2B
	}
	a = (coefs.heA*c.pHe + coefs.n2A*c.pN2) / total
	b = (coefs.heB*c.pHe + coefs.n2B*c.pN2) / total
	return a, b
}

// ceilingPressures returns, for every compartment, the ambient pressure in
// bar below which that compartment's gradient-factor-modulated tolerated
// loading would be exceeded.
func (m *Model) ceilingPressures() []float64 {
	out := make([]float64, CompartCount)
	gf := m.currentGF
	for i := range m.compartments {
		c := m.compartments[i]
		a, b := m.blendedAB(i)
		pt := c.pHe + c.pN2
		// Standard GF-modified ceiling: solve pt = pceil + gf*(a + pceil/b - pceil).
		denom := 1.0 - gf + gf/b
		out[i] = (pt - gf*a) / denom
	}
	return out
}

// CeilingPressure returns the ambient pressure in bar below which the diver
// may not safely ascend, under the model's current gradient factor.
func (m *Model) CeilingPressure() float64 {
	cp := m.ceilingPressures()
	return floats.Max(cp)
}

// Ceiling returns CeilingPressure converted to a depth in metres under the
// given water density and surface pressure; negative or zero means the
// diver may surface directly.
func (m *Model) Ceiling(pressureToDepth func(pressureBar float64) float64) float64 {
	return pressureToDepth(m.CeilingPressure())
}

// ControlCompartment returns the index of the compartment currently
// determining the ceiling (the limiting, or "controlling", compartment).
func (m *Model) ControlCompartment() int {
	cp := m.ceilingPressures()
	return floats.MaxIdx(cp)
}

// MValueAt returns the gradient-factor-modulated maximum tolerated tissue
// pressure (the annotated "max_MV") for the controlling compartment, at the
// given ambient pressure.
func (m *Model) MValueAt(ambientPressureBar float64) float64 {
	i := m.ControlCompartment()
	a, b := m.blendedAB(i)
	raw := a + ambientPressureBar/b
	return ambientPressureBar + m.currentGF*(raw-ambientPressureBar)
}

// accumulateToxicity updates OTU and CNS for a step of tMinutes at the given
// inspired ppO2.
func (m *Model) accumulateToxicity(tMinutes, ppO2 float64) {
	if ppO2 >= 0.5 {
		m.OTU += tMinutes * math.Pow((ppO2-0.5)/0.5, 5.0/6.0)
	}
	if limit := cnsLimitMinutes(ppO2); limit > 0 {
		m.CNS += (tMinutes / limit) * 100.0
	}
}

// cnsTableEntry is one band of the NOAA/US Navy single-exposure CNS oxygen
// toxicity limits table.
type cnsTableEntry struct {
	ppO2         float64
	limitMinutes float64
}

var cnsTable = []cnsTableEntry{
	{0.6, 720.0},
	{0.7, 570.0},
	{0.8, 450.0},
	{0.9, 360.0},
	{1.0, 300.0},
	{1.1, 240.0},
	{1.2, 210.0},
	{1.3, 180.0},
	{1.4, 150.0},
	{1.5, 120.0},
	{1.6, 45.0},
}

// cnsLimitMinutes interpolates the table above to get the single-exposure
// CNS limit in minutes for an arbitrary ppO2. ppO2 below the first band
// contributes no CNS load; above the last band, the curve is extrapolated
// with the quadratic fit used by several open-source dive-planning tools
// for off-table, high-ppO2 decompression gases.
func cnsLimitMinutes(ppO2 float64) float64 {
	if ppO2 < cnsTable[0].ppO2 {
		return 0
	}
	if ppO2 > cnsTable[len(cnsTable)-1].ppO2 {
		return -0.9632992*ppO2*ppO2 + 8.533240*ppO2 - 11.54315
	}
	for i := 1; i < len(cnsTable); i++ {
		lo, hi := cnsTable[i-1], cnsTable[i]
		if ppO2 <= hi.ppO2 {
			frac := (ppO2 - lo.ppO2) / (hi.ppO2 - lo.ppO2)
			return lo.limitMinutes + frac*(hi.limitMinutes-lo.limitMinutes)
		}
	}
	return cnsTable[len(cnsTable)-1].limitMinutes
}

// Load returns the current helium and nitrogen loading of compartment i, for
// diagnostics and testing.
func (m *Model) Load(i int) (pHe, pN2 float64) {
	c := m.compartments[i]
	return c.pHe, c.pN2
}
