package tank

import (
	"errors"
	"testing"

	"github.com/divelabs/deco/gasmix"
)

const (
	testWaterDensity  = 10000.0 / 9.80665
	testSurfacePressure = 1.0
)

func defaultOptions() Options {
	return Options{
		Mix:             *gasmix.NewAirMix(),
		MaxPPO2:         1.4,
		AbsoluteMaxPPO2: 1.6,
		VolumeL:         12.0,
		PressureBar:     200.0,
		ReserveRule:     "30b",
		WaterDensity:    testWaterDensity,
		SurfacePressure: testSurfacePressure,
		TemperatureC:    15.0,
	}
}

func TestNewComputesRealVolumeAboveIdealVolume(t *testing.T) {
	tk, err := New(defaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ideal := 12.0 * 200.0
	if tk.TotalGasL <= 0 {
		t.Fatalf("want positive total gas volume, got %f", tk.TotalGasL)
	}
	// The Van der Waals correction for a compressed gas at 200 bar departs
	// from the ideal-gas approximation by a few percent, not an order of
	// magnitude.
	if tk.TotalGasL < ideal*0.8 || tk.TotalGasL > ideal*1.2 {
		t.Errorf("want real volume within 20%% of ideal %f, got %f", ideal, tk.TotalGasL)
	}
	if tk.RemainingGasL != tk.TotalGasL {
		t.Errorf("want remaining gas to start full")
	}
}

func TestNewDerivesModFromMaxPPO2(t *testing.T) {
	opts := defaultOptions()
	tk, err := New(opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := opts.Mix.MOD(opts.MaxPPO2, testWaterDensity, testSurfacePressure)
	if tk.Mod != want {
		t.Errorf("want mod %f derived from max ppo2; got %f", want, tk.Mod)
	}
}

func TestNewRejectsModExceedingMaxPPO2(t *testing.T) {
	opts := defaultOptions()
	opts.Mod = 1000.0
	_, err := New(opts)
	if !errors.Is(err, ErrInvalidMod) {
		t.Errorf("want ErrInvalidMod; got %v", err)
	}
}

func TestNewRejectsModExceedingAbsoluteMaxPPO2(t *testing.T) {
	opts := defaultOptions()
	// A Mod within the user's own MaxPPO2 ceiling but requested directly
	// past the absolute one must still be rejected.
	opts.Mod = opts.Mix.MOD(opts.AbsoluteMaxPPO2, testWaterDensity, testSurfacePressure) + 1.0
	opts.MaxPPO2 = 3.0 // loosen the user ceiling so only the absolute one can bind.
	_, err := New(opts)
	if !errors.Is(err, ErrInvalidMod) {
		t.Errorf("want ErrInvalidMod when mod exceeds absolute_max_ppo2; got %v", err)
	}
}

func TestNewRejectsOversizedTank(t *testing.T) {
	opts := defaultOptions()
	opts.VolumeL = 1000.0
	_, err := New(opts)
	if !errors.Is(err, ErrInvalidTank) {
		t.Errorf("want ErrInvalidTank; got %v", err)
	}
}

func TestNewRejectsOverpressuredTank(t *testing.T) {
	opts := defaultOptions()
	opts.PressureBar = 9000.0
	_, err := New(opts)
	if !errors.Is(err, ErrInvalidTank) {
		t.Errorf("want ErrInvalidTank; got %v", err)
	}
}

func TestReserveRuleBar(t *testing.T) {
	tk, err := New(defaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := tk.TotalGasL * 30.0 / 200.0
	if tk.MinGasL != want {
		t.Errorf("want min gas %f for 30b rule; got %f", want, tk.MinGasL)
	}
}

func TestReserveRuleThirds(t *testing.T) {
	opts := defaultOptions()
	opts.ReserveRule = "1/3"
	tk, err := New(opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	k := 3.0
	want := tk.TotalGasL * (1.0 - 2.0/k)
	if want <= 0 || tk.MinGasL != want {
		t.Errorf("want min gas %f for thirds rule; got %f", want, tk.MinGasL)
	}
}

func TestConsumeGasAndRefill(t *testing.T) {
	tk, err := New(defaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	full := tk.TotalGasL
	remaining := tk.ConsumeGas(500.0)
	if remaining != full-500.0 {
		t.Errorf("want remaining %f; got %f", full-500.0, remaining)
	}
	if tk.UsedGasL != 500.0 {
		t.Errorf("want used gas 500.0; got %f", tk.UsedGasL)
	}

	refilled := tk.Refill()
	if refilled != full {
		t.Errorf("want refill to restore full %f; got %f", full, refilled)
	}
	if tk.UsedGasL != 0 {
		t.Errorf("want used gas reset to zero after refill")
	}
}

func TestCheckRule(t *testing.T) {
	tk, err := New(defaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tk.CheckRule() {
		t.Errorf("want rule satisfied on a full tank")
	}

	tk.ConsumeGas(tk.TotalGasL - tk.MinGasL + 10.0)
	if tk.CheckRule() {
		t.Errorf("want rule violated after consuming past the reserve")
	}
}

func TestByMODSortsShallowToDeep(t *testing.T) {
	air := defaultOptions()
	deco, _ := gasmix.NewNitroxMix(0.50)
	decoOpts := Options{
		Mix: *deco, MaxPPO2: 1.6, AbsoluteMaxPPO2: 1.6, VolumeL: 11.0, PressureBar: 200.0,
		ReserveRule: "30b", WaterDensity: testWaterDensity, SurfacePressure: testSurfacePressure,
		TemperatureC: 15.0,
	}

	tAir, err := New(air)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tDeco, err := New(decoOpts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tanks := ByMOD{tAir, tDeco}
	if !tanks.Less(1, 0) {
		t.Errorf("want the EAN50 deco tank (shallower MOD) to sort before air")
	}
}
