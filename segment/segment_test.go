package segment

import (
	"errors"
	"testing"

	"github.com/divelabs/deco/gasmix"
	"github.com/divelabs/deco/tank"
)

const (
	testWaterDensity  = 10000.0 / 9.80665
	testSurfacePressure = 1.0
)

func airTank(t *testing.T) *tank.Tank {
	t.Helper()
	tk, err := tank.New(tank.Options{
		Mix: *gasmix.NewAirMix(), MaxPPO2: 1.4, AbsoluteMaxPPO2: 1.6, VolumeL: 12.0, PressureBar: 200.0,
		ReserveRule: "30b", WaterDensity: testWaterDensity, SurfacePressure: testSurfacePressure,
		TemperatureC: 15.0,
	})
	if err != nil {
		t.Fatalf("unexpected error building tank: %v", err)
	}
	return tk
}

func TestKindString(t *testing.T) {
	tests := []struct {
		k    Kind
		want string
	}{
		{Constant, "constant"},
		{AscentDescent, "ascent_descent"},
		{Waypoint, "waypoint"},
		{Deco, "deco"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.k, got, tt.want)
		}
	}
}

func TestValidateAcceptsDepthWithinWindow(t *testing.T) {
	s := InputSegment{Kind: Constant, DepthM: 20.0, DurationS: 600, Tank: airTank(t)}
	if err := s.Validate(0.18, testWaterDensity, testSurfacePressure); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestValidateRejectsDepthBeyondMod(t *testing.T) {
	s := InputSegment{Kind: Constant, DepthM: 70.0, DurationS: 600, Tank: airTank(t)}
	err := s.Validate(0.18, testWaterDensity, testSurfacePressure)
	if !errors.Is(err, ErrUnauthorizedMod) {
		t.Errorf("want ErrUnauthorizedMod; got %v", err)
	}
}

func TestValidateRejectsNilTank(t *testing.T) {
	s := InputSegment{Kind: Constant, DepthM: 20.0, DurationS: 600}
	err := s.Validate(0.18, testWaterDensity, testSurfacePressure)
	if !errors.Is(err, ErrUnauthorizedMod) {
		t.Errorf("want ErrUnauthorizedMod for nil tank; got %v", err)
	}
}

func TestOutputSegmentEmbedsInput(t *testing.T) {
	in := InputSegment{Kind: Deco, DepthM: 9.0, DurationS: 60, Tank: airTank(t)}
	out := OutputSegment{InputSegment: in, RunTimeS: 120, GasUsedL: 15.5, MaxMV: 2.1, GFUsed: 0.45, ControllingCompartment: 4}

	if out.DepthM != 9.0 || out.Kind != Deco {
		t.Errorf("want embedded input fields accessible directly on output, got depth=%f kind=%v", out.DepthM, out.Kind)
	}
	if out.RunTimeS != 120 || out.GasUsedL != 15.5 {
		t.Errorf("want output-only fields set correctly")
	}
}
