package gasmix

import "testing"

// The classic dive-planning simplification: exactly 10m of water per bar,
// with a 1.0 bar surface, matches the teacher's own helpers.Pressure.
const (
	testWaterDensity  = 10000.0 / 9.80665
	testSurfacePressure = 1.0
)

func TestMixType(t *testing.T) {
	tests := []struct {
		name string
		fhe  float64
		fn2  float64
		fo2  float64
		want MixType
		str  string
	}{
		{name: "Air", fhe: 0.0, fn2: 0.79, fo2: 0.21, want: Air, str: "Air"},
		{name: "Nitrox32", fhe: 0.0, fn2: 0.68, fo2: 0.32, want: Nitrox, str: "Nitrox"},
		{name: "Nitrox50", fhe: 0.0, fn2: 0.5, fo2: 0.5, want: Nitrox, str: "Nitrox"},
		{name: "Nitrox100", fhe: 0.0, fn2: 0.0, fo2: 1.0, want: Nitrox, str: "Nitrox"},
		{name: "Trimix3040", fhe: 0.4, fn2: 0.3, fo2: 0.3, want: Trimix, str: "Trimix"},
		{name: "Trimix2150", fhe: 0.5, fn2: 0.29, fo2: 0.21, want: Trimix, str: "Trimix"},
		{name: "Trimix5030", fhe: 0.5, fn2: 0.3, fo2: 0.5, want: Trimix, str: "Trimix"},
		{name: "Heliox2179", fhe: 0.79, fn2: 0.0, fo2: 0.21, want: Heliox, str: "Heliox"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gm := GasMix{FHe: tt.fhe, FN2: tt.fn2, FO2: tt.fo2}
			mt := gm.MixType()

			if mt != tt.want {
				t.Errorf("want %v; got %v", tt.want, mt)
			}

			if mt.String() != tt.str {
				t.Errorf("want string %s; got %s", tt.str, mt.String())
			}
		})
	}
}

// MOD follows spec's floor((10*(ppO2/fO2))-10) formula, which differs
// slightly from the teacher's rounded version.
func TestMOD(t *testing.T) {
	tests := []struct {
		name string
		fo2  float64
		ppo2 float64
		want float64
	}{
		{name: "21% @ 1.2", fo2: 0.21, ppo2: 1.2, want: 47.0},
		{name: "21% @ 1.6", fo2: 0.21, ppo2: 1.6, want: 66.0},
		{name: "30% @ 1.4", fo2: 0.30, ppo2: 1.4, want: 36.0},
		{name: "30% @ 1.6", fo2: 0.30, ppo2: 1.6, want: 43.0},
		{name: "32% @ 1.4", fo2: 0.32, ppo2: 1.4, want: 33.0},
		{name: "32% @ 1.6", fo2: 0.32, ppo2: 1.6, want: 40.0},
		{name: "40% @ 1.3", fo2: 0.40, ppo2: 1.3, want: 22.0},
		{name: "40% @ 1.4", fo2: 0.40, ppo2: 1.4, want: 25.0},
		{name: "40% @ 1.6", fo2: 0.40, ppo2: 1.6, want: 30.0},
		{name: "100% @ 1.4", fo2: 1.00, ppo2: 1.4, want: 4.0},
		{name: "100% @ 1.6", fo2: 1.00, ppo2: 1.6, want: 6.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gm, err := NewNitroxMix(tt.fo2)
			if err != nil {
				t.Fatalf("want %f; got error %v", tt.want, err)
			}

			mod := gm.MOD(tt.ppo2, testWaterDensity, testSurfacePressure)
			if mod != tt.want {
				t.Errorf("want %f; got %f", tt.want, mod)
			}
		})
	}
}

func TestMinOD(t *testing.T) {
	gm, err := NewNitroxMix(0.21)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Air at 0.18 ppO2-min is breathable at the surface.
	if got := gm.MinOD(0.18, testWaterDensity, testSurfacePressure); got != 0.0 {
		t.Errorf("want 0.0; got %f", got)
	}

	// A 10% oxygen hypoxic trimix-style mix needs some depth to reach
	// 0.18 bar of ppO2.
	gm2 := GasMix{FO2: 0.10, FHe: 0.50, FN2: 0.40}
	got := gm2.MinOD(0.18, testWaterDensity, testSurfacePressure)
	if got <= 0.0 {
		t.Errorf("want positive min OD; got %f", got)
	}
}

func TestEND(t *testing.T) {
	air := NewAirMix()
	tx1545, err := NewTrimixMix(0.15, 0.45)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Air's END at any depth should equal that depth (it is the reference).
	gotAir := air.END(40.0, 1.0, 1.0, 0.0, testWaterDensity, testSurfacePressure)
	if gotAir < 39.9 || gotAir > 40.1 {
		t.Errorf("air END at 40m want ~40m, got %f", gotAir)
	}

	// A helium-bearing trimix should have a shallower END than its actual
	// depth (He treated as non-narcotic).
	gotTx := tx1545.END(60.0, 1.0, 1.0, 0.0, testWaterDensity, testSurfacePressure)
	if gotTx >= 60.0 {
		t.Errorf("trimix END at 60m should be shallower than 60m, got %f", gotTx)
	}

	// MODForEND should invert END.
	backDepth := tx1545.MODForEND(gotTx, 1.0, 1.0, 0.0, testWaterDensity, testSurfacePressure)
	if backDepth < 59.9 || backDepth > 60.1 {
		t.Errorf("MODForEND(END(60)) want ~60m, got %f", backDepth)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		gm   *GasMix
		want string
	}{
		{"air", NewAirMix(), "Air"},
		{"ean32", &GasMix{FO2: 0.32, FN2: 0.68}, "Nitrox 32"},
		{"oxygen", &GasMix{FO2: 1.0}, "Oxygen"},
		{"heliox21/79", &GasMix{FO2: 0.21, FHe: 0.79}, "Heliox 21/79"},
		{"trimix18/45", &GasMix{FO2: 0.18, FHe: 0.45, FN2: 0.37}, "Trimix 18/45"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.gm.DisplayName(); got != tt.want {
				t.Errorf("want %q; got %q", tt.want, got)
			}
		})
	}
}
