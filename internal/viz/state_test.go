// SPDX-License-Identifier: MIT
package viz

import (
	"math"
	"testing"

	"nebula/internal/analysis"
)

func TestAdvanceGeometricConvergence(t *testing.T) {
	// A constant target held for n frames converges geometrically:
	// error_n = error_0 * (1 - factor)^n.
	p := DefaultParams()
	target := analysis.Energies{Bass: 0.8}

	st := State{}
	const frames = 50
	for range frames {
		st = Advance(st, target, p)
	}

	factor := p.Smoothing[1]
	wantErr := 0.8 * math.Pow(1-factor, frames)
	gotErr := 0.8 - st.Levels.Bass
	if math.Abs(gotErr-wantErr) > 1e-12 {
		t.Errorf("error after %d frames = %v, want %v", frames, gotErr, wantErr)
	}
}

func TestAdvanceSmoothingOrdering(t *testing.T) {
	// Factors must rise from subBass to highs: weighty low end, twitchy top.
	p := DefaultParams()
	for i := 1; i < len(p.Smoothing); i++ {
		if p.Smoothing[i] <= p.Smoothing[i-1] {
			t.Errorf("smoothing[%d]=%v not greater than smoothing[%d]=%v", i, p.Smoothing[i], i-1, p.Smoothing[i-1])
		}
	}
}

func TestAdvanceSustainedSilence(t *testing.T) {
	p := DefaultParams()

	// Energize first, then feed silence for 1000 frames.
	st := State{}
	for range 10 {
		st = Advance(st, analysis.Energies{SubBass: 1, Bass: 1, LowMids: 1, HighMids: 1, Highs: 1}, p)
	}
	for range 1000 {
		st = Advance(st, analysis.Energies{}, p)
	}

	if st.TotalEnergy > 1e-6 {
		t.Errorf("total energy after silence = %v, want ~0", st.TotalEnergy)
	}
	if math.Abs(st.WanderRadius-p.WanderRadius) > 1e-3 {
		t.Errorf("wander radius = %v, want configured maximum %v", st.WanderRadius, p.WanderRadius)
	}

	// Rotation must have stalled.
	next := Advance(st, analysis.Energies{}, p)
	if delta := next.RotX - st.RotX; delta > 1e-9 {
		t.Errorf("rotation increment %v, want ~0", delta)
	}
}

func TestAdvanceFullEnergy(t *testing.T) {
	p := DefaultParams()
	full := analysis.Energies{SubBass: 1, Bass: 1, LowMids: 1, HighMids: 1, Highs: 1}

	st := State{}
	for range 1000 {
		st = Advance(st, full, p)
	}

	if math.Abs(st.TotalEnergy-1) > 1e-6 {
		t.Errorf("total energy = %v, want 1", st.TotalEnergy)
	}
	if math.Abs(st.SpeedFactor-1) > 1e-6 {
		t.Errorf("speed factor = %v, want 1", st.SpeedFactor)
	}
	if st.WanderStrength != 0 {
		t.Errorf("wander strength = %v, want 0", st.WanderStrength)
	}
	if st.WanderRadius != 0 {
		t.Errorf("wander radius = %v, want 0", st.WanderRadius)
	}
}

func TestAdvanceRotationMonotonic(t *testing.T) {
	p := DefaultParams()
	st := State{}
	prev := st
	for i := range 200 {
		e := analysis.Energies{Bass: 0.5 + 0.5*math.Sin(float64(i)/7), LowMids: 0.4, HighMids: 0.6}
		st = Advance(st, e, p)
		if st.RotX < prev.RotX || st.RotY < prev.RotY || st.RotZ < prev.RotZ {
			t.Fatalf("rotation accumulator decreased at frame %d", i)
		}
		prev = st
	}
}

func TestRadialDistance(t *testing.T) {
	p := DefaultParams()

	tests := []struct {
		bass float64
		want float64
	}{
		{0, p.BaseRadius},
		{1, p.MaxRadius},
		{2, p.MaxRadius}, // Calibration can push levels past 1; the shell stays bounded.
		{0.5, p.BaseRadius + (p.MaxRadius-p.BaseRadius)*math.Pow(0.5, 1.5)},
	}

	for _, tt := range tests {
		if got := radialDistance(tt.bass, p); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("radialDistance(%v) = %v, want %v", tt.bass, got, tt.want)
		}
	}
}

func TestMoodColor(t *testing.T) {
	p := DefaultParams()

	rest := moodColor(analysis.Energies{}, p)
	if rest.H != p.BaseHue {
		t.Errorf("rest hue = %v, want %v", rest.H, p.BaseHue)
	}

	bright := moodColor(analysis.Energies{Highs: 1}, p)
	wantHue := math.Mod(p.BaseHue+p.HueSwing, 360)
	if math.Abs(bright.H-wantHue) > 1e-9 {
		t.Errorf("full-highs hue = %v, want %v", bright.H, wantHue)
	}

	// Channels stay in range even with overdriven levels.
	hot := moodColor(analysis.Energies{SubBass: 3, Bass: 3, LowMids: 3, HighMids: 3, Highs: 3}, p)
	if hot.S < 0 || hot.S > 1 || hot.L < 0 || hot.L > 1 {
		t.Errorf("overdriven mood color out of range: %+v", hot)
	}
}

func TestRotateXYZ(t *testing.T) {
	// Quarter turn about X maps +Y to +Z.
	got := rotateXYZ(Vec3{Y: 1}, math.Pi/2, 0, 0)
	if math.Abs(got.X) > 1e-12 || math.Abs(got.Y) > 1e-12 || math.Abs(got.Z-1) > 1e-12 {
		t.Errorf("rotateXYZ(+Y, pi/2 about X) = %+v, want +Z", got)
	}

	// Rotation preserves magnitude.
	v := Vec3{X: 3, Y: -4, Z: 12}
	r := rotateXYZ(v, 0.3, 1.1, -2.2)
	magIn := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	magOut := math.Sqrt(r.X*r.X + r.Y*r.Y + r.Z*r.Z)
	if math.Abs(magIn-magOut) > 1e-9 {
		t.Errorf("magnitude changed under rotation: %v -> %v", magIn, magOut)
	}
}
