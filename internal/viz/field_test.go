// SPDX-License-Identifier: MIT
package viz

import (
	"math"
	"math/rand"
	"testing"

	"nebula/internal/analysis"
)

func energySequence(frames int) []analysis.Energies {
	seq := make([]analysis.Energies, frames)
	for i := range seq {
		f := float64(i)
		seq[i] = analysis.Energies{
			SubBass:  0.5 + 0.5*math.Sin(f/13),
			Bass:     0.5 + 0.5*math.Sin(f/7),
			LowMids:  0.5 + 0.5*math.Sin(f/5),
			HighMids: 0.5 + 0.5*math.Sin(f/3),
			Highs:    0.5 + 0.5*math.Sin(f/2),
		}
	}
	return seq
}

func TestFieldParticleCountInvariant(t *testing.T) {
	p := DefaultParams()
	p.Particles = 120
	f := NewField(p, rand.New(rand.NewSource(1)))
	f.Resize(640, 480)

	if len(f.particles) != 120 {
		t.Fatalf("seeded %d particles, want 120", len(f.particles))
	}

	surface := NewRaster(640, 480)
	for _, e := range energySequence(50) {
		f.Update(e)
		f.Draw(surface)
		if len(f.particles) != 120 {
			t.Fatalf("particle count drifted to %d", len(f.particles))
		}
	}

	f.Reset()
	if len(f.particles) != 120 {
		t.Errorf("count after reset = %d, want 120", len(f.particles))
	}
}

func TestFieldResetZeroesState(t *testing.T) {
	p := DefaultParams()
	f := NewField(p, rand.New(rand.NewSource(2)))
	f.Resize(640, 480)

	for _, e := range energySequence(30) {
		f.Update(e)
	}
	if f.st == (State{}) {
		t.Fatal("expected non-zero state after updates")
	}

	f.Reset()
	if f.st != (State{}) {
		t.Errorf("state after reset = %+v, want zero value", f.st)
	}
	for i := range f.particles {
		if f.particles[i].primed {
			t.Fatalf("particle %d still primed after reset", i)
		}
	}
}

func TestFieldBaseDirectionsImmutable(t *testing.T) {
	p := DefaultParams()
	p.Particles = 50
	f := NewField(p, rand.New(rand.NewSource(3)))
	f.Resize(640, 480)

	dirs := make([]Vec3, len(f.particles))
	for i := range f.particles {
		dirs[i] = f.particles[i].Dir
	}

	for _, e := range energySequence(100) {
		f.Update(e)
	}

	for i := range f.particles {
		if f.particles[i].Dir != dirs[i] {
			t.Fatalf("particle %d base direction changed", i)
		}
	}
}

func TestFieldDeterminism(t *testing.T) {
	p := DefaultParams()
	p.Particles = 80

	a := NewField(p, rand.New(rand.NewSource(42)))
	b := NewField(p, rand.New(rand.NewSource(42)))
	a.Resize(800, 600)
	b.Resize(800, 600)

	for _, e := range energySequence(200) {
		a.Update(e)
		b.Update(e)
	}

	for i := range a.particles {
		pa, pb := a.particles[i], b.particles[i]
		if pa != pb {
			t.Fatalf("particle %d diverged:\n  a=%+v\n  b=%+v", i, pa, pb)
		}
	}
	if a.st != b.st {
		t.Errorf("states diverged:\n  a=%+v\n  b=%+v", a.st, b.st)
	}
}

func TestFieldFullEnergyConvergence(t *testing.T) {
	// With rotation and jitter disabled, full energy must pull every
	// particle onto the max-radius shell along its base direction.
	p := DefaultParams()
	p.Particles = 40
	p.BaseRotation = 0
	p.JitterScale = 0

	f := NewField(p, rand.New(rand.NewSource(4)))
	f.Resize(800, 600)

	full := analysis.Energies{SubBass: 1, Bass: 1, LowMids: 1, HighMids: 1, Highs: 1}
	for range 1000 {
		f.Update(full)
	}

	for i := range f.particles {
		pt := &f.particles[i]
		scale := p.Perspective / (p.Perspective + pt.Depth)
		x := (pt.SX - f.cx) / scale
		y := (pt.SY - f.cy) / scale
		mag := math.Sqrt(x*x + y*y + pt.Depth*pt.Depth)
		if math.Abs(mag-p.MaxRadius) > 0.5 {
			t.Fatalf("particle %d at radius %v, want %v", i, mag, p.MaxRadius)
		}
		wantDepth := pt.Dir.Z * p.MaxRadius
		if math.Abs(pt.Depth-wantDepth) > 0.5 {
			t.Fatalf("particle %d depth %v, want %v", i, pt.Depth, wantDepth)
		}
	}
}

func TestFieldRestingBeforeFirstSpectrum(t *testing.T) {
	// Zero energies keep the shell at the base radius with full wander
	// amplitude available.
	p := DefaultParams()
	f := NewField(p, rand.New(rand.NewSource(5)))
	f.Resize(640, 480)

	f.Update(analysis.Energies{})
	if got := radialDistance(f.st.Levels.Bass, p); math.Abs(got-p.BaseRadius) > 1e-9 {
		t.Errorf("rest radius = %v, want %v", got, p.BaseRadius)
	}
	if math.Abs(f.st.WanderRadius-p.WanderRadius) > 1e-9 {
		t.Errorf("rest wander radius = %v, want %v", f.st.WanderRadius, p.WanderRadius)
	}
}

func TestFieldResizeKeepsParticles(t *testing.T) {
	p := DefaultParams()
	p.Particles = 30
	f := NewField(p, rand.New(rand.NewSource(6)))
	f.Resize(640, 480)

	for _, e := range energySequence(20) {
		f.Update(e)
	}
	before := make([]Particle, len(f.particles))
	copy(before, f.particles)

	f.Resize(1280, 720)
	if f.cx != 640 || f.cy != 360 {
		t.Errorf("center = (%v, %v), want (640, 360)", f.cx, f.cy)
	}
	for i := range f.particles {
		if f.particles[i] != before[i] {
			t.Fatalf("resize mutated particle %d", i)
		}
	}
}

func TestDrawOrderDescendingDepthStableTies(t *testing.T) {
	p := DefaultParams()
	p.Particles = 6
	f := NewField(p, rand.New(rand.NewSource(7)))

	depths := []float64{10, -5, 10, 200, -5, 0}
	for i := range f.particles {
		f.particles[i].Depth = depths[i]
	}

	order := f.drawOrder()

	for i := 1; i < len(order); i++ {
		if f.particles[order[i-1]].Depth < f.particles[order[i]].Depth {
			t.Fatalf("draw order not descending at position %d", i)
		}
	}

	// Equal depths keep seed order: index 0 before 2, index 1 before 4.
	pos := make(map[int]int, len(order))
	for i, idx := range order {
		pos[idx] = i
	}
	if pos[0] > pos[2] {
		t.Error("tie at depth 10 not stable: particle 0 should precede 2")
	}
	if pos[1] > pos[4] {
		t.Error("tie at depth -5 not stable: particle 1 should precede 4")
	}
}

func TestNewVisualizerStyles(t *testing.T) {
	p := DefaultParams()
	rng := rand.New(rand.NewSource(8))

	if v, err := New("field", p, rng); err != nil || v == nil {
		t.Errorf("field style: got (%v, %v)", v, err)
	}
	if v, err := New("", p, rng); err != nil || v == nil {
		t.Errorf("empty style should default to field: got (%v, %v)", v, err)
	}
	if v, err := New("bars", p, rng); err != nil || v == nil {
		t.Errorf("bars style: got (%v, %v)", v, err)
	}
	if _, err := New("plasma", p, rng); err == nil {
		t.Error("unknown style should error")
	}
}

func TestBarsVariant(t *testing.T) {
	p := DefaultParams()
	b := NewBars(p)
	b.Resize(100, 50)
	surface := NewRaster(100, 50)

	b.Update(analysis.Energies{Bass: 1, Highs: 0.5})
	b.Draw(surface)

	if b.levels.Bass == 0 {
		t.Error("expected smoothed bass level after update")
	}
	b.Reset()
	if b.levels != (analysis.Energies{}) {
		t.Errorf("levels after reset = %+v, want zero", b.levels)
	}
}

func BenchmarkFieldUpdate(b *testing.B) {
	p := DefaultParams()
	f := NewField(p, rand.New(rand.NewSource(9)))
	f.Resize(960, 720)
	e := analysis.Energies{SubBass: 0.4, Bass: 0.7, LowMids: 0.3, HighMids: 0.5, Highs: 0.6}

	b.ReportAllocs()
	for b.Loop() {
		f.Update(e)
	}
}

func BenchmarkFieldDraw(b *testing.B) {
	p := DefaultParams()
	f := NewField(p, rand.New(rand.NewSource(10)))
	f.Resize(960, 720)
	surface := NewRaster(960, 720)
	f.Update(analysis.Energies{SubBass: 0.4, Bass: 0.7, LowMids: 0.3, HighMids: 0.5, Highs: 0.6})

	b.ReportAllocs()
	for b.Loop() {
		f.Draw(surface)
	}
}
