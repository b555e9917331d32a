// SPDX-License-Identifier: MIT
package viz

import (
	"math"
	"math/rand"
	"sort"

	"nebula/internal/analysis"
)

// Field is the audio-reactive 3D particle cloud. It owns a fixed set of
// particles for its lifetime; only Reset reseeds them. All mutation
// happens on the frame thread, so the type is not safe for concurrent
// use.
type Field struct {
	params    Params
	rng       *rand.Rand
	st        State
	particles []Particle
	order     []int // Draw-order scratch, reused across frames.
	col       HSLA

	cx, cy float64 // Projection center, recomputed on resize.
}

var _ Visualizer = (*Field)(nil)

// NewField seeds a particle field from the given randomness source. The
// source is the only nondeterminism: equal seeds and equal energy
// sequences reproduce identical trajectories.
func NewField(params Params, rng *rand.Rand) *Field {
	if params.Particles <= 0 {
		params.Particles = DefaultParams().Particles
	}
	f := &Field{
		params: params,
		rng:    rng,
	}
	f.seed()
	return f
}

func (f *Field) seed() {
	f.particles = seedParticles(f.params.Particles, f.params.AnchorRatio, f.rng)
	f.order = make([]int, len(f.particles))
	f.col = moodColor(analysis.Energies{}, f.params)
}

// Resize updates the projection center. Particle identity, count and
// screen positions survive; interpolation continues from the previous
// positions on the next frame.
func (f *Field) Resize(w, h int) {
	f.cx = float64(w) / 2
	f.cy = float64(h) / 2
}

// State returns a copy of the current simulation state.
func (f *Field) State() State {
	return f.st
}

// Update advances the simulation by one frame from the given calibrated
// band energies.
func (f *Field) Update(target analysis.Energies) {
	f.st = Advance(f.st, target, f.params)
	st := &f.st
	p := &f.params

	radial := radialDistance(st.Levels.Bass, *p)
	jitterAmp := p.JitterScale * clamp01(st.Levels.Highs)

	// Screen-space smoothing: anchors move at a constant rate, drifters
	// go viscous when the track is loud and snappy when it is quiet.
	driftFactor := p.DriftSnapMin + (1-clamp01(st.TotalEnergy))*p.DriftSnapRange

	sizeBoost := p.SizeEnergyScale * clamp01((st.Levels.Bass+st.Levels.SubBass)/2)

	for i := range f.particles {
		pt := &f.particles[i]

		pt.Wander[0] += st.WanderSpeed * p.WanderAxisRates[0]
		pt.Wander[1] += st.WanderSpeed * p.WanderAxisRates[1]
		pt.Wander[2] += st.WanderSpeed * p.WanderAxisRates[2]

		pos := Vec3{
			X: pt.Dir.X*radial + math.Sin(pt.Wander[0])*st.WanderRadius + (f.rng.Float64()-0.5)*jitterAmp,
			Y: pt.Dir.Y*radial + math.Sin(pt.Wander[1])*st.WanderRadius + (f.rng.Float64()-0.5)*jitterAmp,
			Z: pt.Dir.Z*radial + math.Sin(pt.Wander[2])*st.WanderRadius + (f.rng.Float64()-0.5)*jitterAmp,
		}

		pos = rotateXYZ(pos, st.RotX, st.RotY, st.RotZ)

		denom := p.Perspective + pos.Z
		if denom < 1 {
			denom = 1 // Behind the camera plane; pin instead of exploding.
		}
		scale := p.Perspective / denom

		tx := f.cx + pos.X*scale
		ty := f.cy + pos.Y*scale

		if !pt.primed {
			pt.SX, pt.SY = tx, ty
			pt.primed = true
		} else {
			factor := driftFactor
			if pt.Large {
				factor = p.AnchorSmoothing
			}
			pt.SX += (tx - pt.SX) * factor
			pt.SY += (ty - pt.SY) * factor
		}

		pt.Depth = pos.Z

		base := p.BaseSize
		if pt.Large {
			base = p.AnchorSize
		}
		pt.Size = (base + sizeBoost) * scale
	}

	f.col = moodColor(st.Levels, *p)
}

// drawOrder fills f.order with particle indices sorted by descending
// depth. Ties keep seed order, so the ordering is reproducible.
func (f *Field) drawOrder() []int {
	for i := range f.order {
		f.order[i] = i
	}
	sort.SliceStable(f.order, func(a, b int) bool {
		return f.particles[f.order[a]].Depth > f.particles[f.order[b]].Depth
	})
	return f.order
}

// Draw paints the current frame: full clear, particles farthest-first,
// then the ambient backdrop glow.
func (f *Field) Draw(s Surface) {
	s.Clear()

	core := f.col.Lighten(0.25)
	for _, idx := range f.drawOrder() {
		pt := &f.particles[idx]
		if pt.Size <= 0 {
			continue
		}
		s.FillGlow(pt.SX, pt.SY, pt.Size*2, f.col.WithAlpha(0.55))
		s.FillCircle(pt.SX, pt.SY, pt.Size*0.35, core)
	}

	// Low-frequency breathing backdrop, independent of any particle.
	ambient := clamp01(f.st.Levels.Low()) * f.params.AmbientAlpha
	if ambient > 0 {
		s.FillGlow(f.cx, f.cy, f.params.BaseRadius*2, f.col.WithAlpha(ambient))
	}
}

// Reset zeroes all rotation and energy state and reseeds the particle
// set from fresh random directions, discarding spatial continuity. The
// particle count is restored to the construction-time value.
func (f *Field) Reset() {
	f.st = State{}
	f.seed()
}
