// SPDX-License-Identifier: MIT
package viz

import (
	"math"

	"nebula/internal/analysis"
)

// Params holds the fixed parameters of a particle field instance.
type Params struct {
	Particles int

	BaseRadius   float64 // Rest sphere radius in scene units.
	MaxRadius    float64 // Radius reached under full bass drive.
	WanderRadius float64 // Wander amplitude at zero energy.
	Perspective  float64 // P in scale = P/(P+z).

	// Rotation: each axis is driven by its associated band
	// (X <- bass, Y <- highMids, Z <- lowMids).
	BaseRotation float64
	RotGainX     float64
	RotGainY     float64
	RotGainZ     float64

	// Per-band energy smoothing, ordered subBass..highs. Slowest for the
	// low end so it feels weighty, fastest for highs so they feel twitchy.
	Smoothing [5]float64

	WanderSpeedMax  float64    // Phase advance per frame at zero energy.
	WanderAxisRates [3]float64 // Per-axis multipliers desynchronizing the axes.
	JitterScale     float64    // Random jitter amplitude at full highs energy.

	AnchorRatio     float64 // Fraction of particles in the large size class.
	AnchorSmoothing float64 // Constant screen-space smoothing for anchors.
	DriftSnapMin    float64 // Drifter smoothing at full energy (viscous).
	DriftSnapRange  float64 // Extra smoothing gained as energy drops (snappy).

	BaseSize        float64 // Rendered size of small particles at rest.
	AnchorSize      float64 // Rendered size of large particles at rest.
	SizeEnergyScale float64 // Size gain from bass+subBass energy.

	BaseHue      float64 // Mood hue at zero highs energy, degrees.
	HueSwing     float64 // Hue shift at full highs energy, degrees.
	AmbientAlpha float64 // Peak alpha of the center backdrop glow.
}

// DefaultParams returns the tuned defaults for the particle field.
func DefaultParams() Params {
	return Params{
		Particles:       300,
		BaseRadius:      160,
		MaxRadius:       290,
		WanderRadius:    200,
		Perspective:     800,
		BaseRotation:    0.012,
		RotGainX:        1.0,
		RotGainY:        0.7,
		RotGainZ:        0.4,
		Smoothing:       [5]float64{0.06, 0.10, 0.14, 0.20, 0.28},
		WanderSpeedMax:  0.035,
		WanderAxisRates: [3]float64{1.0, 1.31, 0.74},
		JitterScale:     2.0,
		AnchorRatio:     0.12,
		AnchorSmoothing: 0.18,
		DriftSnapMin:    0.08,
		DriftSnapRange:  0.18,
		BaseSize:        2.2,
		AnchorSize:      4.5,
		SizeEnergyScale: 3.0,
		BaseHue:         210,
		HueSwing:        140,
		AmbientAlpha:    0.22,
	}
}

// State is the per-frame simulation state, carried as a value so pure
// update functions can transform it and tests can run without a surface.
type State struct {
	RotX, RotY, RotZ float64 // Rotation accumulators; trigonometric periodicity wraps them implicitly.

	Levels analysis.Energies // Smoothed per-band energy levels.

	TotalEnergy    float64 // Mean of the five levels.
	SpeedFactor    float64 // TotalEnergy^1.5, nonlinear contrast.
	WanderStrength float64 // max(0, 1-2*TotalEnergy).
	WanderRadius   float64 // Current wander amplitude.
	WanderSpeed    float64 // Current per-frame phase advance.
}

// Advance computes the next simulation state from one frame of target
// band energies. Pure function: no randomness, no surface access.
func Advance(st State, target analysis.Energies, p Params) State {
	l := st.Levels
	l.SubBass += (target.SubBass - l.SubBass) * p.Smoothing[0]
	l.Bass += (target.Bass - l.Bass) * p.Smoothing[1]
	l.LowMids += (target.LowMids - l.LowMids) * p.Smoothing[2]
	l.HighMids += (target.HighMids - l.HighMids) * p.Smoothing[3]
	l.Highs += (target.Highs - l.Highs) * p.Smoothing[4]

	total := l.Total()
	speed := math.Pow(total, 1.5)

	next := State{
		Levels:      l,
		TotalEnergy: total,
		SpeedFactor: speed,

		// Per-band rotation increments are non-negative, so in practice
		// the accumulators are monotonic.
		RotX: st.RotX + p.BaseRotation*p.RotGainX*l.Bass*speed,
		RotY: st.RotY + p.BaseRotation*p.RotGainY*l.HighMids*speed,
		RotZ: st.RotZ + p.BaseRotation*p.RotGainZ*l.LowMids*speed,
	}

	// Loud audio pulls the cloud together; quiet audio lets it drift.
	strength := 1 - 2*total
	if strength < 0 {
		strength = 0
	}
	next.WanderStrength = strength
	next.WanderRadius = p.WanderRadius * strength
	next.WanderSpeed = p.WanderSpeedMax * (0.2 + 0.8*strength)

	return next
}

// radialDistance maps bass energy onto the particle shell radius with a
// nonlinear weighting so only real bass hits push the shell out.
func radialDistance(bass float64, p Params) float64 {
	drive := math.Pow(clamp01(bass), 1.5)
	return p.BaseRadius + (p.MaxRadius-p.BaseRadius)*drive
}

// moodColor derives the shared instantaneous color from the current
// levels: hue rides the highs, saturation the low mids, lightness the
// low end. All particles share it, giving one mood per frame.
func moodColor(l analysis.Energies, p Params) HSLA {
	return HSLA{
		H: p.BaseHue + p.HueSwing*clamp01(l.Highs),
		S: 0.45 + 0.5*clamp01(l.LowMids),
		L: 0.30 + 0.35*clamp01((l.Bass+l.SubBass)/2),
		A: 1,
	}.Clamp()
}
