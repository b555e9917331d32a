// SPDX-License-Identifier: MIT
package viz

import (
	"math"
	"math/rand"
)

// Vec3 is a point or direction in scene space.
type Vec3 struct {
	X, Y, Z float64
}

// Particle is one member of the field. Dir never changes after seeding;
// everything else is recomputed or smoothed per frame.
type Particle struct {
	Dir    Vec3       // Unit-sphere base direction, fixed at creation.
	Wander [3]float64 // Per-axis sinusoidal phase accumulators.
	Large  bool       // Size class: anchors render larger and move steadily.

	Size   float64 // Current rendered size in pixels.
	SX, SY float64 // Last-drawn screen position.
	Depth  float64 // Last projected z, used for draw ordering.

	primed bool // False until the first projected position snaps in.
}

// seedParticles creates n particles with uniformly distributed unit
// directions and randomized wander phases. The rng consumption order is
// fixed, so equal seeds produce identical fields.
func seedParticles(n int, anchorRatio float64, rng *rand.Rand) []Particle {
	particles := make([]Particle, n)
	for i := range particles {
		// Uniform point on the unit sphere via z in [-1,1), angle in [0,2pi).
		z := 2*rng.Float64() - 1
		theta := 2 * math.Pi * rng.Float64()
		r := math.Sqrt(1 - z*z)

		particles[i] = Particle{
			Dir: Vec3{X: r * math.Cos(theta), Y: r * math.Sin(theta), Z: z},
			Wander: [3]float64{
				2 * math.Pi * rng.Float64(),
				2 * math.Pi * rng.Float64(),
				2 * math.Pi * rng.Float64(),
			},
			Large: rng.Float64() < anchorRatio,
		}
	}
	return particles
}

// rotateXYZ applies the three axis rotations in X, Y, Z order.
func rotateXYZ(v Vec3, ax, ay, az float64) Vec3 {
	// X axis.
	sin, cos := math.Sin(ax), math.Cos(ax)
	v.Y, v.Z = v.Y*cos-v.Z*sin, v.Y*sin+v.Z*cos

	// Y axis.
	sin, cos = math.Sin(ay), math.Cos(ay)
	v.X, v.Z = v.X*cos+v.Z*sin, -v.X*sin+v.Z*cos

	// Z axis.
	sin, cos = math.Sin(az), math.Cos(az)
	v.X, v.Y = v.X*cos-v.Y*sin, v.X*sin+v.Y*cos

	return v
}
