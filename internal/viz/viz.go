// SPDX-License-Identifier: MIT
/*
Package viz turns per-frame band energies into a rendered picture. The
simulation core is deterministic: given a seeded randomness source and an
identical energy sequence, two instances produce bit-for-bit identical
trajectories.
*/
package viz

import (
	"fmt"
	"math/rand"

	"nebula/internal/analysis"
)

// Visualizer is the capability interface every visual style implements.
// Update consumes one frame of calibrated band energies, Draw paints the
// current state onto a surface, Reset discards all accumulated state.
// Variants are selected at construction time rather than subclassed.
type Visualizer interface {
	Update(e analysis.Energies)
	Draw(s Surface)
	Reset()
	Resize(w, h int)
}

// New constructs the named visualizer variant. Known styles are "field"
// (the 3D particle cloud) and "bars" (a flat per-band meter).
func New(style string, params Params, rng *rand.Rand) (Visualizer, error) {
	switch style {
	case "", "field":
		return NewField(params, rng), nil
	case "bars":
		return NewBars(params), nil
	default:
		return nil, fmt.Errorf("unknown visualizer style: %q", style)
	}
}
