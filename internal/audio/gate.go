// SPDX-License-Identifier: MIT
package audio

import "math"

// Gate is a branchless noise gate over int32 sample buffers. It keeps
// silent input from reaching the analysis chain so the visualizer rests
// instead of dancing on noise floor energy. The zero value is an open
// gate (disabled).
type Gate struct {
	enabled   bool
	threshold int32 // Absolute amplitude threshold (0-2147483647)
}

// NewGate returns an enabled gate with the given threshold ratio.
func NewGate(threshold float64) *Gate {
	g := &Gate{enabled: true}
	g.SetThreshold(threshold)
	return g
}

func (g *Gate) Enable()  { g.enabled = true }
func (g *Gate) Disable() { g.enabled = false }

// SetThreshold adjusts the gate threshold. The value is in the range
// 0.0-1.0 where 0=always open, 1=always closed.
func (g *Gate) SetThreshold(threshold float64) {
	if threshold < 0.0 {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}

	g.threshold = int32(threshold * float64(math.MaxInt32))
}

// Threshold returns the current gate threshold as a float64 in the range
// 0.0-1.0.
func (g *Gate) Threshold() float64 {
	return float64(g.threshold) / float64(math.MaxInt32)
}

// Open reports whether the buffer's peak amplitude clears the threshold.
// Performance Critical (Hot Path):
// - No allocations
// - Branchless absolute value and max tracking
func (g *Gate) Open(buffer []int32) bool {
	if !g.enabled {
		return true
	}

	var maxAmplitude int32
	for i := range buffer {
		sample := buffer[i]
		mask := sample >> 31
		amplitude := (sample ^ mask) - mask
		diff := amplitude - maxAmplitude
		maxAmplitude += (diff & (diff >> 31)) ^ diff
	}

	return maxAmplitude > g.threshold
}
