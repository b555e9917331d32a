// SPDX-License-Identifier: MIT
package analysis

// AggregateBand is one of the three coarse bands (bass/mid/high) with a
// fixed weight and an adaptive smoothing response. The smoothing factor
// grows with the instantaneous target value so loud transients are
// tracked faster than quiet passages.
type AggregateBand struct {
	Name        string
	LowHz       float64
	HighHz      float64
	Weight      float64
	SmoothBase  float64 // Smoothing factor at zero target.
	SmoothScale float64 // Added smoothing per unit of target.

	level float64
}

// Level returns the band's current smoothed level.
func (b *AggregateBand) Level() float64 { return b.level }

// Aggregator maintains the three weighted bass/mid/high levels.
type Aggregator struct {
	bands [3]AggregateBand
}

// maxSmoothing caps the adaptive factor; a factor of 1 would bypass
// smoothing entirely.
const maxSmoothing = 0.85

// NewAggregator creates the three-band aggregate with its fixed weights.
// Base factors rise with frequency: the bass aggregate stays weighty
// while highs snap to transients.
func NewAggregator() *Aggregator {
	return &Aggregator{
		bands: [3]AggregateBand{
			{Name: "bass", LowHz: 20, HighHz: 250, Weight: 1.15, SmoothBase: 0.12, SmoothScale: 0.25},
			{Name: "mid", LowHz: 250, HighHz: 2000, Weight: 1.0, SmoothBase: 0.18, SmoothScale: 0.30},
			{Name: "high", LowHz: 2000, HighHz: 20000, Weight: 0.9, SmoothBase: 0.25, SmoothScale: 0.35},
		},
	}
}

// Update recomputes the three levels from the given spectrum snapshot.
func (a *Aggregator) Update(sampleRate float64, spectrum []float64) {
	for i := range a.bands {
		b := &a.bands[i]
		target := b.Weight * BandIntensity(b.LowHz, b.HighHz, sampleRate, spectrum)

		factor := b.SmoothBase + target*b.SmoothScale
		if factor > maxSmoothing {
			factor = maxSmoothing
		}
		b.level += (target - b.level) * factor
	}
}

// Levels returns the current (bass, mid, high) smoothed levels.
func (a *Aggregator) Levels() (bass, mid, high float64) {
	return a.bands[0].level, a.bands[1].level, a.bands[2].level
}

// Reset zeroes all aggregate levels.
func (a *Aggregator) Reset() {
	for i := range a.bands {
		a.bands[i].level = 0
	}
}
