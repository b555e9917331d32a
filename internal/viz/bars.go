// SPDX-License-Identifier: MIT
package viz

import "nebula/internal/analysis"

// Bars is a flat per-band meter, kept as a debugging-friendly fallback
// style. It reuses the same smoothing factors as the particle field so
// the two variants respond to music identically.
type Bars struct {
	params Params
	levels analysis.Energies
	w, h   int
}

var _ Visualizer = (*Bars)(nil)

// NewBars creates the bar-meter variant.
func NewBars(params Params) *Bars {
	return &Bars{params: params}
}

// Resize records the surface dimensions for layout.
func (b *Bars) Resize(w, h int) {
	b.w, b.h = w, h
}

// Update smooths the five band levels toward the incoming energies.
func (b *Bars) Update(e analysis.Energies) {
	s := b.params.Smoothing
	b.levels.SubBass += (e.SubBass - b.levels.SubBass) * s[0]
	b.levels.Bass += (e.Bass - b.levels.Bass) * s[1]
	b.levels.LowMids += (e.LowMids - b.levels.LowMids) * s[2]
	b.levels.HighMids += (e.HighMids - b.levels.HighMids) * s[3]
	b.levels.Highs += (e.Highs - b.levels.Highs) * s[4]
}

// Draw paints one vertical bar per band, colored by the shared mood.
func (b *Bars) Draw(s Surface) {
	s.Clear()
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return
	}

	values := [5]float64{
		b.levels.SubBass,
		b.levels.Bass,
		b.levels.LowMids,
		b.levels.HighMids,
		b.levels.Highs,
	}
	col := moodColor(b.levels, b.params)

	slot := float64(w) / float64(len(values))
	barW := slot * 0.6
	for i, v := range values {
		barH := clamp01(v) * float64(h) * 0.9
		x := float64(i)*slot + (slot-barW)/2
		y := float64(h) - barH
		s.FillRect(x, y, barW, barH, col)
	}
}

// Reset zeroes the smoothed levels.
func (b *Bars) Reset() {
	b.levels = analysis.Energies{}
}
