// SPDX-License-Identifier: MIT
package viz

import (
	"context"
	"time"

	"nebula/internal/analysis"
	applog "nebula/internal/log"
)

// Broadcaster receives one payload of calibrated band energies per frame.
// Implementations must not block; slow consumers drop frames.
type Broadcaster interface {
	Send(data any) error
}

// Driver owns the per-frame pipeline: sample the spectrum into band
// intensities, calibrate them, advance the visualizer and repaint the
// surface. It runs on one logical thread; an external tick source calls
// Step once per display frame.
type Driver struct {
	sampler    *analysis.BandSampler
	calibrator *analysis.Calibrator
	aggregator *analysis.Aggregator
	vis        Visualizer
	surface    Surface
	broadcast  Broadcaster // Optional; nil disables broadcasting.

	energies analysis.Energies // Latest calibrated frame.
	released bool
}

// NewDriver wires the pipeline together and sizes the visualizer to the
// surface. calibrator and broadcast may be nil.
func NewDriver(sampler *analysis.BandSampler, calibrator *analysis.Calibrator, vis Visualizer, surface Surface, broadcast Broadcaster) *Driver {
	d := &Driver{
		sampler:    sampler,
		calibrator: calibrator,
		aggregator: analysis.NewAggregator(),
		vis:        vis,
		surface:    surface,
		broadcast:  broadcast,
	}
	w, h := surface.Size()
	vis.Resize(w, h)
	return d
}

// Begin starts the calibration session clock. Call it when playback
// starts so the fade-in ramp lines up with the first audible frames.
func (d *Driver) Begin() {
	if d.calibrator != nil {
		d.calibrator.Begin()
	}
}

// Step runs one update+draw frame. Before the first spectrum snapshot
// exists all bands read zero and the visualizer stays at rest.
func (d *Driver) Step() {
	if d.released {
		return
	}

	raw := d.sampler.Sample()
	if d.calibrator != nil {
		d.energies = d.calibrator.NormalizeAll(raw)
	} else {
		d.energies = raw
	}
	d.aggregator.Update(d.sampler.SampleRate(), d.sampler.Spectrum())

	d.vis.Update(d.energies)
	d.vis.Draw(d.surface)

	if d.broadcast != nil {
		e := d.energies
		aggBass, aggMid, aggHigh := d.aggregator.Levels()
		_ = d.broadcast.Send(map[string]any{
			"type":     "energy",
			"subBass":  e.SubBass,
			"bass":     e.Bass,
			"lowMids":  e.LowMids,
			"highMids": e.HighMids,
			"highs":    e.Highs,
			"aggBass":  aggBass,
			"aggMid":   aggMid,
			"aggHigh":  aggHigh,
		})
	}
}

// Energies returns the latest calibrated band energies.
func (d *Driver) Energies() analysis.Energies {
	return d.energies
}

// Resize propagates a new surface size to the visualizer. Safe during
// playback: projection constants are recomputed and interpolation
// continues from existing positions.
func (d *Driver) Resize(w, h int) {
	d.vis.Resize(w, h)
}

// Reset discards all visualizer and aggregate state and clears the
// surface.
func (d *Driver) Reset() {
	d.vis.Reset()
	d.aggregator.Reset()
	d.surface.Clear()
}

// Release stops the driver permanently and drops the spectrum buffer
// reference. Subsequent Steps are no-ops; a cancelled session must not
// keep mutating state.
func (d *Driver) Release() {
	d.released = true
	d.sampler.Release()
}

// Run drives Step from a ticker until the context is cancelled. This is
// the headless tick source; windowed mode calls Step from the display
// refresh callback instead. Jitter in tick delivery is tolerated, frames
// are simply computed when the tick arrives.
func (d *Driver) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 16 * time.Millisecond // ~60Hz
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	applog.Infof("Viz: Headless driver running at %s per frame", interval)
	for {
		select {
		case <-ctx.Done():
			d.Release()
			applog.Infof("Viz: Driver stopped")
			return
		case <-ticker.C:
			d.Step()
		}
	}
}
