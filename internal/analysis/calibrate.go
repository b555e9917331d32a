// SPDX-License-Identifier: MIT
package analysis

import (
	"time"

	applog "nebula/internal/log"
)

// rangeEpsilon guards the normalization divide when peak and valley have
// converged.
const rangeEpsilon = 1e-3

// bandRange tracks the rolling peak and valley for one band key.
type bandRange struct {
	peak   float64
	valley float64
}

// CalibratorParams configures the calibration/normalization stage.
type CalibratorParams struct {
	Multiplier   float64       // Re-amplification after normalization.
	MinIntensity float64       // Floor intensity for degenerate ranges.
	AdaptRate    float64       // Per-frame peak/valley drift rate.
	Calibration  time.Duration // Fixed amplification window at session start.
	FadeIn       time.Duration // Linear ramp from silence at session start.
}

// DefaultCalibratorParams mirrors the engine's configuration defaults.
func DefaultCalibratorParams() CalibratorParams {
	return CalibratorParams{
		Multiplier:   1.6,
		MinIntensity: 0.05,
		AdaptRate:    0.01,
		Calibration:  2000 * time.Millisecond,
		FadeIn:       800 * time.Millisecond,
	}
}

// Calibrator rescales raw band intensities into a consistent visual range
// regardless of source loudness or mastering. It runs two phases: during
// the calibration window raw intensity is amplified directly (under a
// fade-in ramp so the first frames are not jarring), and afterwards each
// band key is normalized against a rolling peak/valley pair with
// asymmetric adaptation. Starting adaptive normalization cold, with no
// history, is what the fixed window avoids.
type Calibrator struct {
	params CalibratorParams
	ranges map[string]*bandRange
	start  time.Time
	begun  bool

	// now is the clock source; injectable for tests.
	now func() time.Time
}

// NewCalibrator creates a calibrator with the given parameters.
func NewCalibrator(params CalibratorParams) *Calibrator {
	if params.Multiplier <= 0 {
		params.Multiplier = 1
	}
	if params.AdaptRate <= 0 {
		params.AdaptRate = 0.01
	}
	return &Calibrator{
		params: params,
		ranges: make(map[string]*bandRange),
		now:    time.Now,
	}
}

// Begin marks the session start for the fade-in ramp and calibration
// window. Calling Begin again restarts both and clears all tracked
// ranges.
func (c *Calibrator) Begin() {
	c.start = c.now()
	c.begun = true
	c.ranges = make(map[string]*bandRange)
	applog.Debugf("Analysis: Calibration window started (%s window, %s fade-in)", c.params.Calibration, c.params.FadeIn)
}

// fadeIntensity returns the linear ramp value in [0,1] for the current
// session age.
func (c *Calibrator) fadeIntensity(age time.Duration) float64 {
	if c.params.FadeIn <= 0 {
		return 1
	}
	f := float64(age) / float64(c.params.FadeIn)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Normalize maps a raw band intensity onto the visual range for the given
// band key. Before Begin is called it passes through amplified raw values
// without fade so headless callers still get signal.
func (c *Calibrator) Normalize(key string, raw float64) float64 {
	if !c.begun {
		return raw * c.params.Multiplier
	}

	age := c.now().Sub(c.start)

	// Phase one: direct amplification while the adaptive filter has no
	// usable history yet.
	if age < c.params.Calibration {
		v := raw * c.fadeIntensity(age) * c.params.Multiplier
		if v < c.params.MinIntensity {
			v = c.params.MinIntensity
		}
		return v
	}

	// Phase two: adaptive range normalization.
	r, ok := c.ranges[key]
	if !ok {
		r = &bandRange{peak: raw, valley: raw}
		c.ranges[key] = r
	}

	// Rises and falls register immediately on their own side; the
	// opposite side drifts toward the current value at the adaptation
	// rate. Peaks decay slowly toward new lower values, valleys rise
	// slowly toward new higher ones.
	if raw > r.peak {
		r.peak = raw
	} else {
		r.peak += (raw - r.peak) * c.params.AdaptRate
	}
	if raw < r.valley {
		r.valley = raw
	} else {
		r.valley += (raw - r.valley) * c.params.AdaptRate
	}

	span := r.peak - r.valley
	if span < rangeEpsilon {
		return c.params.MinIntensity
	}

	v := (raw - r.valley) / span
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return v * c.params.Multiplier
}

// NormalizeAll applies Normalize to each of the five field bands.
func (c *Calibrator) NormalizeAll(raw Energies) Energies {
	return Energies{
		SubBass:  c.Normalize("subBass", raw.SubBass),
		Bass:     c.Normalize("bass", raw.Bass),
		LowMids:  c.Normalize("lowMids", raw.LowMids),
		HighMids: c.Normalize("highMids", raw.HighMids),
		Highs:    c.Normalize("highs", raw.Highs),
	}
}
