// SPDX-License-Identifier: MIT
package analysis

import "math"

// Band is a named contiguous frequency sub-range with a weight multiplier.
type Band struct {
	Name   string
	LowHz  float64
	HighHz float64
	Weight float64
}

// The five canonical bands driving the particle field.
var FieldBands = [5]Band{
	{Name: "subBass", LowHz: 20, HighHz: 60, Weight: 1.0},
	{Name: "bass", LowHz: 60, HighHz: 250, Weight: 1.0},
	{Name: "lowMids", LowHz: 250, HighHz: 500, Weight: 1.0},
	{Name: "highMids", LowHz: 500, HighHz: 2000, Weight: 1.0},
	{Name: "highs", LowHz: 2000, HighHz: 20000, Weight: 1.0},
}

// Energies holds one frame of per-band energy scalars. Raw values sit in
// [0,1]; calibrated values may exceed 1 after re-amplification.
type Energies struct {
	SubBass  float64
	Bass     float64
	LowMids  float64
	HighMids float64
	Highs    float64
}

// Total returns the mean of the five band energies.
func (e Energies) Total() float64 {
	return (e.SubBass + e.Bass + e.LowMids + e.HighMids + e.Highs) / 5
}

// Low returns the mean of the three lowest bands, used for the ambient
// backdrop glow.
func (e Energies) Low() float64 {
	return (e.SubBass + e.Bass + e.LowMids) / 3
}

// responseExponent is the concave curve applied to the averaged band
// magnitude to increase perceptual contrast before the visualizer
// consumes the value.
const responseExponent = 1.5

// BandIntensity reduces the spectrum slice covering [lowHz, highHz) to a
// single scalar in [0,1]. Frequency edges map to spectrum indices by
// linear scaling against the Nyquist frequency. Degenerate or inverted
// ranges return 0.
func BandIntensity(lowHz, highHz, sampleRate float64, spectrum []float64) float64 {
	n := len(spectrum)
	if n == 0 || sampleRate <= 0 {
		return 0
	}

	nyquist := sampleRate / 2
	startIndex := int(lowHz / nyquist * float64(n))
	endIndex := int(highHz / nyquist * float64(n))

	if startIndex < 0 {
		startIndex = 0
	}
	if endIndex > n {
		endIndex = n
	}
	if endIndex <= startIndex {
		return 0
	}

	var sum float64
	for i := startIndex; i < endIndex; i++ {
		v := spectrum[i]
		// The snapshot contract is [0,1]; clamp defensively anyway since
		// the smoother relies on it.
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		sum += v
	}
	avg := sum / float64(endIndex-startIndex)

	return math.Pow(avg, responseExponent)
}

// BandSampler extracts the five field band intensities from a
// SpectrumProvider without allocating per frame.
type BandSampler struct {
	provider SpectrumProvider
	scratch  []float64
}

// NewBandSampler creates a sampler bound to the given provider.
func NewBandSampler(provider SpectrumProvider) *BandSampler {
	var scratch []float64
	if provider != nil {
		scratch = make([]float64, provider.GetFFTSize()/2+1)
	}
	return &BandSampler{provider: provider, scratch: scratch}
}

// Sample returns the current raw band energies. Before the first spectrum
// snapshot exists, or with no provider attached, all bands read zero and
// the simulator stays at its rest configuration.
func (s *BandSampler) Sample() Energies {
	if s.provider == nil {
		return Energies{}
	}
	if err := s.provider.GetMagnitudesInto(s.scratch); err != nil {
		return Energies{}
	}

	sr := s.provider.GetSampleRate()
	return Energies{
		SubBass:  FieldBands[0].Weight * BandIntensity(FieldBands[0].LowHz, FieldBands[0].HighHz, sr, s.scratch),
		Bass:     FieldBands[1].Weight * BandIntensity(FieldBands[1].LowHz, FieldBands[1].HighHz, sr, s.scratch),
		LowMids:  FieldBands[2].Weight * BandIntensity(FieldBands[2].LowHz, FieldBands[2].HighHz, sr, s.scratch),
		HighMids: FieldBands[3].Weight * BandIntensity(FieldBands[3].LowHz, FieldBands[3].HighHz, sr, s.scratch),
		Highs:    FieldBands[4].Weight * BandIntensity(FieldBands[4].LowHz, FieldBands[4].HighHz, sr, s.scratch),
	}
}

// Spectrum returns the scratch buffer holding the snapshot taken by the
// last Sample call. Valid until the next Sample; callers must not retain
// it across frames.
func (s *BandSampler) Spectrum() []float64 {
	return s.scratch
}

// SampleRate returns the provider's sample rate, or 0 with no provider
// attached.
func (s *BandSampler) SampleRate() float64 {
	if s.provider == nil {
		return 0
	}
	return s.provider.GetSampleRate()
}

// Release drops the provider reference so a cancelled session stops
// reading the spectrum buffer.
func (s *BandSampler) Release() {
	s.provider = nil
	s.scratch = nil
}
