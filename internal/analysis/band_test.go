// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"math/rand"
	"testing"
)

func uniformSpectrum(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func TestBandIntensityDegenerateRanges(t *testing.T) {
	spectrum := uniformSpectrum(513, 0.5)

	tests := []struct {
		desc   string
		lowHz  float64
		highHz float64
	}{
		{"Equal edges", 440, 440},
		{"Inverted range", 2000, 250},
		{"Zero width at origin", 0, 0},
		{"Both above Nyquist", 30000, 40000},
		{"Narrower than one bin", 20, 21},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := BandIntensity(tt.lowHz, tt.highHz, 44100, spectrum)
			if got != 0 {
				t.Errorf("BandIntensity(%v, %v) = %v, want 0", tt.lowHz, tt.highHz, got)
			}
		})
	}
}

func TestBandIntensityEmptySpectrum(t *testing.T) {
	if got := BandIntensity(20, 20000, 44100, nil); got != 0 {
		t.Errorf("nil spectrum: got %v, want 0", got)
	}
	if got := BandIntensity(20, 20000, 0, uniformSpectrum(8, 1)); got != 0 {
		t.Errorf("zero sample rate: got %v, want 0", got)
	}
}

func TestBandIntensityResponseCurve(t *testing.T) {
	// A uniform spectrum averages to its value; the result is that value
	// raised to the response exponent.
	tests := []float64{0.0, 0.1, 0.25, 0.5, 0.75, 1.0}

	for _, v := range tests {
		spectrum := uniformSpectrum(512, v)
		got := BandIntensity(0, 22050, 44100, spectrum)
		want := math.Pow(v, responseExponent)
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("uniform %.2f: got %v, want %v", v, got, want)
		}
	}
}

func TestBandIntensityClampsInput(t *testing.T) {
	// Out-of-contract magnitudes must be clamped before averaging.
	spectrum := make([]float64, 512)
	for i := range spectrum {
		if i%2 == 0 {
			spectrum[i] = 3.0
		} else {
			spectrum[i] = -1.0
		}
	}
	got := BandIntensity(0, 22050, 44100, spectrum)
	want := math.Pow(0.5, responseExponent)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("clamped average: got %v, want %v", got, want)
	}
}

func TestBandIntensityRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	spectrum := make([]float64, 513)
	for i := range spectrum {
		spectrum[i] = rng.Float64()
	}

	for _, band := range FieldBands {
		got := BandIntensity(band.LowHz, band.HighHz, 44100, spectrum)
		if got < 0 || got > 1 {
			t.Errorf("band %s intensity %v outside [0,1]", band.Name, got)
		}
	}
}

func TestFieldBandsCanonicalRanges(t *testing.T) {
	want := [5][2]float64{{20, 60}, {60, 250}, {250, 500}, {500, 2000}, {2000, 20000}}
	for i, band := range FieldBands {
		if band.LowHz != want[i][0] || band.HighHz != want[i][1] {
			t.Errorf("band %s = [%v, %v), want [%v, %v)", band.Name, band.LowHz, band.HighHz, want[i][0], want[i][1])
		}
	}
	// Bands must tile without gaps.
	for i := 1; i < len(FieldBands); i++ {
		if FieldBands[i].LowHz != FieldBands[i-1].HighHz {
			t.Errorf("gap between %s and %s", FieldBands[i-1].Name, FieldBands[i].Name)
		}
	}
}

func TestEnergiesTotals(t *testing.T) {
	e := Energies{SubBass: 0.1, Bass: 0.2, LowMids: 0.3, HighMids: 0.4, Highs: 0.5}
	if math.Abs(e.Total()-0.3) > 1e-12 {
		t.Errorf("Total() = %v, want 0.3", e.Total())
	}
	if math.Abs(e.Low()-0.2) > 1e-12 {
		t.Errorf("Low() = %v, want 0.2", e.Low())
	}
}

func TestBandSamplerNoProvider(t *testing.T) {
	s := NewBandSampler(nil)
	if got := s.Sample(); got != (Energies{}) {
		t.Errorf("Sample() without provider = %+v, want zero energies", got)
	}
}

func BenchmarkBandIntensity(b *testing.B) {
	spectrum := uniformSpectrum(513, 0.4)
	b.ReportAllocs()
	for b.Loop() {
		_ = BandIntensity(60, 250, 44100, spectrum)
	}
}
