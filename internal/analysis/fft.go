// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	applog "nebula/internal/log"
	"nebula/pkg/bitint"
)

// WindowFunc selects the FFT window function.
type WindowFunc int

const (
	BartlettHann WindowFunc = iota
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

// fftWorkspace holds pre-allocated buffers for FFT calculations.
type fftWorkspace struct {
	input     []float64    // Windowed input signal.
	fftOutput []complex128 // FFT complex results.
	magnitude []float64    // Normalized magnitudes in [0,1].
	window    []float64    // Pre-calculated window coefficients.
	mu        sync.RWMutex // Protects concurrent access to the magnitude buffer.
}

// FFTProcessor performs FFT analysis on raw audio buffers and exposes a
// normalized magnitude snapshot via SpectrumProvider. Magnitudes are
// scaled by 2/N for amplitude, lifted with a square root for perceptual
// contrast, multiplied by a configurable gain and clamped to [0,1].
type FFTProcessor struct {
	fftCalculator *fourier.FFT
	fftSize       int
	sampleRate    float64
	gain          float64
	workspace     fftWorkspace
}

// Compile-time checks for interface implementations.
var _ AudioProcessor = (*FFTProcessor)(nil)
var _ SpectrumProvider = (*FFTProcessor)(nil)
var _ ClosableProcessor = (*FFTProcessor)(nil)

// NewFFTProcessor creates an FFT processor with pre-allocated buffers.
// fftSize must be a power of 2; gain <= 0 falls back to 1.
func NewFFTProcessor(fftSize int, sampleRate float64, windowType WindowFunc, gain float64) (*FFTProcessor, error) {
	if !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}
	if gain <= 0 {
		gain = 1
	}

	fftCalculator := fourier.NewFFT(fftSize)
	windowCoeffs := make([]float64, fftSize)
	applyWindow(windowCoeffs, windowType)

	// FFT output size for real input is N/2 + 1 complex values.
	magnitudeSize := fftSize/2 + 1

	applog.Infof("Analysis: Initializing FFTProcessor (Size: %d, SampleRate: %.1f Hz, Window: %v)", fftSize, sampleRate, windowType)

	return &FFTProcessor{
		fftCalculator: fftCalculator,
		fftSize:       fftSize,
		sampleRate:    sampleRate,
		gain:          gain,
		workspace: fftWorkspace{
			input:     make([]float64, fftSize),
			fftOutput: make([]complex128, magnitudeSize),
			magnitude: make([]float64, magnitudeSize),
			window:    windowCoeffs,
		},
	}, nil
}

// Process applies windowing, performs the FFT and refreshes the magnitude
// snapshot in place. Hot path: pre-allocated buffers only.
func (p *FFTProcessor) Process(inputBuffer []int32) {
	p.workspace.mu.Lock()

	// Normalize int32 samples into [-1,1) and apply the window.
	// Zero-pad if the input is shorter than fftSize.
	const normFactor = 1.0 / float64(0x80000000)
	inputLen := len(inputBuffer)
	for i := range p.fftSize {
		if i < inputLen {
			p.workspace.input[i] = float64(inputBuffer[i]) * normFactor * p.workspace.window[i]
		} else {
			p.workspace.input[i] = 0
		}
	}

	p.fftCalculator.Coefficients(p.workspace.fftOutput, p.workspace.input)

	// Amplitude scale 2/N maps a full-scale sine to ~1.0 at its bin; the
	// square root lifts quiet partials so the spectrum snapshot stays
	// usable across [0,1].
	ampScale := 2.0 / float64(p.fftSize)
	for i, c := range p.workspace.fftOutput {
		amp := cmplx.Abs(c) * ampScale
		m := math.Sqrt(amp) * p.gain
		if m > 1 {
			m = 1
		}
		p.workspace.magnitude[i] = m
	}

	p.workspace.mu.Unlock()
}

// GetMagnitudes returns a thread-safe copy of the latest magnitudes.
// NOTE: allocates on each call; per-frame readers should prefer
// GetMagnitudesInto.
func (p *FFTProcessor) GetMagnitudes() []float64 {
	p.workspace.mu.RLock()
	defer p.workspace.mu.RUnlock()

	magCopy := make([]float64, len(p.workspace.magnitude))
	copy(magCopy, p.workspace.magnitude)
	return magCopy
}

// GetMagnitudesInto copies the latest magnitudes into dest, which must
// have length fftSize/2 + 1. Intended for per-frame readers that want to
// avoid allocation.
func (p *FFTProcessor) GetMagnitudesInto(dest []float64) error {
	p.workspace.mu.RLock()
	defer p.workspace.mu.RUnlock()

	if len(dest) != len(p.workspace.magnitude) {
		return fmt.Errorf("destination slice length %d does not match required length %d", len(dest), len(p.workspace.magnitude))
	}

	copy(dest, p.workspace.magnitude)
	return nil
}

// GetFrequencyForBin returns the center frequency (Hz) for an FFT bin index.
func (p *FFTProcessor) GetFrequencyForBin(binIndex int) float64 {
	if binIndex < 0 || binIndex >= len(p.workspace.fftOutput) {
		return 0.0
	}
	return float64(binIndex) * (p.sampleRate / float64(p.fftSize))
}

// GetFFTSize returns the configured FFT size (number of points).
func (p *FFTProcessor) GetFFTSize() int {
	return p.fftSize // Immutable after creation, no lock needed.
}

// GetSampleRate returns the configured sample rate (Hz).
func (p *FFTProcessor) GetSampleRate() float64 {
	return p.sampleRate // Immutable after creation, no lock needed.
}

// Close implements ClosableProcessor. The FFT processor holds no
// resources requiring explicit release.
func (p *FFTProcessor) Close() error {
	applog.Debugf("Analysis: Closing FFTProcessor")
	return nil
}

// ParseWindowFunc converts a string name (case-insensitive) to a
// WindowFunc, returning Hann and an error if the name is unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// applyWindow fills coeffs with the selected window function. Unknown
// types fall back to Hann.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	// The gonum window funcs multiply in place, so start from 1.0.
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		applog.Warnf("Analysis: Unknown window function type %d, defaulting to Hann", windowType)
		window.Hann(coeffs)
	}
}
