// SPDX-License-Identifier: MIT
package analysis

// AudioProcessor is the standard interface for components that consume raw
// audio buffers. Implementations should be efficient as Process is called
// from the real-time capture callback.
type AudioProcessor interface {
	Process(inputBuffer []int32)
}

// ClosableProcessor combines AudioProcessor with a Close method for
// resource cleanup.
type ClosableProcessor interface {
	AudioProcessor
	Close() error
}

// SpectrumProvider exposes the latest normalized magnitude spectrum. It
// decouples band-energy consumers from the concrete FFT implementation.
// The snapshot is refreshed in place once per analysis tick; callers must
// not retain references to returned data across frames.
type SpectrumProvider interface {
	GetMagnitudes() []float64                // Thread-safe copy of the latest spectrum, each value in [0,1].
	GetMagnitudesInto(dest []float64) error  // Allocation-free variant for per-frame readers.
	GetFrequencyForBin(binIndex int) float64 // Center frequency (Hz) for a spectrum bin.
	GetFFTSize() int                         // Number of FFT points.
	GetSampleRate() float64                  // Sample rate (Hz) of the analyzed signal.
}
