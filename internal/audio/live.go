// SPDX-License-Identifier: MIT
package audio

import (
	"runtime"
	"sync/atomic"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	"nebula/internal/analysis"
	"nebula/internal/config"
	applog "nebula/internal/log"
)

// LiveEngine captures audio from an input device and feeds it into the
// analysis processor. Initialize must have been called before NewLiveEngine.
type LiveEngine struct {
	config *config.Config

	// Audio input handling.
	inputBuffer  []int32
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// Analysis chain.
	processor analysis.AudioProcessor
	monoInput []int32 // Mono downmix buffer for analysis
	gate      *Gate

	// Recording state and buffers.
	isRecording int32 // Atomic flag for thread-safe state
	outputFile  closableWriter
	wavEncoder  *wav.Encoder
	sampleBuf   *goaudio.IntBuffer // Reusable buffer for format conversion
}

var _ Source = (*LiveEngine)(nil)

// NewLiveEngine opens the configured input device and wires it to the
// given processor. The stream is not started until Start.
func NewLiveEngine(cfg *config.Config, processor analysis.AudioProcessor) (*LiveEngine, error) {
	inputDevice, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}

	inputSize := cfg.Audio.FramesPerBuffer * cfg.Audio.Channels

	e := &LiveEngine{
		config:      cfg,
		inputBuffer: make([]int32, inputSize),
		inputDevice: inputDevice,
		processor:   processor,
		monoInput:   make([]int32, cfg.Audio.FramesPerBuffer),
		gate:        NewGate(cfg.Audio.GateThreshold),
	}
	if cfg.Audio.GateThreshold <= 0 {
		e.gate.Disable()
	}

	if cfg.Audio.LowLatency {
		e.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		e.inputLatency = inputDevice.DefaultHighInputLatency
	}

	return e, nil
}

// Gate exposes the engine's noise gate for runtime adjustment.
func (e *LiveEngine) Gate() *Gate {
	return e.gate
}

// Start opens and starts the input stream.
func (e *LiveEngine) Start() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.config.Audio.Channels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: e.config.Audio.FramesPerBuffer,
		SampleRate:      e.config.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return err
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		e.inputStream = nil
		return err
	}

	applog.Infof("Audio: Capturing from %q at %.0f Hz", e.inputDevice.Name, e.config.Audio.SampleRate)
	return nil
}

// Stop stops and closes the input stream.
func (e *LiveEngine) Stop() error {
	if e.inputStream != nil {
		if err := e.inputStream.Stop(); err != nil {
			return err
		}

		if err := e.inputStream.Close(); err != nil {
			return err
		}

		e.inputStream = nil
	}

	return nil
}

// processInputStream is the core audio processing callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
// - No dynamic allocations in the hot path
func (e *LiveEngine) processInputStream(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	copy(e.inputBuffer, in)
	e.processBuffer(e.inputBuffer)

	// Write to WAV file if recording
	if atomic.LoadInt32(&e.isRecording) == 1 && e.wavEncoder != nil {
		e.sampleBuf.Data = e.sampleBuf.Data[:len(e.inputBuffer)]
		for i, sample := range e.inputBuffer {
			e.sampleBuf.Data[i] = int(sample)
		}

		if err := e.wavEncoder.Write(e.sampleBuf); err != nil {
			applog.Errorf("Audio: Error writing to WAV file: %v", err)
		}
	}
}

// processBuffer runs the gate and, if it opens, the analysis processor.
// Performance Critical (Hot Path):
// - No allocations
// - Branchless noise gate implementation
func (e *LiveEngine) processBuffer(buffer []int32) {
	if e.processor == nil || !e.gate.Open(buffer) {
		return
	}

	channels := e.config.Audio.Channels
	if channels == 1 {
		e.processor.Process(buffer)
		return
	}

	for i := range e.config.Audio.FramesPerBuffer {
		if i*channels < len(buffer) {
			e.monoInput[i] = buffer[i*channels]
		} else {
			e.monoInput[i] = 0 // Safety fallback
		}
	}
	e.processor.Process(e.monoInput)
}
