// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "nebula/internal/log"
)

type closableWriter interface {
	io.WriteSeeker
	Close() error
}

// StartRecording begins writing captured input to a WAV file. An empty
// filename derives a timestamped one. Recording runs alongside analysis
// and does not affect the visualizer.
func (e *LiveEngine) StartRecording(filename string) error {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		return fmt.Errorf("already recording")
	}

	if filename == "" {
		filename = fmt.Sprintf("nebula-%s.wav", time.Now().Format("20060102-150405"))
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	e.startRecordingTo(file)
	applog.Infof("Audio: Recording to %s", filename)

	return nil
}

func (e *LiveEngine) startRecordingTo(w closableWriter) {
	e.outputFile = w

	e.wavEncoder = wav.NewEncoder(w, int(e.config.Audio.SampleRate),
		32, e.config.Audio.Channels, 1)

	e.sampleBuf = &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: e.config.Audio.Channels,
			SampleRate:  int(e.config.Audio.SampleRate),
		},
		Data: make([]int, e.config.Audio.FramesPerBuffer*e.config.Audio.Channels),
	}

	atomic.StoreInt32(&e.isRecording, 1)
}

// StopRecording finalizes the WAV header and closes the output file.
// Calling it while not recording is a no-op.
func (e *LiveEngine) StopRecording() error {
	if atomic.LoadInt32(&e.isRecording) == 0 {
		return nil
	}

	atomic.StoreInt32(&e.isRecording, 0)

	if e.wavEncoder != nil {
		if err := e.wavEncoder.Close(); err != nil {
			return err
		}
		e.wavEncoder = nil
	}

	if e.outputFile != nil {
		if err := e.outputFile.Close(); err != nil {
			return err
		}
		e.outputFile = nil
	}

	return nil
}

// Close stops any active recording and the input stream.
func (e *LiveEngine) Close() error {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		if err := e.StopRecording(); err != nil {
			return err
		}
	}

	if err := e.Stop(); err != nil {
		return err
	}

	return nil
}
