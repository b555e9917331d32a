// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTestWAV encodes the given 16-bit samples to a WAV file and
// returns its path.
func writeTestWAV(t *testing.T, name string, sampleRate, channels int, samples []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating test WAV: %v", err)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:   samples,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("writing test WAV: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("closing encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing file: %v", err)
	}
	return path
}

// sineSamples synthesizes interleaved 16-bit samples of a sine tone.
func sineSamples(frames, channels int, freq, sampleRate float64) []int {
	samples := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		v := int(math.Sin(2*math.Pi*freq*float64(i)/sampleRate) * 16000)
		for c := 0; c < channels; c++ {
			samples[i*channels+c] = v
		}
	}
	return samples
}

func TestDecodeFileWAV(t *testing.T) {
	const (
		sampleRate = 44100
		channels   = 2
		frames     = 44100 // one second
	)
	path := writeTestWAV(t, "tone.wav", sampleRate, channels, sineSamples(frames, channels, 440, sampleRate))

	track, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}

	if track.SampleRate() != sampleRate {
		t.Errorf("sample rate = %d, want %d", track.SampleRate(), sampleRate)
	}
	if track.Channels() != channels {
		t.Errorf("channels = %d, want %d", track.Channels(), channels)
	}
	if track.Frames() != frames {
		t.Errorf("frames = %d, want %d", track.Frames(), frames)
	}
	if d := track.Duration(); d < 990*time.Millisecond || d > 1010*time.Millisecond {
		t.Errorf("duration = %s, want ~1s", d)
	}
}

func TestDecodeFilePCMRoundTrip(t *testing.T) {
	samples := []int{0, 1000, -1000, 32767, -32768, 500, -1, 1}
	path := writeTestWAV(t, "ramp.wav", 8000, 1, samples)

	track, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if track.Frames() != len(samples) {
		t.Fatalf("frames = %d, want %d", track.Frames(), len(samples))
	}

	dec := track.pcm
	for i, want := range samples {
		got := int(int16(uint16(dec[i*2]) | uint16(dec[i*2+1])<<8))
		if got != want {
			t.Errorf("sample %d = %d, want %d", i, got, want)
		}
	}
}

func TestDecodeFileErrors(t *testing.T) {
	if _, err := DecodeFile(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("missing file should error")
	}

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeFile(path); err == nil {
		t.Error("unsupported extension should error")
	}

	garbage := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(garbage, []byte("RIFFgarbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeFile(garbage); err == nil {
		t.Error("corrupt WAV should error")
	}
}

func TestTrackEmptyDuration(t *testing.T) {
	track := &Track{sampleRate: 0, channels: 2}
	if d := track.Duration(); d != 0 {
		t.Errorf("zero-rate duration = %s, want 0", d)
	}
}
