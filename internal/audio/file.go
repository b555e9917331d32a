// SPDX-License-Identifier: MIT
package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"

	"nebula/internal/analysis"
	applog "nebula/internal/log"
)

// Track is a fully decoded audio file: interleaved signed 16-bit little
// endian PCM plus its format. Decoding up front keeps playback and
// analysis allocation-free and makes the analysis cursor trivially
// seekable.
type Track struct {
	pcm        []byte
	sampleRate int
	channels   int
}

func (t *Track) SampleRate() int { return t.sampleRate }
func (t *Track) Channels() int   { return t.channels }

// Frames returns the number of sample frames in the track.
func (t *Track) Frames() int {
	return len(t.pcm) / (t.channels * 2)
}

// Duration returns the playback length of the track.
func (t *Track) Duration() time.Duration {
	if t.sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(t.Frames()) / float64(t.sampleRate) * float64(time.Second))
}

// DecodeFile decodes a WAV or MP3 file into a Track. The format is
// chosen by file extension.
func DecodeFile(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		return decodeWAV(f)
	case ".mp3":
		return decodeMP3(f)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s", ext)
	}
}

func decodeWAV(f *os.File) (*Track, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	bitDepth := int(dec.BitDepth)
	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, fmt.Errorf("invalid WAV channel count: %d", channels)
	}

	pcm := make([]byte, len(buf.Data)*2)
	for i, v := range buf.Data {
		var s int16
		switch {
		case bitDepth == 8:
			// 8-bit WAV is unsigned.
			s = int16((v - 128) << 8)
		case bitDepth > 16:
			s = int16(v >> (bitDepth - 16))
		default:
			s = int16(v)
		}
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}

	return &Track{
		pcm:        pcm,
		sampleRate: buf.Format.SampleRate,
		channels:   channels,
	}, nil
}

func decodeMP3(f *os.File) (*Track, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("reading MP3 data: %w", err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3 data: %w", err)
	}

	// go-mp3 always emits 16-bit stereo at the file's native rate.
	return &Track{
		pcm:        pcm,
		sampleRate: dec.SampleRate(),
		channels:   2,
	}, nil
}

// The process-wide playback context. oto allows one per process; the
// first track's format wins.
var (
	otoCtx     *oto.Context
	otoCtxRate int
	otoOnce    sync.Once
	otoInitErr error
)

func playbackContext(sampleRate, channels int) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
			otoCtxRate = sampleRate
		}
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}
	if otoCtxRate != sampleRate {
		applog.Warnf("Audio: Playback context at %d Hz, track at %d Hz", otoCtxRate, sampleRate)
	}
	return otoCtx, nil
}

// FilePlayer plays a decoded track through the system output while
// feeding the same samples to the analysis processor at real-time rate.
// Playback and analysis run on independent clocks; over a track's length
// they stay within one buffer of each other, which is below the
// perceptual threshold for the visualizer.
type FilePlayer struct {
	track           *Track
	processor       analysis.AudioProcessor
	gate            *Gate
	framesPerBuffer int

	player *oto.Player
	mono   []int32 // Reusable analysis chunk

	mu     sync.Mutex
	pos    int // Analysis cursor, in frames
	paused bool

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

var _ Source = (*FilePlayer)(nil)

// NewFilePlayer builds a player for the given track. gateThreshold <= 0
// disables the noise gate.
func NewFilePlayer(track *Track, framesPerBuffer int, gateThreshold float64, processor analysis.AudioProcessor) (*FilePlayer, error) {
	if framesPerBuffer <= 0 {
		return nil, fmt.Errorf("invalid frames per buffer: %d", framesPerBuffer)
	}

	ctx, err := playbackContext(track.sampleRate, track.channels)
	if err != nil {
		return nil, fmt.Errorf("opening playback context: %w", err)
	}

	gate := NewGate(gateThreshold)
	if gateThreshold <= 0 {
		gate.Disable()
	}

	return &FilePlayer{
		track:           track,
		processor:       processor,
		gate:            gate,
		framesPerBuffer: framesPerBuffer,
		player:          ctx.NewPlayer(bytes.NewReader(track.pcm)),
		mono:            make([]int32, framesPerBuffer),
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}, nil
}

// Start begins playback and the analysis feed.
func (p *FilePlayer) Start() error {
	p.player.Play()
	go p.analyzeLoop()
	applog.Infof("Audio: Playing %d Hz track, %s", p.track.sampleRate, p.track.Duration().Round(time.Second))
	return nil
}

// analyzeLoop walks the PCM data at real-time rate, handing one chunk
// per tick to the processor. It exits when the track ends or Stop is
// called.
func (p *FilePlayer) analyzeLoop() {
	interval := time.Duration(float64(p.framesPerBuffer) / float64(p.track.sampleRate) * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			if !p.advance() {
				close(p.done)
				return
			}
		}
	}
}

// advance feeds the next chunk to the processor. It returns false when
// the track is exhausted.
func (p *FilePlayer) advance() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		return true
	}
	if p.pos >= p.track.Frames() {
		return false
	}

	n := p.monoChunk(p.pos, p.mono)
	for i := n; i < len(p.mono); i++ {
		p.mono[i] = 0 // Zero-pad the tail chunk.
	}
	p.pos += p.framesPerBuffer

	if p.processor != nil && p.gate.Open(p.mono) {
		p.processor.Process(p.mono)
	}
	return true
}

// monoChunk converts up to len(dst) frames starting at the given frame
// into first-channel int32 samples. It returns the number of frames
// written.
func (p *FilePlayer) monoChunk(frame int, dst []int32) int {
	stride := p.track.channels * 2
	n := 0
	for i := range dst {
		off := (frame + i) * stride
		if off+1 >= len(p.track.pcm) {
			break
		}
		s := int16(binary.LittleEndian.Uint16(p.track.pcm[off:]))
		dst[i] = int32(s) << 16
		n++
	}
	return n
}

// TogglePause pauses or resumes both playback and analysis.
func (p *FilePlayer) TogglePause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.paused = !p.paused
	if p.paused {
		p.player.Pause()
	} else {
		p.player.Play()
	}
}

// Rewind restarts the track from the beginning. Playback and the
// analysis cursor move together so the picture keeps tracking the sound.
func (p *FilePlayer) Rewind() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pos = 0
	if _, err := p.player.Seek(0, io.SeekStart); err != nil {
		applog.Warnf("Audio: Rewind seek failed: %v", err)
	}
}

// Paused reports whether playback is currently paused.
func (p *FilePlayer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Done returns a channel that closes when the track has been fully
// analyzed.
func (p *FilePlayer) Done() <-chan struct{} {
	return p.done
}

// Stop halts playback and the analysis feed. Idempotent.
func (p *FilePlayer) Stop() error {
	p.stopOnce.Do(func() {
		close(p.stop)
		p.player.Pause()
	})
	return nil
}

// Close stops the player and releases the output stream.
func (p *FilePlayer) Close() error {
	_ = p.Stop()
	return p.player.Close()
}
