// SPDX-License-Identifier: MIT
/*
Package audio provides the audio sources feeding the analysis chain:
- Live capture from an input device using PortAudio
- File playback (WAV/MP3) with synchronized analysis
- Noise gate with branchless implementation
- WAV recording with atomic state management

Thread Safety:
- Uses atomic operations for state management
- Pre-allocates buffers to avoid GC in hot path
- Locks OS thread during live audio processing
*/
package audio

// Source is a running audio source that pushes sample buffers into an
// analysis processor. Start and Stop may be called once each; Close
// releases all resources and implies Stop.
type Source interface {
	Start() error
	Stop() error
	Close() error
}
