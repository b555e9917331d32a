// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values and limits for the engine configuration.
const (
	DefaultSampleRate      = 44100
	DefaultFramesPerBuffer = 1024
	DefaultDeviceID        = MinDeviceID
	DefaultChannels        = 2
	DefaultParticles       = 300
	DefaultStyle           = "field"

	MinDeviceID     = -1     // -1 represents the system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer (power of 2)
	MaxParticles    = 20000
)

// Config is the main application configuration, loaded from YAML with
// environment overrides. CLI flags are applied on top by cmd.
type Config struct {
	Debug    bool           `yaml:"debug"`     // Verbose logging and debug features.
	LogLevel string         `yaml:"log_level"` // "debug", "info", "warn", "error".
	Audio    AudioConfig    `yaml:"audio"`     // Input and playback settings.
	Analysis AnalysisConfig `yaml:"analysis"`  // FFT and calibration settings.
	Viz      VizConfig      `yaml:"viz"`       // Particle field settings.
	Server   ServerConfig   `yaml:"server"`    // Network transports.

	// Runtime-only fields populated by the CLI, never from YAML.
	Command  string `yaml:"-"` // One-off command ("list") instead of running the visualizer.
	Headless bool   `yaml:"-"` // Run without a window, driving frames from a ticker.
}

// AudioConfig holds settings for the audio source feeding the analyzer.
type AudioConfig struct {
	InputFile       string  `yaml:"input_file"`        // Path to a WAV/MP3 file; empty means live capture.
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index for live capture (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Capture sample rate in Hz (file sources use the file's own rate).
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per analysis buffer; also the FFT size.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency settings from the capture device.
	Channels        int     `yaml:"channels"`          // Input channels to capture.
	GateThreshold   float64 `yaml:"gate_threshold"`    // Noise gate threshold in [0,1]; 0 disables.
	Record          bool    `yaml:"record"`            // Record live input to a WAV file while visualizing.
	RecordFile      string  `yaml:"record_file"`       // Output path for recordings; empty auto-generates one.
}

// AnalysisConfig holds FFT and band calibration settings.
type AnalysisConfig struct {
	FFTWindow     string  `yaml:"fft_window"`     // Window function name ("Hann", "Hamming", ...).
	SpectrumGain  float64 `yaml:"spectrum_gain"`  // Gain applied when normalizing magnitudes into [0,1].
	Calibrate     bool    `yaml:"calibrate"`      // Enable adaptive peak/valley normalization.
	Multiplier    float64 `yaml:"multiplier"`     // Re-amplification applied after normalization.
	MinIntensity  float64 `yaml:"min_intensity"`  // Floor returned for degenerate or near-silent ranges.
	AdaptRate     float64 `yaml:"adapt_rate"`     // Rolling peak/valley adaptation rate per frame.
	CalibrationMS int     `yaml:"calibration_ms"` // Fixed amplification window at session start.
	FadeInMS      int     `yaml:"fade_in_ms"`     // Linear fade-in ramp at session start.
}

// VizConfig holds the particle field parameters exposed to users.
type VizConfig struct {
	Style        string  `yaml:"style"`         // Visualizer variant: "field" or "bars".
	Particles    int     `yaml:"particles"`     // Particle count, fixed for the simulation lifetime.
	Width        int     `yaml:"width"`         // Initial surface width in pixels.
	Height       int     `yaml:"height"`        // Initial surface height in pixels.
	BaseRadius   float64 `yaml:"base_radius"`   // Rest sphere radius in scene units.
	MaxRadius    float64 `yaml:"max_radius"`    // Radius reached under full bass energy.
	WanderRadius float64 `yaml:"wander_radius"` // Maximum wander amplitude at zero energy.
	Perspective  float64 `yaml:"perspective"`   // Perspective constant P in scale = P/(P+z).
	Seed         int64   `yaml:"seed"`          // Random seed; 0 seeds from the clock.
}

// ServerConfig holds settings for pushing energy frames to clients and
// for hosting static visualizer assets.
type ServerConfig struct {
	WSEnabled     bool          `yaml:"ws_enabled"`      // Broadcast band energies over WebSocket.
	WSAddr        string        `yaml:"ws_addr"`         // WebSocket listen address, e.g. ":8080".
	StaticEnabled bool          `yaml:"static_enabled"`  // Host a static asset directory.
	StaticAddr    string        `yaml:"static_addr"`     // Static host listen address.
	StaticDir     string        `yaml:"static_dir"`      // Directory served by the static host.
	UDPEnabled    bool          `yaml:"udp_enabled"`     // Publish binary energy packets over UDP.
	UDPAddr       string        `yaml:"udp_target_addr"` // UDP target address, e.g. "127.0.0.1:9090".
	UDPInterval   time.Duration `yaml:"udp_interval"`    // Interval between UDP packets.
}

// Defaults returns a Config populated with built-in defaults.
func Defaults() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputFile:       "",
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      false,
			Channels:        DefaultChannels,
			GateThreshold:   0.001,
			Record:          false,
			RecordFile:      "",
		},
		Analysis: AnalysisConfig{
			FFTWindow:     "Hann",
			SpectrumGain:  2.5,
			Calibrate:     true,
			Multiplier:    1.6,
			MinIntensity:  0.05,
			AdaptRate:     0.01,
			CalibrationMS: 2000,
			FadeInMS:      800,
		},
		Viz: VizConfig{
			Style:        DefaultStyle,
			Particles:    DefaultParticles,
			Width:        960,
			Height:       720,
			BaseRadius:   160,
			MaxRadius:    290,
			WanderRadius: 200,
			Perspective:  800,
			Seed:         0,
		},
		Server: ServerConfig{
			WSEnabled:     false,
			WSAddr:        ":8080",
			StaticEnabled: false,
			StaticAddr:    ":8000",
			StaticDir:     "./web",
			UDPEnabled:    false,
			UDPAddr:       "127.0.0.1:9090",
			UDPInterval:   16 * time.Millisecond, // ~60Hz
		},
	}
}

// LoadConfig loads configuration from a YAML file at path. If path is
// empty it searches default locations ("config.yaml") and falls back to
// built-in defaults when no file is found. Environment overrides apply
// after loading, followed by validation.
func LoadConfig(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		candidates := []string{"config.yaml"}
		found := false
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				found = true
				break
			}
		}
		if !found {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f outside [%d, %d]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.FramesPerBuffer <= 0 || c.Audio.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("audio.frames_per_buffer %d outside (0, %d]", c.Audio.FramesPerBuffer, MaxBufferFrames)
	}
	if c.Audio.GateThreshold < 0 || c.Audio.GateThreshold > 1 {
		return fmt.Errorf("audio.gate_threshold %.3f outside [0, 1]", c.Audio.GateThreshold)
	}
	if c.Viz.Particles <= 0 || c.Viz.Particles > MaxParticles {
		return fmt.Errorf("viz.particles %d outside (0, %d]", c.Viz.Particles, MaxParticles)
	}
	if c.Viz.Width <= 0 || c.Viz.Height <= 0 {
		return fmt.Errorf("viz dimensions %dx%d must be positive", c.Viz.Width, c.Viz.Height)
	}
	if c.Viz.Perspective <= 0 {
		return fmt.Errorf("viz.perspective %.1f must be positive", c.Viz.Perspective)
	}
	if c.Viz.MaxRadius < c.Viz.BaseRadius {
		return fmt.Errorf("viz.max_radius %.1f below viz.base_radius %.1f", c.Viz.MaxRadius, c.Viz.BaseRadius)
	}
	if c.Analysis.Multiplier <= 0 {
		return fmt.Errorf("analysis.multiplier %.2f must be positive", c.Analysis.Multiplier)
	}
	if c.Server.UDPEnabled && c.Server.UDPInterval <= 0 {
		return fmt.Errorf("server.udp_interval must be positive when UDP is enabled")
	}
	return nil
}

// applyEnvOverrides applies NEBULA_* environment variables on top of the
// loaded configuration.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("NEBULA_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Debug = bVal
		}
	}
	if val, ok := os.LookupEnv("NEBULA_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("NEBULA_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Server.WSEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("NEBULA_WS_ADDR"); ok {
		c.Server.WSAddr = val
	}
	if val, ok := os.LookupEnv("NEBULA_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Server.UDPEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("NEBULA_UDP_TARGET_ADDRESS"); ok {
		c.Server.UDPAddr = val
	}
	if val, ok := os.LookupEnv("NEBULA_UDP_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Server.UDPInterval = dur
		}
	}
}
