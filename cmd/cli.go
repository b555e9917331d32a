// SPDX-License-Identifier: MIT
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"nebula/internal/config"
	"nebula/pkg/build"
)

// ParseArgs parses the command line into a validated configuration.
// Precedence, lowest to highest: built-in defaults, config file,
// NEBULA_* environment variables, explicit flags.
func ParseArgs() (*config.Config, error) {
	buildInfo := build.GetBuildFlags()

	var (
		cfg        *config.Config
		configPath string
		flags      flagValues
	)

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadAndMerge(cmd, configPath, &flags)
			if err != nil {
				return err
			}
			cfg = c
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadAndMerge(cmd, configPath, &flags)
			if err != nil {
				return err
			}
			c.Command = "list"
			cfg = c
			return nil
		},
	}
	rootCmd.AddCommand(listCmd)

	pf := rootCmd.PersistentFlags()

	pf.StringVarP(&configPath, "config", "f", "",
		"Path to a YAML config file (default searches ./config.yaml)")

	// Audio source configuration
	pf.StringVarP(&flags.inputFile, "input", "i", "",
		"Play a WAV/MP3 file instead of capturing live input")
	pf.IntVarP(&flags.device, "device", "d", config.DefaultDeviceID,
		"Input device ID for live capture. Use 'list' to see available devices.")
	pf.IntVarP(&flags.channels, "channels", "c", config.DefaultChannels,
		"Number of channels to capture (1=mono, 2=stereo)")
	pf.Float64VarP(&flags.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Capture sample rate, measured in Hertz (Hz)")
	pf.IntVarP(&flags.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"Frames per analysis buffer; also the FFT size (power of 2)")
	pf.BoolVarP(&flags.lowLatency, "low-latency", "l", false,
		"Use low latency mode for live capture")

	// Recording configuration
	pf.BoolVarP(&flags.record, "record", "r", false,
		"Record live input to a WAV file while visualizing")
	pf.StringVarP(&flags.recordFile, "output", "o", "",
		"Recording file name. Default is nebula-YYYYMMDD-HHMMSS.wav")

	// Visualizer configuration
	pf.IntVarP(&flags.particles, "particles", "p", config.DefaultParticles,
		"Particle count for the field visualizer")
	pf.StringVar(&flags.style, "style", config.DefaultStyle,
		"Visualizer style: 'field' or 'bars'")
	pf.Int64Var(&flags.seed, "seed", 0,
		"Random seed for the particle field; 0 seeds from the clock")
	pf.BoolVar(&flags.headless, "headless", false,
		"Run without a window, driving frames from an internal ticker")

	// Server configuration
	pf.BoolVar(&flags.wsEnabled, "ws", false,
		"Broadcast band energies to WebSocket clients")

	// Debug configuration
	pf.BoolVarP(&flags.debug, "debug", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// flagValues holds flag targets so only flags the user actually set
// override the config file.
type flagValues struct {
	inputFile       string
	device          int
	channels        int
	sampleRate      float64
	framesPerBuffer int
	lowLatency      bool
	record          bool
	recordFile      string
	particles       int
	style           string
	seed            int64
	headless        bool
	wsEnabled       bool
	debug           bool
}

// loadAndMerge loads the config file and applies explicitly set flags.
func loadAndMerge(cmd *cobra.Command, configPath string, flags *flagValues) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	set := cmd.Flags().Changed

	if set("input") {
		cfg.Audio.InputFile = flags.inputFile
	}
	if set("device") {
		cfg.Audio.InputDevice = flags.device
	}
	if set("channels") {
		cfg.Audio.Channels = flags.channels
	}
	if set("sample-rate") {
		cfg.Audio.SampleRate = flags.sampleRate
	}
	if set("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = flags.framesPerBuffer
	}
	if set("low-latency") {
		cfg.Audio.LowLatency = flags.lowLatency
	}
	if set("record") {
		cfg.Audio.Record = flags.record
	}
	if set("output") {
		cfg.Audio.RecordFile = flags.recordFile
	}
	if set("particles") {
		cfg.Viz.Particles = flags.particles
	}
	if set("style") {
		cfg.Viz.Style = flags.style
	}
	if set("seed") {
		cfg.Viz.Seed = flags.seed
	}
	if set("ws") {
		cfg.Server.WSEnabled = flags.wsEnabled
	}
	if set("debug") {
		cfg.Debug = flags.debug
		if flags.debug {
			cfg.LogLevel = "debug"
		}
	}
	cfg.Headless = flags.headless

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
