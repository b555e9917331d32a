// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nebula/cmd"
	"nebula/internal/analysis"
	"nebula/internal/audio"
	"nebula/internal/config"
	applog "nebula/internal/log"
	"nebula/internal/transport"
	"nebula/internal/transport/udp"
	"nebula/internal/ui"
	"nebula/internal/viz"
	"nebula/pkg/bitint"
	"nebula/pkg/build"
)

// main is the entry point for the visualizer.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and load configuration
//   - Execute one-off commands if requested
//   - Construct the analysis chain, audio source and visualizer
//
// 2. Concurrent Phase (Hot Path):
//   - Start the audio source (capture callback or playback feed)
//   - Run the frame loop, windowed or headless
//   - Push energy frames to any enabled transports
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals and window close
//   - Stop recording if active
//   - Clean up sources, transports and PortAudio
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	build.Initialize()

	cfg, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatal(err)
	}
	if cfg == nil {
		return // --help or --version already handled
	}

	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}
	if cfg.Debug {
		applog.SetLevel(applog.LevelDebug)
	}

	// One-off commands run without the engine.
	if cfg.Command == "list" {
		if err := audio.Initialize(); err != nil {
			applog.Fatal(err)
		}
		defer audio.Terminate()
		if err := audio.ListDevices(); err != nil {
			applog.Fatal(err)
		}
		return
	}

	if err := run(cfg); err != nil {
		applog.Fatal(err)
	}
}

// run builds the pipeline from the configuration and drives it until
// shutdown.
func run(cfg *config.Config) error {
	fftSize := cfg.Audio.FramesPerBuffer
	if !bitint.IsPowerOfTwo(fftSize) {
		fftSize = bitint.NextPowerOfTwo(fftSize)
		applog.Warnf("Main: frames_per_buffer rounded up to %d for the FFT", fftSize)
		cfg.Audio.FramesPerBuffer = fftSize
	}

	windowFunc, err := analysis.ParseWindowFunc(cfg.Analysis.FFTWindow)
	if err != nil {
		return err
	}

	// File sources analyze at the file's own sample rate.
	var track *audio.Track
	sampleRate := cfg.Audio.SampleRate
	if cfg.Audio.InputFile != "" {
		track, err = audio.DecodeFile(cfg.Audio.InputFile)
		if err != nil {
			return fmt.Errorf("opening %s: %w", cfg.Audio.InputFile, err)
		}
		sampleRate = float64(track.SampleRate())
	}

	fftProcessor, err := analysis.NewFFTProcessor(fftSize, sampleRate, windowFunc, cfg.Analysis.SpectrumGain)
	if err != nil {
		return err
	}
	defer fftProcessor.Close()

	// ---- Audio source ----

	var (
		source audio.Source
		pauser ui.Pauser
		engine *audio.LiveEngine
		player *audio.FilePlayer
	)
	if track != nil {
		player, err = audio.NewFilePlayer(track, fftSize, cfg.Audio.GateThreshold, fftProcessor)
		if err != nil {
			return err
		}
		source = player
		pauser = player
	} else {
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer audio.Terminate()

		engine, err = audio.NewLiveEngine(cfg, fftProcessor)
		if err != nil {
			return err
		}
		source = engine
	}

	// ---- Transports ----

	var broadcast viz.Broadcaster
	if cfg.Server.WSEnabled {
		wst := transport.NewWebSocketTransport(cfg.Server.WSAddr)
		defer wst.Close()
		broadcast = wst
	} else if cfg.Debug {
		broadcast = transport.NewLoggingTransport()
	}

	if cfg.Server.StaticEnabled {
		static := transport.NewStaticServer(cfg.Server.StaticAddr, cfg.Server.StaticDir)
		defer static.Close()
	}

	// ---- Visualizer ----

	seed := cfg.Viz.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	params := viz.DefaultParams()
	params.Particles = cfg.Viz.Particles
	params.BaseRadius = cfg.Viz.BaseRadius
	params.MaxRadius = cfg.Viz.MaxRadius
	params.WanderRadius = cfg.Viz.WanderRadius
	params.Perspective = cfg.Viz.Perspective

	vis, err := viz.New(cfg.Viz.Style, params, rng)
	if err != nil {
		return err
	}

	raster := viz.NewRaster(cfg.Viz.Width, cfg.Viz.Height)
	sampler := analysis.NewBandSampler(fftProcessor)

	var calibrator *analysis.Calibrator
	if cfg.Analysis.Calibrate {
		calibrator = analysis.NewCalibrator(analysis.CalibratorParams{
			Multiplier:   cfg.Analysis.Multiplier,
			MinIntensity: cfg.Analysis.MinIntensity,
			AdaptRate:    cfg.Analysis.AdaptRate,
			Calibration:  time.Duration(cfg.Analysis.CalibrationMS) * time.Millisecond,
			FadeIn:       time.Duration(cfg.Analysis.FadeInMS) * time.Millisecond,
		})
	}

	driver := viz.NewDriver(sampler, calibrator, vis, raster, broadcast)

	if cfg.Server.UDPEnabled {
		sender, err := udp.NewSender(cfg.Server.UDPAddr)
		if err != nil {
			return err
		}
		publisher, err := udp.NewPublisher(cfg.Server.UDPInterval, sender, driver)
		if err != nil {
			sender.Close()
			return err
		}
		publisher.Start()
		defer func() {
			publisher.Close()
			sender.Close()
		}()
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		applog.Infof("Main: Shutdown signal received")
		cancel()
	}()

	if err := source.Start(); err != nil {
		return err
	}
	defer source.Close()

	if engine != nil && cfg.Audio.Record {
		if err := engine.StartRecording(cfg.Audio.RecordFile); err != nil {
			return err
		}
	}

	driver.Begin()

	// A finished track ends the session.
	if player != nil {
		go func() {
			select {
			case <-player.Done():
				applog.Infof("Main: Playback finished")
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	if cfg.Headless {
		driver.Run(ctx, 16*time.Millisecond)
	} else {
		app := ui.NewApp(ctx, driver, raster, pauser)
		if err := app.Run(build.GetBuildFlags().Name); err != nil {
			return err
		}
		driver.Release()
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if engine != nil && cfg.Audio.Record {
		if err := engine.StopRecording(); err != nil {
			applog.Errorf("Main: Error stopping recording: %v", err)
		}
	}

	return nil
}
