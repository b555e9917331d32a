// SPDX-License-Identifier: MIT
// Package ui hosts the windowed front-end: an ebiten game loop that
// steps the frame driver once per display frame and blits the raster
// surface to the screen.
package ui

import (
	"context"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	applog "nebula/internal/log"
	"nebula/internal/viz"
)

// Pauser is the optional playback control wired to the space key. Live
// capture sources have nothing to pause and leave it nil.
type Pauser interface {
	TogglePause()
}

// Rewinder is implemented by file sources that can restart from the
// beginning. The R key rewinds the source along with the field reset.
type Rewinder interface {
	Rewind()
}

// App is the ebiten game driving the visualizer window.
type App struct {
	ctx    context.Context
	driver *viz.Driver
	raster *viz.Raster
	pauser Pauser

	w, h int
}

var _ ebiten.Game = (*App)(nil)

// NewApp builds the windowed front-end. pauser may be nil.
func NewApp(ctx context.Context, driver *viz.Driver, raster *viz.Raster, pauser Pauser) *App {
	w, h := raster.Size()
	return &App{
		ctx:    ctx,
		driver: driver,
		raster: raster,
		pauser: pauser,
		w:      w,
		h:      h,
	}
}

// Update handles input and advances one simulation frame.
func (a *App) Update() error {
	if a.ctx.Err() != nil {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if a.pauser != nil && inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		a.pauser.TogglePause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		a.driver.Reset()
		if rw, ok := a.pauser.(Rewinder); ok {
			rw.Rewind()
		}
	}

	a.driver.Step()
	return nil
}

// Draw blits the raster frame onto the screen.
func (a *App) Draw(screen *ebiten.Image) {
	screen.WritePixels(a.raster.Image().Pix)
}

// Layout tracks the window size, resizing the raster and the simulation
// projection when it changes. Rendering is 1:1 with device pixels.
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth < 1 {
		outsideWidth = 1
	}
	if outsideHeight < 1 {
		outsideHeight = 1
	}
	if outsideWidth != a.w || outsideHeight != a.h {
		a.w, a.h = outsideWidth, outsideHeight
		a.raster.Resize(a.w, a.h)
		a.driver.Resize(a.w, a.h)
		applog.Debugf("UI: Window resized to %dx%d", a.w, a.h)
	}
	return a.w, a.h
}

// Run opens the window and blocks until the game loop ends.
func (a *App) Run(title string) error {
	ebiten.SetWindowSize(a.w, a.h)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(a); err != nil {
		return fmt.Errorf("running window loop: %w", err)
	}
	return nil
}
