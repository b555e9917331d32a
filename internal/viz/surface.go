// SPDX-License-Identifier: MIT
package viz

import (
	"image"
	"image/color"
)

// Surface is the 2D drawing target the renderer paints onto. Capture and
// display collaborators read frames from it at their own rate; the core
// has no awareness of them beyond this interface.
type Surface interface {
	Size() (w, h int)
	Clear()
	FillCircle(cx, cy, r float64, col HSLA)
	FillGlow(cx, cy, r float64, col HSLA)
	FillRect(x, y, w, h float64, col HSLA)
}

// Raster is a CPU raster surface over an opaque image.RGBA. All drawing
// composites source-over against the stored pixels, so every frame is
// self-contained after Clear.
type Raster struct {
	img  *image.RGBA
	w, h int
}

var _ Surface = (*Raster)(nil)

// NewRaster creates a raster surface of the given pixel dimensions.
func NewRaster(w, h int) *Raster {
	r := &Raster{}
	r.Resize(w, h)
	return r
}

// Resize reallocates the backing image. Content is discarded; the next
// frame repaints everything anyway.
func (r *Raster) Resize(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	r.w, r.h = w, h
	r.img = image.NewRGBA(image.Rect(0, 0, w, h))
	r.Clear()
}

// Image exposes the backing image for display and capture collaborators.
func (r *Raster) Image() *image.RGBA {
	return r.img
}

// Size returns the surface dimensions in pixels.
func (r *Raster) Size() (int, int) {
	return r.w, r.h
}

// Clear fills the surface with opaque black. No motion trails: every
// frame starts from here.
func (r *Raster) Clear() {
	pix := r.img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = 0
		pix[i+1] = 0
		pix[i+2] = 0
		pix[i+3] = 255
	}
}

// blend composites src with the given alpha over the pixel at (x, y).
// The surface stays opaque, so only the color channels mix.
func (r *Raster) blend(x, y int, src color.RGBA, alpha float64) {
	if x < 0 || y < 0 || x >= r.w || y >= r.h || alpha <= 0 {
		return
	}
	if alpha > 1 {
		alpha = 1
	}
	i := r.img.PixOffset(x, y)
	pix := r.img.Pix
	inv := 1 - alpha
	pix[i] = uint8(float64(src.R)*alpha + float64(pix[i])*inv + 0.5)
	pix[i+1] = uint8(float64(src.G)*alpha + float64(pix[i+1])*inv + 0.5)
	pix[i+2] = uint8(float64(src.B)*alpha + float64(pix[i+2])*inv + 0.5)
	pix[i+3] = 255
}

// FillCircle draws a solid disc with the color's alpha.
func (r *Raster) FillCircle(cx, cy, radius float64, col HSLA) {
	if radius <= 0 {
		return
	}
	rgb, alpha := col.RGBA8()
	if alpha <= 0 {
		return
	}
	minX, maxX := int(cx-radius), int(cx+radius)+1
	minY, maxY := int(cy-radius), int(cy+radius)+1
	r2 := radius * radius
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			if dx*dx+dy*dy <= r2 {
				r.blend(x, y, rgb, alpha)
			}
		}
	}
}

// FillGlow draws a soft radial gradient from the color at the center to
// fully transparent at the rim. Falloff is quadratic, which reads as a
// light source rather than a flat disc.
func (r *Raster) FillGlow(cx, cy, radius float64, col HSLA) {
	if radius <= 0 {
		return
	}
	rgb, alpha := col.RGBA8()
	if alpha <= 0 {
		return
	}
	minX, maxX := int(cx-radius), int(cx+radius)+1
	minY, maxY := int(cy-radius), int(cy+radius)+1
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			d := dx*dx + dy*dy
			if d >= radius*radius {
				continue
			}
			t := 1 - (d / (radius * radius)) // 1 at center, 0 at rim
			r.blend(x, y, rgb, alpha*t*t)
		}
	}
}

// FillRect draws an axis-aligned filled rectangle.
func (r *Raster) FillRect(x, y, w, h float64, col HSLA) {
	if w <= 0 || h <= 0 {
		return
	}
	rgb, alpha := col.RGBA8()
	if alpha <= 0 {
		return
	}
	for py := int(y); py < int(y+h); py++ {
		for px := int(x); px < int(x+w); px++ {
			r.blend(px, py, rgb, alpha)
		}
	}
}
