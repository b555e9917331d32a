// SPDX-License-Identifier: MIT
package viz

import (
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// HSLA carries color as an explicit hue/saturation/lightness/alpha tuple
// so alpha composition stays exact and testable. Hue is in degrees and
// wraps; the other channels clamp to [0,1].
type HSLA struct {
	H float64 // Hue in degrees, wrapped into [0,360).
	S float64 // Saturation in [0,1].
	L float64 // Lightness in [0,1].
	A float64 // Alpha in [0,1].
}

// Clamp returns the color with hue wrapped and channels clamped.
func (c HSLA) Clamp() HSLA {
	h := math.Mod(c.H, 360)
	if h < 0 {
		h += 360
	}
	return HSLA{H: h, S: clamp01(c.S), L: clamp01(c.L), A: clamp01(c.A)}
}

// WithAlpha returns the color with its alpha replaced.
func (c HSLA) WithAlpha(a float64) HSLA {
	c.A = a
	return c
}

// Lighten returns the color with lightness raised by d, clamped.
func (c HSLA) Lighten(d float64) HSLA {
	c.L = clamp01(c.L + d)
	return c
}

// RGBA8 converts to 8-bit RGB; alpha is returned separately in [0,1]
// because the raster surface composites it over an opaque background.
func (c HSLA) RGBA8() (rgb color.RGBA, alpha float64) {
	cc := c.Clamp()
	r, g, b := colorful.Hsl(cc.H, cc.S, cc.L).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, cc.A
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
