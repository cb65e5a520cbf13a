// Package colorutil provides shared color utilities for overlay drawing.
package colorutil

import (
	"image/color"
	"math"
)

// Label colors.
var (
	Black = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	White = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// Luminance returns the relative luminance of c in [0, 1], ignoring alpha.
func Luminance(c color.Color) float64 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return 0.2126*linear(n.R) + 0.7152*linear(n.G) + 0.0722*linear(n.B)
}

// linear converts an sRGB channel to linear light.
func linear(v uint8) float64 {
	f := float64(v) / 255
	if f <= 0.04045 {
		return f / 12.92
	}
	return math.Pow((f+0.055)/1.055, 2.4)
}

// Contrast returns Black or White, whichever reads better on c.
func Contrast(c color.Color) color.NRGBA {
	// 0.179 is where black and white text have equal contrast ratio.
	if Luminance(c) > 0.179 {
		return Black
	}
	return White
}
