// Package render provides the drawing surface shapes paint onto.
package render

import (
	"image"
	"image/color"

	"imagemap/pkg/geometry"

	"gonum.org/v1/gonum/spatial/r2"
)

// Surface is the drawing target handed to shapes during a frame.
//
// Save pushes the current drawing state (clip and opacity) and Restore pops
// it. Calls to Restore without a matching Save are ignored.
type Surface interface {
	Save()
	Restore()

	// Bounds returns the full surface area in view pixels.
	Bounds() image.Rectangle
	// Clip narrows the drawable area to r for the current state.
	Clip(r image.Rectangle)
	// SetAlpha multiplies the opacity of the current state by a.
	SetAlpha(a float64)

	FillPath(path []r2.Vec, c color.Color)
	StrokePath(path []r2.Vec, closed bool, width float64, c color.Color)
	FillCircle(center r2.Vec, radius float64, c color.Color)
	Text(s string, at r2.Vec, c color.Color)
}

// ImageDrawer is implemented by surfaces that can composite raster images.
type ImageDrawer interface {
	DrawImage(src image.Image, view geometry.AffineTransform, opacity float64)
}
