// Package shapes provides the stock overlay shapes: circles, rectangles,
// polygons, polylines and fixed-size dots.
//
// All geometry is kept in view coordinates and follows the view's zoom and
// pan through OnScale and OnTranslate.
package shapes

import (
	"image/color"

	"imagemap/internal/overlay"
	"imagemap/internal/render"
	"imagemap/pkg/colorutil"
	"imagemap/pkg/geometry"

	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultLabelColor is used for labels drawn outside a shape's fill when the
// shape has no label color.
var DefaultLabelColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// Shape is an overlay shape keyed by a string id.
type Shape interface {
	overlay.Shape[string]

	// Bounds returns the view-space bounding box.
	Bounds() geometry.Rect
}

// Base carries the fields every shape shares.
type Base struct {
	ID    string
	Color color.NRGBA
	Alpha float64 // Opacity multiplier, 0.0 - 1.0

	// StrokeWidth > 0 draws an outline of that width instead of a fill.
	StrokeWidth float64

	Label      string
	LabelColor color.NRGBA
}

// NewBase creates a fully opaque filled Base.
func NewBase(id string, c color.Color) Base {
	return Base{
		ID:    id,
		Color: color.NRGBAModel.Convert(c).(color.NRGBA),
		Alpha: 1,
	}
}

// Tag returns the shape id.
func (b *Base) Tag() string {
	return b.ID
}

// paint draws path with the shape's style and label.
func (b *Base) paint(s render.Surface, path []r2.Vec, closed bool) {
	s.Save()
	defer s.Restore()
	s.SetAlpha(b.Alpha)

	if b.StrokeWidth > 0 || !closed {
		width := b.StrokeWidth
		if width <= 0 {
			width = 1
		}
		s.StrokePath(path, closed, width, b.Color)
	} else {
		s.FillPath(path, b.Color)
	}
	b.drawLabel(s, geometry.BoundingBox(path).Center(), closed && b.StrokeWidth <= 0)
}

// drawLabel draws the label at at. Without a label color, labels drawn on
// the shape's own fill get a contrasting color.
func (b *Base) drawLabel(s render.Surface, at r2.Vec, onFill bool) {
	if b.Label == "" {
		return
	}
	c := b.LabelColor
	if c.A == 0 {
		c = DefaultLabelColor
		if onFill {
			c = colorutil.Contrast(b.Color)
		}
	}
	s.Text(b.Label, at, c)
}

func scalePoints(points []r2.Vec, factor, cx, cy float64) {
	center := geometry.Pt(cx, cy)
	for i, p := range points {
		points[i] = geometry.ScaleAbout(p, factor, center)
	}
}

func translatePoints(points []r2.Vec, dx, dy float64) {
	d := geometry.Pt(dx, dy)
	for i, p := range points {
		points[i] = r2.Add(p, d)
	}
}
