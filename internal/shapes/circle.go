package shapes

import (
	"image/color"
	"math"

	"imagemap/internal/render"
	"imagemap/pkg/geometry"

	"gonum.org/v1/gonum/spatial/r2"
)

// Circle is a disc whose radius grows and shrinks with the view.
type Circle struct {
	Base
	Center r2.Vec
	Radius float64
}

var _ Shape = (*Circle)(nil)

// NewCircle creates a filled circle.
func NewCircle(id string, c color.Color, center r2.Vec, radius float64) *Circle {
	return &Circle{Base: NewBase(id, c), Center: center, Radius: radius}
}

func (c *Circle) Draw(s render.Surface) {
	if c.StrokeWidth > 0 {
		c.paint(s, geometry.CirclePoints(c.Center, c.Radius, 64), true)
		return
	}
	s.Save()
	defer s.Restore()
	s.SetAlpha(c.Alpha)
	s.FillCircle(c.Center, c.Radius, c.Color)
	c.drawLabel(s, c.Center, true)
}

func (c *Circle) HitTest(x, y float64) bool {
	return r2.Norm(r2.Sub(geometry.Pt(x, y), c.Center)) <= c.Radius
}

func (c *Circle) OnScale(factor, cx, cy float64) {
	c.Center = geometry.ScaleAbout(c.Center, factor, geometry.Pt(cx, cy))
	c.Radius *= math.Abs(factor)
}

func (c *Circle) OnTranslate(dx, dy float64) {
	c.Center = r2.Add(c.Center, geometry.Pt(dx, dy))
}

func (c *Circle) Bounds() geometry.Rect {
	return geometry.NewRect(c.Center.X-c.Radius, c.Center.Y-c.Radius, 2*c.Radius, 2*c.Radius)
}

// Dot is a marker pinned to an image point. Its position follows the view
// but its radius stays fixed in view pixels.
type Dot struct {
	Base
	Center r2.Vec
	Radius float64
}

var _ Shape = (*Dot)(nil)

// DefaultDotRadius is the radius used when NewDot is given a radius <= 0.
const DefaultDotRadius = 6.0

// NewDot creates a dot marker.
func NewDot(id string, c color.Color, center r2.Vec, radius float64) *Dot {
	if radius <= 0 {
		radius = DefaultDotRadius
	}
	return &Dot{Base: NewBase(id, c), Center: center, Radius: radius}
}

func (d *Dot) Draw(s render.Surface) {
	s.Save()
	defer s.Restore()
	s.SetAlpha(d.Alpha)
	s.FillCircle(d.Center, d.Radius, d.Color)
	if d.Label != "" {
		d.drawLabel(s, r2.Add(d.Center, geometry.Pt(0, -d.Radius-8)), false)
	}
}

func (d *Dot) HitTest(x, y float64) bool {
	return r2.Norm(r2.Sub(geometry.Pt(x, y), d.Center)) <= d.Radius
}

func (d *Dot) OnScale(factor, cx, cy float64) {
	d.Center = geometry.ScaleAbout(d.Center, factor, geometry.Pt(cx, cy))
}

func (d *Dot) OnTranslate(dx, dy float64) {
	d.Center = r2.Add(d.Center, geometry.Pt(dx, dy))
}

func (d *Dot) Bounds() geometry.Rect {
	return geometry.NewRect(d.Center.X-d.Radius, d.Center.Y-d.Radius, 2*d.Radius, 2*d.Radius)
}
