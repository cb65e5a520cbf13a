package shapes

import (
	"image/color"
	"math"
	"slices"

	"imagemap/internal/render"
	"imagemap/pkg/geometry"

	"gonum.org/v1/gonum/spatial/r2"
)

// Rect is an axis-aligned rectangle given by two opposite corners.
type Rect struct {
	Base
	Min, Max r2.Vec
}

var _ Shape = (*Rect)(nil)

// NewRect creates a filled rectangle covering r.
func NewRect(id string, c color.Color, r geometry.Rect) *Rect {
	return &Rect{Base: NewBase(id, c), Min: r.TopLeft(), Max: r.BottomRight()}
}

func (r *Rect) Draw(s render.Surface) {
	r.paint(s, r.Bounds().Corners(), true)
}

func (r *Rect) HitTest(x, y float64) bool {
	return r.Bounds().Contains(geometry.Pt(x, y))
}

func (r *Rect) OnScale(factor, cx, cy float64) {
	center := geometry.Pt(cx, cy)
	r.Min = geometry.ScaleAbout(r.Min, factor, center)
	r.Max = geometry.ScaleAbout(r.Max, factor, center)
}

func (r *Rect) OnTranslate(dx, dy float64) {
	d := geometry.Pt(dx, dy)
	r.Min = r2.Add(r.Min, d)
	r.Max = r2.Add(r.Max, d)
}

func (r *Rect) Bounds() geometry.Rect {
	return geometry.RectFromCorners(r.Min, r.Max)
}

// Polygon is a closed, possibly concave, polygon.
type Polygon struct {
	Base
	Points []r2.Vec
}

var _ Shape = (*Polygon)(nil)

// NewPolygon creates a filled polygon. The points are copied.
func NewPolygon(id string, c color.Color, points []r2.Vec) *Polygon {
	return &Polygon{Base: NewBase(id, c), Points: slices.Clone(points)}
}

func (p *Polygon) Draw(s render.Surface) {
	if len(p.Points) < 3 {
		return
	}
	p.paint(s, p.Points, true)
}

func (p *Polygon) HitTest(x, y float64) bool {
	return geometry.PointInPolygon(geometry.Pt(x, y), p.Points)
}

func (p *Polygon) OnScale(factor, cx, cy float64) {
	scalePoints(p.Points, factor, cx, cy)
}

func (p *Polygon) OnTranslate(dx, dy float64) {
	translatePoints(p.Points, dx, dy)
}

func (p *Polygon) Bounds() geometry.Rect {
	return geometry.BoundingBox(p.Points)
}

// Polyline is an open path. It is hit within Tolerance view pixels of any
// segment, or half the stroke width if that is larger.
type Polyline struct {
	Base
	Points    []r2.Vec
	Tolerance float64
}

var _ Shape = (*Polyline)(nil)

// DefaultPolylineTolerance is the hit distance for a NewPolyline.
const DefaultPolylineTolerance = 3.0

// NewPolyline creates a 2px polyline. The points are copied.
func NewPolyline(id string, c color.Color, points []r2.Vec) *Polyline {
	pl := &Polyline{Base: NewBase(id, c), Points: slices.Clone(points), Tolerance: DefaultPolylineTolerance}
	pl.StrokeWidth = 2
	return pl
}

func (p *Polyline) Draw(s render.Surface) {
	if len(p.Points) < 2 {
		return
	}
	p.paint(s, p.Points, false)
}

func (p *Polyline) HitTest(x, y float64) bool {
	tol := math.Max(p.Tolerance, p.StrokeWidth/2)
	return geometry.PointNearPolyline(geometry.Pt(x, y), p.Points, tol)
}

func (p *Polyline) OnScale(factor, cx, cy float64) {
	scalePoints(p.Points, factor, cx, cy)
}

func (p *Polyline) OnTranslate(dx, dy float64) {
	translatePoints(p.Points, dx, dy)
}

func (p *Polyline) Bounds() geometry.Rect {
	return geometry.BoundingBox(p.Points)
}
