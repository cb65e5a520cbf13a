package render

import (
	"image"
	"image/color"
	"math"

	"imagemap/pkg/geometry"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
	"gonum.org/v1/gonum/spatial/r2"
)

// state is one entry of the Save/Restore stack.
type state struct {
	clip  image.Rectangle
	alpha float64
}

// Canvas is a Surface backed by an RGBA image.
type Canvas struct {
	img   *image.RGBA
	cur   state
	stack []state
}

var _ Surface = (*Canvas)(nil)

// NewCanvas creates a canvas with a fresh w x h image.
func NewCanvas(w, h int) *Canvas {
	return NewCanvasFor(image.NewRGBA(image.Rect(0, 0, w, h)))
}

// NewCanvasFor creates a canvas drawing into an existing image.
func NewCanvasFor(img *image.RGBA) *Canvas {
	return &Canvas{
		img: img,
		cur: state{clip: img.Bounds(), alpha: 1},
	}
}

// Image returns the backing image.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Depth returns the number of saved states.
func (c *Canvas) Depth() int {
	return len(c.stack)
}

func (c *Canvas) Save() {
	c.stack = append(c.stack, c.cur)
}

func (c *Canvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.cur = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *Canvas) Bounds() image.Rectangle {
	return c.img.Bounds()
}

func (c *Canvas) Clip(r image.Rectangle) {
	c.cur.clip = c.cur.clip.Intersect(r)
}

func (c *Canvas) SetAlpha(a float64) {
	c.cur.alpha *= math.Max(0, math.Min(1, a))
}

// Clear fills the whole image with col, ignoring clip and opacity.
func (c *Canvas) Clear(col color.Color) {
	xdraw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, xdraw.Src)
}

// DrawImage composites src through view, which maps source pixels to
// canvas pixels, at the given opacity.
func (c *Canvas) DrawImage(src image.Image, view geometry.AffineTransform, opacity float64) {
	if src == nil || c.cur.clip.Empty() {
		return
	}
	alpha := c.cur.alpha * math.Max(0, math.Min(1, opacity))
	if alpha <= 0 {
		return
	}

	dst := c.img.SubImage(c.cur.clip).(*image.RGBA)
	m := f64.Aff3{view.A, view.B, view.TX, view.C, view.D, view.TY}
	var opts *xdraw.Options
	if alpha < 1 {
		opts = &xdraw.Options{SrcMask: image.NewUniform(color.Alpha{A: uint8(alpha*255 + 0.5)})}
	}
	xdraw.NearestNeighbor.Transform(dst, m, src, src.Bounds(), xdraw.Over, opts)
}

func (c *Canvas) FillPath(path []r2.Vec, col color.Color) {
	if len(path) < 3 {
		return
	}
	c.rasterize(col, func(z *vector.Rasterizer, off r2.Vec) {
		addPolygon(z, path, off)
	})
}

func (c *Canvas) StrokePath(path []r2.Vec, closed bool, width float64, col color.Color) {
	if len(path) < 2 || width <= 0 {
		return
	}
	half := width / 2
	c.rasterize(col, func(z *vector.Rasterizer, off r2.Vec) {
		n := len(path) - 1
		if closed {
			n = len(path)
		}
		for i := 0; i < n; i++ {
			a, b := path[i], path[(i+1)%len(path)]
			d := r2.Sub(b, a)
			l := r2.Norm(d)
			if l == 0 {
				continue
			}
			nrm := r2.Scale(half/l, r2.Vec{X: -d.Y, Y: d.X})
			addPolygon(z, []r2.Vec{r2.Sub(a, nrm), r2.Sub(b, nrm), r2.Add(b, nrm), r2.Add(a, nrm)}, off)
		}
		// Round joins. Same winding as the segment quads so coverage adds up.
		if half >= 1 {
			for _, p := range path {
				addPolygon(z, geometry.CirclePoints(p, half, circleSegments(half)), off)
			}
		}
	})
}

func (c *Canvas) FillCircle(center r2.Vec, radius float64, col color.Color) {
	if radius <= 0 {
		return
	}
	c.FillPath(geometry.CirclePoints(center, radius, circleSegments(radius)), col)
}

// Text draws s centered on at using a fixed 7x13 face.
func (c *Canvas) Text(s string, at r2.Vec, col color.Color) {
	if s == "" || c.cur.clip.Empty() {
		return
	}
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  c.img.SubImage(c.cur.clip).(*image.RGBA),
		Src:  image.NewUniform(c.applyAlpha(col)),
		Face: face,
	}
	w := d.MeasureString(s).Ceil()
	d.Dot = fixed.P(int(math.Round(at.X))-w/2, int(math.Round(at.Y))+face.Ascent/2)
	d.DrawString(s)
}

// rasterize runs build against a rasterizer sized to the current clip and
// composites the result with col.
func (c *Canvas) rasterize(col color.Color, build func(z *vector.Rasterizer, off r2.Vec)) {
	clip := c.cur.clip
	if clip.Empty() {
		return
	}
	z := vector.NewRasterizer(clip.Dx(), clip.Dy())
	z.DrawOp = xdraw.Over
	build(z, r2.Vec{X: float64(clip.Min.X), Y: float64(clip.Min.Y)})
	z.Draw(c.img, clip, image.NewUniform(c.applyAlpha(col)), image.Point{})
}

func (c *Canvas) applyAlpha(col color.Color) color.NRGBA {
	n := color.NRGBAModel.Convert(col).(color.NRGBA)
	n.A = uint8(float64(n.A)*c.cur.alpha + 0.5)
	return n
}

func addPolygon(z *vector.Rasterizer, path []r2.Vec, off r2.Vec) {
	p := r2.Sub(path[0], off)
	z.MoveTo(float32(p.X), float32(p.Y))
	for _, q := range path[1:] {
		q = r2.Sub(q, off)
		z.LineTo(float32(q.X), float32(q.Y))
	}
	z.ClosePath()
}

func circleSegments(radius float64) int {
	n := int(radius * 2)
	if n < 16 {
		return 16
	}
	if n > 256 {
		return 256
	}
	return n
}
