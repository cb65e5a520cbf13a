package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"imagemap/internal/overlay"
	"imagemap/internal/shapes"
	"imagemap/pkg/geometry"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
)

func newTestCanvas(t *testing.T, opts ...Option) (*ImageCanvas, *shapes.Rect) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)

	ic := NewImageCanvas(opts...)
	ic.Resize(fyne.NewSize(200, 100))

	rect := shapes.NewRect("r", red, geometry.NewRect(10, 10, 20, 20))
	ic.Overlay().AddShape(rect)
	return ic, rect
}

func TestPanMovesViewAndShapes(t *testing.T) {
	ic, rect := newTestCanvas(t)

	ic.Pan(5, -5)
	assert.Equal(t, geometry.NewRect(15, 5, 20, 20), rect.Bounds())

	x, y := ic.ImageToView(10, 10)
	assert.Equal(t, 15.0, x)
	assert.Equal(t, 5.0, y)

	ic.Pan(0, 0)
	assert.Equal(t, geometry.NewRect(15, 5, 20, 20), rect.Bounds())
}

func TestZoomAtKeepsPointFixed(t *testing.T) {
	ic, rect := newTestCanvas(t)
	var zooms []float64
	ic.OnZoomChange(func(z float64) { zooms = append(zooms, z) })

	ic.ZoomAt(2, 10, 10)
	assert.Equal(t, geometry.NewRect(10, 10, 40, 40), rect.Bounds())
	assert.InDelta(t, 2.0, ic.GetZoom(), 1e-9)

	// Clamped to the max zoom: only a further 5x is applied.
	ic.ZoomAt(100, 10, 10)
	assert.InDelta(t, DefaultMaxZoom, ic.GetZoom(), 1e-9)
	assert.InDelta(t, 200.0, rect.Bounds().Width, 1e-9)

	// Already at the limit: nothing is forwarded.
	ic.ZoomAt(2, 10, 10)
	assert.InDelta(t, 200.0, rect.Bounds().Width, 1e-9)
	assert.Equal(t, []float64{2, DefaultMaxZoom}, zooms)
}

func TestScrollZoomsAroundPointer(t *testing.T) {
	ic, rect := newTestCanvas(t, WithZoomStep(2))

	ic.content.Scrolled(&fyne.ScrollEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(10, 10)},
		Scrolled:   fyne.Delta{DY: 1},
	})
	assert.Equal(t, geometry.NewRect(10, 10, 40, 40), rect.Bounds())

	ic.content.Scrolled(&fyne.ScrollEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(10, 10)},
		Scrolled:   fyne.Delta{DY: -1},
	})
	assert.Equal(t, geometry.NewRect(10, 10, 20, 20), rect.Bounds())
}

func TestDragPans(t *testing.T) {
	ic, rect := newTestCanvas(t)

	ic.content.Dragged(&fyne.DragEvent{Dragged: fyne.Delta{DX: 3, DY: 4}})
	ic.content.DragEnd()
	assert.Equal(t, geometry.NewRect(13, 14, 20, 20), rect.Bounds())
}

func TestTapHitsShapeOrFallsThrough(t *testing.T) {
	ic, _ := newTestCanvas(t)

	var clicked []string
	ic.Overlay().SetOnShapeClick(func(s overlay.Shape[string], x, y float64) {
		clicked = append(clicked, s.Tag())
	})
	var missed [][2]float64
	ic.OnLeftClick(func(x, y float64) { missed = append(missed, [2]float64{x, y}) })

	ic.content.Tapped(&fyne.PointEvent{Position: fyne.NewPos(15, 15)})
	assert.Equal(t, []string{"r"}, clicked)
	assert.Empty(t, missed)

	ic.ZoomAt(2, 0, 0)
	ic.content.Tapped(&fyne.PointEvent{Position: fyne.NewPos(100, 80)})
	assert.Equal(t, []string{"r"}, clicked)
	assert.Equal(t, [][2]float64{{50, 40}}, missed)

	// Outside the widget.
	ic.content.Tapped(&fyne.PointEvent{Position: fyne.NewPos(-1, 5)})
	assert.Len(t, missed, 1)
}

func TestTapWithoutListenerStaysInOverlay(t *testing.T) {
	ic, _ := newTestCanvas(t)

	var fallthroughs [][2]float64
	ic.OnLeftClick(func(x, y float64) { fallthroughs = append(fallthroughs, [2]float64{x, y}) })

	// No shape click listener: the overlay owns the tap, on or off a shape.
	ic.content.Tapped(&fyne.PointEvent{Position: fyne.NewPos(15, 15)})
	ic.content.Tapped(&fyne.PointEvent{Position: fyne.NewPos(100, 80)})
	assert.Empty(t, fallthroughs)
}

func TestRightClickReportsImagePoint(t *testing.T) {
	ic, _ := newTestCanvas(t)
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	img.Set(5, 6, green)
	ic.SetImage(img)
	ic.ZoomAt(2, 0, 0)

	var points [][2]float64
	ic.OnRightClick(func(x, y float64) { points = append(points, [2]float64{x, y}) })

	ic.content.TappedSecondary(&fyne.PointEvent{Position: fyne.NewPos(11, 13)})
	ic.content.TappedSecondary(&fyne.PointEvent{Position: fyne.NewPos(500, 5)})
	require.Equal(t, [][2]float64{{5.5, 6.5}}, points)

	c, ok := ic.PixelAt(points[0][0], points[0][1])
	require.True(t, ok)
	assert.Equal(t, color.RGBAModel.Convert(green), color.RGBAModel.Convert(c))

	_, ok = ic.PixelAt(40, 0)
	assert.False(t, ok)
	_, ok = ic.PixelAt(-0.5, 3)
	assert.False(t, ok)

	ic.SetImage(nil)
	_, ok = ic.PixelAt(1, 1)
	assert.False(t, ok)
}

func TestFitToWindowCentersImage(t *testing.T) {
	ic, rect := newTestCanvas(t)
	ic.SetImage(image.NewRGBA(image.Rect(0, 0, 100, 100)))

	ic.FitToWindow()
	view := ic.View()
	assert.InDelta(t, 0.95, view.Zoom(), 1e-9)
	assert.InDelta(t, (200-95)/2.0, view.TX, 1e-9)
	assert.InDelta(t, (100-95)/2.0, view.TY, 1e-9)

	// The rect was at image (10,10)-(30,30) under the identity view.
	want := geometry.RectFromCorners(view.Apply(geometry.Pt(10, 10)), view.Apply(geometry.Pt(30, 30)))
	got := rect.Bounds()
	assert.InDelta(t, want.X, got.X, 1e-9)
	assert.InDelta(t, want.Y, got.Y, 1e-9)
	assert.InDelta(t, want.Width, got.Width, 1e-9)

	ic.ResetView()
	got = rect.Bounds()
	assert.InDelta(t, 10.0, got.X, 1e-9)
	assert.InDelta(t, 20.0, got.Width, 1e-9)
}

func TestRenderDrawsBaseThenShapes(t *testing.T) {
	ic, _ := newTestCanvas(t)
	base := image.NewRGBA(image.Rect(0, 0, 50, 50))
	draw.Draw(base, base.Bounds(), image.NewUniform(green), image.Point{}, draw.Src)
	ic.SetImage(base)

	out := ic.Render(60, 60)
	require.NotNil(t, out)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, out.RGBAAt(15, 15))
	assert.Equal(t, green, out.RGBAAt(40, 40))
	assert.Equal(t, Background, out.RGBAAt(55, 55))
	assert.Same(t, out, ic.GetRenderedOutput())
}
