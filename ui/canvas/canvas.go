// Package canvas provides an image canvas with pan, zoom, and a shape overlay.
package canvas

import (
	"image"
	"image/color"
	"log/slog"
	"math"
	"sync"

	mapimage "imagemap/internal/image"
	"imagemap/internal/overlay"
	"imagemap/internal/render"
	"imagemap/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

const (
	DefaultMinZoom  = 0.1
	DefaultMaxZoom  = 10.0
	DefaultZoomStep = 1.25
)

// Background is painted behind the base image.
var Background = color.RGBA{A: 255}

// ImageCanvas displays a base image under a shape overlay. Dragging pans
// the view, the mouse wheel zooms around the pointer, and taps are hit
// tested against the overlay shapes.
//
// Overlay shapes live in view coordinates. Every view change is forwarded
// to the overlay as a scale or translate delta so shapes stay attached to
// the image.
type ImageCanvas struct {
	widget.BaseWidget

	overlay     *overlay.Controller[string]
	overlayOpts []overlay.Option[string]

	// frameMu serializes frames against view changes. Overlay draw, scale
	// and translate run under it, so a shape error handler must not call
	// back into the view methods.
	frameMu sync.Mutex
	layer   *mapimage.Layer
	view    geometry.AffineTransform

	minZoom, maxZoom, zoomStep float64

	// Display state
	raster     *fynecanvas.Raster
	content    *draggableContent
	lastOutput *image.RGBA

	// Callbacks
	onZoomChange func(zoom float64)
	onLeftClick  func(x, y float64) // Left click missing every shape, image coordinates
	onRightClick func(x, y float64) // Right click at image coordinates
}

// draggableContent wraps the raster to handle mouse events.
type draggableContent struct {
	widget.BaseWidget
	canvas *ImageCanvas
	raster *fynecanvas.Raster
}

func newDraggableContent(ic *ImageCanvas, raster *fynecanvas.Raster) *draggableContent {
	dc := &draggableContent{
		canvas: ic,
		raster: raster,
	}
	dc.ExtendBaseWidget(dc)
	return dc
}

func (dc *draggableContent) CreateRenderer() fyne.WidgetRenderer {
	return &draggableContentRenderer{content: dc}
}

func (dc *draggableContent) MinSize() fyne.Size {
	return dc.raster.MinSize()
}

// Dragged pans the view by the drag delta.
func (dc *draggableContent) Dragged(ev *fyne.DragEvent) {
	dc.canvas.Pan(float64(ev.Dragged.DX), float64(ev.Dragged.DY))
}

func (dc *draggableContent) DragEnd() {}

func (dc *draggableContent) Scrolled(ev *fyne.ScrollEvent) {
	// Use mouse wheel for zooming around the pointer
	x, y := float64(ev.Position.X), float64(ev.Position.Y)
	if ev.Scrolled.DY > 0 {
		dc.canvas.ZoomAt(dc.canvas.zoomStep, x, y)
	} else if ev.Scrolled.DY < 0 {
		dc.canvas.ZoomAt(1/dc.canvas.zoomStep, x, y)
	}
}

// Tapped handles left-click events.
func (dc *draggableContent) Tapped(ev *fyne.PointEvent) {
	if !dc.inside(ev.Position) {
		return
	}
	x, y := float64(ev.Position.X), float64(ev.Position.Y)
	if dc.canvas.overlay.Tap(x, y) {
		return
	}
	if dc.canvas.onLeftClick != nil {
		dc.canvas.onLeftClick(dc.canvas.ViewToImage(x, y))
	}
}

// TappedSecondary handles right-click events.
func (dc *draggableContent) TappedSecondary(ev *fyne.PointEvent) {
	if dc.canvas.onRightClick == nil || !dc.inside(ev.Position) {
		return
	}
	dc.canvas.onRightClick(dc.canvas.ViewToImage(float64(ev.Position.X), float64(ev.Position.Y)))
}

// inside rejects events reported outside the widget bounds.
func (dc *draggableContent) inside(pos fyne.Position) bool {
	size := dc.Size()
	return pos.X >= 0 && pos.Y >= 0 && pos.X <= size.Width && pos.Y <= size.Height
}

type draggableContentRenderer struct {
	content *draggableContent
}

func (r *draggableContentRenderer) Layout(size fyne.Size) {
	r.content.raster.Resize(size)
}

func (r *draggableContentRenderer) MinSize() fyne.Size {
	return r.content.raster.MinSize()
}

func (r *draggableContentRenderer) Refresh() {
	r.content.raster.Refresh()
}

func (r *draggableContentRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.content.raster}
}

func (r *draggableContentRenderer) Destroy() {}

// Option configures an ImageCanvas.
type Option func(*ImageCanvas)

// WithZoomLimits bounds the zoom level.
func WithZoomLimits(lo, hi float64) Option {
	return func(ic *ImageCanvas) {
		if lo > 0 && hi >= lo {
			ic.minZoom, ic.maxZoom = lo, hi
		}
	}
}

// WithZoomStep sets the factor applied per wheel notch and by ZoomIn/ZoomOut.
func WithZoomStep(step float64) Option {
	return func(ic *ImageCanvas) {
		if step > 1 {
			ic.zoomStep = step
		}
	}
}

// WithLogger sets the logger used for overlay shape failures.
func WithLogger(logger *slog.Logger) Option {
	return func(ic *ImageCanvas) {
		ic.overlayOpts = append(ic.overlayOpts, overlay.WithLogger[string](logger))
	}
}

// WithOverlayOptions passes extra options to the overlay controller.
func WithOverlayOptions(opts ...overlay.Option[string]) Option {
	return func(ic *ImageCanvas) {
		ic.overlayOpts = append(ic.overlayOpts, opts...)
	}
}

// NewImageCanvas creates a new image canvas.
func NewImageCanvas(opts ...Option) *ImageCanvas {
	ic := &ImageCanvas{
		view:     geometry.Identity(),
		minZoom:  DefaultMinZoom,
		maxZoom:  DefaultMaxZoom,
		zoomStep: DefaultZoomStep,
	}
	ic.overlayOpts = []overlay.Option[string]{
		overlay.WithInvalidator[string](ic.Refresh),
		overlay.WithBaseDrawer[string](ic.drawBase),
	}
	for _, opt := range opts {
		opt(ic)
	}
	ic.overlay = overlay.New(ic.overlayOpts...)
	ic.overlayOpts = nil

	// Create the raster for drawing
	ic.raster = fynecanvas.NewRaster(ic.draw)
	ic.raster.ScaleMode = fynecanvas.ImageScalePixels
	ic.raster.SetMinSize(fyne.NewSize(400, 300))

	// Wrap raster in draggable content for mouse events
	ic.content = newDraggableContent(ic, ic.raster)

	ic.ExtendBaseWidget(ic)
	return ic
}

// Overlay returns the shape overlay drawn over the image.
func (ic *ImageCanvas) Overlay() *overlay.Controller[string] {
	return ic.overlay
}

// SetLayer sets the base image layer.
func (ic *ImageCanvas) SetLayer(layer *mapimage.Layer) {
	ic.frameMu.Lock()
	ic.layer = layer
	ic.frameMu.Unlock()
	ic.Refresh()
}

// GetLayer returns the base image layer.
func (ic *ImageCanvas) GetLayer() *mapimage.Layer {
	ic.frameMu.Lock()
	defer ic.frameMu.Unlock()
	return ic.layer
}

// SetImage sets a single image to display (convenience method).
func (ic *ImageCanvas) SetImage(img image.Image) {
	if img == nil {
		ic.SetLayer(nil)
		return
	}
	ic.SetLayer(mapimage.FromImage(img))
}

// View returns the current image-to-view transform.
func (ic *ImageCanvas) View() geometry.AffineTransform {
	ic.frameMu.Lock()
	defer ic.frameMu.Unlock()
	return ic.view
}

// GetZoom returns the current zoom level.
func (ic *ImageCanvas) GetZoom() float64 {
	return ic.View().Zoom()
}

// ZoomAt multiplies the zoom by factor keeping view point (cx, cy) fixed.
// The factor is reduced so the zoom stays within the canvas limits.
func (ic *ImageCanvas) ZoomAt(factor, cx, cy float64) {
	ic.frameMu.Lock()
	zoom := ic.view.Zoom()
	if zoom == 0 {
		ic.frameMu.Unlock()
		return
	}
	target := zoom * factor
	if target < ic.minZoom {
		target = ic.minZoom
	}
	if target > ic.maxZoom {
		target = ic.maxZoom
	}
	factor = target / zoom
	if factor == 1 {
		ic.frameMu.Unlock()
		return
	}
	ic.view = ic.view.PostScale(factor, cx, cy)
	ic.overlay.Scale(factor, cx, cy)
	ic.frameMu.Unlock()

	ic.Refresh()
	if ic.onZoomChange != nil {
		ic.onZoomChange(target)
	}
}

// ZoomIn increases the zoom level.
func (ic *ImageCanvas) ZoomIn() {
	cx, cy := ic.center()
	ic.ZoomAt(ic.zoomStep, cx, cy)
}

// ZoomOut decreases the zoom level.
func (ic *ImageCanvas) ZoomOut() {
	cx, cy := ic.center()
	ic.ZoomAt(1/ic.zoomStep, cx, cy)
}

// Pan moves the view by (dx, dy) view units.
func (ic *ImageCanvas) Pan(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	ic.frameMu.Lock()
	ic.view = ic.view.PostTranslate(dx, dy)
	ic.overlay.Translate(dx, dy)
	ic.frameMu.Unlock()
	ic.Refresh()
}

// FitToWindow zooms and centers the image in the visible area.
func (ic *ImageCanvas) FitToWindow() {
	layer := ic.GetLayer()
	if layer == nil || layer.Width() == 0 || layer.Height() == 0 {
		return
	}
	size := ic.Size()
	if size.Width <= 0 || size.Height <= 0 {
		return
	}

	// Calculate zoom to fit both dimensions
	zoomX := float64(size.Width) / float64(layer.Width())
	zoomY := float64(size.Height) / float64(layer.Height())
	zoom := min(zoomX, zoomY) * 0.95 // Leave a small margin
	zoom = max(ic.minZoom, min(ic.maxZoom, zoom))

	tx := (float64(size.Width) - zoom*float64(layer.Width())) / 2
	ty := (float64(size.Height) - zoom*float64(layer.Height())) / 2
	ic.setView(geometry.AffineTransform{A: zoom, D: zoom, TX: tx, TY: ty})
}

// ResetView returns to the identity view.
func (ic *ImageCanvas) ResetView() {
	ic.setView(geometry.Identity())
}

// setView moves to target as one scale about the origin followed by one
// translation, forwarding both to the overlay. Views are always uniform
// scale plus translation.
func (ic *ImageCanvas) setView(target geometry.AffineTransform) {
	ic.frameMu.Lock()
	current := ic.view
	zoom := current.Zoom()
	if zoom == 0 {
		ic.frameMu.Unlock()
		return
	}
	factor := target.Zoom() / zoom
	if factor != 1 {
		ic.overlay.Scale(factor, 0, 0)
		current = current.PostScale(factor, 0, 0)
	}
	dx, dy := target.TX-current.TX, target.TY-current.TY
	ic.overlay.Translate(dx, dy)
	ic.view = current.PostTranslate(dx, dy)
	ic.frameMu.Unlock()

	ic.Refresh()
	if factor != 1 && ic.onZoomChange != nil {
		ic.onZoomChange(target.Zoom())
	}
}

func (ic *ImageCanvas) center() (float64, float64) {
	size := ic.Size()
	return float64(size.Width) / 2, float64(size.Height) / 2
}

// OnZoomChange sets a callback for zoom changes.
func (ic *ImageCanvas) OnZoomChange(callback func(zoom float64)) {
	ic.onZoomChange = callback
}

// OnLeftClick sets a callback for left clicks the overlay does not consume:
// misses while a shape click listener is set.
// Coordinates are in image space (not zoomed).
func (ic *ImageCanvas) OnLeftClick(callback func(x, y float64)) {
	ic.onLeftClick = callback
}

// OnRightClick sets a callback for right-click events.
// Coordinates are in image space (not zoomed).
func (ic *ImageCanvas) OnRightClick(callback func(x, y float64)) {
	ic.onRightClick = callback
}

// PixelAt returns the base image color under image point (x, y). It
// reports false when no image is loaded or the point is off the image.
func (ic *ImageCanvas) PixelAt(x, y float64) (color.Color, bool) {
	layer := ic.GetLayer()
	if layer == nil || layer.Image == nil {
		return nil, false
	}
	px, py := int(math.Floor(x)), int(math.Floor(y))
	if px < 0 || py < 0 || px >= layer.Width() || py >= layer.Height() {
		return nil, false
	}
	return layer.PixelAt(px, py), true
}

// GetRenderedOutput returns the last rendered canvas output for sampling.
func (ic *ImageCanvas) GetRenderedOutput() *image.RGBA {
	ic.frameMu.Lock()
	defer ic.frameMu.Unlock()
	return ic.lastOutput
}

// Refresh refreshes the canvas display.
func (ic *ImageCanvas) Refresh() {
	if ic.raster != nil {
		ic.raster.Refresh()
	}
}

// ImageToView converts image coordinates to view coordinates.
func (ic *ImageCanvas) ImageToView(imgX, imgY float64) (viewX, viewY float64) {
	p := ic.View().Apply(geometry.Pt(imgX, imgY))
	return p.X, p.Y
}

// ViewToImage converts view coordinates to image coordinates.
func (ic *ImageCanvas) ViewToImage(viewX, viewY float64) (imgX, imgY float64) {
	inv, ok := ic.View().Inverse()
	if !ok {
		return viewX, viewY
	}
	p := inv.Apply(geometry.Pt(viewX, viewY))
	return p.X, p.Y
}

// draw is the raster drawing function. The frame is rendered at the
// widget's size in view units and stretched to the raster's pixels.
func (ic *ImageCanvas) draw(w, h int) image.Image {
	if size := ic.Size(); size.Width >= 1 && size.Height >= 1 {
		w, h = int(size.Width), int(size.Height)
	}
	return ic.Render(w, h)
}

// Render paints a w x h frame of the base image and overlay.
func (ic *ImageCanvas) Render(w, h int) *image.RGBA {
	out := render.NewCanvas(w, h)
	out.Clear(Background)

	ic.frameMu.Lock()
	defer ic.frameMu.Unlock()
	ic.overlay.Draw(out)
	ic.lastOutput = out.Image()
	return ic.lastOutput
}

// drawBase composites the base layer. It runs inside Render with frameMu
// held.
func (ic *ImageCanvas) drawBase(s render.Surface) {
	if ic.layer.Drawable() != nil {
		return
	}
	if d, ok := s.(render.ImageDrawer); ok {
		d.DrawImage(ic.layer.Image, ic.view, ic.layer.Opacity)
	}
}

// CreateRenderer implements fyne.Widget.
func (ic *ImageCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &imageCanvasRenderer{canvas: ic}
}

type imageCanvasRenderer struct {
	canvas *ImageCanvas
}

func (r *imageCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.content.Resize(size)
}

func (r *imageCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *imageCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *imageCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.content}
}

func (r *imageCanvasRenderer) Destroy() {}
