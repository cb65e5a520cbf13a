package overlay

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"imagemap/internal/render"
)

// Controller composes a Registry with a host view. The host forwards its
// draw, scale, translate and tap events; the controller fans them out to
// the registered shapes.
//
// Membership changes and events may come from different goroutines: every
// event iterates a snapshot of the registry and runs shape and listener
// code with no lock held, so a click listener may add or remove shapes.
type Controller[T comparable] struct {
	shapes *Registry[T]
	logger *slog.Logger
	base   func(render.Surface)

	// Hit the shape painted last instead of the first one registered.
	topmost bool

	mu       sync.RWMutex
	onClick  ClickFunc[T]
	onError  func(error)
	drawHook func(render.Surface)
}

// Option configures a Controller.
type Option[T comparable] func(*Controller[T])

// WithInvalidator sets the function used to ask the host for a redraw.
func WithInvalidator[T comparable](invalidate func()) Option[T] {
	return func(c *Controller[T]) {
		c.shapes.invalidate = invalidate
	}
}

// WithBaseDrawer sets the host's own drawing, run before any shape.
func WithBaseDrawer[T comparable](base func(render.Surface)) Option[T] {
	return func(c *Controller[T]) {
		c.base = base
	}
}

// WithDrawHook sets the hook run after the shapes, inside the same
// saved drawing state.
func WithDrawHook[T comparable](hook func(render.Surface)) Option[T] {
	return func(c *Controller[T]) {
		c.drawHook = hook
	}
}

// WithLogger sets the logger used to report failing shapes.
func WithLogger[T comparable](logger *slog.Logger) Option[T] {
	return func(c *Controller[T]) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTopmostHit makes taps resolve to the last-painted shape under the
// point rather than the first registered one.
func WithTopmostHit[T comparable]() Option[T] {
	return func(c *Controller[T]) {
		c.topmost = true
	}
}

// New creates a controller with an empty registry.
func New[T comparable](opts ...Option[T]) *Controller[T] {
	c := &Controller[T]{
		shapes: NewRegistry[T](nil),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Extension[string] = (*Controller[string])(nil)

// AddShape registers shape, replacing any shape with the same tag.
func (c *Controller[T]) AddShape(shape Shape[T]) {
	c.shapes.Add(shape)
}

// AddShapes registers shapes in order with a single redraw request.
func (c *Controller[T]) AddShapes(shapes []Shape[T]) {
	c.shapes.AddAll(shapes)
}

// RemoveShape removes the shape with the given tag, if any.
func (c *Controller[T]) RemoveShape(tag T) {
	c.shapes.Remove(tag)
}

// ClearShapes removes every shape.
func (c *Controller[T]) ClearShapes() {
	c.shapes.Clear()
}

// Shape returns the shape registered under tag.
func (c *Controller[T]) Shape(tag T) (Shape[T], bool) {
	return c.shapes.Get(tag)
}

// Shapes returns a copy of the registered shapes in paint order.
func (c *Controller[T]) Shapes() []Shape[T] {
	return c.shapes.Snapshot()
}

// Len returns the number of registered shapes.
func (c *Controller[T]) Len() int {
	return c.shapes.Len()
}

// SetOnShapeClick replaces the click listener. A nil listener disables
// hit testing on tap; taps are then consumed with no effect.
func (c *Controller[T]) SetOnShapeClick(fn ClickFunc[T]) {
	c.mu.Lock()
	c.onClick = fn
	c.mu.Unlock()
}

// SetOnShapeError replaces the handler told about failing shapes.
func (c *Controller[T]) SetOnShapeError(fn func(error)) {
	c.mu.Lock()
	c.onError = fn
	c.mu.Unlock()
}

// SetDrawHook replaces the hook run after the shapes are drawn.
func (c *Controller[T]) SetDrawHook(hook func(render.Surface)) {
	c.mu.Lock()
	c.drawHook = hook
	c.mu.Unlock()
}

// Draw paints one frame: the host's base drawing, then every shape in
// registry order, then the draw hook. Shapes and hook share one saved
// drawing state.
func (c *Controller[T]) Draw(s render.Surface) {
	if c.base != nil {
		c.base(s)
	}

	c.mu.RLock()
	hook := c.drawHook
	c.mu.RUnlock()

	s.Save()
	defer s.Restore()

	for _, shape := range c.shapes.Snapshot() {
		c.guard(shape, OpDraw, func() {
			shape.Draw(s)
		})
	}
	if hook != nil {
		hook(s)
	}
}

// Tap resolves a tap at view point (x, y). At most one shape is reported
// to the click listener. Tap returns whether the tap was consumed: true
// when a shape was hit, and also true with no listener set, where the
// controller swallows the tap without hit testing. Hosts pass a tap on to
// their own handling only when Tap returns false.
func (c *Controller[T]) Tap(x, y float64) bool {
	c.mu.RLock()
	onClick := c.onClick
	c.mu.RUnlock()
	if onClick == nil {
		return true
	}

	shapes := c.shapes.Snapshot()
	if c.topmost {
		slices.Reverse(shapes)
	}
	for _, shape := range shapes {
		var hit bool
		c.guard(shape, OpHitTest, func() {
			hit = shape.HitTest(x, y)
		})
		if hit {
			onClick(shape, x, y)
			return true
		}
	}
	return false
}

// Scale forwards a view zoom by factor around (centerX, centerY) to every
// shape. A factor of exactly zero is ignored.
func (c *Controller[T]) Scale(factor, centerX, centerY float64) {
	if factor == 0 {
		return
	}
	for _, shape := range c.shapes.Snapshot() {
		c.guard(shape, OpScale, func() {
			shape.OnScale(factor, centerX, centerY)
		})
	}
}

// Translate forwards a view pan by (dx, dy) to every shape. A delta of
// exactly zero on both axes is ignored.
func (c *Controller[T]) Translate(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	for _, shape := range c.shapes.Snapshot() {
		c.guard(shape, OpTranslate, func() {
			shape.OnTranslate(dx, dy)
		})
	}
}

// guard runs fn and turns a panic into a reported ShapeError.
func (c *Controller[T]) guard(shape Shape[T], op Op, fn func()) {
	defer func() {
		if v := recover(); v != nil {
			c.report(&ShapeError[T]{Tag: shape.Tag(), Op: op, Err: panicError(v)})
		}
	}()
	fn()
}

func (c *Controller[T]) report(err *ShapeError[T]) {
	c.logger.Warn("shape failed, skipping", "tag", err.Tag, "op", string(err.Op), "err", err.Err)

	c.mu.RLock()
	onError := c.onError
	c.mu.RUnlock()
	if onError != nil {
		onError(err)
	}
}

func panicError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", v)
}
