// Package overlay keeps a set of tagged shapes in step with a pannable,
// zoomable image view: it draws them each frame, forwards the view's scale
// and translate deltas to every shape, and resolves taps to shapes.
package overlay

import (
	"fmt"

	"imagemap/internal/render"
)

// Shape is an interactive overlay element. Geometry is held in view space
// and mutated in place by OnScale and OnTranslate.
type Shape[T comparable] interface {
	// Tag identifies the shape. It must not change while the shape is registered.
	Tag() T

	Draw(s render.Surface)

	// HitTest returns true if the view point (x, y) is within this shape.
	HitTest(x, y float64) bool

	OnScale(factor, centerX, centerY float64)
	OnTranslate(dx, dy float64)
}

// Extension is the shape management surface a host view exposes.
type Extension[T comparable] interface {
	AddShape(shape Shape[T])
	AddShapes(shapes []Shape[T])
	RemoveShape(tag T)
}

// ClickFunc is called with the shape hit by a tap and the tap location.
type ClickFunc[T comparable] func(shape Shape[T], x, y float64)

// Op names the shape method that failed.
type Op string

const (
	OpDraw      Op = "draw"
	OpHitTest   Op = "hit-test"
	OpScale     Op = "scale"
	OpTranslate Op = "translate"
)

// ShapeError reports a shape that panicked inside one of its methods.
type ShapeError[T comparable] struct {
	Tag T
	Op  Op
	Err error
}

func (e *ShapeError[T]) Error() string {
	return fmt.Sprintf("shape %v: %s: %v", e.Tag, e.Op, e.Err)
}

func (e *ShapeError[T]) Unwrap() error {
	return e.Err
}
