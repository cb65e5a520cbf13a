package overlay

import (
	"imagemap/internal/render"
	"imagemap/pkg/geometry"
)

type scaleCall struct {
	Factor, CX, CY float64
}

type translateCall struct {
	DX, DY float64
}

// recordingShape is an axis-aligned box that records every call it gets.
type recordingShape struct {
	tag string
	box geometry.Rect

	draws      int
	hitTests   int
	scales     []scaleCall
	translates []translateCall

	panicOn Op
	log     *[]string
}

func newShape(tag string, x, y, w, h float64) *recordingShape {
	return &recordingShape{tag: tag, box: geometry.NewRect(x, y, w, h)}
}

func (s *recordingShape) Tag() string { return s.tag }

func (s *recordingShape) Draw(render.Surface) {
	s.maybePanic(OpDraw)
	s.draws++
	if s.log != nil {
		*s.log = append(*s.log, "draw "+s.tag)
	}
}

func (s *recordingShape) HitTest(x, y float64) bool {
	s.maybePanic(OpHitTest)
	s.hitTests++
	return s.box.Contains(geometry.Pt(x, y))
}

func (s *recordingShape) OnScale(factor, cx, cy float64) {
	s.maybePanic(OpScale)
	s.scales = append(s.scales, scaleCall{factor, cx, cy})
}

func (s *recordingShape) OnTranslate(dx, dy float64) {
	s.maybePanic(OpTranslate)
	s.translates = append(s.translates, translateCall{dx, dy})
}

func (s *recordingShape) maybePanic(op Op) {
	if s.panicOn == op {
		panic("broken " + string(op))
	}
}

// intShape checks that non-string tags work.
type intShape struct {
	id int
}

func (s intShape) Tag() int { return s.id }

func (intShape) Draw(render.Surface) {}

func (intShape) HitTest(float64, float64) bool { return true }

func (intShape) OnScale(float64, float64, float64) {}

func (intShape) OnTranslate(float64, float64) {}

// loggingSurface records Save/Restore calls in the same log as the shapes.
type loggingSurface struct {
	render.Surface
	log *[]string
}

func (s *loggingSurface) Save()    { *s.log = append(*s.log, "save") }
func (s *loggingSurface) Restore() { *s.log = append(*s.log, "restore") }
