package app

import (
	"errors"
	goimage "image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"imagemap/internal/image"
	"imagemap/internal/overlay"
	"imagemap/internal/render"
	"imagemap/internal/shapes"
	"imagemap/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeViewport struct {
	layer *image.Layer
	view  geometry.AffineTransform
	ctrl  *overlay.Controller[string]
}

func newFakeViewport() *fakeViewport {
	return &fakeViewport{view: geometry.Identity(), ctrl: overlay.New[string]()}
}

func (v *fakeViewport) SetLayer(layer *image.Layer) { v.layer = layer }

func (v *fakeViewport) View() geometry.AffineTransform { return v.view }

func (v *fakeViewport) Overlay() *overlay.Controller[string] { return v.ctrl }

const sceneYAML = `
image: base.png
shapes:
  - id: door
    kind: rect
    rect: {x: 0, y: 0, width: 10, height: 10}
  - id: lamp
    kind: circle
    center: [20, 20]
    radius: 5
`

func writeFixtures(t *testing.T) (dir, scenePath string) {
	t.Helper()
	dir = t.TempDir()

	f, err := os.Create(filepath.Join(dir, "base.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, goimage.NewRGBA(goimage.Rect(0, 0, 40, 30))))
	require.NoError(t, f.Close())

	scenePath = filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(scenePath, []byte(sceneYAML), 0o644))
	return dir, scenePath
}

type recorder struct {
	events []EventType
	data   []interface{}
}

func (r *recorder) listen(s *State, events ...EventType) {
	for _, ev := range events {
		ev := ev
		s.On(ev, func(data interface{}) {
			r.events = append(r.events, ev)
			r.data = append(r.data, data)
		})
	}
}

func TestLoadSceneLoadsImageAndShapes(t *testing.T) {
	_, scenePath := writeFixtures(t)
	vp := newFakeViewport()
	vp.view = geometry.Identity().PostScale(2, 0, 0)
	s := NewState(vp, nil)

	var rec recorder
	rec.listen(s, EventImageLoaded, EventSceneLoaded, EventShapesChanged)

	require.NoError(t, s.LoadScene(scenePath))
	require.NotNil(t, vp.layer)
	assert.Equal(t, 40, vp.layer.Width())
	imagePath, gotScene := s.Paths()
	assert.Equal(t, scenePath, gotScene)
	assert.Equal(t, filepath.Join(filepath.Dir(scenePath), "base.png"), imagePath)
	assert.Equal(t, []EventType{EventImageLoaded, EventSceneLoaded, EventShapesChanged}, rec.events)
	assert.Equal(t, 2, rec.data[2])

	door, ok := vp.ctrl.Shape("door")
	require.True(t, ok)
	assert.Equal(t, geometry.NewRect(0, 0, 20, 20), door.(*shapes.Rect).Bounds())

	// Reloading replaces rather than appends.
	require.NoError(t, s.ReloadScene())
	assert.Equal(t, 2, vp.ctrl.Len())
}

func TestPathsWhileReloading(t *testing.T) {
	_, scenePath := writeFixtures(t)
	s := NewState(newFakeViewport(), nil)
	require.NoError(t, s.LoadScene(scenePath))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5; i++ {
			assert.NoError(t, s.ReloadScene())
		}
	}()
	for i := 0; i < 5; i++ {
		_, got := s.Paths()
		assert.Equal(t, scenePath, got)
	}
	wg.Wait()
}

func TestLoadSceneErrors(t *testing.T) {
	dir, _ := writeFixtures(t)
	s := NewState(newFakeViewport(), nil)

	assert.Error(t, s.LoadScene(filepath.Join(dir, "missing.yaml")))
	assert.Error(t, s.ReloadScene())

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("shapes:\n  - kind: blob\n"), 0o644))
	assert.ErrorContains(t, s.LoadScene(bad), "unknown shape kind")

	noImage := filepath.Join(dir, "noimage.yaml")
	require.NoError(t, os.WriteFile(noImage, []byte("image: gone.png\n"), 0o644))
	assert.ErrorContains(t, s.LoadScene(noImage), "scene image")
}

func TestShapeClickAndFailureEvents(t *testing.T) {
	vp := newFakeViewport()
	s := NewState(vp, nil)

	var rec recorder
	rec.listen(s, EventShapeClicked, EventShapeFailed, EventShapesChanged)

	vp.ctrl.AddShape(shapes.NewRect("a", color.White, geometry.NewRect(0, 0, 10, 10)))
	vp.ctrl.AddShape(&panickyShape{tag: "bad"})

	assert.True(t, vp.ctrl.Tap(5, 5))
	vp.ctrl.Draw(render.NewCanvas(4, 4))

	require.Len(t, rec.events, 2)
	assert.Equal(t, ShapeClick{Tag: "a", X: 5, Y: 5}, rec.data[0])
	var shapeErr *overlay.ShapeError[string]
	require.True(t, errors.As(rec.data[1].(error), &shapeErr))
	assert.Equal(t, "bad", shapeErr.Tag)

	s.RemoveShape("missing")
	s.RemoveShape("bad")
	s.ClearShapes()
	s.ClearShapes()
	assert.Equal(t, []interface{}{1, 0}, rec.data[2:])
}

type panickyShape struct {
	tag string
}

func (p *panickyShape) Tag() string { return p.tag }

func (p *panickyShape) Draw(render.Surface) { panic("draw failed") }

func (p *panickyShape) HitTest(float64, float64) bool { return false }

func (p *panickyShape) OnScale(float64, float64, float64) {}

func (p *panickyShape) OnTranslate(float64, float64) {}
