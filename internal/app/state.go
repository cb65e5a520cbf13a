// Package app provides application state and events for the viewer.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"imagemap/internal/image"
	"imagemap/internal/overlay"
	"imagemap/internal/scene"
	"imagemap/pkg/geometry"
)

// Viewport is the view the state loads images and shapes into.
type Viewport interface {
	SetLayer(layer *image.Layer)
	View() geometry.AffineTransform
	Overlay() *overlay.Controller[string]
}

// State holds the loaded image and scene and fans out events.
type State struct {
	mu sync.RWMutex

	ImagePath string
	ScenePath string
	Layer     *image.Layer
	Scene     *scene.Scene

	viewport Viewport
	logger   *slog.Logger

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventImageLoaded   EventType = iota // data: *image.Layer
	EventSceneLoaded                    // data: *scene.Scene
	EventShapesChanged                  // data: int, the shape count
	EventShapeClicked                   // data: ShapeClick
	EventShapeFailed                    // data: error, a *overlay.ShapeError[string]
)

// EventShapeFailed listeners may run while the viewport is inside a frame or
// a view change, with the viewport's frame lock held. They must not call
// back into viewport view methods such as View, ViewToImage or FitToWindow.

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// ShapeClick is the payload of EventShapeClicked.
type ShapeClick struct {
	Tag  string
	X, Y float64 // View coordinates
}

// NewState creates the application state for vp. A nil logger discards.
func NewState(vp Viewport, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &State{
		viewport:  vp,
		logger:    logger,
		listeners: make(map[EventType][]EventListener),
	}

	ctrl := vp.Overlay()
	ctrl.SetOnShapeClick(func(shape overlay.Shape[string], x, y float64) {
		s.Emit(EventShapeClicked, ShapeClick{Tag: shape.Tag(), X: x, Y: y})
	})
	ctrl.SetOnShapeError(func(err error) {
		s.Emit(EventShapeFailed, err)
	})
	return s
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Overlay returns the viewport's shape overlay.
func (s *State) Overlay() *overlay.Controller[string] {
	return s.viewport.Overlay()
}

// LoadImage loads the base image.
func (s *State) LoadImage(path string) error {
	layer, err := image.Load(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.ImagePath = path
	s.Layer = layer
	s.mu.Unlock()

	s.viewport.SetLayer(layer)
	s.logger.Info("image loaded", "path", path, "width", layer.Width(), "height", layer.Height())
	s.Emit(EventImageLoaded, layer)
	return nil
}

// LoadScene loads a scene file, replacing the current shapes. The scene's
// image, if any, is loaded first so the shapes are placed against it.
func (s *State) LoadScene(path string) error {
	sc, err := scene.Load(path)
	if err != nil {
		return err
	}
	if sc.Image != "" {
		if err := s.LoadImage(sc.Image); err != nil {
			return fmt.Errorf("scene image: %w", err)
		}
	}

	built, err := sc.Build(s.viewport.View())
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	s.mu.Lock()
	s.ScenePath = path
	s.Scene = sc
	s.mu.Unlock()

	ctrl := s.viewport.Overlay()
	ctrl.ClearShapes()
	ctrl.AddShapes(built)

	s.logger.Info("scene loaded", "path", path, "shapes", len(built))
	s.Emit(EventSceneLoaded, sc)
	s.Emit(EventShapesChanged, ctrl.Len())
	return nil
}

// Paths returns the current image and scene paths.
func (s *State) Paths() (imagePath, scenePath string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ImagePath, s.ScenePath
}

// ReloadScene loads the current scene file again.
func (s *State) ReloadScene() error {
	s.mu.RLock()
	path := s.ScenePath
	s.mu.RUnlock()
	if path == "" {
		return fmt.Errorf("no scene loaded")
	}
	return s.LoadScene(path)
}

// RemoveShape removes one shape by id.
func (s *State) RemoveShape(id string) {
	ctrl := s.viewport.Overlay()
	before := ctrl.Len()
	ctrl.RemoveShape(id)
	if n := ctrl.Len(); n != before {
		s.Emit(EventShapesChanged, n)
	}
}

// ClearShapes removes every shape.
func (s *State) ClearShapes() {
	ctrl := s.viewport.Overlay()
	if ctrl.Len() == 0 {
		return
	}
	ctrl.ClearShapes()
	s.Emit(EventShapesChanged, 0)
}

// WatchScene reloads the current scene whenever its file changes. The
// returned watcher is already started; nil means there is nothing to watch.
func (s *State) WatchScene(w *FileWatcher) *FileWatcher {
	if w == nil {
		return nil
	}
	w.OnChange(func() {
		if err := s.ReloadScene(); err != nil {
			s.logger.Warn("scene reload failed", "path", w.Path(), "err", err)
		}
	})
	w.Start()
	return w
}
