package main

import (
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	mapimage "imagemap/internal/image"
	"imagemap/internal/overlay"
	"imagemap/internal/render"
	"imagemap/internal/scene"
	"imagemap/pkg/geometry"

	"golang.org/x/image/colornames"
)

// defaultSize is the canvas size used when there is no base image.
const defaultSize = 512

type options struct {
	ScenePath string
	ImagePath string // Overrides the scene's image
	Out       string
	Zoom      float64
	Pan       []float64
	Tap       string
	Width     int
	Height    int
	Topmost   bool
}

type result struct {
	Width, Height int
	Shapes        int
	Tapped        bool
	HitTag        string
}

// run renders the scene to opts.Out and reports the tap result, if any,
// to stdout. Shapes are built at identity and then moved through the same
// scale and translate path a live view uses.
func run(opts options, stdout io.Writer, logger *slog.Logger) (result, error) {
	var res result

	sc, err := scene.Load(opts.ScenePath)
	if err != nil {
		return res, err
	}
	imagePath := opts.ImagePath
	if imagePath == "" {
		imagePath = sc.Image
	}
	var layer *mapimage.Layer
	if imagePath != "" {
		if layer, err = mapimage.Load(imagePath); err != nil {
			return res, err
		}
	}

	view := geometry.Identity()
	opt := []overlay.Option[string]{
		overlay.WithLogger[string](logger),
		overlay.WithBaseDrawer[string](func(s render.Surface) {
			if layer.Drawable() != nil {
				return
			}
			if d, ok := s.(render.ImageDrawer); ok {
				d.DrawImage(layer.Image, view, layer.Opacity)
			}
		}),
	}
	if opts.Topmost {
		opt = append(opt, overlay.WithTopmostHit[string]())
	}
	ctrl := overlay.New(opt...)

	built, err := sc.Build(view)
	if err != nil {
		return res, err
	}
	ctrl.AddShapes(built)
	res.Shapes = ctrl.Len()

	if opts.Zoom > 0 && opts.Zoom != 1 {
		view = view.PostScale(opts.Zoom, 0, 0)
		ctrl.Scale(opts.Zoom, 0, 0)
	}
	if len(opts.Pan) > 0 {
		if len(opts.Pan) != 2 {
			return res, fmt.Errorf("--pan wants dx,dy, got %d values", len(opts.Pan))
		}
		view = view.PostTranslate(opts.Pan[0], opts.Pan[1])
		ctrl.Translate(opts.Pan[0], opts.Pan[1])
	}

	res.Width, res.Height = opts.Width, opts.Height
	if res.Width <= 0 || res.Height <= 0 {
		res.Width, res.Height = defaultSize, defaultSize
		if layer != nil {
			b := view.Apply(geometry.Pt(float64(layer.Width()), float64(layer.Height())))
			res.Width, res.Height = max(1, int(b.X+0.5)), max(1, int(b.Y+0.5))
		}
	}

	canvas := render.NewCanvas(res.Width, res.Height)
	canvas.Clear(colornames.Black)
	ctrl.Draw(canvas)

	if opts.Tap != "" {
		x, y, err := parsePoint(opts.Tap)
		if err != nil {
			return res, err
		}
		ctrl.SetOnShapeClick(func(shape overlay.Shape[string], _, _ float64) {
			res.HitTag = shape.Tag()
		})
		res.Tapped = ctrl.Tap(x, y)
		if res.Tapped {
			fmt.Fprintf(stdout, "hit %s at %g,%g\n", res.HitTag, x, y)
		} else {
			fmt.Fprintf(stdout, "miss at %g,%g\n", x, y)
		}
	}

	if opts.Out == "" {
		return res, nil
	}
	f, err := os.Create(opts.Out)
	if err != nil {
		return res, fmt.Errorf("failed to create output: %w", err)
	}
	if err := png.Encode(f, canvas.Image()); err != nil {
		f.Close()
		return res, fmt.Errorf("failed to encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return res, fmt.Errorf("failed to write output: %w", err)
	}
	return res, nil
}

// parsePoint parses "x,y".
func parsePoint(s string) (float64, float64, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid point %q: %w", s, err)
	}
	return x, y, nil
}
