// Package main provides the entry point for the image map viewer.
package main

import (
	"fmt"
	"image/color"
	"log"
	"log/slog"
	"os"
	"time"

	"imagemap/internal/app"
	mapimage "imagemap/internal/image"
	"imagemap/internal/overlay"
	"imagemap/internal/version"
	"imagemap/ui/canvas"
	"imagemap/ui/prefs"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/spf13/cobra"
)

const (
	appTitle = "Image Map"
	appID    = "io.imagemap.viewer"
)

type flags struct {
	scene   string
	watch   bool
	topmost bool
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:     "imagemap [image]",
		Short:   "View an image with clickable shape overlays",
		Version: version.String(),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image := ""
			if len(args) == 1 {
				image = args[0]
			}
			return runViewer(image, f)
		},
	}
	cmd.Flags().StringVarP(&f.scene, "scene", "s", "", "scene file (YAML or TOML) to load")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "reload the scene when its file changes")
	cmd.Flags().BoolVar(&f.topmost, "topmost", false, "taps hit the last painted shape instead of the first registered")
	return cmd
}

func runViewer(imagePath string, f flags) error {
	log.Printf("Starting %s v%s", appTitle, version.Version)

	appPrefs, err := prefs.Load()
	if err != nil {
		return err
	}
	logger := slog.Default()

	a := fyneapp.NewWithID(appID)
	a.Settings().SetTheme(&app.ImageMapTheme{})
	win := a.NewWindow(appTitle)

	canvasOpts := []canvas.Option{
		canvas.WithLogger(logger),
		canvas.WithZoomStep(appPrefs.FloatWithFallback(prefs.KeyZoomStep, canvas.DefaultZoomStep)),
		canvas.WithZoomLimits(
			appPrefs.FloatWithFallback(prefs.KeyMinZoom, canvas.DefaultMinZoom),
			appPrefs.FloatWithFallback(prefs.KeyMaxZoom, canvas.DefaultMaxZoom),
		),
	}
	if f.topmost || appPrefs.TopmostHit() {
		canvasOpts = append(canvasOpts, canvas.WithOverlayOptions(overlay.WithTopmostHit[string]()))
	}
	imageCanvas := canvas.NewImageCanvas(canvasOpts...)
	state := app.NewState(imageCanvas, logger)

	status := widget.NewLabel("No image loaded")
	wireStatus(state, imageCanvas, status)

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), func() { openImage(win, state, appPrefs) }),
		widget.NewToolbarAction(theme.DocumentIcon(), func() { openScene(win, state, appPrefs) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomInIcon(), imageCanvas.ZoomIn),
		widget.NewToolbarAction(theme.ZoomOutIcon(), imageCanvas.ZoomOut),
		widget.NewToolbarAction(theme.ZoomFitIcon(), imageCanvas.FitToWindow),
		widget.NewToolbarAction(theme.ViewRestoreIcon(), imageCanvas.ResetView),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DeleteIcon(), state.ClearShapes),
	)
	win.SetContent(container.NewBorder(toolbar, status, nil, nil, imageCanvas))

	// Handle command line arguments, falling back to the last session
	restore := imagePath == "" && f.scene == ""
	if restore {
		imagePath = appPrefs.String(prefs.KeyLastImage)
	}
	if imagePath != "" {
		if err := state.LoadImage(imagePath); err != nil {
			log.Printf("Failed to load image %s: %v", imagePath, err)
		}
	}
	scenePath := f.scene
	if restore {
		scenePath = appPrefs.String(prefs.KeyLastScene)
	}
	if scenePath != "" {
		if err := state.LoadScene(scenePath); err != nil {
			log.Printf("Failed to load scene %s: %v", scenePath, err)
		} else if f.watch {
			if w := state.WatchScene(app.NewFileWatcher(scenePath, time.Second)); w != nil {
				log.Printf("Watching %s", w.Path())
				defer w.Stop()
			}
		}
	}

	win.Resize(fyne.NewSize(
		float32(appPrefs.FloatWithFallback(prefs.KeyWindowWidth, 1024)),
		float32(appPrefs.FloatWithFallback(prefs.KeyWindowHeight, 768)),
	))
	win.SetCloseIntercept(func() {
		savePreferences(appPrefs, state, win)
		win.Close()
	})

	win.ShowAndRun()
	return nil
}

// wireStatus keeps the status line in sync with state events.
func wireStatus(state *app.State, ic *canvas.ImageCanvas, status *widget.Label) {
	state.On(app.EventImageLoaded, func(data interface{}) {
		layer := data.(*mapimage.Layer)
		status.SetText(fmt.Sprintf("%s  %dx%d", layer.Path, layer.Width(), layer.Height()))
		ic.FitToWindow()
	})
	state.On(app.EventShapesChanged, func(data interface{}) {
		status.SetText(fmt.Sprintf("%d shapes", data.(int)))
	})
	state.On(app.EventShapeClicked, func(data interface{}) {
		click := data.(app.ShapeClick)
		x, y := ic.ViewToImage(click.X, click.Y)
		status.SetText(fmt.Sprintf("%s at %.0f, %.0f", click.Tag, x, y))
		log.Printf("Clicked %s at image %.1f, %.1f", click.Tag, x, y)
	})
	state.On(app.EventShapeFailed, func(data interface{}) {
		status.SetText(fmt.Sprintf("Shape error: %v", data))
	})
	ic.OnRightClick(func(x, y float64) {
		c, ok := ic.PixelAt(x, y)
		if !ok {
			status.SetText(fmt.Sprintf("%.0f, %.0f", x, y))
			return
		}
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		status.SetText(fmt.Sprintf("%.0f, %.0f  rgba(%d, %d, %d, %d)", x, y, n.R, n.G, n.B, n.A))
	})
	ic.OnZoomChange(func(zoom float64) {
		status.SetText(fmt.Sprintf("Zoom %.0f%%", zoom*100))
	})
}

func openImage(win fyne.Window, state *app.State, p *prefs.Prefs) {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		if err := state.LoadImage(path); err != nil {
			dialog.ShowError(err, win)
			return
		}
		p.SetString(prefs.KeyLastImage, path)
	}, win)
	d.SetFilter(storage.NewExtensionFileFilter(mapimage.FileFilter()))
	d.Show()
}

func openScene(win fyne.Window, state *app.State, p *prefs.Prefs) {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		if err := state.LoadScene(path); err != nil {
			dialog.ShowError(err, win)
			return
		}
		p.SetString(prefs.KeyLastScene, path)
	}, win)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".yaml", ".yml", ".toml"}))
	d.Show()
}

func savePreferences(p *prefs.Prefs, state *app.State, win fyne.Window) {
	size := win.Canvas().Size()
	p.SetFloat(prefs.KeyWindowWidth, float64(size.Width))
	p.SetFloat(prefs.KeyWindowHeight, float64(size.Height))
	imagePath, scenePath := state.Paths()
	if imagePath != "" {
		p.SetString(prefs.KeyLastImage, imagePath)
	}
	if scenePath != "" {
		p.SetString(prefs.KeyLastScene, scenePath)
	}
	if err := p.Save(); err != nil {
		log.Printf("Failed to save preferences: %v", err)
	}
}
