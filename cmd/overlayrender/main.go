// Command overlayrender renders a scene file and its base image to a PNG
// without a window, and can report which shape a tap would hit.
package main

import (
	"log"
	"log/slog"
	"os"

	"imagemap/internal/version"

	"github.com/spf13/cobra"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	var verbose bool

	cmd := &cobra.Command{
		Use:     "overlayrender <scene.yaml|scene.toml>",
		Short:   "Render a shape scene over its image to PNG",
		Version: version.String(),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ScenePath = args[0]

			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			res, err := run(opts, cmd.OutOrStdout(), logger)
			if err != nil {
				return err
			}
			if opts.Out != "" {
				log.Printf("Wrote %s (%dx%d, %d shapes)", opts.Out, res.Width, res.Height, res.Shapes)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Out, "out", "o", "overlay.png", "output PNG path (empty to skip writing)")
	f.StringVar(&opts.ImagePath, "image", "", "base image, overriding the scene's image")
	f.Float64Var(&opts.Zoom, "zoom", 1, "zoom factor about the top-left corner")
	f.Float64SliceVar(&opts.Pan, "pan", nil, "pan offset dx,dy in view pixels, applied after zoom")
	f.StringVar(&opts.Tap, "tap", "", "report the shape hit at view point x,y")
	f.IntVar(&opts.Width, "width", 0, "output width (default: zoomed image size)")
	f.IntVar(&opts.Height, "height", 0, "output height (default: zoomed image size)")
	f.BoolVar(&opts.Topmost, "topmost", false, "taps hit the last painted shape instead of the first registered")
	f.BoolVarP(&verbose, "verbose", "v", false, "log debug output")
	return cmd
}
