// Package scene loads shape sets from YAML or TOML files.
//
// Scene coordinates are image pixels. Build places the shapes into view
// space with the current view transform, so a scene can be loaded at any
// zoom level and still line up with the image.
package scene

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"imagemap/internal/overlay"
	"imagemap/internal/shapes"
	"imagemap/pkg/geometry"

	"github.com/BurntSushi/toml"
	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"golang.org/x/image/colornames"
	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported scene format")
	ErrUnknownKind       = errors.New("unknown shape kind")
	ErrInvalidShape      = errors.New("invalid shape")
	ErrInvalidColor      = errors.New("invalid color")
)

// Format is a scene file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Shape kinds.
const (
	KindRect     = "rect"
	KindCircle   = "circle"
	KindPolygon  = "polygon"
	KindPolyline = "polyline"
	KindDot      = "dot"
)

var kinds = []string{KindRect, KindCircle, KindPolygon, KindPolyline, KindDot}

// DefaultColor is used for shapes without a color.
const DefaultColor = "#ff000080"

// Scene is a set of shape definitions plus an optional base image.
type Scene struct {
	Image  string       `yaml:"image" toml:"image"`
	Shapes []Definition `yaml:"shapes" toml:"shapes"`
}

// Definition describes one shape in image coordinates.
type Definition struct {
	ID         string   `yaml:"id" toml:"id"`
	Kind       string   `yaml:"kind" toml:"kind"`
	Color      string   `yaml:"color" toml:"color"`
	Alpha      *float64 `yaml:"alpha" toml:"alpha"`
	Stroke     float64  `yaml:"stroke" toml:"stroke"`
	Label      string   `yaml:"label" toml:"label"`
	LabelColor string   `yaml:"label_color" toml:"label_color"`

	Rect      *geometry.Rect `yaml:"rect" toml:"rect"`
	Center    [2]float64     `yaml:"center" toml:"center"`
	Radius    float64        `yaml:"radius" toml:"radius"`
	Points    [][2]float64   `yaml:"points" toml:"points"`
	Tolerance float64        `yaml:"tolerance" toml:"tolerance"`
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads a scene file. Relative image paths are resolved against the
// scene file's directory.
func Load(path string) (*Scene, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene: %w", err)
	}
	s, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Image != "" && !filepath.IsAbs(s.Image) {
		s.Image = filepath.Join(filepath.Dir(path), s.Image)
	}
	return s, nil
}

// Parse decodes a scene from data.
func Parse(data []byte, format Format) (*Scene, error) {
	var s Scene
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode yaml: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &s)
		if err != nil {
			return nil, fmt.Errorf("failed to decode toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("failed to decode toml: unknown field %q", undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return &s, nil
}

// Build creates the shapes for every definition, mapping image points to
// view points through view. Definitions without an id get a random one.
func (s *Scene) Build(view geometry.AffineTransform) ([]overlay.Shape[string], error) {
	out := make([]overlay.Shape[string], 0, len(s.Shapes))
	for i, def := range s.Shapes {
		shape, err := def.build(view)
		if err != nil {
			name := def.ID
			if name == "" {
				name = "#" + strconv.Itoa(i)
			}
			return nil, fmt.Errorf("shape %s: %w", name, err)
		}
		out = append(out, shape)
	}
	return out, nil
}

func (d Definition) build(view geometry.AffineTransform) (overlay.Shape[string], error) {
	id := d.ID
	if id == "" {
		id = uuid.NewString()
	}
	colorSpec := d.Color
	if colorSpec == "" {
		colorSpec = DefaultColor
	}
	col, err := ParseColor(colorSpec)
	if err != nil {
		return nil, err
	}

	var shape shapes.Shape
	var base *shapes.Base
	zoom := view.Zoom()

	switch strings.ToLower(strings.TrimSpace(d.Kind)) {
	case KindRect:
		if d.Rect == nil {
			return nil, fmt.Errorf("%w: rect needs a rect", ErrInvalidShape)
		}
		r := geometry.RectFromCorners(view.Apply(d.Rect.TopLeft()), view.Apply(d.Rect.BottomRight()))
		s := shapes.NewRect(id, col, r)
		shape, base = s, &s.Base
	case KindCircle:
		if d.Radius <= 0 {
			return nil, fmt.Errorf("%w: circle needs a positive radius", ErrInvalidShape)
		}
		s := shapes.NewCircle(id, col, view.Apply(vec(d.Center)), d.Radius*zoom)
		shape, base = s, &s.Base
	case KindDot:
		s := shapes.NewDot(id, col, view.Apply(vec(d.Center)), d.Radius)
		shape, base = s, &s.Base
	case KindPolygon:
		if len(d.Points) < 3 {
			return nil, fmt.Errorf("%w: polygon needs at least 3 points, got %d", ErrInvalidShape, len(d.Points))
		}
		s := shapes.NewPolygon(id, col, d.viewPoints(view))
		shape, base = s, &s.Base
	case KindPolyline:
		if len(d.Points) < 2 {
			return nil, fmt.Errorf("%w: polyline needs at least 2 points, got %d", ErrInvalidShape, len(d.Points))
		}
		s := shapes.NewPolyline(id, col, d.viewPoints(view))
		if d.Tolerance > 0 {
			s.Tolerance = d.Tolerance
		}
		shape, base = s, &s.Base
	default:
		return nil, unknownKind(d.Kind)
	}

	if d.Alpha != nil {
		base.Alpha = *d.Alpha
	}
	if d.Stroke > 0 {
		base.StrokeWidth = d.Stroke
	}
	base.Label = d.Label
	if d.LabelColor != "" {
		lc, err := ParseColor(d.LabelColor)
		if err != nil {
			return nil, err
		}
		base.LabelColor = lc
	}
	return shape, nil
}

func (d Definition) viewPoints(view geometry.AffineTransform) []r2.Vec {
	pts := make([]r2.Vec, len(d.Points))
	for i, p := range d.Points {
		pts[i] = view.Apply(vec(p))
	}
	return pts
}

func vec(p [2]float64) r2.Vec {
	return r2.Vec{X: p[0], Y: p[1]}
}

func unknownKind(kind string) error {
	if strings.TrimSpace(kind) == "" {
		return fmt.Errorf("%w: missing kind (want one of %s)", ErrUnknownKind, strings.Join(kinds, ", "))
	}
	best, bestDist := "", 4
	for _, k := range kinds {
		if d := levenshtein.ComputeDistance(strings.ToLower(kind), k); d < bestDist {
			best, bestDist = k, d
		}
	}
	if best != "" {
		return fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownKind, kind, best)
	}
	return fmt.Errorf("%w %q (want one of %s)", ErrUnknownKind, kind, strings.Join(kinds, ", "))
}

// ParseColor accepts #rgb, #rrggbb, #rrggbbaa or an SVG color name.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
