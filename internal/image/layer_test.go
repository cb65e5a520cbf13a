package image

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"imagemap/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})

	path := filepath.Join(dir, "base.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestLoadPNG(t *testing.T) {
	path := writePNG(t, t.TempDir(), 6, 4)

	layer, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "png", layer.Format)
	assert.Equal(t, geometry.NewRect(0, 0, 6, 4), layer.Bounds())
	assert.NoError(t, layer.Drawable())

	r, _, _, _ := layer.PixelAt(1, 1).RGBA()
	assert.Equal(t, uint32(200)<<8|200, r)
	assert.Equal(t, color.Black, layer.PixelAt(99, 0))
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	_, err := Load("board.xcf")
	assert.ErrorContains(t, err, "unsupported image format")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDrawable(t *testing.T) {
	var nilLayer *Layer
	assert.ErrorIs(t, nilLayer.Drawable(), ErrNoImage)
	assert.ErrorIs(t, NewLayer().Drawable(), ErrNoImage)

	layer := FromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	layer.Visible = false
	assert.Error(t, layer.Drawable())
}

func TestIsSupportedFormat(t *testing.T) {
	assert.True(t, IsSupportedFormat("scan.TIF"))
	assert.True(t, IsSupportedFormat("photo.webp"))
	assert.False(t, IsSupportedFormat("notes.txt"))
}
