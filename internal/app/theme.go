package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// ImageMapTheme is a dark theme for the viewer. Image viewing reads better
// on a dark frame, so the variant is always dark.
type ImageMapTheme struct{}

var _ fyne.Theme = (*ImageMapTheme)(nil)

var (
	accent     = color.NRGBA{R: 0x00, G: 0x89, B: 0x7B, A: 0xFF}
	picked     = color.NRGBA{R: 0xFF, G: 0xD5, B: 0x00, A: 0x80}
	frame      = color.NRGBA{R: 0x18, G: 0x18, B: 0x1A, A: 0xFF}
	scrollGray = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
)

func (t *ImageMapTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameFocus:
		return accent
	case theme.ColorNameSelection:
		return picked
	case theme.ColorNameBackground:
		return frame
	case theme.ColorNameScrollBar:
		return scrollGray
	default:
		return theme.DefaultTheme().Color(name, theme.VariantDark)
	}
}

func (t *ImageMapTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *ImageMapTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *ImageMapTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameScrollBar:
		return 14
	case theme.SizeNamePadding:
		return 4 // Keep chrome thin around the image
	default:
		return theme.DefaultTheme().Size(name)
	}
}
