package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLuminance(t *testing.T) {
	assert.InDelta(t, 0.0, Luminance(color.Black), 1e-9)
	assert.InDelta(t, 1.0, Luminance(color.White), 1e-9)
	assert.InDelta(t, 0.7152, Luminance(color.NRGBA{G: 255, A: 255}), 1e-9)
}

func TestContrast(t *testing.T) {
	tests := []struct {
		name string
		in   color.Color
		want color.NRGBA
	}{
		{"white", color.White, Black},
		{"black", color.Black, White},
		{"green", color.NRGBA{G: 255, A: 255}, Black},
		{"navy", color.NRGBA{B: 128, A: 255}, White},
		{"red", color.NRGBA{R: 255, A: 255}, Black},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Contrast(tt.in))
		})
	}
}
