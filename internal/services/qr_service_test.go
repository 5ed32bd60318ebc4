package services

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRService_GeneratePNG(t *testing.T) {
	service := NewQRService()

	t.Run("Default size", func(t *testing.T) {
		data, err := service.GeneratePNG(QROptions{Content: "https://sho.rt/abc123"})
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, DefaultQRSize, img.Bounds().Dx())
	})

	t.Run("Custom size", func(t *testing.T) {
		data, err := service.GeneratePNG(QROptions{Content: "https://sho.rt/abc123", Size: 512})
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 512, img.Bounds().Dx())
	})

	t.Run("Oversized falls back", func(t *testing.T) {
		data, err := service.GeneratePNG(QROptions{Content: "x", Size: 5000})
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, DefaultQRSize, img.Bounds().Dx())
	})

	t.Run("Empty content", func(t *testing.T) {
		_, err := service.GeneratePNG(QROptions{})
		assert.Error(t, err)
	})
}

func TestParseHexColor(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 255, G: 0, B: 0, A: 255}, parseHexColor("#FF0000", color.Black))
	assert.Equal(t, color.RGBA{R: 0x12, G: 0xab, B: 0xef, A: 255}, parseHexColor("12abef", color.Black))
	assert.Equal(t, color.Black, parseHexColor("#FFF", color.Black))
	assert.Equal(t, color.White, parseHexColor("#GG0000", color.White))
}
