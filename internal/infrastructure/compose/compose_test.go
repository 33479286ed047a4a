package compose

import (
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	white = color.RGBA{255, 255, 255, 255}
	ink   = color.RGBA{16, 16, 16, 255}
	red   = color.RGBA{255, 0, 0, 255}
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func isRed(c color.RGBA) bool {
	return c.R > 200 && c.G < 60 && c.B < 60
}

func TestScaleToWidth_PreservesAspect(t *testing.T) {
	img := ScaleToWidth(solid(200, 100, red), 50)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 25, img.Bounds().Dy())
}

func TestRoundCorners_TransparentCorners(t *testing.T) {
	img := RoundCorners(solid(40, 40, red))
	_, _, _, a := img.At(0, 0).RGBA()
	assert.Zero(t, a)
	_, _, _, a = img.At(20, 20).RGBA()
	assert.Equal(t, uint32(0xffff), a)
}

func TestOverlayLogo_CenteredAtRatio(t *testing.T) {
	code := solid(300, 300, white)
	out, drawn := OverlayLogo(code, solid(64, 64, red), 0.22)
	require.True(t, drawn)

	// 22% of 300 is 66 pixels, centered at (117, 117)
	minX, maxX := -1, -1
	for x := 0; x < 300; x++ {
		if isRed(out.RGBAAt(x, 150)) {
			if minX < 0 {
				minX = x
			}
			maxX = x
		}
	}
	assert.Equal(t, 117, minX)
	assert.Equal(t, 182, maxX)
	assert.Equal(t, white, out.RGBAAt(117, 117), "rounded corner stays see-through")
	assert.Equal(t, white, code.RGBAAt(150, 150), "source image is not modified")
}

func TestOverlayLogo_TooSmallIsSkipped(t *testing.T) {
	code := solid(3, 3, white)
	out, drawn := OverlayLogo(code, solid(64, 64, red), 0.22)
	assert.False(t, drawn)
	assert.Equal(t, code.Pix, out.Pix)
}

func TestCaptioner_FallbackFont(t *testing.T) {
	c, err := NewCaptioner(filepath.Join(t.TempDir(), "missing.ttf"), 24, ink, white)
	require.Error(t, err)
	require.NotNil(t, c)
	assert.False(t, c.CustomFont())

	c, err = NewCaptioner("", 24, ink, white)
	require.NoError(t, err)
	assert.False(t, c.CustomFont())
}

func TestCaptioner_ApplyKeepsCodeAndCenters(t *testing.T) {
	code := solid(300, 300, white)
	// a marker in the code region must survive untouched
	draw.Draw(code, image.Rect(10, 10, 30, 30), image.NewUniform(ink), image.Point{}, draw.Src)

	c, err := NewCaptioner("", 24, ink, white)
	require.NoError(t, err)

	out, err := c.Apply(code, "HELLO")
	require.NoError(t, err)
	require.Equal(t, 300, out.Bounds().Dx())
	require.Greater(t, out.Bounds().Dy(), 300)

	for y := 0; y < 300; y++ {
		for x := 0; x < 300; x++ {
			if code.RGBAAt(x, y) != out.RGBAAt(x, y) {
				t.Fatalf("code pixel (%d,%d) changed", x, y)
			}
		}
	}

	minX, maxX := 300, -1
	for y := 300; y < out.Bounds().Dy(); y++ {
		for x := 0; x < 300; x++ {
			if out.RGBAAt(x, y).R < 128 {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
			}
		}
	}
	require.GreaterOrEqual(t, maxX, minX, "caption ink present")
	left, right := minX, 299-maxX
	assert.InDelta(t, left, right, 4, "caption horizontally centered")
}

func TestCaptioner_LongTextShrinks(t *testing.T) {
	c, err := NewCaptioner("", 48, ink, white)
	require.NoError(t, err)

	out, err := c.Apply(solid(100, 100, white), "a very long caption that cannot fit")
	require.NoError(t, err)

	for y := 100; y < out.Bounds().Dy(); y++ {
		assert.Equal(t, white, out.RGBAAt(0, y))
		assert.Equal(t, white, out.RGBAAt(99, y))
	}
}
