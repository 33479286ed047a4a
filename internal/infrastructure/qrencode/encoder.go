package qrencode

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	goqrcode "github.com/skip2/go-qrcode"
)

var (
	// Foreground is the module color. Dark on light reads best on scanners.
	Foreground = color.RGBA{0x10, 0x10, 0x10, 0xff}
	// Background is the quiet zone and light module color.
	Background = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

// Encoder renders text into a QR raster at a fixed module size
type Encoder struct {
	level   goqrcode.RecoveryLevel
	boxSize int
	border  int
}

// NewEncoder creates an encoder. level is one of L, M, Q, H.
func NewEncoder(level string, boxSize, border int) (*Encoder, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if boxSize < 1 {
		return nil, fmt.Errorf("box size must be at least 1, got %d", boxSize)
	}
	if border < 0 {
		return nil, fmt.Errorf("border must not be negative, got %d", border)
	}
	return &Encoder{level: lvl, boxSize: boxSize, border: border}, nil
}

// ParseLevel maps a letter to a recovery level
func ParseLevel(level string) (goqrcode.RecoveryLevel, error) {
	switch level {
	case "L":
		return goqrcode.Low, nil
	case "M", "":
		return goqrcode.Medium, nil
	case "Q":
		return goqrcode.High, nil
	case "H":
		return goqrcode.Highest, nil
	}
	return 0, fmt.Errorf("unknown recovery level %q", level)
}

// Encode builds the smallest symbol that fits text and rasterises it.
func (e *Encoder) Encode(text string) (*image.RGBA, error) {
	q, err := goqrcode.New(text, e.level)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	// The quiet zone is drawn below at our own width.
	q.DisableBorder = true
	return e.render(q.Bitmap()), nil
}

func (e *Encoder) render(bits [][]bool) *image.RGBA {
	modules := len(bits)
	size := (modules + 2*e.border) * e.boxSize
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	dark := image.NewUniform(Foreground)
	for y, row := range bits {
		for x, on := range row {
			if !on {
				continue
			}
			x0 := (x + e.border) * e.boxSize
			y0 := (y + e.border) * e.boxSize
			draw.Draw(img, image.Rect(x0, y0, x0+e.boxSize, y0+e.boxSize), dark, image.Point{}, draw.Src)
		}
	}
	return img
}
