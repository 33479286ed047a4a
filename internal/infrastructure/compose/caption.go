package compose

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	xdraw "golang.org/x/image/draw"
)

// maxCaptionWidth is the share of the canvas width a caption may occupy.
const maxCaptionWidth = 0.9

// Captioner draws caption bands below rendered codes
type Captioner struct {
	font   *opentype.Font
	size   float64
	ink    color.Color
	paper  color.Color
	custom bool
}

// NewCaptioner parses the font at fontPath. An empty path, a missing file or
// an unparsable file yields the embedded Go Regular face; the returned error
// then explains why the fallback was used and is not fatal.
func NewCaptioner(fontPath string, size float64, ink, paper color.Color) (*Captioner, error) {
	c := &Captioner{size: size, ink: ink, paper: paper}

	var fallbackErr error
	if fontPath != "" {
		data, err := os.ReadFile(fontPath)
		if err == nil {
			f, perr := opentype.Parse(data)
			if perr == nil {
				c.font = f
				c.custom = true
				return c, nil
			}
			err = perr
		}
		fallbackErr = fmt.Errorf("caption font %s: %w", fontPath, err)
	}

	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse fallback font: %w", err)
	}
	c.font = f
	return c, fallbackErr
}

// CustomFont reports whether the configured font file is in use
func (c *Captioner) CustomFont() bool {
	return c.custom
}

func (c *Captioner) face(size float64) (font.Face, error) {
	return opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Apply returns a taller copy of code with text centered in a band below.
// The rows of code are copied unchanged.
func (c *Captioner) Apply(code image.Image, text string) (*image.RGBA, error) {
	cb := code.Bounds()
	width, height := cb.Dx(), cb.Dy()

	face, err := c.face(c.size)
	if err != nil {
		return nil, fmt.Errorf("caption face: %w", err)
	}
	size := c.size
	textW, textH := measure(face, text)
	limit := float64(width) * maxCaptionWidth
	for i := 0; textW > limit && size > 1 && i < 8; i++ {
		face.Close()
		size = math.Max(1, size*limit/textW*0.95)
		face, err = c.face(size)
		if err != nil {
			return nil, fmt.Errorf("caption face: %w", err)
		}
		textW, textH = measure(face, text)
	}
	defer face.Close()

	pad := int(math.Ceil(textH / 2))
	band := int(math.Ceil(textH)) + 2*pad

	dc := gg.NewContext(width, height+band)
	dc.SetColor(c.paper)
	dc.Clear()
	dc.SetFontFace(face)
	dc.SetColor(c.ink)
	dc.DrawStringAnchored(text, float64(width)/2, float64(height)+float64(band)/2, 0.5, 0.5)

	out := image.NewRGBA(image.Rect(0, 0, width, height+band))
	xdraw.Draw(out, out.Bounds(), dc.Image(), image.Point{}, xdraw.Src)
	xdraw.Draw(out, image.Rect(0, 0, width, height), code, cb.Min, xdraw.Src)
	return out, nil
}

func measure(face font.Face, text string) (float64, float64) {
	w := float64(font.MeasureString(face, text)) / 64
	m := face.Metrics()
	h := float64(m.Ascent+m.Descent) / 64
	return w, h
}
