// Package compose overlays logos and captions onto rendered codes.
package compose

import (
	"image"
	"math"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
)

// cornerRatio is the rounded-corner radius relative to the logo's short edge.
const cornerRatio = 0.3

// ScaleToWidth resizes img to width pixels, preserving its aspect ratio.
func ScaleToWidth(img image.Image, width int) *image.RGBA {
	b := img.Bounds()
	height := int(float64(b.Dy()) * float64(width) / float64(b.Dx()))
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

// RoundCorners masks img with a rounded rectangle, leaving the corners
// transparent.
func RoundCorners(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	radius := float64(int(float64(min(w, h)) * cornerRatio))

	dc := gg.NewContext(w, h)
	dc.DrawRoundedRectangle(0, 0, float64(w), float64(h), radius)
	dc.Clip()
	dc.DrawImage(img, -b.Min.X, -b.Min.Y)
	return dc.Image()
}

// OverlayLogo returns a copy of code with logo scaled to ratio of its width,
// rounded and centered. code is left untouched. The bool reports whether the
// logo was drawn; a logo that scales below one pixel is skipped.
func OverlayLogo(code image.Image, logo image.Image, ratio float64) (*image.RGBA, bool) {
	cb := code.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, cb.Dx(), cb.Dy()))
	xdraw.Draw(out, out.Bounds(), code, cb.Min, xdraw.Src)

	width := int(math.Floor(float64(cb.Dx()) * ratio))
	if width < 1 || logo.Bounds().Dx() < 1 || logo.Bounds().Dy() < 1 {
		return out, false
	}
	rounded := RoundCorners(ScaleToWidth(logo, width))

	lb := rounded.Bounds()
	x := (cb.Dx() - lb.Dx()) / 2
	y := (cb.Dy() - lb.Dy()) / 2
	xdraw.Draw(out, image.Rect(x, y, x+lb.Dx(), y+lb.Dy()), rounded, lb.Min, xdraw.Over)
	return out, true
}
