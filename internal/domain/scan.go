package domain

import (
	"context"
	"image"
	"time"
)

// ScanStatus is the visible state of the scan flow
type ScanStatus string

const (
	ScanIdle        ScanStatus = "Idle"
	ScanSearching   ScanStatus = "Searching"
	ScanFound       ScanStatus = "Found"
	ScanUnsupported ScanStatus = "Unsupported"
)

// ScanResult holds the most recent decode
type ScanResult struct {
	Text  string
	Found bool
	At    time.Time
}

// Frame is a raw RGBA camera buffer
type Frame struct {
	Pix    []byte
	Width  int
	Height int
	// Stride is the row length in bytes; zero means 4*Width.
	Stride int
	// BottomUp marks buffers whose first row is the bottom of the picture,
	// as GPU textures usually are.
	BottomUp bool
}

// Image converts the frame into a standard top-down RGBA image
func (f *Frame) Image() (*image.RGBA, error) {
	if f == nil || f.Width <= 0 || f.Height <= 0 {
		return nil, ErrNoFrame
	}
	stride := f.Stride
	if stride == 0 {
		stride = 4 * f.Width
	}
	if stride < 4*f.Width || len(f.Pix) < stride*(f.Height-1)+4*f.Width {
		return nil, ErrShortFrame
	}

	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	rowLen := 4 * f.Width
	for y := 0; y < f.Height; y++ {
		src := y
		if f.BottomUp {
			src = f.Height - 1 - y
		}
		copy(img.Pix[y*img.Stride:y*img.Stride+rowLen], f.Pix[src*stride:src*stride+rowLen])
	}
	return img, nil
}

// FrameSource yields the current camera frame. Implementations must return
// promptly; ErrNoFrame means nothing is available for this tick.
type FrameSource interface {
	Frame(ctx context.Context) (*Frame, error)
}

// Decoder extracts a QR payload from an image
type Decoder interface {
	// Available reports whether decoding works on the running platform
	Available() bool
	// Decode returns ErrNoCode when the image holds no readable code
	Decode(img image.Image) (string, error)
}
