package zxing

import (
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/basel-ax/neonqr/internal/domain"
)

// Decoder reads QR codes with the pure-Go zxing port
type Decoder struct {
	hints map[gozxing.DecodeHintType]interface{}
}

// NewDecoder creates a decoder that spends extra effort per frame
func NewDecoder() *Decoder {
	return &Decoder{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Available is always true: the decoder has no native dependencies.
func (d *Decoder) Available() bool {
	return true
}

// Decode implements domain.Decoder
func (d *Decoder) Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("creating bitmap: %w", err)
	}

	result, err := qrcode.NewQRCodeReader().Decode(bmp, d.hints)
	if err != nil {
		// zxing reports not-found, checksum and format failures alike;
		// for a camera frame they all mean nothing readable was seen.
		return "", fmt.Errorf("%w: %v", domain.ErrNoCode, err)
	}
	if result.GetText() == "" {
		return "", domain.ErrNoCode
	}
	return result.GetText(), nil
}

// Unavailable is a decoder for platforms where scanning is switched off
type Unavailable struct{}

// Available implements domain.Decoder
func (Unavailable) Available() bool { return false }

// Decode implements domain.Decoder
func (Unavailable) Decode(image.Image) (string, error) {
	return "", domain.ErrScanUnsupported
}
