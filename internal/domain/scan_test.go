package domain

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameImage_TopDown(t *testing.T) {
	f := &Frame{Width: 2, Height: 2, Pix: []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	}}

	img, err := f.Image()
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(1, 1))
}

func TestFrameImage_BottomUpWithStride(t *testing.T) {
	// two pixels per row plus four bytes of padding
	f := &Frame{Width: 2, Height: 2, Stride: 12, BottomUp: true, Pix: []byte{
		1, 1, 1, 255, 2, 2, 2, 255, 9, 9, 9, 9,
		3, 3, 3, 255, 4, 4, 4, 255, 9, 9, 9, 9,
	}}

	img, err := f.Image()
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{3, 3, 3, 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{2, 2, 2, 255}, img.RGBAAt(1, 1))
}

func TestFrameImage_Invalid(t *testing.T) {
	var nilFrame *Frame
	_, err := nilFrame.Image()
	assert.ErrorIs(t, err, ErrNoFrame)

	_, err = (&Frame{Width: 4, Height: 4, Pix: make([]byte, 10)}).Image()
	assert.ErrorIs(t, err, ErrShortFrame)
}
