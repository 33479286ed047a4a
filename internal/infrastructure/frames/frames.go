// Package frames provides camera frame sources for the scan poller.
package frames

import (
	"context"
	"image"
	"image/draw"
	"sync"

	"github.com/basel-ax/neonqr/internal/domain"
)

// FromImage copies img into an RGBA frame buffer
func FromImage(img image.Image) *domain.Frame {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return &domain.Frame{
		Pix:    rgba.Pix,
		Width:  b.Dx(),
		Height: b.Dy(),
		Stride: rgba.Stride,
	}
}

// StaticSource serves whatever frame was last set, like a texture that the
// camera updates behind our back.
type StaticSource struct {
	mu    sync.RWMutex
	frame *domain.Frame
	reads int
}

// NewStaticSource creates a source holding frame, which may be nil
func NewStaticSource(frame *domain.Frame) *StaticSource {
	return &StaticSource{frame: frame}
}

// Set replaces the current frame
func (s *StaticSource) Set(frame *domain.Frame) {
	s.mu.Lock()
	s.frame = frame
	s.mu.Unlock()
}

// Reads returns how many times Frame was called
func (s *StaticSource) Reads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reads
}

// Frame implements domain.FrameSource
func (s *StaticSource) Frame(ctx context.Context) (*domain.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.frame == nil {
		return nil, domain.ErrNoFrame
	}
	return s.frame, nil
}
