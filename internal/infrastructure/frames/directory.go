package frames

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/basel-ax/neonqr/internal/domain"
)

// DirectorySource serves the newest image in a directory. An external
// capture tool drops snapshots there; older files are ignored.
type DirectorySource struct {
	dir string

	mu      sync.Mutex
	path    string
	modTime time.Time
	cached  *domain.Frame
}

// NewDirectorySource creates a source watching dir
func NewDirectorySource(dir string) *DirectorySource {
	return &DirectorySource{dir: dir}
}

// Frame implements domain.FrameSource
func (s *DirectorySource) Frame(ctx context.Context) (*domain.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, modTime, err := s.newest()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if path == s.path && modTime.Equal(s.modTime) && s.cached != nil {
		return s.cached, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		// a capture tool may still be writing the file
		return nil, domain.ErrNoFrame
	}

	s.path, s.modTime, s.cached = path, modTime, FromImage(img)
	return s.cached, nil
}

func (s *DirectorySource) newest() (string, time.Time, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", time.Time{}, domain.ErrNoFrame
		}
		return "", time.Time{}, fmt.Errorf("read frames dir: %w", err)
	}

	var best string
	var bestTime time.Time
	for _, e := range entries {
		if e.IsDir() || !isImage(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestTime) {
			best, bestTime = filepath.Join(s.dir, e.Name()), info.ModTime()
		}
	}
	if best == "" {
		return "", time.Time{}, domain.ErrNoFrame
	}
	return best, bestTime, nil
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}
