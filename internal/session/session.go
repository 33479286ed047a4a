// Package session holds the state the UI layer used to keep in globals:
// the active theme, the current artifact and the transient status labels.
package session

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/basel-ax/neonqr/internal/domain"
)

// Status labels shown next to the generate, save and scan controls
const (
	StatusIdle        = "DOWNLOAD"
	StatusEmpty       = "EMPTY"
	StatusReady       = "READY"
	StatusSaved       = "SAVED!"
	StatusNothing     = "NOTHING TO SAVE"
	StatusError       = "ERROR"
	StatusUnsupported = "UNSUPPORTED"
	StatusSearching   = "SEARCHING"
)

// savedLabelTTL is how long "SAVED!" stays up before the idle label returns
const savedLabelTTL = 2 * time.Second

// Theme is a named color scheme
type Theme struct {
	Name       string
	Background color.RGBA
	Accent     color.RGBA
	Input      color.RGBA
}

// Themes in cycle order
var Themes = []Theme{
	{Name: "CYBER_BLUE", Background: hex(0x050510), Accent: hex(0x00f0ff), Input: hex(0x1e1b4b)},
	{Name: "NEON_PINK", Background: hex(0x1a0510), Accent: hex(0xd946ef), Input: hex(0x380e28)},
	{Name: "TOXIC_GREEN", Background: hex(0x051a05), Accent: hex(0x39ff14), Input: hex(0x0e280e)},
	{Name: "GOLD_MATRIX", Background: hex(0x000000), Accent: hex(0xffd700), Input: hex(0x1c1c1c)},
}

func hex(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// Scanner is the part of the scan poller the session drives
type Scanner interface {
	Start(ctx context.Context) error
	Stop()
	Running() bool
	OnResult(fn func(domain.ScanResult))
}

// Session is a single user's view state. All methods are safe for concurrent
// use; scan results arrive on the poller goroutine.
type Session struct {
	generator domain.ArtifactGenerator
	saver     domain.ArtifactSaver
	scanner   Scanner
	logger    *logrus.Logger
	now       func() time.Time

	mu         sync.Mutex
	theme      int
	artifact   *domain.QRArtifact
	genStatus  string
	saveStatus string
	savedAt    time.Time
	scanText   string
}

// New creates a session. scanner may be nil when the platform cannot scan.
func New(generator domain.ArtifactGenerator, saver domain.ArtifactSaver, scanner Scanner, logger *logrus.Logger) *Session {
	s := &Session{
		generator:  generator,
		saver:      saver,
		scanner:    scanner,
		logger:     logger,
		now:        time.Now,
		saveStatus: StatusIdle,
	}
	if scanner != nil {
		scanner.OnResult(s.handleScan)
	}
	return s
}

// Theme returns the active theme
func (s *Session) Theme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Themes[s.theme]
}

// CycleTheme advances to the next theme, wrapping after the last one
func (s *Session) CycleTheme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = (s.theme + 1) % len(Themes)
	return Themes[s.theme]
}

// Generate renders a new artifact. On failure the previous artifact stays
// current and the status reflects the error class.
func (s *Session) Generate(ctx context.Context, text, caption string) (*domain.QRArtifact, error) {
	artifact, err := s.generator.Generate(ctx, domain.GenerationRequest{Payload: text, Caption: caption})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if errors.Is(err, domain.ErrEmptyPayload) {
			s.genStatus = StatusEmpty
		} else {
			s.logger.WithError(err).Error("Failed to generate QR artifact")
			s.genStatus = StatusError
		}
		return nil, err
	}
	s.artifact = artifact
	s.genStatus = StatusReady
	return artifact, nil
}

// Artifact returns the current artifact, or nil before the first generation
func (s *Session) Artifact() *domain.QRArtifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifact
}

// CanSave reports whether the save control is enabled
func (s *Session) CanSave() bool {
	return s.Artifact() != nil
}

// GenerateStatus returns the label of the last generation attempt
func (s *Session) GenerateStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.genStatus
}

// Save copies the current artifact to the platform save directory
func (s *Session) Save(ctx context.Context) (*domain.SavedCopy, error) {
	artifact := s.Artifact()
	if artifact == nil {
		s.setSaveStatus(StatusNothing)
		return nil, domain.ErrNoArtifact
	}

	saved, err := s.saver.Save(ctx, artifact)
	switch {
	case errors.Is(err, domain.ErrNoArtifact):
		s.setSaveStatus(StatusNothing)
		return nil, err
	case err != nil:
		s.logger.WithError(err).Error("Failed to save QR artifact")
		s.setSaveStatus(StatusError)
		return nil, err
	}

	s.mu.Lock()
	s.saveStatus = StatusSaved
	s.savedAt = s.now()
	s.mu.Unlock()
	return saved, nil
}

// SaveStatus returns the save label. "SAVED!" reverts to the idle label
// after a short while.
func (s *Session) SaveStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveStatus == StatusSaved && s.now().Sub(s.savedAt) >= savedLabelTTL {
		s.saveStatus = StatusIdle
	}
	return s.saveStatus
}

func (s *Session) setSaveStatus(status string) {
	s.mu.Lock()
	s.saveStatus = status
	s.mu.Unlock()
}

// StartScan begins scanning and shows the searching label until the first
// decode. Unsupported platforms report it once through the scan text and the
// error. Starting an active scan changes nothing.
func (s *Session) StartScan(ctx context.Context) error {
	if s.scanner == nil {
		s.setScanText(StatusUnsupported)
		return domain.ErrScanUnsupported
	}
	if s.scanner.Running() {
		return nil
	}
	// set before Start so a decode on the first tick is not overwritten
	s.setScanText(StatusSearching)
	if err := s.scanner.Start(ctx); err != nil {
		if errors.Is(err, domain.ErrScanUnsupported) {
			s.setScanText(StatusUnsupported)
		} else {
			s.logger.WithError(err).Error("Failed to start scanning")
			s.setScanText(StatusError)
		}
		return err
	}
	return nil
}

// StopScan stops scanning. The last decoded text stays visible.
func (s *Session) StopScan() {
	if s.scanner != nil {
		s.scanner.Stop()
	}
	s.mu.Lock()
	if s.scanText == StatusSearching {
		s.scanText = ""
	}
	s.mu.Unlock()
}

// ScanText returns the scan result label
func (s *Session) ScanText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanText
}

func (s *Session) setScanText(text string) {
	s.mu.Lock()
	s.scanText = text
	s.mu.Unlock()
}

func (s *Session) handleScan(result domain.ScanResult) {
	if !result.Found {
		return
	}
	s.setScanText(result.Text)
}
