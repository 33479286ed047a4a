package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/basel-ax/neonqr/internal/config"
	"github.com/basel-ax/neonqr/internal/domain"
	"github.com/basel-ax/neonqr/internal/infrastructure/compose"
	"github.com/basel-ax/neonqr/internal/infrastructure/qrencode"
)

// logoRecoveryLevel is used instead of the configured level when a logo is
// overlaid.
const logoRecoveryLevel = "H"

// ArtifactGenerationService implements the domain.ArtifactGenerator interface
type ArtifactGenerationService struct {
	encoder     *qrencode.Encoder
	logoEncoder *qrencode.Encoder
	captioner *compose.Captioner
	config    *config.Config
	logger    *logrus.Logger
	now       func() time.Time
}

// NewArtifactGenerationService creates a new artifact generation service
func NewArtifactGenerationService(cfg *config.Config, logger *logrus.Logger) (*ArtifactGenerationService, error) {
	encoder, err := qrencode.NewEncoder(cfg.QR.RecoveryLevel, cfg.QR.BoxSize, cfg.QR.Border)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}
	// the logo hides the center modules, so codes under a logo get the
	// highest error correction
	logoEncoder, err := qrencode.NewEncoder(logoRecoveryLevel, cfg.QR.BoxSize, cfg.QR.Border)
	if err != nil {
		return nil, fmt.Errorf("failed to create logo encoder: %w", err)
	}

	captioner, err := compose.NewCaptioner(cfg.FontPath, cfg.CaptionFontSize, qrencode.Foreground, qrencode.Background)
	if captioner == nil {
		return nil, fmt.Errorf("failed to create captioner: %w", err)
	}
	if err != nil {
		logger.WithError(err).Warn("Caption font unavailable, using default font")
	}

	return &ArtifactGenerationService{
		encoder:     encoder,
		logoEncoder: logoEncoder,
		captioner:   captioner,
		config:      cfg,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// Generate renders the request and overwrites the temp artifact. Blank
// payloads are rejected before anything is touched on disk.
func (s *ArtifactGenerationService) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.QRArtifact, error) {
	payload := strings.TrimSpace(req.Payload)
	if payload == "" {
		return nil, domain.ErrEmptyPayload
	}

	logo := req.Logo
	if logo == nil {
		logo = s.loadLogo()
	}
	encoder := s.encoder
	if logo != nil {
		encoder = s.logoEncoder
	}

	code, err := encoder.Encode(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}
	artifact := &domain.QRArtifact{
		Path:     s.config.TempPath,
		Payload:  payload,
		CodeSize: code.Bounds().Dx(),
	}

	var img image.Image = code
	if logo != nil {
		img, artifact.HasLogo = compose.OverlayLogo(code, logo, s.config.QR.LogoRatio)
	}

	if caption := strings.TrimSpace(req.Caption); caption != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err = s.captioner.Apply(img, caption)
		if err != nil {
			return nil, fmt.Errorf("failed to draw caption: %w", err)
		}
		artifact.Caption = caption
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	if err := writeFileAtomic(s.config.TempPath, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to write temp artifact: %w", err)
	}

	artifact.Width = img.Bounds().Dx()
	artifact.Height = img.Bounds().Dy()
	artifact.GeneratedAt = s.now()
	s.logger.WithFields(logrus.Fields{
		"path":    artifact.Path,
		"width":   artifact.Width,
		"height":  artifact.Height,
		"logo":    artifact.HasLogo,
		"caption": artifact.Caption != "",
	}).Debug("Generated artifact")
	return artifact, nil
}

// loadLogo returns the configured logo asset, or nil when it is missing or
// unreadable. Both cases degrade to a plain code.
func (s *ArtifactGenerationService) loadLogo() image.Image {
	if s.config.LogoPath == "" {
		return nil
	}
	f, err := os.Open(s.config.LogoPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.WithField("path", s.config.LogoPath).Debug("Logo asset not found, skipping overlay")
		} else {
			s.logger.WithError(err).Warn("Failed to open logo asset")
		}
		return nil
	}
	defer f.Close()

	logo, _, err := image.Decode(f)
	if err != nil {
		s.logger.WithError(err).WithField("path", s.config.LogoPath).Warn("Failed to decode logo asset")
		return nil
	}
	return logo
}

// writeFileAtomic replaces path with data so readers never see a partial
// image.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".neonqr-*.png")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
