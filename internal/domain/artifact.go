package domain

import (
	"context"
	"image"
	"time"
)

// GenerationRequest represents one user-submitted generate action
type GenerationRequest struct {
	Payload string
	Caption string
	// Logo overrides the configured logo asset when set.
	Logo image.Image
}

// QRArtifact describes the rendered image currently held at the temp path
type QRArtifact struct {
	Path        string
	Payload     string
	Caption     string
	Width       int
	Height      int
	CodeSize    int
	HasLogo     bool
	GeneratedAt time.Time
}

// SavedCopy is a persistent copy of the temp artifact
type SavedCopy struct {
	ID         string
	Path       string
	SourcePath string
	Payload    string
	CreatedAt  time.Time
}

// ArtifactGenerator defines the generation flow
type ArtifactGenerator interface {
	// Generate renders the request and overwrites the temp artifact
	Generate(ctx context.Context, req GenerationRequest) (*QRArtifact, error)
}

// ArtifactSaver copies the current temp artifact to persistent storage.
// A nil artifact means nothing was generated yet.
type ArtifactSaver interface {
	Save(ctx context.Context, artifact *QRArtifact) (*SavedCopy, error)
}
