package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basel-ax/neonqr/internal/domain"
	"github.com/basel-ax/neonqr/internal/platform"
	"github.com/basel-ax/neonqr/internal/repository"
)

func desktopProvider(dir string) *platform.Provider {
	n := 0
	return platform.New(platform.Desktop, dir, true, platform.RandomNamer("Saved_QR_", func(int) int {
		n++
		return n
	}))
}

func TestSave_WithoutArtifactIsRejected(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "DCIM", "NeonQR")
	svc := NewSaveService(platform.New(platform.Mobile, dest, true, platform.CountingNamer("QR_")), nil, quietLogger())
	ctx := context.Background()

	_, err := svc.Save(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrNoArtifact)

	_, err = svc.Save(ctx, &domain.QRArtifact{Path: filepath.Join(t.TempDir(), "temp_qr.png")})
	assert.ErrorIs(t, err, domain.ErrNoArtifact)

	_, err = os.Stat(dest)
	assert.True(t, os.IsNotExist(err), "destination must stay untouched")
}

func TestSave_TwiceProducesDistinctFiles(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	gen, err := NewArtifactGenerationService(cfg, quietLogger())
	require.NoError(t, err)
	artifact, err := gen.Generate(ctx, domain.GenerationRequest{Payload: "save me"})
	require.NoError(t, err)

	dest := t.TempDir()
	svc := NewSaveService(desktopProvider(dest), nil, quietLogger())

	first, err := svc.Save(ctx, artifact)
	require.NoError(t, err)
	second, err := svc.Save(ctx, artifact)
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "Saved_QR_101.png", filepath.Base(first.Path))

	want, err := os.ReadFile(cfg.TempPath)
	require.NoError(t, err)
	for _, c := range []*domain.SavedCopy{first, second} {
		got, err := os.ReadFile(c.Path)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, "save me", c.Payload)
	}
}

func TestSave_MobileCreatesDirectoryAndCounts(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	gen, err := NewArtifactGenerationService(cfg, quietLogger())
	require.NoError(t, err)
	artifact, err := gen.Generate(ctx, domain.GenerationRequest{Payload: "mobile"})
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "DCIM", "NeonQR")
	svc := NewSaveService(platform.New(platform.Mobile, dest, true, platform.CountingNamer("QR_")), nil, quietLogger())

	first, err := svc.Save(ctx, artifact)
	require.NoError(t, err)
	second, err := svc.Save(ctx, artifact)
	require.NoError(t, err)
	assert.Equal(t, "QR_1.png", filepath.Base(first.Path))
	assert.Equal(t, "QR_2.png", filepath.Base(second.Path))
}

func TestSave_SavesCurrentTempContents(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	gen, err := NewArtifactGenerationService(cfg, quietLogger())
	require.NoError(t, err)

	stale, err := gen.Generate(ctx, domain.GenerationRequest{Payload: "old"})
	require.NoError(t, err)
	_, err = gen.Generate(ctx, domain.GenerationRequest{Payload: "new"})
	require.NoError(t, err)

	svc := NewSaveService(desktopProvider(t.TempDir()), nil, quietLogger())
	saved, err := svc.Save(ctx, stale)
	require.NoError(t, err)

	want, err := os.ReadFile(cfg.TempPath)
	require.NoError(t, err)
	got, err := os.ReadFile(saved.Path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSave_RecordsInCatalog(t *testing.T) {
	ctx := context.Background()
	repo, db, err := repository.Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	cfg := testConfig(t)
	gen, err := NewArtifactGenerationService(cfg, quietLogger())
	require.NoError(t, err)
	artifact, err := gen.Generate(ctx, domain.GenerationRequest{Payload: "catalogued"})
	require.NoError(t, err)

	svc := NewSaveService(desktopProvider(t.TempDir()), repo, quietLogger())
	saved, err := svc.Save(ctx, artifact)
	require.NoError(t, err)

	copies, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, copies, 1)
	assert.Equal(t, saved.ID, copies[0].ID)
	assert.Equal(t, saved.Path, copies[0].Path)
	assert.Equal(t, "catalogued", copies[0].Payload)
}
