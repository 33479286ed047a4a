package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basel-ax/neonqr/internal/domain"
)

func openMemory(t *testing.T) *SQLSavedCopyRepository {
	t.Helper()
	repo, db, err := Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repo
}

func TestSQLSavedCopyRepository_InsertListDelete(t *testing.T) {
	ctx := context.Background()
	repo := openMemory(t)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Insert(ctx, &domain.SavedCopy{
			ID:         id,
			Path:       "/saved/" + id + ".png",
			SourcePath: "/tmp/temp_qr.png",
			Payload:    "payload-" + id,
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		}))
	}

	copies, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, copies, 2)
	assert.Equal(t, "c", copies[0].ID)
	assert.Equal(t, "b", copies[1].ID)
	assert.Equal(t, base.Add(2*time.Hour), copies[0].CreatedAt)
	assert.Equal(t, "payload-c", copies[0].Payload)

	old, err := repo.ListOlderThan(ctx, base.Add(90*time.Minute))
	require.NoError(t, err)
	require.Len(t, old, 2)
	assert.Equal(t, "a", old[0].ID)

	require.NoError(t, repo.Delete(ctx, "a"))
	copies, err = repo.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, copies, 2)
}

func TestRebind(t *testing.T) {
	pg := NewSQLSavedCopyRepository(nil, "postgres")
	assert.Equal(t, "UPDATE x SET a = $1 WHERE b = $2", pg.rebind("UPDATE x SET a = ? WHERE b = ?"))

	lite := NewSQLSavedCopyRepository(nil, "sqlite")
	assert.Equal(t, "SELECT ?", lite.rebind("SELECT ?"))
}

func TestNopSavedCopyRepository(t *testing.T) {
	var repo SavedCopyRepository = NopSavedCopyRepository{}
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, &domain.SavedCopy{ID: "x"}))
	copies, err := repo.List(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, copies)
}
