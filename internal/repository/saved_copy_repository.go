package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/basel-ax/neonqr/internal/domain"
)

// SavedCopyRepository defines the interface for the saved-copy catalog
type SavedCopyRepository interface {
	Insert(ctx context.Context, c *domain.SavedCopy) error
	List(ctx context.Context, limit int) ([]domain.SavedCopy, error)
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]domain.SavedCopy, error)
	Delete(ctx context.Context, id string) error
}

// SQLSavedCopyRepository implements SavedCopyRepository for PostgreSQL and SQLite
type SQLSavedCopyRepository struct {
	db     *sql.DB
	driver string
}

// Open connects to the catalog database and ensures its schema
func Open(ctx context.Context, driver, dsn string) (*SQLSavedCopyRepository, *sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite" {
		// one connection keeps :memory: databases and writes consistent
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := NewSQLSavedCopyRepository(db, driver)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return repo, db, nil
}

// NewSQLSavedCopyRepository creates a catalog repository on an open database
func NewSQLSavedCopyRepository(db *sql.DB, driver string) *SQLSavedCopyRepository {
	return &SQLSavedCopyRepository{db: db, driver: driver}
}

// EnsureSchema creates the catalog table when missing
func (r *SQLSavedCopyRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS saved_copies (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			source_path TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_unix BIGINT NOT NULL
		)
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

// Insert records a saved copy
func (r *SQLSavedCopyRepository) Insert(ctx context.Context, c *domain.SavedCopy) error {
	query := r.rebind(`
		INSERT INTO saved_copies (id, path, source_path, payload, created_unix)
		VALUES (?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query, c.ID, c.Path, c.SourcePath, c.Payload, c.CreatedAt.Unix())
	return err
}

// List returns the newest saved copies first
func (r *SQLSavedCopyRepository) List(ctx context.Context, limit int) ([]domain.SavedCopy, error) {
	query := r.rebind(`
		SELECT id, path, source_path, payload, created_unix
		FROM saved_copies
		ORDER BY created_unix DESC, id ASC
		LIMIT ?
	`)
	return r.query(ctx, query, limit)
}

// ListOlderThan returns saved copies created before cutoff
func (r *SQLSavedCopyRepository) ListOlderThan(ctx context.Context, cutoff time.Time) ([]domain.SavedCopy, error) {
	query := r.rebind(`
		SELECT id, path, source_path, payload, created_unix
		FROM saved_copies
		WHERE created_unix < ?
		ORDER BY created_unix ASC
	`)
	return r.query(ctx, query, cutoff.Unix())
}

// Delete removes a saved copy record
func (r *SQLSavedCopyRepository) Delete(ctx context.Context, id string) error {
	query := r.rebind(`DELETE FROM saved_copies WHERE id = ?`)

	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *SQLSavedCopyRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.SavedCopy, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var copies []domain.SavedCopy
	for rows.Next() {
		var c domain.SavedCopy
		var created int64
		if err := rows.Scan(&c.ID, &c.Path, &c.SourcePath, &c.Payload, &created); err != nil {
			return nil, err
		}
		c.CreatedAt = time.Unix(created, 0).UTC()
		copies = append(copies, c)
	}
	return copies, rows.Err()
}

// rebind converts ? placeholders to $n for PostgreSQL
func (r *SQLSavedCopyRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// NopSavedCopyRepository is used when no catalog is configured
type NopSavedCopyRepository struct{}

func (NopSavedCopyRepository) Insert(context.Context, *domain.SavedCopy) error { return nil }

func (NopSavedCopyRepository) List(context.Context, int) ([]domain.SavedCopy, error) {
	return nil, nil
}

func (NopSavedCopyRepository) ListOlderThan(context.Context, time.Time) ([]domain.SavedCopy, error) {
	return nil, nil
}

func (NopSavedCopyRepository) Delete(context.Context, string) error { return nil }
