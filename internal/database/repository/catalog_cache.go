package repository

import (
	"context"
	"database/sql"
	"time"
)

// CatalogCacheRepo keeps the last downloaded catalog document.
type CatalogCacheRepo struct {
	db *sql.DB
}

func NewCatalogCacheRepo(db *sql.DB) *CatalogCacheRepo { return &CatalogCacheRepo{db: db} }

// LoadCatalog returns the cached document, or nil when nothing is cached.
func (r *CatalogCacheRepo) LoadCatalog(ctx context.Context) ([]byte, error) {
	var body []byte
	err := r.db.QueryRowContext(ctx, `SELECT body FROM catalog_cache WHERE id = 1`).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return body, err
}

// SaveCatalog replaces the cached document.
func (r *CatalogCacheRepo) SaveCatalog(ctx context.Context, data []byte) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO catalog_cache(id, body, fetched_at) VALUES (1, ?, ?)
	ON CONFLICT(id) DO UPDATE SET body=excluded.body, fetched_at=excluded.fetched_at;
	`, data, time.Now().UTC().Truncate(time.Second))
	return err
}

// FetchedAt reports when the cached document was stored.
func (r *CatalogCacheRepo) FetchedAt(ctx context.Context) (*time.Time, error) {
	var at time.Time
	err := r.db.QueryRowContext(ctx, `SELECT fetched_at FROM catalog_cache WHERE id = 1`).Scan(&at)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &at, nil
}
