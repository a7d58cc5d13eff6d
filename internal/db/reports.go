package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// InsertReport writes a report under key. Keys are write-once: an existing key is
// left untouched and ErrDuplicateKey is returned.
func (db *DB) InsertReport(ctx context.Context, key string, content []byte) error {
	tag, err := db.pool.Exec(ctx,
		`INSERT INTO reports (key, content, size_bytes)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO NOTHING`,
		key, content, len(content),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateKey
	}
	return nil
}

// GetReport retrieves a report by key. Returns nil, nil when no row exists.
func (db *DB) GetReport(ctx context.Context, key string) (*Report, error) {
	var r Report
	err := db.pool.QueryRow(ctx,
		`SELECT key, content, size_bytes, created_at FROM reports WHERE key = $1`,
		key,
	).Scan(&r.Key, &r.Content, &r.SizeBytes, &r.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get report %s: %w", key, err)
	}
	return &r, nil
}

// TotalReportBytes returns the summed size of all stored reports
func (db *DB) TotalReportBytes(ctx context.Context) (int64, error) {
	var total int64
	err := db.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(size_bytes), 0) FROM reports`,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum report sizes: %w", err)
	}
	return total, nil
}
