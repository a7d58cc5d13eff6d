package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/skillbridge/internal/types"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS reports (
	key TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	size_bytes INTEGER NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore keeps reports in a local SQLite file, the device-scoped backend
type SQLiteStore struct {
	db       *sql.DB
	maxBytes int64
}

// NewSQLiteStore opens (creating if needed) the database at path. Use ":memory:"
// for a throwaway store. maxBytes <= 0 means unlimited.
func NewSQLiteStore(path string, maxBytes int64) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; also keeps ":memory:" on a single connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteStore{db: db, maxBytes: maxBytes}, nil
}

// Save implements Store
func (s *SQLiteStore) Save(ctx context.Context, result *types.AnalysisResult) (ID, error) {
	data, err := encode(result)
	if err != nil {
		return "", err
	}
	id := NewID()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if s.maxBytes > 0 {
		var used int64
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(SUM(size_bytes), 0) FROM reports`).Scan(&used); err != nil {
			return "", fmt.Errorf("failed to read storage usage: %w", err)
		}
		if used+int64(len(data)) > s.maxBytes {
			return "", &StoreError{Kind: KindCapacityExceeded, Cause: ErrCapacity}
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reports (key, content, size_bytes) VALUES (?, ?, ?)`,
		Key(id), string(data), len(data),
	)
	if err == nil {
		err = tx.Commit()
	}
	if err != nil {
		if isSQLiteFull(err) {
			return "", &StoreError{Kind: KindCapacityExceeded, Cause: err}
		}
		return "", fmt.Errorf("failed to save report: %w", err)
	}
	return id, nil
}

// Load implements Store
func (s *SQLiteStore) Load(ctx context.Context, id ID) (*types.AnalysisResult, error) {
	id, ok := canonical(id)
	if !ok {
		return nil, nil
	}

	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM reports WHERE key = ?`, Key(id)).Scan(&content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load report %s: %w", id, err)
	}
	return decode(id, []byte(content))
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func isSQLiteFull(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code()&0xff == sqlite3.SQLITE_FULL
}
