package reports

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/skillbridge/internal/db"
	"github.com/jonathan/skillbridge/internal/types"
)

// PostgresStore keeps reports in PostgreSQL, a networked backend shared across devices
type PostgresStore struct {
	db       *db.DB
	maxBytes int64
	owned    bool
}

// NewPostgresStore wraps an open database. The caller keeps ownership of database.
func NewPostgresStore(database *db.DB, maxBytes int64) *PostgresStore {
	return &PostgresStore{db: database, maxBytes: maxBytes}
}

// OpenPostgresStore connects to databaseURL, applies the schema, and returns a store
// that closes the connection pool on Close.
func OpenPostgresStore(ctx context.Context, databaseURL string, maxBytes int64) (*PostgresStore, error) {
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return &PostgresStore{db: database, maxBytes: maxBytes, owned: true}, nil
}

// Save implements Store
func (s *PostgresStore) Save(ctx context.Context, result *types.AnalysisResult) (ID, error) {
	data, err := encode(result)
	if err != nil {
		return "", err
	}

	if s.maxBytes > 0 {
		used, err := s.db.TotalReportBytes(ctx)
		if err != nil {
			return "", err
		}
		if used+int64(len(data)) > s.maxBytes {
			return "", &StoreError{Kind: KindCapacityExceeded, Cause: ErrCapacity}
		}
	}

	id := NewID()
	if err := s.db.InsertReport(ctx, Key(id), data); err != nil {
		if db.IsCapacityError(err) {
			return "", &StoreError{Kind: KindCapacityExceeded, Cause: err}
		}
		if errors.Is(err, db.ErrDuplicateKey) {
			return "", fmt.Errorf("report id collision for %s: %w", id, err)
		}
		return "", err
	}
	return id, nil
}

// Load implements Store
func (s *PostgresStore) Load(ctx context.Context, id ID) (*types.AnalysisResult, error) {
	id, ok := canonical(id)
	if !ok {
		return nil, nil
	}

	row, err := s.db.GetReport(ctx, Key(id))
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return decode(id, row.Content)
}

// Close closes the connection pool when the store opened it
func (s *PostgresStore) Close() error {
	if s.owned {
		s.db.Close()
	}
	return nil
}
