package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/skillbridge/internal/types"
	"go.uber.org/zap"
)

// Backend names a Store implementation
type Backend string

// Supported backends
const (
	BackendMemory   Backend = "memory"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendS3       Backend = "s3"
)

// Backends lists every supported backend
var Backends = []Backend{BackendMemory, BackendSQLite, BackendPostgres, BackendS3}

// IsValid reports whether b names a supported backend
func (b Backend) IsValid() bool {
	for _, v := range Backends {
		if b == v {
			return true
		}
	}
	return false
}

// Config selects and configures a backend
type Config struct {
	Backend     Backend
	MaxBytes    int64
	SQLitePath  string
	DatabaseURL string
	S3          S3Config
}

// Open creates the configured store, wrapped so every operation is logged
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		store Store
		err   error
	)

	switch cfg.Backend {
	case BackendMemory, "":
		store = NewMemoryStore(cfg.MaxBytes)
	case BackendSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("sqlite path is required")
		}
		store, err = NewSQLiteStore(cfg.SQLitePath, cfg.MaxBytes)
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("database URL is required for the postgres backend")
		}
		store, err = OpenPostgresStore(ctx, cfg.DatabaseURL, cfg.MaxBytes)
	case BackendS3:
		store, err = NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown report backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	backend := cfg.Backend
	if backend == "" {
		backend = BackendMemory
	}
	return WithLogging(store, logger.With(zap.String("backend", string(backend)))), nil
}

// WithLogging wraps a store so each Save and Load is logged
func WithLogging(store Store, logger *zap.Logger) Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &loggedStore{Store: store, logger: logger}
}

type loggedStore struct {
	Store
	logger *zap.Logger
}

func (s *loggedStore) Save(ctx context.Context, result *types.AnalysisResult) (ID, error) {
	start := time.Now()
	id, err := s.Store.Save(ctx, result)
	if err != nil {
		s.logger.Warn("report save failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return "", err
	}
	s.logger.Info("report saved", zap.String("report_id", id.String()), zap.Duration("elapsed", time.Since(start)))
	return id, nil
}

func (s *loggedStore) Load(ctx context.Context, id ID) (*types.AnalysisResult, error) {
	start := time.Now()
	result, err := s.Store.Load(ctx, id)
	switch {
	case err != nil:
		s.logger.Warn("report load failed", zap.String("report_id", id.String()), zap.Error(err))
	case result == nil:
		s.logger.Info("report not found", zap.String("report_id", id.String()))
	default:
		s.logger.Debug("report loaded", zap.String("report_id", id.String()), zap.Duration("elapsed", time.Since(start)))
	}
	return result, err
}
