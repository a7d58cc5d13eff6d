package reports

import (
	"context"
	"sync"

	"github.com/jonathan/skillbridge/internal/types"
)

// MemoryStore keeps reports in process memory with an optional byte quota.
// Like the other backends it counts serialized report bytes only.
type MemoryStore struct {
	mu       sync.RWMutex
	records  map[string][]byte
	used     int64
	maxBytes int64
}

// NewMemoryStore creates an empty store. maxBytes <= 0 means unlimited.
func NewMemoryStore(maxBytes int64) *MemoryStore {
	return &MemoryStore{
		records:  make(map[string][]byte),
		maxBytes: maxBytes,
	}
}

// Save implements Store
func (s *MemoryStore) Save(_ context.Context, result *types.AnalysisResult) (ID, error) {
	data, err := encode(result)
	if err != nil {
		return "", err
	}

	id := NewID()
	size := int64(len(data))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxBytes > 0 && s.used+size > s.maxBytes {
		return "", &StoreError{Kind: KindCapacityExceeded, Cause: ErrCapacity}
	}
	s.records[Key(id)] = data
	s.used += size
	return id, nil
}

// Load implements Store
func (s *MemoryStore) Load(_ context.Context, id ID) (*types.AnalysisResult, error) {
	id, ok := canonical(id)
	if !ok {
		return nil, nil
	}

	s.mu.RLock()
	data, exists := s.records[Key(id)]
	s.mu.RUnlock()
	if !exists {
		return nil, nil
	}
	return decode(id, data)
}

// Len returns the number of stored reports
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
