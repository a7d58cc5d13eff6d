// Package reports persists analysis results under opaque, shareable identifiers.
//
// Every backend honors the same contract: Save mints a fresh ID and writes the
// serialized result once under Key(id); Load returns nil, nil for an identifier
// that was never saved (or is not an identifier at all), and a *StoreError of
// KindCorrupt when the stored value is not a valid report.
package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/skillbridge/internal/schemas"
	"github.com/jonathan/skillbridge/internal/types"
)

// KeyPrefix namespaces report records in storage shared with unrelated data
const KeyPrefix = "skillbridge_report_"

// ID is an opaque, URL-safe report identifier
type ID string

// NewID returns a fresh random identifier
func NewID() ID {
	return ID(uuid.NewString())
}

// ErrInvalidID is returned by ParseID for strings that cannot be report identifiers
var ErrInvalidID = errors.New("invalid report id")

// ParseID validates s as a report identifier and returns it in canonical form
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return ID(u.String()), nil
}

func (id ID) String() string {
	return string(id)
}

// Key returns the storage key for a report
func Key(id ID) string {
	return KeyPrefix + string(id)
}

// Store is a write-once mapping from ID to AnalysisResult
type Store interface {
	// Save serializes result under a freshly minted ID. On failure no ID is returned.
	Save(ctx context.Context, result *types.AnalysisResult) (ID, error)
	// Load returns the result saved under id, or nil, nil when there is none.
	Load(ctx context.Context, id ID) (*types.AnalysisResult, error)
	// Close releases the backend's resources
	Close() error
}

// Kind classifies a store failure
type Kind string

// Store failure kinds
const (
	// KindCapacityExceeded means the backend refused the write for lack of room
	KindCapacityExceeded Kind = "capacity_exceeded"
	// KindCorrupt means a stored value exists but is not a valid report
	KindCorrupt Kind = "corrupt"
)

// StoreError is a classified store failure
type StoreError struct {
	Kind  Kind
	ID    ID
	Cause error
}

func (e *StoreError) Error() string {
	msg := fmt.Sprintf("report store: %s", e.Kind)
	if e.ID != "" {
		msg += fmt.Sprintf(" (report %s)", e.ID)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err is a StoreError of the given kind
func IsKind(err error, kind Kind) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Kind == kind
}

// ErrCapacity is the cause recorded when a backend's own quota rejects a write
var ErrCapacity = errors.New("storage quota exceeded")

func encode(result *types.AnalysisResult) ([]byte, error) {
	if result == nil {
		return nil, errors.New("cannot save a nil report")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}

// decode reads a stored record. Anything that is not a valid report, including
// parseable JSON that breaks the schema, is KindCorrupt.
func decode(id ID, data []byte) (*types.AnalysisResult, error) {
	if err := schemas.ValidateAnalysisJSON(string(data)); err != nil {
		return nil, &StoreError{Kind: KindCorrupt, ID: id, Cause: err}
	}
	var result types.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &StoreError{Kind: KindCorrupt, ID: id, Cause: err}
	}
	if err := result.Validate(); err != nil {
		return nil, &StoreError{Kind: KindCorrupt, ID: id, Cause: err}
	}
	return &result, nil
}

// canonical returns the canonical form of id and whether it is a valid identifier.
// Invalid identifiers are lookup misses, not errors.
func canonical(id ID) (ID, bool) {
	parsed, err := ParseID(string(id))
	if err != nil {
		return "", false
	}
	return parsed, true
}
