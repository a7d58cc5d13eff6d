package db

import (
	"errors"
	"time"
)

// ErrDuplicateKey is returned when a report key has already been written
var ErrDuplicateKey = errors.New("report key already exists")

// Report is a stored report row. Content is the serialized analysis result as written.
type Report struct {
	Key       string    `json:"key"`
	Content   []byte    `json:"content"`
	SizeBytes int       `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}
