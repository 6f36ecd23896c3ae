package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is the outcome of one check of one service.
type Record struct {
	// ID uniquely identifies the check run. It is also logged as check_id.
	ID uuid.UUID `json:"id"`

	// Service is the configured service name
	Service string `json:"service"`

	// Type is the backend type ("rabbitmq", "redis", ...)
	Type string `json:"type"`

	// Healthy is true when every step of the check succeeded
	Healthy bool `json:"healthy"`

	// Stage is the failing step for unhealthy results
	Stage string `json:"stage,omitempty"`

	// Error is the failure message for unhealthy results
	Error string `json:"error,omitempty"`

	// Duration is the wall time of the check
	Duration time.Duration `json:"-"`

	// CheckedAt is when the check finished
	CheckedAt time.Time `json:"checked_at"`
}

// MarshalJSON renders Duration as fractional milliseconds.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	return json.Marshal(struct {
		plain
		DurationMS float64 `json:"duration_ms"`
	}{
		plain:      plain(r),
		DurationMS: float64(r.Duration.Microseconds()) / 1000,
	})
}

// Filter selects records. Zero fields do not filter.
type Filter struct {
	// Service restricts results to one service
	Service string

	// Healthy restricts results to healthy (true) or failed (false) checks
	Healthy *bool

	// Since and Until bound CheckedAt, inclusive
	Since time.Time
	Until time.Time

	// Limit caps the number of records returned. Zero means no cap.
	Limit int
}

// Storage persists check records. Query returns the newest records first.
//
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store saves a record.
	Store(ctx context.Context, record *Record) error

	// Query returns the records matching filter, newest first.
	Query(ctx context.Context, filter Filter) ([]*Record, error)

	// Count returns the number of records matching filter, ignoring Limit.
	Count(ctx context.Context, filter Filter) (int64, error)

	// DeleteBefore removes records checked before t.
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)

	// TrimTo removes the oldest records so that at most n remain.
	TrimTo(ctx context.Context, n int64) (int64, error)

	// Ping reports whether the backend is usable.
	Ping(ctx context.Context) error

	// Close releases resources held by the backend.
	Close() error
}

// StorageError represents an error from a storage backend.
type StorageError struct {
	Backend   string // "memory" or "sqlite"
	Operation string // "store", "query", "delete", ...
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

func (f Filter) matches(r *Record) bool {
	if f.Service != "" && r.Service != f.Service {
		return false
	}
	if f.Healthy != nil && r.Healthy != *f.Healthy {
		return false
	}
	if !f.Since.IsZero() && r.CheckedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && r.CheckedAt.After(f.Until) {
		return false
	}
	return true
}
