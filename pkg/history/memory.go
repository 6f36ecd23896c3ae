package history

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// DefaultMemoryCapacity bounds the memory backend when no max_records is set.
const DefaultMemoryCapacity = 10000

var errClosed = errors.New("storage closed")

// MemoryStorage keeps records in a bounded slice. When full, the oldest
// record is dropped on every Store.
type MemoryStorage struct {
	mu       sync.RWMutex
	records  []*Record // oldest first
	capacity int
	closed   bool
}

// NewMemoryStorage creates a memory backend holding at most capacity records.
// A non-positive capacity selects DefaultMemoryCapacity.
func NewMemoryStorage(capacity int) *MemoryStorage {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStorage{capacity: capacity}
}

// Store appends a copy of record.
func (s *MemoryStorage) Store(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageError("memory", "store", errClosed)
	}

	recordCopy := *record
	s.records = append(s.records, &recordCopy)

	// Records normally arrive in order; keep the slice sorted when they don't.
	if n := len(s.records); n > 1 && s.records[n-1].CheckedAt.Before(s.records[n-2].CheckedAt) {
		sort.SliceStable(s.records, func(i, j int) bool {
			return s.records[i].CheckedAt.Before(s.records[j].CheckedAt)
		})
	}

	if over := len(s.records) - s.capacity; over > 0 {
		s.records = append([]*Record(nil), s.records[over:]...)
	}
	return nil
}

// Query returns copies of the matching records, newest first.
func (s *MemoryStorage) Query(ctx context.Context, filter Filter) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageError("memory", "query", errClosed)
	}

	results := []*Record{}
	for i := len(s.records) - 1; i >= 0; i-- {
		if filter.Limit > 0 && len(results) >= filter.Limit {
			break
		}
		if filter.matches(s.records[i]) {
			recordCopy := *s.records[i]
			results = append(results, &recordCopy)
		}
	}
	return results, nil
}

// Count returns the number of matching records.
func (s *MemoryStorage) Count(ctx context.Context, filter Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, NewStorageError("memory", "count", errClosed)
	}

	var n int64
	for _, r := range s.records {
		if filter.matches(r) {
			n++
		}
	}
	return n, nil
}

// DeleteBefore removes records checked before t.
func (s *MemoryStorage) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, NewStorageError("memory", "delete", errClosed)
	}

	idx := sort.Search(len(s.records), func(i int) bool {
		return !s.records[i].CheckedAt.Before(t)
	})
	s.records = append([]*Record(nil), s.records[idx:]...)
	return int64(idx), nil
}

// TrimTo keeps the newest n records.
func (s *MemoryStorage) TrimTo(ctx context.Context, n int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, NewStorageError("memory", "trim", errClosed)
	}
	if n < 0 {
		n = 0
	}

	over := int64(len(s.records)) - n
	if over <= 0 {
		return 0, nil
	}
	s.records = append([]*Record(nil), s.records[over:]...)
	return over, nil
}

// Ping fails only after Close.
func (s *MemoryStorage) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return NewStorageError("memory", "ping", errClosed)
	}
	return nil
}

// Close drops every record.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.closed = true
	return nil
}
