package history

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newRecord(service string, healthy bool, offset time.Duration) *Record {
	r := &Record{
		ID:        uuid.New(),
		Service:   service,
		Type:      "redis",
		Healthy:   healthy,
		Duration:  12 * time.Millisecond,
		CheckedAt: base.Add(offset),
	}
	if !healthy {
		r.Stage = "get"
		r.Error = "connection refused"
	}
	return r
}

// backends returns one fresh instance of every Storage implementation.
func backends(t *testing.T) map[string]Storage {
	t.Helper()

	out := map[string]Storage{"memory": NewMemoryStorage(0)}
	for _, driver := range []string{DriverCGO, DriverPureGo} {
		s, err := NewSQLiteStorage(SQLiteConfig{
			Path:   filepath.Join(t.TempDir(), "history.db"),
			Driver: driver,
		})
		if err != nil {
			t.Fatalf("NewSQLiteStorage(%s) error = %v", driver, err)
		}
		out["sqlite/"+driver] = s
	}
	for _, s := range out {
		t.Cleanup(func() { _ = s.Close() })
	}
	return out
}

func seed(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()
	for i, r := range []*Record{
		newRecord("cache", true, 0),
		newRecord("queue", false, time.Minute),
		newRecord("cache", false, 2*time.Minute),
		newRecord("cache", true, 3*time.Minute),
	} {
		if err := s.Store(ctx, r); err != nil {
			t.Fatalf("Store() #%d error = %v", i, err)
		}
	}
}

func TestStorage_Query(t *testing.T) {
	unhealthy := false

	tests := []struct {
		name     string
		filter   Filter
		wantLen  int
		wantHead time.Duration
	}{
		{"all newest first", Filter{}, 4, 3 * time.Minute},
		{"by service", Filter{Service: "cache"}, 3, 3 * time.Minute},
		{"failed only", Filter{Healthy: &unhealthy}, 2, 2 * time.Minute},
		{"limit", Filter{Limit: 2}, 2, 3 * time.Minute},
		{"since", Filter{Since: base.Add(90 * time.Second)}, 2, 3 * time.Minute},
		{"until", Filter{Until: base.Add(time.Minute)}, 2, time.Minute},
		{"no match", Filter{Service: "db"}, 0, 0},
	}

	for name, s := range backends(t) {
		seed(t, s)
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				got, err := s.Query(context.Background(), tt.filter)
				if err != nil {
					t.Fatalf("Query() error = %v", err)
				}
				if len(got) != tt.wantLen {
					t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
				}
				if tt.wantLen > 0 && !got[0].CheckedAt.Equal(base.Add(tt.wantHead)) {
					t.Errorf("first record at %v, want %v", got[0].CheckedAt, base.Add(tt.wantHead))
				}
				for i := 1; i < len(got); i++ {
					if got[i].CheckedAt.After(got[i-1].CheckedAt) {
						t.Errorf("records not newest first at %d", i)
					}
				}

				count, err := s.Count(context.Background(), tt.filter)
				if err != nil {
					t.Fatalf("Count() error = %v", err)
				}
				if tt.filter.Limit == 0 && count != int64(tt.wantLen) {
					t.Errorf("Count() = %d, want %d", count, tt.wantLen)
				}
			})
		}
	}
}

func TestStorage_RoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			want := newRecord("queue", false, 0)
			if err := s.Store(context.Background(), want); err != nil {
				t.Fatal(err)
			}

			got, err := s.Query(context.Background(), Filter{})
			if err != nil || len(got) != 1 {
				t.Fatalf("Query() = %v, %v", got, err)
			}
			r := got[0]
			if r.ID != want.ID || r.Service != want.Service || r.Type != want.Type ||
				r.Healthy != want.Healthy || r.Stage != want.Stage || r.Error != want.Error ||
				r.Duration != want.Duration || !r.CheckedAt.Equal(want.CheckedAt) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", r, want)
			}
		})
	}
}

func TestStorage_DeleteBeforeAndTrim(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, s)
			ctx := context.Background()

			n, err := s.DeleteBefore(ctx, base.Add(time.Minute))
			if err != nil || n != 1 {
				t.Fatalf("DeleteBefore() = %d, %v; want 1", n, err)
			}

			n, err = s.TrimTo(ctx, 2)
			if err != nil || n != 1 {
				t.Fatalf("TrimTo(2) = %d, %v; want 1", n, err)
			}

			remaining, _ := s.Query(ctx, Filter{})
			if len(remaining) != 2 || !remaining[1].CheckedAt.Equal(base.Add(2*time.Minute)) {
				t.Errorf("unexpected remaining records: %+v", remaining)
			}

			if n, _ := s.TrimTo(ctx, 10); n != 0 {
				t.Errorf("TrimTo above size removed %d", n)
			}
			if err := s.Ping(ctx); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
		})
	}
}

func TestMemoryStorage_Capacity(t *testing.T) {
	s := NewMemoryStorage(3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = s.Store(ctx, newRecord("cache", true, time.Duration(i)*time.Second))
	}

	got, _ := s.Query(ctx, Filter{})
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if !got[2].CheckedAt.Equal(base.Add(2 * time.Second)) {
		t.Errorf("oldest kept = %v, want base+2s", got[2].CheckedAt)
	}
}

func TestMemoryStorage_OutOfOrder(t *testing.T) {
	s := NewMemoryStorage(0)
	ctx := context.Background()
	_ = s.Store(ctx, newRecord("a", true, time.Minute))
	_ = s.Store(ctx, newRecord("b", true, 0))

	got, _ := s.Query(ctx, Filter{})
	if got[0].Service != "a" {
		t.Errorf("newest = %q, want a", got[0].Service)
	}
}

func TestMemoryStorage_Closed(t *testing.T) {
	s := NewMemoryStorage(0)
	_ = s.Close()

	err := s.Store(context.Background(), newRecord("a", true, 0))
	var se *StorageError
	if !errors.As(err, &se) || se.Backend != "memory" || se.Operation != "store" {
		t.Errorf("Store() after Close = %v", err)
	}
	if s.Ping(context.Background()) == nil {
		t.Error("Ping() after Close should fail")
	}
}

func TestNewSQLiteStorage_UnknownDriver(t *testing.T) {
	_, err := NewSQLiteStorage(SQLiteConfig{Path: filepath.Join(t.TempDir(), "x.db"), Driver: "postgres"})
	if err == nil || !strings.Contains(err.Error(), "unknown sqlite driver") {
		t.Errorf("error = %v, want unknown driver", err)
	}
}

func TestNewSQLiteStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	s, err := NewSQLiteStorage(SQLiteConfig{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Store(context.Background(), newRecord("cache", true, 0))
	_ = s.Close()

	s, err = NewSQLiteStorage(SQLiteConfig{Path: path})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	if n, _ := s.Count(context.Background(), Filter{}); n != 1 {
		t.Errorf("Count() after reopen = %d, want 1", n)
	}
}

func TestRecord_MarshalJSON(t *testing.T) {
	r := newRecord("cache", false, 0)
	r.Duration = 1500 * time.Microsecond

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out["duration_ms"] != 1.5 {
		t.Errorf("duration_ms = %v, want 1.5", out["duration_ms"])
	}
	if out["service"] != "cache" || out["stage"] != "get" || out["id"] != r.ID.String() {
		t.Errorf("unexpected JSON: %s", data)
	}
}
