package sqlprobe

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"plus-monitoring/general-healthcheck/pkg/probe"

	_ "github.com/mattn/go-sqlite3"
)

func sqliteOpener(opens *int) Opener {
	return func() (*sql.DB, error) {
		*opens++
		return sql.Open("sqlite3", ":memory:")
	}
}

func TestProbe_Check(t *testing.T) {
	var opens int
	p := New(probe.Target{Name: "db", Type: "mysql"}, sqliteOpener(&opens))
	defer p.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := p.Check(ctx); err != nil {
			t.Fatalf("Check() #%d error = %v", i, err)
		}
	}
	if opens != 1 {
		t.Errorf("opens = %d, want 1 while checks succeed", opens)
	}
}

func TestProbe_ReconnectsAfterFailure(t *testing.T) {
	var opens int
	p := New(probe.Target{Name: "db"}, sqliteOpener(&opens))
	defer p.Close()

	ctx := context.Background()
	if err := p.Check(ctx); err != nil {
		t.Fatal(err)
	}

	// Closing the pool makes the next query fail.
	_ = p.db.Close()
	err := p.Check(ctx)
	if got := probe.StageOf(err); got != probe.StageQuery {
		t.Fatalf("Check() on closed pool: error = %v, stage %q", err, got)
	}

	if err := p.Check(ctx); err != nil {
		t.Fatalf("Check() after failure error = %v", err)
	}
	if opens != 2 {
		t.Errorf("opens = %d, want 2 (forced reconnect after failure)", opens)
	}
}

func TestProbe_OpenFails(t *testing.T) {
	p := New(probe.Target{Name: "db"}, func() (*sql.DB, error) {
		return nil, errors.New("dial tcp: connection refused")
	})

	err := p.Check(context.Background())
	if got := probe.StageOf(err); got != probe.StageConnect {
		t.Errorf("stage = %q, want %q (err %v)", got, probe.StageConnect, err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() without pool = %v", err)
	}
}

func TestProbe_PingFails(t *testing.T) {
	p := New(probe.Target{Name: "db"}, func() (*sql.DB, error) {
		return sql.Open("sqlite3", "file:/nonexistent-dir/x.db?mode=ro")
	})

	err := p.Check(context.Background())
	if got := probe.StageOf(err); got != probe.StageConnect {
		t.Errorf("stage = %q, want %q (err %v)", got, probe.StageConnect, err)
	}
}
