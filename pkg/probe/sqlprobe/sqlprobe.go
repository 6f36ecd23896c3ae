// Package sqlprobe implements the SELECT 1 check shared by the SQL backends.
package sqlprobe

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"plus-monitoring/general-healthcheck/pkg/probe"
)

// Query is the statement every check runs.
const Query = "SELECT 1"

// Opener creates the connection pool for a backend.
type Opener func() (*sql.DB, error)

// Probe runs Query over database/sql. After a failed check the pool is
// closed and reopened before the next attempt so a server restart or
// failover never leaves the probe stuck on dead connections.
type Probe struct {
	target probe.Target
	open   Opener

	mu      sync.Mutex
	db      *sql.DB
	healthy bool
}

// New creates a probe. The pool is opened on the first check.
func New(t probe.Target, open Opener) *Probe {
	return &Probe{target: t, open: open}
}

// Check runs Query and requires it to return 1.
func (p *Probe) Check(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.check(ctx)
	p.healthy = err == nil
	return err
}

func (p *Probe) check(ctx context.Context) error {
	name := p.target.Name

	if p.db == nil || !p.healthy {
		if err := p.reconnect(ctx); err != nil {
			return probe.Fail(name, probe.StageConnect, err)
		}
	}

	var result int
	if err := p.db.QueryRowContext(ctx, Query).Scan(&result); err != nil {
		return probe.Fail(name, probe.StageQuery, err)
	}
	if result != 1 {
		return probe.Fail(name, probe.StageQuery, fmt.Errorf("%s returned %d", Query, result))
	}
	return nil
}

func (p *Probe) reconnect(ctx context.Context) error {
	if p.db != nil {
		_ = p.db.Close()
		p.db = nil
	}

	db, err := p.open()
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	p.db = db
	slog.Debug("opened database connection", "service", p.target.Name, "type", p.target.Type)
	return nil
}

// Close closes the pool.
func (p *Probe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}
