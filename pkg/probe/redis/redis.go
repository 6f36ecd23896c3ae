// Package redis checks a Redis server with a set/get/incr/delete round trip.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"plus-monitoring/general-healthcheck/pkg/probe"

	goredis "github.com/redis/go-redis/v9"
)

const (
	// TestKey holds TestValue for the duration of one check.
	TestKey   = "DEVOPS_TEST_KEY"
	TestValue = "DEVOPS_TEST_VALUE"

	// CounterKey is incremented and removed on every check.
	CounterKey = "SRE_TEST_COUNTER"

	// keyTTL bounds the lifetime of test keys when a check dies half-way.
	keyTTL = 5 * time.Minute
)

// client is the subset of *goredis.Client used by the probe.
type client interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Get(ctx context.Context, key string) *goredis.StringCmd
	Incr(ctx context.Context, key string) *goredis.IntCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
	Exists(ctx context.Context, keys ...string) *goredis.IntCmd
	Close() error
}

// Probe runs the key round trip against one Redis server. go-redis pools and
// redials connections itself, so the client lives as long as the probe.
type Probe struct {
	target probe.Target
	client client
}

// New creates a Redis probe. Authentication.db selects the database index.
func New(t probe.Target) (probe.Probe, error) {
	db := 0
	if t.Database != "" {
		n, err := strconv.Atoi(t.Database)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid redis db %q", t.Database)
		}
		db = n
	}

	c := goredis.NewClient(&goredis.Options{
		Addr:         t.Address(),
		Username:     t.Username,
		Password:     t.Password,
		DB:           db,
		ClientName:   "general-healthcheck",
		DialTimeout:  t.Timeout,
		ReadTimeout:  t.Timeout,
		WriteTimeout: t.Timeout,
		PoolSize:     2,
	})
	return &Probe{target: t, client: c}, nil
}

// Check sets the test key, reads it back, increments the counter, deletes
// both keys and verifies the test key is gone.
func (p *Probe) Check(ctx context.Context) error {
	name := p.target.Name

	if err := p.client.Set(ctx, TestKey, TestValue, keyTTL).Err(); err != nil {
		return probe.Fail(name, probe.StageSet, err)
	}

	value, err := p.client.Get(ctx, TestKey).Result()
	if err != nil {
		return probe.Fail(name, probe.StageGet, err)
	}
	if value != TestValue {
		return probe.Fail(name, probe.StageGet, fmt.Errorf("value mismatch for %s: got %q", TestKey, value))
	}

	counter, err := p.client.Incr(ctx, CounterKey).Result()
	if err != nil {
		return probe.Fail(name, probe.StageIncr, err)
	}
	slog.Debug("incremented counter", "service", name, "value", counter)

	if err := p.client.Del(ctx, TestKey, CounterKey).Err(); err != nil {
		return probe.Fail(name, probe.StageDelete, err)
	}

	exists, err := p.client.Exists(ctx, TestKey).Result()
	if err != nil {
		return probe.Fail(name, probe.StageExists, err)
	}
	if exists != 0 {
		return probe.Fail(name, probe.StageExists, fmt.Errorf("%s still exists after delete", TestKey))
	}
	return nil
}

// Close closes the client and its connection pool.
func (p *Probe) Close() error {
	return p.client.Close()
}
