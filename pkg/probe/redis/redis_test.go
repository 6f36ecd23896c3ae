package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"plus-monitoring/general-healthcheck/pkg/probe"

	goredis "github.com/redis/go-redis/v9"
)

// fakeClient is a map-backed stand-in for *goredis.Client.
type fakeClient struct {
	data     map[string]string
	counters map[string]int64
	failOn   string
	corrupt  bool
	keepKeys bool
	closed   bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{data: map[string]string{}, counters: map[string]int64{}}
}

var errInjected = errors.New("injected")

func (f *fakeClient) Set(_ context.Context, key string, value any, _ time.Duration) *goredis.StatusCmd {
	if f.failOn == "set" {
		return goredis.NewStatusResult("", errInjected)
	}
	f.data[key] = value.(string)
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Get(_ context.Context, key string) *goredis.StringCmd {
	if f.failOn == "get" {
		return goredis.NewStringResult("", errInjected)
	}
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	if f.corrupt {
		v = "garbage"
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeClient) Incr(_ context.Context, key string) *goredis.IntCmd {
	if f.failOn == "incr" {
		return goredis.NewIntResult(0, errInjected)
	}
	f.counters[key]++
	return goredis.NewIntResult(f.counters[key], nil)
}

func (f *fakeClient) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	if f.failOn == "del" {
		return goredis.NewIntResult(0, errInjected)
	}
	if f.keepKeys {
		return goredis.NewIntResult(0, nil)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			n++
		}
		delete(f.data, k)
		delete(f.counters, k)
	}
	return goredis.NewIntResult(n, nil)
}

func (f *fakeClient) Exists(_ context.Context, keys ...string) *goredis.IntCmd {
	if f.failOn == "exists" {
		return goredis.NewIntResult(0, errInjected)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestProbe_Check(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*fakeClient)
		wantStage string
	}{
		{name: "healthy", setup: func(*fakeClient) {}},
		{name: "set fails", setup: func(f *fakeClient) { f.failOn = "set" }, wantStage: probe.StageSet},
		{name: "get fails", setup: func(f *fakeClient) { f.failOn = "get" }, wantStage: probe.StageGet},
		{name: "value mismatch", setup: func(f *fakeClient) { f.corrupt = true }, wantStage: probe.StageGet},
		{name: "incr fails", setup: func(f *fakeClient) { f.failOn = "incr" }, wantStage: probe.StageIncr},
		{name: "delete fails", setup: func(f *fakeClient) { f.failOn = "del" }, wantStage: probe.StageDelete},
		{name: "key survives delete", setup: func(f *fakeClient) { f.keepKeys = true }, wantStage: probe.StageExists},
		{name: "exists fails", setup: func(f *fakeClient) { f.failOn = "exists" }, wantStage: probe.StageExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := newFakeClient()
			tt.setup(fc)
			p := &Probe{target: probe.Target{Name: "cache"}, client: fc}

			err := p.Check(context.Background())
			if got := probe.StageOf(err); got != tt.wantStage {
				t.Fatalf("Check() error = %v, stage %q, want %q", err, got, tt.wantStage)
			}
			if tt.wantStage == "" {
				if len(fc.data) != 0 || len(fc.counters) != 0 {
					t.Errorf("test keys left behind: %v %v", fc.data, fc.counters)
				}
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		db      string
		wantErr bool
	}{
		{"default db", "", false},
		{"numbered db", "3", false},
		{"negative db", "-1", true},
		{"named db", "cache", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(probe.Target{Name: "cache", FQDN: "localhost", Port: 6379, Database: tt.db, Timeout: time.Second})
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if p != nil {
				_ = p.Close()
			}
		})
	}
}

func TestProbe_Close(t *testing.T) {
	fc := newFakeClient()
	p := &Probe{client: fc}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if !fc.closed {
		t.Error("Close() did not close the client")
	}
}
