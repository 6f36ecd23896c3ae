package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "services:\n  a:\n    type: redis\n    fqdn: a.svc\n")

	w, err := NewWatcher(path, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	reloaded := make(chan *Config, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = w.Watch(ctx, func(cfg *Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)

	updated := "services:\n  a:\n    type: redis\n    fqdn: a.svc\n  b:\n    type: redis\n    fqdn: b.svc\n"
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if len(cfg.Services) != 2 {
			t.Errorf("expected 2 services after reload, got %d", len(cfg.Services))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	SetConfig(nil)
}

func TestWatcher_ShouldProcessEvent(t *testing.T) {
	w := &Watcher{path: "/config/conf.yml"}

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write to config", fsnotify.Event{Name: "/config/conf.yml", Op: fsnotify.Write}, true},
		{"configmap swap", fsnotify.Event{Name: "/config/..data", Op: fsnotify.Create}, true},
		{"chmod only", fsnotify.Event{Name: "/config/conf.yml", Op: fsnotify.Chmod}, false},
		{"other file", fsnotify.Event{Name: "/config/values.yml", Op: fsnotify.Write}, false},
		{"temp dir", fsnotify.Event{Name: filepath.Join("/config", "..2025_01_01"), Op: fsnotify.Create}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.shouldProcessEvent(tt.event); got != tt.want {
				t.Errorf("shouldProcessEvent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var calls atomic.Int32
	for i := 0; i < 5; i++ {
		d.Trigger(func() { calls.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 debounced call, got %d", got)
	}

	d.Stop()
	d.Trigger(func() { calls.Add(1) })
	time.Sleep(60 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("expected no calls after Stop, got %d", got)
	}
}

func TestWatcher_ReportsInvalidConfig(t *testing.T) {
	path := writeConfig(t, "services:\n  a:\n    type: redis\n    fqdn: a.svc\n")

	w, err := NewWatcher(path, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	failed := make(chan error, 1)
	w.OnError(func(err error) {
		select {
		case failed <- err:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = w.Watch(ctx, func(*Config) { t.Error("callback invoked for invalid config") })
	}()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte("services:\n  a:\n    type: kafka\n    fqdn: a.svc\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-failed:
		if err == nil {
			t.Error("OnError called with nil error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload failure")
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
