package monitor

import (
	"context"
	"time"

	"plus-monitoring/general-healthcheck/pkg/config"
	"plus-monitoring/general-healthcheck/pkg/probe"
)

// worker checks one service immediately and then every CheckInterval.
type worker struct {
	name  string
	svc   config.ServiceConfig
	probe probe.Probe
	mgr   *Manager

	cancel context.CancelFunc
	done   chan struct{}
}

func newWorker(name string, svc config.ServiceConfig, p probe.Probe, mgr *Manager) *worker {
	return &worker{
		name:  name,
		svc:   svc,
		probe: p,
		mgr:   mgr,
		done:  make(chan struct{}),
	}
}

func (w *worker) start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	w.cancel = cancel
	go w.run(ctx)
}

func (w *worker) run(ctx context.Context) {
	defer close(w.done)

	st := newStatus(w.name, w.svc)
	interval := w.svc.CheckInterval.Std()
	if interval <= 0 {
		interval = config.DefaultCheckInterval.Std()
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		st = w.mgr.check(ctx, w.name, w.svc, w.probe, st)
		if ctx.Err() != nil {
			return
		}
		w.mgr.setStatus(w, st)

		// The interval is the pause between checks, as slow checks never overlap.
		timer.Reset(interval)
	}
}

// stop cancels the worker and waits for its current check to return.
func (w *worker) stop() {
	if w.cancel != nil {
		w.cancel()
	}
	<-w.done
}
