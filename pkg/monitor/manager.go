package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"plus-monitoring/general-healthcheck/pkg/config"
	"plus-monitoring/general-healthcheck/pkg/history"
	"plus-monitoring/general-healthcheck/pkg/probe"
	"plus-monitoring/general-healthcheck/pkg/telemetry/metrics"
	"plus-monitoring/general-healthcheck/pkg/telemetry/tracing"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ProbeFactory creates the probe for a configured service.
type ProbeFactory func(name string, svc config.ServiceConfig) (probe.Probe, error)

// Options configures a Manager.
type Options struct {
	// NewProbe creates probes. Required.
	NewProbe ProbeFactory

	// Metrics receives every check result. Required.
	Metrics *metrics.Collector

	// History stores every check result when non-nil.
	History history.Storage

	// ThreadCountInterval is how often the thread gauge is refreshed.
	// Default: 5s
	ThreadCountInterval time.Duration

	// Tracer receives one span per check. Defaults to a noop tracer.
	Tracer *tracing.Tracer

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Manager runs one check worker per configured service.
//
// Manager is safe for concurrent use. Apply may be called at any time after
// Start to replace the service set.
type Manager struct {
	newProbe       ProbeFactory
	metrics        *metrics.Collector
	history        history.Storage
	threadInterval time.Duration
	tracer         *tracing.Tracer
	logger         *slog.Logger

	applyMu sync.Mutex

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	workers map[string]*worker
	status  map[string]ServiceStatus
	// failed holds services whose probe could not be created. They own
	// metric series but no worker.
	failed  map[string]config.ServiceConfig
	loop    sync.WaitGroup
	started bool
}

// New creates a manager. No worker runs until Start.
func New(opts Options) *Manager {
	if opts.ThreadCountInterval <= 0 {
		opts.ThreadCountInterval = config.DefaultThreadCountInterval.Std()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Tracer == nil {
		opts.Tracer = tracing.Noop()
	}

	return &Manager{
		newProbe:       opts.NewProbe,
		metrics:        opts.Metrics,
		history:        opts.History,
		threadInterval: opts.ThreadCountInterval,
		tracer:         opts.Tracer,
		logger:         opts.Logger.With("component", "monitor"),
		workers:        make(map[string]*worker),
		status:         make(map[string]ServiceStatus),
		failed:         make(map[string]config.ServiceConfig),
	}
}

// Start launches a worker per service and the thread count loop. Workers stop
// when ctx is cancelled or Stop is called.
func (m *Manager) Start(ctx context.Context, services map[string]config.ServiceConfig) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return errors.New("monitor already started")
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.started = true
	m.mu.Unlock()

	m.loop.Add(1)
	go m.countThreads()

	return m.Apply(services)
}

// Apply reconciles the running workers with services. Workers whose service
// was removed or changed are stopped and their metric series deleted; new or
// changed services get a fresh worker; unchanged workers keep running.
//
// Services whose probe cannot be created are reported in the returned error
// and marked unhealthy; the remaining services are still applied.
func (m *Manager) Apply(services map[string]config.ServiceConfig) error {
	m.applyMu.Lock()
	defer m.applyMu.Unlock()

	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return errors.New("monitor not started")
	}

	var stale []*worker
	kept := 0
	for name, w := range m.workers {
		if svc, ok := services[name]; ok && svc == w.svc {
			kept++
			continue
		}
		stale = append(stale, w)
		delete(m.workers, name)
		delete(m.status, name)
	}
	for name, svc := range m.failed {
		if next, ok := services[name]; !ok || next != svc {
			m.metrics.DeleteService(labelsFor(name, svc))
		}
		delete(m.failed, name)
	}
	for name := range m.status {
		if _, ok := m.workers[name]; !ok {
			delete(m.status, name)
		}
	}
	m.mu.Unlock()

	// Workers take m.mu to publish status, so they are stopped unlocked.
	for _, w := range stale {
		m.retire(w)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	started := 0
	for _, name := range sortedNames(services) {
		if _, running := m.workers[name]; running {
			continue
		}
		svc := services[name]

		p, err := m.newProbe(name, svc)
		if err != nil {
			errs = append(errs, err)
			st := newStatus(name, svc)
			st.Checked = true
			st.Stage = metrics.StageCreate
			st.Error = err.Error()
			m.status[name] = st
			m.failed[name] = svc
			m.metrics.RecordCreateFailure(labelsFor(name, svc))
			continue
		}

		w := newWorker(name, svc, p, m)
		m.workers[name] = w
		m.status[name] = newStatus(name, svc)
		w.start(m.ctx)
		started++
	}

	m.metrics.SetThreadCount(len(m.workers) + 1)
	m.logger.Info("service set applied",
		"started", started,
		"stopped", len(stale),
		"unchanged", kept,
		"failed", len(errs),
	)

	return errors.Join(errs...)
}

// retire stops w, closes its probe and removes its series.
func (m *Manager) retire(w *worker) {
	w.stop()
	if err := w.probe.Close(); err != nil {
		m.logger.Warn("failed to close probe", "service", w.name, "error", err)
	}
	m.metrics.DeleteService(labelsFor(w.name, w.svc))
}

// Stop cancels every worker, closes their probes and waits for them to exit.
// Metric series are left in place so a final scrape still sees them.
func (m *Manager) Stop() {
	m.applyMu.Lock()
	defer m.applyMu.Unlock()

	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.cancel()
	workers := m.workers
	m.workers = make(map[string]*worker)
	m.started = false
	m.mu.Unlock()

	for name, w := range workers {
		w.stop()
		if err := w.probe.Close(); err != nil {
			m.logger.Warn("failed to close probe", "service", name, "error", err)
		}
	}

	m.loop.Wait()
	m.logger.Info("monitor stopped")
}

// Status returns the latest state of every service, sorted by name.
func (m *Manager) Status() []ServiceStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ServiceStatus, 0, len(m.status))
	for _, st := range m.status {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Ready reports whether every configured service has completed at least one
// check, that is, the first round is finished.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return false
	}
	for _, st := range m.status {
		if !st.Checked {
			return false
		}
	}
	return true
}

// ActiveWorkers returns the number of running check workers.
func (m *Manager) ActiveWorkers() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.workers)
}

// RunOnce checks every service once, concurrently, and returns the results
// sorted by name. Probes are created and closed within the call. The error
// is non-nil when at least one service is unhealthy.
func (m *Manager) RunOnce(ctx context.Context, services map[string]config.ServiceConfig) ([]ServiceStatus, error) {
	results := make([]ServiceStatus, len(services))
	names := sortedNames(services)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, name := range names {
		svc := services[name]
		g.Go(func() error {
			st := newStatus(name, svc)

			p, err := m.newProbe(name, svc)
			if err != nil {
				st.Checked = true
				st.Stage = metrics.StageCreate
				st.Error = err.Error()
				m.metrics.RecordCreateFailure(labelsFor(name, svc))
				results[i] = st
				return nil
			}
			defer p.Close()

			results[i] = m.check(gctx, name, svc, p, st)
			return nil
		})
	}
	_ = g.Wait()

	var unhealthy int
	for _, st := range results {
		if !st.Healthy {
			unhealthy++
		}
	}
	if unhealthy > 0 {
		return results, fmt.Errorf("%d of %d services unhealthy", unhealthy, len(results))
	}
	return results, nil
}

// check runs one bounded check and publishes its result.
func (m *Manager) check(ctx context.Context, name string, svc config.ServiceConfig, p probe.Probe, prev ServiceStatus) ServiceStatus {
	checkID := uuid.New()

	timeout := svc.Timeout.Std()
	if timeout <= 0 {
		timeout = config.DefaultCheckTimeout.Std()
	}

	sctx, span := m.tracer.Start(ctx, "check "+svc.Type,
		tracing.CheckAttributes(name, svc.Type, svc.FQDN, svc.Port, checkID.String()))
	defer span.End()

	cctx, cancel := context.WithTimeout(sctx, timeout)
	start := time.Now()
	err := p.Check(cctx)
	duration := time.Since(start)
	cancel()

	// A check cut short by shutdown says nothing about the backend.
	if err != nil && ctx.Err() != nil {
		span.AddEvent("interrupted by shutdown")
		return prev
	}

	stage := probe.StageOf(err)
	m.metrics.RecordCheck(labelsFor(name, svc), err == nil, stage, duration)

	st := prev
	st.Checked = true
	st.Healthy = err == nil
	st.Stage = stage
	st.Error = ""
	st.LastCheck = start.Add(duration)
	st.DurationMS = float64(duration.Microseconds()) / 1000
	if err != nil {
		st.Error = err.Error()
		st.ConsecutiveFailures++
	} else {
		st.ConsecutiveFailures = 0
	}

	tracing.SetCheckResult(span, st.Healthy, st.Stage, st.DurationMS)
	tracing.SetStatus(span, err)

	m.logResult(name, svc, checkID, prev, st, duration)

	if m.history != nil {
		record := &history.Record{
			ID:        checkID,
			Service:   name,
			Type:      svc.Type,
			Healthy:   st.Healthy,
			Stage:     st.Stage,
			Error:     st.Error,
			Duration:  duration,
			CheckedAt: st.LastCheck,
		}
		if err := m.history.Store(ctx, record); err != nil {
			m.logger.Warn("failed to store check result", "service", name, "error", err)
		}
	}

	return st
}

func (m *Manager) logResult(name string, svc config.ServiceConfig, checkID uuid.UUID, prev, st ServiceStatus, duration time.Duration) {
	attrs := []any{
		"service", name,
		"type", svc.Type,
		"check_id", checkID.String(),
		"duration_ms", st.DurationMS,
	}

	switch {
	case !st.Healthy:
		m.logger.Warn("check failed", append(attrs, "stage", st.Stage, "error", st.Error,
			"consecutive_failures", st.ConsecutiveFailures)...)
	case prev.Checked && !prev.Healthy:
		m.logger.Info("service recovered", append(attrs, "failures", prev.ConsecutiveFailures)...)
	default:
		m.logger.Debug("check passed", attrs...)
	}
}

// setStatus stores the status of a worker that is still current.
func (m *Manager) setStatus(w *worker, st ServiceStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.workers[w.name] == w {
		m.status[w.name] = st
	}
}

// countThreads refreshes the thread gauge until the manager stops.
func (m *Manager) countThreads() {
	defer m.loop.Done()

	ticker := time.NewTicker(m.threadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.metrics.SetThreadCount(m.ActiveWorkers() + 1)
		}
	}
}

func sortedNames(services map[string]config.ServiceConfig) []string {
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
