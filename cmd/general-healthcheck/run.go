package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"plus-monitoring/general-healthcheck/pkg/cli"
	"plus-monitoring/general-healthcheck/pkg/config"
	"plus-monitoring/general-healthcheck/pkg/history"
	"plus-monitoring/general-healthcheck/pkg/monitor"
	"plus-monitoring/general-healthcheck/pkg/probefactory"
	"plus-monitoring/general-healthcheck/pkg/server"
	"plus-monitoring/general-healthcheck/pkg/telemetry/health"
	"plus-monitoring/general-healthcheck/pkg/telemetry/logging"
	"plus-monitoring/general-healthcheck/pkg/telemetry/metrics"
	"plus-monitoring/general-healthcheck/pkg/telemetry/tracing"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var errNotReady = errors.New("first check round not finished")

type runFlags struct {
	listenAddress string
	dryRun        bool
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the exporter",
		Long: `Start the exporter with the specified configuration.

Every configured service is checked immediately and then every check_interval.
Results are served on / and /metrics in the Prometheus exposition format.

Examples:
  # Start with the config mounted by the chart
  general-healthcheck run

  # Override listen address
  general-healthcheck run --listen :9200

  # Validate config and exit
  general-healthcheck run --dry-run`,
		Args: requireNoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExporter(cmd.Context(), opts, flags, cmd)
		},
	}

	cmd.Flags().StringVarP(&flags.listenAddress, "listen", "l", "", "override listen address")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "validate config without starting the exporter")
	return cmd
}

func newLogger(cfg config.LoggingConfig) (*logging.Logger, error) {
	logger, err := logging.New(logging.Config{
		Level:         cfg.Level,
		Format:        cfg.Format,
		AddSource:     cfg.AddSource,
		RedactSecrets: true,
	})
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger.Slog())
	return logger, nil
}

func runExporter(parent context.Context, opts *rootOptions, flags *runFlags, cmd *cobra.Command) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if flags.listenAddress != "" {
		cfg.Server.ListenAddress = flags.listenAddress
	}
	config.SetConfig(cfg)

	logger, err := newLogger(cfg.Telemetry.Logging)
	if err != nil {
		return err
	}

	if flags.dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration valid (%d services)\n", len(cfg.Services))
		return nil
	}

	logger.Info("starting general-healthcheck",
		"version", Version,
		"commit", GitCommit,
		"config", opts.configPath,
		"services", len(cfg.Services),
	)

	ctx, stop := cli.SetupSignalHandler(parent)
	defer stop()

	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)

	tracer, err := tracing.New(cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()
	if tracer.Enabled() {
		logger.Info("tracing enabled",
			"endpoint", cfg.Telemetry.Tracing.Endpoint,
			"sampler", cfg.Telemetry.Tracing.Sampler,
		)
	}

	var store history.Storage
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to open history: %w", err))
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close history", "error", err)
			}
		}()

		scheduler := history.NewScheduler(history.NewPruner(store, cfg.History.Retention), cfg.History.Retention.Schedule)
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewCommandError("run", err)
		}
		defer scheduler.Stop()

		logger.Info("check history enabled",
			"backend", cfg.History.Backend,
			"retention", cfg.History.Retention.MaxAge.String(),
		)
	}

	mgr := monitor.New(monitor.Options{
		NewProbe:            probefactory.NewProbe,
		Metrics:             collector,
		History:             store,
		ThreadCountInterval: cfg.Telemetry.Metrics.ThreadCountInterval.Std(),
		Tracer:              tracer,
		Logger:              logger.Slog(),
	})

	checker := health.New(2 * time.Second)
	checker.Register("monitor", func(context.Context) error {
		if !mgr.Ready() {
			return errNotReady
		}
		return nil
	})
	if store != nil {
		checker.Register("history", store.Ping)
	}

	srv := server.New(server.Options{
		Config:       cfg.Server,
		Metrics:      collector.Handler(),
		Health:       checker,
		Version:      health.NewVersionInfo(Version, GitCommit, BuildDate),
		Status:       mgr,
		History:      store,
		HistoryLimit: cfg.History.QueryLimit,
		Tracer:       tracer,
		Logger:       logger,
	})

	// A service whose probe cannot be built is reported unhealthy; the rest
	// are still monitored.
	if err := mgr.Start(ctx, cfg.Services); err != nil {
		logger.Warn("some services could not be started", "error", err)
	}
	defer mgr.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})

	if cfg.Watch.Enabled {
		watcher, err := config.NewWatcher(opts.configPath, cfg.Watch.Debounce.Std(), logger.Slog())
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		watcher.OnError(func(error) { collector.RecordConfigReload(false) })
		g.Go(func() error {
			return watcher.Watch(gctx, func(next *config.Config) {
				applyReload(logger, mgr, collector, opts, next)
			})
		})
		defer func() {
			if err := watcher.Stop(); err != nil {
				logger.Warn("failed to stop config watcher", "error", err)
			}
		}()
	}

	if err := g.Wait(); err != nil {
		return cli.NewCommandError("run", err)
	}

	logger.Info("general-healthcheck stopped")
	return nil
}

// applyReload pushes a reloaded configuration into the running exporter.
// Server, history and metrics settings need a restart to change.
func applyReload(logger *logging.Logger, mgr *monitor.Manager, collector *metrics.Collector, opts *rootOptions, next *config.Config) {
	level := next.Telemetry.Logging.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	if err := logger.SetLevel(level); err != nil {
		logger.Warn("ignoring invalid log level", "level", level, "error", err)
	}

	if err := mgr.Apply(next.Services); err != nil {
		collector.RecordConfigReload(false)
		logger.Warn("some services could not be started after reload", "error", err)
		return
	}
	collector.RecordConfigReload(true)
}
