// Package server exposes metrics, probes and the status API over HTTP.
//
// # Routes
//
//	GET /                  Prometheus exposition (the historical scrape path)
//	GET /metrics           Prometheus exposition
//	GET /health            liveness, always 200 while the process serves
//	GET /ready             readiness, 503 until every component is ready
//	GET /version           build information
//	GET /api/v1/status     latest result per monitored service
//	GET /api/v1/history    stored check results
//
// The history endpoint accepts service, healthy (true/false), since
// (RFC 3339 or a duration such as 15m) and limit query parameters. The limit
// is capped by history.query_limit.
//
// Every response carries an X-Request-ID header. Only /api/ routes are rate
// limited; scrapes and probes never are.
//
// # Usage
//
//	srv := server.New(server.Options{
//	    Config:  cfg.Server,
//	    Metrics: collector.Handler(),
//	    Health:  checker,
//	    Version: health.NewVersionInfo(version, commit, date),
//	    Status:  manager,
//	    History: store,
//	    Logger:  logger,
//	})
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
// Start blocks until ctx is cancelled and then shuts down within
// server.shutdown_timeout.
package server
