// Package health provides the liveness, readiness and version endpoints.
//
// # Endpoints
//
//   - /health: Liveness. Always 200 while the HTTP server is serving.
//   - /ready: Readiness. 503 until every registered component check passes.
//   - /version: Build information.
//
// # Usage
//
//	checker := health.New(2 * time.Second)
//	checker.Register("monitor", func(ctx context.Context) error {
//	    if !mgr.Ready() {
//	        return errors.New("first check round not finished")
//	    }
//	    return nil
//	})
//	health.RegisterRoutes(mux, checker, health.NewVersionInfo(version, commit, buildTime))
//
// # Liveness vs Readiness
//
// Liveness never depends on the monitored backends: a broken RabbitMQ must
// show up as plus_monitoring{...} 0, not as a restarted exporter pod.
// Readiness only reflects the exporter's own components, such as the
// monitor having completed its first round or the history store accepting
// queries.
package health
