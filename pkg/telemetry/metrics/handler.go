package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns an HTTP handler for the Prometheus metrics endpoint.
//
// The handler serves every metric registered on the collector's registry in
// the Prometheus text format, negotiating OpenMetrics when the scraper asks
// for it. Collection errors are logged and the remaining metrics still served.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
			ErrorLog:          slogErrorLogger{},
		},
	)
}

// HandlerWithOptions returns an HTTP handler with custom options.
func (c *Collector) HandlerWithOptions(opts promhttp.HandlerOpts) http.Handler {
	return promhttp.HandlerFor(c.registry, opts)
}

// slogErrorLogger adapts slog to promhttp.Logger.
type slogErrorLogger struct{}

func (slogErrorLogger) Println(v ...any) {
	slog.Error("metrics collection failed", "error", slog.AnyValue(v))
}
