// Package middleware provides the HTTP middleware chain of the exporter.
//
// The chain, outermost first:
//   - RecoveryMiddleware turns handler panics into a 500 JSON error
//   - RequestIDMiddleware assigns X-Request-ID and stores it in the context
//   - LoggingMiddleware writes one access log line per request
//   - RateLimitMiddleware rejects requests above the token bucket with 429
//
// Scrape and probe endpoints are typically mounted outside the rate limiter
// so that Prometheus and the kubelet are never throttled.
package middleware
