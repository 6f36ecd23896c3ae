// general-healthcheck probes RabbitMQ, Redis, MySQL and PostgreSQL backends
// and exports the results as Prometheus metrics.
//
// It runs as a DaemonSet so that every node reports its own view of the
// backends:
//
//	# Start the exporter
//	general-healthcheck run --config /config/conf.yml
//
//	# Check every configured service once and exit non-zero on failure
//	general-healthcheck check
//
//	# Validate a configuration file
//	general-healthcheck validate --config conf.yml
//
//	# Render the embedded Helm chart
//	general-healthcheck template --set image.tag=3f9c2e1 --verify
package main

import (
	"fmt"
	"os"

	"plus-monitoring/general-healthcheck/pkg/cli"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}
