// Package deploy carries the Helm chart that installs general-healthcheck as a
// DaemonSet. The chart is embedded so the binary can render its own manifests.
package deploy

import "embed"

// ChartDir is the chart's directory name inside Chart.
const ChartDir = "general-healthcheck"

// Chart holds the chart files, including the underscore-prefixed helpers.
//
//go:embed all:general-healthcheck
var Chart embed.FS
