package main

import (
	"context"
	"fmt"
	"strconv"

	"plus-monitoring/general-healthcheck/pkg/cli"
	"plus-monitoring/general-healthcheck/pkg/config"
	"plus-monitoring/general-healthcheck/pkg/monitor"
	"plus-monitoring/general-healthcheck/pkg/probefactory"
	"plus-monitoring/general-healthcheck/pkg/telemetry/metrics"

	"github.com/spf13/cobra"
)

// checkReport is the result of one check pass.
type checkReport struct {
	Services []monitor.ServiceStatus `json:"services"`
}

func (r checkReport) Header() []string {
	return []string{"NAME", "TYPE", "ADDRESS", "HEALTHY", "STAGE", "DURATION", "ERROR"}
}

func (r checkReport) Rows() [][]string {
	rows := make([][]string, 0, len(r.Services))
	for _, st := range r.Services {
		rows = append(rows, []string{
			st.Name,
			st.Type,
			st.FQDN + ":" + strconv.Itoa(st.Port),
			strconv.FormatBool(st.Healthy),
			st.Stage,
			fmt.Sprintf("%.1fms", st.DurationMS),
			st.Error,
		})
	}
	return rows
}

type checkFlags struct {
	output   string
	services []string
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check every configured service once",
		Long: `Run a single check round against the configured services and print the
results. The command exits 1 when any service is unhealthy, which makes it
usable from scripts and as an ad hoc diagnostic inside the pod.

Examples:
  general-healthcheck check
  general-healthcheck check --service rabbitmq-main --output json`,
		Args: requireNoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "text", "output format: text, json, csv")
	cmd.Flags().StringSliceVar(&flags.services, "service", nil, "only check these services")
	return cmd
}

func runCheck(cmd *cobra.Command, opts *rootOptions, flags *checkFlags) error {
	format, err := cli.ParseOutputFormat(flags.output)
	if err != nil {
		return err
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if _, err := newLogger(cfg.Telemetry.Logging); err != nil {
		return err
	}

	services := cfg.Services
	if len(flags.services) > 0 {
		services = make(map[string]config.ServiceConfig, len(flags.services))
		for _, name := range flags.services {
			svc, ok := cfg.Services[name]
			if !ok {
				return cli.NewConfigError("--service", fmt.Sprintf("no service named %q", name))
			}
			services[name] = svc
		}
	}

	mgr := monitor.New(monitor.Options{
		NewProbe: probefactory.NewProbe,
		Metrics:  metrics.NewCollector(cfg.Telemetry.Metrics, nil),
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := cli.SetupSignalHandler(ctx)
	defer stop()

	results, checkErr := mgr.RunOnce(ctx, services)
	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), checkReport{Services: results}); err != nil {
		return err
	}
	if checkErr != nil {
		return &cli.ExitError{Code: 1, Err: checkErr}
	}
	return nil
}
