package main

import (
	"fmt"

	"plus-monitoring/general-healthcheck/pkg/cli"
	"plus-monitoring/general-healthcheck/pkg/config"

	"github.com/spf13/cobra"
)

// DefaultConfigPath is where the chart mounts the ConfigMap.
const DefaultConfigPath = "/config/conf.yml"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "general-healthcheck",
		Short: "Health check exporter for RabbitMQ, Redis, MySQL and PostgreSQL",
		Long: `general-healthcheck periodically exercises each configured backend
(publish/consume on RabbitMQ, set/get/incr/delete on Redis, SELECT 1 on MySQL
and PostgreSQL) and exposes the outcome as the plus_monitoring gauge.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", DefaultConfigPath, "config file path")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	cmd.AddCommand(
		newRunCmd(opts),
		newCheckCmd(opts),
		newValidateCmd(opts),
		newTemplateCmd(),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig loads and validates the config file with env overrides, then
// applies the --log-level flag.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(o.configPath)
	if err != nil {
		return nil, cli.NewConfigError(o.configPath, err.Error())
	}
	if o.logLevel != "" {
		cfg.Telemetry.Logging.Level = o.logLevel
	}
	return cfg, nil
}

func requireNoArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%s takes no arguments, got %q", cmd.Name(), args)
	}
	return nil
}
