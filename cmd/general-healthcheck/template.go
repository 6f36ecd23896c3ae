package main

import (
	"fmt"
	"os"

	"plus-monitoring/general-healthcheck/pkg/chart"
	"plus-monitoring/general-healthcheck/pkg/cli"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

type templateFlags struct {
	release    string
	namespace  string
	set        []string
	valuesFile string
	verify     bool
}

func newTemplateCmd() *cobra.Command {
	flags := &templateFlags{}

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Render the embedded Helm chart",
		Long: `Render the Helm chart shipped inside this binary, as helm template would.

With --verify the rendered DaemonSet is checked against the chart invariants:
a DNS-1123 name of at most 63 characters, a selector equal to the pod labels,
probes on / and the general-healthcheck-conf ConfigMap mounted at /config.

Examples:
  general-healthcheck template
  general-healthcheck template --release general-healthcheck --set image.tag=3f9c2e1 --verify`,
		Args: requireNoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTemplate(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.release, "release", "general-healthcheck", "release name")
	cmd.Flags().StringVarP(&flags.namespace, "namespace", "n", chart.DefaultNamespace, "release namespace")
	cmd.Flags().StringArrayVar(&flags.set, "set", nil, "set values (key=value, can be repeated)")
	cmd.Flags().StringVarP(&flags.valuesFile, "values", "f", "", "values file merged over the chart defaults")
	cmd.Flags().BoolVar(&flags.verify, "verify", false, "verify the rendered DaemonSet")
	return cmd
}

func runTemplate(cmd *cobra.Command, flags *templateFlags) error {
	opts := chart.RenderOptions{
		ReleaseName: flags.release,
		Namespace:   flags.namespace,
		Set:         flags.set,
	}

	if flags.valuesFile != "" {
		data, err := os.ReadFile(flags.valuesFile)
		if err != nil {
			return cli.NewConfigError("--values", err.Error())
		}
		if err := yaml.Unmarshal(data, &opts.Values); err != nil {
			return cli.NewConfigError("--values", fmt.Sprintf("invalid YAML: %v", err))
		}
	}

	m, err := chart.Render(opts)
	if err != nil {
		return cli.NewCommandError("template", err)
	}

	if flags.verify {
		if err := chart.Verify(m); err != nil {
			return cli.NewCommandError("template", fmt.Errorf("verification failed: %w", err))
		}
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), m.String())
	return err
}
