/*
Package cli provides command-line helpers for the general-healthcheck binary.

Output formatting:

Check and validate results implement Tabular and can be printed as an
aligned table, JSON or CSV:

	format, err := cli.ParseOutputFormat(flagValue)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result)

Exit codes:

ExitCode maps a command error to the process status: an ExitError carries
its own code, configuration errors exit 2 and anything else exits 1.

Signal handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
