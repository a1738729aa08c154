package cliapp

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

const versionString = "0.1.0"
const defaultConfigPath = "./markprep.toml"

type rootOptions struct {
	configPath  string
	verbose     bool
	metricsAddr string
}

// Run executes the CLI with args and returns the process exit code.
func Run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		root.PrintErrln(err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var opts rootOptions
	rt := &session{}

	cmd := &cobra.Command{
		Use:           "markprep",
		Short:         "Preprocess script and style blocks of component files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return rt.start(cmd.Context(), opts)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return rt.stop(context.Background())
		},
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	fs := cmd.PersistentFlags()
	fs.StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "path to config file")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides observability.metrics_addr)")

	cmd.AddCommand(
		newProcessCmd(rt),
		newResolveCmd(rt),
		newLanguagesCmd(rt),
		newWatchCmd(rt),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Printf("markprep v%s\n", versionString)
			return nil
		},
	}
}
