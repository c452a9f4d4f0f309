package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() (*cobra.Command, *globalOptions) {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "relpack",
		Short:         "Prepare music release assets for distribution",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.defaultsPath, "defaults", "", "Path to an artist defaults document")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging and full error chains")

	rootCmd.AddCommand(newPackCommand(opts))
	rootCmd.AddCommand(newBatchCommand(opts))
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newRunsCommand())
	rootCmd.AddCommand(newCheckCommand())

	return rootCmd, opts
}

type globalOptions struct {
	defaultsPath string
	debug        bool
}
