package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"relpack/internal/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Release document utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sample release document",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				target = "release.toml"
			}
			expanded, err := config.ExpandPath(target)
			if err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}
			target = expanded

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("release document already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample release document: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample release document to %s\n", target)
			fmt.Fprintln(out, "Edit artist and title, then run: relpack pack "+target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the release document")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing document")
	return cmd
}

func newConfigValidateCommand() *cobra.Command {
	var defaultsPath string

	cmd := &cobra.Command{
		Use:   "validate <release.toml>",
		Short: "Validate a release document without running the workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(defaultsPath, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := cfg.Validate(); err != nil {
				return err
			}
			for _, warning := range cfg.Warnings() {
				fmt.Fprintf(out, "warning: %s\n", warning)
			}
			fmt.Fprintf(out, "Release document valid: %s - %s\n", cfg.Artist, cfg.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&defaultsPath, "defaults", "", "Path to an artist defaults document")
	return cmd
}
