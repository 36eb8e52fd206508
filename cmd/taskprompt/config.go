package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"taskprompt/internal/config"
	"taskprompt/pkg/fileops"

	"github.com/spf13/cobra"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the taskprompt configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(opts), newConfigPathCmd(opts))
	return cmd
}

func newConfigInitCmd(opts *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file and create its directories",
		Long: `Write the default configuration to the config file location and create
the templates and data directories it names. An existing file is kept
unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configFilePath(opts)

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("cannot access config file: %w", err)
			}

			cfg := config.DefaultConfig()
			if err := cfg.SaveTo(path); err != nil {
				return err
			}
			for _, dir := range []string{cfg.TemplatesDir, cfg.DataDir} {
				if err := fileops.EnsureDirectoryExists(dir); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s\n", path)
			fmt.Fprintf(out, "Templates directory: %s\n", cfg.TemplatesDir)
			_, err := fmt.Fprintf(out, "Data directory: %s\n", cfg.DataDir)
			return err
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")
	return cmd
}

func newConfigPathCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), configFilePath(opts))
			return err
		},
	}
}

// configFilePath returns --config when set, otherwise the standard location.
func configFilePath(opts *globalOptions) string {
	if opts.configPath != "" {
		return fileops.ExpandPath(opts.configPath)
	}
	return config.ConfigPath()
}
