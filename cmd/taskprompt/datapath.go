package main

import (
	"fmt"

	"taskprompt/internal/sandbox"

	"github.com/spf13/cobra"
)

func newDataPathCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "data-path <name>",
		Short: "Print the sandboxed location of a data-store file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}

			data, err := sandbox.New(a.cfg.DataDir)
			if err != nil {
				return fmt.Errorf("invalid data directory: %w", err)
			}

			resolved, err := data.GetDataPath(args[0])
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), resolved)
			return err
		},
	}
}
