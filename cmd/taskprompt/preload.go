package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPreloadCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "preload [path...]",
		Short: "Load templates the way the server does at startup",
		Long: `Load the given templates, or the configured preload list when none are
given, and report which ones failed. Exits non-zero if any failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}

			paths := args
			if len(paths) == 0 {
				paths = a.preloadPaths()
			}

			report := a.loader.Preload(cmd.Context(), paths)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Loaded %d of %d templates\n", report.Loaded, len(paths))
			for _, f := range report.Failures() {
				fmt.Fprintf(out, "  %s: %v\n", f.Path, f.Err)
			}

			if report.Failed > 0 {
				return fmt.Errorf("%d of %d templates failed to load", report.Failed, len(paths))
			}
			return nil
		},
	}
}
