package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskprompt/internal/mcp"
	"taskprompt/internal/watch"
	"taskprompt/pkg/fileops"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long: `Run the MCP server on stdin/stdout. Commonly used templates are preloaded
first; failures are logged and do not stop the server.

With "watch: true" in the config the template cache is cleared whenever a
file under the templates directory changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			if err := fileops.ValidateDirectory(a.resolver.Root()); err != nil {
				return fmt.Errorf("templates directory: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.loader.Preload(ctx, a.preloadPaths())

			if a.cfg.Watch {
				if err := a.startWatcher(ctx); err != nil {
					return err
				}
			}

			server := mcp.NewServer(a.cfg, a.loader, a.builder, a.logger)
			return server.Start(ctx)
		},
	}
}

func (a *app) startWatcher(ctx context.Context) error {
	w, err := watch.New(a.resolver.Root(), a.loader.ClearCache, a.logger, watch.DefaultDebounce)
	if err != nil {
		return err
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			a.logger.Error("Template watcher stopped", "error", err)
		}
	}()
	return nil
}
