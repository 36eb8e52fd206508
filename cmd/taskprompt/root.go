package main

import (
	"fmt"
	"os"

	"taskprompt/internal/config"
	"taskprompt/internal/logging"
	"taskprompt/internal/prompts"
	"taskprompt/internal/sandbox"
	"taskprompt/internal/templates"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "taskprompt",
		Short: "Serve sandboxed prompt templates to AI agents",
		Long: `taskprompt loads markdown prompt templates from a configured directory,
fills {placeholders} from tool arguments and serves the results over the
Model Context Protocol.

Configuration is read from $XDG_CONFIG_HOME/taskprompt/config.yaml unless
--config or TASKPROMPT_CONFIG_PATH names another file.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to the config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log info messages to stderr")

	root.AddCommand(
		newServeCmd(opts),
		newRenderCmd(opts),
		newListCmd(opts),
		newPreloadCmd(opts),
		newDataPathCmd(opts),
		newConfigCmd(opts),
	)

	return root
}

// app holds the components every command is built from.
type app struct {
	cfg      *config.Config
	logger   *logging.AppLogger
	resolver *sandbox.Resolver
	loader   *templates.Loader
	builder  *prompts.Builder
}

func newApp(opts *globalOptions) (*app, error) {
	var logger *logging.AppLogger
	if opts.verbose {
		logger = logging.NewWriterLogger(os.Stderr, log.InfoLevel)
	} else {
		logger = logging.NewAppLogger()
	}

	cfgPath := configFilePath(opts)
	cfg, err := config.LoadFrom(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	resolver, err := sandbox.New(cfg.TemplatesDir, sandbox.WithExtensions(cfg.TemplateExtensions...))
	if err != nil {
		return nil, fmt.Errorf("invalid templates directory: %w", err)
	}

	overrides, err := overridesFromConfig(cfg.PromptOverrides)
	if err != nil {
		return nil, err
	}

	loader := templates.NewLoader(resolver, logger.With("component", "loader"),
		templates.WithMaxFileSize(cfg.MaxTemplateSize))

	logger.Info("Configuration loaded",
		"config", cfgPath,
		"templatesDir", resolver.Root(),
		"extensions", resolver.Extensions())

	return &app{
		cfg:      cfg,
		logger:   logger,
		resolver: resolver,
		loader:   loader,
		builder:  prompts.NewBuilder(loader, overrides, logger),
	}, nil
}

func overridesFromConfig(raw map[string]config.PromptOverride) (map[string]prompts.Override, error) {
	out := make(map[string]prompts.Override, len(raw))
	for path, o := range raw {
		mode, err := prompts.ParseOverrideMode(o.Mode)
		if err != nil {
			return nil, fmt.Errorf("prompt override %s: %w", path, err)
		}
		out[path] = prompts.Override{Mode: mode, Text: o.Text}
	}
	return out, nil
}

// preloadPaths returns the configured preload list or the built-in one.
func (a *app) preloadPaths() []string {
	if a.cfg.Preload != nil {
		return a.cfg.Preload
	}
	return prompts.DefaultPreloadPaths
}
