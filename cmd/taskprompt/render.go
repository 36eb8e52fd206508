package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"taskprompt/internal/render"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

const previewWidth = 100

func newRenderCmd(opts *globalOptions) *cobra.Command {
	var (
		sets    []string
		setInts []string
		pretty  bool
	)

	cmd := &cobra.Command{
		Use:   "render <path>",
		Short: "Render a template with placeholder values",
		Long: `Render the template at <path>, relative to the templates directory.

Examples:
  taskprompt render analyzeTask/index.md --set task="add caching"
  taskprompt render planTask/index.md --set task=x --set-int maxSteps=5 --pretty`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := parseSets(sets, setInts)
			if err != nil {
				return err
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}

			text, err := a.builder.Build(cmd.Context(), args[0], rc)
			if err != nil {
				return err
			}

			if pretty {
				if styled, ok := prettyMarkdown(text); ok {
					text = styled
				}
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}

	cmd.Flags().StringArrayVarP(&sets, "set", "s", nil, "Placeholder value as key=value (repeatable)")
	cmd.Flags().StringArrayVar(&setInts, "set-int", nil, "Integer placeholder value as key=value (repeatable)")
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "Style the output as markdown when stdout is a color terminal")

	return cmd
}

// parseSets turns key=value pairs into a render context. --set values are
// used exactly as given; --set-int values must parse as base-10 integers.
func parseSets(sets, ints []string) (render.Context, error) {
	rc := make(render.Context, len(sets)+len(ints))
	for _, kv := range sets {
		key, value, err := splitSet("--set", kv)
		if err != nil {
			return nil, err
		}
		rc[key] = render.Text(value)
	}
	for _, kv := range ints {
		key, value, err := splitSet("--set-int", kv)
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --set-int %q: value is not an integer", kv)
		}
		rc[key] = render.Int(n)
	}
	return rc, nil
}

func splitSet(flag, kv string) (string, string, error) {
	key, value, ok := strings.Cut(kv, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("invalid %s %q: expected key=value", flag, kv)
	}
	return key, value, nil
}

// prettyMarkdown styles text with glamour when stdout supports color.
func prettyMarkdown(text string) (string, bool) {
	out := termenv.NewOutput(os.Stdout)
	if out.Profile == termenv.Ascii {
		return "", false
	}

	style := "light"
	if out.HasDarkBackground() {
		style = "dark"
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(previewWidth),
	)
	if err != nil {
		return "", false
	}
	styled, err := renderer.Render(text)
	if err != nil {
		return "", false
	}
	return styled, true
}
