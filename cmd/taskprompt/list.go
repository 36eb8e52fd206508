package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
)

const listWrapWidth = 76

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	pathStyle   = lipgloss.NewStyle().Bold(true)
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

func newListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List templates and their descriptions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}

			paths, err := a.loader.List()
			if err != nil {
				return err
			}

			var b strings.Builder
			b.WriteString(headerStyle.Render(fmt.Sprintf("Templates in %s", a.resolver.Root())))
			b.WriteString("\n\n")

			if len(paths) == 0 {
				b.WriteString(faintStyle.Render("No templates found."))
				b.WriteString("\n")
			}

			for _, p := range paths {
				b.WriteString(pathStyle.Render(p))
				b.WriteString("\n")

				info, err := a.loader.Info(cmd.Context(), p)
				if err != nil {
					b.WriteString(indent.String(faintStyle.Render("unavailable: "+err.Error()), 4))
					b.WriteString("\n")
					continue
				}

				if info.Description != "" {
					b.WriteString(indent.String(wordwrap.String(info.Description, listWrapWidth), 4))
				} else {
					b.WriteString(indent.String(faintStyle.Render("no description"), 4))
				}
				b.WriteString("\n")

				if names := info.ArgumentNames(); len(names) > 0 {
					b.WriteString(indent.String(faintStyle.Render("arguments: "+strings.Join(names, ", ")), 4))
					b.WriteString("\n")
				}
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), b.String())
			return err
		},
	}
}
