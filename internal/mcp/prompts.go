package mcp

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"taskprompt/internal/render"
	"taskprompt/internal/templates"
	"taskprompt/pkg/fileops"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	maxPromptNameLength = 100
	fallbackPromptName  = "template"
)

// promptEntry is a template registered as an MCP prompt.
type promptEntry struct {
	Name        string
	Description string
	Arguments   []templates.Argument
	Path        string
}

func (e *promptEntry) definition() mcp.Prompt {
	opts := []mcp.PromptOption{mcp.WithPromptDescription(e.Description)}
	for _, a := range e.Arguments {
		argOpts := []mcp.ArgumentOption{}
		if a.Description != "" {
			argOpts = append(argOpts, mcp.ArgumentDescription(a.Description))
		}
		if a.Required {
			argOpts = append(argOpts, mcp.RequiredArgument())
		}
		opts = append(opts, mcp.WithArgument(a.Name, argOpts...))
	}
	return mcp.NewPrompt(e.Name, opts...)
}

// promptRegistry tracks registered prompt names so duplicates get a suffix.
type promptRegistry struct {
	byName map[string]*promptEntry
}

func newPromptRegistry() *promptRegistry {
	return &promptRegistry{byName: make(map[string]*promptEntry)}
}

// add registers info under a unique name derived from its metadata.
func (r *promptRegistry) add(info templates.TemplateInfo) *promptEntry {
	entry := &promptEntry{
		Name:        r.uniqueName(promptBaseName(info)),
		Description: info.Description,
		Arguments:   promptArguments(info),
		Path:        info.Path,
	}
	r.byName[entry.Name] = entry
	return entry
}

func (r *promptRegistry) uniqueName(base string) string {
	name := base
	for counter := 1; ; counter++ {
		if _, exists := r.byName[name]; !exists {
			return name
		}
		name = fmt.Sprintf("%s_%d", base, counter)
	}
}

func (r *promptRegistry) get(name string) (*promptEntry, bool) {
	e, ok := r.byName[name]
	return e, ok
}

func (r *promptRegistry) len() int {
	return len(r.byName)
}

// entries returns the registered prompts sorted by name.
func (r *promptRegistry) entries() []*promptEntry {
	out := make([]*promptEntry, 0, len(r.byName))
	for _, e := range r.byName {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// promptBaseName uses the frontmatter name when present, otherwise the
// logical path without its extension. "analyzeTask/index.md" becomes
// "analyzeTask_index".
func promptBaseName(info templates.TemplateInfo) string {
	source := info.Name
	if source == "" {
		source = strings.TrimSuffix(info.Path, path.Ext(info.Path))
	}

	name, err := fileops.SanitizeIdentifier(source, maxPromptNameLength)
	if err != nil {
		return fallbackPromptName
	}
	return strings.ReplaceAll(name, "-", "_")
}

// promptArguments returns the declared arguments, or one optional argument
// per placeholder in the body.
func promptArguments(info templates.TemplateInfo) []templates.Argument {
	if len(info.Arguments) > 0 {
		return info.Arguments
	}
	names := render.Placeholders(info.Body)
	args := make([]templates.Argument, 0, len(names))
	for _, n := range names {
		args = append(args, templates.Argument{Name: n})
	}
	return args
}

// discoverPrompts registers every template that has a frontmatter
// description. Templates that fail to load are skipped.
func (s *Server) discoverPrompts(ctx context.Context) (*promptRegistry, error) {
	paths, err := s.loader.List()
	if err != nil {
		return nil, err
	}

	registry := newPromptRegistry()
	var skipped int
	for _, p := range paths {
		info, err := s.loader.Info(ctx, p)
		if err != nil {
			s.logger.Warn("Skipping template", "path", p, "error", err)
			skipped++
			continue
		}
		if !info.HasFrontmatter() {
			s.logger.Debug("Template has no description, not exposed as a prompt", "path", p)
			skipped++
			continue
		}

		entry := registry.add(info)
		s.logger.Debug("Registered prompt", "name", entry.Name, "path", p, "arguments", len(entry.Arguments))
	}

	s.logger.Info("Prompt discovery completed",
		"templates", len(paths),
		"prompts", registry.len(),
		"skipped", skipped)

	return registry, nil
}

func (s *Server) promptHandler(entry *promptEntry) server.PromptHandlerFunc {
	return func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		for _, a := range entry.Arguments {
			if a.Required && strings.TrimSpace(request.Params.Arguments[a.Name]) == "" {
				return nil, fmt.Errorf("missing required argument %q", a.Name)
			}
		}

		rc := make(render.Context, len(request.Params.Arguments))
		for k, v := range request.Params.Arguments {
			rc[k] = render.Text(v)
		}

		text, err := s.builder.Build(ctx, entry.Path, rc)
		if err != nil {
			s.logger.Error("Prompt rendering failed", "prompt", entry.Name, "error", err)
			return nil, err
		}

		return mcp.NewGetPromptResult(entry.Description, []mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
		}), nil
	}
}
