// Package prompts assembles the tool prompts served to agents from templates.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"taskprompt/internal/logging"
	"taskprompt/internal/render"
	"taskprompt/internal/templates"
)

// Logical paths of the built-in tool prompts.
const (
	AnalyzeTaskTemplate = "analyzeTask/index.md"
	PlanTaskTemplate    = "planTask/index.md"
	ExecuteTaskTemplate = "executeTask/index.md"
)

// DefaultPreloadPaths are the templates warmed at startup when the
// configuration does not name its own list.
var DefaultPreloadPaths = []string{
	AnalyzeTaskTemplate,
	PlanTaskTemplate,
	ExecuteTaskTemplate,
}

// TemplateSource supplies raw template text. *templates.Loader implements it.
type TemplateSource interface {
	Load(ctx context.Context, logicalPath string) (string, error)
}

// OverrideMode says how an Override combines with the template body.
type OverrideMode string

const (
	// OverrideReplace discards the template body and uses the override text
	OverrideReplace OverrideMode = "replace"
	// OverrideAppend adds the override text after the template body
	OverrideAppend OverrideMode = "append"
)

// ParseOverrideMode accepts "replace" or "append". An empty string means
// append.
func ParseOverrideMode(s string) (OverrideMode, error) {
	switch OverrideMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", OverrideAppend:
		return OverrideAppend, nil
	case OverrideReplace:
		return OverrideReplace, nil
	default:
		return "", fmt.Errorf("unknown override mode %q (expected replace or append)", s)
	}
}

// Override is configured text applied to a template body before rendering.
// Override text may contain placeholders.
type Override struct {
	Mode OverrideMode
	Text string
}

func (o Override) apply(body string) string {
	if o.Mode == OverrideReplace {
		return o.Text
	}
	if o.Text == "" {
		return body
	}
	return strings.TrimRight(body, "\n") + "\n\n" + o.Text
}

// Builder loads, overrides and renders templates.
type Builder struct {
	source    TemplateSource
	overrides map[string]Override
	logger    *logging.AppLogger
}

// NewBuilder creates a Builder. overrides is keyed by logical template path
// and may be nil.
func NewBuilder(source TemplateSource, overrides map[string]Override, logger *logging.AppLogger) *Builder {
	if logger == nil {
		logger = logging.GetDefault()
	}
	copied := make(map[string]Override, len(overrides))
	for path, o := range overrides {
		copied[path] = o
	}
	return &Builder{
		source:    source,
		overrides: copied,
		logger:    logger,
	}
}

// Build renders the template at logicalPath with rc. Frontmatter is stripped
// before rendering; unknown placeholders stay in the output.
func (b *Builder) Build(ctx context.Context, logicalPath string, rc render.Context) (string, error) {
	text, err := b.source.Load(ctx, logicalPath)
	if err != nil {
		return "", fmt.Errorf("failed to build prompt %s: %w", logicalPath, err)
	}

	_, body, err := templates.SplitFrontmatter(text)
	if err != nil {
		return "", fmt.Errorf("failed to build prompt %s: %w", logicalPath, err)
	}

	if o, ok := b.overrides[logicalPath]; ok {
		body = o.apply(body)
		b.logger.Debug("Applied prompt override", "path", logicalPath, "mode", o.Mode)
	}

	if missing := render.Missing(body, rc); len(missing) > 0 {
		b.logger.Debug("Prompt has unfilled placeholders", "path", logicalPath, "missing", missing)
	}

	return render.Render(body, rc), nil
}
