package templates

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"taskprompt/internal/render"
	"taskprompt/pkg/fileops"

	"github.com/adrg/frontmatter"
)

const (
	maxDescriptionLength = 500
	maxNameLength        = 100
)

// Argument describes one placeholder a template expects.
type Argument struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Required    bool   `yaml:"required,omitempty"`
}

// Metadata is the optional YAML frontmatter of a template file.
type Metadata struct {
	Description string     `yaml:"description"`
	Name        string     `yaml:"name,omitempty"`
	Arguments   []Argument `yaml:"arguments,omitempty"`
}

// TemplateInfo is a loaded template split into metadata and body.
type TemplateInfo struct {
	Path string
	Metadata
	Body string
}

// HasFrontmatter reports whether the template declared a description.
func (ti TemplateInfo) HasFrontmatter() bool {
	return ti.Description != ""
}

// ArgumentNames returns the declared argument names, or the body's
// placeholders when none are declared.
func (ti TemplateInfo) ArgumentNames() []string {
	if len(ti.Arguments) == 0 {
		return render.Placeholders(ti.Body)
	}
	names := make([]string, 0, len(ti.Arguments))
	for _, a := range ti.Arguments {
		names = append(names, a.Name)
	}
	return names
}

// SplitFrontmatter separates YAML frontmatter from the template body. Text
// without frontmatter is returned unchanged with zero Metadata.
func SplitFrontmatter(text string) (Metadata, string, error) {
	var meta Metadata
	body, err := frontmatter.Parse(strings.NewReader(text), &meta)
	if err != nil {
		return Metadata{}, "", fmt.Errorf("invalid frontmatter: %w", err)
	}
	return meta, string(bytes.TrimLeft(body, "\r\n")), nil
}

// Info loads the template at logicalPath and parses its frontmatter.
func (l *Loader) Info(ctx context.Context, logicalPath string) (TemplateInfo, error) {
	text, err := l.Load(ctx, logicalPath)
	if err != nil {
		return TemplateInfo{}, err
	}

	meta, body, err := SplitFrontmatter(text)
	if err != nil {
		return TemplateInfo{}, fmt.Errorf("template %s: %w", logicalPath, err)
	}
	if err := validateMetadata(meta); err != nil {
		return TemplateInfo{}, fmt.Errorf("template %s: invalid frontmatter: %w", logicalPath, err)
	}

	return TemplateInfo{Path: logicalPath, Metadata: meta, Body: body}, nil
}

func validateMetadata(meta Metadata) error {
	if len(meta.Description) > maxDescriptionLength {
		return fmt.Errorf("description too long (max %d characters)", maxDescriptionLength)
	}
	if err := fileops.ValidateContentSecurity(meta.Description); err != nil {
		return fmt.Errorf("description: %w", err)
	}

	if len(meta.Name) > maxNameLength {
		return fmt.Errorf("name too long (max %d characters)", maxNameLength)
	}
	if err := fileops.ValidateContentSecurity(meta.Name); err != nil {
		return fmt.Errorf("name: %w", err)
	}

	seen := make(map[string]bool, len(meta.Arguments))
	for _, a := range meta.Arguments {
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("argument without a name")
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate argument %q", a.Name)
		}
		seen[a.Name] = true
		if err := fileops.ValidateContentSecurity(a.Description); err != nil {
			return fmt.Errorf("argument %s: %w", a.Name, err)
		}
	}

	return nil
}

// List returns the logical path of every template under the resolver's root
// that the resolver would accept, sorted.
func (l *Loader) List() ([]string, error) {
	files, err := fileops.ScanFiles(l.resolver.Root(), fileops.DefaultScanOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to scan templates directory: %w", err)
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := l.resolver.ResolveTemplatePath(f.Path); err != nil {
			l.logger.Debug("Skipping file", "path", f.Path, "reason", err)
			continue
		}
		paths = append(paths, f.Path)
	}

	return paths, nil
}
