package prompts

import (
	"context"
	"errors"
	"testing"

	"taskprompt/internal/logging"
	"taskprompt/internal/render"
	"taskprompt/internal/templates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapSource serves templates from memory.
type mapSource map[string]string

func (m mapSource) Load(_ context.Context, logicalPath string) (string, error) {
	text, ok := m[logicalPath]
	if !ok {
		return "", &templates.NotFoundError{Path: logicalPath, Dir: "prompts"}
	}
	return text, nil
}

func newTestBuilder(src mapSource, overrides map[string]Override) *Builder {
	logger, _ := logging.NewTestLogger()
	return NewBuilder(src, overrides, logger)
}

func TestBuild(t *testing.T) {
	b := newTestBuilder(mapSource{
		"greet.md": "---\ndescription: Greeting\n---\nHello {name}, you have {count} items and {unknown}",
	}, nil)

	out, err := b.Build(context.Background(), "greet.md", render.Context{
		"name":  render.Text("TemplateLoader"),
		"count": render.Int(3),
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello TemplateLoader, you have 3 items and {unknown}", out)
}

func TestBuild_LoadErrorWrapped(t *testing.T) {
	b := newTestBuilder(mapSource{}, nil)

	_, err := b.Build(context.Background(), "missing.md", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, templates.ErrTemplateNotFound))
	assert.Contains(t, err.Error(), "Template not found")
}

func TestBuild_Overrides(t *testing.T) {
	src := mapSource{"a.md": "Body for {who}\n"}

	tests := []struct {
		name     string
		override Override
		want     string
	}{
		{"replace", Override{Mode: OverrideReplace, Text: "Only {who}"}, "Only you"},
		{"append", Override{Mode: OverrideAppend, Text: "Also {who}"}, "Body for you\n\nAlso you"},
		{"empty append keeps body", Override{Mode: OverrideAppend}, "Body for you\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBuilder(src, map[string]Override{"a.md": tt.override})
			out, err := b.Build(context.Background(), "a.md", render.Context{"who": render.Text("you")})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestBuild_OverrideKeyedByPath(t *testing.T) {
	b := newTestBuilder(mapSource{"a.md": "A", "b.md": "B"}, map[string]Override{
		"a.md": {Mode: OverrideReplace, Text: "replaced"},
	})

	out, err := b.Build(context.Background(), "b.md", nil)
	require.NoError(t, err)
	assert.Equal(t, "B", out)
}

func TestNewBuilder_CopiesOverrides(t *testing.T) {
	overrides := map[string]Override{"a.md": {Mode: OverrideReplace, Text: "x"}}
	b := newTestBuilder(mapSource{"a.md": "A"}, overrides)
	delete(overrides, "a.md")

	out, err := b.Build(context.Background(), "a.md", nil)
	require.NoError(t, err)
	assert.Equal(t, "x", out)
}

func TestParseOverrideMode(t *testing.T) {
	tests := []struct {
		in      string
		want    OverrideMode
		wantErr bool
	}{
		{"", OverrideAppend, false},
		{"append", OverrideAppend, false},
		{"Replace", OverrideReplace, false},
		{" replace ", OverrideReplace, false},
		{"prepend", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOverrideMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
