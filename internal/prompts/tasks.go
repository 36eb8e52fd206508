package prompts

import (
	"context"
	"errors"
	"strings"

	"taskprompt/internal/render"
)

// ErrMissingTask is returned when a tool prompt is requested without a task.
var ErrMissingTask = errors.New("task description is required")

// AnalyzeTaskInput feeds the analyzeTask prompt.
type AnalyzeTaskInput struct {
	Task        string
	ProjectRoot string
	Notes       string
	Deep        bool
}

// Context maps the input onto template placeholders.
func (in AnalyzeTaskInput) Context() render.Context {
	return render.Context{
		"task":        render.Text(in.Task),
		"projectRoot": render.Text(in.ProjectRoot),
		"notes":       render.Text(in.Notes),
		"depth":       render.Flag(in.Deep, "deep", "quick"),
	}
}

// PlanTaskInput feeds the planTask prompt.
type PlanTaskInput struct {
	Task         string
	Analysis     string
	MaxSteps     int
	IncludeTests bool
}

// Context maps the input onto template placeholders.
func (in PlanTaskInput) Context() render.Context {
	return render.Context{
		"task":         render.Text(in.Task),
		"analysis":     render.Text(in.Analysis),
		"maxSteps":     render.Int(int64(in.MaxSteps)),
		"includeTests": render.Flag(in.IncludeTests, "Include a test for every step.", "Tests are optional."),
	}
}

// ExecuteTaskInput feeds the executeTask prompt.
type ExecuteTaskInput struct {
	Task       string
	Plan       string
	Step       int
	TotalSteps int
	DryRun     bool
}

// Context maps the input onto template placeholders.
func (in ExecuteTaskInput) Context() render.Context {
	return render.Context{
		"task":       render.Text(in.Task),
		"plan":       render.Text(in.Plan),
		"step":       render.Int(int64(in.Step)),
		"totalSteps": render.Int(int64(in.TotalSteps)),
		"mode":       render.Flag(in.DryRun, "dry run", "live"),
	}
}

// AnalyzeTask renders the analyzeTask prompt.
func (b *Builder) AnalyzeTask(ctx context.Context, in AnalyzeTaskInput) (string, error) {
	if strings.TrimSpace(in.Task) == "" {
		return "", ErrMissingTask
	}
	return b.Build(ctx, AnalyzeTaskTemplate, in.Context())
}

// PlanTask renders the planTask prompt.
func (b *Builder) PlanTask(ctx context.Context, in PlanTaskInput) (string, error) {
	if strings.TrimSpace(in.Task) == "" {
		return "", ErrMissingTask
	}
	if in.MaxSteps <= 0 {
		in.MaxSteps = 10
	}
	return b.Build(ctx, PlanTaskTemplate, in.Context())
}

// ExecuteTask renders the executeTask prompt.
func (b *Builder) ExecuteTask(ctx context.Context, in ExecuteTaskInput) (string, error) {
	if strings.TrimSpace(in.Task) == "" {
		return "", ErrMissingTask
	}
	if in.Step <= 0 {
		in.Step = 1
	}
	if in.TotalSteps < in.Step {
		in.TotalSteps = in.Step
	}
	return b.Build(ctx, ExecuteTaskTemplate, in.Context())
}
