package mcp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"taskprompt/internal/prompts"
	"taskprompt/internal/render"
	"taskprompt/internal/sandbox"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerTools registers all MCP tools using mcp-go schema builders.
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("render_template",
			mcp.WithDescription("Render a prompt template, replacing {name} placeholders with values from context"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Template path relative to the templates directory, e.g. analyzeTask/index.md")),
			mcp.WithObject("context", mcp.Description("Placeholder values; strings, numbers and booleans are accepted")),
		),
		s.handleRenderTemplate,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_templates",
			mcp.WithDescription("List the template paths available under the templates directory"),
		),
		s.handleListTemplates,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("analyze_task",
			mcp.WithDescription("Build the prompt that analyzes a development task"),
			mcp.WithString("task", mcp.Required(), mcp.Description("What needs to be done")),
			mcp.WithString("project_root", mcp.Description("Repository the task applies to")),
			mcp.WithString("notes", mcp.Description("Extra context")),
			mcp.WithBoolean("deep", mcp.Description("Request a deep rather than quick analysis")),
		),
		s.handleAnalyzeTask,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("plan_task",
			mcp.WithDescription("Build the prompt that turns an analysis into an implementation plan"),
			mcp.WithString("task", mcp.Required(), mcp.Description("What needs to be done")),
			mcp.WithString("analysis", mcp.Description("Output of analyze_task")),
			mcp.WithNumber("max_steps", mcp.Description("Upper bound on plan steps (default 10)")),
			mcp.WithBoolean("include_tests", mcp.Description("Ask for a test in every step")),
		),
		s.handlePlanTask,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("execute_task",
			mcp.WithDescription("Build the prompt that carries out one plan step"),
			mcp.WithString("task", mcp.Required(), mcp.Description("What needs to be done")),
			mcp.WithString("plan", mcp.Description("Output of plan_task")),
			mcp.WithNumber("step", mcp.Description("Step to carry out, starting at 1")),
			mcp.WithNumber("total_steps", mcp.Description("Number of steps in the plan")),
			mcp.WithBoolean("dry_run", mcp.Description("Describe the changes without making them")),
		),
		s.handleExecuteTask,
	)
}

func (s *Server) handleRenderTemplate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultError("no arguments provided"), nil
	}

	path, ok := args["path"].(string)
	if !ok || strings.TrimSpace(path) == "" {
		return mcp.NewToolResultError("missing or empty 'path' parameter"), nil
	}

	rc, err := contextFromArgument(args["context"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid 'context' parameter: %v", err)), nil
	}

	text, err := s.builder.Build(ctx, path, rc)
	if err != nil {
		return s.toolError("render_template", err), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleListTemplates(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths, err := s.loader.List()
	if err != nil {
		return s.toolError("list_templates", err), nil
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) handleAnalyzeTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	text, err := s.builder.AnalyzeTask(ctx, prompts.AnalyzeTaskInput{
		Task:        stringArg(args, "task"),
		ProjectRoot: stringArg(args, "project_root"),
		Notes:       stringArg(args, "notes"),
		Deep:        boolArg(args, "deep"),
	})
	if err != nil {
		return s.toolError("analyze_task", err), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handlePlanTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	maxSteps, err := intArg(args, "max_steps")
	if err != nil {
		return s.toolError("plan_task", err), nil
	}
	text, err := s.builder.PlanTask(ctx, prompts.PlanTaskInput{
		Task:         stringArg(args, "task"),
		Analysis:     stringArg(args, "analysis"),
		MaxSteps:     maxSteps,
		IncludeTests: boolArg(args, "include_tests"),
	})
	if err != nil {
		return s.toolError("plan_task", err), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleExecuteTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	step, err := intArg(args, "step")
	if err != nil {
		return s.toolError("execute_task", err), nil
	}
	totalSteps, err := intArg(args, "total_steps")
	if err != nil {
		return s.toolError("execute_task", err), nil
	}
	text, err := s.builder.ExecuteTask(ctx, prompts.ExecuteTaskInput{
		Task:       stringArg(args, "task"),
		Plan:       stringArg(args, "plan"),
		Step:       step,
		TotalSteps: totalSteps,
		DryRun:     boolArg(args, "dry_run"),
	})
	if err != nil {
		return s.toolError("execute_task", err), nil
	}
	return mcp.NewToolResultText(text), nil
}

// toolError logs err and turns it into a tool result. Access denials are
// reported without the requested path.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	if errors.Is(err, sandbox.ErrAccessDenied) {
		requested, _ := sandbox.RequestedPath(err)
		s.logger.Warn("Tool request denied", "tool", tool, "requested", requested)
		return mcp.NewToolResultError("access denied")
	}
	s.logger.Error("Tool request failed", "tool", tool, "error", err)
	return mcp.NewToolResultError(err.Error())
}

// contextFromArgument converts a decoded JSON object into a render context.
// Whole numbers become Int values so they print without a decimal point.
func contextFromArgument(raw any) (render.Context, error) {
	if raw == nil {
		return render.Context{}, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object, got %T", raw)
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rc := make(render.Context, len(obj))
	for _, k := range keys {
		v, err := valueFromJSON(obj[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		rc[k] = v
	}
	return rc, nil
}

func valueFromJSON(raw any) (render.Value, error) {
	switch v := raw.(type) {
	case string:
		return render.Text(v), nil
	case bool:
		return render.Flag(v, "true", "false"), nil
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return render.Int(int64(v)), nil
		}
		return render.Number(v), nil
	case int:
		return render.Int(int64(v)), nil
	case int64:
		return render.Int(v), nil
	default:
		return render.Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func boolArg(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}

// intArg reads an optional whole-number argument. Absent keys yield 0.
// Fractions and values outside the exactly representable range are rejected.
func intArg(args map[string]any, key string) (int, error) {
	switch v := args[key].(type) {
	case nil:
		return 0, nil
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > 1<<53 {
			return 0, fmt.Errorf("invalid '%s' parameter: %v is not a whole number", key, v)
		}
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("invalid '%s' parameter: expected a number, got %T", key, v)
	}
}
