// Package mcp exposes prompt templates to AI agents over the Model Context
// Protocol using mcp-go (github.com/mark3labs/mcp-go).
//
// Every template whose frontmatter carries a description becomes an MCP
// prompt. Prompt arguments come from the frontmatter "arguments" list or,
// when absent, from the placeholders found in the template body.
//
// The server also registers tools:
//   - render_template renders any template under the templates root with a
//     caller supplied context object
//   - analyze_task, plan_task and execute_task render the built-in task
//     prompts from typed arguments
//   - list_templates lists the logical paths of available templates
//
// # Security
//
// All template access goes through the templates.Loader, so every path is
// validated by the sandbox package before the filesystem is touched:
//   - traversal and absolute paths are rejected
//   - only configured template extensions are served
//   - symlinks that leave the templates root are refused
//
// # Usage
//
// The server is normally started as a subprocess by an MCP client:
//
//	taskprompt serve
//
// It reads JSON-RPC requests from stdin and writes responses to stdout until
// stdin is closed or the process is interrupted. Logs never go to stdout.
//
// # References
//
// - MCP Specification: https://modelcontextprotocol.io/specification
// - mcp-go Library: https://github.com/mark3labs/mcp-go
package mcp
