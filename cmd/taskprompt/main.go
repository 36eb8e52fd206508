// Package main is the entry point for the taskprompt CLI.
//
// taskprompt serves markdown prompt templates to AI agents over MCP and
// offers a few commands for working with the templates directory locally:
//
//	taskprompt serve            # MCP server on stdio
//	taskprompt render <path>    # render one template
//	taskprompt list             # show templates and their descriptions
//	taskprompt preload          # check that the startup templates load
//	taskprompt data-path <name> # resolve a data-store file
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
