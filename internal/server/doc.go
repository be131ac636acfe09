// Package server implements the MCP (Model Context Protocol) server for color
// variation generation.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_load: Load an image and report its metadata
//   - variations_plan: List the files a run would produce
//   - variations_generate: Start a background generation run
//   - variations_cancel: Cancel the active run
//   - variations_status: Report the active or last run
//
// Generation arguments use the same snake_case keys as config files
// (input_path, hue_count, saturation_count, r_scale, skip_gray, ...).
//
// # Notifications
//
// variations_generate returns as soon as the run has started. While it runs
// the server sends:
//   - notifications/progress: {progressToken: run id, progress, total: 1}
//   - notifications/message: log lines with an MCP logging level
//   - notifications/variations/finished: the summary or structured error
//
// Responses and notifications share one encoder guarded by a mutex, so lines
// never interleave.
//
// # Image Caching
//
// Loaded images are cached by path for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// Failures inside a run are not tool errors; they arrive in the finished
// notification with status "failed" and an error object {kind, message}.
//
// # Usage
//
//	srv := server.New(logger)
//	if err := srv.Run(); err != nil {
//	    logger.Fatal("server stopped", zap.Error(err))
//	}
package server
