// Package mcp exposes the Game of Life server over the Model Context Protocol.
//
// The mcp package implements:
//   - MCP server for agent integration
//   - Tool definitions for every simulation operation
//   - Session-aware command execution
//   - Stdio and HTTP transport modes
//
// MCP Tools:
//
// The package exposes the following tools:
//   - create_session: Create a new board with optional size, speed and seed pattern
//   - list_sessions: List all active sessions
//   - session_state: Get a session's generation, speed and population
//   - start / stop: Run or halt automatic stepping
//   - step: Advance exactly one generation
//   - toggle_cell: Flip one cell between alive and dead
//   - randomize: Fill the board with a random pattern
//   - reset: Clear the board, optionally resizing it
//   - set_speed: Set generations per second
//   - export_grid / import_grid: Snapshot the board as JSON
//   - list_patterns: List available seed patterns
//   - apply_pattern: Stamp a named pattern at a position
//   - render_grid: Draw the board as ASCII art
//
// Transport Modes:
//
// The server supports two transport modes:
//   - Stdio: Direct stdio communication for local MCP clients
//   - HTTP: HTTP endpoint for remote MCP integration
//
// Architecture:
//
// The client is a thin proxy: every tool call is translated into a request
// against the REST API, so MCP and HTTP clients always observe the same
// state. Structural edits on a running board come back with applied=false;
// the tool output tells the agent to stop the board first.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
