package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gridlife/lifeserver/sim/engine"
	"github.com/gridlife/lifeserver/sim/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Game of Life Server",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Game of Life Server - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Each session holds one square Conway's Game of Life board. Boards evolve by
the classic rules: a live cell with 2 or 3 live neighbors survives, a dead
cell with exactly 3 live neighbors is born, everything else dies. The grid
is finite; cells beyond the edge are permanently dead.

AVAILABLE TOOLS:
- create_session: Create a new board (optionally sized, seeded with a pattern)
- list_sessions: List all active sessions
- session_state: Get a session's current state
- start / stop: Run or halt automatic stepping
- step: Advance exactly one generation
- toggle_cell: Flip one cell (board must be stopped)
- randomize: Fill the board randomly (board must be stopped)
- reset: Clear the board, optionally resizing it
- set_speed: Set generations per second (1-100)
- export_grid / import_grid: Snapshot the board as JSON
- list_patterns: List available seed patterns
- apply_pattern: Stamp a named pattern onto the board
- render_grid: Draw the board as ASCII art

NOTE: Structural edits (toggle, randomize, reset, import, apply_pattern) are
silently ignored while a board is running; the response reports applied=false.
Stop the board first.`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	sessionIDProp := map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}

	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new Game of Life session with optional size, speed and seed pattern",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"size": map[string]interface{}{
					"type":        "integer",
					"description": "Grid size (3-1024, default 128)",
				},
				"speed": map[string]interface{}{
					"type":        "number",
					"description": "Generations per second (1-100, default 1)",
				},
				"pattern": map[string]interface{}{
					"type":        "string",
					"description": "Seed pattern to stamp centered on the board (optional, see list_patterns)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active simulation sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "session_state",
		Description: "Get the current state of a session (generation, speed, population)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp,
			},
			Required: []string{"session_id"},
		},
	}, c.handleSessionState)

	// Lifecycle
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start",
		Description: "Start automatic stepping (first generation advances immediately)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp,
			},
			Required: []string{"session_id"},
		},
	}, c.handleStart)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "stop",
		Description: "Stop automatic stepping",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp,
			},
			Required: []string{"session_id"},
		},
	}, c.handleStop)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "step",
		Description: "Advance the board exactly one generation (ignored while running)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp,
			},
			Required: []string{"session_id"},
		},
	}, c.handleStep)

	// Grid operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "toggle_cell",
		Description: "Flip one cell between alive and dead (ignored while running)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp,
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row of the cell (0-based)",
				},
				"column": map[string]interface{}{
					"type":        "integer",
					"description": "Column of the cell (0-based)",
				},
			},
			Required: []string{"session_id", "row", "column"},
		},
	}, c.handleToggleCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "randomize",
		Description: "Fill the board with a 50% random pattern (ignored while running)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp,
			},
			Required: []string{"session_id"},
		},
	}, c.handleRandomize)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset",
		Description: "Clear the board to all-dead, optionally resizing it (ignored while running)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp,
				"size": map[string]interface{}{
					"type":        "integer",
					"description": "New grid size (3-1024); omit to keep the current size",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_speed",
		Description: "Set the stepping rate in generations per second (1-100); takes effect from the next interval",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp,
				"speed": map[string]interface{}{
					"type":        "number",
					"description": "Generations per second (1-100)",
				},
			},
			Required: []string{"session_id", "speed"},
		},
	}, c.handleSetSpeed)

	// Snapshots
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "export_grid",
		Description: "Export the board as a JSON snapshot",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp,
			},
			Required: []string{"session_id"},
		},
	}, c.handleExportGrid)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "import_grid",
		Description: "Replace the board from a JSON snapshot (ignored while running)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp,
				"snapshot": map[string]interface{}{
					"type":        "object",
					"description": "Snapshot object with size and cells, as produced by export_grid",
				},
			},
			Required: []string{"session_id", "snapshot"},
		},
	}, c.handleImportGrid)

	// Patterns
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_patterns",
		Description: "List available seed patterns (gliders, oscillators, still lifes)",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPatterns)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "apply_pattern",
		Description: "Stamp a named pattern with its top-left corner at (row, column); ignored while running",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp,
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Pattern name (see list_patterns)",
				},
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row of the pattern's top-left corner (0-based)",
				},
				"column": map[string]interface{}{
					"type":        "integer",
					"description": "Column of the pattern's top-left corner (0-based)",
				},
			},
			Required: []string{"session_id", "name"},
		},
	}, c.handleApplyPattern)

	// Rendering
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "render_grid",
		Description: "Render the board as ASCII art ('O' for live cells, '.' for dead)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp,
			},
			Required: []string{"session_id"},
		},
	}, c.handleRenderGrid)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})

	body := map[string]interface{}{}
	if size, ok := args["size"].(float64); ok {
		body["size"] = int(size)
	}
	if speed, ok := args["speed"].(float64); ok {
		body["speed"] = speed
	}
	if pat, ok := args["pattern"].(string); ok && pat != "" {
		body["pattern"] = pat
	}

	var session service.SessionInfo
	err := c.apiCall("POST", "/api/sessions", body, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\n\n%s", session.ID, formatSessionInfo(&session))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	err := c.apiCall("GET", "/api/sessions", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "stopped"
		if s.State != nil && s.State.Running {
			status = "running"
		}
		gen, pop, size := 0, 0, 0
		if s.State != nil {
			gen, pop, size = s.State.Generation, s.State.Population, s.State.Size
		}
		result += fmt.Sprintf("- %s (%s, %dx%d, gen %d, pop %d, created %s)\n",
			s.ID, status, size, size, gen, pop, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleSessionState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var session service.SessionInfo
	err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s", sessionID), nil, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var state service.StateInfo
	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/start", sessionID), nil, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Simulation started\n\n%s", formatStateInfo(&state))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleStop(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var state service.StateInfo
	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/stop", sessionID), nil, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Simulation stopped\n\n%s", formatStateInfo(&state))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var result service.OpResult
	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/step", sessionID), nil, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatOpResult("Step", &result)), nil
}

func (c *Client) handleToggleCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)
	row := intArg(args, "row")
	column := intArg(args, "column")

	body := map[string]interface{}{
		"row":    row,
		"column": column,
	}

	var result service.OpResult
	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/cells/toggle", sessionID), body, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatOpResult(fmt.Sprintf("Toggle (%d,%d)", row, column), &result)), nil
}

func (c *Client) handleRandomize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var result service.OpResult
	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/randomize", sessionID), nil, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatOpResult("Randomize", &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	body := map[string]interface{}{}
	if size, ok := args["size"].(float64); ok {
		body["size"] = int(size)
	}

	var result service.OpResult
	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/reset", sessionID), body, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatOpResult("Reset", &result)), nil
}

func (c *Client) handleSetSpeed(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)
	speed, _ := args["speed"].(float64)

	body := map[string]interface{}{
		"speed": speed,
	}

	var result service.OpResult
	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/speed", sessionID), body, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatOpResult(fmt.Sprintf("Set speed to %.1f", speed), &result)), nil
}

func (c *Client) handleExportGrid(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var snap engine.Snapshot
	err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s/export", sessionID), nil, &snap)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}

func (c *Client) handleImportGrid(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)
	snapshot, ok := args["snapshot"].(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("snapshot must be an object with size and cells"), nil
	}

	var result service.OpResult
	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/import", sessionID), snapshot, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatOpResult("Import", &result)), nil
}

func (c *Client) handleListPatterns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Patterns []service.PatternInfo `json:"patterns"`
	}

	err := c.apiCall("GET", "/api/patterns", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Available Patterns (%d):\n\n", response.Count)
	for _, p := range response.Patterns {
		result += fmt.Sprintf("• %s — %s\n  %s (%dx%d)\n\n",
			p.ID, p.Name, p.Description, p.Rows, p.Columns)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleApplyPattern(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)
	name, _ := args["name"].(string)
	row := intArg(args, "row")
	column := intArg(args, "column")

	body := map[string]interface{}{
		"row":    row,
		"column": column,
	}

	var result service.OpResult
	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/patterns/%s", sessionID, name), body, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatOpResult(fmt.Sprintf("Apply %s at (%d,%d)", name, row, column), &result)), nil
}

func (c *Client) handleRenderGrid(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var snap engine.Snapshot
	err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s/export", sessionID), nil, &snap)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(renderSnapshot(&snap)), nil
}

// intArg extracts an integer tool argument; JSON numbers arrive as float64.
func intArg(args map[string]interface{}, name string) int {
	if v, ok := args[name].(float64); ok {
		return int(v)
	}
	return 0
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	result := fmt.Sprintf("Session: %s\nCreated: %s\n\n%s",
		session.ID,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatStateInfo(session.State))

	if session.State != nil && session.State.Snapshot != nil {
		result += "\n\n" + renderSnapshot(session.State.Snapshot)
	}
	return result
}

func formatStateInfo(state *service.StateInfo) string {
	if state == nil {
		return "No state available"
	}

	status := "stopped"
	if state.Running {
		status = "running"
	}
	return fmt.Sprintf("Status: %s | Generation: %d | Speed: %.1f gen/s | Grid: %dx%d | Population: %d",
		status, state.Generation, state.Speed, state.Size, state.Size, state.Population)
}

func formatOpResult(action string, result *service.OpResult) string {
	var header string
	if result.Applied {
		header = fmt.Sprintf("✓ %s applied\n", action)
	} else {
		header = fmt.Sprintf("✗ %s ignored (stop the board first)\n", action)
	}

	return header + formatStateInfo(result.State)
}

// renderSnapshot draws the board as ASCII art, 'O' for live cells and '.'
// for dead ones. Large boards are clipped so output stays readable.
func renderSnapshot(snap *engine.Snapshot) string {
	const maxRender = 64

	size := snap.Size
	render := size
	clipped := false
	if render > maxRender {
		render = maxRender
		clipped = true
	}

	alive := make(map[int]bool, len(snap.Cells))
	for _, cell := range snap.Cells {
		if cell.Alive {
			alive[cell.Row*size+cell.Column] = true
		}
	}

	var b strings.Builder
	for row := 0; row < render; row++ {
		for col := 0; col < render; col++ {
			if alive[row*size+col] {
				b.WriteString("O")
			} else {
				b.WriteString(".")
			}
		}
		b.WriteString("\n")
	}

	if clipped {
		b.WriteString(fmt.Sprintf("(showing top-left %dx%d of %dx%d)\n", render, render, size, size))
	}
	return b.String()
}
