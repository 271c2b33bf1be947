package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/growgrid/grid/service"
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
		baseURL: strings.TrimSuffix(baseURL, "/"),
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
		"Growing Grid",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Growing Grid - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Each session holds a 2D character grid that expands automatically when you
touch a coordinate outside its bounds. Coordinates are integers, x grows to
the right and y grows upward.

AVAILABLE TOOLS:
- create_session: Create a grid session from a configuration
- list_sessions / get_session: Inspect sessions
- grid_view: Render the whole grid, top row first
- get_cell / set_cell: Read or write one cell
- bulk_set: Write many cells in order
- insert_layout: Copy text rows into the existing bounds
- area: List cells around a point
- growth_history: See when and how the grid expanded
- reset_grid: Rebuild the grid from its configuration
- list_configs: List available configurations
- grid_instructions: Full description of growth rules`),
	)

	c.registerTools()
}

func sessionProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func intProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new grid session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the config to use (optional, see list_configs)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active grid sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get bounds, growth counters and config of a session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Grid operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "grid_view",
		Description: "Render the whole grid. The first row printed is the highest y.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleGridView)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_cell",
		Description: "Read one cell. Reading outside the bounds grows the grid when the config allows it.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"x":          intProp("X coordinate"),
				"y":          intProp("Y coordinate"),
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleGetCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_cell",
		Description: "Write one character to a cell, growing the grid if needed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"x":          intProp("X coordinate"),
				"y":          intProp("Y coordinate"),
				"value": map[string]interface{}{
					"type":        "string",
					"description": "Exactly one character",
				},
			},
			Required: []string{"session_id", "x", "y", "value"},
		},
	}, c.handleSetCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_set",
		Description: "Write many cells in order. Stops at the first failing write.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"writes": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"x":     map[string]interface{}{"type": "integer"},
							"y":     map[string]interface{}{"type": "integer"},
							"value": map[string]interface{}{"type": "string"},
						},
						"required": []string{"x", "y", "value"},
					},
					"description": fmt.Sprintf("Writes to apply (at most %d)", service.MaxBulkWrites),
				},
			},
			Required: []string{"session_id", "writes"},
		},
	}, c.handleBulkSet)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "insert_layout",
		Description: "Copy text rows into the grid. rows[0] lands on bottom_y and later rows go upward. Never grows the grid.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"left_x":     intProp("X of the leftmost column"),
				"bottom_y":   intProp("Y of rows[0], the lowest row"),
				"rows": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Equal-length text rows, bottom row first",
				},
			},
			Required: []string{"session_id", "left_x", "bottom_y", "rows"},
		},
	}, c.handleInsertLayout)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "area",
		Description: "List in-bounds cells within a radius of a point. Never grows the grid.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"x":          intProp("Center X"),
				"y":          intProp("Center Y"),
				"radius":     intProp("Radius"),
				"metric": map[string]interface{}{
					"type":        "string",
					"enum":        []string{string(service.AreaSquare), string(service.AreaManhattan)},
					"description": "Distance metric (default square)",
				},
			},
			Required: []string{"session_id", "x", "y", "radius"},
		},
	}, c.handleArea)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_grid",
		Description: "Rebuild the grid from its configuration and clear growth history",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "growth_history",
		Description: "Get growth history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"page":       intProp("Page number (default 1)"),
				"limit":      intProp("Records per page (default 20, max 100)"),
				"order": map[string]interface{}{
					"type": "string",
					"enum": []string{"asc", "desc"},
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleGrowthHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available grid configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "grid_instructions",
		Description: "Get the rules for coordinates, growth and limits",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGridInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
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

func sessionPath(sessionID string, parts ...string) string {
	p := "/api/sessions/" + url.PathEscape(sessionID)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// intArg reads a JSON number argument
func intArg(args map[string]interface{}, name string) (int, error) {
	switch v := args[name].(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be an integer", name)
		}
		return int(v), nil
	case int:
		return v, nil
	case nil:
		return 0, fmt.Errorf("%s is required", name)
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
}

func stringSlice(raw interface{}) []string {
	items, _ := raw.([]interface{})
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\nBounds: %s\n", session.ID, session.ConfigName, session.Bounds)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		result += fmt.Sprintf("- %s (Config: %s, Bounds: %s, Created: %s)\n",
			s.ID, s.ConfigName, s.Bounds, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGridView(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var view service.GridView
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "grid"), nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGridView(&view)), nil
}

func (c *Client) handleGetCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	x, err := intArg(args, "x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	y, err := intArg(args, "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var cell service.CellResult
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "cells", fmt.Sprint(x), fmt.Sprint(y)), nil, &cell); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCellResult(&cell)), nil
}

func (c *Client) handleSetCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	value, _ := args["value"].(string)
	x, err := intArg(args, "x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	y, err := intArg(args, "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var cell service.CellResult
	body := map[string]string{"value": value}
	if err := c.apiCall(ctx, "PUT", sessionPath(sessionID, "cells", fmt.Sprint(x), fmt.Sprint(y)), body, &cell); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("✓ Cell written\n" + formatCellResult(&cell)), nil
}

func (c *Client) handleBulkSet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	rawWrites, _ := args["writes"].([]interface{})

	writes := make([]service.CellWrite, 0, len(rawWrites))
	for i, raw := range rawWrites {
		w, ok := raw.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("write %d must be an object", i+1)), nil
		}
		x, err := intArg(w, "x")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("write %d: %v", i+1, err)), nil
		}
		y, err := intArg(w, "y")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("write %d: %v", i+1, err)), nil
		}
		value, _ := w["value"].(string)
		writes = append(writes, service.CellWrite{X: x, Y: y, Value: value})
	}

	var result service.BulkSetResult
	body := map[string]interface{}{"writes": writes}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "bulk-set"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkSetResult(sessionID, &result)), nil
}

func (c *Client) handleInsertLayout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	leftX, err := intArg(args, "left_x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bottomY, err := intArg(args, "bottom_y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]interface{}{
		"left_x":   leftX,
		"bottom_y": bottomY,
		"rows":     stringSlice(args["rows"]),
	}

	var result service.InsertResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "insert"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("✓ Inserted %dx%d layout at %s\nBounds: %s\n",
		result.Width, result.Height, result.Origin, result.Bounds)), nil
}

func (c *Client) handleArea(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	metric, _ := args["metric"].(string)

	q := url.Values{}
	for _, name := range []string{"x", "y", "radius"} {
		v, err := intArg(args, name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		q.Set(name, fmt.Sprint(v))
	}
	if metric != "" {
		q.Set("metric", metric)
	}

	var result service.AreaResult
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "area")+"?"+q.Encode(), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatArea(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var view service.GridView
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "reset"), nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Grid reset\n\n" + formatGridView(&view)), nil
}

func (c *Client) handleGrowthHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)

	q := url.Values{}
	if page, err := intArg(args, "page"); err == nil {
		q.Set("page", fmt.Sprint(page))
	}
	if limit, err := intArg(args, "limit"); err == nil {
		q.Set("limit", fmt.Sprint(limit))
	}
	if order, ok := args["order"].(string); ok {
		q.Set("order", order)
	}

	path := sessionPath(sessionID, "growth")
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Configurations:\n\n"
	for _, config := range configs {
		result += fmt.Sprintf("• %s (%s)\n  %s\n  Grid: %dx%d, Increment: %d, Default: %q\n\n",
			config.ConfigID, config.Name, config.Description,
			config.Width, config.Height, config.GrowthIncrement, config.Default)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGridInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gridInstructions), nil
}

const gridInstructions = `Growing Grid - Instructions

COORDINATES:
• x increases to the right, y increases upward
• Bounds are inclusive: min_x..max_x and min_y..max_y
• grid_view prints the row with the highest y first

GROWTH:
• Touching a cell outside the bounds expands the grid toward it
• Each expansion adds a multiple of the growth increment on each side
  that needs it, just enough to cover the target
• A diagonal miss expands two sides at once
• Existing cells keep their coordinates and content
• New cells hold the config's default character

WHICH ACCESSES GROW:
• set_cell and bulk_set grow unless grows_on_write is false
• get_cell grows unless grows_on_read is false
• area, grid_view and insert_layout never grow
• When growth is disabled, an outside access fails with "coordinate out of bounds"

LIMITS:
• Each config has max_cells; an access that would exceed it is rejected
• bulk_set applies at most 500 writes and stops at the first failure
• Cell values are exactly one character

GROWTH HISTORY:
• Every expansion is recorded with how many columns or rows were added
  per side and the bounds afterwards
• Use growth_history to page through them`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\nBounds: %s (%d cells)\nGrowth: up=%d right=%d down=%d left=%d\n",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		session.Bounds, session.Cells,
		session.Growth.Up, session.Growth.Right, session.Growth.Down, session.Growth.Left)
}

func formatGridView(view *service.GridView) string {
	if view == nil {
		return "No grid available"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Bounds: %s | Default: %q | Increment: %d\n",
		view.Bounds, view.Default, view.Increment))
	b.WriteString(fmt.Sprintf("Grows on read: %v | Grows on write: %v\n\n", view.GrowsOnRead, view.GrowsOnWrite))

	for i, row := range view.Rows {
		b.WriteString(fmt.Sprintf("%6d  %s\n", view.Bounds.MaxY-i, row))
	}
	return b.String()
}

func formatCellResult(cell *service.CellResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Cell (%d,%d) = %q\nBounds: %s\n", cell.X, cell.Y, cell.Value, cell.Bounds))
	for _, g := range cell.Grown {
		b.WriteString(formatGrowth(g))
	}
	return b.String()
}

func formatGrowth(g service.GrowthRecord) string {
	return fmt.Sprintf("Grew #%d: up=%d right=%d down=%d left=%d -> %s\n",
		g.Seq, g.Up, g.Right, g.Down, g.Left, g.Bounds)
}

func formatBulkSetResult(sessionID string, result *service.BulkSetResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Session: %s\n", sessionID))
	b.WriteString(fmt.Sprintf("Applied %d/%d writes\n", result.Applied, result.Requested))
	if result.Truncated {
		b.WriteString(fmt.Sprintf("Truncated to %d writes\n", result.Limit))
	}
	if result.StoppedReason != "" {
		b.WriteString(fmt.Sprintf("Stopped: %s\n", result.StoppedReason))
	}
	b.WriteString(fmt.Sprintf("Bounds: %s\n", result.Bounds))
	for _, g := range result.Grown {
		b.WriteString(formatGrowth(g))
	}
	return b.String()
}

func formatArea(result *service.AreaResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Area around %s radius %d (%s): %d cells\n",
		result.Center, result.Radius, result.Metric, len(result.Cells)))
	for _, cell := range result.Cells {
		b.WriteString(fmt.Sprintf("(%d,%d) %s\n", cell.X, cell.Y, cell.Value))
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Growth History (Page %d/%d, %d total)\n",
		history.Page, history.TotalPages, history.Total))
	b.WriteString(fmt.Sprintf("Counts: up=%d right=%d down=%d left=%d\n\n",
		history.Counts.Up, history.Counts.Right, history.Counts.Down, history.Counts.Left))

	for _, rec := range history.Records {
		b.WriteString(fmt.Sprintf("%s  ", rec.Timestamp.Format("15:04:05")))
		b.WriteString(formatGrowth(rec))
	}

	if history.HasNext {
		b.WriteString(fmt.Sprintf("\nMore records on page %d\n", history.Page+1))
	}
	return b.String()
}
