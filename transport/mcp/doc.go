// Package mcp exposes growing grid sessions to AI agents over the Model
// Context Protocol.
//
// Client is a thin proxy: every tool call becomes a request against the
// REST API, so the MCP process holds no grid state of its own.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - grid_view: render the grid, highest row first
//   - get_cell, set_cell, bulk_set: cell access with automatic growth
//   - insert_layout: copy text rows into existing bounds
//   - area: cells within a square or manhattan radius
//   - growth_history: paginated growth records
//   - reset_grid, list_configs, grid_instructions
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
