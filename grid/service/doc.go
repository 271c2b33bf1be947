// Package service provides the business logic layer for growgrid.
//
// The service package implements:
//   - Multi-session grid management
//   - Grid presets (GridConfig) and their validation
//   - Cell reads and writes with growth accounting
//   - Growth history tracking per session
//
// Core Interfaces:
//
// GridService is the main service interface providing high-level grid operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages preset loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the grid engine. Each session owns one engine.Growing[rune]. Growing grids
// are not safe for concurrent use, so the service serializes every call with
// one mutex.
//
// Before any access that would grow a grid the service plans the growth and
// rejects it with ErrGridTooLarge when the new area exceeds the preset's
// max_cells. The grid is left untouched in that case.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gridService := service.NewGridService(sessionMgr, configMgr)
//
//	info, err := gridService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	res, err := gridService.SetCell(ctx, info.ID, 7, 2, "#")
//	// res.Grown lists the growth events the write triggered
package service
