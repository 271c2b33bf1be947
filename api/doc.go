// Package api provides the HTTP REST API for growing grid sessions.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get session summary
//   - DELETE /api/sessions/{id} - Delete a session
//
// Grid Operations:
//   - GET /api/sessions/{id}/grid - Render the whole grid, top row first
//   - GET /api/sessions/{id}/cells/{x}/{y} - Read a cell (may grow the grid)
//   - PUT /api/sessions/{id}/cells/{x}/{y} - Write a cell ({"value": "#"})
//   - POST /api/sessions/{id}/bulk-set - Apply up to 500 writes in order
//   - POST /api/sessions/{id}/insert - Copy text rows into existing bounds
//   - GET /api/sessions/{id}/area - Cells around a point (?x&y&radius&metric)
//   - POST /api/sessions/{id}/reset - Rebuild the grid from its config
//   - GET /api/sessions/{id}/growth - Paginated growth history
//   - GET /api/sessions/{id}/growth/chart - HTML growth charts
//
// Configuration:
//   - GET /api/configs - List grid configurations
//   - GET /api/configs/{name} - Get one configuration
//   - POST /api/configs - Validate and save a configuration
//
// Other:
//   - GET /health
//   - GET /ws?session={id} - WebSocket stream of grid_update and grid_grown events
//
// Errors are returned as {"error": "..."}. Missing sessions and configs map
// to 404, writes outside a grid that cannot grow to 409, growth past the
// configured cell limit to 413, and malformed input to 400.
package api
