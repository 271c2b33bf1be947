// Package websocket pushes grid changes to browsers watching a session.
//
// A central Hub tracks clients per session ID. Each connection gets a read
// goroutine, which only keeps the connection alive, and a write goroutine
// that drains the client's send queue and sends pings.
//
// Outgoing messages are JSON:
//   - {"event": "grid_update", "session_id": "...", "grid": GridView}
//   - {"event": "grid_grown", "session_id": "...", "growth": GrowthRecord}
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
