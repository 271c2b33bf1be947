// Package session provides session management for growgrid.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session persistence to JSON files or SQLite
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the session manager that handles all session operations.
// Each session owns one growing grid of runes plus the growth records
// observed on it.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters from crypto/rand. Lookup is
// case-insensitive.
//
// Persistence:
//
// FilePersistence writes one JSON document per session. SQLitePersistence
// stores the same document in a sessions table (modernc.org/sqlite, no cgo).
// The stored grid keeps its bounds, its rows in ascending y order and the
// per-direction growth counters, so a restored grid keeps its absolute
// coordinates and its history.
//
// Usage:
//
//	manager := session.NewManagerWithPersistence(persistence)
//	sess, err := manager.Create("", "classic", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//	sess, err = manager.Get(sess.ID)
package session
