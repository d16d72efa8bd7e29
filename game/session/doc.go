// Package session provides the in-memory session registry for the
// party-game server.
//
// The session package implements:
//   - Lazy session creation on first reference
//   - Thread-safe session storage and retrieval
//   - Session lifecycle bookkeeping (creation and last-access times)
//   - Reaping of sessions idle past a retention window
//
// Core Types:
//
// Manager is the registry: the authoritative map from session id to the
// in-memory session entry. It is the lifecycle owner for all per-session
// state; no other component keeps a competing copy.
//
// Concurrency:
//
// The registry map is guarded by its own lock; each session entry carries a
// separate lock that serializes every operation touching that session.
// Operations on distinct sessions never contend with each other.
//
// Usage:
//
//	registry := session.NewManager()
//
//	// Lazily create on first reference
//	sess := registry.GetOrCreate(sessionID)
//
//	// Strict lookup for handlers that must not auto-create
//	sess, err := registry.Get(sessionID)
//
// Cleanup:
//
// Session entries persist for the process lifetime unless reaped: the
// CleanupExpiredSessions method removes entries idle past the given
// retention, typically driven by a background routine in main. The durable
// snapshot in the store survives reaping.
package session
