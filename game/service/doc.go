// Package service defines the game coordination operations and their
// business semantics.
//
// GameService is the contract the transports (WebSocket event dispatch, REST
// API, MCP tools) call into: one method per inbound game event plus the
// read-only session views. The implementation owns the unit-of-work rule
// from the concurrency model: every operation locks its session, performs
// any durable-store call and the in-memory mutation as one unit, and only
// then returns the payload the transport broadcasts. Operations on
// different sessions run in parallel; operations on the same session are
// serialized by the session's own lock.
//
// Session is the in-memory session entry held by the registry: the engine
// aggregate plus bookkeeping timestamps and the per-session mutex.
package service
