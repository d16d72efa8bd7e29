// Package api provides the HTTP surface of the party-game server.
//
// It exposes:
//   - Read-only session views (live roster, vote map, durable snapshot)
//   - A join QR code per session for getting players into a lobby fast
//   - Question fetching and answer validation for the round screens
//   - Suspect and hint lookups for the voting screens
//   - Rule-set (config) listing and retrieval
//   - The /ws WebSocket endpoint the realtime coordinator runs on
//
// Handlers are thin: they parse the request, call the game service and
// encode the result. Resource management endpoints (creating or editing
// players, suspects, hints) are intentionally absent; content is seeded
// out of band.
package api
