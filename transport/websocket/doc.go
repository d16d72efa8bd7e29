// Package websocket provides the realtime transport for the party-game
// server.
//
// The Hub maintains the set of connected clients and the broadcast groups
// ("rooms"), one per session id. Clients connect once at /ws and then
// address sessions through a JSON event envelope:
//
//	{"event": "joinSession", "data": {"sessionId": "42", "player": {...}}}
//
// Inbound events are decoded on the connection's read pump and dispatched
// to the game service; results fan out either to the whole room (state
// changes) or back to only the originating connection (errors and personal
// acknowledgements). Broadcast ordering is best-effort arrival order per
// connection; sessions are independent of each other.
//
// Room membership is a side effect of dispatch: handling a join or
// vote-related event for a session adds the connection to that session's
// room. A connection may take part in several rooms.
package websocket
