// Package engine provides the core game logic for the party-game session
// coordinator.
//
// The engine package implements the game mechanics including:
//   - Turn rotation over the session's join-ordered player list
//   - Question selection with per-category quotas and fallback
//   - Vote tallying with deadline enforcement and re-vote overwrite
//   - Answer validation with accent-insensitive comparison
//   - Fisher-Yates shuffling for unbiased random ordering
//
// Core Types:
//
// State is the in-memory aggregate for one session: its players, the active
// player index, the answered flag, the vote deadline and the vote map. State
// carries no locking of its own; the owning session serializes access.
//
// Selector chooses the next question for a session. It consults a
// QuestionSource (the durable store) for candidates, always excluding the
// session's already-answered ids at the query, and balances the round
// composition between the text category and the action family
// (action/action_wait) according to SelectionRules. When both categories are
// exhausted the selection signals the move to the voting phase instead of
// returning a question.
//
// Usage:
//
//	state := engine.NewState()
//	state.Join(engine.Player{ID: "p1", Name: "Alice"})
//	state.AdvanceTurn()
//
//	sel := engine.NewSelector(src, engine.DefaultRules())
//	q, toVote, err := sel.Next(ctx, answeredIDs)
package engine
