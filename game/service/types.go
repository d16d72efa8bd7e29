package service

import (
	"time"

	"github.com/CallMeTrinity/sae501-api-server/game/engine"
	"github.com/CallMeTrinity/sae501-api-server/store"
)

// NextQuestionResult is the outcome of a next-question request: either the
// chosen question with the player it is attributed to, or the signal that
// the session moves to the voting phase.
type NextQuestionResult struct {
	Question     *store.Question `json:"question,omitempty"`
	ActivePlayer engine.Player   `json:"active_player"`
	MoveToVote   bool            `json:"move_to_vote"`
}

// AnswerResult is the outcome of an answer submission: the turn has
// advanced and clients are redirected with the obfuscated payload.
type AnswerResult struct {
	RedirectURL       string        `json:"redirect_url"`
	ActivePlayerIndex int           `json:"active_player_index"`
	ActivePlayer      engine.Player `json:"active_player"`
}

// SessionInfo is the merged read-only view of a session: the live in-memory
// aggregate plus, when present, the durable snapshot.
type SessionInfo struct {
	ID                string            `json:"id"`
	Code              string            `json:"code,omitempty"`
	Status            string            `json:"status,omitempty"`
	Players           []engine.Player   `json:"players"`
	ActivePlayerIndex int               `json:"active_player_index"`
	Votes             map[string]string `json:"votes"`
	VoteDeadline      time.Time         `json:"vote_deadline,omitzero"`
	HintsLeft         int               `json:"hints_left,omitempty"`
	AnsweredQuestions int               `json:"answered_questions"`
	CreatedAt         time.Time         `json:"created_at"`
	LastAccessedAt    time.Time         `json:"last_accessed_at"`
}
