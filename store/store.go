// Package store defines the durable storage contract for the party-game
// server: question content, per-session snapshots (code, status, answered
// question ids, active player index), player identities, suspects and their
// hints. The realtime coordinator consumes this interface; implementations
// live in subpackages.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Question type categories used for round composition quotas.
const (
	TypeText       = "text"
	TypeAction     = "action"
	TypeActionWait = "action_wait"
)

// Question is a single round question. Content and Feedback are opaque to the
// coordinator; Type drives quota selection and Solution drives answer checks.
type Question struct {
	ID       int    `json:"id"`
	Type     string `json:"type"`
	Content  string `json:"content"`
	Solution string `json:"solution"`
	Feedback string `json:"feedback,omitempty"`
	Active   bool   `json:"active"`
}

// SessionRecord is the durable snapshot of a game session. It outlives the
// in-memory session entry; the answered-question history it carries is the
// source of truth across process restarts.
type SessionRecord struct {
	ID                  string    `json:"id"`
	Code                string    `json:"code"`
	Status              string    `json:"status"`
	PlayersNumber       int       `json:"players_number"`
	HostID              string    `json:"host_id,omitempty"`
	KillerID            int       `json:"killer_id,omitempty"`
	KillerType          string    `json:"killer_type,omitempty"`
	HintsLeft           int       `json:"hints_left"`
	ActivePlayerIndex   int       `json:"active_player_index"`
	AnsweredQuestionIDs []int     `json:"answered_question_ids"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// PlayerRecord is a durable player identity.
type PlayerRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Skin string `json:"skin,omitempty"`
}

// Suspect is a votable character in a session's scenario.
type Suspect struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// SuspectHint is one clue attached to a suspect.
type SuspectHint struct {
	ID        int    `json:"id"`
	SuspectID int    `json:"suspect_id"`
	HintText  string `json:"hint_text"`
}

// Store is the durable collaborator the coordinator queries and updates.
// All methods honor context cancellation; a failed call never leaves the
// caller with a half-written record.
type Store interface {
	// Sessions
	GetSession(ctx context.Context, id string) (*SessionRecord, error)
	GetSessionByCode(ctx context.Context, code string) (*SessionRecord, error)
	ListSessions(ctx context.Context) ([]*SessionRecord, error)
	CreateSession(ctx context.Context, rec *SessionRecord) error
	// SaveTurnState persists the active-player index and cumulative
	// answered-question ids after a successful turn advance.
	SaveTurnState(ctx context.Context, sessionID string, activePlayerIndex int, answeredIDs []int) error

	// Questions
	GetQuestion(ctx context.Context, id int) (*Question, error)
	QuestionsByIDs(ctx context.Context, ids []int) ([]Question, error)
	ListActiveQuestions(ctx context.Context) ([]Question, error)
	// ActiveUnanswered returns active questions of the given types whose ids
	// are not in exclude.
	ActiveUnanswered(ctx context.Context, types []string, exclude []int) ([]Question, error)

	// Players
	SavePlayer(ctx context.Context, p *PlayerRecord) error

	// Suspects
	ListSuspects(ctx context.Context) ([]Suspect, error)
	SuspectHints(ctx context.Context, suspectID int) ([]SuspectHint, error)

	Close() error
}
