package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CallMeTrinity/sae501-api-server/game/engine"
	"github.com/CallMeTrinity/sae501-api-server/store"
)

var (
	// ErrSessionNotFound is returned by lookups that must not auto-create.
	ErrSessionNotFound = errors.New("session not found")
	// ErrMissingSession means the event named no session id.
	ErrMissingSession = errors.New("session id is required")
	// ErrQuestionNotFound means the referenced question does not exist.
	ErrQuestionNotFound = errors.New("question not found")
)

// GameService defines all game coordination operations.
type GameService interface {
	// Realtime session events
	JoinSession(ctx context.Context, sessionID string, p engine.Player) ([]engine.Player, error)
	StartRound(ctx context.Context, sessionID string) error
	RefreshHints(ctx context.Context, sessionID string) (*store.SessionRecord, error)
	NextQuestion(ctx context.Context, sessionID string) (*NextQuestionResult, error)
	SubmitAnswer(ctx context.Context, sessionID string, questionID int, answer string) (*AnswerResult, error)
	CastVote(ctx context.Context, sessionID, voterID, suspectID string) (map[string]string, error)
	CurrentVotes(ctx context.Context, sessionID string) (map[string]string, error)
	StartVoteCountdown(ctx context.Context, sessionID string, initialSeconds int) error
	BeginVotePhase(ctx context.Context, sessionID string, durationSeconds int) (time.Time, error)
	EndGameRedirect(ctx context.Context, sessionID string, votes map[string]string) (string, error)

	// Question content
	ActiveQuestions(ctx context.Context, limit int) ([]store.Question, error)
	ValidateAnswer(ctx context.Context, questionID int, answer string) (*engine.AnswerCheck, error)

	// Read-only views
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	Suspects(ctx context.Context) ([]store.Suspect, error)
	SuspectHints(ctx context.Context, suspectID int) ([]store.SuspectHint, error)
}

// SessionRegistry defines in-memory session storage operations.
type SessionRegistry interface {
	// GetOrCreate never fails; it lazily creates an empty session entry on
	// first reference.
	GetOrCreate(id string) *Session
	// Get returns ErrSessionNotFound instead of creating.
	Get(id string) (*Session, error)
	List() []*Session
	Touch(id string)
	Count() int
}

// CountdownStarter is the countdown manager surface the service drives.
type CountdownStarter interface {
	GetOrStart(sessionID string, initialSeconds int)
}

// Session is one in-memory session entry. The registry owns the map; the
// session owns its aggregate and the lock that serializes every operation
// touching it.
type Session struct {
	ID        string
	State     *engine.State
	CreatedAt time.Time

	// lastAccess is kept atomic so reaper scans and Touch calls never
	// contend with the serialization lock.
	lastAccess atomic.Int64

	mu sync.Mutex
}

// NewSession creates an empty session entry.
func NewSession(id string) *Session {
	now := time.Now()
	s := &Session{
		ID:        id,
		State:     engine.NewState(),
		CreatedAt: now,
	}
	s.lastAccess.Store(now.UnixNano())
	return s
}

// Lock acquires the session's serialization lock. Every store call plus
// in-memory mutation for this session happens under it as one unit.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session's serialization lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Touch records an access for expiry bookkeeping.
func (s *Session) Touch() { s.lastAccess.Store(time.Now().UnixNano()) }

// LastAccessedAt returns the time of the most recent access.
func (s *Session) LastAccessedAt() time.Time {
	return time.Unix(0, s.lastAccess.Load())
}

// SetLastAccess overrides the access timestamp. Expiry tests use it to age
// entries without waiting out the retention window.
func (s *Session) SetLastAccess(t time.Time) { s.lastAccess.Store(t.UnixNano()) }
