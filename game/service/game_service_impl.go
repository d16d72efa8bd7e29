package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/CallMeTrinity/sae501-api-server/game/config"
	"github.com/CallMeTrinity/sae501-api-server/game/engine"
	"github.com/CallMeTrinity/sae501-api-server/store"
)

// RedirectBuilder builds the obfuscated redirect URLs broadcast on answer
// submission and game end.
type RedirectBuilder interface {
	AnswerURL(questionID int, answer string) (string, error)
	EndGameURL(votes map[string]string) (string, error)
}

// gameServiceImpl implements the GameService interface.
type gameServiceImpl struct {
	registry  SessionRegistry
	store     store.Store
	selector  *engine.Selector
	countdown CountdownStarter
	redirects RedirectBuilder
	rules     config.Rules
}

// NewGameService creates a new game service instance.
func NewGameService(registry SessionRegistry, st store.Store, countdown CountdownStarter, redirects RedirectBuilder, rules config.Rules) GameService {
	return &gameServiceImpl{
		registry:  registry,
		store:     st,
		selector:  engine.NewSelector(st, rules.Selection()),
		countdown: countdown,
		redirects: redirects,
		rules:     rules,
	}
}

// JoinSession adds the player to the session roster, creating the session
// entry on first contact. Joining twice with the same player id leaves the
// roster unchanged. The updated roster is returned for broadcast.
func (s *gameServiceImpl) JoinSession(ctx context.Context, sessionID string, p engine.Player) ([]engine.Player, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	sess := s.registry.GetOrCreate(sessionID)
	sess.Lock()
	defer sess.Unlock()

	added := sess.State.Join(p)
	if added {
		if err := s.store.SavePlayer(ctx, &store.PlayerRecord{ID: p.ID, Name: p.Name, Skin: p.Skin}); err != nil {
			log.Printf("Warning: failed to persist player %s: %v", p.ID, err)
		}
	}
	s.registry.Touch(sessionID)

	players := make([]engine.Player, len(sess.State.Players))
	copy(players, sess.State.Players)
	return players, nil
}

// StartRound marks the session as addressed; the round-started signal itself
// is the transport's broadcast.
func (s *gameServiceImpl) StartRound(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrMissingSession
	}
	s.registry.GetOrCreate(sessionID)
	s.registry.Touch(sessionID)
	return nil
}

// RefreshHints re-reads the session's durable snapshot so clients can be
// told the hint count changed.
func (s *gameServiceImpl) RefreshHints(ctx context.Context, sessionID string) (*store.SessionRecord, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	sess := s.registry.GetOrCreate(sessionID)
	sess.Lock()
	defer sess.Unlock()

	rec, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("refresh hints: %w", err)
	}
	s.registry.Touch(sessionID)
	return rec, nil
}

// NextQuestion runs the selection engine against the session's durable
// answered history and attributes the pick to the current active player.
func (s *gameServiceImpl) NextQuestion(ctx context.Context, sessionID string) (*NextQuestionResult, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	sess := s.registry.GetOrCreate(sessionID)
	sess.Lock()
	defer sess.Unlock()

	rec, err := s.durableSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	question, moveToVote, err := s.selector.Next(ctx, rec.AnsweredQuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("select next question: %w", err)
	}
	s.registry.Touch(sessionID)

	active, _ := sess.State.ActivePlayer()
	if moveToVote {
		return &NextQuestionResult{MoveToVote: true, ActivePlayer: active}, nil
	}
	return &NextQuestionResult{Question: question, ActivePlayer: active}, nil
}

// SubmitAnswer advances the turn, persists the new active-player index
// together with the grown answered-question history, and produces the
// redirect payload. The session must already exist.
func (s *gameServiceImpl) SubmitAnswer(ctx context.Context, sessionID string, questionID int, answer string) (*AnswerResult, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	defer sess.Unlock()

	if _, err := s.store.GetQuestion(ctx, questionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("look up question: %w", err)
	}

	rec, err := s.durableSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	newIndex := sess.State.AdvanceTurn()
	sess.State.Answered = true

	answered := rec.AnsweredQuestionIDs
	if !containsID(answered, questionID) {
		answered = append(answered, questionID)
	}
	// In-memory state is authoritative within the process lifetime; a failed
	// snapshot write is logged and does not roll the turn back.
	if err := s.store.SaveTurnState(ctx, sessionID, newIndex, answered); err != nil {
		log.Printf("Warning: failed to persist turn state for session %s: %v", sessionID, err)
	}
	s.registry.Touch(sessionID)

	redirectURL, err := s.redirects.AnswerURL(questionID, answer)
	if err != nil {
		return nil, fmt.Errorf("build answer redirect: %w", err)
	}

	active, _ := sess.State.ActivePlayer()
	return &AnswerResult{
		RedirectURL:       redirectURL,
		ActivePlayerIndex: newIndex,
		ActivePlayer:      active,
	}, nil
}

// CastVote records one vote through the tally engine. The session must
// already exist; errors are per-caller, never broadcast.
func (s *gameServiceImpl) CastVote(ctx context.Context, sessionID, voterID, suspectID string) (map[string]string, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	defer sess.Unlock()

	votes, err := sess.State.CastVote(voterID, suspectID, time.Now())
	if err != nil {
		return nil, err
	}
	s.registry.Touch(sessionID)
	return copyVotes(votes), nil
}

// CurrentVotes returns the session's live vote map.
func (s *gameServiceImpl) CurrentVotes(ctx context.Context, sessionID string) (map[string]string, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	sess := s.registry.GetOrCreate(sessionID)
	sess.Lock()
	defer sess.Unlock()
	return copyVotes(sess.State.Votes), nil
}

// StartVoteCountdown runs or attaches to the session's countdown.
func (s *gameServiceImpl) StartVoteCountdown(ctx context.Context, sessionID string, initialSeconds int) error {
	if sessionID == "" {
		return ErrMissingSession
	}
	s.registry.GetOrCreate(sessionID)
	s.registry.Touch(sessionID)
	if initialSeconds <= 0 {
		initialSeconds = s.rules.CountdownSeconds
	}
	s.countdown.GetOrStart(sessionID, initialSeconds)
	return nil
}

// BeginVotePhase sets the vote deadline. Prior votes are preserved;
// re-opening the phase extends the window for further ballots.
func (s *gameServiceImpl) BeginVotePhase(ctx context.Context, sessionID string, durationSeconds int) (time.Time, error) {
	if sessionID == "" {
		return time.Time{}, ErrMissingSession
	}
	if durationSeconds <= 0 {
		durationSeconds = s.rules.VoteDurationSeconds
	}
	sess := s.registry.GetOrCreate(sessionID)
	sess.Lock()
	defer sess.Unlock()

	deadline := sess.State.StartVote(time.Duration(durationSeconds)*time.Second, time.Now())
	s.registry.Touch(sessionID)
	return deadline, nil
}

// EndGameRedirect builds the obfuscated end-of-game redirect. When the
// caller supplies no votes the session's own tally is used.
func (s *gameServiceImpl) EndGameRedirect(ctx context.Context, sessionID string, votes map[string]string) (string, error) {
	if sessionID == "" {
		return "", ErrMissingSession
	}
	sess := s.registry.GetOrCreate(sessionID)
	sess.Lock()
	defer sess.Unlock()

	if votes == nil {
		votes = copyVotes(sess.State.Votes)
	}
	s.registry.Touch(sessionID)

	redirectURL, err := s.redirects.EndGameURL(votes)
	if err != nil {
		return "", fmt.Errorf("build end-game redirect: %w", err)
	}
	return redirectURL, nil
}

// ActiveQuestions returns up to limit active questions in shuffled order.
func (s *gameServiceImpl) ActiveQuestions(ctx context.Context, limit int) ([]store.Question, error) {
	questions, err := s.store.ListActiveQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active questions: %w", err)
	}
	engine.Shuffle(questions)
	if limit <= 0 {
		limit = s.rules.TotalQuestions
	}
	if limit < len(questions) {
		questions = questions[:limit]
	}
	return questions, nil
}

// ValidateAnswer checks a submitted answer against the question's solution.
func (s *gameServiceImpl) ValidateAnswer(ctx context.Context, questionID int, answer string) (*engine.AnswerCheck, error) {
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("look up question: %w", err)
	}
	check := engine.CheckAnswer(q, answer)
	return &check, nil
}

// GetSession returns the merged live/durable view of one session.
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(ctx, sess), nil
}

// ListSessions returns the merged view of every live session.
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	live := s.registry.List()
	out := make([]*SessionInfo, 0, len(live))
	for _, sess := range live {
		out = append(out, s.sessionInfo(ctx, sess))
	}
	return out, nil
}

// Suspects lists the votable suspects.
func (s *gameServiceImpl) Suspects(ctx context.Context) ([]store.Suspect, error) {
	return s.store.ListSuspects(ctx)
}

// SuspectHints lists the hints attached to one suspect.
func (s *gameServiceImpl) SuspectHints(ctx context.Context, suspectID int) ([]store.SuspectHint, error) {
	return s.store.SuspectHints(ctx, suspectID)
}

// sessionInfo builds the merged live/durable view of one session. The
// durable snapshot is best-effort; a session that was never persisted still
// gets its live half.
func (s *gameServiceImpl) sessionInfo(ctx context.Context, sess *Session) *SessionInfo {
	sess.Lock()
	players := make([]engine.Player, len(sess.State.Players))
	copy(players, sess.State.Players)
	info := &SessionInfo{
		ID:                sess.ID,
		Players:           players,
		ActivePlayerIndex: sess.State.ActivePlayerIndex,
		Votes:             copyVotes(sess.State.Votes),
		VoteDeadline:      sess.State.VoteDeadline,
		CreatedAt:         sess.CreatedAt,
		LastAccessedAt:    sess.LastAccessedAt(),
	}
	sess.Unlock()

	if rec, err := s.store.GetSession(ctx, sess.ID); err == nil {
		info.Code = rec.Code
		info.Status = rec.Status
		info.HintsLeft = rec.HintsLeft
		info.AnsweredQuestions = len(rec.AnsweredQuestionIDs)
	}
	return info
}

// durableSession reads the session's durable snapshot, lazily creating the
// record the first time a session id is addressed. Callers hold the session
// lock.
func (s *gameServiceImpl) durableSession(ctx context.Context, sessionID string) (*store.SessionRecord, error) {
	rec, err := s.store.GetSession(ctx, sessionID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("read session snapshot: %w", err)
	}

	rec = &store.SessionRecord{
		ID:                  sessionID,
		Code:                shortCode(),
		Status:              "playing",
		HintsLeft:           s.rules.HintsPerGame,
		AnsweredQuestionIDs: []int{},
	}
	if err := s.store.CreateSession(ctx, rec); err != nil {
		return nil, fmt.Errorf("create session snapshot: %w", err)
	}
	log.Printf("Created durable snapshot for session %s (code %s)", sessionID, rec.Code)
	return rec, nil
}

// shortCode derives a 6-character join code.
func shortCode() string {
	id := uuid.NewString()
	return id[:6]
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func copyVotes(votes map[string]string) map[string]string {
	out := make(map[string]string, len(votes))
	for k, v := range votes {
		out[k] = v
	}
	return out
}
