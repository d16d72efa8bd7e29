package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/CallMeTrinity/sae501-api-server/game/engine"
	"github.com/CallMeTrinity/sae501-api-server/game/service"
	"github.com/CallMeTrinity/sae501-api-server/store"
)

// stubService satisfies service.GameService with canned game behavior.
type stubService struct {
	votes      map[string]string
	failJoin   bool
	moveToVote bool
}

func newStubService() *stubService {
	return &stubService{votes: make(map[string]string)}
}

func (s *stubService) JoinSession(ctx context.Context, sessionID string, p engine.Player) ([]engine.Player, error) {
	if s.failJoin {
		return nil, errors.New("join rejected")
	}
	if sessionID == "" {
		return nil, service.ErrMissingSession
	}
	return []engine.Player{p}, nil
}

func (s *stubService) StartRound(ctx context.Context, sessionID string) error { return nil }

func (s *stubService) RefreshHints(ctx context.Context, sessionID string) (*store.SessionRecord, error) {
	return &store.SessionRecord{ID: sessionID, HintsLeft: 2}, nil
}

func (s *stubService) NextQuestion(ctx context.Context, sessionID string) (*service.NextQuestionResult, error) {
	if s.moveToVote {
		return &service.NextQuestionResult{MoveToVote: true}, nil
	}
	return &service.NextQuestionResult{
		Question: &store.Question{ID: 1, Type: store.TypeText, Content: "Who?"},
	}, nil
}

func (s *stubService) SubmitAnswer(ctx context.Context, sessionID string, questionID int, answer string) (*service.AnswerResult, error) {
	return &service.AnswerResult{RedirectURL: "http://client/answer?q=enc"}, nil
}

func (s *stubService) CastVote(ctx context.Context, sessionID, voterID, suspectID string) (map[string]string, error) {
	if suspectID == "" {
		return nil, engine.ErrMissingSuspect
	}
	s.votes[voterID] = suspectID
	out := make(map[string]string, len(s.votes))
	for k, v := range s.votes {
		out[k] = v
	}
	return out, nil
}

func (s *stubService) CurrentVotes(ctx context.Context, sessionID string) (map[string]string, error) {
	return s.votes, nil
}

func (s *stubService) StartVoteCountdown(ctx context.Context, sessionID string, initialSeconds int) error {
	return nil
}

func (s *stubService) BeginVotePhase(ctx context.Context, sessionID string, durationSeconds int) (time.Time, error) {
	return time.Now().Add(time.Duration(durationSeconds) * time.Second), nil
}

func (s *stubService) EndGameRedirect(ctx context.Context, sessionID string, votes map[string]string) (string, error) {
	return "http://client/end?votes=enc", nil
}

func (s *stubService) ActiveQuestions(ctx context.Context, limit int) ([]store.Question, error) {
	return nil, nil
}

func (s *stubService) ValidateAnswer(ctx context.Context, questionID int, answer string) (*engine.AnswerCheck, error) {
	return &engine.AnswerCheck{Correct: true, Message: "ok"}, nil
}

func (s *stubService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	return &service.SessionInfo{ID: sessionID}, nil
}

func (s *stubService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	return nil, nil
}

func (s *stubService) Suspects(ctx context.Context) ([]store.Suspect, error) { return nil, nil }

func (s *stubService) SuspectHints(ctx context.Context, suspectID int) ([]store.SuspectHint, error) {
	return nil, nil
}

// testConn wraps a dialed connection and splits batched frames back into
// individual envelopes.
type testConn struct {
	conn    *websocket.Conn
	pending []string
}

func newTestHub(t *testing.T, svc service.GameService) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	hub.AttachService(svc)
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *testConn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testConn{conn: conn}
}

func (tc *testConn) sendEvent(t *testing.T, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	msg := InboundMessage{Event: event, Data: raw}
	if err := tc.conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
}

// readEvent returns the next envelope, coping with the write pump batching
// several envelopes into one frame separated by newlines.
func (tc *testConn) readEvent(t *testing.T) OutboundMessage {
	t.Helper()
	for len(tc.pending) == 0 {
		tc.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, frame, err := tc.conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage failed: %v", err)
		}
		for _, part := range strings.Split(string(frame), "\n") {
			if part != "" {
				tc.pending = append(tc.pending, part)
			}
		}
	}
	var msg OutboundMessage
	if err := json.Unmarshal([]byte(tc.pending[0]), &msg); err != nil {
		t.Fatalf("Unmarshal envelope failed: %v", err)
	}
	tc.pending = tc.pending[1:]
	return msg
}
