package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/CallMeTrinity/sae501-api-server/game/engine"
)

// Inbound event names.
const (
	EventJoinSession        = "joinSession"
	EventStartGame          = "startGame"
	EventUseHint            = "useHint"
	EventNextQuestion       = "nextQuestion"
	EventSubmitAnswer       = "submitAnswer"
	EventNextQuestionScreen = "nextQuestionScreen"
	EventVoteForSuspect     = "voteForSuspect"
	EventGetVotes           = "getVotes"
	EventStartCountdown     = "startVoteCountdown"
	EventStartVote          = "startVote"
	EventEndGame            = "endGame"
)

// Outbound event names.
const (
	EventUpdatePlayers   = "updatePlayers"
	EventGameStarted     = "gameStarted"
	EventUpdateHints     = "updateHints"
	EventQuestionChosen  = "nextQuestion"
	EventGoToVote        = "goToVote"
	EventAnswerSubmitted = "answerSubmitted"
	EventGoToEnigma      = "goToEnigma"
	EventVoteSuccess     = "voteSuccess"
	EventVoteError       = "voteError"
	EventVoteStarted     = "voteStarted"
	EventCountdownTick   = "countdown"
	EventCountdownEnded  = "countdownEnded"
	EventGameEnded       = "gameEnded"
	EventError           = "error"
)

type joinPayload struct {
	SessionID string        `json:"sessionId"`
	Player    engine.Player `json:"player"`
}

type sessionPayload struct {
	SessionID string `json:"sessionId"`
}

type answerPayload struct {
	SessionID  string `json:"sessionId"`
	QuestionID int    `json:"questionId"`
	Answer     string `json:"answer"`
}

type votePayload struct {
	SessionID string `json:"sessionId"`
	VoterID   string `json:"voterId"`
	SuspectID string `json:"suspectId"`
}

type countdownPayload struct {
	SessionID      string `json:"sessionId"`
	InitialSeconds int    `json:"initialSeconds"`
}

type voteStartPayload struct {
	SessionID string `json:"sessionId"`
	Duration  int    `json:"duration"`
}

type endGamePayload struct {
	SessionID string            `json:"sessionId"`
	Votes     map[string]string `json:"votes,omitempty"`
}

// dispatch maps one inbound event to its game-service operation and fans
// the result out: state changes to the session's room, errors and personal
// acknowledgements back to the originating connection only.
func (h *Hub) dispatch(c *Client, msg InboundMessage) {
	if h.service == nil {
		h.sendTo(c, EventError, "service unavailable")
		return
	}
	ctx := context.Background()

	switch msg.Event {
	case EventJoinSession:
		var p joinPayload
		if !h.decode(c, msg.Data, &p) {
			return
		}
		players, err := h.service.JoinSession(ctx, p.SessionID, p.Player)
		if err != nil {
			h.sendTo(c, EventError, err.Error())
			return
		}
		h.JoinRoom(c, p.SessionID)
		h.BroadcastEvent(p.SessionID, EventUpdatePlayers, players)

	case EventStartGame:
		var p sessionPayload
		if !h.decode(c, msg.Data, &p) {
			return
		}
		if err := h.service.StartRound(ctx, p.SessionID); err != nil {
			h.sendTo(c, EventError, err.Error())
			return
		}
		h.BroadcastEvent(p.SessionID, EventGameStarted, nil)

	case EventUseHint:
		var p sessionPayload
		if !h.decode(c, msg.Data, &p) {
			return
		}
		rec, err := h.service.RefreshHints(ctx, p.SessionID)
		if err != nil {
			h.sendTo(c, EventError, err.Error())
			return
		}
		h.BroadcastEventExcept(p.SessionID, c, EventUpdateHints, map[string]any{"hintsLeft": rec.HintsLeft})

	case EventNextQuestion:
		var p sessionPayload
		if !h.decode(c, msg.Data, &p) {
			return
		}
		result, err := h.service.NextQuestion(ctx, p.SessionID)
		if err != nil {
			log.Printf("next question failed for session %s: %v", p.SessionID, err)
			h.sendTo(c, EventError, "could not select next question")
			return
		}
		if result.MoveToVote {
			h.BroadcastEvent(p.SessionID, EventGoToVote, nil)
			return
		}
		h.BroadcastEvent(p.SessionID, EventQuestionChosen, map[string]any{
			"question":     result.Question,
			"activePlayer": result.ActivePlayer,
		})

	case EventSubmitAnswer:
		var p answerPayload
		if !h.decode(c, msg.Data, &p) {
			return
		}
		result, err := h.service.SubmitAnswer(ctx, p.SessionID, p.QuestionID, p.Answer)
		if err != nil {
			h.sendTo(c, EventError, err.Error())
			return
		}
		fmt.Printf("[TURN] session=%s question=%d next_player=%d\n", p.SessionID, p.QuestionID, result.ActivePlayerIndex)
		h.BroadcastEvent(p.SessionID, EventAnswerSubmitted, map[string]any{"redirectUrl": result.RedirectURL})

	case EventNextQuestionScreen:
		var p sessionPayload
		if !h.decode(c, msg.Data, &p) {
			return
		}
		h.BroadcastEvent(p.SessionID, EventGoToEnigma, nil)

	case EventVoteForSuspect:
		var p votePayload
		if !h.decode(c, msg.Data, &p) {
			return
		}
		votes, err := h.service.CastVote(ctx, p.SessionID, p.VoterID, p.SuspectID)
		if err != nil {
			h.sendTo(c, EventVoteError, err.Error())
			return
		}
		h.JoinRoom(c, p.SessionID)
		fmt.Printf("[VOTE] session=%s voter=%s suspect=%s total=%d\n", p.SessionID, p.VoterID, p.SuspectID, len(votes))
		h.BroadcastEvent(p.SessionID, EventVoteSuccess, votes)

	case EventGetVotes:
		var p sessionPayload
		if !h.decode(c, msg.Data, &p) {
			return
		}
		votes, err := h.service.CurrentVotes(ctx, p.SessionID)
		if err != nil {
			h.sendTo(c, EventVoteError, err.Error())
			return
		}
		h.JoinRoom(c, p.SessionID)
		h.BroadcastEvent(p.SessionID, EventVoteSuccess, votes)

	case EventStartCountdown:
		var p countdownPayload
		if !h.decode(c, msg.Data, &p) {
			return
		}
		h.JoinRoom(c, p.SessionID)
		if err := h.service.StartVoteCountdown(ctx, p.SessionID, p.InitialSeconds); err != nil {
			h.sendTo(c, EventError, err.Error())
		}

	case EventStartVote:
		var p voteStartPayload
		if !h.decode(c, msg.Data, &p) {
			return
		}
		deadline, err := h.service.BeginVotePhase(ctx, p.SessionID, p.Duration)
		if err != nil {
			h.sendTo(c, EventError, err.Error())
			return
		}
		h.JoinRoom(c, p.SessionID)
		h.BroadcastEvent(p.SessionID, EventVoteStarted, map[string]any{"deadline": deadline})

	case EventEndGame:
		var p endGamePayload
		if !h.decode(c, msg.Data, &p) {
			return
		}
		redirectURL, err := h.service.EndGameRedirect(ctx, p.SessionID, p.Votes)
		if err != nil {
			h.sendTo(c, EventError, err.Error())
			return
		}
		h.JoinRoom(c, p.SessionID)
		h.BroadcastEvent(p.SessionID, EventGameEnded, map[string]any{"redirectUrl": redirectURL})

	default:
		h.sendTo(c, EventError, fmt.Sprintf("unknown event %q", msg.Event))
	}
}

// decode unmarshals an event payload, reporting malformed data to the
// caller only.
func (h *Hub) decode(c *Client, raw json.RawMessage, into any) bool {
	if len(raw) == 0 {
		h.sendTo(c, EventError, "missing event data")
		return false
	}
	if err := json.Unmarshal(raw, into); err != nil {
		h.sendTo(c, EventError, "invalid event data")
		return false
	}
	return true
}
