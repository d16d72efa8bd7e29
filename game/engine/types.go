package engine

import "time"

// Player identifies one participant of a session. The coordinator only
// interprets ID; Name and Skin are carried through to clients untouched.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Skin string `json:"skin,omitempty"`
}

// State is the in-memory aggregate for one session. It is owned by the
// session registry; callers mutate it only while holding the owning
// session's lock.
type State struct {
	Players           []Player          `json:"players"`
	ActivePlayerIndex int               `json:"active_player_index"`
	Answered          bool              `json:"answered"`
	VoteDeadline      time.Time         `json:"vote_deadline,omitzero"`
	Votes             map[string]string `json:"votes"`
}

// NewState returns an empty session aggregate.
func NewState() *State {
	return &State{
		Players: []Player{},
		Votes:   make(map[string]string),
	}
}

// ActivePlayer returns the player whose turn it is. The second return is
// false while the session has no players.
func (s *State) ActivePlayer() (Player, bool) {
	if len(s.Players) == 0 {
		return Player{}, false
	}
	return s.Players[s.ActivePlayerIndex], true
}
