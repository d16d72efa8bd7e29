package engine

import (
	"errors"
	"time"
)

var (
	// ErrMissingVoter means the vote named no voter id.
	ErrMissingVoter = errors.New("voter id is required")
	// ErrMissingSuspect means the vote named no suspect id.
	ErrMissingSuspect = errors.New("suspect id is required")
	// ErrVoteClosed means the vote arrived at or after the deadline, or
	// before any vote phase was opened.
	ErrVoteClosed = errors.New("vote phase is closed")
	// ErrAlreadyVoted means the voter already holds this exact vote.
	ErrAlreadyVoted = errors.New("already voted for this suspect")
)

// CastVote records voterID's choice of suspectID at time now. A voter holds
// at most one live vote: voting again for a different suspect overwrites in
// place, voting again for the same suspect is rejected without change.
// Successful calls return the full vote map for broadcast.
func (s *State) CastVote(voterID, suspectID string, now time.Time) (map[string]string, error) {
	if voterID == "" {
		return nil, ErrMissingVoter
	}
	if suspectID == "" {
		return nil, ErrMissingSuspect
	}
	if s.VoteDeadline.IsZero() || !now.Before(s.VoteDeadline) {
		return nil, ErrVoteClosed
	}
	if s.Votes == nil {
		s.Votes = make(map[string]string)
	}
	if current, ok := s.Votes[voterID]; ok && current == suspectID {
		return nil, ErrAlreadyVoted
	}
	s.Votes[voterID] = suspectID
	return s.Votes, nil
}

// StartVote opens (or re-opens) the vote phase, setting the deadline to
// now+duration. Existing votes are preserved; multi-phase voting carries
// earlier ballots forward.
func (s *State) StartVote(duration time.Duration, now time.Time) time.Time {
	s.VoteDeadline = now.Add(duration)
	return s.VoteDeadline
}

// CountVotes tallies ballots per suspect and reports the leaders (every
// suspect holding the maximum count; more than one means a tie).
func CountVotes(votes map[string]string) (counts map[string]int, leaders []string) {
	counts = make(map[string]int, len(votes))
	for _, suspectID := range votes {
		counts[suspectID]++
	}
	max := 0
	for suspectID, n := range counts {
		if n > max {
			max = n
			leaders = []string{suspectID}
		} else if n == max {
			leaders = append(leaders, suspectID)
		}
	}
	return counts, leaders
}
