package engine

// Join appends a player to the session unless a player with the same id is
// already present, so a reconnect never duplicates the roster or resets the
// turn. It reports whether the roster changed. Turn order is strictly the
// join order.
func (s *State) Join(p Player) bool {
	for _, existing := range s.Players {
		if existing.ID == p.ID {
			return false
		}
	}
	s.Players = append(s.Players, p)
	return true
}

// AdvanceTurn moves the active-player index to the next player, wrapping at
// the end of the roster. With no players it is a no-op and the index stays
// at zero.
func (s *State) AdvanceTurn() int {
	if len(s.Players) == 0 {
		return s.ActivePlayerIndex
	}
	s.ActivePlayerIndex = (s.ActivePlayerIndex + 1) % len(s.Players)
	return s.ActivePlayerIndex
}
