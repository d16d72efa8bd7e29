package engine

import (
	"testing"
)

func TestJoinAddsPlayersInOrder(t *testing.T) {
	s := NewState()

	if !s.Join(Player{ID: "p1", Name: "Alice"}) {
		t.Error("Expected first join to change the roster")
	}
	if !s.Join(Player{ID: "p2", Name: "Bob"}) {
		t.Error("Expected second join to change the roster")
	}

	if len(s.Players) != 2 {
		t.Fatalf("Expected 2 players, got %d", len(s.Players))
	}
	if s.Players[0].ID != "p1" || s.Players[1].ID != "p2" {
		t.Errorf("Expected join order preserved, got %v", s.Players)
	}
}

func TestJoinIsIdempotentPerID(t *testing.T) {
	s := NewState()
	s.Join(Player{ID: "p1", Name: "Alice"})
	s.AdvanceTurn()

	if s.Join(Player{ID: "p1", Name: "Alice again"}) {
		t.Error("Expected rejoin with same id to be a no-op")
	}
	if len(s.Players) != 1 {
		t.Errorf("Expected roster unchanged after rejoin, got %d players", len(s.Players))
	}
	if s.ActivePlayerIndex != 0 {
		t.Errorf("Expected turn index untouched by rejoin, got %d", s.ActivePlayerIndex)
	}
}

func TestAdvanceTurnWrapsAround(t *testing.T) {
	s := NewState()
	s.Join(Player{ID: "p1"})
	s.Join(Player{ID: "p2"})
	s.Join(Player{ID: "p3"})

	want := []int{1, 2, 0, 1}
	for i, expected := range want {
		if got := s.AdvanceTurn(); got != expected {
			t.Errorf("Advance %d: expected index %d, got %d", i+1, expected, got)
		}
	}
}

func TestAdvanceTurnWithoutPlayers(t *testing.T) {
	s := NewState()

	if got := s.AdvanceTurn(); got != 0 {
		t.Errorf("Expected index 0 with empty roster, got %d", got)
	}
}

func TestActivePlayer(t *testing.T) {
	s := NewState()
	if _, ok := s.ActivePlayer(); ok {
		t.Error("Expected no active player on empty roster")
	}

	s.Join(Player{ID: "p1", Name: "Alice"})
	s.Join(Player{ID: "p2", Name: "Bob"})
	s.AdvanceTurn()

	p, ok := s.ActivePlayer()
	if !ok {
		t.Fatal("Expected an active player")
	}
	if p.ID != "p2" {
		t.Errorf("Expected active player p2, got %s", p.ID)
	}
}
