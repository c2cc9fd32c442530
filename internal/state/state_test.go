package state

import (
	"bytes"
	"testing"
)

func TestAppHash_StableAcrossMapOrder(t *testing.T) {
	s1 := NewState()
	s1.Height = 7
	s1.Accounts["bob"] = 2
	s1.Accounts["alice"] = 1

	s2 := NewState()
	s2.Height = 7
	s2.Accounts["alice"] = 1
	s2.Accounts["bob"] = 2

	h1 := s1.AppHash()
	h2 := s2.AppHash()
	if !bytes.Equal(h1, h2) {
		t.Fatalf("expected stable app hash; h1=%x h2=%x", h1, h2)
	}

	// Any semantic change should change the hash.
	s2.Accounts["alice"] = 9
	h3 := s2.AppHash()
	if bytes.Equal(h1, h3) {
		t.Fatalf("expected hash to change after state mutation")
	}
}

func TestAppHash_SensitiveToSessionChanges(t *testing.T) {
	s1 := NewState()
	s2 := NewState()
	s2.Sessions["k"] = &Session{Key: "k", Authority: "alice", Expiry: 10}

	if bytes.Equal(s1.AppHash(), s2.AppHash()) {
		t.Fatalf("expected hash to differ when a session exists")
	}
}

func TestClone_IsIndependent(t *testing.T) {
	s := NewState()
	s.Accounts["alice"] = 100
	key := TableKey("alice")
	s.Tables[key] = &Table{
		Key:         key,
		Creator:     "alice",
		SmallBlind:  1,
		BigBlind:    2,
		MinBuyIn:    100,
		MaxBuyIn:    1000,
		State:       TableWaitingForPlayers,
		PlayerCount: 1,
	}
	s.Tables[key].Players[0] = &PlayerSlot{Authority: "alice", Chips: 500, InHand: true}

	c, err := s.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}

	c.Accounts["alice"] = 1
	c.Tables[key].Players[0].Chips = 0
	c.Tables[key].Pot = 99

	if s.Accounts["alice"] != 100 {
		t.Fatalf("clone mutation leaked into accounts")
	}
	if s.Tables[key].Players[0].Chips != 500 {
		t.Fatalf("clone mutation leaked into seats")
	}
	if s.Tables[key].Pot != 0 {
		t.Fatalf("clone mutation leaked into pot")
	}
}

func occupiedTable(authorities ...string) *Table {
	t := &Table{State: TableBetweenHands}
	for i, a := range authorities {
		t.Players[i] = &PlayerSlot{Authority: a, Chips: 100, InHand: true}
	}
	t.PlayerCount = uint8(len(authorities))
	return t
}

func TestFindPlayer(t *testing.T) {
	tbl := occupiedTable("alice", "bob", "carol")

	idx, ok := tbl.FindPlayer("bob")
	if !ok || idx != 1 {
		t.Fatalf("FindPlayer(bob)=%d,%v want 1,true", idx, ok)
	}
	if _, ok := tbl.FindPlayer("dave"); ok {
		t.Fatalf("expected dave not found")
	}
}

func TestCompactPlayers_RemovesGapAndPreservesOrder(t *testing.T) {
	tbl := occupiedTable("a", "b", "c", "d", "e")

	// Seat 3 leaves: seats 4.. shift down by one.
	tbl.Players[3] = nil
	tbl.CompactPlayers()

	if tbl.PlayerCount != 4 {
		t.Fatalf("expected playerCount=4, got %d", tbl.PlayerCount)
	}
	want := []string{"a", "b", "c", "e"}
	for i, w := range want {
		if tbl.Players[i] == nil || tbl.Players[i].Authority != w {
			t.Fatalf("seat %d: want %q got %+v", i, w, tbl.Players[i])
		}
	}
	for i := 4; i < MaxPlayers; i++ {
		if tbl.Players[i] != nil {
			t.Fatalf("expected seat %d cleared after compaction", i)
		}
	}
}

func TestCompactPlayers_MultipleGaps(t *testing.T) {
	tbl := occupiedTable("a", "b", "c", "d", "e", "f")
	tbl.Players[0] = nil
	tbl.Players[2] = nil
	tbl.Players[5] = nil
	tbl.CompactPlayers()

	if tbl.PlayerCount != 3 {
		t.Fatalf("expected playerCount=3, got %d", tbl.PlayerCount)
	}
	want := []string{"b", "d", "e"}
	for i, w := range want {
		if tbl.Players[i] == nil || tbl.Players[i].Authority != w {
			t.Fatalf("seat %d: want %q got %+v", i, w, tbl.Players[i])
		}
	}
}

func TestCompactPlayers_EmptyAndFull(t *testing.T) {
	empty := &Table{}
	empty.CompactPlayers()
	if empty.PlayerCount != 0 {
		t.Fatalf("expected empty table to stay empty")
	}

	full := occupiedTable("a", "b", "c", "d", "e", "f", "g", "h", "i")
	full.CompactPlayers()
	if full.PlayerCount != MaxPlayers {
		t.Fatalf("expected full table to stay full, got %d", full.PlayerCount)
	}
	for i := 0; i < MaxPlayers; i++ {
		if full.Players[i] == nil {
			t.Fatalf("seat %d unexpectedly cleared", i)
		}
	}
}
