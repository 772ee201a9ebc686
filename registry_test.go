package main

import "testing"

func TestRegistryPlayers(t *testing.T) {
	g := NewRegistry()
	a := NewPlayer("a")
	b := NewPlayer("b")
	g.Register(a)
	g.Register(b)

	if _, players := g.Counts(); players != 2 {
		t.Fatalf("player count = %d, want 2", players)
	}

	g.Unregister("a")
	if _, players := g.Counts(); players != 1 {
		t.Fatalf("player count after unregister = %d, want 1", players)
	}
	if g.players[0] != b {
		t.Error("wrong player removed")
	}

	// unknown id is a no-op
	g.Unregister("ghost")
	if _, players := g.Counts(); players != 1 {
		t.Error("unregistering a ghost changed the count")
	}
}

func TestRegistryFirstFit(t *testing.T) {
	g := NewRegistry()
	r1 := NewRoom()
	r2 := NewRoom()
	g.AddRoom(r1)
	g.AddRoom(r2)

	if g.FindOpenRoom() != r1 {
		t.Error("first-fit should return the first room with a free slot")
	}

	for i := 0; i < r1.Capacity(); i++ {
		r1.InsertPlayer(NewPlayer(GenerateID(4)))
	}
	if g.FindOpenRoom() != r2 {
		t.Error("full room was offered to matchmaking")
	}

	for i := 0; i < r2.Capacity(); i++ {
		r2.InsertPlayer(NewPlayer(GenerateID(4)))
	}
	if g.FindOpenRoom() != nil {
		t.Error("all rooms full but FindOpenRoom returned one")
	}
}

func TestRegistrySwapRemove(t *testing.T) {
	g := NewRegistry()
	rooms := []*Room{NewRoom(), NewRoom(), NewRoom()}
	for _, r := range rooms {
		g.AddRoom(r)
	}

	g.RemoveRoom(rooms[0].ID)

	if count, _ := g.Counts(); count != 2 {
		t.Fatalf("room count = %d, want 2", count)
	}
	// the last room swaps into the freed slot; the middle one is untouched
	if g.rooms[0] != rooms[2] || g.rooms[1] != rooms[1] {
		t.Error("swap-remove corrupted surviving rooms")
	}
	for _, r := range g.rooms {
		if r == nil {
			t.Fatal("registry holds a nil room slot")
		}
		if r.ID == rooms[0].ID {
			t.Fatal("removed room still present")
		}
	}
}

func TestRegistryRemoveLastRoom(t *testing.T) {
	g := NewRegistry()
	r := NewRoom()
	g.AddRoom(r)
	g.RemoveRoom(r.ID)

	if count, _ := g.Counts(); count != 0 {
		t.Errorf("room count = %d, want 0", count)
	}
	if g.FindOpenRoom() != nil {
		t.Error("removed room is still matchable")
	}
}
