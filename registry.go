package main

import "sync/atomic"

// Registry holds the process-wide room and player collections. Only the
// engine loop mutates it, so the slices need no locking; the counters are
// atomic because the HTTP status surface reads them from other goroutines.
type Registry struct {
	rooms   []*Room
	players []*Player

	roomCount   atomic.Int64
	playerCount atomic.Int64
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a player to the global collection.
func (g *Registry) Register(p *Player) {
	g.players = append(g.players, p)
	g.playerCount.Store(int64(len(g.players)))
}

// Unregister removes the player with the given connection id. Linear scan;
// order is not meaningful for players.
func (g *Registry) Unregister(id string) {
	for i, p := range g.players {
		if p.ID == id {
			g.players = append(g.players[:i], g.players[i+1:]...)
			break
		}
	}
	g.playerCount.Store(int64(len(g.players)))
}

// AddRoom appends a room to the matchmaking scan order.
func (g *Registry) AddRoom(r *Room) {
	g.rooms = append(g.rooms, r)
	g.roomCount.Store(int64(len(g.rooms)))
}

// RemoveRoom drops a room by id via swap-with-last-then-truncate, so the
// slice never holds a gap that could be read as a live room. Scan order is
// not preserved, which matchmaking doesn't require.
func (g *Registry) RemoveRoom(id string) {
	for i, r := range g.rooms {
		if r.ID == id {
			last := len(g.rooms) - 1
			g.rooms[i] = g.rooms[last]
			g.rooms[last] = nil
			g.rooms = g.rooms[:last]
			break
		}
	}
	g.roomCount.Store(int64(len(g.rooms)))
}

// FindOpenRoom returns the first room with a free slot, scanning in
// registry order. First-fit: existing rooms fill before a new one opens.
func (g *Registry) FindOpenRoom() *Room {
	for _, r := range g.rooms {
		if !r.IsFull() {
			return r
		}
	}
	return nil
}

// Counts returns live room and player totals. Safe from any goroutine.
func (g *Registry) Counts() (rooms, players int) {
	return int(g.roomCount.Load()), int(g.playerCount.Load())
}
