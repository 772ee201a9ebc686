package main

import (
	"time"

	"github.com/google/uuid"
)

// Room is one game session: a capacity-bounded roster sharing a map and a
// host. Capacity equals the number of spawn slots on the map.
type Room struct {
	ID             string    `json:"id"`
	Players        []*Player `json:"players"` // indexed by serial, nil = free slot
	HostSerial     int       `json:"host_serial"`
	RCTimestamp    int64     `json:"rc_timestamp"`
	Map            *GameMap  `json:"map"`
	NextSpawnIndex int       `json:"next_spawn_index"`
}

// NewRoom creates an empty hostless room with a fresh map.
func NewRoom() *Room {
	m := NewGameMap()
	return &Room{
		ID:         uuid.NewString(),
		Players:    make([]*Player, len(m.SpawnOrder)),
		HostSerial: -1,
		Map:        m,
	}
}

// Capacity returns the roster size.
func (r *Room) Capacity() int { return len(r.Players) }

// MemberCount returns the number of occupied roster slots.
func (r *Room) MemberCount() int {
	n := 0
	for _, p := range r.Players {
		if p != nil {
			n++
		}
	}
	return n
}

// IsFull reports whether every roster slot is taken.
func (r *Room) IsFull() bool { return r.MemberCount() == r.Capacity() }

// IsEmpty reports whether the roster has no members.
func (r *Room) IsEmpty() bool { return r.MemberCount() == 0 }

// InsertPlayer places the player into the first free roster slot and
// assigns its serial. Returns false if the room is full.
func (r *Room) InsertPlayer(p *Player) bool {
	for i, slot := range r.Players {
		if slot == nil {
			r.Players[i] = p
			p.Serial = i
			return true
		}
	}
	return false
}

// ExcludePlayer frees the player's roster slot. Clears host authority if
// the departing player held it.
func (r *Room) ExcludePlayer(p *Player) {
	if p.Serial < 0 || p.Serial >= len(r.Players) || r.Players[p.Serial] != p {
		return
	}
	if r.HostSerial == p.Serial {
		r.HostSerial = -1
	}
	r.Players[p.Serial] = nil
	p.Serial = -1
}

// PlayerBySerial resolves a roster slot, nil for invalid or empty slots.
// Serials arrive from the wire, so the bounds check is load-bearing.
func (r *Room) PlayerBySerial(serial int) *Player {
	if serial < 0 || serial >= len(r.Players) {
		return nil
	}
	return r.Players[serial]
}

// Host returns the current host, or nil.
func (r *Room) Host() *Player {
	return r.PlayerBySerial(r.HostSerial)
}

// IsHost reports whether p currently holds host authority.
func (r *Room) IsHost(p *Player) bool {
	return p != nil && r.Host() == p
}

// HasHost reports whether the room has a usable host. A host that went
// inactive doesn't count; the next availability report re-elects.
func (r *Room) HasHost() bool {
	h := r.Host()
	return h != nil && h.IsActive
}

// SelectNewHost hands host authority to the active member with the lowest
// serial, skipping the outgoing host. The room stays hostless when no
// member is active; it recovers as soon as one reports availability.
func (r *Room) SelectNewHost(t Transport) {
	outgoing := r.Host()
	r.HostSerial = -1
	for _, p := range r.Players {
		if p == nil || !p.IsActive || p == outgoing {
			continue
		}
		r.HostSerial = p.Serial
		r.EmitAll(t, EvtHostChange, HostChangeData{
			HostSerial:  p.Serial,
			HostID:      p.ID,
			RCTimestamp: r.RCTimestamp,
		})
		return
	}
}

// NextSpawn returns the next spawn slot and advances the cursor, wrapping
// at capacity.
func (r *Room) NextSpawn() SpawnPoint {
	sp := r.Map.SpawnOrder[r.NextSpawnIndex]
	r.NextSpawnIndex = (r.NextSpawnIndex + 1) % len(r.Map.SpawnOrder)
	return sp
}

// ResetMap reinitializes the map to its starting layers and rewinds the
// spawn cursor.
func (r *Room) ResetMap() {
	r.Map = NewGameMap()
	r.NextSpawnIndex = 0
}

// TouchRC stamps the host-change timestamp; clients compare it to detect
// stale round state after a migration.
func (r *Room) TouchRC() {
	r.RCTimestamp = time.Now().UnixMilli()
}

// EmitAll sends an event to every room member, sender included.
func (r *Room) EmitAll(t Transport, event string, data interface{}) {
	for _, p := range r.Players {
		if p != nil {
			t.Send(p.ID, event, data)
		}
	}
}

// EmitBroadcast sends an event to every room member except the given
// connection. Used for echoes the sender already knows about.
func (r *Room) EmitBroadcast(t Transport, event string, data interface{}, exceptID string) {
	for _, p := range r.Players {
		if p != nil && p.ID != exceptID {
			t.Send(p.ID, event, data)
		}
	}
}

// EmitBinaryBroadcast fans pre-encoded binary payloads out to the room,
// skipping the sender. Only the move fast path uses this.
func (r *Room) EmitBinaryBroadcast(t Transport, data []byte, exceptID string) {
	for _, p := range r.Players {
		if p != nil && p.ID != exceptID {
			t.SendBinary(p.ID, data)
		}
	}
}
