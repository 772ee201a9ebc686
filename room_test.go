package main

import (
	"sync"
	"testing"
)

// mockTransport records everything the engine sends. The mutex matters only
// for tests that exercise the running engine loop.
type mockTransport struct {
	mu       sync.Mutex
	sends    []sentEvent
	binaries []sentBinary
}

type sentEvent struct {
	connID string
	event  string
	data   interface{}
}

type sentBinary struct {
	connID string
	data   []byte
}

func (m *mockTransport) Send(connID, event string, data interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, sentEvent{connID: connID, event: event, data: data})
}

func (m *mockTransport) SendBinary(connID string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.binaries = append(m.binaries, sentBinary{connID: connID, data: data})
}

func (m *mockTransport) eventsNamed(event string) []sentEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentEvent
	for _, s := range m.sends {
		if s.event == event {
			out = append(out, s)
		}
	}
	return out
}

func (m *mockTransport) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = nil
	m.binaries = nil
}

func roomWithPlayers(n int) (*Room, []*Player) {
	r := NewRoom()
	players := make([]*Player, n)
	for i := 0; i < n; i++ {
		p := NewPlayer(GenerateID(4))
		r.InsertPlayer(p)
		players[i] = p
	}
	return r, players
}

func TestRoomInsertAssignsSerials(t *testing.T) {
	r, players := roomWithPlayers(3)

	for i, p := range players {
		if p.Serial != i {
			t.Errorf("player %d has serial %d", i, p.Serial)
		}
		if r.PlayerBySerial(i) != p {
			t.Errorf("roster slot %d does not resolve", i)
		}
	}
	if r.MemberCount() != 3 {
		t.Errorf("member count = %d, want 3", r.MemberCount())
	}
}

func TestRoomInsertReusesFreedSlot(t *testing.T) {
	r, players := roomWithPlayers(3)

	r.ExcludePlayer(players[1])
	if players[1].Serial != -1 {
		t.Error("excluded player kept its serial")
	}

	p := NewPlayer("late")
	if !r.InsertPlayer(p) {
		t.Fatal("insert into freed slot failed")
	}
	if p.Serial != 1 {
		t.Errorf("new player got serial %d, want the freed slot 1", p.Serial)
	}
}

func TestRoomCapacity(t *testing.T) {
	r, _ := roomWithPlayers(len(defaultSpawnOrder))
	if !r.IsFull() {
		t.Fatal("room with all slots taken is not full")
	}
	if r.InsertPlayer(NewPlayer("overflow")) {
		t.Error("insert into a full room succeeded")
	}
}

func TestRoomPlayerBySerialOutOfRange(t *testing.T) {
	r, _ := roomWithPlayers(2)
	for _, serial := range []int{-1, 99, r.Capacity()} {
		if r.PlayerBySerial(serial) != nil {
			t.Errorf("serial %d resolved to a player", serial)
		}
	}
}

func TestSelectNewHostLowestActiveSerial(t *testing.T) {
	tr := &mockTransport{}
	r, players := roomWithPlayers(4)
	players[0].IsActive = false
	players[1].IsActive = false

	r.SelectNewHost(tr)

	if r.HostSerial != 2 {
		t.Fatalf("host serial = %d, want 2 (lowest active)", r.HostSerial)
	}
	changes := tr.eventsNamed(EvtHostChange)
	if len(changes) != 4 {
		t.Errorf("host change broadcast reached %d members, want 4", len(changes))
	}
	data := changes[0].data.(HostChangeData)
	if data.HostSerial != 2 || data.HostID != players[2].ID {
		t.Errorf("host change payload = %+v", data)
	}
}

func TestSelectNewHostSkipsOutgoing(t *testing.T) {
	tr := &mockTransport{}
	r, players := roomWithPlayers(3)
	r.SelectNewHost(tr)
	if r.HostSerial != 0 {
		t.Fatalf("initial host serial = %d, want 0", r.HostSerial)
	}

	// all still active: re-election must not hand authority back
	r.SelectNewHost(tr)
	if r.HostSerial != 1 {
		t.Errorf("host serial after re-election = %d, want 1", r.HostSerial)
	}
	_ = players
}

func TestSelectNewHostNoCandidates(t *testing.T) {
	tr := &mockTransport{}
	r, players := roomWithPlayers(2)
	for _, p := range players {
		p.IsActive = false
	}

	r.SelectNewHost(tr)

	if r.HostSerial != -1 {
		t.Errorf("hostless room reports host serial %d", r.HostSerial)
	}
	if r.HasHost() {
		t.Error("hostless room claims a host")
	}
	if len(tr.eventsNamed(EvtHostChange)) != 0 {
		t.Error("host change broadcast without a new host")
	}
}

func TestHasHostIgnoresInactiveHost(t *testing.T) {
	tr := &mockTransport{}
	r, players := roomWithPlayers(2)
	r.SelectNewHost(tr)
	if !r.HasHost() {
		t.Fatal("room with an active host reports hostless")
	}

	players[r.HostSerial].IsActive = false
	if r.HasHost() {
		t.Error("inactive host still counts as host")
	}
}

func TestExcludeHostClearsAuthority(t *testing.T) {
	tr := &mockTransport{}
	r, players := roomWithPlayers(2)
	r.SelectNewHost(tr)

	r.ExcludePlayer(players[0])
	if r.Host() != nil {
		t.Error("departed host still resolves")
	}
}

func TestNextSpawnWrapsAtCapacity(t *testing.T) {
	r := NewRoom()
	capacity := len(r.Map.SpawnOrder)

	// nine consecutive spawns cycle all slots and wrap to slot 0
	var got []SpawnPoint
	for i := 0; i < capacity+1; i++ {
		got = append(got, r.NextSpawn())
	}
	for i := 0; i < capacity; i++ {
		if got[i] != r.Map.SpawnOrder[i] {
			t.Errorf("spawn %d = %+v, want %+v", i, got[i], r.Map.SpawnOrder[i])
		}
	}
	if got[capacity] != r.Map.SpawnOrder[0] {
		t.Errorf("spawn %d did not wrap to slot 0", capacity)
	}
}

func TestResetMapRestoresStartingLayers(t *testing.T) {
	r, _ := roomWithPlayers(1)
	r.Map.SetCell(LayerBombs, 2, 2, BombCellMark(0))
	r.NextSpawn()

	r.ResetMap()

	if r.Map.Cell(LayerBombs, 2, 2) != EmptyCell {
		t.Error("reset kept a planted bomb")
	}
	if r.NextSpawnIndex != 0 {
		t.Error("reset kept the spawn cursor")
	}
}

func TestEmitBroadcastExcludesSender(t *testing.T) {
	tr := &mockTransport{}
	r, players := roomWithPlayers(3)

	r.EmitBroadcast(tr, EvtPlayerMove, "payload", players[1].ID)

	got := tr.eventsNamed(EvtPlayerMove)
	if len(got) != 2 {
		t.Fatalf("broadcast reached %d members, want 2", len(got))
	}
	for _, s := range got {
		if s.connID == players[1].ID {
			t.Error("sender received its own echo")
		}
	}
}
