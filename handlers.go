package main

import (
	"encoding/json"
	"log"
	"time"
)

// Handlers for the transport lifecycle and every gameplay event. All of
// them run on the engine goroutine. A handler whose bindings are missing
// (no player, no room) or whose serials don't resolve returns without
// effect: late or malformed client events degrade to no-ops, never crashes.

func (e *Engine) handleConnect(sess *Session) {
	log.Printf("user %s connected", sess.id)

	sess.player = NewPlayer(sess.id)
	e.registry.Register(sess.player)
	e.sessions[sess.id] = sess

	e.journal.Track(JournalConnect, sess.id, "", 0, "")

	// send the new player its identity
	e.tr.Send(sess.id, EvtPlayerConnect, sess.player)
}

func (e *Engine) handleDisconnect(sess *Session) {
	log.Printf("user %s disconnected", sess.id)

	delete(e.sessions, sess.id)
	e.registry.Unregister(sess.id)

	room := sess.room
	if room == nil || sess.player == nil {
		return
	}

	// host migration first, so the room never answers to a ghost
	if room.IsHost(sess.player) {
		sess.player.IsActive = false
		room.TouchRC()
		room.SelectNewHost(e.tr)
	}

	// a departed player's bombs must not persist as uncleared hazards
	room.Map.ClearOwnedBombs(sess.player.Serial)

	room.EmitBroadcast(e.tr, EvtPlayerExitRoom, sess.player, sess.id)
	e.journal.Track(JournalRoomExit, sess.id, room.ID, sess.accountID, "")

	room.ExcludePlayer(sess.player)
	sess.room = nil

	if room.IsEmpty() {
		e.registry.RemoveRoom(room.ID)
	}
}

// handleRoomRequest runs first-fit matchmaking: the first room with a free
// slot wins, and a new room opens only when every existing one is full.
func (e *Engine) handleRoomRequest(sess *Session, raw json.RawMessage) {
	if sess.player == nil {
		return
	}
	if sess.room != nil {
		// a retrying client still gets its answer, but is never
		// inserted into a second roster
		e.tr.Send(sess.id, EvtRoomFound, sess.room)
		return
	}

	var req RoomRequestData
	if err := json.Unmarshal(raw, &req); err != nil {
		// a malformed request still gets a room, under a guest name
		req = RoomRequestData{}
	}

	room := e.registry.FindOpenRoom()
	if room == nil {
		room = NewRoom()
		e.registry.AddRoom(room)
		log.Printf("created new room %s", room.ID)
	}

	if req.Name != "" {
		sess.player.Name = req.Name
	} else {
		sess.player.Name = GuestName()
	}

	room.InsertPlayer(sess.player)
	sess.room = room

	if !room.HasHost() {
		room.SelectNewHost(e.tr)
	}

	// answer the requester before the join broadcast so the joining
	// client never misses its own join
	e.tr.Send(sess.id, EvtRoomFound, room)
	room.EmitBroadcast(e.tr, EvtPlayerJoinRoom, sess.player, sess.id)

	e.journal.Track(JournalRoomJoin, sess.id, room.ID, sess.accountID, "")
	log.Printf("player %s joined room %s", sess.player.Name, room.ID)
}

func (e *Engine) handleChatMessage(sess *Session, raw json.RawMessage) {
	if sess.player == nil || sess.room == nil {
		return
	}
	var body string
	if err := json.Unmarshal(raw, &body); err != nil {
		return
	}

	sess.player.LastMessage = body

	sess.room.EmitAll(e.tr, EvtChatMessage, ChatMessageData{
		SenderID: sess.id,
		Body:     body,
	})
}

func (e *Engine) handlePlayerUnavailable(sess *Session) {
	if sess.player == nil {
		return
	}
	sess.player.IsActive = false

	if sess.room != nil && sess.room.IsHost(sess.player) {
		sess.room.TouchRC()
		sess.room.SelectNewHost(e.tr)
	}
}

func (e *Engine) handlePlayerAvailable(sess *Session) {
	if sess.player == nil {
		return
	}
	sess.player.IsActive = true

	if sess.room != nil && !sess.room.HasHost() {
		sess.room.SelectNewHost(e.tr)
	}
}

// handlePlayerSpawn assigns the next spawn slot to the player. The request's
// X field carries the client tile size; the broadcast echoes the request
// with the world coordinates and invincibility timestamp overlaid.
func (e *Engine) handlePlayerSpawn(sess *Session, raw json.RawMessage) {
	if sess.player == nil || sess.room == nil {
		return
	}
	var data SpawnData
	if err := json.Unmarshal(raw, &data); err != nil {
		return
	}
	echo, err := decodeEcho(raw)
	if err != nil {
		return
	}

	tileSize := data.X
	sp := sess.room.NextSpawn()

	p := sess.player
	p.X = (float64(sp.Col) + 0.5) * tileSize
	p.Y = (float64(sp.Row) + 0.5) * tileSize
	p.IsDead = false
	p.IsInvincible = true
	p.ITimestamp = time.Now().UnixMilli()
	p.Nickname = data.Nickname

	echo["x"] = rawField(p.X)
	echo["y"] = rawField(p.Y)
	echo["timestamp"] = rawField(p.ITimestamp)

	sess.room.EmitAll(e.tr, EvtPlayerSpawn, echo)
}

func (e *Engine) handlePlayerMove(sess *Session, raw json.RawMessage) {
	var data MoveData
	if err := json.Unmarshal(raw, &data); err != nil {
		return
	}
	if !e.applyMove(sess, data) {
		return
	}
	sess.room.EmitBroadcast(e.tr, EvtPlayerMove, data, sess.id)
}

// handleMoveBinary is the msgpack fast path for move events; same
// semantics, binary fan-out.
func (e *Engine) handleMoveBinary(sess *Session, frame []byte) {
	data, err := DecodeBinaryMove(frame)
	if err != nil {
		return
	}
	if !e.applyMove(sess, data) {
		return
	}
	sess.room.EmitBinaryBroadcast(e.tr, frame, sess.id)
}

// applyMove records a position update. Dead players don't move; focus does
// not gate movement, only host eligibility.
func (e *Engine) applyMove(sess *Session, data MoveData) bool {
	if sess.player == nil || sess.room == nil {
		return false
	}
	if sess.player.IsDead {
		return false
	}
	sess.player.X = data.X
	sess.player.Y = data.Y
	sess.player.AnimationKey = data.AnimationKey
	return true
}

// handlePlayerDeath validates a client-reported kill. Invincible or
// already-dead victims can't be killed again; a self-kill costs a frag
// instead of earning one.
func (e *Engine) handlePlayerDeath(sess *Session, raw json.RawMessage) {
	if sess.room == nil {
		return
	}
	var data DeathData
	if err := json.Unmarshal(raw, &data); err != nil {
		return
	}

	victim := sess.room.PlayerBySerial(data.VictimSerial)
	killer := sess.room.PlayerBySerial(data.KillerSerial)
	if victim == nil || killer == nil {
		return
	}
	if victim.IsInvincible || victim.IsDead {
		return
	}

	if victim == killer {
		victim.Frags--
	} else {
		killer.Frags++
	}
	victim.IsDead = true

	data.VictimID = victim.ID
	data.VictimFrags = victim.Frags
	data.KillerID = killer.ID
	data.KillerFrags = killer.Frags

	sess.room.EmitAll(e.tr, EvtPlayerDeath, data)

	e.journal.TrackDeath(e.accountFor(killer.ID), e.accountFor(victim.ID),
		sess.room.ID, victim == killer)
}

// handleCollectPowerup clears the collected cell and echoes the request
// with the server timestamp and the collector's serial attached.
func (e *Engine) handleCollectPowerup(sess *Session, raw json.RawMessage) {
	if sess.player == nil || sess.room == nil {
		return
	}
	var data PowerupData
	if err := json.Unmarshal(raw, &data); err != nil {
		return
	}
	echo, err := decodeEcho(raw)
	if err != nil {
		return
	}

	sess.room.Map.SetCell(LayerPowerups, data.Col, data.Row, EmptyCell)

	ts := time.Now().UnixMilli()
	echo["timestamp"] = rawField(ts)
	echo["c_serial"] = rawField(sess.player.Serial)

	if data.Type == "protection" {
		sess.player.IsInvincible = true
		sess.player.ITimestamp = ts
	}

	sess.room.EmitAll(e.tr, EvtPlayerCollectPowerup, echo)
}

func (e *Engine) handleLostInvincibility(sess *Session, raw json.RawMessage) {
	if sess.room == nil {
		return
	}
	var data LostInvincibilityData
	if err := json.Unmarshal(raw, &data); err != nil {
		return
	}

	if p := sess.room.PlayerBySerial(data.Serial); p != nil {
		p.IsInvincible = false
	}

	sess.room.EmitAll(e.tr, EvtPlayerLostInvincible, data)
}

// handlePlantBomb writes the owner's serial into the bombs layer. A cell
// that already holds a bomb rejects the placement: the event is dropped
// with no broadcast.
func (e *Engine) handlePlantBomb(sess *Session, raw json.RawMessage) {
	if sess.room == nil {
		return
	}
	var data BombPlantData
	if err := json.Unmarshal(raw, &data); err != nil {
		return
	}

	owner := sess.room.PlayerBySerial(data.OwnerSerial)
	if owner == nil {
		return
	}

	m := sess.room.Map
	if !m.InBounds(data.Col, data.Row) {
		return
	}
	if m.Cell(LayerBombs, data.Col, data.Row) != EmptyCell {
		return
	}

	data.Timestamp = time.Now().UnixMilli()
	m.SetCell(LayerBombs, data.Col, data.Row, BombCellMark(owner.Serial))
	log.Printf("bomb planted by %s at [%d;%d]", owner.ID, data.Col, data.Row)

	sess.room.EmitAll(e.tr, EvtPlayerPlantBomb, data)
	e.journal.Track(JournalBombPlant, owner.ID, sess.room.ID, e.accountFor(owner.ID), "")
}

func (e *Engine) handleBombExplode(sess *Session, raw json.RawMessage) {
	if sess.room == nil {
		return
	}
	var data BombExplodeData
	if err := json.Unmarshal(raw, &data); err != nil {
		return
	}

	m := sess.room.Map
	for _, idx := range data.EIndexes {
		col, row := idx[0], idx[1]
		m.SetCell(LayerBombs, col, row, EmptyCell)
		m.SetCell(LayerObjects, col, row, EmptyCell)
	}

	data.Timestamp = time.Now().UnixMilli()

	sess.room.EmitAll(e.tr, EvtBombExplode, data)
}

// handlePowerupBlink relays the host's payload to the room untouched.
func (e *Engine) handlePowerupBlink(sess *Session, raw json.RawMessage) {
	if sess.room == nil {
		return
	}
	var data PowerupData
	if err := json.Unmarshal(raw, &data); err != nil {
		return
	}
	sess.room.EmitAll(e.tr, EvtPowerupBlink, raw)
}

func (e *Engine) handlePowerupDisappear(sess *Session, raw json.RawMessage) {
	if sess.room == nil {
		return
	}
	var data PowerupData
	if err := json.Unmarshal(raw, &data); err != nil {
		return
	}

	sess.room.Map.SetCell(LayerPowerups, data.Col, data.Row, EmptyCell)

	sess.room.EmitAll(e.tr, EvtPowerupDisappear, raw)
}

func (e *Engine) handleMapReset(sess *Session) {
	if sess.room == nil {
		return
	}
	sess.room.ResetMap()
	sess.room.EmitAll(e.tr, EvtMapReset, sess.room)
}

// handleWebLogin authenticates a client against the account store and
// answers with a JSON-encoded "login result" string, the shape web clients
// already parse.
func (e *Engine) handleWebLogin(sess *Session, raw json.RawMessage) {
	if e.auth == nil {
		return
	}
	var creds WebLoginData
	if err := json.Unmarshal(raw, &creds); err != nil {
		return
	}

	result := e.auth.WebLogin(creds.Name, creds.Password, sess.ip)
	if result.Status == 1 && sess.player != nil {
		sess.accountID = result.accountID
		sess.player.Name = result.Name
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	e.tr.Send(sess.id, EvtLoginResult, string(payload))
}

// accountFor maps a connection id to its logged-in account, 0 for guests.
func (e *Engine) accountFor(connID string) int64 {
	if s, ok := e.sessions[connID]; ok {
		return s.accountID
	}
	return 0
}
