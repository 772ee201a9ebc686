package main

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Client -> server event names. These are the wire vocabulary existing
// clients speak and must not change.
const (
	EvtRoomRequest           = "room request"
	EvtChatMessage           = "chat message"
	EvtPlayerAvailable       = "player available"
	EvtPlayerUnavailable     = "player unavailable"
	EvtPlayerSpawn           = "player spawn"
	EvtPlayerMove            = "player move"
	EvtPlayerDeath           = "player death"
	EvtPlayerCollectPowerup  = "player collect powerup"
	EvtPlayerLostInvincible  = "player lost invincibility"
	EvtPlayerPlantBomb       = "player plant bomb"
	EvtBombExplode           = "bomb explode"
	EvtPowerupBlink          = "powerup blink"
	EvtPowerupDisappear      = "powerup disappear"
	EvtMapReset              = "map reset"
	EvtWebLogin              = "web login"
)

// Server -> client event names.
const (
	EvtPlayerConnect  = "player connect"
	EvtRoomFound      = "room found"
	EvtPlayerJoinRoom = "player join room"
	EvtPlayerExitRoom = "player exit room"
	EvtHostChange     = "host change"
	EvtLoginResult    = "login result"
)

// Envelope wraps every outgoing event.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// InEnvelope defers payload decoding to the individual handlers.
type InEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RoomRequestData carries the optional display name of a player asking for
// a room.
type RoomRequestData struct {
	Name string `json:"name"`
}

// ChatMessageData is broadcast to the whole room, sender included.
type ChatMessageData struct {
	SenderID string `json:"sender_id"`
	Body     string `json:"body"`
}

// SpawnData reads the fields the server acts on from a spawn request; the
// X field carries the client tile size. The broadcast echoes the client's
// whole payload with x/y/timestamp overlaid, so client-side extras (skins,
// serials) pass through untouched.
type SpawnData struct {
	X        float64 `json:"x"`
	Nickname string  `json:"nickname"`
}

// DeathData names victim and killer by serial; the server resolves and
// echoes their ids and updated frag counts.
type DeathData struct {
	VictimSerial int    `json:"victim_serial"`
	KillerSerial int    `json:"killer_serial"`
	VictimID     string `json:"victim_id"`
	VictimFrags  int    `json:"victim_frags"`
	KillerID     string `json:"killer_id"`
	KillerFrags  int    `json:"killer_frags"`
}

// PowerupData reads the cell and kind out of collect, blink and disappear
// requests. The broadcasts echo the client payload itself (with
// timestamp/c_serial overlaid on collect), never this struct, so no
// client-supplied field is lost in the relay.
type PowerupData struct {
	Col  int    `json:"col"`
	Row  int    `json:"row"`
	Type string `json:"type"`
}

// LostInvincibilityData names the player whose protection ran out.
type LostInvincibilityData struct {
	Serial int `json:"serial"`
}

// BombPlantData is a bomb placement request, echoed with a timestamp.
type BombPlantData struct {
	Col         int   `json:"col"`
	Row         int   `json:"row"`
	OwnerSerial int   `json:"owner_serial"`
	Timestamp   int64 `json:"timestamp"`
}

// BombExplodeData lists the affected tiles as [col,row] pairs.
type BombExplodeData struct {
	EIndexes  [][2]int `json:"e_indexes"`
	Timestamp int64    `json:"timestamp"`
}

// HostChangeData announces a host migration to the room.
type HostChangeData struct {
	HostSerial  int    `json:"host_serial"`
	HostID      string `json:"host_id"`
	RCTimestamp int64  `json:"rc_timestamp"`
}

// WebLoginData is the credential payload of a "web login" event.
type WebLoginData struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// decodeEcho parses a payload as a JSON object keyed by field, so handlers
// that echo the client's payload can overlay server values without dropping
// fields the server does not model.
func decodeEcho(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// rawField marshals a server-computed value for insertion into an echoed
// payload.
func rawField(v interface{}) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// MoveData is the positional move payload: [ref, x, y, animationKey] where
// ref is the sender's serial or connection id, echoed untouched.
type MoveData struct {
	Ref          interface{}
	X            float64
	Y            float64
	AnimationKey string
}

func (m *MoveData) UnmarshalJSON(b []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return err
	}
	if len(parts) != 4 {
		return fmt.Errorf("move payload: want 4 elements, got %d", len(parts))
	}
	if err := json.Unmarshal(parts[0], &m.Ref); err != nil {
		return err
	}
	if err := json.Unmarshal(parts[1], &m.X); err != nil {
		return err
	}
	if err := json.Unmarshal(parts[2], &m.Y); err != nil {
		return err
	}
	return json.Unmarshal(parts[3], &m.AnimationKey)
}

func (m MoveData) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{m.Ref, m.X, m.Y, m.AnimationKey})
}

// binaryMoveMarker prefixes binary websocket frames carrying a
// msgpack-encoded move payload.
const binaryMoveMarker = 0x01

// DecodeBinaryMove parses a marker-prefixed msgpack move frame.
func DecodeBinaryMove(frame []byte) (MoveData, error) {
	var m MoveData
	if len(frame) < 2 || frame[0] != binaryMoveMarker {
		return m, fmt.Errorf("not a binary move frame")
	}
	var parts []interface{}
	if err := msgpack.Unmarshal(frame[1:], &parts); err != nil {
		return m, err
	}
	if len(parts) != 4 {
		return m, fmt.Errorf("binary move: want 4 elements, got %d", len(parts))
	}
	x, ok := toFloat(parts[1])
	if !ok {
		return m, fmt.Errorf("binary move: bad x")
	}
	y, ok := toFloat(parts[2])
	if !ok {
		return m, fmt.Errorf("binary move: bad y")
	}
	key, ok := parts[3].(string)
	if !ok {
		return m, fmt.Errorf("binary move: bad animation key")
	}
	m.Ref = parts[0]
	m.X = x
	m.Y = y
	m.AnimationKey = key
	return m, nil
}

// EncodeBinaryMove builds the marker-prefixed msgpack frame fanned out to
// room members.
func EncodeBinaryMove(m MoveData) ([]byte, error) {
	raw, err := msgpack.Marshal([]interface{}{m.Ref, m.X, m.Y, m.AnimationKey})
	if err != nil {
		return nil, err
	}
	frame := make([]byte, len(raw)+1)
	frame[0] = binaryMoveMarker
	copy(frame[1:], raw)
	return frame, nil
}

// toFloat widens the numeric types msgpack may produce.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	}
	return 0, false
}
