package main

// Player holds the per-connection gameplay state. The ID is the connection
// id assigned by the transport; Serial is the player's roster slot inside
// its room and is meaningless (-1) outside of one.
type Player struct {
	ID           string  `json:"id"`
	Serial       int     `json:"serial"`
	Name         string  `json:"name"`
	Nickname     string  `json:"nickname"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	AnimationKey string  `json:"animation_key"`
	IsDead       bool    `json:"is_dead"`
	IsInvincible bool    `json:"is_invincible"`
	ITimestamp   int64   `json:"i_timestamp"`
	IsActive     bool    `json:"is_active"`
	Frags        int     `json:"frags"`
	LastMessage  string  `json:"last_message"`
}

// NewPlayer creates a player for a freshly connected client. Players start
// active: a client that just connected has focus until it reports otherwise.
func NewPlayer(id string) *Player {
	return &Player{
		ID:       id,
		Serial:   -1,
		IsActive: true,
	}
}
