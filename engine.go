package main

import (
	"encoding/json"
	"log"
	"sync/atomic"
)

// Transport delivers named events to connections. The engine never touches
// sockets or framing; the Hub is the production implementation and tests
// substitute a recorder.
type Transport interface {
	Send(connID, event string, data interface{})
	SendBinary(connID string, data []byte)
}

// Session binds a connection to its player and, once matched, its room.
// Only the engine loop reads or writes these fields.
type Session struct {
	id        string
	ip        string
	player    *Player
	room      *Room
	accountID int64 // 0 = guest / not logged in
}

const engineQueueSize = 1024

type eventKind int

const (
	evConnect eventKind = iota
	evDisconnect
	evMessage
	evBinary
)

type engineEvent struct {
	kind   eventKind
	sess   *Session
	name   string
	data   json.RawMessage
	binary []byte
}

// Engine is the room/player coordination core. Every connect, disconnect
// and gameplay event funnels through one goroutine, so handlers run to
// completion one at a time and registry/room/player state needs no locks.
type Engine struct {
	registry *Registry
	tr       Transport
	auth     *Auth
	journal  *Journal

	sessions map[string]*Session

	queue   chan engineEvent
	quit    chan struct{}
	running atomic.Bool
}

// NewEngine wires the coordination core. auth and journal may be nil;
// gameplay never depends on them.
func NewEngine(tr Transport, auth *Auth, journal *Journal) *Engine {
	return &Engine{
		registry: NewRegistry(),
		tr:       tr,
		auth:     auth,
		journal:  journal,
		sessions: make(map[string]*Session),
		queue:    make(chan engineEvent, engineQueueSize),
		quit:     make(chan struct{}),
	}
}

// Run processes queued events until Stop. Exactly one handler runs at a
// time; events from a single connection keep their arrival order.
func (e *Engine) Run() {
	e.running.Store(true)
	defer e.running.Store(false)
	for {
		select {
		case ev := <-e.queue:
			e.dispatch(ev)
		case <-e.quit:
			return
		}
	}
}

// Stop terminates the event loop.
func (e *Engine) Stop() {
	close(e.quit)
}

// Online reports whether the event loop is running, for the status surface.
func (e *Engine) Online() bool {
	return e.running.Load()
}

// Counts returns live room and player totals. Safe from any goroutine.
func (e *Engine) Counts() (rooms, players int) {
	return e.registry.Counts()
}

// Connect announces a new connection. Returns the session the transport
// should attach to subsequent events.
func (e *Engine) Connect(connID, ip string) *Session {
	sess := &Session{id: connID, ip: ip}
	e.queue <- engineEvent{kind: evConnect, sess: sess}
	return sess
}

// Disconnect announces a closed connection.
func (e *Engine) Disconnect(sess *Session) {
	e.queue <- engineEvent{kind: evDisconnect, sess: sess}
}

// Dispatch queues a named gameplay event for the session.
func (e *Engine) Dispatch(sess *Session, event string, data json.RawMessage) {
	e.queue <- engineEvent{kind: evMessage, sess: sess, name: event, data: data}
}

// DispatchBinary queues a binary move frame for the session.
func (e *Engine) DispatchBinary(sess *Session, frame []byte) {
	e.queue <- engineEvent{kind: evBinary, sess: sess, binary: frame}
}

func (e *Engine) dispatch(ev engineEvent) {
	switch ev.kind {
	case evConnect:
		e.handleConnect(ev.sess)
	case evDisconnect:
		e.handleDisconnect(ev.sess)
	case evBinary:
		e.handleMoveBinary(ev.sess, ev.binary)
	case evMessage:
		e.dispatchMessage(ev.sess, ev.name, ev.data)
	}
}

func (e *Engine) dispatchMessage(sess *Session, name string, data json.RawMessage) {
	switch name {
	case EvtRoomRequest:
		e.handleRoomRequest(sess, data)
	case EvtChatMessage:
		e.handleChatMessage(sess, data)
	case EvtPlayerAvailable:
		e.handlePlayerAvailable(sess)
	case EvtPlayerUnavailable:
		e.handlePlayerUnavailable(sess)
	case EvtPlayerSpawn:
		e.handlePlayerSpawn(sess, data)
	case EvtPlayerMove:
		e.handlePlayerMove(sess, data)
	case EvtPlayerDeath:
		e.handlePlayerDeath(sess, data)
	case EvtPlayerCollectPowerup:
		e.handleCollectPowerup(sess, data)
	case EvtPlayerLostInvincible:
		e.handleLostInvincibility(sess, data)
	case EvtPlayerPlantBomb:
		e.handlePlantBomb(sess, data)
	case EvtBombExplode:
		e.handleBombExplode(sess, data)
	case EvtPowerupBlink:
		e.handlePowerupBlink(sess, data)
	case EvtPowerupDisappear:
		e.handlePowerupDisappear(sess, data)
	case EvtMapReset:
		e.handleMapReset(sess)
	case EvtWebLogin:
		e.handleWebLogin(sess, data)
	default:
		log.Printf("unknown event %q from %s", name, sess.id)
	}
}
