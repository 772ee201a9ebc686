package main

import (
	"encoding/json"
	"testing"
	"time"
)

// waitFor polls until the condition holds or the deadline passes. The engine
// loop runs on its own goroutine, so assertions against it must wait.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestEngineLoop(t *testing.T) {
	tr := &mockTransport{}
	e := NewEngine(tr, nil, nil)
	go e.Run()
	defer e.Stop()

	waitFor(t, "engine online", e.Online)

	sess := e.Connect("c1", "127.0.0.1")
	waitFor(t, "player registration", func() bool {
		_, players := e.Counts()
		return players == 1
	})

	e.Dispatch(sess, EvtRoomRequest, json.RawMessage(`{"name":"A"}`))
	waitFor(t, "room creation", func() bool {
		rooms, _ := e.Counts()
		return rooms == 1
	})
	waitFor(t, "room found reply", func() bool {
		return len(tr.eventsNamed(EvtRoomFound)) == 1
	})

	e.Disconnect(sess)
	waitFor(t, "room teardown", func() bool {
		rooms, players := e.Counts()
		return rooms == 0 && players == 0
	})
}

func TestEngineKeepsPerConnectionOrder(t *testing.T) {
	tr := &mockTransport{}
	e := NewEngine(tr, nil, nil)
	go e.Run()
	defer e.Stop()

	sess := e.Connect("c1", "127.0.0.1")
	e.Dispatch(sess, EvtRoomRequest, json.RawMessage(`{"name":"A"}`))
	e.Dispatch(sess, EvtChatMessage, json.RawMessage(`"first"`))
	e.Dispatch(sess, EvtChatMessage, json.RawMessage(`"second"`))

	waitFor(t, "both chat messages", func() bool {
		return len(tr.eventsNamed(EvtChatMessage)) == 2
	})

	got := tr.eventsNamed(EvtChatMessage)
	if got[0].data.(ChatMessageData).Body != "first" ||
		got[1].data.(ChatMessageData).Body != "second" {
		t.Errorf("chat order scrambled: %+v", got)
	}
}
