package main

import (
	"log"
	"sync"
	"time"
)

// Journal event types.
const (
	JournalConnect   = "connect"
	JournalRoomJoin  = "room_join"
	JournalRoomExit  = "room_exit"
	JournalDeath     = "death"
	JournalBombPlant = "bomb_plant"
)

const (
	journalBufSize    = 1024
	journalBatchSize  = 64
	journalFlushEvery = 2 * time.Second
)

// JournalEvent is a single trackable game event.
type JournalEvent struct {
	Type      string
	ConnID    string
	RoomID    string
	AccountID int64
	Data      string
	Timestamp time.Time

	fragDelta int // applied to the account's persistent tally
	death     bool
}

// Journal persists game events and frag tallies with batched background
// writes. Enqueueing never blocks the engine loop; a full buffer drops the
// event. All methods are nil-receiver safe so gameplay runs without a DB.
type Journal struct {
	db     *DB
	events chan JournalEvent
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewJournal creates and starts the background writer. Returns nil when db
// is nil, which disables journaling entirely.
func NewJournal(db *DB) *Journal {
	if db == nil {
		return nil
	}
	j := &Journal{
		db:     db,
		events: make(chan JournalEvent, journalBufSize),
		stop:   make(chan struct{}),
	}
	j.wg.Add(1)
	go j.writer()
	return j
}

// Track enqueues a game event for async persistence.
func (j *Journal) Track(evtType, connID, roomID string, accountID int64, data string) {
	if j == nil {
		return
	}
	j.enqueue(JournalEvent{
		Type:      evtType,
		ConnID:    connID,
		RoomID:    roomID,
		AccountID: accountID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// TrackDeath records a validated kill and queues the frag/death tallies
// for any logged-in participants.
func (j *Journal) TrackDeath(killerAccount, victimAccount int64, roomID string, selfKill bool) {
	if j == nil {
		return
	}
	ev := JournalEvent{
		Type:      JournalDeath,
		RoomID:    roomID,
		AccountID: killerAccount,
		Timestamp: time.Now().UTC(),
	}
	if killerAccount != 0 {
		if selfKill {
			ev.fragDelta = -1
		} else {
			ev.fragDelta = 1
		}
	}
	if victimAccount != 0 && !selfKill {
		j.enqueue(JournalEvent{
			Type:      JournalDeath,
			RoomID:    roomID,
			AccountID: victimAccount,
			Timestamp: time.Now().UTC(),
			death:     true,
		})
	}
	if selfKill {
		ev.death = true
	}
	j.enqueue(ev)
}

func (j *Journal) enqueue(ev JournalEvent) {
	select {
	case j.events <- ev:
	default:
		// buffer full, drop rather than stall gameplay
	}
}

// Stop flushes pending events and terminates the writer.
func (j *Journal) Stop() {
	if j == nil {
		return
	}
	close(j.stop)
	j.wg.Wait()
}

func (j *Journal) writer() {
	defer j.wg.Done()

	ticker := time.NewTicker(journalFlushEvery)
	defer ticker.Stop()

	batch := make([]JournalEvent, 0, journalBatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := j.db.InsertEvents(batch); err != nil {
			log.Printf("journal write error: %v", err)
		}
		for _, ev := range batch {
			j.applyTallies(ev)
		}
		batch = batch[:0]
	}

	for {
		select {
		case ev := <-j.events:
			batch = append(batch, ev)
			if len(batch) >= journalBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-j.stop:
			// drain whatever is still queued
			for {
				select {
				case ev := <-j.events:
					batch = append(batch, ev)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (j *Journal) applyTallies(ev JournalEvent) {
	if ev.AccountID == 0 {
		return
	}
	if ev.fragDelta != 0 {
		if err := j.db.AddFrags(ev.AccountID, ev.fragDelta); err != nil {
			log.Printf("journal frag update error: %v", err)
		}
	}
	if ev.death {
		if err := j.db.AddDeath(ev.AccountID); err != nil {
			log.Printf("journal death update error: %v", err)
		}
	}
}
