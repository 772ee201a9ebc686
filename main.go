package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := OpenDB(cfg.DBPath)
	if err != nil {
		// The coordination core is in-memory; run without accounts or
		// the event journal rather than refusing to start.
		log.Printf("warning: database unavailable (%v), continuing without persistence", err)
		db = nil
	}

	journal := NewJournal(db)
	auth := NewAuth(db)
	hub := NewHub()
	engine := NewEngine(hub, auth, journal)
	go engine.Run()

	mux := SetupRoutes(hub, engine, cfg)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: mux}

	go func() {
		log.Println("=================================")
		log.Println("Bomberworld Server Started")
		log.Printf("Port: %s", cfg.Port)
		log.Println("=================================")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	server.Close()
	engine.Stop()
	journal.Stop()
	if db != nil {
		db.Close()
	}
}
