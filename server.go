package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	qrcode "github.com/skip2/go-qrcode"
)

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// originChecker allows same-host upgrades plus the configured allowlist.
// Non-browser clients send no Origin and pass.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if u.Host == r.Host {
			return true
		}
		for _, a := range allowed {
			if origin == a {
				return true
			}
		}
		return false
	}
}

// corsHeaders mirrors an allowlisted Origin back on the API endpoints.
func corsHeaders(w http.ResponseWriter, r *http.Request, allowed []string) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	for _, a := range allowed {
		if origin == a {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			return
		}
	}
}

// StatusResponse is the /api/status payload.
type StatusResponse struct {
	Status    string `json:"status"`
	Rooms     int    `json:"rooms"`
	Players   int    `json:"players"`
	Timestamp int64  `json:"timestamp"`
}

// SetupRoutes configures the HTTP surface: websocket upgrade, health and
// status endpoints, the welcome page, and the invite QR.
func SetupRoutes(hub *Hub, engine *Engine, cfg Config) *http.ServeMux {
	mux := http.NewServeMux()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, engine, conn, ip)
		hub.Register(client)
		client.sess = engine.Connect(client.id, ip)

		go client.WritePump()
		go client.ReadPump()
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		corsHeaders(w, r, cfg.AllowedOrigins)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		rooms, players := engine.Counts()
		status := "online"
		if !engine.Online() {
			status = "offline"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(StatusResponse{
			Status:    status,
			Rooms:     rooms,
			Players:   players,
			Timestamp: time.Now().UnixMilli(),
		})
	})

	// Invite QR: scan to open the game client
	mux.HandleFunc("/invite", func(w http.ResponseWriter, r *http.Request) {
		png, err := qrcode.Encode(cfg.PublicURL, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "qr error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})

	// Welcome page for direct browser access
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		rooms, players := engine.Counts()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, welcomePage, rooms, players)
	})

	return mux
}

const welcomePage = `<html>
  <head><title>Bomberworld Game Server</title></head>
  <body style="font-family: Arial; text-align: center; padding: 50px;">
    <h1>&#127918; Bomberworld Game Server</h1>
    <p>This is the backend server for Bomberworld multiplayer game.</p>
    <p>Status: <strong style="color: green;">Online</strong></p>
    <p>Rooms Active: <strong>%d</strong></p>
    <p>Players Connected: <strong>%d</strong></p>
    <hr>
    <p>To play the game, please visit the game client.</p>
  </body>
</html>`
