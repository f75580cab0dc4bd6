// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package monitor streams sent commands and session transitions to browsers
// over a websocket and serves the latest session status as JSON.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/velocity_tester/internal/motion"
	"github.com/relabs-tech/velocity_tester/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // bench tool on a local network
	},
}

// sendBuffer is how many messages a slow client may lag before it misses
// some.
const sendBuffer = 64

// Message is one websocket frame.
type Message struct {
	Type      string        `json:"type"` // command, state
	Twist     *motion.Twist `json:"twist,omitempty"`
	Error     string        `json:"error,omitempty"`
	State     string        `json:"state,omitempty"`
	Mode      string        `json:"mode,omitempty"`
	Magnitude float64       `json:"magnitude,omitempty"`
	Duration  float64       `json:"duration_s,omitempty"`
	Elapsed   float64       `json:"elapsed_s,omitempty"`
	Ticks     int           `json:"ticks,omitempty"`
	Cancelled bool          `json:"cancelled,omitempty"`
	Time      time.Time     `json:"time"`
}

// Hub fans messages out to every connected websocket client.
type Hub struct {
	mu        sync.RWMutex
	clients   map[chan []byte]struct{}
	lastState *Message
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan []byte]struct{})}
}

// Clients returns the number of connected websocket clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CommandSent implements channel.CommandObserver.
func (h *Hub) CommandSent(cmd motion.Command, err error) {
	tw := cmd.Twist()
	m := Message{Type: "command", Twist: &tw, Time: time.Now()}
	if err != nil {
		m.Error = err.Error()
	}
	h.broadcast(m)
}

// SessionChanged implements session.Observer.
func (h *Hub) SessionChanged(ev session.Event) {
	m := Message{
		Type:      "state",
		State:     ev.State.String(),
		Mode:      ev.Params.Mode.String(),
		Magnitude: ev.Params.Magnitude,
		Duration:  ev.Params.Duration.Seconds(),
		Elapsed:   ev.Report.Elapsed.Seconds(),
		Ticks:     ev.Report.Ticks,
		Cancelled: ev.Report.Cancelled,
		Time:      ev.At,
	}
	if ev.Err != nil {
		m.Error = ev.Err.Error()
	}

	h.mu.Lock()
	h.lastState = &m
	h.mu.Unlock()

	h.broadcast(m)
}

func (h *Hub) broadcast(m Message) {
	payload, err := json.Marshal(m)
	if err != nil {
		log.Printf("monitor: json marshal error: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for send := range h.clients {
		select {
		case send <- payload:
		default:
			// client is too slow, drop this frame for it
		}
	}
}

// Handler serves /ws and /api/session.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)
	mux.HandleFunc("/api/session", h.handleSession)
	return mux
}

func (h *Hub) handleSession(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.lastState == nil {
		http.Error(w, "no session yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.lastState); err != nil {
		log.Printf("monitor: json encode error: %v", err)
	}
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("monitor: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan []byte, sendBuffer)
	h.mu.Lock()
	h.clients[send] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, send)
		h.mu.Unlock()
	}()

	// reader only notices the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case payload := <-send:
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("monitor: websocket write error: %v", err)
				return
			}
		}
	}
}

// ListenAndServe serves the hub on addr until ctx is done.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("monitor: web server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
