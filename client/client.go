// Package client streams decoded battle protocol to websocket
// spectators.
package client

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub fans decoded protocol messages out to every connected spectator.
// Spectators that fall behind are dropped.
type Hub struct {
	logger *log.Logger

	register   chan *spectator
	unregister chan *spectator
	broadcast  chan string
	spectators map[*spectator]struct{}
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		logger:     logger,
		register:   make(chan *spectator),
		unregister: make(chan *spectator),
		broadcast:  make(chan string, sendBuffer),
		spectators: make(map[*spectator]struct{}),
	}
}

// Run owns the spectator set until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for s := range h.spectators {
				s.close()
			}
			return
		case s := <-h.register:
			h.spectators[s] = struct{}{}
			h.logger.Info("spectator joined", "total", len(h.spectators))
		case s := <-h.unregister:
			if _, ok := h.spectators[s]; ok {
				delete(h.spectators, s)
				s.close()
				h.logger.Info("spectator left", "total", len(h.spectators))
			}
		case msg := <-h.broadcast:
			for s := range h.spectators {
				select {
				case s.send <- msg:
				default:
					delete(h.spectators, s)
					s.close()
					h.logger.Warn("dropped slow spectator")
				}
			}
		}
	}
}

// Broadcast queues one turn's protocol lines for every spectator as a
// single newline-joined frame.
func (h *Hub) Broadcast(lines []string) {
	if len(lines) == 0 {
		return
	}
	h.broadcast <- strings.Join(lines, "\n")
}

// ServeWS upgrades an HTTP request into a spectator connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "err", err)
		return
	}
	s := &spectator{hub: h, conn: conn, send: make(chan string, sendBuffer)}
	h.register <- s
	go s.writePump()
	go s.readPump()
}

type spectator struct {
	hub  *Hub
	conn *websocket.Conn
	send chan string
}

func (s *spectator) close() {
	close(s.send)
}

// readPump discards inbound frames; spectators are read-only and the
// pump only exists to notice disconnects and answer pings.
func (s *spectator) readPump() {
	defer func() {
		s.hub.unregister <- s
		s.conn.Close()
	}()
	s.conn.SetReadLimit(512)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *spectator) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
