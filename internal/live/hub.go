// Package live pushes seat-availability changes to websocket subscribers,
// grouped by event.
package live

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/model"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans availability updates out to the subscribers of each event.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

// NewHub constructs a Hub. checkOrigin may be nil to accept any origin.
func NewHub(logger *slog.Logger, checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		logger:   logger,
		subs:     make(map[string]map[*subscriber]struct{}),
	}
}

// Publish sends a to every subscriber of its event. A subscriber whose
// buffer is full is dropped rather than blocking the publisher.
func (h *Hub) Publish(a model.Availability) {
	msg, err := json.Marshal(a)
	if err != nil {
		h.logger.Error("marshal availability", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[a.EventID] {
		select {
		case s.send <- msg:
		default:
			h.removeLocked(a.EventID, s)
		}
	}
}

// Subscribers returns the number of open subscriptions for an event.
func (h *Hub) Subscribers(eventID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[eventID])
}

func (h *Hub) add(eventID string, s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[eventID] == nil {
		h.subs[eventID] = make(map[*subscriber]struct{})
	}
	h.subs[eventID][s] = struct{}{}
}

func (h *Hub) remove(eventID string, s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(eventID, s)
}

func (h *Hub) removeLocked(eventID string, s *subscriber) {
	if _, ok := h.subs[eventID][s]; !ok {
		return
	}
	delete(h.subs[eventID], s)
	if len(h.subs[eventID]) == 0 {
		delete(h.subs, eventID)
	}
	close(s.send)
}

// Serve upgrades the request and streams updates for eventID, starting
// with the current snapshot. It returns when the client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, current model.Availability) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		h.logger.Debug("websocket upgrade failed", "err", err)
		return
	}

	s := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	if msg, err := json.Marshal(current); err == nil {
		s.send <- msg
	}
	h.add(current.EventID, s)

	go h.writeLoop(s)
	h.readLoop(current.EventID, s)
}

// readLoop discards client messages and returns once the connection fails.
func (h *Hub) readLoop(eventID string, s *subscriber) {
	defer func() {
		h.remove(eventID, s)
		_ = s.conn.Close()
	}()
	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
