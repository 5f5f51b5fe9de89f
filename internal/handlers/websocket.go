package handlers

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/chepyr/go-kanban/internal/events"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const writeWait = 5 * time.Second

// WSHub fans board events out to the websocket clients watching each board.
// It implements events.Publisher.
type WSHub struct {
	// board -> connection -> user
	connections map[uuid.UUID]map[*websocket.Conn]uuid.UUID
	mutex       sync.Mutex
}

func NewWSHub() *WSHub {
	return &WSHub{connections: make(map[uuid.UUID]map[*websocket.Conn]uuid.UUID)}
}

func (h *WSHub) register(boardID, userID uuid.UUID, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.connections[boardID] == nil {
		h.connections[boardID] = make(map[*websocket.Conn]uuid.UUID)
	}
	h.connections[boardID][conn] = userID
}

func (h *WSHub) unregister(boardID uuid.UUID, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.drop(boardID, conn)
}

// drop must be called with the mutex held.
func (h *WSHub) drop(boardID uuid.UUID, conn *websocket.Conn) {
	conns, ok := h.connections[boardID]
	if !ok {
		return
	}
	if _, ok := conns[conn]; !ok {
		return
	}
	delete(conns, conn)
	conn.Close()
	if len(conns) == 0 {
		delete(h.connections, boardID)
	}
}

// Subscribers returns the number of connections watching boardID.
func (h *WSHub) Subscribers(boardID uuid.UUID) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.connections[boardID])
}

// CloseAll closes every connection. Clients see the stream end and may
// reconnect to another instance.
func (h *WSHub) CloseAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for boardID, conns := range h.connections {
		for conn := range conns {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			h.drop(boardID, conn)
		}
	}
}

// Publish sends ev to every connection on its board. Connections that fail
// to receive it are dropped. After a board is deleted all its connections
// are closed, and a removed member's connections to that board are closed.
func (h *WSHub) Publish(_ context.Context, ev events.Event) error {
	message, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	var removed uuid.UUID
	if ev.Type == events.MemberRemoved {
		var m struct {
			UserID uuid.UUID `json:"userId"`
		}
		if err := json.Unmarshal(ev.Data, &m); err == nil {
			removed = m.UserID
		}
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn, userID := range h.connections[ev.BoardID] {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.WithError(err).Debug("drop websocket connection")
			h.drop(ev.BoardID, conn)
			continue
		}
		if ev.Type == events.BoardDeleted || (removed != uuid.Nil && userID == removed) {
			h.drop(ev.BoardID, conn)
		}
	}
	return nil
}

// RateLimiter allows limit attempts per IP in each window. Stop ends the
// background reset.
type RateLimiter struct {
	attempts map[string]int
	limit    int
	mutex    sync.Mutex
	window   time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		attempts: make(map[string]int),
		limit:    limit,
		window:   window,
		done:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if rl.attempts[ip] >= rl.limit {
		return false
	}
	rl.attempts[ip]++
	return true
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mutex.Lock()
			clear(rl.attempts)
			rl.mutex.Unlock()
		}
	}
}

// clientIP prefers the first X-Forwarded-For hop over the peer address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(h.AllowedOrigins, r.Header.Get("Origin"))
}

// HandleWebSocket streams the events of one board to a member of it.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.RateLimiter != nil && !h.RateLimiter.Allow(clientIP(r)) {
		sendError(w, "Too many WebSocket connection attempts", http.StatusTooManyRequests)
		return
	}
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	boardID, err := uuid.Parse(r.URL.Query().Get("board_id"))
	if err != nil {
		sendError(w, "Invalid board_id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	_, err = h.Service.GetBoard(ctx, boardID, userID)
	cancel()
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		log.WithError(err).Debug("websocket upgrade failed")
		return
	}
	h.WSHub.register(boardID, userID, conn)
	defer h.WSHub.unregister(boardID, conn)

	// clients only listen; reading detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("websocket closed")
			}
			return
		}
	}
}
