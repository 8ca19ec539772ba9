package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"diner/internal/order"
	"diner/internal/render"
	"diner/internal/session"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 16 * 1024
	sendBuffer     = 32
)

// Message types pushed to websocket clients
const (
	MessageView  = "view"
	MessageError = "error"
)

// Command is an interaction sent by a websocket client
type Command struct {
	Action  string                `json:"action"`
	ID      string                `json:"id,omitempty"`
	Payment *order.PaymentDetails `json:"payment,omitempty"`
}

// Message is pushed to websocket clients after every change
type Message struct {
	Type  string           `json:"type"`
	Error string           `json:"error,omitempty"`
	View  *render.PageView `json:"view,omitempty"`
}

// Hub fans session views out to the websocket connections of that session
type Hub struct {
	mu             sync.RWMutex
	sessions       map[string]map[*wsClient]struct{}
	allowedOrigins []string
	logger         *log.Logger
	upgrader       websocket.Upgrader
}

// wsClient maintains one websocket connection
type wsClient struct {
	hub       *Hub
	conn      *websocket.Conn
	sessionID string
	mu        sync.Mutex
	send      chan []byte
	closed    bool
}

// NewHub creates an empty hub
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.StandardLogger()
	}
	h := &Hub{
		sessions: make(map[string]map[*wsClient]struct{}),
		logger:   logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Publish sends view to every connection of the session
func (h *Hub) Publish(sessionID string, view render.PageView) {
	payload, err := sonic.Marshal(Message{Type: MessageView, View: &view})
	if err != nil {
		h.logger.WithError(err).Error("encode view message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.sessions[sessionID] {
		client.enqueue(payload)
	}
}

// Connections returns the number of open connections for a session
func (h *Hub) Connections(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// CloseSession disconnects every client of a session
func (h *Hub) CloseSession(sessionIDs ...string) {
	h.mu.Lock()
	var clients []*wsClient
	for _, id := range sessionIDs {
		for client := range h.sessions[id] {
			clients = append(clients, client)
		}
		delete(h.sessions, id)
	}
	h.mu.Unlock()

	for _, client := range clients {
		client.close()
	}
}

func (h *Hub) register(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.sessions[client.sessionID]
	if !ok {
		clients = make(map[*wsClient]struct{})
		h.sessions[client.sessionID] = clients
	}
	clients[client] = struct{}{}
}

func (h *Hub) unregister(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.sessions[client.sessionID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.sessions, client.sessionID)
		}
	}
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// handleWebSocket upgrades an authenticated request and starts the pumps
func (s *Server) handleWebSocket(c *gin.Context) {
	id, err := s.tokens.Verify(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	view, err := s.ctrl.View(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err, render.PageView{})
		return
	}

	conn, err := s.hub.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &wsClient{
		hub:       s.hub,
		conn:      conn,
		sessionID: id,
		send:      make(chan []byte, sendBuffer),
	}
	s.hub.register(client)
	client.reply(Message{Type: MessageView, View: &view})

	go client.writePump()
	go client.readPump(s)
}

func (c *wsClient) enqueue(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- payload:
	default:
		c.hub.logger.WithField("session", c.sessionID).Warn("websocket client too slow, dropping connection")
		go c.close()
	}
}

func (c *wsClient) reply(msg Message) {
	payload, err := sonic.Marshal(msg)
	if err != nil {
		c.hub.logger.WithError(err).Error("encode websocket message")
		return
	}
	c.enqueue(payload)
}

func (c *wsClient) close() {
	c.hub.unregister(c)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump pumps commands from the connection to the controller
func (c *wsClient) readPump(s *Server) {
	// closing send lets writePump flush queued views before it closes the conn
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).Warn("websocket read failed")
			}
			c.conn.Close()
			return
		}
		if !c.handleMessage(s, message) {
			return
		}
	}
}

// writePump pumps queued messages to the connection and keeps it alive
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage runs one command; it reports false once the session is gone
// or its order has been submitted
func (c *wsClient) handleMessage(s *Server, message []byte) bool {
	var cmd Command
	if err := sonic.Unmarshal(message, &cmd); err != nil {
		c.reply(Message{Type: MessageError, Error: "malformed command"})
		return true
	}

	reqCtx := context.Background()

	var (
		view render.PageView
		err  error
	)
	switch cmd.Action {
	case "add":
		view, err = s.ctrl.Add(reqCtx, c.sessionID, cmd.ID)
	case "remove":
		view, err = s.ctrl.Remove(reqCtx, c.sessionID, cmd.ID)
	case "complete":
		view, err = s.ctrl.Complete(reqCtx, c.sessionID)
	case "cancel":
		view, err = s.ctrl.Cancel(reqCtx, c.sessionID)
	case "pay":
		var details order.PaymentDetails
		if cmd.Payment != nil {
			details = *cmd.Payment
		}
		view, err = s.ctrl.Pay(reqCtx, c.sessionID, details)
	case "view":
		view, err = s.ctrl.View(reqCtx, c.sessionID)
		if err == nil {
			c.reply(Message{Type: MessageView, View: &view})
			return true
		}
	default:
		c.reply(Message{Type: MessageError, Error: "unknown action " + cmd.Action})
		return true
	}

	if err == nil {
		// the controller already published the new view
		return !order.IsTerminal(view.State)
	}
	msg := Message{Type: MessageError, Error: err.Error()}
	if view.Menu != nil {
		msg.View = &view
	}
	c.reply(msg)
	return !errors.Is(err, session.ErrUnknownSession)
}
