package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/growthlab/growthlab/server/internal/api"
	"github.com/growthlab/growthlab/server/internal/auth"
	"github.com/growthlab/growthlab/server/internal/metrics"
	"github.com/growthlab/growthlab/server/internal/notebook"
	"github.com/growthlab/growthlab/server/internal/session"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16

	// maxMessageSize bounds client frames; slider messages are tiny.
	maxMessageSize = 512
)

// Message event names.
const (
	EventView   = "view"
	EventError  = "error"
	EventSlider = "slider"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 8192,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients.
type Message struct {
	Event string                `json:"event"`
	Data  *api.SnapshotResponse `json:"data,omitempty"`
	Error string                `json:"error,omitempty"`
}

// inbound is a message received from a client.
type inbound struct {
	Event string   `json:"event"`
	Value *float64 `json:"value"`
}

// Recorder observes stream activity. Implemented by package metrics.
type Recorder interface {
	SliderUpdated(source string)
	StreamClients(n int)
}

// Options configures a Hub.
type Options struct {
	// Interval re-sends every client's view on each tick. 0 disables.
	Interval time.Duration

	// Auth decides which connections may move sessions other than their
	// own viewer session.
	Auth auth.Policy
}

// Hub manages WebSocket client connections.
type Hub struct {
	nb       *notebook.Notebook
	sessions *session.Store
	opts     Options

	mu      sync.RWMutex
	clients map[*client]struct{}
	rec     Recorder
}

// client represents one connected WebSocket client. trusted is set when the
// upgrade request passed the auth policy.
type client struct {
	session string
	trusted bool
	conn    *websocket.Conn
	send    chan []byte
}

// New creates a Hub reading views from nb for the sessions in st.
func New(nb *notebook.Notebook, st *session.Store, opts Options) *Hub {
	return &Hub{
		nb:       nb,
		sessions: st,
		opts:     opts,
		clients:  make(map[*client]struct{}),
	}
}

// SetRecorder attaches r for slider and client-count metrics.
func (h *Hub) SetRecorder(r Recorder) {
	h.mu.Lock()
	h.rec = r
	h.mu.Unlock()
}

// Run blocks until ctx is cancelled, then closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	var tick <-chan time.Time
	if h.opts.Interval > 0 {
		t := time.NewTicker(h.opts.Interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-tick:
			h.BroadcastAll()
		}
	}
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the client.
// Blocks until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	if id == "" {
		id = session.DefaultID
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		session: id,
		trusted: h.opts.Auth.Allow(r),
		conn:    conn,
		send:    make(chan []byte, sendBufSize),
	}
	h.register(c)
	defer h.unregister(c)

	// Send the current view so the UI has data right away.
	if data, err := h.buildView(id); err == nil {
		h.trySend(c, data)
	}

	go c.writePump()
	h.readPump(c) // blocks until connection closes
}

// Publish pushes the current view of session id to its clients.
func (h *Hub) Publish(id string) {
	targets := h.targets(func(c *client) bool { return c.session == id })
	if len(targets) == 0 {
		return
	}
	data, err := h.buildView(id)
	if err != nil {
		slog.Error("ws: build view failed", "session", id, "err", err)
		return
	}
	h.deliver(targets, data)
}

// BroadcastAll pushes a fresh view to every client, one build per session.
func (h *Hub) BroadcastAll() {
	bySession := make(map[string][]*client)
	for _, c := range h.targets(func(*client) bool { return true }) {
		bySession[c.session] = append(bySession[c.session], c)
	}
	for id, targets := range bySession {
		data, err := h.buildView(id)
		if err != nil {
			slog.Error("ws: build view failed", "session", id, "err", err)
			continue
		}
		h.deliver(targets, data)
	}
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n, rec := len(h.clients), h.rec
	h.mu.Unlock()
	if rec != nil {
		rec.StreamClients(n)
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n, rec := len(h.clients), h.rec
	h.mu.Unlock()
	if rec != nil {
		rec.StreamClients(n)
	}
}

func (h *Hub) targets(match func(*client) bool) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		if match(c) {
			out = append(out, c)
		}
	}
	return out
}

func (h *Hub) deliver(targets []*client, data []byte) {
	for _, c := range targets {
		h.trySend(c, data)
	}
}

// trySend queues data for c, disconnecting c when its buffer is full.
func (h *Hub) trySend(c *client, data []byte) {
	h.mu.RLock()
	_, live := h.clients[c]
	if live {
		select {
		case c.send <- data:
			h.mu.RUnlock()
			return
		default:
		}
	}
	h.mu.RUnlock()
	if live {
		slog.Warn("ws: dropping slow client", "session", c.session)
		h.unregister(c)
	}
}

func (h *Hub) buildView(id string) ([]byte, error) {
	snap, err := api.BuildSnapshot(h.nb, h.sessions, id)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Event: EventView, Data: &snap})
}

func (h *Hub) handleInbound(c *client, raw []byte) {
	var in inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		h.sendError(c, "invalid message")
		return
	}
	if in.Event != EventSlider || in.Value == nil {
		h.sendError(c, "unsupported message")
		return
	}
	// Untrusted connections may only move the viewer session the page minted.
	if !c.trusted && !h.sessions.Owned(c.session) {
		h.sendError(c, "api key required to change session "+c.session)
		return
	}
	if _, err := h.sessions.Set(c.session, *in.Value); err != nil {
		h.sendError(c, err.Error())
		return
	}

	h.mu.RLock()
	rec := h.rec
	h.mu.RUnlock()
	if rec != nil {
		rec.SliderUpdated(metrics.SourceStream)
	}
	h.Publish(c.session)
}

func (h *Hub) sendError(c *client, msg string) {
	data, err := json.Marshal(Message{Event: EventError, Error: msg})
	if err != nil {
		return
	}
	h.trySend(c, data)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	rec := h.rec
	h.mu.Unlock()
	if rec != nil {
		rec.StreamClients(0)
	}
}

// writePump drains the client's send channel and forwards messages to the
// WebSocket connection. It also sends periodic ping frames. Runs in its own
// goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Channel was closed (hub is shutting down or client removed).
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads slider messages and control frames until the connection
// closes.
func (h *Hub) readPump(c *client) {
	defer c.conn.Close()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		h.handleInbound(c, raw)
	}
}
