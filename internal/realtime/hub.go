package realtime

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/charlesng35/volunteerhub/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10

	defaultBufferSize = 64
)

// Message represents a JSON payload delivered to realtime subscribers.
type Message struct {
	Stream string         `json:"stream"`
	Event  string         `json:"event"`
	Data   any            `json:"data,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

type controlMessage struct {
	Action  string   `json:"action"`
	Streams []string `json:"streams"`
}

// Option customises a Hub.
type Option func(*Hub)

// WithAllowedOrigins accepts websocket upgrades from the listed origins in addition to
// same-host and loopback origins. "*" allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Hub) {
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				h.origins[strings.ToLower(origin)] = struct{}{}
			}
		}
	}
}

// Hub fans out messages to websocket clients, keyed by user and stream.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*client]struct{}
	origins  map[string]struct{}
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHub constructs a realtime hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients: make(map[string]map[*client]struct{}),
		origins: make(map[string]struct{}),
		log:     logger.WithModule("realtime"),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Serve upgrades the HTTP connection and subscribes the client to the given streams.
// A nil allowed set permits every known stream. It blocks until the connection closes.
func (h *Hub) Serve(userID string, streams []string, allowed map[string]struct{}, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.String("user_id", userID), zap.Error(err))
		return
	}

	c := &client{
		hub:     h,
		socket:  conn,
		userID:  userID,
		streams: make(map[string]struct{}),
		allowed: allowed,
		send:    make(chan Message, defaultBufferSize),
		done:    make(chan struct{}),
	}
	h.setStreams(c, streams, true)
	h.register(c)

	go c.writeLoop()
	c.readLoop()
}

// Publish delivers a message to every connection of userID subscribed to message.Stream.
func (h *Hub) Publish(userID string, message Message) {
	message.Stream = normalizeStream(message.Stream)
	if message.Stream == "" || userID == "" {
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		if c.subscribed(message.Stream) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	h.deliver(targets, message)
}

// PublishToUsers delivers a message to each of the supplied users.
func (h *Hub) PublishToUsers(userIDs []string, message Message) {
	for _, userID := range userIDs {
		h.Publish(userID, message)
	}
}

// Broadcast delivers a message to every connection subscribed to message.Stream.
func (h *Hub) Broadcast(message Message) {
	message.Stream = normalizeStream(message.Stream)
	if message.Stream == "" {
		return
	}

	h.mu.RLock()
	var targets []*client
	for _, conns := range h.clients {
		for c := range conns {
			if c.subscribed(message.Stream) {
				targets = append(targets, c)
			}
		}
	}
	h.mu.RUnlock()

	h.deliver(targets, message)
}

// Connections reports the number of open connections for a user.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) deliver(targets []*client, message Message) {
	for _, c := range targets {
		if !c.enqueue(message) {
			h.log.Warn("dropping slow client", zap.String("user_id", c.userID))
			c.close()
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.clients[c.userID]
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, c.userID)
	}
}

func (h *Hub) setStreams(c *client, streams []string, subscribe bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, stream := range uniqueStreams(streams) {
		if !isKnownStream(stream) || !c.isAllowed(stream) {
			h.log.Debug("ignoring stream", zap.String("stream", stream), zap.String("user_id", c.userID))
			continue
		}
		if subscribe {
			c.streams[stream] = struct{}{}
		} else {
			delete(c.streams, stream)
		}
	}
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if _, ok := h.origins["*"]; ok {
		return true
	}
	if _, ok := h.origins[strings.ToLower(origin)]; ok {
		return true
	}
	originHost := hostWithoutPort(origin)
	return originHost == hostWithoutPort(r.Host) || isLoopback(originHost)
}

type client struct {
	hub     *Hub
	socket  *websocket.Conn
	userID  string
	mu      sync.RWMutex
	streams map[string]struct{}
	allowed map[string]struct{}
	send    chan Message
	done    chan struct{}
	once    sync.Once
}

func (c *client) subscribed(stream string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.streams[stream]
	return ok
}

func (c *client) isAllowed(stream string) bool {
	if c.allowed == nil {
		return true
	}
	_, ok := c.allowed[stream]
	return ok
}

func (c *client) enqueue(message Message) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- message:
		return true
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *client) readLoop() {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("unexpected close", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}
		if len(payload) == 0 {
			continue
		}

		var ctrl controlMessage
		if err := json.Unmarshal(payload, &ctrl); err != nil {
			c.hub.log.Debug("invalid control payload", zap.String("user_id", c.userID), zap.Error(err))
			continue
		}

		switch strings.ToLower(strings.TrimSpace(ctrl.Action)) {
		case "subscribe":
			c.hub.setStreams(c, ctrl.Streams, true)
		case "unsubscribe":
			c.hub.setStreams(c, ctrl.Streams, false)
		case "ping":
			c.enqueue(Message{Event: "pong"})
		default:
			c.hub.log.Debug("unsupported control action", zap.String("action", ctrl.Action), zap.String("user_id", c.userID))
		}
	}
}

// writeLoop is the only writer on the socket.
func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.socket.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteJSON(message); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *client) close() {
	c.once.Do(func() {
		c.hub.unregister(c)
		close(c.done)
	})
}

func isKnownStream(stream string) bool {
	for _, known := range KnownStreams {
		if stream == known {
			return true
		}
	}
	return false
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}

	if strings.Contains(host, "://") {
		if parsed, err := url.Parse(host); err == nil {
			return parsed.Hostname()
		}
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}

func normalizeStream(stream string) string {
	return strings.ToLower(strings.TrimSpace(stream))
}

func uniqueStreams(streams []string) []string {
	seen := make(map[string]struct{}, len(streams))
	var result []string
	for _, stream := range streams {
		if stream = normalizeStream(stream); stream != "" {
			if _, exists := seen[stream]; !exists {
				seen[stream] = struct{}{}
				result = append(result, stream)
			}
		}
	}
	return result
}
