package server

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBufferSize = 32
)

// Pointer message kinds accepted from clients.
const (
	KindMove   = "move"
	KindDown   = "down"
	KindUp     = "up"
	KindClick  = "click"
	KindLeave  = "leave"
	KindResize = "resize"
)

// PointerMessage is what a client sends. X and Y are logical pixels;
// Width and Height are only read for KindResize.
type PointerMessage struct {
	Kind   string  `json:"kind"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

func (m PointerMessage) valid() bool {
	switch m.Kind {
	case KindMove, KindDown, KindUp, KindClick, KindLeave:
		return true
	case KindResize:
		return m.Width > 0 && m.Height > 0
	}
	return false
}

// OpenMessage asks clients to navigate to a paper's detail page.
type OpenMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	URL  string `json:"url"`
}

// client is one websocket connection.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	log  *zap.Logger
}

func newClient(conn *websocket.Conn, log *zap.Logger) *client {
	id := uuid.NewString()
	return &client{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		log:  log.With(zap.String("client", id)),
	}
}

// writePump sends queued messages and pings until send is closed.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Debug("websocket write", zap.Error(err))
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

// readPump decodes pointer messages and hands them to handle until the
// connection fails or handle returns an error.
func (c *client) readPump(handle func(PointerMessage) error) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("websocket read", zap.Error(err))
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg PointerMessage
		if err := json.Unmarshal(bytes.TrimSpace(data), &msg); err != nil || !msg.valid() {
			c.log.Debug("ignoring client message", zap.ByteString("data", data))
			continue
		}
		if err := handle(msg); err != nil {
			c.log.Debug("pointer message not applied", zap.Error(err))
			return
		}
	}
}

// hub tracks connected clients and fans messages out to them.
type hub struct {
	mu      sync.Mutex
	clients map[string]*client
	last    []byte // most recent frame, sent to new clients
	metrics *Metrics
	log     *zap.Logger
}

func newHub(metrics *Metrics, log *zap.Logger) *hub {
	return &hub{clients: map[string]*client{}, metrics: metrics, log: log}
}

func (h *hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	if h.last != nil {
		c.send <- h.last
	}
	h.metrics.Clients.Inc()
	h.log.Info("websocket client connected", zap.String("client", c.id), zap.Int("clients", len(h.clients)))
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	h.metrics.Clients.Dec()
	h.log.Info("websocket client disconnected", zap.String("client", c.id), zap.Int("clients", len(h.clients)))
}

// broadcast queues msg for every client. Slow clients miss messages
// rather than stalling the loop.
func (h *hub) broadcast(msg []byte, frame bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if frame {
		h.last = msg
	}
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			c.log.Debug("dropping message for slow client")
		}
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
		h.metrics.Clients.Dec()
	}
}
