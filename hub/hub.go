package hub

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/mf-tracker/models"
	"github.com/yeremiapane/mf-tracker/notifications"
)

// Event types
const (
	EventNotificationsSnapshot = "notifications_snapshot"
	EventNotificationsChanged  = "notifications_changed"
)

const (
	defaultWriteWait  = 10 * time.Second
	defaultBufferSize = 16
	closeGrace        = time.Second
)

var (
	ErrNotRegistered = errors.New("hub: connection not registered")
	ErrClientSlow    = errors.New("hub: client is not keeping up")
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type Option func(*Hub)

// WithWriteTimeout bounds a single write to a client.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.writeWait = d
		}
	}
}

// WithBufferSize sets how many messages may queue per client before it is dropped.
func WithBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

type client struct {
	conn  *websocket.Conn
	owner string
	send  chan []byte
}

// Hub keeps the websocket clients watching the notification store. Each
// client has its own queue and writer, so a stalled peer never holds up a
// broadcast.
type Hub struct {
	clients    map[*websocket.Conn]*client
	mutex      sync.Mutex
	log        logrus.FieldLogger
	writeWait  time.Duration
	bufferSize int
}

func New(log logrus.FieldLogger, opts ...Option) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	h := &Hub{
		clients:    make(map[*websocket.Conn]*client),
		log:        log.WithField("component", "hub"),
		writeWait:  defaultWriteWait,
		bufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Register(conn *websocket.Conn, owner string) {
	c := &client{conn: conn, owner: owner, send: make(chan []byte, h.bufferSize)}

	h.mutex.Lock()
	if old, ok := h.clients[conn]; ok {
		close(old.send)
	}
	h.clients[conn] = c
	h.mutex.Unlock()

	go h.writePump(c)
}

// Unregister drops the connection and closes it. Calling it twice is harmless.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	h.remove(conn)
	h.mutex.Unlock()
	conn.Close()
}

// remove must be called with the mutex held.
func (h *Hub) remove(conn *websocket.Conn) bool {
	c, ok := h.clients[conn]
	if !ok {
		return false
	}
	delete(h.clients, conn)
	close(c.send)
	return true
}

// CloseAll sends a going-away frame to every client and disconnects them.
func (h *Hub) CloseAll() {
	h.mutex.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		h.remove(conn)
		conns = append(conns, conn)
	}
	h.mutex.Unlock()

	frame := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, conn := range conns {
		_ = conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(closeGrace))
		conn.Close()
	}
	if len(conns) > 0 {
		h.log.WithField("clients", len(conns)).Info("websocket clients disconnected")
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Send queues msg for a single connection.
func (h *Hub) Send(conn *websocket.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mutex.Lock()
	c, ok := h.clients[conn]
	if !ok {
		h.mutex.Unlock()
		return ErrNotRegistered
	}
	select {
	case c.send <- data:
		h.mutex.Unlock()
		return nil
	default:
		h.remove(conn)
		h.mutex.Unlock()
		conn.Close()
		return ErrClientSlow
	}
}

// BroadcastNotifications is meant to be subscribed to the notification store.
func (h *Hub) BroadcastNotifications(records []models.NotificationRecord) {
	h.Broadcast(Message{
		Event: EventNotificationsChanged,
		Data:  notifications.Summarize(records),
	})
}

// Broadcast queues msg for every client without waiting on any of them.
// Clients whose queue is full are disconnected.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.WithError(err).Error("marshaling hub message failed")
		return
	}

	h.mutex.Lock()
	if len(h.clients) == 0 {
		h.mutex.Unlock()
		return
	}
	var slow []*client
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		h.remove(c.conn)
	}
	queued := len(h.clients)
	h.mutex.Unlock()

	for _, c := range slow {
		h.log.WithField("owner", c.owner).Warn("client not keeping up, disconnecting")
		c.conn.Close()
	}
	h.log.WithFields(logrus.Fields{"event": msg.Event, "clients": queued}).Debug("broadcast queued")
}

func (h *Hub) writePump(c *client) {
	for data := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(h.writeWait)); err != nil {
			h.drop(c, err)
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.drop(c, err)
			return
		}
	}
}

func (h *Hub) drop(c *client, err error) {
	h.mutex.Lock()
	removed := h.clients[c.conn] == c && h.remove(c.conn)
	h.mutex.Unlock()
	c.conn.Close()
	if removed {
		h.log.WithError(err).WithField("owner", c.owner).Warn("sending to client failed")
	}
}
