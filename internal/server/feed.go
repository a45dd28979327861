package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/listsync/internal/core/events/bus"
	"github.com/zeusync/listsync/internal/core/observability/log"
)

const (
	writeWait      = 10 * time.Second
	maxInboundSize = 512
)

// Message kinds sent over the change feed.
const (
	MsgSnapshot = "snapshot"
	MsgChange   = "change"
)

// Message is one websocket frame of the change feed. A client first receives
// a snapshot, then one change per array notification in the order the array
// produced them.
type Message struct {
	Type       string     `json:"type"`
	Collection string     `json:"collection"`
	Values     []string   `json:"values,omitempty"`
	Event      *bus.Event `json:"event,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn, buffer int) *client {
	return &client{
		conn: conn,
		send: make(chan []byte, buffer),
	}
}

// enqueue reports false when the client is closed or its buffer is full.
func (c *client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// readPump discards inbound frames and returns once the connection fails.
func (c *client) readPump() {
	c.conn.SetReadLimit(maxInboundSize)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Feed streams collection changes to websocket clients.
type Feed struct {
	hub        *Hub
	logger     log.Log
	sendBuffer int
	upgrader   websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	wg      sync.WaitGroup
}

func NewFeed(hub *Hub, sendBuffer int, logger log.Log) *Feed {
	if logger == nil {
		logger = log.Nop()
	}
	return &Feed{
		hub:        hub,
		logger:     logger,
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP handles GET /ws?collection=name.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("collection")
	if !f.hub.Has(name) {
		writeError(w, http.StatusNotFound, ErrUnknownCollection)
		return
	}

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("Websocket upgrade failed", log.Error(err))
		return
	}

	logger := f.logger.With(
		log.String("collection", name),
		log.String("remote_addr", conn.RemoteAddr().String()),
	)
	c := newClient(conn, f.sendBuffer)

	if err := f.track(c); err != nil {
		logger.Info("Feed client refused", log.Error(err))
		_ = conn.Close()
		return
	}
	defer f.wg.Done()

	sub, err := f.hub.Watch(r.Context(), name,
		func(values []string) {
			c.enqueue(encodeMessage(Message{Type: MsgSnapshot, Collection: name, Values: values}))
		},
		f.changeHandler(c, name),
	)
	if err != nil {
		logger.Warn("Feed subscription failed", log.Error(err))
		f.untrack(c)
		f.wg.Done() // write pump never started
		c.close()
		_ = conn.Close()
		return
	}

	logger.Info("Feed client connected", log.Int("total_clients", f.ClientCount()))

	go func() {
		defer f.wg.Done()
		c.writePump()
	}()
	c.readPump()

	_ = sub.Cancel()
	f.untrack(c)
	c.close()

	logger.Info("Feed client disconnected", log.Int("total_clients", f.ClientCount()))
}

// changeHandler runs on the hub goroutine. A client that cannot take the
// event is closed and the handler reports ErrSlowClient to the bus.
func (f *Feed) changeHandler(c *client, name string) bus.EventHandler {
	return func(ev bus.Event) error {
		if c.enqueue(encodeMessage(Message{Type: MsgChange, Collection: name, Event: &ev})) {
			return nil
		}
		c.close()
		return ErrSlowClient
	}
}

// track registers c along with the handler and write goroutines Close waits
// for. It fails once Close has started.
func (f *Feed) track(c *client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFeedClosed
	}
	f.clients[c] = struct{}{}
	f.wg.Add(2)
	return nil
}

func (f *Feed) untrack(c *client) {
	f.mu.Lock()
	delete(f.clients, c)
	f.mu.Unlock()
}

func (f *Feed) ClientCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// Close disconnects every client, refuses new ones and waits for the client
// goroutines to finish.
func (f *Feed) Close() {
	f.mu.Lock()
	f.closed = true
	clients := make([]*client, 0, len(f.clients))
	for c := range f.clients {
		clients = append(clients, c)
	}
	f.mu.Unlock()

	for _, c := range clients {
		c.close()
		_ = c.conn.Close()
	}
	f.wg.Wait()
}

func encodeMessage(msg Message) []byte {
	data, _ := json.Marshal(msg)
	return data
}
