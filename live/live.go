// Package live pushes cache invalidations to open dashboard tabs over websockets
package live

import (
	"cms/logger"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	cmap "github.com/orcaman/concurrent-map/v2"
	"go.uber.org/zap"
)

const (
	writeWait = 5 * time.Second
	// messages queued for a client that does not keep up are dropped
	sendQueueSize = 16
)

type MessageType string

const (
	MessageTypeInvalidate MessageType = "invalidate"
)

type Message struct {
	Type MessageType `json:"type"`
	Keys []string    `json:"keys"`
}

type Client struct {
	queue chan []byte
}

func newClient() *Client {
	return &Client{queue: make(chan []byte, sendQueueSize)}
}

// enqueue never blocks, it returns false when the queue of c is full
func (c *Client) enqueue(data []byte) bool {
	select {
	case c.queue <- data:
		return true
	default:
		return false
	}
}

// writeLoop is the only writer of conn
func (c *Client) writeLoop(conn *websocket.Conn, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case data := <-c.queue:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.L().Debug("websocket write failed", zap.Error(err))
				// unblocks the reader
				_ = conn.Close()
				return
			}
		}
	}
}

// Clients is needed as a user may be connected more than once
type Clients []*Client

type Hub struct {
	clients  cmap.ConcurrentMap[string, Clients]
	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients: cmap.New[Clients](),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func socketID(userID uint64) string {
	return "u" + strconv.FormatUint(userID, 10)
}

func (h *Hub) add(id string, c *Client) {
	h.clients.Upsert(id, Clients{c}, func(exist bool, valueInMap, newValue Clients) Clients {
		if exist {
			return append(valueInMap, c)
		}
		return newValue
	})
}

func (h *Hub) remove(id string, c *Client) {
	h.clients.Upsert(id, Clients{}, func(exist bool, valueInMap, newValue Clients) Clients {
		if !exist {
			return newValue
		}
		for _, oc := range valueInMap {
			if oc == c {
				continue
			}
			newValue = append(newValue, oc)
		}
		return newValue
	})
	h.clients.RemoveCb(id, func(key string, v Clients, exists bool) bool {
		return exists && len(v) == 0
	})
}

// Connected returns the number of open connections
func (h *Hub) Connected() int {
	total := 0
	for _, clients := range h.clients.Items() {
		total += len(clients)
	}
	return total
}

// Invalidate queues a notification for every connected client and returns
// without waiting for the writes. Delivery is best effort.
func (h *Hub) Invalidate(keys ...string) {
	data, err := json.Marshal(Message{Type: MessageTypeInvalidate, Keys: keys})
	if err != nil {
		return
	}
	for id, clients := range h.clients.Items() {
		for _, c := range clients {
			if !c.enqueue(data) {
				logger.L().Debug("websocket queue full, message dropped", zap.String("socket", id))
			}
		}
	}
}

// Serve upgrades the request and keeps the connection registered until it closes
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uint64) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.L().Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	client := newClient()
	done := make(chan struct{})
	go client.writeLoop(conn, done)
	defer close(done)

	id := socketID(userID)
	h.add(id, client)
	defer h.remove(id, client)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if string(message) == "ping" {
			client.enqueue([]byte("pong"))
		}
	}
}
