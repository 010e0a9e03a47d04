package websocket

import (
	"log"
	"time"

	"github.com/anjiri1684/review_scheduler/notifications"
	"github.com/google/uuid"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

type Client struct {
	UserID uuid.UUID
	Conn   Conn
}

type Message struct {
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
	SentAt  string         `json:"sent_at"`
}

// Hub pushes notifications to the connected clients of their recipient. A user
// may hold several connections at once. All state is owned by Run.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	push       chan notifications.Notification
	online     chan onlineQuery
	stop       chan struct{}
}

type onlineQuery struct {
	userID uuid.UUID
	reply  chan int
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		push:       make(chan notifications.Notification),
		online:     make(chan onlineQuery),
		stop:       make(chan struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.stop:
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stop:
	}
}

func (h *Hub) Stop() { close(h.stop) }

// Send queues n for push. It satisfies notifications.Sender.
func (h *Hub) Send(n notifications.Notification) error {
	select {
	case h.push <- n:
	case <-h.stop:
	}
	return nil
}

// Connections reports how many live connections userID has.
func (h *Hub) Connections(userID uuid.UUID) int {
	q := onlineQuery{userID: userID, reply: make(chan int, 1)}
	select {
	case h.online <- q:
		return <-q.reply
	case <-h.stop:
		return 0
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			log.Printf("Client registered: %s", client.UserID)
			conns, ok := h.clients[client.UserID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.UserID] = conns
			}
			conns[client] = struct{}{}
		case client := <-h.unregister:
			log.Printf("Client unregistered: %s", client.UserID)
			h.drop(client)
		case n := <-h.push:
			msg := Message{Event: n.Event, Payload: n.Payload, SentAt: n.SentAt.Format(time.RFC3339)}
			for client := range h.clients[n.Recipient.ID] {
				if err := client.Conn.WriteJSON(msg); err != nil {
					log.Printf("Error sending %s to client %s: %v", n.Event, client.UserID, err)
					client.Conn.Close()
					h.drop(client)
				}
			}
		case q := <-h.online:
			q.reply <- len(h.clients[q.userID])
		case <-h.stop:
			for _, conns := range h.clients {
				for client := range conns {
					client.Conn.Close()
				}
			}
			h.clients = make(map[uuid.UUID]map[*Client]struct{})
			return
		}
	}
}

func (h *Hub) drop(client *Client) {
	conns, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.UserID)
	}
}
