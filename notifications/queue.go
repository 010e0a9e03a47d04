package notifications

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/anjiri1684/review_scheduler/models"
	"github.com/google/uuid"
)

type Recipient struct {
	ID    uuid.UUID
	Name  string
	Email string
}

type Notification struct {
	Event     string         `json:"event"`
	Recipient Recipient      `json:"-"`
	Payload   map[string]any `json:"payload"`
	SentAt    time.Time      `json:"sent_at"`
}

// Sender delivers one notification over one channel (email, websocket push).
type Sender interface {
	Send(n Notification) error
}

// Directory resolves recipient ids to contact details.
type Directory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type job struct {
	event     string
	recipient uuid.UUID
	payload   map[string]any
}

// Queue hands notifications to a background worker so session transitions
// never wait on delivery. When the buffer is full new notifications are
// dropped and logged.
type Queue struct {
	dir     Directory
	senders []Sender
	jobs    chan job

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewQueue(dir Directory, size int, senders ...Sender) *Queue {
	if size <= 0 {
		size = 1
	}
	q := &Queue{
		dir:  dir,
		jobs: make(chan job, size),
		done: make(chan struct{}),
	}
	for _, s := range senders {
		if s != nil {
			q.senders = append(q.senders, s)
		}
	}
	go q.run()
	return q
}

func (q *Queue) Notify(event string, recipientID uuid.UUID, payload map[string]any) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		log.Printf("⚠️ Notification queue closed, dropping %s for %s", event, recipientID)
		return
	}
	select {
	case q.jobs <- job{event: event, recipient: recipientID, payload: payload}:
	default:
		log.Printf("⚠️ Notification queue full, dropping %s for %s", event, recipientID)
	}
}

// Close stops accepting notifications and waits for the queued ones to be
// delivered.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for j := range q.jobs {
		q.deliver(j)
	}
}

func (q *Queue) deliver(j job) {
	n := Notification{
		Event:     j.event,
		Recipient: Recipient{ID: j.recipient},
		Payload:   j.payload,
		SentAt:    time.Now(),
	}
	if q.dir != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		u, err := q.dir.GetUser(ctx, j.recipient)
		cancel()
		if err != nil {
			log.Printf("⚠️ Could not resolve recipient %s for %s: %v", j.recipient, j.event, err)
		} else {
			n.Recipient.Name, n.Recipient.Email = u.FullName, u.Email
		}
	}

	for _, s := range q.senders {
		if err := s.Send(n); err != nil {
			log.Printf("🔥 Failed to deliver %s to %s: %v", j.event, j.recipient, err)
		}
	}
}
