package notifications

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/anjiri1684/review_scheduler/models"
	"github.com/google/uuid"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (f *fakeSender) Send(n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return f.err
}

type fakeDirectory map[uuid.UUID]models.User

func (d fakeDirectory) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := d[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return &u, nil
}

func TestQueueDeliversToEverySender(t *testing.T) {
	id := uuid.New()
	dir := fakeDirectory{id: {ID: id, FullName: "Ada Reviewer", Email: "ada@example.com"}}
	failing := &fakeSender{err: errors.New("smtp down")}
	ok := &fakeSender{}

	q := NewQueue(dir, 8, failing, nil, ok)
	q.Notify("session.accepted", id, map[string]any{"week": 3})
	q.Notify("session.cancelled", uuid.New(), nil)
	q.Close()

	if len(ok.sent) != 2 || len(failing.sent) != 2 {
		t.Fatalf("each sender should see both notifications, got %d and %d", len(ok.sent), len(failing.sent))
	}
	first := ok.sent[0]
	if first.Event != "session.accepted" || first.Recipient.Email != "ada@example.com" || first.Recipient.Name != "Ada Reviewer" {
		t.Fatalf("unexpected notification %+v", first)
	}
	if ok.sent[1].Recipient.Email != "" {
		t.Fatal("unknown recipients are delivered without contact details")
	}
}

func TestQueueDropsWhenFullOrClosed(t *testing.T) {
	block := make(chan struct{})
	s := &blockingSender{release: block, started: make(chan struct{})}
	q := NewQueue(nil, 1, s)

	q.Notify("session.created", uuid.New(), nil) // picked up by the worker, which blocks
	<-s.started
	q.Notify("session.created", uuid.New(), nil) // fills the buffer
	q.Notify("session.created", uuid.New(), nil) // dropped
	close(block)
	q.Close()
	q.Notify("session.created", uuid.New(), nil) // after close
	q.Close()

	if s.count != 2 {
		t.Fatalf("expected 2 deliveries, got %d", s.count)
	}
}

type blockingSender struct {
	release chan struct{}
	started chan struct{}
	once    sync.Once
	count   int
}

func (b *blockingSender) Send(Notification) error {
	b.once.Do(func() {
		close(b.started)
		<-b.release
	})
	b.count++
	return nil
}

func TestBrevoSend(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api-key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		b, _ := io.ReadAll(r.Body)
		got = string(b)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := &BrevoService{APIKey: "key", SenderEmail: "noreply@example.com", SenderName: "Reviews", Endpoint: srv.URL, Client: srv.Client()}
	err := s.Send(Notification{
		Event:     "session.cancelled",
		Recipient: Recipient{Email: "sam@example.com"},
		Payload:   map[string]any{"reason": "Cancelled: venue closed"},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.Contains(got, "Review session cancelled") || !strings.Contains(got, `"name":"sam"`) {
		t.Fatalf("unexpected payload %s", got)
	}

	if err := s.Send(Notification{Event: "session.created"}); err == nil {
		t.Fatal("missing email should fail")
	}
	s.APIKey = "wrong"
	if err := s.Send(Notification{Event: "session.created", Recipient: Recipient{Email: "sam@example.com"}}); err == nil {
		t.Fatal("non-201 responses should fail")
	}
}

func TestRenderEmail(t *testing.T) {
	subject, body := renderEmail(Notification{
		Event:     "session.reminder",
		Recipient: Recipient{Name: "Sam"},
		Payload: map[string]any{
			"week":         4,
			"meeting_link": "https://meet.jit.si/review-1",
			"location":     "Lab <B>",
		},
	})
	if subject != "Reminder: your review starts in 1 hour" {
		t.Fatalf("subject = %q", subject)
	}
	for _, want := range []string{"Hi Sam", "<b>Week:</b> 4", "https://meet.jit.si/review-1", "Lab &lt;B&gt;"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q: %s", want, body)
		}
	}
	if subject, _ := renderEmail(Notification{Event: "unknown"}); subject != "Review session update" {
		t.Fatalf("fallback subject = %q", subject)
	}
}
