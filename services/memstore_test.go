package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/anjiri1684/review_scheduler/apperror"
	"github.com/anjiri1684/review_scheduler/models"
	"github.com/google/uuid"
)

// memStore is an in-memory Store. Transactions snapshot the maps and restore
// them when fn fails, which is enough to observe rollback behaviour.
type memStore struct {
	users    map[uuid.UUID]models.User
	windows  map[uuid.UUID]models.AvailabilityWindow
	sessions map[uuid.UUID]models.ReviewSession
	stage1   map[uuid.UUID]models.ReviewerEvaluation
	stage2   map[uuid.UUID]models.FinalEvaluation

	// failNextCreateSession makes the next CreateSession act as if the storage
	// constraint fired, to simulate losing a race after the pre-check.
	failNextCreateSession bool
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[uuid.UUID]models.User{},
		windows:  map[uuid.UUID]models.AvailabilityWindow{},
		sessions: map[uuid.UUID]models.ReviewSession{},
		stage1:   map[uuid.UUID]models.ReviewerEvaluation{},
		stage2:   map[uuid.UUID]models.FinalEvaluation{},
	}
}

func (m *memStore) addUser(role models.Role) uuid.UUID {
	id := uuid.New()
	m.users[id] = models.User{ID: id, FullName: string(role) + " " + id.String()[:4], Email: id.String() + "@example.com", Role: role, IsActive: true}
	return id
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *memStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	users, windows, sessions := cloneMap(m.users), cloneMap(m.windows), cloneMap(m.sessions)
	stage1, stage2 := cloneMap(m.stage1), cloneMap(m.stage2)
	if err := fn(m); err != nil {
		m.users, m.windows, m.sessions, m.stage1, m.stage2 = users, windows, sessions, stage1, stage2
		return err
	}
	return nil
}

func (m *memStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	return &u, nil
}

func (m *memStore) LockUser(_ context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return apperror.NotFound("user")
	}
	return nil
}

func (m *memStore) CreateWindow(_ context.Context, w *models.AvailabilityWindow) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	w.CreatedAt = time.Now()
	m.windows[w.ID] = *w
	return nil
}

func (m *memStore) GetWindow(_ context.Context, id uuid.UUID) (*models.AvailabilityWindow, error) {
	w, ok := m.windows[id]
	if !ok {
		return nil, apperror.NotFound("availability window")
	}
	return &w, nil
}

func (m *memStore) DeleteWindow(_ context.Context, id uuid.UUID) error {
	if _, ok := m.windows[id]; !ok {
		return apperror.NotFound("availability window")
	}
	delete(m.windows, id)
	return nil
}

func (m *memStore) ListWindowsByDayKey(_ context.Context, reviewerID uuid.UUID, dayKey string) ([]models.AvailabilityWindow, error) {
	var out []models.AvailabilityWindow
	for _, w := range m.windows {
		if w.ReviewerID == reviewerID && w.DayKey == dayKey {
			out = append(out, w)
		}
	}
	return sortedWindows(out), nil
}

func (m *memStore) ListBookableWindowsOn(_ context.Context, date time.Time, reviewerID *uuid.UUID) ([]models.AvailabilityWindow, error) {
	keys := models.DayKeysFor(date)
	var out []models.AvailabilityWindow
	for _, w := range m.windows {
		if w.SlotType != models.SlotBookable || (w.DayKey != keys[0] && w.DayKey != keys[1]) {
			continue
		}
		if reviewerID != nil && w.ReviewerID != *reviewerID {
			continue
		}
		out = append(out, w)
	}
	return sortedWindows(out), nil
}

func (m *memStore) ListReviewerWindows(_ context.Context, reviewerID uuid.UUID) ([]models.AvailabilityWindow, error) {
	var out []models.AvailabilityWindow
	for _, w := range m.windows {
		if w.ReviewerID == reviewerID {
			out = append(out, w)
		}
	}
	return sortedWindows(out), nil
}

func sortedWindows(ws []models.AvailabilityWindow) []models.AvailabilityWindow {
	sort.Slice(ws, func(i, j int) bool { return ws[i].ID.String() < ws[j].ID.String() })
	return ws
}

func (m *memStore) CreateSession(_ context.Context, s *models.ReviewSession) error {
	if m.failNextCreateSession {
		m.failNextCreateSession = false
		return &apperror.ConflictError{Kind: apperror.ConflictSessionClash, Message: "reviewer is already booked at this time"}
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	m.sessions[s.ID] = *s
	return nil
}

func (m *memStore) GetSession(_ context.Context, id uuid.UUID) (*models.ReviewSession, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperror.NotFound("review session")
	}
	return &s, nil
}

func (m *memStore) UpdateSession(_ context.Context, s *models.ReviewSession, from models.SessionStatus) error {
	cur, ok := m.sessions[s.ID]
	if !ok {
		return apperror.NotFound("review session")
	}
	if cur.Status != from {
		return apperror.ErrStale
	}
	s.UpdatedAt = time.Now()
	m.sessions[s.ID] = *s
	return nil
}

func (m *memStore) ListSessions(_ context.Context, f models.SessionFilter) ([]models.ReviewSession, error) {
	var out []models.ReviewSession
	for _, s := range m.sessions {
		s := s
		if f.Matches(&s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (m *memStore) CreateReviewerEvaluation(_ context.Context, e *models.ReviewerEvaluation) error {
	if _, ok := m.stage1[e.SessionID]; ok {
		return &apperror.ConflictError{Kind: apperror.ConflictEvaluationExists, Message: "exists"}
	}
	m.stage1[e.SessionID] = *e
	return nil
}

func (m *memStore) GetReviewerEvaluation(_ context.Context, sessionID uuid.UUID) (*models.ReviewerEvaluation, error) {
	e, ok := m.stage1[sessionID]
	if !ok {
		return nil, apperror.NotFound("reviewer evaluation")
	}
	return &e, nil
}

func (m *memStore) CreateFinalEvaluation(_ context.Context, e *models.FinalEvaluation) error {
	if _, ok := m.stage2[e.SessionID]; ok {
		return &apperror.ConflictError{Kind: apperror.ConflictEvaluationExists, Message: "exists"}
	}
	m.stage2[e.SessionID] = *e
	return nil
}

func (m *memStore) GetFinalEvaluation(_ context.Context, sessionID uuid.UUID) (*models.FinalEvaluation, error) {
	e, ok := m.stage2[sessionID]
	if !ok {
		return nil, apperror.NotFound("final evaluation")
	}
	return &e, nil
}

type sentEvent struct {
	event     string
	recipient uuid.UUID
	payload   map[string]any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (r *recordingNotifier) Notify(event string, recipient uuid.UUID, payload map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sentEvent{event, recipient, payload})
}

func (r *recordingNotifier) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.event == event {
			n++
		}
	}
	return n
}

// mapCache versions keys by generation the same way the Redis cache does.
type mapCache struct {
	entries       map[string][]byte
	generation    int64
	invalidations int
	hits          int
}

func newMapCache() *mapCache { return &mapCache{entries: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, int64, bool) {
	v, ok := c.entries[fmt.Sprintf("%s:g%d", key, c.generation)]
	if ok {
		c.hits++
	}
	return v, c.generation, ok
}

func (c *mapCache) Set(_ context.Context, key string, gen int64, v []byte) {
	c.entries[fmt.Sprintf("%s:g%d", key, gen)] = v
}

func (c *mapCache) Invalidate(context.Context) {
	c.invalidations++
	c.generation++
}
