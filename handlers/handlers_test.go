package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anjiri1684/review_scheduler/apperror"
	"github.com/anjiri1684/review_scheduler/handlers"
	"github.com/anjiri1684/review_scheduler/models"
	"github.com/anjiri1684/review_scheduler/routes"
	"github.com/anjiri1684/review_scheduler/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const secret = "handler-test-secret"

var now = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

// store is a small in-memory services.Store for driving the HTTP layer.
type store struct {
	users    map[uuid.UUID]models.User
	windows  map[uuid.UUID]models.AvailabilityWindow
	sessions map[uuid.UUID]models.ReviewSession
	stage1   map[uuid.UUID]models.ReviewerEvaluation
	stage2   map[uuid.UUID]models.FinalEvaluation
}

func newStore() *store {
	return &store{
		users:    map[uuid.UUID]models.User{},
		windows:  map[uuid.UUID]models.AvailabilityWindow{},
		sessions: map[uuid.UUID]models.ReviewSession{},
		stage1:   map[uuid.UUID]models.ReviewerEvaluation{},
		stage2:   map[uuid.UUID]models.FinalEvaluation{},
	}
}

func (s *store) Transaction(_ context.Context, fn func(tx services.Store) error) error {
	return fn(s)
}

func (s *store) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, apperror.NotFound("user")
}

func (s *store) LockUser(ctx context.Context, id uuid.UUID) error {
	_, err := s.GetUser(ctx, id)
	return err
}

func (s *store) CreateWindow(_ context.Context, w *models.AvailabilityWindow) error {
	w.ID = uuid.New()
	s.windows[w.ID] = *w
	return nil
}

func (s *store) GetWindow(_ context.Context, id uuid.UUID) (*models.AvailabilityWindow, error) {
	if w, ok := s.windows[id]; ok {
		return &w, nil
	}
	return nil, apperror.NotFound("availability window")
}

func (s *store) DeleteWindow(_ context.Context, id uuid.UUID) error {
	delete(s.windows, id)
	return nil
}

func (s *store) ListWindowsByDayKey(_ context.Context, reviewerID uuid.UUID, dayKey string) ([]models.AvailabilityWindow, error) {
	var out []models.AvailabilityWindow
	for _, w := range s.windows {
		if w.ReviewerID == reviewerID && w.DayKey == dayKey {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *store) ListBookableWindowsOn(_ context.Context, date time.Time, reviewerID *uuid.UUID) ([]models.AvailabilityWindow, error) {
	keys := models.DayKeysFor(date)
	var out []models.AvailabilityWindow
	for _, w := range s.windows {
		if w.IsBookable() && (w.DayKey == keys[0] || w.DayKey == keys[1]) && (reviewerID == nil || w.ReviewerID == *reviewerID) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *store) ListReviewerWindows(_ context.Context, reviewerID uuid.UUID) ([]models.AvailabilityWindow, error) {
	var out []models.AvailabilityWindow
	for _, w := range s.windows {
		if w.ReviewerID == reviewerID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *store) CreateSession(_ context.Context, sess *models.ReviewSession) error {
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *store) GetSession(_ context.Context, id uuid.UUID) (*models.ReviewSession, error) {
	if sess, ok := s.sessions[id]; ok {
		return &sess, nil
	}
	return nil, apperror.NotFound("review session")
}

func (s *store) UpdateSession(_ context.Context, sess *models.ReviewSession, from models.SessionStatus) error {
	if s.sessions[sess.ID].Status != from {
		return apperror.ErrStale
	}
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *store) ListSessions(_ context.Context, f models.SessionFilter) ([]models.ReviewSession, error) {
	var out []models.ReviewSession
	for _, sess := range s.sessions {
		sess := sess
		if f.Matches(&sess) {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (s *store) CreateReviewerEvaluation(_ context.Context, e *models.ReviewerEvaluation) error {
	s.stage1[e.SessionID] = *e
	return nil
}

func (s *store) GetReviewerEvaluation(_ context.Context, id uuid.UUID) (*models.ReviewerEvaluation, error) {
	if e, ok := s.stage1[id]; ok {
		return &e, nil
	}
	return nil, apperror.NotFound("reviewer evaluation")
}

func (s *store) CreateFinalEvaluation(_ context.Context, e *models.FinalEvaluation) error {
	s.stage2[e.SessionID] = *e
	return nil
}

func (s *store) GetFinalEvaluation(_ context.Context, id uuid.UUID) (*models.FinalEvaluation, error) {
	if e, ok := s.stage2[id]; ok {
		return &e, nil
	}
	return nil, apperror.NotFound("final evaluation")
}

type env struct {
	app      *fiber.App
	store    *store
	advisor  uuid.UUID
	reviewer uuid.UUID
	student  uuid.UUID
}

func setup(t *testing.T) *env {
	t.Helper()
	t.Setenv("JWT_SECRET", secret)

	st := newStore()
	e := &env{store: st, advisor: uuid.New(), reviewer: uuid.New(), student: uuid.New()}
	for id, role := range map[uuid.UUID]models.Role{e.advisor: models.RoleAdvisor, e.reviewer: models.RoleReviewer, e.student: models.RoleStudent} {
		st.users[id] = models.User{ID: id, FullName: string(role), Email: string(role) + "@example.com", Role: role, IsActive: true}
	}

	avail := services.NewAvailabilityService(st, nil, time.UTC)
	avail.Now = func() time.Time { return now }
	reviews := services.NewReviewService(st, nil, nil, time.UTC, "https://meet.example.com")
	reviews.Now = func() time.Time { return now }

	e.app = fiber.New()
	routes.AvailabilityRoutes(e.app, handlers.NewAvailabilityHandler(avail, time.UTC))
	routes.ReviewRoutes(e.app, handlers.NewReviewHandler(reviews))
	return e
}

func (e *env) token(t *testing.T, id uuid.UUID) string {
	t.Helper()
	role := e.store.users[id].Role
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": id.String(),
		"role":    string(role),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func (e *env) do(t *testing.T, as uuid.UUID, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		if raw, ok := body.(string); ok {
			r = bytes.NewBufferString(raw)
		} else {
			b, _ := json.Marshal(body)
			r = bytes.NewBuffer(b)
		}
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token(t, as))
	resp, err := e.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	out := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestCreateWindowEndpoint(t *testing.T) {
	e := setup(t)

	code, body := e.do(t, e.reviewer, "POST", "/api/v1/availability", map[string]any{
		"kind": "recurring", "day_of_week": 1, "start_time": "09:00", "end_time": "11:00",
	})
	if code != fiber.StatusCreated || body["start_time"] != "09:00" {
		t.Fatalf("create: %d %v", code, body)
	}

	code, body = e.do(t, e.reviewer, "POST", "/api/v1/availability", map[string]any{
		"kind": "recurring", "day_of_week": 1, "start_time": "10:00", "end_time": "12:00",
	})
	if code != fiber.StatusConflict || body["kind"] != "overlap" || body["existing"] == nil {
		t.Fatalf("overlap: %d %v", code, body)
	}

	cases := []struct {
		name  string
		body  any
		field string
	}{
		{"bad json", "{", "body"},
		{"bad time", map[string]any{"kind": "recurring", "day_of_week": 1, "start_time": "9:00", "end_time": "11:00"}, "start_time"},
		{"bad kind", map[string]any{"kind": "monthly", "start_time": "09:00", "end_time": "11:00"}, "kind"},
		{"reversed", map[string]any{"kind": "recurring", "day_of_week": 2, "start_time": "11:00", "end_time": "09:00"}, "end_time"},
	}
	for _, c := range cases {
		code, body := e.do(t, e.reviewer, "POST", "/api/v1/availability", c.body)
		if code != fiber.StatusBadRequest || body["field"] != c.field {
			t.Errorf("%s: %d %v", c.name, code, body)
		}
	}

	if code, _ := e.do(t, e.advisor, "POST", "/api/v1/availability", map[string]any{
		"kind": "recurring", "day_of_week": 3, "start_time": "09:00", "end_time": "11:00",
	}); code != fiber.StatusForbidden {
		t.Fatalf("advisors cannot publish availability, got %d", code)
	}
}

func TestByDateEndpoint(t *testing.T) {
	e := setup(t)
	e.do(t, e.reviewer, "POST", "/api/v1/availability", map[string]any{
		"kind": "recurring", "day_of_week": 1, "start_time": "09:00", "end_time": "11:00",
	})

	code, body := e.do(t, e.student, "GET", "/api/v1/availability/by-date?date=2026-10-19", nil)
	if code != fiber.StatusOK {
		t.Fatalf("by-date: %d %v", code, body)
	}
	windows := body["windows"].([]any)
	if len(windows) != 1 || windows[0].(map[string]any)["is_booked"] != false {
		t.Fatalf("unexpected windows %v", windows)
	}

	if code, body := e.do(t, e.student, "GET", "/api/v1/availability/by-date", nil); code != fiber.StatusBadRequest || body["field"] != "date" {
		t.Fatalf("missing date: %d %v", code, body)
	}
	if code, _ := e.do(t, e.student, "GET", "/api/v1/availability/by-date?date=19-10-2026", nil); code != fiber.StatusBadRequest {
		t.Fatalf("bad date: %d", code)
	}
	if code, _ := e.do(t, e.student, "GET", "/api/v1/availability/by-date?date=2026-10-19&reviewerId=x", nil); code != fiber.StatusBadRequest {
		t.Fatalf("bad reviewer id: %d", code)
	}
}

func TestReviewLifecycleEndpoints(t *testing.T) {
	e := setup(t)
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	code, body := e.do(t, e.advisor, "POST", "/api/v1/reviews", map[string]any{
		"student_id": e.student, "reviewer_id": e.reviewer, "week": 3,
		"scheduled_at": at.Format(time.RFC3339), "mode": "online",
	})
	if code != fiber.StatusCreated || body["status"] != "pending" {
		t.Fatalf("create: %d %v", code, body)
	}
	id := body["id"].(string)
	if body["meeting_link"] != "https://meet.example.com/review-"+id {
		t.Fatalf("meeting link %v", body["meeting_link"])
	}

	scores := map[string]any{
		"scores":   map[string]any{"theory": 8, "practical": 7.5, "communication": 9, "problem_solving": 6.5},
		"feedback": "Clear explanations throughout.",
	}
	code, body = e.do(t, e.reviewer, "PATCH", "/api/v1/reviews/"+id+"/complete", scores)
	if code != fiber.StatusConflict || body["status"] != "pending" {
		t.Fatalf("complete while pending: %d %v", code, body)
	}

	if code, _ := e.do(t, e.student, "PATCH", "/api/v1/reviews/"+id+"/accept", nil); code != fiber.StatusForbidden {
		t.Fatalf("student accept: %d", code)
	}
	if code, body := e.do(t, e.reviewer, "PATCH", "/api/v1/reviews/"+id+"/accept", nil); code != fiber.StatusOK || body["status"] != "accepted" {
		t.Fatalf("accept: %d %v", code, body)
	}

	bad := map[string]any{
		"scores":   map[string]any{"theory": 8, "practical": 7.3, "communication": 9, "problem_solving": 6.5},
		"feedback": "Clear explanations throughout.",
	}
	if code, body := e.do(t, e.reviewer, "PATCH", "/api/v1/reviews/"+id+"/complete", bad); code != fiber.StatusBadRequest || body["field"] != "scores.practical" {
		t.Fatalf("bad score: %d %v", code, body)
	}

	code, body = e.do(t, e.reviewer, "PATCH", "/api/v1/reviews/"+id+"/complete", scores)
	if code != fiber.StatusOK {
		t.Fatalf("complete: %d %v", code, body)
	}
	if avg := body["evaluation"].(map[string]any)["average_score"]; avg != 7.75 {
		t.Fatalf("average %v", avg)
	}

	code, body = e.do(t, e.advisor, "PATCH", "/api/v1/reviews/"+id+"/final-score", map[string]any{"final_score": 9.0, "attendance": 8.0})
	if code != fiber.StatusOK || body["session"].(map[string]any)["marks"] != 9.0 {
		t.Fatalf("final score: %d %v", code, body)
	}

	code, body = e.do(t, e.student, "GET", "/api/v1/reviews/"+id+"/evaluations", nil)
	if code != fiber.StatusOK || body["reviewer_evaluation"] != nil {
		t.Fatalf("student evaluations: %d %v", code, body)
	}

	if code, _ := e.do(t, e.advisor, "GET", "/api/v1/reviews/"+uuid.NewString(), nil); code != fiber.StatusNotFound {
		t.Fatalf("unknown session: %d", code)
	}
	if code, _ := e.do(t, e.advisor, "GET", "/api/v1/reviews/not-a-uuid", nil); code != fiber.StatusBadRequest {
		t.Fatalf("bad id: %d", code)
	}
	if code, _ := e.do(t, e.advisor, "GET", "/api/v1/reviews?status=bogus", nil); code != fiber.StatusBadRequest {
		t.Fatalf("bad status filter: %d", code)
	}
}

func TestCancelEndpointRequiresReason(t *testing.T) {
	e := setup(t)
	code, body := e.do(t, e.advisor, "POST", "/api/v1/reviews", map[string]any{
		"student_id": e.student, "reviewer_id": e.reviewer, "week": 1,
		"scheduled_at": "2026-10-20T14:00:00Z", "mode": "offline",
	})
	if code != fiber.StatusBadRequest || body["field"] != "location" {
		t.Fatalf("offline without location: %d %v", code, body)
	}

	code, body = e.do(t, e.advisor, "POST", "/api/v1/reviews", map[string]any{
		"student_id": e.student, "reviewer_id": e.reviewer, "week": 1,
		"scheduled_at": "2026-10-20T14:00:00Z", "mode": "offline", "location": "Room 4",
	})
	if code != fiber.StatusCreated {
		t.Fatalf("create: %d %v", code, body)
	}
	id := body["id"].(string)

	if code, _ := e.do(t, e.advisor, "PATCH", "/api/v1/reviews/"+id+"/cancel", map[string]any{}); code != fiber.StatusBadRequest {
		t.Fatalf("cancel without reason: %d", code)
	}
	code, body = e.do(t, e.advisor, "PATCH", "/api/v1/reviews/"+id+"/cancel", map[string]any{"reason": "venue closed"})
	if code != fiber.StatusOK || body["feedback"] != "Cancelled: venue closed" {
		t.Fatalf("cancel: %d %v", code, body)
	}
}
