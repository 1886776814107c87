package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/court-booking/internal/model"
	"github.com/iliyamo/court-booking/internal/repository"
	"github.com/iliyamo/court-booking/internal/service"
	"github.com/labstack/echo/v4"
)

// memStore is a minimal in-memory service.SessionStore for handler
// tests.  The versioned write semantics match the MySQL repository.
type memStore struct {
	mu       sync.Mutex
	nextID   uint64
	sessions map[uint64]*model.Session
	creates  int
}

func newMemStore() *memStore {
	return &memStore{nextID: 1, sessions: map[uint64]*model.Session{}}
}

func (m *memStore) ListUpcoming(ctx context.Context, from time.Time) ([]model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Session, 0)
	for _, s := range m.sessions {
		if !s.StartTime.Before(from) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *memStore) GetByID(ctx context.Context, id uint64) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	cp := *s
	cp.Attendees = append([]uint64{}, s.Attendees...)
	return &cp, nil
}

func (m *memStore) Create(ctx context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	s.ID = m.nextID
	m.nextID++
	s.Version = 1
	s.CourtType = model.CourtTypeFromLabel(s.Court)
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memStore) UpdateAttendees(ctx context.Context, id uint64, attendees []uint64, version uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	if s.Version != version {
		return repository.ErrConflict
	}
	s.Attendees = append([]uint64{}, attendees...)
	s.Version++
	return nil
}

func (m *memStore) Delete(ctx context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func newTestHandler(store *memStore) *BookingHandler {
	bookings := service.NewBooking(store, nil, "Wanstead Leisure Centre", true)
	return NewBookingHandler(bookings, repository.NewUserRepo(nil))
}

// newTestContext builds an echo context carrying an authenticated
// user, the way the JWT middleware would.
func newTestContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(1))
	return c, rec
}

func TestListSlots(t *testing.T) {
	e := echo.New()
	h := newTestHandler(newMemStore())
	c, rec := newTestContext(e, http.MethodGet, "/v1/slots", "")

	if err := h.ListSlots(c); err != nil {
		t.Fatalf("ListSlots() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Slots []struct {
			Label string `json:"label"`
		} `json:"slots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Slots) != 13 {
		t.Errorf("returned %d slots, want 13", len(resp.Slots))
	}
	if resp.Slots[0].Label != "09:00 - 10:00" {
		t.Errorf("first slot = %q, want %q", resp.Slots[0].Label, "09:00 - 10:00")
	}
}

func TestCreateSessionIncomplete(t *testing.T) {
	e := echo.New()
	store := newMemStore()
	h := newTestHandler(store)
	c, rec := newTestContext(e, http.MethodPost, "/v1/sessions",
		`{"date":"2025-08-10","court":"Court 1 (Badminton)"}`)

	if err := h.CreateSession(c); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if store.creates != 0 {
		t.Errorf("incomplete selection issued %d creates, want 0", store.creates)
	}
}

func TestCreateSession(t *testing.T) {
	e := echo.New()
	store := newMemStore()
	h := newTestHandler(store)
	c, rec := newTestContext(e, http.MethodPost, "/v1/sessions",
		`{"date":"2025-08-10","court":"Court 1 (Badminton)","slot":"09:00 - 10:00"}`)

	if err := h.CreateSession(c); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Message string `json:"message"`
		Session struct {
			ID        uint64   `json:"sessions_id"`
			CourtType string   `json:"court_type"`
			Attendees []uint64 `json:"players_attending"`
		} `json:"session"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !strings.Contains(resp.Message, "Successfully booked Court 1 (Badminton)") {
		t.Errorf("message = %q, want booking confirmation", resp.Message)
	}
	if resp.Session.ID == 0 {
		t.Errorf("session ID missing in response")
	}
	if resp.Session.CourtType != string(model.CourtTypeBadminton) {
		t.Errorf("court_type = %q, want %q", resp.Session.CourtType, model.CourtTypeBadminton)
	}
	if len(resp.Session.Attendees) != 1 || resp.Session.Attendees[0] != 1 {
		t.Errorf("players_attending = %v, want creator only", resp.Session.Attendees)
	}
}

func TestJoinSession(t *testing.T) {
	e := echo.New()
	store := newMemStore()
	h := newTestHandler(store)

	// Seed a session owned by user 2.
	seed := &model.Session{Court: "Court 1 (Badminton)", StartTime: time.Now().UTC(), CreatedBy: 2, Attendees: []uint64{2}}
	if err := store.Create(context.Background(), seed); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	join := func() (int, string) {
		c, rec := newTestContext(e, http.MethodPost, "/v1/sessions/1/join", "")
		c.SetParamNames("id")
		c.SetParamValues("1")
		if err := h.JoinSession(c); err != nil {
			t.Fatalf("JoinSession() error = %v", err)
		}
		var resp struct {
			Outcome string `json:"outcome"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		return rec.Code, resp.Outcome
	}

	code, outcome := join()
	if code != http.StatusOK || outcome != string(service.OutcomeJoined) {
		t.Errorf("first join = (%d, %q), want (200, joined)", code, outcome)
	}
	code, outcome = join()
	if code != http.StatusOK || outcome != string(service.OutcomeAlreadyAttending) {
		t.Errorf("second join = (%d, %q), want (200, already_attending)", code, outcome)
	}
}

func TestCancelSessionNotFound(t *testing.T) {
	e := echo.New()
	h := newTestHandler(newMemStore())
	c, rec := newTestContext(e, http.MethodDelete, "/v1/sessions/42", "")
	c.SetParamNames("id")
	c.SetParamValues("42")

	if err := h.CancelSession(c); err != nil {
		t.Fatalf("CancelSession() error = %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
