package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/court-booking/internal/model"
	"github.com/iliyamo/court-booking/internal/repository"
)

// fakeStore is an in-memory SessionStore with the same versioned
// write semantics as the MySQL repository.  beforeUpdate, when set,
// runs just before each UpdateAttendees and can simulate a
// concurrent writer sneaking in between the service's read and
// write.
type fakeStore struct {
	mu           sync.Mutex
	nextID       uint64
	sessions     map[uint64]*model.Session
	creates      int
	updates      int
	beforeUpdate func(s *fakeStore)
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1, sessions: map[uint64]*model.Session{}}
}

func (f *fakeStore) ListUpcoming(ctx context.Context, from time.Time) ([]model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Session, 0)
	for _, s := range f.sessions {
		if !s.StartTime.Before(from) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uint64) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	cp := *s
	cp.Attendees = append([]uint64{}, s.Attendees...)
	return &cp, nil
}

func (f *fakeStore) Create(ctx context.Context, s *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	s.ID = f.nextID
	f.nextID++
	s.Version = 1
	s.CourtType = model.CourtTypeFromLabel(s.Court)
	cp := *s
	cp.Attendees = append([]uint64{}, s.Attendees...)
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateAttendees(ctx context.Context, id uint64, attendees []uint64, version uint64) error {
	if f.beforeUpdate != nil {
		hook := f.beforeUpdate
		f.beforeUpdate = nil
		hook(f)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	s, ok := f.sessions[id]
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

func (f *fakeStore) Delete(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[id]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(f.sessions, id)
	return nil
}

func newTestBooking(store *fakeStore) *Booking {
	return NewBooking(store, nil, "Wanstead Leisure Centre", true)
}

func TestBookIncompleteSelection(t *testing.T) {
	store := newFakeStore()
	b := newTestBooking(store)
	ctx := context.Background()

	cases := []struct {
		name              string
		date, court, slot string
	}{
		{"missing date", "", "Court 1 (Badminton)", "09:00 - 10:00"},
		{"missing court", "2025-08-10", "", "09:00 - 10:00"},
		{"missing slot", "2025-08-10", "Court 1 (Badminton)", ""},
		{"bad date", "10/08/2025", "Court 1 (Badminton)", "09:00 - 10:00"},
		{"unknown slot", "2025-08-10", "Court 1 (Badminton)", "08:00 - 09:00"},
	}
	for _, c := range cases {
		_, _, err := b.Book(ctx, 1, c.date, c.court, c.slot)
		if !errors.Is(err, ErrIncompleteSelection) {
			t.Errorf("%s: Book() error = %v, want ErrIncompleteSelection", c.name, err)
		}
	}
	if store.creates != 0 {
		t.Errorf("invalid selections issued %d store creates, want 0", store.creates)
	}
}

func TestBook(t *testing.T) {
	store := newFakeStore()
	b := newTestBooking(store)

	s, confirmation, err := b.Book(context.Background(), 7, "2025-08-10", "Court 1 (Badminton)", "09:00 - 10:00")
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if s.ID == 0 {
		t.Errorf("Book() did not assign an ID")
	}
	want := time.Date(2025, 8, 10, 9, 0, 0, 0, time.UTC)
	if !s.StartTime.Equal(want) {
		t.Errorf("StartTime = %v, want %v", s.StartTime, want)
	}
	if s.CreatedBy != 7 {
		t.Errorf("CreatedBy = %d, want 7", s.CreatedBy)
	}
	if s.Location != "Wanstead Leisure Centre" {
		t.Errorf("Location = %q, want venue default", s.Location)
	}
	if s.Status != model.SessionStatusBooked {
		t.Errorf("Status = %q, want %q", s.Status, model.SessionStatusBooked)
	}
	if len(s.Attendees) != 1 || s.Attendees[0] != 7 {
		t.Errorf("Attendees = %v, want creator only", s.Attendees)
	}
	wantMsg := "Successfully booked Court 1 (Badminton) on Sunday, August 10, 2025 at 09:00 - 10:00!"
	if confirmation != wantMsg {
		t.Errorf("confirmation = %q, want %q", confirmation, wantMsg)
	}
}

func TestBookWithoutAttendOnCreate(t *testing.T) {
	store := newFakeStore()
	b := NewBooking(store, nil, "Wanstead Leisure Centre", false)

	s, _, err := b.Book(context.Background(), 7, "2025-08-10", "Court 1 (Badminton)", "09:00 - 10:00")
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if len(s.Attendees) != 0 {
		t.Errorf("Attendees = %v, want empty roster", s.Attendees)
	}
}

func TestBookListRoundTrip(t *testing.T) {
	store := newFakeStore()
	b := newTestBooking(store)
	ctx := context.Background()

	created, _, err := b.Book(ctx, 2, "2025-08-10", "Court 3 (Tennis)", "18:00 - 19:00")
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}

	list, err := b.ListUpcoming(ctx, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListUpcoming() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("ListUpcoming() returned %d sessions, want 1", len(list))
	}
	got := list[0]
	if got.Court != created.Court || got.Location != created.Location ||
		!got.StartTime.Equal(created.StartTime) || got.CreatedBy != created.CreatedBy {
		t.Errorf("round trip mismatch: got %+v, created %+v", got, created)
	}
}

func TestJoinIdempotent(t *testing.T) {
	store := newFakeStore()
	b := newTestBooking(store)
	ctx := context.Background()

	s, _, err := b.Book(ctx, 1, "2025-08-10", "Court 1 (Badminton)", "09:00 - 10:00")
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}

	outcome, after, err := b.Join(ctx, s.ID, 2)
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if outcome != OutcomeJoined {
		t.Errorf("first Join outcome = %v, want %v", outcome, OutcomeJoined)
	}
	if len(after.Attendees) != 2 {
		t.Errorf("roster after join = %v, want 2 entries", after.Attendees)
	}

	writes := store.updates
	outcome, after, err = b.Join(ctx, s.ID, 2)
	if err != nil {
		t.Fatalf("second Join() error = %v", err)
	}
	if outcome != OutcomeAlreadyAttending {
		t.Errorf("second Join outcome = %v, want %v", outcome, OutcomeAlreadyAttending)
	}
	if store.updates != writes {
		t.Errorf("second Join issued a write, want none")
	}
	seen := map[uint64]bool{}
	for _, id := range after.Attendees {
		if seen[id] {
			t.Errorf("duplicate attendee %d in roster %v", id, after.Attendees)
		}
		seen[id] = true
	}
}

func TestLeaveIdempotent(t *testing.T) {
	store := newFakeStore()
	b := newTestBooking(store)
	ctx := context.Background()

	s, _, err := b.Book(ctx, 1, "2025-08-10", "Court 1 (Badminton)", "09:00 - 10:00")
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}

	writes := store.updates
	outcome, _, err := b.Leave(ctx, s.ID, 99)
	if err != nil {
		t.Fatalf("Leave() error = %v", err)
	}
	if outcome != OutcomeNotAttending {
		t.Errorf("Leave outcome = %v, want %v", outcome, OutcomeNotAttending)
	}
	if store.updates != writes {
		t.Errorf("no-op Leave issued a write, want none")
	}

	outcome, after, err := b.Leave(ctx, s.ID, 1)
	if err != nil {
		t.Fatalf("Leave() error = %v", err)
	}
	if outcome != OutcomeLeft {
		t.Errorf("Leave outcome = %v, want %v", outcome, OutcomeLeft)
	}
	if len(after.Attendees) != 0 {
		t.Errorf("roster after leave = %v, want empty", after.Attendees)
	}
}

func TestJoinRetriesOnConflict(t *testing.T) {
	store := newFakeStore()
	b := newTestBooking(store)
	ctx := context.Background()

	s, _, err := b.Book(ctx, 1, "2025-08-10", "Court 1 (Badminton)", "09:00 - 10:00")
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}

	// Simulate a concurrent writer landing between the service's read
	// and its write: user 3 joins while user 2's update is in flight.
	// The naive whole-field replace would erase user 3; the versioned
	// write must retry and keep both.
	store.beforeUpdate = func(f *fakeStore) {
		f.mu.Lock()
		defer f.mu.Unlock()
		row := f.sessions[s.ID]
		row.Attendees = append(row.Attendees, 3)
		row.Version++
	}

	outcome, after, err := b.Join(ctx, s.ID, 2)
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if outcome != OutcomeJoined {
		t.Errorf("Join outcome = %v, want %v", outcome, OutcomeJoined)
	}
	has := func(roster []uint64, id uint64) bool {
		for _, v := range roster {
			if v == id {
				return true
			}
		}
		return false
	}
	if !has(after.Attendees, 2) || !has(after.Attendees, 3) {
		t.Errorf("roster = %v, want both concurrent joiners present", after.Attendees)
	}
}

func TestJoinConflictExhaustion(t *testing.T) {
	store := newFakeStore()
	b := newTestBooking(store)
	ctx := context.Background()

	s, _, err := b.Book(ctx, 1, "2025-08-10", "Court 1 (Badminton)", "09:00 - 10:00")
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}

	// A writer that always wins the race: every attempt conflicts.
	bump := func(f *fakeStore) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.sessions[s.ID].Version++
	}
	var rearm func(f *fakeStore)
	rearm = func(f *fakeStore) {
		bump(f)
		f.beforeUpdate = rearm
	}
	store.beforeUpdate = rearm

	_, _, err = b.Join(ctx, s.ID, 2)
	if !errors.Is(err, repository.ErrConflict) {
		t.Errorf("Join() error = %v, want wrapped ErrConflict", err)
	}
}

func TestJoinMissingSession(t *testing.T) {
	b := newTestBooking(newFakeStore())
	_, _, err := b.Join(context.Background(), 42, 1)
	if !errors.Is(err, repository.ErrSessionNotFound) {
		t.Errorf("Join() error = %v, want ErrSessionNotFound", err)
	}
}

func TestCancel(t *testing.T) {
	store := newFakeStore()
	b := newTestBooking(store)
	ctx := context.Background()

	s, _, err := b.Book(ctx, 1, "2025-08-10", "Court 1 (Badminton)", "09:00 - 10:00")
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if err := b.Cancel(ctx, s.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	list, err := b.ListUpcoming(ctx, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListUpcoming() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("ListUpcoming() after cancel returned %v, want empty", list)
	}

	if err := b.Cancel(ctx, s.ID); !errors.Is(err, repository.ErrSessionNotFound) {
		t.Errorf("second Cancel() error = %v, want ErrSessionNotFound", err)
	}
}

func TestClassify(t *testing.T) {
	b := newTestBooking(newFakeStore())
	sessions := []model.Session{
		{ID: 1, Court: "Court 2 (Badminton)", CourtType: model.CourtTypeBadminton},
		{ID: 2, Court: "Court 3 (Tennis)", CourtType: model.CourtTypeTennis},
		{ID: 3, Court: "Court 9 (Squash)", CourtType: model.CourtTypeOther},
	}

	badminton, tennis := b.Classify(sessions)
	if len(badminton) != 1 || badminton[0].ID != 1 {
		t.Errorf("badminton bucket = %v, want session 1 only", badminton)
	}
	if len(tennis) != 1 || tennis[0].ID != 2 {
		t.Errorf("tennis bucket = %v, want session 2 only", tennis)
	}
}

func TestClassifyDerivesMissingCourtType(t *testing.T) {
	b := newTestBooking(newFakeStore())
	// Rows written before court_type existed have an empty tag.
	sessions := []model.Session{{ID: 1, Court: "Court 2 (Badminton)"}}
	badminton, tennis := b.Classify(sessions)
	if len(badminton) != 1 || len(tennis) != 0 {
		t.Errorf("Classify = (%v, %v), want legacy row classified as badminton", badminton, tennis)
	}
}
