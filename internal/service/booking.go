// Package service holds the booking logic: request validation, slot
// resolution and roster transitions.  Everything stateful is reached
// through the SessionStore interface so tests can substitute an
// in-memory double for the MySQL repository.
package service

import (
    "context"
    "errors"
    "fmt"
    "log"
    "strings"
    "time"

    "github.com/iliyamo/court-booking/internal/model"
    "github.com/iliyamo/court-booking/internal/queue"
    "github.com/iliyamo/court-booking/internal/repository"
    "github.com/iliyamo/court-booking/internal/slot"
)

// SessionStore is the persistence surface the booking service
// consumes.  *repository.SessionRepo satisfies it.
type SessionStore interface {
    ListUpcoming(ctx context.Context, from time.Time) ([]model.Session, error)
    GetByID(ctx context.Context, id uint64) (*model.Session, error)
    Create(ctx context.Context, s *model.Session) error
    UpdateAttendees(ctx context.Context, id uint64, attendees []uint64, version uint64) error
    Delete(ctx context.Context, id uint64) error
}

// EventPublisher emits booking lifecycle events.  Publishing is
// best-effort: a failure is logged and never fails the request.
type EventPublisher interface {
    Publish(ctx context.Context, ev queue.BookingEvent) error
}

// ErrIncompleteSelection is returned by Book when the date, court or
// time slot is missing or unrecognized.  No store call is made in
// that case.
var ErrIncompleteSelection = errors.New("please select a date, a court, and a time slot to book")

// rosterRetryLimit bounds how many times a roster write is retried
// after losing an optimistic-concurrency race before giving up with
// repository.ErrConflict.
const rosterRetryLimit = 3

// RosterOutcome describes the result of a join or leave request.
// AlreadyAttending and NotAttending are informational, not errors:
// the request was understood, no state change was needed.
type RosterOutcome string

const (
    OutcomeJoined           RosterOutcome = "joined"
    OutcomeAlreadyAttending RosterOutcome = "already_attending"
    OutcomeLeft             RosterOutcome = "left"
    OutcomeNotAttending     RosterOutcome = "not_attending"
)

// Booking orchestrates court bookings against a SessionStore.
type Booking struct {
    store          SessionStore
    events         EventPublisher // may be nil
    location       string
    attendOnCreate bool
}

// NewBooking constructs the booking service.  location is the venue
// recorded on every new session.  attendOnCreate controls whether
// the creator is placed on the roster of sessions they book.  events
// may be nil to disable lifecycle events.
func NewBooking(store SessionStore, events EventPublisher, location string, attendOnCreate bool) *Booking {
    if store == nil {
        panic("nil store passed to NewBooking")
    }
    return &Booking{store: store, events: events, location: location, attendOnCreate: attendOnCreate}
}

// Book validates the selection, combines the date with the slot's
// start time and creates the session.  date is a "YYYY-MM-DD"
// calendar date, slotLabel a catalog label such as "09:00 - 10:00".
// It returns the created session and a human-readable confirmation.
//
// Nothing prevents two users from booking the same court and slot;
// whether that is a shared calendar or a defect is a product call,
// so the behavior of the original is kept.
func (b *Booking) Book(ctx context.Context, userID uint64, date, court, slotLabel string) (*model.Session, string, error) {
    court = strings.TrimSpace(court)
    if date == "" || court == "" || slotLabel == "" {
        return nil, "", ErrIncompleteSelection
    }
    day, err := time.Parse("2006-01-02", date)
    if err != nil {
        return nil, "", ErrIncompleteSelection
    }
    sl, ok := slot.Find(slotLabel)
    if !ok {
        return nil, "", ErrIncompleteSelection
    }

    attendees := []uint64{}
    if b.attendOnCreate {
        attendees = []uint64{userID}
    }
    s := &model.Session{
        Location:  b.location,
        Court:     court,
        StartTime: sl.At(day),
        CreatedBy: userID,
        Attendees: attendees,
        Status:    model.SessionStatusBooked,
    }
    if err := b.store.Create(ctx, s); err != nil {
        return nil, "", err
    }

    b.publish(ctx, queue.BookingEvent{
        Kind:      queue.BookingCreated,
        SessionID: s.ID,
        UserID:    userID,
        Court:     s.Court,
        Location:  s.Location,
        StartsAt:  s.StartTime.Format(time.RFC3339),
    })

    confirmation := fmt.Sprintf("Successfully booked %s on %s at %s!",
        court, day.Format("Monday, January 2, 2006"), sl.Label())
    return s, confirmation, nil
}

// Join puts the user on the session's roster.  When the user is
// already attending it returns OutcomeAlreadyAttending without
// writing.  The read-modify-write is guarded by the store's version
// check and retried from a fresh snapshot on conflict, so two
// concurrent joins both end up on the roster instead of one write
// silently erasing the other.
func (b *Booking) Join(ctx context.Context, sessionID, userID uint64) (RosterOutcome, *model.Session, error) {
    for attempt := 0; attempt < rosterRetryLimit; attempt++ {
        s, err := b.store.GetByID(ctx, sessionID)
        if err != nil {
            return "", nil, err
        }
        if s.Attending(userID) {
            return OutcomeAlreadyAttending, s, nil
        }
        roster := append(append([]uint64{}, s.Attendees...), userID)
        err = b.store.UpdateAttendees(ctx, sessionID, roster, s.Version)
        if errors.Is(err, repository.ErrConflict) {
            continue
        }
        if err != nil {
            return "", nil, err
        }
        s.Attendees = roster
        s.Version++
        return OutcomeJoined, s, nil
    }
    return "", nil, fmt.Errorf("join session %d: %w", sessionID, repository.ErrConflict)
}

// Leave removes the user from the session's roster.  When the user
// is not attending it returns OutcomeNotAttending without writing.
// Retry behavior matches Join.
func (b *Booking) Leave(ctx context.Context, sessionID, userID uint64) (RosterOutcome, *model.Session, error) {
    for attempt := 0; attempt < rosterRetryLimit; attempt++ {
        s, err := b.store.GetByID(ctx, sessionID)
        if err != nil {
            return "", nil, err
        }
        if !s.Attending(userID) {
            return OutcomeNotAttending, s, nil
        }
        roster := make([]uint64, 0, len(s.Attendees))
        for _, id := range s.Attendees {
            if id != userID {
                roster = append(roster, id)
            }
        }
        err = b.store.UpdateAttendees(ctx, sessionID, roster, s.Version)
        if errors.Is(err, repository.ErrConflict) {
            continue
        }
        if err != nil {
            return "", nil, err
        }
        s.Attendees = roster
        s.Version++
        return OutcomeLeft, s, nil
    }
    return "", nil, fmt.Errorf("leave session %d: %w", sessionID, repository.ErrConflict)
}

// Cancel deletes the session.  Authorization is the caller's
// responsibility; the admin-only route middleware enforces it.
func (b *Booking) Cancel(ctx context.Context, sessionID uint64) error {
    s, err := b.store.GetByID(ctx, sessionID)
    if err != nil {
        return err
    }
    if err := b.store.Delete(ctx, sessionID); err != nil {
        return err
    }
    b.publish(ctx, queue.BookingEvent{
        Kind:      queue.BookingCancelled,
        SessionID: s.ID,
        UserID:    s.CreatedBy,
        Court:     s.Court,
        Location:  s.Location,
        StartsAt:  s.StartTime.Format(time.RFC3339),
    })
    return nil
}

// ListUpcoming returns sessions starting at or after from, ascending.
func (b *Booking) ListUpcoming(ctx context.Context, from time.Time) ([]model.Session, error) {
    return b.store.ListUpcoming(ctx, from)
}

// Classify partitions sessions into badminton and tennis buckets by
// their court type.  Courts of any other sport appear in neither
// bucket; the venue pages only list these two sports.
func (b *Booking) Classify(sessions []model.Session) (badminton, tennis []model.Session) {
    badminton = make([]model.Session, 0)
    tennis = make([]model.Session, 0)
    for _, s := range sessions {
        ct := s.CourtType
        if ct == "" {
            ct = model.CourtTypeFromLabel(s.Court)
        }
        switch ct {
        case model.CourtTypeBadminton:
            badminton = append(badminton, s)
        case model.CourtTypeTennis:
            tennis = append(tennis, s)
        }
    }
    return badminton, tennis
}

func (b *Booking) publish(ctx context.Context, ev queue.BookingEvent) {
    if b.events == nil {
        return
    }
    if err := b.events.Publish(ctx, ev); err != nil {
        log.Printf("booking: publish %s event for session %d failed: %v", ev.Kind, ev.SessionID, err)
    }
}
