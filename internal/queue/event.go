// Package queue defines message payloads exchanged over the message broker.
package queue

// EventKind distinguishes booking lifecycle events on the shared queue.
type EventKind string

const (
    BookingCreated   EventKind = "booking.created"
    BookingCancelled EventKind = "booking.cancelled"
)

// BookingEvent is published when a session is created or cancelled.
// It carries enough information for downstream consumers to log,
// notify, or trigger analytics without querying the primary
// database.  EventID and OccurredAt are stamped by the publisher.
type BookingEvent struct {
    EventID    string    `json:"event_id"`
    Kind       EventKind `json:"kind"`
    SessionID  uint64    `json:"session_id"`
    UserID     uint64    `json:"user_id"`
    Court      string    `json:"court"`
    Location   string    `json:"location"`
    StartsAt   string    `json:"starts_at"`
    OccurredAt string    `json:"occurred_at"`
}
