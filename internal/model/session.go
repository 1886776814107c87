package model

import (
    "strings"
    "time"
)

// CourtType is the sport a court is set up for.  It is derived once
// from the free-text court label when a session is loaded or created,
// so later reads never have to re-inspect the label.  Labels that
// match no known sport map to CourtTypeOther and are excluded from
// the per-sport listings.
type CourtType string

const (
    CourtTypeBadminton CourtType = "BADMINTON" // court label contains "badminton"
    CourtTypeTennis    CourtType = "TENNIS"    // court label contains "tennis"
    CourtTypeOther     CourtType = "OTHER"     // anything else (e.g. squash)
)

// CourtTypeFromLabel classifies a court label by case-insensitive
// substring match.  This mirrors how the venue names its courts,
// e.g. "Court 2 (Badminton)" or "Court 3 (Tennis)".
func CourtTypeFromLabel(label string) CourtType {
    l := strings.ToLower(label)
    switch {
    case strings.Contains(l, "badminton"):
        return CourtTypeBadminton
    case strings.Contains(l, "tennis"):
        return CourtTypeTennis
    default:
        return CourtTypeOther
    }
}

// SessionStatusBooked is the only status the application assigns today.
// The column is free text so future states can be added without a
// schema change.
const SessionStatusBooked = "Booked"

// Session records a reservation of one court for one time range as
// stored in the `sessions` table.  Identity fields (court, location,
// start time, creator) are set at creation and never mutated; only
// the attendee roster and the row's existence change afterwards.
//
// Fields:
//  ID        – primary key (sessions.sessions_id).
//  Location  – venue name (sessions.location).
//  Court     – court label (sessions.court).
//  CourtType – sport classification derived from Court at ingestion
//              (sessions.court_type).
//  StartTime – slot start, stored UTC (sessions.date_time).
//  CreatedBy – user who created the booking (sessions.created_by).
//  Attendees – user IDs currently attending, no duplicates
//              (sessions.players_attending, JSON array).
//  Status    – free-text state label (sessions.status).
//  Version   – optimistic concurrency token bumped on every roster
//              write (sessions.version).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Session struct {
    ID        uint64    // sessions.sessions_id
    Location  string    // sessions.location
    Court     string    // sessions.court
    CourtType CourtType // sessions.court_type
    StartTime time.Time // sessions.date_time
    CreatedBy uint64    // sessions.created_by
    Attendees []uint64  // sessions.players_attending
    Status    string    // sessions.status
    Version   uint64    // sessions.version
    CreatedAt time.Time // sessions.created_at
    UpdatedAt time.Time // sessions.updated_at
}

// Attending reports whether the given user is on the roster.
func (s *Session) Attending(userID uint64) bool {
    for _, id := range s.Attendees {
        if id == userID {
            return true
        }
    }
    return false
}
