// Package slot produces the fixed catalog of bookable time slots.
// The venue offers one-hour slots starting on the hour from 09:00 to
// 21:00, every day, so the catalog is a pure function of nothing:
// no inputs, no side effects, no failure modes.
package slot

import (
    "fmt"
    "time"
)

const (
    firstHour = 9  // first bookable start (09:00)
    lastHour  = 21 // last bookable start (21:00-22:00)
)

// Slot is a single bookable time-of-day range.  Start and End are
// zero-padded 24-hour "HH:MM" labels.
type Slot struct {
    Start string `json:"start"`
    End   string `json:"end"`
}

// Label returns the display form used throughout the app, e.g.
// "09:00 - 10:00".
func (s Slot) Label() string {
    return s.Start + " - " + s.End
}

// Generate returns the ordered catalog of 13 one-hour slots from
// "09:00 - 10:00" through "21:00 - 22:00".  Successive calls return
// equal catalogs.
func Generate() []Slot {
    slots := make([]Slot, 0, lastHour-firstHour+1)
    for hour := firstHour; hour <= lastHour; hour++ {
        slots = append(slots, Slot{
            Start: fmt.Sprintf("%02d:00", hour),
            End:   fmt.Sprintf("%02d:00", hour+1),
        })
    }
    return slots
}

// Find resolves a submitted label ("09:00 - 10:00" or just "09:00")
// against the catalog.  It returns false for anything outside the
// bookable hours, which callers treat as a validation failure.
func Find(label string) (Slot, bool) {
    for _, s := range Generate() {
        if label == s.Label() || label == s.Start {
            return s, true
        }
    }
    return Slot{}, false
}

// At combines a calendar date with the slot's start into a UTC
// timestamp.  The date's own clock time is discarded.
func (s Slot) At(date time.Time) time.Time {
    var h, m int
    fmt.Sscanf(s.Start, "%d:%d", &h, &m)
    return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, time.UTC)
}
