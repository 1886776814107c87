package handler

import (
    "context"  // op signature for the shared join/leave flow
    "errors"   // errors.Is comparisons against repository sentinels
    "net/http" // HTTP status codes
    "strconv"  // parsing path parameters
    "time"     // working with timestamps

    "github.com/iliyamo/court-booking/internal/model"
    "github.com/iliyamo/court-booking/internal/repository"
    "github.com/iliyamo/court-booking/internal/service"
    "github.com/iliyamo/court-booking/internal/slot"
    "github.com/labstack/echo/v4"
)

// BookingHandler exposes the booking endpoints: slot catalog,
// upcoming session listings, booking creation, roster join/leave and
// admin cancellation.  All methods assume JWT authentication has
// already been performed by middleware.  The user directory is
// consulted only to resolve display names for presentation; listing
// degrades to raw IDs when the directory is unavailable.
type BookingHandler struct {
    Bookings *service.Booking     // booking logic
    Users    *repository.UserRepo // display-name directory
}

// NewBookingHandler constructs a BookingHandler.  Both dependencies
// must be non-nil.
func NewBookingHandler(bookings *service.Booking, users *repository.UserRepo) *BookingHandler {
    if bookings == nil || users == nil {
        panic("nil dependency passed to NewBookingHandler")
    }
    return &BookingHandler{Bookings: bookings, Users: users}
}

// sessionView is the JSON shape returned for a session.  Attendee
// names are resolved from the user directory; when a name cannot be
// resolved the raw ID is rendered instead.
type sessionView struct {
    ID            uint64   `json:"sessions_id"`
    Location      string   `json:"location"`
    Court         string   `json:"court"`
    CourtType     string   `json:"court_type"`
    DateTime      string   `json:"date_time"`
    CreatedBy     uint64   `json:"created_by"`
    Attendees     []uint64 `json:"players_attending"`
    AttendeeNames []string `json:"attendee_names"`
    Status        string   `json:"status"`
}

func toView(s model.Session, names map[uint64]string) sessionView {
    v := sessionView{
        ID:            s.ID,
        Location:      s.Location,
        Court:         s.Court,
        CourtType:     string(s.CourtType),
        DateTime:      s.StartTime.UTC().Format(time.RFC3339),
        CreatedBy:     s.CreatedBy,
        Attendees:     s.Attendees,
        AttendeeNames: make([]string, 0, len(s.Attendees)),
        Status:        s.Status,
    }
    for _, id := range s.Attendees {
        if name, ok := names[id]; ok {
            v.AttendeeNames = append(v.AttendeeNames, name)
        } else {
            v.AttendeeNames = append(v.AttendeeNames, strconv.FormatUint(id, 10))
        }
    }
    return v
}

// ListSlots handles GET /v1/slots.  The catalog is fixed, so the
// response is always the same 13 entries.
func (h *BookingHandler) ListSlots(c echo.Context) error {
    catalog := slot.Generate()
    out := make([]echo.Map, 0, len(catalog))
    for _, s := range catalog {
        out = append(out, echo.Map{"start": s.Start, "end": s.End, "label": s.Label()})
    }
    return c.JSON(http.StatusOK, echo.Map{"slots": out})
}

// ListSessions handles GET /v1/sessions.  It returns all sessions
// from the given date onward (default: today), ordered by start
// time, both as a flat list and partitioned into badminton and
// tennis buckets for the sport-specific pages.
func (h *BookingHandler) ListSessions(c echo.Context) error {
    from := time.Now().UTC().Truncate(24 * time.Hour)
    if raw := c.QueryParam("from"); raw != "" {
        day, err := time.Parse("2006-01-02", raw)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from date, want YYYY-MM-DD"})
        }
        from = day
    }

    ctx := c.Request().Context()
    sessions, err := h.Bookings.ListUpcoming(ctx, from)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
    }

    // Resolve display names; on directory failure fall back to raw IDs.
    names, err := h.Users.ListNames(ctx)
    if err != nil {
        c.Logger().Warnf("list sessions: name directory unavailable: %v", err)
        names = map[uint64]string{}
    }

    badminton, tennis := h.Bookings.Classify(sessions)
    views := func(in []model.Session) []sessionView {
        out := make([]sessionView, 0, len(in))
        for _, s := range in {
            out = append(out, toView(s, names))
        }
        return out
    }
    return c.JSON(http.StatusOK, echo.Map{
        "sessions":  views(sessions),
        "badminton": views(badminton),
        "tennis":    views(tennis),
    })
}

// CreateSession handles POST /v1/sessions.  The body must select a
// date, a court and a time slot; an incomplete selection is rejected
// before any store call.
func (h *BookingHandler) CreateSession(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        Date  string `json:"date"`  // YYYY-MM-DD
        Court string `json:"court"` // court label
        Slot  string `json:"slot"`  // catalog label, e.g. "09:00 - 10:00"
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    s, confirmation, err := h.Bookings.Book(c.Request().Context(), userID, body.Date, body.Court, body.Slot)
    if err != nil {
        if errors.Is(err, service.ErrIncompleteSelection) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to book court"})
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "message": confirmation,
        "session": toView(*s, map[uint64]string{}),
    })
}

// JoinSession handles POST /v1/sessions/:id/join.
func (h *BookingHandler) JoinSession(c echo.Context) error {
    return h.mutateRoster(c, h.Bookings.Join)
}

// LeaveSession handles POST /v1/sessions/:id/leave.
func (h *BookingHandler) LeaveSession(c echo.Context) error {
    return h.mutateRoster(c, h.Bookings.Leave)
}

// mutateRoster implements the shared join/leave flow: parse the
// session ID, apply the roster transition and map outcomes and
// errors to HTTP responses.  Informational outcomes (already
// attending, not attending) are 200s, not errors.
func (h *BookingHandler) mutateRoster(c echo.Context, op func(ctx context.Context, sessionID, userID uint64) (service.RosterOutcome, *model.Session, error)) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    sessionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || sessionID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
    }

    outcome, s, err := op(c.Request().Context(), sessionID, userID)
    if err != nil {
        switch {
        case errors.Is(err, repository.ErrSessionNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
        case errors.Is(err, repository.ErrConflict):
            return c.JSON(http.StatusConflict, echo.Map{"error": "roster changed concurrently, please retry"})
        default:
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update roster"})
        }
    }
    return c.JSON(http.StatusOK, echo.Map{
        "outcome":           string(outcome),
        "players_attending": s.Attendees,
    })
}

// CancelSession handles DELETE /v1/sessions/:id.  The route is
// restricted to admins by middleware; this handler only performs the
// deletion.
func (h *BookingHandler) CancelSession(c echo.Context) error {
    sessionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || sessionID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
    }
    if err := h.Bookings.Cancel(c.Request().Context(), sessionID); err != nil {
        if errors.Is(err, repository.ErrSessionNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel booking"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Booking cancelled successfully!"})
}
