package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "fmt"
    "time"

    "github.com/iliyamo/court-booking/internal/model"
)

// SessionRepo provides CRUD operations for court booking sessions.
// A session reserves one court for one hour and carries a roster of
// attending users.  The roster is stored as a JSON array in the
// players_attending column and every roster write is guarded by the
// version column: the UPDATE only matches when the version still
// equals the one the caller read, so two concurrent joins can never
// silently overwrite each other's roster.  All timestamp fields are
// stored in UTC.
type SessionRepo struct {
    db *sql.DB
}

// NewSessionRepo returns a new SessionRepo bound to the given database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

const sessionColumns = `sessions_id, location, court, court_type, date_time, created_by, players_attending, status, version, created_at, updated_at`

// scanSession reads one sessions row.  It decodes the JSON roster
// and tolerates a NULL roster (treated as empty).
func scanSession(scan func(dest ...any) error) (*model.Session, error) {
    var (
        s         model.Session
        startStr  string
        courtType string
        roster    sql.NullString
    )
    if err := scan(
        &s.ID, &s.Location, &s.Court, &courtType, &startStr,
        &s.CreatedBy, &roster, &s.Status, &s.Version,
        &s.CreatedAt, &s.UpdatedAt,
    ); err != nil {
        return nil, err
    }
    t, err := time.Parse("2006-01-02 15:04:05", startStr)
    if err != nil {
        return nil, fmt.Errorf("parse date_time: %w", err)
    }
    s.StartTime = t.UTC()
    s.CourtType = model.CourtType(courtType)
    s.Attendees = []uint64{}
    if roster.Valid && roster.String != "" {
        if err := json.Unmarshal([]byte(roster.String), &s.Attendees); err != nil {
            return nil, fmt.Errorf("decode players_attending: %w", err)
        }
    }
    return &s, nil
}

// ListUpcoming returns all sessions starting at or after the given
// instant, ordered ascending by start time.  Every call is a live
// round trip; there is no caching at this layer.  When no sessions
// match, an empty slice is returned.
func (r *SessionRepo) ListUpcoming(ctx context.Context, from time.Time) ([]model.Session, error) {
    const q = `SELECT ` + sessionColumns + `
               FROM sessions
               WHERE date_time >= ?
               ORDER BY date_time ASC`
    rows, err := r.db.QueryContext(ctx, q, from.UTC().Format("2006-01-02 15:04:05"))
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    sessions := make([]model.Session, 0)
    for rows.Next() {
        s, err := scanSession(rows.Scan)
        if err != nil {
            return nil, err
        }
        sessions = append(sessions, *s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return sessions, nil
}

// GetByID returns a single session including its current roster and
// version.  It returns ErrSessionNotFound when no row matches.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (*model.Session, error) {
    const q = `SELECT ` + sessionColumns + ` FROM sessions WHERE sessions_id = ?`
    s, err := scanSession(r.db.QueryRowContext(ctx, q, id).Scan)
    if err == sql.ErrNoRows {
        return nil, ErrSessionNotFound
    }
    if err != nil {
        return nil, err
    }
    return s, nil
}

// Create inserts a new session and populates the generated ID on the
// provided record.  The court type is derived from the court label
// before insert so reads never have to classify the label again.
// Version starts at 1.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
    if s.Attendees == nil {
        s.Attendees = []uint64{}
    }
    s.CourtType = model.CourtTypeFromLabel(s.Court)
    roster, err := json.Marshal(s.Attendees)
    if err != nil {
        return err
    }
    const q = `INSERT INTO sessions (location, court, court_type, date_time, created_by, players_attending, status, version)
               VALUES (?, ?, ?, ?, ?, ?, ?, 1)`
    result, err := r.db.ExecContext(ctx, q,
        s.Location, s.Court, string(s.CourtType),
        s.StartTime.UTC().Format("2006-01-02 15:04:05"),
        s.CreatedBy, string(roster), s.Status,
    )
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    s.ID = uint64(id)
    s.Version = 1
    return nil
}

// UpdateAttendees replaces the roster of the identified session.
// The write succeeds only when the row still carries the version the
// caller read; otherwise the roster changed underneath the caller
// and ErrConflict is returned so they can retry from a fresh read.
// ErrSessionNotFound is returned when the row no longer exists.
func (r *SessionRepo) UpdateAttendees(ctx context.Context, id uint64, attendees []uint64, version uint64) error {
    if attendees == nil {
        attendees = []uint64{}
    }
    roster, err := json.Marshal(attendees)
    if err != nil {
        return err
    }
    const q = `UPDATE sessions
               SET players_attending = ?, version = version + 1
               WHERE sessions_id = ? AND version = ?`
    result, err := r.db.ExecContext(ctx, q, string(roster), id, version)
    if err != nil {
        return err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // Distinguish a lost race from a deleted session.
        var exists int
        err := r.db.QueryRowContext(ctx,
            "SELECT 1 FROM sessions WHERE sessions_id = ? LIMIT 1", id).Scan(&exists)
        if err == sql.ErrNoRows {
            return ErrSessionNotFound
        }
        if err != nil {
            return err
        }
        return ErrConflict
    }
    return nil
}

// Delete removes the session.  It returns ErrSessionNotFound when no
// row matched so callers can report a stale cancellation.
func (r *SessionRepo) Delete(ctx context.Context, id uint64) error {
    result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE sessions_id = ?", id)
    if err != nil {
        return err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrSessionNotFound
    }
    return nil
}
