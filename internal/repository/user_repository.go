package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/court-booking/internal/model"
	"github.com/iliyamo/court-booking/internal/utils"
)

// UserRepo persists application users.  Besides auth lookups it
// serves as the display-name directory: rosters store user IDs and
// the UI resolves them to names through ListNames.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts a user and returns its ID.  The display name starts
// empty; the user registers one on first visit.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role) VALUES (?,?,?)",
		email, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	var name sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,name,is_active,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &name, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	u.Name = name.String
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	var name sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,name,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &name, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	u.Name = name.String
	return u, err
}

// ListNames returns the full id -> display name directory in one
// scan.  Users who have not registered a name yet fall back to their
// email so rosters always render something readable.
func (r *UserRepo) ListNames(ctx context.Context) (map[uint64]string, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, email, name FROM users")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names := make(map[uint64]string)
	for rows.Next() {
		var (
			id    uint64
			email string
			name  sql.NullString
		)
		if err := rows.Scan(&id, &email, &name); err != nil {
			return nil, err
		}
		if name.Valid && strings.TrimSpace(name.String) != "" {
			names[id] = name.String
		} else {
			names[id] = email
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// SetName stores the user's self-registered display name.  Callers
// validate that the name is non-empty before reaching this point.
func (r *UserRepo) SetName(ctx context.Context, id uint64, name string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=? WHERE id=?", strings.TrimSpace(name), id)
	return err
}
