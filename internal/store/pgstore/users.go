package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"roster/internal/apperr"
	"roster/internal/model"
)

const userColumns = `id, username, email, password_hash, role, is_active, last_login, created_at, updated_at`

// Users persists accounts.
type Users struct {
	db *sql.DB
}

func NewUsers(db *sql.DB) *Users {
	return &Users{db: db}
}

func (s *Users) CreateUser(ctx context.Context, u *model.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, u.ID, u.Username, u.Email, u.PasswordHash, string(u.Role), u.IsActive, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.AlreadyExists("user")
	}
	return err
}

func (s *Users) UserByID(ctx context.Context, id string) (*model.User, error) {
	return s.one(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *Users) UserByLogin(ctx context.Context, login string) (*model.User, error) {
	return s.one(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1 OR lower(email) = lower($1) LIMIT 1`, login)
}

func (s *Users) UserExists(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE lower(username) = lower($1) OR lower(email) = lower($2))
	`, username, email).Scan(&exists)
	return exists, err
}

func (s *Users) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_login = $2, updated_at = $2 WHERE id = $1`, id, at)
	return err
}

func (s *Users) one(ctx context.Context, q string, args ...any) (*model.User, error) {
	var (
		u         model.User
		role      string
		lastLogin sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, q, args...).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role,
		&u.IsActive, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}

// Audit appends to audit_log.
type Audit struct {
	db *sql.DB
}

func NewAudit(db *sql.DB) *Audit {
	return &Audit{db: db}
}

// Record is idempotent on the entry id so redelivered events are harmless.
func (a *Audit) Record(ctx context.Context, e model.AuditEntry) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, event_type, employee_id, actor_id, occurred_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO NOTHING
	`, e.ID, e.Type, e.EmployeeID, e.ActorID, e.At)
	return err
}
