package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
)

type UserRecord struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Role         string
	Status       string
	LastLoginAt  sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserRepo interface {
	Create(ctx context.Context, u *UserRecord) error
	GetByID(ctx context.Context, id int64) (UserRecord, error)
	// GetByLogin mencari berdasarkan username atau email.
	GetByLogin(ctx context.Context, login string) (UserRecord, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	UpdateProfile(ctx context.Context, id int64, fullName, email string) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

type userRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) UserRepo { return &userRepo{db: db} }

const userColumns = `id, username, email, password_hash, full_name, role, status, last_login_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (UserRecord, error) {
	var u UserRecord
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.Status,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *userRepo) Create(ctx context.Context, u *UserRecord) error {
	const q = `
		INSERT INTO users (username, email, password_hash, full_name, role, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, q, u.Username, u.Email, u.PasswordHash, u.FullName, u.Role, u.Status).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return userConflict(err)
}

// userConflict memilih field dari nama constraint unique yang kena
// (users_username_key atau users_email_key).
func userConflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" && strings.Contains(pqErr.Constraint, "email") {
		return ErrConflict{Field: "email", Message: "Email already exists"}
	}
	return uniqueViolation(err, "username", "Username already exists")
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (UserRecord, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, notFound(err, "user not found")
}

func (r *userRepo) GetByLogin(ctx context.Context, login string) (UserRecord, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 OR lower(email) = lower($1) LIMIT 1`, login))
	return u, notFound(err, "user not found")
}

func (r *userRepo) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&ok)
	return ok, err
}

func (r *userRepo) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1) AND id <> $2)`, email, excludeID).Scan(&ok)
	return ok, err
}

func (r *userRepo) UpdateProfile(ctx context.Context, id int64, fullName, email string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET full_name = $2, email = $3, updated_at = now() WHERE id = $1`, id, fullName, email)
	return uniqueViolation(err, "email", "Email already exists")
}

func (r *userRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
	return err
}

func (r *userRepo) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
	return err
}
