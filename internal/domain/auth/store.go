package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"sitelabor/internal/platform/db"
	"sitelabor/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const userColumns = `id::text, username, email, role, is_active, last_login_at, created_at`

func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash, role string) (User, error) {
	var u User
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (username, email, password_hash, role)
    VALUES ($1, $2, $3, $4)
    RETURNING `+userColumns,
		username, email, passwordHash, role).Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.IsActive, &u.LastLoginAt, &u.CreatedAt)
	if err != nil {
		if _, ok := db.UniqueViolation(err); ok {
			return User{}, ErrUserExists
		}
		return User{}, err
	}
	return u, nil
}

// FindByLogin matches login against email or username, case-insensitively.
func (s *Store) FindByLogin(ctx context.Context, login string) (Credentials, error) {
	var c Credentials
	err := s.DB.QueryRow(ctx, `
    SELECT `+userColumns+`, password_hash
    FROM users
    WHERE lower(email) = lower($1) OR lower(username) = lower($1)
    LIMIT 1
  `, login).Scan(&c.ID, &c.Username, &c.Email, &c.Role, &c.IsActive, &c.LastLoginAt, &c.CreatedAt, &c.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return Credentials{}, ErrUserNotFound
	}
	return c, err
}

func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	var u User
	err := s.DB.QueryRow(ctx, `
    SELECT `+userColumns+`
    FROM users
    WHERE id = $1
  `, id).Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.IsActive, &u.LastLoginAt, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) || db.InvalidText(err) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (s *Store) TouchLogin(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login_at = now() WHERE id = $1", id)
	return err
}
