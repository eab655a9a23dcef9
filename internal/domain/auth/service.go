package auth

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"sitelabor/internal/platform/logging"
)

type Service struct {
	store  StoreAPI
	secret string
	ttl    time.Duration
}

func NewService(store StoreAPI, secret string, ttl time.Duration) *Service {
	return &Service{store: store, secret: secret, ttl: ttl}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return User{}, ErrWeakPassword
	}
	if in.Role == "" {
		in.Role = RoleUser
	}
	if in.Role != RoleAdmin && in.Role != RoleUser {
		return User{}, ErrInvalidRole
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}
	return s.store.CreateUser(ctx, in.Username, in.Email, hash, in.Role)
}

// Login verifies the password and issues a signed access token. Unknown
// users and wrong passwords fail the same way.
func (s *Service) Login(ctx context.Context, login, password string) (Session, error) {
	creds, err := s.store.FindByLogin(ctx, strings.TrimSpace(login))
	if errors.Is(err, ErrUserNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if err := CheckPassword(creds.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if !creds.IsActive {
		return Session{}, ErrUserInactive
	}

	token, err := GenerateToken(s.secret, Claims{UserID: creds.ID, Username: creds.Username, Role: creds.Role}, s.ttl)
	if err != nil {
		return Session{}, err
	}
	if err := s.store.TouchLogin(ctx, creds.ID); err != nil {
		logging.Warn("auth", "touch_login", err.Error(), logrus.Fields{"userId": creds.ID})
	}
	return Session{Token: token, ExpiresAt: time.Now().Add(s.ttl), User: creds.User}, nil
}

func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	return s.store.GetUser(ctx, userID)
}

// EnsureAdmin creates the bootstrap admin unless a user with that email or
// username already exists.
func (s *Service) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := s.Register(ctx, RegisterInput{Username: username, Email: email, Password: password, Role: RoleAdmin})
	if errors.Is(err, ErrUserExists) {
		return nil
	}
	return err
}
