// Package authtest provides an in-memory auth.StoreAPI for tests.
package authtest

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"sitelabor/internal/domain/auth"
)

type MemStore struct {
	mu    sync.Mutex
	users []auth.Credentials
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (m *MemStore) CreateUser(_ context.Context, username, email, hash, role string) (auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) || strings.EqualFold(u.Username, username) {
			return auth.User{}, auth.ErrUserExists
		}
	}
	u := auth.Credentials{
		User:         auth.User{ID: "u" + strconv.Itoa(len(m.users)+1), Username: username, Email: email, Role: role, IsActive: true, CreatedAt: time.Now()},
		PasswordHash: hash,
	}
	m.users = append(m.users, u)
	return u.User, nil
}

func (m *MemStore) FindByLogin(_ context.Context, login string) (auth.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, login) || strings.EqualFold(u.Username, login) {
			return u, nil
		}
	}
	return auth.Credentials{}, auth.ErrUserNotFound
}

func (m *MemStore) GetUser(_ context.Context, id string) (auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u.User, nil
		}
	}
	return auth.User{}, auth.ErrUserNotFound
}

func (m *MemStore) TouchLogin(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for i := range m.users {
		if m.users[i].ID == id {
			m.users[i].LastLoginAt = &now
		}
	}
	return nil
}

// Deactivate marks a user inactive.
func (m *MemStore) Deactivate(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == id {
			m.users[i].IsActive = false
		}
	}
}

func (m *MemStore) Users() []auth.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]auth.User, len(m.users))
	for i, u := range m.users {
		out[i] = u.User
	}
	return out
}
