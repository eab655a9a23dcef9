// Package payrolltest provides an in-memory payroll settings store for tests.
package payrolltest

import (
	"context"
	"strconv"
	"sync"
	"time"

	"sitelabor/internal/domain/payroll"
)

type MemStore struct {
	mu    sync.Mutex
	seq   int
	items []payroll.Settings

	// Ensures counts EnsureActive calls.
	Ensures   int
	// CreateErr, when set, is returned by CreateActive without writing.
	CreateErr error
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (m *MemStore) active() (payroll.Settings, bool) {
	for _, s := range m.items {
		if s.IsActive {
			return s, true
		}
	}
	return payroll.Settings{}, false
}

func (m *MemStore) insert(in payroll.SettingsInput, active bool) payroll.Settings {
	m.seq++
	now := time.Now()
	s := payroll.Settings{
		ID:         "ps-" + strconv.Itoa(m.seq),
		Name:       in.Name,
		Rates:      in.Rates,
		Deductions: in.Deductions,
		IsActive:   active,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.items = append(m.items, s)
	return s
}

// Insert stores a settings document directly, bypassing service checks.
func (m *MemStore) Insert(in payroll.SettingsInput, active bool) payroll.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(in, active)
}

func (m *MemStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *MemStore) Active(context.Context) (payroll.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.active(); ok {
		return s, nil
	}
	return payroll.Settings{}, payroll.ErrNotFound
}

func (m *MemStore) EnsureActive(_ context.Context, defaults payroll.SettingsInput) (payroll.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ensures++
	if s, ok := m.active(); ok {
		return s, nil
	}
	return m.insert(defaults, true), nil
}

func (m *MemStore) Get(_ context.Context, id string) (payroll.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.items {
		if s.ID == id {
			return s, nil
		}
	}
	return payroll.Settings{}, payroll.ErrNotFound
}

// List returns newest first.
func (m *MemStore) List(context.Context) ([]payroll.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]payroll.Settings, len(m.items))
	for i := range m.items {
		out[len(m.items)-1-i] = m.items[i]
	}
	return out, nil
}

func (m *MemStore) Update(_ context.Context, id string, in payroll.SettingsInput) (payroll.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.items {
		if s.ID == id {
			s.Name, s.Rates, s.Deductions = in.Name, in.Rates, in.Deductions
			s.UpdatedAt = time.Now()
			m.items[i] = s
			return s, nil
		}
	}
	return payroll.Settings{}, payroll.ErrNotFound
}

func (m *MemStore) CreateActive(_ context.Context, in payroll.SettingsInput) (payroll.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return payroll.Settings{}, m.CreateErr
	}
	for i := range m.items {
		m.items[i].IsActive = false
	}
	return m.insert(in, true), nil
}
