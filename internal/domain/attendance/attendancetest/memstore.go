// Package attendancetest provides an in-memory attendance store with the
// same uniqueness and all-or-nothing batch semantics as the Postgres store.
package attendancetest

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"sitelabor/internal/domain/attendance"
)

type MemStore struct {
	mu      sync.Mutex
	seq     int
	records map[string]attendance.Record
	keys    map[attendance.Key]string
	tick    int

	// KnownWorkers, when non-nil, makes CreateBatch reject unknown workers
	// the way the foreign key does.
	KnownWorkers map[string]bool
}

func NewMemStore() *MemStore {
	return &MemStore{
		records: map[string]attendance.Record{},
		keys:    map[attendance.Key]string{},
	}
}

// now is a strictly increasing clock so listing order is deterministic.
func (m *MemStore) now() time.Time {
	m.tick++
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.tick) * time.Millisecond)
}

// Seed inserts records as-is, bypassing validation, e.g. to plant bad data.
func (m *MemStore) Seed(records ...attendance.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		if r.ID == "" {
			m.seq++
			r.ID = "seed-" + strconv.Itoa(m.seq)
		}
		r.Date = attendance.NormalizeDate(r.Date)
		m.records[r.ID] = r
		m.keys[r.Key()] = r.ID
	}
}

func (m *MemStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *MemStore) CreateBatch(_ context.Context, createdBy string, entries []attendance.NewEntry) ([]attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range entries {
		if m.KnownWorkers != nil && !m.KnownWorkers[e.WorkerID] {
			return nil, attendance.ErrReferenceNotFound
		}
		if _, exists := m.keys[e.Key()]; exists {
			return nil, &attendance.DuplicateEntryError{Key: e.Key()}
		}
	}

	created := make([]attendance.Record, 0, len(entries))
	for _, e := range entries {
		m.seq++
		now := m.now()
		r := attendance.Record{
			ID:           "att-" + strconv.Itoa(m.seq),
			WorkerID:     e.WorkerID,
			ContractorID: e.ContractorID,
			SiteID:       e.SiteID,
			Date:         attendance.NormalizeDate(e.Date),
			ShiftKind:    e.ShiftKind,
			Remarks:      e.Remarks,
			CreatedBy:    createdBy,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		m.records[r.ID] = r
		m.keys[r.Key()] = r.ID
		created = append(created, r)
	}
	return created, nil
}

func (m *MemStore) List(_ context.Context, f attendance.Filter) ([]attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := f.Range.Normalized()
	out := []attendance.Record{}
	for _, rec := range m.records {
		if f.WorkerID != "" && rec.WorkerID != f.WorkerID {
			continue
		}
		if f.ContractorID != "" && rec.ContractorID != f.ContractorID {
			continue
		}
		if f.SiteID != "" && rec.SiteID != f.SiteID {
			continue
		}
		if !r.From.IsZero() && rec.Date.Before(r.From) {
			continue
		}
		if !r.To.IsZero() && rec.Date.After(r.To) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemStore) Get(_ context.Context, id string) (attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return r, nil
}

func (m *MemStore) Update(_ context.Context, id string, change attendance.Change) (attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	if change.ShiftKind != nil {
		r.ShiftKind = *change.ShiftKind
	}
	if change.Remarks != nil {
		r.Remarks = *change.Remarks
	}
	r.UpdatedAt = m.now()
	m.records[id] = r
	return r, nil
}

func (m *MemStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return attendance.ErrNotFound
	}
	delete(m.records, id)
	delete(m.keys, r.Key())
	return nil
}

func (m *MemStore) CountOn(_ context.Context, day time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := attendance.NormalizeDate(day)
	count := 0
	for _, r := range m.records {
		if r.Date.Equal(d) {
			count++
		}
	}
	return count, nil
}
